package session

import (
	"sync"

	"github.com/dailyfocus/focus/internal/focus"
)

// Listener receives exactly one result per terminated session.
type Listener func(focus.SessionResult)

type listenerEntry[T any] struct {
	id int
	fn func(T)
}

// listenerSet keeps callbacks in registration order. notify iterates over a
// snapshot, so removals during a round only apply to later rounds.
type listenerSet[T any] struct {
	nextID  int
	entries []listenerEntry[T]
}

func (ls *listenerSet[T]) add(fn func(T)) (remove func()) {
	ls.nextID++
	id := ls.nextID
	ls.entries = append(ls.entries, listenerEntry[T]{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() { ls.remove(id) })
	}
}

func (ls *listenerSet[T]) remove(id int) {
	for i, e := range ls.entries {
		if e.id == id {
			// Copy instead of shifting in place so snapshots held by an
			// in-flight notify stay intact.
			next := make([]listenerEntry[T], 0, len(ls.entries)-1)
			next = append(next, ls.entries[:i]...)
			next = append(next, ls.entries[i+1:]...)
			ls.entries = next
			return
		}
	}
}

func (ls *listenerSet[T]) notify(v T) {
	snapshot := ls.entries
	for _, e := range snapshot {
		e.fn(v)
	}
}

func (ls *listenerSet[T]) len() int { return len(ls.entries) }

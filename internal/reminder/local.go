package reminder

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dailyfocus/focus/internal/clock"
)

var ErrSchedulerClosed = errors.New("reminder scheduler closed")

// Delivered is a notification that fired.
type Delivered struct {
	ID string    `json:"id"`
	At time.Time `json:"at"`
	Notification
}

// LocalScheduler fires notifications in-process on clock timers and hands
// them to deliver. Pending timers do not survive a restart; Planner.Sync at
// start-up reschedules.
type LocalScheduler struct {
	clock   clock.Clock
	deliver func(Delivered)

	mu      sync.Mutex
	pending map[string]clock.Timer
	closed  bool
}

func NewLocalScheduler(c clock.Clock, deliver func(Delivered)) *LocalScheduler {
	return &LocalScheduler{
		clock:   c,
		deliver: deliver,
		pending: make(map[string]clock.Timer),
	}
}

func (s *LocalScheduler) Schedule(_ context.Context, at time.Time, n Notification) (string, error) {
	id := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", ErrSchedulerClosed
	}

	wait := at.Sub(s.clock.Now())
	if wait < 0 {
		wait = 0
	}
	s.pending[id] = s.clock.AfterFunc(wait, func() {
		s.mu.Lock()
		_, live := s.pending[id]
		delete(s.pending, id)
		s.mu.Unlock()
		if live {
			s.deliver(Delivered{ID: id, At: at, Notification: n})
		}
	})
	return id, nil
}

// Cancel stops a pending notification. Unknown ids are ignored.
func (s *LocalScheduler) Cancel(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.pending[id]; ok {
		t.Stop()
		delete(s.pending, id)
	}
	return nil
}

// Pending returns the number of scheduled notifications.
func (s *LocalScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Close cancels every pending notification and rejects new ones.
func (s *LocalScheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range s.pending {
		t.Stop()
		delete(s.pending, id)
	}
	s.closed = true
}

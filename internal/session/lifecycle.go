package session

import (
	"strings"

	"github.com/dailyfocus/focus/internal/focus"
)

// AppState is the host application's foreground state.
type AppState string

const (
	AppActive     AppState = "active"
	AppInactive   AppState = "inactive"
	AppBackground AppState = "background"
)

// ParseAppState normalizes a state reported by a client. Anything that is
// not "active" is a non-foreground state.
func ParseAppState(s string) AppState {
	return AppState(strings.ToLower(strings.TrimSpace(s)))
}

// Source delivers app state transitions.
type Source interface {
	Subscribe(func(AppState)) (unsubscribe func())
}

// Failer is the part of the engine the monitor drives.
type Failer interface {
	Fail(reason string) *focus.SessionResult
}

// Monitor fails the active session when the app leaves the foreground.
// Like the Engine it must be driven from a single goroutine.
type Monitor struct {
	failer      Failer
	prev        AppState
	unsubscribe func()
}

// NewMonitor returns a monitor that assumes the app is currently in the
// initial state.
func NewMonitor(f Failer, initial AppState) *Monitor {
	return &Monitor{failer: f, prev: initial}
}

// Observe records the next app state. On an active to non-active edge it
// fails the session with ReasonBackgrounded and returns the result. Repeated
// reports of the same non-active state do not fire again.
func (m *Monitor) Observe(next AppState) *focus.SessionResult {
	wasActive := m.prev == AppActive
	m.prev = next

	if wasActive && next != AppActive {
		return m.failer.Fail(focus.ReasonBackgrounded)
	}
	return nil
}

// State returns the last observed state.
func (m *Monitor) State() AppState { return m.prev }

// Attach subscribes the monitor to src, replacing any earlier source.
func (m *Monitor) Attach(src Source) {
	m.Close()
	m.unsubscribe = src.Subscribe(func(s AppState) { m.Observe(s) })
}

// Close detaches the monitor from its source.
func (m *Monitor) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
}

// Signal is an in-process Source. Emit delivers synchronously to every
// subscriber in registration order.
type Signal struct {
	subs listenerSet[AppState]
}

func (s *Signal) Subscribe(fn func(AppState)) (unsubscribe func()) {
	return s.subs.add(fn)
}

func (s *Signal) Emit(state AppState) {
	s.subs.notify(state)
}

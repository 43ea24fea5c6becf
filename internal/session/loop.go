package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dailyfocus/focus/internal/clock"
	"github.com/dailyfocus/focus/internal/focus"
)

var ErrLoopStopped = errors.New("session loop stopped")

// Snapshot is a read-only view of the active session and its visible passage.
type Snapshot struct {
	Session   focus.Session
	Passage   focus.Passage
	Remaining time.Duration
}

// Loop owns an Engine and its Monitor on a single goroutine. Every
// operation, lifecycle event and timer callback is funnelled through Run,
// which gives the engine the single-threaded event ordering it relies on.
//
// Loop also arms one dwell timer for the visible passage and tells gate
// listeners when the passage may be left.
type Loop struct {
	engine  *Engine
	monitor *Monitor
	signal  Signal
	clock   clock.Clock
	logger  *slog.Logger

	ops     chan func()
	stopped chan struct{}

	gate     clock.Timer
	armed    Ticket
	hasArmed bool
	gateSubs listenerSet[focus.Session]

	startSubs   listenerSet[Snapshot]
	advanceSubs listenerSet[AdvanceResult]
}

// NewLoop wires monitor to the loop's lifecycle signal. Subscriptions on the
// engine and the On* hooks must happen before Run or from inside Do.
func NewLoop(engine *Engine, monitor *Monitor, c clock.Clock, logger *slog.Logger) *Loop {
	l := &Loop{
		engine:  engine,
		monitor: monitor,
		clock:   c,
		logger:  logger,
		ops:     make(chan func()),
		stopped: make(chan struct{}),
	}
	monitor.Attach(&l.signal)
	return l
}

// OnGateOpen registers fn to run, on the loop goroutine, when the visible
// passage's dwell time elapses.
func (l *Loop) OnGateOpen(fn func(focus.Session)) (unsubscribe func()) {
	return l.gateSubs.add(fn)
}

// OnStarted registers fn to run on the loop goroutine right after a session
// opens, before its dwell timer can fire.
func (l *Loop) OnStarted(fn func(Snapshot)) (unsubscribe func()) {
	return l.startSubs.add(fn)
}

// OnAdvanced registers fn for moved advances. Like OnStarted it runs inside
// the advancing operation, so it always precedes the next gate callback.
func (l *Loop) OnAdvanced(fn func(AdvanceResult)) (unsubscribe func()) {
	return l.advanceSubs.add(fn)
}

// Run processes operations until ctx is done. On return the dwell timer is
// cancelled and the monitor is detached from its source.
func (l *Loop) Run(ctx context.Context) error {
	defer func() {
		l.disarm()
		l.monitor.Close()
		close(l.stopped)
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case op := <-l.ops:
			op()
			l.rearm()
		}
	}
}

// Do runs fn on the loop goroutine and waits for it to finish.
func (l *Loop) Do(ctx context.Context, fn func(*Engine)) error {
	done := make(chan struct{})
	op := func() {
		defer close(done)
		fn(l.engine)
		// Armed before the caller resumes, so a clock move right after
		// Do returns sees the new timer.
		l.rearm()
	}

	select {
	case l.ops <- op:
	case <-l.stopped:
		return ErrLoopStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	// An accepted op always runs to completion.
	<-done
	return nil
}

// Start opens a session and returns it with its first passage.
func (l *Loop) Start(ctx context.Context, storyID string) (Snapshot, error) {
	var (
		snap Snapshot
		err  error
	)
	doErr := l.Do(ctx, func(e *Engine) {
		var s focus.Session
		if s, err = e.Start(storyID); err != nil {
			return
		}
		p, _ := e.Passage()
		snap = Snapshot{Session: s, Passage: p, Remaining: Remaining(s, p, s.PassageShownAt)}
		l.startSubs.notify(snap)
	})
	if doErr != nil {
		return Snapshot{}, doErr
	}
	return snap, err
}

// Advance requests to leave the visible passage at the loop clock's now.
func (l *Loop) Advance(ctx context.Context) (AdvanceResult, error) {
	var res AdvanceResult
	err := l.Do(ctx, func(e *Engine) {
		res = e.RequestAdvance(l.clock.Now())
		if res.Outcome == AdvanceMoved {
			l.advanceSubs.notify(res)
		}
	})
	return res, err
}

func (l *Loop) Complete(ctx context.Context) (*focus.SessionResult, error) {
	var res *focus.SessionResult
	err := l.Do(ctx, func(e *Engine) { res = e.Complete() })
	return res, err
}

func (l *Loop) Fail(ctx context.Context, reason string) (*focus.SessionResult, error) {
	var res *focus.SessionResult
	err := l.Do(ctx, func(e *Engine) { res = e.Fail(reason) })
	return res, err
}

// Emit delivers an app state change to the monitor. It returns the failure
// result when the change ended the active session.
func (l *Loop) Emit(ctx context.Context, state AppState) (*focus.SessionResult, error) {
	var res *focus.SessionResult
	err := l.Do(ctx, func(e *Engine) {
		unsubscribe := e.Subscribe(func(r focus.SessionResult) { res = &r })
		defer unsubscribe()
		l.signal.Emit(state)
	})
	return res, err
}

// Snapshot returns the active session, if any.
func (l *Loop) Snapshot(ctx context.Context) (Snapshot, bool, error) {
	var (
		snap Snapshot
		ok   bool
	)
	err := l.Do(ctx, func(e *Engine) {
		s, active := e.Active()
		if !active {
			return
		}
		p, _ := e.Passage()
		snap = Snapshot{Session: s, Passage: p, Remaining: Remaining(s, p, l.clock.Now())}
		ok = true
	})
	return snap, ok, err
}

// post submits fn without waiting for it. Used by timer callbacks, which
// must not outlive the loop.
func (l *Loop) post(fn func()) {
	select {
	case l.ops <- fn:
	case <-l.stopped:
	}
}

// rearm keeps exactly one dwell timer armed for the visible passage.
func (l *Loop) rearm() {
	t, ok := l.engine.Ticket()
	if ok && l.hasArmed && t == l.armed {
		return
	}
	l.disarm()
	if !ok {
		return
	}

	s, _ := l.engine.Active()
	p, _ := l.engine.Passage()
	wait := Remaining(s, p, l.clock.Now())

	l.armed, l.hasArmed = t, true
	l.gate = l.clock.AfterFunc(wait, func() {
		l.post(func() {
			if !l.engine.Current(t) {
				return
			}
			s, _ := l.engine.Active()
			l.logger.Debug("dwell gate open",
				"session_id", t.SessionID,
				"passage", t.Passage,
			)
			l.gateSubs.notify(s)
		})
	})
}

func (l *Loop) disarm() {
	if l.gate != nil {
		l.gate.Stop()
		l.gate = nil
	}
	l.hasArmed = false
}

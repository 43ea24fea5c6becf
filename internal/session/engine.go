// Package session implements the session integrity engine: the state
// machine for a single reading session, the pacing gate that withholds
// advance permission until a passage's dwell time has elapsed, and the
// lifecycle monitor that turns loss of foreground focus into a failure.
package session

import (
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dailyfocus/focus/internal/clock"
	"github.com/dailyfocus/focus/internal/focus"
)

var (
	ErrStoryNotFound = errors.New("story not found")
	ErrEmptyStory    = errors.New("story has no passages")
)

// Stories resolves story content by ID.
type Stories interface {
	Story(id string) (focus.Story, bool)
}

// WakeLock keeps the device awake while a session is active.
type WakeLock interface {
	Acquire()
	Release()
}

type nopWakeLock struct{}

func (nopWakeLock) Acquire() {}
func (nopWakeLock) Release() {}

type AdvanceOutcome string

const (
	AdvanceNoSession AdvanceOutcome = "no_session"
	AdvanceRejected  AdvanceOutcome = "rejected"
	AdvanceMoved     AdvanceOutcome = "advanced"
	AdvanceCompleted AdvanceOutcome = "completed"
)

// AdvanceResult describes what a RequestAdvance call did. A rejection is an
// ordinary outcome, not an error. Passage and Remaining describe the passage
// visible after the call.
type AdvanceResult struct {
	Outcome   AdvanceOutcome
	Session   focus.Session
	Passage   focus.Passage
	Remaining time.Duration
	Result    *focus.SessionResult
}

// Ticket identifies the passage that is currently visible. Timer callbacks
// carry one and must check Engine.Current before acting.
type Ticket struct {
	SessionID string
	Passage   int
}

// Engine is the session state machine. It is not safe for concurrent use:
// exactly one goroutine owns it (see Loop).
type Engine struct {
	clock     clock.Clock
	stories   Stories
	wake      WakeLock
	logger    *slog.Logger
	listeners listenerSet[focus.SessionResult]

	active *focus.Session
	story  focus.Story
}

type Option func(*Engine)

func WithWakeLock(w WakeLock) Option {
	return func(e *Engine) { e.wake = w }
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

func NewEngine(c clock.Clock, stories Stories, opts ...Option) *Engine {
	e := &Engine{
		clock:   c,
		stories: stories,
		wake:    nopWakeLock{},
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start opens a session on storyID. An already active session is failed
// with ReasonRestarted first, and its listeners run before the new session
// exists. A session a listener opens during that round is failed the same
// way, so every started session ends with exactly one result.
func (e *Engine) Start(storyID string) (focus.Session, error) {
	story, ok := e.stories.Story(storyID)
	if !ok {
		return focus.Session{}, ErrStoryNotFound
	}
	if len(story.Passages) == 0 {
		return focus.Session{}, ErrEmptyStory
	}

	for e.isActive() {
		e.finalize(focus.OutcomeFailed, focus.ReasonRestarted)
	}

	now := e.clock.Now()
	e.story = story
	e.active = &focus.Session{
		ID:             uuid.NewString(),
		StoryID:        story.ID,
		StartedAt:      now,
		CurrentPassage: 0,
		PassageCount:   len(story.Passages),
		PassageShownAt: now,
		Status:         focus.StatusActive,
	}
	e.wake.Acquire()

	e.logger.Info("session started",
		"session_id", e.active.ID,
		"story_id", story.ID,
		"passages", len(story.Passages),
	)
	return *e.active, nil
}

// RequestAdvance asks to leave the visible passage at time now.
func (e *Engine) RequestAdvance(now time.Time) AdvanceResult {
	if !e.isActive() {
		return AdvanceResult{Outcome: AdvanceNoSession}
	}

	s := e.active
	passage := e.story.Passages[s.CurrentPassage]
	if !CanAdvance(*s, passage, now) {
		return AdvanceResult{
			Outcome:   AdvanceRejected,
			Session:   *s,
			Passage:   passage,
			Remaining: Remaining(*s, passage, now),
		}
	}

	if s.IsLastPassage() {
		snapshot := *s
		res := e.finalize(focus.OutcomeCompleted, "")
		snapshot.Status = focus.StatusCompleted
		return AdvanceResult{Outcome: AdvanceCompleted, Session: snapshot, Result: res}
	}

	s.CurrentPassage++
	s.PassageShownAt = now
	next := e.story.Passages[s.CurrentPassage]
	return AdvanceResult{
		Outcome:   AdvanceMoved,
		Session:   *s,
		Passage:   next,
		Remaining: next.MinDisplay,
	}
}

// Complete finalizes the active session as completed. It returns nil when
// no session is active.
func (e *Engine) Complete() *focus.SessionResult {
	return e.finalize(focus.OutcomeCompleted, "")
}

// Fail finalizes the active session as failed. It returns nil when no
// session is active.
func (e *Engine) Fail(reason string) *focus.SessionResult {
	return e.finalize(focus.OutcomeFailed, reason)
}

// Subscribe registers l for session results. The returned function removes
// it and may be called more than once.
func (e *Engine) Subscribe(l Listener) (unsubscribe func()) {
	return e.listeners.add(l)
}

// Active returns a copy of the active session.
func (e *Engine) Active() (focus.Session, bool) {
	if !e.isActive() {
		return focus.Session{}, false
	}
	return *e.active, true
}

// Passage returns the passage currently shown.
func (e *Engine) Passage() (focus.Passage, bool) {
	if !e.isActive() {
		return focus.Passage{}, false
	}
	return e.story.Passages[e.active.CurrentPassage], true
}

// Ticket returns the identity of the visible passage.
func (e *Engine) Ticket() (Ticket, bool) {
	if !e.isActive() {
		return Ticket{}, false
	}
	return Ticket{SessionID: e.active.ID, Passage: e.active.CurrentPassage}, true
}

// Current reports whether t still names the visible passage.
func (e *Engine) Current(t Ticket) bool {
	cur, ok := e.Ticket()
	return ok && cur == t
}

func (e *Engine) isActive() bool {
	return e.active != nil && e.active.Status == focus.StatusActive
}

// finalize is the single exit from the Active state. Only the first caller
// wins; every later call is a no-op returning nil.
func (e *Engine) finalize(outcome focus.Outcome, reason string) *focus.SessionResult {
	if !e.isActive() {
		return nil
	}
	s := e.active

	e.wake.Release()
	if outcome == focus.OutcomeCompleted {
		s.Status = focus.StatusCompleted
		reason = ""
	} else {
		s.Status = focus.StatusFailed
	}

	res := focus.SessionResult{
		SessionID: s.ID,
		StoryID:   s.StoryID,
		Outcome:   outcome,
		Reason:    reason,
		StartedAt: s.StartedAt,
		EndedAt:   e.clock.Now(),
	}

	// Cleared before notifying so a listener may start the next session.
	e.active = nil
	e.story = focus.Story{}

	e.logger.Info("session finalized",
		"session_id", res.SessionID,
		"story_id", res.StoryID,
		"outcome", res.Outcome,
		"reason", res.Reason,
	)
	e.listeners.notify(res)
	return &res
}

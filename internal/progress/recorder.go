package progress

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/dailyfocus/focus/internal/clock"
	"github.com/dailyfocus/focus/internal/focus"
	"github.com/dailyfocus/focus/internal/stats"
	"github.com/dailyfocus/focus/internal/storage"
)

// LastOutcome is the most recent session outcome and the day it happened.
type LastOutcome struct {
	Outcome focus.Outcome `json:"outcome"`
	Date    string        `json:"date"`
}

// ReminderSyncer is told about the last completion date after every
// recorded session.
type ReminderSyncer interface {
	Sync(ctx context.Context, lastCompletedDate string) (time.Time, error)
}

// Recorder owns the in-memory copies of the persisted statistics and
// progress. It must be hydrated once before use; any other call on an
// unhydrated recorder panics.
type Recorder struct {
	kv        storage.KV
	clock     clock.Clock
	logger    *slog.Logger
	reminders ReminderSyncer

	mu       sync.RWMutex
	hydrated bool
	stats    focus.FocusStats
	progress focus.Progress
	last     *LastOutcome
}

type Option func(*Recorder)

func WithReminders(r ReminderSyncer) Option {
	return func(rec *Recorder) { rec.reminders = r }
}

func NewRecorder(kv storage.KV, c clock.Clock, logger *slog.Logger, opts ...Option) *Recorder {
	r := &Recorder{kv: kv, clock: c, logger: logger}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Hydrate loads stored state. Unreadable or corrupt values are replaced by
// defaults; it never fails.
func (r *Recorder) Hydrate(ctx context.Context) {
	s := stats.Decode(r.load(ctx, storage.StatsKey))
	p := Decode(r.load(ctx, storage.ProgressKey))

	var last *LastOutcome
	if raw := r.load(ctx, storage.LastOutcomeKey); raw != "" {
		var lo LastOutcome
		if err := json.Unmarshal([]byte(raw), &lo); err == nil && lo.Outcome != "" {
			last = &lo
		}
	}

	r.mu.Lock()
	r.stats, r.progress, r.last = s, p, last
	r.hydrated = true
	r.mu.Unlock()

	r.logger.Info("progress hydrated",
		"stories_completed", s.StoriesCompleted,
		"history", len(p.SessionHistory),
	)
}

func (r *Recorder) load(ctx context.Context, key string) string {
	raw, _, err := r.kv.Load(ctx, key)
	if err != nil {
		r.logger.Warn("loading stored state, using defaults", "key", key, "error", err)
		return ""
	}
	return raw
}

func (r *Recorder) mustBeHydrated() {
	if !r.hydrated {
		panic("progress: Recorder used before Hydrate")
	}
}

// Record folds res into progress and, for completions, into statistics,
// then persists everything. Writes are best-effort.
func (r *Recorder) Record(ctx context.Context, res focus.SessionResult) focus.FocusStats {
	s := r.apply(ctx, res)

	r.logger.Info("session recorded",
		"session_id", res.SessionID,
		"outcome", res.Outcome,
		"day_streak", s.DayStreak,
		"xp", s.XP,
	)

	r.SyncReminder(ctx)
	return s
}

func (r *Recorder) apply(ctx context.Context, res focus.SessionResult) focus.FocusStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mustBeHydrated()

	if res.Outcome == focus.OutcomeCompleted {
		r.stats = stats.Project(r.stats, res.EndedAt, stats.ElapsedSeconds(res.Elapsed()))
	}
	r.progress = Next(r.progress, res)
	r.last = &LastOutcome{Outcome: res.Outcome, Date: stats.DateKey(res.EndedAt)}

	r.save(ctx, storage.StatsKey, r.stats)
	r.save(ctx, storage.ProgressKey, r.progress)
	r.save(ctx, storage.LastOutcomeKey, r.last)
	return r.stats
}

// SyncReminder brings the reminder in line with the current statistics.
func (r *Recorder) SyncReminder(ctx context.Context) {
	if r.reminders == nil {
		return
	}
	if _, err := r.reminders.Sync(ctx, r.Stats().LastCompletedDate); err != nil {
		r.logger.Warn("syncing reminder", "error", err)
	}
}

func (r *Recorder) save(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		r.logger.Error("encoding stored state", "key", key, "error", err)
		return
	}
	if err := r.kv.Save(ctx, key, string(data)); err != nil {
		r.logger.Warn("saving stored state", "key", key, "error", err)
	}
}

// Listener adapts Record to the engine's listener signature.
func (r *Recorder) Listener(ctx context.Context) func(focus.SessionResult) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	r.mustBeHydrated()
	return func(res focus.SessionResult) { r.Record(ctx, res) }
}

func (r *Recorder) Stats() focus.FocusStats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	r.mustBeHydrated()
	return r.stats
}

// Progress returns a copy of the progress aggregate.
func (r *Recorder) Progress() focus.Progress {
	r.mu.RLock()
	defer r.mu.RUnlock()
	r.mustBeHydrated()
	return focus.Progress{
		CompletedStoryIDs: append([]string{}, r.progress.CompletedStoryIDs...),
		SessionHistory:    append([]focus.SessionResult{}, r.progress.SessionHistory...),
	}
}

// LastOutcome returns the most recent outcome, if any session was recorded.
func (r *Recorder) LastOutcome() (LastOutcome, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	r.mustBeHydrated()
	if r.last == nil {
		return LastOutcome{}, false
	}
	return *r.last, true
}

// CompletedToday reports whether a story was completed on the clock's
// current day.
func (r *Recorder) CompletedToday() bool {
	return stats.CompletedOn(r.Stats().LastCompletedDate, r.clock.Now())
}

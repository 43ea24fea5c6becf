package reminder

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dailyfocus/focus/internal/clock"
	"github.com/dailyfocus/focus/internal/stats"
	"github.com/dailyfocus/focus/internal/storage"
)

// Notification is the payload handed to a Scheduler.
type Notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Type  string `json:"type"`
}

const NotificationType = "daily-focus-reminder"

// Tonight is the reminder scheduled when no story was completed today.
var Tonight = Notification{
	Title: "DailyFocus",
	Body:  "Don't forget to practice your focus today.",
	Type:  NotificationType,
}

// Scheduler delivers a notification at a future time.
type Scheduler interface {
	Schedule(ctx context.Context, at time.Time, n Notification) (id string, err error)
	Cancel(ctx context.Context, id string) error
}

// NextTrigger returns the next hour:minute in now's location, strictly
// after now.
func NextTrigger(now time.Time, hour, minute int) time.Time {
	y, m, d := now.Date()
	at := time.Date(y, m, d, hour, minute, 0, 0, now.Location())
	if !at.After(now) {
		at = time.Date(y, m, d+1, hour, minute, 0, 0, now.Location())
	}
	return at
}

// ShouldRemind reports whether a reminder should exist: reminders are on and
// nothing was completed on now's calendar day.
func ShouldRemind(s Settings, lastCompletedDate string, now time.Time) bool {
	return s.Enabled && !stats.CompletedOn(lastCompletedDate, now)
}

// Planner keeps at most one pending reminder in step with the stats.
// Its id is persisted so a restart can cancel what an earlier process
// scheduled.
type Planner struct {
	mu sync.Mutex // serializes Sync

	kv        storage.KV
	scheduler Scheduler
	clock     clock.Clock
	logger    *slog.Logger
	defaults  Settings
}

func NewPlanner(kv storage.KV, s Scheduler, c clock.Clock, defaults Settings, logger *slog.Logger) *Planner {
	return &Planner{kv: kv, scheduler: s, clock: c, defaults: defaults, logger: logger}
}

// Settings returns the stored settings, or the defaults.
func (p *Planner) Settings(ctx context.Context) Settings {
	raw, _, err := p.kv.Load(ctx, storage.ReminderSettingsKey)
	if err != nil {
		p.logger.Warn("loading reminder settings", "error", err)
		return p.defaults
	}
	return DecodeSettings(raw, p.defaults)
}

// SaveSettings stores s after wrapping it into range.
func (p *Planner) SaveSettings(ctx context.Context, s Settings) (Settings, error) {
	s = s.Normalize()
	data, err := json.Marshal(s)
	if err != nil {
		return s, fmt.Errorf("encoding reminder settings: %w", err)
	}
	if err := p.kv.Save(ctx, storage.ReminderSettingsKey, string(data)); err != nil {
		return s, err
	}
	return s, nil
}

// Sync cancels the stored reminder and schedules the next one. When
// something was already completed today tonight's reminder is skipped and
// tomorrow's is scheduled instead. It returns the new reminder's time, or
// the zero time when reminders are off.
//
// Sync is also meant to run after every delivery, which keeps one reminder
// pending per evening.
func (p *Planner) Sync(ctx context.Context, lastCompletedDate string) (time.Time, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	settings := p.Settings(ctx)
	now := p.clock.Now()

	prevID, hasPrev, err := p.kv.Load(ctx, storage.ReminderIDKey)
	if err != nil {
		return time.Time{}, err
	}
	if hasPrev && prevID != "" {
		if err := p.scheduler.Cancel(ctx, prevID); err != nil {
			p.logger.Warn("cancelling reminder", "reminder_id", prevID, "error", err)
		}
	}

	if !settings.Enabled {
		if hasPrev {
			if err := p.kv.Delete(ctx, storage.ReminderIDKey); err != nil {
				return time.Time{}, err
			}
		}
		p.logger.Debug("reminders disabled")
		return time.Time{}, nil
	}

	from := now
	tonight := ShouldRemind(settings, lastCompletedDate, now)
	if !tonight {
		y, m, d := now.Date()
		from = time.Date(y, m, d+1, 0, 0, 0, 0, now.Location()).Add(-time.Nanosecond)
	}

	at := NextTrigger(from, settings.Hour, settings.Minute)
	id, err := p.scheduler.Schedule(ctx, at, Tonight)
	if err != nil {
		return time.Time{}, fmt.Errorf("scheduling reminder: %w", err)
	}
	if err := p.kv.Save(ctx, storage.ReminderIDKey, id); err != nil {
		return time.Time{}, err
	}

	p.logger.Info("reminder scheduled", "reminder_id", id, "at", at, "skipped_today", !tonight)
	return at, nil
}

// Package stats projects aggregate focus statistics from a completed session.
package stats

import (
	"encoding/json"
	"math"
	"regexp"
	"time"

	"github.com/dailyfocus/focus/internal/focus"
)

const (
	XPPerStory = 100
	XPPerLevel = 300

	// DateLayout is the calendar-day key stored in LastCompletedDate.
	DateLayout = "2006-01-02"
)

var dateKeyRE = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Project returns the statistics after one more completed story. prev is not
// modified; every field of the result is recomputed.
func Project(prev focus.FocusStats, completedAt time.Time, elapsedSeconds float64) focus.FocusStats {
	streak := 1
	if diff, ok := DayDifference(prev.LastCompletedDate, completedAt); ok {
		switch diff {
		case 0:
			streak = prev.DayStreak
		case 1:
			streak = prev.DayStreak + 1
		}
	}

	xp := prev.XP + XPPerStory
	return focus.FocusStats{
		StoriesCompleted:  prev.StoriesCompleted + 1,
		MinutesFocused:    prev.MinutesFocused + elapsedSeconds/60,
		XP:                xp,
		Level:             LevelFor(xp),
		LastCompletedDate: DateKey(completedAt),
		DayStreak:         streak,
	}
}

// LevelFor maps experience points to a level starting at 1.
func LevelFor(xp int) int {
	if xp < 0 {
		return 1
	}
	return xp/XPPerLevel + 1
}

// DateKey formats t's calendar date in t's own location.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

// NormalizeDateKey turns a stored date into a calendar-day key. Plain keys
// pass through; RFC 3339 timestamps are converted to loc first. It reports
// false for empty or unparseable input.
func NormalizeDateKey(raw string, loc *time.Location) (string, bool) {
	if raw == "" {
		return "", false
	}
	if dateKeyRE.MatchString(raw) {
		if _, err := time.Parse(DateLayout, raw); err != nil {
			return "", false
		}
		return raw, true
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return "", false
	}
	return DateKey(t.In(loc)), true
}

// DayDifference counts calendar days from the stored date to now's date in
// now's location. DST shifts and times of day do not affect the result.
func DayDifference(prevRaw string, now time.Time) (int, bool) {
	key, ok := NormalizeDateKey(prevRaw, now.Location())
	if !ok {
		return 0, false
	}
	prev, err := time.Parse(DateLayout, key)
	if err != nil {
		return 0, false
	}
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return int(today.Sub(prev).Hours() / 24), true
}

// CompletedOn reports whether the stored date falls on now's calendar day.
func CompletedOn(lastCompletedDate string, now time.Time) bool {
	key, ok := NormalizeDateKey(lastCompletedDate, now.Location())
	return ok && key == DateKey(now)
}

// ElapsedSeconds rounds a session's duration to whole seconds with a floor
// of one, which keeps instant completions from counting as zero focus.
func ElapsedSeconds(d time.Duration) float64 {
	return math.Max(1, math.Round(d.Seconds()))
}

// Decode reads stored statistics. Missing, corrupt or out-of-range fields
// fall back to focus.DefaultStats; it never fails.
func Decode(raw string) focus.FocusStats {
	out := focus.DefaultStats()
	if raw == "" {
		return out
	}

	var doc map[string]any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return out
	}

	out.StoriesCompleted = intField(doc, "storiesCompleted", 0, 0)
	out.MinutesFocused = floatField(doc, "minutesFocused", 0, 0)
	out.XP = intField(doc, "xp", 0, 0)
	out.Level = intField(doc, "level", 1, 1)
	out.DayStreak = intField(doc, "dayStreak", 0, 0)
	if s, ok := doc["lastCompletedDate"].(string); ok {
		out.LastCompletedDate = s
	}
	return out
}

func floatField(doc map[string]any, key string, fallback, min float64) float64 {
	v, ok := doc[key].(float64)
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) || v < min {
		return fallback
	}
	return v
}

func intField(doc map[string]any, key string, fallback, min int) int {
	v := floatField(doc, key, math.NaN(), float64(min))
	if math.IsNaN(v) || v > math.MaxInt32 {
		return fallback
	}
	return int(v)
}

// Package reminder decides whether tonight's focus reminder should exist
// and hands scheduling to a Scheduler.
package reminder

import (
	"encoding/json"
	"math"
)

const (
	DefaultHour   = 20
	DefaultMinute = 0
	MinuteStep    = 5
)

// Settings is the reader's reminder preference.
type Settings struct {
	Enabled bool `json:"enabled"`
	Hour    int  `json:"hour"`
	Minute  int  `json:"minute"`
}

func DefaultSettings() Settings {
	return Settings{Enabled: true, Hour: DefaultHour, Minute: DefaultMinute}
}

// WrapHour keeps a stepped hour inside 0..23, wrapping past either end.
func WrapHour(h int) int {
	switch {
	case h < 0:
		return 23
	case h > 23:
		return 0
	}
	return h
}

// WrapMinute keeps a stepped minute inside 0..55, wrapping past either end.
func WrapMinute(m int) int {
	switch {
	case m < 0:
		return 60 - MinuteStep
	case m > 60-MinuteStep:
		return 0
	}
	return m
}

// Normalize wraps hour and minute into range.
func (s Settings) Normalize() Settings {
	s.Hour = WrapHour(s.Hour)
	s.Minute = WrapMinute(s.Minute)
	return s
}

// DecodeSettings parses stored settings. A missing or corrupt document
// yields fallback; a stored document only enables reminders when
// "enabled" is literally true.
func DecodeSettings(raw string, fallback Settings) Settings {
	if raw == "" {
		return fallback
	}
	var doc map[string]any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil || doc == nil {
		return fallback
	}
	enabled, _ := doc["enabled"].(bool)
	return Settings{
		Enabled: enabled,
		Hour:    WrapHour(number(doc["hour"], fallback.Hour)),
		Minute:  WrapMinute(number(doc["minute"], fallback.Minute)),
	}
}

func number(v any, fallback int) int {
	f, ok := v.(float64)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return fallback
	}
	return int(f)
}

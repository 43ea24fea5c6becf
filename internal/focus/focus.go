// Package focus defines the core domain types shared by the session engine,
// the statistics projection and the persistence layer.
// It has no external dependencies.
package focus

import "time"

type Passage struct {
	ID         string
	Text       string
	MinDisplay time.Duration
}

type Story struct {
	ID       string
	Title    string
	Author   string
	Stage    int
	Passages []Passage
}

type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeFailed    Outcome = "failed"
)

// Failure reasons reported in SessionResult.Reason.
const (
	ReasonBackgrounded = "backgrounded"
	ReasonQuit         = "quit"
	ReasonRestarted    = "restarted"
)

type Session struct {
	ID             string    `json:"id"`
	StoryID        string    `json:"storyId"`
	StartedAt      time.Time `json:"startedAt"`
	CurrentPassage int       `json:"currentPassage"`
	PassageCount   int       `json:"passageCount"`
	PassageShownAt time.Time `json:"passageShownAt"`
	Status         Status    `json:"status"`
}

// IsLastPassage reports whether the visible passage is the final one.
func (s Session) IsLastPassage() bool {
	return s.CurrentPassage == s.PassageCount-1
}

type SessionResult struct {
	SessionID string    `json:"sessionId,omitempty"`
	StoryID   string    `json:"storyId"`
	Outcome   Outcome   `json:"outcome"`
	Reason    string    `json:"reason,omitempty"`
	StartedAt time.Time `json:"startedAt,omitzero"`
	EndedAt   time.Time `json:"endedAt"`
}

// Elapsed is the wall time the session was open. Zero when StartedAt is
// unknown or the clock went backwards.
func (r SessionResult) Elapsed() time.Duration {
	if r.StartedAt.IsZero() || r.EndedAt.Before(r.StartedAt) {
		return 0
	}
	return r.EndedAt.Sub(r.StartedAt)
}

type FocusStats struct {
	StoriesCompleted  int     `json:"storiesCompleted"`
	MinutesFocused    float64 `json:"minutesFocused"`
	XP                int     `json:"xp"`
	Level             int     `json:"level"`
	LastCompletedDate string  `json:"lastCompletedDate"`
	DayStreak         int     `json:"dayStreak"`
}

// DefaultStats is the value used when nothing usable is stored.
func DefaultStats() FocusStats {
	return FocusStats{Level: 1}
}

type Progress struct {
	CompletedStoryIDs []string        `json:"completedStoryIds"`
	SessionHistory    []SessionResult `json:"sessionHistory"`
}

// HasCompleted reports whether storyID has at least one completed session.
func (p Progress) HasCompleted(storyID string) bool {
	for _, id := range p.CompletedStoryIDs {
		if id == storyID {
			return true
		}
	}
	return false
}

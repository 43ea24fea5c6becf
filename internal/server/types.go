package server

import (
	"time"

	"github.com/dailyfocus/focus/internal/focus"
	"github.com/dailyfocus/focus/internal/progress"
	"github.com/dailyfocus/focus/internal/reminder"
	"github.com/dailyfocus/focus/internal/session"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

type PassageView struct {
	ID           string `json:"id"`
	Index        int    `json:"index"`
	Text         string `json:"text"`
	MinDisplayMs int64  `json:"minDisplayMs"`
}

func passageView(index int, p focus.Passage) *PassageView {
	return &PassageView{
		ID:           p.ID,
		Index:        index,
		Text:         p.Text,
		MinDisplayMs: p.MinDisplay.Milliseconds(),
	}
}

type StoryItem struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Author       string `json:"author"`
	Stage        int    `json:"stage"`
	PassageCount int    `json:"passageCount"`
	Completed    bool   `json:"completed"`
}

type StoryDetail struct {
	StoryItem
	Passages []PassageView `json:"passages"`
}

type StartSessionRequest struct {
	StoryID string `json:"storyId" required:"true"`
}

type FailSessionRequest struct {
	Reason string `json:"reason,omitempty"`
}

// SessionResponse describes the active session, if any.
type SessionResponse struct {
	Active      bool           `json:"active"`
	Session     *focus.Session `json:"session,omitempty"`
	Passage     *PassageView   `json:"passage,omitempty"`
	RemainingMs int64          `json:"remainingMs"`
}

func sessionResponse(snap session.Snapshot) SessionResponse {
	s := snap.Session
	return SessionResponse{
		Active:      true,
		Session:     &s,
		Passage:     passageView(s.CurrentPassage, snap.Passage),
		RemainingMs: snap.Remaining.Milliseconds(),
	}
}

type AdvanceResponse struct {
	Outcome     session.AdvanceOutcome `json:"outcome"`
	Session     *focus.Session         `json:"session,omitempty"`
	Passage     *PassageView           `json:"passage,omitempty"`
	RemainingMs int64                  `json:"remainingMs"`
	Result      *focus.SessionResult   `json:"result,omitempty"`
}

// ResultResponse carries the finalized result, or null when no session was
// active.
type ResultResponse struct {
	Result *focus.SessionResult `json:"result"`
}

type GateOpenEvent struct {
	SessionID string `json:"sessionId"`
	Passage   int    `json:"passage"`
}

type StatsResponse struct {
	focus.FocusStats
	CompletedToday bool                  `json:"completedToday"`
	LastOutcome    *progress.LastOutcome `json:"lastOutcome,omitempty"`
}

type ReminderResponse struct {
	reminder.Settings
	NextAt *time.Time `json:"nextAt,omitempty"`
}

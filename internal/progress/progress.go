// Package progress keeps the reader's progress aggregate and records every
// finished session into the persisted statistics.
package progress

import (
	"encoding/json"
	"slices"

	"github.com/dailyfocus/focus/internal/focus"
)

// Empty returns a progress value with non-nil collections.
func Empty() focus.Progress {
	return focus.Progress{
		CompletedStoryIDs: []string{},
		SessionHistory:    []focus.SessionResult{},
	}
}

// Next returns prev with res appended to the history. A completed story is
// added to the completed set once. prev is not modified.
func Next(prev focus.Progress, res focus.SessionResult) focus.Progress {
	next := focus.Progress{
		CompletedStoryIDs: slices.Clone(prev.CompletedStoryIDs),
		SessionHistory:    append(slices.Clone(prev.SessionHistory), res),
	}
	if next.CompletedStoryIDs == nil {
		next.CompletedStoryIDs = []string{}
	}
	if res.Outcome == focus.OutcomeCompleted && !prev.HasCompleted(res.StoryID) {
		next.CompletedStoryIDs = append(next.CompletedStoryIDs, res.StoryID)
	}
	return next
}

type stored struct {
	CompletedStoryIDs []json.RawMessage `json:"completedStoryIds"`
	SessionHistory    []json.RawMessage `json:"sessionHistory"`
}

// Decode reads stored progress. A corrupt document yields Empty; corrupt
// entries inside an otherwise valid document are dropped.
func Decode(raw string) focus.Progress {
	p := Empty()
	if raw == "" {
		return p
	}
	var doc stored
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return p
	}

	for _, item := range doc.CompletedStoryIDs {
		var id string
		if json.Unmarshal(item, &id) != nil || id == "" || slices.Contains(p.CompletedStoryIDs, id) {
			continue
		}
		p.CompletedStoryIDs = append(p.CompletedStoryIDs, id)
	}
	for _, item := range doc.SessionHistory {
		var res focus.SessionResult
		if json.Unmarshal(item, &res) != nil || res.StoryID == "" {
			continue
		}
		if res.Outcome != focus.OutcomeCompleted && res.Outcome != focus.OutcomeFailed {
			continue
		}
		p.SessionHistory = append(p.SessionHistory, res)
	}
	return p
}

package session

import (
	"time"

	"github.com/dailyfocus/focus/internal/clock"
	"github.com/dailyfocus/focus/internal/focus"
)

var epoch = time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)

type storyMap map[string]focus.Story

func (m storyMap) Story(id string) (focus.Story, bool) {
	s, ok := m[id]
	return s, ok
}

func sixPassageStory(id string, dwell time.Duration) focus.Story {
	s := focus.Story{ID: id, Title: "Lighthouse"}
	for i := 0; i < 6; i++ {
		s.Passages = append(s.Passages, focus.Passage{Text: "passage", MinDisplay: dwell})
	}
	return s
}

type countingWake struct {
	acquired, released int
}

func (w *countingWake) Acquire() { w.acquired++ }
func (w *countingWake) Release() { w.released++ }

func (w *countingWake) held() bool { return w.acquired > w.released }

type recorder struct {
	results []focus.SessionResult
}

func (r *recorder) listen(res focus.SessionResult) { r.results = append(r.results, res) }

func newTestEngine() (*Engine, *clock.Fake, *countingWake) {
	c := clock.NewFake(epoch)
	wake := &countingWake{}
	stories := storyMap{
		"s1-001": sixPassageStory("s1-001", 2*time.Second),
		"s1-002": sixPassageStory("s1-002", 2*time.Second),
		"flash":  sixPassageStory("flash", 0),
		"quick":  {ID: "quick", Passages: []focus.Passage{{Text: "only"}}},
		"empty":  {ID: "empty"},
	}
	return NewEngine(c, stories, WithWakeLock(wake)), c, wake
}

package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dailyfocus/focus/internal/focus"
)

func storyItem(s focus.Story, completed bool) StoryItem {
	return StoryItem{
		ID:           s.ID,
		Title:        s.Title,
		Author:       s.Author,
		Stage:        s.Stage,
		PassageCount: len(s.Passages),
		Completed:    completed,
	}
}

func (a *API) handleListStories(w http.ResponseWriter, r *http.Request) {
	p := a.Recorder.Progress()
	stories := a.Stories.Stories()

	items := make([]StoryItem, 0, len(stories))
	for _, s := range stories {
		items = append(items, storyItem(s, p.HasCompleted(s.ID)))
	}
	writeJSON(w, http.StatusOK, items)
}

func (a *API) handleGetStory(w http.ResponseWriter, r *http.Request) {
	s, ok := a.Stories.Story(chi.URLParam(r, "storyID"))
	if !ok {
		writeError(w, http.StatusNotFound, "story not found")
		return
	}

	detail := StoryDetail{
		StoryItem: storyItem(s, a.Recorder.Progress().HasCompleted(s.ID)),
		Passages:  make([]PassageView, 0, len(s.Passages)),
	}
	for i, p := range s.Passages {
		detail.Passages = append(detail.Passages, *passageView(i, p))
	}
	writeJSON(w, http.StatusOK, detail)
}

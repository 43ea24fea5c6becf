package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dailyfocus/focus/internal/focus"
	"github.com/dailyfocus/focus/internal/metrics"
	"github.com/dailyfocus/focus/internal/session"
)

func (a *API) loopError(w http.ResponseWriter, err error) {
	if errors.Is(err, session.ErrLoopStopped) {
		writeError(w, http.StatusServiceUnavailable, "session engine stopped")
		return
	}
	a.Logger.Warn("session request aborted", "error", err)
	writeError(w, http.StatusServiceUnavailable, "request cancelled")
}

func (a *API) handleGetSession(w http.ResponseWriter, r *http.Request) {
	snap, ok, err := a.Loop.Snapshot(r.Context())
	if err != nil {
		a.loopError(w, err)
		return
	}
	if !ok {
		writeJSON(w, http.StatusOK, SessionResponse{})
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse(snap))
}

func (a *API) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req StartSessionRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.StoryID = strings.TrimSpace(req.StoryID)
	if req.StoryID == "" {
		writeError(w, http.StatusBadRequest, "storyId is required")
		return
	}

	snap, err := a.Loop.Start(r.Context(), req.StoryID)
	switch {
	case errors.Is(err, session.ErrStoryNotFound):
		writeError(w, http.StatusNotFound, "story not found")
		return
	case errors.Is(err, session.ErrEmptyStory):
		writeError(w, http.StatusUnprocessableEntity, "story has no passages")
		return
	case err != nil:
		a.loopError(w, err)
		return
	}

	metrics.RecordStart(req.StoryID)
	writeJSON(w, http.StatusCreated, sessionResponse(snap))
}

func (a *API) handleAdvance(w http.ResponseWriter, r *http.Request) {
	res, err := a.Loop.Advance(r.Context())
	if err != nil {
		a.loopError(w, err)
		return
	}
	metrics.RecordAdvance(string(res.Outcome))
	writeJSON(w, http.StatusOK, advanceResponse(res))
}

func advanceResponse(res session.AdvanceResult) AdvanceResponse {
	resp := AdvanceResponse{Outcome: res.Outcome, Result: res.Result}
	switch res.Outcome {
	case session.AdvanceRejected, session.AdvanceMoved:
		s := res.Session
		resp.Session = &s
		resp.Passage = passageView(s.CurrentPassage, res.Passage)
		resp.RemainingMs = res.Remaining.Milliseconds()
	case session.AdvanceCompleted:
		s := res.Session
		resp.Session = &s
	}
	return resp
}

func (a *API) handleComplete(w http.ResponseWriter, r *http.Request) {
	res, err := a.Loop.Complete(r.Context())
	if err != nil {
		a.loopError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ResultResponse{Result: res})
}

func (a *API) handleFail(w http.ResponseWriter, r *http.Request) {
	var req FailSessionRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		reason = focus.ReasonQuit
	}

	res, err := a.Loop.Fail(r.Context(), reason)
	if err != nil {
		a.loopError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ResultResponse{Result: res})
}

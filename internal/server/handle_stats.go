package server

import "net/http"

func (a *API) handleStats(w http.ResponseWriter, r *http.Request) {
	resp := StatsResponse{
		FocusStats:     a.Recorder.Stats(),
		CompletedToday: a.Recorder.CompletedToday(),
	}
	if last, ok := a.Recorder.LastOutcome(); ok {
		resp.LastOutcome = &last
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleProgress(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.Recorder.Progress())
}

package server

import (
	"net/http"

	"github.com/dailyfocus/focus/internal/reminder"
)

func (a *API) handleGetReminder(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ReminderResponse{Settings: a.Reminders.Settings(r.Context())})
}

// handlePutReminder stores new settings and re-plans tonight's reminder.
func (a *API) handlePutReminder(w http.ResponseWriter, r *http.Request) {
	var req reminder.Settings
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	saved, err := a.Reminders.SaveSettings(r.Context(), req)
	if err != nil {
		a.Logger.Error("saving reminder settings", "error", err)
		writeError(w, http.StatusInternalServerError, "could not save settings")
		return
	}

	resp := ReminderResponse{Settings: saved}
	at, err := a.Reminders.Sync(r.Context(), a.Recorder.Stats().LastCompletedDate)
	if err != nil {
		a.Logger.Warn("syncing reminder", "error", err)
	} else if !at.IsZero() {
		resp.NextAt = &at
	}
	writeJSON(w, http.StatusOK, resp)
}

package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/dailyfocus/focus/internal/focus"
	"github.com/dailyfocus/focus/internal/reminder"
)

// HealthResponse maps each dependency to its status.
type HealthResponse map[string]struct {
	Status string `json:"status"`
}

// LifecycleRequest reports one app state change.
type LifecycleRequest struct {
	State string `json:"state" enum:"active,inactive,background"`
}

type op struct {
	method, path, summary, description string
	req                                any
	resp                               map[int]any
	contentType                        string
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "DailyFocus API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Session integrity engine for paced, un-pausable reading sessions.")

	ops := []op{
		{method: http.MethodGet, path: "/healthz", summary: "Health check",
			description: "Returns the health status of the key/value store.",
			resp:        map[int]any{http.StatusOK: HealthResponse{}, http.StatusServiceUnavailable: HealthResponse{}}},
		{method: http.MethodGet, path: "/api/stories", summary: "List stories",
			description: "Returns the catalog in stable order with completion flags.",
			resp:        map[int]any{http.StatusOK: []StoryItem{}}},
		{method: http.MethodGet, path: "/api/stories/{storyID}", summary: "Get story",
			description: "Returns a story with its passages and dwell times.",
			resp:        map[int]any{http.StatusOK: StoryDetail{}, http.StatusNotFound: ErrorResponse{}}},
		{method: http.MethodGet, path: "/api/session", summary: "Active session",
			description: "Returns the active session and its visible passage, or active=false.",
			resp:        map[int]any{http.StatusOK: SessionResponse{}}},
		{method: http.MethodPost, path: "/api/session", summary: "Start session",
			description: "Starts a session on a story. An active session is failed with reason restarted first.",
			req:         StartSessionRequest{},
			resp: map[int]any{
				http.StatusCreated:             SessionResponse{},
				http.StatusBadRequest:          ErrorResponse{},
				http.StatusNotFound:            ErrorResponse{},
				http.StatusUnprocessableEntity: ErrorResponse{},
			}},
		{method: http.MethodPost, path: "/api/session/advance", summary: "Advance",
			description: "Requests the next passage. Outcome is no_session, rejected (dwell time not elapsed), advanced or completed.",
			resp:        map[int]any{http.StatusOK: AdvanceResponse{}}},
		{method: http.MethodPost, path: "/api/session/complete", summary: "Complete session",
			description: "Finalizes the active session as completed. result is null when no session is active.",
			resp:        map[int]any{http.StatusOK: ResultResponse{}}},
		{method: http.MethodPost, path: "/api/session/fail", summary: "Fail session",
			description: "Finalizes the active session as failed. reason defaults to quit.",
			req:         FailSessionRequest{},
			resp:        map[int]any{http.StatusOK: ResultResponse{}}},
		{method: http.MethodGet, path: "/api/session/events", summary: "SSE event stream",
			description: "Server-Sent Events: session_started, passage_advanced, gate_open, session_ended, reminder.",
			resp:        map[int]any{http.StatusOK: nil}, contentType: "text/event-stream"},
		{method: http.MethodGet, path: "/api/lifecycle", summary: "App state WebSocket",
			description: "Upgrades to a WebSocket; each text frame is an app state (active, inactive, background).",
			resp:        map[int]any{http.StatusSwitchingProtocols: nil}, contentType: "text/plain"},
		{method: http.MethodPost, path: "/api/lifecycle", summary: "Report app state",
			description: "Reports one app state change. Leaving the foreground fails the active session.",
			req:         LifecycleRequest{},
			resp:        map[int]any{http.StatusOK: ResultResponse{}, http.StatusBadRequest: ErrorResponse{}}},
		{method: http.MethodGet, path: "/api/stats", summary: "Focus statistics",
			resp: map[int]any{http.StatusOK: StatsResponse{}}},
		{method: http.MethodGet, path: "/api/progress", summary: "Progress",
			description: "Completed story ids and the session history.",
			resp:        map[int]any{http.StatusOK: focus.Progress{}}},
		{method: http.MethodGet, path: "/api/reminder", summary: "Reminder settings",
			resp: map[int]any{http.StatusOK: ReminderResponse{}}},
		{method: http.MethodPut, path: "/api/reminder", summary: "Update reminder settings",
			description: "Stores the settings (hour wraps 0..23, minute 0..55) and re-plans tonight's reminder.",
			req:         reminder.Settings{},
			resp:        map[int]any{http.StatusOK: ReminderResponse{}, http.StatusBadRequest: ErrorResponse{}}},
	}

	for _, o := range ops {
		oc, err := r.NewOperationContext(o.method, o.path)
		if err != nil {
			continue
		}
		oc.SetSummary(o.summary)
		if o.description != "" {
			oc.SetDescription(o.description)
		}
		if o.req != nil {
			oc.AddReqStructure(o.req)
		}
		for status, body := range o.resp {
			opts := []openapi.ContentOption{openapi.WithHTTPStatus(status)}
			if o.contentType != "" {
				opts = append(opts, openapi.WithContentType(o.contentType))
			}
			oc.AddRespStructure(body, opts...)
		}
		_ = r.AddOperation(oc)
	}

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}

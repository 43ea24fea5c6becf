// Package lifecycle feeds host app foreground/background transitions into
// the session engine, over a WebSocket or a single HTTP post.
package lifecycle

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"nhooyr.io/websocket"

	"github.com/dailyfocus/focus/internal/focus"
	"github.com/dailyfocus/focus/internal/session"
)

// Emitter delivers an app state to the session monitor and returns the
// failure it caused, if any.
type Emitter interface {
	Emit(ctx context.Context, state session.AppState) (*focus.SessionResult, error)
}

type Handler struct {
	emitter Emitter
	logger  *slog.Logger
}

func NewHandler(e Emitter, logger *slog.Logger) *Handler {
	return &Handler{emitter: e, logger: logger}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.stream)
	r.Post("/", h.post)
	return r
}

// Ack is written back for every state received.
type Ack struct {
	State  session.AppState     `json:"state"`
	Result *focus.SessionResult `json:"result"`
}

// stream reads one app state per text frame. A connection that drops
// without a final state is not treated as backgrounding.
func (h *Handler) stream(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.logger.Error("websocket accept failed", "error", err)
		return
	}
	defer conn.CloseNow()

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Hour)
	defer cancel()

	for {
		typ, msg, err := conn.Read(ctx)
		if err != nil {
			h.logger.Debug("lifecycle stream ended", "error", err)
			return
		}
		if typ != websocket.MessageText {
			conn.Close(websocket.StatusUnsupportedData, "text frames only")
			return
		}

		state := session.ParseAppState(string(msg))
		res, err := h.emitter.Emit(ctx, state)
		if err != nil {
			h.logger.Warn("emitting app state", "state", state, "error", err)
			conn.Close(websocket.StatusTryAgainLater, "session engine unavailable")
			return
		}
		if res != nil {
			h.logger.Info("session failed on app state change", "state", state, "session_id", res.SessionID)
		}

		data, _ := json.Marshal(Ack{State: state, Result: res})
		if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
			h.logger.Debug("lifecycle write failed", "error", err)
			return
		}
	}
}

type stateRequest struct {
	State string `json:"state"`
}

func (h *Handler) post(w http.ResponseWriter, r *http.Request) {
	var req stateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.State == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "state is required"})
		return
	}

	state := session.ParseAppState(req.State)
	res, err := h.emitter.Emit(r.Context(), state)
	if err != nil {
		h.logger.Warn("emitting app state", "state", state, "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "session engine unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, Ack{State: state, Result: res})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

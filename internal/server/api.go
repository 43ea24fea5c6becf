package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/dailyfocus/focus/internal/content"
	"github.com/dailyfocus/focus/internal/focus"
	"github.com/dailyfocus/focus/internal/progress"
	"github.com/dailyfocus/focus/internal/reminder"
	"github.com/dailyfocus/focus/internal/session"
)

// Deps are the components behind the /api routes.
type Deps struct {
	Loop      *session.Loop
	Stories   *content.Catalog
	Recorder  *progress.Recorder
	Reminders *reminder.Planner
	Broker    *Broker
	Logger    *slog.Logger

	// Lifecycle, when set, is mounted at /lifecycle.
	Lifecycle http.Handler

	// RateLimit is the per-IP request budget per minute; 0 disables it.
	RateLimit int
}

type API struct {
	Deps
}

func NewAPI(d Deps) *API {
	if d.Broker == nil {
		d.Broker = NewBroker()
	}
	return &API{Deps: d}
}

func (a *API) Routes() chi.Router {
	r := chi.NewRouter()
	if a.RateLimit > 0 {
		r.Use(httprate.Limit(
			a.RateLimit,
			time.Minute,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Retry-After", "60")
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			}),
		))
	}

	r.Get("/stories", a.handleListStories)
	r.Get("/stories/{storyID}", a.handleGetStory)

	r.Get("/session", a.handleGetSession)
	r.Post("/session", a.handleStartSession)
	r.Post("/session/advance", a.handleAdvance)
	r.Post("/session/complete", a.handleComplete)
	r.Post("/session/fail", a.handleFail)
	r.Get("/session/events", a.handleEvents)

	r.Get("/stats", a.handleStats)
	r.Get("/progress", a.handleProgress)
	r.Get("/reminder", a.handleGetReminder)
	r.Put("/reminder", a.handlePutReminder)

	if a.Lifecycle != nil {
		r.Mount("/lifecycle", a.Lifecycle)
	}
	return r
}

// PublishStarted and PublishAdvanced are loop hooks. They run on the loop
// goroutine, so SSE clients see them ahead of the passage's gate_open.
func (a *API) PublishStarted(snap session.Snapshot) {
	a.Broker.Publish(SSEEvent{Type: EventSessionStarted, Data: sessionResponse(snap)})
}

func (a *API) PublishAdvanced(res session.AdvanceResult) {
	a.Broker.Publish(SSEEvent{Type: EventPassageAdvanced, Data: advanceResponse(res)})
}

// PublishResult is a session listener that forwards results to SSE clients.
func (a *API) PublishResult(res focus.SessionResult) {
	a.Broker.Publish(SSEEvent{Type: EventSessionEnded, Data: res})
}

// PublishGateOpen tells SSE clients the visible passage may be left.
func (a *API) PublishGateOpen(s focus.Session) {
	a.Broker.Publish(SSEEvent{Type: EventGateOpen, Data: GateOpenEvent{
		SessionID: s.ID,
		Passage:   s.CurrentPassage,
	}})
}

// Package metrics provides Prometheus metrics for focus sessions.
// Labels stay low-cardinality: no session ids.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/dailyfocus/focus/internal/focus"
)

var (
	SessionsStarted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "focus_sessions_started_total",
		Help: "Total number of sessions started, by story.",
	}, []string{"story"})

	SessionsFinalized = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "focus_sessions_finalized_total",
		Help: "Total number of finished sessions, by outcome and failure reason.",
	}, []string{"outcome", "reason"})

	AdvanceRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "focus_advance_requests_total",
		Help: "Total number of advance requests, by result.",
	}, []string{"result"})

	SessionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "focus_session_duration_seconds",
		Help:    "Wall time from session start to its end, by outcome.",
		Buckets: []float64{5, 15, 30, 60, 120, 300, 600, 1800},
	}, []string{"outcome"})

	// WakeLocksHeld is 1 while a session holds the stay-awake resource.
	WakeLocksHeld = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "focus_wake_locks_held",
		Help: "Number of stay-awake resources currently held.",
	})

	CatalogStories = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "focus_catalog_stories",
		Help: "Number of stories in the loaded catalog.",
	})

	RemindersDelivered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "focus_reminders_delivered_total",
		Help: "Total number of reminders delivered.",
	})
)

func RecordStart(storyID string) {
	SessionsStarted.WithLabelValues(storyID).Inc()
}

func RecordAdvance(result string) {
	AdvanceRequests.WithLabelValues(result).Inc()
}

// RecordResult is a session listener.
func RecordResult(res focus.SessionResult) {
	reason := res.Reason
	if reason == "" {
		reason = "none"
	}
	SessionsFinalized.WithLabelValues(string(res.Outcome), reason).Inc()
	if d := res.Elapsed(); d > 0 {
		SessionDuration.WithLabelValues(string(res.Outcome)).Observe(d.Seconds())
	}
}

// Waker reports the stay-awake resource as the WakeLocksHeld gauge.
type Waker struct{}

func (Waker) Acquire() { WakeLocksHeld.Inc() }

func (Waker) Release() { WakeLocksHeld.Dec() }

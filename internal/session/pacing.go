package session

import (
	"time"

	"github.com/dailyfocus/focus/internal/focus"
)

// CanAdvance reports whether passage p has been visible long enough for the
// reader to leave it. It has no side effects and is safe to poll.
//
// A zero dwell time always permits. A negative elapsed time (the clock
// stepped backwards) never counts as elapsed.
func CanAdvance(s focus.Session, p focus.Passage, now time.Time) bool {
	if p.MinDisplay <= 0 {
		return true
	}
	elapsed := now.Sub(s.PassageShownAt)
	if elapsed < 0 {
		return false
	}
	return elapsed >= p.MinDisplay
}

// Remaining returns how long the reader must still wait on passage p.
// It is zero exactly when CanAdvance is true.
func Remaining(s focus.Session, p focus.Passage, now time.Time) time.Duration {
	if CanAdvance(s, p, now) {
		return 0
	}
	elapsed := now.Sub(s.PassageShownAt)
	if elapsed < 0 {
		return p.MinDisplay
	}
	return p.MinDisplay - elapsed
}

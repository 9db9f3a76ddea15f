package session

import (
	"time"
)

// TimeKeeper holds the global countdown anchor and the per-question clock
// for one session. Pure arithmetic over timestamps; it never reads the wall
// clock itself, callers pass "now" in.
type TimeKeeper struct {
	GlobalStart   time.Time
	QuestionStart time.Time
}

// NewTimeKeeper starts both clocks at now.
func NewTimeKeeper(now time.Time) TimeKeeper {
	return TimeKeeper{GlobalStart: now, QuestionStart: now}
}

// Remaining returns the seconds left on the global countdown. Never negative.
func (tk TimeKeeper) Remaining(now time.Time, duration time.Duration) float64 {
	rem := duration - now.Sub(tk.GlobalStart)
	if rem < 0 {
		rem = 0
	}
	return rem.Seconds()
}

// Expired reports whether the countdown has run out.
func (tk TimeKeeper) Expired(now time.Time, duration time.Duration) bool {
	return now.Sub(tk.GlobalStart) >= duration
}

// QuestionElapsed returns the seconds spent on the current question since it
// was last shown.
func (tk TimeKeeper) QuestionElapsed(now time.Time) float64 {
	elapsed := now.Sub(tk.QuestionStart).Seconds()
	if elapsed < 0 {
		return 0
	}
	return elapsed
}

// RestartQuestion resets the per-question clock.
func (tk *TimeKeeper) RestartQuestion(now time.Time) {
	tk.QuestionStart = now
}

package app

import "time"

// Remaining reports the whole seconds left in a run that started at start with
// the given duration. It is a pure function of absolute timestamps: every tick
// recomputes from now-start instead of counting down, so polling jitter cannot
// accumulate drift. The result clamps at zero and rounds up, so it only hits
// zero once the deadline has truly passed.
func Remaining(now, start time.Time, duration time.Duration) int {
	left := duration - now.Sub(start)
	if left <= 0 {
		return 0
	}
	return int((left + time.Second - 1) / time.Second)
}

package domain

import "time"

const (
	CountdownStartsIn = "Starts in"
	CountdownEndsIn   = "Ends in"
	CountdownEnded    = "Ended"
)

// Countdown returns the badge label for a poll window and the time left
// until the next boundary.
func Countdown(now, start, end time.Time) (string, time.Duration) {
	switch {
	case now.Before(start):
		return CountdownStartsIn, start.Sub(now)
	case now.Before(end):
		return CountdownEndsIn, end.Sub(now)
	default:
		return CountdownEnded, 0
	}
}

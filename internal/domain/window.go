package domain

import "time"

// Window is a look-back aggregation window. A record timestamped before
// Cutoff is out of scope and terminates further pagination for that scan.
type Window struct {
	Now    time.Time
	Cutoff time.Time
}

// LookBack builds a window ending at now and starting d earlier.
func LookBack(now time.Time, d time.Duration) Window {
	return Window{Now: now, Cutoff: now.Add(-d)}
}

// SinceMidnight builds a window starting at the UTC midnight daysAgo days
// before now. daysAgo zero means the current day.
func SinceMidnight(now time.Time, daysAgo int) Window {
	day := now.UTC().AddDate(0, 0, -daysAgo)
	cutoff := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	return Window{Now: now, Cutoff: cutoff}
}

// Contains reports whether ts falls inside [Cutoff, Now].
func (w Window) Contains(ts time.Time) bool {
	return !ts.Before(w.Cutoff) && !ts.After(w.Now)
}

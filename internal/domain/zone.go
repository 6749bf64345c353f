package domain

import "time"

// TimeZoneSample is a zone whose local wall clock reads 09:00 at the sampled instant.
// It is recomputed on every invocation and never persisted.
type TimeZoneSample struct {
	Zone        string    `json:"timezone"`
	LocalTime   time.Time `json:"localTime"`
	OffsetLabel string    `json:"offset"`
}

// Clock abstracts time.Now() to allow deterministic testing.
type Clock interface {
	Now() time.Time
}

// SystemClock implements Clock using the standard time package.
type SystemClock struct{}

// Now returns the current time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

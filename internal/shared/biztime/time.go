// Package biztime provides the time helpers shared by the admission layer.
// All storage and transport use UTC; window scores are epoch seconds.
package biztime

import "time"

// Clock returns the current time. Components take a Clock so window
// timelines can be driven deterministically in tests.
type Clock func() time.Time

// NowUTC returns current time in UTC.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// OrDefault returns c, or NowUTC when c is nil.
func (c Clock) OrDefault() Clock {
	if c == nil {
		return NowUTC
	}
	return c
}

// EpochSeconds converts t to fractional epoch seconds with microsecond precision.
// This is the score format of every window record.
func EpochSeconds(t time.Time) float64 {
	return float64(t.UnixMicro()) / 1e6
}

// FromEpochSeconds is the inverse of EpochSeconds.
func FromEpochSeconds(s float64) time.Time {
	return time.UnixMicro(int64(s * 1e6)).UTC()
}

// Seconds converts a whole number of seconds to a duration.
func Seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

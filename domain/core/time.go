package core

import (
	"time"
)

// Millis is a unix timestamp in milliseconds, the unit observations and results carry.
type Millis int64

// NowMillis returns the current time in milliseconds
func NowMillis() Millis {
	return Millis(time.Now().UnixMilli())
}

// ToMillis converts a time.Time
func ToMillis(t time.Time) Millis {
	return Millis(t.UnixMilli())
}

// Time returns the underlying time.Time
func (m Millis) Time() time.Time {
	return time.UnixMilli(int64(m))
}

// Before returns true if m is before o
func (m Millis) Before(o Millis) bool {
	return m < o
}

// Add returns m shifted by d
func (m Millis) Add(d time.Duration) Millis {
	return m + Millis(d.Milliseconds())
}

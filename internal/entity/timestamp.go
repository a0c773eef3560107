package entity

import (
	"strings"
	"time"
)

// timestampLayout renders the local wall clock followed by a literal "Z".
// The suffix does not mean UTC; stored timestamps have always been written
// this way and the format is kept so old and new records sort together.
const timestampLayout = "2006-01-02T15:04:05.000"

var clock = time.Now

// NowISOString returns the current local time in the stored timestamp format.
func NowISOString() string {
	return FormatTimestamp(clock())
}

// FormatTimestamp renders t in the stored timestamp format.
func FormatTimestamp(t time.Time) string {
	return t.Format(timestampLayout) + "Z"
}

// ParseTimestamp parses a stored timestamp back into local time.
func ParseTimestamp(s string) (time.Time, error) {
	return time.ParseInLocation(timestampLayout, strings.TrimSuffix(s, "Z"), time.Local)
}

// SetClock replaces the time source and returns a func restoring the previous one.
func SetClock(now func() time.Time) (restore func()) {
	prev := clock
	clock = now
	return func() { clock = prev }
}

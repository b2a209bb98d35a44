// Package throttle decides whether a notification may be sent now.
package throttle

import (
	"time"

	"shopbuzz/internal/settings"
)

// Interval returns the minimum gap implied by a frequency value.
// ok is false for frequencies this policy does not recognize.
func Interval(f settings.Frequency) (time.Duration, bool) {
	switch f {
	case settings.FrequencyRealtime:
		return 0, true
	case settings.Frequency5Min:
		return 5 * time.Minute, true
	case settings.Frequency15Min:
		return 15 * time.Minute, true
	case settings.Frequency30Min:
		return 30 * time.Minute, true
	case settings.FrequencyHourly:
		return time.Hour, true
	case settings.FrequencyDaily:
		return 24 * time.Hour, true
	default:
		return 0, false
	}
}

// ShouldSend reports whether a new notification is permitted given the time
// of the last send. lastSent.IsZero() means "never sent".
//
// Unknown frequency values fail open (permit). A new frequency value rolled
// out ahead of this switch must not silently mute the app; see Interval for
// the recognized set.
func ShouldSend(s settings.Settings, lastSent, now time.Time) bool {
	if !s.Enabled {
		return false
	}
	gap, ok := Interval(s.Frequency)
	if !ok {
		return true
	}
	if gap == 0 {
		return true
	}
	if lastSent.IsZero() {
		return true
	}
	return now.Sub(lastSent) >= gap
}

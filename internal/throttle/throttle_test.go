package throttle

import (
	"testing"
	"time"

	"shopbuzz/internal/settings"
)

func baseSettings(f settings.Frequency) settings.Settings {
	s := settings.Defaults()
	s.Frequency = f
	return s
}

func TestDisabledNeverSends(t *testing.T) {
	now := time.Now()
	s := baseSettings(settings.FrequencyRealtime)
	s.Enabled = false
	if ShouldSend(s, time.Time{}, now) {
		t.Fatalf("disabled settings permitted a send")
	}
	if ShouldSend(s, now.Add(-48*time.Hour), now) {
		t.Fatalf("disabled settings permitted a send despite long elapsed time")
	}
}

func TestRealtimeAlwaysSends(t *testing.T) {
	now := time.Now()
	s := baseSettings(settings.FrequencyRealtime)
	if !ShouldSend(s, now, now) {
		t.Fatalf("realtime denied with zero elapsed")
	}
}

func TestFrequencyThresholds(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	cases := []struct {
		freq settings.Frequency
		gap  time.Duration
	}{
		{settings.Frequency5Min, 5 * time.Minute},
		{settings.Frequency15Min, 15 * time.Minute},
		{settings.Frequency30Min, 30 * time.Minute},
		{settings.FrequencyHourly, time.Hour},
		{settings.FrequencyDaily, 24 * time.Hour},
	}
	for _, c := range cases {
		s := baseSettings(c.freq)
		if ShouldSend(s, now.Add(-c.gap+time.Second), now) {
			t.Fatalf("%s permitted just inside the window", c.freq)
		}
		if !ShouldSend(s, now.Add(-c.gap), now) {
			t.Fatalf("%s denied exactly at the threshold", c.freq)
		}
		if !ShouldSend(s, now.Add(-c.gap-time.Second), now) {
			t.Fatalf("%s denied past the threshold", c.freq)
		}
	}
}

func TestDailyScenarios(t *testing.T) {
	now := time.Now()
	s := baseSettings(settings.FrequencyDaily)
	if ShouldSend(s, now.Add(-1*time.Second), now) {
		t.Fatalf("daily permitted 1s after a send")
	}
	if !ShouldSend(s, now.Add(-25*time.Hour), now) {
		t.Fatalf("daily denied after more than 24h")
	}
}

func TestNeverSentAlwaysPermits(t *testing.T) {
	now := time.Now()
	for _, f := range []settings.Frequency{
		settings.Frequency5Min, settings.FrequencyDaily,
	} {
		if !ShouldSend(baseSettings(f), time.Time{}, now) {
			t.Fatalf("%s denied first-ever send", f)
		}
	}
}

func TestUnknownFrequencyFailsOpen(t *testing.T) {
	now := time.Now()
	s := baseSettings(settings.Frequency("weekly"))
	if !ShouldSend(s, now.Add(-time.Second), now) {
		t.Fatalf("unknown frequency should fail open")
	}
}

func TestMonotonicInElapsed(t *testing.T) {
	now := time.Now()
	s := baseSettings(settings.FrequencyHourly)
	// Once permitted at some elapsed time, any larger elapsed time is also
	// permitted.
	permittedAt := now.Add(-time.Hour)
	if !ShouldSend(s, permittedAt, now) {
		t.Fatalf("expected permit at exactly 1h")
	}
	for _, older := range []time.Duration{2 * time.Hour, 24 * time.Hour, 1000 * time.Hour} {
		if !ShouldSend(s, now.Add(-older), now) {
			t.Fatalf("permission lost at larger elapsed %v", older)
		}
	}
}

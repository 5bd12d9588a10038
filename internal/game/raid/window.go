package raid

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"
)

// UnsetTime is the configuration placeholder for "no raid window".
const UnsetTime = "zz:zz"

// accepted clock layouts for raid_time_start / raid_time_end.
var timeLayouts = []string{"15:04", "15:04:05"}

// TimeOfDay is a wall-clock time in UTC.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// String formats the time as HH:MM.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// ParseTimeOfDay parses "HH:MM" (or "HH:MM:SS").
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
		}
	}
	return TimeOfDay{}, fmt.Errorf("invalid time of day %q", s)
}

// Window is the daily UTC raid window.
// The zero value is the unconfigured window: raiding is always allowed.
//
// Boundary checks use whole hours only; minutes are kept for display.
// A window whose start hour is after its end hour wraps past midnight
// (22:00-04:00). Equal start and end hours give an empty window.
type Window struct {
	start      TimeOfDay
	end        TimeOfDay
	configured bool
}

// NewWindow creates a configured window.
func NewWindow(start, end TimeOfDay) Window {
	return Window{start: start, end: end, configured: true}
}

// ParseWindow builds a window from configured strings.
// If either bound does not parse the unconfigured window is returned
// together with the parse error, so callers can log and carry on.
func ParseWindow(start, end string) (Window, error) {
	s, err := ParseTimeOfDay(start)
	if err != nil {
		return Window{}, fmt.Errorf("raid window start: %w", err)
	}
	e, err := ParseTimeOfDay(end)
	if err != nil {
		return Window{}, fmt.Errorf("raid window end: %w", err)
	}
	return NewWindow(s, e), nil
}

// Start returns the configured start time.
func (w Window) Start() TimeOfDay { return w.start }

// End returns the configured end time.
func (w Window) End() TimeOfDay { return w.end }

// IsConfigured reports whether both bounds were set.
func (w Window) IsConfigured() bool { return w.configured }

// IsEmpty reports whether a configured window never opens.
func (w Window) IsEmpty() bool {
	return w.configured && w.start.Hour == w.end.Hour
}

// Wraps reports whether the window crosses midnight.
func (w Window) Wraps() bool {
	return w.configured && w.start.Hour > w.end.Hour
}

// IsRaidTime reports whether now falls inside the window, by hour.
// Always false for an unconfigured window.
func (w Window) IsRaidTime(now time.Time) bool {
	if !w.configured {
		return false
	}
	h := now.UTC().Hour()
	switch {
	case w.start.Hour < w.end.Hour:
		return h >= w.start.Hour && h < w.end.Hour
	case w.start.Hour > w.end.Hour:
		return h >= w.start.Hour || h < w.end.Hour
	default:
		return false
	}
}

// DamageEnabled reports whether structure damage is currently allowed:
// always when no window is configured, otherwise only inside it.
func (w Window) DamageEnabled(now time.Time) bool {
	return !w.configured || w.IsRaidTime(now)
}

// NextOpen returns the next instant (at or after now) the window opens.
// Must only be called on a configured, non-empty window.
func (w Window) NextOpen(now time.Time) time.Time {
	return nextHour(now.UTC(), w.start.Hour)
}

// NextClose returns the next instant (after now) the window closes.
// Must only be called on a configured, non-empty window.
func (w Window) NextClose(now time.Time) time.Time {
	return nextHour(now.UTC(), w.end.Hour)
}

// String describes the window for logs and admin replies.
func (w Window) String() string {
	if !w.configured {
		return "unconfigured"
	}
	return w.start.String() + "-" + w.end.String() + " UTC"
}

// nextHour returns the next time at hour:00 strictly after now.
func nextHour(now time.Time, hour int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next
}

// Schedule publishes the current window to concurrent readers.
// Reload swaps the whole window; readers never see a partial update.
type Schedule struct {
	current atomic.Pointer[Window]
}

// NewSchedule creates a schedule holding w.
func NewSchedule(w Window) *Schedule {
	s := &Schedule{}
	s.Replace(w)
	return s
}

// Current returns the active window.
func (s *Schedule) Current() Window {
	return *s.current.Load()
}

// Replace publishes a new window.
func (s *Schedule) Replace(w Window) {
	s.current.Store(&w)
}

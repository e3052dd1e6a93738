// Package timerange parses query time bounds into a concrete window.
//
// Start and end accept relative durations ("-30s", "5m"), RFC3339
// timestamps, a bare date, or "now". An empty end means now. Both bounds
// are resolved against a single reference instant, so a window never moves
// while a query is running.
package timerange

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidTimeRange is returned for unparseable or inverted bounds.
var ErrInvalidTimeRange = errors.New("invalid time range")

// Window is a closed interval [Start, End].
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t lies within the window, bounds included.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// Duration returns End - Start.
func (w Window) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// String renders the window for logs.
func (w Window) String() string {
	return fmt.Sprintf("[%s, %s]", w.Start.Format(time.RFC3339Nano), w.End.Format(time.RFC3339Nano))
}

// Parse resolves start and end against now.
func Parse(start, end string, now time.Time) (Window, error) {
	if strings.TrimSpace(start) == "" {
		return Window{}, fmt.Errorf("%w: start time is required", ErrInvalidTimeRange)
	}

	s, err := parseBound(start, now)
	if err != nil {
		return Window{}, fmt.Errorf("%w: start %q: %v", ErrInvalidTimeRange, start, err)
	}

	e := now
	if strings.TrimSpace(end) != "" {
		e, err = parseBound(end, now)
		if err != nil {
			return Window{}, fmt.Errorf("%w: end %q: %v", ErrInvalidTimeRange, end, err)
		}
	}

	if e.Before(s) {
		return Window{}, fmt.Errorf("%w: end %s is before start %s", ErrInvalidTimeRange,
			e.Format(time.RFC3339), s.Format(time.RFC3339))
	}

	return Window{Start: s, End: e}, nil
}

// Trailing returns the window of length d ending at now.
func Trailing(d time.Duration, now time.Time) Window {
	if d < 0 {
		d = -d
	}
	return Window{Start: now.Add(-d), End: now}
}

// parseBound accepts "now", a duration relative to now (a leading "-" is
// optional since bounds always point into the past), or an absolute time.
func parseBound(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "now" {
		return now, nil
	}

	if d, err := time.ParseDuration(strings.TrimPrefix(s, "-")); err == nil {
		if d < 0 {
			return time.Time{}, fmt.Errorf("negative duration")
		}
		return now.Add(-d), nil
	}

	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unsupported time format (use a duration like -30s, RFC3339 or 'now')")
}

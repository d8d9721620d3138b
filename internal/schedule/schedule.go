package schedule

import (
	"fmt"
	"sort"
	"time"
)

// Window is one labeled timetable slot. Start and End are minutes since
// midnight; the window is inclusive on both ends.
type Window struct {
	Start int    `json:"-"`
	End   int    `json:"-"`
	Label string `json:"label"`
}

// StartHM and EndHM render the bounds as HH:MM for display payloads.
func (w Window) StartHM() string { return formatHM(w.Start) }
func (w Window) EndHM() string   { return formatHM(w.End) }

// Resolver answers "what is on now and what comes next" for a fixed ordered
// list of non-overlapping windows, all within one day.
type Resolver struct {
	windows []Window
}

// New builds a resolver; windows are sorted by start time.
func New(windows []Window) *Resolver {
	sorted := make([]Window, len(windows))
	copy(sorted, windows)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Start < sorted[j].Start
	})
	return &Resolver{windows: sorted}
}

// ParseWindow turns "HH:MM" bounds into a Window.
func ParseWindow(start, end, label string) (Window, error) {
	s, err := parseHM(start)
	if err != nil {
		return Window{}, err
	}
	e, err := parseHM(end)
	if err != nil {
		return Window{}, err
	}
	if e < s {
		return Window{}, fmt.Errorf("window %q ends before it starts", label)
	}
	return Window{Start: s, End: e, Label: label}, nil
}

// Resolve returns the window covering now (start <= now <= end) and the
// earliest window starting after now. Either may be nil.
func (r *Resolver) Resolve(now time.Time) (current, next *Window) {
	minute := now.Hour()*60 + now.Minute()
	for i := range r.windows {
		w := r.windows[i]
		if w.Start <= minute && minute <= w.End {
			current = &r.windows[i]
		} else if minute < w.Start && next == nil {
			next = &r.windows[i]
		}
	}
	return current, next
}

// UntilEnd reports the time left in w at now, clamped at zero.
func (w Window) UntilEnd(now time.Time) time.Duration {
	end := time.Date(now.Year(), now.Month(), now.Day(), w.End/60, w.End%60, 0, 0, now.Location())
	if d := end.Sub(now); d > 0 {
		return d
	}
	return 0
}

// UntilStart reports the time until w begins at now, clamped at zero.
func (w Window) UntilStart(now time.Time) time.Duration {
	start := time.Date(now.Year(), now.Month(), now.Day(), w.Start/60, w.Start%60, 0, 0, now.Location())
	if d := start.Sub(now); d > 0 {
		return d
	}
	return 0
}

func parseHM(hm string) (int, error) {
	t, err := time.Parse("15:04", hm)
	if err != nil {
		return 0, fmt.Errorf("parse time %q: %w", hm, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

func formatHM(minute int) string {
	return fmt.Sprintf("%02d:%02d", minute/60, minute%60)
}

package http

import (
	"encoding/json"
	"net/http"
	"time"

	"sprint-quiz-service/internal/schedule"
)

// ScheduleHandler serves the timetable boards: which window is on now, which
// comes next, and the seconds to each boundary. The boards poll this once a
// second and render it client-side.
type ScheduleHandler struct {
	resolver *schedule.Resolver
	now      func() time.Time
}

func NewScheduleHandler(resolver *schedule.Resolver) *ScheduleHandler {
	return &ScheduleHandler{resolver: resolver, now: time.Now}
}

// NewScheduleHandlerWithClock allows deterministic timestamps in tests.
func NewScheduleHandlerWithClock(resolver *schedule.Resolver, now func() time.Time) *ScheduleHandler {
	return &ScheduleHandler{resolver: resolver, now: now}
}

type windowView struct {
	Label string `json:"label"`
	Start string `json:"start"`
	End   string `json:"end"`
}

type scheduleView struct {
	Now           string      `json:"now"`
	Current       *windowView `json:"current,omitempty"`
	SecondsLeft   int         `json:"secondsLeft"`
	Next          *windowView `json:"next,omitempty"`
	SecondsToNext int         `json:"secondsToNext"`
	OffSchedule   bool        `json:"offSchedule"`
}

func (h *ScheduleHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	current, next := h.resolver.Resolve(now)

	view := scheduleView{
		Now:         now.Format("15:04:05"),
		OffSchedule: current == nil,
	}
	if current != nil {
		view.Current = &windowView{Label: current.Label, Start: current.StartHM(), End: current.EndHM()}
		view.SecondsLeft = int(current.UntilEnd(now).Seconds())
	}
	if next != nil {
		view.Next = &windowView{Label: next.Label, Start: next.StartHM(), End: next.EndHM()}
		view.SecondsToNext = int(next.UntilStart(now).Seconds())
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(view)
}

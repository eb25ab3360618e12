// Package timeslot decides which scheduled departures are still bookable at a
// given instant, applying the fixed pre-departure cutoff.
package timeslot

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/wiseroute/transport-booking/internal/catalog"
)

// CutoffWindow: a slot is bookable only while strictly more than this much
// time remains before departure. The cancellation window uses the same value.
const CutoffWindow = 30 * time.Minute

// Evaluation is the gate's verdict for a single slot on the target date.
type Evaluation struct {
	SlotID     string    `json:"slot_id"`
	Time       string    `json:"time"`
	IsPast     bool      `json:"is_past"`
	IsBookable bool      `json:"is_bookable"`
	CutoffAt   time.Time `json:"cutoff_at"`
	Reason     string    `json:"reason,omitempty"`
}

// Result covers all slots of a route for the target date. When nothing is
// bookable NextDate points a day ahead; the gate never advances the date
// itself.
type Result struct {
	Slots     []Evaluation `json:"slots"`
	AllClosed bool         `json:"all_closed"`
	NextDate  *time.Time   `json:"next_date,omitempty"`
}

type Gate struct {
	log *zap.SugaredLogger
}

func NewGate(log *zap.SugaredLogger) *Gate {
	return &Gate{log: log}
}

// Evaluate inspects every slot for the target date relative to now.
// A malformed slot time is catalog data corruption, not a user error: the
// slot is reported unbookable and the problem is logged.
func (g *Gate) Evaluate(slots []catalog.TimeSlot, date, now time.Time) Result {
	res := Result{Slots: make([]Evaluation, 0, len(slots)), AllClosed: true}

	for _, slot := range slots {
		ev := g.EvaluateSlot(slot, date, now)
		if ev.IsBookable {
			res.AllClosed = false
		}
		res.Slots = append(res.Slots, ev)
	}

	if res.AllClosed {
		next := DateOnly(date).AddDate(0, 0, 1)
		res.NextDate = &next
	}
	return res
}

// EvaluateSlot applies the cutoff rule to one slot.
func (g *Gate) EvaluateSlot(slot catalog.TimeSlot, date, now time.Time) Evaluation {
	ev := Evaluation{SlotID: slot.ID, Time: slot.Time}

	departure, err := DepartureAt(slot.Time, date)
	if err != nil {
		if g.log != nil {
			g.log.Errorw("malformed time slot in catalog", "slot_id", slot.ID, "time", slot.Time, "error", err)
		}
		ev.IsBookable = false
		ev.Reason = "time slot unavailable"
		return ev
	}

	ev.CutoffAt = departure.Add(-CutoffWindow)
	remaining := departure.Sub(now)

	switch {
	case remaining < 0:
		ev.IsPast = true
		ev.Reason = "this time slot has passed"
	case remaining <= CutoffWindow:
		ev.Reason = "booking closed (30 min cutoff)"
	default:
		ev.IsBookable = true
	}
	return ev
}

// ParseClock parses a 12-hour wall-clock string such as "2:00 PM".
func ParseClock(s string) (hour, minute int, err error) {
	t, err := time.Parse("3:04 PM", strings.ToUpper(strings.TrimSpace(s)))
	if err != nil {
		return 0, 0, fmt.Errorf("parse clock %q: %w", s, err)
	}
	return t.Hour(), t.Minute(), nil
}

// DepartureAt composes a slot's wall-clock time onto the target date.
func DepartureAt(clock string, date time.Time) (time.Time, error) {
	h, m, err := ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(date.Year(), date.Month(), date.Day(), h, m, 0, 0, date.Location()), nil
}

// DateOnly truncates an instant to midnight of its calendar date.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

package shift

import (
	"fmt"
	"time"
)

// ErrUnknownShift is returned for shift ids not present in the rotation.
var ErrUnknownShift = fmt.Errorf("unknown shift")

// Window identifies one rotation boundary: the FROM shift instance handing
// off to the TO shift instance on a given calendar date. It is the
// uniqueness key for active handovers.
type Window struct {
	FromShiftID string    `json:"from_shift_id"`
	ToShiftID   string    `json:"to_shift_id"`
	Date        time.Time `json:"date"`
}

// Resolver answers next/previous-shift lookups and window date computation
// over an injected rotation. Pure lookup, no side effects.
type Resolver struct {
	rotation *Rotation
}

func NewResolver(rotation *Rotation) *Resolver {
	return &Resolver{rotation: rotation}
}

// Next returns the shift that follows the given one in the rotation.
func (r *Resolver) Next(shiftID string) (string, error) {
	i, ok := r.rotation.index[shiftID]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownShift, shiftID)
	}
	return r.rotation.defs[(i+1)%len(r.rotation.defs)].ID, nil
}

// Previous returns the shift that precedes the given one in the rotation.
func (r *Resolver) Previous(shiftID string) (string, error) {
	i, ok := r.rotation.index[shiftID]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownShift, shiftID)
	}
	return r.rotation.defs[(i-1+len(r.rotation.defs))%len(r.rotation.defs)].ID, nil
}

// WindowDate returns the calendar date of the FROM shift instance that
// contains, or most recently started before, the given instant. A shift
// instance starts once per day at its configured start time, so the rule is
// uniform for midnight-crossing shifts: a night shift running 19:00-07:00
// that is active at 02:00 belongs to the previous calendar date, because
// that is when its instance started.
func (r *Resolver) WindowDate(fromShiftID string, at time.Time) (time.Time, error) {
	def, ok := r.rotation.Get(fromShiftID)
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnknownShift, fromShiftID)
	}

	tod := at.Hour()*60 + at.Minute()
	date := time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, at.Location())
	if tod < minutesOf(def.Start) {
		date = date.AddDate(0, 0, -1)
	}
	return date, nil
}

// WindowFor resolves the full shift window whose FROM side is the given
// shift at the given instant.
func (r *Resolver) WindowFor(fromShiftID string, at time.Time) (Window, error) {
	next, err := r.Next(fromShiftID)
	if err != nil {
		return Window{}, err
	}
	date, err := r.WindowDate(fromShiftID, at)
	if err != nil {
		return Window{}, err
	}
	return Window{FromShiftID: fromShiftID, ToShiftID: next, Date: date}, nil
}

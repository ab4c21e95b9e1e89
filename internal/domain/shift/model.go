package shift

import (
	"fmt"
	"strings"
	"time"
)

// Definition is one entry in a unit's shift rotation. Times are wall-clock
// "HH:MM"; a shift whose end is at or before its start crosses midnight.
type Definition struct {
	ID    string `json:"id"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// CrossesMidnight reports whether the shift spans the midnight boundary.
func (d Definition) CrossesMidnight() bool {
	return minutesOf(d.End) <= minutesOf(d.Start)
}

func minutesOf(hhmm string) int {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return 0
	}
	return t.Hour()*60 + t.Minute()
}

// Rotation is the immutable ordered cycle of shifts for a unit. It is parsed
// from configuration once at startup and injected; never a process-wide
// static.
type Rotation struct {
	defs  []Definition
	index map[string]int
}

// NewRotation builds a rotation from ordered definitions. At least two
// distinct shifts are required for a handover boundary to exist.
func NewRotation(defs []Definition) (*Rotation, error) {
	if len(defs) < 2 {
		return nil, fmt.Errorf("rotation needs at least two shifts, got %d", len(defs))
	}
	index := make(map[string]int, len(defs))
	for i, d := range defs {
		if d.ID == "" {
			return nil, fmt.Errorf("shift at position %d has no id", i)
		}
		if _, dup := index[d.ID]; dup {
			return nil, fmt.Errorf("duplicate shift id %q", d.ID)
		}
		if _, err := time.Parse("15:04", d.Start); err != nil {
			return nil, fmt.Errorf("shift %q: invalid start time %q", d.ID, d.Start)
		}
		if _, err := time.Parse("15:04", d.End); err != nil {
			return nil, fmt.Errorf("shift %q: invalid end time %q", d.ID, d.End)
		}
		index[d.ID] = i
	}
	rotation := &Rotation{defs: append([]Definition(nil), defs...), index: index}
	return rotation, nil
}

// ParseRotation parses the SHIFT_ROTATION config format, e.g.
// "day=07:00-19:00,night=19:00-07:00". Order in the string is rotation order.
func ParseRotation(spec string) (*Rotation, error) {
	entries := strings.Split(spec, ",")
	defs := make([]Definition, 0, len(entries))
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		id, window, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, fmt.Errorf("malformed rotation entry %q (want id=HH:MM-HH:MM)", entry)
		}
		start, end, ok := strings.Cut(window, "-")
		if !ok {
			return nil, fmt.Errorf("malformed rotation window %q for shift %q", window, id)
		}
		defs = append(defs, Definition{
			ID:    strings.TrimSpace(id),
			Start: strings.TrimSpace(start),
			End:   strings.TrimSpace(end),
		})
	}
	return NewRotation(defs)
}

// Get returns the definition for a shift id.
func (r *Rotation) Get(id string) (Definition, bool) {
	i, ok := r.index[id]
	if !ok {
		return Definition{}, false
	}
	return r.defs[i], true
}

// Shifts returns the rotation's definitions in order.
func (r *Rotation) Shifts() []Definition {
	return append([]Definition(nil), r.defs...)
}

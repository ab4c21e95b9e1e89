package shift

import (
	"errors"
	"testing"
	"time"
)

func dayNightRotation(t *testing.T) *Rotation {
	t.Helper()
	r, err := ParseRotation("day=07:00-19:00,night=19:00-07:00")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return r
}

func TestParseRotation_Valid(t *testing.T) {
	r := dayNightRotation(t)
	shifts := r.Shifts()
	if len(shifts) != 2 {
		t.Fatalf("expected 2 shifts, got %d", len(shifts))
	}
	if shifts[0].ID != "day" || shifts[1].ID != "night" {
		t.Errorf("unexpected order: %v", shifts)
	}
	if shifts[0].CrossesMidnight() {
		t.Error("day shift should not cross midnight")
	}
	if !shifts[1].CrossesMidnight() {
		t.Error("night shift should cross midnight")
	}
}

func TestParseRotation_Malformed(t *testing.T) {
	cases := []string{
		"",
		"day",
		"day=07:00",
		"day=07:00-19:00",                     // single shift, no boundary
		"day=07:00-19:00,day=19:00-07:00",     // duplicate id
		"day=7am-19:00,night=19:00-07:00",     // bad time format
		"=07:00-19:00,night=19:00-07:00",      // missing id
	}
	for _, spec := range cases {
		if _, err := ParseRotation(spec); err == nil {
			t.Errorf("expected error for %q", spec)
		}
	}
}

func TestResolver_NextPrevious(t *testing.T) {
	r := NewResolver(dayNightRotation(t))

	next, err := r.Next("day")
	if err != nil || next != "night" {
		t.Errorf("Next(day) = %q, %v; want night", next, err)
	}
	next, err = r.Next("night")
	if err != nil || next != "day" {
		t.Errorf("Next(night) = %q, %v; want day", next, err)
	}
	prev, err := r.Previous("day")
	if err != nil || prev != "night" {
		t.Errorf("Previous(day) = %q, %v; want night", prev, err)
	}
}

func TestResolver_UnknownShift(t *testing.T) {
	r := NewResolver(dayNightRotation(t))
	if _, err := r.Next("evening"); !errors.Is(err, ErrUnknownShift) {
		t.Errorf("expected ErrUnknownShift, got %v", err)
	}
	if _, err := r.WindowDate("evening", time.Now()); !errors.Is(err, ErrUnknownShift) {
		t.Errorf("expected ErrUnknownShift, got %v", err)
	}
}

func TestWindowDate_DuringShift(t *testing.T) {
	r := NewResolver(dayNightRotation(t))

	at := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)
	date, err := r.WindowDate("day", at)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	if !date.Equal(want) {
		t.Errorf("expected %v, got %v", want, date)
	}
}

func TestWindowDate_NightShiftAfterMidnight(t *testing.T) {
	// A night shift active at 02:00 started on the previous calendar day.
	r := NewResolver(dayNightRotation(t))

	at := time.Date(2025, 3, 11, 2, 0, 0, 0, time.UTC)
	date, err := r.WindowDate("night", at)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	if !date.Equal(want) {
		t.Errorf("expected %v, got %v", want, date)
	}
}

func TestWindowDate_NightShiftBeforeMidnight(t *testing.T) {
	r := NewResolver(dayNightRotation(t))

	at := time.Date(2025, 3, 10, 21, 0, 0, 0, time.UTC)
	date, err := r.WindowDate("night", at)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	if !date.Equal(want) {
		t.Errorf("expected %v, got %v", want, date)
	}
}

func TestWindowFor_ResolvesBoundary(t *testing.T) {
	r := NewResolver(dayNightRotation(t))

	at := time.Date(2025, 3, 10, 18, 30, 0, 0, time.UTC)
	w, err := r.WindowFor("day", at)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.FromShiftID != "day" || w.ToShiftID != "night" {
		t.Errorf("unexpected window shifts: %+v", w)
	}
	if !w.Date.Equal(time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected window date: %v", w.Date)
	}
}

package handover

import (
	"testing"
	"time"
)

func ts(t time.Time) *time.Time { return &t }

func TestHandover_StateDerivation(t *testing.T) {
	now := time.Now()

	cases := []struct {
		name string
		h    Handover
		want State
	}{
		{"no timestamps", Handover{}, StateDraft},
		{"ready", Handover{ReadyAt: ts(now)}, StateReady},
		{"started", Handover{ReadyAt: ts(now), StartedAt: ts(now)}, StateInProgress},
		{"accepted", Handover{ReadyAt: ts(now), StartedAt: ts(now), AcceptedAt: ts(now)}, StateAccepted},
		{"completed", Handover{ReadyAt: ts(now), StartedAt: ts(now), AcceptedAt: ts(now), CompletedAt: ts(now)}, StateCompleted},
		{"completed without explicit accept", Handover{ReadyAt: ts(now), StartedAt: ts(now), CompletedAt: ts(now), AcceptedAt: ts(now)}, StateCompleted},
		{"cancelled from draft", Handover{CancelledAt: ts(now)}, StateCancelled},
		{"cancelled after start", Handover{ReadyAt: ts(now), StartedAt: ts(now), CancelledAt: ts(now)}, StateCancelled},
		{"expired", Handover{ExpiredAt: ts(now)}, StateExpired},
		{"expired wins over ready", Handover{ReadyAt: ts(now), ExpiredAt: ts(now)}, StateExpired},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.h.State(); got != tc.want {
				t.Errorf("State() = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestHandover_IsTerminal(t *testing.T) {
	now := time.Now()

	if (&Handover{ReadyAt: ts(now), StartedAt: ts(now)}).IsTerminal() {
		t.Error("in-progress handover reported terminal")
	}
	if !(&Handover{CompletedAt: ts(now)}).IsTerminal() {
		t.Error("completed handover not reported terminal")
	}
	if !(&Handover{CancelledAt: ts(now)}).IsTerminal() {
		t.Error("cancelled handover not reported terminal")
	}
	if !(&Handover{ExpiredAt: ts(now)}).IsTerminal() {
		t.Error("expired handover not reported terminal")
	}
}

func TestHandover_HasSummary(t *testing.T) {
	empty := ""
	content := "stable overnight, continue fluids"

	if (&Handover{}).HasSummary() {
		t.Error("nil summary reported present")
	}
	if (&Handover{Summary: &empty}).HasSummary() {
		t.Error("empty summary reported present")
	}
	if !(&Handover{Summary: &content}).HasSummary() {
		t.Error("non-empty summary reported absent")
	}
}

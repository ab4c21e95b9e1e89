package handover

import (
	"time"

	"github.com/google/uuid"
)

// State is derived from which lifecycle timestamps are populated, never
// stored as its own column. This keeps the state and the audit trail from
// diverging.
type State string

const (
	StateDraft      State = "draft"
	StateReady      State = "ready"
	StateInProgress State = "in-progress"
	StateAccepted   State = "accepted"
	StateCompleted  State = "completed"
	StateCancelled  State = "cancelled"
	StateExpired    State = "expired"
)

// Handover records the transfer of care responsibility for one patient
// across one shift boundary. Lifecycle timestamps are set exactly once and
// only through the repository's conditional transition writes. A rejection
// is a cancellation carrying a receiver-refused reason, so the terminal
// timestamps are completed_at, cancelled_at and expired_at.
type Handover struct {
	ID                 uuid.UUID  `db:"id" json:"id"`
	PatientID          uuid.UUID  `db:"patient_id" json:"patient_id"`
	FromShiftID        string     `db:"from_shift_id" json:"from_shift_id"`
	ToShiftID          string     `db:"to_shift_id" json:"to_shift_id"`
	WindowDate         time.Time  `db:"window_date" json:"window_date"`
	SenderUserID       uuid.UUID  `db:"sender_user_id" json:"sender_user_id"`
	ReceiverUserID     *uuid.UUID `db:"receiver_user_id" json:"receiver_user_id,omitempty"`
	Summary            *string    `db:"summary" json:"summary,omitempty"`
	CancelReason       *string    `db:"cancel_reason" json:"cancel_reason,omitempty"`
	PreviousHandoverID *uuid.UUID `db:"previous_handover_id" json:"previous_handover_id,omitempty"`
	ReadyAt            *time.Time `db:"ready_at" json:"ready_at,omitempty"`
	StartedAt          *time.Time `db:"started_at" json:"started_at,omitempty"`
	AcceptedAt         *time.Time `db:"accepted_at" json:"accepted_at,omitempty"`
	CompletedAt        *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	CancelledAt        *time.Time `db:"cancelled_at" json:"cancelled_at,omitempty"`
	ExpiredAt          *time.Time `db:"expired_at" json:"expired_at,omitempty"`
	Version            int        `db:"version" json:"version"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updated_at"`
}

// State derives the current lifecycle state from the timestamp pattern.
func (h *Handover) State() State {
	switch {
	case h.ExpiredAt != nil:
		return StateExpired
	case h.CancelledAt != nil:
		return StateCancelled
	case h.CompletedAt != nil:
		return StateCompleted
	case h.AcceptedAt != nil:
		return StateAccepted
	case h.StartedAt != nil:
		return StateInProgress
	case h.ReadyAt != nil:
		return StateReady
	default:
		return StateDraft
	}
}

// IsTerminal reports whether no further transitions are possible.
func (h *Handover) IsTerminal() bool {
	return h.CompletedAt != nil || h.CancelledAt != nil || h.ExpiredAt != nil
}

// HasSummary reports whether the handover carries non-empty summary content,
// the minimum required to mark it ready.
func (h *Handover) HasSummary() bool {
	return h.Summary != nil && *h.Summary != ""
}

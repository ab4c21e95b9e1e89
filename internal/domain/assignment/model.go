package assignment

import (
	"time"

	"github.com/google/uuid"
)

// Assignment records that a user is responsible for a patient during a
// shift. It is the coverage proof consulted by every handover transition
// guard.
type Assignment struct {
	ID        uuid.UUID `db:"id" json:"id"`
	PatientID uuid.UUID `db:"patient_id" json:"patient_id"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	ShiftID   string    `db:"shift_id" json:"shift_id"`
	IsPrimary bool      `db:"is_primary" json:"is_primary"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// TopicPatientAssigned is the bus topic for assignment events.
const TopicPatientAssigned = "patient.assigned_to_shift"

// PatientAssignedToShift is published after an assignment is persisted. The
// handover chaining handler consumes it; delivery is at-least-once, so
// consumers must be idempotent.
type PatientAssignedToShift struct {
	AssignmentID uuid.UUID `json:"assignment_id"`
	PatientID    uuid.UUID `json:"patient_id"`
	UserID       uuid.UUID `json:"user_id"`
	ShiftID      string    `json:"shift_id"`
	IsPrimary    bool      `json:"is_primary"`
	AssignedAt   time.Time `json:"assigned_at"`
}

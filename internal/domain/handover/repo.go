package handover

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// HandoverRepository persists handovers. Every transition method is a
// single-record conditional write: it succeeds (true) only when the record
// was still in the state the transition requires, so concurrent operations
// on the same handover are linearized by the store with no external locking.
type HandoverRepository interface {
	// Create inserts a new draft handover. Returns ErrDuplicateWindow when
	// an active handover already exists for the same shift window.
	Create(ctx context.Context, h *Handover) error
	// GetByID returns ErrNotFound when no such handover exists.
	GetByID(ctx context.Context, id uuid.UUID) (*Handover, error)
	// GetLatestForPatient returns the patient's most recent handover in any
	// state, or nil when the patient has none.
	GetLatestForPatient(ctx context.Context, patientID uuid.UUID) (*Handover, error)
	// GetActiveForPatientAndFromShift returns the patient's non-terminal
	// handover whose FROM side is the given shift, or nil when none exists.
	GetActiveForPatientAndFromShift(ctx context.Context, patientID uuid.UUID, shiftID string) (*Handover, error)
	// GetActiveForPatientAndToShift is the TO-side counterpart.
	GetActiveForPatientAndToShift(ctx context.Context, patientID uuid.UUID, shiftID string) (*Handover, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Handover, int, error)

	// MarkReady sets ready_at on a draft with non-empty summary.
	MarkReady(ctx context.Context, id uuid.UUID) (bool, error)
	// ReturnToDraft clears ready_at on a handover that is exactly ready.
	ReturnToDraft(ctx context.Context, id uuid.UUID) (bool, error)
	// MarkStarted sets started_at and records the receiver on a ready handover.
	MarkStarted(ctx context.Context, id, receiverUserID uuid.UUID) (bool, error)
	// MarkAccepted sets accepted_at on a started handover.
	MarkAccepted(ctx context.Context, id uuid.UUID) (bool, error)
	// MarkCompleted sets completed_at on a ready-or-later handover, stamping
	// started_at and accepted_at too when those steps were skipped, in one
	// atomic write.
	MarkCompleted(ctx context.Context, id, receiverUserID uuid.UUID) (bool, error)
	// MarkCancelled sets cancelled_at and the reason on a non-terminal handover.
	MarkCancelled(ctx context.Context, id uuid.UUID, reason string) (bool, error)

	// ExpireStale transitions every non-terminal handover with a window date
	// older than the cutoff and no started_at/accepted_at to expired, as one
	// bulk conditional update. Returns the number of records transitioned.
	ExpireStale(ctx context.Context, olderThan time.Time) (int64, error)
}

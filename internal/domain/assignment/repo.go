package assignment

import (
	"context"

	"github.com/google/uuid"
)

type AssignmentRepository interface {
	Create(ctx context.Context, a *Assignment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Assignment, error)
	// HasCoverage reports whether the user holds an assignment for the
	// patient in the given shift.
	HasCoverage(ctx context.Context, patientID, userID uuid.UUID, shiftID string) (bool, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Assignment, int, error)
}

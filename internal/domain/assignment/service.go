package assignment

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/handover/handover/internal/domain/shift"
	"github.com/handover/handover/internal/platform/events"
)

type Service struct {
	assignments AssignmentRepository
	rotation    *shift.Rotation
	bus         *events.Bus
	logger      zerolog.Logger
}

func NewService(assignments AssignmentRepository, rotation *shift.Rotation, bus *events.Bus, logger zerolog.Logger) *Service {
	return &Service{assignments: assignments, rotation: rotation, bus: bus, logger: logger}
}

// Assign persists a coverage record and publishes PatientAssignedToShift.
// The event handler that reacts to it runs asynchronously; its failures
// never surface here.
func (s *Service) Assign(ctx context.Context, a *Assignment) error {
	if _, ok := s.rotation.Get(a.ShiftID); !ok {
		return fmt.Errorf("unknown shift %q", a.ShiftID)
	}
	if err := s.assignments.Create(ctx, a); err != nil {
		return fmt.Errorf("create assignment: %w", err)
	}

	s.logger.Info().
		Str("assignment_id", a.ID.String()).
		Str("patient_id", a.PatientID.String()).
		Str("user_id", a.UserID.String()).
		Str("shift_id", a.ShiftID).
		Bool("is_primary", a.IsPrimary).
		Msg("patient assigned to shift")

	s.bus.Publish(ctx, TopicPatientAssigned, PatientAssignedToShift{
		AssignmentID: a.ID,
		PatientID:    a.PatientID,
		UserID:       a.UserID,
		ShiftID:      a.ShiftID,
		IsPrimary:    a.IsPrimary,
		AssignedAt:   a.CreatedAt,
	})
	return nil
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Assignment, int, error) {
	return s.assignments.ListByPatient(ctx, patientID, limit, offset)
}

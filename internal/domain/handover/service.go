package handover

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/handover/handover/internal/domain/shift"
	"github.com/handover/handover/internal/platform/events"
)

// CoverageChecker proves a user is assigned to a patient for a shift. The
// assignment repository satisfies it.
type CoverageChecker interface {
	HasCoverage(ctx context.Context, patientID, userID uuid.UUID, shiftID string) (bool, error)
}

// Service is the handover state machine. Each operation validates its guards
// against a fresh read, then executes a single conditional write; when the
// write reports no rows the record changed underneath us and the operation
// fails with ErrInvalidTransition, leaving no partial state.
type Service struct {
	handovers HandoverRepository
	coverage  CoverageChecker
	shifts    *shift.Resolver
	bus       *events.Bus
	logger    zerolog.Logger
	unitID    string

	now func() time.Time
}

func NewService(handovers HandoverRepository, coverage CoverageChecker, shifts *shift.Resolver, bus *events.Bus, logger zerolog.Logger, unitID string) *Service {
	return &Service{
		handovers: handovers,
		coverage:  coverage,
		shifts:    shifts,
		bus:       bus,
		logger:    logger,
		unitID:    unitID,
		now:       time.Now,
	}
}

// CreateParams are the inputs to the creation path. ToShiftID may be left
// empty to resolve the rotation's next shift.
type CreateParams struct {
	PatientID    uuid.UUID
	FromShiftID  string
	ToShiftID    string
	SenderUserID uuid.UUID
	Summary      string
}

// Create resolves the shift window, verifies the sender's coverage in the
// FROM shift, links and carries over from the patient's previous handover,
// and inserts a new draft. Returns ErrDuplicateWindow when an active
// handover already occupies the window; chaining callers treat that as a
// no-op.
func (s *Service) Create(ctx context.Context, p CreateParams) (*Handover, error) {
	window, err := s.shifts.WindowFor(p.FromShiftID, s.now())
	if err != nil {
		return nil, err
	}
	if p.ToShiftID != "" && p.ToShiftID != window.ToShiftID {
		return nil, fmt.Errorf("%w: shift %q does not hand over to %q", ErrInvalidTransition, p.FromShiftID, p.ToShiftID)
	}

	covered, err := s.coverage.HasCoverage(ctx, p.PatientID, p.SenderUserID, p.FromShiftID)
	if err != nil {
		return nil, fmt.Errorf("check sender coverage: %w", err)
	}
	if !covered {
		return nil, fmt.Errorf("%w: sender %s is not assigned to patient in shift %q", ErrNoCoverage, p.SenderUserID, p.FromShiftID)
	}

	h := &Handover{
		PatientID:    p.PatientID,
		FromShiftID:  window.FromShiftID,
		ToShiftID:    window.ToShiftID,
		WindowDate:   window.Date,
		SenderUserID: p.SenderUserID,
	}
	if p.Summary != "" {
		summary := p.Summary
		h.Summary = &summary
	}

	// Link to the patient's most recent handover and carry its summary
	// forward when the new one starts empty.
	prev, err := s.handovers.GetLatestForPatient(ctx, p.PatientID)
	if err != nil {
		return nil, fmt.Errorf("resolve previous handover: %w", err)
	}
	if prev != nil {
		prevID := prev.ID
		h.PreviousHandoverID = &prevID
		if h.Summary == nil && prev.Summary != nil && *prev.Summary != "" {
			carried := *prev.Summary
			h.Summary = &carried
		}
	}

	if err := s.handovers.Create(ctx, h); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("handover_id", h.ID.String()).
		Str("patient_id", h.PatientID.String()).
		Str("from_shift", h.FromShiftID).
		Str("to_shift", h.ToShiftID).
		Time("window_date", h.WindowDate).
		Msg("handover created")
	return h, nil
}

// Ready marks a draft with non-empty summary as ready for pickup.
func (s *Service) Ready(ctx context.Context, id, userID uuid.UUID) (*Handover, error) {
	h, err := s.handovers.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if st := h.State(); st != StateDraft {
		return nil, fmt.Errorf("%w: ready requires state %s, was %s", ErrInvalidTransition, StateDraft, st)
	}
	if !h.HasSummary() {
		return nil, fmt.Errorf("%w: a non-empty summary is required before ready", ErrInvalidTransition)
	}

	ok, err := s.handovers.MarkReady(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("mark ready: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: handover changed concurrently", ErrInvalidTransition)
	}
	s.logger.Info().Str("handover_id", id.String()).Str("user_id", userID.String()).Msg("handover ready")
	return s.handovers.GetByID(ctx, id)
}

// ReturnForChanges reverses Ready back to Draft. Only legal while the
// handover is exactly ready.
func (s *Service) ReturnForChanges(ctx context.Context, id, userID uuid.UUID) (*Handover, error) {
	h, err := s.handovers.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if st := h.State(); st != StateReady {
		return nil, fmt.Errorf("%w: return requires state %s, was %s", ErrInvalidTransition, StateReady, st)
	}

	ok, err := s.handovers.ReturnToDraft(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("return to draft: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: handover changed concurrently", ErrInvalidTransition)
	}
	s.logger.Info().Str("handover_id", id.String()).Str("user_id", userID.String()).Msg("handover returned for changes")
	return s.handovers.GetByID(ctx, id)
}

// Start begins the pass on the receiving side. The starter must hold
// coverage in the TO shift and cannot be the sender.
func (s *Service) Start(ctx context.Context, id, userID uuid.UUID) (*Handover, error) {
	h, err := s.handovers.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if st := h.State(); st != StateReady {
		return nil, fmt.Errorf("%w: start requires state %s, was %s", ErrInvalidTransition, StateReady, st)
	}
	if err := s.checkReceiver(ctx, h, userID, "start"); err != nil {
		return nil, err
	}

	ok, err := s.handovers.MarkStarted(ctx, id, userID)
	if err != nil {
		return nil, fmt.Errorf("mark started: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: handover changed concurrently", ErrInvalidTransition)
	}
	s.logger.Info().Str("handover_id", id.String()).Str("receiver_id", userID.String()).Msg("handover started")
	return s.handovers.GetByID(ctx, id)
}

// Accept acknowledges the pass. Deployments may skip it and go straight to
// Complete, which performs the accept implicitly.
func (s *Service) Accept(ctx context.Context, id, userID uuid.UUID) (*Handover, error) {
	h, err := s.handovers.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if st := h.State(); st != StateInProgress {
		return nil, fmt.Errorf("%w: accept requires state %s, was %s", ErrInvalidTransition, StateInProgress, st)
	}
	if err := s.checkReceiver(ctx, h, userID, "accept"); err != nil {
		return nil, err
	}

	ok, err := s.handovers.MarkAccepted(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("mark accepted: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: handover changed concurrently", ErrInvalidTransition)
	}
	s.logger.Info().Str("handover_id", id.String()).Str("receiver_id", userID.String()).Msg("handover accepted")
	return s.handovers.GetByID(ctx, id)
}

// Complete finishes the pass and publishes the completion event that feeds
// the chaining handler. Start and Accept are stamped implicitly when a
// deployment skips those discrete steps, so completing straight from Ready
// is legal and the timestamp ordering invariant still holds.
func (s *Service) Complete(ctx context.Context, id, userID uuid.UUID) (*Handover, error) {
	h, err := s.handovers.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	switch st := h.State(); st {
	case StateReady, StateInProgress, StateAccepted:
	default:
		return nil, fmt.Errorf("%w: complete requires state %s, %s or %s, was %s",
			ErrInvalidTransition, StateReady, StateInProgress, StateAccepted, st)
	}
	if err := s.checkReceiver(ctx, h, userID, "complete"); err != nil {
		return nil, err
	}

	ok, err := s.handovers.MarkCompleted(ctx, id, userID)
	if err != nil {
		return nil, fmt.Errorf("mark completed: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: handover changed concurrently", ErrInvalidTransition)
	}

	s.logger.Info().
		Str("handover_id", id.String()).
		Str("patient_id", h.PatientID.String()).
		Str("completed_by", userID.String()).
		Str("to_shift", h.ToShiftID).
		Msg("handover completed")

	s.bus.Publish(ctx, TopicCompleted, Completed{
		HandoverID:        h.ID,
		PatientID:         h.PatientID,
		CompletedByUserID: userID,
		ToShiftID:         h.ToShiftID,
		UnitID:            s.unitID,
	})
	return s.handovers.GetByID(ctx, id)
}

// Reject is the receiving side refusing the pass. It is a cancellation
// carrying a receiver-refused reason rather than a distinct terminal state,
// so history queries see one cancellation taxonomy.
func (s *Service) Reject(ctx context.Context, id uuid.UUID, reason string, userID uuid.UUID) (*Handover, error) {
	if reason == "" {
		return nil, fmt.Errorf("%w: reject requires a reason", ErrInvalidTransition)
	}
	return s.cancel(ctx, id, "receiver-refused: "+reason, userID)
}

// Cancel abandons a non-terminal handover with a reason.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, reason string, userID uuid.UUID) (*Handover, error) {
	if reason == "" {
		return nil, fmt.Errorf("%w: cancel requires a reason", ErrInvalidTransition)
	}
	return s.cancel(ctx, id, reason, userID)
}

func (s *Service) cancel(ctx context.Context, id uuid.UUID, reason string, userID uuid.UUID) (*Handover, error) {
	h, err := s.handovers.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if h.IsTerminal() {
		return nil, fmt.Errorf("%w: handover is already %s", ErrInvalidTransition, h.State())
	}

	ok, err := s.handovers.MarkCancelled(ctx, id, reason)
	if err != nil {
		return nil, fmt.Errorf("mark cancelled: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: handover changed concurrently", ErrInvalidTransition)
	}
	s.logger.Info().
		Str("handover_id", id.String()).
		Str("user_id", userID.String()).
		Str("reason", reason).
		Msg("handover cancelled")
	return s.handovers.GetByID(ctx, id)
}

// checkReceiver enforces the receiving-side guards shared by Start, Accept
// and Complete: the actor cannot be the sender and must hold coverage in
// the TO shift.
func (s *Service) checkReceiver(ctx context.Context, h *Handover, userID uuid.UUID, op string) error {
	if userID == h.SenderUserID {
		return fmt.Errorf("%w: sender cannot %s their own handover", ErrInvalidTransition, op)
	}
	covered, err := s.coverage.HasCoverage(ctx, h.PatientID, userID, h.ToShiftID)
	if err != nil {
		return fmt.Errorf("check receiver coverage: %w", err)
	}
	if !covered {
		return fmt.Errorf("%w: %s requires coverage in shift %q", ErrNoCoverage, op, h.ToShiftID)
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Handover, error) {
	return s.handovers.GetByID(ctx, id)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Handover, int, error) {
	return s.handovers.ListByPatient(ctx, patientID, limit, offset)
}

// GetActiveForPatientAndFromShift is the idempotency lookup used by the
// chaining handlers and the assignment command.
func (s *Service) GetActiveForPatientAndFromShift(ctx context.Context, patientID uuid.UUID, shiftID string) (*Handover, error) {
	return s.handovers.GetActiveForPatientAndFromShift(ctx, patientID, shiftID)
}

// GetActiveForPatientAndToShift is the TO-side counterpart.
func (s *Service) GetActiveForPatientAndToShift(ctx context.Context, patientID uuid.UUID, shiftID string) (*Handover, error) {
	return s.handovers.GetActiveForPatientAndToShift(ctx, patientID, shiftID)
}

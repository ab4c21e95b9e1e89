package handover

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/handover/handover/internal/domain/assignment"
	"github.com/handover/handover/internal/domain/shift"
)

func TestChainer_PrimaryAssignmentOpensDraft(t *testing.T) {
	env := newTestEnv(t)
	chainer := NewChainer(env.svc, zerolog.Nop())

	patient := uuid.New()
	user := uuid.New()
	env.coverage.allow(patient, user, "day")

	chainer.onPatientAssigned(context.Background(), assignment.PatientAssignedToShift{
		PatientID: patient,
		UserID:    user,
		ShiftID:   "day",
		IsPrimary: true,
	})

	h, err := env.repo.GetActiveForPatientAndFromShift(context.Background(), patient, "day")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if h == nil {
		t.Fatal("no draft opened for primary assignment")
	}
	if h.State() != StateDraft || h.SenderUserID != user {
		t.Errorf("unexpected draft: state=%s sender=%s", h.State(), h.SenderUserID)
	}
}

func TestChainer_NonPrimaryAssignmentIgnored(t *testing.T) {
	env := newTestEnv(t)
	chainer := NewChainer(env.svc, zerolog.Nop())

	patient := uuid.New()
	user := uuid.New()
	env.coverage.allow(patient, user, "day")

	chainer.onPatientAssigned(context.Background(), assignment.PatientAssignedToShift{
		PatientID: patient,
		UserID:    user,
		ShiftID:   "day",
		IsPrimary: false,
	})

	if h, _ := env.repo.GetActiveForPatientAndFromShift(context.Background(), patient, "day"); h != nil {
		t.Error("draft opened for non-primary assignment")
	}
}

func TestChainer_AssignmentIntoIncomingShiftSuppressed(t *testing.T) {
	env := newTestEnv(t)
	chainer := NewChainer(env.svc, zerolog.Nop())

	// An active handover already targets the night shift; a nurse picking
	// up the patient for night is its receiver, not a new sender.
	h, _, _ := env.seedHandover(t, StateReady)
	user := uuid.New()
	env.coverage.allow(h.PatientID, user, "night")

	chainer.onPatientAssigned(context.Background(), assignment.PatientAssignedToShift{
		PatientID: h.PatientID,
		UserID:    user,
		ShiftID:   "night",
		IsPrimary: true,
	})

	if out, _ := env.repo.GetActiveForPatientAndFromShift(context.Background(), h.PatientID, "night"); out != nil {
		t.Error("outgoing draft opened despite incoming handover")
	}
}

func TestChainer_AssignmentWithoutCoverageSwallowed(t *testing.T) {
	env := newTestEnv(t)
	chainer := NewChainer(env.svc, zerolog.Nop())

	// Coverage lookup in Create will deny; the handler must not panic or
	// leave anything behind.
	patient := uuid.New()
	chainer.onPatientAssigned(context.Background(), assignment.PatientAssignedToShift{
		PatientID: patient,
		UserID:    uuid.New(),
		ShiftID:   "day",
		IsPrimary: true,
	})

	if h, _ := env.repo.GetActiveForPatientAndFromShift(context.Background(), patient, "day"); h != nil {
		t.Error("draft opened without coverage")
	}
}

func TestChainer_CompletionOpensNextLink(t *testing.T) {
	env := newTestEnv(t)
	chainer := NewChainer(env.svc, zerolog.Nop())
	chainer.Register(env.bus)

	h, _, receiver := env.seedHandover(t, StateAccepted)
	env.coverage.allow(h.PatientID, receiver, "night")

	if _, err := env.svc.Complete(context.Background(), h.ID, receiver); err != nil {
		t.Fatalf("complete: %v", err)
	}
	env.bus.Wait()

	next, err := env.repo.GetActiveForPatientAndFromShift(context.Background(), h.PatientID, "night")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if next == nil {
		t.Fatal("completion did not open the next link")
	}
	if next.SenderUserID != receiver {
		t.Errorf("next sender = %s, want completer %s", next.SenderUserID, receiver)
	}
	if next.PreviousHandoverID == nil || *next.PreviousHandoverID != h.ID {
		t.Error("next link not chained to completed handover")
	}
	if next.Summary == nil || *next.Summary != "stable overnight" {
		t.Error("summary not carried into next link")
	}
}

func TestChainer_CompletionIdempotentWhenLinkExists(t *testing.T) {
	env := newTestEnv(t)
	chainer := NewChainer(env.svc, zerolog.Nop())

	h, _, receiver := env.seedHandover(t, StateAccepted)
	if _, err := env.svc.Complete(context.Background(), h.ID, receiver); err != nil {
		t.Fatalf("complete: %v", err)
	}

	// The next link already exists, opened manually.
	env.coverage.allow(h.PatientID, receiver, "night")
	manual, err := env.svc.Create(context.Background(), CreateParams{
		PatientID:    h.PatientID,
		FromShiftID:  "night",
		SenderUserID: receiver,
	})
	if err != nil {
		t.Fatalf("manual create: %v", err)
	}

	chainer.onHandoverCompleted(context.Background(), Completed{
		HandoverID:        h.ID,
		PatientID:         h.PatientID,
		CompletedByUserID: receiver,
		ToShiftID:         h.ToShiftID,
	})

	_, total, err := env.repo.ListByPatient(context.Background(), h.PatientID, 10, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 2 {
		t.Fatalf("handover count = %d, want 2 (completed + manual %s)", total, manual.ID)
	}
}

// requestScopedRepo behaves like the pgx repository under a live HTTP
// server: store calls fail once the context they were handed is cancelled.
// Reads additionally block until the request is over, pinning the ordering
// where the response is written before the chaining handler touches the
// store.
type requestScopedRepo struct {
	HandoverRepository
	requestOver chan struct{}
}

func (r *requestScopedRepo) GetActiveForPatientAndFromShift(ctx context.Context, patientID uuid.UUID, shiftID string) (*Handover, error) {
	<-r.requestOver
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.HandoverRepository.GetActiveForPatientAndFromShift(ctx, patientID, shiftID)
}

func (r *requestScopedRepo) GetLatestForPatient(ctx context.Context, patientID uuid.UUID) (*Handover, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.HandoverRepository.GetLatestForPatient(ctx, patientID)
}

func (r *requestScopedRepo) Create(ctx context.Context, h *Handover) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.HandoverRepository.Create(ctx, h)
}

func TestChainer_NextLinkSurvivesRequestCancellation(t *testing.T) {
	env := newTestEnv(t)
	h, _, receiver := env.seedHandover(t, StateAccepted)
	env.coverage.allow(h.PatientID, receiver, "night")

	repo := &requestScopedRepo{
		HandoverRepository: env.repo,
		requestOver:        make(chan struct{}),
	}
	rotation, err := shift.ParseRotation("day=07:00-19:00,night=19:00-07:00")
	if err != nil {
		t.Fatalf("parse rotation: %v", err)
	}
	svc := NewService(repo, env.coverage, shift.NewResolver(rotation), env.bus, zerolog.Nop(), "icu-1")
	svc.now = env.svc.now
	NewChainer(svc, zerolog.Nop()).Register(env.bus)

	// Complete under a request-scoped context, then cancel it the way
	// net/http does once the response is written.
	ctx, cancel := context.WithCancel(context.Background())
	if _, err := svc.Complete(ctx, h.ID, receiver); err != nil {
		t.Fatalf("complete: %v", err)
	}
	cancel()
	close(repo.requestOver)
	env.bus.Wait()

	next, err := env.repo.GetActiveForPatientAndFromShift(context.Background(), h.PatientID, "night")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if next == nil {
		t.Fatal("chaining handler did not open the next link after the request ended")
	}
	if next.SenderUserID != receiver {
		t.Errorf("next sender = %s, want completer %s", next.SenderUserID, receiver)
	}
}

func TestChainer_UnexpectedPayloadIgnored(t *testing.T) {
	env := newTestEnv(t)
	chainer := NewChainer(env.svc, zerolog.Nop())

	chainer.onPatientAssigned(context.Background(), "not an event")
	chainer.onHandoverCompleted(context.Background(), 42)
}

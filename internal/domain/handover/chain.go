package handover

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/handover/handover/internal/domain/assignment"
	"github.com/handover/handover/internal/platform/events"
)

// Chainer keeps the handover chain alive by reacting to bus events: a
// primary assignment opens the shift's outgoing draft, and a completion
// opens the next link with the completer as sender. Conditions that just
// mean "nothing to do" (no coverage yet, window already occupied) are
// logged and swallowed so a handler failure never surfaces to the caller
// that published the event.
type Chainer struct {
	service *Service
	logger  zerolog.Logger
}

func NewChainer(service *Service, logger zerolog.Logger) *Chainer {
	return &Chainer{service: service, logger: logger}
}

// Register subscribes the chaining handlers on the bus.
func (c *Chainer) Register(bus *events.Bus) {
	bus.Subscribe(assignment.TopicPatientAssigned, c.onPatientAssigned)
	bus.Subscribe(TopicCompleted, c.onHandoverCompleted)
}

func (c *Chainer) onPatientAssigned(ctx context.Context, payload interface{}) {
	ev, ok := payload.(assignment.PatientAssignedToShift)
	if !ok {
		c.logger.Error().Str("topic", assignment.TopicPatientAssigned).Msg("unexpected payload type")
		return
	}
	if !ev.IsPrimary {
		return
	}

	// If an active handover already targets this shift, the new assignee
	// joins as a prospective receiver; no outgoing draft opens here.
	incoming, err := c.service.GetActiveForPatientAndToShift(ctx, ev.PatientID, ev.ShiftID)
	if err != nil {
		c.logger.Error().Err(err).
			Str("patient_id", ev.PatientID.String()).
			Str("shift_id", ev.ShiftID).
			Msg("chain: incoming-handover lookup failed")
		return
	}
	if incoming != nil {
		return
	}

	c.createDraft(ctx, CreateParams{
		PatientID:    ev.PatientID,
		FromShiftID:  ev.ShiftID,
		SenderUserID: ev.UserID,
	})
}

func (c *Chainer) onHandoverCompleted(ctx context.Context, payload interface{}) {
	ev, ok := payload.(Completed)
	if !ok {
		c.logger.Error().Str("topic", TopicCompleted).Msg("unexpected payload type")
		return
	}

	// The completed handover's TO shift becomes the next link's FROM
	// shift. Skip when that link already exists.
	existing, err := c.service.GetActiveForPatientAndFromShift(ctx, ev.PatientID, ev.ToShiftID)
	if err != nil {
		c.logger.Error().Err(err).
			Str("patient_id", ev.PatientID.String()).
			Str("shift_id", ev.ToShiftID).
			Msg("chain: next-link lookup failed")
		return
	}
	if existing != nil {
		return
	}

	c.createDraft(ctx, CreateParams{
		PatientID:    ev.PatientID,
		FromShiftID:  ev.ToShiftID,
		SenderUserID: ev.CompletedByUserID,
	})
}

func (c *Chainer) createDraft(ctx context.Context, p CreateParams) {
	h, err := c.service.Create(ctx, p)
	switch {
	case err == nil:
		c.logger.Info().
			Str("handover_id", h.ID.String()).
			Str("patient_id", p.PatientID.String()).
			Str("from_shift", p.FromShiftID).
			Msg("chain: draft opened")
	case errors.Is(err, ErrNoCoverage), errors.Is(err, ErrDuplicateWindow):
		c.logger.Debug().Err(err).
			Str("patient_id", p.PatientID.String()).
			Str("from_shift", p.FromShiftID).
			Msg("chain: draft not opened")
	default:
		c.logger.Error().Err(err).
			Str("patient_id", p.PatientID.String()).
			Str("from_shift", p.FromShiftID).
			Msg("chain: draft creation failed")
	}
}

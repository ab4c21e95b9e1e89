package handover

import "github.com/google/uuid"

// TopicCompleted is the bus topic for completion events.
const TopicCompleted = "handover.completed"

// Completed is published after a handover reaches the completed state. The
// chaining handler consumes it to synthesize the next handover in the
// rotation: the TO shift becomes the next FROM shift and the completing
// receiver becomes the next sender.
type Completed struct {
	HandoverID        uuid.UUID `json:"handover_id"`
	PatientID         uuid.UUID `json:"patient_id"`
	CompletedByUserID uuid.UUID `json:"completed_by_user_id"`
	ToShiftID         string    `json:"to_shift_id"`
	UnitID            string    `json:"unit_id"`
}

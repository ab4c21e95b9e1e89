package handover

import "errors"

// Expected business failures. Callers match with errors.Is; none of these
// indicate a broken store.
var (
	// ErrNotFound means no handover exists with the given id.
	ErrNotFound = errors.New("handover not found")

	// ErrInvalidTransition means the record is not in a state (or the actor
	// not in a role) from which the requested transition is legal.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrNoCoverage means the acting user holds no assignment for the
	// patient in the required shift.
	ErrNoCoverage = errors.New("no shift coverage")

	// ErrDuplicateWindow means an active handover already exists for the
	// same (patient, from shift, to shift, date) window. Idempotent callers
	// treat it as success.
	ErrDuplicateWindow = errors.New("active handover already exists for shift window")
)

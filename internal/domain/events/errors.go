package events

import "errors"

var (
	ErrNotFound          = errors.New("event not found")
	ErrForbidden         = errors.New("not authorized to modify this event")
	ErrAlreadyRegistered = errors.New("already registered for this event")
	ErrCapacityExceeded  = errors.New("event is already at full capacity")
	// ErrVersionConflict signals a lost compare-and-swap race; callers
	// retry against a fresh snapshot.
	ErrVersionConflict = errors.New("event version conflict")
)

package domain

import "errors"

// Sentinel errors shared across the engine. Services return these (possibly
// wrapped); controllers map them to HTTP status codes.
var (
	// ErrNotFound is returned when a contact, group, invite, or token does not exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation is returned for malformed input. Validation always fails
	// before any mutation.
	ErrValidation = errors.New("invalid input")

	// ErrConflict is returned when re-accepting an already-accepted invite.
	ErrConflict = errors.New("conflict")

	// ErrExpired is returned when accepting an invite past its expiry.
	ErrExpired = errors.New("expired")

	// ErrForbidden is returned when a record exists but belongs to another user.
	ErrForbidden = errors.New("forbidden")

	// ErrDuplicateEmail is returned when a user email is already registered.
	ErrDuplicateEmail = errors.New("email already in use")
)

// BulkResult reports the outcome of a best-effort bulk membership operation.
// Changed lists the IDs actually applied; Failed lists the IDs that could not
// be, each with its reason. A failure on one ID never rolls back the others.
type BulkResult struct {
	Changed []string     `json:"changed"`
	Failed  []BulkFailure `json:"failed"`
}

// BulkFailure is a single failed ID within a bulk operation.
type BulkFailure struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

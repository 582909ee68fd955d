// Package apperr defines the domain error kinds surfaced to callers.
// Store-level failures are wrapped into these kinds at the adapter
// boundary and never leak raw to the API layer.
package apperr

import "errors"

// Sentinel kinds for domain errors. Callers match with errors.Is.
var (
	// ErrAlreadyApplied means a non-rejected application to the same target exists.
	ErrAlreadyApplied = errors.New("already applied to target")

	// ErrCapExceeded means the student holds the maximum number of
	// non-rejected applications to the same institution or company.
	ErrCapExceeded = errors.New("institution application cap exceeded")

	// ErrTargetUnavailable means the target is not accepting applications.
	ErrTargetUnavailable = errors.New("target unavailable")

	// ErrNotQualified means the academic qualification gate failed.
	ErrNotQualified = errors.New("not qualified for target")

	// ErrNotFound means a referenced student, target, or application does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidSelection means selectAdmission was called on an application
	// that is not in the admitted state.
	ErrInvalidSelection = errors.New("invalid admission selection")

	// ErrUnauthorized means the actor lacks rights over the entity.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrStoreConflict is a transient transaction failure; the whole
	// operation may be retried, individual sub-steps may not.
	ErrStoreConflict = errors.New("store conflict")

	// ErrInvalidTransition means a staff status update is not allowed
	// from the application's current status.
	ErrInvalidTransition = errors.New("invalid status transition")
)

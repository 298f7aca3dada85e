package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in the
	// store. This is the generic version of the entity-specific not found
	// errors below.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an operation would create a duplicate
	// of a unique entity. For match results this is an expected race and is
	// absorbed by the store; for every other entity it is surfaced.
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity is returned when an entity fails validation or a
	// constraint before being stored.
	ErrInvalidEntity = errors.New("invalid entity")

	// Entity-specific "not found" errors

	// ErrResumeNotFound indicates that the requested resume does not exist.
	ErrResumeNotFound = fmt.Errorf("%w: resume", ErrNotFound)

	// ErrJobNotFound indicates that the requested job description does not exist.
	ErrJobNotFound = fmt.Errorf("%w: job description", ErrNotFound)

	// ErrCandidateNotFound indicates that the requested candidate does not exist.
	ErrCandidateNotFound = fmt.Errorf("%w: candidate", ErrNotFound)

	// ErrMatchResultNotFound indicates that no match result exists for the pair.
	ErrMatchResultNotFound = fmt.Errorf("%w: match result", ErrNotFound)

	// ErrQueueItemNotFound indicates that the requested queue item does not exist.
	ErrQueueItemNotFound = fmt.Errorf("%w: queue item", ErrNotFound)

	// Entity-specific "duplicate" errors

	// ErrCandidateExists indicates that the resume already owns a candidate.
	ErrCandidateExists = fmt.Errorf("%w: candidate for resume", ErrDuplicate)
)

// IsNotFoundError checks if the error is any kind of "not found" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicateError checks if the error is any kind of "duplicate" error.
func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicate)
}

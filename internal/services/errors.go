package services

import (
	"errors"

	"github.com/q-up/queue-backend/internal/queue"
)

// Typed outcomes of queue operations. All precondition violations are
// detected before any mutation is applied and surfaced as one of these;
// callers match with errors.Is and map them to their own status
// representation. ErrSlotNotFound and ErrStorageFailure are the two
// unexpected ones: they are logged and rendered as a generic internal error.
var (
	// ErrUnauthorized means the actor's role does not permit the operation.
	ErrUnauthorized = errors.New("unauthorized for this operation")

	// ErrNotFound means the business or customer record is absent.
	ErrNotFound = errors.New("record not found")

	// ErrAlreadyQueued means the customer already holds a slot somewhere.
	ErrAlreadyQueued = errors.New("already enrolled in a queue")

	// ErrNotQueued means the customer holds no slot anywhere.
	ErrNotQueued = errors.New("not currently in a queue")

	// ErrQueueInactive means the queue is not accepting entries.
	ErrQueueInactive = errors.New("queue is not active")

	// ErrStoreClosed means the current local time is outside operating hours.
	ErrStoreClosed = errors.New("the store is closed now")

	// ErrSlotNotFound means the customer's pointer and the queue contents
	// disagree: the pointer names a queue holding no slot for them. This is
	// an inconsistency, surfaced rather than silently repaired.
	ErrSlotNotFound = errors.New("no queue slot found for customer")

	// ErrInvalidCredentials means a presented slot password or booth API key
	// did not match.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrStorageFailure wraps collaborator-level faults, including queue
	// transactions that kept conflicting past the retry budget.
	ErrStorageFailure = errors.New("storage failure")
)

// expectedOutcome reports whether the error is one of the expected
// control-flow outcomes that must pass through storage-error translation
// untouched.
func expectedOutcome(err error) bool {
	for _, outcome := range []error{
		ErrUnauthorized, ErrNotFound, ErrAlreadyQueued, ErrNotQueued,
		ErrQueueInactive, ErrStoreClosed, ErrSlotNotFound, ErrInvalidCredentials,
		queue.ErrNoHours,
	} {
		if errors.Is(err, outcome) {
			return true
		}
	}
	return false
}

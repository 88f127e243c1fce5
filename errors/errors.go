package errors

import "fmt"

var (
	ErrWorkerPanic = fmt.Errorf("worker panic")
	ErrNoSnapshot  = fmt.Errorf("no snapshot recorded")
)

// Reason identifies which admission rule a candidate message violated.
type Reason string

const (
	EmptyBody   Reason = "EMPTY_BODY"
	BodyTooLong Reason = "BODY_TOO_LONG"
)

// ValidationError is the only error ever delivered to a client,
// and only to the session that submitted the candidate.
type ValidationError struct {
	Reason Reason
}

func (e ValidationError) Error() string {
	switch e.Reason {
	case EmptyBody:
		return "message must not be empty"
	case BodyTooLong:
		return "message must be 1-500 characters"
	default:
		return fmt.Sprintf("invalid message: %s", string(e.Reason))
	}
}

// CorruptSnapshotError reports an unreadable persisted snapshot.
// It is recovered at startup by falling back to an empty ledger.
type CorruptSnapshotError struct {
	Cause error
}

func (e CorruptSnapshotError) Error() string {
	return fmt.Sprintf("corrupt ledger snapshot: %v", e.Cause)
}

func (e CorruptSnapshotError) Unwrap() error {
	return e.Cause
}

package scanner

import (
	"errors"
	"fmt"
)

// Scan failures. A *ScanError returned by ScanSession.Scan wraps one of
// these or the error reported by the LineSource.
var (
	// ErrMissingDocumentBoundary is returned when the input ends before the
	// start or the end marker is found. Without both markers the prose
	// region is unknown, so no counts are returned.
	ErrMissingDocumentBoundary = errors.New("missing document boundary")

	// ErrUnterminatedEnvironment is returned when the input ends while an
	// environment is still open.
	ErrUnterminatedEnvironment = errors.New("unterminated environment")

	// ErrSessionFinished is returned when Scan is called on a session that
	// already completed or failed.
	ErrSessionFinished = errors.New("scan session already finished")
)

// ScanError records where a scan failed.
type ScanError struct {
	// Line is the 1-based number of the last line read, or 0 when the
	// input was empty.
	Line int

	// State is the state the session was in when it failed.
	State State

	// Err is the cause.
	Err error
}

// Error implements the error interface.
func (e *ScanError) Error() string {
	return fmt.Sprintf("scan failed at line %d (%s): %v", e.Line, e.State, e.Err)
}

// Unwrap returns the cause.
func (e *ScanError) Unwrap() error {
	return e.Err
}

package session

import (
	"errors"
	"fmt"
)

// Sentinel kinds for errors.Is checks.
var (
	ErrNotFound         = errors.New("session not found")
	ErrAlreadyCompleted = errors.New("session already completed")
	ErrNotCompleted     = errors.New("session not completed")
)

// NotFoundError is returned for an unknown session id.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("session %q not found", e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// AlreadyCompletedError is returned when a submission targets a session that has
// already been scored, including the loser of two concurrent submissions.
type AlreadyCompletedError struct {
	ID string
}

func (e *AlreadyCompletedError) Error() string {
	return fmt.Sprintf("session %q has already been completed", e.ID)
}

func (e *AlreadyCompletedError) Unwrap() error { return ErrAlreadyCompleted }

// NotCompletedError is returned when results are requested before submission.
type NotCompletedError struct {
	ID string
}

func (e *NotCompletedError) Error() string {
	return fmt.Sprintf("session %q has not been completed", e.ID)
}

func (e *NotCompletedError) Unwrap() error { return ErrNotCompleted }

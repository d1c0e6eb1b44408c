package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrActivityNotFound is returned when no activity carries the requested name.
	ErrActivityNotFound = errors.New("activity not found")
	// ErrAlreadySignedUp indicates the email is already on the roster.
	ErrAlreadySignedUp = errors.New("already signed up")
	// ErrNotSignedUp indicates the email is not on the roster.
	ErrNotSignedUp = errors.New("not signed up")
	// ErrActivityFull is returned when capacity enforcement is on and the roster is full.
	ErrActivityFull = errors.New("activity is full")
)

// ParticipationError describes a rejected roster change for a specific student.
type ParticipationError struct {
	Activity string
	Email    string
	Err      error
}

func (e *ParticipationError) Error() string {
	switch {
	case errors.Is(e.Err, ErrAlreadySignedUp):
		return fmt.Sprintf("%s is already signed up for %s", e.Email, e.Activity)
	case errors.Is(e.Err, ErrNotSignedUp):
		return fmt.Sprintf("%s is not signed up for %s", e.Email, e.Activity)
	case errors.Is(e.Err, ErrActivityFull):
		return fmt.Sprintf("%s is full", e.Activity)
	default:
		return fmt.Sprintf("%s: %v", e.Activity, e.Err)
	}
}

func (e *ParticipationError) Unwrap() error {
	return e.Err
}

// RejectionReason maps a service error onto a short label for metrics and logs.
func RejectionReason(err error) string {
	switch {
	case errors.Is(err, ErrActivityNotFound):
		return "not_found"
	case errors.Is(err, ErrAlreadySignedUp):
		return "already_signed_up"
	case errors.Is(err, ErrNotSignedUp):
		return "not_signed_up"
	case errors.Is(err, ErrActivityFull):
		return "full"
	default:
		return "error"
	}
}

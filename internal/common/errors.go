// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Storage errors.
	ErrNotFound = errors.New("not found")

	// Validation errors.
	ErrInvalidObligation = errors.New("invalid obligation")
	ErrInvalidFrequency  = errors.New("invalid frequency")
	ErrMissingAnchor     = errors.New("periodic obligation requires a cycle anchor")

	// Precondition errors.
	ErrSealInProgress   = errors.New("sealing in progress")
	ErrSealNotActive    = errors.New("no seal operation in progress")
	ErrNotEligible      = errors.New("seal not eligible")
	ErrObligationLocked = errors.New("obligation is sealed for this period")
)

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// UserMessage extracts the display message from an error, falling back
// to Error() for plain errors.
func UserMessage(err error) string {
	var userErr *UserError
	if errors.As(err, &userErr) {
		return userErr.UserMessage
	}
	return err.Error()
}

// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Validation errors.
	ErrDuplicateName   = errors.New("an active category with this name already exists")
	ErrDefaultCategory = errors.New("default categories cannot be deleted")

	// Database errors.
	ErrNotFound = errors.New("not found")

	// Coordinator errors.
	ErrBusy = errors.New("another operation is in progress")
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

// IsValidation reports whether err is a rejection of the caller's input
// rather than a storage failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrDuplicateName) || errors.Is(err, ErrDefaultCategory)
}

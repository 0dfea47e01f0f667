package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrValidation        = errors.New("validation failed")
	ErrMissingSettings   = errors.New("provider settings missing")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// ValidationError describes rejected user input. No records are created when it is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// SettingsError reports which provider setting is absent.
type SettingsError struct {
	Provider Provider
	Field    string
}

func (e *SettingsError) Error() string {
	return fmt.Sprintf("%s settings missing %s", e.Provider, e.Field)
}

func (e *SettingsError) Unwrap() error { return ErrMissingSettings }

// TransitionError is returned when a job cannot move from its current status.
type TransitionError struct {
	From       JobStatus
	Transition Transition
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s a job in status %s", e.Transition, e.From)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

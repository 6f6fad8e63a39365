package grading

import (
	"errors"
	"fmt"
)

// Base errors usable with errors.Is.
var (
	ErrValidation     = errors.New("validation error")
	ErrEmptyClassroom = errors.New("empty classroom")
)

// ValidationError reports input the engine refuses to grade.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation error: %s", e.Message)
	}
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// Is matches ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// EmptyClassroomError reports a classroom without students or without exams.
type EmptyClassroomError struct {
	Subject string
	Reason  string
}

// Error implements the error interface.
func (e *EmptyClassroomError) Error() string {
	if e.Subject == "" {
		return fmt.Sprintf("empty classroom: %s", e.Reason)
	}
	return fmt.Sprintf("empty classroom %q: %s", e.Subject, e.Reason)
}

// Is matches ErrEmptyClassroom.
func (e *EmptyClassroomError) Is(target error) bool {
	return target == ErrEmptyClassroom
}

func invalid(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

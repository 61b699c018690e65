package service

import (
	"fmt"

	"github.com/Kerhoff/studytrack/internal/schedule"
)

// ValidationError reports input the caller must fix.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// ConflictError is returned when a subject's schedule overlaps another
// subject's schedule.
type ConflictError struct {
	Conflict *schedule.Conflict
}

func (e *ConflictError) Error() string {
	return e.Conflict.Message()
}

package schedule

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
)

var (
	// ErrInvalidTimeFormat is returned for a time of day that is not a valid HH:MM.
	ErrInvalidTimeFormat = errors.New("invalid time format")
	// ErrRecordNotFound is returned when a check-in names an unknown reminder.
	ErrRecordNotFound = errors.New("reminder record not found")
	// ErrSubjectNotFound is returned when a reminder's subject no longer exists.
	ErrSubjectNotFound = errors.New("subject not found")
	// ErrAlreadyCompleted is returned when checking in a completed reminder.
	ErrAlreadyCompleted = errors.New("reminder already completed")
)

// InvalidScheduleError reports every rule a schedule violates.
type InvalidScheduleError struct {
	Errs *multierror.Error
}

func (e *InvalidScheduleError) Error() string {
	return fmt.Sprintf("invalid schedule: %v", e.Errs.ErrorOrNil())
}

func (e *InvalidScheduleError) Unwrap() error {
	return e.Errs.ErrorOrNil()
}

func newInvalidScheduleError(errs *multierror.Error) *InvalidScheduleError {
	errs.ErrorFormat = func(es []error) string {
		msgs := make([]string, len(es))
		for i, err := range es {
			msgs[i] = err.Error()
		}
		return strings.Join(msgs, "; ")
	}
	return &InvalidScheduleError{Errs: errs}
}

package schedule

import (
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/Kerhoff/studytrack/internal/models"
)

// Validate checks a schedule before it is compared or stored. A malformed start
// time is reported as ErrInvalidTimeFormat; every structural problem is
// collected into one *InvalidScheduleError.
func Validate(s *models.Schedule) error {
	if s == nil {
		return newInvalidScheduleError(multierror.Append(nil, fmt.Errorf("schedule is required")))
	}

	start, err := TimeToMinutes(s.StartTime)
	if err != nil {
		return err
	}

	var errs *multierror.Error
	if len(s.Days) == 0 {
		errs = multierror.Append(errs, fmt.Errorf("at least one day is required"))
	}
	for _, d := range s.Days {
		if !d.Valid() {
			errs = multierror.Append(errs, fmt.Errorf("unknown day %q", d))
		}
	}
	if s.DurationHours <= 0 {
		errs = multierror.Append(errs, fmt.Errorf("duration must be positive, got %g", s.DurationHours))
	} else if durationMinutes(s.DurationHours) < 1 {
		errs = multierror.Append(errs, fmt.Errorf("duration must be at least one minute, got %gh", s.DurationHours))
	} else if start+durationMinutes(s.DurationHours) > minutesPerDay {
		errs = multierror.Append(errs, fmt.Errorf("session starting %s for %gh crosses midnight", s.StartTime, s.DurationHours))
	}

	if errs != nil {
		return newInvalidScheduleError(errs)
	}
	return nil
}

// Conflict describes an existing subject whose schedule overlaps a candidate.
type Conflict struct {
	SubjectID   string `json:"subjectId"`
	SubjectName string `json:"subjectName"`
	GoalID      string `json:"goalId"`
	GoalTitle   string `json:"goalTitle,omitempty"`
}

// Message returns the user-facing explanation of the conflict.
func (c *Conflict) Message() string {
	goal := c.GoalTitle
	if goal == "" {
		goal = "this goal"
	}
	return fmt.Sprintf("you already have a fixed plan to study %s in %s", c.SubjectName, goal)
}

// FindConflict returns the first subject in existing whose schedule overlaps
// candidate on a shared day, or nil. The subject identified by editingID is
// skipped so that editing a subject never conflicts with its own prior
// schedule; pass "" when creating.
func FindConflict(candidate *models.Schedule, existing []models.Subject, editingID string) (*Conflict, error) {
	if err := Validate(candidate); err != nil {
		return nil, err
	}
	newStart, newEnd, err := window(candidate)
	if err != nil {
		return nil, err
	}

	for i := range existing {
		s := &existing[i]
		if editingID != "" && s.ID == editingID {
			continue
		}
		if !s.HasSchedule() || !DaysShareAny(candidate.Days, s.Schedule.Days) {
			continue
		}
		start, end, err := window(s.Schedule)
		if err != nil {
			return nil, fmt.Errorf("subject %s: %w", s.ID, err)
		}
		if IntervalsOverlap(newStart, newEnd, start, end) {
			return &Conflict{SubjectID: s.ID, SubjectName: s.Name, GoalID: s.GoalID}, nil
		}
	}
	return nil, nil
}

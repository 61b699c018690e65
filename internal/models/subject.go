package models

import (
	"math"
	"time"
)

// Weekday is the short English name of a day of the week as used in schedules.
type Weekday string

const (
	Monday    Weekday = "Mon"
	Tuesday   Weekday = "Tue"
	Wednesday Weekday = "Wed"
	Thursday  Weekday = "Thu"
	Friday    Weekday = "Fri"
	Saturday  Weekday = "Sat"
	Sunday    Weekday = "Sun"
)

// WeekdayOf returns the schedule weekday for t in t's location.
func WeekdayOf(t time.Time) Weekday {
	return [...]Weekday{Sunday, Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}[t.Weekday()]
}

// Valid reports whether d is one of the seven known weekdays.
func (d Weekday) Valid() bool {
	switch d {
	case Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday:
		return true
	}
	return false
}

// Schedule is a weekly recurring study window.
type Schedule struct {
	Days          []Weekday `json:"days"`
	StartTime     string    `json:"time"`     // HH:MM, 24-hour
	DurationHours float64   `json:"duration"` // hours
}

// Includes returns true if the schedule has a session on day.
func (s *Schedule) Includes(day Weekday) bool {
	for _, d := range s.Days {
		if d == day {
			return true
		}
	}
	return false
}

// Subject is a trackable area of study owned by a goal
type Subject struct {
	ID                  string    `json:"id" db:"id"`
	GoalID              string    `json:"goalId" db:"goal_id"`
	UserID              int64     `json:"userId" db:"user_id"`
	Name                string    `json:"name" db:"name"`
	Color               string    `json:"color" db:"color"`
	Schedule            *Schedule `json:"schedule,omitempty"`
	StudyHoursCompleted float64   `json:"totalStudyHours" db:"study_hours_completed"`
	TargetHours         *float64  `json:"totalTargetHours,omitempty" db:"target_hours"`
	CreatedAt           time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt           time.Time `json:"updatedAt" db:"updated_at"`
}

// HasSchedule returns true if the subject carries a recurring schedule
func (s *Subject) HasSchedule() bool {
	return s.Schedule != nil
}

// ProgressPercent returns completed hours as a rounded percentage of the target,
// or 0 when no target is set.
func (s *Subject) ProgressPercent() int {
	if s.TargetHours == nil || *s.TargetHours <= 0 {
		return 0
	}
	return int(math.Round(s.StudyHoursCompleted / *s.TargetHours * 100))
}

package models

import (
	"fmt"
	"time"
)

// ReminderStatus is the lifecycle state of a daily study reminder
type ReminderStatus string

const (
	ReminderStatusPending   ReminderStatus = "PENDING"
	ReminderStatusCompleted ReminderStatus = "COMPLETED"
	ReminderStatusMissed    ReminderStatus = "MISSED"
)

// DateLayout is the calendar date format used for scheduled dates.
const DateLayout = "2006-01-02"

// ReminderRecord is the per-subject, per-day record of a scheduled study session.
type ReminderRecord struct {
	ID             string         `json:"id" db:"id"`
	SubjectID      string         `json:"subjectId" db:"subject_id"`
	UserID         int64          `json:"userId" db:"user_id"`
	SubjectName    string         `json:"subjectName" db:"subject_name"`
	ScheduledDate  string         `json:"scheduledDate" db:"scheduled_date"` // YYYY-MM-DD
	ScheduledTime  string         `json:"scheduledTime" db:"scheduled_time"` // HH:MM
	ScheduledHours float64        `json:"scheduledHours" db:"scheduled_hours"`
	Status         ReminderStatus `json:"status" db:"status"`
	Read           bool           `json:"read" db:"read"`
	CreatedAt      time.Time      `json:"timestamp" db:"created_at"`
	UpdatedAt      time.Time      `json:"updatedAt" db:"updated_at"`
}

// ReminderID returns the deterministic record id for a subject on a date.
func ReminderID(subjectID, date string) string {
	return fmt.Sprintf("study-%s-%s", subjectID, date)
}

// IsPending returns true if the session has been neither done nor missed yet
func (r *ReminderRecord) IsPending() bool {
	return r.Status == ReminderStatusPending
}

// IsCompleted returns true if the session was checked in
func (r *ReminderRecord) IsCompleted() bool {
	return r.Status == ReminderStatusCompleted
}

// Title returns the headline shown to the user for this reminder.
func (r *ReminderRecord) Title() string {
	switch r.Status {
	case ReminderStatusMissed:
		return "Missed: " + r.SubjectName
	case ReminderStatusCompleted:
		return "Study Session: " + r.SubjectName
	default:
		return "Time to Study: " + r.SubjectName
	}
}

package models

import "time"

// ChapterStatus is the derived progress state of a chapter
type ChapterStatus string

const (
	ChapterStatusUpcoming  ChapterStatus = "upcoming"
	ChapterStatusDue       ChapterStatus = "due"
	ChapterStatusOverdue   ChapterStatus = "overdue"
	ChapterStatusCompleted ChapterStatus = "completed"
)

// DefaultChapterMinutes is assumed when a chapter has no estimate.
const DefaultChapterMinutes = 60

// Chapter is a unit of study inside a subject with a target date
type Chapter struct {
	ID               string        `json:"id" db:"id"`
	SubjectID        string        `json:"subjectId" db:"subject_id"`
	Name             string        `json:"name" db:"name"`
	TargetDate       string        `json:"targetDate" db:"target_date"` // YYYY-MM-DD
	TargetTime       string        `json:"targetTime" db:"target_time"` // HH:MM, may be empty
	EstimatedMinutes int           `json:"estimatedMinutes" db:"estimated_minutes"`
	Completed        bool          `json:"completed" db:"completed"`
	CreatedAt        time.Time     `json:"createdAt" db:"created_at"`
	UpdatedAt        time.Time     `json:"updatedAt" db:"updated_at"`
	Status           ChapterStatus `json:"status,omitempty"`
}

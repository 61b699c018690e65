package models

import "time"

// GoalType distinguishes monthly goals from exam goals
type GoalType string

const (
	GoalTypeMonthly GoalType = "MONTHLY"
	GoalTypeExam    GoalType = "EXAM"
)

// GoalDetails carries the type-specific payload of a goal.
// Month is set for MONTHLY goals; the exam fields for EXAM goals.
type GoalDetails struct {
	Month     string `json:"month,omitempty"`
	ExamName  string `json:"examName,omitempty"`
	StartDate string `json:"startDate,omitempty"` // YYYY-MM-DD
	ExamDate  string `json:"examDate,omitempty"`  // YYYY-MM-DD
}

// Goal is a top-level study objective that owns subjects
type Goal struct {
	ID        string      `json:"id" db:"id"`
	UserID    int64       `json:"userId" db:"user_id"`
	Type      GoalType    `json:"type" db:"type"`
	Title     string      `json:"title" db:"title"`
	Details   GoalDetails `json:"details"`
	CreatedAt time.Time   `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time   `json:"updatedAt" db:"updated_at"`
}

// DefaultTitle returns the title used when the user does not supply one.
func (g *Goal) DefaultTitle() string {
	if g.Type == GoalTypeMonthly {
		return g.Details.Month + " Study Goal"
	}
	return g.Details.ExamName
}

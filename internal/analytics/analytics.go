// Package analytics derives progress figures from goals, subjects and
// reminder history.
package analytics

import (
	"fmt"
	"math"
	"time"

	"github.com/Kerhoff/studytrack/internal/models"
)

// ConsistencyDays is the length of the consistency series.
const ConsistencyDays = 7

// Chapter completion milestones, highest first.
var milestones = []int{100, 70, 50}

// ChapterProgress counts the completed chapters of one subject.
type ChapterProgress struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Percent   int `json:"percent"`
}

// SubjectProgress is the hours progress of one subject.
type SubjectProgress struct {
	SubjectID      string          `json:"subjectId"`
	Name           string          `json:"name"`
	CompletedHours float64         `json:"completedHours"`
	TargetHours    *float64        `json:"targetHours,omitempty"`
	Percent        int             `json:"percent"`
	Chapters       ChapterProgress `json:"chapters"`
}

// GoalProgress aggregates the subjects of one goal.
type GoalProgress struct {
	GoalID         string            `json:"goalId"`
	Title          string            `json:"title"`
	Type           models.GoalType   `json:"type"`
	CompletedHours float64           `json:"completedHours"`
	TargetHours    float64           `json:"targetHours"`
	Percent        int               `json:"percent"`
	Subjects       []SubjectProgress `json:"subjects"`
}

// TodayStats compares the hours scheduled today with the hours checked in.
type TodayStats struct {
	Date           string  `json:"date"`
	TargetHours    float64 `json:"targetHours"`
	CompletedHours float64 `json:"completedHours"`
	Percent        int     `json:"percent"`
}

// Sessions counts reminder records by status.
type Sessions struct {
	Pending   int `json:"pending"`
	Completed int `json:"completed"`
	Missed    int `json:"missed"`
}

// DayHours is the number of checked-in hours scheduled on one date.
type DayHours struct {
	Date  string  `json:"date"`
	Hours float64 `json:"hours"`
}

// Overview is the full progress summary for one user.
type Overview struct {
	CompletedHours float64        `json:"completedHours"`
	TargetHours    float64        `json:"targetHours"`
	CompletionRate int            `json:"completionRate"`
	Today          TodayStats     `json:"today"`
	Sessions       Sessions       `json:"sessions"`
	Consistency    []DayHours     `json:"consistency"`
	ActiveDays     int            `json:"activeDays"`
	Goals          []GoalProgress `json:"goals"`
}

// Build computes the overview at now. Subjects whose goal is not among goals
// are ignored, as are their hours. Chapters are matched to subjects by
// SubjectID.
func Build(now time.Time, loc *time.Location, goals []models.Goal, subjects []models.Subject, chapters []models.Chapter, records []models.ReminderRecord) Overview {
	if loc == nil {
		loc = time.Local
	}
	local := now.In(loc)
	today := local.Format(models.DateLayout)
	weekday := models.WeekdayOf(local)

	ov := Overview{Today: TodayStats{Date: today}, Goals: make([]GoalProgress, 0, len(goals))}

	bySubject := make(map[string][]models.Chapter)
	for _, c := range chapters {
		bySubject[c.SubjectID] = append(bySubject[c.SubjectID], c)
	}
	byGoal := make(map[string]int, len(goals))
	for _, g := range goals {
		byGoal[g.ID] = len(ov.Goals)
		ov.Goals = append(ov.Goals, GoalProgress{GoalID: g.ID, Title: g.Title, Type: g.Type, Subjects: []SubjectProgress{}})
	}

	for i := range subjects {
		s := &subjects[i]
		gi, ok := byGoal[s.GoalID]
		if !ok {
			continue
		}
		gp := &ov.Goals[gi]
		gp.Subjects = append(gp.Subjects, SubjectProgress{
			SubjectID:      s.ID,
			Name:           s.Name,
			CompletedHours: s.StudyHoursCompleted,
			TargetHours:    s.TargetHours,
			Percent:        s.ProgressPercent(),
			Chapters:       Chapters(bySubject[s.ID]),
		})
		gp.CompletedHours += s.StudyHoursCompleted
		if s.TargetHours != nil {
			gp.TargetHours += *s.TargetHours
		}
		if s.HasSchedule() && s.Schedule.Includes(weekday) {
			ov.Today.TargetHours += s.Schedule.DurationHours
		}
	}

	for i := range ov.Goals {
		gp := &ov.Goals[i]
		gp.Percent = percent(gp.CompletedHours, gp.TargetHours)
		ov.CompletedHours += gp.CompletedHours
		ov.TargetHours += gp.TargetHours
	}
	ov.CompletionRate = percent(ov.CompletedHours, ov.TargetHours)

	for _, r := range records {
		switch r.Status {
		case models.ReminderStatusPending:
			ov.Sessions.Pending++
		case models.ReminderStatusCompleted:
			ov.Sessions.Completed++
			if r.ScheduledDate == today {
				ov.Today.CompletedHours += r.ScheduledHours
			}
		case models.ReminderStatusMissed:
			ov.Sessions.Missed++
		}
	}
	ov.Today.Percent = percent(ov.Today.CompletedHours, ov.Today.TargetHours)

	ov.Consistency = consistency(local, records)
	for _, d := range ov.Consistency {
		if d.Hours > 0 {
			ov.ActiveDays++
		}
	}

	return ov
}

// consistency returns the checked-in hours of the last ConsistencyDays days,
// oldest first and ending today.
func consistency(local time.Time, records []models.ReminderRecord) []DayHours {
	days := make([]DayHours, ConsistencyDays)
	index := make(map[string]int, ConsistencyDays)
	for i := range days {
		date := local.AddDate(0, 0, i-(ConsistencyDays-1)).Format(models.DateLayout)
		days[i].Date = date
		index[date] = i
	}
	for _, r := range records {
		if !r.IsCompleted() {
			continue
		}
		if i, ok := index[r.ScheduledDate]; ok {
			days[i].Hours += r.ScheduledHours
		}
	}
	return days
}

// Chapters counts completed chapters.
func Chapters(chapters []models.Chapter) ChapterProgress {
	p := ChapterProgress{Total: len(chapters)}
	for _, c := range chapters {
		if c.Completed {
			p.Completed++
		}
	}
	p.Percent = percent(float64(p.Completed), float64(p.Total))
	return p
}

// Milestone returns the highest completion milestone reached when chapter
// progress moves from before to after percent, or 0 if none was crossed.
func Milestone(before, after int) int {
	for _, m := range milestones {
		if before < m && after >= m {
			return m
		}
	}
	return 0
}

// MilestoneMessage congratulates the user on reaching milestone in subject.
func MilestoneMessage(milestone int, subject string) string {
	switch milestone {
	case 50:
		return "🎉 Congratulations! You have completed 50% of " + subject
	case 70:
		return "🔥 Amazing! 70% completed for " + subject
	case 100:
		return "🏆 Subject completed - 100%! Well done on " + subject
	}
	return fmt.Sprintf("%d%% completed for %s", milestone, subject)
}

// percent returns done/target as a rounded percentage, 0 without a target.
func percent(done, target float64) int {
	if target <= 0 {
		return 0
	}
	return int(math.Round(done / target * 100))
}

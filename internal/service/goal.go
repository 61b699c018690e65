package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Kerhoff/studytrack/internal/models"
	"github.com/Kerhoff/studytrack/internal/repository"
)

var months = map[string]bool{
	"January": true, "February": true, "March": true, "April": true, "May": true, "June": true,
	"July": true, "August": true, "September": true, "October": true, "November": true, "December": true,
}

// CreateGoal validates and stores a new goal for the user. The title defaults
// to "<Month> Study Goal" for monthly goals and to the exam name for exam goals.
func (s *Service) CreateGoal(ctx context.Context, userID int64, goal *models.Goal) (*models.Goal, error) {
	if err := validateGoal(goal); err != nil {
		return nil, err
	}

	goal.ID = uuid.NewString()
	goal.UserID = userID
	goal.Title = strings.TrimSpace(goal.Title)
	if goal.Title == "" {
		goal.Title = goal.DefaultTitle()
	}

	created, err := s.Goals.Create(ctx, goal)
	if err != nil {
		return nil, fmt.Errorf("create goal: %w", err)
	}
	s.logger.WithField("user_id", userID).Infof("Created %s goal %q", created.Type, created.Title)
	return created, nil
}

func validateGoal(goal *models.Goal) error {
	goal.Details.Month = strings.TrimSpace(goal.Details.Month)
	goal.Details.ExamName = strings.TrimSpace(goal.Details.ExamName)

	switch goal.Type {
	case models.GoalTypeMonthly:
		if !months[goal.Details.Month] {
			return invalid("details.month", "please select a month")
		}
		goal.Details.ExamName, goal.Details.StartDate, goal.Details.ExamDate = "", "", ""
	case models.GoalTypeExam:
		if goal.Details.ExamName == "" || goal.Details.ExamDate == "" {
			return invalid("details", "exam name and exam date are required")
		}
		examDate, err := time.Parse(models.DateLayout, goal.Details.ExamDate)
		if err != nil {
			return invalid("details.examDate", "must be YYYY-MM-DD")
		}
		if goal.Details.StartDate != "" {
			startDate, err := time.Parse(models.DateLayout, goal.Details.StartDate)
			if err != nil {
				return invalid("details.startDate", "must be YYYY-MM-DD")
			}
			if startDate.After(examDate) {
				return invalid("details.startDate", "must not be after the exam date")
			}
		}
		goal.Details.Month = ""
	default:
		return invalid("type", "must be %s or %s", models.GoalTypeMonthly, models.GoalTypeExam)
	}
	return nil
}

// ListGoals returns the user's goals, oldest first.
func (s *Service) ListGoals(ctx context.Context, userID int64) ([]*models.Goal, error) {
	goals, err := s.Goals.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	return goals, nil
}

// DeleteGoal removes the goal together with its subjects. Reminder history
// of those subjects is kept.
func (s *Service) DeleteGoal(ctx context.Context, userID int64, goalID string) error {
	if _, err := s.ownedGoal(ctx, userID, goalID); err != nil {
		return err
	}
	if err := s.Goals.Delete(ctx, goalID); err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	s.logger.WithField("user_id", userID).Infof("Deleted goal %s", goalID)
	return nil
}

func (s *Service) ownedGoal(ctx context.Context, userID int64, goalID string) (*models.Goal, error) {
	goal, err := s.Goals.GetByID(ctx, goalID)
	if err != nil {
		return nil, fmt.Errorf("get goal %s: %w", goalID, err)
	}
	if goal == nil || goal.UserID != userID {
		return nil, fmt.Errorf("goal %s: %w", goalID, repository.ErrNotFound)
	}
	return goal, nil
}

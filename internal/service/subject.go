package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/studytrack/internal/models"
	"github.com/Kerhoff/studytrack/internal/repository"
	"github.com/Kerhoff/studytrack/internal/schedule"
)

const defaultSubjectColor = "#3B82F6"

// SaveSubject creates a subject (empty ID) or updates an existing one. A
// schedule that overlaps another of the user's subjects on a shared day is
// rejected with a *ConflictError before anything is written. Accumulated
// study hours are never taken from the input: new subjects start at zero and
// edits keep the stored value.
func (s *Service) SaveSubject(ctx context.Context, userID int64, subject *models.Subject) (*models.Subject, error) {
	subject.Name = strings.TrimSpace(subject.Name)
	if subject.Name == "" {
		return nil, invalid("name", "please enter a subject name")
	}
	if subject.GoalID == "" {
		return nil, invalid("goalId", "please select a goal")
	}
	if subject.TargetHours != nil && *subject.TargetHours <= 0 {
		return nil, invalid("totalTargetHours", "must be positive")
	}
	if subject.Color == "" {
		subject.Color = defaultSubjectColor
	}
	if _, err := s.ownedGoal(ctx, userID, subject.GoalID); err != nil {
		return nil, err
	}

	editing := subject.ID != ""
	if editing {
		existing, err := s.ownedSubject(ctx, userID, subject.ID)
		if err != nil {
			return nil, err
		}
		subject.StudyHoursCompleted = existing.StudyHoursCompleted
		subject.CreatedAt = existing.CreatedAt
	} else {
		subject.ID = uuid.NewString()
		subject.StudyHoursCompleted = 0
	}
	subject.UserID = userID

	if subject.HasSchedule() {
		if err := s.checkConflict(ctx, userID, subject, editing); err != nil {
			return nil, err
		}
	}

	saved, err := s.Subjects.Save(ctx, subject)
	if err != nil {
		return nil, fmt.Errorf("save subject: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":    userID,
		"subject_id": saved.ID,
		"editing":    editing,
	}).Info("Saved subject")
	return saved, nil
}

func (s *Service) checkConflict(ctx context.Context, userID int64, subject *models.Subject, editing bool) error {
	others, err := s.Subjects.ListByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("list subjects: %w", err)
	}

	editingID := ""
	if editing {
		editingID = subject.ID
	}
	conflict, err := schedule.FindConflict(subject.Schedule, derefSubjects(others), editingID)
	if err != nil {
		return err
	}
	if conflict == nil {
		return nil
	}

	if goal, err := s.Goals.GetByID(ctx, conflict.GoalID); err == nil && goal != nil {
		conflict.GoalTitle = goal.Title
	}
	s.metrics.ScheduleConflicts.Inc()
	s.logger.WithFields(logrus.Fields{
		"user_id":     userID,
		"subject":     subject.Name,
		"conflicting": conflict.SubjectID,
	}).Info("Rejected subject schedule: overlaps existing plan")
	return &ConflictError{Conflict: conflict}
}

// ListSubjects returns the user's subjects, oldest first.
func (s *Service) ListSubjects(ctx context.Context, userID int64) ([]*models.Subject, error) {
	subjects, err := s.Subjects.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	return subjects, nil
}

// DeleteSubject removes a subject and its chapters. Its reminder history is kept.
func (s *Service) DeleteSubject(ctx context.Context, userID int64, subjectID string) error {
	if _, err := s.ownedSubject(ctx, userID, subjectID); err != nil {
		return err
	}
	if err := s.Subjects.Delete(ctx, subjectID); err != nil {
		return fmt.Errorf("delete subject: %w", err)
	}
	return nil
}

func (s *Service) ownedSubject(ctx context.Context, userID int64, subjectID string) (*models.Subject, error) {
	subject, err := s.Subjects.GetByID(ctx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("get subject %s: %w", subjectID, err)
	}
	if subject == nil || subject.UserID != userID {
		return nil, fmt.Errorf("subject %s: %w", subjectID, repository.ErrNotFound)
	}
	return subject, nil
}

func derefSubjects(in []*models.Subject) []models.Subject {
	out := make([]models.Subject, 0, len(in))
	for _, s := range in {
		if s != nil {
			out = append(out, *s)
		}
	}
	return out
}

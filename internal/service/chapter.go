package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/studytrack/internal/analytics"
	"github.com/Kerhoff/studytrack/internal/models"
	"github.com/Kerhoff/studytrack/internal/repository"
	"github.com/Kerhoff/studytrack/internal/schedule"
)

// SavedChapter is a stored chapter together with the chapter progress of its
// subject. Milestone is set when the save carried that progress past 50, 70
// or 100 percent.
type SavedChapter struct {
	*models.Chapter
	Progress  analytics.ChapterProgress `json:"progress"`
	Milestone string                    `json:"milestone,omitempty"`
}

// SaveChapter creates or updates a chapter of one of the user's subjects.
func (s *Service) SaveChapter(ctx context.Context, userID int64, chapter *models.Chapter) (*SavedChapter, error) {
	chapter.Name = strings.TrimSpace(chapter.Name)
	if chapter.Name == "" || chapter.TargetDate == "" {
		return nil, invalid("chapter", "name and target date are required")
	}
	if chapter.EstimatedMinutes < 0 {
		return nil, invalid("estimatedMinutes", "must not be negative")
	}
	if _, err := schedule.At(chapter.TargetDate, chapter.TargetTime, s.Location()); err != nil {
		return nil, invalid("targetDate", "%v", err)
	}
	subject, err := s.ownedSubject(ctx, userID, chapter.SubjectID)
	if err != nil {
		return nil, err
	}
	before, err := s.chapterProgress(ctx, subject.ID)
	if err != nil {
		return nil, err
	}

	if chapter.ID == "" {
		chapter.ID = uuid.NewString()
	} else {
		existing, err := s.Chapters.GetByID(ctx, chapter.ID)
		if err != nil {
			return nil, fmt.Errorf("get chapter %s: %w", chapter.ID, err)
		}
		if existing == nil || existing.SubjectID != chapter.SubjectID {
			return nil, fmt.Errorf("chapter %s: %w", chapter.ID, repository.ErrNotFound)
		}
		chapter.CreatedAt = existing.CreatedAt
	}

	saved, err := s.Chapters.Save(ctx, chapter)
	if err != nil {
		return nil, fmt.Errorf("save chapter: %w", err)
	}
	if err := s.deriveChapterStatus(saved); err != nil {
		return nil, err
	}

	after, err := s.chapterProgress(ctx, subject.ID)
	if err != nil {
		return nil, err
	}
	res := &SavedChapter{Chapter: saved, Progress: after}
	if m := analytics.Milestone(before.Percent, after.Percent); m > 0 {
		res.Milestone = analytics.MilestoneMessage(m, subject.Name)
		s.logger.WithFields(logrus.Fields{
			"user_id":    userID,
			"subject_id": subject.ID,
			"milestone":  m,
		}).Info("Chapter milestone reached")
	}
	return res, nil
}

func (s *Service) chapterProgress(ctx context.Context, subjectID string) (analytics.ChapterProgress, error) {
	chapters, err := s.Chapters.ListBySubject(ctx, subjectID)
	if err != nil {
		return analytics.ChapterProgress{}, fmt.Errorf("list chapters: %w", err)
	}
	return analytics.Chapters(derefChapters(chapters)), nil
}

// userChapters returns the chapters of all given subjects.
func (s *Service) userChapters(ctx context.Context, subjects []models.Subject) ([]models.Chapter, error) {
	var out []models.Chapter
	for _, sub := range subjects {
		chapters, err := s.Chapters.ListBySubject(ctx, sub.ID)
		if err != nil {
			return nil, fmt.Errorf("list chapters of subject %s: %w", sub.ID, err)
		}
		out = append(out, derefChapters(chapters)...)
	}
	return out, nil
}

func derefChapters(in []*models.Chapter) []models.Chapter {
	out := make([]models.Chapter, 0, len(in))
	for _, c := range in {
		if c != nil {
			out = append(out, *c)
		}
	}
	return out
}

// ListChapters returns the chapters of a subject with their derived status.
func (s *Service) ListChapters(ctx context.Context, userID int64, subjectID string) ([]*models.Chapter, error) {
	if _, err := s.ownedSubject(ctx, userID, subjectID); err != nil {
		return nil, err
	}
	chapters, err := s.Chapters.ListBySubject(ctx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("list chapters: %w", err)
	}
	for _, c := range chapters {
		if err := s.deriveChapterStatus(c); err != nil {
			return nil, err
		}
	}
	return chapters, nil
}

// DeleteChapter removes a chapter of one of the user's subjects.
func (s *Service) DeleteChapter(ctx context.Context, userID int64, chapterID string) error {
	chapter, err := s.Chapters.GetByID(ctx, chapterID)
	if err != nil {
		return fmt.Errorf("get chapter %s: %w", chapterID, err)
	}
	if chapter == nil {
		return fmt.Errorf("chapter %s: %w", chapterID, repository.ErrNotFound)
	}
	if _, err := s.ownedSubject(ctx, userID, chapter.SubjectID); err != nil {
		return err
	}
	if err := s.Chapters.Delete(ctx, chapterID); err != nil {
		return fmt.Errorf("delete chapter: %w", err)
	}
	return nil
}

func (s *Service) deriveChapterStatus(c *models.Chapter) error {
	status, err := schedule.ChapterStatus(s.now(), c, s.chapterGraceFactor, s.Location())
	if err != nil {
		return fmt.Errorf("chapter %s: %w", c.ID, err)
	}
	c.Status = status
	return nil
}

package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/studytrack/internal/metrics"
	"github.com/Kerhoff/studytrack/internal/models"
	"github.com/Kerhoff/studytrack/internal/repository"
	"github.com/Kerhoff/studytrack/internal/schedule"
)

// Service is the central business logic layer that holds all repositories
// and provides high-level methods for the application.
type Service struct {
	logger             *logrus.Logger
	metrics            *metrics.Metrics
	engine             *schedule.Engine
	chapterGraceFactor float64
	now                func() time.Time

	Users     repository.UserRepository
	Goals     repository.GoalRepository
	Subjects  repository.SubjectRepository
	Chapters  repository.ChapterRepository
	Reminders repository.ReminderRepository
}

// New creates a new Service with all required dependencies.
func New(logger *logrus.Logger, m *metrics.Metrics, engine *schedule.Engine, chapterGraceFactor float64,
	users repository.UserRepository,
	goals repository.GoalRepository,
	subjects repository.SubjectRepository,
	chapters repository.ChapterRepository,
	reminders repository.ReminderRepository,
) *Service {
	if chapterGraceFactor <= 0 {
		chapterGraceFactor = schedule.DefaultChapterGraceFactor
	}
	return &Service{
		logger: logger, metrics: m, engine: engine,
		chapterGraceFactor: chapterGraceFactor,
		now:                time.Now,
		Users:              users, Goals: goals, Subjects: subjects,
		Chapters: chapters, Reminders: reminders,
	}
}

// SetClock replaces the wall clock; used by tests.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Location returns the time zone "today" is evaluated in.
func (s *Service) Location() *time.Location {
	return s.engine.Location
}

// EnsureUser retrieves an existing user by Telegram ID, or creates a new one
// if not found. Profile fields and the reminder chat are refreshed when they
// have changed.
func (s *Service) EnsureUser(ctx context.Context, telegramID int64, username, firstName, lastName string, chatID int64) (*models.User, error) {
	username = strings.TrimSpace(username)
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)

	user, err := s.Users.GetByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("failed to lookup user (telegram_id=%d): %w", telegramID, err)
	}
	if user == nil {
		user = &models.User{
			TelegramID:       telegramID,
			TelegramUsername: username,
			FirstName:        firstName,
			LastName:         lastName,
			ChatID:           chatID,
		}
		user, err = s.Users.Create(ctx, user)
		if err != nil {
			return nil, fmt.Errorf("failed to create user (telegram_id=%d): %w", telegramID, err)
		}
		s.logger.Infof("Created new user: %s (telegram_id=%d)", user.DisplayName(), telegramID)
		return user, nil
	}

	needsUpdate := false
	if user.TelegramUsername != username {
		user.TelegramUsername = username
		needsUpdate = true
	}
	if user.FirstName != firstName {
		user.FirstName = firstName
		needsUpdate = true
	}
	if user.LastName != lastName {
		user.LastName = lastName
		needsUpdate = true
	}
	if chatID != 0 && user.ChatID != chatID {
		user.ChatID = chatID
		needsUpdate = true
	}

	if needsUpdate {
		updated, err := s.Users.Update(ctx, user)
		if err != nil {
			return nil, fmt.Errorf("failed to update user %d: %w", user.ID, err)
		}
		user = updated
		s.logger.Infof("Updated user profile: %s (telegram_id=%d)", user.DisplayName(), telegramID)
	}

	return user, nil
}

// GetUser returns the user or an error wrapping repository.ErrNotFound.
func (s *Service) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user %d: %w", userID, err)
	}
	if user == nil {
		return nil, fmt.Errorf("user %d: %w", userID, repository.ErrNotFound)
	}
	return user, nil
}

// RegisterUser creates a user without a Telegram identity, for clients of the
// HTTP API.
func (s *Service) RegisterUser(ctx context.Context, firstName, lastName string) (*models.User, error) {
	firstName = strings.TrimSpace(firstName)
	if firstName == "" {
		return nil, invalid("first_name", "is required")
	}
	user, err := s.Users.Create(ctx, &models.User{FirstName: firstName, LastName: strings.TrimSpace(lastName)})
	if err != nil {
		return nil, fmt.Errorf("failed to register user: %w", err)
	}
	s.logger.Infof("Registered user %d: %s", user.ID, user.FullName())
	return user, nil
}

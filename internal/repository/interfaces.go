package repository

import (
	"context"
	"errors"

	"github.com/Kerhoff/studytrack/internal/models"
)

// ErrNotFound is returned by deletes that match no row. Lookups return
// (nil, nil) instead.
var ErrNotFound = errors.New("not found")

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByTelegramID(ctx context.Context, telegramID int64) (*models.User, error)
	ListWithChat(ctx context.Context) ([]*models.User, error)
	Update(ctx context.Context, user *models.User) (*models.User, error)
}

// GoalRepository defines the interface for goal data operations.
// Deleting a goal deletes its subjects.
type GoalRepository interface {
	Create(ctx context.Context, goal *models.Goal) (*models.Goal, error)
	GetByID(ctx context.Context, id string) (*models.Goal, error)
	ListByUser(ctx context.Context, userID int64) ([]*models.Goal, error)
	Delete(ctx context.Context, id string) error
}

// SubjectRepository defines the interface for subject data operations
type SubjectRepository interface {
	Save(ctx context.Context, subject *models.Subject) (*models.Subject, error)
	GetByID(ctx context.Context, id string) (*models.Subject, error)
	ListByUser(ctx context.Context, userID int64) ([]*models.Subject, error)
	Delete(ctx context.Context, id string) error
}

// ChapterRepository defines the interface for chapter data operations
type ChapterRepository interface {
	Save(ctx context.Context, chapter *models.Chapter) (*models.Chapter, error)
	GetByID(ctx context.Context, id string) (*models.Chapter, error)
	ListBySubject(ctx context.Context, subjectID string) ([]*models.Chapter, error)
	Delete(ctx context.Context, id string) error
}

// ReminderRepository defines the interface for reminder record operations.
// Writes are batched: a reconciliation pass or a check-in is stored in one
// transaction, all or nothing.
type ReminderRepository interface {
	ListByUser(ctx context.Context, userID int64) ([]models.ReminderRecord, error)
	UpsertBatch(ctx context.Context, records []models.ReminderRecord) error

	// SaveCheckIn completes the stored record unless it is already COMPLETED
	// and adds its scheduled hours to the subject's current total. It returns
	// the credited subject, schedule.ErrAlreadyCompleted when the record was
	// completed first by someone else, or ErrNotFound when the record or the
	// subject is gone.
	SaveCheckIn(ctx context.Context, record models.ReminderRecord) (*models.Subject, error)
}

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Kerhoff/studytrack/internal/models"
	"github.com/Kerhoff/studytrack/internal/repository"
)

type goalRepository struct {
	db *sql.DB
}

func NewGoalRepository(db *sql.DB) repository.GoalRepository {
	return &goalRepository{db: db}
}

const goalColumns = `id, user_id, type, title, month, exam_name, start_date, exam_date, created_at, updated_at`

func (r *goalRepository) Create(ctx context.Context, goal *models.Goal) (*models.Goal, error) {
	query := `INSERT INTO goals (` + goalColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at`
	now := time.Now()
	goal.CreatedAt = now
	goal.UpdatedAt = now
	err := r.db.QueryRowContext(ctx, query,
		goal.ID, goal.UserID, goal.Type, goal.Title,
		goal.Details.Month, goal.Details.ExamName, goal.Details.StartDate, goal.Details.ExamDate,
		goal.CreatedAt, goal.UpdatedAt,
	).Scan(&goal.CreatedAt, &goal.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create goal: %w", err)
	}
	return goal, nil
}

func (r *goalRepository) GetByID(ctx context.Context, id string) (*models.Goal, error) {
	query := `SELECT ` + goalColumns + ` FROM goals WHERE id = $1`
	goal, err := scanGoal(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get goal: %w", err)
	}
	return goal, nil
}

func (r *goalRepository) ListByUser(ctx context.Context, userID int64) ([]*models.Goal, error) {
	query := `SELECT ` + goalColumns + ` FROM goals WHERE user_id = $1 ORDER BY created_at ASC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query goals: %w", err)
	}
	defer rows.Close()

	var goals []*models.Goal
	for rows.Next() {
		goal, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan goal: %w", err)
		}
		goals = append(goals, goal)
	}
	return goals, rows.Err()
}

// Delete removes the goal; subjects and their chapters go with it through
// ON DELETE CASCADE.
func (r *goalRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM goals WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete goal: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("goal %s: %w", id, repository.ErrNotFound)
	}
	return nil
}

func scanGoal(row scanner) (*models.Goal, error) {
	goal := &models.Goal{}
	err := row.Scan(
		&goal.ID, &goal.UserID, &goal.Type, &goal.Title,
		&goal.Details.Month, &goal.Details.ExamName, &goal.Details.StartDate, &goal.Details.ExamDate,
		&goal.CreatedAt, &goal.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return goal, nil
}

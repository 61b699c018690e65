package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/Kerhoff/studytrack/internal/models"
	"github.com/Kerhoff/studytrack/internal/repository"
)

type subjectRepository struct {
	db *sql.DB
}

// NewSubjectRepository creates a new subject repository
func NewSubjectRepository(db *sql.DB) repository.SubjectRepository {
	return &subjectRepository{db: db}
}

const subjectColumns = `id, goal_id, user_id, name, color, schedule_days, schedule_time, schedule_hours,
	study_hours_completed, target_hours, created_at, updated_at`

// Save inserts the subject or replaces an existing row with the same id.
// Study hours of an existing row are only changed by check-ins.
func (r *subjectRepository) Save(ctx context.Context, subject *models.Subject) (*models.Subject, error) {
	query := `
		INSERT INTO subjects (` + subjectColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			goal_id = EXCLUDED.goal_id,
			name = EXCLUDED.name,
			color = EXCLUDED.color,
			schedule_days = EXCLUDED.schedule_days,
			schedule_time = EXCLUDED.schedule_time,
			schedule_hours = EXCLUDED.schedule_hours,
			target_hours = EXCLUDED.target_hours,
			updated_at = EXCLUDED.updated_at
		RETURNING study_hours_completed, created_at, updated_at`

	now := time.Now()
	if subject.CreatedAt.IsZero() {
		subject.CreatedAt = now
	}
	subject.UpdatedAt = now

	days, startTime, hours := scheduleColumns(subject.Schedule)
	err := r.db.QueryRowContext(ctx, query,
		subject.ID,
		subject.GoalID,
		subject.UserID,
		subject.Name,
		subject.Color,
		days,
		startTime,
		hours,
		subject.StudyHoursCompleted,
		nullFloat64(subject.TargetHours),
		subject.CreatedAt,
		subject.UpdatedAt,
	).Scan(&subject.StudyHoursCompleted, &subject.CreatedAt, &subject.UpdatedAt)

	if err != nil {
		return nil, fmt.Errorf("failed to save subject: %w", err)
	}

	return subject, nil
}

func (r *subjectRepository) GetByID(ctx context.Context, id string) (*models.Subject, error) {
	query := `SELECT ` + subjectColumns + ` FROM subjects WHERE id = $1`

	subject, err := scanSubject(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get subject: %w", err)
	}

	return subject, nil
}

func (r *subjectRepository) ListByUser(ctx context.Context, userID int64) ([]*models.Subject, error) {
	query := `SELECT ` + subjectColumns + ` FROM subjects WHERE user_id = $1 ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query subjects by user ID: %w", err)
	}
	defer rows.Close()

	var subjects []*models.Subject
	for rows.Next() {
		subject, err := scanSubject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subject: %w", err)
		}
		subjects = append(subjects, subject)
	}

	return subjects, rows.Err()
}

func (r *subjectRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM subjects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete subject: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("subject %s: %w", id, repository.ErrNotFound)
	}

	return nil
}

// scheduleColumns flattens an optional schedule into nullable columns.
func scheduleColumns(s *models.Schedule) (any, sql.NullString, sql.NullFloat64) {
	if s == nil {
		return nil, sql.NullString{}, sql.NullFloat64{}
	}
	days := make([]string, len(s.Days))
	for i, d := range s.Days {
		days[i] = string(d)
	}
	return pq.Array(days), sql.NullString{String: s.StartTime, Valid: true}, sql.NullFloat64{Float64: s.DurationHours, Valid: true}
}

func scanSubject(row scanner) (*models.Subject, error) {
	subject := &models.Subject{}
	var (
		days      []string
		startTime sql.NullString
		hours     sql.NullFloat64
		target    sql.NullFloat64
	)
	err := row.Scan(
		&subject.ID,
		&subject.GoalID,
		&subject.UserID,
		&subject.Name,
		&subject.Color,
		pq.Array(&days),
		&startTime,
		&hours,
		&subject.StudyHoursCompleted,
		&target,
		&subject.CreatedAt,
		&subject.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	subject.TargetHours = floatPtr(target)
	if startTime.Valid {
		subject.Schedule = &models.Schedule{
			StartTime:     startTime.String,
			DurationHours: hours.Float64,
		}
		for _, d := range days {
			subject.Schedule.Days = append(subject.Schedule.Days, models.Weekday(d))
		}
	}
	return subject, nil
}

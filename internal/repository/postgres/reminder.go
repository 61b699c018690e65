package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Kerhoff/studytrack/internal/models"
	"github.com/Kerhoff/studytrack/internal/repository"
	"github.com/Kerhoff/studytrack/internal/schedule"
)

type reminderRepository struct {
	db *sql.DB
}

// NewReminderRepository creates a new reminder repository
func NewReminderRepository(db *sql.DB) repository.ReminderRepository {
	return &reminderRepository{db: db}
}

// upsertReminderQuery never moves a COMPLETED row back to another status and
// never clears a read flag, so a stale batch cannot undo a check-in.
const upsertReminderQuery = `
	INSERT INTO reminders (id, subject_id, user_id, subject_name, scheduled_date, scheduled_time,
		scheduled_hours, status, read, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	ON CONFLICT (id) DO UPDATE SET
		status = CASE WHEN reminders.status = 'COMPLETED' THEN reminders.status ELSE EXCLUDED.status END,
		read = reminders.read OR EXCLUDED.read,
		updated_at = EXCLUDED.updated_at`

func (r *reminderRepository) ListByUser(ctx context.Context, userID int64) ([]models.ReminderRecord, error) {
	query := `
		SELECT id, subject_id, user_id, subject_name, scheduled_date, scheduled_time, scheduled_hours,
			status, read, created_at, updated_at
		FROM reminders
		WHERE user_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query reminders by user ID: %w", err)
	}
	defer rows.Close()

	var records []models.ReminderRecord
	for rows.Next() {
		var rec models.ReminderRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.SubjectID,
			&rec.UserID,
			&rec.SubjectName,
			&rec.ScheduledDate,
			&rec.ScheduledTime,
			&rec.ScheduledHours,
			&rec.Status,
			&rec.Read,
			&rec.CreatedAt,
			&rec.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan reminder: %w", err)
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// UpsertBatch writes all records in one transaction.
func (r *reminderRepository) UpsertBatch(ctx context.Context, records []models.ReminderRecord) error {
	if len(records) == 0 {
		return nil
	}
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, upsertReminderQuery)
		if err != nil {
			return fmt.Errorf("failed to prepare reminder upsert: %w", err)
		}
		defer stmt.Close()

		for _, rec := range records {
			if err := execUpsert(ctx, stmt, rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// SaveCheckIn flips the record to COMPLETED and credits the subject in one
// transaction. Both updates are relative to the stored rows, so concurrent
// check-ins add up instead of overwriting each other.
func (r *reminderRepository) SaveCheckIn(ctx context.Context, record models.ReminderRecord) (*models.Subject, error) {
	var subject *models.Subject
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		var (
			subjectID string
			hours     float64
		)
		err := tx.QueryRowContext(ctx, `
			UPDATE reminders SET status = 'COMPLETED', read = true, updated_at = $2
			WHERE id = $1 AND status <> 'COMPLETED'
			RETURNING subject_id, scheduled_hours`,
			record.ID, record.UpdatedAt,
		).Scan(&subjectID, &hours)
		if errors.Is(err, sql.ErrNoRows) {
			return checkInMiss(ctx, tx, record.ID)
		}
		if err != nil {
			return fmt.Errorf("failed to complete reminder %s: %w", record.ID, err)
		}

		subject, err = scanSubject(tx.QueryRowContext(ctx, `
			UPDATE subjects SET study_hours_completed = study_hours_completed + $2, updated_at = $3
			WHERE id = $1
			RETURNING `+subjectColumns,
			subjectID, hours, record.UpdatedAt,
		))
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("subject %s: %w", subjectID, repository.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to credit subject hours: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return subject, nil
}

// checkInMiss explains why the completing update matched no row.
func checkInMiss(ctx context.Context, tx *sql.Tx, id string) error {
	var status models.ReminderStatus
	err := tx.QueryRowContext(ctx, `SELECT status FROM reminders WHERE id = $1`, id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("reminder %s: %w", id, repository.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to get reminder %s: %w", id, err)
	}
	return fmt.Errorf("reminder %s: %w", id, schedule.ErrAlreadyCompleted)
}

func execUpsert(ctx context.Context, stmt *sql.Stmt, rec models.ReminderRecord) error {
	_, err := stmt.ExecContext(ctx,
		rec.ID,
		rec.SubjectID,
		rec.UserID,
		rec.SubjectName,
		rec.ScheduledDate,
		rec.ScheduledTime,
		rec.ScheduledHours,
		rec.Status,
		rec.Read,
		rec.CreatedAt,
		rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert reminder %s: %w", rec.ID, err)
	}
	return nil
}

// withTx runs fn in a transaction, committing on success and rolling back
// otherwise.
func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

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

type chapterRepository struct {
	db *sql.DB
}

func NewChapterRepository(db *sql.DB) repository.ChapterRepository {
	return &chapterRepository{db: db}
}

const chapterColumns = `id, subject_id, name, target_date, target_time, estimated_minutes, completed, created_at, updated_at`

func (r *chapterRepository) Save(ctx context.Context, chapter *models.Chapter) (*models.Chapter, error) {
	query := `INSERT INTO chapters (` + chapterColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, target_date = EXCLUDED.target_date, target_time = EXCLUDED.target_time,
			estimated_minutes = EXCLUDED.estimated_minutes, completed = EXCLUDED.completed,
			updated_at = EXCLUDED.updated_at
		RETURNING created_at, updated_at`
	now := time.Now()
	if chapter.CreatedAt.IsZero() {
		chapter.CreatedAt = now
	}
	chapter.UpdatedAt = now
	err := r.db.QueryRowContext(ctx, query,
		chapter.ID, chapter.SubjectID, chapter.Name, chapter.TargetDate, chapter.TargetTime,
		chapter.EstimatedMinutes, chapter.Completed, chapter.CreatedAt, chapter.UpdatedAt,
	).Scan(&chapter.CreatedAt, &chapter.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to save chapter: %w", err)
	}
	return chapter, nil
}

func (r *chapterRepository) GetByID(ctx context.Context, id string) (*models.Chapter, error) {
	query := `SELECT ` + chapterColumns + ` FROM chapters WHERE id = $1`
	chapter, err := scanChapter(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get chapter: %w", err)
	}
	return chapter, nil
}

func (r *chapterRepository) ListBySubject(ctx context.Context, subjectID string) ([]*models.Chapter, error) {
	query := `SELECT ` + chapterColumns + ` FROM chapters WHERE subject_id = $1 ORDER BY target_date ASC, target_time ASC`
	rows, err := r.db.QueryContext(ctx, query, subjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query chapters: %w", err)
	}
	defer rows.Close()

	var chapters []*models.Chapter
	for rows.Next() {
		chapter, err := scanChapter(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan chapter: %w", err)
		}
		chapters = append(chapters, chapter)
	}
	return chapters, rows.Err()
}

func (r *chapterRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM chapters WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete chapter: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("chapter %s: %w", id, repository.ErrNotFound)
	}
	return nil
}

func scanChapter(row scanner) (*models.Chapter, error) {
	chapter := &models.Chapter{}
	err := row.Scan(
		&chapter.ID, &chapter.SubjectID, &chapter.Name, &chapter.TargetDate, &chapter.TargetTime,
		&chapter.EstimatedMinutes, &chapter.Completed, &chapter.CreatedAt, &chapter.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return chapter, nil
}

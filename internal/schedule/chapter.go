package schedule

import (
	"time"

	"github.com/Kerhoff/studytrack/internal/models"
)

// DefaultChapterGraceFactor gives a chapter twice its estimated time past the
// target before it counts as overdue.
const DefaultChapterGraceFactor = 2.0

// ChapterStatus derives the progress state of a chapter at now. The target
// instant is the chapter's date at its target time, or midnight when no time
// is set.
func ChapterStatus(now time.Time, c *models.Chapter, factor float64, loc *time.Location) (models.ChapterStatus, error) {
	if c.Completed {
		return models.ChapterStatusCompleted, nil
	}
	if loc == nil {
		loc = time.Local
	}
	target, err := At(c.TargetDate, c.TargetTime, loc)
	if err != nil {
		return "", err
	}
	minutes := c.EstimatedMinutes
	if minutes <= 0 {
		minutes = models.DefaultChapterMinutes
	}

	switch {
	case IsOverdue(now, target, time.Duration(minutes)*time.Minute, factor):
		return models.ChapterStatusOverdue, nil
	case now.After(target):
		return models.ChapterStatusDue, nil
	default:
		return models.ChapterStatusUpcoming, nil
	}
}

package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kerhoff/studytrack/internal/models"
)

func TestChapterStatus(t *testing.T) {
	c := &models.Chapter{TargetDate: "2026-10-12", TargetTime: "10:00", EstimatedMinutes: 30}

	cases := []struct {
		now  time.Time
		want models.ChapterStatus
	}{
		{monday(9, 0), models.ChapterStatusUpcoming},
		{monday(10, 0), models.ChapterStatusUpcoming},
		{monday(10, 30), models.ChapterStatusDue},
		{monday(11, 0), models.ChapterStatusDue},
		{monday(11, 1), models.ChapterStatusOverdue},
	}
	for _, tc := range cases {
		got, err := ChapterStatus(tc.now, c, DefaultChapterGraceFactor, time.UTC)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, tc.now.Format(time.Kitchen))
	}
}

func TestChapterStatus_Defaults(t *testing.T) {
	c := &models.Chapter{TargetDate: "2026-10-12"}

	// Midnight target with the 60 minute default estimate.
	got, err := ChapterStatus(monday(2, 1), c, DefaultChapterGraceFactor, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, models.ChapterStatusOverdue, got)

	c.Completed = true
	got, err = ChapterStatus(monday(2, 1), c, DefaultChapterGraceFactor, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, models.ChapterStatusCompleted, got)
}

func TestChapterStatus_BadDate(t *testing.T) {
	_, err := ChapterStatus(monday(0, 0), &models.Chapter{TargetDate: "12/10/2026"}, 2, time.UTC)
	assert.Error(t, err)
}

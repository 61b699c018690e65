package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kerhoff/studytrack/internal/models"
	"github.com/Kerhoff/studytrack/internal/repository"
	"github.com/Kerhoff/studytrack/internal/schedule"
)

func seed(t *testing.T) (*Store, *models.Subject) {
	t.Helper()
	ctx := context.Background()
	s := NewStore()
	_, err := s.Goals().Create(ctx, &models.Goal{ID: "g1", UserID: 1, Type: models.GoalTypeMonthly})
	require.NoError(t, err)
	sub, err := s.Subjects().Save(ctx, &models.Subject{ID: "s1", GoalID: "g1", UserID: 1, Name: "Physics"})
	require.NoError(t, err)
	_, err = s.Chapters().Save(ctx, &models.Chapter{ID: "c1", SubjectID: "s1", Name: "Optics", TargetDate: "2026-10-20"})
	require.NoError(t, err)
	return s, sub
}

func TestUpsertNeverDowngradesCompleted(t *testing.T) {
	s, _ := seed(t)
	ctx := context.Background()
	now := time.Date(2026, 10, 12, 9, 0, 0, 0, time.UTC)

	rec := models.ReminderRecord{ID: "r1", SubjectID: "s1", UserID: 1, ScheduledHours: 1, Status: models.ReminderStatusPending, CreatedAt: now}
	require.NoError(t, s.Reminders().UpsertBatch(ctx, []models.ReminderRecord{rec}))

	credited, err := s.Reminders().SaveCheckIn(ctx, rec)
	require.NoError(t, err)
	assert.Equal(t, 1.0, credited.StudyHoursCompleted)

	_, err = s.Reminders().SaveCheckIn(ctx, rec)
	assert.ErrorIs(t, err, schedule.ErrAlreadyCompleted)

	stale := rec
	stale.Status = models.ReminderStatusMissed
	require.NoError(t, s.Reminders().UpsertBatch(ctx, []models.ReminderRecord{stale}))

	got, err := s.Reminders().ListByUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, models.ReminderStatusCompleted, got[0].Status)
	assert.True(t, got[0].Read)

	sub, err := s.Subjects().GetByID(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 1.0, sub.StudyHoursCompleted)
}

func TestDeleteGoalCascadesButKeepsReminders(t *testing.T) {
	s, _ := seed(t)
	ctx := context.Background()
	require.NoError(t, s.Reminders().UpsertBatch(ctx, []models.ReminderRecord{{ID: "r1", SubjectID: "s1", UserID: 1}}))

	require.NoError(t, s.Goals().Delete(ctx, "g1"))

	sub, err := s.Subjects().GetByID(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, sub)
	ch, err := s.Chapters().GetByID(ctx, "c1")
	require.NoError(t, err)
	assert.Nil(t, ch)

	recs, err := s.Reminders().ListByUser(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, recs, 1)

	assert.ErrorIs(t, s.Goals().Delete(ctx, "g1"), repository.ErrNotFound)
	_, err = s.Reminders().SaveCheckIn(ctx, models.ReminderRecord{ID: "r1"})
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = s.Reminders().SaveCheckIn(ctx, models.ReminderRecord{ID: "r2"})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	recs, err = s.Reminders().ListByUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, models.ReminderStatus(""), recs[0].Status)
}

func TestCheckInCreditsStoredTotal(t *testing.T) {
	s, sub := seed(t)
	ctx := context.Background()
	require.NoError(t, s.Reminders().UpsertBatch(ctx, []models.ReminderRecord{
		{ID: "r1", SubjectID: "s1", UserID: 1, ScheduledHours: 2, Status: models.ReminderStatusMissed},
		{ID: "r2", SubjectID: "s1", UserID: 1, ScheduledHours: 1.5, Status: models.ReminderStatusPending},
	}))

	_, err := s.Reminders().SaveCheckIn(ctx, models.ReminderRecord{ID: "r1"})
	require.NoError(t, err)

	// A save built from a copy read before the check-in keeps the credit.
	sub.Name = "Physics II"
	saved, err := s.Subjects().Save(ctx, sub)
	require.NoError(t, err)
	assert.Equal(t, 2.0, saved.StudyHoursCompleted)

	credited, err := s.Reminders().SaveCheckIn(ctx, models.ReminderRecord{ID: "r2"})
	require.NoError(t, err)
	assert.Equal(t, 3.5, credited.StudyHoursCompleted)
	assert.Equal(t, "Physics II", credited.Name)
}

func TestSubjectsAreCopied(t *testing.T) {
	s, sub := seed(t)
	sub.Name = "changed"

	got, err := s.Subjects().GetByID(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "Physics", got.Name)
}

func TestUsers(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	u, err := s.Users().Create(ctx, &models.User{TelegramID: 7, FirstName: "Ana"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), u.ID)

	_, err = s.Users().Create(ctx, &models.User{TelegramID: 7})
	assert.Error(t, err)

	withChat, err := s.Users().ListWithChat(ctx)
	require.NoError(t, err)
	assert.Empty(t, withChat)

	u.ChatID = 42
	_, err = s.Users().Update(ctx, u)
	require.NoError(t, err)
	withChat, err = s.Users().ListWithChat(ctx)
	require.NoError(t, err)
	require.Len(t, withChat, 1)

	found, err := s.Users().GetByTelegramID(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(42), found.ChatID)
}

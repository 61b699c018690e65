package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kerhoff/studytrack/internal/models"
)

// 2026-10-12 is a Monday.
func monday(hour, min int) time.Time {
	return time.Date(2026, 10, 12, hour, min, 0, 0, time.UTC)
}

func newTestEngine() *Engine {
	return NewEngine(1, time.UTC)
}

func mathSubject() models.Subject {
	return models.Subject{
		ID:       "math",
		UserID:   7,
		Name:     "Math",
		Schedule: sched("09:00", 2, models.Monday, models.Wednesday),
	}
}

func TestReconcile_SynthesizesPendingForToday(t *testing.T) {
	e := newTestEngine()
	now := monday(8, 0)

	res, err := e.Reconcile(now, []models.Subject{mathSubject()}, nil)
	require.NoError(t, err)
	require.Len(t, res.Records, 1)

	rec := res.Records[0]
	assert.Equal(t, "study-math-2026-10-12", rec.ID)
	assert.Equal(t, models.ReminderStatusPending, rec.Status)
	assert.Equal(t, "09:00", rec.ScheduledTime)
	assert.Equal(t, 2.0, rec.ScheduledHours)
	assert.Equal(t, int64(7), rec.UserID)
	assert.False(t, rec.Read)
	assert.Equal(t, now, rec.CreatedAt)
	assert.Len(t, res.Changed, 1)
	assert.Len(t, res.Created, 1)
	assert.Empty(t, res.Missed)
}

func TestReconcile_SkipsSubjectsNotScheduledToday(t *testing.T) {
	e := newTestEngine()
	s := mathSubject()
	s.Schedule.Days = []models.Weekday{models.Tuesday}
	unscheduled := models.Subject{ID: "art", Name: "Art"}

	res, err := e.Reconcile(monday(8, 0), []models.Subject{s, unscheduled}, nil)
	require.NoError(t, err)
	assert.Empty(t, res.Records)
	assert.Empty(t, res.Changed)
}

func TestReconcile_SynthesizesMissedWhenWindowPassed(t *testing.T) {
	e := newTestEngine()

	res, err := e.Reconcile(monday(11, 1), []models.Subject{mathSubject()}, nil)
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, models.ReminderStatusMissed, res.Records[0].Status)
	assert.Len(t, res.Missed, 1)
}

func TestReconcile_ExactEndIsNotMissed(t *testing.T) {
	e := newTestEngine()

	res, err := e.Reconcile(monday(11, 0), []models.Subject{mathSubject()}, nil)
	require.NoError(t, err)
	assert.Equal(t, models.ReminderStatusPending, res.Records[0].Status)
}

func TestReconcile_PendingBecomesMissedOneMinuteAfterWindow(t *testing.T) {
	e := newTestEngine()
	first, err := e.Reconcile(monday(9, 30), []models.Subject{mathSubject()}, nil)
	require.NoError(t, err)
	require.Equal(t, models.ReminderStatusPending, first.Records[0].Status)

	now := monday(11, 1)
	res, err := e.Reconcile(now, []models.Subject{mathSubject()}, first.Records)
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, models.ReminderStatusMissed, res.Records[0].Status)
	assert.Equal(t, now, res.Records[0].UpdatedAt)
	assert.Len(t, res.Changed, 1)
	assert.Empty(t, res.Created)
	assert.Len(t, res.Missed, 1)

	assert.Equal(t, models.ReminderStatusPending, first.Records[0].Status, "input must not be modified")
}

func TestReconcile_GraceFactor(t *testing.T) {
	e := NewEngine(2, time.UTC)

	res, err := e.Reconcile(monday(11, 1), []models.Subject{mathSubject()}, nil)
	require.NoError(t, err)
	assert.Equal(t, models.ReminderStatusPending, res.Records[0].Status)

	res, err = e.Reconcile(monday(13, 1), []models.Subject{mathSubject()}, res.Records)
	require.NoError(t, err)
	assert.Equal(t, models.ReminderStatusMissed, res.Records[0].Status)
}

func TestReconcile_StalePendingFromEarlierDayBecomesMissed(t *testing.T) {
	e := newTestEngine()
	stale := models.ReminderRecord{
		ID:             "study-math-2026-10-07",
		SubjectID:      "math",
		ScheduledDate:  "2026-10-07",
		ScheduledTime:  "09:00",
		ScheduledHours: 2,
		Status:         models.ReminderStatusPending,
	}

	res, err := e.Reconcile(monday(8, 0), []models.Subject{mathSubject()}, []models.ReminderRecord{stale})
	require.NoError(t, err)
	require.Len(t, res.Records, 2)
	assert.Equal(t, models.ReminderStatusMissed, res.Records[0].Status)
	assert.Equal(t, models.ReminderStatusPending, res.Records[1].Status)
	assert.Len(t, res.Changed, 2)
}

func TestReconcile_LeavesCompletedAndMissedUntouched(t *testing.T) {
	e := newTestEngine()
	done := models.ReminderRecord{
		ID: "study-math-2026-10-12", SubjectID: "math", ScheduledDate: "2026-10-12",
		ScheduledTime: "09:00", ScheduledHours: 2, Status: models.ReminderStatusCompleted, Read: true,
	}
	missed := models.ReminderRecord{
		ID: "study-math-2026-10-07", SubjectID: "math", ScheduledDate: "2026-10-07",
		ScheduledTime: "09:00", ScheduledHours: 2, Status: models.ReminderStatusMissed,
	}

	res, err := e.Reconcile(monday(23, 0), []models.Subject{mathSubject()}, []models.ReminderRecord{done, missed})
	require.NoError(t, err)
	assert.Equal(t, []models.ReminderRecord{done, missed}, res.Records)
	assert.Empty(t, res.Changed)
}

func TestReconcile_Idempotent(t *testing.T) {
	e := newTestEngine()
	subjects := []models.Subject{
		mathSubject(),
		{ID: "bio", Name: "Biology", Schedule: sched("06:00", 1, models.Monday)},
	}
	now := monday(10, 0)

	first, err := e.Reconcile(now, subjects, nil)
	require.NoError(t, err)
	require.Len(t, first.Records, 2)

	second, err := e.Reconcile(now, subjects, first.Records)
	require.NoError(t, err)
	assert.Equal(t, first.Records, second.Records)
	assert.Empty(t, second.Changed)
}

func TestReconcile_UsesEngineLocationForToday(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*60*60)
	e := NewEngine(1, loc)

	// Sunday 20:00 UTC is Monday 01:00 at UTC+5.
	now := time.Date(2026, 10, 11, 20, 0, 0, 0, time.UTC)
	res, err := e.Reconcile(now, []models.Subject{mathSubject()}, nil)
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "2026-10-12", res.Records[0].ScheduledDate)
	assert.Equal(t, models.ReminderStatusPending, res.Records[0].Status)
}

func TestReconcile_MalformedStoredRecordFails(t *testing.T) {
	e := newTestEngine()
	bad := models.ReminderRecord{ID: "x", ScheduledDate: "2026-10-07", ScheduledTime: "nine", Status: models.ReminderStatusPending}

	_, err := e.Reconcile(monday(8, 0), nil, []models.ReminderRecord{bad})
	assert.ErrorIs(t, err, ErrInvalidTimeFormat)
}

func TestCheckIn_PendingRecord(t *testing.T) {
	e := newTestEngine()
	subject := mathSubject()
	subject.StudyHoursCompleted = 3
	res, err := e.Reconcile(monday(9, 30), []models.Subject{subject}, nil)
	require.NoError(t, err)

	now := monday(10, 0)
	rec, updated, err := e.CheckIn(now, res.Records, "study-math-2026-10-12", []models.Subject{subject})
	require.NoError(t, err)
	assert.Equal(t, models.ReminderStatusCompleted, rec.Status)
	assert.True(t, rec.Read)
	assert.Equal(t, 5.0, updated.StudyHoursCompleted)
	assert.Equal(t, now, updated.UpdatedAt)
	assert.Equal(t, 3.0, subject.StudyHoursCompleted, "input must not be modified")
}

func TestCheckIn_MissedRecordCompletesLate(t *testing.T) {
	e := newTestEngine()
	subject := mathSubject()
	res, err := e.Reconcile(monday(12, 0), []models.Subject{subject}, nil)
	require.NoError(t, err)
	require.Equal(t, models.ReminderStatusMissed, res.Records[0].Status)

	rec, updated, err := e.CheckIn(monday(20, 0), res.Records, res.Records[0].ID, []models.Subject{subject})
	require.NoError(t, err)
	assert.Equal(t, models.ReminderStatusCompleted, rec.Status)
	assert.Equal(t, 2.0, updated.StudyHoursCompleted)
}

func TestCheckIn_CompletedStaysCompletedUnderReconcile(t *testing.T) {
	e := newTestEngine()
	subject := mathSubject()
	res, err := e.Reconcile(monday(9, 0), []models.Subject{subject}, nil)
	require.NoError(t, err)

	rec, updated, err := e.CheckIn(monday(10, 0), res.Records, res.Records[0].ID, []models.Subject{subject})
	require.NoError(t, err)

	after, err := e.Reconcile(monday(23, 59), []models.Subject{updated}, []models.ReminderRecord{rec})
	require.NoError(t, err)
	require.Len(t, after.Records, 1)
	assert.Equal(t, models.ReminderStatusCompleted, after.Records[0].Status)
	assert.Empty(t, after.Changed)

	_, _, err = e.CheckIn(monday(23, 59), after.Records, rec.ID, []models.Subject{updated})
	assert.ErrorIs(t, err, ErrAlreadyCompleted)
}

func TestCheckIn_Errors(t *testing.T) {
	e := newTestEngine()
	res, err := e.Reconcile(monday(9, 0), []models.Subject{mathSubject()}, nil)
	require.NoError(t, err)

	_, _, err = e.CheckIn(monday(10, 0), res.Records, "study-nope-2026-10-12", []models.Subject{mathSubject()})
	assert.ErrorIs(t, err, ErrRecordNotFound)

	_, _, err = e.CheckIn(monday(10, 0), res.Records, res.Records[0].ID, nil)
	assert.ErrorIs(t, err, ErrSubjectNotFound)
}

func TestMarkRead(t *testing.T) {
	records := []models.ReminderRecord{
		{ID: "a", Status: models.ReminderStatusPending},
		{ID: "b", Status: models.ReminderStatusMissed},
	}

	out, rec, err := MarkRead(records, "b")
	require.NoError(t, err)
	assert.True(t, rec.Read)
	assert.Equal(t, models.ReminderStatusMissed, rec.Status)
	assert.False(t, out[0].Read)
	assert.True(t, out[1].Read)
	assert.False(t, records[1].Read)

	_, _, err = MarkRead(records, "zzz")
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestMarkAllRead(t *testing.T) {
	records := []models.ReminderRecord{
		{ID: "a", Status: models.ReminderStatusPending},
		{ID: "b", Status: models.ReminderStatusCompleted, Read: true},
	}

	all, changed := MarkAllRead(records)
	assert.True(t, all[0].Read)
	assert.True(t, all[1].Read)
	require.Len(t, changed, 1)
	assert.Equal(t, "a", changed[0].ID)
	assert.Equal(t, models.ReminderStatusPending, all[0].Status)
}

func TestActiveAndHistory(t *testing.T) {
	base := monday(0, 0)
	records := []models.ReminderRecord{
		{ID: "old-done", Status: models.ReminderStatusCompleted, CreatedAt: base.Add(-48 * time.Hour)},
		{ID: "today", Status: models.ReminderStatusPending, CreatedAt: base},
		{ID: "yesterday-missed", Status: models.ReminderStatusMissed, CreatedAt: base.Add(-24 * time.Hour)},
		{ID: "today-read", Status: models.ReminderStatusPending, Read: true, CreatedAt: base},
	}

	active := Active(records)
	require.Len(t, active, 2)
	assert.Equal(t, "today", active[0].ID)

	history := History(records)
	require.Len(t, history, 2)
	assert.Equal(t, "yesterday-missed", history[0].ID)
	assert.Equal(t, "old-done", history[1].ID)

	assert.Equal(t, 1, UnreadActiveCount(records))
}

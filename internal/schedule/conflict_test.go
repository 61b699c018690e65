package schedule

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kerhoff/studytrack/internal/models"
)

func sched(start string, hours float64, days ...models.Weekday) *models.Schedule {
	return &models.Schedule{Days: days, StartTime: start, DurationHours: hours}
}

func subjectWith(id string, s *models.Schedule) models.Subject {
	return models.Subject{ID: id, GoalID: "goal-" + id, Name: "Subject " + id, Schedule: s}
}

func TestTimeToMinutes(t *testing.T) {
	cases := map[string]int{
		"00:00": 0,
		"09:00": 540,
		"9:05":  545,
		"23:59": 1439,
	}
	for in, want := range cases {
		got, err := TimeToMinutes(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, bad := range []string{"", "9", "24:00", "12:60", "ab:cd", "12:5", "+1:00", "-1:00", "12:00:00"} {
		_, err := TimeToMinutes(bad)
		assert.ErrorIs(t, err, ErrInvalidTimeFormat, bad)
	}
}

func TestIntervalsOverlap(t *testing.T) {
	assert.True(t, IntervalsOverlap(540, 660, 630, 690))
	assert.True(t, IntervalsOverlap(630, 690, 540, 660))
	assert.True(t, IntervalsOverlap(540, 660, 560, 600), "containment")
	assert.False(t, IntervalsOverlap(540, 660, 660, 720), "back-to-back")
	assert.False(t, IntervalsOverlap(660, 720, 540, 660), "back-to-back reversed")
	assert.False(t, IntervalsOverlap(540, 600, 700, 760))
}

func TestDaysShareAny(t *testing.T) {
	assert.True(t, DaysShareAny([]models.Weekday{models.Monday, models.Friday}, []models.Weekday{models.Friday}))
	assert.False(t, DaysShareAny([]models.Weekday{models.Monday}, []models.Weekday{models.Tuesday}))
	assert.False(t, DaysShareAny(nil, []models.Weekday{models.Tuesday}))
}

func TestValidate(t *testing.T) {
	require.NoError(t, Validate(sched("09:00", 2, models.Monday)))

	err := Validate(sched("09:00", 0))
	var invalid *InvalidScheduleError
	require.True(t, errors.As(err, &invalid))
	assert.Len(t, invalid.Errs.Errors, 2, "empty days and zero duration are both reported")

	err = Validate(sched("09:00", -1, models.Monday))
	assert.True(t, errors.As(err, &invalid))

	err = Validate(sched("09:00", 0.004, models.Monday))
	assert.True(t, errors.As(err, &invalid), "rounds to a zero-minute session")
	assert.NoError(t, Validate(sched("09:00", 1.0/60, models.Monday)))

	err = Validate(sched("23:00", 2, models.Monday))
	assert.True(t, errors.As(err, &invalid), "crossing midnight")

	err = Validate(sched("09:00", 1, models.Weekday("Funday")))
	assert.True(t, errors.As(err, &invalid))

	err = Validate(sched("9am", 1, models.Monday))
	assert.ErrorIs(t, err, ErrInvalidTimeFormat)

	assert.True(t, errors.As(Validate(nil), &invalid))
}

func TestFindConflict_OverlapOnSharedDay(t *testing.T) {
	existing := []models.Subject{subjectWith("a", sched("09:00", 2, models.Monday))}

	c, err := FindConflict(sched("10:30", 1, models.Monday), existing, "")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "a", c.SubjectID)
	assert.Equal(t, "goal-a", c.GoalID)
}

func TestFindConflict_BackToBack(t *testing.T) {
	existing := []models.Subject{subjectWith("a", sched("09:00", 2, models.Monday))}

	c, err := FindConflict(sched("11:00", 1, models.Monday), existing, "")
	require.NoError(t, err)
	assert.Nil(t, c)

	c, err = FindConflict(sched("08:00", 1, models.Monday), existing, "")
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestFindConflict_DisjointDays(t *testing.T) {
	existing := []models.Subject{subjectWith("a", sched("09:00", 2, models.Monday))}

	c, err := FindConflict(sched("09:00", 2, models.Tuesday), existing, "")
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestFindConflict_DisjointDaysNeverConflict(t *testing.T) {
	all := []models.Weekday{models.Monday, models.Tuesday, models.Wednesday, models.Thursday, models.Friday, models.Saturday, models.Sunday}
	for i, d := range all {
		others := append([]models.Weekday{}, all[:i]...)
		others = append(others, all[i+1:]...)
		existing := []models.Subject{subjectWith("a", sched("00:00", 24, others...))}
		c, err := FindConflict(sched("00:00", 24, d), existing, "")
		require.NoError(t, err)
		assert.Nil(t, c, d)
	}
}

func TestFindConflict_MatchesIntervalRule(t *testing.T) {
	starts := []string{"08:00", "08:30", "09:00", "09:30", "10:00", "10:30", "11:00", "12:00"}
	durations := []float64{0.5, 1, 1.5, 2}
	base := sched("09:00", 2, models.Wednesday)
	existing := []models.Subject{subjectWith("a", base)}

	for _, st := range starts {
		for _, d := range durations {
			candidate := sched(st, d, models.Wednesday, models.Sunday)
			s, _ := TimeToMinutes(st)
			want := IntervalsOverlap(s, s+int(d*60), 540, 660)

			c, err := FindConflict(candidate, existing, "")
			require.NoError(t, err)
			assert.Equal(t, want, c != nil, "%s for %gh", st, d)
		}
	}
}

func TestFindConflict_SkipsEditedSubjectAndUnscheduled(t *testing.T) {
	existing := []models.Subject{
		subjectWith("a", sched("09:00", 2, models.Monday)),
		{ID: "b", Name: "No schedule"},
	}

	c, err := FindConflict(sched("09:30", 1, models.Monday), existing, "a")
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestFindConflict_FirstMatchWins(t *testing.T) {
	existing := []models.Subject{
		subjectWith("a", sched("07:00", 1, models.Monday)),
		subjectWith("b", sched("09:00", 1, models.Monday)),
		subjectWith("c", sched("09:30", 1, models.Monday)),
	}

	c, err := FindConflict(sched("09:00", 2, models.Monday), existing, "")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "b", c.SubjectID)
}

func TestFindConflict_InvalidCandidate(t *testing.T) {
	var invalid *InvalidScheduleError

	_, err := FindConflict(sched("09:00", 1), nil, "")
	assert.True(t, errors.As(err, &invalid))

	_, err = FindConflict(sched("09:00", 0, models.Monday), nil, "")
	assert.True(t, errors.As(err, &invalid))
}

func TestConflictMessage(t *testing.T) {
	c := &Conflict{SubjectName: "Physics", GoalTitle: "JEE"}
	assert.Equal(t, "you already have a fixed plan to study Physics in JEE", c.Message())

	c.GoalTitle = ""
	assert.Contains(t, c.Message(), "in this goal")
}

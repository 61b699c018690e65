package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Kerhoff/studytrack/internal/models"
)

const minutesPerDay = 24 * 60

// TimeToMinutes converts an HH:MM time of day to minutes since midnight.
func TimeToMinutes(s string) (int, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || len(hh) == 0 || len(hh) > 2 || len(mm) != 2 || !digits(hh) || !digits(mm) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
	}
	return h*60 + m, nil
}

func digits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// IntervalsOverlap reports whether the half-open intervals [startA, endA) and
// [startB, endB) intersect. Back-to-back intervals do not overlap.
func IntervalsOverlap(startA, endA, startB, endB int) bool {
	return startA < endB && startB < endA
}

// DaysShareAny reports whether the two weekday sets have a day in common.
func DaysShareAny(a, b []models.Weekday) bool {
	seen := make(map[models.Weekday]struct{}, len(a))
	for _, d := range a {
		seen[d] = struct{}{}
	}
	for _, d := range b {
		if _, ok := seen[d]; ok {
			return true
		}
	}
	return false
}

// durationMinutes converts fractional hours to whole minutes, rounding to nearest.
func durationMinutes(hours float64) int {
	return int(hours*60 + 0.5)
}

// window returns the [start, end) minute interval of a schedule's session.
func window(s *models.Schedule) (int, int, error) {
	start, err := TimeToMinutes(s.StartTime)
	if err != nil {
		return 0, 0, err
	}
	return start, start + durationMinutes(s.DurationHours), nil
}

// At returns the instant on the given calendar date (YYYY-MM-DD) at the HH:MM
// time of day, in loc.
func At(date, clock string, loc *time.Location) (time.Time, error) {
	day, err := time.ParseInLocation(models.DateLayout, date, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", date, err)
	}
	if clock == "" {
		return day, nil
	}
	mins, err := TimeToMinutes(clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(), mins/60, mins%60, 0, 0, loc), nil
}

// OverdueAt returns the instant after which a session starting at start and
// lasting duration counts as overdue, given a grace factor applied to the
// duration.
func OverdueAt(start time.Time, duration time.Duration, factor float64) time.Time {
	return start.Add(time.Duration(float64(duration) * factor))
}

// IsOverdue reports whether now is strictly past the overdue threshold.
func IsOverdue(now, start time.Time, duration time.Duration, factor float64) bool {
	return now.After(OverdueAt(start, duration, factor))
}

func hoursToDuration(hours float64) time.Duration {
	return time.Duration(hours * float64(time.Hour))
}

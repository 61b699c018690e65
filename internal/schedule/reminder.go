package schedule

import (
	"fmt"
	"sort"
	"time"

	"github.com/Kerhoff/studytrack/internal/models"
)

// DefaultGraceFactor marks a session missed as soon as its scheduled window
// has elapsed.
const DefaultGraceFactor = 1.0

// Engine derives and mutates daily reminder records from subject schedules.
// It holds no state of its own; every method returns fresh copies and never
// modifies its inputs.
type Engine struct {
	// GraceFactor multiplies the session duration to get the time after the
	// scheduled start at which a pending session becomes missed.
	GraceFactor float64
	// Location defines which calendar day "today" is.
	Location *time.Location
}

// NewEngine creates an Engine. A non-positive factor falls back to
// DefaultGraceFactor and a nil location to time.Local.
func NewEngine(graceFactor float64, loc *time.Location) *Engine {
	if graceFactor <= 0 {
		graceFactor = DefaultGraceFactor
	}
	if loc == nil {
		loc = time.Local
	}
	return &Engine{GraceFactor: graceFactor, Location: loc}
}

// ReconcileResult is the outcome of one reconciliation pass.
type ReconcileResult struct {
	// Records holds every record: the existing ones first, then any synthesized.
	Records []models.ReminderRecord
	// Changed holds the records that must be persisted, new or updated.
	Changed []models.ReminderRecord
	// Created holds the records synthesized during this pass.
	Created []models.ReminderRecord
	// Missed holds the records that turned MISSED during this pass, including
	// records synthesized directly as MISSED.
	Missed []models.ReminderRecord
}

// Reconcile brings the record set up to date with now. For every subject
// scheduled on today's weekday it synthesizes today's record if none exists,
// as PENDING or, when the session window has already passed, as MISSED. Every
// PENDING record whose window has passed becomes MISSED. COMPLETED and MISSED
// records are left untouched, which makes repeated calls at the same instant
// a no-op.
func (e *Engine) Reconcile(now time.Time, subjects []models.Subject, records []models.ReminderRecord) (ReconcileResult, error) {
	local := now.In(e.Location)
	today := local.Format(models.DateLayout)
	weekday := models.WeekdayOf(local)

	out := make([]models.ReminderRecord, len(records), len(records)+len(subjects))
	copy(out, records)
	index := make(map[string]int, len(out))
	for i := range out {
		index[out[i].ID] = i
	}

	changed := make(map[int]bool)
	created := make(map[int]bool)
	missed := make(map[int]bool)

	for i := range subjects {
		s := &subjects[i]
		if !s.HasSchedule() || !s.Schedule.Includes(weekday) {
			continue
		}
		id := models.ReminderID(s.ID, today)
		if _, ok := index[id]; ok {
			continue
		}
		start, err := At(today, s.Schedule.StartTime, e.Location)
		if err != nil {
			return ReconcileResult{}, fmt.Errorf("subject %s: %w", s.ID, err)
		}
		rec := models.ReminderRecord{
			ID:             id,
			SubjectID:      s.ID,
			UserID:         s.UserID,
			SubjectName:    s.Name,
			ScheduledDate:  today,
			ScheduledTime:  s.Schedule.StartTime,
			ScheduledHours: s.Schedule.DurationHours,
			Status:         models.ReminderStatusPending,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if e.missedBy(now, start, rec.ScheduledHours) {
			rec.Status = models.ReminderStatusMissed
		}
		out = append(out, rec)
		idx := len(out) - 1
		index[id] = idx
		changed[idx] = true
		created[idx] = true
		if rec.Status == models.ReminderStatusMissed {
			missed[idx] = true
		}
	}

	for i := range out {
		rec := &out[i]
		if !rec.IsPending() {
			continue
		}
		start, err := At(rec.ScheduledDate, rec.ScheduledTime, e.Location)
		if err != nil {
			return ReconcileResult{}, fmt.Errorf("reminder %s: %w", rec.ID, err)
		}
		if e.missedBy(now, start, rec.ScheduledHours) {
			rec.Status = models.ReminderStatusMissed
			rec.UpdatedAt = now
			changed[i] = true
			missed[i] = true
		}
	}

	res := ReconcileResult{Records: out}
	for i := range out {
		if changed[i] {
			res.Changed = append(res.Changed, out[i])
		}
		if created[i] {
			res.Created = append(res.Created, out[i])
		}
		if missed[i] {
			res.Missed = append(res.Missed, out[i])
		}
	}
	return res, nil
}

func (e *Engine) missedBy(now, start time.Time, hours float64) bool {
	return IsOverdue(now, start, hoursToDuration(hours), e.GraceFactor)
}

// CheckIn marks the record completed and read, and credits its scheduled
// hours to the owning subject. Both PENDING and MISSED records may be checked
// in. Nothing is returned modified on error.
func (e *Engine) CheckIn(now time.Time, records []models.ReminderRecord, recordID string, subjects []models.Subject) (models.ReminderRecord, models.Subject, error) {
	rec, ok := find(records, recordID)
	if !ok {
		return models.ReminderRecord{}, models.Subject{}, fmt.Errorf("%w: %s", ErrRecordNotFound, recordID)
	}
	if rec.IsCompleted() {
		return models.ReminderRecord{}, models.Subject{}, fmt.Errorf("%w: %s", ErrAlreadyCompleted, recordID)
	}

	var subject *models.Subject
	for i := range subjects {
		if subjects[i].ID == rec.SubjectID {
			subject = &subjects[i]
			break
		}
	}
	if subject == nil {
		return models.ReminderRecord{}, models.Subject{}, fmt.Errorf("%w: %s (reminder %s)", ErrSubjectNotFound, rec.SubjectID, recordID)
	}

	rec.Status = models.ReminderStatusCompleted
	rec.Read = true
	rec.UpdatedAt = now

	updated := *subject
	updated.StudyHoursCompleted += rec.ScheduledHours
	updated.UpdatedAt = now

	return rec, updated, nil
}

// MarkRead returns a copy of records with the named record marked read,
// along with that record.
func MarkRead(records []models.ReminderRecord, recordID string) ([]models.ReminderRecord, models.ReminderRecord, error) {
	out := make([]models.ReminderRecord, len(records))
	copy(out, records)
	for i := range out {
		if out[i].ID == recordID {
			out[i].Read = true
			return out, out[i], nil
		}
	}
	return nil, models.ReminderRecord{}, fmt.Errorf("%w: %s", ErrRecordNotFound, recordID)
}

// MarkAllRead returns a copy of records with every record marked read, and the
// subset whose flag actually changed.
func MarkAllRead(records []models.ReminderRecord) (all, changed []models.ReminderRecord) {
	all = make([]models.ReminderRecord, len(records))
	copy(all, records)
	for i := range all {
		if !all[i].Read {
			all[i].Read = true
			changed = append(changed, all[i])
		}
	}
	return all, changed
}

// Active returns the pending records.
func Active(records []models.ReminderRecord) []models.ReminderRecord {
	var out []models.ReminderRecord
	for _, r := range records {
		if r.IsPending() {
			out = append(out, r)
		}
	}
	return out
}

// History returns the completed and missed records, newest first.
func History(records []models.ReminderRecord) []models.ReminderRecord {
	var out []models.ReminderRecord
	for _, r := range records {
		if !r.IsPending() {
			out = append(out, r)
		}
	}
	SortNewestFirst(out)
	return out
}

// UnreadActiveCount counts pending records the user has not read yet.
func UnreadActiveCount(records []models.ReminderRecord) int {
	n := 0
	for _, r := range records {
		if r.IsPending() && !r.Read {
			n++
		}
	}
	return n
}

// SortNewestFirst orders records by creation time, newest first. Ties keep
// their relative order.
func SortNewestFirst(records []models.ReminderRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
}

func find(records []models.ReminderRecord, id string) (models.ReminderRecord, bool) {
	for _, r := range records {
		if r.ID == id {
			return r, true
		}
	}
	return models.ReminderRecord{}, false
}

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/studytrack/internal/analytics"
	"github.com/Kerhoff/studytrack/internal/models"
	"github.com/Kerhoff/studytrack/internal/schedule"
	"github.com/Kerhoff/studytrack/pkg/logger"
)

// Notifications is the reminder view of one user after reconciliation.
type Notifications struct {
	All         []models.ReminderRecord `json:"all"`
	Active      []models.ReminderRecord `json:"active"`
	History     []models.ReminderRecord `json:"history"`
	UnreadCount int                     `json:"unreadCount"`
}

func newNotifications(records []models.ReminderRecord) *Notifications {
	all := make([]models.ReminderRecord, len(records))
	copy(all, records)
	schedule.SortNewestFirst(all)
	n := &Notifications{
		All:         all,
		Active:      schedule.Active(all),
		History:     schedule.History(all),
		UnreadCount: schedule.UnreadActiveCount(all),
	}
	if n.Active == nil {
		n.Active = []models.ReminderRecord{}
	}
	if n.History == nil {
		n.History = []models.ReminderRecord{}
	}
	return n
}

// CheckInResult is the outcome of a successful check-in.
type CheckInResult struct {
	Record  models.ReminderRecord `json:"record"`
	Subject models.Subject        `json:"subject"`
}

// SyncNotifications reconciles the user's reminders against now, stores every
// new or changed record in one batch and returns the resulting view. If the
// batch fails to persist the error is returned and nothing is reported as
// committed; calling again retries the whole pass.
func (s *Service) SyncNotifications(ctx context.Context, userID int64) (*Notifications, error) {
	res, _, err := s.reconcileUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return newNotifications(res.Records), nil
}

// reconcileUser runs one reconciliation pass for the user and persists it.
func (s *Service) reconcileUser(ctx context.Context, userID int64) (schedule.ReconcileResult, []models.Subject, error) {
	start := time.Now()
	defer func() { s.metrics.ReconcileDuration.Observe(time.Since(start).Seconds()) }()

	subjects, records, err := s.loadReminderState(ctx, userID)
	if err != nil {
		s.metrics.ReconcileErrors.Inc()
		return schedule.ReconcileResult{}, nil, err
	}

	res, err := s.engine.Reconcile(s.now(), subjects, records)
	if err != nil {
		s.metrics.ReconcileErrors.Inc()
		return schedule.ReconcileResult{}, nil, fmt.Errorf("reconcile reminders for user %d: %w", userID, err)
	}

	if len(res.Changed) > 0 {
		if err := s.Reminders.UpsertBatch(ctx, res.Changed); err != nil {
			s.metrics.ReconcileErrors.Inc()
			return schedule.ReconcileResult{}, nil, fmt.Errorf("persist reminders for user %d: %w", userID, err)
		}
		for _, r := range res.Created {
			s.metrics.RemindersCreated.WithLabelValues(string(r.Status)).Inc()
		}
		s.metrics.RemindersMissed.Add(float64(len(res.Missed)))

		logger.ForUser(s.logger, userID).WithFields(logrus.Fields{
			"created": len(res.Created),
			"missed":  len(res.Missed),
		}).Debug("Reconciled reminders")
	}

	return res, subjects, nil
}

func (s *Service) loadReminderState(ctx context.Context, userID int64) ([]models.Subject, []models.ReminderRecord, error) {
	subjects, err := s.Subjects.ListByUser(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("list subjects for user %d: %w", userID, err)
	}
	records, err := s.Reminders.ListByUser(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("list reminders for user %d: %w", userID, err)
	}
	return derefSubjects(subjects), records, nil
}

// CheckIn completes a pending or missed session and credits its hours to the
// subject. The record and the subject are stored together; the credit is
// added to the stored total, so concurrent check-ins never lose hours.
func (s *Service) CheckIn(ctx context.Context, userID int64, recordID string) (*CheckInResult, error) {
	res, subjects, err := s.reconcileUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	record, _, err := s.engine.CheckIn(s.now(), res.Records, recordID, subjects)
	if err != nil {
		return nil, err
	}

	subject, err := s.Reminders.SaveCheckIn(ctx, record)
	if err != nil {
		return nil, fmt.Errorf("save check-in %s: %w", recordID, err)
	}

	s.metrics.CheckIns.Inc()
	s.metrics.HoursCredited.Add(record.ScheduledHours)
	logger.ForUser(s.logger, userID).WithFields(logrus.Fields{
		"reminder_id": record.ID,
		"subject_id":  subject.ID,
		"hours":       record.ScheduledHours,
	}).Info("Study session checked in")

	return &CheckInResult{Record: record, Subject: *subject}, nil
}

// MarkRead marks one reminder as read without changing its status.
func (s *Service) MarkRead(ctx context.Context, userID int64, recordID string) (*models.ReminderRecord, error) {
	records, err := s.Reminders.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list reminders for user %d: %w", userID, err)
	}
	_, record, err := schedule.MarkRead(records, recordID)
	if err != nil {
		return nil, err
	}
	record.UpdatedAt = s.now()
	if err := s.Reminders.UpsertBatch(ctx, []models.ReminderRecord{record}); err != nil {
		return nil, fmt.Errorf("mark reminder %s read: %w", recordID, err)
	}
	return &record, nil
}

// MarkAllRead marks every reminder of the user as read and returns how many
// changed.
func (s *Service) MarkAllRead(ctx context.Context, userID int64) (int, error) {
	records, err := s.Reminders.ListByUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("list reminders for user %d: %w", userID, err)
	}
	_, changed := schedule.MarkAllRead(records)
	now := s.now()
	for i := range changed {
		changed[i].UpdatedAt = now
	}
	if err := s.Reminders.UpsertBatch(ctx, changed); err != nil {
		return 0, fmt.Errorf("mark reminders read: %w", err)
	}
	return len(changed), nil
}

// Progress returns the analytics overview of the user's goals, sessions and
// chapters.
func (s *Service) Progress(ctx context.Context, userID int64) (*analytics.Overview, error) {
	goals, err := s.Goals.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	subjects, records, err := s.loadReminderState(ctx, userID)
	if err != nil {
		return nil, err
	}

	chapters, err := s.userChapters(ctx, subjects)
	if err != nil {
		return nil, err
	}

	gs := make([]models.Goal, 0, len(goals))
	for _, g := range goals {
		gs = append(gs, *g)
	}
	ov := analytics.Build(s.now(), s.Location(), gs, subjects, chapters, records)
	return &ov, nil
}

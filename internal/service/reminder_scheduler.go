package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Kerhoff/studytrack/internal/models"
)

// ReminderCallback is a function that sends a reminder message to a chat.
type ReminderCallback func(chatID int64, text string)

// StartReminderScheduler runs a background loop that reconciles the reminders
// of every user with a linked chat once immediately and then on every tick of
// interval. New pending sessions and sessions that were just missed are
// announced through the callback. It blocks until the context is cancelled,
// so it should be launched in a separate goroutine.
func (s *Service) StartReminderScheduler(ctx context.Context, interval time.Duration, callback ReminderCallback) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Infof("Reminder scheduler started (interval %s)", interval)
	s.processReminders(ctx, callback)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Reminder scheduler stopped")
			return
		case <-ticker.C:
			s.processReminders(ctx, callback)
		}
	}
}

// processReminders runs one reconciliation pass per user. A failing user is
// logged and skipped; its batch is retried whole on the next tick. Once ctx is
// cancelled the pass finishes the current user and stops, so no batch is cut
// off halfway.
func (s *Service) processReminders(ctx context.Context, callback ReminderCallback) {
	work := context.WithoutCancel(ctx)

	users, err := s.Users.ListWithChat(work)
	if err != nil {
		s.logger.Errorf("Failed to list users for reminders: %v", err)
		return
	}

	for _, u := range users {
		if ctx.Err() != nil {
			s.logger.Info("Reminder pass interrupted by shutdown")
			return
		}
		res, _, err := s.reconcileUser(work, u.ID)
		if err != nil {
			s.logger.Errorf("Failed to reconcile reminders for user %d: %v", u.ID, err)
			continue
		}

		for _, r := range res.Created {
			if r.IsPending() {
				callback(u.ChatID, formatDueReminder(r))
			}
		}
		for _, r := range res.Missed {
			callback(u.ChatID, formatMissedReminder(r))
		}
	}
}

// markdown escapes the characters Telegram's legacy Markdown treats as markup.
var markdown = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

func formatDueReminder(r models.ReminderRecord) string {
	return fmt.Sprintf("⏰ *Time to Study: %s*\n%s • %gh session\nCheck in with /done when finished.",
		markdown.Replace(r.SubjectName), r.ScheduledTime, r.ScheduledHours)
}

func formatMissedReminder(r models.ReminderRecord) string {
	return fmt.Sprintf("❌ *Missed: %s*\n%s %s • %gh session\nYou can still complete it with /done.",
		markdown.Replace(r.SubjectName), r.ScheduledDate, r.ScheduledTime, r.ScheduledHours)
}

package handlers

import (
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Kerhoff/studytrack/internal/analytics"
	"github.com/Kerhoff/studytrack/internal/models"
)

const historyLimit = 10

func esc(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}

func formatSubjects(subjects []*models.Subject) string {
	if len(subjects) == 0 {
		return "📭 No subjects yet. Add them in the web app."
	}

	var b strings.Builder
	b.WriteString("📘 *Your subjects:*\n\n")
	for _, s := range subjects {
		fmt.Fprintf(&b, "• *%s* - %gh done", esc(s.Name), s.StudyHoursCompleted)
		if s.TargetHours != nil {
			fmt.Fprintf(&b, " of %gh (%d%%)", *s.TargetHours, s.ProgressPercent())
		}
		b.WriteString("\n")
		if s.HasSchedule() {
			days := make([]string, len(s.Schedule.Days))
			for i, d := range s.Schedule.Days {
				days[i] = string(d)
			}
			fmt.Fprintf(&b, "   🗓 %s at %s for %gh\n", strings.Join(days, ", "), s.Schedule.StartTime, s.Schedule.DurationHours)
		}
	}
	return b.String()
}

func formatToday(active []models.ReminderRecord) string {
	if len(active) == 0 {
		return "✅ Nothing pending. Enjoy your free time!"
	}

	var b strings.Builder
	b.WriteString("⏰ *Pending sessions:*\n\n")
	for i, r := range active {
		unread := ""
		if !r.Read {
			unread = " 🆕"
		}
		fmt.Fprintf(&b, "%d. *%s* - %s %s, %gh%s\n", i+1, esc(r.SubjectName), r.ScheduledDate, r.ScheduledTime, r.ScheduledHours, unread)
	}
	b.WriteString("\nCheck in with /done <n>.")
	return b.String()
}

func formatHistory(history []models.ReminderRecord) string {
	if len(history) == 0 {
		return "📭 No past sessions yet."
	}

	var b strings.Builder
	b.WriteString("📜 *Recent sessions:*\n\n")
	for i, r := range history {
		if i == historyLimit {
			fmt.Fprintf(&b, "_…and %d more_\n", len(history)-historyLimit)
			break
		}
		icon := "❌"
		if r.IsCompleted() {
			icon = "✅"
		}
		fmt.Fprintf(&b, "%s %s %s *%s* (%gh)\n", icon, r.ScheduledDate, r.ScheduledTime, esc(r.SubjectName), r.ScheduledHours)
	}
	return b.String()
}

func formatProgress(ov *analytics.Overview) string {
	var b strings.Builder
	b.WriteString("📊 *Progress*\n\n")
	fmt.Fprintf(&b, "Today: %gh of %gh (%d%%)\n", ov.Today.CompletedHours, ov.Today.TargetHours, ov.Today.Percent)
	fmt.Fprintf(&b, "Total: %gh", ov.CompletedHours)
	if ov.TargetHours > 0 {
		fmt.Fprintf(&b, " of %gh (%d%%)", ov.TargetHours, ov.CompletionRate)
	}
	fmt.Fprintf(&b, "\nSessions: %d done, %d missed, %d pending\n", ov.Sessions.Completed, ov.Sessions.Missed, ov.Sessions.Pending)
	fmt.Fprintf(&b, "Active %d of the last %d days\n", ov.ActiveDays, len(ov.Consistency))

	for _, g := range ov.Goals {
		fmt.Fprintf(&b, "\n🎯 *%s* - %gh", esc(g.Title), g.CompletedHours)
		if g.TargetHours > 0 {
			fmt.Fprintf(&b, " of %gh (%d%%)", g.TargetHours, g.Percent)
		}
		for _, s := range g.Subjects {
			if s.Chapters.Total == 0 {
				continue
			}
			fmt.Fprintf(&b, "\n   📗 %s: %d/%d chapters (%d%%)", esc(s.Name), s.Chapters.Completed, s.Chapters.Total, s.Chapters.Percent)
		}
	}
	return b.String()
}

// resolveRecordID turns a /done argument into a record id. Numbers index the
// pending list as shown by /today, starting at 1; anything else is taken as
// a record id.
func resolveRecordID(arg string, active []models.ReminderRecord) (string, error) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return arg, nil
	}
	if n < 1 || n > len(active) {
		return "", fmt.Errorf("there is no pending session #%d", n)
	}
	return active[n-1].ID, nil
}

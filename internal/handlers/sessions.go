package handlers

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/studytrack/internal/repository"
	"github.com/Kerhoff/studytrack/internal/schedule"
	"github.com/Kerhoff/studytrack/internal/service"
)

// doneCallback is the inline keyboard action that checks in a session.
const doneCallback = "done"

// TodayHandler handles the /today command
type TodayHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

func NewTodayHandler(svc *service.Service, logger *logrus.Logger) *TodayHandler {
	return &TodayHandler{svc: svc, logger: logger}
}

func (h *TodayHandler) Handle(bot *tgbotapi.BotAPI, message *tgbotapi.Message, args []string) error {
	ctx := context.Background()
	user, err := ensureSender(ctx, h.svc, message)
	if err != nil {
		return err
	}

	n, err := h.svc.SyncNotifications(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("sync notifications: %w", err)
	}

	msg := tgbotapi.NewMessage(message.Chat.ID, formatToday(n.Active))
	msg.ParseMode = tgbotapi.ModeMarkdown
	if len(n.Active) > 0 {
		var rows [][]tgbotapi.InlineKeyboardButton
		for i, r := range n.Active {
			label := fmt.Sprintf("✅ %d. %s", i+1, r.SubjectName)
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(label, doneCallback+":"+r.ID),
			))
		}
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	}

	if _, err := bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send today message: %w", err)
	}
	return nil
}

// HistoryHandler handles the /history command
type HistoryHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

func NewHistoryHandler(svc *service.Service, logger *logrus.Logger) *HistoryHandler {
	return &HistoryHandler{svc: svc, logger: logger}
}

func (h *HistoryHandler) Handle(bot *tgbotapi.BotAPI, message *tgbotapi.Message, args []string) error {
	ctx := context.Background()
	user, err := ensureSender(ctx, h.svc, message)
	if err != nil {
		return err
	}

	n, err := h.svc.SyncNotifications(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("sync notifications: %w", err)
	}
	return reply(bot, message, formatHistory(n.History))
}

// DoneHandler handles the /done command and the inline "done" button
type DoneHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

func NewDoneHandler(svc *service.Service, logger *logrus.Logger) *DoneHandler {
	return &DoneHandler{svc: svc, logger: logger}
}

func (h *DoneHandler) Handle(bot *tgbotapi.BotAPI, message *tgbotapi.Message, args []string) error {
	if len(args) != 1 {
		return reply(bot, message, "Usage: /done <n|id>\nUse /today to see the numbers.")
	}

	ctx := context.Background()
	user, err := ensureSender(ctx, h.svc, message)
	if err != nil {
		return err
	}

	n, err := h.svc.SyncNotifications(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("sync notifications: %w", err)
	}
	recordID, err := resolveRecordID(args[0], n.Active)
	if err != nil {
		return reply(bot, message, "❌ "+err.Error())
	}

	text, err := h.checkIn(ctx, user.ID, recordID)
	if err != nil {
		return err
	}
	return reply(bot, message, text)
}

func (h *DoneHandler) HandleCallback(bot *tgbotapi.BotAPI, query *tgbotapi.CallbackQuery, payload string) error {
	ctx := context.Background()
	user, err := h.svc.EnsureUser(ctx, query.From.ID, query.From.UserName, query.From.FirstName, query.From.LastName, 0)
	if err != nil {
		return fmt.Errorf("ensure user: %w", err)
	}

	text, err := h.checkIn(ctx, user.ID, payload)
	if err != nil {
		return err
	}
	if _, err := bot.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		h.logger.WithError(err).Warn("Failed to answer callback query")
	}
	if query.Message != nil {
		msg := tgbotapi.NewMessage(query.Message.Chat.ID, text)
		msg.ParseMode = tgbotapi.ModeMarkdown
		if _, err := bot.Send(msg); err != nil {
			return fmt.Errorf("failed to send check-in message: %w", err)
		}
	}
	return nil
}

// checkIn returns the reply text. Errors the user can act on become replies;
// only unexpected failures are returned.
func (h *DoneHandler) checkIn(ctx context.Context, userID int64, recordID string) (string, error) {
	res, err := h.svc.CheckIn(ctx, userID, recordID)
	switch {
	case err == nil:
		return fmt.Sprintf("✅ Checked in *%s* (+%gh, %gh total)",
			esc(res.Subject.Name), res.Record.ScheduledHours, res.Subject.StudyHoursCompleted), nil
	case errors.Is(err, schedule.ErrAlreadyCompleted):
		return "👍 That session is already checked in.", nil
	case errors.Is(err, schedule.ErrRecordNotFound):
		return "❌ Session not found. Use /today to see pending sessions.", nil
	case errors.Is(err, schedule.ErrSubjectNotFound), errors.Is(err, repository.ErrNotFound):
		return "❌ The subject of this session was deleted.", nil
	default:
		return "", fmt.Errorf("check in %s: %w", recordID, err)
	}
}

// ReadAllHandler handles the /readall command
type ReadAllHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

func NewReadAllHandler(svc *service.Service, logger *logrus.Logger) *ReadAllHandler {
	return &ReadAllHandler{svc: svc, logger: logger}
}

func (h *ReadAllHandler) Handle(bot *tgbotapi.BotAPI, message *tgbotapi.Message, args []string) error {
	ctx := context.Background()
	user, err := ensureSender(ctx, h.svc, message)
	if err != nil {
		return err
	}

	changed, err := h.svc.MarkAllRead(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("mark all read: %w", err)
	}
	return reply(bot, message, fmt.Sprintf("📬 Marked %d notification(s) as read.", changed))
}

package handlers

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/studytrack/internal/service"
)

// StartHandler handles the /start command
type StartHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

// NewStartHandler creates a new start command handler
func NewStartHandler(svc *service.Service, logger *logrus.Logger) *StartHandler {
	return &StartHandler{svc: svc, logger: logger}
}

// Handle registers the sender and links this chat for reminders.
func (h *StartHandler) Handle(bot *tgbotapi.BotAPI, message *tgbotapi.Message, args []string) error {
	user, err := ensureSender(context.Background(), h.svc, message)
	if err != nil {
		return err
	}

	welcomeText := fmt.Sprintf(`🎯 *Welcome to StudyTrack, %s!*

I'll remind you when a planned study session starts and keep track of the hours you put in.

Your user id for the web app is *%d*.

*Commands:*
• /today - Sessions planned for today
• /done <n> - Check in a session
• /progress - Hours and completion rate
• /help - All commands`, tgbotapi.EscapeText(tgbotapi.ModeMarkdown, user.FullName()), user.ID)

	if err := reply(bot, message, welcomeText); err != nil {
		return fmt.Errorf("failed to send start message: %w", err)
	}

	h.logger.WithFields(logrus.Fields{
		"chat_id": message.Chat.ID,
		"user_id": user.ID,
	}).Info("Sent start message")

	return nil
}

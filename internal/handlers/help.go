package handlers

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// HelpHandler handles the /help command
type HelpHandler struct {
	logger *logrus.Logger
}

func NewHelpHandler(logger *logrus.Logger) *HelpHandler {
	return &HelpHandler{logger: logger}
}

func (h *HelpHandler) Handle(bot *tgbotapi.BotAPI, message *tgbotapi.Message, args []string) error {
	helpText := `📚 *StudyTrack Help*

*Sessions:*
• /today - Show today's pending sessions
• /done <n|id> - Check in a session (number from /today)
• /history - Completed and missed sessions
• /readall - Mark all notifications as read

*Planning:*
• /subjects - Your subjects and weekly schedule
• /progress - Study hours and completion rate

_Goals, subjects and chapters are edited in the web app._`

	if err := reply(bot, message, helpText); err != nil {
		return fmt.Errorf("failed to send help message: %w", err)
	}

	h.logger.WithFields(logrus.Fields{
		"chat_id": message.Chat.ID,
		"user_id": message.From.ID,
	}).Info("Sent help message")

	return nil
}

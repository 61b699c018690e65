package handlers

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Kerhoff/studytrack/internal/models"
	"github.com/Kerhoff/studytrack/internal/service"
)

// ensureSender registers the message author and links the chat so the
// scheduler can deliver reminders there.
func ensureSender(ctx context.Context, svc *service.Service, message *tgbotapi.Message) (*models.User, error) {
	from := message.From
	user, err := svc.EnsureUser(ctx, from.ID, from.UserName, from.FirstName, from.LastName, message.Chat.ID)
	if err != nil {
		return nil, fmt.Errorf("ensure user: %w", err)
	}
	return user, nil
}

// reply sends a Markdown message to the chat of message.
func reply(bot *tgbotapi.BotAPI, message *tgbotapi.Message, text string) error {
	msg := tgbotapi.NewMessage(message.Chat.ID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

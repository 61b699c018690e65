package telegram

import (
	"context"
	"errors"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// maxRetryAfter caps how long Notify waits when Telegram rate-limits a chat.
const maxRetryAfter = 30 * time.Second

// Bot connects the command router to Telegram and delivers reminders
type Bot struct {
	api      *tgbotapi.BotAPI
	logger   *logrus.Logger
	router   *Router
	commands []tgbotapi.BotCommand
}

// NewBot authorizes the token against the Bot API
func NewBot(token string, logger *logrus.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}
	return newBot(api, logger), nil
}

func newBot(api *tgbotapi.BotAPI, logger *logrus.Logger) *Bot {
	logger.Infof("Authorized on account %s", api.Self.UserName)
	return &Bot{
		api:    api,
		logger: logger,
		router: NewRouter(logger),
	}
}

// RegisterCommand routes /command to handler and lists it in the bot menu
// with description.
func (b *Bot) RegisterCommand(command, description string, handler CommandHandler) {
	b.router.RegisterCommand(command, handler)
	b.commands = append(b.commands, tgbotapi.BotCommand{Command: command, Description: description})
}

// RegisterCallback routes inline keyboard presses for action to handler
func (b *Bot) RegisterCallback(action string, handler CallbackHandler) {
	b.router.RegisterCallback(action, handler)
}

// Start publishes the command menu and long-polls for updates until ctx is
// cancelled.
func (b *Bot) Start(ctx context.Context) error {
	if _, err := b.api.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		return fmt.Errorf("failed to delete webhook: %w", err)
	}
	if len(b.commands) > 0 {
		if _, err := b.api.Request(tgbotapi.NewSetMyCommands(b.commands...)); err != nil {
			b.logger.WithError(err).Warn("Failed to publish command menu")
		}
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	u.AllowedUpdates = []string{"message", "callback_query"}
	updates := b.api.GetUpdatesChan(u)

	b.logger.Info("Bot started with long polling")
	for {
		select {
		case <-ctx.Done():
			b.logger.Info("Stopping bot...")
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			go b.handleUpdate(update)
		}
	}
}

func (b *Bot) handleUpdate(update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Errorf("Panic in update handler: %v", r)
		}
	}()

	switch {
	case update.Message != nil:
		b.router.HandleMessage(b.api, update.Message)
	case update.CallbackQuery != nil:
		b.router.HandleCallbackQuery(b.api, update.CallbackQuery)
	}
}

// SendMessage sends a Markdown message to a chat
func (b *Bot) SendMessage(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// Notify delivers a scheduler message. A rate-limited send is retried once
// after the delay Telegram asks for; other failures are only logged.
func (b *Bot) Notify(chatID int64, text string) {
	log := b.logger.WithField("chat_id", chatID)

	err := b.SendMessage(chatID, text)
	if wait, ok := retryAfter(err); ok {
		log.Warnf("Rate limited, retrying in %s", wait)
		time.Sleep(wait)
		err = b.SendMessage(chatID, text)
	}
	if err != nil {
		log.Errorf("Failed to deliver reminder: %v", err)
	}
}

func retryAfter(err error) (time.Duration, bool) {
	var apiErr *tgbotapi.Error
	if !errors.As(err, &apiErr) || apiErr.RetryAfter <= 0 {
		return 0, false
	}
	return min(time.Duration(apiErr.RetryAfter)*time.Second, maxRetryAfter), true
}

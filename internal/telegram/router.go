package telegram

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// Router handles message routing and command parsing
type Router struct {
	logger    *logrus.Logger
	handlers  map[string]CommandHandler
	callbacks map[string]CallbackHandler
}

// CommandHandler defines the interface for command handlers
type CommandHandler interface {
	Handle(bot *tgbotapi.BotAPI, message *tgbotapi.Message, args []string) error
}

// CallbackHandler handles inline keyboard presses. Callback data has the form
// "<action>:<payload>"; the handler registered for action receives payload.
type CallbackHandler interface {
	HandleCallback(bot *tgbotapi.BotAPI, query *tgbotapi.CallbackQuery, payload string) error
}

// NewRouter creates a new message router
func NewRouter(logger *logrus.Logger) *Router {
	return &Router{
		logger:    logger,
		handlers:  make(map[string]CommandHandler),
		callbacks: make(map[string]CallbackHandler),
	}
}

// RegisterCommand registers a command handler
func (r *Router) RegisterCommand(command string, handler CommandHandler) {
	r.handlers[command] = handler
	r.logger.Debugf("Registered command: %s", command)
}

// RegisterCallback registers a handler for callback data starting with "action:".
func (r *Router) RegisterCallback(action string, handler CallbackHandler) {
	r.callbacks[action] = handler
	r.logger.Debugf("Registered callback: %s", action)
}

// HandleMessage handles incoming messages
func (r *Router) HandleMessage(bot *tgbotapi.BotAPI, message *tgbotapi.Message) {
	if message.From == nil || message.Text == "" || !message.IsCommand() {
		return
	}

	command := message.Command()
	args := strings.Fields(message.CommandArguments())

	log := r.logger.WithFields(logrus.Fields{
		"command": command,
		"chat_id": message.Chat.ID,
		"user_id": message.From.ID,
	})
	log.Debug("Received command")

	handler, exists := r.handlers[command]
	if !exists {
		log.Warn("Unknown command")
		bot.Send(tgbotapi.NewMessage(message.Chat.ID, "❓ Unknown command. Use /help to see available commands."))
		return
	}

	if err := handler.Handle(bot, message, args); err != nil {
		log.WithError(err).Error("Command handler failed")
		bot.Send(tgbotapi.NewMessage(message.Chat.ID, "❌ An error occurred while processing your command. Please try again."))
	}
}

// HandleCallbackQuery handles callback queries from inline keyboards
func (r *Router) HandleCallbackQuery(bot *tgbotapi.BotAPI, query *tgbotapi.CallbackQuery) {
	action, payload, _ := strings.Cut(query.Data, ":")

	log := r.logger.WithFields(logrus.Fields{
		"callback_id": query.ID,
		"user_id":     query.From.ID,
		"action":      action,
	})
	log.Debug("Received callback query")

	handler, exists := r.callbacks[action]
	if !exists {
		log.Warn("Unknown callback action")
		bot.Request(tgbotapi.NewCallback(query.ID, ""))
		return
	}

	if err := handler.HandleCallback(bot, query, payload); err != nil {
		log.WithError(err).Error("Callback handler failed")
		bot.Request(tgbotapi.NewCallback(query.ID, "❌ Something went wrong"))
	}
}

package handlers

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/studytrack/internal/service"
)

// SubjectsHandler handles the /subjects command
type SubjectsHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

func NewSubjectsHandler(svc *service.Service, logger *logrus.Logger) *SubjectsHandler {
	return &SubjectsHandler{svc: svc, logger: logger}
}

func (h *SubjectsHandler) Handle(bot *tgbotapi.BotAPI, message *tgbotapi.Message, args []string) error {
	ctx := context.Background()
	user, err := ensureSender(ctx, h.svc, message)
	if err != nil {
		return err
	}

	subjects, err := h.svc.ListSubjects(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("list subjects: %w", err)
	}
	return reply(bot, message, formatSubjects(subjects))
}

// ProgressHandler handles the /progress command
type ProgressHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

func NewProgressHandler(svc *service.Service, logger *logrus.Logger) *ProgressHandler {
	return &ProgressHandler{svc: svc, logger: logger}
}

func (h *ProgressHandler) Handle(bot *tgbotapi.BotAPI, message *tgbotapi.Message, args []string) error {
	ctx := context.Background()
	user, err := ensureSender(ctx, h.svc, message)
	if err != nil {
		return err
	}

	// Reconcile first so today's figures include sessions not yet synthesized.
	if _, err := h.svc.SyncNotifications(ctx, user.ID); err != nil {
		return fmt.Errorf("sync notifications: %w", err)
	}
	ov, err := h.svc.Progress(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("progress: %w", err)
	}
	return reply(bot, message, formatProgress(ov))
}

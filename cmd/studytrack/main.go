package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/Kerhoff/studytrack/internal/api"
	"github.com/Kerhoff/studytrack/internal/config"
	"github.com/Kerhoff/studytrack/internal/handlers"
	"github.com/Kerhoff/studytrack/internal/metrics"
	"github.com/Kerhoff/studytrack/internal/repository"
	"github.com/Kerhoff/studytrack/internal/repository/memory"
	"github.com/Kerhoff/studytrack/internal/repository/postgres"
	"github.com/Kerhoff/studytrack/internal/schedule"
	"github.com/Kerhoff/studytrack/internal/service"
	"github.com/Kerhoff/studytrack/internal/telegram"
	"github.com/Kerhoff/studytrack/pkg/logger"
)

type repositories struct {
	users     repository.UserRepository
	goals     repository.GoalRepository
	subjects  repository.SubjectRepository
	chapters  repository.ChapterRepository
	reminders repository.ReminderRepository
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	l := logger.New(cfg.LogLevel, cfg.LogFormat)
	l.Info("Starting StudyTrack...")

	// Context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	m := metrics.New()

	// Storage
	var repos repositories
	if cfg.MemoryStore() {
		l.Warn("Using in-memory storage; data is lost on exit")
		store := memory.NewStore()
		repos = repositories{store.Users(), store.Goals(), store.Subjects(), store.Chapters(), store.Reminders()}
	} else {
		db, err := config.NewDatabase(ctx, cfg.DatabaseURL, cfg.DBPool, l)
		if err != nil {
			l.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		if err := m.RegisterDB(db.DB); err != nil {
			l.Warnf("Failed to register database metrics: %v", err)
		}

		if err := db.Migrate(cfg.MigrationsPath); err != nil {
			l.Fatalf("Failed to run migrations: %v", err)
		}

		repos = repositories{
			users:     postgres.NewUserRepository(db.DB),
			goals:     postgres.NewGoalRepository(db.DB),
			subjects:  postgres.NewSubjectRepository(db.DB),
			chapters:  postgres.NewChapterRepository(db.DB),
			reminders: postgres.NewReminderRepository(db.DB),
		}
	}

	// Service layer
	engine := schedule.NewEngine(cfg.MissedGraceFactor, cfg.Location)
	svc := service.New(l, m, engine, cfg.ChapterGraceFactor,
		repos.users, repos.goals, repos.subjects, repos.chapters, repos.reminders,
	)

	// Background workers finish their current pass before the store closes.
	var workers sync.WaitGroup

	// Telegram bot
	notify := func(chatID int64, text string) {
		l.WithField("chat_id", chatID).Debug("Reminder not delivered: bot disabled")
	}
	if cfg.BotEnabled() {
		bot, err := telegram.NewBot(cfg.TelegramToken, l)
		if err != nil {
			l.Fatalf("Failed to create Telegram bot: %v", err)
		}

		bot.RegisterCommand("start", "Link this chat for reminders", handlers.NewStartHandler(svc, l))
		bot.RegisterCommand("help", "List commands", handlers.NewHelpHandler(l))
		bot.RegisterCommand("subjects", "Your subjects and schedules", handlers.NewSubjectsHandler(svc, l))
		bot.RegisterCommand("today", "Pending sessions", handlers.NewTodayHandler(svc, l))
		bot.RegisterCommand("history", "Recent completed and missed sessions", handlers.NewHistoryHandler(svc, l))
		bot.RegisterCommand("readall", "Mark all notifications read", handlers.NewReadAllHandler(svc, l))
		bot.RegisterCommand("progress", "Study progress overview", handlers.NewProgressHandler(svc, l))

		done := handlers.NewDoneHandler(svc, l)
		bot.RegisterCommand("done", "Check in a session", done)
		bot.RegisterCallback("done", done)

		notify = bot.Notify

		workers.Add(1)
		go func() {
			defer workers.Done()
			if err := bot.Start(ctx); err != nil {
				l.Errorf("Bot error: %v", err)
			}
		}()
	} else {
		l.Warn("TELEGRAM_TOKEN not set; Telegram bot disabled")
	}

	// Start reminder scheduler
	workers.Add(1)
	go func() {
		defer workers.Done()
		svc.StartReminderScheduler(ctx, cfg.ReconcileInterval, notify)
	}()

	// Start HTTP API server
	apiServer := api.NewServer(svc, l)
	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		l.Infof("HTTP server listening on :%s", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Errorf("HTTP server error: %v", err)
		}
	}()

	// Start metrics server
	metricsMux := http.NewServeMux()
	metricsMux.Handle("GET /metrics", m.Handler())
	metricsServer := &http.Server{
		Addr:              ":" + cfg.PrometheusPort,
		Handler:           metricsMux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		l.Infof("Metrics server listening on :%s", cfg.PrometheusPort)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Errorf("Metrics server error: %v", err)
		}
	}()

	l.Info("StudyTrack started successfully")

	<-ctx.Done()
	l.Info("Received shutdown signal...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	l.Info("Shutting down HTTP servers...")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		l.Errorf("HTTP server shutdown: %v", err)
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		l.Errorf("Metrics server shutdown: %v", err)
	}

	l.Info("Waiting for bot and reminder scheduler...")
	stopped := make(chan struct{})
	go func() {
		workers.Wait()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-shutdownCtx.Done():
		l.Warn("Background workers did not stop in time")
	}

	l.Info("StudyTrack stopped")
}

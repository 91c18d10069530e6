package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"focus-planner/internal/bot"
	"focus-planner/internal/config"
	"focus-planner/internal/repository"
	"focus-planner/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config", "err", err)
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	logger := log.NewWithOptions(os.Stdout, log.Options{Level: level, ReportTimestamp: true})

	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("db", "err", err)
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}

	userRepo := repository.NewUserRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	weekRepo := repository.NewWeekRepository(db)
	templateRepo := repository.NewTemplateRepository(db)
	slotRepo := repository.NewFocusSlotRepository(db)
	logRepo := repository.NewFocusLogRepository(db)

	tracker := service.NewFocusTracker(logRepo, settingsRepo, logger)
	bulkSvc := service.NewBulkService(taskRepo)
	bucketSvc := service.NewBucketService(taskRepo, slotRepo)
	focusSvc := service.NewFocusService(taskRepo, slotRepo, bulkSvc, tracker)
	taskSvc := service.NewTaskService(taskRepo, weekRepo)
	templateSvc := service.NewTemplateService(templateRepo)
	reminderSvc := service.NewReminderService(bucketSvc, tracker, settingsRepo, userRepo)
	generatorSvc := service.NewGeneratorService(settingsRepo, weekRepo, templateRepo, taskRepo, logger, cfg.GeneratorHour)

	planner, err := bot.New(cfg.TelegramToken, logger, userRepo, settingsRepo, bucketSvc, focusSvc, taskSvc, templateSvc, tracker, reminderSvc)
	if err != nil {
		logger.Fatal("bot", "err", err)
	}

	scheduler := service.NewSchedulerService(time.UTC)
	if _, err := scheduler.ScheduleHourly(func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if _, err := generatorSvc.RunOnce(jobCtx, time.Now().UTC()); err != nil {
			logger.Error("weekly generator", "err", err)
		}
	}); err != nil {
		logger.Fatal("schedule generator", "err", err)
	}
	if _, err := scheduler.ScheduleEveryMinute(func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := planner.SendReminders(jobCtx, time.Now().UTC()); err != nil {
			logger.Error("reminders", "err", err)
		}
	}); err != nil {
		logger.Fatal("schedule reminders", "err", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	logger.Info("focus planner started")
	if err := planner.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("bot stopped", "err", err)
	}
	logger.Info("shutdown complete")
}

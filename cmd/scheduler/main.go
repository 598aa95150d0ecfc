package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/segyhp/civic-billing/internal/bootstrap"
	"github.com/segyhp/civic-billing/internal/config"
	"github.com/segyhp/civic-billing/internal/service"
	"github.com/segyhp/civic-billing/pkg/logger"
)

const jobTimeout = 10 * time.Minute

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting billing scheduler...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	storage, err := bootstrap.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize storage", zap.Error(err))
	}
	defer storage.Close()

	reminders := service.NewReminderService(storage.Bills, storage.Notifications, log, time.Now)

	c := cron.New(
		cron.WithParser(config.CronParser),
		cron.WithLocation(cfg.GetSchedulerLocation()),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)

	if err := setupCronJobs(ctx, c, cfg, reminders, log); err != nil {
		log.Fatal("Error scheduling jobs", zap.Error(err))
	}

	c.Start()
	log.Info("Scheduler started successfully", zap.String("timezone", cfg.Scheduler.Timezone))

	<-ctx.Done()

	log.Info("Shutting down scheduler...")
	<-c.Stop().Done()
	log.Info("Scheduler stopped")
}

func setupCronJobs(ctx context.Context, c *cron.Cron, cfg *config.Config, reminders *service.ReminderService, log *zap.Logger) error {
	window := cfg.Billing.ReminderWindowDays

	_, err := c.AddFunc(cfg.Scheduler.ReminderCron, func() {
		jobCtx, cancel := context.WithTimeout(ctx, jobTimeout)
		defer cancel()

		log.Info("Running bill reminder job...", zap.Int("window_days", window))
		sent, err := reminders.SendDueReminders(jobCtx, window)
		if err != nil {
			log.Error("Bill reminder job failed", zap.Int("sent", sent), zap.Error(err))
			return
		}
		log.Info("Bill reminder job finished", zap.Int("sent", sent))
	})
	if err != nil {
		return fmt.Errorf("schedule bill reminders: %w", err)
	}

	log.Info("Cron jobs scheduled successfully", zap.String("reminder_cron", cfg.Scheduler.ReminderCron))
	return nil
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"drachma/internal/config"
	"drachma/internal/database"
	"drachma/internal/dispatch"
	"drachma/internal/insights"
	"drachma/internal/logger"
	"drachma/internal/mail"
	"drachma/internal/scheduler"
	"drachma/internal/services"
)

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}
	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	if err := dbManager.Migrate(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}
	db := dbManager.DB()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sender := mail.NewSMTPSender(
		appConfig.SMTPHost,
		appConfig.SMTPPort,
		appConfig.SMTPUsername,
		appConfig.SMTPPassword,
		appConfig.EmailFrom,
	)

	generator, err := insights.NewGeminiGenerator(ctx, appConfig.GeminiAPIKey, appConfig.GeminiModel)
	if err != nil {
		return fmt.Errorf("failed to create insight generator: %w", err)
	}

	accountService := services.NewAccountService(db)
	recurringService := services.NewRecurringService(db, accountService)
	budgetService := services.NewBudgetService(db, accountService, sender)
	reportService := services.NewReportService(db, generator, sender)

	dispatcher := dispatch.New(dispatch.Options{
		Workers:      appConfig.DispatchWorkers,
		MaxAttempts:  appConfig.DispatchMaxAttempts,
		BackoffBase:  appConfig.DispatchBackoffBase,
		PerUserLimit: appConfig.DispatchPerUserLimit,
		Window:       appConfig.DispatchWindow,
	})

	sched := scheduler.New()

	sched.Add(scheduler.Job{
		Name:       "recurring-sweep",
		Every:      appConfig.SweepInterval,
		RunOnStart: true,
		Fn: func(ctx context.Context) error {
			now := time.Now()
			triggers, err := recurringService.DueTemplates(now)
			if err != nil {
				return err
			}
			if len(triggers) == 0 {
				return nil
			}
			result := dispatcher.Run(ctx, triggers, func(ctx context.Context, trigger dispatch.Trigger) (bool, error) {
				if err := ctx.Err(); err != nil {
					return false, err
				}
				return recurringService.MaterializeTemplate(trigger.TemplateID, trigger.UserID, time.Now())
			})
			log.Infow("recurring sweep finished",
				"triggers", len(triggers),
				"materialized", result.Materialized,
				"noops", result.NoOps,
				"failed", result.Failed,
			)
			return nil
		},
	})

	sched.Add(scheduler.Job{
		Name:  "budget-check",
		Every: appConfig.BudgetCheckInterval,
		Fn: func(ctx context.Context) error {
			summary, err := budgetService.CheckBudgets(time.Now())
			if err != nil {
				return err
			}
			log.Infow("budget check finished",
				"evaluated", summary.Evaluated,
				"alerted", summary.Alerted,
				"skipped", summary.Skipped,
				"failed", summary.Failed,
			)
			return nil
		},
	})

	sched.Add(scheduler.Job{
		Name:  "monthly-report",
		Every: appConfig.ReportCheckInterval,
		Fn: func(ctx context.Context) error {
			now := time.Now()
			// Reports cover the prior month and only go out on the 1st.
			if now.Day() != 1 {
				return nil
			}
			summary, err := reportService.GenerateMonthlyReports(ctx, now)
			if err != nil {
				return err
			}
			log.Infow("monthly report run finished",
				"processed", summary.Processed,
				"failed", summary.Failed,
			)
			return nil
		},
	})

	log.Infow("starting drachma worker",
		"sweep_interval", appConfig.SweepInterval,
		"budget_check_interval", appConfig.BudgetCheckInterval,
		"report_check_interval", appConfig.ReportCheckInterval,
	)
	sched.Run(ctx)
	log.Info("worker stopped")
	return nil
}

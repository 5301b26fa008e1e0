package main

import (
	"database/sql"
	"fmt"
	"os"
	"time"

	_ "github.com/lib/pq"
	"github.com/urfave/cli"

	"cardpay-recon/internal/config"
	"cardpay-recon/internal/repository"
	"cardpay-recon/internal/scheduler"
	"cardpay-recon/pkg/logger"
)

func main() {
	app := cli.NewApp()
	app.Name = "cardpay-scheduler"
	app.Usage = "daily payment status batch for card payment reconciliation"
	app.Commands = []cli.Command{
		{
			Name:   "run",
			Usage:  "execute both scheduler passes once and exit",
			Action: runOnce,
		},
		{
			Name:   "daemon",
			Usage:  "execute both scheduler passes on a fixed interval (default daily)",
			Action: runDaemon,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runOnce(_ *cli.Context) error {
	s, db, err := buildScheduler()
	if err != nil {
		return err
	}
	defer db.Close()

	result, err := s.Run()
	if err != nil {
		return fmt.Errorf("scheduler run failed: %w", err)
	}

	logger.GetLogger().WithFields(map[string]interface{}{
		"pending_candidates": result.Pending.TotalCandidates,
		"overdue_candidates": result.Overdue.TotalCandidates,
		"duration_ms":        result.Duration.Milliseconds(),
	}).Info("Scheduler run finished")

	return nil
}

func runDaemon(_ *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	s, db, err := buildScheduler()
	if err != nil {
		return err
	}
	defer db.Close()

	interval := time.Duration(cfg.Scheduler.IntervalHours) * time.Hour
	logger.GetLogger().WithField("interval", interval.String()).Info("Scheduler daemon started")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// First run immediately, then on every tick. Per-record failures are
	// retried naturally on the next day's run.
	for {
		if _, err := s.Run(); err != nil {
			logger.GetLogger().WithError(err).Error("Scheduler run failed")
		}
		<-ticker.C
	}
}

func buildScheduler() (*scheduler.Scheduler, *sql.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	logger.Init(cfg.App.LogLevel)

	db, err := sql.Open("postgres", cfg.Database.ConnectionString())
	if err != nil {
		return nil, nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, nil, err
	}

	statusRepo := repository.NewPaymentStatusRepository(db)
	summaryRepo := repository.NewBillingSummaryRepository(db)

	return scheduler.New(statusRepo, summaryRepo, nil), db, nil
}

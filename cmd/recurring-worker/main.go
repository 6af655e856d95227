package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/isagiyoichii/financial-tracker/internal/amqp"
	"github.com/isagiyoichii/financial-tracker/internal/cli"
	"github.com/isagiyoichii/financial-tracker/internal/log"
	"github.com/isagiyoichii/financial-tracker/internal/services"
)

func main() {
	cfg, repo, logger := cli.Bootstrap(log.ComponentRecurring)
	defer repo.Close()

	logger.Info("Starting recurring-worker")

	// Generated occurrences go through the finance service so they reach
	// the change queue like any other write. AMQP stays optional.
	var publisher services.ChangePublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, occurrences will not publish change events", "error", err)
		} else {
			defer amqpClient.Close()
			publisher = amqpClient
		}
	}

	finance := services.NewFinanceService(repo, publisher)
	processor := services.NewRecurringProcessor(repo, finance)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger.Info("Recurring transaction processor configured",
		"interval", cfg.RecurringInterval,
		"db", cfg.DBPath)

	ticker := time.NewTicker(cfg.RecurringInterval)
	defer ticker.Stop()

	// Run once immediately so templates due during downtime catch up.
	if count, err := processor.ProcessDue(ctx, time.Now()); err != nil {
		logger.Error("Initial processing failed", "error", err)
	} else {
		logger.Info("Initial processing complete", "transactions_created", count)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				count, err := processor.ProcessDue(ctx, now)
				if err != nil {
					logger.Error("Periodic processing failed", "error", err)
					continue
				}
				logger.Info("Periodic processing complete",
					"transactions_created", count,
					"next_check", now.Add(cfg.RecurringInterval).Format("15:04:05"))
			}
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}

	logger.Info("Shutting down recurring-worker...")
	cancel()
	time.Sleep(2 * time.Second)
	logger.Info("Recurring-worker shutdown complete")
}

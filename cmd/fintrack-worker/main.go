package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/isagiyoichii/financial-tracker/internal/amqp"
	"github.com/isagiyoichii/financial-tracker/internal/cli"
	"github.com/isagiyoichii/financial-tracker/internal/log"
	"github.com/isagiyoichii/financial-tracker/internal/snapshot"
	"github.com/isagiyoichii/financial-tracker/internal/worker"
)

func main() {
	cfg, repo, logger := cli.Bootstrap(log.ComponentWorker)
	defer repo.Close()

	logger.Info("Starting fintrack-worker")

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required - the mirror worker consumes change events")
		os.Exit(1)
	}

	snap, err := snapshot.Open(cfg.SnapshotPath)
	if err != nil {
		logger.Error("Failed to open snapshot store", "error", err, "path", cfg.SnapshotPath)
		os.Exit(1)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	mirror := worker.NewMirrorWorker(repo, snap)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Rebuild every user's snapshot on startup so events missed while the
	// worker was down do not leave the mirror stale.
	logger.Info("Reconciling snapshot with primary store...")
	if err := mirror.ReconcileAll(ctx); err != nil {
		logger.Error("Startup reconciliation failed", "error", err)
		// Keep running; incoming events still converge the mirror.
	}

	go func() {
		handler := func(msg *amqp.ChangeMessage) error {
			return mirror.HandleChange(ctx, msg)
		}
		if err := amqpClient.ConsumeChanges(ctx, handler); err != nil {
			if !errors.Is(err, context.Canceled) {
				logger.Error("Message consumption failed", "error", err)
			}
			cancel()
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

	logger.Info("Shutting down worker...")
	cancel()
	time.Sleep(2 * time.Second)
	logger.Info("Worker shutdown complete")
}

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/isagiyoichii/financial-tracker/internal/amqp"
	"github.com/isagiyoichii/financial-tracker/internal/auth"
	"github.com/isagiyoichii/financial-tracker/internal/cli"
	"github.com/isagiyoichii/financial-tracker/internal/config"
	"github.com/isagiyoichii/financial-tracker/internal/files"
	apphttp "github.com/isagiyoichii/financial-tracker/internal/http"
	"github.com/isagiyoichii/financial-tracker/internal/log"
	"github.com/isagiyoichii/financial-tracker/internal/services"
)

func main() {
	cfg, repo, logger := cli.Bootstrap(log.ComponentApp)
	defer repo.Close()

	// AMQP is optional: without it the API still serves, the mirror just
	// stops receiving change events.
	var publisher services.ChangePublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, running store-only", "error", err)
		} else {
			defer amqpClient.Close()
			publisher = amqpClient
			logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	} else {
		logger.Info("AMQP disabled - change events will not be published")
	}

	photos, photoDir, err := newPhotoStore(cfg)
	if err != nil {
		logger.Error("Failed to initialize photo store", "error", err, "backend", cfg.PhotoBackend)
		os.Exit(1)
	}

	srv := apphttp.NewServer(apphttp.Options{
		Addr:              ":" + cfg.Port,
		Auth:              auth.NewService(repo, cfg.SessionTTL, cfg.ResetTTL),
		Finance:           services.NewFinanceService(repo, publisher),
		Photos:            photos,
		PhotoDir:          photoDir,
		DashboardCacheTTL: cfg.DashboardCacheTTL,
	})
	srv.ReadTimeout = 15 * time.Second
	srv.WriteTimeout = 15 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting fintrack server", "port", cfg.Port, "photo_backend", cfg.PhotoBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}

// newPhotoStore picks the configured photo backend. The returned dir is
// non-empty only for the disk backend, which the server then serves
// under /media/photos/.
func newPhotoStore(cfg config.Config) (files.PhotoStore, string, error) {
	if cfg.PhotoBackend == "drive" {
		store, err := files.NewDriveStore(context.Background(), cfg.DriveFolderID)
		return store, "", err
	}
	store, err := files.NewDiskStore(cfg.PhotoDir, cfg.PhotoBaseURL)
	return store, cfg.PhotoDir, err
}

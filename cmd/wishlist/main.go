package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/monocle-dev/wishlist/db"
	"github.com/monocle-dev/wishlist/internal/auth"
	"github.com/monocle-dev/wishlist/internal/config"
	"github.com/monocle-dev/wishlist/internal/handlers"
	"github.com/monocle-dev/wishlist/internal/logging"
	"github.com/monocle-dev/wishlist/internal/router"
	"github.com/monocle-dev/wishlist/internal/scheduler"
	"github.com/monocle-dev/wishlist/internal/services"
	"github.com/monocle-dev/wishlist/internal/storage"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "wishlist: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.NewJSON(os.Stdout, cfg.LogLevel)
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := db.Connect(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(conn); err != nil {
			logger.Error(context.Background(), "failed to close database", "error", err)
		}
	}()

	if err := db.MigrateDatabase(conn); err != nil {
		return err
	}

	issuer, err := auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return err
	}

	var images storage.ImageStore
	if cfg.ImageUploadsEnabled() {
		images, err = storage.NewS3Store(ctx, storage.S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			PublicURL: cfg.S3PublicURL,
		})
		if err != nil {
			return err
		}
	} else {
		logger.Warn(ctx, "S3_BUCKET not set, image uploads are disabled")
	}

	notifier := services.NewNotifier(logger)
	lifecycle := services.NewContactLifecycle(conn, notifier, logger)
	reminder := services.NewBirthdayReminder(conn, notifier, logger, cfg.BirthdayReminderDays)

	jobs := scheduler.NewScheduler(logger)
	jobs.AddJob(scheduler.Job{
		Name:     "birthday-reminders",
		Interval: cfg.BirthdayCheckInterval,
		Run: func(ctx context.Context) error {
			_, err := reminder.Run(ctx)
			return err
		},
	})
	defer jobs.Stop()

	h := handlers.New(handlers.Deps{
		DB:        conn,
		Logger:    logger,
		Issuer:    issuer,
		Lifecycle: lifecycle,
		Notifier:  notifier,
		Images:    images,
		Jobs:      jobs,
		Config:    cfg,
	})

	srv := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: router.NewRouter(router.Options{
			Config:  cfg,
			DB:      conn,
			Logger:  logger,
			Issuer:  issuer,
			Handler: h,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info(context.Background(), "shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	return nil
}

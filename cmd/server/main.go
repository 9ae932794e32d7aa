package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/mentorhub/booking/internal/app"
	"github.com/mentorhub/booking/internal/config"
	"github.com/mentorhub/booking/internal/controller/httpapi"
	"github.com/mentorhub/booking/internal/notify"
	"github.com/mentorhub/booking/internal/repository"
	"github.com/mentorhub/booking/internal/repository/memory"
	"github.com/mentorhub/booking/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment, cfg.LogPath)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		ledger       service.Ledger
		availability service.AvailabilityStore
		pool         *pgxpool.Pool
	)
	if cfg.DBDSN != "" {
		pool, err = pgxpool.New(ctx, cfg.DBDSN)
		if err != nil {
			logger.Fatal("Failed to create database pool", zap.Error(err))
		}
		defer pool.Close()

		migrator, err := app.NewMigrator(pool, cfg.MigrationsPath, logger)
		if err != nil {
			logger.Fatal("Failed to create migrator", zap.Error(err))
		}
		if err := migrator.Run(ctx); err != nil {
			logger.Fatal("Failed to apply migrations", zap.Error(err))
		}
		migrator.Close()

		ledger = repository.NewBookingRepository(pool)
		availability = repository.NewAvailabilityRepository(pool)
	} else {
		logger.Warn("DB_DSN not set, running with the in-memory ledger")
		ledger = memory.NewLedger()
		availability = memory.NewAvailabilityStore()
	}

	var sink notify.Sink = notify.NewLogSink(logger)
	if cfg.TelegramToken != "" {
		telegram, err := notify.NewTelegramSink(cfg.TelegramToken, cfg.TelegramChatID)
		if err != nil {
			logger.Fatal("Failed to create telegram sink", zap.Error(err))
		}
		sink = notify.Multi{notify.NewLogSink(logger), telegram}
	}

	rules := service.Rules{
		GranularityMinutes: cfg.GranularityMinutes,
		DayStart:           cfg.DayStart,
		DayEnd:             cfg.DayEnd,
		CancelCutoff:       cfg.CancelCutoff,
		AutoApprove:        cfg.AutoApprove,
	}

	availabilityService := service.NewAvailabilityService(availability, ledger, rules, logger)
	bookingService := service.NewBookingService(ledger, availability, sink, rules, logger)

	scheduler := app.NewScheduler(bookingService, cfg.SweepInterval, logger)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	handler := httpapi.NewHandler(availabilityService, bookingService, logger)
	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      handler.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting booking service",
			zap.String("addr", cfg.HTTPAddr),
			zap.String("environment", cfg.Environment),
		)
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("Shutdown failed", zap.Error(err))
		}
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}
}

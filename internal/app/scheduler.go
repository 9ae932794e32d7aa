package app

import (
	"context"
	"time"

	"github.com/mentorhub/booking/internal/service"
	"go.uber.org/zap"
)

// Scheduler runs the background completion sweep: confirmed sessions whose
// time has elapsed are moved to completed.
type Scheduler struct {
	bookings *service.BookingService
	interval time.Duration
	logger   *zap.Logger
	stopChan chan struct{}
}

func NewScheduler(bookings *service.BookingService, interval time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		bookings: bookings,
		interval: interval,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// Start launches the sweep loop.
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting background scheduler", zap.Duration("interval", s.interval))
	go s.runCompletionSweep(ctx)
}

// Stop stops the sweep loop.
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping background scheduler")
	close(s.stopChan)
}

func (s *Scheduler) runCompletionSweep(ctx context.Context) {
	// First sweep right away so a restart catches up immediately.
	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep(ctx)
		case <-s.stopChan:
			s.logger.Info("Completion sweep stopped")
			return
		case <-ctx.Done():
			s.logger.Info("Completion sweep cancelled")
			return
		}
	}
}

func (s *Scheduler) sweep(ctx context.Context) {
	if _, err := s.bookings.CompleteElapsed(ctx); err != nil {
		s.logger.Error("Completion sweep failed", zap.Error(err))
	}
}

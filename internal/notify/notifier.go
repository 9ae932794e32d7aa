package notify

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mentorhub/booking/internal/model"
)

// Event describes one booking state change. Emitted on every transition,
// including creation (NewStatus pending or confirmed).
type Event struct {
	Booking   model.Booking
	NewStatus model.BookingStatus
	ActorID   int64 // user who triggered the change; 0 for system transitions
}

// Text renders the event as a short human-readable line, shared by sinks.
func (e Event) Text() string {
	return fmt.Sprintf("Session %s %s: mentor %d, mentee %d, %s at %s (%s)",
		e.Booking.ID, e.NewStatus,
		e.Booking.MentorID, e.Booking.MenteeID,
		e.Booking.Date.Format("2006-01-02"), e.Booking.Start, e.Booking.SessionType,
	)
}

// Sink receives booking events. Delivery is best-effort: the arbiter logs a
// failed Notify and moves on, it never rolls back the transition.
type Sink interface {
	Notify(ctx context.Context, event Event) error
}

// LogSink writes events to the service log. Always wired; doubles as the
// fallback when no external sink is configured.
type LogSink struct {
	logger *zap.Logger
}

func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Notify(ctx context.Context, event Event) error {
	s.logger.Info("Booking event",
		zap.String("booking_id", event.Booking.ID.String()),
		zap.String("status", string(event.NewStatus)),
		zap.Int64("mentor_id", event.Booking.MentorID),
		zap.Int64("mentee_id", event.Booking.MenteeID),
		zap.Int64("actor_id", event.ActorID),
	)
	return nil
}

// Multi fans an event out to several sinks, returning the first error after
// attempting all of them.
type Multi []Sink

func (m Multi) Notify(ctx context.Context, event Event) error {
	var firstErr error
	for _, sink := range m {
		if err := sink.Notify(ctx, event); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

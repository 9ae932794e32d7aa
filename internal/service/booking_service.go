package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mentorhub/booking/internal/model"
	"github.com/mentorhub/booking/internal/notify"
)

// BookingService is the booking arbiter: the single entry point for the
// request lifecycle. It validates requests against the slot calendar,
// reserves cells in the ledger, and drives the
// pending -> confirmed | declined | cancelled | completed state machine.
type BookingService struct {
	ledger       Ledger
	availability AvailabilityStore
	notifier     notify.Sink
	rules        Rules
	clock        func() time.Time
	logger       *zap.Logger
}

func NewBookingService(ledger Ledger, availability AvailabilityStore, notifier notify.Sink, rules Rules, logger *zap.Logger) *BookingService {
	return &BookingService{
		ledger:       ledger,
		availability: availability,
		notifier:     notifier,
		rules:        rules,
		clock:        time.Now,
		logger:       logger,
	}
}

// WithClock replaces the time source. Test hook.
func (s *BookingService) WithClock(clock func() time.Time) *BookingService {
	s.clock = clock
	return s
}

// RequestSession books a cell for a mentee. The cell must be in the future,
// declared in the mentor's template, and free: the ledger reservation is the
// sole serialization point, so of N concurrent requests for one cell exactly
// one succeeds and the rest get ErrSlotConflict. There is no queueing; the
// loser picks a different time.
func (s *BookingService) RequestSession(ctx context.Context, mentorID, menteeID int64, date time.Time, start model.TimeOfDay, durationMinutes int, sessionType model.SessionType, notes string) (uuid.UUID, error) {
	if !sessionType.Valid() {
		return uuid.Nil, fmt.Errorf("unknown session type %q", sessionType)
	}

	day := model.DateOf(date)
	cell := model.Cell{MentorID: mentorID, Date: day, Start: start}
	if !cell.StartAt().After(s.clock()) {
		return uuid.Nil, fmt.Errorf("%w: start time is in the past", model.ErrSlotUnavailable)
	}

	slot, err := s.availability.GetSlot(ctx, mentorID, day.Weekday(), start)
	if err != nil {
		return uuid.Nil, fmt.Errorf("check availability: %w", err)
	}
	if slot == nil {
		return uuid.Nil, model.ErrSlotUnavailable
	}
	if durationMinutes != slot.DurationMinutes {
		return uuid.Nil, fmt.Errorf("%w: duration %d does not match the %d-minute slot", model.ErrSlotUnavailable, durationMinutes, slot.DurationMinutes)
	}

	status := model.BookingStatusPending
	if s.rules.AutoApprove {
		status = model.BookingStatusConfirmed
	}

	booking := &model.Booking{
		ID:              uuid.New(),
		MentorID:        mentorID,
		MenteeID:        menteeID,
		Date:            day,
		Start:           start,
		DurationMinutes: durationMinutes,
		SessionType:     sessionType,
		Notes:           notes,
		Status:          status,
		CreatedAt:       s.clock(),
		UpdatedAt:       s.clock(),
	}

	if err := s.ledger.TryReserve(ctx, booking); err != nil {
		return uuid.Nil, err
	}

	s.logger.Info("Session requested",
		zap.String("booking_id", booking.ID.String()),
		zap.Int64("mentor_id", mentorID),
		zap.Int64("mentee_id", menteeID),
		zap.String("date", day.Format("2006-01-02")),
		zap.Stringer("start", start),
		zap.String("status", string(status)),
	)
	s.emit(ctx, booking, status, menteeID)

	return booking.ID, nil
}

// Approve confirms a pending request. Only the booking's mentor may approve.
func (s *BookingService) Approve(ctx context.Context, id uuid.UUID, callerID int64) error {
	booking, err := s.getBooking(ctx, id)
	if err != nil {
		return err
	}
	if booking.MentorID != callerID {
		return model.ErrUnauthorized
	}
	if booking.Status != model.BookingStatusPending {
		return model.ErrInvalidTransition
	}

	if err := s.ledger.Transition(ctx, id, model.BookingStatusPending, model.BookingStatusConfirmed); err != nil {
		return err
	}

	s.logger.Info("Booking approved",
		zap.String("booking_id", id.String()),
		zap.Int64("mentor_id", callerID),
	)
	s.emit(ctx, booking, model.BookingStatusConfirmed, callerID)

	return nil
}

// Decline rejects a pending request and frees its cell. Only the booking's
// mentor may decline.
func (s *BookingService) Decline(ctx context.Context, id uuid.UUID, callerID int64) error {
	booking, err := s.getBooking(ctx, id)
	if err != nil {
		return err
	}
	if booking.MentorID != callerID {
		return model.ErrUnauthorized
	}
	if booking.Status != model.BookingStatusPending {
		return model.ErrInvalidTransition
	}

	if err := s.ledger.Transition(ctx, id, model.BookingStatusPending, model.BookingStatusDeclined); err != nil {
		return err
	}

	s.logger.Info("Booking declined",
		zap.String("booking_id", id.String()),
		zap.Int64("mentor_id", callerID),
	)
	s.emit(ctx, booking, model.BookingStatusDeclined, callerID)

	return nil
}

// Cancel withdraws a pending or confirmed booking and frees its cell.
// Either party may cancel, but only while the cutoff window is still open:
// cancellation is allowed up to and including the instant start-cutoff, and
// rejected after it.
func (s *BookingService) Cancel(ctx context.Context, id uuid.UUID, callerID int64) error {
	booking, err := s.getBooking(ctx, id)
	if err != nil {
		return err
	}
	if !booking.IsParty(callerID) {
		return model.ErrUnauthorized
	}
	if !booking.Status.Active() {
		return model.ErrInvalidTransition
	}
	if s.clock().After(booking.StartAt().Add(-s.rules.CancelCutoff)) {
		return model.ErrCancellationWindowClosed
	}

	if err := s.ledger.Transition(ctx, id, booking.Status, model.BookingStatusCancelled); err != nil {
		if !errors.Is(err, model.ErrInvalidTransition) {
			return err
		}
		// A concurrent approve can move the booking from pending to
		// confirmed between our status read and the ledger update. Cancel
		// is legal from either active status, so re-read and retry; only
		// a terminal status makes the failure real. One retry suffices:
		// confirmed is the last active status.
		booking, err = s.getBooking(ctx, id)
		if err != nil {
			return err
		}
		if !booking.Status.Active() {
			return model.ErrInvalidTransition
		}
		if err := s.ledger.Transition(ctx, id, booking.Status, model.BookingStatusCancelled); err != nil {
			return err
		}
	}

	s.logger.Info("Booking cancelled",
		zap.String("booking_id", id.String()),
		zap.Int64("user_id", callerID),
	)
	s.emit(ctx, booking, model.BookingStatusCancelled, callerID)

	return nil
}

// GetStatus returns the booking's current status.
func (s *BookingService) GetStatus(ctx context.Context, id uuid.UUID) (model.BookingStatus, error) {
	booking, err := s.getBooking(ctx, id)
	if err != nil {
		return "", err
	}
	return booking.Status, nil
}

// GetByID returns the booking, or ErrNotFound.
func (s *BookingService) GetByID(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	return s.getBooking(ctx, id)
}

// ListMentorBookings returns all bookings for the mentor.
func (s *BookingService) ListMentorBookings(ctx context.Context, mentorID int64) ([]*model.Booking, error) {
	return s.ledger.ListByMentor(ctx, mentorID)
}

// ListMenteeBookings returns all bookings for the mentee.
func (s *BookingService) ListMenteeBookings(ctx context.Context, menteeID int64) ([]*model.Booking, error) {
	return s.ledger.ListByMentee(ctx, menteeID)
}

// ListPendingRequests returns the mentor's request inbox.
func (s *BookingService) ListPendingRequests(ctx context.Context, mentorID int64) ([]*model.Booking, error) {
	return s.ledger.ListPendingByMentor(ctx, mentorID)
}

// CompleteElapsed transitions confirmed bookings whose session has ended to
// completed. Called periodically by the background scheduler; there is no
// manual trigger. A booking cancelled concurrently just loses the race and
// is skipped.
func (s *BookingService) CompleteElapsed(ctx context.Context) (int, error) {
	elapsed, err := s.ledger.ListConfirmedEndingBefore(ctx, s.clock())
	if err != nil {
		return 0, fmt.Errorf("list elapsed bookings: %w", err)
	}

	completed := 0
	for _, booking := range elapsed {
		err := s.ledger.Transition(ctx, booking.ID, model.BookingStatusConfirmed, model.BookingStatusCompleted)
		if err != nil {
			s.logger.Warn("Failed to complete booking",
				zap.String("booking_id", booking.ID.String()),
				zap.Error(err),
			)
			continue
		}
		completed++
		s.emit(ctx, booking, model.BookingStatusCompleted, 0)
	}

	if completed > 0 {
		s.logger.Info("Completed elapsed sessions", zap.Int("count", completed))
	}
	return completed, nil
}

func (s *BookingService) getBooking(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	booking, err := s.ledger.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}
	if booking == nil {
		return nil, model.ErrNotFound
	}
	return booking, nil
}

// emit delivers a notification best-effort. A sink failure is logged and
// never propagated; the ledger state is the source of truth.
func (s *BookingService) emit(ctx context.Context, booking *model.Booking, status model.BookingStatus, actorID int64) {
	event := notify.Event{Booking: *booking, NewStatus: status, ActorID: actorID}
	if err := s.notifier.Notify(ctx, event); err != nil {
		s.logger.Warn("Notification failed",
			zap.String("booking_id", booking.ID.String()),
			zap.String("status", string(status)),
			zap.Error(err),
		)
	}
}

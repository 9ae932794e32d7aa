package service

import (
	"context"
	"fmt"
	"iter"
	"time"

	"go.uber.org/zap"

	"github.com/mentorhub/booking/internal/model"
)

// AvailabilityService owns mentors' weekly slot templates: the slot
// calendar. It answers whether a cell is declared available and enumerates
// bookable cells over a date range.
type AvailabilityService struct {
	store  AvailabilityStore
	ledger Ledger
	rules  Rules
	clock  func() time.Time
	logger *zap.Logger
}

func NewAvailabilityService(store AvailabilityStore, ledger Ledger, rules Rules, logger *zap.Logger) *AvailabilityService {
	return &AvailabilityService{
		store:  store,
		ledger: ledger,
		rules:  rules,
		clock:  time.Now,
		logger: logger,
	}
}

// WithClock replaces the time source. Test hook.
func (s *AvailabilityService) WithClock(clock func() time.Time) *AvailabilityService {
	s.clock = clock
	return s
}

// SetAvailability replaces the mentor's full slot set for one weekday.
// Every start must fall on the granularity grid within the working-hours
// window, otherwise ErrInvalidTimeGranularity.
//
// Removing a slot never cascades into existing bookings: active future
// bookings on removed starts are returned so the caller can warn, but they
// stay untouched.
func (s *AvailabilityService) SetAvailability(ctx context.Context, mentorID int64, weekday time.Weekday, starts []model.TimeOfDay) ([]*model.Booking, error) {
	if weekday < time.Sunday || weekday > time.Saturday {
		return nil, fmt.Errorf("weekday %d out of range", weekday)
	}

	keep := make(map[model.TimeOfDay]bool, len(starts))
	slots := make([]model.WeekdaySlot, 0, len(starts))
	for _, start := range starts {
		if !s.rules.ValidStart(start) {
			return nil, fmt.Errorf("%w: %s", model.ErrInvalidTimeGranularity, start)
		}
		if keep[start] {
			continue
		}
		keep[start] = true
		slots = append(slots, model.WeekdaySlot{
			MentorID:        mentorID,
			Weekday:         weekday,
			Start:           start,
			DurationMinutes: s.rules.GranularityMinutes,
		})
	}

	orphans, err := s.orphanedBookings(ctx, mentorID, weekday, keep)
	if err != nil {
		return nil, err
	}

	if err := s.store.ReplaceDay(ctx, mentorID, weekday, slots); err != nil {
		return nil, fmt.Errorf("replace availability: %w", err)
	}

	s.logger.Info("Availability updated",
		zap.Int64("mentor_id", mentorID),
		zap.Stringer("weekday", weekday),
		zap.Int("slots", len(slots)),
	)
	if len(orphans) > 0 {
		s.logger.Warn("Active bookings remain on removed slots",
			zap.Int64("mentor_id", mentorID),
			zap.Stringer("weekday", weekday),
			zap.Int("bookings", len(orphans)),
		)
	}

	return orphans, nil
}

// orphanedBookings finds active future bookings on starts being removed
// from the template.
func (s *AvailabilityService) orphanedBookings(ctx context.Context, mentorID int64, weekday time.Weekday, keep map[model.TimeOfDay]bool) ([]*model.Booking, error) {
	previous, err := s.store.DaySlots(ctx, mentorID, weekday)
	if err != nil {
		return nil, fmt.Errorf("load current availability: %w", err)
	}

	removed := make(map[model.TimeOfDay]bool)
	for _, slot := range previous {
		if !keep[slot.Start] {
			removed[slot.Start] = true
		}
	}
	if len(removed) == 0 {
		return nil, nil
	}

	bookings, err := s.ledger.ListByMentor(ctx, mentorID)
	if err != nil {
		return nil, fmt.Errorf("list mentor bookings: %w", err)
	}

	now := s.clock()
	var orphans []*model.Booking
	for _, b := range bookings {
		if b.Status.Active() && b.Date.Weekday() == weekday && removed[b.Start] && b.StartAt().After(now) {
			orphans = append(orphans, b)
		}
	}
	return orphans, nil
}

// WeekTemplate returns the mentor's full weekly template.
func (s *AvailabilityService) WeekTemplate(ctx context.Context, mentorID int64) ([]model.WeekdaySlot, error) {
	return s.store.WeekSlots(ctx, mentorID)
}

// ListAvailable enumerates the mentor's bookable cells in [fromDate, toDate]
// as a lazy, restartable sequence: each calendar day intersected with that
// weekday's template, minus cells with an active booking and cells whose
// start is not in the future. Occupancy is snapshotted once up front, so a
// restarted iteration replays the same view.
func (s *AvailabilityService) ListAvailable(ctx context.Context, mentorID int64, fromDate, toDate time.Time) (iter.Seq[model.Cell], error) {
	from := model.DateOf(fromDate)
	to := model.DateOf(toDate)

	week := make(map[time.Weekday][]model.WeekdaySlot)
	slots, err := s.store.WeekSlots(ctx, mentorID)
	if err != nil {
		return nil, fmt.Errorf("load availability: %w", err)
	}
	for _, slot := range slots {
		week[slot.Weekday] = append(week[slot.Weekday], slot)
	}

	taken, err := s.ledger.ActiveCells(ctx, mentorID, from, to)
	if err != nil {
		return nil, fmt.Errorf("load occupancy: %w", err)
	}

	now := s.clock()
	return func(yield func(model.Cell) bool) {
		for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
			for _, slot := range week[day.Weekday()] {
				cell := model.Cell{MentorID: mentorID, Date: day, Start: slot.Start}
				if taken[cell] || !cell.StartAt().After(now) {
					continue
				}
				if !yield(cell) {
					return
				}
			}
		}
	}, nil
}

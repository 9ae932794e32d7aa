package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mentorhub/booking/internal/model"
)

// Ledger is the authoritative occupancy store for booking cells. TryReserve
// and Transition must be atomic with respect to each other for the same
// cell. Implemented by repository.BookingRepository (Postgres) and
// memory.Ledger.
type Ledger interface {
	TryReserve(ctx context.Context, booking *model.Booking) error
	Transition(ctx context.Context, id uuid.UUID, from, to model.BookingStatus) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Booking, error)
	GetActive(ctx context.Context, cell model.Cell) (*model.Booking, error)
	ActiveCells(ctx context.Context, mentorID int64, from, to time.Time) (map[model.Cell]bool, error)
	ListByMentor(ctx context.Context, mentorID int64) ([]*model.Booking, error)
	ListByMentee(ctx context.Context, menteeID int64) ([]*model.Booking, error)
	ListPendingByMentor(ctx context.Context, mentorID int64) ([]*model.Booking, error)
	ListConfirmedEndingBefore(ctx context.Context, t time.Time) ([]*model.Booking, error)
}

// AvailabilityStore holds mentors' weekly slot templates. Implemented by
// repository.AvailabilityRepository (Postgres) and memory.AvailabilityStore.
type AvailabilityStore interface {
	ReplaceDay(ctx context.Context, mentorID int64, weekday time.Weekday, slots []model.WeekdaySlot) error
	DaySlots(ctx context.Context, mentorID int64, weekday time.Weekday) ([]model.WeekdaySlot, error)
	WeekSlots(ctx context.Context, mentorID int64) ([]model.WeekdaySlot, error)
	GetSlot(ctx context.Context, mentorID int64, weekday time.Weekday, start model.TimeOfDay) (*model.WeekdaySlot, error)
}

// Rules are the scheduling policy knobs shared by the availability and
// booking services.
type Rules struct {
	GranularityMinutes int
	DayStart           model.TimeOfDay // earliest permitted slot start
	DayEnd             model.TimeOfDay // latest permitted slot start
	CancelCutoff       time.Duration
	AutoApprove        bool
}

// DefaultRules mirrors the product defaults: 30-minute slots starting
// between 09:00 and 17:30, 24-hour cancellation cutoff, mentor approval
// required.
func DefaultRules() Rules {
	return Rules{
		GranularityMinutes: 30,
		DayStart:           9 * 60,
		DayEnd:             17*60 + 30,
		CancelCutoff:       24 * time.Hour,
	}
}

// ValidStart reports whether t is an allowed slot start time.
func (r Rules) ValidStart(t model.TimeOfDay) bool {
	return t.Aligned(r.GranularityMinutes) && t >= r.DayStart && t <= r.DayEnd
}

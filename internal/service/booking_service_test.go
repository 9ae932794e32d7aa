package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mentorhub/booking/internal/model"
	"github.com/mentorhub/booking/internal/notify"
	"github.com/mentorhub/booking/internal/repository/memory"
	"github.com/mentorhub/booking/internal/service"
)

const (
	mentorID = int64(1)
	menteeA  = int64(100)
	menteeB  = int64(101)
	menteeC  = int64(102)
)

// Tuesday noon; the next Monday is 2026-09-07.
var (
	testNow    = time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	nextMonday = time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
)

type recordSink struct {
	mu     sync.Mutex
	events []notify.Event
}

func (s *recordSink) Notify(ctx context.Context, event notify.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *recordSink) statuses() []model.BookingStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.BookingStatus, len(s.events))
	for i, e := range s.events {
		out[i] = e.NewStatus
	}
	return out
}

type failSink struct{}

func (failSink) Notify(ctx context.Context, event notify.Event) error {
	return errors.New("sink down")
}

type env struct {
	ledger       *memory.Ledger
	store        *memory.AvailabilityStore
	sink         *recordSink
	now          time.Time
	bookings     *service.BookingService
	availability *service.AvailabilityService
}

func newEnv(t *testing.T, mutate ...func(*service.Rules)) *env {
	t.Helper()

	e := &env{
		ledger: memory.NewLedger(),
		store:  memory.NewAvailabilityStore(),
		sink:   &recordSink{},
		now:    testNow,
	}

	rules := service.DefaultRules()
	for _, m := range mutate {
		m(&rules)
	}

	clock := func() time.Time { return e.now }
	logger := zap.NewNop()
	e.availability = service.NewAvailabilityService(e.store, e.ledger, rules, logger).WithClock(clock)
	e.bookings = service.NewBookingService(e.ledger, e.store, e.sink, rules, logger).WithClock(clock)
	return e
}

func (e *env) setAvailability(t *testing.T, weekday time.Weekday, starts ...string) {
	t.Helper()
	times := make([]model.TimeOfDay, len(starts))
	for i, s := range starts {
		parsed, err := model.ParseTimeOfDay(s)
		require.NoError(t, err)
		times[i] = parsed
	}
	_, err := e.availability.SetAvailability(context.Background(), mentorID, weekday, times)
	require.NoError(t, err)
}

func (e *env) request(t *testing.T, menteeID int64, date time.Time, start string) (uuid.UUID, error) {
	t.Helper()
	parsed, err := model.ParseTimeOfDay(start)
	require.NoError(t, err)
	return e.bookings.RequestSession(context.Background(), mentorID, menteeID, date, parsed, 30, model.SessionTypeCareer, "")
}

func TestRequestSession(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.setAvailability(t, time.Monday, "09:00", "09:30")

	id, err := e.request(t, menteeA, nextMonday, "09:00")
	require.NoError(t, err)

	status, err := e.bookings.GetStatus(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusPending, status)

	assert.Equal(t, []model.BookingStatus{model.BookingStatusPending}, e.sink.statuses())
}

func TestRequestSessionSlotUnavailable(t *testing.T) {
	e := newEnv(t)
	e.setAvailability(t, time.Monday, "09:00", "09:30")

	// Not in the template.
	_, err := e.request(t, menteeA, nextMonday, "08:00")
	assert.ErrorIs(t, err, model.ErrSlotUnavailable)

	// Declared weekday, wrong date's weekday.
	tuesday := nextMonday.AddDate(0, 0, 1)
	_, err = e.request(t, menteeA, tuesday, "09:00")
	assert.ErrorIs(t, err, model.ErrSlotUnavailable)

	// Past date.
	lastMonday := nextMonday.AddDate(0, 0, -7)
	_, err = e.request(t, menteeA, lastMonday, "09:00")
	assert.ErrorIs(t, err, model.ErrSlotUnavailable)

	// Duration not matching the slot.
	start, _ := model.ParseTimeOfDay("09:00")
	_, err = e.bookings.RequestSession(context.Background(), mentorID, menteeA, nextMonday, start, 60, model.SessionTypeCode, "")
	assert.ErrorIs(t, err, model.ErrSlotUnavailable)
}

func TestRequestSessionConflict(t *testing.T) {
	e := newEnv(t)
	e.setAvailability(t, time.Monday, "09:00")

	_, err := e.request(t, menteeA, nextMonday, "09:00")
	require.NoError(t, err)

	_, err = e.request(t, menteeB, nextMonday, "09:00")
	assert.ErrorIs(t, err, model.ErrSlotConflict)
}

func TestRequestSessionConcurrent(t *testing.T) {
	e := newEnv(t)
	e.setAvailability(t, time.Monday, "09:00")

	const callers = 16
	var wg sync.WaitGroup
	errs := make([]error, callers)

	start, _ := model.ParseTimeOfDay("09:00")
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = e.bookings.RequestSession(context.Background(), mentorID, int64(200+i), nextMonday, start, 30, model.SessionTypeCareer, "")
		}(i)
	}
	wg.Wait()

	won := 0
	for _, err := range errs {
		if err == nil {
			won++
		} else {
			assert.ErrorIs(t, err, model.ErrSlotConflict)
		}
	}
	assert.Equal(t, 1, won, "exactly one of N concurrent requests must win")
}

func TestApprove(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.setAvailability(t, time.Monday, "09:00")

	id, err := e.request(t, menteeA, nextMonday, "09:00")
	require.NoError(t, err)

	// Only the booking's mentor may approve.
	err = e.bookings.Approve(ctx, id, menteeA)
	assert.ErrorIs(t, err, model.ErrUnauthorized)

	require.NoError(t, e.bookings.Approve(ctx, id, mentorID))

	status, err := e.bookings.GetStatus(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusConfirmed, status)

	// Approving twice is a state machine violation.
	err = e.bookings.Approve(ctx, id, mentorID)
	assert.ErrorIs(t, err, model.ErrInvalidTransition)

	err = e.bookings.Approve(ctx, uuid.New(), mentorID)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestDeclineFreesCell(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.setAvailability(t, time.Monday, "09:00")

	id, err := e.request(t, menteeA, nextMonday, "09:00")
	require.NoError(t, err)
	require.NoError(t, e.bookings.Decline(ctx, id, mentorID))

	// The cell is immediately available again.
	id2, err := e.request(t, menteeB, nextMonday, "09:00")
	require.NoError(t, err)
	assert.NotEqual(t, id, id2)

	// Declined is terminal.
	err = e.bookings.Approve(ctx, id, mentorID)
	assert.ErrorIs(t, err, model.ErrInvalidTransition)
}

func TestCancel(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.setAvailability(t, time.Monday, "09:00", "09:30")

	id, err := e.request(t, menteeA, nextMonday, "09:00")
	require.NoError(t, err)

	// A third party may not cancel.
	err = e.bookings.Cancel(ctx, id, menteeB)
	assert.ErrorIs(t, err, model.ErrUnauthorized)

	// The mentee may cancel a pending request.
	require.NoError(t, e.bookings.Cancel(ctx, id, menteeA))

	// The mentor may cancel a confirmed booking.
	id2, err := e.request(t, menteeA, nextMonday, "09:30")
	require.NoError(t, err)
	require.NoError(t, e.bookings.Approve(ctx, id2, mentorID))
	require.NoError(t, e.bookings.Cancel(ctx, id2, mentorID))

	// Cancelled is terminal.
	err = e.bookings.Cancel(ctx, id2, mentorID)
	assert.ErrorIs(t, err, model.ErrInvalidTransition)

	// Both cells are free again.
	id3, err := e.request(t, menteeC, nextMonday, "09:00")
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id3)
}

// The mentor approves while the mentee's cancel is in flight. Cancel reads
// the status as pending, then the approve lands before cancel's ledger
// update; cancel must still win, because in every serial order of the two
// calls the booking ends up cancelled. The cutoff clock check sits between
// cancel's read and its update, so the clock hook is the interleaving point.
func TestCancelConcurrentApprove(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.setAvailability(t, time.Monday, "09:00")

	id, err := e.request(t, menteeA, nextMonday, "09:00")
	require.NoError(t, err)

	var approveErr error
	approved := false
	e.bookings.WithClock(func() time.Time {
		if !approved {
			approved = true
			approveErr = e.bookings.Approve(ctx, id, mentorID)
		}
		return e.now
	})

	require.NoError(t, e.bookings.Cancel(ctx, id, menteeA))
	require.NoError(t, approveErr)

	status, err := e.bookings.GetStatus(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusCancelled, status)

	// The cell is free again.
	_, err = e.request(t, menteeB, nextMonday, "09:00")
	require.NoError(t, err)

	assert.Equal(t, []model.BookingStatus{
		model.BookingStatusPending,
		model.BookingStatusConfirmed,
		model.BookingStatusCancelled,
		model.BookingStatusPending,
	}, e.sink.statuses())
}

func TestCancelWindowBoundary(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.setAvailability(t, time.Monday, "09:00", "09:30")

	id, err := e.request(t, menteeA, nextMonday, "09:00")
	require.NoError(t, err)
	require.NoError(t, e.bookings.Approve(ctx, id, mentorID))

	start, _ := model.ParseTimeOfDay("09:00")
	sessionStart := start.On(nextMonday)

	// Exactly 24h before start: the window is still open (inclusive boundary).
	e.now = sessionStart.Add(-24 * time.Hour)
	require.NoError(t, e.bookings.Cancel(ctx, id, menteeA))

	id2, err := e.request(t, menteeA, nextMonday, "09:30")
	require.NoError(t, err)

	// One second past the boundary: closed.
	start2, _ := model.ParseTimeOfDay("09:30")
	e.now = start2.On(nextMonday).Add(-24*time.Hour + time.Second)
	err = e.bookings.Cancel(ctx, id2, menteeA)
	assert.ErrorIs(t, err, model.ErrCancellationWindowClosed)
}

func TestCompleteElapsed(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.setAvailability(t, time.Monday, "09:00", "09:30")

	confirmed, err := e.request(t, menteeA, nextMonday, "09:00")
	require.NoError(t, err)
	require.NoError(t, e.bookings.Approve(ctx, confirmed, mentorID))

	pending, err := e.request(t, menteeB, nextMonday, "09:30")
	require.NoError(t, err)

	// Before the session ends nothing completes.
	count, err := e.bookings.CompleteElapsed(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	e.now = nextMonday.AddDate(0, 0, 1)
	count, err = e.bookings.CompleteElapsed(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	status, err := e.bookings.GetStatus(ctx, confirmed)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusCompleted, status)

	// Pending requests are never auto-completed.
	status, err = e.bookings.GetStatus(ctx, pending)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusPending, status)

	// Completed is terminal.
	err = e.bookings.Cancel(ctx, confirmed, menteeA)
	assert.ErrorIs(t, err, model.ErrInvalidTransition)
}

func TestAutoApprove(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, func(r *service.Rules) { r.AutoApprove = true })
	e.setAvailability(t, time.Monday, "09:00")

	id, err := e.request(t, menteeA, nextMonday, "09:00")
	require.NoError(t, err)

	status, err := e.bookings.GetStatus(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusConfirmed, status)
}

func TestNotificationFailureDoesNotRollBack(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.setAvailability(t, time.Monday, "09:00")

	broken := service.NewBookingService(e.ledger, e.store, failSink{}, service.DefaultRules(), zap.NewNop()).
		WithClock(func() time.Time { return e.now })

	start, _ := model.ParseTimeOfDay("09:00")
	id, err := broken.RequestSession(ctx, mentorID, menteeA, nextMonday, start, 30, model.SessionTypeTechnical, "intro call")
	require.NoError(t, err)

	require.NoError(t, broken.Approve(ctx, id, mentorID))

	status, err := broken.GetStatus(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusConfirmed, status)
}

// The end-to-end walk from the product flow: A books 09:00, B loses the
// race for 09:00, the mentor approves A, C books 09:30.
func TestBookingScenario(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.setAvailability(t, time.Monday, "09:00", "09:30")

	a1, err := e.request(t, menteeA, nextMonday, "09:00")
	require.NoError(t, err)

	_, err = e.request(t, menteeB, nextMonday, "09:00")
	assert.ErrorIs(t, err, model.ErrSlotConflict)

	require.NoError(t, e.bookings.Approve(ctx, a1, mentorID))

	c1, err := e.request(t, menteeC, nextMonday, "09:30")
	require.NoError(t, err)

	pending, err := e.bookings.ListPendingRequests(ctx, mentorID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, c1, pending[0].ID)

	assert.Equal(t, []model.BookingStatus{
		model.BookingStatusPending,
		model.BookingStatusConfirmed,
		model.BookingStatusPending,
	}, e.sink.statuses())
}

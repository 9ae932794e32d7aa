package memory

import (
	"context"
	"fmt"
	"hash/fnv"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mentorhub/booking/internal/model"
)

const shardCount = 64

type cellKey struct {
	mentorID int64
	date     int64 // yyyymmdd
	start    model.TimeOfDay
}

func keyFor(c model.Cell) cellKey {
	y, m, d := c.Date.Date()
	return cellKey{
		mentorID: c.MentorID,
		date:     int64(y)*10000 + int64(m)*100 + int64(d),
		start:    c.Start,
	}
}

type shard struct {
	mu    sync.Mutex
	cells map[cellKey]uuid.UUID // active occupancy: cell -> booking id
}

// Ledger is the in-process booking ledger. Occupancy is sharded by cell so
// that reservations and transitions for one cell serialize on a single
// mutex while unrelated cells proceed concurrently. A booking's fields are
// only mutated while its cell's shard is held, which makes all operations
// on one cell linearizable.
type Ledger struct {
	mu     sync.RWMutex // guards byID map structure only
	byID   map[uuid.UUID]*model.Booking
	shards [shardCount]shard
}

func NewLedger() *Ledger {
	l := &Ledger{byID: make(map[uuid.UUID]*model.Booking)}
	for i := range l.shards {
		l.shards[i].cells = make(map[cellKey]uuid.UUID)
	}
	return l
}

func (l *Ledger) shardFor(k cellKey) *shard {
	h := fnv.New64a()
	fmt.Fprintf(h, "%d/%d/%d", k.mentorID, k.date, k.start)
	return &l.shards[h.Sum64()%shardCount]
}

// TryReserve atomically inserts the booking if and only if its cell has no
// active occupant. This is the sole serialization point for double-booking
// prevention; the loser of a race gets ErrSlotConflict.
func (l *Ledger) TryReserve(ctx context.Context, booking *model.Booking) error {
	if !booking.Status.Active() {
		return fmt.Errorf("reserve with non-active status %q", booking.Status)
	}
	k := keyFor(booking.Cell())
	sh := l.shardFor(k)

	sh.mu.Lock()
	defer sh.mu.Unlock()

	if _, taken := sh.cells[k]; taken {
		return model.ErrSlotConflict
	}
	sh.cells[k] = booking.ID

	stored := *booking
	l.mu.Lock()
	l.byID[booking.ID] = &stored
	l.mu.Unlock()

	return nil
}

// Transition moves the booking from one status to another, atomically
// freeing the cell when the new status no longer occupies it. Returns
// ErrNotFound for an unknown id and ErrInvalidTransition when the booking
// is not in the expected status.
func (l *Ledger) Transition(ctx context.Context, id uuid.UUID, from, to model.BookingStatus) error {
	l.mu.RLock()
	booking := l.byID[id]
	l.mu.RUnlock()
	if booking == nil {
		return model.ErrNotFound
	}

	k := keyFor(booking.Cell())
	sh := l.shardFor(k)

	sh.mu.Lock()
	defer sh.mu.Unlock()

	if booking.Status != from {
		return model.ErrInvalidTransition
	}
	booking.Status = to
	booking.UpdatedAt = time.Now()

	if !to.Active() {
		if occupant, ok := sh.cells[k]; ok && occupant == id {
			delete(sh.cells, k)
		}
	}
	return nil
}

// GetByID returns a copy of the booking, or nil if the id is unknown.
func (l *Ledger) GetByID(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	l.mu.RLock()
	booking := l.byID[id]
	l.mu.RUnlock()
	if booking == nil {
		return nil, nil
	}

	sh := l.shardFor(keyFor(booking.Cell()))
	sh.mu.Lock()
	copied := *booking
	sh.mu.Unlock()

	return &copied, nil
}

// GetActive returns the booking currently occupying the cell, or nil.
func (l *Ledger) GetActive(ctx context.Context, cell model.Cell) (*model.Booking, error) {
	k := keyFor(cell)
	sh := l.shardFor(k)

	sh.mu.Lock()
	id, ok := sh.cells[k]
	if !ok {
		sh.mu.Unlock()
		return nil, nil
	}
	l.mu.RLock()
	copied := *l.byID[id]
	l.mu.RUnlock()
	sh.mu.Unlock()

	return &copied, nil
}

// ActiveCells returns the set of cells with an active booking for the
// mentor within [from, to] (dates inclusive).
func (l *Ledger) ActiveCells(ctx context.Context, mentorID int64, from, to time.Time) (map[model.Cell]bool, error) {
	lo := keyFor(model.Cell{MentorID: mentorID, Date: from}).date
	hi := keyFor(model.Cell{MentorID: mentorID, Date: to}).date

	out := make(map[model.Cell]bool)
	for i := range l.shards {
		sh := &l.shards[i]
		sh.mu.Lock()
		for k, id := range sh.cells {
			if k.mentorID != mentorID || k.date < lo || k.date > hi {
				continue
			}
			l.mu.RLock()
			b := l.byID[id]
			l.mu.RUnlock()
			out[b.Cell()] = true
		}
		sh.mu.Unlock()
	}
	return out, nil
}

// ListByMentor returns all bookings for the mentor, newest first.
func (l *Ledger) ListByMentor(ctx context.Context, mentorID int64) ([]*model.Booking, error) {
	return l.list(func(b *model.Booking) bool { return b.MentorID == mentorID })
}

// ListByMentee returns all bookings for the mentee, newest first.
func (l *Ledger) ListByMentee(ctx context.Context, menteeID int64) ([]*model.Booking, error) {
	return l.list(func(b *model.Booking) bool { return b.MenteeID == menteeID })
}

// ListPendingByMentor returns the mentor's pending requests, newest first.
func (l *Ledger) ListPendingByMentor(ctx context.Context, mentorID int64) ([]*model.Booking, error) {
	return l.list(func(b *model.Booking) bool {
		return b.MentorID == mentorID && b.Status == model.BookingStatusPending
	})
}

// ListConfirmedEndingBefore returns confirmed bookings whose end time is
// before t. Used by the completion sweeper.
func (l *Ledger) ListConfirmedEndingBefore(ctx context.Context, t time.Time) ([]*model.Booking, error) {
	return l.list(func(b *model.Booking) bool {
		return b.Status == model.BookingStatusConfirmed && b.EndAt().Before(t)
	})
}

func (l *Ledger) list(match func(*model.Booking) bool) ([]*model.Booking, error) {
	l.mu.RLock()
	ids := make([]uuid.UUID, 0, len(l.byID))
	for id := range l.byID {
		ids = append(ids, id)
	}
	l.mu.RUnlock()

	var out []*model.Booking
	for _, id := range ids {
		b, _ := l.GetByID(context.Background(), id)
		if b != nil && match(b) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

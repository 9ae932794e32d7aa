package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mentorhub/booking/internal/model"
)

// activeCellIndex is the partial unique index over (mentor_id, session_date,
// start_minute) WHERE status IN ('pending','confirmed'). Inserting into it is
// the database-side serialization point for double-booking prevention.
const activeCellIndex = "bookings_active_cell_idx"

const uniqueViolation = "23505"

const bookingColumns = `id, mentor_id, mentee_id, session_date, start_minute,
	duration_minutes, session_type, notes, status, created_at, updated_at`

type BookingRepository struct {
	pool *pgxpool.Pool
}

func NewBookingRepository(pool *pgxpool.Pool) *BookingRepository {
	return &BookingRepository{pool: pool}
}

// TryReserve inserts the booking, racing the partial unique index on active
// cells. A losing insert returns model.ErrSlotConflict.
func (r *BookingRepository) TryReserve(ctx context.Context, booking *model.Booking) error {
	query := `
		INSERT INTO bookings (id, mentor_id, mentee_id, session_date, start_minute,
			duration_minutes, session_type, notes, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`

	err := r.pool.QueryRow(
		ctx, query,
		booking.ID,
		booking.MentorID,
		booking.MenteeID,
		booking.Date,
		int(booking.Start),
		booking.DurationMinutes,
		booking.SessionType,
		booking.Notes,
		booking.Status,
	).Scan(&booking.CreatedAt, &booking.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == activeCellIndex {
			return model.ErrSlotConflict
		}
		return fmt.Errorf("reserve booking: %w", err)
	}

	return nil
}

// Transition updates the booking's status if it currently holds the expected
// one. The partial index drops the row from active occupancy in the same
// statement, so freeing the cell is atomic with the status change.
func (r *BookingRepository) Transition(ctx context.Context, id uuid.UUID, from, to model.BookingStatus) error {
	query := `
		UPDATE bookings
		SET status = $1, updated_at = now()
		WHERE id = $2 AND status = $3
	`

	result, err := r.pool.Exec(ctx, query, to, id, from)
	if err != nil {
		return fmt.Errorf("transition booking: %w", err)
	}

	if result.RowsAffected() == 0 {
		var current model.BookingStatus
		err := r.pool.QueryRow(ctx, `SELECT status FROM bookings WHERE id = $1`, id).Scan(&current)
		if err == pgx.ErrNoRows {
			return model.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("transition booking: read status: %w", err)
		}
		return model.ErrInvalidTransition
	}

	return nil
}

// GetByID returns the booking, or nil if the id is unknown.
func (r *BookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	booking, err := scanBooking(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get booking by id: %w", err)
	}

	return booking, nil
}

// GetActive returns the booking occupying the cell, or nil if it is free.
func (r *BookingRepository) GetActive(ctx context.Context, cell model.Cell) (*model.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE mentor_id = $1 AND session_date = $2 AND start_minute = $3
		  AND status IN ('pending', 'confirmed')
		LIMIT 1
	`

	booking, err := scanBooking(r.pool.QueryRow(ctx, query, cell.MentorID, cell.Date, int(cell.Start)))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get active booking: %w", err)
	}

	return booking, nil
}

// ActiveCells returns the cells with an active booking for the mentor within
// [from, to] (dates inclusive).
func (r *BookingRepository) ActiveCells(ctx context.Context, mentorID int64, from, to time.Time) (map[model.Cell]bool, error) {
	query := `
		SELECT session_date, start_minute
		FROM bookings
		WHERE mentor_id = $1 AND session_date BETWEEN $2 AND $3
		  AND status IN ('pending', 'confirmed')
	`

	rows, err := r.pool.Query(ctx, query, mentorID, from, to)
	if err != nil {
		return nil, fmt.Errorf("get active cells: %w", err)
	}
	defer rows.Close()

	out := make(map[model.Cell]bool)
	for rows.Next() {
		var date time.Time
		var start int
		if err := rows.Scan(&date, &start); err != nil {
			return nil, fmt.Errorf("scan active cell: %w", err)
		}
		out[model.Cell{MentorID: mentorID, Date: model.DateOf(date), Start: model.TimeOfDay(start)}] = true
	}

	return out, rows.Err()
}

// ListByMentor returns all bookings for the mentor, newest first.
func (r *BookingRepository) ListByMentor(ctx context.Context, mentorID int64) ([]*model.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE mentor_id = $1
		ORDER BY created_at DESC
	`
	return r.listBookings(ctx, query, mentorID)
}

// ListByMentee returns all bookings for the mentee, newest first.
func (r *BookingRepository) ListByMentee(ctx context.Context, menteeID int64) ([]*model.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE mentee_id = $1
		ORDER BY created_at DESC
	`
	return r.listBookings(ctx, query, menteeID)
}

// ListPendingByMentor returns the mentor's pending requests, newest first.
func (r *BookingRepository) ListPendingByMentor(ctx context.Context, mentorID int64) ([]*model.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE mentor_id = $1 AND status = 'pending'
		ORDER BY created_at DESC
	`
	return r.listBookings(ctx, query, mentorID)
}

// ListConfirmedEndingBefore returns confirmed bookings whose session end is
// before t. The date filter narrows the scan; the exact end-time comparison
// happens in Go because the end instant depends on the service location.
func (r *BookingRepository) ListConfirmedEndingBefore(ctx context.Context, t time.Time) ([]*model.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE status = 'confirmed' AND session_date <= $1
		ORDER BY session_date, start_minute
	`

	candidates, err := r.listBookings(ctx, query, t)
	if err != nil {
		return nil, err
	}

	var out []*model.Booking
	for _, b := range candidates {
		if b.EndAt().Before(t) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *BookingRepository) listBookings(ctx context.Context, query string, args ...any) ([]*model.Booking, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*model.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, booking)
	}

	return bookings, rows.Err()
}

func scanBooking(row pgx.Row) (*model.Booking, error) {
	var booking model.Booking
	var start int
	err := row.Scan(
		&booking.ID,
		&booking.MentorID,
		&booking.MenteeID,
		&booking.Date,
		&start,
		&booking.DurationMinutes,
		&booking.SessionType,
		&booking.Notes,
		&booking.Status,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	booking.Start = model.TimeOfDay(start)
	booking.Date = model.DateOf(booking.Date)
	return &booking, nil
}

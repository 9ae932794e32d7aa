package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mentorhub/booking/internal/model"
)

type AvailabilityRepository struct {
	pool *pgxpool.Pool
}

func NewAvailabilityRepository(pool *pgxpool.Pool) *AvailabilityRepository {
	return &AvailabilityRepository{pool: pool}
}

// ReplaceDay replaces the mentor's full slot set for one weekday in a single
// transaction.
func (r *AvailabilityRepository) ReplaceDay(ctx context.Context, mentorID int64, weekday time.Weekday, slots []model.WeekdaySlot) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`DELETE FROM availability_slots WHERE mentor_id = $1 AND weekday = $2`,
		mentorID, int(weekday),
	)
	if err != nil {
		return fmt.Errorf("clear availability: %w", err)
	}

	for _, slot := range slots {
		_, err = tx.Exec(ctx, `
			INSERT INTO availability_slots (mentor_id, weekday, start_minute, duration_minutes)
			VALUES ($1, $2, $3, $4)
		`, slot.MentorID, int(slot.Weekday), int(slot.Start), slot.DurationMinutes)
		if err != nil {
			return fmt.Errorf("insert availability slot: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// DaySlots returns the mentor's slots for one weekday, ordered by start time.
func (r *AvailabilityRepository) DaySlots(ctx context.Context, mentorID int64, weekday time.Weekday) ([]model.WeekdaySlot, error) {
	query := `
		SELECT mentor_id, weekday, start_minute, duration_minutes
		FROM availability_slots
		WHERE mentor_id = $1 AND weekday = $2
		ORDER BY start_minute
	`
	return r.listSlots(ctx, query, mentorID, int(weekday))
}

// WeekSlots returns all of the mentor's template slots across the week.
func (r *AvailabilityRepository) WeekSlots(ctx context.Context, mentorID int64) ([]model.WeekdaySlot, error) {
	query := `
		SELECT mentor_id, weekday, start_minute, duration_minutes
		FROM availability_slots
		WHERE mentor_id = $1
		ORDER BY weekday, start_minute
	`
	return r.listSlots(ctx, query, mentorID)
}

// GetSlot returns the template slot at (weekday, start), or nil if the
// mentor has not declared it.
func (r *AvailabilityRepository) GetSlot(ctx context.Context, mentorID int64, weekday time.Weekday, start model.TimeOfDay) (*model.WeekdaySlot, error) {
	query := `
		SELECT mentor_id, weekday, start_minute, duration_minutes
		FROM availability_slots
		WHERE mentor_id = $1 AND weekday = $2 AND start_minute = $3
	`

	var slot model.WeekdaySlot
	var weekdayInt, start2 int
	err := r.pool.QueryRow(ctx, query, mentorID, int(weekday), int(start)).Scan(
		&slot.MentorID, &weekdayInt, &start2, &slot.DurationMinutes,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get availability slot: %w", err)
	}
	slot.Weekday = time.Weekday(weekdayInt)
	slot.Start = model.TimeOfDay(start2)

	return &slot, nil
}

func (r *AvailabilityRepository) listSlots(ctx context.Context, query string, args ...any) ([]model.WeekdaySlot, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list availability slots: %w", err)
	}
	defer rows.Close()

	var slots []model.WeekdaySlot
	for rows.Next() {
		var slot model.WeekdaySlot
		var weekday, start int
		if err := rows.Scan(&slot.MentorID, &weekday, &start, &slot.DurationMinutes); err != nil {
			return nil, fmt.Errorf("scan availability slot: %w", err)
		}
		slot.Weekday = time.Weekday(weekday)
		slot.Start = model.TimeOfDay(start)
		slots = append(slots, slot)
	}

	return slots, rows.Err()
}

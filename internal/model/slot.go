package model

import "time"

// WeekdaySlot is one bookable interval in a mentor's recurring weekly
// template. It is a template, not an instance: concrete bookable cells are
// derived from it by combining the weekday with calendar dates.
type WeekdaySlot struct {
	MentorID        int64        `json:"mentor_id"`
	Weekday         time.Weekday `json:"weekday"`
	Start           TimeOfDay    `json:"start"`
	DurationMinutes int          `json:"duration_minutes"`
}

// Cell is a concrete (mentor, calendar date, start time) instance derived
// from a WeekdaySlot. The booking ledger keys occupancy by cell.
type Cell struct {
	MentorID int64     `json:"mentor_id"`
	Date     time.Time `json:"date"` // midnight UTC, see DateOf
	Start    TimeOfDay `json:"start"`
}

// StartAt returns the cell's start instant.
func (c Cell) StartAt() time.Time {
	return c.Start.On(c.Date)
}

// DateOf normalizes an instant to its calendar date at midnight UTC. All
// booking dates pass through this so that cells compare equal regardless of
// where the original time.Time came from. The service treats all wall-clock
// times as UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

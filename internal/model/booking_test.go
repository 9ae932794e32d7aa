package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBookingStatusActive(t *testing.T) {
	assert.True(t, BookingStatusPending.Active())
	assert.True(t, BookingStatusConfirmed.Active())
	assert.False(t, BookingStatusDeclined.Active())
	assert.False(t, BookingStatusCancelled.Active())
	assert.False(t, BookingStatusCompleted.Active())
}

func TestBookingStatusTerminal(t *testing.T) {
	assert.False(t, BookingStatusPending.Terminal())
	assert.False(t, BookingStatusConfirmed.Terminal())
	assert.True(t, BookingStatusDeclined.Terminal())
	assert.True(t, BookingStatusCancelled.Terminal())
	assert.True(t, BookingStatusCompleted.Terminal())
}

func TestSessionTypeValid(t *testing.T) {
	assert.True(t, SessionTypeCareer.Valid())
	assert.True(t, SessionTypeCode.Valid())
	assert.True(t, SessionTypeTechnical.Valid())
	assert.False(t, SessionType("yoga").Valid())
	assert.False(t, SessionType("").Valid())
}

func TestBookingTimes(t *testing.T) {
	b := &Booking{
		MentorID:        1,
		MenteeID:        2,
		Date:            time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC),
		Start:           540,
		DurationMinutes: 30,
	}

	assert.Equal(t, time.Date(2026, 9, 7, 9, 0, 0, 0, time.UTC), b.StartAt())
	assert.Equal(t, time.Date(2026, 9, 7, 9, 30, 0, 0, time.UTC), b.EndAt())
	assert.Equal(t, Cell{MentorID: 1, Date: b.Date, Start: 540}, b.Cell())

	assert.True(t, b.IsParty(1))
	assert.True(t, b.IsParty(2))
	assert.False(t, b.IsParty(3))
}

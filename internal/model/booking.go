package model

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"   // waiting for the mentor's decision
	BookingStatusConfirmed BookingStatus = "confirmed" // approved by the mentor
	BookingStatusDeclined  BookingStatus = "declined"  // rejected by the mentor
	BookingStatusCancelled BookingStatus = "cancelled" // withdrawn by either party
	BookingStatusCompleted BookingStatus = "completed" // session time elapsed
)

// Active reports whether the status occupies its cell in the ledger.
func (s BookingStatus) Active() bool {
	return s == BookingStatusPending || s == BookingStatusConfirmed
}

// Terminal reports whether no further transition is permitted.
func (s BookingStatus) Terminal() bool {
	return s == BookingStatusDeclined || s == BookingStatusCancelled || s == BookingStatusCompleted
}

type SessionType string

const (
	SessionTypeCareer    SessionType = "career"
	SessionTypeCode      SessionType = "code"
	SessionTypeTechnical SessionType = "technical"
)

func (t SessionType) Valid() bool {
	switch t {
	case SessionTypeCareer, SessionTypeCode, SessionTypeTechnical:
		return true
	}
	return false
}

// Booking is a mentee's request to occupy one concrete cell of a mentor's
// calendar, and the authoritative record of the resulting session.
type Booking struct {
	ID              uuid.UUID     `json:"id"`
	MentorID        int64         `json:"mentor_id"`
	MenteeID        int64         `json:"mentee_id"`
	Date            time.Time     `json:"date"`
	Start           TimeOfDay     `json:"start"`
	DurationMinutes int           `json:"duration_minutes"`
	SessionType     SessionType   `json:"session_type"`
	Notes           string        `json:"notes,omitempty"`
	Status          BookingStatus `json:"status"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// Cell returns the ledger cell this booking occupies.
func (b *Booking) Cell() Cell {
	return Cell{MentorID: b.MentorID, Date: b.Date, Start: b.Start}
}

// StartAt returns the session's start instant.
func (b *Booking) StartAt() time.Time {
	return b.Start.On(b.Date)
}

// EndAt returns the session's end instant.
func (b *Booking) EndAt() time.Time {
	return b.StartAt().Add(time.Duration(b.DurationMinutes) * time.Minute)
}

// IsParty reports whether userID is the mentor or the mentee on the booking.
func (b *Booking) IsParty(userID int64) bool {
	return b.MentorID == userID || b.MenteeID == userID
}

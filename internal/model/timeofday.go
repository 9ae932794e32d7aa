package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimeOfDay is a wall-clock time with minute precision, stored as minutes
// since midnight. Slot start times are always a TimeOfDay so they can be
// compared and used as map keys without caring about dates or zones.
type TimeOfDay int

// ParseTimeOfDay parses "HH:MM" (24-hour). The whole input must be the
// time; trailing garbage or a seconds component is an error.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	hh, mm, ok := strings.Cut(s, ":")
	if !ok {
		return 0, fmt.Errorf("time of day %q is not HH:MM", s)
	}
	hour, err := strconv.Atoi(hh)
	if err != nil {
		return 0, fmt.Errorf("parse time of day %q: %w", s, err)
	}
	minute, err := strconv.Atoi(mm)
	if err != nil {
		return 0, fmt.Errorf("parse time of day %q: %w", s, err)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("time of day %q out of range", s)
	}
	return TimeOfDay(hour*60 + minute), nil
}

func (t TimeOfDay) Hour() int   { return int(t) / 60 }
func (t TimeOfDay) Minute() int { return int(t) % 60 }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// Aligned reports whether t falls on a multiple of the given granularity.
func (t TimeOfDay) Aligned(granularityMinutes int) bool {
	if granularityMinutes <= 0 {
		return false
	}
	return int(t)%granularityMinutes == 0
}

// On combines t with a calendar date into an instant in the date's location.
func (t TimeOfDay) On(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, date.Location())
}

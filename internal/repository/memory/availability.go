package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mentorhub/booking/internal/model"
)

// AvailabilityStore holds mentors' weekly templates in process memory.
type AvailabilityStore struct {
	mu    sync.RWMutex
	slots map[int64]map[time.Weekday][]model.WeekdaySlot
}

func NewAvailabilityStore() *AvailabilityStore {
	return &AvailabilityStore{slots: make(map[int64]map[time.Weekday][]model.WeekdaySlot)}
}

// ReplaceDay replaces the mentor's full slot set for one weekday.
func (s *AvailabilityStore) ReplaceDay(ctx context.Context, mentorID int64, weekday time.Weekday, slots []model.WeekdaySlot) error {
	sorted := make([]model.WeekdaySlot, len(slots))
	copy(sorted, slots)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	s.mu.Lock()
	defer s.mu.Unlock()

	week := s.slots[mentorID]
	if week == nil {
		week = make(map[time.Weekday][]model.WeekdaySlot)
		s.slots[mentorID] = week
	}
	if len(sorted) == 0 {
		delete(week, weekday)
		return nil
	}
	week[weekday] = sorted
	return nil
}

// DaySlots returns the mentor's slots for one weekday, ordered by start time.
func (s *AvailabilityStore) DaySlots(ctx context.Context, mentorID int64, weekday time.Weekday) ([]model.WeekdaySlot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	day := s.slots[mentorID][weekday]
	out := make([]model.WeekdaySlot, len(day))
	copy(out, day)
	return out, nil
}

// WeekSlots returns all of the mentor's template slots across the week.
func (s *AvailabilityStore) WeekSlots(ctx context.Context, mentorID int64) ([]model.WeekdaySlot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.WeekdaySlot
	for _, day := range s.slots[mentorID] {
		out = append(out, day...)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Weekday != out[j].Weekday {
			return out[i].Weekday < out[j].Weekday
		}
		return out[i].Start < out[j].Start
	})
	return out, nil
}

// GetSlot returns the template slot at (weekday, start), or nil if the
// mentor has not declared it.
func (s *AvailabilityStore) GetSlot(ctx context.Context, mentorID int64, weekday time.Weekday, start model.TimeOfDay) (*model.WeekdaySlot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, slot := range s.slots[mentorID][weekday] {
		if slot.Start == start {
			copied := slot
			return &copied, nil
		}
	}
	return nil, nil
}

package availability

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"
)

var (
	ErrInvalidTimeRange = errors.New("availability: time must look like \"9:00 PM - 10:00 PM\"")
	ErrInvalidPrice     = errors.New("availability: price must be a positive integer")
	ErrDuplicateTime    = errors.New("availability: slot time already taken")
	ErrSlotNotFound     = errors.New("availability: slot not found")
	ErrNotFound         = errors.New("availability: schedule not found")
	ErrNoSlots          = errors.New("availability: at least one slot is required")
)

// SlotType says where the session happens.
type SlotType string

const (
	TypeOnline      SlotType = "Online"
	TypeHomeTuition SlotType = "Home Tuition"
)

var timeRangePattern = regexp.MustCompile(
	`^(0?[1-9]|1[0-2]):[0-5][0-9] ([APap][Mm])\s*-\s*(0?[1-9]|1[0-2]):[0-5][0-9] ([APap][Mm])$`)

// Slot is one bookable time window. Its ID doubles as the identity of the
// chat room that opens once a request against it is accepted.
type Slot struct {
	ID    string
	Time  string
	Price int
	Type  SlotType
}

// Schedule is a mentor's published slot collection, one document per mentor.
type Schedule struct {
	MentorID  string
	Slots     []Slot
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Repository interface {
	ByMentor(ctx context.Context, mentorID string) (*Schedule, error)
	// BySlot finds the schedule containing the given slot id.
	BySlot(ctx context.Context, slotID string) (*Schedule, error)
	Save(ctx context.Context, schedule *Schedule) error
}

// ValidateSlot normalizes and checks a slot before it enters a schedule.
func ValidateSlot(slot *Slot) error {
	slot.Time = strings.TrimSpace(slot.Time)
	if !timeRangePattern.MatchString(slot.Time) {
		return ErrInvalidTimeRange
	}
	if slot.Price <= 0 {
		return ErrInvalidPrice
	}
	if slot.Type == "" {
		slot.Type = TypeOnline
	}
	if slot.Type != TypeOnline && slot.Type != TypeHomeTuition {
		return errors.New("availability: unknown slot type " + string(slot.Type))
	}
	return nil
}

// Add appends new slots, rejecting any whose time collides with an
// existing slot.
func (s *Schedule) Add(slots []Slot, now time.Time) error {
	if len(slots) == 0 {
		return ErrNoSlots
	}
	taken := make(map[string]struct{}, len(s.Slots))
	for _, existing := range s.Slots {
		taken[existing.Time] = struct{}{}
	}
	for i := range slots {
		if err := ValidateSlot(&slots[i]); err != nil {
			return err
		}
		if _, dup := taken[slots[i].Time]; dup {
			return ErrDuplicateTime
		}
		taken[slots[i].Time] = struct{}{}
	}
	s.Slots = append(s.Slots, slots...)
	s.UpdatedAt = now.UTC()
	return nil
}

// Find returns the slot with the given id.
func (s *Schedule) Find(slotID string) (Slot, bool) {
	for _, slot := range s.Slots {
		if slot.ID == slotID {
			return slot, true
		}
	}
	return Slot{}, false
}

// Update replaces the time, price and type of an existing slot.
func (s *Schedule) Update(slotID string, updated Slot, now time.Time) error {
	if err := ValidateSlot(&updated); err != nil {
		return err
	}
	for i := range s.Slots {
		if s.Slots[i].ID == slotID {
			s.Slots[i].Time = updated.Time
			s.Slots[i].Price = updated.Price
			s.Slots[i].Type = updated.Type
			s.UpdatedAt = now.UTC()
			return nil
		}
	}
	return ErrSlotNotFound
}

// Remove deletes a slot from the schedule.
func (s *Schedule) Remove(slotID string, now time.Time) error {
	for i := range s.Slots {
		if s.Slots[i].ID == slotID {
			s.Slots = append(s.Slots[:i], s.Slots[i+1:]...)
			s.UpdatedAt = now.UTC()
			return nil
		}
	}
	return ErrSlotNotFound
}

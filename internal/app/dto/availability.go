package dto

import (
	"time"

	"nepalmentor/internal/domain/availability"
)

// Slot is one published time window.
type Slot struct {
	ID    string `json:"id"`
	Time  string `json:"time"`
	Price int    `json:"price"`
	Type  string `json:"type"`
}

// Schedule is a mentor's slot collection.
type Schedule struct {
	MentorID  string    `json:"mentor_id"`
	Slots     []Slot    `json:"slots"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SlotLookup pairs a slot with its owning mentor.
type SlotLookup struct {
	Slot     Slot   `json:"slot"`
	MentorID string `json:"mentor_id"`
}

func NewSchedule(s *availability.Schedule) Schedule {
	out := Schedule{
		MentorID:  s.MentorID,
		Slots:     make([]Slot, 0, len(s.Slots)),
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
	for _, slot := range s.Slots {
		out.Slots = append(out.Slots, NewSlot(slot))
	}
	return out
}

func NewSlot(slot availability.Slot) Slot {
	return Slot{
		ID:    slot.ID,
		Time:  slot.Time,
		Price: slot.Price,
		Type:  string(slot.Type),
	}
}

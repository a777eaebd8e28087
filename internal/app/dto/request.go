package dto

import (
	"time"

	"nepalmentor/internal/domain/request"
)

// Request is a mentorship request payload.
type Request struct {
	ID        string    `json:"id"`
	MenteeID  string    `json:"mentee_id"`
	MentorID  string    `json:"mentor_id"`
	SlotID    string    `json:"slot_id"`
	SlotLabel string    `json:"slot,omitempty"`
	Note      string    `json:"message,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewRequest(r *request.Request) Request {
	return Request{
		ID:        r.ID,
		MenteeID:  r.MenteeID,
		MentorID:  r.MentorID,
		SlotID:    r.SlotID,
		SlotLabel: r.SlotLabel,
		Note:      r.Note,
		Status:    string(r.Status),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func NewRequests(rs []*request.Request) []Request {
	out := make([]Request, 0, len(rs))
	for _, r := range rs {
		out = append(out, NewRequest(r))
	}
	return out
}

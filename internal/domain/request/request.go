package request

import (
	"context"
	"errors"
	"time"
)

var (
	ErrInvalidStatus = errors.New("request: invalid status transition")
	ErrNotFound      = errors.New("request: not found")
	ErrDuplicate     = errors.New("request: already exists for this mentor and slot")
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

// Request is a mentee's claim on a mentor slot. Accepting it is what opens
// the slot's chat room to the mentee.
type Request struct {
	ID        string
	MenteeID  string
	MentorID  string
	SlotID    string
	SlotLabel string
	Note      string
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Repository interface {
	ByID(ctx context.Context, id string) (*Request, error)
	// ForMentor and ForMentee filter by status; empty status means all.
	ForMentor(ctx context.Context, mentorID string, status Status) ([]*Request, error)
	ForMentee(ctx context.Context, menteeID string, status Status) ([]*Request, error)
	// AcceptedForSlot returns the requester sets of every accepted request
	// against the slot.
	AcceptedForSlot(ctx context.Context, slotID string) ([]Requesters, error)
	// Open reports an existing pending or accepted request for the triple.
	Open(ctx context.Context, mentorID, menteeID, slotID string) (*Request, error)
	Save(ctx context.Context, req *Request) error
	Delete(ctx context.Context, id string) error
}

func New(menteeID, mentorID, slotID, slotLabel, note string, now time.Time) *Request {
	created := now.UTC()
	return &Request{
		MenteeID:  menteeID,
		MentorID:  mentorID,
		SlotID:    slotID,
		SlotLabel: slotLabel,
		Note:      note,
		Status:    StatusPending,
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func (r *Request) Accept(now time.Time) error {
	if r.Status != StatusPending {
		return ErrInvalidStatus
	}
	r.Status = StatusAccepted
	r.UpdatedAt = now.UTC()
	return nil
}

func (r *Request) Reject(now time.Time) error {
	if r.Status != StatusPending {
		return ErrInvalidStatus
	}
	r.Status = StatusRejected
	r.UpdatedAt = now.UTC()
	return nil
}

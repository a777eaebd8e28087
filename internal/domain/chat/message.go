package chat

import (
	"context"
	"errors"
	"time"
)

var (
	ErrEmptyBody            = errors.New("chat: message body is empty")
	ErrAppendFailed         = errors.New("chat: message append failed")
	ErrDirectoryUnavailable = errors.New("chat: directory unavailable")
)

// Role is the capacity in which a user was admitted to a room.
type Role string

const (
	RoleMentor Role = "mentor"
	RoleMentee Role = "mentee"
)

// Message is one persisted chat entry. Messages are immutable once appended;
// CreatedAt is assigned at persistence time and strictly increases per slot.
type Message struct {
	ID         string
	SlotID     string
	SenderID   string
	ReceiverID string
	Body       string
	CreatedAt  time.Time
}

// Sender holds the display attributes resolved from the user directory.
type Sender struct {
	ID        string
	FirstName string
	LastName  string
	Role      string
}

// PopulatedMessage is a message with its sender attributes resolved, the
// shape both surfaces return to clients.
type PopulatedMessage struct {
	Message
	Sender Sender
}

// Store is the durable append-only message log keyed by slot.
type Store interface {
	// Append persists the message exactly as given and returns the stored
	// copy. ID and CreatedAt are assigned by the caller before the append
	// so both backends share one ordering authority.
	Append(ctx context.Context, msg Message) (Message, error)
	// History returns messages for the slot ascending by creation time.
	// limit <= 0 means the full log.
	History(ctx context.Context, slotID string, limit int) ([]Message, error)
}

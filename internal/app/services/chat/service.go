package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	domainchat "nepalmentor/internal/domain/chat"
	"nepalmentor/internal/domain/user"
)

// Events receives best-effort notifications after durable writes.
type Events interface {
	Publish(ctx context.Context, event, key string, payload any) error
}

// MessageAppended is the payload published after each persisted message.
type MessageAppended struct {
	MessageID  string    `json:"message_id"`
	SlotID     string    `json:"slot_id"`
	SenderID   string    `json:"sender_id"`
	ReceiverID string    `json:"receiver_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Service is the single funnel both chat surfaces go through: it resolves
// access, replays history and appends messages with a store-assigned,
// per-slot serialized order.
type Service struct {
	Resolver    *Resolver
	Store       domainchat.Store
	Users       user.Repository
	Events      Events
	Logger      *slog.Logger
	CallTimeout time.Duration

	mu    sync.Mutex
	slots map[string]*slotOrder
}

// slotOrder serializes appends for one slot and carries the high-water
// timestamp that keeps CreatedAt strictly increasing.
type slotOrder struct {
	mu     sync.Mutex
	lastAt time.Time
}

// Resolve runs the access resolver under the configured call timeout.
func (s *Service) Resolve(ctx context.Context, slotID, userID string) (domainchat.Role, error) {
	callCtx, cancel := s.wrapCall(ctx)
	defer cancel()
	role, err := s.Resolver.Resolve(callCtx, slotID, userID)
	if err != nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		// A timed-out check is "could not check", never a deny.
		return "", fmt.Errorf("%w: resolve timed out", domainchat.ErrDirectoryUnavailable)
	}
	return role, err
}

// History returns the slot's full message log ascending by creation time,
// with sender display attributes resolved. limit <= 0 returns everything.
func (s *Service) History(ctx context.Context, slotID string, limit int) ([]domainchat.PopulatedMessage, error) {
	callCtx, cancel := s.wrapCall(ctx)
	defer cancel()
	messages, err := s.Store.History(callCtx, slotID, limit)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	senders := make(map[string]domainchat.Sender, 4)
	populated := make([]domainchat.PopulatedMessage, 0, len(messages))
	for _, msg := range messages {
		sender, ok := senders[msg.SenderID]
		if !ok {
			sender, err = s.sender(ctx, msg.SenderID)
			if err != nil {
				return nil, err
			}
			senders[msg.SenderID] = sender
		}
		populated = append(populated, domainchat.PopulatedMessage{Message: msg, Sender: sender})
	}
	return populated, nil
}

// Append validates, durably persists and decorates one message. It never
// fans out; delivery is the caller's concern and a fan-out failure must not
// undo the append. A returned error means the message is not stored and the
// sender must not be told it was delivered.
func (s *Service) Append(ctx context.Context, slotID, senderID, receiverID, body string) (domainchat.PopulatedMessage, error) {
	if strings.TrimSpace(body) == "" {
		return domainchat.PopulatedMessage{}, domainchat.ErrEmptyBody
	}
	if !domainchat.ValidID(slotID) || !domainchat.ValidID(senderID) {
		return domainchat.PopulatedMessage{}, &domainchat.AccessDenied{Reason: domainchat.DenyInvalidIdentifier}
	}
	if receiverID != "" && !domainchat.ValidID(receiverID) {
		return domainchat.PopulatedMessage{}, &domainchat.AccessDenied{Reason: domainchat.DenyInvalidIdentifier}
	}

	order := s.slotOrder(slotID)
	order.mu.Lock()
	now := time.Now().UTC()
	// Strictly increasing per slot: equal timestamps would leave replay
	// order to the store's tie-breaking.
	if !now.After(order.lastAt) {
		now = order.lastAt.Add(time.Nanosecond)
	}
	order.lastAt = now

	msg := domainchat.Message{
		ID:         uuid.NewString(),
		SlotID:     slotID,
		SenderID:   senderID,
		ReceiverID: receiverID,
		Body:       body,
		CreatedAt:  now,
	}
	callCtx, cancel := s.wrapCall(ctx)
	stored, err := s.Store.Append(callCtx, msg)
	cancel()
	order.mu.Unlock()
	if err != nil {
		return domainchat.PopulatedMessage{}, fmt.Errorf("%w: %v", domainchat.ErrAppendFailed, err)
	}

	s.publishAppended(ctx, stored)

	sender, err := s.sender(ctx, stored.SenderID)
	if err != nil {
		// The append is durable; a directory hiccup must not make the
		// sender believe the message was lost.
		s.logWarn("sender lookup failed after append", "message_id", stored.ID, "sender_id", stored.SenderID, "error", err)
		sender = domainchat.Sender{ID: stored.SenderID}
	}
	return domainchat.PopulatedMessage{Message: stored, Sender: sender}, nil
}

// sender resolves display attributes; an unknown user degrades to a bare id
// so old messages from deleted accounts still render.
func (s *Service) sender(ctx context.Context, senderID string) (domainchat.Sender, error) {
	callCtx, cancel := s.wrapCall(ctx)
	defer cancel()
	u, err := s.Users.ByID(callCtx, senderID)
	if errors.Is(err, user.ErrNotFound) {
		return domainchat.Sender{ID: senderID}, nil
	}
	if err != nil {
		return domainchat.Sender{}, fmt.Errorf("%w: user lookup: %v", domainchat.ErrDirectoryUnavailable, err)
	}
	return domainchat.Sender{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      string(u.Role),
	}, nil
}

func (s *Service) publishAppended(ctx context.Context, msg domainchat.Message) {
	if s.Events == nil {
		return
	}
	payload := MessageAppended{
		MessageID:  msg.ID,
		SlotID:     msg.SlotID,
		SenderID:   msg.SenderID,
		ReceiverID: msg.ReceiverID,
		CreatedAt:  msg.CreatedAt,
	}
	if err := s.Events.Publish(ctx, "chat.message.appended", msg.SlotID, payload); err != nil {
		s.logWarn("event publish failed", "event", "chat.message.appended", "message_id", msg.ID, "error", err)
	}
}

func (s *Service) slotOrder(slotID string) *slotOrder {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.slots == nil {
		s.slots = make(map[string]*slotOrder)
	}
	order, ok := s.slots[slotID]
	if !ok {
		order = &slotOrder{}
		s.slots[slotID] = order
	}
	return order
}

func (s *Service) wrapCall(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if s.CallTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.CallTimeout)
}

func (s *Service) logWarn(msg string, args ...any) {
	if s.Logger != nil {
		s.Logger.Warn(msg, args...)
	}
}

package realtime

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"nepalmentor/internal/app/dto"
	chatservice "nepalmentor/internal/app/services/chat"
	domainchat "nepalmentor/internal/domain/chat"
)

// Send-failure reasons beyond the resolver's deny codes.
const (
	ReasonNotJoined   = "not-joined"
	ReasonEmptyBody   = "empty-message-body"
	ReasonAppend      = "append-failed"
	ReasonUnavailable = "directory-unavailable"
)

type sessionState int

const (
	stateUnjoined sessionState = iota
	stateJoined
	stateClosed
)

// Session is the dispatcher's per-connection state: Unjoined until an
// allowed join, Joined while bound to a room (re-join rebinds), Closed on
// disconnect and terminal.
type Session struct {
	peer Peer

	mu     sync.Mutex
	state  sessionState
	slotID string
	userID string
}

func NewSession(p Peer) *Session {
	return &Session{peer: p}
}

// Dispatcher is the per-connection protocol handler in front of the chat
// service and the session registry.
type Dispatcher struct {
	Chat     *chatservice.Service
	Registry *Registry
	Logger   *slog.Logger

	// HistoryLimit caps the replay sent on join; <= 0 replays everything.
	HistoryLimit int
}

// HandleEvent routes one inbound frame. Unknown types are dropped with a log
// line; a malformed frame never terminates the connection.
func (d *Dispatcher) HandleEvent(ctx context.Context, sess *Session, evt ClientEvent) {
	switch evt.Type {
	case EventJoin:
		d.join(ctx, sess, evt.SlotID, evt.UserID)
	case EventSend:
		d.send(ctx, sess, evt)
	default:
		d.logDebug("unknown event dropped", "type", evt.Type, "peer_id", sess.peer.ID())
	}
}

// join authorizes, registers and replays history. The membership is
// committed only after the resolver allows and only if the connection is
// still live, so a disconnect racing a slow lookup never leaves a dangling
// room member. A join only sticks once the replay is delivered; a failed
// replay unwinds the membership so client and server agree the join did
// not happen.
func (d *Dispatcher) join(ctx context.Context, sess *Session, slotID, userID string) {
	sess.mu.Lock()
	if sess.state == stateClosed {
		sess.mu.Unlock()
		return
	}
	sess.mu.Unlock()

	role, err := d.Chat.Resolve(ctx, slotID, userID)
	if err != nil {
		if reason, ok := domainchat.Denied(err); ok {
			d.deliver(sess, ServerEvent{Type: EventJoinDenied, Reason: string(reason)})
			return
		}
		d.logWarn("join check failed", "slot_id", slotID, "user_id", userID, "error", err)
		d.deliver(sess, ServerEvent{Type: EventJoinFailed, Reason: ReasonUnavailable})
		return
	}

	sess.mu.Lock()
	if sess.state == stateClosed || !sess.peer.Live() {
		sess.mu.Unlock()
		return
	}
	sess.state = stateJoined
	sess.slotID = slotID
	sess.userID = userID
	d.Registry.Join(slotID, sess.peer)
	sess.mu.Unlock()

	history, err := d.Chat.History(ctx, slotID, d.HistoryLimit)
	if err != nil {
		// The client is told "could not check, try again", so the server
		// must agree: a member that never saw its replay is rolled back
		// out of the room instead of silently receiving fan-outs.
		sess.mu.Lock()
		if sess.state == stateJoined {
			sess.state = stateUnjoined
			sess.slotID = ""
			sess.userID = ""
			d.Registry.Leave(sess.peer)
		}
		sess.mu.Unlock()
		d.logWarn("history replay failed", "slot_id", slotID, "user_id", userID, "error", err)
		d.deliver(sess, ServerEvent{Type: EventJoinFailed, Reason: ReasonUnavailable})
		return
	}
	d.deliver(sess, ServerEvent{
		Type:     EventHistory,
		Role:     string(role),
		Messages: dto.NewChatMessages(history),
	})
	d.logInfo("peer joined room", "slot_id", slotID, "user_id", userID, "role", role, "peer_id", sess.peer.ID())
}

// send persists through the chat service then fans the populated message out
// to every current room member, the sender included. A member whose
// transport is already dead is dropped silently: delivery is best-effort,
// the append already happened and stays.
func (d *Dispatcher) send(ctx context.Context, sess *Session, evt ClientEvent) {
	sess.mu.Lock()
	if sess.state != stateJoined {
		sess.mu.Unlock()
		d.deliver(sess, ServerEvent{Type: EventSendFailed, Reason: ReasonNotJoined})
		return
	}
	slotID, senderID := sess.slotID, sess.userID
	sess.mu.Unlock()

	msg, err := d.Chat.Append(ctx, slotID, senderID, evt.ReceiverID, evt.Body)
	if err != nil {
		d.deliver(sess, ServerEvent{Type: EventSendFailed, Reason: sendFailureReason(err)})
		return
	}

	d.Broadcast(slotID, dto.NewChatMessage(msg))
}

// Broadcast pushes one populated message to every current member of the
// slot's room. Best-effort: dead members are skipped, never retried.
func (d *Dispatcher) Broadcast(slotID string, payload dto.ChatMessage) {
	for _, member := range d.Registry.Members(slotID) {
		if err := member.Deliver(ServerEvent{Type: EventMessage, Message: &payload}); err != nil {
			d.logDebug("fan-out skipped dead member", "slot_id", slotID, "peer_id", member.ID(), "error", err)
		}
	}
}

// Disconnect moves the session to its terminal state and clears any
// membership. Safe to call more than once.
func (d *Dispatcher) Disconnect(sess *Session) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.state == stateClosed {
		return
	}
	sess.state = stateClosed
	d.Registry.Leave(sess.peer)
}

func sendFailureReason(err error) string {
	if reason, ok := domainchat.Denied(err); ok {
		return string(reason)
	}
	switch {
	case errors.Is(err, domainchat.ErrEmptyBody):
		return ReasonEmptyBody
	case errors.Is(err, domainchat.ErrAppendFailed):
		return ReasonAppend
	default:
		return ReasonUnavailable
	}
}

func (d *Dispatcher) deliver(sess *Session, evt ServerEvent) {
	if err := sess.peer.Deliver(evt); err != nil {
		d.logDebug("deliver failed", "peer_id", sess.peer.ID(), "type", evt.Type, "error", err)
	}
}

func (d *Dispatcher) logInfo(msg string, args ...any) {
	if d.Logger != nil {
		d.Logger.Info(msg, args...)
	}
}

func (d *Dispatcher) logWarn(msg string, args ...any) {
	if d.Logger != nil {
		d.Logger.Warn(msg, args...)
	}
}

func (d *Dispatcher) logDebug(msg string, args ...any) {
	if d.Logger != nil {
		d.Logger.Debug(msg, args...)
	}
}

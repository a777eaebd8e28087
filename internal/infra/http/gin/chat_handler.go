package ginserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	gin "github.com/gin-gonic/gin"

	"nepalmentor/internal/app/dto"
	chatservice "nepalmentor/internal/app/services/chat"
	domainchat "nepalmentor/internal/domain/chat"
	"nepalmentor/internal/infra/realtime"
)

// ChatHTTP exposes the request/response chat surface.
type ChatHTTP interface {
	History(c *gin.Context)
	Send(c *gin.Context)
}

// ChatHandler serves chat over plain HTTP for clients without a live
// connection. It funnels through the same service as the websocket surface,
// so authorization and ordering are identical on both.
type ChatHandler struct {
	Chat   *chatservice.Service
	Relay  *realtime.Dispatcher
	Logger *slog.Logger
}

// History returns the slot's messages in creation order, oldest first.
func (h ChatHandler) History(c *gin.Context) {
	slotID := c.Param("slotId")
	userID := strings.TrimSpace(c.Query("user_id"))
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}

	if _, err := h.Chat.Resolve(c.Request.Context(), slotID, userID); err != nil {
		h.respondChatError(c, err, "resolve", "slot_id", slotID, "user_id", userID)
		return
	}

	limit := parsePositiveInt(c.Query("limit"), 0)
	history, err := h.Chat.History(c.Request.Context(), slotID, limit)
	if err != nil {
		h.respondChatError(c, err, "history", "slot_id", slotID, "user_id", userID)
		return
	}
	c.JSON(http.StatusOK, dto.NewChatMessages(history))
}

// Send authorizes, persists and fans the message out to any live room
// members before replying with the stored copy.
func (h ChatHandler) Send(c *gin.Context) {
	var req struct {
		SlotID     string `json:"slot_id"`
		SenderID   string `json:"sender_id"`
		ReceiverID string `json:"receiver_id"`
		Body       string `json:"body"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	if _, err := h.Chat.Resolve(c.Request.Context(), req.SlotID, req.SenderID); err != nil {
		h.respondChatError(c, err, "resolve", "slot_id", req.SlotID, "user_id", req.SenderID)
		return
	}
	msg, err := h.Chat.Append(c.Request.Context(), req.SlotID, req.SenderID, req.ReceiverID, req.Body)
	if err != nil {
		h.respondChatError(c, err, "append", "slot_id", req.SlotID, "user_id", req.SenderID)
		return
	}

	payload := dto.NewChatMessage(msg)
	if h.Relay != nil {
		h.Relay.Broadcast(req.SlotID, payload)
	}
	c.JSON(http.StatusCreated, payload)
}

func (h ChatHandler) respondChatError(c *gin.Context, err error, action string, attrs ...any) {
	if h.Logger != nil {
		h.Logger.Warn("chat call failed", append([]any{"action", action, "error", err}, attrs...)...)
	}
	if reason, ok := domainchat.Denied(err); ok {
		status := http.StatusForbidden
		if reason == domainchat.DenyInvalidIdentifier {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": "access denied", "reason": string(reason)})
		return
	}
	switch {
	case errors.Is(err, domainchat.ErrEmptyBody):
		c.JSON(http.StatusBadRequest, gin.H{"error": "message body is required"})
	case errors.Is(err, domainchat.ErrDirectoryUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "directory unavailable, retry later"})
	case errors.Is(err, domainchat.ErrAppendFailed):
		c.JSON(http.StatusBadGateway, gin.H{"error": "message not stored"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "chat unavailable"})
	}
}

func parsePositiveInt(raw string, def int) int {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || value <= 0 {
		return def
	}
	return value
}

var _ ChatHTTP = (*ChatHandler)(nil)

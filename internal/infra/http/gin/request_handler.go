package ginserver

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"nepalmentor/internal/app/dto"
	chatservice "nepalmentor/internal/app/services/chat"
	domainchat "nepalmentor/internal/domain/chat"
	domainrequest "nepalmentor/internal/domain/request"
	domainuser "nepalmentor/internal/domain/user"
)

// RequestHTTP exposes mentorship request lifecycle endpoints.
type RequestHTTP interface {
	Create(c *gin.Context)
	ForMentor(c *gin.Context)
	ForMentee(c *gin.Context)
	UpdateStatus(c *gin.Context)
	Delete(c *gin.Context)
}

type RequestHandler struct {
	Requests domainrequest.Repository
	Users    domainuser.Repository
	Events   chatservice.Events
	Logger   *slog.Logger
}

// RequestAccepted is published when a mentor accepts a request, opening the
// slot's chat room to the mentee.
type RequestAccepted struct {
	RequestID string    `json:"request_id"`
	SlotID    string    `json:"slot_id"`
	MentorID  string    `json:"mentor_id"`
	MenteeID  string    `json:"mentee_id"`
	At        time.Time `json:"at"`
}

// Create files a new pending request, refusing duplicates that are still
// pending or already accepted.
func (h RequestHandler) Create(c *gin.Context) {
	var req struct {
		MentorID  string `json:"mentor_id"`
		MenteeID  string `json:"mentee_id"`
		SlotID    string `json:"slot_id"`
		SlotLabel string `json:"slot"`
		Note      string `json:"message"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if !domainchat.ValidID(req.MentorID) || !domainchat.ValidID(req.MenteeID) || !domainchat.ValidID(req.SlotID) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "mentor_id, mentee_id and slot_id are required"})
		return
	}

	ctx := c.Request.Context()
	for _, userID := range []string{req.MenteeID, req.MentorID} {
		if _, err := h.Users.ByID(ctx, userID); err != nil {
			if errors.Is(err, domainuser.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
				return
			}
			h.fail(c, err, "user lookup")
			return
		}
	}

	if _, err := h.Requests.Open(ctx, req.MentorID, req.MenteeID, req.SlotID); err == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "request already exists for this mentor and slot"})
		return
	} else if !errors.Is(err, domainrequest.ErrNotFound) {
		h.fail(c, err, "duplicate check")
		return
	}

	created := domainrequest.New(req.MenteeID, req.MentorID, req.SlotID, req.SlotLabel, req.Note, time.Now())
	created.ID = primitive.NewObjectID().Hex()
	if err := h.Requests.Save(ctx, created); err != nil {
		h.fail(c, err, "save request")
		return
	}
	c.JSON(http.StatusCreated, dto.NewRequest(created))
}

// ForMentor lists a mentor's requests, optionally filtered by status.
func (h RequestHandler) ForMentor(c *gin.Context) {
	h.list(c, func(userID string, status domainrequest.Status) ([]*domainrequest.Request, error) {
		return h.Requests.ForMentor(c.Request.Context(), userID, status)
	})
}

// ForMentee lists a mentee's requests, optionally filtered by status.
func (h RequestHandler) ForMentee(c *gin.Context) {
	h.list(c, func(userID string, status domainrequest.Status) ([]*domainrequest.Request, error) {
		return h.Requests.ForMentee(c.Request.Context(), userID, status)
	})
}

func (h RequestHandler) list(c *gin.Context, find func(string, domainrequest.Status) ([]*domainrequest.Request, error)) {
	userID := c.Param("userId")
	if !domainchat.ValidID(userID) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	status := domainrequest.Status(c.Query("status"))
	switch status {
	case "", domainrequest.StatusPending, domainrequest.StatusAccepted, domainrequest.StatusRejected:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status filter"})
		return
	}
	requests, err := find(userID, status)
	if err != nil {
		h.fail(c, err, "list requests")
		return
	}
	c.JSON(http.StatusOK, dto.NewRequests(requests))
}

// UpdateStatus accepts or rejects a pending request. Acceptance publishes a
// notification event after the durable save.
func (h RequestHandler) UpdateStatus(c *gin.Context) {
	id := c.Param("id")
	if !domainchat.ValidID(id) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request id"})
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	ctx := c.Request.Context()
	stored, err := h.Requests.ByID(ctx, id)
	if err != nil {
		if errors.Is(err, domainrequest.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "request not found"})
			return
		}
		h.fail(c, err, "load request")
		return
	}

	now := time.Now()
	switch domainrequest.Status(req.Status) {
	case domainrequest.StatusAccepted:
		err = stored.Accept(now)
	case domainrequest.StatusRejected:
		err = stored.Reject(now)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "status must be accepted or rejected"})
		return
	}
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "request already decided"})
		return
	}
	if err := h.Requests.Save(ctx, stored); err != nil {
		h.fail(c, err, "save request")
		return
	}

	if stored.Status == domainrequest.StatusAccepted && h.Events != nil {
		payload := RequestAccepted{
			RequestID: stored.ID,
			SlotID:    stored.SlotID,
			MentorID:  stored.MentorID,
			MenteeID:  stored.MenteeID,
			At:        stored.UpdatedAt,
		}
		if err := h.Events.Publish(ctx, "request.accepted", stored.SlotID, payload); err != nil && h.Logger != nil {
			h.Logger.Warn("event publish failed", "event", "request.accepted", "request_id", stored.ID, "error", err)
		}
	}
	c.JSON(http.StatusOK, dto.NewRequest(stored))
}

// Delete removes a request entirely.
func (h RequestHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if !domainchat.ValidID(id) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request id"})
		return
	}
	if err := h.Requests.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, domainrequest.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "request not found"})
			return
		}
		h.fail(c, err, "delete request")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "request deleted"})
}

func (h RequestHandler) fail(c *gin.Context, err error, action string) {
	if h.Logger != nil {
		h.Logger.Error("request call failed", "action", action, "error", err)
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
}

var _ RequestHTTP = (*RequestHandler)(nil)

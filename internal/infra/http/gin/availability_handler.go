package ginserver

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"nepalmentor/internal/app/dto"
	domainavailability "nepalmentor/internal/domain/availability"
	domainchat "nepalmentor/internal/domain/chat"
)

// AvailabilityHTTP exposes mentor slot publishing.
type AvailabilityHTTP interface {
	AddSlots(c *gin.Context)
	ByMentor(c *gin.Context)
	SlotLookup(c *gin.Context)
	UpdateSlot(c *gin.Context)
	DeleteSlot(c *gin.Context)
}

type AvailabilityHandler struct {
	Schedules domainavailability.Repository
	Logger    *slog.Logger
}

type slotPayload struct {
	Time  string `json:"time"`
	Price int    `json:"price"`
	Type  string `json:"type"`
}

// AddSlots appends new slots to the mentor's schedule, creating the
// schedule on first publish.
func (h AvailabilityHandler) AddSlots(c *gin.Context) {
	mentorID := c.Param("userId")
	if !domainchat.ValidID(mentorID) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	var req struct {
		Slots []slotPayload `json:"slots"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Slots) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "an array of time slots is required"})
		return
	}

	now := time.Now()
	ctx := c.Request.Context()
	schedule, err := h.Schedules.ByMentor(ctx, mentorID)
	created := false
	if errors.Is(err, domainavailability.ErrNotFound) {
		schedule = &domainavailability.Schedule{MentorID: mentorID, CreatedAt: now.UTC(), UpdatedAt: now.UTC()}
		created = true
	} else if err != nil {
		h.fail(c, err, "load schedule")
		return
	}

	slots := make([]domainavailability.Slot, 0, len(req.Slots))
	for _, payload := range req.Slots {
		slots = append(slots, domainavailability.Slot{
			ID:    primitive.NewObjectID().Hex(),
			Time:  payload.Time,
			Price: payload.Price,
			Type:  domainavailability.SlotType(payload.Type),
		})
	}
	if err := schedule.Add(slots, now); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.Schedules.Save(ctx, schedule); err != nil {
		h.fail(c, err, "save schedule")
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, dto.NewSchedule(schedule))
}

// ByMentor returns the mentor's published schedule.
func (h AvailabilityHandler) ByMentor(c *gin.Context) {
	schedule, err := h.Schedules.ByMentor(c.Request.Context(), c.Param("userId"))
	if err != nil {
		if errors.Is(err, domainavailability.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "availability not found"})
			return
		}
		h.fail(c, err, "load schedule")
		return
	}
	c.JSON(http.StatusOK, dto.NewSchedule(schedule))
}

// SlotLookup resolves a slot id to its details and owning mentor.
func (h AvailabilityHandler) SlotLookup(c *gin.Context) {
	slotID := c.Param("slotId")
	if !domainchat.ValidID(slotID) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid slot id format"})
		return
	}
	schedule, err := h.Schedules.BySlot(c.Request.Context(), slotID)
	if err != nil {
		if errors.Is(err, domainavailability.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "availability not found"})
			return
		}
		h.fail(c, err, "slot lookup")
		return
	}
	slot, ok := schedule.Find(slotID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "slot not found"})
		return
	}
	c.JSON(http.StatusOK, dto.SlotLookup{Slot: dto.NewSlot(slot), MentorID: schedule.MentorID})
}

// UpdateSlot edits one slot's time, price and type.
func (h AvailabilityHandler) UpdateSlot(c *gin.Context) {
	var req slotPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	ctx := c.Request.Context()
	schedule, err := h.Schedules.ByMentor(ctx, c.Param("userId"))
	if err != nil {
		if errors.Is(err, domainavailability.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "availability not found"})
			return
		}
		h.fail(c, err, "load schedule")
		return
	}
	updated := domainavailability.Slot{Time: req.Time, Price: req.Price, Type: domainavailability.SlotType(req.Type)}
	if err := schedule.Update(c.Param("slotId"), updated, time.Now()); err != nil {
		if errors.Is(err, domainavailability.ErrSlotNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "slot not found"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.Schedules.Save(ctx, schedule); err != nil {
		h.fail(c, err, "save schedule")
		return
	}
	c.JSON(http.StatusOK, dto.NewSchedule(schedule))
}

// DeleteSlot removes one slot from the schedule.
func (h AvailabilityHandler) DeleteSlot(c *gin.Context) {
	ctx := c.Request.Context()
	schedule, err := h.Schedules.ByMentor(ctx, c.Param("userId"))
	if err != nil {
		if errors.Is(err, domainavailability.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "availability not found"})
			return
		}
		h.fail(c, err, "load schedule")
		return
	}
	if err := schedule.Remove(c.Param("slotId"), time.Now()); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "slot not found"})
		return
	}
	if err := h.Schedules.Save(ctx, schedule); err != nil {
		h.fail(c, err, "save schedule")
		return
	}
	c.JSON(http.StatusOK, dto.NewSchedule(schedule))
}

func (h AvailabilityHandler) fail(c *gin.Context, err error, action string) {
	if h.Logger != nil {
		h.Logger.Error("availability call failed", "action", action, "error", err)
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
}

var _ AvailabilityHTTP = (*AvailabilityHandler)(nil)

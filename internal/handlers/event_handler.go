package handlers

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/gravadigital/eventmaster-api/internal/logger"
	"github.com/gravadigital/eventmaster-api/internal/services"
)

type EventHandler struct {
	events *services.EventService
	log    *log.Logger
}

func NewEventHandler(events *services.EventService) *EventHandler {
	return &EventHandler{
		events: events,
		log:    logger.Handler("event"),
	}
}

// GetAllEvents handles GET /api/events
func (h *EventHandler) GetAllEvents(c *gin.Context) {
	events, err := h.events.List(c.Request.Context())
	if err != nil {
		fail(c, h.log, "Failed to list events", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"events": events,
		"count":  len(events),
	})
}

// GetEvent handles GET /api/events/:id
func (h *EventHandler) GetEvent(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	e, err := h.events.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, h.log, "Failed to get event", err)
		return
	}
	c.JSON(http.StatusOK, e)
}

// CreateEvent handles POST /api/events
func (h *EventHandler) CreateEvent(c *gin.Context) {
	var req services.EventInput
	if !bindJSON(c, &req) {
		return
	}

	e, err := h.events.Save(c.Request.Context(), nil, req)
	if err != nil {
		fail(c, h.log, "Failed to create event", err)
		return
	}
	c.JSON(http.StatusCreated, e)
}

// UpdateEvent handles PUT /api/events/:id; the event is created when absent
func (h *EventHandler) UpdateEvent(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req services.EventInput
	if !bindJSON(c, &req) {
		return
	}

	e, err := h.events.Save(c.Request.Context(), &id, req)
	if err != nil {
		fail(c, h.log, "Failed to save event", err)
		return
	}
	c.JSON(http.StatusOK, e)
}

// DeleteEvent handles DELETE /api/events/:id
func (h *EventHandler) DeleteEvent(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.events.Delete(c.Request.Context(), id); err != nil {
		fail(c, h.log, "Failed to delete event", err)
		return
	}
	c.Status(http.StatusNoContent)
}

type DescribeRequest struct {
	Name     string `json:"name" binding:"required"`
	Location string `json:"location"`
}

// DescribeEvent handles POST /api/events/describe
func (h *EventHandler) DescribeEvent(c *gin.Context) {
	var req DescribeRequest
	if !bindJSON(c, &req) {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"description": h.events.Describe(c.Request.Context(), req.Name, req.Location),
	})
}

package handlers

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/gravadigital/eventmaster-api/internal/logger"
	"github.com/gravadigital/eventmaster-api/internal/services"
)

type GuestHandler struct {
	guests   *services.GuestService
	registry *services.RegistryService
	log      *log.Logger
}

func NewGuestHandler(guests *services.GuestService, registry *services.RegistryService) *GuestHandler {
	return &GuestHandler{
		guests:   guests,
		registry: registry,
		log:      logger.Handler("guest"),
	}
}

// ListGuests handles GET /api/guests
func (h *GuestHandler) ListGuests(c *gin.Context) {
	guests, err := h.guests.ListAll(c.Request.Context())
	if err != nil {
		fail(c, h.log, "Failed to list guests", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"guests": guests, "count": len(guests)})
}

// Overview handles GET /api/guests/overview
func (h *GuestHandler) Overview(c *gin.Context) {
	rows, err := h.guests.Overview(c.Request.Context())
	if err != nil {
		fail(c, h.log, "Failed to build guest overview", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"people": rows, "count": len(rows)})
}

// ListEventGuests handles GET /api/events/:id/guests
func (h *GuestHandler) ListEventGuests(c *gin.Context) {
	eventID, ok := pathID(c, "id")
	if !ok {
		return
	}
	guests, err := h.guests.ListByEvent(c.Request.Context(), eventID)
	if err != nil {
		fail(c, h.log, "Failed to list event guests", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"guests": guests, "count": len(guests)})
}

// CreateGuest handles POST /api/events/:id/guests
func (h *GuestHandler) CreateGuest(c *gin.Context) {
	eventID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req services.CreateGuestInput
	if !bindJSON(c, &req) {
		return
	}

	g, err := h.guests.CreateGuest(c.Request.Context(), eventID, req)
	if err != nil {
		fail(c, h.log, "Failed to create guest", err)
		return
	}
	c.JSON(http.StatusCreated, g)
}

// DeleteGuest handles DELETE /api/guests/:id
func (h *GuestHandler) DeleteGuest(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.guests.DeleteGuest(c.Request.Context(), id); err != nil {
		fail(c, h.log, "Failed to delete guest", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListRegistry handles GET /api/registry
func (h *GuestHandler) ListRegistry(c *gin.Context) {
	members, err := h.registry.List(c.Request.Context())
	if err != nil {
		fail(c, h.log, "Failed to list registry", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"members": members, "count": len(members)})
}

// UpsertRegistry handles PUT /api/registry
func (h *GuestHandler) UpsertRegistry(c *gin.Context) {
	var req services.MemberInput
	if !bindJSON(c, &req) {
		return
	}
	m, err := h.registry.Upsert(c.Request.Context(), req)
	if err != nil {
		fail(c, h.log, "Failed to upsert registry member", err)
		return
	}
	c.JSON(http.StatusOK, m)
}

// DeleteRegistry handles DELETE /api/registry/:id
func (h *GuestHandler) DeleteRegistry(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.registry.Delete(c.Request.Context(), id); err != nil {
		fail(c, h.log, "Failed to delete registry member", err)
		return
	}
	c.Status(http.StatusNoContent)
}

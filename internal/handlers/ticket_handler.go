package handlers

import (
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gravadigital/eventmaster-api/internal/logger"
	"github.com/gravadigital/eventmaster-api/internal/services"
	"github.com/gravadigital/eventmaster-api/internal/ticket"
)

// TicketHandler serves the unauthenticated ticket link.
type TicketHandler struct {
	guests *services.GuestService
	log    *log.Logger
}

func NewTicketHandler(guests *services.GuestService) *TicketHandler {
	return &TicketHandler{
		guests: guests,
		log:    logger.Handler("ticket"),
	}
}

func (h *TicketHandler) ticketID(c *gin.Context) (uuid.UUID, bool) {
	raw := c.Param("id")
	if raw == "" {
		raw = c.Query("ticket")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Ticket not found"})
		return uuid.Nil, false
	}
	return id, true
}

// GetTicket handles GET /api/public/tickets?ticket=<id> and GET /api/public/tickets/:id
func (h *TicketHandler) GetTicket(c *gin.Context) {
	id, ok := h.ticketID(c)
	if !ok {
		return
	}
	t, err := h.guests.Ticket(c.Request.Context(), id)
	if err != nil {
		fail(c, h.log, "Failed to resolve ticket", err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// GetTicketQR handles GET /api/public/tickets/:id/qr.png
func (h *TicketHandler) GetTicketQR(c *gin.Context) {
	id, ok := h.ticketID(c)
	if !ok {
		return
	}
	g, err := h.guests.GetGuest(c.Request.Context(), id)
	if err != nil {
		fail(c, h.log, "Failed to resolve ticket", err)
		return
	}

	size := ticket.DefaultRenderSize
	if raw := c.Query("size"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n >= 128 && n <= 2048 {
			size = n
		}
	}

	png, err := ticket.Render(g.QRCodeData, size)
	if err != nil {
		h.log.Error("Failed to render ticket code", "guest_id", g.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render ticket"})
		return
	}
	c.Header("Cache-Control", "public, max-age=86400")
	c.Data(http.StatusOK, "image/png", png)
}

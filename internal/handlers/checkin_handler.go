package handlers

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gravadigital/eventmaster-api/internal/domain/guest"
	"github.com/gravadigital/eventmaster-api/internal/logger"
	authmw "github.com/gravadigital/eventmaster-api/internal/middleware/auth"
	"github.com/gravadigital/eventmaster-api/internal/services"
	"github.com/gravadigital/eventmaster-api/internal/ticket"
)

// maxFrameSize bounds uploaded camera frames.
const maxFrameSize = 8 << 20

type CheckInHandler struct {
	checkin *services.CheckInService
	decoder ticket.FrameDecoder
	log     *log.Logger
}

func NewCheckInHandler(checkin *services.CheckInService, decoder ticket.FrameDecoder) *CheckInHandler {
	return &CheckInHandler{
		checkin: checkin,
		decoder: decoder,
		log:     logger.Handler("checkin"),
	}
}

type ScanRequest struct {
	Payload string `json:"payload"`
}

func statusFor(outcome services.Outcome) int {
	switch outcome {
	case services.OutcomeSuccess:
		return http.StatusOK
	case services.OutcomeAlreadyCheckedIn:
		return http.StatusConflict
	default:
		return http.StatusUnprocessableEntity
	}
}

func (h *CheckInHandler) respond(c *gin.Context, res *services.CheckInResult, err error) {
	if err != nil {
		fail(c, h.log, "Check-in failed", err)
		return
	}
	c.JSON(statusFor(res.Status), res)
}

// Scan handles POST /api/checkin/scan
func (h *CheckInHandler) Scan(c *gin.Context) {
	h.scan(c, nil)
}

// ScanForEvent handles POST /api/events/:id/checkin/scan; codes for other events are rejected
func (h *CheckInHandler) ScanForEvent(c *gin.Context) {
	eventID, ok := pathID(c, "id")
	if !ok {
		return
	}
	h.scan(c, &eventID)
}

func (h *CheckInHandler) scan(c *gin.Context, scope *uuid.UUID) {
	var req ScanRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.checkin.AttemptCheckIn(c.Request.Context(), req.Payload, authmw.CurrentUser(c).Label(), guest.MethodQR, scope)
	h.respond(c, res, err)
}

// ScanImage handles POST /api/checkin/scan-image with a multipart "frame"
// holding a PNG or JPEG camera capture
func (h *CheckInHandler) ScanImage(c *gin.Context) {
	file, header, err := c.Request.FormFile("frame")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "No frame provided",
			"details": err.Error(),
		})
		return
	}
	defer file.Close()

	if header.Size > maxFrameSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Frame exceeds 8MB limit"})
		return
	}

	var scope *uuid.UUID
	if raw := c.Query("event_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "event_id must be a valid UUID"})
			return
		}
		scope = &id
	}

	text, found, err := ticket.DecodeEncoded(h.decoder, file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Frame is not a PNG or JPEG image",
			"details": err.Error(),
		})
		return
	}
	if !found {
		c.JSON(http.StatusUnprocessableEntity, services.CheckInResult{Status: services.OutcomeInvalidCode})
		return
	}

	res, err := h.checkin.AttemptCheckIn(c.Request.Context(), text, authmw.CurrentUser(c).Label(), guest.MethodQR, scope)
	h.respond(c, res, err)
}

// ManualCheckIn handles POST /api/guests/:id/checkin
func (h *CheckInHandler) ManualCheckIn(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	res, err := h.checkin.ManualCheckIn(c.Request.Context(), id, authmw.CurrentUser(c).Label())
	h.respond(c, res, err)
}

package handlers

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/gravadigital/eventmaster-api/internal/logger"
	"github.com/gravadigital/eventmaster-api/internal/services"
)

// DirectoryHandler serves reminders and the staff directory.
type DirectoryHandler struct {
	reminders *services.ReminderService
	staff     *services.StaffService
	log       *log.Logger
}

func NewDirectoryHandler(reminders *services.ReminderService, staff *services.StaffService) *DirectoryHandler {
	return &DirectoryHandler{
		reminders: reminders,
		staff:     staff,
		log:       logger.Handler("directory"),
	}
}

// ListReminders handles GET /api/reminders
func (h *DirectoryHandler) ListReminders(c *gin.Context) {
	reminders, err := h.reminders.List(c.Request.Context())
	if err != nil {
		fail(c, h.log, "Failed to list reminders", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reminders": reminders, "count": len(reminders)})
}

// CreateReminder handles POST /api/reminders
func (h *DirectoryHandler) CreateReminder(c *gin.Context) {
	var in services.ReminderInput
	if !bindJSON(c, &in) {
		return
	}
	r, err := h.reminders.Save(c.Request.Context(), nil, in)
	if err != nil {
		fail(c, h.log, "Failed to create reminder", err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

// UpdateReminder handles PUT /api/reminders/:id
func (h *DirectoryHandler) UpdateReminder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in services.ReminderInput
	if !bindJSON(c, &in) {
		return
	}
	r, err := h.reminders.Save(c.Request.Context(), &id, in)
	if err != nil {
		fail(c, h.log, "Failed to update reminder", err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// ToggleReminder handles POST /api/reminders/:id/toggle
func (h *DirectoryHandler) ToggleReminder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	r, err := h.reminders.Toggle(c.Request.Context(), id)
	if err != nil {
		fail(c, h.log, "Failed to toggle reminder", err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// DeleteReminder handles DELETE /api/reminders/:id
func (h *DirectoryHandler) DeleteReminder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.reminders.Delete(c.Request.Context(), id); err != nil {
		fail(c, h.log, "Failed to delete reminder", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListStaff handles GET /api/staff
func (h *DirectoryHandler) ListStaff(c *gin.Context) {
	users, err := h.staff.List(c.Request.Context())
	if err != nil {
		fail(c, h.log, "Failed to list staff", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users, "count": len(users)})
}

// CreateStaff handles POST /api/staff
func (h *DirectoryHandler) CreateStaff(c *gin.Context) {
	var in services.StaffInput
	if !bindJSON(c, &in) {
		return
	}
	u, err := h.staff.Save(c.Request.Context(), nil, in)
	if err != nil {
		fail(c, h.log, "Failed to create staff entry", err)
		return
	}
	c.JSON(http.StatusCreated, u)
}

// UpdateStaff handles PUT /api/staff/:id
func (h *DirectoryHandler) UpdateStaff(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in services.StaffInput
	if !bindJSON(c, &in) {
		return
	}
	u, err := h.staff.Save(c.Request.Context(), &id, in)
	if err != nil {
		fail(c, h.log, "Failed to update staff entry", err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// DeleteStaff handles DELETE /api/staff/:id
func (h *DirectoryHandler) DeleteStaff(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.staff.Delete(c.Request.Context(), id); err != nil {
		fail(c, h.log, "Failed to delete staff entry", err)
		return
	}
	c.Status(http.StatusNoContent)
}

package handlers

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/gravadigital/eventmaster-api/internal/logger"
	"github.com/gravadigital/eventmaster-api/internal/services"
)

type MediaHandler struct {
	media       *services.MediaService
	maxFileSize int64
	log         *log.Logger
}

func NewMediaHandler(media *services.MediaService, maxFileSize int64) *MediaHandler {
	return &MediaHandler{
		media:       media,
		maxFileSize: maxFileSize,
		log:         logger.Handler("media"),
	}
}

// UploadImage handles POST /api/uploads/images. The file type is decided
// by decoding, not by the declared content type.
func (h *MediaHandler) UploadImage(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "No file provided",
			"details": err.Error(),
		})
		return
	}
	defer file.Close()

	if header.Size > h.maxFileSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File exceeds the upload size limit"})
		return
	}

	url, err := h.media.UploadImage(c.Request.Context(), file)
	if err != nil {
		fail(c, h.log, "Failed to upload image", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"url": url})
}

// DeleteImage handles DELETE /api/uploads/images?url=
func (h *MediaHandler) DeleteImage(c *gin.Context) {
	url := c.Query("url")
	if url == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url is required"})
		return
	}
	if err := h.media.DeleteImage(c.Request.Context(), url); err != nil {
		fail(c, h.log, "Failed to delete image", err)
		return
	}
	c.Status(http.StatusNoContent)
}

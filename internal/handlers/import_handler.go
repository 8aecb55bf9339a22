package handlers

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/gravadigital/eventmaster-api/internal/importer"
	"github.com/gravadigital/eventmaster-api/internal/logger"
	authmw "github.com/gravadigital/eventmaster-api/internal/middleware/auth"
	"github.com/gravadigital/eventmaster-api/internal/services"
)

type ImportHandler struct {
	imports     *services.ImportService
	maxFileSize int64
	log         *log.Logger
}

func NewImportHandler(imports *services.ImportService, maxFileSize int64) *ImportHandler {
	return &ImportHandler{
		imports:     imports,
		maxFileSize: maxFileSize,
		log:         logger.Handler("import"),
	}
}

// PreviewImport handles POST /api/events/:id/import/preview
func (h *ImportHandler) PreviewImport(c *gin.Context) {
	if _, ok := pathID(c, "id"); !ok {
		return
	}
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided", "details": err.Error()})
		return
	}
	defer file.Close()
	if header.Size > h.maxFileSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File exceeds the upload size limit"})
		return
	}

	preview, err := h.imports.Preview(header.Filename, file)
	if err != nil {
		fail(c, h.log, "Failed to preview import", err)
		return
	}
	c.JSON(http.StatusOK, preview)
}

// ImportGuests handles POST /api/events/:id/import; optional form fields
// name, national_id and phone override column detection
func (h *ImportHandler) ImportGuests(c *gin.Context) {
	eventID, ok := pathID(c, "id")
	if !ok {
		return
	}
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided", "details": err.Error()})
		return
	}
	defer file.Close()
	if header.Size > h.maxFileSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File exceeds the upload size limit"})
		return
	}

	var mapping importer.Mapping
	if err := c.ShouldBind(&mapping); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid column mapping", "details": err.Error()})
		return
	}

	batch, err := h.imports.Import(c.Request.Context(), services.ImportRequest{
		EventID:    eventID,
		Filename:   header.Filename,
		File:       file,
		Mapping:    mapping,
		ImportedBy: authmw.CurrentUser(c).Label(),
	})
	if err != nil {
		fail(c, h.log, "Failed to import guests", err)
		return
	}

	h.log.Info("Guests imported", "event_id", eventID, "created", batch.Created, "rows", batch.RowsRead)
	c.JSON(http.StatusCreated, gin.H{
		"created": batch.Created,
		"batch":   batch,
	})
}

// ListImports handles GET /api/events/:id/imports
func (h *ImportHandler) ListImports(c *gin.Context) {
	eventID, ok := pathID(c, "id")
	if !ok {
		return
	}
	batches, err := h.imports.History(c.Request.Context(), eventID)
	if err != nil {
		fail(c, h.log, "Failed to list imports", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"imports": batches, "count": len(batches)})
}

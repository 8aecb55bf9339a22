package handlers

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gravadigital/eventmaster-api/internal/response"
	"github.com/gravadigital/eventmaster-api/internal/validation"
)

// pathID parses the uuid path parameter name, answering 400 when it is malformed.
func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := validation.ParseUUID(c.Param(name), name)
	if err != nil {
		response.FromError(c, err)
		return uuid.Nil, false
	}
	return id, true
}

// bindJSON decodes the request body, answering 400 on malformed input.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request payload",
			"details": err.Error(),
			"code":    http.StatusBadRequest,
		})
		return false
	}
	return true
}

// fail logs err at a level matching its status and writes the response.
func fail(c *gin.Context, log *log.Logger, msg string, err error) {
	status := response.StatusFor(err)
	if status >= 500 {
		log.Error(msg, "path", c.FullPath(), "error", err)
	} else {
		log.Debug(msg, "path", c.FullPath(), "error", err)
	}
	response.FromError(c, err)
}

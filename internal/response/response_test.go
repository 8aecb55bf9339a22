package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravadigital/eventmaster-api/internal/domain/common"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", common.NewValidationError("name", "is required"), http.StatusBadRequest},
		{"decode", &common.DecodeError{Reason: "empty"}, http.StatusBadRequest},
		{"unauthorized", fmt.Errorf("x: %w", common.ErrUnauthorized), http.StatusUnauthorized},
		{"not found", common.NotFound("event"), http.StatusNotFound},
		{"already checked in", &common.AlreadyCheckedInError{GuestID: "g"}, http.StatusConflict},
		{"conflict", fmt.Errorf("dup: %w", common.ErrConflict), http.StatusConflict},
		{"unavailable", common.Unavailable("query", errors.New("connection refused")), http.StatusServiceUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.err))
		})
	}
}

func TestFromError_HidesBackendDetails(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	FromError(c, common.Unavailable("query", errors.New("dial tcp 10.0.0.5:5432")))

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.NotContains(t, body.Error, "10.0.0.5")
}

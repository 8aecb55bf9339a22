package handlers

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/gravadigital/eventmaster-api/internal/auth"
	"github.com/gravadigital/eventmaster-api/internal/logger"
	authmw "github.com/gravadigital/eventmaster-api/internal/middleware/auth"
	"github.com/gravadigital/eventmaster-api/internal/response"
)

type AuthHandler struct {
	provider *auth.Provider
	log      *log.Logger
}

func NewAuthHandler(provider *auth.Provider) *AuthHandler {
	return &AuthHandler{
		provider: provider,
		log:      logger.Handler("auth"),
	}
}

type SignUpRequest struct {
	Email       string `json:"email" binding:"required"`
	Password    string `json:"password" binding:"required"`
	DisplayName string `json:"display_name"`
}

type SignInRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// SignUp handles POST /api/auth/signup
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req SignUpRequest
	if !bindJSON(c, &req) {
		return
	}
	session, err := h.provider.SignUp(c.Request.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		fail(c, h.log, "Sign-up failed", err)
		return
	}
	c.JSON(http.StatusCreated, session)
}

// SignIn handles POST /api/auth/signin
func (h *AuthHandler) SignIn(c *gin.Context) {
	var req SignInRequest
	if !bindJSON(c, &req) {
		return
	}
	session, err := h.provider.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		fail(c, h.log, "Sign-in failed", err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// SignOut handles POST /api/auth/signout
func (h *AuthHandler) SignOut(c *gin.Context) {
	token := authmw.BearerToken(c)
	if token == "" {
		response.UnauthorizedError(c, "missing bearer token")
		return
	}
	if err := h.provider.SignOut(c.Request.Context(), token); err != nil {
		fail(c, h.log, "Sign-out failed", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"user": authmw.CurrentUser(c)})
}

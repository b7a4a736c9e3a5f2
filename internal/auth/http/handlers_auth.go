package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/resumeforge/resume-builder-backend/internal/api/http/middleware"
	"github.com/resumeforge/resume-builder-backend/internal/auth/domain"
	"github.com/resumeforge/resume-builder-backend/internal/gateway"
	"github.com/resumeforge/resume-builder-backend/internal/logger"
)

// SignUp creates an account on the resume API. With migrate_guest_draft
// the current guest draft is imported in the background.
func (h *Handler) SignUp(c *gin.Context) {
	var req domain.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	sess, err := h.authService.Register(c.Request.Context(), middleware.GuestID(c), &req)
	if err != nil {
		writeError(c, "auth.register", err)
		return
	}
	c.JSON(http.StatusCreated, sess)
}

func (h *Handler) Login(c *gin.Context) {
	var req domain.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	sess, err := h.authService.Login(c.Request.Context(), middleware.GuestID(c), &req)
	if err != nil {
		writeError(c, "auth.login", err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

// Logout takes the refresh token from the body or the X-Refresh-Token header.
func (h *Handler) Logout(c *gin.Context) {
	var req domain.LogoutRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
	}

	if err := h.authService.Logout(c.Request.Context(), middleware.Credentials(c), req.RefreshToken); err != nil {
		writeError(c, "auth.logout", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// writeError passes client errors from the resume API through and reports
// upstream failures as 502.
func writeError(c *gin.Context, op string, err error) {
	var apiErr *gateway.APIError
	var netErr *gateway.NetworkError

	switch {
	case errors.Is(err, domain.ErrMissingCredentials), errors.Is(err, domain.ErrMissingRefresh):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, gateway.ErrSessionExpired):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500:
		c.JSON(apiErr.Status, gin.H{"error": apiErr.Message})
	case errors.As(err, &apiErr), errors.As(err, &netErr):
		logger.For(c.Request.Context()).LogError(op, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "resume service unavailable"})
	default:
		logger.For(c.Request.Context()).LogError(op, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

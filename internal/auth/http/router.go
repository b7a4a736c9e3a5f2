package http

import (
	"github.com/gin-gonic/gin"
	"github.com/resumeforge/resume-builder-backend/internal/api/http/middleware"
)

// Register mounts the auth routes. rg must carry the guest identity
// middleware so a login can pick up the draft.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.POST("/register", h.SignUp)
	rg.POST("/login", h.Login)
	rg.POST("/logout", middleware.RequireBearer(), h.Logout)
}

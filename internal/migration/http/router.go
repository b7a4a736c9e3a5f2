package http

import (
	"github.com/gin-gonic/gin"
	"github.com/resumeforge/resume-builder-backend/internal/api/http/middleware"
)

// Register mounts the migration routes. guest must already carry the guest
// identity middleware.
func (h *Handler) Register(guest, runs *gin.RouterGroup) {
	guest.POST("/draft/migrate", middleware.RequireBearer(), h.StartMigration)
	guest.GET("/draft/migrations", h.ListRuns)

	runs.GET("/:id", h.GetRun)
	runs.GET("/:id/events", h.StreamRunEvents)
}

package http

import "github.com/gin-gonic/gin"

// Register mounts the guest draft routes. writeLimit guards the routes that
// persist data.
func (h *Handler) Register(rg *gin.RouterGroup, writeLimit gin.HandlerFunc) {
	if writeLimit == nil {
		writeLimit = func(c *gin.Context) { c.Next() }
	}

	rg.POST("/draft", h.CreateDraft)
	rg.GET("/draft", h.GetDraft)
	rg.PATCH("/draft", writeLimit, h.PatchDraft)
	rg.DELETE("/draft", h.DeleteDraft)
	rg.PUT("/draft/personal", writeLimit, h.PutPersonal)
	rg.PUT("/draft/sections/:section", writeLimit, h.StageSection)
	rg.POST("/draft/sections/:section/discard", h.DiscardSection)
	rg.GET("/draft/dirty", h.GetDirty)
	rg.PUT("/draft/email", writeLimit, h.PutEmail)
	rg.GET("/draft/email", h.GetEmail)
}

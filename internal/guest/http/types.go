package http

import (
	"encoding/json"

	"github.com/resumeforge/resume-builder-backend/internal/guest/domain"
)

type DraftResponse struct {
	GuestID    string          `json:"guest_id"`
	DraftID    string          `json:"draft_id"`
	Document   domain.Document `json:"document"`
	HasContent bool            `json:"has_content"`
	Empty      bool            `json:"empty"`
}

type StageSectionRequest struct {
	Items json.RawMessage `json:"items"`
	Save  bool            `json:"save"`
}

type DirtyResponse struct {
	AnyDirty bool     `json:"any_dirty"`
	Sections []string `json:"sections"`
}

type EmailRequest struct {
	Email string `json:"email" binding:"required"`
}

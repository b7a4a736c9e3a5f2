package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/resumeforge/resume-builder-backend/internal/api/http/middleware"
	"github.com/resumeforge/resume-builder-backend/internal/dirty"
	"github.com/resumeforge/resume-builder-backend/internal/editor"
	"github.com/resumeforge/resume-builder-backend/internal/guest/domain"
	"github.com/resumeforge/resume-builder-backend/internal/guest/service"
	"github.com/resumeforge/resume-builder-backend/internal/logger"
)

const maxDraftBody = 1 << 20

type Handler struct {
	drafts   *service.DraftService
	trackers *dirty.Registry
	bindings map[string]editor.Binding
}

func New(drafts *service.DraftService, trackers *dirty.Registry) *Handler {
	return &Handler{
		drafts:   drafts,
		trackers: trackers,
		bindings: editor.GuestBindings(drafts),
	}
}

// CreateDraft returns the guest's draft id, 201 when it was just created.
func (h *Handler) CreateDraft(c *gin.Context) {
	id, created, err := h.drafts.DraftID(c.Request.Context(), middleware.GuestID(c))
	if err != nil {
		writeError(c, "guest.create_draft", err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"draft_id": id, "guest_id": middleware.GuestID(c)})
}

func (h *Handler) GetDraft(c *gin.Context) {
	ctx := c.Request.Context()
	guestID := middleware.GuestID(c)

	id, _, err := h.drafts.DraftID(ctx, guestID)
	if err != nil {
		writeError(c, "guest.get_draft", err)
		return
	}

	doc := h.drafts.Load(ctx, guestID)
	c.JSON(http.StatusOK, DraftResponse{
		GuestID:    guestID,
		DraftID:    id,
		Document:   doc,
		HasContent: domain.HasContent(doc),
		Empty:      domain.IsEmpty(doc),
	})
}

// PatchDraft merges a partial document. Lists present in the body replace
// the stored ones and their sections become clean.
func (h *Handler) PatchDraft(c *gin.Context) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxDraftBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := domain.ValidatePartialJSON(raw); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var partial domain.Partial
	if err := json.Unmarshal(raw, &partial); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	guestID := middleware.GuestID(c)
	doc, err := h.drafts.Save(c.Request.Context(), guestID, partial)
	if err != nil {
		writeError(c, "guest.patch_draft", err)
		return
	}

	tracker := h.trackers.For(guestID)
	for _, section := range touchedSections(partial) {
		tracker.MarkClean(section)
	}

	c.JSON(http.StatusOK, gin.H{"document": doc, "has_content": domain.HasContent(doc)})
}

func (h *Handler) PutPersonal(c *gin.Context) {
	var patch domain.PersonalPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	guestID := middleware.GuestID(c)
	doc, err := h.drafts.SavePersonal(c.Request.Context(), guestID, patch)
	if err != nil {
		writeError(c, "guest.put_personal", err)
		return
	}
	h.trackers.For(guestID).MarkClean(domain.SectionPersonal)

	c.JSON(http.StatusOK, gin.H{"personal": doc.Personal, "has_content": domain.HasContent(doc)})
}

// StageSection compares the submitted items with the stored list and, when
// save is set, persists them.
func (h *Handler) StageSection(c *gin.Context) {
	section := c.Param("section")
	binding, ok := h.bindings[section]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": domain.ErrUnknownSection.Error()})
		return
	}

	var req StageSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	guestID := middleware.GuestID(c)
	res, err := binding.Stage(c.Request.Context(), h.trackers.For(guestID), guestID, req.Items, req.Save)
	if err != nil {
		writeError(c, "guest.stage_section", err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *Handler) DiscardSection(c *gin.Context) {
	section := c.Param("section")
	if _, ok := h.bindings[section]; !ok && section != domain.SectionPersonal {
		c.JSON(http.StatusNotFound, gin.H{"error": domain.ErrUnknownSection.Error()})
		return
	}

	tracker := h.trackers.For(middleware.GuestID(c))
	tracker.MarkClean(section)
	c.JSON(http.StatusOK, dirtyResponse(tracker))
}

func (h *Handler) GetDirty(c *gin.Context) {
	c.JSON(http.StatusOK, dirtyResponse(h.trackers.For(middleware.GuestID(c))))
}

func (h *Handler) DeleteDraft(c *gin.Context) {
	guestID := middleware.GuestID(c)
	if err := h.drafts.Clear(c.Request.Context(), guestID); err != nil {
		writeError(c, "guest.delete_draft", err)
		return
	}
	h.trackers.Forget(guestID)
	c.Status(http.StatusNoContent)
}

func (h *Handler) PutEmail(c *gin.Context) {
	var req EmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email is required"})
		return
	}

	email, err := h.drafts.CaptureEmail(c.Request.Context(), middleware.GuestID(c), req.Email)
	if err != nil {
		writeError(c, "guest.put_email", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"email": email})
}

func (h *Handler) GetEmail(c *gin.Context) {
	email, err := h.drafts.CapturedEmail(c.Request.Context(), middleware.GuestID(c))
	if err != nil {
		writeError(c, "guest.get_email", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"email": email})
}

func dirtyResponse(t *dirty.Tracker) DirtyResponse {
	sections := t.DirtySections()
	if sections == nil {
		sections = []string{}
	}
	return DirtyResponse{AnyDirty: t.IsAnyDirty(), Sections: sections}
}

func touchedSections(p domain.Partial) []string {
	var out []string
	if p.Personal != nil {
		out = append(out, domain.SectionPersonal)
	}
	lists := map[string]bool{
		domain.SectionExperiences:    p.Experiences != nil,
		domain.SectionEducations:     p.Educations != nil,
		domain.SectionProjects:       p.Projects != nil,
		domain.SectionCertifications: p.Certifications != nil,
		domain.SectionSkills:         p.Skills != nil,
		domain.SectionLanguages:      p.Languages != nil,
		domain.SectionInterests:      p.Interests != nil,
	}
	for _, s := range domain.ListSections {
		if lists[s] {
			out = append(out, s)
		}
	}
	if p.OptimizedSummary != nil {
		out = append(out, domain.SectionOptimizedSummary)
	}
	return out
}

func writeError(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidGuestID),
		errors.Is(err, domain.ErrInvalidDocument),
		errors.Is(err, domain.ErrInvalidEmail):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrUnknownSection):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrEmailNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrDraftConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		logger.For(c.Request.Context()).LogError(op, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to access guest draft"})
	}
}

package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/resumeforge/resume-builder-backend/internal/api/http/middleware"
	"github.com/resumeforge/resume-builder-backend/internal/logger"
	"github.com/resumeforge/resume-builder-backend/internal/migration/domain"
	"golang.org/x/oauth2"
)

// Runs starts and looks up migration runs.
type Runs interface {
	Start(ctx context.Context, guestID string, origin domain.Origin, tok *oauth2.Token) (*domain.MigrationRun, error)
	Get(ctx context.Context, runID string) (*domain.MigrationRun, error)
	List(ctx context.Context, guestID string) ([]*domain.MigrationRun, error)
}

type Handler struct {
	runs         Runs
	pollInterval time.Duration
	keepAlive    time.Duration
}

func New(runs Runs) *Handler {
	return &Handler{
		runs:         runs,
		pollInterval: 1 * time.Second,
		keepAlive:    15 * time.Second,
	}
}

type startRequest struct {
	Origin domain.Origin `json:"origin"`
}

// StartMigration imports the caller's guest draft into their account. The
// run continues in the background; poll GetRun or stream its events.
func (h *Handler) StartMigration(c *gin.Context) {
	var body startRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	run, err := h.runs.Start(c.Request.Context(), middleware.GuestID(c), body.Origin, middleware.Credentials(c))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidOrigin), errors.Is(err, domain.ErrNothingToMigrate):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, domain.ErrMissingCredentials):
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		case errors.Is(err, domain.ErrMigrationInProgress):
			resp := gin.H{"error": err.Error()}
			var busy *domain.InProgressError
			if errors.As(err, &busy) && busy.RunID != "" {
				resp["run_id"] = busy.RunID
			}
			c.JSON(http.StatusConflict, resp)
		default:
			logger.For(c.Request.Context()).LogError("migration.start", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start migration"})
		}
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"run": run})
}

// ListRuns returns the caller's recent runs so a reloaded page can resume
// following one.
func (h *Handler) ListRuns(c *gin.Context) {
	runs, err := h.runs.List(c.Request.Context(), middleware.GuestID(c))
	if err != nil {
		logger.For(c.Request.Context()).LogError("migration.list_runs", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list runs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

func (h *Handler) GetRun(c *gin.Context) {
	run, ok := h.ownedRun(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"run": run})
}

// ownedRun loads the run named in the path and writes the error response
// when it is missing or belongs to another guest.
func (h *Handler) ownedRun(c *gin.Context) (*domain.MigrationRun, bool) {
	runID := c.Param("id")
	if runID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "run ID is required"})
		return nil, false
	}

	run, err := h.runs.Get(c.Request.Context(), runID)
	if err != nil {
		if errors.Is(err, domain.ErrRunNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
			return nil, false
		}
		logger.For(c.Request.Context()).LogError("migration.get_run", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get run"})
		return nil, false
	}

	if run.GuestID != middleware.GuestID(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
		return nil, false
	}
	return run, true
}

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/resumeforge/resume-builder-backend/internal/migration/domain"
)

// StreamRunEvents streams progress of a migration run as Server-Sent Events.
// The stream ends with a completed or failed event.
func (h *Handler) StreamRunEvents(c *gin.Context) {
	run, ok := h.ownedRun(c)
	if !ok {
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // nginx: disable buffering

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming unsupported"})
		return
	}

	send := func(event string, payload interface{}) {
		data, _ := json.Marshal(payload)
		fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", event, data)
		flusher.Flush()
	}

	send("initial", gin.H{"run": run})
	if run.Terminal() {
		send(run.Status, gin.H{"run": run})
		return
	}

	ctx := c.Request.Context()

	keepAlive := time.NewTicker(h.keepAlive)
	defer keepAlive.Stop()
	poll := time.NewTicker(h.pollInterval)
	defer poll.Stop()

	lastUpdatedAt := run.UpdatedAt

	for {
		select {
		case <-ctx.Done():
			return

		case <-keepAlive.C:
			fmt.Fprint(c.Writer, ": keep-alive\n\n")
			flusher.Flush()

		case <-poll.C:
			updated, err := h.runs.Get(ctx, run.ID)
			if err != nil {
				if errors.Is(err, domain.ErrRunNotFound) {
					send("expired", gin.H{"run_id": run.ID})
					return
				}
				continue
			}

			if updated.Terminal() {
				send(updated.Status, gin.H{"run": updated})
				return
			}
			if updated.UpdatedAt.After(lastUpdatedAt) {
				lastUpdatedAt = updated.UpdatedAt
				send("update", gin.H{"run": updated})
			}
		}
	}
}

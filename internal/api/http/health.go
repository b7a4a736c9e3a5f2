package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

const probeTimeout = 1 * time.Second

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
	Version   string    `json:"version"`
	Redis     string    `json:"redis"`
	DB        string    `json:"db,omitempty"`
}

type HealthHandler struct {
	serviceName string
	version     string
	db          *pgxpool.Pool
	redis       *redis.Client
}

func NewHealthHandler(serviceName, version string, db *pgxpool.Pool, rdb *redis.Client) *HealthHandler {
	return &HealthHandler{
		serviceName: serviceName,
		version:     version,
		db:          db,
		redis:       rdb,
	}
}

// HealthCheck reports 503 when redis is down since guest drafts live there.
// The audit database is optional and only reported.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	redisStatus := "disabled"
	if h.redis != nil {
		redisStatus = probe(c.Request.Context(), func(ctx context.Context) error {
			return h.redis.Ping(ctx).Err()
		})
	}

	dbStatus := "disabled"
	if h.db != nil {
		dbStatus = probe(c.Request.Context(), h.db.Ping)
	}

	status, code := "healthy", http.StatusOK
	if redisStatus == "down" {
		status, code = "unhealthy", http.StatusServiceUnavailable
	} else if dbStatus == "down" {
		status = "degraded"
	}

	c.JSON(code, HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC(),
		Service:   h.serviceName,
		Version:   h.version,
		Redis:     redisStatus,
		DB:        dbStatus,
	})
}

func (h *HealthHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/health", h.HealthCheck)
	r.GET("/healthz", h.HealthCheck)
}

func probe(parent context.Context, ping func(ctx context.Context) error) string {
	ctx, cancel := context.WithTimeout(parent, probeTimeout)
	defer cancel()
	if err := ping(ctx); err != nil {
		return "down"
	}
	return "up"
}

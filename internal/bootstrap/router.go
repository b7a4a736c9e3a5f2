package bootstrap

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	httpapi "github.com/resumeforge/resume-builder-backend/internal/api/http"
	"github.com/resumeforge/resume-builder-backend/internal/api/http/middleware"
	authhttp "github.com/resumeforge/resume-builder-backend/internal/auth/http"
	authservice "github.com/resumeforge/resume-builder-backend/internal/auth/service"
	"github.com/resumeforge/resume-builder-backend/internal/dirty"
	guesthttp "github.com/resumeforge/resume-builder-backend/internal/guest/http"
	guestservice "github.com/resumeforge/resume-builder-backend/internal/guest/service"
	mighttp "github.com/resumeforge/resume-builder-backend/internal/migration/http"
)

type RouterDeps struct {
	ServiceName    string
	Version        string
	AllowedOrigins []string
	GuestCookie    middleware.GuestIdentityConfig
	DB             *pgxpool.Pool
	Redis          *redis.Client

	Drafts       *guestservice.DraftService
	Trackers     *dirty.Registry
	Migrations   mighttp.Runs
	Auth         *authservice.AuthService
	WriteLimiter *middleware.RateLimiter
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(cors.New(corsConfig(dep.AllowedOrigins)))

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.DB, dep.Redis)
	healthHandler.RegisterRoutes(r)

	api := r.Group("/api/v1")
	api.Use(middleware.GuestIdentity(dep.GuestCookie))
	healthHandler.RegisterRoutes(api)

	var writeLimit gin.HandlerFunc
	if dep.WriteLimiter != nil {
		writeLimit = dep.WriteLimiter.Middleware(middleware.GuestID)
	}

	guestGroup := api.Group("/guest")
	guesthttp.New(dep.Drafts, dep.Trackers).Register(guestGroup, writeLimit)

	if dep.Migrations != nil {
		mighttp.New(dep.Migrations).Register(guestGroup, api.Group("/migrations"))
	}

	if dep.Auth != nil {
		authhttp.New(dep.Auth).Register(api.Group("/auth"))
	}

	return r
}

// corsConfig allows credentials so the guest cookie reaches the API from
// the frontend origin.
func corsConfig(origins []string) cors.Config {
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	cfg := cors.DefaultConfig()
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	cfg.AllowHeaders = []string{
		"Origin", "Content-Length", "Content-Type", "Authorization",
		middleware.RequestIDHeader, middleware.GuestIDHeader, middleware.RefreshTokenHeader,
	}
	cfg.ExposeHeaders = []string{middleware.RequestIDHeader, middleware.GuestIDHeader}
	cfg.MaxAge = 12 * time.Hour
	return cfg
}

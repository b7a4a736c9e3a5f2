package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/resumeforge/resume-builder-backend/config"
	"github.com/resumeforge/resume-builder-backend/internal/api/http/middleware"
	authservice "github.com/resumeforge/resume-builder-backend/internal/auth/service"
	"github.com/resumeforge/resume-builder-backend/internal/bootstrap"
	"github.com/resumeforge/resume-builder-backend/internal/dirty"
	"github.com/resumeforge/resume-builder-backend/internal/events"
	"github.com/resumeforge/resume-builder-backend/internal/gateway"
	guestrepo "github.com/resumeforge/resume-builder-backend/internal/guest/repository"
	guestservice "github.com/resumeforge/resume-builder-backend/internal/guest/service"
	"github.com/resumeforge/resume-builder-backend/internal/janitor"
	"github.com/resumeforge/resume-builder-backend/internal/logger"
	migrepo "github.com/resumeforge/resume-builder-backend/internal/migration/repository"
	migservice "github.com/resumeforge/resume-builder-backend/internal/migration/service"
	"github.com/resumeforge/resume-builder-backend/internal/resumeapi"
	"github.com/resumeforge/resume-builder-backend/internal/storage/postgres"
)

const serviceName = "resume-builder-backend"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger.Init(logger.Config{Level: cfg.App.LogLevel, Format: cfg.App.LogFormat})
	bootstrap.SetGinMode(cfg.App.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb, err := bootstrap.OpenRedis(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis unavailable")
	}
	defer rdb.Close()

	// The database only backs the audit log and the health probe; the API
	// keeps serving guests without it.
	var (
		pool  *pgxpool.Pool
		sqlDB *sql.DB
		audit *migrepo.AuditRepository
	)
	if cfg.Database.Enabled {
		pool, err = bootstrap.OpenDB(ctx, &cfg.Database, bootstrap.DBOptions{})
		if err != nil {
			logger.Warn().Err(err).Msg("database pool unavailable")
		} else {
			defer pool.Close()
		}

		sqlDB, err = postgres.NewConnection(ctx, &cfg.Database)
		if err != nil {
			logger.Warn().Err(err).Msg("migration audit log disabled")
		} else {
			defer sqlDB.Close()
			audit = migrepo.NewAuditRepository(sqlDB)
			if err := audit.EnsureSchema(ctx); err != nil {
				logger.Fatal().Err(err).Msg("audit schema")
			}
		}
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.Events.AMQPURL != "" {
		p, err := events.NewAMQPPublisher(cfg.Events.AMQPURL, cfg.Events.Exchange)
		if err != nil {
			logger.Warn().Err(err).Msg("event publishing disabled")
		} else {
			publisher = p
		}
	}
	defer publisher.Close()

	drafts := guestservice.NewDraftService(guestrepo.NewRedisDraftRepository(rdb, cfg.Guest.DraftTTL))
	trackers := dirty.NewRegistry()

	// One limiter across all gateways so concurrent migrations share the
	// outbound budget.
	apiLimiter := rate.NewLimiter(rate.Limit(cfg.ResumeAPI.RPS), cfg.ResumeAPI.Burst)
	newGateway := func(tok *oauth2.Token, onExpired func()) *gateway.Client {
		opts := []gateway.Option{
			gateway.WithTimeout(cfg.ResumeAPI.Timeout),
			gateway.WithLimiter(apiLimiter),
			gateway.WithRefreshPath(cfg.ResumeAPI.RefreshPath),
		}
		if onExpired != nil {
			opts = append(opts, gateway.OnSessionExpired(onExpired))
		}
		return gateway.New(cfg.ResumeAPI.BaseURL, gateway.NewMemoryTokenStore(tok), opts...)
	}

	runOpts := []migservice.RunnerOption{
		migservice.WithEvents(publisher),
		migservice.WithRunTimeout(cfg.Migration.LockTTL),
	}
	if audit != nil {
		runOpts = append(runOpts, migservice.WithAudit(audit))
	}
	runner := migservice.NewRunner(
		migservice.NewMigrator(drafts),
		migrepo.NewRunRepository(rdb, cfg.Migration.RunTTL, cfg.Migration.LockTTL),
		func(tok *oauth2.Token, onExpired func()) migservice.ResumeAPI {
			return resumeapi.New(newGateway(tok, onExpired))
		},
		runOpts...,
	)

	authSvc := authservice.NewAuthService(func(tok *oauth2.Token) authservice.AccountAPI {
		return resumeapi.New(newGateway(tok, nil))
	}, runner)

	writeLimiter := middleware.NewRateLimiter(cfg.Guest.RateLimitRPS, int(cfg.Guest.RateLimitRPS*2))

	var purger janitor.AuditPurger
	if audit != nil {
		purger = audit
	}
	sched := janitor.NewScheduler(janitor.Config{
		Schedule:       cfg.Migration.JanitorSchedule,
		AuditRetention: cfg.Migration.AuditRetention,
		IdleAfter:      cfg.Guest.DirtyIdle,
	}, purger, map[string]janitor.Sweeper{
		"dirty_trackers": trackers,
		"write_limiter":  janitor.SweepFunc(writeLimiter.Prune),
	})
	if err := sched.Start(); err != nil {
		logger.Fatal().Err(err).Msg("janitor schedule")
	}

	router := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName:    serviceName,
		Version:        cfg.App.Version,
		AllowedOrigins: cfg.Server.CORSAllowedOrigins,
		GuestCookie: middleware.GuestIdentityConfig{
			CookieName: cfg.Guest.CookieName,
			Secure:     cfg.Guest.CookieSecure,
		},
		DB:           pool,
		Redis:        rdb,
		Drafts:       drafts,
		Trackers:     trackers,
		Migrations:   runner,
		Auth:         authSvc,
		WriteLimiter: writeLimiter,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Str("env", cfg.App.Environment).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
	// In-flight migrations hold a lock and a half-built resume; give them
	// the chance to finish or roll back.
	if err := runner.Wait(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("migrations still running at exit")
	}
	sched.Stop(shutdownCtx)
	logger.Info().Msg("stopped")
}

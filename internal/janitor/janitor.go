// Package janitor runs periodic housekeeping: it purges old migration audit
// rows and evicts idle in-memory state.
package janitor

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/resumeforge/resume-builder-backend/internal/logger"
)

const defaultSchedule = "0 30 3 * * *"

// AuditPurger deletes audit rows older than cutoff.
type AuditPurger interface {
	PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Sweeper drops entries idle for longer than idle and reports how many.
type Sweeper interface {
	Sweep(idle time.Duration) int
}

// SweepFunc adapts a function to Sweeper.
type SweepFunc func(idle time.Duration) int

func (f SweepFunc) Sweep(idle time.Duration) int { return f(idle) }

type Config struct {
	Schedule       string
	AuditRetention time.Duration
	IdleAfter      time.Duration
}

type Scheduler struct {
	cfg      Config
	audit    AuditPurger
	sweepers map[string]Sweeper
	cron     *cron.Cron
	now      func() time.Time
}

func NewScheduler(cfg Config, audit AuditPurger, sweepers map[string]Sweeper) *Scheduler {
	if cfg.Schedule == "" {
		cfg.Schedule = defaultSchedule
	}
	return &Scheduler{
		cfg:      cfg,
		audit:    audit,
		sweepers: sweepers,
		cron:     cron.New(cron.WithSeconds()),
		now:      time.Now,
	}
}

// Start registers the job and starts the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.cfg.Schedule, func() { s.RunOnce(context.Background()) }); err != nil {
		return err
	}
	s.cron.Start()
	logger.Info().Str("schedule", s.cfg.Schedule).Msg("janitor started")
	return nil
}

// Stop waits for a running job to finish or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

// RunOnce performs one housekeeping pass. Failures are logged and do not
// stop the remaining steps.
func (s *Scheduler) RunOnce(ctx context.Context) {
	log := logger.For(ctx)

	if s.audit != nil && s.cfg.AuditRetention > 0 {
		cutoff := s.now().Add(-s.cfg.AuditRetention)
		n, err := s.audit.PurgeBefore(ctx, cutoff)
		if err != nil {
			log.LogError("janitor.purge_audit", err)
		} else if n > 0 {
			log.LogInfof("janitor.purge_audit", "removed %d audit rows older than %s", n, cutoff.Format(time.RFC3339))
		}
	}

	if s.cfg.IdleAfter > 0 {
		for name, sw := range s.sweepers {
			if n := sw.Sweep(s.cfg.IdleAfter); n > 0 {
				log.LogInfof("janitor.sweep", "%s: evicted %d idle entries", name, n)
			}
		}
	}
}

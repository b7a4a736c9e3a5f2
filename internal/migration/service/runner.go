package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/resumeforge/resume-builder-backend/internal/events"
	"github.com/resumeforge/resume-builder-backend/internal/gateway"
	"github.com/resumeforge/resume-builder-backend/internal/logger"
	"github.com/resumeforge/resume-builder-backend/internal/migration/domain"
	"golang.org/x/oauth2"
)

const (
	defaultRunTimeout = 5 * time.Minute
	lockReleaseWait   = 5 * time.Second
	finalizeWait      = 10 * time.Second
)

// RunStore persists run state and the per-guest lock.
type RunStore interface {
	Create(ctx context.Context, run *domain.MigrationRun) error
	Update(ctx context.Context, run *domain.MigrationRun) error
	Get(ctx context.Context, runID string) (*domain.MigrationRun, error)
	ListByGuest(ctx context.Context, guestID string) ([]*domain.MigrationRun, error)
	AcquireLock(ctx context.Context, guestID, runID string) (bool, error)
	ReleaseLock(ctx context.Context, guestID, runID string) error
	LockHolder(ctx context.Context, guestID string) (string, error)
}

// AuditLog keeps the durable history of runs.
type AuditLog interface {
	Start(ctx context.Context, rec *domain.AuditRecord) error
	Finish(ctx context.Context, rec *domain.AuditRecord) error
}

// APIFactory builds a resume API client acting with tok. onExpired fires
// when the session cannot be refreshed.
type APIFactory func(tok *oauth2.Token, onExpired func()) ResumeAPI

// Event is the message published when a run finishes.
type Event struct {
	RunID          string                 `json:"run_id"`
	GuestID        string                 `json:"guest_id"`
	Origin         domain.Origin          `json:"origin"`
	Status         string                 `json:"status"`
	ResumeID       string                 `json:"resume_id,omitempty"`
	Error          string                 `json:"error,omitempty"`
	SessionExpired bool                   `json:"session_expired,omitempty"`
	Sections       []domain.SectionReport `json:"sections,omitempty"`
	OccurredAt     time.Time              `json:"occurred_at"`
}

type RunnerOption func(*Runner)

func WithAudit(a AuditLog) RunnerOption {
	return func(r *Runner) { r.audit = a }
}

func WithEvents(p events.Publisher) RunnerOption {
	return func(r *Runner) {
		if p != nil {
			r.events = p
		}
	}
}

func WithRunTimeout(d time.Duration) RunnerOption {
	return func(r *Runner) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// Runner executes migrations in the background and tracks their progress.
type Runner struct {
	migrator *Migrator
	runs     RunStore
	newAPI   APIFactory
	audit    AuditLog
	events   events.Publisher
	timeout  time.Duration
	wg       sync.WaitGroup
}

func NewRunner(m *Migrator, runs RunStore, newAPI APIFactory, opts ...RunnerOption) *Runner {
	r := &Runner{
		migrator: m,
		runs:     runs,
		newAPI:   newAPI,
		events:   events.NopPublisher{},
		timeout:  defaultRunTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start validates the request, claims the guest and launches the run. The
// returned run is a snapshot; poll Get for progress.
func (r *Runner) Start(ctx context.Context, guestID string, origin domain.Origin, tok *oauth2.Token) (*domain.MigrationRun, error) {
	if !origin.Valid() {
		return nil, domain.ErrInvalidOrigin
	}
	if tok == nil || tok.AccessToken == "" {
		return nil, domain.ErrMissingCredentials
	}
	if _, err := r.migrator.Preflight(ctx, guestID); err != nil {
		return nil, err
	}

	run := &domain.MigrationRun{
		ID:      uuid.New().String(),
		GuestID: guestID,
		Origin:  origin,
		Status:  domain.StatusPending,
	}

	ok, err := r.runs.AcquireLock(ctx, guestID, run.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		holder, err := r.runs.LockHolder(ctx, guestID)
		if err != nil {
			logger.For(ctx).LogWarnf("migration.lock_holder", "guest %s: %v", guestID, err)
		}
		return nil, &domain.InProgressError{RunID: holder}
	}

	if err := r.runs.Create(ctx, run); err != nil {
		r.releaseLock(ctx, run)
		return nil, err
	}

	snapshot := *run
	r.wg.Add(1)
	go r.execute(context.WithoutCancel(ctx), run, tok)
	return &snapshot, nil
}

func (r *Runner) Get(ctx context.Context, runID string) (*domain.MigrationRun, error) {
	return r.runs.Get(ctx, runID)
}

// List returns the guest's unexpired runs, newest first.
func (r *Runner) List(ctx context.Context, guestID string) ([]*domain.MigrationRun, error) {
	return r.runs.ListByGuest(ctx, guestID)
}

// Wait blocks until every started run has finished or ctx is done.
func (r *Runner) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Runner) execute(parent context.Context, run *domain.MigrationRun, tok *oauth2.Token) {
	defer r.wg.Done()
	defer r.releaseLock(parent, run)

	ctx, cancel := context.WithTimeout(parent, r.timeout)
	defer cancel()
	log := logger.For(ctx)

	run.Status = domain.StatusRunning
	r.save(ctx, run)

	rec := &domain.AuditRecord{RunID: run.ID, GuestID: run.GuestID, Origin: run.Origin, Status: domain.StatusRunning}
	if r.audit != nil {
		if err := r.audit.Start(ctx, rec); err != nil {
			log.LogError("migration.audit_start", err)
		}
	}

	var expired atomic.Bool
	api := r.newAPI(tok, func() { expired.Store(true) })

	res, err := r.migrator.Run(ctx, run.GuestID, run.Origin, api, func(percent int, label string) {
		run.Percent = percent
		run.Label = label
		r.save(ctx, run)
	})

	if err != nil {
		run.Status = domain.StatusFailed
		run.Error = err.Error()
		var merr *Error
		if errors.As(err, &merr) {
			run.Error = merr.UserMessage()
			rec.ResumeID = merr.ResumeID
			if merr.RollbackErr != nil {
				rec.RollbackError = merr.RollbackErr.Error()
			}
		}
		rec.Error = err.Error()
		run.SessionExpired = expired.Load() || errors.Is(err, gateway.ErrSessionExpired)
	} else {
		run.Status = domain.StatusCompleted
		run.ResumeID = res.ResumeID
		run.Sections = res.Sections
		run.Percent = 100
		rec.ResumeID = res.ResumeID
		rec.Sections = res.Sections
	}
	rec.Status = run.Status

	// The run context may already be past its deadline here; the final
	// state must still land.
	fctx, fcancel := context.WithTimeout(context.WithoutCancel(parent), finalizeWait)
	defer fcancel()
	r.save(fctx, run)

	if r.audit != nil {
		if err := r.audit.Finish(fctx, rec); err != nil {
			log.LogError("migration.audit_finish", err)
		}
	}

	key := events.MigrationCompleted
	if run.Status == domain.StatusFailed {
		key = events.MigrationFailed
	}
	evt := Event{
		RunID:          run.ID,
		GuestID:        run.GuestID,
		Origin:         run.Origin,
		Status:         run.Status,
		ResumeID:       run.ResumeID,
		Error:          rec.Error,
		SessionExpired: run.SessionExpired,
		Sections:       run.Sections,
		OccurredAt:     time.Now().UTC(),
	}
	if err := r.events.Publish(fctx, key, evt); err != nil {
		log.LogWarnf("migration.publish", "run %s: %v", run.ID, err)
	}
}

func (r *Runner) save(ctx context.Context, run *domain.MigrationRun) {
	if err := r.runs.Update(ctx, run); err != nil {
		logger.For(ctx).LogWarnf("migration.save_run", "run %s: %v", run.ID, err)
	}
}

func (r *Runner) releaseLock(ctx context.Context, run *domain.MigrationRun) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), lockReleaseWait)
	defer cancel()
	if err := r.runs.ReleaseLock(ctx, run.GuestID, run.ID); err != nil {
		logger.For(ctx).LogError("migration.release_lock", err)
	}
}

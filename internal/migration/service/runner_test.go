package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/resumeforge/resume-builder-backend/internal/events"
	"github.com/resumeforge/resume-builder-backend/internal/gateway"
	guestdomain "github.com/resumeforge/resume-builder-backend/internal/guest/domain"
	"github.com/resumeforge/resume-builder-backend/internal/migration/domain"
	"github.com/resumeforge/resume-builder-backend/internal/migration/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

type recordingAudit struct {
	mu        sync.Mutex
	started   []domain.AuditRecord
	finished  []domain.AuditRecord
	finishErr []error
}

func (a *recordingAudit) Start(_ context.Context, rec *domain.AuditRecord) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.started = append(a.started, *rec)
	return nil
}

func (a *recordingAudit) Finish(ctx context.Context, rec *domain.AuditRecord) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.finished = append(a.finished, *rec)
	a.finishErr = append(a.finishErr, ctx.Err())
	return nil
}

type published struct {
	key   string
	event Event
}

type recordingPublisher struct {
	mu   sync.Mutex
	sent []published
}

func (p *recordingPublisher) Publish(_ context.Context, key string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, published{key: key, event: payload.(Event)})
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

var _ events.Publisher = (*recordingPublisher)(nil)

func setupRunner(t *testing.T, api *fakeResumeAPI, opts ...RunnerOption) (*Runner, *repository.RunRepository, *recordingAudit, *recordingPublisher) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})

	store, _ := seededStore(t)
	runs := repository.NewRunRepository(client, time.Hour, time.Minute)
	audit := &recordingAudit{}
	pub := &recordingPublisher{}

	factory := func(tok *oauth2.Token, onExpired func()) ResumeAPI {
		return api
	}
	opts = append([]RunnerOption{WithAudit(audit), WithEvents(pub)}, opts...)
	r := NewRunner(NewMigrator(store), runs, factory, opts...)
	return r, runs, audit, pub
}

func waitFor(t *testing.T, r *Runner) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, r.Wait(ctx))
}

func TestRunner_CompletesRun(t *testing.T) {
	api := &fakeResumeAPI{}
	r, runs, audit, pub := setupRunner(t, api)
	ctx := context.Background()

	run, err := r.Start(ctx, "guest-1", domain.OriginSignup, &oauth2.Token{AccessToken: "a", RefreshToken: "r"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, run.Status)
	waitFor(t, r)

	got, err := r.Get(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, got.Status)
	assert.Equal(t, 100, got.Percent)
	assert.Equal(t, "res-1", got.ResumeID)
	assert.True(t, got.Terminal())

	holder, err := runs.LockHolder(ctx, "guest-1")
	require.NoError(t, err)
	assert.Empty(t, holder)

	listed, err := r.List(ctx, "guest-1")
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, run.ID, listed[0].ID)

	require.Len(t, audit.started, 1)
	require.Len(t, audit.finished, 1)
	assert.Equal(t, domain.StatusCompleted, audit.finished[0].Status)

	require.Len(t, pub.sent, 1)
	assert.Equal(t, events.MigrationCompleted, pub.sent[0].key)
	assert.Equal(t, run.ID, pub.sent[0].event.RunID)
}

func TestRunner_FailedRunKeepsUserMessage(t *testing.T) {
	api := &fakeResumeAPI{createErr: gateway.ErrSessionExpired}
	r, _, audit, pub := setupRunner(t, api)
	ctx := context.Background()

	run, err := r.Start(ctx, "guest-1", domain.OriginLogin, &oauth2.Token{AccessToken: "a"})
	require.NoError(t, err)
	waitFor(t, r)

	got, err := r.Get(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, got.Status)
	assert.True(t, got.SessionExpired)
	assert.Contains(t, got.Error, "logged in")

	require.Len(t, audit.finished, 1)
	assert.Contains(t, audit.finished[0].Error, "session expired")
	require.Len(t, pub.sent, 1)
	assert.Equal(t, events.MigrationFailed, pub.sent[0].key)
}

func TestRunner_StartValidation(t *testing.T) {
	r, runs, _, _ := setupRunner(t, &fakeResumeAPI{})
	ctx := context.Background()
	tok := &oauth2.Token{AccessToken: "a"}

	t.Run("invalid origin", func(t *testing.T) {
		_, err := r.Start(ctx, "guest-1", domain.Origin("x"), tok)
		assert.ErrorIs(t, err, domain.ErrInvalidOrigin)
	})

	t.Run("missing token", func(t *testing.T) {
		_, err := r.Start(ctx, "guest-1", domain.OriginSignup, &oauth2.Token{})
		assert.ErrorIs(t, err, domain.ErrMissingCredentials)
	})

	t.Run("nothing to migrate", func(t *testing.T) {
		_, err := r.Start(ctx, "empty-guest", domain.OriginSignup, tok)
		assert.ErrorIs(t, err, domain.ErrNothingToMigrate)
	})

	t.Run("second start while locked", func(t *testing.T) {
		ok, err := runs.AcquireLock(ctx, "guest-1", "someone-else")
		require.NoError(t, err)
		require.True(t, ok)

		_, err = r.Start(ctx, "guest-1", domain.OriginSignup, tok)
		assert.ErrorIs(t, err, domain.ErrMigrationInProgress)
		var busy *domain.InProgressError
		require.ErrorAs(t, err, &busy)
		assert.Equal(t, "someone-else", busy.RunID)
	})
}

func TestRunner_ClearsDraftOnSuccess(t *testing.T) {
	api := &fakeResumeAPI{}
	r, _, _, _ := setupRunner(t, api)

	_, err := r.Start(context.Background(), "guest-1", domain.OriginSignup, &oauth2.Token{AccessToken: "a"})
	require.NoError(t, err)
	waitFor(t, r)

	_, err = r.migrator.Preflight(context.Background(), "guest-1")
	assert.ErrorIs(t, err, domain.ErrNothingToMigrate)
	assert.Equal(t, guestdomain.Document{}, r.migrator.store.Load(context.Background(), "guest-1"))
}

func TestRunner_TimedOutRunIsMarkedFailed(t *testing.T) {
	api := &fakeResumeAPI{blockItems: true}
	r, runs, audit, pub := setupRunner(t, api, WithRunTimeout(100*time.Millisecond))
	ctx := context.Background()

	run, err := r.Start(ctx, "guest-1", domain.OriginLogin, &oauth2.Token{AccessToken: "a"})
	require.NoError(t, err)
	waitFor(t, r)

	got, err := r.Get(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, got.Status)
	assert.True(t, got.Terminal())
	assert.NotEmpty(t, got.Error)
	assert.False(t, got.SessionExpired)

	assert.Equal(t, 1, api.count("DeleteResume"), "parent rolled back")

	audit.mu.Lock()
	require.Len(t, audit.finished, 1)
	assert.Equal(t, domain.StatusFailed, audit.finished[0].Status)
	assert.NoError(t, audit.finishErr[0], "audit finish gets a live context")
	audit.mu.Unlock()

	require.Len(t, pub.sent, 1)
	assert.Equal(t, events.MigrationFailed, pub.sent[0].key)

	holder, err := runs.LockHolder(ctx, "guest-1")
	require.NoError(t, err)
	assert.Empty(t, holder)
}

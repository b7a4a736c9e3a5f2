package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/resumeforge/resume-builder-backend/internal/migration/domain"
)

const (
	runKeyPrefix       = "mig:run:"     // mig:run:{run_id}
	guestRunSetPrefix  = "mig:guest:"   // set of run ids per guest: mig:guest:{guest_id}
	guestLockKeyPrefix = "mig:lock:"    // in-flight run for a guest: mig:lock:{guest_id} -> run_id
	defaultRunTTL      = 24 * time.Hour // run state is only needed while the client polls
	defaultLockTTL     = 5 * time.Minute
)

// releaseLockScript deletes the lock only if it still belongs to the run.
var releaseLockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RunRepository keeps migration runs in Redis
type RunRepository struct {
	client  *redis.Client
	runTTL  time.Duration
	lockTTL time.Duration
}

func NewRunRepository(client *redis.Client, runTTL, lockTTL time.Duration) *RunRepository {
	if runTTL <= 0 {
		runTTL = defaultRunTTL
	}
	if lockTTL <= 0 {
		lockTTL = defaultLockTTL
	}
	return &RunRepository{client: client, runTTL: runTTL, lockTTL: lockTTL}
}

// Create stores a new run and indexes it under its guest
func (r *RunRepository) Create(ctx context.Context, run *domain.MigrationRun) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if run.CreatedAt.IsZero() {
		run.CreatedAt = now
	}
	if run.UpdatedAt.IsZero() {
		run.UpdatedAt = now
	}

	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("failed to marshal run: %w", err)
	}

	guestKey := guestRunSetPrefix + run.GuestID
	pipe := r.client.Pipeline()
	pipe.Set(ctx, runKeyPrefix+run.ID, data, r.runTTL)
	pipe.SAdd(ctx, guestKey, run.ID)
	pipe.Expire(ctx, guestKey, r.runTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

func (r *RunRepository) Get(ctx context.Context, runID string) (*domain.MigrationRun, error) {
	data, err := r.client.Get(ctx, runKeyPrefix+runID).Bytes()
	if err == redis.Nil {
		return nil, domain.ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	var run domain.MigrationRun
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run: %w", err)
	}
	return &run, nil
}

// Update overwrites the stored run. Runs that already expired are not revived.
func (r *RunRepository) Update(ctx context.Context, run *domain.MigrationRun) error {
	run.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("failed to marshal run: %w", err)
	}

	ok, err := r.client.SetXX(ctx, runKeyPrefix+run.ID, data, r.runTTL).Result()
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	if !ok {
		return domain.ErrRunNotFound
	}
	return nil
}

// ListByGuest returns the guest's runs that have not expired, newest first.
func (r *RunRepository) ListByGuest(ctx context.Context, guestID string) ([]*domain.MigrationRun, error) {
	guestKey := guestRunSetPrefix + guestID
	ids, err := r.client.SMembers(ctx, guestKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list guest runs: %w", err)
	}

	runs := make([]*domain.MigrationRun, 0, len(ids))
	var stale []interface{}
	for _, id := range ids {
		run, err := r.Get(ctx, id)
		if err == domain.ErrRunNotFound {
			stale = append(stale, id)
			continue
		}
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if len(stale) > 0 {
		// best effort; the set expires with the runs anyway
		r.client.SRem(ctx, guestKey, stale...)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].CreatedAt.After(runs[j].CreatedAt)
	})
	return runs, nil
}

// AcquireLock claims the guest for runID. It returns false when another run
// already holds the lock.
func (r *RunRepository) AcquireLock(ctx context.Context, guestID, runID string) (bool, error) {
	ok, err := r.client.SetNX(ctx, guestLockKeyPrefix+guestID, runID, r.lockTTL).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire migration lock: %w", err)
	}
	return ok, nil
}

// ReleaseLock frees the guest if runID still holds the lock.
func (r *RunRepository) ReleaseLock(ctx context.Context, guestID, runID string) error {
	if err := releaseLockScript.Run(ctx, r.client, []string{guestLockKeyPrefix + guestID}, runID).Err(); err != nil {
		return fmt.Errorf("failed to release migration lock: %w", err)
	}
	return nil
}

// LockHolder returns the run id holding the guest lock, or "".
func (r *RunRepository) LockHolder(ctx context.Context, guestID string) (string, error) {
	id, err := r.client.Get(ctx, guestLockKeyPrefix+guestID).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read migration lock: %w", err)
	}
	return id, nil
}

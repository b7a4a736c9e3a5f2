package janitor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/resumeforge/resume-builder-backend/internal/dirty"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePurger struct {
	cutoffs []time.Time
	err     error
}

func (f *fakePurger) PurgeBefore(_ context.Context, cutoff time.Time) (int64, error) {
	f.cutoffs = append(f.cutoffs, cutoff)
	return 3, f.err
}

func TestRunOnce(t *testing.T) {
	now := time.Date(2026, 3, 1, 3, 30, 0, 0, time.UTC)
	purger := &fakePurger{}

	var swept []time.Duration
	s := NewScheduler(Config{AuditRetention: 90 * 24 * time.Hour, IdleAfter: time.Hour}, purger, map[string]Sweeper{
		"trackers": SweepFunc(func(idle time.Duration) int {
			swept = append(swept, idle)
			return 1
		}),
	})
	s.now = func() time.Time { return now }

	s.RunOnce(context.Background())

	require.Len(t, purger.cutoffs, 1)
	assert.Equal(t, now.Add(-90*24*time.Hour), purger.cutoffs[0])
	assert.Equal(t, []time.Duration{time.Hour}, swept)
}

func TestRunOnce_PurgeFailureStillSweeps(t *testing.T) {
	purger := &fakePurger{err: errors.New("db down")}
	reg := dirty.NewRegistry()
	reg.For("guest-1").MarkDirty("skills")

	s := NewScheduler(Config{AuditRetention: time.Hour, IdleAfter: time.Nanosecond}, purger, map[string]Sweeper{
		"trackers": reg,
	})
	time.Sleep(time.Millisecond)
	s.RunOnce(context.Background())

	assert.Len(t, purger.cutoffs, 1)
	assert.Equal(t, 0, reg.Len())
}

func TestRunOnce_DisabledSteps(t *testing.T) {
	purger := &fakePurger{}
	s := NewScheduler(Config{}, purger, nil)
	s.RunOnce(context.Background())
	assert.Empty(t, purger.cutoffs)
}

func TestStart_InvalidSchedule(t *testing.T) {
	s := NewScheduler(Config{Schedule: "not a schedule"}, nil, nil)
	assert.Error(t, s.Start())
}

package service

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

const maxTaskPercent = 99

// ProgressFunc receives the completed percentage and a label.
type ProgressFunc func(percent int, label string)

// Task is one independent unit of the fan-out.
type Task struct {
	Name  string
	Label string
	Run   func(ctx context.Context) error
}

// RunTasks starts every task concurrently and waits for all of them. The
// first failure cancels the shared context and is returned. Each completed
// task reports progress; reports are serialized so percentages never go
// backwards. Task progress stops at 99: 100 belongs to the caller once its
// own follow-up work is done.
func RunTasks(ctx context.Context, tasks []Task, progress ProgressFunc) error {
	if len(tasks) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	var mu sync.Mutex
	completed := 0
	total := len(tasks)

	for _, t := range tasks {
		g.Go(func() error {
			if err := t.Run(gctx); err != nil {
				return fmt.Errorf("%s: %w", t.Name, err)
			}

			mu.Lock()
			defer mu.Unlock()
			completed++
			if progress != nil {
				progress(completed*maxTaskPercent/total, t.Label)
			}
			return nil
		})
	}
	return g.Wait()
}

// runAll calls fn once per item concurrently, failing fast.
func runAll[T any](ctx context.Context, items []T, fn func(ctx context.Context, item T) error) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, item := range items {
		g.Go(func() error {
			return fn(gctx, item)
		})
	}
	return g.Wait()
}

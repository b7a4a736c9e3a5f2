// Package editor holds the list-section editing flow shared by every resume
// page: load a snapshot, mutate in memory, persist on Next.
package editor

import (
	"context"
	"errors"
	"fmt"

	"github.com/resumeforge/resume-builder-backend/internal/dirty"
)

var ErrIndexOutOfRange = errors.New("item index out of range")

// Source is the backing store a section loads from and saves to.
type Source[T any] interface {
	Load(ctx context.Context) ([]T, error)
	Save(ctx context.Context, items []T) error
}

// ListEditor edits one list section. Every mutation re-compares the working
// list against the loaded snapshot and updates the tracker.
type ListEditor[T any] struct {
	section  string
	source   Source[T]
	tracker  *dirty.Tracker
	snapshot []T
	items    []T
}

func NewListEditor[T any](section string, source Source[T], tracker *dirty.Tracker) *ListEditor[T] {
	return &ListEditor[T]{section: section, source: source, tracker: tracker}
}

func (e *ListEditor[T]) Load(ctx context.Context) error {
	items, err := e.source.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", e.section, err)
	}
	e.snapshot = clone(items)
	e.items = clone(items)
	e.tracker.MarkClean(e.section)
	return nil
}

func (e *ListEditor[T]) Items() []T { return clone(e.items) }

func (e *ListEditor[T]) Dirty() bool { return e.tracker.IsDirty(e.section) }

func (e *ListEditor[T]) Set(items []T) {
	e.items = clone(items)
	e.refresh()
}

func (e *ListEditor[T]) Append(item T) {
	e.items = append(e.items, item)
	e.refresh()
}

func (e *ListEditor[T]) Remove(i int) error {
	if i < 0 || i >= len(e.items) {
		return ErrIndexOutOfRange
	}
	e.items = append(e.items[:i:i], e.items[i+1:]...)
	e.refresh()
	return nil
}

func (e *ListEditor[T]) Replace(i int, item T) error {
	if i < 0 || i >= len(e.items) {
		return ErrIndexOutOfRange
	}
	e.items[i] = item
	e.refresh()
	return nil
}

// Next persists the working list, reloads what the source stored and marks
// the section clean. On failure the section stays dirty.
func (e *ListEditor[T]) Next(ctx context.Context) error {
	if err := e.source.Save(ctx, clone(e.items)); err != nil {
		return fmt.Errorf("failed to save %s: %w", e.section, err)
	}
	return e.Load(ctx)
}

// Discard drops unsaved edits.
func (e *ListEditor[T]) Discard() {
	e.items = clone(e.snapshot)
	e.tracker.MarkClean(e.section)
}

func (e *ListEditor[T]) refresh() {
	e.tracker.Set(e.section, dirty.Changed(e.snapshot, e.items))
}

func clone[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}

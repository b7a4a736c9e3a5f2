package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	guestdomain "github.com/resumeforge/resume-builder-backend/internal/guest/domain"
	"github.com/resumeforge/resume-builder-backend/internal/logger"
	"github.com/resumeforge/resume-builder-backend/internal/migration/domain"
	"github.com/resumeforge/resume-builder-backend/internal/resumeapi"
)

// ResumeAPI is the part of the resume backend a migration writes to.
type ResumeAPI interface {
	CreateResume(ctx context.Context, p resumeapi.Payload) (*resumeapi.Resume, error)
	DeleteResume(ctx context.Context, resumeID string) error
	UpdatePersonal(ctx context.Context, resumeID string, p resumeapi.Payload) error
	UpdateSummary(ctx context.Context, resumeID, summary string) error
	UpdateOptimizedSummary(ctx context.Context, resumeID, summary string) error
	CreateSectionItem(ctx context.Context, resumeID, section string, p resumeapi.Payload) (*resumeapi.Item, error)
}

// GuestStore is read once before and cleared once after a successful run.
type GuestStore interface {
	Load(ctx context.Context, guestID string) guestdomain.Document
	Clear(ctx context.Context, guestID string) error
}

// Result describes a successful migration.
type Result struct {
	ResumeID      string
	CreationCalls int
	Sections      []domain.SectionReport
	DraftCleared  bool
}

// Error is returned when the resume could not be imported. The account
// itself is untouched; only the parent resume is rolled back.
type Error struct {
	Origin      domain.Origin
	ResumeID    string
	Step        string
	Cause       error
	RollbackErr error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s migration failed", e.Origin)
	if e.Step != "" {
		msg += " at " + e.Step
	}
	msg += ": " + e.Cause.Error()
	if e.RollbackErr != nil {
		msg += fmt.Sprintf(" (rollback of resume %s failed: %v)", e.ResumeID, e.RollbackErr)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Cause }

// UserMessage is the text shown to the user for this failure.
func (e *Error) UserMessage() string {
	if e.Origin == domain.OriginLogin {
		return "You're logged in, but we couldn't import your resume. Your draft is still saved, so you can try again."
	}
	return "Your account was created, but we couldn't import your resume. Your draft is still saved, so you can try again."
}

// RolledBack reports whether a created parent resume was deleted again.
func (e *Error) RolledBack() bool {
	return e.ResumeID != "" && e.RollbackErr == nil
}

const (
	stepCreateResume   = "create_resume"
	stepReplaySections = "replay_sections"
)

type Migrator struct {
	store GuestStore
}

func NewMigrator(store GuestStore) *Migrator {
	return &Migrator{store: store}
}

// Preflight loads the draft and reports whether there is anything to import.
func (m *Migrator) Preflight(ctx context.Context, guestID string) (guestdomain.Document, error) {
	doc := m.store.Load(ctx, guestID)
	if !guestdomain.HasContent(doc) {
		return doc, domain.ErrNothingToMigrate
	}
	return doc, nil
}

// Run copies the guest draft into a new resume owned by the caller of api.
// The guest store is cleared only when every section was saved; on any
// failure the created resume is deleted and the draft is left as it was.
func (m *Migrator) Run(ctx context.Context, guestID string, origin domain.Origin, api ResumeAPI, progress ProgressFunc) (*Result, error) {
	log := logger.For(ctx)
	if !origin.Valid() {
		return nil, domain.ErrInvalidOrigin
	}

	doc, err := m.Preflight(ctx, guestID)
	if err != nil {
		return nil, err
	}
	if progress == nil {
		progress = func(int, string) {}
	}

	plan := BuildPlan(doc)
	var resumeID string
	var created atomic.Int64

	saga := NewSaga(
		Step{
			Name: stepCreateResume,
			Forward: func(ctx context.Context) error {
				r, err := api.CreateResume(ctx, plan.Resume)
				if err != nil {
					return err
				}
				resumeID = r.ID
				return nil
			},
			Compensate: func(ctx context.Context) error {
				return api.DeleteResume(ctx, resumeID)
			},
		},
		Step{
			Name: stepReplaySections,
			Forward: func(ctx context.Context) error {
				return RunTasks(ctx, m.tasks(plan, resumeID, api, &created), progress)
			},
		},
	)

	progress(0, "Creating your resume")
	if err := saga.Run(ctx); err != nil {
		merr := &Error{Origin: origin, ResumeID: resumeID, Cause: err}
		var serr *SagaError
		if errors.As(err, &serr) {
			merr.Step = serr.Step
			merr.Cause = serr.Cause
			merr.RollbackErr = serr.CompensationErr
		}
		if merr.RollbackErr != nil {
			log.LogErrorf("migration.rollback", "guest %s: resume %s left behind: %v", guestID, resumeID, merr.RollbackErr)
		}
		log.LogWarnf("migration.run", "guest %s: %v", guestID, merr)
		return nil, merr
	}

	res := &Result{ResumeID: resumeID, CreationCalls: int(created.Load())}
	for _, l := range plan.Lists {
		if len(l.Items) > 0 || l.Dropped > 0 {
			res.Sections = append(res.Sections, domain.SectionReport{Section: l.Section, Created: len(l.Items), Dropped: l.Dropped})
		}
	}

	// The resume exists at this point, so a failed clear is not a failed migration.
	if err := m.store.Clear(ctx, guestID); err != nil {
		log.LogErrorf("migration.clear", "guest %s: draft not cleared after import into %s: %v", guestID, resumeID, err)
	} else {
		res.DraftCleared = true
	}

	progress(100, "Resume imported")
	log.LogInfof("migration.run", "guest %s imported into resume %s (%d entries)", guestID, resumeID, res.CreationCalls)
	return res, nil
}

// tasks builds one unit per non-empty section. It is called from the replay
// step, after the parent resume exists.
func (m *Migrator) tasks(plan Plan, resumeID string, api ResumeAPI, created *atomic.Int64) []Task {
	var tasks []Task

	if len(plan.Personal) > 0 {
		tasks = append(tasks, Task{
			Name:  guestdomain.SectionPersonal,
			Label: "Saved contact details",
			Run: func(ctx context.Context) error {
				return api.UpdatePersonal(ctx, resumeID, plan.Personal)
			},
		})
	}

	for _, l := range plan.Lists {
		if len(l.Items) == 0 {
			continue
		}
		tasks = append(tasks, Task{
			Name:  l.Section,
			Label: l.Label(),
			Run: func(ctx context.Context) error {
				return runAll(ctx, l.Items, func(ctx context.Context, p resumeapi.Payload) error {
					created.Add(1)
					_, err := api.CreateSectionItem(ctx, resumeID, l.Section, p)
					return err
				})
			},
		})
	}

	if plan.OptimizedSummary != "" {
		tasks = append(tasks, Task{
			Name:  guestdomain.SectionOptimizedSummary,
			Label: "Saved optimized summary",
			Run: func(ctx context.Context) error {
				return api.UpdateOptimizedSummary(ctx, resumeID, plan.OptimizedSummary)
			},
		})
	}

	if plan.Tagline != "" {
		tasks = append(tasks, Task{
			Name:  "summary",
			Label: "Saved professional summary",
			Run: func(ctx context.Context) error {
				return api.UpdateSummary(ctx, resumeID, plan.Tagline)
			},
		})
	}

	return tasks
}

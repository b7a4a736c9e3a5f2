package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/resumeforge/resume-builder-backend/internal/gateway"
	guestdomain "github.com/resumeforge/resume-builder-backend/internal/guest/domain"
	"github.com/resumeforge/resume-builder-backend/internal/guest/repository"
	guestservice "github.com/resumeforge/resume-builder-backend/internal/guest/service"
	"github.com/resumeforge/resume-builder-backend/internal/migration/domain"
	"github.com/resumeforge/resume-builder-backend/internal/resumeapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	Method   string
	ResumeID string
	Section  string
	Payload  resumeapi.Payload
}

type fakeResumeAPI struct {
	mu    sync.Mutex
	calls []call

	createErr error
	deleteErr error
	// failSection fails the n-th creation call (1-based) in that section.
	failSection string
	failAt      int
	failErr     error
	perSection  map[string]int
	// blockItems makes every section item call wait for its context.
	blockItems bool
}

func (f *fakeResumeAPI) record(c call) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
}

func (f *fakeResumeAPI) CreateResume(_ context.Context, p resumeapi.Payload) (*resumeapi.Resume, error) {
	f.record(call{Method: "CreateResume", Payload: p})
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &resumeapi.Resume{ID: "res-1"}, nil
}

func (f *fakeResumeAPI) DeleteResume(_ context.Context, resumeID string) error {
	f.record(call{Method: "DeleteResume", ResumeID: resumeID})
	return f.deleteErr
}

func (f *fakeResumeAPI) UpdatePersonal(_ context.Context, resumeID string, p resumeapi.Payload) error {
	f.record(call{Method: "UpdatePersonal", ResumeID: resumeID, Payload: p})
	return nil
}

func (f *fakeResumeAPI) UpdateSummary(_ context.Context, resumeID, summary string) error {
	f.record(call{Method: "UpdateSummary", ResumeID: resumeID, Payload: resumeapi.Payload{"summary": summary}})
	return nil
}

func (f *fakeResumeAPI) UpdateOptimizedSummary(_ context.Context, resumeID, summary string) error {
	f.record(call{Method: "UpdateOptimizedSummary", ResumeID: resumeID, Payload: resumeapi.Payload{"optimized_summary": summary}})
	return nil
}

func (f *fakeResumeAPI) CreateSectionItem(ctx context.Context, resumeID, section string, p resumeapi.Payload) (*resumeapi.Item, error) {
	f.record(call{Method: "CreateSectionItem", ResumeID: resumeID, Section: section, Payload: p})
	if f.blockItems {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	f.mu.Lock()
	if f.perSection == nil {
		f.perSection = map[string]int{}
	}
	f.perSection[section]++
	n := f.perSection[section]
	f.mu.Unlock()

	if section == f.failSection && n == f.failAt {
		return nil, f.failErr
	}
	return &resumeapi.Item{ID: fmt.Sprintf("%s-%d", section, n)}, nil
}

func (f *fakeResumeAPI) count(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

func (f *fakeResumeAPI) find(method string) []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []call
	for _, c := range f.calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

type progressLog struct {
	mu      sync.Mutex
	percent []int
	labels  []string
}

func (p *progressLog) report(percent int, label string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.percent = append(p.percent, percent)
	p.labels = append(p.labels, label)
}

func seededStore(t *testing.T) (*guestservice.DraftService, guestdomain.Document) {
	t.Helper()
	store := guestservice.NewDraftService(repository.NewMemoryDraftRepository())
	doc, err := store.Save(context.Background(), "guest-1", guestdomain.Partial{
		Personal: &guestdomain.Personal{FullName: "Ada Lovelace", Email: "ada@example.com"},
		Experiences: []guestdomain.Experience{
			{Company: "Engines Ltd", Position: "Programmer"},
			{Company: "Royal Society", Position: "Fellow"},
			{Company: "No Position Inc"},
		},
		Educations: []guestdomain.Education{{Institution: "Home", Degree: "Tutoring"}},
	})
	require.NoError(t, err)
	return store, doc
}

func TestMigrator_SuccessCreatesOnlyQualifyingEntries(t *testing.T) {
	store, _ := seededStore(t)
	api := &fakeResumeAPI{}
	progress := &progressLog{}

	res, err := NewMigrator(store).Run(context.Background(), "guest-1", domain.OriginSignup, api, progress.report)
	require.NoError(t, err)

	assert.Equal(t, "res-1", res.ResumeID)
	assert.Equal(t, 3, api.count("CreateSectionItem"))
	assert.Equal(t, 3, res.CreationCalls)
	assert.Equal(t, 0, api.count("DeleteResume"))
	assert.True(t, res.DraftCleared)

	bySection := map[string]int{}
	for _, c := range api.find("CreateSectionItem") {
		assert.Equal(t, "res-1", c.ResumeID)
		assert.NotContains(t, c.Payload, "id")
		bySection[c.Section]++
	}
	assert.Equal(t, map[string]int{"experiences": 2, "educations": 1}, bySection)

	assert.Contains(t, res.Sections, domain.SectionReport{Section: "experiences", Created: 2, Dropped: 1})
	assert.Equal(t, guestdomain.Document{}, store.Load(context.Background(), "guest-1"))

	require.NotEmpty(t, progress.percent)
	assert.Equal(t, 100, progress.percent[len(progress.percent)-1])
	assert.Equal(t, "Resume imported", progress.labels[len(progress.labels)-1])
	assert.Contains(t, progress.labels, "Saved 2 work experiences")
	assert.Contains(t, progress.labels, "Saved 1 education")
}

func TestMigrator_ReportsCompleteOnlyAfterClear(t *testing.T) {
	store, _ := seededStore(t)
	ctx := context.Background()

	var full []bool
	_, err := NewMigrator(store).Run(ctx, "guest-1", domain.OriginLogin, &fakeResumeAPI{}, func(percent int, _ string) {
		if percent == 100 {
			full = append(full, guestdomain.HasContent(store.Load(ctx, "guest-1")))
		}
	})
	require.NoError(t, err)
	assert.Equal(t, []bool{false}, full, "completion is reported once, after the draft is cleared")
}

func TestMigrator_FailureRollsBackAndKeepsDraft(t *testing.T) {
	store, before := seededStore(t)
	api := &fakeResumeAPI{
		failSection: "experiences",
		failAt:      2,
		failErr:     &gateway.APIError{Status: 500, Message: "boom"},
	}

	res, err := NewMigrator(store).Run(context.Background(), "guest-1", domain.OriginSignup, api, nil)
	require.Error(t, err)
	assert.Nil(t, res)

	deletes := api.find("DeleteResume")
	require.Len(t, deletes, 1)
	assert.Equal(t, "res-1", deletes[0].ResumeID)

	assert.Equal(t, before, store.Load(context.Background(), "guest-1"))

	var merr *Error
	require.True(t, errors.As(err, &merr))
	assert.Equal(t, "res-1", merr.ResumeID)
	assert.Equal(t, stepReplaySections, merr.Step)
	assert.True(t, merr.RolledBack())
	assert.True(t, gateway.IsStatus(err, 500))
	assert.Contains(t, merr.UserMessage(), "account was created")
}

func TestMigrator_ParentCreateFailureSkipsRollback(t *testing.T) {
	store, before := seededStore(t)
	api := &fakeResumeAPI{createErr: gateway.ErrSessionExpired}

	_, err := NewMigrator(store).Run(context.Background(), "guest-1", domain.OriginLogin, api, nil)
	require.Error(t, err)

	assert.ErrorIs(t, err, gateway.ErrSessionExpired)
	assert.Equal(t, 0, api.count("DeleteResume"))
	assert.Equal(t, 0, api.count("CreateSectionItem"))
	assert.Equal(t, before, store.Load(context.Background(), "guest-1"))

	var merr *Error
	require.True(t, errors.As(err, &merr))
	assert.Equal(t, stepCreateResume, merr.Step)
	assert.False(t, merr.RolledBack())
	assert.Contains(t, merr.UserMessage(), "logged in")
}

func TestMigrator_RollbackFailureKeepsOriginalCause(t *testing.T) {
	store, _ := seededStore(t)
	cause := errors.New("education rejected")
	api := &fakeResumeAPI{
		failSection: "educations",
		failAt:      1,
		failErr:     cause,
		deleteErr:   errors.New("delete failed"),
	}

	_, err := NewMigrator(store).Run(context.Background(), "guest-1", domain.OriginSignup, api, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)

	var merr *Error
	require.True(t, errors.As(err, &merr))
	assert.Error(t, merr.RollbackErr)
	assert.False(t, merr.RolledBack())
}

func TestMigrator_NothingToMigrate(t *testing.T) {
	store := guestservice.NewDraftService(repository.NewMemoryDraftRepository())
	_, err := store.Save(context.Background(), "guest-2", guestdomain.Partial{
		Personal: &guestdomain.Personal{FullName: "Only A Name"},
	})
	require.NoError(t, err)

	api := &fakeResumeAPI{}
	_, err = NewMigrator(store).Run(context.Background(), "guest-2", domain.OriginSignup, api, nil)
	assert.ErrorIs(t, err, domain.ErrNothingToMigrate)
	assert.Empty(t, api.calls)
}

func TestMigrator_InvalidOrigin(t *testing.T) {
	store, _ := seededStore(t)
	_, err := NewMigrator(store).Run(context.Background(), "guest-1", domain.Origin("oauth"), &fakeResumeAPI{}, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidOrigin)
}

func TestMigrator_ScalarSections(t *testing.T) {
	store := guestservice.NewDraftService(repository.NewMemoryDraftRepository())
	summary := "Optimized"
	_, err := store.Save(context.Background(), "guest-3", guestdomain.Partial{
		Personal:         &guestdomain.Personal{Email: "x@example.com", Summary: "Builds things"},
		Skills:           []guestdomain.Skill{{Name: "Go"}},
		OptimizedSummary: &summary,
	})
	require.NoError(t, err)

	api := &fakeResumeAPI{}
	_, err = NewMigrator(store).Run(context.Background(), "guest-3", domain.OriginLogin, api, nil)
	require.NoError(t, err)

	creates := api.find("CreateResume")
	require.Len(t, creates, 1)
	assert.Equal(t, "My Resume", creates[0].Payload["title"])
	assert.Equal(t, "Builds things", creates[0].Payload["professional_tagline"])
	assert.Equal(t, "Optimized", creates[0].Payload["optimized_summary"])

	assert.Equal(t, 1, api.count("UpdateSummary"))
	assert.Equal(t, 1, api.count("UpdateOptimizedSummary"))
	assert.Equal(t, 1, api.count("UpdatePersonal"))
}

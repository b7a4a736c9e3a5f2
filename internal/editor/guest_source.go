package editor

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/resumeforge/resume-builder-backend/internal/dirty"
	"github.com/resumeforge/resume-builder-backend/internal/guest/domain"
)

// GuestStore is the subset of the guest draft service editors need.
type GuestStore interface {
	Load(ctx context.Context, guestID string) domain.Document
	Save(ctx context.Context, guestID string, p domain.Partial) (domain.Document, error)
}

// GuestSource binds one list of a guest draft.
type GuestSource[T any] struct {
	store   GuestStore
	guestID string
	get     func(domain.Document) []T
	put     func([]T) domain.Partial
}

func (s *GuestSource[T]) Load(ctx context.Context) ([]T, error) {
	return s.get(s.store.Load(ctx, s.guestID)), nil
}

func (s *GuestSource[T]) Save(ctx context.Context, items []T) error {
	if items == nil {
		// non-nil so the merge replaces rather than keeps the stored list
		items = []T{}
	}
	_, err := s.store.Save(ctx, s.guestID, s.put(items))
	return err
}

// StageResult is what a staged section edit reports back.
type StageResult struct {
	Section string      `json:"section"`
	Dirty   bool        `json:"dirty"`
	Saved   bool        `json:"saved"`
	Items   interface{} `json:"items"`
}

// Binding stages raw JSON items for one section of a guest draft.
type Binding interface {
	Stage(ctx context.Context, tracker *dirty.Tracker, guestID string, raw json.RawMessage, save bool) (*StageResult, error)
}

type guestBinding[T any] struct {
	section string
	store   GuestStore
	get     func(domain.Document) []T
	put     func([]T) domain.Partial
}

func (b *guestBinding[T]) Stage(ctx context.Context, tracker *dirty.Tracker, guestID string, raw json.RawMessage, save bool) (*StageResult, error) {
	var items []T
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidDocument, err)
		}
	}

	ed := NewListEditor[T](b.section, &GuestSource[T]{store: b.store, guestID: guestID, get: b.get, put: b.put}, tracker)
	if err := ed.Load(ctx); err != nil {
		return nil, err
	}
	ed.Set(items)

	if save {
		if err := ed.Next(ctx); err != nil {
			return nil, err
		}
	}

	return &StageResult{Section: b.section, Dirty: ed.Dirty(), Saved: save, Items: ed.Items()}, nil
}

func bind[T any](section string, store GuestStore, get func(domain.Document) []T, put func([]T) domain.Partial) Binding {
	return &guestBinding[T]{section: section, store: store, get: get, put: put}
}

// GuestBindings maps every list section name to its binding.
func GuestBindings(store GuestStore) map[string]Binding {
	return map[string]Binding{
		domain.SectionExperiences: bind(domain.SectionExperiences, store,
			func(d domain.Document) []domain.Experience { return d.Experiences },
			func(v []domain.Experience) domain.Partial { return domain.Partial{Experiences: v} }),
		domain.SectionEducations: bind(domain.SectionEducations, store,
			func(d domain.Document) []domain.Education { return d.Educations },
			func(v []domain.Education) domain.Partial { return domain.Partial{Educations: v} }),
		domain.SectionProjects: bind(domain.SectionProjects, store,
			func(d domain.Document) []domain.Project { return d.Projects },
			func(v []domain.Project) domain.Partial { return domain.Partial{Projects: v} }),
		domain.SectionCertifications: bind(domain.SectionCertifications, store,
			func(d domain.Document) []domain.Certification { return d.Certifications },
			func(v []domain.Certification) domain.Partial { return domain.Partial{Certifications: v} }),
		domain.SectionSkills: bind(domain.SectionSkills, store,
			func(d domain.Document) []domain.Skill { return d.Skills },
			func(v []domain.Skill) domain.Partial { return domain.Partial{Skills: v} }),
		domain.SectionLanguages: bind(domain.SectionLanguages, store,
			func(d domain.Document) []domain.Language { return d.Languages },
			func(v []domain.Language) domain.Partial { return domain.Partial{Languages: v} }),
		domain.SectionInterests: bind(domain.SectionInterests, store,
			func(d domain.Document) []domain.Interest { return d.Interests },
			func(v []domain.Interest) domain.Partial { return domain.Partial{Interests: v} }),
	}
}

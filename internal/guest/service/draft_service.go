package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/resumeforge/resume-builder-backend/internal/guest/domain"
	"github.com/resumeforge/resume-builder-backend/internal/logger"
)

// DraftRepository persists raw guest drafts.
type DraftRepository interface {
	GetDocument(ctx context.Context, guestID string) ([]byte, error)
	// UpdateDocument replaces the stored document with fn's result as one
	// atomic step. fn receives nil when nothing is stored.
	UpdateDocument(ctx context.Context, guestID string, fn func(current []byte) ([]byte, error)) error
	DeleteAll(ctx context.Context, guestID string) error
	GetOrCreateDraftID(ctx context.Context, guestID string, newID func() string) (string, bool, error)
	SetEmail(ctx context.Context, guestID, email string) error
	GetEmail(ctx context.Context, guestID string) (string, error)
}

// DraftService is the guest resume store: load, merge-save, clear and the
// derived draft id and captured email.
type DraftService struct {
	repo DraftRepository
}

func NewDraftService(repo DraftRepository) *DraftService {
	return &DraftService{repo: repo}
}

// Load never fails: a missing, unreadable or corrupt draft reads as empty.
func (s *DraftService) Load(ctx context.Context, guestID string) domain.Document {
	doc, err := s.read(ctx, guestID)
	if err != nil {
		logger.For(ctx).LogWarnf("load_draft", "guest_id=%s degraded to empty draft: %v", guestID, err)
		return domain.Document{}
	}
	return doc
}

// Save shallow-merges p into the stored draft and returns the result.
// Unlike Load, a storage read failure aborts the save so a transient error
// cannot overwrite sibling sections with an empty base.
func (s *DraftService) Save(ctx context.Context, guestID string, p domain.Partial) (domain.Document, error) {
	return s.update(ctx, guestID, "save_draft", func(base domain.Document) domain.Document {
		return base.Merge(p)
	})
}

// SavePersonal applies patch to the stored personal block key by key.
func (s *DraftService) SavePersonal(ctx context.Context, guestID string, patch domain.PersonalPatch) (domain.Document, error) {
	return s.update(ctx, guestID, "save_personal", func(base domain.Document) domain.Document {
		personal := base.Personal.Apply(patch)
		return base.Merge(domain.Partial{Personal: &personal})
	})
}

// update applies mutate to the stored draft inside one repository
// transaction. A corrupt stored value is replaced rather than merged.
func (s *DraftService) update(ctx context.Context, guestID, op string, mutate func(domain.Document) domain.Document) (domain.Document, error) {
	if err := checkGuestID(guestID); err != nil {
		return domain.Document{}, err
	}

	var merged domain.Document
	err := s.repo.UpdateDocument(ctx, guestID, func(current []byte) ([]byte, error) {
		base, err := decode(current)
		if err != nil {
			logger.For(ctx).LogWarnf(op, "guest_id=%s replacing unreadable draft: %v", guestID, err)
		}

		merged = mutate(base).Normalize()
		data, err := json.Marshal(merged)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal draft: %w", err)
		}
		return data, nil
	})
	if err != nil {
		return domain.Document{}, err
	}
	return merged, nil
}

// Clear drops the draft and everything derived from it. Safe to repeat.
func (s *DraftService) Clear(ctx context.Context, guestID string) error {
	if err := checkGuestID(guestID); err != nil {
		return err
	}
	return s.repo.DeleteAll(ctx, guestID)
}

func (s *DraftService) HasContent(ctx context.Context, guestID string) bool {
	return domain.HasContent(s.Load(ctx, guestID))
}

// DraftID returns the guest's stable draft id, creating it on first use.
func (s *DraftService) DraftID(ctx context.Context, guestID string) (string, bool, error) {
	if err := checkGuestID(guestID); err != nil {
		return "", false, err
	}
	return s.repo.GetOrCreateDraftID(ctx, guestID, domain.NewClientID)
}

// CaptureEmail stores the normalized address used to prefill signup.
func (s *DraftService) CaptureEmail(ctx context.Context, guestID, email string) (string, error) {
	if err := checkGuestID(guestID); err != nil {
		return "", err
	}

	normalized, err := domain.NormalizeEmail(email)
	if err != nil {
		return "", err
	}
	if err := s.repo.SetEmail(ctx, guestID, normalized); err != nil {
		return "", err
	}
	return normalized, nil
}

func (s *DraftService) CapturedEmail(ctx context.Context, guestID string) (string, error) {
	if err := checkGuestID(guestID); err != nil {
		return "", err
	}
	return s.repo.GetEmail(ctx, guestID)
}

type corruptDraftError struct{ err error }

func (e *corruptDraftError) Error() string { return "corrupt draft: " + e.err.Error() }
func (e *corruptDraftError) Unwrap() error { return e.err }

// read distinguishes "nothing stored" (empty doc, nil) from storage and
// decode failures.
func (s *DraftService) read(ctx context.Context, guestID string) (domain.Document, error) {
	if err := checkGuestID(guestID); err != nil {
		return domain.Document{}, err
	}

	data, err := s.repo.GetDocument(ctx, guestID)
	if errors.Is(err, domain.ErrDraftNotFound) {
		return domain.Document{}, nil
	}
	if err != nil {
		return domain.Document{}, err
	}
	return decode(data)
}

// decode treats nil as an empty draft; a corrupt value decodes as empty
// alongside the error.
func decode(data []byte) (domain.Document, error) {
	var doc domain.Document
	if data == nil {
		return doc, nil
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return domain.Document{}, &corruptDraftError{err: err}
	}
	return doc, nil
}

func checkGuestID(guestID string) error {
	if strings.TrimSpace(guestID) == "" {
		return domain.ErrInvalidGuestID
	}
	return nil
}

package repository

import (
	"context"
	"sync"

	"github.com/resumeforge/resume-builder-backend/internal/guest/domain"
)

// MemoryDraftRepository is the in-process counterpart of RedisDraftRepository,
// used by the CLI and by tests. Entries never expire.
type MemoryDraftRepository struct {
	mu       sync.Mutex
	docs     map[string][]byte
	draftIDs map[string]string
	emails   map[string]string
}

func NewMemoryDraftRepository() *MemoryDraftRepository {
	return &MemoryDraftRepository{
		docs:     make(map[string][]byte),
		draftIDs: make(map[string]string),
		emails:   make(map[string]string),
	}
}

func (m *MemoryDraftRepository) GetDocument(_ context.Context, guestID string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.docs[guestID]
	if !ok {
		return nil, domain.ErrDraftNotFound
	}
	return append([]byte(nil), data...), nil
}

// UpdateDocument holds the lock across fn, mirroring the Redis transaction.
func (m *MemoryDraftRepository) UpdateDocument(_ context.Context, guestID string, fn func(current []byte) ([]byte, error)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var current []byte
	if data, ok := m.docs[guestID]; ok {
		current = append([]byte(nil), data...)
	}
	data, err := fn(current)
	if err != nil {
		return err
	}
	m.docs[guestID] = append([]byte(nil), data...)
	return nil
}

func (m *MemoryDraftRepository) DeleteAll(_ context.Context, guestID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.docs, guestID)
	delete(m.draftIDs, guestID)
	delete(m.emails, guestID)
	return nil
}

func (m *MemoryDraftRepository) GetOrCreateDraftID(_ context.Context, guestID string, newID func() string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id, ok := m.draftIDs[guestID]; ok {
		return id, false, nil
	}
	id := newID()
	m.draftIDs[guestID] = id
	return id, true, nil
}

func (m *MemoryDraftRepository) SetEmail(_ context.Context, guestID, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.emails[guestID] = email
	return nil
}

func (m *MemoryDraftRepository) GetEmail(_ context.Context, guestID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	email, ok := m.emails[guestID]
	if !ok {
		return "", domain.ErrEmailNotFound
	}
	return email, nil
}

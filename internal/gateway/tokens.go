package gateway

import (
	"sync"

	"golang.org/x/oauth2"
)

// TokenStore holds the caller's credentials between requests.
type TokenStore interface {
	Token() *oauth2.Token
	SetToken(tok *oauth2.Token)
	Clear()
}

type MemoryTokenStore struct {
	mu  sync.RWMutex
	tok *oauth2.Token
}

func NewMemoryTokenStore(tok *oauth2.Token) *MemoryTokenStore {
	return &MemoryTokenStore{tok: tok}
}

// Token returns a copy so callers cannot mutate the stored value.
func (s *MemoryTokenStore) Token() *oauth2.Token {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.tok == nil {
		return nil
	}
	cp := *s.tok
	return &cp
}

func (s *MemoryTokenStore) SetToken(tok *oauth2.Token) {
	s.mu.Lock()
	s.tok = tok
	s.mu.Unlock()
}

func (s *MemoryTokenStore) Clear() {
	s.mu.Lock()
	s.tok = nil
	s.mu.Unlock()
}

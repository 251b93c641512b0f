package auth

import "sync"

// RevocationStore tracks tokens that have been explicitly logged out.
// Revoked tokens are rejected before signature validation.
type RevocationStore interface {
	Add(token string)
	Contains(token string) bool
}

// MemoryRevocationStore is a process-scoped revocation set. It carries no
// persistence: a restart forgets all revoked tokens, which then expire on
// their own.
type MemoryRevocationStore struct {
	mu     sync.RWMutex
	tokens map[string]struct{}
}

func NewMemoryRevocationStore() *MemoryRevocationStore {
	return &MemoryRevocationStore{tokens: make(map[string]struct{})}
}

func (s *MemoryRevocationStore) Add(token string) {
	if token == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token] = struct{}{}
}

func (s *MemoryRevocationStore) Contains(token string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.tokens[token]
	return ok
}

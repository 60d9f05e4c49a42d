// Package session is the in-memory key-value bookkeeping for the chat glue
// layer: pending approvals and finished results, keyed by opaque tokens. The
// extraction pipeline itself never touches it.
package session

import "sync"

// Store is a mutex-guarded map with repository semantics. Entries live for
// the process lifetime only; persistence across restarts is out of scope.
type Store[T any] struct {
	mu      sync.RWMutex
	entries map[string]T
}

func NewStore[T any]() *Store[T] {
	return &Store[T]{entries: make(map[string]T)}
}

// Put stores or replaces the value for a token.
func (s *Store[T]) Put(token string, value T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[token] = value
}

// Get returns the value for a token, if present.
func (s *Store[T]) Get(token string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.entries[token]
	return v, ok
}

// Delete removes a token. Deleting an absent token is a no-op.
func (s *Store[T]) Delete(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, token)
}

// Take returns and removes the value for a token in one step, so two
// concurrent callbacks cannot both claim the same pending approval.
func (s *Store[T]) Take(token string) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.entries[token]
	if ok {
		delete(s.entries, token)
	}
	return v, ok
}

// Len reports the number of live entries.
func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

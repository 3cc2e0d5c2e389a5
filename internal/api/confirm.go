package api

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// confirmStore issues one-shot tokens for the delete confirmation step. A
// token is bound to one (resource, id) pair and expires if not redeemed; it
// holds no entity label, that stays with the caller.
type confirmStore struct {
	ttl time.Duration

	mu      sync.Mutex
	entries map[string]confirmEntry
}

type confirmEntry struct {
	resource string
	id       string
	expires  time.Time
}

func newConfirmStore(ttl time.Duration) *confirmStore {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &confirmStore{ttl: ttl, entries: make(map[string]confirmEntry)}
}

// issue creates a token for deleting the given entity. Abandoned intents
// are swept here so the store cannot grow past the active confirmations.
func (s *confirmStore) issue(resource, id string) string {
	token := uuid.NewString()
	now := time.Now()
	s.mu.Lock()
	for t, e := range s.entries {
		if now.After(e.expires) {
			delete(s.entries, t)
		}
	}
	s.entries[token] = confirmEntry{
		resource: resource,
		id:       id,
		expires:  now.Add(s.ttl),
	}
	s.mu.Unlock()
	return token
}

// redeem consumes the token if it matches the target and has not expired.
// Redemption is one-shot either way: a failed match still burns nothing,
// but an expired token is dropped.
func (s *confirmStore) redeem(token, resource, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[token]
	if !ok {
		return false
	}
	if time.Now().After(e.expires) {
		delete(s.entries, token)
		return false
	}
	if e.resource != resource || e.id != id {
		return false
	}
	delete(s.entries, token)
	return true
}

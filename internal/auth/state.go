package auth

import (
	"sync"
	"time"
)

// pendingLogin is one started OAuth flow, keyed by its state parameter.
type pendingLogin struct {
	verifier string
	expires  time.Time
}

// stateStore holds pending logins in memory. A state can be consumed once.
type stateStore struct {
	mu    sync.Mutex
	items map[string]pendingLogin
	now   func() time.Time
}

func newStateStore(now func() time.Time) *stateStore {
	if now == nil {
		now = time.Now
	}
	return &stateStore{items: make(map[string]pendingLogin), now: now}
}

func (s *stateStore) put(state, verifier string, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for k, p := range s.items {
		if now.After(p.expires) {
			delete(s.items, k)
		}
	}
	s.items[state] = pendingLogin{verifier: verifier, expires: now.Add(ttl)}
}

// consume removes state and returns its verifier if it had not expired.
func (s *stateStore) consume(state string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.items[state]
	if !ok {
		return "", false
	}
	delete(s.items, state)
	if s.now().After(p.expires) {
		return "", false
	}
	return p.verifier, true
}

func (s *stateStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

package session

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps live sessions in memory. Sessions untouched for longer
// than the idle TTL are removed by Cleanup.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	idleTTL  time.Duration
	now      func() time.Time
}

// NewMemoryStore creates an empty store. A non-positive idleTTL uses
// DefaultIdleTTL.
func NewMemoryStore(idleTTL time.Duration) *MemoryStore {
	if idleTTL <= 0 {
		idleTTL = DefaultIdleTTL
	}
	return &MemoryStore{
		sessions: make(map[string]*Session),
		idleTTL:  idleTTL,
		now:      time.Now,
	}
}

// Get implements [Store].
func (s *MemoryStore) Get(_ context.Context, sessionID string) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, notFound(sessionID)
	}
	sess.touch(s.now())
	return sess, nil
}

// Set implements [Store]. A session stored under an existing id replaces
// and closes the previous one.
func (s *MemoryStore) Set(_ context.Context, sess *Session) error {
	s.mu.Lock()
	prev, ok := s.sessions[sess.ID]
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	if ok && prev != sess {
		prev.Close()
	}
	return nil
}

// Delete implements [Store].
func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	if ok {
		sess.Close()
	}
	return nil
}

// Cleanup implements [Store].
func (s *MemoryStore) Cleanup(_ context.Context) (int, error) {
	cutoff := s.now().Add(-s.idleTTL)

	s.mu.Lock()
	var expired []*Session
	for id, sess := range s.sessions {
		if sess.TouchedAt().Before(cutoff) {
			expired = append(expired, sess)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, sess := range expired {
		sess.Close()
	}
	return len(expired), nil
}

// Len returns the number of sessions.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// All returns every session ordered by creation time.
func (s *MemoryStore) All() []*Session {
	s.mu.RLock()
	all := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		all = append(all, sess)
	}
	s.mu.RUnlock()
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID < all[j].ID
		}
		return all[i].CreatedAt.Before(all[j].CreatedAt)
	})
	return all
}

// Close closes and removes every session.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*Session)
	s.mu.Unlock()
	for _, sess := range sessions {
		sess.Close()
	}
	return nil
}

var _ Store = (*MemoryStore)(nil)

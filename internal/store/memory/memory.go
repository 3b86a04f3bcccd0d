// Package memory provides in-process stores guarded by a read/write mutex.
package memory

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/Ace30/insightmate/internal/store"
)

var (
	_ store.Sessions = (*SessionStore)(nil)
	_ store.Results  = (*ResultStore)(nil)
)

// SessionStore is an in-memory implementation of store.Sessions.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*store.Session
	now      func() time.Time
}

// NewSessionStore creates an empty session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*store.Session),
		now:      time.Now,
	}
}

func (s *SessionStore) Append(_ context.Context, id string, m store.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		sess = &store.Session{ID: id, CreatedAt: s.now()}
		s.sessions[id] = sess
	}
	sess.Messages = append(sess.Messages, m)
	return nil
}

func (s *SessionStore) History(_ context.Context, id string) ([]store.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return []store.Message{}, nil
	}
	return slices.Clone(sess.Messages), nil
}

func (s *SessionStore) Get(_ context.Context, id string) (*store.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := *sess
	out.Messages = slices.Clone(sess.Messages)
	return &out, nil
}

func (s *SessionStore) Clear(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

// ResultStore is an in-memory implementation of store.Results.
type ResultStore struct {
	mu      sync.RWMutex
	entries map[string]store.Entry
}

// NewResultStore creates an empty result store.
func NewResultStore() *ResultStore {
	return &ResultStore{entries: make(map[string]store.Entry)}
}

func (s *ResultStore) Put(_ context.Context, e store.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[e.Key] = e
	return nil
}

func (s *ResultStore) Get(_ context.Context, key string) (*store.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[key]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &e, nil
}

func (s *ResultStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

func (s *ResultStore) List(_ context.Context) ([]store.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]store.Entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].Key < out[j].Key
	})
	return out, nil
}

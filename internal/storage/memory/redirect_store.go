package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/JakeFAU/paintco-web/internal/store"
)

// RedirectStore is an in-memory store.RedirectRepository.
type RedirectStore struct {
	mu    sync.RWMutex
	rules map[uuid.UUID]store.Redirect
}

// NewRedirectStore constructs a RedirectStore seeded with rules.
func NewRedirectStore(seed ...store.Redirect) *RedirectStore {
	s := &RedirectStore{rules: make(map[uuid.UUID]store.Redirect, len(seed))}
	for _, r := range seed {
		if r.ID == uuid.Nil {
			r.ID = uuid.New()
		}
		s.rules[r.ID] = r
	}
	return s
}

// ListActive returns every active rule.
func (s *RedirectStore) ListActive(_ context.Context) ([]store.Redirect, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]store.Redirect, 0, len(s.rules))
	for _, r := range s.rules {
		if r.IsActive {
			out = append(out, r)
		}
	}
	sortByFromPath(out)
	return out, nil
}

// List returns a page of rules ordered by from_path.
func (s *RedirectStore) List(_ context.Context, limit, offset int) ([]store.Redirect, error) {
	s.mu.RLock()
	all := make([]store.Redirect, 0, len(s.rules))
	for _, r := range s.rules {
		all = append(all, r)
	}
	s.mu.RUnlock()

	sortByFromPath(all)
	if offset >= len(all) {
		return []store.Redirect{}, nil
	}
	end := len(all)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return all[offset:end], nil
}

// Get loads a rule by ID.
func (s *RedirectStore) Get(_ context.Context, id uuid.UUID) (store.Redirect, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rules[id]
	if !ok {
		return store.Redirect{}, store.ErrNotFound
	}
	return r, nil
}

// Create inserts a rule, rejecting duplicate from_path values.
func (s *RedirectStore) Create(_ context.Context, r store.Redirect) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.rules[r.ID]; exists {
		return store.ErrConflict
	}
	if s.fromPathTaken(r.FromPath, r.ID) {
		return store.ErrConflict
	}
	s.rules[r.ID] = r
	return nil
}

// Update replaces an existing rule.
func (s *RedirectStore) Update(_ context.Context, r store.Redirect) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.rules[r.ID]
	if !ok {
		return store.ErrNotFound
	}
	if s.fromPathTaken(r.FromPath, r.ID) {
		return store.ErrConflict
	}
	r.CreatedAt = existing.CreatedAt
	s.rules[r.ID] = r
	return nil
}

// Delete removes a rule.
func (s *RedirectStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rules[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.rules, id)
	return nil
}

func (s *RedirectStore) fromPathTaken(fromPath string, except uuid.UUID) bool {
	for id, r := range s.rules {
		if id != except && r.FromPath == fromPath {
			return true
		}
	}
	return false
}

func sortByFromPath(rules []store.Redirect) {
	sort.Slice(rules, func(i, j int) bool { return rules[i].FromPath < rules[j].FromPath })
}

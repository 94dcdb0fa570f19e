package memory

import (
	"context"
	"sync"

	"github.com/JakeFAU/paintco-web/internal/store"
)

// ContactStore keeps contact submissions in memory.
type ContactStore struct {
	mu          sync.RWMutex
	submissions []store.ContactSubmission
}

// NewContactStore constructs an empty ContactStore.
func NewContactStore() *ContactStore {
	return &ContactStore{}
}

// SaveSubmission appends the submission.
func (s *ContactStore) SaveSubmission(_ context.Context, sub store.ContactSubmission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submissions = append(s.submissions, sub)
	return nil
}

// Submissions returns a copy of everything saved so far.
func (s *ContactStore) Submissions() []store.ContactSubmission {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]store.ContactSubmission, len(s.submissions))
	copy(out, s.submissions)
	return out
}

package scorestore

import (
	"context"
	"sync"
	"time"

	"github.com/yanqian/survey-dashboard/internal/domain/survey"
)

type viewRecord struct {
	payload   survey.ScoreView
	expiresAt time.Time
}

// MemoryStore is an in-memory score cache for tests/dev and single-instance
// deployments.
type MemoryStore struct {
	mu    sync.RWMutex
	views map[string]viewRecord
	now   func() time.Time
}

// NewMemoryStore constructs a store backed by process memory.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		views: make(map[string]viewRecord),
		now:   time.Now,
	}
}

// Get implements survey.ScoreStore.
func (s *MemoryStore) Get(_ context.Context, key string) (survey.ScoreView, bool, error) {
	if key == "" {
		return survey.ScoreView{}, false, nil
	}
	s.mu.RLock()
	record, ok := s.views[key]
	s.mu.RUnlock()
	if !ok {
		return survey.ScoreView{}, false, nil
	}
	if s.hasExpired(record.expiresAt) {
		s.mu.Lock()
		delete(s.views, key)
		s.mu.Unlock()
		return survey.ScoreView{}, false, nil
	}
	return record.payload, true, nil
}

// Save caches the view with optional TTL.
func (s *MemoryStore) Save(_ context.Context, key string, view survey.ScoreView, ttl time.Duration) error {
	if key == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	exp := time.Time{}
	if ttl > 0 {
		exp = s.now().Add(ttl)
	}
	s.views[key] = viewRecord{payload: view, expiresAt: exp}
	return nil
}

// Len reports how many views are held, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.views)
}

func (s *MemoryStore) hasExpired(ts time.Time) bool {
	if ts.IsZero() {
		return false
	}
	return ts.Before(s.now())
}

var _ survey.ScoreStore = (*MemoryStore)(nil)

package infra_memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/humanbelnik/pokerboard/internal/model"
	usecase_feature "github.com/humanbelnik/pokerboard/internal/usecase/feature"
)

type FeatureStore struct {
	mu       sync.RWMutex
	features map[uuid.UUID]model.Feature
}

func NewFeatureStore() *FeatureStore {
	return &FeatureStore{
		features: make(map[uuid.UUID]model.Feature),
	}
}

func (s *FeatureStore) Create(ctx context.Context, f model.Feature) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.features[f.ID] = f
	return nil
}

func (s *FeatureStore) List(ctx context.Context) ([]model.Feature, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Feature, 0, len(s.features))
	for _, f := range s.features {
		out = append(out, f)
	}
	return out, nil
}

func (s *FeatureStore) AddVotes(ctx context.Context, id uuid.UUID, delta int) (model.Feature, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.features[id]
	if !ok {
		return model.Feature{}, usecase_feature.ErrNotFound
	}
	f.Votes += delta
	s.features[id] = f
	return f, nil
}

// VoteLock is the single-process counterpart of the Redis lock: a token holds
// its vote for ttl, zero meaning forever.
type VoteLock struct {
	ttl time.Duration
	now func() time.Time

	mu    sync.Mutex
	votes map[string]time.Time
}

func NewVoteLock(ttl time.Duration) *VoteLock {
	return &VoteLock{
		ttl:   ttl,
		now:   time.Now,
		votes: make(map[string]time.Time),
	}
}

func (l *VoteLock) Acquire(ctx context.Context, token string, id uuid.UUID) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := lockKey(token, id)
	now := l.now()
	if expires, ok := l.votes[key]; ok && (expires.IsZero() || now.Before(expires)) {
		return false, nil
	}

	var expires time.Time
	if l.ttl > 0 {
		expires = now.Add(l.ttl)
	}
	l.votes[key] = expires
	return true, nil
}

func (l *VoteLock) Release(ctx context.Context, token string, id uuid.UUID) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.votes, lockKey(token, id))
	return nil
}

func lockKey(token string, id uuid.UUID) string {
	return token + ":" + id.String()
}

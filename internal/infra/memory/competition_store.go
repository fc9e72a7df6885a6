package memory

import (
	"context"
	"sync"

	"compquiz-service/internal/domain"
)

// CompetitionStore is an in-memory implementation of app.CompetitionStore.
type CompetitionStore struct {
	mu           sync.RWMutex
	competitions map[string]domain.Competition
}

func NewCompetitionStore(seed []domain.Competition) *CompetitionStore {
	competitions := make(map[string]domain.Competition, len(seed))
	for _, c := range seed {
		competitions[c.ID] = c
	}
	return &CompetitionStore{competitions: competitions}
}

func (s *CompetitionStore) GetCompetition(_ context.Context, id string) (domain.Competition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if comp, ok := s.competitions[id]; ok {
		return comp, nil
	}
	return domain.Competition{}, domain.ErrCompetitionNotFound
}

// Put inserts or replaces a competition. Only IsOpened changes after
// creation in practice; the store does not enforce that.
func (s *CompetitionStore) Put(comp domain.Competition) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.competitions[comp.ID] = comp
}

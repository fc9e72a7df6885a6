package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// AnonIDStore hands out stable anonymous identifiers for unauthenticated
// individual-track participants, keyed by a device token. In-memory variant
// of the Redis-backed store.
type AnonIDStore struct {
	mu  sync.Mutex
	ids map[string]string
}

func NewAnonIDStore() *AnonIDStore {
	return &AnonIDStore{ids: make(map[string]string)}
}

// GetOrCreate returns the identifier bound to the device key, generating one
// on first use.
func (s *AnonIDStore) GetOrCreate(_ context.Context, deviceKey string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.ids[deviceKey]; ok {
		return id, nil
	}
	id := uuid.New().String()
	s.ids[deviceKey] = id
	return id, nil
}

package redis

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// AnonIDStore keeps anonymous participant identifiers in Redis so they
// survive restarts. SetNX makes getOrCreate race-safe across instances:
// whichever writer lands first wins, everyone reads the same id back.
type AnonIDStore struct {
	client *redis.Client
}

func NewAnonIDStore(client *redis.Client) *AnonIDStore {
	return &AnonIDStore{client: client}
}

func (s *AnonIDStore) GetOrCreate(ctx context.Context, deviceKey string) (string, error) {
	key := s.key(deviceKey)
	candidate := uuid.New().String()

	set, err := s.client.SetNX(ctx, key, candidate, 0).Result()
	if err != nil {
		return "", fmt.Errorf("reserve anon id: %w", err)
	}
	if set {
		return candidate, nil
	}
	id, err := s.client.Get(ctx, key).Result()
	if err != nil {
		return "", fmt.Errorf("read anon id: %w", err)
	}
	return id, nil
}

func (s *AnonIDStore) key(deviceKey string) string {
	return "anon:device:" + deviceKey
}

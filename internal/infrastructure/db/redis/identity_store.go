package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/medihub/health-portal/internal/core/domain"
	"github.com/medihub/health-portal/internal/infrastructure/codec"
)

const keyPrefix = "portal:session:"

// IdentityStore keeps the current identity under one fixed Redis key.
// Records never expire.
// Key format: portal:session:<storage_key>
type IdentityStore struct {
	client *redis.Client
	key    string
}

// NewIdentityStore creates an IdentityStore wrapping the given Redis client.
func NewIdentityStore(client *redis.Client, storageKey string) *IdentityStore {
	return &IdentityStore{client: client, key: keyPrefix + storageKey}
}

func (s *IdentityStore) Load(ctx context.Context) (*domain.Identity, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load identity: %w", err)
	}
	return codec.DecodeIdentity(data)
}

func (s *IdentityStore) Save(ctx context.Context, identity *domain.Identity) error {
	data, err := codec.EncodeIdentity(identity)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("save identity: %w", err)
	}
	return nil
}

func (s *IdentityStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("clear identity: %w", err)
	}
	return nil
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// OAuthStateRepository stores one-time OAuth state values in Redis.
type OAuthStateRepository struct {
	client *redis.Client
}

// NewOAuthStateRepository constructs an OAuthStateRepository.
func NewOAuthStateRepository(client *redis.Client) *OAuthStateRepository {
	return &OAuthStateRepository{client: client}
}

// Save records state as issued for provider.
func (r *OAuthStateRepository) Save(ctx context.Context, state, provider string, ttl time.Duration) error {
	if err := r.client.Set(ctx, "oauth_state:"+state, provider, ttl).Err(); err != nil {
		return fmt.Errorf("save oauth state: %w", err)
	}
	return nil
}

// Consume deletes state and returns the provider it was issued for, or "" when unknown.
func (r *OAuthStateRepository) Consume(ctx context.Context, state string) (string, error) {
	provider, err := r.client.GetDel(ctx, "oauth_state:"+state).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("consume oauth state: %w", err)
	}
	return provider, nil
}

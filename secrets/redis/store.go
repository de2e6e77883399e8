package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

/* Redis implementation of secrets.Store
 * The verification public key is provisioned out of band under a plain key;
 * this adapter only ever reads it
 */

// DefaultTimeout bounds a single secret fetch
const DefaultTimeout = 5 * time.Second

type Store struct {
	client  *redis.Client
	timeout time.Duration
}

// NewStore creates a Redis-backed secret store
func NewStore(addr, password string, db int) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), DefaultTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to Redis: %w", err)
	}

	return &Store{
		client:  client,
		timeout: DefaultTimeout,
	}, nil
}

// Fetch reads a secret value, failing if the key is absent or empty.
// The call is bounded by the store timeout so a stalled Redis cannot hang
// the request.
func (s *Store) Fetch(ctx context.Context, secretID string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	value, err := s.client.Get(ctx, secretID).Result()
	if err == redis.Nil {
		return nil, fmt.Errorf("secret not found: %s", secretID)
	}
	if err != nil {
		return nil, fmt.Errorf("fetching secret %s: %w", secretID, err)
	}

	value = strings.TrimSpace(value)
	if value == "" {
		return nil, fmt.Errorf("secret is empty: %s", secretID)
	}

	return []byte(value), nil
}

// Close closes the Redis connection
func (s *Store) Close() error {
	return s.client.Close()
}

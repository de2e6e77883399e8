package secrets

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// ErrKeyUnavailable is returned when no unexpired key can be served
var ErrKeyUnavailable = errors.New("verification key unavailable")

// DefaultTTL is how long a fetched key is served before a refresh
const DefaultTTL = 300 * time.Second

/* KeyCache holds the webhook verification public key with a TTL, shielding
 * the hot path from the secret store. A single entry exists at a time.
 * Expired entries are never served (fail closed); refreshes are deduplicated
 * with single-flight so a burst of expired readers causes one store read
 */
type KeyCache struct {
	store    Store
	secretID string
	ttl      time.Duration

	// Now is the injected clock, replaceable in tests
	Now func() time.Time

	group singleflight.Group

	mu        sync.RWMutex
	key       []byte
	fetchedAt time.Time
}

// NewKeyCache creates a key cache over the given store.
// A non-positive ttl falls back to DefaultTTL.
func NewKeyCache(store Store, secretID string, ttl time.Duration) *KeyCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &KeyCache{
		store:    store,
		secretID: secretID,
		ttl:      ttl,
		Now:      time.Now,
	}
}

// Get returns the cached key while fresh, refreshing it otherwise.
// On refresh failure the error wraps ErrKeyUnavailable; a stale value is
// never returned past its TTL.
func (c *KeyCache) Get(ctx context.Context) ([]byte, error) {
	if key, ok := c.fresh(); ok {
		return key, nil
	}

	value, err, _ := c.group.Do(c.secretID, func() (interface{}, error) {
		// another caller in the same flight may have refreshed already
		if key, ok := c.fresh(); ok {
			return key, nil
		}

		key, err := c.store.Fetch(ctx, c.secretID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrKeyUnavailable, err)
		}
		if len(key) == 0 {
			return nil, fmt.Errorf("%w: store returned an empty value", ErrKeyUnavailable)
		}

		c.mu.Lock()
		c.key = key
		c.fetchedAt = c.Now()
		c.mu.Unlock()

		return key, nil
	})
	if err != nil {
		return nil, err
	}

	return value.([]byte), nil
}

func (c *KeyCache) fresh() ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.key == nil {
		return nil, false
	}
	if c.Now().Sub(c.fetchedAt) >= c.ttl {
		return nil, false
	}
	return c.key, true
}

// Package cache keeps resolved users in memory, keyed by access token.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/marshaler"
	"github.com/eko/gocache/lib/v4/store"
	ristretto_store "github.com/eko/gocache/store/ristretto/v4"
	"github.com/vncsmyrnk/campuspoll/internal/core/domain"
	"github.com/vncsmyrnk/campuspoll/internal/core/ports"
)

var _ ports.UserCache = (*UserCache)(nil)

type UserCache struct {
	client  *ristretto.Cache
	marshal *marshaler.Marshaler
}

func NewUserCache(maxEntries int64) (*UserCache, error) {
	if maxEntries <= 0 {
		maxEntries = 1024
	}

	// Every user costs 1, so MaxCost is an entry count. Ristretto's own
	// per-item overhead must not count against it.
	client, err := ristretto.NewCache(&ristretto.Config{
		NumCounters:        maxEntries * 10,
		MaxCost:            maxEntries,
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create user cache: %w", err)
	}

	manager := cache.New[any](ristretto_store.NewRistretto(client))
	return &UserCache{
		client:  client,
		marshal: marshaler.New(manager),
	}, nil
}

func (c *UserCache) Get(ctx context.Context, accessToken string) (*domain.User, bool) {
	value, err := c.marshal.Get(ctx, key(accessToken), new(domain.User))
	if err != nil {
		return nil, false
	}
	user, ok := value.(*domain.User)
	return user, ok
}

// Set stores the user and waits for ristretto's buffered write to land, so a
// Get right after Set sees it.
func (c *UserCache) Set(ctx context.Context, accessToken string, user domain.User, ttl time.Duration) error {
	err := c.marshal.Set(ctx, key(accessToken), user,
		store.WithExpiration(ttl),
		store.WithCost(1),
	)
	if err != nil {
		return fmt.Errorf("failed to cache user: %w", err)
	}
	c.client.Wait()
	return nil
}

func (c *UserCache) Delete(ctx context.Context, accessToken string) error {
	if err := c.marshal.Delete(ctx, key(accessToken)); err != nil {
		return fmt.Errorf("failed to evict user: %w", err)
	}
	return nil
}

func (c *UserCache) Close() {
	c.client.Close()
}

func key(accessToken string) string {
	sum := sha256.Sum256([]byte(accessToken))
	return "user#" + hex.EncodeToString(sum[:])
}

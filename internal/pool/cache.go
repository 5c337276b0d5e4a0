package pool

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru"

	"github.com/milsawicki/concordium-reference-wallet-ios/internal/account"
)

type cachedStatus struct {
	status  Status
	fetched time.Time
}

// CachingQuerier keeps recent pool statuses so repeated checks within ttl do
// not reach the node. Failed queries are not cached.
type CachingQuerier struct {
	next  StatusQuerier
	cache *lru.Cache
	ttl   time.Duration
	now   func() time.Time
}

var _ StatusQuerier = (*CachingQuerier)(nil)

func NewCachingQuerier(next StatusQuerier, size int, ttl time.Duration) (*CachingQuerier, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCacheSize, size)
	}
	cache, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &CachingQuerier{next: next, cache: cache, ttl: ttl, now: time.Now}, nil
}

func (c *CachingQuerier) PoolStatus(ctx context.Context, id account.BakerID) (Status, error) {
	if v, ok := c.cache.Get(id); ok {
		entry := v.(cachedStatus)
		if c.now().Sub(entry.fetched) < c.ttl {
			return entry.status, nil
		}
		c.cache.Remove(id)
	}

	status, err := c.next.PoolStatus(ctx, id)
	if err != nil {
		return Status{}, err
	}
	c.cache.Add(id, cachedStatus{status: status, fetched: c.now()})
	return status, nil
}

// Purge drops every cached status.
func (c *CachingQuerier) Purge() {
	c.cache.Purge()
}

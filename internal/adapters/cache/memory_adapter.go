package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/zatekoja/ticketassistant/internal/domain/providers"
)

type entry struct {
	value   []byte
	expires time.Time
}

// MemoryAdapter is a bounded in-process CacheProvider. Each key carries its
// own expiry; expired keys are dropped on read.
type MemoryAdapter struct {
	mu    sync.Mutex
	items *lru.Cache[string, entry]
	now   func() time.Time
}

// NewMemoryAdapter creates a cache holding at most size keys.
func NewMemoryAdapter(size int) (*MemoryAdapter, error) {
	items, err := lru.New[string, entry](size)
	if err != nil {
		return nil, err
	}
	return &MemoryAdapter{items: items, now: time.Now}, nil
}

var _ providers.CacheProvider = (*MemoryAdapter)(nil)

func (a *MemoryAdapter) Get(_ context.Context, key string) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	e, ok := a.items.Get(key)
	if !ok {
		return nil, providers.ErrCacheMiss
	}
	if !e.expires.IsZero() && !a.now().Before(e.expires) {
		a.items.Remove(key)
		return nil, providers.ErrCacheMiss
	}
	return e.value, nil
}

// Set stores value; a non-positive expiration keeps it until evicted.
func (a *MemoryAdapter) Set(_ context.Context, key string, value []byte, expirationSeconds int) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	e := entry{value: append([]byte(nil), value...)}
	if expirationSeconds > 0 {
		e.expires = a.now().Add(time.Duration(expirationSeconds) * time.Second)
	}
	a.items.Add(key, e)
	return nil
}

func (a *MemoryAdapter) Delete(_ context.Context, key string) error {
	a.items.Remove(key)
	return nil
}

func (a *MemoryAdapter) Exists(ctx context.Context, key string) (bool, error) {
	_, err := a.Get(ctx, key)
	return err == nil, nil
}

func (a *MemoryAdapter) DeletePrefix(_ context.Context, prefix string) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	deleted := 0
	for _, key := range a.items.Keys() {
		if strings.HasPrefix(key, prefix) {
			a.items.Remove(key)
			deleted++
		}
	}
	return deleted, nil
}

package bus

import (
	"context"
	"fmt"
	"sync"

	"github.com/aretw0/canopy/pkg/ports"
)

// DefaultIDBatch is how many identifiers are fetched per refill.
const DefaultIDBatch = 32

// IDAllocator hands out identifiers from a pool pre-fetched from an IDSource.
// Safe for concurrent use.
type IDAllocator struct {
	mu    sync.Mutex
	src   ports.IDSource
	batch int
	pool  []string
}

// NewIDAllocator creates an allocator that refills batch identifiers at a time.
func NewIDAllocator(src ports.IDSource, batch int) *IDAllocator {
	if batch <= 0 {
		batch = DefaultIDBatch
	}
	return &IDAllocator{src: src, batch: batch}
}

// Prefetch fills the pool if it is empty.
func (a *IDAllocator) Prefetch(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.refill(ctx)
}

// Next returns a fresh identifier, refilling the pool when it runs dry.
func (a *IDAllocator) Next(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.refill(ctx); err != nil {
		return "", err
	}
	id := a.pool[0]
	a.pool = a.pool[1:]
	return id, nil
}

// Available returns the number of identifiers left in the pool.
func (a *IDAllocator) Available() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.pool)
}

func (a *IDAllocator) refill(ctx context.Context) error {
	if len(a.pool) > 0 {
		return nil
	}
	ids, err := a.src.NextIDs(ctx, a.batch)
	if err != nil {
		return fmt.Errorf("failed to fetch id pool: %w", err)
	}
	if len(ids) == 0 {
		return fmt.Errorf("failed to fetch id pool: source returned no ids")
	}
	a.pool = append(a.pool, ids...)
	return nil
}

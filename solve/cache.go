package solve

import (
	"math/big"
	"sync"

	"controlledreduction/poly"
)

type verdict struct {
	singular bool
	err      error
}

// Cache memoizes smoothness verdicts by polynomial digest and prime.
type Cache struct {
	mu sync.Mutex
	m  map[string]verdict
}

func NewCache() *Cache { return &Cache{m: map[string]verdict{}} }

var defaultCache = NewCache()

// Default is the process-wide cache.
func Default() *Cache { return defaultCache }

// HasSingularPoint answers from the cache when it can.
func (c *Cache) HasSingularPoint(f *poly.Poly, p uint64) (bool, error) {
	key := f.Digest(new(big.Int).SetUint64(p))
	c.mu.Lock()
	v, ok := c.m[key]
	c.mu.Unlock()
	if ok {
		return v.singular, v.err
	}
	s, err := HasSingularPoint(f, p)
	c.mu.Lock()
	c.m[key] = verdict{singular: s, err: err}
	c.mu.Unlock()
	return s, err
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.m)
}

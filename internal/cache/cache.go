package cache

import (
	"sync"

	"github.com/vgccalc/vgccalc/pkg/core"
)

// DexCache keeps species and moves resolved from storage so repeated
// lookups during a batch do not hit the database. Keys are normalised IDs.
type DexCache struct {
	m       sync.Mutex
	Species map[string]core.Species
	Moves   map[string]core.MoveData
	hits    SafeCounter
	misses  SafeCounter
}

func NewDexCache() *DexCache {
	return &DexCache{
		m:       sync.Mutex{},
		Species: make(map[string]core.Species),
		Moves:   make(map[string]core.MoveData),
	}
}

func (c *DexCache) Reset() {
	c.m.Lock()
	defer c.m.Unlock()
	c.Species = make(map[string]core.Species)
	c.Moves = make(map[string]core.MoveData)
}

func (c *DexCache) GetSpecies(id string) (core.Species, bool) {
	c.m.Lock()
	defer c.m.Unlock()
	if s, ok := c.Species[id]; ok {
		c.hits.Inc()
		return s, true
	}
	c.misses.Inc()
	return core.Species{}, false
}

func (c *DexCache) GetMove(id string) (core.MoveData, bool) {
	c.m.Lock()
	defer c.m.Unlock()
	if mv, ok := c.Moves[id]; ok {
		c.hits.Inc()
		return mv, true
	}
	c.misses.Inc()
	return core.MoveData{}, false
}

func (c *DexCache) AddSpecies(s core.Species) {
	c.m.Lock()
	defer c.m.Unlock()
	c.Species[s.ID] = s
}

func (c *DexCache) AddMove(mv core.MoveData) {
	c.m.Lock()
	defer c.m.Unlock()
	c.Moves[mv.ID] = mv
}

// Stats returns the cache size and hit counters.
func (c *DexCache) Stats() (species, moves, hits, misses int) {
	c.m.Lock()
	species, moves = len(c.Species), len(c.Moves)
	c.m.Unlock()
	return species, moves, c.hits.Value(), c.misses.Value()
}

// SafeCounter is a thread-safe counter
type SafeCounter struct {
	mu sync.Mutex
	v  int
}

func (c *SafeCounter) Value() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.v
}

func (c *SafeCounter) Set(v int) {
	c.mu.Lock()
	c.v = v
	c.mu.Unlock()
}

func (c *SafeCounter) Inc() {
	c.mu.Lock()
	c.v++
	c.mu.Unlock()
}

package cache

import (
	"sync"

	"github.com/battlecode/engine/pkg/unit"
)

// RoundCache maps unit ids to the round they were registered in, for the
// current match
type RoundCache struct {
	mu     sync.RWMutex
	rounds map[unit.ID]uint32
}

// NewRoundCache creates a new RoundCache
func NewRoundCache() *RoundCache {
	return &RoundCache{
		rounds: make(map[unit.ID]uint32),
	}
}

// Get retrieves the round by unit id
func (c *RoundCache) Get(id unit.ID) (uint32, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	round, ok := c.rounds[id]
	return round, ok
}

// Set stores the round of a unit id
func (c *RoundCache) Set(id unit.ID, round uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rounds[id] = round
}

// Len is the number of registered units
func (c *RoundCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.rounds)
}

// Reset clears all rounds from the cache
func (c *RoundCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rounds = make(map[unit.ID]uint32)
}

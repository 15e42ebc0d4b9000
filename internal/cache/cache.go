package cache

import (
	"reflect"
	"sync"

	"github.com/battlecode/engine/pkg/unit"
)

// StateCache remembers the last recorded state of every unit so recorders
// only store states that changed.
type StateCache struct {
	m      sync.Mutex
	states map[unit.ID]unit.Record
}

func NewStateCache() *StateCache {
	return &StateCache{
		states: make(map[unit.ID]unit.Record),
	}
}

func (c *StateCache) Reset() {
	c.m.Lock()
	defer c.m.Unlock()
	c.states = make(map[unit.ID]unit.Record)
}

// Get returns the last state stored for id.
func (c *StateCache) Get(id unit.ID) (unit.Record, bool) {
	c.m.Lock()
	defer c.m.Unlock()
	r, ok := c.states[id]
	return r, ok
}

// Changed reports whether r differs from the cached state of its unit,
// without storing it.
func (c *StateCache) Changed(r unit.Record) bool {
	c.m.Lock()
	defer c.m.Unlock()
	prev, ok := c.states[r.ID]
	return !ok || !reflect.DeepEqual(prev, r)
}

// Update stores r as the latest state of its unit. It returns false, and
// stores nothing, when r is identical to the state already cached.
func (c *StateCache) Update(r unit.Record) bool {
	c.m.Lock()
	defer c.m.Unlock()
	if prev, ok := c.states[r.ID]; ok && reflect.DeepEqual(prev, r) {
		return false
	}
	c.states[r.ID] = r
	return true
}

// Forget drops a destroyed unit.
func (c *StateCache) Forget(id unit.ID) {
	c.m.Lock()
	defer c.m.Unlock()
	delete(c.states, id)
}

func (c *StateCache) Len() int {
	c.m.Lock()
	defer c.m.Unlock()
	return len(c.states)
}

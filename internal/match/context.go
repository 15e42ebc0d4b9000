package match

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/battlecode/engine/pkg/core"
	"github.com/battlecode/engine/pkg/unit"
)

var (
	ErrUnknownUnit   = errors.New("unknown unit")
	ErrDuplicateUnit = errors.New("unit already in roster")
)

// Context holds the current match, its round and the units on the map.
// Units inside a rocket are not in the roster; they travel in the rocket's
// garrison.
type Context struct {
	mu       sync.RWMutex
	match    *core.Match
	round    uint32
	nextID   unit.ID
	units    map[unit.ID]*unit.Unit
	mobility unit.Mobility
}

// NewContext creates a Context with no match loaded. A nil mobility table
// means unit.DefaultMobility.
func NewContext(mobility unit.Mobility) *Context {
	if mobility == nil {
		mobility = unit.DefaultMobility()
	}
	return &Context{
		match:    &core.Match{Name: "No match loaded"},
		units:    make(map[unit.ID]*unit.Unit),
		mobility: mobility,
	}
}

// SetMatch starts a new match, clearing the roster and the round counter.
func (c *Context) SetMatch(m *core.Match) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.match = m
	c.round = 0
	c.nextID = 0
	c.units = make(map[unit.ID]*unit.Unit)
}

// GetMatch returns the current match
func (c *Context) GetMatch() *core.Match {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.match
}

// Round is the number of completed rounds.
func (c *Context) Round() uint32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.round
}

// Spawn builds a unit, places it at loc and adds it to the roster. Ids are
// handed out in increasing order starting at 1.
func (c *Context) Spawn(team core.Team, t unit.UnitType, level unit.Level, loc *core.MapLocation) (unit.ID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextID + 1
	u, err := unit.New(id, team, t, level)
	if err != nil {
		return 0, fmt.Errorf("spawn %s for %s: %w", t, team, err)
	}
	u.MoveTo(loc)
	c.nextID = id
	c.units[id] = u
	return id, nil
}

// Insert puts a unit back into the roster, e.g. after it left a rocket.
func (c *Context) Insert(u *unit.Unit) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.units[u.ID()]; ok {
		return fmt.Errorf("insert unit %d: %w", u.ID(), ErrDuplicateUnit)
	}
	c.units[u.ID()] = u.Clone()
	if u.ID() > c.nextID {
		c.nextID = u.ID()
	}
	return nil
}

// Get returns a copy of the unit.
func (c *Context) Get(id unit.ID) (*unit.Unit, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	u, ok := c.units[id]
	if !ok {
		return nil, false
	}
	return u.Clone(), true
}

// Update runs fn on the roster's unit while holding the lock.
func (c *Context) Update(id unit.ID, fn func(u *unit.Unit) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	u, ok := c.units[id]
	if !ok {
		return fmt.Errorf("update unit %d: %w", id, ErrUnknownUnit)
	}
	return fn(u)
}

// Remove takes a unit out of the roster and returns it.
func (c *Context) Remove(id unit.ID) (*unit.Unit, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	u, ok := c.units[id]
	if ok {
		delete(c.units, id)
	}
	return u, ok
}

// IDs returns the roster's ids in ascending order.
func (c *Context) IDs() []unit.ID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Sorted(maps.Keys(c.units))
}

// Snapshot returns copies of every roster unit, sorted by id.
func (c *Context) Snapshot() []*unit.Unit {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*unit.Unit, 0, len(c.units))
	for _, id := range slices.Sorted(maps.Keys(c.units)) {
		out = append(out, c.units[id].Clone())
	}
	return out
}

// Len is the number of units in the roster.
func (c *Context) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.units)
}

// CanMove reports whether the unit's kind may move and its movement heat
// has cooled below the per-round loss.
func (c *Context) CanMove(id unit.ID) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	u, ok := c.units[id]
	if !ok {
		return false
	}
	return c.mobility.Allows(u.Type()) && u.MovementHeat() < core.HeatLossPerRound
}

// CanAttack reports whether the unit's attack heat has cooled below the
// per-round loss.
func (c *Context) CanAttack(id unit.ID) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	u, ok := c.units[id]
	return ok && u.AttackHeat() < core.HeatLossPerRound
}

// EndRound processes the end of the round: every unit in the roster gets
// exactly one NextRound call, in ascending id order, then dead units are
// removed. It returns the ids of the removed units. A destroyed rocket's
// passengers are destroyed with it and follow its id in the result.
func (c *Context) EndRound() []unit.ID {
	c.mu.Lock()
	defer c.mu.Unlock()

	var destroyed []unit.ID
	for _, id := range slices.Sorted(maps.Keys(c.units)) {
		u := c.units[id]
		u.NextRound()
		if u.IsDead() {
			destroyed = append(destroyed, id)
			passengers, _ := u.GarrisonedUnits()
			for i := range passengers {
				destroyed = append(destroyed, passengers[i].ID())
			}
			delete(c.units, id)
		}
	}
	c.round++
	return destroyed
}

// LogAttrs describes the current match for log records.
func (c *Context) LogAttrs() []slog.Attr {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return []slog.Attr{
		slog.String("match", c.match.Name),
		slog.Uint64("round", uint64(c.round)),
	}
}

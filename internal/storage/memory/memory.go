package memory

import (
	"fmt"
	"sync"

	"github.com/battlecode/engine/internal/config"
	"github.com/battlecode/engine/internal/storage"
	"github.com/battlecode/engine/pkg/core"
	"github.com/battlecode/engine/pkg/unit"
)

// StateRecord is a unit's state after a round
type StateRecord struct {
	Round uint32
	Unit  unit.Record
}

// UnitRecord groups a unit with all its recorded states
type UnitRecord struct {
	ID             unit.ID
	Team           core.Team
	UnitType       unit.UnitType
	SpawnRound     uint32
	DestroyedRound *uint32
	States         []StateRecord
}

// Backend stores match data in memory and exports it to a JSON replay
type Backend struct {
	cfg   config.MemoryConfig
	match *core.Match

	units    map[unit.ID]*UnitRecord
	states   int
	endRound uint32

	lastExportPath string
	mu             sync.RWMutex
}

// New creates a new memory backend
func New(cfg config.MemoryConfig) *Backend {
	return &Backend{
		cfg:   cfg,
		units: make(map[unit.ID]*UnitRecord),
	}
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Close cleans up resources
func (b *Backend) Close() error {
	return nil
}

// StartMatch begins recording a new match
func (b *Backend) StartMatch(m *core.Match) error {
	if m == nil {
		return fmt.Errorf("start match: %w", storage.ErrNoMatch)
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	b.match = m
	b.units = make(map[unit.ID]*UnitRecord)
	b.states = 0
	b.endRound = 0
	b.lastExportPath = ""
	return nil
}

// EndMatch finalizes and exports the match data
func (b *Backend) EndMatch(endRound uint32) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.match == nil {
		return fmt.Errorf("end match: %w", storage.ErrNoMatch)
	}
	b.endRound = endRound
	return b.exportJSON()
}

// AddUnit registers a new unit
func (b *Backend) AddUnit(round uint32, r unit.Record) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.match == nil {
		return fmt.Errorf("add unit %d: %w", r.ID, storage.ErrNoMatch)
	}
	if _, ok := b.units[r.ID]; ok {
		return fmt.Errorf("add unit %d: %w", r.ID, storage.ErrDuplicateUnit)
	}
	b.units[r.ID] = &UnitRecord{
		ID:         r.ID,
		Team:       r.Team,
		UnitType:   r.UnitType,
		SpawnRound: round,
		States:     make([]StateRecord, 0),
	}
	return nil
}

// RecordUnitState records a unit state update
func (b *Backend) RecordUnitState(round uint32, r unit.Record) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	record, ok := b.units[r.ID]
	if !ok {
		return fmt.Errorf("record unit %d: %w", r.ID, storage.ErrUnknownUnit)
	}
	record.States = append(record.States, StateRecord{Round: round, Unit: r})
	b.states++
	return nil
}

// RecordDestroyed marks a unit as destroyed at round
func (b *Backend) RecordDestroyed(round uint32, id unit.ID) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	record, ok := b.units[id]
	if !ok {
		return fmt.Errorf("destroy unit %d: %w", id, storage.ErrUnknownUnit)
	}
	r := round
	record.DestroyedRound = &r
	return nil
}

// GetUnit looks up a unit by id
func (b *Backend) GetUnit(id unit.ID) (*UnitRecord, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	record, ok := b.units[id]
	if !ok {
		return nil, false
	}
	c := *record
	c.States = append([]StateRecord(nil), record.States...)
	return &c, true
}

// ExportedFilePath returns the path of the last exported replay
func (b *Backend) ExportedFilePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportPath
}

// ExportMetadata summarizes the current match
func (b *Backend) ExportMetadata() storage.ExportMetadata {
	b.mu.RLock()
	defer b.mu.RUnlock()

	meta := storage.ExportMetadata{
		EndRound: b.endRound,
		Units:    len(b.units),
		States:   b.states,
	}
	if b.match != nil {
		meta.MatchName = b.match.Name
	}
	return meta
}

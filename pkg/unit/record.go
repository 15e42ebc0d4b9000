package unit

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/battlecode/engine/pkg/core"
)

// Record is the persisted form of a Unit. Replays store units as records and
// restoring one yields a unit equal to the one that was saved.
type Record struct {
	ID           ID                `json:"id"`
	Team         core.Team         `json:"team"`
	UnitType     UnitType          `json:"unit_type"`
	Location     *core.MapLocation `json:"location"`
	Health       uint32            `json:"health"`
	MovementHeat uint32            `json:"movement_heat"`
	AttackHeat   uint32            `json:"attack_heat"`
	Stats        StatBlock         `json:"stats"`
}

// StatBlock is the kind-tagged stat record. Exactly one field is set, the one
// matching the record's unit type.
type StatBlock struct {
	Worker  *WorkerInfo  `json:"worker,omitempty"`
	Knight  *KnightInfo  `json:"knight,omitempty"`
	Ranger  *RangerInfo  `json:"ranger,omitempty"`
	Mage    *MageInfo    `json:"mage,omitempty"`
	Healer  *HealerInfo  `json:"healer,omitempty"`
	Factory *FactoryInfo `json:"factory,omitempty"`
	Rocket  *RocketInfo  `json:"rocket,omitempty"`
}

func newStatBlock(info Info) StatBlock {
	switch info := info.(type) {
	case *WorkerInfo:
		return StatBlock{Worker: info}
	case *KnightInfo:
		return StatBlock{Knight: info}
	case *RangerInfo:
		return StatBlock{Ranger: info}
	case *MageInfo:
		return StatBlock{Mage: info}
	case *HealerInfo:
		return StatBlock{Healer: info}
	case *FactoryInfo:
		return StatBlock{Factory: info}
	case *RocketInfo:
		return StatBlock{Rocket: info}
	default:
		panic(fmt.Sprintf("unit: unhandled kind record %T", info))
	}
}

// variant returns the single set record.
func (s StatBlock) variant() (Info, error) {
	var found []Info
	if s.Worker != nil {
		found = append(found, s.Worker)
	}
	if s.Knight != nil {
		found = append(found, s.Knight)
	}
	if s.Ranger != nil {
		found = append(found, s.Ranger)
	}
	if s.Mage != nil {
		found = append(found, s.Mage)
	}
	if s.Healer != nil {
		found = append(found, s.Healer)
	}
	if s.Factory != nil {
		found = append(found, s.Factory)
	}
	if s.Rocket != nil {
		found = append(found, s.Rocket)
	}
	if len(found) != 1 {
		return nil, fmt.Errorf("%w: %d stat variants set", ErrCorruptRecord, len(found))
	}
	return found[0], nil
}

// Record returns the persisted form of the unit. It shares nothing with u.
func (u *Unit) Record() Record {
	var loc *core.MapLocation
	if u.location != nil {
		l := *u.location
		loc = &l
	}
	return Record{
		ID:           u.id,
		Team:         u.team,
		UnitType:     u.unitType,
		Location:     loc,
		Health:       u.health,
		MovementHeat: u.movementHeat,
		AttackHeat:   u.attackHeat,
		Stats:        newStatBlock(u.kind().clone()),
	}
}

// FromRecord restores a unit. The record must describe a unit this package
// could have produced: its stats must match the research tables for its
// level and its health must not exceed the kind's maximum.
func FromRecord(r Record) (*Unit, error) {
	if !r.UnitType.valid() {
		return nil, fmt.Errorf("%w: unit %d: %w", ErrCorruptRecord, r.ID, ErrUnknownUnitType)
	}
	info, err := r.Stats.variant()
	if err != nil {
		return nil, fmt.Errorf("unit %d: %w", r.ID, err)
	}
	if info.unitType() != r.UnitType {
		return nil, fmt.Errorf("%w: unit %d is a %s but carries %s stats", ErrCorruptRecord, r.ID, r.UnitType, info.unitType())
	}
	if err := checkTables(r.ID, info); err != nil {
		return nil, fmt.Errorf("unit %d: %w", r.ID, err)
	}
	if r.Health > info.maxHealth() {
		return nil, fmt.Errorf("%w: unit %d health %d above max %d", ErrCorruptRecord, r.ID, r.Health, info.maxHealth())
	}

	u := &Unit{
		id:           r.ID,
		team:         r.Team,
		unitType:     r.UnitType,
		health:       r.Health,
		movementHeat: r.MovementHeat,
		attackHeat:   r.AttackHeat,
		info:         info.clone(),
	}
	if r.Location != nil {
		if err := r.Location.Validate(); err != nil {
			return nil, fmt.Errorf("%w: unit %d: %w", ErrCorruptRecord, r.ID, err)
		}
		u.MoveTo(r.Location)
	}
	return u, nil
}

// checkTables compares a stored record with the tables at the stored level.
// A rocket's garrison must also be one LoadUnit could have built.
func checkTables(id ID, info Info) error {
	t := info.unitType()
	want, err := infoAt(t, info.level())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCorruptRecord, err)
	}
	got := info
	if rocket, ok := info.(*RocketInfo); ok {
		if uint32(len(rocket.Garrison)) > rocket.Capacity {
			return fmt.Errorf("%w: rocket holds %d units, capacity %d", ErrCorruptRecord, len(rocket.Garrison), rocket.Capacity)
		}
		seen := make(map[ID]bool, len(rocket.Garrison))
		for i := range rocket.Garrison {
			p := &rocket.Garrison[i]
			if !p.unitType.IsRobot() || p.location != nil || p.id == id || seen[p.id] {
				return fmt.Errorf("%w: invalid passenger %d", ErrCorruptRecord, p.id)
			}
			seen[p.id] = true
		}
		stripped := *rocket
		stripped.Garrison = nil
		got = &stripped
	}
	if !reflect.DeepEqual(got, want) {
		return fmt.Errorf("%w: %s stats do not match level %d", ErrCorruptRecord, t, info.level())
	}
	return nil
}

// MarshalJSON encodes the unit as its Record.
func (u Unit) MarshalJSON() ([]byte, error) {
	return json.Marshal(u.Record())
}

// UnmarshalJSON decodes and validates a Record.
func (u *Unit) UnmarshalJSON(data []byte) error {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}
	restored, err := FromRecord(r)
	if err != nil {
		return err
	}
	*u = *restored
	return nil
}

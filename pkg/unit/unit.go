package unit

import (
	"fmt"
	"math"

	"github.com/battlecode/engine/pkg/core"
)

// Unit is a single unit in the game.
//
// The zero value is not usable; units are built with New or restored with
// FromRecord. Copying a Unit value shares its location and kind record, use
// Clone for an independent copy.
type Unit struct {
	id           ID
	team         core.Team
	unitType     UnitType
	location     *core.MapLocation
	health       uint32
	movementHeat uint32
	attackHeat   uint32
	info         Info
}

// New creates a unit of the given type at the given research level.
//
// The unit starts from the level 0 stats and researches one tier at a time,
// so building at level n is identical to building at 0 and researching n
// times. A level beyond the kind's last tier is rejected with
// ErrResearchLimitExceeded.
func New(id ID, team core.Team, unitType UnitType, level Level) (*Unit, error) {
	if !unitType.valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownUnitType, uint8(unitType))
	}

	u := &Unit{
		id:       id,
		team:     team,
		unitType: unitType,
		info:     unitType.Default(),
	}
	for i := Level(0); i < level; i++ {
		if err := u.Research(); err != nil {
			return nil, fmt.Errorf("create %s at level %d: %w", unitType, level, err)
		}
	}
	u.health = spawnHealth(u.info)
	return u, nil
}

// spawnHealth is the health of a freshly built unit. Structures start a
// quarter built.
func spawnHealth(info Info) uint32 {
	switch info := info.(type) {
	case *FactoryInfo:
		return info.MaxHealth / 4
	case *RocketInfo:
		return info.MaxHealth / 4
	case *WorkerInfo, *KnightInfo, *RangerInfo, *MageInfo, *HealerInfo:
		return info.maxHealth()
	default:
		panic(fmt.Sprintf("unit: unhandled kind record %T", info))
	}
}

// ************************************************************************
// ******************************* ACCESSORS ******************************
// ************************************************************************

// ID is the unique id of the unit.
func (u *Unit) ID() ID {
	return u.id
}

// Team is the team the unit belongs to.
func (u *Unit) Team() core.Team {
	return u.team
}

// Type is the unit type.
func (u *Unit) Type() UnitType {
	return u.unitType
}

// Location returns the unit's location and true if it is on the map. Units
// are off the map while garrisoned and while a rocket is in flight.
func (u *Unit) Location() (core.MapLocation, bool) {
	if u.location == nil {
		return core.MapLocation{}, false
	}
	return *u.location, true
}

// Health is the current health.
func (u *Unit) Health() uint32 {
	return u.health
}

// MaxHealth is the nominal health of the unit's kind at its research level.
func (u *Unit) MaxHealth() uint32 {
	return u.kind().maxHealth()
}

// Level is the research level of the unit's kind record.
func (u *Unit) Level() Level {
	return u.kind().level()
}

// MovementHeat is the current movement heat.
func (u *Unit) MovementHeat() uint32 {
	return u.movementHeat
}

// AttackHeat is the current attack heat.
func (u *Unit) AttackHeat() uint32 {
	return u.attackHeat
}

// Info returns a copy of the unit's kind record. Type-assert it to the
// matching *XxxInfo to read kind-specific stats.
func (u *Unit) Info() Info {
	return u.kind().clone()
}

// IsDead reports whether the unit's health reached zero.
func (u *Unit) IsDead() bool {
	return u.health == 0
}

// kind returns the kind record after checking it still agrees with the
// declared unit type. A mismatch can only come from a bug in this package.
func (u *Unit) kind() Info {
	if u.info == nil || u.info.unitType() != u.unitType {
		panic(fmt.Sprintf("unit %d: kind record %T does not match type %s", u.id, u.info, u.unitType))
	}
	return u.info
}

// ************************************************************************
// ************************** MOVEMENT METHODS ****************************
// ************************************************************************

// IsMoveReady reports whether the unit's kind can move at all. Heat is not
// considered; that check belongs to the caller.
func (u *Unit) IsMoveReady() bool {
	return DefaultMobility().Allows(u.unitType)
}

// MoveTo sets the unit's location. A nil location takes the unit off the
// map. No validation is done against any map, heat or cooldown.
func (u *Unit) MoveTo(location *core.MapLocation) {
	if location == nil {
		u.location = nil
		return
	}
	loc := *location
	u.location = &loc
}

// AddMovementHeat raises movement heat after a move, saturating at the
// maximum value.
func (u *Unit) AddMovementHeat(amount uint32) {
	u.movementHeat = saturatingAdd(u.movementHeat, amount)
}

// ************************************************************************
// *************************** COMBAT METHODS *****************************
// ************************************************************************

// TakeDamage removes the given amount of health, never going below zero.
// It returns true if the unit has died.
func (u *Unit) TakeDamage(damage uint32) bool {
	u.health = saturatingSub(u.health, damage)
	return u.health == 0
}

// AddAttackHeat raises attack heat after an attack, saturating at the
// maximum value.
func (u *Unit) AddAttackHeat(amount uint32) {
	u.attackHeat = saturatingAdd(u.attackHeat, amount)
}

// ************************************************************************
// *********************** SPECIAL ABILITY METHODS ************************
// ************************************************************************

// GarrisonedUnits returns copies of the units inside a rocket. The second
// result is false for every other kind. The copies are independent of the
// rocket; use UnloadUnits to actually disembark them.
func (u *Unit) GarrisonedUnits() ([]Unit, bool) {
	switch info := u.kind().(type) {
	case *RocketInfo:
		return info.garrisonedUnits(), true
	case *WorkerInfo, *KnightInfo, *RangerInfo, *MageInfo, *HealerInfo, *FactoryInfo:
		return nil, false
	default:
		panic(fmt.Sprintf("unit: unhandled kind record %T", info))
	}
}

// LoadUnit garrisons a copy of passenger inside this rocket. The stored
// copy is off the map.
func (u *Unit) LoadUnit(passenger Unit) error {
	rocket, ok := u.kind().(*RocketInfo)
	if !ok {
		return fmt.Errorf("load unit %d into %s %d: %w", passenger.id, u.unitType, u.id, ErrNotRocket)
	}
	if passenger.id == u.id {
		return fmt.Errorf("load rocket %d into itself: %w", u.id, ErrInvalidPassenger)
	}
	for i := range rocket.Garrison {
		if rocket.Garrison[i].id == passenger.id {
			return fmt.Errorf("unit %d is already inside rocket %d: %w", passenger.id, u.id, ErrInvalidPassenger)
		}
	}
	if err := rocket.load(passenger); err != nil {
		return fmt.Errorf("load unit %d into rocket %d: %w", passenger.id, u.id, err)
	}
	return nil
}

// UnloadUnits removes and returns every garrisoned unit, in load order.
// It returns nil for non-rockets and empty rockets.
func (u *Unit) UnloadUnits() []Unit {
	if rocket, ok := u.kind().(*RocketInfo); ok {
		return rocket.unload()
	}
	return nil
}

// ************************************************************************
// **************************** OTHER METHODS *****************************
// ************************************************************************

// Research advances the unit's kind record by one level.
func (u *Unit) Research() error {
	return u.kind().research()
}

// NextRound processes the end of the round. It must be called exactly once
// per unit per round.
func (u *Unit) NextRound() {
	u.movementHeat = saturatingSub(u.movementHeat, core.HeatLossPerRound)
	u.attackHeat = saturatingSub(u.attackHeat, core.HeatLossPerRound)
}

// Clone returns a deep copy of the unit.
func (u *Unit) Clone() *Unit {
	c := u.clone()
	return &c
}

func (u *Unit) clone() Unit {
	c := *u
	if u.location != nil {
		loc := *u.location
		c.location = &loc
	}
	if u.info != nil {
		c.info = u.info.clone()
	}
	return c
}

func (u *Unit) String() string {
	loc := "off-map"
	if u.location != nil {
		loc = u.location.String()
	}
	return fmt.Sprintf("%s#%d[%s hp=%d/%d %s]", u.unitType, u.id, u.team, u.health, u.MaxHealth(), loc)
}

func saturatingSub(a, b uint32) uint32 {
	return a - min(a, b)
}

func saturatingAdd(a, b uint32) uint32 {
	if a > math.MaxUint32-b {
		return math.MaxUint32
	}
	return a + b
}

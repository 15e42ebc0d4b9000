package unit

import "fmt"

// ID is assigned by the orchestrator when a unit is spawned.
type ID uint32

// Level is a research tier. Every kind starts at 0.
type Level uint8

// UnitType enumerates the unit kinds, which include factories, rockets and the robots.
type UnitType uint8

const (
	// Worker harvests karbonite and builds and repairs structures.
	Worker UnitType = iota
	// Knight is a melee unit that is strong in numbers.
	Knight
	// Ranger is a ranged unit with good all-around combat.
	Ranger
	// Mage is a fragile but specialized ranged unit for large areas.
	Mage
	// Healer is a support unit that heals other robots.
	Healer
	// Factory produces robots.
	Factory
	// Rocket is the only unit that can move between planets.
	Rocket
)

var typeNames = [...]string{
	Worker:  "worker",
	Knight:  "knight",
	Ranger:  "ranger",
	Mage:    "mage",
	Healer:  "healer",
	Factory: "factory",
	Rocket:  "rocket",
}

// AllTypes lists every unit type in a fixed order.
func AllTypes() []UnitType {
	return []UnitType{Worker, Knight, Ranger, Mage, Healer, Factory, Rocket}
}

// ParseUnitType resolves a lower-case type name.
func ParseUnitType(s string) (UnitType, error) {
	for t, name := range typeNames {
		if name == s {
			return UnitType(t), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownUnitType, s)
}

func (t UnitType) valid() bool {
	return int(t) < len(typeNames)
}

func (t UnitType) String() string {
	if !t.valid() {
		return fmt.Sprintf("unittype(%d)", uint8(t))
	}
	return typeNames[t]
}

func (t UnitType) MarshalText() ([]byte, error) {
	if !t.valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownUnitType, uint8(t))
	}
	return []byte(typeNames[t]), nil
}

func (t *UnitType) UnmarshalText(text []byte) error {
	parsed, err := ParseUnitType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Default returns the level 0 stats of the given unit type.
// It panics on a value outside the enumeration.
func (t UnitType) Default() Info {
	info, err := infoAt(t, 0)
	if err != nil {
		panic(err)
	}
	return info
}

// MaxLevel is the highest research tier defined for the type.
func (t UnitType) MaxLevel() Level {
	switch t {
	case Worker:
		return WorkerMaxLevel
	case Knight:
		return KnightMaxLevel
	case Ranger:
		return RangerMaxLevel
	case Mage:
		return MageMaxLevel
	case Healer:
		return HealerMaxLevel
	case Factory:
		return FactoryMaxLevel
	case Rocket:
		return RocketMaxLevel
	default:
		return 0
	}
}

// IsRobot is true for every type except factories and rockets.
func (t UnitType) IsRobot() bool {
	return t.valid() && t != Factory && t != Rocket
}

// IsMelee is true for types that attack adjacent squares only.
func (t UnitType) IsMelee() bool {
	return t == Knight
}

// IsRanged is true for robots whose ability reaches beyond adjacent squares.
func (t UnitType) IsRanged() bool {
	return t == Ranger || t == Mage || t == Healer
}

package unit

import "fmt"

// Info is the kind-specific stat record of a unit. It is implemented by
// exactly the seven *XxxInfo types of this package.
type Info interface {
	unitType() UnitType
	level() Level
	maxHealth() uint32

	// research advances the record by one tier, recomputing every
	// level-dependent stat from the tables.
	research() error
	clone() Info
}

// infoAt builds the record of type t directly at the given level.
func infoAt(t UnitType, level Level) (Info, error) {
	if !t.valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownUnitType, uint8(t))
	}
	if level > t.MaxLevel() {
		return nil, researchLimit(t, t.MaxLevel())
	}
	switch t {
	case Worker:
		return newWorkerInfo(level), nil
	case Knight:
		return newKnightInfo(level), nil
	case Ranger:
		return newRangerInfo(level), nil
	case Mage:
		return newMageInfo(level), nil
	case Healer:
		return newHealerInfo(level), nil
	case Factory:
		return newFactoryInfo(level), nil
	default:
		return newRocketInfo(level), nil
	}
}

// ResearchTable returns the record of t at every level from 0 to its maximum.
func ResearchTable(t UnitType) ([]Info, error) {
	if !t.valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownUnitType, uint8(t))
	}
	table := make([]Info, 0, int(t.MaxLevel())+1)
	for lvl := Level(0); lvl <= t.MaxLevel(); lvl++ {
		info, err := infoAt(t, lvl)
		if err != nil {
			return nil, err
		}
		table = append(table, info)
	}
	return table, nil
}

// tier picks the value for level from a per-level table.
func tier[T any](table []T, level Level) T {
	return table[level]
}

package unit

import "fmt"

// Mobility says which unit types may use the move action at all.
type Mobility map[UnitType]bool

// DefaultMobility lets every robot move and keeps factories and rockets in
// place. Rockets change location only by launching.
func DefaultMobility() Mobility {
	m := make(Mobility, len(typeNames))
	for _, t := range AllTypes() {
		m[t] = t.IsRobot()
	}
	return m
}

// ParseMobility builds a table in which every type can move except the
// named ones.
func ParseMobility(immobile []string) (Mobility, error) {
	m := make(Mobility, len(typeNames))
	for _, t := range AllTypes() {
		m[t] = true
	}
	for _, name := range immobile {
		t, err := ParseUnitType(name)
		if err != nil {
			return nil, fmt.Errorf("mobility: %w", err)
		}
		m[t] = false
	}
	return m, nil
}

// Allows reports whether units of type t can move.
func (m Mobility) Allows(t UnitType) bool {
	return m[t]
}

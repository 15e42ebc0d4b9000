package unit

import (
	"errors"
	"fmt"
)

var (
	// ErrResearchLimitExceeded is returned when research is requested for a
	// kind that is already at its highest tier.
	ErrResearchLimitExceeded = errors.New("research limit exceeded")

	// ErrUnknownUnitType is returned for a type outside the enumeration.
	ErrUnknownUnitType = errors.New("unknown unit type")

	// ErrCorruptRecord is returned when a persisted record does not describe
	// a unit this package could have produced.
	ErrCorruptRecord = errors.New("corrupt unit record")

	// ErrNotRocket is returned by garrison operations on other kinds.
	ErrNotRocket = errors.New("unit is not a rocket")

	// ErrGarrisonFull is returned when a rocket is at capacity.
	ErrGarrisonFull = errors.New("rocket garrison is full")

	// ErrInvalidPassenger is returned when a structure is loaded into a rocket.
	ErrInvalidPassenger = errors.New("only robots can be garrisoned")
)

func researchLimit(t UnitType, level Level) error {
	return fmt.Errorf("%w: %s is already at level %d", ErrResearchLimitExceeded, t, level)
}

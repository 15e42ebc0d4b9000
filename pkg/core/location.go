package core

import (
	"errors"
	"fmt"
)

// ErrLocationOutOfRange is returned when a coordinate falls outside
// [MapCoordinateMin, MapCoordinateMax].
var ErrLocationOutOfRange = errors.New("location out of range")

// Planet is one of the two maps a match is played on.
type Planet uint8

const (
	Earth Planet = iota
	Mars
)

func (p Planet) String() string {
	switch p {
	case Earth:
		return "earth"
	case Mars:
		return "mars"
	default:
		return fmt.Sprintf("planet(%d)", uint8(p))
	}
}

// Other returns the planet on the other end of a rocket flight.
func (p Planet) Other() Planet {
	if p == Earth {
		return Mars
	}
	return Earth
}

func (p Planet) MarshalText() ([]byte, error) {
	switch p {
	case Earth, Mars:
		return []byte(p.String()), nil
	default:
		return nil, fmt.Errorf("invalid planet %d", uint8(p))
	}
}

func (p *Planet) UnmarshalText(text []byte) error {
	switch string(text) {
	case "earth":
		*p = Earth
	case "mars":
		*p = Mars
	default:
		return fmt.Errorf("unknown planet %q", string(text))
	}
	return nil
}

// MapLocation is a square on one planet's map.
type MapLocation struct {
	Planet Planet `json:"planet"`
	X      int32  `json:"x"`
	Y      int32  `json:"y"`
}

// NewMapLocation returns a validated location.
func NewMapLocation(planet Planet, x, y int32) (MapLocation, error) {
	loc := MapLocation{Planet: planet, X: x, Y: y}
	if err := loc.Validate(); err != nil {
		return MapLocation{}, err
	}
	return loc, nil
}

// Validate checks both coordinates against the global coordinate bounds.
// It knows nothing about the size of a concrete map.
func (l MapLocation) Validate() error {
	if l.X < MapCoordinateMin || l.X > MapCoordinateMax ||
		l.Y < MapCoordinateMin || l.Y > MapCoordinateMax {
		return fmt.Errorf("%w: (%d, %d)", ErrLocationOutOfRange, l.X, l.Y)
	}
	if l.Planet != Earth && l.Planet != Mars {
		return fmt.Errorf("%w: planet %d", ErrLocationOutOfRange, uint8(l.Planet))
	}
	return nil
}

// IsAdjacentTo reports whether o is one of the eight squares around l.
// Used to find the units caught in a rocket landing blast.
func (l MapLocation) IsAdjacentTo(o MapLocation) bool {
	if l.Planet != o.Planet || l == o {
		return false
	}
	dx := l.X - o.X
	dy := l.Y - o.Y
	return dx >= -1 && dx <= 1 && dy >= -1 && dy <= 1
}

// DistanceSquaredTo is the squared euclidean distance used by all range checks.
func (l MapLocation) DistanceSquaredTo(o MapLocation) uint32 {
	dx := int64(l.X - o.X)
	dy := int64(l.Y - o.Y)
	return uint32(dx*dx + dy*dy)
}

func (l MapLocation) String() string {
	return fmt.Sprintf("%s(%d, %d)", l.Planet, l.X, l.Y)
}

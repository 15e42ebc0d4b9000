package core

import "fmt"

// Team identifies one side of a match.
type Team uint8

const (
	TeamRed Team = iota
	TeamBlue
)

// AllTeams returns both teams in a fixed order.
func AllTeams() []Team {
	return []Team{TeamRed, TeamBlue}
}

func (t Team) String() string {
	switch t {
	case TeamRed:
		return "red"
	case TeamBlue:
		return "blue"
	default:
		return fmt.Sprintf("team(%d)", uint8(t))
	}
}

// Enemy returns the opposing team.
func (t Team) Enemy() Team {
	if t == TeamRed {
		return TeamBlue
	}
	return TeamRed
}

func (t Team) MarshalText() ([]byte, error) {
	switch t {
	case TeamRed, TeamBlue:
		return []byte(t.String()), nil
	default:
		return nil, fmt.Errorf("invalid team %d", uint8(t))
	}
}

func (t *Team) UnmarshalText(text []byte) error {
	switch string(text) {
	case "red":
		*t = TeamRed
	case "blue":
		*t = TeamBlue
	default:
		return fmt.Errorf("unknown team %q", string(text))
	}
	return nil
}

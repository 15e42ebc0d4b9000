package unit

// RocketMaxLevel is the last rocket research tier.
const RocketMaxLevel Level = 3

var (
	rocketLaunchUnlocked      = []bool{false, true, true, true}
	rocketTravelTimeReduction = []uint32{0, 0, 20, 20}
	rocketCapacity            = []uint32{8, 8, 8, 12}
)

// RocketInfo holds the stats of a rocket and the robots garrisoned inside it.
type RocketInfo struct {
	Level               Level  `json:"level"`
	MaxHealth           uint32 `json:"max_health"`
	LaunchUnlocked      bool   `json:"launch_unlocked"`
	TravelTimeReduction uint32 `json:"travel_time_reduction"`
	Capacity            uint32 `json:"capacity"`
	Garrison            []Unit `json:"garrison,omitempty"`
}

func newRocketInfo(level Level) *RocketInfo {
	return &RocketInfo{
		Level:               level,
		MaxHealth:           200,
		LaunchUnlocked:      tier(rocketLaunchUnlocked, level),
		TravelTimeReduction: tier(rocketTravelTimeReduction, level),
		Capacity:            tier(rocketCapacity, level),
	}
}

func (r *RocketInfo) unitType() UnitType { return Rocket }
func (r *RocketInfo) level() Level       { return r.Level }
func (r *RocketInfo) maxHealth() uint32  { return r.MaxHealth }

func (r *RocketInfo) research() error {
	if r.Level >= RocketMaxLevel {
		return researchLimit(Rocket, r.Level)
	}
	garrison := r.Garrison
	*r = *newRocketInfo(r.Level + 1)
	r.Garrison = garrison
	return nil
}

func (r *RocketInfo) clone() Info {
	c := *r
	c.Garrison = cloneUnits(r.Garrison)
	return &c
}

// garrisonedUnits returns copies of the passengers, never nil.
func (r *RocketInfo) garrisonedUnits() []Unit {
	units := cloneUnits(r.Garrison)
	if units == nil {
		units = []Unit{}
	}
	return units
}

func (r *RocketInfo) load(passenger Unit) error {
	if !passenger.unitType.IsRobot() {
		return ErrInvalidPassenger
	}
	if uint32(len(r.Garrison)) >= r.Capacity {
		return ErrGarrisonFull
	}
	p := passenger.clone()
	p.location = nil
	r.Garrison = append(r.Garrison, p)
	return nil
}

func (r *RocketInfo) unload() []Unit {
	units := r.Garrison
	r.Garrison = nil
	return units
}

func cloneUnits(units []Unit) []Unit {
	if len(units) == 0 {
		return nil
	}
	out := make([]Unit, len(units))
	for i := range units {
		out[i] = units[i].clone()
	}
	return out
}

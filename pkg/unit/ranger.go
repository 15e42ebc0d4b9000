package unit

// RangerMaxLevel is the last ranger research tier.
const RangerMaxLevel Level = 3

var (
	rangerVisionRange   = []uint32{70, 100, 100, 100}
	rangerDamage        = []uint32{70, 70, 80, 80}
	rangerSnipeUnlocked = []bool{false, false, false, true}
)

// RangerInfo holds the stats of a ranger.
type RangerInfo struct {
	Level            Level  `json:"level"`
	MaxHealth        uint32 `json:"max_health"`
	Damage           uint32 `json:"damage"`
	AttackRange      uint32 `json:"attack_range"`
	MinAttackRange   uint32 `json:"min_attack_range"`
	VisionRange      uint32 `json:"vision_range"`
	MovementCooldown uint32 `json:"movement_cooldown"`
	AttackCooldown   uint32 `json:"attack_cooldown"`
	SnipeUnlocked    bool   `json:"snipe_unlocked"`
}

func newRangerInfo(level Level) *RangerInfo {
	return &RangerInfo{
		Level:            level,
		MaxHealth:        200,
		Damage:           tier(rangerDamage, level),
		AttackRange:      50,
		MinAttackRange:   10,
		VisionRange:      tier(rangerVisionRange, level),
		MovementCooldown: 20,
		AttackCooldown:   20,
		SnipeUnlocked:    tier(rangerSnipeUnlocked, level),
	}
}

func (r *RangerInfo) unitType() UnitType { return Ranger }
func (r *RangerInfo) level() Level       { return r.Level }
func (r *RangerInfo) maxHealth() uint32  { return r.MaxHealth }

func (r *RangerInfo) research() error {
	if r.Level >= RangerMaxLevel {
		return researchLimit(Ranger, r.Level)
	}
	*r = *newRangerInfo(r.Level + 1)
	return nil
}

func (r *RangerInfo) clone() Info {
	c := *r
	return &c
}

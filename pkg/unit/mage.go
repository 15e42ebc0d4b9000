package unit

// MageMaxLevel is the last mage research tier.
const MageMaxLevel Level = 4

var (
	mageDamage        = []uint32{60, 75, 90, 105, 105}
	mageBlinkUnlocked = []bool{false, false, false, false, true}
)

// MageInfo holds the stats of a mage. Mage attacks splash onto every unit
// adjacent to the target; resolving the splash is up to the caller.
type MageInfo struct {
	Level            Level  `json:"level"`
	MaxHealth        uint32 `json:"max_health"`
	Damage           uint32 `json:"damage"`
	AttackRange      uint32 `json:"attack_range"`
	VisionRange      uint32 `json:"vision_range"`
	MovementCooldown uint32 `json:"movement_cooldown"`
	AttackCooldown   uint32 `json:"attack_cooldown"`
	BlinkUnlocked    bool   `json:"blink_unlocked"`
}

func newMageInfo(level Level) *MageInfo {
	return &MageInfo{
		Level:            level,
		MaxHealth:        80,
		Damage:           tier(mageDamage, level),
		AttackRange:      30,
		VisionRange:      30,
		MovementCooldown: 20,
		AttackCooldown:   20,
		BlinkUnlocked:    tier(mageBlinkUnlocked, level),
	}
}

func (m *MageInfo) unitType() UnitType { return Mage }
func (m *MageInfo) level() Level       { return m.Level }
func (m *MageInfo) maxHealth() uint32  { return m.MaxHealth }

func (m *MageInfo) research() error {
	if m.Level >= MageMaxLevel {
		return researchLimit(Mage, m.Level)
	}
	*m = *newMageInfo(m.Level + 1)
	return nil
}

func (m *MageInfo) clone() Info {
	c := *m
	return &c
}

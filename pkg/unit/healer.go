package unit

// HealerMaxLevel is the last healer research tier.
const HealerMaxLevel Level = 3

var (
	healerHealAmount         = []uint32{10, 12, 17, 17}
	healerOverchargeUnlocked = []bool{false, false, false, true}
)

// HealerInfo holds the stats of a healer.
type HealerInfo struct {
	Level              Level  `json:"level"`
	MaxHealth          uint32 `json:"max_health"`
	HealAmount         uint32 `json:"heal_amount"`
	HealRange          uint32 `json:"heal_range"`
	VisionRange        uint32 `json:"vision_range"`
	MovementCooldown   uint32 `json:"movement_cooldown"`
	AttackCooldown     uint32 `json:"attack_cooldown"`
	OverchargeUnlocked bool   `json:"overcharge_unlocked"`
}

func newHealerInfo(level Level) *HealerInfo {
	return &HealerInfo{
		Level:              level,
		MaxHealth:          100,
		HealAmount:         tier(healerHealAmount, level),
		HealRange:          30,
		VisionRange:        50,
		MovementCooldown:   25,
		AttackCooldown:     10,
		OverchargeUnlocked: tier(healerOverchargeUnlocked, level),
	}
}

func (h *HealerInfo) unitType() UnitType { return Healer }
func (h *HealerInfo) level() Level       { return h.Level }
func (h *HealerInfo) maxHealth() uint32  { return h.MaxHealth }

func (h *HealerInfo) research() error {
	if h.Level >= HealerMaxLevel {
		return researchLimit(Healer, h.Level)
	}
	*h = *newHealerInfo(h.Level + 1)
	return nil
}

func (h *HealerInfo) clone() Info {
	c := *h
	return &c
}

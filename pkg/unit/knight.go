package unit

// KnightMaxLevel is the last knight research tier.
const KnightMaxLevel Level = 3

var (
	knightDefense         = []uint32{5, 10, 15, 15}
	knightJavelinUnlocked = []bool{false, false, false, true}
)

// KnightInfo holds the stats of a knight.
type KnightInfo struct {
	Level            Level  `json:"level"`
	MaxHealth        uint32 `json:"max_health"`
	Damage           uint32 `json:"damage"`
	AttackRange      uint32 `json:"attack_range"`
	VisionRange      uint32 `json:"vision_range"`
	MovementCooldown uint32 `json:"movement_cooldown"`
	AttackCooldown   uint32 `json:"attack_cooldown"`
	Defense          uint32 `json:"defense"`
	JavelinRange     uint32 `json:"javelin_range"`
	JavelinUnlocked  bool   `json:"javelin_unlocked"`
}

func newKnightInfo(level Level) *KnightInfo {
	return &KnightInfo{
		Level:            level,
		MaxHealth:        250,
		Damage:           80,
		AttackRange:      1,
		VisionRange:      50,
		MovementCooldown: 15,
		AttackCooldown:   20,
		Defense:          tier(knightDefense, level),
		JavelinRange:     10,
		JavelinUnlocked:  tier(knightJavelinUnlocked, level),
	}
}

func (k *KnightInfo) unitType() UnitType { return Knight }
func (k *KnightInfo) level() Level       { return k.Level }
func (k *KnightInfo) maxHealth() uint32  { return k.MaxHealth }

func (k *KnightInfo) research() error {
	if k.Level >= KnightMaxLevel {
		return researchLimit(Knight, k.Level)
	}
	*k = *newKnightInfo(k.Level + 1)
	return nil
}

func (k *KnightInfo) clone() Info {
	c := *k
	return &c
}

package unit

// FactoryMaxLevel is the last factory research tier. Factories have no
// combat stats, only their production rate improves.
const FactoryMaxLevel Level = 1

var factoryProductionRate = []uint32{1, 2}

// FactoryInfo holds the stats of a factory.
type FactoryInfo struct {
	Level          Level  `json:"level"`
	MaxHealth      uint32 `json:"max_health"`
	ProductionRate uint32 `json:"production_rate"`
}

func newFactoryInfo(level Level) *FactoryInfo {
	return &FactoryInfo{
		Level:          level,
		MaxHealth:      300,
		ProductionRate: tier(factoryProductionRate, level),
	}
}

func (f *FactoryInfo) unitType() UnitType { return Factory }
func (f *FactoryInfo) level() Level       { return f.Level }
func (f *FactoryInfo) maxHealth() uint32  { return f.MaxHealth }

func (f *FactoryInfo) research() error {
	if f.Level >= FactoryMaxLevel {
		return researchLimit(Factory, f.Level)
	}
	*f = *newFactoryInfo(f.Level + 1)
	return nil
}

func (f *FactoryInfo) clone() Info {
	c := *f
	return &c
}

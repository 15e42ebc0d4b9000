package unit

// WorkerMaxLevel is the last worker research tier.
const WorkerMaxLevel Level = 4

var (
	workerHarvestAmount     = []uint32{3, 4, 4, 4, 4}
	workerBuildRepairHealth = []uint32{5, 5, 6, 7, 10}
)

// WorkerInfo holds the stats of a worker.
type WorkerInfo struct {
	Level             Level  `json:"level"`
	MaxHealth         uint32 `json:"max_health"`
	VisionRange       uint32 `json:"vision_range"`
	MovementCooldown  uint32 `json:"movement_cooldown"`
	HarvestAmount     uint32 `json:"harvest_amount"`
	BuildRepairHealth uint32 `json:"build_repair_health"`
}

func newWorkerInfo(level Level) *WorkerInfo {
	return &WorkerInfo{
		Level:             level,
		MaxHealth:         100,
		VisionRange:       50,
		MovementCooldown:  20,
		HarvestAmount:     tier(workerHarvestAmount, level),
		BuildRepairHealth: tier(workerBuildRepairHealth, level),
	}
}

func (w *WorkerInfo) unitType() UnitType { return Worker }
func (w *WorkerInfo) level() Level       { return w.Level }
func (w *WorkerInfo) maxHealth() uint32  { return w.MaxHealth }

func (w *WorkerInfo) research() error {
	if w.Level >= WorkerMaxLevel {
		return researchLimit(Worker, w.Level)
	}
	*w = *newWorkerInfo(w.Level + 1)
	return nil
}

func (w *WorkerInfo) clone() Info {
	c := *w
	return &c
}

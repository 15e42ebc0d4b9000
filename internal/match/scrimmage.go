package match

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/battlecode/engine/pkg/core"
	"github.com/battlecode/engine/pkg/unit"
)

// Scrimmage timings, in rounds.
const (
	ProduceEvery  = 10
	ResearchEvery = 25
	LoadRound     = 30
	LaunchRound   = 40
	LandRound     = LaunchRound + 1

	// ScrimmageSize is the width and height of both planets' maps.
	ScrimmageSize int32 = 30

	// rocketPassengers is how many robots each rocket takes to Mars.
	rocketPassengers = 2
)

var producible = []unit.UnitType{unit.Worker, unit.Knight, unit.Ranger, unit.Mage, unit.Healer}

// Scrimmage is a scripted match between two teams. Every decision comes from
// a PCG generator seeded with the match seed, so a seed always plays out the
// same way.
type Scrimmage struct {
	ctx     *Context
	rng     *rand.Rand
	log     *slog.Logger
	levels  map[core.Team]map[unit.UnitType]unit.Level
	rockets map[core.Team]unit.ID
	landing map[core.Team]core.MapLocation
}

func NewScrimmage(ctx *Context, seed int64, log *slog.Logger) *Scrimmage {
	if log == nil {
		log = slog.Default()
	}
	s := &Scrimmage{
		ctx:     ctx,
		rng:     rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15)),
		log:     log,
		levels:  make(map[core.Team]map[unit.UnitType]unit.Level),
		rockets: make(map[core.Team]unit.ID),
		landing: make(map[core.Team]core.MapLocation),
	}
	for _, team := range core.AllTeams() {
		s.levels[team] = make(map[unit.UnitType]unit.Level)
	}
	return s
}

func baseX(team core.Team) int32 {
	if team == core.TeamRed {
		return 3
	}
	return ScrimmageSize - 4
}

func earth(x, y int32) *core.MapLocation {
	return &core.MapLocation{Planet: core.Earth, X: x, Y: y}
}

// Setup spawns each team's starting units. Rockets start at level 1 so they
// can launch.
func (s *Scrimmage) Setup() error {
	for _, team := range core.AllTeams() {
		x := baseX(team)
		dir := int32(1)
		if team == core.TeamBlue {
			dir = -1
		}

		spawns := []struct {
			t   unit.UnitType
			loc *core.MapLocation
		}{
			{unit.Factory, earth(x, 15)},
			{unit.Rocket, earth(x, 11)},
			{unit.Worker, earth(x+dir, 14)},
			{unit.Worker, earth(x+dir, 16)},
			{unit.Knight, earth(x+2*dir, 13)},
			{unit.Ranger, earth(x+2*dir, 15)},
			{unit.Mage, earth(x+2*dir, 17)},
			{unit.Healer, earth(x+dir, 15)},
		}
		for _, sp := range spawns {
			level := s.levels[team][sp.t]
			if sp.t == unit.Rocket {
				level = 1
				s.levels[team][unit.Rocket] = level
			}
			id, err := s.ctx.Spawn(team, sp.t, level, sp.loc)
			if err != nil {
				return err
			}
			if sp.t == unit.Rocket {
				s.rockets[team] = id
				s.landing[team] = core.MapLocation{Planet: core.Mars, X: x, Y: 11 + 4*dir}
			}
		}
	}
	return nil
}

// PlayRound applies every unit's action for the given round. Units act in
// ascending id order.
func (s *Scrimmage) PlayRound(round uint32) error {
	if round%ResearchEvery == 0 {
		if err := s.research(); err != nil {
			return err
		}
	}
	switch round {
	case LoadRound:
		if err := s.loadRockets(); err != nil {
			return err
		}
	case LaunchRound:
		if err := s.launchRockets(); err != nil {
			return err
		}
	case LandRound:
		if err := s.landRockets(); err != nil {
			return err
		}
	}

	for _, id := range s.ctx.IDs() {
		u, ok := s.ctx.Get(id)
		if !ok || u.IsDead() {
			continue
		}
		var err error
		switch u.Type() {
		case unit.Factory:
			if round%ProduceEvery == 0 {
				err = s.produce(u)
			}
		case unit.Rocket:
		default:
			err = s.act(u)
		}
		if err != nil {
			return fmt.Errorf("round %d unit %d: %w", round, id, err)
		}
	}
	return nil
}

func (s *Scrimmage) produce(factory *unit.Unit) error {
	loc, ok := factory.Location()
	if !ok {
		return nil
	}
	t := producible[s.rng.IntN(len(producible))]
	spot := s.clamp(core.MapLocation{Planet: loc.Planet, X: loc.X + int32(s.rng.IntN(3)-1), Y: loc.Y + 1})
	id, err := s.ctx.Spawn(factory.Team(), t, s.levels[factory.Team()][t], &spot)
	if err != nil {
		return err
	}
	s.log.Debug("Factory produced unit", "factory", factory.ID(), "unit", id, "type", t.String())
	return nil
}

// attackProfile returns the damage, range bounds and cooldown of a robot's
// attack. ok is false for kinds that do not attack.
func attackProfile(u *unit.Unit) (damage, minRange, maxRange, cooldown uint32, ok bool) {
	switch info := u.Info().(type) {
	case *unit.KnightInfo:
		return info.Damage, 0, info.AttackRange, info.AttackCooldown, true
	case *unit.RangerInfo:
		return info.Damage, info.MinAttackRange, info.AttackRange, info.AttackCooldown, true
	case *unit.MageInfo:
		return info.Damage, 0, info.AttackRange, info.AttackCooldown, true
	default:
		return 0, 0, 0, 0, false
	}
}

func movementCooldown(u *unit.Unit) uint32 {
	switch info := u.Info().(type) {
	case *unit.WorkerInfo:
		return info.MovementCooldown
	case *unit.KnightInfo:
		return info.MovementCooldown
	case *unit.RangerInfo:
		return info.MovementCooldown
	case *unit.MageInfo:
		return info.MovementCooldown
	case *unit.HealerInfo:
		return info.MovementCooldown
	default:
		return 0
	}
}

// nearestEnemy finds the closest living enemy on the same planet whose
// squared distance lies in [minRange, maxRange]. Ties go to the lower id.
func (s *Scrimmage) nearestEnemy(u *unit.Unit, minRange, maxRange uint32) (*unit.Unit, bool) {
	loc, ok := u.Location()
	if !ok {
		return nil, false
	}
	var best *unit.Unit
	var bestDist uint32
	for _, other := range s.ctx.Snapshot() {
		if other.Team() == u.Team() || other.IsDead() {
			continue
		}
		oloc, ok := other.Location()
		if !ok || oloc.Planet != loc.Planet {
			continue
		}
		d := loc.DistanceSquaredTo(oloc)
		if d < minRange || d > maxRange {
			continue
		}
		if best == nil || d < bestDist {
			best, bestDist = other, d
		}
	}
	return best, best != nil
}

func (s *Scrimmage) act(u *unit.Unit) error {
	if damage, minRange, maxRange, cooldown, ok := attackProfile(u); ok && s.ctx.CanAttack(u.ID()) {
		if target, found := s.nearestEnemy(u, minRange, maxRange); found {
			err := s.ctx.Update(target.ID(), func(t *unit.Unit) error {
				if t.TakeDamage(damage) {
					s.log.Debug("Unit destroyed", "unit", t.ID(), "by", u.ID())
				}
				return nil
			})
			if err != nil {
				return err
			}
			return s.ctx.Update(u.ID(), func(a *unit.Unit) error {
				a.AddAttackHeat(cooldown)
				return nil
			})
		}
	}

	if !s.ctx.CanMove(u.ID()) {
		return nil
	}
	loc, ok := u.Location()
	if !ok {
		return nil
	}
	dx, dy := int32(s.rng.IntN(3)-1), int32(s.rng.IntN(3)-1)
	if target, found := s.nearestEnemy(u, 0, uint32(2*ScrimmageSize*ScrimmageSize)); found {
		tloc, _ := target.Location()
		dx, dy = sign(tloc.X-loc.X), sign(tloc.Y-loc.Y)
	}
	next := s.clamp(core.MapLocation{Planet: loc.Planet, X: loc.X + dx, Y: loc.Y + dy})
	if next == loc {
		return nil
	}
	return s.ctx.Update(u.ID(), func(m *unit.Unit) error {
		m.MoveTo(&next)
		m.AddMovementHeat(movementCooldown(m))
		return nil
	})
}

// research advances one random kind for each team and upgrades that
// team's existing units of the kind, including those inside rockets.
func (s *Scrimmage) research() error {
	for _, team := range core.AllTeams() {
		t := unit.AllTypes()[s.rng.IntN(len(unit.AllTypes()))]
		if s.levels[team][t] >= t.MaxLevel() {
			continue
		}
		s.levels[team][t]++
		for _, id := range s.ctx.IDs() {
			err := s.ctx.Update(id, func(u *unit.Unit) error {
				if u.Team() == team && u.Type() == t {
					if err := u.Research(); err != nil {
						return err
					}
				}
				return researchPassengers(u, team, t)
			})
			if err != nil {
				return fmt.Errorf("research %s for %s: %w", t, team, err)
			}
		}
		s.log.Info("Research complete", "team", team.String(), "type", t.String(), "level", s.levels[team][t])
	}
	return nil
}

// researchPassengers upgrades the garrisoned units of team and kind t,
// keeping the load order.
func researchPassengers(rocket *unit.Unit, team core.Team, t unit.UnitType) error {
	if _, ok := rocket.GarrisonedUnits(); !ok {
		return nil
	}
	passengers := rocket.UnloadUnits()
	var errs []error
	for i := range passengers {
		p := &passengers[i]
		if p.Team() == team && p.Type() == t {
			errs = append(errs, p.Research())
		}
		errs = append(errs, rocket.LoadUnit(*p))
	}
	return errors.Join(errs...)
}

// loadRockets moves each team's lowest-id living robots into its rocket.
func (s *Scrimmage) loadRockets() error {
	for _, team := range core.AllTeams() {
		rocketID, ok := s.rockets[team]
		if !ok {
			continue
		}
		if _, alive := s.ctx.Get(rocketID); !alive {
			continue
		}
		loaded := 0
		for _, u := range s.ctx.Snapshot() {
			if loaded == rocketPassengers {
				break
			}
			if u.Team() != team || !u.Type().IsRobot() || u.IsDead() {
				continue
			}
			passenger, _ := s.ctx.Remove(u.ID())
			err := s.ctx.Update(rocketID, func(r *unit.Unit) error {
				return r.LoadUnit(*passenger)
			})
			if err != nil {
				if errors.Is(err, unit.ErrGarrisonFull) {
					if insErr := s.ctx.Insert(passenger); insErr != nil {
						return insErr
					}
					break
				}
				return errors.Join(err, s.ctx.Insert(passenger))
			}
			loaded++
		}
		s.log.Info("Rocket loaded", "team", team.String(), "rocket", rocketID, "passengers", loaded)
	}
	return nil
}

func (s *Scrimmage) launchRockets() error {
	for _, team := range core.AllTeams() {
		rocketID, ok := s.rockets[team]
		if !ok {
			continue
		}
		err := s.ctx.Update(rocketID, func(r *unit.Unit) error {
			if info, ok := r.Info().(*unit.RocketInfo); !ok || !info.LaunchUnlocked {
				return nil
			}
			r.MoveTo(nil)
			return nil
		})
		if err != nil && !errors.Is(err, ErrUnknownUnit) {
			return err
		}
	}
	return nil
}

// landRockets places in-flight rockets on Mars, damages every unit next to
// the landing square and unloads the passengers around it.
func (s *Scrimmage) landRockets() error {
	for _, team := range core.AllTeams() {
		rocketID, ok := s.rockets[team]
		if !ok {
			continue
		}
		rocket, alive := s.ctx.Get(rocketID)
		if !alive {
			continue
		}
		if _, onMap := rocket.Location(); onMap {
			continue
		}
		site := s.landing[team]

		for _, other := range s.ctx.Snapshot() {
			loc, ok := other.Location()
			if !ok || !loc.IsAdjacentTo(site) {
				continue
			}
			if err := s.ctx.Update(other.ID(), func(u *unit.Unit) error {
				u.TakeDamage(core.RocketBlastDamage)
				return nil
			}); err != nil {
				return err
			}
		}

		var passengers []unit.Unit
		if err := s.ctx.Update(rocketID, func(r *unit.Unit) error {
			r.MoveTo(&site)
			passengers = r.UnloadUnits()
			return nil
		}); err != nil {
			return err
		}
		for i := range passengers {
			p := &passengers[i]
			spot := s.clamp(core.MapLocation{Planet: core.Mars, X: site.X + int32(i%3) - 1, Y: site.Y + 1})
			p.MoveTo(&spot)
			if err := s.ctx.Insert(p); err != nil {
				return err
			}
		}
		s.log.Info("Rocket landed", "team", team.String(), "rocket", rocketID, "site", site.String(), "unloaded", len(passengers))
	}
	return nil
}

func (s *Scrimmage) clamp(l core.MapLocation) core.MapLocation {
	l.X = min(max(l.X, 0), ScrimmageSize-1)
	l.Y = min(max(l.Y, 0), ScrimmageSize-1)
	return l
}

func sign(v int32) int32 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

// Winner returns the only team with units left, if any.
func Winner(units []*unit.Unit) (core.Team, bool) {
	alive := make(map[core.Team]bool)
	for _, u := range units {
		if !u.IsDead() {
			alive[u.Team()] = true
		}
	}
	if len(alive) != 1 {
		return 0, false
	}
	for team := range alive {
		return team, true
	}
	return 0, false
}

// Run plays rounds 1..rounds, recording the initial state as round 0 and
// every round after its actions. It stops early when one team is wiped out
// or ctx is cancelled, and returns the last round played.
func Run(ctx context.Context, s *Scrimmage, rec *Recorder, rounds uint32) (uint32, error) {
	if err := s.Setup(); err != nil {
		return 0, fmt.Errorf("setup: %w", err)
	}
	if _, err := rec.Capture(0, s.ctx.Snapshot()); err != nil {
		return 0, err
	}

	var round uint32
	for round = 1; round <= rounds; round++ {
		if err := ctx.Err(); err != nil {
			return round - 1, err
		}
		if err := s.PlayRound(round); err != nil {
			return round, err
		}
		if _, err := rec.Capture(round, s.ctx.Snapshot()); err != nil {
			return round, err
		}
		if err := rec.Destroyed(round, s.ctx.EndRound()); err != nil {
			return round, err
		}
		if team, over := Winner(s.ctx.Snapshot()); over {
			s.log.Info("Match decided", "winner", team.String(), "round", round)
			return round, nil
		}
	}
	return rounds, nil
}

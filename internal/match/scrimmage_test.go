package match

import (
	"context"
	"testing"

	"github.com/battlecode/engine/pkg/core"
	"github.com/battlecode/engine/pkg/unit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type historySink struct {
	fakeSink
	states    map[unit.ID][]unit.Record
	destroyed map[unit.ID]uint32
}

func newHistorySink() *historySink {
	return &historySink{
		states:    make(map[unit.ID][]unit.Record),
		destroyed: make(map[unit.ID]uint32),
	}
}

func (h *historySink) RecordUnitState(round uint32, r unit.Record) error {
	h.states[r.ID] = append(h.states[r.ID], r)
	return h.fakeSink.RecordUnitState(round, r)
}

func (h *historySink) RecordDestroyed(round uint32, id unit.ID) error {
	h.destroyed[id] = round
	return h.fakeSink.RecordDestroyed(round, id)
}

func playScrimmage(t *testing.T, seed int64, rounds uint32) (*Context, *historySink, uint32) {
	t.Helper()
	c := NewContext(nil)
	c.SetMatch(&core.Match{Name: "scrimmage", Seed: seed})
	sink := newHistorySink()
	last, err := Run(context.Background(), NewScrimmage(c, seed, nil), NewRecorder(sink), rounds)
	require.NoError(t, err)
	return c, sink, last
}

func records(units []*unit.Unit) []unit.Record {
	out := make([]unit.Record, 0, len(units))
	for _, u := range units {
		out = append(out, u.Record())
	}
	return out
}

func TestScrimmage_SetupSpawnsBothTeams(t *testing.T) {
	c := NewContext(nil)
	s := NewScrimmage(c, 1, nil)
	require.NoError(t, s.Setup())

	counts := map[core.Team]map[unit.UnitType]int{}
	for _, u := range c.Snapshot() {
		if counts[u.Team()] == nil {
			counts[u.Team()] = map[unit.UnitType]int{}
		}
		counts[u.Team()][u.Type()]++
		_, onMap := u.Location()
		assert.True(t, onMap)
	}
	for _, team := range core.AllTeams() {
		assert.Equal(t, 1, counts[team][unit.Factory], team)
		assert.Equal(t, 1, counts[team][unit.Rocket], team)
		assert.Equal(t, 2, counts[team][unit.Worker], team)
	}

	r, ok := c.Get(s.rockets[core.TeamRed])
	require.True(t, ok)
	assert.Equal(t, unit.Level(1), r.Level())
}

func TestScrimmage_SameSeedSameGame(t *testing.T) {
	a, sinkA, lastA := playScrimmage(t, 42, 60)
	b, sinkB, lastB := playScrimmage(t, 42, 60)

	assert.Equal(t, lastA, lastB)
	assert.Equal(t, records(a.Snapshot()), records(b.Snapshot()))
	assert.Equal(t, sinkA.calls, sinkB.calls)
}

func TestScrimmage_RocketsFlyToMars(t *testing.T) {
	c := NewContext(nil)
	s := NewScrimmage(c, 7, nil)
	require.NoError(t, s.Setup())
	before := c.Len()

	require.NoError(t, s.loadRockets())
	assert.Equal(t, before-2*rocketPassengers, c.Len())
	for _, team := range core.AllTeams() {
		r, _ := c.Get(s.rockets[team])
		inside, ok := r.GarrisonedUnits()
		require.True(t, ok)
		assert.Len(t, inside, rocketPassengers)
		for _, p := range inside {
			assert.Equal(t, team, p.Team())
		}
	}

	require.NoError(t, s.launchRockets())
	for _, team := range core.AllTeams() {
		r, _ := c.Get(s.rockets[team])
		_, onMap := r.Location()
		assert.False(t, onMap)
	}

	require.NoError(t, s.landRockets())
	assert.Equal(t, before, c.Len())
	var onMars int
	for _, u := range c.Snapshot() {
		loc, ok := u.Location()
		require.True(t, ok)
		if loc.Planet == core.Mars {
			onMars++
		}
		if u.Type() == unit.Rocket {
			inside, _ := u.GarrisonedUnits()
			assert.Empty(t, inside)
		}
	}
	assert.Equal(t, 2*(rocketPassengers+1), onMars)
}

func TestScrimmage_ResearchReachesPassengers(t *testing.T) {
	c := NewContext(nil)
	rocketID, err := c.Spawn(core.TeamRed, unit.Rocket, 1, at(0, 0))
	require.NoError(t, err)
	for _, team := range []core.Team{core.TeamRed, core.TeamRed, core.TeamBlue} {
		id, err := c.Spawn(team, unit.Knight, 0, at(1, 0))
		require.NoError(t, err)
		p, _ := c.Remove(id)
		require.NoError(t, c.Update(rocketID, func(r *unit.Unit) error {
			return r.LoadUnit(*p)
		}))
	}

	require.NoError(t, c.Update(rocketID, func(r *unit.Unit) error {
		return researchPassengers(r, core.TeamRed, unit.Knight)
	}))

	r, _ := c.Get(rocketID)
	inside, _ := r.GarrisonedUnits()
	require.Len(t, inside, 3)
	assert.Equal(t, []unit.ID{2, 3, 4}, []unit.ID{inside[0].ID(), inside[1].ID(), inside[2].ID()})
	assert.Equal(t, unit.Level(1), inside[0].Level())
	assert.Equal(t, unit.Level(1), inside[1].Level())
	assert.Equal(t, unit.Level(0), inside[2].Level(), "other team's knight")
	assert.Equal(t, unit.Level(1), r.Level(), "the rocket itself")
	for _, p := range inside {
		_, onMap := p.Location()
		assert.False(t, onMap)
	}
}

func TestScrimmage_RocketNeedsLaunchResearch(t *testing.T) {
	c := NewContext(nil)
	s := NewScrimmage(c, 7, nil)
	id, err := c.Spawn(core.TeamRed, unit.Rocket, 0, at(1, 1))
	require.NoError(t, err)
	s.rockets[core.TeamRed] = id

	require.NoError(t, s.launchRockets())
	r, _ := c.Get(id)
	_, onMap := r.Location()
	assert.True(t, onMap)
}

func TestScrimmage_LandingBlast(t *testing.T) {
	c := NewContext(nil)
	s := NewScrimmage(c, 3, nil)
	require.NoError(t, s.Setup())

	site := s.landing[core.TeamRed]
	bystander, err := c.Spawn(core.TeamBlue, unit.Knight, 0, &core.MapLocation{Planet: core.Mars, X: site.X + 1, Y: site.Y})
	require.NoError(t, err)
	far, err := c.Spawn(core.TeamBlue, unit.Knight, 0, &core.MapLocation{Planet: core.Mars, X: site.X + 3, Y: site.Y})
	require.NoError(t, err)

	require.NoError(t, s.launchRockets())
	require.NoError(t, s.landRockets())

	hit, _ := c.Get(bystander)
	assert.Equal(t, hit.MaxHealth()-core.RocketBlastDamage, hit.Health())
	missed, _ := c.Get(far)
	assert.Equal(t, missed.MaxHealth(), missed.Health())

	rocket, _ := c.Get(s.rockets[core.TeamRed])
	loc, ok := rocket.Location()
	require.True(t, ok)
	assert.Equal(t, site, loc)
}

func TestScrimmage_DestroyedUnitsLeaveRoster(t *testing.T) {
	c, sink, _ := playScrimmage(t, 11, 100)

	for id := range sink.destroyed {
		_, ok := c.Get(id)
		assert.False(t, ok, "unit %d", id)
		history := sink.states[id]
		require.NotEmpty(t, history)
		last := history[len(history)-1]
		if last.Location != nil {
			assert.Zero(t, last.Health, "unit %d", id)
		}
	}
	for _, u := range c.Snapshot() {
		assert.False(t, u.IsDead())
	}
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewContext(nil)
	last, err := Run(ctx, NewScrimmage(c, 1, nil), NewRecorder(&fakeSink{}), 10)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, last)
	assert.NotZero(t, c.Len())
}

func TestWinner(t *testing.T) {
	red, _ := unit.New(1, core.TeamRed, unit.Worker, 0)
	blue, _ := unit.New(2, core.TeamBlue, unit.Worker, 0)
	deadBlue, _ := unit.New(3, core.TeamBlue, unit.Worker, 0)
	deadBlue.TakeDamage(1000)

	_, over := Winner([]*unit.Unit{red, blue})
	assert.False(t, over)

	team, over := Winner([]*unit.Unit{red, deadBlue})
	assert.True(t, over)
	assert.Equal(t, core.TeamRed, team)

	_, over = Winner(nil)
	assert.False(t, over)
}

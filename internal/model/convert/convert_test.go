package convert

import (
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/battlecode/engine/internal/model"
	"github.com/battlecode/engine/pkg/core"
	"github.com/battlecode/engine/pkg/unit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestMatchRoundTrip(t *testing.T) {
	now := time.Now().Truncate(time.Millisecond)
	original := core.Match{
		ID:        7,
		Name:      "finals",
		StartTime: now,
		MapWidth:  30,
		MapHeight: 40,
		Seed:      -3,
	}

	m := MatchToModel(original)
	assert.Equal(t, uint(7), m.ID)
	assert.False(t, m.EndRound.Valid)

	assert.Equal(t, original, ModelToMatch(m))
}

func TestRecordToUnit(t *testing.T) {
	u, err := unit.New(12, core.TeamBlue, unit.Healer, 1)
	require.NoError(t, err)

	row := RecordToUnit(3, 17, u.Record())

	assert.Equal(t, uint(3), row.MatchID)
	assert.Equal(t, uint32(12), row.UnitID)
	assert.Equal(t, "blue", row.Team)
	assert.Equal(t, "healer", row.UnitType)
	assert.Equal(t, uint32(17), row.SpawnRound)
	assert.False(t, row.DestroyedRound.Valid)
}

func TestRecordToState(t *testing.T) {
	now := time.Now()
	u, err := unit.New(5, core.TeamRed, unit.Mage, 2)
	require.NoError(t, err)
	u.MoveTo(&core.MapLocation{Planet: core.Mars, X: 4, Y: -6})
	u.TakeDamage(30)
	u.AddAttackHeat(20)

	s, err := RecordToState(1, 9, now, u.Record())
	require.NoError(t, err)

	assert.Equal(t, uint(1), s.MatchID)
	assert.Equal(t, uint32(9), s.Round)
	assert.Equal(t, uint32(5), s.UnitID)
	assert.Equal(t, now, s.Time)
	assert.Equal(t, sql.NullString{String: "mars", Valid: true}, s.Planet)
	assert.Equal(t, sql.NullInt32{Int32: 4, Valid: true}, s.X)
	assert.Equal(t, sql.NullInt32{Int32: -6, Valid: true}, s.Y)
	assert.Equal(t, u.Health(), s.Health)
	assert.Equal(t, uint32(20), s.AttackHeat)
	assert.Equal(t, uint8(2), s.Level)
	assert.Nil(t, s.Garrison)

	var stats map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(s.Stats, &stats))
	assert.Contains(t, stats, "mage")
	assert.Len(t, stats, 1)
}

func TestRecordToState_OffMap(t *testing.T) {
	u, err := unit.New(1, core.TeamRed, unit.Worker, 0)
	require.NoError(t, err)

	s, err := RecordToState(1, 0, time.Now(), u.Record())
	require.NoError(t, err)

	assert.False(t, s.Planet.Valid)
	assert.False(t, s.X.Valid)
	assert.False(t, s.Y.Valid)
}

func TestRecordToState_Garrison(t *testing.T) {
	rocket, err := unit.New(1, core.TeamRed, unit.Rocket, 0)
	require.NoError(t, err)

	s, err := RecordToState(1, 0, time.Now(), rocket.Record())
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(s.Garrison))

	for _, id := range []unit.ID{4, 2} {
		w, err := unit.New(id, core.TeamRed, unit.Knight, 0)
		require.NoError(t, err)
		require.NoError(t, rocket.LoadUnit(*w))
	}
	s, err = RecordToState(1, 1, time.Now(), rocket.Record())
	require.NoError(t, err)
	assert.JSONEq(t, `[4, 2]`, string(s.Garrison))
}

func TestRecordToState_RejectsCorruptRecord(t *testing.T) {
	u, err := unit.New(1, core.TeamRed, unit.Knight, 0)
	require.NoError(t, err)
	r := u.Record()
	r.Health = r.Stats.Knight.MaxHealth + 1

	_, err = RecordToState(1, 0, time.Now(), r)
	assert.ErrorIs(t, err, unit.ErrCorruptRecord)
}

// Round-trip: Record → GORM → Record
func TestStateRoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		unitType unit.UnitType
		level    unit.Level
		loc      *core.MapLocation
	}{
		{"worker off map", unit.Worker, 4, nil},
		{"knight on earth", unit.Knight, 1, &core.MapLocation{Planet: core.Earth, X: 3, Y: 8}},
		{"ranger on mars", unit.Ranger, 3, &core.MapLocation{Planet: core.Mars, X: 0, Y: 0}},
		{"factory", unit.Factory, 1, &core.MapLocation{Planet: core.Earth, X: -1, Y: 2}},
		{"rocket", unit.Rocket, 3, &core.MapLocation{Planet: core.Mars, X: 9, Y: 9}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := unit.New(8, core.TeamBlue, tt.unitType, tt.level)
			require.NoError(t, err)
			u.MoveTo(tt.loc)
			u.TakeDamage(7)
			u.AddMovementHeat(13)

			rec := u.Record()
			unitRow := RecordToUnit(2, 0, rec)
			stateRow, err := RecordToState(2, 5, time.Now(), rec)
			require.NoError(t, err)

			back, err := StateToRecord(unitRow, stateRow)
			require.NoError(t, err)
			assert.Equal(t, rec, back)

			restored, err := unit.FromRecord(back)
			require.NoError(t, err)
			assert.Equal(t, u.String(), restored.String())
		})
	}
}

func TestStateToRecord_Errors(t *testing.T) {
	good := model.UnitState{UnitID: 1, Stats: datatypes.JSON(`{"worker":{"level":0}}`)}

	tests := []struct {
		name  string
		unit  model.Unit
		state model.UnitState
	}{
		{"bad team", model.Unit{Team: "green", UnitType: "worker"}, good},
		{"bad type", model.Unit{Team: "red", UnitType: "tank"}, good},
		{"bad stats", model.Unit{Team: "red", UnitType: "worker"}, model.UnitState{Stats: datatypes.JSON(`{`)}},
		{
			"bad planet",
			model.Unit{Team: "red", UnitType: "worker"},
			model.UnitState{Stats: good.Stats, Planet: sql.NullString{String: "venus", Valid: true}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := StateToRecord(tt.unit, tt.state)
			assert.Error(t, err)
		})
	}
}

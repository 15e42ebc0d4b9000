package memory

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/battlecode/engine/internal/config"
	"github.com/battlecode/engine/internal/match"
	"github.com/battlecode/engine/pkg/core"
	"github.com/battlecode/engine/pkg/unit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordMatch plays a short history into b: a knight that moves and takes
// damage, and a worker that dies at round 2.
func recordMatch(t *testing.T, b *Backend) {
	t.Helper()

	knight, err := unit.New(2, core.TeamRed, unit.Knight, 1)
	require.NoError(t, err)
	knight.MoveTo(&core.MapLocation{Planet: core.Earth, X: 1, Y: 1})
	worker, err := unit.New(1, core.TeamBlue, unit.Worker, 0)
	require.NoError(t, err)
	worker.MoveTo(&core.MapLocation{Planet: core.Earth, X: 5, Y: 5})

	require.NoError(t, b.AddUnit(0, knight.Record()))
	require.NoError(t, b.RecordUnitState(0, knight.Record()))
	require.NoError(t, b.AddUnit(0, worker.Record()))
	require.NoError(t, b.RecordUnitState(0, worker.Record()))

	knight.MoveTo(&core.MapLocation{Planet: core.Earth, X: 2, Y: 1})
	knight.AddMovementHeat(15)
	require.NoError(t, b.RecordUnitState(1, knight.Record()))

	worker.TakeDamage(1000)
	require.NoError(t, b.RecordUnitState(2, worker.Record()))
	require.NoError(t, b.RecordDestroyed(2, 1))

	knight.TakeDamage(40)
	require.NoError(t, b.RecordUnitState(3, knight.Record()))
}

func TestBuildExport(t *testing.T) {
	b := startedBackend(t, config.MemoryConfig{})
	b.match.Seed = 99
	recordMatch(t, b)
	b.endRound = 4

	export := b.buildExport()

	assert.Equal(t, "Test Match", export.MatchName)
	assert.Equal(t, int64(99), export.Seed)
	assert.Equal(t, uint32(4), export.EndRound)
	require.Len(t, export.Units, 2)

	// sorted by id regardless of insertion order
	assert.Equal(t, unit.ID(1), export.Units[0].ID)
	assert.Equal(t, unit.ID(2), export.Units[1].ID)

	worker := export.Units[0]
	require.NotNil(t, worker.DestroyedRound)
	assert.Equal(t, uint32(2), *worker.DestroyedRound)
	assert.Len(t, worker.States, 2)

	knight := export.Units[1]
	assert.Nil(t, knight.DestroyedRound)
	require.Len(t, knight.States, 3)
	assert.Equal(t, []uint32{0, 1, 3}, []uint32{knight.States[0].Round, knight.States[1].Round, knight.States[2].Round})
}

func TestEmptyExport(t *testing.T) {
	b := startedBackend(t, config.MemoryConfig{})

	data, err := json.Marshal(b.buildExport())
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, []any{}, raw["units"])
}

func TestExportJSON(t *testing.T) {
	dir := t.TempDir()
	b := startedBackend(t, config.MemoryConfig{OutputDir: dir})
	recordMatch(t, b)

	require.NoError(t, b.EndMatch(4))

	path := b.ExportedFilePath()
	assert.Equal(t, filepath.Join(dir, "Test_Match_20240115_143000.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "Test Match", raw["matchName"])
	assert.Equal(t, float64(4), raw["endRound"])

	units := raw["units"].([]any)
	first := units[0].(map[string]any)
	assert.Equal(t, "blue", first["team"])
	assert.Equal(t, "worker", first["unitType"])
	assert.Equal(t, float64(2), first["destroyedRound"])

	second := units[1].(map[string]any)
	_, hasDestroyed := second["destroyedRound"]
	assert.False(t, hasDestroyed)
	state := second["states"].([]any)[0].(map[string]any)
	assert.Contains(t, state["unit"].(map[string]any)["stats"], "knight")

	assert.Equal(t, uint32(4), b.ExportMetadata().EndRound)
}

func TestExportGzipJSON(t *testing.T) {
	dir := t.TempDir()
	b := startedBackend(t, config.MemoryConfig{OutputDir: dir, CompressOutput: true})
	recordMatch(t, b)

	require.NoError(t, b.EndMatch(4))

	path := b.ExportedFilePath()
	assert.Equal(t, filepath.Join(dir, "Test_Match_20240115_143000.json.gz"), path)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	gz, err := gzip.NewReader(f)
	require.NoError(t, err)

	var replay Replay
	require.NoError(t, json.NewDecoder(gz).Decode(&replay))
	assert.Len(t, replay.Units, 2)
}

func TestFilenameGeneration(t *testing.T) {
	tests := []struct {
		name     string
		match    string
		compress bool
		want     string
	}{
		{"plain", "Final", false, "Final_20240115_143000.json"},
		{"spaces", "Grand Final", false, "Grand_Final_20240115_143000.json"},
		{"colons", "Round:1", true, "Round_1_20240115_143000.json.gz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			b := startedBackend(t, config.MemoryConfig{OutputDir: dir, CompressOutput: tt.compress})
			b.match.Name = tt.match

			require.NoError(t, b.EndMatch(0))
			assert.Equal(t, filepath.Join(dir, tt.want), b.ExportedFilePath())
		})
	}
}

func TestExportCreatesOutputDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "replays")
	b := startedBackend(t, config.MemoryConfig{OutputDir: dir})

	require.NoError(t, b.EndMatch(0))
	assert.DirExists(t, dir)
	assert.FileExists(t, b.ExportedFilePath())
}

func TestReadReplay(t *testing.T) {
	for _, compress := range []bool{false, true} {
		t.Run(map[bool]string{false: "json", true: "gzip"}[compress], func(t *testing.T) {
			b := startedBackend(t, config.MemoryConfig{OutputDir: t.TempDir(), CompressOutput: compress})
			recordMatch(t, b)
			require.NoError(t, b.EndMatch(4))

			// detection does not depend on the file name
			renamed := filepath.Join(t.TempDir(), "replay.bin")
			require.NoError(t, os.Rename(b.ExportedFilePath(), renamed))

			replay, err := ReadReplay(renamed)
			require.NoError(t, err)
			assert.Equal(t, "Test Match", replay.MatchName)
			assert.True(t, replay.StartTime.Equal(b.match.StartTime))
			assert.Equal(t, b.buildExport().Units, replay.Units)
		})
	}
}

func TestReadReplay_Errors(t *testing.T) {
	_, err := ReadReplay(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0644))
	_, err = ReadReplay(bad)
	assert.Error(t, err)
}

func TestReplayUnitAt(t *testing.T) {
	b := startedBackend(t, config.MemoryConfig{OutputDir: t.TempDir()})
	recordMatch(t, b)
	require.NoError(t, b.EndMatch(4))
	replay, err := ReadReplay(b.ExportedFilePath())
	require.NoError(t, err)

	tests := []struct {
		name    string
		id      unit.ID
		round   uint32
		wantErr error
		wantX   int32
		wantHP  uint32
	}{
		{name: "knight at spawn", id: 2, round: 0, wantX: 1, wantHP: 250},
		{name: "knight after move", id: 2, round: 1, wantX: 2, wantHP: 250},
		{name: "knight between states", id: 2, round: 2, wantX: 2, wantHP: 250},
		{name: "knight damaged", id: 2, round: 10, wantX: 2, wantHP: 210},
		{name: "worker alive", id: 1, round: 1, wantX: 5, wantHP: 100},
		{name: "worker destroyed", id: 1, round: 2, wantErr: ErrUnitDestroyed},
		{name: "unknown unit", id: 42, round: 0, wantErr: ErrUnitNotInReplay},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := replay.UnitAt(tt.id, tt.round)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			loc, ok := u.Location()
			require.True(t, ok)
			assert.Equal(t, tt.wantX, loc.X)
			assert.Equal(t, tt.wantHP, u.Health())
		})
	}
}

func TestReplayUnitAt_NotSpawned(t *testing.T) {
	replay := &Replay{Units: []ReplayUnit{{ID: 1, SpawnRound: 5}}}

	_, err := replay.UnitAt(1, 4)
	assert.ErrorIs(t, err, ErrNotSpawned)
}

func TestReplayUnitAt_CorruptState(t *testing.T) {
	u, err := unit.New(1, core.TeamRed, unit.Healer, 0)
	require.NoError(t, err)
	rec := u.Record()
	rec.Health = 10000

	replay := &Replay{Units: []ReplayUnit{{ID: 1, States: []ReplayState{{Round: 0, Unit: rec}}}}}
	_, err = replay.UnitAt(1, 0)
	assert.ErrorIs(t, err, unit.ErrCorruptRecord)
}

func TestReplayUnitsAt(t *testing.T) {
	b := startedBackend(t, config.MemoryConfig{OutputDir: t.TempDir()})
	recordMatch(t, b)
	require.NoError(t, b.EndMatch(4))
	replay, err := ReadReplay(b.ExportedFilePath())
	require.NoError(t, err)

	units, err := replay.UnitsAt(1)
	require.NoError(t, err)
	assert.Len(t, units, 2)

	units, err = replay.UnitsAt(3)
	require.NoError(t, err)
	require.Len(t, units, 1)
	assert.Equal(t, unit.ID(2), units[0].ID())
}

func TestReplayUnitsAt_RocketInFlight(t *testing.T) {
	b := startedBackend(t, config.MemoryConfig{OutputDir: t.TempDir()})
	c := match.NewContext(nil)
	c.SetMatch(&core.Match{Name: "Test Match", Seed: 42})
	s := match.NewScrimmage(c, 42, nil)
	last, err := match.Run(context.Background(), s, match.NewRecorder(b), match.LoadRound+5)
	require.NoError(t, err)
	require.Greater(t, last, uint32(match.LoadRound))
	require.Less(t, last, uint32(match.LandRound))
	require.NoError(t, b.EndMatch(last))

	replay, err := ReadReplay(b.ExportedFilePath())
	require.NoError(t, err)
	units, err := replay.UnitsAt(last)
	require.NoError(t, err)

	standalone := make(map[unit.ID]bool)
	for _, u := range units {
		standalone[u.ID()] = true
	}
	carried := 0
	for _, u := range units {
		passengers, _ := u.GarrisonedUnits()
		for _, p := range passengers {
			carried++
			assert.False(t, standalone[p.ID()], "unit %d listed inside rocket %d and on its own", p.ID(), u.ID())
			_, onMap := p.Location()
			assert.False(t, onMap)

			// the passenger's own history ends off the map too
			alone, err := replay.UnitAt(p.ID(), last)
			require.NoError(t, err)
			_, onMap = alone.Location()
			assert.False(t, onMap)
		}
	}
	assert.Positive(t, carried)
}

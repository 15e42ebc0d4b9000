package memory

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/battlecode/engine/pkg/core"
	"github.com/battlecode/engine/pkg/unit"
)

// Replay is the root JSON structure of an exported match
type Replay struct {
	MatchName string       `json:"matchName"`
	StartTime time.Time    `json:"startTime"`
	Seed      int64        `json:"seed"`
	MapWidth  uint32       `json:"mapWidth"`
	MapHeight uint32       `json:"mapHeight"`
	EndRound  uint32       `json:"endRound"`
	Units     []ReplayUnit `json:"units"`
}

// ReplayUnit is a unit and its state history
type ReplayUnit struct {
	ID             unit.ID       `json:"id"`
	Team           core.Team     `json:"team"`
	UnitType       unit.UnitType `json:"unitType"`
	SpawnRound     uint32        `json:"spawnRound"`
	DestroyedRound *uint32       `json:"destroyedRound,omitempty"`
	States         []ReplayState `json:"states"`
}

// ReplayState is a unit's persisted state after a round
type ReplayState struct {
	Round uint32      `json:"round"`
	Unit  unit.Record `json:"unit"`
}

// exportJSON writes the match data to a JSON file, gzipped if configured
func (b *Backend) exportJSON() error {
	export := b.buildExport()

	// Build filename
	matchName := strings.ReplaceAll(b.match.Name, " ", "_")
	matchName = strings.ReplaceAll(matchName, ":", "_")
	timestamp := b.match.StartTime.Format("20060102_150405")

	var filename string
	if b.cfg.CompressOutput {
		filename = fmt.Sprintf("%s_%s.json.gz", matchName, timestamp)
	} else {
		filename = fmt.Sprintf("%s_%s.json", matchName, timestamp)
	}

	outputPath := filepath.Join(b.cfg.OutputDir, filename)

	// Ensure output directory exists
	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := writeReplay(outputPath, export, b.cfg.CompressOutput); err != nil {
		return err
	}

	b.lastExportPath = outputPath
	return nil
}

// buildExport converts the recorded units to a Replay sorted by unit id.
func (b *Backend) buildExport() Replay {
	export := Replay{
		MatchName: b.match.Name,
		StartTime: b.match.StartTime,
		Seed:      b.match.Seed,
		MapWidth:  b.match.MapWidth,
		MapHeight: b.match.MapHeight,
		EndRound:  b.endRound,
		Units:     make([]ReplayUnit, 0, len(b.units)),
	}

	ids := make([]unit.ID, 0, len(b.units))
	for id := range b.units {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	for _, id := range ids {
		record := b.units[id]
		ru := ReplayUnit{
			ID:             record.ID,
			Team:           record.Team,
			UnitType:       record.UnitType,
			SpawnRound:     record.SpawnRound,
			DestroyedRound: record.DestroyedRound,
			States:         make([]ReplayState, 0, len(record.States)),
		}
		for _, s := range record.States {
			ru.States = append(ru.States, ReplayState{Round: s.Round, Unit: s.Unit})
		}
		export.Units = append(export.Units, ru)
	}
	return export
}

func writeReplay(path string, data Replay, compress bool) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()

	if !compress {
		return json.NewEncoder(f).Encode(data)
	}

	gzWriter := gzip.NewWriter(f)
	if err := json.NewEncoder(gzWriter).Encode(data); err != nil {
		gzWriter.Close()
		return err
	}
	return gzWriter.Close()
}

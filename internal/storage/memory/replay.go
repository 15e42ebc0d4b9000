package memory

import (
	"bufio"
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/battlecode/engine/pkg/unit"
)

var (
	ErrUnitNotInReplay = errors.New("unit not in replay")
	ErrNotSpawned      = errors.New("unit not spawned yet")
	ErrUnitDestroyed   = errors.New("unit destroyed")
)

var gzipMagic = []byte{0x1f, 0x8b}

// ReadReplay loads an exported replay. Gzipped files are detected by their
// magic bytes, so the file name does not matter.
func ReadReplay(path string) (*Replay, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	br := bufio.NewReader(f)
	var r io.Reader = br
	if head, err := br.Peek(len(gzipMagic)); err == nil && head[0] == gzipMagic[0] && head[1] == gzipMagic[1] {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("open gzip replay: %w", err)
		}
		defer gz.Close()
		r = gz
	}

	var replay Replay
	if err := json.NewDecoder(r).Decode(&replay); err != nil {
		return nil, fmt.Errorf("decode replay %s: %w", path, err)
	}
	return &replay, nil
}

// Unit finds a unit's history.
func (r *Replay) Unit(id unit.ID) (*ReplayUnit, bool) {
	for i := range r.Units {
		if r.Units[i].ID == id {
			return &r.Units[i], true
		}
	}
	return nil, false
}

// UnitAt restores a unit as it was after round: its latest state recorded
// at or before that round. A unit destroyed at round d is gone from d on.
// A unit inside a rocket is restored with its off-map passenger state.
func (r *Replay) UnitAt(id unit.ID, round uint32) (*unit.Unit, error) {
	ru, ok := r.Unit(id)
	if !ok {
		return nil, fmt.Errorf("unit %d: %w", id, ErrUnitNotInReplay)
	}
	return ru.At(round)
}

// At restores the unit as it was after round.
func (ru *ReplayUnit) At(round uint32) (*unit.Unit, error) {
	if round < ru.SpawnRound {
		return nil, fmt.Errorf("unit %d at round %d: %w", ru.ID, round, ErrNotSpawned)
	}
	if ru.DestroyedRound != nil && round >= *ru.DestroyedRound {
		return nil, fmt.Errorf("unit %d at round %d: %w", ru.ID, round, ErrUnitDestroyed)
	}

	var latest *ReplayState
	for i := range ru.States {
		if ru.States[i].Round > round {
			break
		}
		latest = &ru.States[i]
	}
	if latest == nil {
		return nil, fmt.Errorf("unit %d at round %d: %w", ru.ID, round, ErrNotSpawned)
	}
	return unit.FromRecord(latest.Unit)
}

// UnitsAt restores every unit alive after round, in id order. Units
// carried by a rocket appear only in that rocket's garrison.
func (r *Replay) UnitsAt(round uint32) ([]*unit.Unit, error) {
	var all []*unit.Unit
	carried := make(map[unit.ID]bool)
	for i := range r.Units {
		u, err := r.Units[i].At(round)
		if errors.Is(err, ErrNotSpawned) || errors.Is(err, ErrUnitDestroyed) {
			continue
		}
		if err != nil {
			return nil, err
		}
		passengers, _ := u.GarrisonedUnits()
		for j := range passengers {
			carried[passengers[j].ID()] = true
		}
		all = append(all, u)
	}

	out := all[:0]
	for _, u := range all {
		if !carried[u.ID()] {
			out = append(out, u)
		}
	}
	return out, nil
}

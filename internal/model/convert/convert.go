// Package convert provides functions to convert between GORM models and unit records
package convert

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/battlecode/engine/internal/model"
	"github.com/battlecode/engine/pkg/core"
	"github.com/battlecode/engine/pkg/unit"
	"gorm.io/datatypes"
)

// MatchToModel converts core match metadata to a GORM model.Match.
func MatchToModel(m core.Match) model.Match {
	out := model.Match{
		Name:      m.Name,
		StartTime: m.StartTime,
		MapWidth:  m.MapWidth,
		MapHeight: m.MapHeight,
		Seed:      m.Seed,
	}
	out.ID = m.ID
	return out
}

// ModelToMatch converts a GORM model.Match back to core metadata.
func ModelToMatch(m model.Match) core.Match {
	return core.Match{
		ID:        m.ID,
		Name:      m.Name,
		StartTime: m.StartTime,
		MapWidth:  m.MapWidth,
		MapHeight: m.MapHeight,
		Seed:      m.Seed,
	}
}

// RecordToUnit builds the units row for a unit first seen at round.
func RecordToUnit(matchID uint, round uint32, r unit.Record) model.Unit {
	return model.Unit{
		MatchID:    matchID,
		UnitID:     uint32(r.ID),
		Team:       r.Team.String(),
		UnitType:   r.UnitType.String(),
		SpawnRound: round,
	}
}

// RecordToState flattens a record into a unit_states row. The record is
// validated first so corrupt states never reach the database.
func RecordToState(matchID uint, round uint32, t time.Time, r unit.Record) (model.UnitState, error) {
	u, err := unit.FromRecord(r)
	if err != nil {
		return model.UnitState{}, err
	}
	stats, err := json.Marshal(r.Stats)
	if err != nil {
		return model.UnitState{}, fmt.Errorf("marshal stats of unit %d: %w", r.ID, err)
	}

	state := model.UnitState{
		Time:         t,
		MatchID:      matchID,
		Round:        round,
		UnitID:       uint32(r.ID),
		Health:       r.Health,
		MovementHeat: r.MovementHeat,
		AttackHeat:   r.AttackHeat,
		Level:        uint8(u.Level()),
		Stats:        datatypes.JSON(stats),
	}
	if r.Location != nil {
		state.Planet = sql.NullString{String: r.Location.Planet.String(), Valid: true}
		state.X = sql.NullInt32{Int32: r.Location.X, Valid: true}
		state.Y = sql.NullInt32{Int32: r.Location.Y, Valid: true}
	}
	if passengers, ok := u.GarrisonedUnits(); ok {
		state.Garrison = garrisonToJSON(passengers)
	}
	return state, nil
}

// garrisonToJSON lists the passenger ids of a rocket.
func garrisonToJSON(passengers []unit.Unit) datatypes.JSON {
	ids := make([]unit.ID, 0, len(passengers))
	for i := range passengers {
		ids = append(ids, passengers[i].ID())
	}
	data, _ := json.Marshal(ids)
	return datatypes.JSON(data)
}

// StateToRecord rebuilds a record from a unit_states row and its units row.
// The result is not validated; pass it to unit.FromRecord for that.
func StateToRecord(u model.Unit, s model.UnitState) (unit.Record, error) {
	var team core.Team
	if err := team.UnmarshalText([]byte(u.Team)); err != nil {
		return unit.Record{}, err
	}
	unitType, err := unit.ParseUnitType(u.UnitType)
	if err != nil {
		return unit.Record{}, err
	}

	r := unit.Record{
		ID:           unit.ID(s.UnitID),
		Team:         team,
		UnitType:     unitType,
		Health:       s.Health,
		MovementHeat: s.MovementHeat,
		AttackHeat:   s.AttackHeat,
	}
	if err := json.Unmarshal(s.Stats, &r.Stats); err != nil {
		return unit.Record{}, fmt.Errorf("unmarshal stats of unit %d: %w", s.UnitID, err)
	}
	if s.Planet.Valid {
		var planet core.Planet
		if err := planet.UnmarshalText([]byte(s.Planet.String)); err != nil {
			return unit.Record{}, err
		}
		r.Location = &core.MapLocation{Planet: planet, X: s.X.Int32, Y: s.Y.Int32}
	}
	return r, nil
}

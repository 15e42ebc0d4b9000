package model

import (
	"database/sql"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&Match{},
	&Unit{},
	&UnitState{},
}

// Match is one recorded game
type Match struct {
	gorm.Model
	Name      string        `json:"name" gorm:"size:200"`
	StartTime time.Time     `json:"startTime" gorm:"index:idx_match_start"`
	MapWidth  uint32        `json:"mapWidth"`
	MapHeight uint32        `json:"mapHeight"`
	Seed      int64         `json:"seed"`
	EndRound  sql.NullInt64 `json:"endRound" gorm:"default:NULL"` // set when the match is finalized

	Units []Unit `json:"-"`
}

func (*Match) TableName() string {
	return "matches"
}

// Unit is a unit that appeared in a match. Keyed by (MatchID, UnitID).
type Unit struct {
	MatchID        uint          `json:"matchId" gorm:"primaryKey;autoIncrement:false"`
	UnitID         uint32        `json:"unitId" gorm:"primaryKey;autoIncrement:false"`
	Match          Match         `json:"-" gorm:"foreignkey:MatchID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	CreatedAt      time.Time     `json:"createdAt"`
	Team           string        `json:"team" gorm:"size:8;index:idx_unit_team"`
	UnitType       string        `json:"unitType" gorm:"size:16"`
	SpawnRound     uint32        `json:"spawnRound"`
	DestroyedRound sql.NullInt64 `json:"destroyedRound" gorm:"default:NULL"`
}

func (*Unit) TableName() string {
	return "units"
}

// UnitState is the full state of a unit after a round
// References Unit by (MatchID, UnitID) composite FK
type UnitState struct {
	ID      uint      `json:"id" gorm:"primarykey;autoIncrement;"`
	Time    time.Time `json:"time"`
	MatchID uint      `json:"matchId" gorm:"index:idx_unitstate_match_id"`
	Match   Match     `json:"-" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:MatchID;"`
	Round   uint32    `json:"round" gorm:"index:idx_unitstate_round"`
	UnitID  uint32    `json:"unitId" gorm:"index:idx_unitstate_unit_id"`
	Unit    Unit      `json:"-" gorm:"foreignkey:MatchID,UnitID;references:MatchID,UnitID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`

	Planet       sql.NullString `json:"planet" gorm:"size:8;default:NULL"` // NULL while off the map
	X            sql.NullInt32  `json:"x" gorm:"default:NULL"`
	Y            sql.NullInt32  `json:"y" gorm:"default:NULL"`
	Health       uint32         `json:"health"`
	MovementHeat uint32         `json:"movementHeat"`
	AttackHeat   uint32         `json:"attackHeat"`
	Level        uint8          `json:"level"`
	Stats        datatypes.JSON `json:"stats"`
	Garrison     datatypes.JSON `json:"garrison" gorm:"default:NULL"` // rockets only
}

func (*UnitState) TableName() string {
	return "unit_states"
}

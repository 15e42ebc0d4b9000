// Package streaming defines the JSON messages a live viewer receives while a
// match is being recorded.
package streaming

import (
	"encoding/json"
	"time"

	"github.com/battlecode/engine/pkg/unit"
)

// Message type constants matching the streaming protocol.
const (
	TypeStartMatch    = "start_match"
	TypeEndMatch      = "end_match"
	TypeAddUnit       = "add_unit"
	TypeUnitState     = "unit_state"
	TypeUnitDestroyed = "unit_destroyed"

	// TypeAck is the only message type the viewer sends back.
	TypeAck = "ack"
)

// Envelope wraps all messages sent over the WebSocket.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// AckMessage is the server's acknowledgement response.
type AckMessage struct {
	Type string `json:"type"` // always TypeAck
	For  string `json:"for"`  // the message type being acknowledged
}

// StartMatchPayload announces the match about to be streamed.
type StartMatchPayload struct {
	Name      string    `json:"name"`
	StartTime time.Time `json:"startTime"`
	MapWidth  uint32    `json:"mapWidth"`
	MapHeight uint32    `json:"mapHeight"`
	Seed      int64     `json:"seed"`
}

// EndMatchPayload closes the stream of a match.
type EndMatchPayload struct {
	EndRound uint32 `json:"endRound"`
}

// UnitPayload carries a unit's full state at a round. It is used for both
// add_unit and unit_state.
type UnitPayload struct {
	Round uint32      `json:"round"`
	Unit  unit.Record `json:"unit"`
}

// UnitDestroyedPayload marks the round a unit left the map for good.
type UnitDestroyedPayload struct {
	Round uint32  `json:"round"`
	ID    unit.ID `json:"id"`
}

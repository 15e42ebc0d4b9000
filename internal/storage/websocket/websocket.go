// Package websocket streams a match to a live viewer as JSON envelopes.
package websocket

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/battlecode/engine/internal/config"
	"github.com/battlecode/engine/internal/storage"
	"github.com/battlecode/engine/pkg/core"
	"github.com/battlecode/engine/pkg/streaming"
	"github.com/battlecode/engine/pkg/unit"
)

var errNotConnected = errors.New("websocket backend not initialized")

// Backend streams match data over WebSocket. Unit messages are
// fire-and-forget; start_match and end_match wait for a viewer ack.
//
// The backend keeps the start_match envelope and the latest state of every
// live unit, so a viewer that reconnects mid-match is resynced with the
// whole board instead of only the deltas that follow.
type Backend struct {
	cfg    config.WebSocketConfig
	logger *slog.Logger
	conn   *connection

	mu    sync.Mutex
	start []byte
	units map[unit.ID]*liveUnit
}

type liveUnit struct {
	added streaming.UnitPayload
	state *streaming.UnitPayload
}

// New creates a new WebSocket storage backend. A nil logger uses slog.Default.
func New(cfg config.WebSocketConfig, logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{
		cfg:    cfg,
		logger: logger,
		units:  make(map[unit.ID]*liveUnit),
	}
}

// Init connects to the viewer.
func (b *Backend) Init() error {
	if b.conn != nil {
		return nil
	}
	conn, err := open(b.logger, b.cfg.URL, b.cfg.Secret, b.resync)
	if err != nil {
		return err
	}
	b.conn = conn
	return nil
}

// Close disconnects from the viewer.
func (b *Backend) Close() error {
	if b.conn != nil {
		b.conn.close()
	}
	return nil
}

// marshalEnvelope builds a JSON-encoded Envelope from a message type and payload.
func marshalEnvelope(msgType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", msgType, err)
	}
	env := streaming.Envelope{Type: msgType, Payload: raw}
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshal %s envelope: %w", msgType, err)
	}
	return data, nil
}

func (b *Backend) send(msgType string, payload any) error {
	if b.conn == nil {
		return errNotConnected
	}
	data, err := marshalEnvelope(msgType, payload)
	if err != nil {
		return err
	}
	// A dropped delta is logged by enqueue. The match keeps recording.
	if err := b.conn.enqueue(data); err != nil && !errors.Is(err, errQueueFull) {
		return err
	}
	return nil
}

// resync returns what a reconnected viewer needs before the next delta:
// start_match, then add_unit and the latest unit_state of each live unit in
// id order. It is empty between matches.
func (b *Backend) resync() [][]byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.start == nil {
		return nil
	}
	msgs := [][]byte{b.start}
	for _, id := range slices.Sorted(maps.Keys(b.units)) {
		lu := b.units[id]
		payloads := []streaming.UnitPayload{lu.added}
		types := []string{streaming.TypeAddUnit}
		if lu.state != nil {
			payloads = append(payloads, *lu.state)
			types = append(types, streaming.TypeUnitState)
		}
		for i, p := range payloads {
			data, err := marshalEnvelope(types[i], p)
			if err != nil {
				b.logger.Error("Skipping unit in resync", "unit", id, "error", err)
				continue
			}
			msgs = append(msgs, data)
		}
	}
	return msgs
}

// StartMatch announces the match and waits for the viewer's ack.
func (b *Backend) StartMatch(m *core.Match) error {
	if m == nil {
		return storage.ErrNoMatch
	}
	if b.conn == nil {
		return errNotConnected
	}
	data, err := marshalEnvelope(streaming.TypeStartMatch, streaming.StartMatchPayload{
		Name:      m.Name,
		StartTime: m.StartTime,
		MapWidth:  m.MapWidth,
		MapHeight: m.MapHeight,
		Seed:      m.Seed,
	})
	if err != nil {
		return err
	}

	b.mu.Lock()
	b.start = data
	b.units = make(map[unit.ID]*liveUnit)
	b.mu.Unlock()

	return b.conn.sendAndWait(streaming.TypeStartMatch, data, ackTimeout)
}

// EndMatch sends end_match and waits for the viewer's ack. The match is
// over for the backend even when the ack never comes.
func (b *Backend) EndMatch(endRound uint32) error {
	b.mu.Lock()
	started := b.start != nil
	b.mu.Unlock()
	if !started {
		return storage.ErrNoMatch
	}

	data, err := marshalEnvelope(streaming.TypeEndMatch, streaming.EndMatchPayload{EndRound: endRound})
	if err == nil {
		err = b.conn.sendAndWait(streaming.TypeEndMatch, data, ackTimeout)
	}

	b.mu.Lock()
	b.start = nil
	b.units = make(map[unit.ID]*liveUnit)
	b.mu.Unlock()
	return err
}

func (b *Backend) AddUnit(round uint32, r unit.Record) error {
	p := streaming.UnitPayload{Round: round, Unit: r}
	b.mu.Lock()
	if b.start == nil {
		b.mu.Unlock()
		return storage.ErrNoMatch
	}
	if _, ok := b.units[r.ID]; ok {
		b.mu.Unlock()
		return fmt.Errorf("unit %d: %w", r.ID, storage.ErrDuplicateUnit)
	}
	b.units[r.ID] = &liveUnit{added: p}
	b.mu.Unlock()

	return b.send(streaming.TypeAddUnit, p)
}

func (b *Backend) RecordUnitState(round uint32, r unit.Record) error {
	p := streaming.UnitPayload{Round: round, Unit: r}
	b.mu.Lock()
	lu, err := b.live(r.ID)
	if err == nil {
		lu.state = &p
	}
	b.mu.Unlock()
	if err != nil {
		return err
	}
	return b.send(streaming.TypeUnitState, p)
}

func (b *Backend) RecordDestroyed(round uint32, id unit.ID) error {
	b.mu.Lock()
	_, err := b.live(id)
	if err == nil {
		delete(b.units, id)
	}
	b.mu.Unlock()
	if err != nil {
		return err
	}
	return b.send(streaming.TypeUnitDestroyed, streaming.UnitDestroyedPayload{Round: round, ID: id})
}

// live looks up a unit of the match in progress. b.mu must be held.
func (b *Backend) live(id unit.ID) (*liveUnit, error) {
	if b.start == nil {
		return nil, storage.ErrNoMatch
	}
	lu, ok := b.units[id]
	if !ok {
		return nil, fmt.Errorf("unit %d: %w", id, storage.ErrUnknownUnit)
	}
	return lu, nil
}

package storage

import (
	"errors"

	"github.com/battlecode/engine/pkg/core"
	"github.com/battlecode/engine/pkg/unit"
)

// Backend is the interface all storage implementations must satisfy
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Match management (StartMatch assigns m.ID where the backend has ids)
	StartMatch(m *core.Match) error
	EndMatch(endRound uint32) error

	// Unit registration, called once when a unit is first seen
	AddUnit(round uint32, r unit.Record) error

	// State recording
	RecordUnitState(round uint32, r unit.Record) error
	RecordDestroyed(round uint32, id unit.ID) error
}

// Exporter is an optional interface for storage backends that produce a
// replay file when the match ends.
type Exporter interface {
	ExportedFilePath() string
	ExportMetadata() ExportMetadata
}

// ExportMetadata summarizes an exported replay.
type ExportMetadata struct {
	MatchName string
	EndRound  uint32
	Units     int
	States    int
}

// Logger is the logging surface backends use. *slog.Logger and
// logging.ZerologAdapter both satisfy it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

// Errors shared by backends.
var (
	ErrNoMatch       = errors.New("no match started")
	ErrUnknownUnit   = errors.New("unit was never added")
	ErrDuplicateUnit = errors.New("unit already added")
)

// Package gormstorage implements the storage.Backend interface using GORM
// with internal queues and a background DB writer goroutine.
package gormstorage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/battlecode/engine/internal/cache"
	"github.com/battlecode/engine/internal/config"
	"github.com/battlecode/engine/internal/database"
	"github.com/battlecode/engine/internal/model"
	"github.com/battlecode/engine/internal/model/convert"
	"github.com/battlecode/engine/internal/queue"
	"github.com/battlecode/engine/internal/storage"
	"github.com/battlecode/engine/pkg/core"
	"github.com/battlecode/engine/pkg/unit"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"gorm.io/gorm"
)

// DefaultWriteInterval is used when Dependencies.WriteInterval is zero.
const DefaultWriteInterval = 2 * time.Second

// Dependencies holds all dependencies for the GORM storage backend.
type Dependencies struct {
	DB            *gorm.DB
	DBConfig      config.DBConfig // used to connect to Postgres when DB is nil
	Logger        storage.Logger
	WriteInterval time.Duration
}

// destroyedUnit is a pending update of units.destroyed_round.
type destroyedUnit struct {
	MatchID uint
	UnitID  uint32
	Round   uint32
}

// queues holds all the write queues for batch DB insertion.
type queues struct {
	Units      *queue.Queue[model.Unit]
	UnitStates *queue.Queue[model.UnitState]
	Destroyed  *queue.Queue[destroyedUnit]
}

func newQueues() *queues {
	return &queues{
		Units:      queue.New[model.Unit](),
		UnitStates: queue.New[model.UnitState](),
		Destroyed:  queue.New[destroyedUnit](),
	}
}

type metrics struct {
	queued   metric.Int64Counter
	written  metric.Int64Counter
	failures metric.Int64Counter
}

func newMetrics() (*metrics, error) {
	// Get meter from global OTel provider (returns no-op if not configured)
	m := meter()
	var mt metrics
	var err error

	mt.queued, err = m.Int64Counter(
		"storage.rows.queued",
		metric.WithDescription("Rows queued for the database writer"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating queued counter: %w", err)
	}

	mt.written, err = m.Int64Counter(
		"storage.rows.written",
		metric.WithDescription("Rows committed to the database"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating written counter: %w", err)
	}

	mt.failures, err = m.Int64Counter(
		"storage.flush.failures",
		metric.WithDescription("Batches rolled back and requeued"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating failures counter: %w", err)
	}
	return &mt, nil
}

// Backend implements storage.Backend using GORM with queue-based batch writes.
type Backend struct {
	deps    Dependencies
	queues  *queues
	metrics *metrics
	matchID atomic.Uint64
	spawned *cache.RoundCache

	flushMu   sync.Mutex
	stopChan  chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// New creates a new GORM storage backend.
func New(deps Dependencies) *Backend {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.WriteInterval <= 0 {
		deps.WriteInterval = DefaultWriteInterval
	}
	return &Backend{
		deps:    deps,
		queues:  newQueues(),
		spawned: cache.NewRoundCache(),
	}
}

// Init runs schema migration and starts the DB writer goroutine.
// If no DB was injected via Dependencies, it creates its own postgres connection.
func (b *Backend) Init() error {
	if b.deps.DB == nil {
		db, err := database.GetPostgresDB(b.deps.DBConfig)
		if err != nil {
			return fmt.Errorf("failed to connect to postgres: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return fmt.Errorf("failed to access sql interface: %w", err)
		}
		if err = sqlDB.Ping(); err != nil {
			return fmt.Errorf("failed to validate connection: %w", err)
		}
		sqlDB.SetMaxOpenConns(10)
		b.deps.DB = db
	}

	mt, err := newMetrics()
	if err != nil {
		return err
	}
	b.metrics = mt

	b.deps.Logger.Info("Migrating schema")
	if err := database.Setup(b.deps.DB); err != nil {
		return fmt.Errorf("failed to setup DB: %w", err)
	}
	b.deps.Logger.Info("Database setup complete")

	b.stopChan = make(chan struct{})
	b.done = make(chan struct{})
	b.startDBWriter()
	return nil
}

// DB returns the connection the backend writes to.
func (b *Backend) DB() *gorm.DB {
	return b.deps.DB
}

// Close stops the DB writer goroutine and writes whatever is still queued.
func (b *Backend) Close() error {
	var err error
	b.closeOnce.Do(func() {
		if b.stopChan == nil {
			return
		}
		close(b.stopChan)
		<-b.done
		err = b.Flush()
	})
	return err
}

// StartMatch inserts the match row and assigns its id back to m.
func (b *Backend) StartMatch(m *core.Match) error {
	if m == nil {
		return fmt.Errorf("start match: %w", storage.ErrNoMatch)
	}
	if b.deps.DB == nil {
		return errors.New("start match: database not initialized")
	}

	row := convert.MatchToModel(*m)
	row.ID = 0
	if err := b.deps.DB.Create(&row).Error; err != nil {
		return fmt.Errorf("failed to insert new match: %w", err)
	}

	m.ID = row.ID
	b.matchID.Store(uint64(row.ID))
	b.spawned.Reset()
	b.deps.Logger.Info("Match started", "match", m.Name, "id", row.ID)
	return nil
}

// EndMatch writes everything queued and stores the final round.
func (b *Backend) EndMatch(endRound uint32) error {
	matchID := b.currentMatch()
	if matchID == 0 {
		return fmt.Errorf("end match: %w", storage.ErrNoMatch)
	}
	if err := b.Flush(); err != nil {
		return err
	}
	err := b.deps.DB.Model(&model.Match{}).
		Where("id = ?", matchID).
		Update("end_round", endRound).Error
	if err != nil {
		return fmt.Errorf("failed to finalize match %d: %w", matchID, err)
	}
	b.deps.Logger.Info("Match ended", "id", matchID, "endRound", endRound)
	return nil
}

func (b *Backend) currentMatch() uint {
	return uint(b.matchID.Load())
}

// AddUnit converts a record to a units row and pushes it to the write queue.
func (b *Backend) AddUnit(round uint32, r unit.Record) error {
	matchID := b.currentMatch()
	if matchID == 0 {
		return fmt.Errorf("add unit %d: %w", r.ID, storage.ErrNoMatch)
	}
	if _, ok := b.spawned.Get(r.ID); ok {
		return fmt.Errorf("add unit %d: %w", r.ID, storage.ErrDuplicateUnit)
	}
	b.spawned.Set(r.ID, round)
	b.queues.Units.Push(convert.RecordToUnit(matchID, round, r))
	b.countQueued("units")
	return nil
}

// RecordUnitState converts and queues a unit state.
func (b *Backend) RecordUnitState(round uint32, r unit.Record) error {
	matchID := b.currentMatch()
	if _, ok := b.spawned.Get(r.ID); !ok || matchID == 0 {
		return fmt.Errorf("record unit %d: %w", r.ID, storage.ErrUnknownUnit)
	}
	row, err := convert.RecordToState(matchID, round, time.Now(), r)
	if err != nil {
		return err
	}
	b.queues.UnitStates.Push(row)
	b.countQueued("unit_states")
	return nil
}

// RecordDestroyed queues the destruction round of a unit.
func (b *Backend) RecordDestroyed(round uint32, id unit.ID) error {
	matchID := b.currentMatch()
	if _, ok := b.spawned.Get(id); !ok || matchID == 0 {
		return fmt.Errorf("destroy unit %d: %w", id, storage.ErrUnknownUnit)
	}
	b.queues.Destroyed.Push(destroyedUnit{MatchID: matchID, UnitID: uint32(id), Round: round})
	b.countQueued("units")
	return nil
}

func (b *Backend) countQueued(table string) {
	if b.metrics != nil {
		b.metrics.queued.Add(context.Background(), 1, metric.WithAttributes(attribute.String("table", table)))
	}
}

func (b *Backend) countWritten(table string, n int) {
	if b.metrics != nil && n > 0 {
		b.metrics.written.Add(context.Background(), int64(n), metric.WithAttributes(attribute.String("table", table)))
	}
}

func (b *Backend) countFailure(table string) {
	if b.metrics != nil {
		b.metrics.failures.Add(context.Background(), 1, metric.WithAttributes(attribute.String("table", table)))
	}
}

// writeQueue writes all items from a queue to the database in a transaction.
// On failure the items go back to the front of the queue.
func writeQueue[T any](db *gorm.DB, q *queue.Queue[T], name string) (int, error) {
	if q.Empty() {
		return 0, nil
	}

	items := q.Drain(0)
	tx := db.Begin()
	if err := tx.Create(&items).Error; err != nil {
		tx.Rollback()
		q.Requeue(items)
		return 0, fmt.Errorf("error creating %s: %w", name, err)
	}
	if err := tx.Commit().Error; err != nil {
		q.Requeue(items)
		return 0, fmt.Errorf("error committing %s: %w", name, err)
	}
	return len(items), nil
}

// writeDestroyed applies pending destruction rounds in one transaction.
func writeDestroyed(db *gorm.DB, q *queue.Queue[destroyedUnit]) (int, error) {
	if q.Empty() {
		return 0, nil
	}

	items := q.Drain(0)
	err := db.Transaction(func(tx *gorm.DB) error {
		for _, d := range items {
			err := tx.Model(&model.Unit{}).
				Where("match_id = ? AND unit_id = ?", d.MatchID, d.UnitID).
				Update("destroyed_round", d.Round).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		q.Requeue(items)
		return 0, fmt.Errorf("error updating destroyed units: %w", err)
	}
	return len(items), nil
}

// Flush drains every queue into the database. Units go first so that
// states and destruction rounds always find their units row.
func (b *Backend) Flush() error {
	b.flushMu.Lock()
	defer b.flushMu.Unlock()

	if b.deps.DB == nil {
		return errors.New("flush: database not initialized")
	}

	n, err := writeQueue(b.deps.DB, b.queues.Units, "units")
	if err != nil {
		b.countFailure("units")
		return err
	}
	b.countWritten("units", n)

	n, err = writeQueue(b.deps.DB, b.queues.UnitStates, "unit states")
	if err != nil {
		b.countFailure("unit_states")
		return err
	}
	b.countWritten("unit_states", n)

	n, err = writeDestroyed(b.deps.DB, b.queues.Destroyed)
	if err != nil {
		b.countFailure("units")
		return err
	}
	b.countWritten("units", n)
	return nil
}

// Pending is the number of rows still waiting for the writer.
func (b *Backend) Pending() int {
	return b.queues.Units.Len() + b.queues.UnitStates.Len() + b.queues.Destroyed.Len()
}

// startDBWriter starts the background goroutine that periodically drains queues into the DB.
func (b *Backend) startDBWriter() {
	go func() {
		defer close(b.done)
		ticker := time.NewTicker(b.deps.WriteInterval)
		defer ticker.Stop()

		for {
			select {
			case <-b.stopChan:
				return
			case <-ticker.C:
				if err := b.Flush(); err != nil {
					b.deps.Logger.Error("DB writer failed, will retry", "error", err)
				}
			}
		}
	}()
}

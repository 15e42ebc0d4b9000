// Package sqlitestorage implements the storage.Backend interface using an in-memory
// SQLite database with periodic disk dumps via VACUUM INTO.
// It wraps the GORM backend via composition; the only SQLite-specific concerns are
// creating the in-memory DB and dumping it to disk.
package sqlitestorage

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/battlecode/engine/internal/config"
	"github.com/battlecode/engine/internal/database"
	"github.com/battlecode/engine/internal/storage"
	gormstorage "github.com/battlecode/engine/internal/storage/gorm"

	"gorm.io/gorm"
)

// Backend wraps the GORM backend for SQLite-specific behavior.
type Backend struct {
	*gormstorage.Backend
	db        *gorm.DB
	cfg       config.SQLiteConfig
	log       storage.Logger
	stopChan  chan struct{}
	done      chan struct{}
	started   bool
	closeOnce sync.Once
}

// New creates a new SQLite storage backend.
func New(cfg config.SQLiteConfig, writeInterval time.Duration, log storage.Logger) (*Backend, error) {
	if log == nil {
		log = slog.Default()
	}
	db, err := database.GetSqliteDB("")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory SQLite DB: %w", err)
	}

	gormBackend := gormstorage.New(gormstorage.Dependencies{
		DB:            db,
		Logger:        log,
		WriteInterval: writeInterval,
	})

	return &Backend{
		Backend:  gormBackend,
		db:       db,
		cfg:      cfg,
		log:      log,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}, nil
}

// Init initializes the embedded GORM backend and starts the dump goroutine.
func (b *Backend) Init() error {
	if err := b.Backend.Init(); err != nil {
		return err
	}

	b.started = true
	if b.cfg.DumpPath != "" && b.cfg.DumpInterval > 0 {
		go b.dumpLoop()
	} else {
		close(b.done)
	}

	return nil
}

// EndMatch finalizes the match and dumps the database so the file on disk
// holds the complete match.
func (b *Backend) EndMatch(endRound uint32) error {
	if err := b.Backend.EndMatch(endRound); err != nil {
		return err
	}
	return b.Dump()
}

// Dump writes the in-memory database to DumpPath.
func (b *Backend) Dump() error {
	if b.cfg.DumpPath == "" {
		return nil
	}
	start := time.Now()
	if err := database.DumpMemoryDBToDisk(b.db, b.cfg.DumpPath); err != nil {
		return err
	}
	b.log.Debug("Dumped to disk", "path", b.cfg.DumpPath, "duration", time.Since(start))
	return nil
}

// Close stops the dump goroutine, closes the embedded GORM backend and
// releases the in-memory database.
func (b *Backend) Close() error {
	var err error
	b.closeOnce.Do(func() {
		close(b.stopChan)
		if b.started {
			<-b.done
		}
		err = b.Backend.Close()
		if sqlDB, dbErr := b.db.DB(); dbErr == nil {
			if cerr := sqlDB.Close(); err == nil {
				err = cerr
			}
		}
	})
	return err
}

// dumpLoop periodically dumps the in-memory SQLite database to disk via VACUUM INTO.
// VACUUM INTO creates a point-in-time snapshot, so no pause mechanism is needed.
func (b *Backend) dumpLoop() {
	defer close(b.done)
	ticker := time.NewTicker(b.cfg.DumpInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			if err := b.Dump(); err != nil {
				b.log.Error("Error dumping to disk", "error", err)
			}
		}
	}
}

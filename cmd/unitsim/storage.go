package main

import (
	"fmt"
	"log/slog"

	"github.com/battlecode/engine/internal/config"
	"github.com/battlecode/engine/internal/database"
	"github.com/battlecode/engine/internal/logging"
	"github.com/battlecode/engine/internal/storage"
	gormstorage "github.com/battlecode/engine/internal/storage/gorm"
	"github.com/battlecode/engine/internal/storage/memory"
	sqlitestorage "github.com/battlecode/engine/internal/storage/sqlite"
	wsstorage "github.com/battlecode/engine/internal/storage/websocket"
	"github.com/rs/zerolog"
)

func createStorageBackend(storageCfg config.StorageConfig, logger *slog.Logger, dbLogger zerolog.Logger) (storage.Backend, error) {
	switch storageCfg.Type {
	case "postgres":
		manager := database.NewManager(dbLogger)
		if err := manager.Connect(storageCfg.DB); err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := manager.Setup(); err != nil {
			_ = manager.Close()
			return nil, err
		}
		manager.SqliteFilePath = storageCfg.SQLite.DumpPath
		logger.Info("Postgres storage backend initialized", "local", manager.ShouldSaveLocal)
		return &managedBackend{
			Backend: gormstorage.New(gormstorage.Dependencies{
				DB:            manager.DB,
				DBConfig:      storageCfg.DB,
				Logger:        logging.NewZerologAdapter(dbLogger),
				WriteInterval: storageCfg.WriteInterval,
			}),
			manager: manager,
		}, nil

	case "sqlite":
		backend, err := sqlitestorage.New(storageCfg.SQLite, storageCfg.WriteInterval, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite backend: %w", err)
		}
		logger.Info("SQLite storage backend initialized", "path", storageCfg.SQLite.DumpPath)
		return backend, nil

	case "websocket":
		logger.Info("WebSocket storage backend initialized", "url", storageCfg.WebSocket.URL)
		return wsstorage.New(storageCfg.WebSocket, logger), nil

	case "memory", "":
		logger.Info("Memory storage backend initialized")
		return memory.New(storageCfg.Memory), nil

	default:
		return nil, fmt.Errorf("unknown storage type %q", storageCfg.Type)
	}
}

// managedBackend is the gorm backend over a database.Manager connection.
// When Postgres was unreachable the manager holds an in-memory SQLite
// database, which is dumped to disk when the match ends.
type managedBackend struct {
	*gormstorage.Backend
	manager *database.Manager
}

func (b *managedBackend) EndMatch(endRound uint32) error {
	if err := b.Backend.EndMatch(endRound); err != nil {
		return err
	}
	if b.manager.ShouldSaveLocal && b.manager.SqliteFilePath != "" {
		return b.manager.DumpMemoryToDisk()
	}
	return nil
}

func (b *managedBackend) Close() error {
	err := b.Backend.Close()
	if cerr := b.manager.Close(); err == nil {
		err = cerr
	}
	return err
}

package monitor

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/battlecode/engine/internal/match"
)

// Dependencies holds all dependencies for the monitor service
type Dependencies struct {
	Context    *match.Context
	Logger     *slog.Logger
	StatusPath string
	Interval   time.Duration

	// Pending reports rows waiting for the storage writer. Optional.
	Pending func() int
}

// Status is one snapshot of a running match.
type Status struct {
	Time        time.Time `json:"time"`
	MatchName   string    `json:"matchName"`
	Round       uint32    `json:"round"`
	Units       int       `json:"units"`
	PendingRows int       `json:"pendingRows"`
}

// Service manages status monitoring
type Service struct {
	deps      Dependencies
	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
	done      chan struct{}
}

// NewService creates a new monitor service
func NewService(deps Dependencies) *Service {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Interval <= 0 {
		deps.Interval = time.Second
	}
	return &Service{deps: deps}
}

// IsRunning returns whether the status monitor is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetStatus returns the current match status.
func (s *Service) GetStatus() Status {
	st := Status{
		Time:  time.Now().UTC(),
		Round: s.deps.Context.Round(),
		Units: s.deps.Context.Len(),
	}
	if m := s.deps.Context.GetMatch(); m != nil {
		st.MatchName = m.Name
	}
	if s.deps.Pending != nil {
		st.PendingRows = s.deps.Pending()
	}
	return st
}

// WriteStatus replaces the status file with the current status.
func (s *Service) WriteStatus() error {
	if s.deps.StatusPath == "" {
		return nil
	}
	data, err := json.MarshalIndent(s.GetStatus(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal status: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.deps.StatusPath), 0755); err != nil {
		return fmt.Errorf("create status dir: %w", err)
	}
	return os.WriteFile(s.deps.StatusPath, data, 0644)
}

// Start starts the status monitor goroutine
func (s *Service) Start() error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.done = make(chan struct{})
	stop, done := s.stopChan, s.done
	s.mu.Unlock()

	go func() {
		defer close(done)

		s.deps.Logger.Debug("Starting status monitor", "path", s.deps.StatusPath, "interval", s.deps.Interval)
		ticker := time.NewTicker(s.deps.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if err := s.WriteStatus(); err != nil {
					s.deps.Logger.Error("Error writing status file", "error", err)
				}
			}
		}
	}()

	return nil
}

// Stop stops the status monitor, writes a final status and waits for the
// goroutine to exit.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	close(s.stopChan)
	done := s.done
	s.mu.Unlock()

	<-done
	if err := s.WriteStatus(); err != nil {
		s.deps.Logger.Error("Error writing status file", "error", err)
	}
}

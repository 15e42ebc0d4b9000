package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/battlecode/engine/internal/config"
	"github.com/battlecode/engine/internal/logging"
	"github.com/battlecode/engine/internal/match"
	"github.com/battlecode/engine/internal/monitor"
	"github.com/battlecode/engine/internal/storage"
	"github.com/battlecode/engine/internal/storage/memory"
	"github.com/battlecode/engine/pkg/core"
	"github.com/battlecode/engine/pkg/unit"
)

const programName = "unitsim"

var errUsage = errors.New("usage: unitsim run [-config dir] | replay <file> [round] | levels [type]")

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	switch strings.ToLower(args[0]) {
	case "run":
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runMatch(ctx, args[1:], out)
	case "replay":
		return showReplay(args[1:], out)
	case "levels":
		return showLevels(args[1:], out)
	default:
		return fmt.Errorf("unknown command %q\n%w", args[0], errUsage)
	}
}

// runMatch plays one scrimmage and records it with the configured backend.
func runMatch(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(out)
	configDir := fs.String("config", "", "directory containing "+config.FileName)
	if err := fs.Parse(args); err != nil {
		return err
	}

	var cfgErr error
	if *configDir != "" {
		cfgErr = config.Load(*configDir)
	} else {
		config.LoadDefaults()
	}

	sessionStart := time.Now().UTC()
	matchCfg := config.GetMatchConfig()
	mobility, err := config.GetMobility()
	if err != nil {
		return fmt.Errorf("invalid units.immobile: %w", err)
	}
	mctx := match.NewContext(mobility)

	logFile, err := logging.OpenLogFile(config.GetString("logsDir"), programName, matchCfg.Name, sessionStart)
	if err != nil {
		return err
	}
	defer func() { _ = logFile.Close() }()

	slogManager := logging.NewSlogManager()
	slogManager.Setup(logFile, config.GetString("logLevel"), mctx.LogAttrs)
	logger := slogManager.Logger()
	if cfgErr != nil {
		logger.Warn("Failed to load config, using defaults!", "error", cfgErr)
	} else {
		logger.Info("Loaded config", "dir", *configDir)
	}

	dbLogger := logging.NewZerolog(logFile, config.GetString("logLevel"))
	storageCfg := config.GetStorageConfig()
	backend, err := createStorageBackend(storageCfg, logger, dbLogger)
	if err != nil {
		logger.Error("Failed to create storage backend", "error", err)
		return err
	}
	if err := backend.Init(); err != nil {
		logger.Error("Failed to initialize storage backend", "error", err)
		return err
	}
	defer func() {
		if err := backend.Close(); err != nil {
			logger.Error("Failed to close storage backend", "error", err)
		}
	}()

	m := &core.Match{
		Name:      matchCfg.Name,
		StartTime: sessionStart,
		MapWidth:  uint32(match.ScrimmageSize),
		MapHeight: uint32(match.ScrimmageSize),
		Seed:      matchCfg.Seed,
	}
	if err := backend.StartMatch(m); err != nil {
		return fmt.Errorf("start match: %w", err)
	}
	mctx.SetMatch(m)
	logger.Info("Match started", "storage", storageCfg.Type, "seed", m.Seed, "rounds", matchCfg.Rounds)

	monitorCfg := config.GetMonitorConfig()
	deps := monitor.Dependencies{
		Context:    mctx,
		Logger:     logger,
		StatusPath: monitorCfg.StatusPath,
		Interval:   monitorCfg.Interval,
	}
	if p, ok := backend.(interface{ Pending() int }); ok {
		deps.Pending = p.Pending
	}
	statusMonitor := monitor.NewService(deps)
	if err := statusMonitor.Start(); err != nil {
		logger.Error("Failed to start status monitor", "error", err)
	}

	s := match.NewScrimmage(mctx, matchCfg.Seed, logger)
	last, runErr := match.Run(ctx, s, match.NewRecorder(backend), matchCfg.Rounds)
	statusMonitor.Stop()
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		logger.Error("Match aborted", "round", last, "error", runErr)
	}

	if err := backend.EndMatch(last); err != nil {
		return fmt.Errorf("end match: %w", err)
	}
	logger.Info("Match ended", "round", last)

	report(out, m, last, mctx.Snapshot(), backend)
	if errors.Is(runErr, context.Canceled) {
		return nil
	}
	return runErr
}

func report(out io.Writer, m *core.Match, last uint32, units []*unit.Unit, backend storage.Backend) {
	result := "draw"
	if team, ok := match.Winner(units); ok {
		result = team.String() + " wins"
	}
	fmt.Fprintf(out, "%s: %s after %d rounds, %d units left\n", m.Name, result, last, len(units))

	if exp, ok := backend.(storage.Exporter); ok && exp.ExportedFilePath() != "" {
		meta := exp.ExportMetadata()
		fmt.Fprintf(out, "replay %s (%d units, %d states)\n", exp.ExportedFilePath(), meta.Units, meta.States)
	}
}

// showReplay prints every unit alive at a round of a recorded replay,
// defaulting to the final round.
func showReplay(args []string, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	r, err := memory.ReadReplay(args[0])
	if err != nil {
		return err
	}

	round := r.EndRound
	if len(args) > 1 {
		v, err := strconv.ParseUint(args[1], 10, 32)
		if err != nil {
			return fmt.Errorf("invalid round %q: %w", args[1], err)
		}
		round = uint32(v)
	}

	units, err := r.UnitsAt(round)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s round %d of %d: %d units\n", r.MatchName, round, r.EndRound, len(units))
	for _, u := range units {
		fmt.Fprintf(out, "  %s\n", u)
	}
	return nil
}

// showLevels prints the research table of one unit type, or of all of them.
func showLevels(args []string, out io.Writer) error {
	types := unit.AllTypes()
	if len(args) > 0 {
		t, err := unit.ParseUnitType(args[0])
		if err != nil {
			return err
		}
		types = []unit.UnitType{t}
	}

	for _, t := range types {
		table, err := unit.ResearchTable(t)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s (max level %d)\n", t, t.MaxLevel())
		for lvl, info := range table {
			data, err := json.Marshal(info)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "  %d %s\n", lvl, data)
		}
	}
	return nil
}

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/l1jgo/compoundtp/internal/config"
	"github.com/l1jgo/compoundtp/internal/core/event"
	coresys "github.com/l1jgo/compoundtp/internal/core/system"
	"github.com/l1jgo/compoundtp/internal/data"
	"github.com/l1jgo/compoundtp/internal/landmark"
	"github.com/l1jgo/compoundtp/internal/persist"
	"github.com/l1jgo/compoundtp/internal/plugin"
	"github.com/l1jgo/compoundtp/internal/scripting"
	"github.com/l1jgo/compoundtp/internal/system"
	"github.com/l1jgo/compoundtp/internal/world"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - len(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

// ── Main harness logic ─────────────────────────────────────────────

func run() error {
	cfgPath := flag.String("config", envOr("COMPOUNDTP_CONFIG", "config/compoundtp.toml"), "settings document")
	landmarksPath := flag.String("landmarks", envOr("COMPOUNDTP_LANDMARKS", "data/yaml/landmarks.yaml"), "world monument table")
	scenarioPath := flag.String("scenario", envOr("COMPOUNDTP_SCENARIO", "data/yaml/scenario.yaml"), "host event replay")
	flag.Parse()

	// 1. Load config. The real logger depends on it, so a bootstrap logger
	// reports problems with the file itself.
	boot, err := newLogger(config.Defaults().Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	cfg, err := config.Load(*cfgPath, boot)
	if err != nil {
		boot.Warn("could not write configuration back", zap.String("path", *cfgPath), zap.Error(err))
	}
	_ = boot.Sync()

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	// 3. Landmark discovery predicate
	var engine *scripting.Engine
	if cfg.Respawn.MatchMode == config.MatchScript {
		engine, err = scripting.NewEngine(cfg.Scripting.Dir, log)
		if err != nil {
			return fmt.Errorf("scripting engine: %w", err)
		}
		defer engine.Close()
		printOK("Lua engine loaded")
	}
	var script landmark.ScriptMatcher
	if engine != nil {
		script = engine
	}
	matcher, err := landmark.NewMatcher(cfg.Respawn.MatchMode, script)
	if err != nil {
		return fmt.Errorf("landmark matcher: %w", err)
	}

	// 4. Load world data
	printSection("Data")
	landmarks, err := data.LoadLandmarkTable(*landmarksPath)
	if err != nil {
		return fmt.Errorf("load landmarks: %w", err)
	}
	printStat("Landmarks", landmarks.Count())

	scenario, err := data.LoadScenario(*scenarioPath)
	if err != nil {
		return fmt.Errorf("load scenario: %w", err)
	}
	printStat("Scenario steps", len(scenario.Steps))
	fmt.Println()

	// 5. Host world and plugin
	worldState := world.NewState(landmarks.Landmarks())
	bus := event.NewBus()
	tp := plugin.New(cfg.Respawn, worldState, matcher, log)
	tp.Subscribe(bus, worldState)

	// 6. Optional audit persistence
	var audit *system.AuditFlushSystem
	if cfg.Database.Enabled {
		printSection("Database")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		db, err := persist.NewDB(ctx, cfg.Database, log)
		if err != nil {
			cancel()
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		printOK("PostgreSQL connected")

		err = persist.RunMigrations(ctx, db)
		cancel()
		if err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		printOK("migrations applied")
		fmt.Println()

		runID := uuid.New()
		buf := persist.NewAuditBuffer()
		tp.SetRecorder(buf)
		audit = system.NewAuditFlushSystem(buf, persist.NewAuditRepo(db, runID), cfg.Database.FlushInterval, log)
		log.Info("audit enabled", zap.Stringer("run_id", runID))
	}

	// 7. Systems
	replay := system.NewScenarioSystem(scenario, worldState, bus, tp, log)
	replay.Connect(scenario.Online)

	runner := coresys.NewRunner()
	runner.Register(replay)
	runner.Register(system.NewEventDispatchSystem(bus))
	if audit != nil {
		runner.Register(audit)
	}
	cleanup := system.NewCleanupSystem(worldState.Entities(), log)
	runner.Register(cleanup)

	// 8. Game loop
	event.Emit(bus, event.ServerInitialized{})

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)
	reloadCh := make(chan os.Signal, 1)
	signal.Notify(reloadCh, syscall.SIGHUP)

	ticker := time.NewTicker(cfg.Harness.TickRate)
	defer ticker.Stop()

	log.Info("replay started",
		zap.String("scenario", filepath.Base(*scenarioPath)),
		zap.Int("last_tick", scenario.LastTick()),
		zap.Duration("tick", cfg.Harness.TickRate))

loop:
	for {
		select {
		case <-ticker.C:
			runner.Tick(cfg.Harness.TickRate)
			if replay.Done() && bus.Pending() == 0 {
				break loop
			}
		case <-reloadCh:
			reloadConfig(*cfgPath, tp, log)
		case sig := <-shutdownCh:
			log.Info("shutdown signal received", zap.String("signal", sig.String()))
			break loop
		}
	}

	// 9. Unload: destroy every plugin marker, then flush what is left.
	event.Emit(bus, event.Unload{})
	bus.SwapBuffers()
	bus.DispatchAll()
	if audit != nil {
		audit.Flush()
	}
	runner.TickPhase(coresys.PhaseCleanup, cfg.Harness.TickRate)

	printSummary(replay.Stats(), cleanup.Destroyed(), worldState)
	return nil
}

// reloadConfig re-reads the settings document on SIGHUP. Only the respawn
// section is applied to the running plugin; logging, database and tick rate
// changes need a restart.
func reloadConfig(path string, tp *plugin.CompoundTeleport, log *zap.Logger) {
	cfg, err := config.Load(path, log)
	if err != nil {
		log.Warn("could not write configuration back", zap.String("path", path), zap.Error(err))
	}
	tp.Reload(cfg.Respawn)
	log.Info("configuration reloaded",
		zap.String("path", path),
		zap.Int("cooldown_seconds", cfg.Respawn.CooldownSeconds))
}

func printSummary(st system.ScenarioStats, destroyed int, ws *world.State) {
	fmt.Println()
	printSection("Summary")
	printStat("Connects", st.Connects)
	printStat("Disconnects", st.Disconnects)
	printStat("Respawns", st.Respawns)
	printStat("Respawns at zones", st.RespawnsHandled)
	printStat("Commands", st.Commands)
	printStat("Removals blocked", st.Suppressed)
	printStat("Removals allowed", st.Removed)
	printStat("Beds removed", st.BedsRemoved)
	printStat("Steps skipped", st.Skipped)
	printStat("Markers destroyed", destroyed)
	printStat("Markers left", ws.MarkerCount())
	fmt.Println()
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}

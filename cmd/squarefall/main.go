package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/squarefall/spawner/internal/config"
	"github.com/squarefall/spawner/internal/console"
	"github.com/squarefall/spawner/internal/core/clock"
	"github.com/squarefall/spawner/internal/core/event"
	coresys "github.com/squarefall/spawner/internal/core/system"
	"github.com/squarefall/spawner/internal/data"
	"github.com/squarefall/spawner/internal/flow"
	"github.com/squarefall/spawner/internal/fx"
	"github.com/squarefall/spawner/internal/handler"
	"github.com/squarefall/spawner/internal/persist"
	"github.com/squarefall/spawner/internal/pool"
	"github.com/squarefall/spawner/internal/scripting"
	"github.com/squarefall/spawner/internal/spawn"
	"github.com/squarefall/spawner/internal/system"
	"github.com/squarefall/spawner/internal/world"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const version = "0.1.0"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(serverName string) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m             squarefall  v" + version + "            \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m        timed-wave spawner runtime         \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1mInstance:\033[0m %s\n\n", serverName)
}

func printSection(title string) {
	lineLen := max(3, 46-len(title)-1)
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, value any) {
	valStr := fmt.Sprint(value)
	dotsLen := max(3, 42-len(label)-len(valStr))
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), valStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main runtime ───────────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := "config/squarefall.toml"
	if p := os.Getenv("SQUAREFALL_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Server.Name)

	// 3. Load and validate game data. Any error here refuses to start.
	printSection("Data")

	spawnList, err := data.LoadSpawnList(cfg.Data.SpawnList)
	if err != nil {
		return fmt.Errorf("load spawn list: %w", err)
	}
	dist, err := spawn.NewDistribution(spawnList.Elements)
	if err != nil {
		return fmt.Errorf("spawn list %s: %w", cfg.Data.SpawnList, err)
	}
	printStat("Spawn templates", dist.Len())
	printStat("Spawn chance total", fmt.Sprintf("%g%%", dist.TotalChance()))

	waveCfg, err := data.LoadWaveConfig(cfg.Data.WaveList)
	if err != nil {
		return fmt.Errorf("load wave config: %w", err)
	}
	if err := waveCfg.Validate(); err != nil {
		return fmt.Errorf("wave config %s: %w", cfg.Data.WaveList, err)
	}
	printStat("Waves", waveCfg.WaveCount)
	printStat("Wave duration", waveCfg.Duration())
	fmt.Println()

	// 4. Build the field and the object pool
	printSection("Field")

	seed := cfg.Random.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	bus := event.NewBus()
	camera := world.Camera{
		CenterX:    cfg.Field.CenterX,
		CenterY:    cfg.Field.CenterY,
		HalfWidth:  cfg.Field.HalfWidth,
		HalfHeight: cfg.Field.HalfHeight,
	}
	field := world.NewField(camera, spawnList.Placement)

	templates := pool.TemplatesFrom(spawnList.Elements)
	capacity := 0
	for _, t := range templates {
		capacity += t.MaxInstances
	}
	trails := fx.NewTrails(capacity)
	objects := pool.New(templates, trails, log)
	printStat("Pre-warmed objects", objects.Len())
	printStat("Exit line", fmt.Sprintf("y=%g", field.ExitY()))
	printStat("Random seed", seed)
	fmt.Println()

	// 5. Systems and game flow
	waves := system.NewWaveSystem(*waveCfg, dist, objects, field, bus, rng, log)
	lifecycle := system.NewLifecycle(bus, waves, objects, log)
	defer lifecycle.Close()

	machine := flow.New(bus, cfg.Game.MissLimit, clock.Real{}, waves, log)
	defer machine.Close()

	runner := coresys.NewRunner()
	runner.Register(system.NewEventDispatchSystem(bus))
	runner.Register(waves)
	runner.Register(system.NewDriftSystem(objects, waves, trails, cfg.Field.FallSpeed))
	runner.Register(system.NewBoundarySystem(objects, field, waves, bus, log))
	printStat("Systems", runner.Len())

	printSection("Services")

	// 5a. Optional Lua lose rule
	if cfg.Scripting.Enabled {
		engine, err := scripting.NewEngine(cfg.Scripting.Dir, log)
		if err != nil {
			return fmt.Errorf("lua engine: %w", err)
		}
		defer engine.Close()
		machine.SetLoseRule(scripting.NewLoseRule(engine, nil))
		printOK("Lua lose rule loaded")
	}

	// 5b. Optional run history
	var history handler.History
	var persistSys *system.PersistSystem
	if cfg.Database.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		db, err := persist.NewDB(ctx, cfg.Database, log)
		if err != nil {
			cancel()
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		printOK("PostgreSQL connected")

		version, err := persist.RunMigrations(ctx, db.Pool, log)
		cancel()
		if err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		printStat("Schema version", version)

		runs := persist.NewRunRepo(db)
		history = runs
		persistSys = system.NewPersistSystem(runs, bus, log)
		defer persistSys.Close()
		runner.Register(persistSys)
	}

	// 5c. Optional operator console
	var netServer *console.Server
	var control *system.ControlSystem
	if cfg.Console.Enabled {
		codec, err := console.NewCodec(cfg.Console.Encoding)
		if err != nil {
			return fmt.Errorf("console encoding: %w", err)
		}
		netServer, err = console.NewServer(cfg.Console.BindAddress, console.Options{
			InQueue:           cfg.Console.InQueueSize,
			OutQueue:          cfg.Console.OutQueueSize,
			CommandsPerSecond: cfg.Console.CommandsPerSecond,
			MaxSessions:       cfg.Console.MaxSessions,
			Codec:             codec,
		}, log)
		if err != nil {
			return fmt.Errorf("console server: %w", err)
		}
		go netServer.AcceptLoop()

		reg := console.NewRegistry(log)
		handler.RegisterAll(reg, &handler.Deps{
			Name:      cfg.Server.Name,
			TokenHash: cfg.Console.TokenHash,
			Flow:      machine,
			Waves:     waves,
			Pool:      objects,
			History:   history,
			Log:       log,
		})

		store := console.NewSessionStore()
		control = system.NewControlSystem(netServer, reg, store, cfg.Console.MaxCommandsPerTick, log)
		output := system.NewOutputSystem(bus, store)
		defer output.Close()
		runner.Register(control)
		runner.Register(output)
		if cfg.Console.TokenHash == "" {
			log.Warn("console has no token_hash, every connection is an operator")
		}
	}
	fmt.Println()

	// 6. Game loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Loop.TickRate)
	defer ticker.Stop()
	frames := clock.NewFrameTimer(clock.Real{}, cfg.Loop.MaxFrameDelta)

	printSection("Ready")
	if netServer != nil {
		printReady(fmt.Sprintf("Console listening on %s", netServer.Addr().String()))
	}
	printReady(fmt.Sprintf("Loop started (tick: %s)", cfg.Loop.TickRate))
	fmt.Println()

	if cfg.Game.AutoStart {
		machine.Fire(flow.Start)
	}

	for {
		select {
		case <-ticker.C:
			runner.Tick(frames.Next())
		case sig := <-shutdownCh:
			log.Info("shutdown signal received", zap.String("signal", sig.String()))
			if machine.Fire(flow.Abort) {
				bus.Flush()
			}
			if persistSys != nil {
				persistSys.Flush()
			}
			if control != nil {
				control.CloseAll()
			}
			if netServer != nil {
				netServer.Shutdown()
			}
			log.Info("squarefall stopped",
				zap.Uint64("ticks", runner.Ticks()),
				zap.Int("fallbacks", objects.Fallbacks()))
			return nil
		}
	}
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

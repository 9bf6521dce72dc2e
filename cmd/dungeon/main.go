// Package main runs the dungeon simulation, either interactively on a
// terminal or headless for a fixed number of ticks.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"time"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"

	"github.com/cory-johannsen/dungeon/internal/config"
	"github.com/cory-johannsen/dungeon/internal/frontend/terminal"
	"github.com/cory-johannsen/dungeon/internal/game/dice"
	"github.com/cory-johannsen/dungeon/internal/game/event"
	"github.com/cory-johannsen/dungeon/internal/game/level"
	"github.com/cory-johannsen/dungeon/internal/game/sim"
	"github.com/cory-johannsen/dungeon/internal/gameloop"
	"github.com/cory-johannsen/dungeon/internal/observability"
	"github.com/cory-johannsen/dungeon/internal/scripting"
	"github.com/cory-johannsen/dungeon/internal/server"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file; empty = built-in defaults")
	levelPath := flag.String("level", "content/levels", "level file, or directory of level files")
	levelID := flag.String("level-id", "", "level to play when -level is a directory; empty = first")
	globalScripts := flag.String("global-scripts", "", "directory of Lua hooks loaded into the shared VM; empty = none")
	mode := flag.String("mode", "", "override frontend.mode (terminal or headless)")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("loading config: %v", err)
		}
		cfg = loaded
	}
	if *mode != "" {
		cfg.Frontend.Mode = *mode
		if err := cfg.Validate(); err != nil {
			log.Fatalf("validating config: %v", err)
		}
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	lvl, err := loadLevel(*levelPath, *levelID)
	if err != nil {
		logger.Fatal("loading level", zap.Error(err))
	}
	g, err := lvl.Grid()
	if err != nil {
		logger.Fatal("parsing level grid", zap.Error(err))
	}
	logger.Info("level loaded",
		zap.String("level", lvl.ID),
		zap.String("name", lvl.Name),
		zap.Int("width", g.Width()),
		zap.Int("height", g.Height()),
	)

	simSrc, scriptSrc := diceSources(cfg.Frontend.Seed)
	simulation := sim.New(cfg.Simulation, simSrc, logger)

	scripts := scripting.NewManager(dice.NewLoggedRoller(scriptSrc, logger), logger)
	defer scripts.Close()
	scripts.QueryPlayer = func() *scripting.PlayerInfo {
		reg := simulation.Registry()
		if reg == nil {
			return nil
		}
		p := reg.Player()
		return &scripting.PlayerInfo{
			Health:    p.Health,
			MaxHealth: p.MaxHealth,
			Level:     p.Level,
			Exp:       p.Exp,
			X:         p.Pos.X,
			Y:         p.Pos.Y,
		}
	}
	if *globalScripts != "" {
		if err := scripts.LoadGlobal(*globalScripts, cfg.Frontend.ScriptInstructionLimit); err != nil {
			logger.Fatal("loading global scripts", zap.Error(err))
		}
	}
	if lvl.ScriptDir != "" {
		if err := scripts.LoadLevel(lvl.ID, lvl.ScriptDir, cfg.Frontend.ScriptInstructionLimit); err != nil {
			logger.Fatal("loading level scripts", zap.String("dir", lvl.ScriptDir), zap.Error(err))
		}
	}
	if lvl.ScriptDir != "" || *globalScripts != "" {
		simulation.Subscribe(scripts.Sink(lvl.ID))
	}

	if err := simulation.Init(g); err != nil {
		logger.Fatal("initialising simulation", zap.Error(err))
	}
	loop := gameloop.New(simulation, cfg.Simulation.TickDuration(), logger)

	logger.Info("dungeon initialized",
		zap.String("run_id", simulation.RunID()),
		zap.String("mode", cfg.Frontend.Mode),
		zap.Duration("startup", time.Since(start)),
	)

	ctx := context.Background()
	switch cfg.Frontend.Mode {
	case "headless":
		runHeadless(ctx, loop, simulation, cfg.Frontend.HeadlessTicks, logger)
	default:
		if err := runTerminal(ctx, loop, simulation, logger); err != nil {
			logger.Error("terminal session failed", zap.Error(err))
			_ = logger.Sync()
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
}

// loadLevel loads a single level file, or the level named id (or the first
// level) from a directory.
func loadLevel(path, id string) (*level.Level, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.IsDir() {
		return level.LoadFromFile(path)
	}
	cat, err := level.LoadDir(path)
	if err != nil {
		return nil, err
	}
	if id == "" {
		return cat.First(), nil
	}
	return cat.Get(id)
}

// diceSources returns independent sources for the simulation and for Lua
// hooks, so scripts calling engine.roll cannot perturb a seeded replay.
func diceSources(seed uint64) (dice.Source, dice.Source) {
	if seed == 0 {
		return dice.NewCryptoSource(), dice.NewCryptoSource()
	}
	return dice.NewSeededSource(seed), dice.NewSeededSource(seed + 1)
}

func runHeadless(ctx context.Context, loop *gameloop.Loop, s *sim.Simulation, ticks int, logger *zap.Logger) {
	counts := make(map[string]int)
	s.Subscribe(event.SinkFunc(func(e event.Event) {
		counts[e.Name()]++
	}))

	ran := loop.RunTicks(ctx, ticks)
	snap := s.Snapshot()

	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)
	fields := []zap.Field{
		zap.Int("ticks", ran),
		zap.Int("monsters_remaining", len(snap.Monsters)),
		zap.Int("player_health", snap.Player.Health),
		zap.Int("player_level", snap.Player.Level),
		zap.Int("player_exp", snap.Player.Exp),
		zap.Bool("player_dead", snap.PlayerDead),
	}
	for _, name := range names {
		fields = append(fields, zap.Int("events."+name, counts[name]))
	}
	logger.Info("headless run complete", fields...)
}

func runTerminal(ctx context.Context, loop *gameloop.Loop, s *sim.Simulation, logger *zap.Logger) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("creating screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("initialising screen: %w", err)
	}
	defer screen.Fini()

	fe := terminal.New(screen, loop, logger)
	fe.Draw(s.Snapshot())

	frames := make(chan gameloop.Frame, 4)
	loop.Subscribe(frames)
	defer loop.Unsubscribe(frames)

	lifecycle := server.NewLifecycle(logger)
	lifecycle.Add("gameloop", server.NewContextService(loop.Run))
	feCtx, cancelFE := context.WithCancel(ctx)
	defer cancelFE()
	lifecycle.Add("terminal", &server.FuncService{
		StartFn: func() error { return fe.Run(feCtx, frames) },
		StopFn:  fe.Stop,
	})
	return lifecycle.Run(ctx)
}

// Package sim is the tick-driven combat-and-progression simulation of one
// dungeon level. A Simulation owns the entity registry and the deferred task
// scheduler and is driven from a single goroutine.
package sim

import (
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/dungeon/internal/config"
	"github.com/cory-johannsen/dungeon/internal/game/ai"
	"github.com/cory-johannsen/dungeon/internal/game/combat"
	"github.com/cory-johannsen/dungeon/internal/game/dice"
	"github.com/cory-johannsen/dungeon/internal/game/entity"
	"github.com/cory-johannsen/dungeon/internal/game/event"
	"github.com/cory-johannsen/dungeon/internal/game/grid"
	"github.com/cory-johannsen/dungeon/internal/game/progression"
	"github.com/cory-johannsen/dungeon/internal/game/schedule"
	"github.com/cory-johannsen/dungeon/internal/game/spawn"
)

// diagonalScale keeps diagonal movement close to axis-aligned speed.
const diagonalScale = 0.707

var (
	// ErrNoGrid is returned by Init when no grid is supplied.
	ErrNoGrid = errors.New("sim: no grid")
	// ErrNotInitialized is returned by Reset before the first Init.
	ErrNotInitialized = errors.New("sim: not initialized")
)

// monsterStepper advances one monster by one tick.
type monsterStepper interface {
	Step(m *entity.Monster, player *entity.Player, tick int64)
}

type heldMove struct {
	dx, dy    int
	ticksLeft int
}

// Simulation is one level's running world.
//
// Simulation is not safe for concurrent use.
type Simulation struct {
	cfg    config.SimulationConfig
	logger *zap.Logger
	roller *dice.Roller

	grid  *grid.Grid
	runID uuid.UUID
	tick  int64

	reg      *entity.Registry
	sched    *schedule.Scheduler
	prog     *progression.System
	resolver *combat.Resolver
	brain    monsterStepper

	buf       event.Buffer
	listeners []event.Sink
	pending   []Command
	move      heldMove
	attacks   int
	dead      bool
}

// New creates an uninitialised Simulation. Call Init before Tick.
//
// Precondition: src and logger must be non-nil; cfg must be valid.
func New(cfg config.SimulationConfig, src dice.Source, logger *zap.Logger) *Simulation {
	return &Simulation{
		cfg:    cfg,
		logger: logger,
		roller: dice.NewLoggedRoller(src, logger),
	}
}

// Subscribe registers sink to receive every event after each tick, in
// emission order.
func (s *Simulation) Subscribe(sink event.Sink) {
	s.listeners = append(s.listeners, sink)
}

// Init discards any current world and builds a fresh one from g: the player
// at the Start cell and the planned monster population. Events emitted here
// are delivered with the next Tick.
//
// Precondition: g must be non-nil.
// Postcondition: CurrentTick() == 0, no tasks are pending and undelivered
// events from a previous run are dropped.
func (s *Simulation) Init(g *grid.Grid) error {
	if g == nil {
		return ErrNoGrid
	}
	s.buf.Drain()
	s.runID = uuid.New()
	log := s.logger.With(zap.String("run_id", s.runID.String()))

	pos, ok := s.playerStart(g)
	if !ok {
		log.Warn("level has no start cell; placing player at grid centre",
			zap.Float64("x", pos.X), zap.Float64("y", pos.Y))
	}

	reg := entity.NewRegistry(entity.NewPlayer(pos, s.cfg.PlayerMaxHealth, s.cfg.ExpToFirstLevel))
	sched := schedule.New()
	prog := progression.NewSystem(progression.RulesFromConfig(s.cfg), &s.buf, log)
	resolver, err := combat.NewResolver(s.cfg, reg, sched, prog, s.roller, &s.buf, log)
	if err != nil {
		return fmt.Errorf("building combat resolver: %w", err)
	}

	s.grid = g
	s.tick = 0
	s.reg = reg
	s.sched = sched
	s.prog = prog
	s.resolver = resolver
	s.brain = ai.NewBrain(s.cfg, g.Width(), g.Height(), resolver, &s.buf)
	s.pending = nil
	s.move = heldMove{}
	s.attacks = 0
	s.dead = false

	placements := spawn.NewPlanner(s.cfg.TileSize).Plan(g)
	s.buf.Emit(event.LevelStarted{RunID: s.runID.String(), Width: g.Width(), Height: g.Height(), Monsters: len(placements)})
	for _, p := range placements {
		m := p.Monster(s.cfg.MonsterBaseHP)
		reg.Spawn(m)
		s.buf.Emit(event.MonsterSpawned{ID: m.ID, Kind: m.Kind, Pos: m.Pos, Variant: m.Variant})
	}
	log.Info("level initialised",
		zap.Int("width", g.Width()),
		zap.Int("height", g.Height()),
		zap.Int("monsters", reg.Len()),
	)
	return nil
}

// Reset restarts the current level from scratch, discarding every entity and
// pending task.
func (s *Simulation) Reset() error {
	if s.grid == nil {
		return ErrNotInitialized
	}
	return s.Init(s.grid)
}

func (s *Simulation) playerStart(g *grid.Grid) (entity.Vec2, bool) {
	if x, y, ok := g.Start(); ok {
		return entity.CellCenter(x, y, s.cfg.TileSize), true
	}
	return entity.Vec2{
		X: float64(g.Width()*s.cfg.TileSize) / 2,
		Y: float64(g.Height()*s.cfg.TileSize) / 2,
	}, false
}

// Submit queues cmd for the next tick boundary.
func (s *Simulation) Submit(cmd Command) {
	s.pending = append(s.pending, cmd)
}

// Tick advances the world by one tick and returns the events emitted, in
// order. Tick is a no-op returning nil before Init.
func (s *Simulation) Tick() []event.Event {
	if s.reg == nil {
		return nil
	}
	s.applyCommands()

	s.tick++
	for _, t := range s.sched.Advance() {
		s.isolate("task", t.Target, func() { s.runTask(t) })
	}

	p := s.reg.Player()
	if p.AttackCooldown > 0 {
		p.AttackCooldown--
	}

	if s.tick%int64(s.cfg.AnimationPeriodTicks) == 0 {
		s.animate()
	}

	for _, m := range s.reg.Live() {
		s.isolate("monster", m.ID, func() { s.brain.Step(m, p, s.tick) })
	}
	if !s.dead && !p.Alive() {
		s.dead = true
		s.move = heldMove{}
		s.attacks = 0
		s.logger.Info("player frozen until restart",
			zap.String("run_id", s.runID.String()), zap.Int64("tick", s.tick))
	}

	if !s.dead {
		s.movePlayer(p)
		for ; s.attacks > 0; s.attacks-- {
			s.resolver.PlayerAttack()
		}
	}

	evs := s.buf.Drain()
	for _, l := range s.listeners {
		for _, e := range evs {
			l.Emit(e)
		}
	}
	return evs
}

func (s *Simulation) applyCommands() {
	cmds := s.pending
	s.pending = nil
	for _, c := range cmds {
		switch c.Kind {
		case CmdRestart:
			if err := s.Reset(); err != nil {
				s.logger.Error("restart failed", zap.Error(err))
			}
		case CmdMove:
			if s.dead {
				continue
			}
			hold := c.HoldTicks
			if hold < 1 {
				hold = 1
			}
			if c.DX == 0 && c.DY == 0 {
				hold = 0
			}
			s.move = heldMove{dx: c.DX, dy: c.DY, ticksLeft: hold}
		case CmdAttack:
			if !s.dead {
				s.attacks++
			}
		default:
			s.logger.Warn("unknown command", zap.Stringer("kind", c.Kind))
		}
	}
}

func (s *Simulation) runTask(t schedule.Task) {
	switch t.Action {
	case schedule.AttackEnd:
		s.resolver.EndAttack()
	case schedule.Decay:
		s.resolver.FinishDecay(t.Target)
	case schedule.HitFlashEnd:
		s.resolver.ClearFlash()
	default:
		s.logger.Warn("unknown task action", zap.Stringer("action", t.Action))
	}
}

func (s *Simulation) animate() {
	for _, m := range s.reg.Live() {
		if m.State.Dead() {
			continue
		}
		m.Variant = m.Variant.Toggled()
		s.buf.Emit(event.MonsterAnimated{ID: m.ID, Variant: m.Variant})
	}
}

func (s *Simulation) movePlayer(p *entity.Player) {
	mv := &s.move
	if mv.ticksLeft <= 0 {
		return
	}
	mv.ticksLeft--

	switch {
	case mv.dy < 0:
		p.Facing = entity.FacingUp
	case mv.dy > 0:
		p.Facing = entity.FacingDown
	case mv.dx < 0:
		p.Facing = entity.FacingLeft
	case mv.dx > 0:
		p.Facing = entity.FacingRight
	}

	step := s.cfg.PlayerMoveSpeed * s.cfg.TickSeconds()
	if mv.dx != 0 && mv.dy != 0 {
		step *= diagonalScale
	}
	half := float64(s.cfg.TileSize) / 2
	lo := entity.Vec2{X: half, Y: half}
	hi := entity.Vec2{X: float64(s.grid.Width()*s.cfg.TileSize) - half, Y: float64(s.grid.Height()*s.cfg.TileSize) - half}

	next := entity.Vec2{X: p.Pos.X + float64(mv.dx)*step, Y: p.Pos.Y}.Clamp(lo, hi)
	if s.walkable(next) {
		p.Pos.X = next.X
	}
	next = entity.Vec2{X: p.Pos.X, Y: p.Pos.Y + float64(mv.dy)*step}.Clamp(lo, hi)
	if s.walkable(next) {
		p.Pos.Y = next.Y
	}
}

func (s *Simulation) walkable(pos entity.Vec2) bool {
	tile := float64(s.cfg.TileSize)
	return s.grid.Walkable(int(math.Floor(pos.X/tile)), int(math.Floor(pos.Y/tile)))
}

// checkpoint records the state one isolated step may touch: its target
// monster, the player, and the lengths of the event buffer and task list.
type checkpoint struct {
	monster *entity.Monster
	saved   entity.Monster
	player  entity.Player
	events  int
	tasks   int
}

func (s *Simulation) checkpoint(id entity.ID) checkpoint {
	cp := checkpoint{
		player: *s.reg.Player(),
		events: s.buf.Len(),
		tasks:  s.sched.Len(),
	}
	if m, ok := s.reg.Get(id); ok {
		cp.monster = m
		cp.saved = *m
	}
	return cp
}

func (s *Simulation) restore(cp checkpoint) {
	*s.reg.Player() = cp.player
	if cp.monster != nil {
		*cp.monster = cp.saved
	}
	s.buf.Truncate(cp.events)
	s.sched.Truncate(cp.tasks)
}

// isolate runs fn, recovering and logging any panic so one failing entity
// cannot abort the tick. A failed step is rolled back to its checkpoint.
func (s *Simulation) isolate(step string, id entity.ID, fn func()) {
	cp := s.checkpoint(id)
	defer func() {
		if r := recover(); r != nil {
			s.restore(cp)
			s.logger.Warn("isolated failure",
				zap.String("step", step),
				zap.Int("id", int(id)),
				zap.Int64("tick", s.tick),
				zap.Any("panic", r),
			)
		}
	}()
	fn()
}

package sim

import (
	"github.com/cory-johannsen/dungeon/internal/game/entity"
	"github.com/cory-johannsen/dungeon/internal/game/grid"
	"github.com/cory-johannsen/dungeon/internal/game/schedule"
)

// Snapshot is a copy of the world for presentation. Mutating it does not
// affect the simulation.
type Snapshot struct {
	RunID      string
	Tick       int64
	TileSize   int
	Grid       *grid.Grid
	Player     entity.Player
	Monsters   []entity.Monster
	PlayerDead bool
}

// Snapshot returns a copy of the current world. Before Init it returns the
// zero Snapshot.
func (s *Simulation) Snapshot() Snapshot {
	if s.reg == nil {
		return Snapshot{}
	}
	live := s.reg.Live()
	monsters := make([]entity.Monster, len(live))
	for i, m := range live {
		monsters[i] = *m
	}
	return Snapshot{
		RunID:      s.runID.String(),
		Tick:       s.tick,
		TileSize:   s.cfg.TileSize,
		Grid:       s.grid,
		Player:     *s.reg.Player(),
		Monsters:   monsters,
		PlayerDead: s.dead,
	}
}

// RunID returns the identifier of the current run, regenerated on every
// Init and Reset.
func (s *Simulation) RunID() string { return s.runID.String() }

// CurrentTick returns the number of ticks since the last Init.
func (s *Simulation) CurrentTick() int64 { return s.tick }

// PlayerDead reports whether the player is frozen awaiting a restart.
func (s *Simulation) PlayerDead() bool { return s.dead }

// Registry exposes the live registry. It is replaced on every Init.
func (s *Simulation) Registry() *entity.Registry { return s.reg }

// Scheduler exposes the pending task scheduler. It is replaced on every Init.
func (s *Simulation) Scheduler() *schedule.Scheduler { return s.sched }

// Package ai drives per-tick monster behaviour: detection, chase, attack and
// return-to-post.
package ai

import (
	"github.com/cory-johannsen/dungeon/internal/config"
	"github.com/cory-johannsen/dungeon/internal/game/combat"
	"github.com/cory-johannsen/dungeon/internal/game/entity"
	"github.com/cory-johannsen/dungeon/internal/game/event"
)

// Attacker resolves a monster's attack attempt.
type Attacker interface {
	MonsterAttack(m *entity.Monster, tick int64) bool
}

// Brain steps monsters against the player.
type Brain struct {
	cfg      config.SimulationConfig
	dt       float64
	lo, hi   entity.Vec2
	attacker Attacker
	sink     event.Sink
}

// NewBrain creates a Brain for a map of width x height cells.
//
// Precondition: width, height >= 1; attacker and sink must be non-nil.
func NewBrain(cfg config.SimulationConfig, width, height int, attacker Attacker, sink event.Sink) *Brain {
	half := float64(cfg.TileSize) / 2
	return &Brain{
		cfg:      cfg,
		dt:       cfg.TickSeconds(),
		lo:       entity.Vec2{X: half, Y: half},
		hi:       entity.Vec2{X: float64(width*cfg.TileSize) - half, Y: float64(height*cfg.TileSize) - half},
		attacker: attacker,
		sink:     sink,
	}
}

// Step advances m by one tick. Monsters in a dead state are skipped.
//
// Postcondition: m.AttackCooldown >= 0 and m.Pos lies within the map bounds.
func (b *Brain) Step(m *entity.Monster, player *entity.Player, tick int64) {
	if m.State.Dead() {
		return
	}
	if m.AttackCooldown > 0 {
		m.AttackCooldown--
	}

	d := m.Pos.Dist(player.Pos)
	switch {
	case d <= b.cfg.DetectionRange:
		combat.Transition(b.sink, m, entity.Chasing)
		if d > b.cfg.MonsterAttackRange {
			m.Pos = m.Pos.Toward(player.Pos, b.cfg.MonsterMoveSpeed*b.dt)
		} else {
			b.attacker.MonsterAttack(m, tick)
		}
	case m.Pos.Dist(m.Origin) > b.cfg.ReturnThreshold:
		combat.Transition(b.sink, m, entity.Returning)
		m.Pos = m.Pos.Toward(m.Origin, b.cfg.MonsterMoveSpeed/2*b.dt)
	default:
		combat.Transition(b.sink, m, entity.Idle)
	}

	m.Pos = m.Pos.Clamp(b.lo, b.hi)
}

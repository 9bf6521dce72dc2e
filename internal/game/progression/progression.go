// Package progression awards experience for kills and applies leveling.
package progression

import (
	"math"

	"go.uber.org/zap"

	"github.com/cory-johannsen/dungeon/internal/config"
	"github.com/cory-johannsen/dungeon/internal/game/entity"
	"github.com/cory-johannsen/dungeon/internal/game/event"
)

// Rules are the experience and leveling constants.
type Rules struct {
	ExpPerKill   map[entity.Kind]int
	GrowthFactor float64
	HealthGain   int
}

// RulesFromConfig extracts Rules from the simulation configuration.
func RulesFromConfig(cfg config.SimulationConfig) Rules {
	perKill := make(map[entity.Kind]int, len(cfg.ExpPerKill))
	for k, v := range cfg.ExpPerKill {
		perKill[entity.Kind(k)] = v
	}
	return Rules{
		ExpPerKill:   perKill,
		GrowthFactor: cfg.LevelExpGrowthFactor,
		HealthGain:   cfg.HealthGainPerLevel,
	}
}

// Result describes the outcome of one award.
type Result struct {
	Gained    int
	LeveledUp bool
}

// System applies Rules to the player.
type System struct {
	rules  Rules
	sink   event.Sink
	logger *zap.Logger
}

// NewSystem creates a System emitting to sink.
//
// Precondition: sink and logger must be non-nil; rules.GrowthFactor >= 1.
func NewSystem(rules Rules, sink event.Sink, logger *zap.Logger) *System {
	return &System{rules: rules, sink: sink, logger: logger}
}

// Award grants the experience for killing a monster of kind. Kinds without a
// configured award grant nothing.
func (s *System) Award(p *entity.Player, kind entity.Kind) Result {
	amount, ok := s.rules.ExpPerKill[kind]
	if !ok {
		s.logger.Warn("no experience configured for monster kind", zap.String("kind", string(kind)))
		return Result{}
	}
	return s.Grant(p, amount)
}

// Grant adds amount experience and performs exactly one level-up check.
//
// A large award leaves Exp above the new threshold rather than leveling
// repeatedly; the next award checks again.
//
// Precondition: amount >= 0.
// Postcondition: Level increases by at most one; on level-up Health == MaxHealth.
func (s *System) Grant(p *entity.Player, amount int) Result {
	if amount < 0 {
		amount = 0
	}
	p.Exp += amount
	s.sink.Emit(event.ExpGained{Amount: amount, TotalExp: p.Exp})

	res := Result{Gained: amount}
	if p.Exp < p.ExpToNextLevel {
		return res
	}

	p.Level++
	p.Exp -= p.ExpToNextLevel
	p.ExpToNextLevel = int(math.Floor(float64(p.ExpToNextLevel) * s.rules.GrowthFactor))
	if p.ExpToNextLevel < 1 {
		p.ExpToNextLevel = 1
	}
	p.MaxHealth += s.rules.HealthGain
	p.Health = p.MaxHealth
	res.LeveledUp = true

	s.logger.Info("player leveled up",
		zap.Int("level", p.Level),
		zap.Int("max_health", p.MaxHealth),
		zap.Int("exp", p.Exp),
		zap.Int("exp_to_next_level", p.ExpToNextLevel),
	)
	s.sink.Emit(event.LevelUp{NewLevel: p.Level, NewMaxHealth: p.MaxHealth})
	return res
}

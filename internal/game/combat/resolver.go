// Package combat resolves melee exchanges between the player and monsters
// and drives the monster death lifecycle.
package combat

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/dungeon/internal/config"
	"github.com/cory-johannsen/dungeon/internal/game/dice"
	"github.com/cory-johannsen/dungeon/internal/game/entity"
	"github.com/cory-johannsen/dungeon/internal/game/event"
	"github.com/cory-johannsen/dungeon/internal/game/progression"
	"github.com/cory-johannsen/dungeon/internal/game/schedule"
)

// Hit is one monster struck by a player attack.
type Hit struct {
	TargetID entity.ID
	// Roll is the rolled damage; Dealt is the hp actually removed.
	Roll   int
	Dealt  int
	Killed bool
}

// AttackResult holds the outcome of a player attack command.
type AttackResult struct {
	// Accepted is false when the attack was refused by cooldown or an open
	// attack window.
	Accepted bool
	Hits     []Hit
}

// Resolver applies the melee rules to one level's registry.
type Resolver struct {
	cfg    config.SimulationConfig
	damage dice.Expression
	reg    *entity.Registry
	sched  *schedule.Scheduler
	prog   *progression.System
	roller *dice.Roller
	sink   event.Sink
	logger *zap.Logger
}

// NewResolver creates a Resolver.
//
// Precondition: every pointer argument must be non-nil.
// Postcondition: returns an error when cfg.PlayerDamage is not a dice expression.
func NewResolver(
	cfg config.SimulationConfig,
	reg *entity.Registry,
	sched *schedule.Scheduler,
	prog *progression.System,
	roller *dice.Roller,
	sink event.Sink,
	logger *zap.Logger,
) (*Resolver, error) {
	expr, err := dice.Parse(cfg.PlayerDamage)
	if err != nil {
		return nil, fmt.Errorf("parsing player damage: %w", err)
	}
	return &Resolver{
		cfg:    cfg,
		damage: expr,
		reg:    reg,
		sched:  sched,
		prog:   prog,
		roller: roller,
		sink:   sink,
		logger: logger,
	}, nil
}

// Transition sets m's state, emitting MonsterStateChanged when it differs.
func Transition(sink event.Sink, m *entity.Monster, s entity.State) {
	if m.State == s {
		return
	}
	m.State = s
	sink.Emit(event.MonsterStateChanged{ID: m.ID, State: s})
}

// PlayerAttack resolves one attack command against every living monster in
// range of the player's current position.
//
// Postcondition: when accepted, the player is attacking with a full cooldown
// and exactly one AttackEnd task is scheduled.
func (r *Resolver) PlayerAttack() AttackResult {
	p := r.reg.Player()
	if p.AttackCooldown > 0 || p.IsAttacking {
		return AttackResult{}
	}
	p.IsAttacking = true
	p.AttackCooldown = r.cfg.PlayerAttackCooldownTicks

	var targets []*entity.Monster
	for _, m := range r.reg.Live() {
		if m.State.Dead() {
			continue
		}
		if p.Pos.Dist(m.Pos) <= r.cfg.PlayerAttackRange {
			targets = append(targets, m)
		}
	}
	r.sink.Emit(event.PlayerAttackStarted{Hits: len(targets)})

	res := AttackResult{Accepted: true}
	for _, m := range targets {
		roll := r.roller.Roll(r.damage).Total()
		if roll < 0 {
			roll = 0
		}
		dealt := m.ApplyDamage(roll)
		hit := Hit{TargetID: m.ID, Roll: roll, Dealt: dealt}
		r.sink.Emit(event.DamageDealt{TargetID: m.ID, Amount: dealt, Pos: m.Pos})
		if m.HP == 0 {
			r.kill(m)
			hit.Killed = true
		}
		res.Hits = append(res.Hits, hit)
	}

	r.sched.Schedule(entity.PlayerID, r.cfg.AttackResolveDelayTicks, schedule.AttackEnd)
	return res
}

// kill moves m through Dying into Remains and schedules its removal.
func (r *Resolver) kill(m *entity.Monster) {
	Transition(r.sink, m, entity.Dying)
	r.sink.Emit(event.MonsterDied{ID: m.ID, Kind: m.Kind})
	r.logger.Debug("monster died", zap.Int("id", int(m.ID)), zap.String("kind", string(m.Kind)))
	r.prog.Award(r.reg.Player(), m.Kind)

	variant := entity.RemainsA
	if r.roller.Intn(2) == 1 {
		variant = entity.RemainsB
	}
	m.Variant = variant
	Transition(r.sink, m, entity.Remains)
	r.sink.Emit(event.MonsterDecayed{ID: m.ID, Variant: variant})
	r.sched.Schedule(m.ID, r.cfg.DecayDelayTicks, schedule.Decay)
}

// EndAttack closes the player's attack window. It is a no-op when no window
// is open.
func (r *Resolver) EndAttack() {
	p := r.reg.Player()
	if !p.IsAttacking {
		return
	}
	p.IsAttacking = false
	r.sink.Emit(event.PlayerAttackEnded{})
}

// FinishDecay removes the monster with id if it is still in Remains.
//
// Postcondition: returns false without effect for unknown, already removed,
// or non-Remains monsters.
func (r *Resolver) FinishDecay(id entity.ID) bool {
	m, ok := r.reg.Get(id)
	if !ok || m.State != entity.Remains {
		return false
	}
	if !r.reg.Remove(id) {
		return false
	}
	r.sink.Emit(event.MonsterStateChanged{ID: id, State: entity.Removed})
	r.sink.Emit(event.MonsterRemoved{ID: id})
	return true
}

// ClearFlash clears the player's hit-flash flag.
func (r *Resolver) ClearFlash() {
	p := r.reg.Player()
	if !p.Flashing {
		return
	}
	p.Flashing = false
	r.sink.Emit(event.PlayerFlashEnded{})
}

// MonsterAttack attempts m's attack on the player at tick.
//
// The attack requires m to be Chasing with no cooldown and within attack
// range of a living player. While the player is invincible the attack is
// suppressed without consuming m's cooldown.
//
// Postcondition: returns true only when damage was applied.
func (r *Resolver) MonsterAttack(m *entity.Monster, tick int64) bool {
	p := r.reg.Player()
	if m.State != entity.Chasing || m.AttackCooldown > 0 || !p.Alive() {
		return false
	}
	if m.Pos.Dist(p.Pos) > r.cfg.MonsterAttackRange {
		return false
	}
	if p.Invincible(tick) {
		return false
	}

	m.AttackCooldown = r.cfg.MonsterAttackCooldownTicks
	health := p.ApplyDamage(r.cfg.MonsterAttackDamage)
	p.InvincibleUntilTick = tick + int64(r.cfg.PlayerInvincibleDurationTicks)
	p.Flashing = true
	r.sched.Schedule(entity.PlayerID, r.cfg.HitFlashTicks, schedule.HitFlashEnd)

	r.sink.Emit(event.PlayerDamaged{Amount: r.cfg.MonsterAttackDamage, NewHealth: health})
	r.sink.Emit(event.PlayerInvincibilityStarted{UntilTick: p.InvincibleUntilTick})
	if health == 0 {
		r.logger.Info("player died", zap.Int("killer", int(m.ID)), zap.Int64("tick", tick))
		r.sink.Emit(event.PlayerDied{})
	}
	return true
}

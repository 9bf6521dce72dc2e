// Package entity defines the player, monsters and the registry that owns them.
// The registry is the single source of truth mutated by every simulation system.
package entity

import "fmt"

// ID identifies an entity for the lifetime of a level.
type ID int

// PlayerID is the reserved ID of the level's only player.
const PlayerID ID = 0

// Kind is a monster's rank; it selects the experience award.
type Kind string

const (
	KindNormal Kind = "normal"
	KindElite  Kind = "elite"
	KindBoss   Kind = "boss"
)

// State is a monster's lifecycle and behaviour state.
type State int

const (
	Idle State = iota
	Chasing
	Returning
	Dying
	Remains
	Removed
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Chasing:
		return "chasing"
	case Returning:
		return "returning"
	case Dying:
		return "dying"
	case Remains:
		return "remains"
	case Removed:
		return "removed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Dead reports whether s is one of the terminal states in which a monster
// neither deals nor receives damage.
func (s State) Dead() bool {
	return s == Dying || s == Remains || s == Removed
}

// Variant is the presentation-facing sprite tag of a monster.
type Variant int

const (
	VariantA Variant = iota
	VariantB
	RemainsA
	RemainsB
)

// String returns the variant tag.
func (v Variant) String() string {
	switch v {
	case VariantA:
		return "a"
	case VariantB:
		return "b"
	case RemainsA:
		return "remains-a"
	case RemainsB:
		return "remains-b"
	default:
		return fmt.Sprintf("variant(%d)", int(v))
	}
}

// Toggled returns the other walking variant. Remains variants are unchanged.
func (v Variant) Toggled() Variant {
	switch v {
	case VariantA:
		return VariantB
	case VariantB:
		return VariantA
	default:
		return v
	}
}

// Facing is the player's last movement direction.
type Facing int

const (
	FacingDown Facing = iota
	FacingUp
	FacingLeft
	FacingRight
)

// String returns the lowercase direction name.
func (f Facing) String() string {
	switch f {
	case FacingUp:
		return "up"
	case FacingLeft:
		return "left"
	case FacingRight:
		return "right"
	default:
		return "down"
	}
}

// Monster is one hostile entity.
//
// Invariant: 0 <= HP <= MaxHP; AttackCooldown >= 0.
type Monster struct {
	ID             ID
	Kind           Kind
	Pos            Vec2
	Origin         Vec2
	HP             int
	MaxHP          int
	AttackCooldown int
	State          State
	Variant        Variant
}

// ApplyDamage reduces HP by amount, flooring at zero, and returns the damage
// actually removed. Monsters in a dead state are unaffected.
//
// Precondition: amount >= 0.
// Postcondition: 0 <= HP <= MaxHP.
func (m *Monster) ApplyDamage(amount int) int {
	if m.State.Dead() || amount <= 0 {
		return 0
	}
	before := m.HP
	m.HP -= amount
	if m.HP < 0 {
		m.HP = 0
	}
	return before - m.HP
}

// Player is the level's single controllable entity.
//
// Invariant: 0 <= Health <= MaxHealth; Level >= 1; Exp >= 0; ExpToNextLevel > 0.
type Player struct {
	Pos                 Vec2
	Health              int
	MaxHealth           int
	Level               int
	Exp                 int
	ExpToNextLevel      int
	InvincibleUntilTick int64
	AttackCooldown      int
	IsAttacking         bool
	Facing              Facing
	// Flashing is the transient hit-flash visual flag.
	Flashing bool
}

// NewPlayer returns a level-1 player at pos with full health.
func NewPlayer(pos Vec2, maxHealth, expToFirstLevel int) *Player {
	return &Player{
		Pos:            pos,
		Health:         maxHealth,
		MaxHealth:      maxHealth,
		Level:          1,
		ExpToNextLevel: expToFirstLevel,
		Facing:         FacingDown,
	}
}

// Alive reports whether the player has health remaining.
func (p *Player) Alive() bool { return p.Health > 0 }

// Invincible reports whether monster damage is suppressed at tick.
func (p *Player) Invincible(tick int64) bool { return tick < p.InvincibleUntilTick }

// ApplyDamage reduces Health by amount, flooring at zero, and returns the new health.
func (p *Player) ApplyDamage(amount int) int {
	p.Health -= amount
	if p.Health < 0 {
		p.Health = 0
	}
	return p.Health
}

// HealthRatio returns Health/MaxHealth clamped to [0, 1].
func (p *Player) HealthRatio() float64 {
	return clampRatio(p.Health, p.MaxHealth)
}

// ExpRatio returns Exp/ExpToNextLevel clamped to [0, 1].
func (p *Player) ExpRatio() float64 {
	return clampRatio(p.Exp, p.ExpToNextLevel)
}

func clampRatio(n, d int) float64 {
	if d <= 0 {
		return 0
	}
	r := float64(n) / float64(d)
	switch {
	case r < 0:
		return 0
	case r > 1:
		return 1
	default:
		return r
	}
}

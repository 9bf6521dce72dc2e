// Package event defines the outbound notifications the simulation emits to
// presentation and scripting collaborators. Events are fire-and-forget and
// are delivered in emission order.
package event

import "github.com/cory-johannsen/dungeon/internal/game/entity"

// Event is one outbound notification.
type Event interface {
	// Name is the snake_case event name; scripting hooks are named "on_" + Name.
	Name() string
	// Fields returns the payload as primitive values keyed by snake_case name.
	Fields() map[string]any
}

// LevelStarted is emitted once per init or reset after the player and
// monsters are placed.
type LevelStarted struct {
	RunID         string
	Width, Height int
	Monsters      int
}

func (LevelStarted) Name() string { return "level_started" }
func (e LevelStarted) Fields() map[string]any {
	return map[string]any{"run_id": e.RunID, "width": e.Width, "height": e.Height, "monsters": e.Monsters}
}

// MonsterSpawned is emitted for every monster placed at level load.
type MonsterSpawned struct {
	ID      entity.ID
	Kind    entity.Kind
	Pos     entity.Vec2
	Variant entity.Variant
}

func (MonsterSpawned) Name() string { return "monster_spawned" }
func (e MonsterSpawned) Fields() map[string]any {
	return map[string]any{"id": int(e.ID), "kind": string(e.Kind), "x": e.Pos.X, "y": e.Pos.Y, "variant": e.Variant.String()}
}

// MonsterStateChanged is emitted whenever a monster's state differs from the
// previous tick's.
type MonsterStateChanged struct {
	ID    entity.ID
	State entity.State
}

func (MonsterStateChanged) Name() string { return "monster_state_changed" }
func (e MonsterStateChanged) Fields() map[string]any {
	return map[string]any{"id": int(e.ID), "state": e.State.String()}
}

// MonsterAnimated is emitted when a monster's walking variant toggles.
type MonsterAnimated struct {
	ID      entity.ID
	Variant entity.Variant
}

func (MonsterAnimated) Name() string { return "monster_animated" }
func (e MonsterAnimated) Fields() map[string]any {
	return map[string]any{"id": int(e.ID), "variant": e.Variant.String()}
}

// DamageDealt is emitted for every player hit on a monster.
type DamageDealt struct {
	TargetID entity.ID
	Amount   int
	Pos      entity.Vec2
}

func (DamageDealt) Name() string { return "damage_dealt" }
func (e DamageDealt) Fields() map[string]any {
	return map[string]any{"target_id": int(e.TargetID), "amount": e.Amount, "x": e.Pos.X, "y": e.Pos.Y}
}

// MonsterDied is emitted when a monster's hp reaches zero.
type MonsterDied struct {
	ID   entity.ID
	Kind entity.Kind
}

func (MonsterDied) Name() string { return "monster_died" }
func (e MonsterDied) Fields() map[string]any {
	return map[string]any{"id": int(e.ID), "kind": string(e.Kind)}
}

// MonsterDecayed is emitted on the Dying to Remains transition.
type MonsterDecayed struct {
	ID      entity.ID
	Variant entity.Variant
}

func (MonsterDecayed) Name() string { return "monster_decayed" }
func (e MonsterDecayed) Fields() map[string]any {
	return map[string]any{"id": int(e.ID), "variant": e.Variant.String()}
}

// MonsterRemoved is emitted when a monster leaves the registry.
type MonsterRemoved struct {
	ID entity.ID
}

func (MonsterRemoved) Name() string { return "monster_removed" }
func (e MonsterRemoved) Fields() map[string]any {
	return map[string]any{"id": int(e.ID)}
}

// PlayerAttackStarted is emitted when an attack command is accepted.
type PlayerAttackStarted struct {
	Hits int
}

func (PlayerAttackStarted) Name() string { return "player_attack_started" }
func (e PlayerAttackStarted) Fields() map[string]any {
	return map[string]any{"hits": e.Hits}
}

// PlayerAttackEnded is emitted when the attack window closes.
type PlayerAttackEnded struct{}

func (PlayerAttackEnded) Name() string           { return "player_attack_ended" }
func (PlayerAttackEnded) Fields() map[string]any { return map[string]any{} }

// PlayerDamaged is emitted when a monster attack lands.
type PlayerDamaged struct {
	Amount    int
	NewHealth int
}

func (PlayerDamaged) Name() string { return "player_damaged" }
func (e PlayerDamaged) Fields() map[string]any {
	return map[string]any{"amount": e.Amount, "new_health": e.NewHealth}
}

// PlayerInvincibilityStarted is emitted alongside PlayerDamaged.
type PlayerInvincibilityStarted struct {
	UntilTick int64
}

func (PlayerInvincibilityStarted) Name() string { return "player_invincibility_started" }
func (e PlayerInvincibilityStarted) Fields() map[string]any {
	return map[string]any{"until_tick": e.UntilTick}
}

// PlayerFlashEnded is emitted when the hit-flash visual clears.
type PlayerFlashEnded struct{}

func (PlayerFlashEnded) Name() string           { return "player_flash_ended" }
func (PlayerFlashEnded) Fields() map[string]any { return map[string]any{} }

// ExpGained is emitted for every experience award.
type ExpGained struct {
	Amount   int
	TotalExp int
}

func (ExpGained) Name() string { return "exp_gained" }
func (e ExpGained) Fields() map[string]any {
	return map[string]any{"amount": e.Amount, "total_exp": e.TotalExp}
}

// LevelUp is emitted when an award crosses the level threshold.
type LevelUp struct {
	NewLevel     int
	NewMaxHealth int
}

func (LevelUp) Name() string { return "level_up" }
func (e LevelUp) Fields() map[string]any {
	return map[string]any{"new_level": e.NewLevel, "new_max_health": e.NewMaxHealth}
}

// PlayerDied is emitted once when the player's health reaches zero.
type PlayerDied struct{}

func (PlayerDied) Name() string           { return "player_died" }
func (PlayerDied) Fields() map[string]any { return map[string]any{} }

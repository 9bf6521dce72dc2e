package sim_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/dungeon/internal/config"
	"github.com/cory-johannsen/dungeon/internal/game/dice"
	"github.com/cory-johannsen/dungeon/internal/game/entity"
	"github.com/cory-johannsen/dungeon/internal/game/event"
	"github.com/cory-johannsen/dungeon/internal/game/grid"
	"github.com/cory-johannsen/dungeon/internal/game/schedule"
	"github.com/cory-johannsen/dungeon/internal/game/sim"
)

func mustGrid(t require.TestingT, rows ...string) *grid.Grid {
	g, err := grid.Parse(rows, '#')
	require.NoError(t, err)
	return g
}

func newSim(t require.TestingT, src dice.Source, g *grid.Grid) *sim.Simulation {
	s := sim.New(config.Default().Simulation, src, zap.NewNop())
	require.NoError(t, s.Init(g))
	return s
}

func count(evs []event.Event, name string) int {
	n := 0
	for _, e := range evs {
		if e.Name() == name {
			n++
		}
	}
	return n
}

func TestInit_RequiresGrid(t *testing.T) {
	s := sim.New(config.Default().Simulation, dice.NewSeededSource(1), zap.NewNop())
	assert.ErrorIs(t, s.Init(nil), sim.ErrNoGrid)
	assert.ErrorIs(t, s.Reset(), sim.ErrNotInitialized)
	assert.Nil(t, s.Tick())
	assert.Equal(t, sim.Snapshot{}, s.Snapshot())
}

func TestInit_NoStartCellSpawnsAtCentre(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	s := sim.New(config.Default().Simulation, dice.NewSeededSource(1), zap.New(core))
	require.NoError(t, s.Init(mustGrid(t, strings.Repeat(" ", 10))))

	snap := s.Snapshot()
	assert.Equal(t, entity.Vec2{X: 160, Y: 16}, snap.Player.Pos)
	require.Len(t, snap.Monsters, 4)
	var variants []entity.Variant
	for _, m := range snap.Monsters {
		variants = append(variants, m.Variant)
		assert.Equal(t, 8, m.HP)
		assert.Equal(t, entity.Idle, m.State)
		assert.Equal(t, entity.KindNormal, m.Kind)
	}
	assert.Equal(t, []entity.Variant{entity.VariantA, entity.VariantB, entity.VariantA, entity.VariantB}, variants)
	assert.Equal(t, 1, logs.FilterMessageSnippet("no start cell").Len())
}

func TestTick_FirstTickCarriesInitEvents(t *testing.T) {
	s := newSim(t, dice.NewSeededSource(1), mustGrid(t, strings.Repeat(" ", 10)))
	evs := s.Tick()
	names := event.Names(evs)
	require.GreaterOrEqual(t, len(names), 5)
	assert.Equal(t, []string{"level_started", "monster_spawned", "monster_spawned", "monster_spawned", "monster_spawned"}, names[:5])
	assert.Equal(t, event.LevelStarted{RunID: s.RunID(), Width: 10, Height: 1, Monsters: 4}, evs[0])
	assert.Equal(t, int64(1), s.CurrentTick())
}

func TestTick_MeleeExchangeAndDecay(t *testing.T) {
	// monster at (16,16), player at (48,16)
	s := newSim(t, &dice.FixedSource{Values: []int{2}}, mustGrid(t, " S"))
	m, ok := s.Registry().Get(entity.ID(1))
	require.True(t, ok)

	var diedAt, removedAt int64
	for i := 0; i < 100; i++ {
		s.Submit(sim.Attack())
		evs := s.Tick()
		if count(evs, "monster_died") > 0 {
			assert.Zero(t, diedAt, "monster died twice")
			diedAt = s.CurrentTick()
		}
		if count(evs, "monster_removed") > 0 {
			removedAt = s.CurrentTick()
		}
	}

	assert.Equal(t, int64(61), diedAt)
	assert.Equal(t, int64(91), removedAt)
	assert.Equal(t, entity.Removed, m.State)
	assert.Equal(t, 0, s.Registry().Len())

	p := s.Snapshot().Player
	assert.Equal(t, 85, p.Health)
	assert.Equal(t, 10, p.Exp)
	assert.Equal(t, 1, p.Level)
}

func TestTick_FirstTickOrdering(t *testing.T) {
	s := newSim(t, &dice.FixedSource{Values: []int{2}}, mustGrid(t, " S"))
	s.Submit(sim.Attack())
	names := event.Names(s.Tick())
	assert.Equal(t, []string{
		"level_started",
		"monster_spawned",
		"monster_state_changed",
		"player_damaged",
		"player_invincibility_started",
		"player_attack_started",
		"damage_dealt",
	}, names)

	p := s.Snapshot().Player
	assert.True(t, p.IsAttacking)
	assert.True(t, p.Flashing)
	assert.Equal(t, int64(121), p.InvincibleUntilTick)
	assert.Equal(t, 1, s.Scheduler().Pending(entity.PlayerID, schedule.AttackEnd))
	assert.Equal(t, 1, s.Scheduler().Pending(entity.PlayerID, schedule.HitFlashEnd))
}

func TestTick_InsertionOrderDecidesWhichAttackLands(t *testing.T) {
	s := newSim(t, dice.NewSeededSource(1), mustGrid(t, "S"))
	reg := s.Registry()
	require.Equal(t, 0, reg.Len())
	at := reg.Player().Pos
	var ids []entity.ID
	for i := 0; i < 3; i++ {
		ids = append(ids, reg.Spawn(&entity.Monster{
			Kind:   entity.KindNormal,
			Pos:    at,
			Origin: at,
			HP:     8,
			MaxHP:  8,
			State:  entity.Idle,
		}))
	}

	evs := s.Tick()
	assert.Equal(t, 1, count(evs, "player_damaged"))
	assert.Equal(t, 3, count(evs, "monster_state_changed"))
	assert.Equal(t, 85, s.Snapshot().Player.Health)

	cooldowns := make([]int, 0, len(ids))
	for _, id := range ids {
		m, ok := reg.Get(id)
		require.True(t, ok)
		assert.Equal(t, entity.Chasing, m.State)
		cooldowns = append(cooldowns, m.AttackCooldown)
	}
	assert.Equal(t, []int{60, 0, 0}, cooldowns)
}

func TestInit_TwiceBeforeTickDeliversOnlyLatestRun(t *testing.T) {
	g := mustGrid(t, " S")
	s := newSim(t, dice.NewSeededSource(1), g)
	require.NoError(t, s.Init(g))

	evs := s.Tick()
	assert.Equal(t, 1, count(evs, "level_started"))
	assert.Equal(t, s.Registry().Len(), count(evs, "monster_spawned"))
}

func TestTick_TransientTimersExpire(t *testing.T) {
	s := newSim(t, &dice.FixedSource{Values: []int{0}}, mustGrid(t, " S"))
	s.Submit(sim.Attack())
	s.Tick()
	var names []string
	for i := 0; i < 30; i++ {
		names = append(names, event.Names(s.Tick())...)
	}
	assert.Contains(t, names, "player_flash_ended")
	assert.Contains(t, names, "player_attack_ended")
	p := s.Snapshot().Player
	assert.False(t, p.Flashing)
	assert.False(t, p.IsAttacking)
	assert.Equal(t, 0, p.AttackCooldown)
}

func TestTick_PlayerDeathFreezesUntilRestart(t *testing.T) {
	s := newSim(t, dice.NewSeededSource(3), mustGrid(t, " S  "))
	s.Registry().Player().Health = 15
	firstRun := s.RunID()

	evs := s.Tick()
	assert.Equal(t, 1, count(evs, "player_died"))
	assert.True(t, s.PlayerDead())

	before := s.Snapshot().Player
	s.Submit(sim.Move(1, 0, 10))
	s.Submit(sim.Attack())
	for i := 0; i < 5; i++ {
		evs = s.Tick()
		assert.Zero(t, count(evs, "player_attack_started"))
		assert.Zero(t, count(evs, "player_died"))
	}
	assert.Equal(t, before.Pos, s.Snapshot().Player.Pos)

	s.Submit(sim.Restart())
	evs = s.Tick()
	assert.Equal(t, 1, count(evs, "level_started"))
	assert.False(t, s.PlayerDead())
	assert.NotEqual(t, firstRun, s.RunID())
	assert.Equal(t, int64(1), s.CurrentTick())
	p := s.Snapshot().Player
	assert.True(t, p.Alive())
	assert.Equal(t, p.MaxHealth, p.Health)
}

func TestTick_ResetDiscardsPendingTasks(t *testing.T) {
	s := newSim(t, &dice.FixedSource{Values: []int{2}}, mustGrid(t, " S"))
	s.Submit(sim.Attack())
	s.Tick()
	require.Greater(t, s.Scheduler().Len(), 0)

	require.NoError(t, s.Reset())
	assert.Equal(t, 0, s.Scheduler().Len())
	assert.Equal(t, int64(0), s.CurrentTick())
	assert.Equal(t, 1, s.Registry().Len())
}

// corridor: one monster far to the west, player on S with walls between.
const corridor = " ########S  "

func TestTick_PlayerMovement(t *testing.T) {
	s := newSim(t, dice.NewSeededSource(1), mustGrid(t, corridor))
	start := s.Snapshot().Player.Pos
	assert.Equal(t, entity.Vec2{X: 304, Y: 16}, start)

	s.Submit(sim.Move(1, 0, 10))
	for i := 0; i < 10; i++ {
		s.Tick()
	}
	p := s.Snapshot().Player
	assert.InDelta(t, 329, p.Pos.X, 1e-9)
	assert.Equal(t, entity.FacingRight, p.Facing)

	// the hold expires
	s.Tick()
	assert.InDelta(t, 329, s.Snapshot().Player.Pos.X, 1e-9)
}

func TestTick_PlayerBlockedByWallAndBounds(t *testing.T) {
	s := newSim(t, dice.NewSeededSource(1), mustGrid(t, corridor))

	s.Submit(sim.Move(-1, 0, 20))
	for i := 0; i < 20; i++ {
		s.Tick()
	}
	p := s.Snapshot().Player
	assert.InDelta(t, 289, p.Pos.X, 1e-9)
	assert.Equal(t, entity.FacingLeft, p.Facing)

	s.Submit(sim.Move(0, -1, 5))
	for i := 0; i < 5; i++ {
		s.Tick()
	}
	p = s.Snapshot().Player
	assert.Equal(t, 16.0, p.Pos.Y)
	assert.Equal(t, entity.FacingUp, p.Facing)

	s.Submit(sim.Move(1, 0, 200))
	for i := 0; i < 200; i++ {
		s.Tick()
	}
	assert.Equal(t, 12*32-16.0, s.Snapshot().Player.Pos.X)
}

func TestTick_DiagonalMovementScaled(t *testing.T) {
	rows := make([]string, 10)
	for i := range rows {
		rows[i] = strings.Repeat(" ", 10)
	}
	rows[5] = "     S    "
	s := newSim(t, dice.NewSeededSource(1), mustGrid(t, rows...))

	s.Submit(sim.Move(1, 1, 1))
	s.Tick()
	p := s.Snapshot().Player
	step := 150.0 / 60.0 * 0.707
	assert.InDelta(t, 176+step, p.Pos.X, 1e-9)
	assert.InDelta(t, 176+step, p.Pos.Y, 1e-9)
	assert.Equal(t, entity.FacingDown, p.Facing)
}

func TestTick_StopCommandHaltsMovement(t *testing.T) {
	s := newSim(t, dice.NewSeededSource(1), mustGrid(t, corridor))
	s.Submit(sim.Move(1, 0, 100))
	s.Tick()
	s.Submit(sim.Move(0, 0, 100))
	s.Tick()
	assert.InDelta(t, 304+2.5, s.Snapshot().Player.Pos.X, 1e-9)
}

func TestTick_AnimationTogglesVariants(t *testing.T) {
	s := newSim(t, dice.NewSeededSource(1), mustGrid(t, corridor))
	var animated []event.Event
	for i := 0; i < 60; i++ {
		for _, e := range s.Tick() {
			if e.Name() == "monster_animated" {
				animated = append(animated, e)
			}
		}
	}
	require.Len(t, animated, 1)
	assert.Equal(t, event.MonsterAnimated{ID: 1, Variant: entity.VariantB}, animated[0])
}

func TestSubscribe_ReceivesEveryEvent(t *testing.T) {
	s := newSim(t, dice.NewSeededSource(1), mustGrid(t, " S"))
	var got []event.Event
	s.Subscribe(event.SinkFunc(func(e event.Event) { got = append(got, e) }))

	var returned []event.Event
	for i := 0; i < 5; i++ {
		returned = append(returned, s.Tick()...)
	}
	assert.Equal(t, returned, got)
}

func TestSnapshot_IsACopy(t *testing.T) {
	s := newSim(t, dice.NewSeededSource(1), mustGrid(t, " S"))
	snap := s.Snapshot()
	snap.Player.Health = 1
	snap.Monsters[0].HP = 1

	again := s.Snapshot()
	assert.Equal(t, 100, again.Player.Health)
	assert.Equal(t, 8, again.Monsters[0].HP)
	assert.Equal(t, 32, again.TileSize)
}

func genRows() *rapid.Generator[[]string] {
	return rapid.Custom(func(rt *rapid.T) []string {
		w := rapid.IntRange(2, 10).Draw(rt, "w")
		h := rapid.IntRange(1, 6).Draw(rt, "h")
		rows := make([]string, h)
		for y := range rows {
			var b strings.Builder
			for x := 0; x < w; x++ {
				b.WriteRune(rapid.SampledFrom([]rune{'#', ' ', ' ', ' '}).Draw(rt, "cell"))
			}
			rows[y] = b.String()
		}
		sx := rapid.IntRange(0, w-1).Draw(rt, "sx")
		sy := rapid.IntRange(0, h-1).Draw(rt, "sy")
		r := []rune(rows[sy])
		r[sx] = 'S'
		rows[sy] = string(r)
		return rows
	})
}

func genCommand() *rapid.Generator[sim.Command] {
	return rapid.Custom(func(rt *rapid.T) sim.Command {
		switch rapid.IntRange(0, 9).Draw(rt, "kind") {
		case 0, 1, 2:
			return sim.Attack()
		case 3:
			return sim.Restart()
		default:
			return sim.Move(rapid.IntRange(-1, 1).Draw(rt, "dx"), rapid.IntRange(-1, 1).Draw(rt, "dy"), rapid.IntRange(1, 30).Draw(rt, "hold"))
		}
	})
}

func withoutRunIDs(evs []event.Event) []event.Event {
	out := make([]event.Event, 0, len(evs))
	for _, e := range evs {
		if _, ok := e.(event.LevelStarted); ok {
			continue
		}
		out = append(out, e)
	}
	return out
}

func TestSimulation_Property_InvariantsAndDeterminism(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		rows := genRows().Draw(rt, "rows")
		seed := rapid.Uint64().Draw(rt, "seed")
		a := newSim(rt, dice.NewSeededSource(seed), mustGrid(rt, rows...))
		b := newSim(rt, dice.NewSeededSource(seed), mustGrid(rt, rows...))

		deadHP := map[entity.ID]int{}
		ticks := rapid.IntRange(1, 300).Draw(rt, "ticks")
		for i := 0; i < ticks; i++ {
			if rapid.IntRange(0, 4).Draw(rt, "submit") == 0 {
				cmd := genCommand().Draw(rt, "cmd")
				a.Submit(cmd)
				b.Submit(cmd)
			}
			evA := a.Tick()
			evB := b.Tick()
			require.Equal(rt, withoutRunIDs(evA), withoutRunIDs(evB))
			if count(evA, "level_started") > 0 {
				deadHP = map[entity.ID]int{}
			}

			p := a.Snapshot().Player
			require.GreaterOrEqual(rt, p.Health, 0)
			require.LessOrEqual(rt, p.Health, p.MaxHealth)
			require.GreaterOrEqual(rt, p.AttackCooldown, 0)
			for _, m := range a.Snapshot().Monsters {
				require.GreaterOrEqual(rt, m.HP, 0)
				require.LessOrEqual(rt, m.HP, m.MaxHP)
				require.GreaterOrEqual(rt, m.AttackCooldown, 0)
				if m.State.Dead() {
					if hp, seen := deadHP[m.ID]; seen {
						require.Equal(rt, hp, m.HP)
					}
					deadHP[m.ID] = m.HP
					require.LessOrEqual(rt, a.Scheduler().Pending(m.ID, schedule.Decay), 1)
				}
			}
		}
	})
}

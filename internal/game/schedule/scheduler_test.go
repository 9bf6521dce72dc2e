package schedule_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/dungeon/internal/game/entity"
	"github.com/cory-johannsen/dungeon/internal/game/schedule"
)

func TestScheduler_FiresAfterDelay(t *testing.T) {
	s := schedule.New()
	s.Schedule(entity.ID(1), 3, schedule.Decay)

	assert.Empty(t, s.Advance())
	assert.Empty(t, s.Advance())
	fired := s.Advance()
	require.Len(t, fired, 1)
	assert.Equal(t, entity.ID(1), fired[0].Target)
	assert.Equal(t, schedule.Decay, fired[0].Action)
	assert.Equal(t, 0, s.Len())
}

func TestScheduler_SameTickExpiryIsFIFO(t *testing.T) {
	s := schedule.New()
	s.Schedule(entity.ID(5), 2, schedule.Decay)
	s.Schedule(entity.PlayerID, 1, schedule.HitFlashEnd)
	s.Advance()
	s.Schedule(entity.ID(2), 1, schedule.Decay)
	s.Schedule(entity.PlayerID, 1, schedule.AttackEnd)

	fired := s.Advance()
	require.Len(t, fired, 3)
	assert.Equal(t, entity.ID(5), fired[0].Target)
	assert.Equal(t, entity.ID(2), fired[1].Target)
	assert.Equal(t, schedule.AttackEnd, fired[2].Action)
}

func TestScheduler_NonPositiveDelayFiresNextAdvance(t *testing.T) {
	s := schedule.New()
	s.Schedule(entity.ID(1), 0, schedule.Decay)
	s.Schedule(entity.ID(2), -4, schedule.Decay)
	assert.Len(t, s.Advance(), 2)
}

func TestScheduler_PendingAndClear(t *testing.T) {
	s := schedule.New()
	s.Schedule(entity.ID(1), 5, schedule.Decay)
	s.Schedule(entity.ID(1), 5, schedule.Decay)
	s.Schedule(entity.PlayerID, 5, schedule.AttackEnd)
	assert.Equal(t, 2, s.Pending(entity.ID(1), schedule.Decay))
	assert.Equal(t, 0, s.Pending(entity.ID(1), schedule.AttackEnd))

	s.Clear()
	assert.Equal(t, 0, s.Len())
	assert.Empty(t, s.Advance())
}

func TestScheduler_TruncateUndoesRecentSchedules(t *testing.T) {
	s := schedule.New()
	s.Schedule(entity.ID(1), 2, schedule.Decay)
	n := s.Len()
	s.Schedule(entity.PlayerID, 1, schedule.HitFlashEnd)
	s.Schedule(entity.PlayerID, 1, schedule.AttackEnd)

	s.Truncate(n)
	assert.Equal(t, 1, s.Len())
	assert.Empty(t, s.Advance())
	fired := s.Advance()
	require.Len(t, fired, 1)
	assert.Equal(t, schedule.Decay, fired[0].Action)

	s.Schedule(entity.ID(2), 1, schedule.Decay)
	s.Truncate(10)
	assert.Equal(t, 1, s.Len())
}

func TestAction_String(t *testing.T) {
	assert.Equal(t, "attack_end", schedule.AttackEnd.String())
	assert.Equal(t, "decay", schedule.Decay.String())
	assert.Equal(t, "hit_flash_end", schedule.HitFlashEnd.String())
}

func TestScheduler_Property_EachTaskFiresOnceAtItsTickInOrder(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		s := schedule.New()
		delays := rapid.SliceOfN(rapid.IntRange(1, 20), 1, 30).Draw(rt, "delays")
		for i, d := range delays {
			s.Schedule(entity.ID(i), d, schedule.Decay)
		}
		fired := make(map[entity.ID]int)
		for tick := 1; tick <= 20; tick++ {
			var last uint64
			for i, task := range s.Advance() {
				if i > 0 {
					assert.Greater(rt, task.Seq, last)
				}
				last = task.Seq
				_, dup := fired[task.Target]
				assert.False(rt, dup)
				fired[task.Target] = tick
			}
		}
		require.Len(rt, fired, len(delays))
		for i, d := range delays {
			assert.Equal(rt, d, fired[entity.ID(i)])
		}
		assert.Equal(rt, 0, s.Len())
	})
}

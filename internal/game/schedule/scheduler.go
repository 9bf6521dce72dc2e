// Package schedule holds deferred one-shot tasks counted down in ticks.
package schedule

import (
	"fmt"

	"github.com/cory-johannsen/dungeon/internal/game/entity"
)

// Action tags what a task does when it fires. The simulation dispatches on it.
type Action int

const (
	// AttackEnd closes the player's attack window.
	AttackEnd Action = iota
	// Decay removes a monster in the Remains state.
	Decay
	// HitFlashEnd clears the player's hit-flash flag.
	HitFlashEnd
)

// String returns the action tag.
func (a Action) String() string {
	switch a {
	case AttackEnd:
		return "attack_end"
	case Decay:
		return "decay"
	case HitFlashEnd:
		return "hit_flash_end"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// Task is one pending deferred effect.
type Task struct {
	// Seq orders tasks by scheduling time.
	Seq       uint64
	Target    entity.ID
	Action    Action
	Remaining int
}

// Scheduler owns pending tasks. It is not safe for concurrent use.
type Scheduler struct {
	tasks   []Task
	nextSeq uint64
}

// New returns an empty Scheduler.
func New() *Scheduler {
	return &Scheduler{}
}

// Schedule adds a task that fires after delay ticks.
//
// Postcondition: a delay below 1 is raised to 1, so the task fires on the
// next Advance rather than the current tick.
func (s *Scheduler) Schedule(target entity.ID, delay int, action Action) Task {
	if delay < 1 {
		delay = 1
	}
	t := Task{Seq: s.nextSeq, Target: target, Action: action, Remaining: delay}
	s.nextSeq++
	s.tasks = append(s.tasks, t)
	return t
}

// Advance decrements every countdown and removes and returns the tasks that
// reached zero, in the order they were scheduled.
func (s *Scheduler) Advance() []Task {
	var expired []Task
	kept := s.tasks[:0]
	for _, t := range s.tasks {
		t.Remaining--
		if t.Remaining <= 0 {
			expired = append(expired, t)
			continue
		}
		kept = append(kept, t)
	}
	// zero the tail so dropped tasks are not retained
	for i := len(kept); i < len(s.tasks); i++ {
		s.tasks[i] = Task{}
	}
	s.tasks = kept
	return expired
}

// Pending returns the number of tasks with the given target and action.
func (s *Scheduler) Pending(target entity.ID, action Action) int {
	n := 0
	for _, t := range s.tasks {
		if t.Target == target && t.Action == action {
			n++
		}
	}
	return n
}

// Len returns the number of pending tasks.
func (s *Scheduler) Len() int { return len(s.tasks) }

// Truncate drops every task scheduled after the first n pending ones. Tasks
// are kept in scheduling order, so this undoes the most recent Schedule calls.
func (s *Scheduler) Truncate(n int) {
	if n < 0 {
		n = 0
	}
	if n >= len(s.tasks) {
		return
	}
	clear(s.tasks[n:])
	s.tasks = s.tasks[:n]
}

// Clear drops every pending task.
func (s *Scheduler) Clear() {
	s.tasks = nil
}

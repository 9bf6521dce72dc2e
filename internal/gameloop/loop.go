// Package gameloop advances a simulation on a fixed wall-clock interval and
// publishes a frame after every tick.
package gameloop

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/dungeon/internal/game/event"
	"github.com/cory-johannsen/dungeon/internal/game/sim"
)

// DefaultCommandBuffer is the number of commands that may be queued between ticks.
const DefaultCommandBuffer = 64

// Frame is the result of one tick.
type Frame struct {
	Snapshot sim.Snapshot
	Events   []event.Event
}

// Loop owns a Simulation. Only the loop goroutine touches the simulation;
// other goroutines interact through Submit and Subscribe.
type Loop struct {
	interval time.Duration
	sim      *sim.Simulation
	logger   *zap.Logger
	commands chan sim.Command

	mu          sync.Mutex
	subscribers map[chan<- Frame]struct{}
}

// New creates a Loop that ticks s every interval.
//
// Precondition: interval must be > 0; s must be initialised.
func New(s *sim.Simulation, interval time.Duration, logger *zap.Logger) *Loop {
	if interval <= 0 {
		panic("gameloop.New: interval must be > 0")
	}
	return &Loop{
		interval:    interval,
		sim:         s,
		logger:      logger,
		commands:    make(chan sim.Command, DefaultCommandBuffer),
		subscribers: make(map[chan<- Frame]struct{}),
	}
}

// Submit queues cmd for the next tick. It never blocks; it reports false when
// the queue is full and the command was dropped.
func (l *Loop) Submit(cmd sim.Command) bool {
	select {
	case l.commands <- cmd:
		return true
	default:
		l.logger.Warn("command queue full; dropping command", zap.Stringer("kind", cmd.Kind))
		return false
	}
}

// Subscribe registers ch to receive a Frame after each tick.
// If ch is full, the frame is dropped for that subscriber (non-blocking).
//
// Precondition: ch must not be nil.
func (l *Loop) Subscribe(ch chan<- Frame) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.subscribers[ch] = struct{}{}
}

// Unsubscribe removes ch from the subscriber list.
func (l *Loop) Unsubscribe(ch chan<- Frame) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.subscribers, ch)
}

// Step drains queued commands into the simulation, advances one tick and
// publishes the resulting frame.
//
// Precondition: not called concurrently with Run or another Step.
func (l *Loop) Step() Frame {
	for drained := false; !drained; {
		select {
		case cmd := <-l.commands:
			l.sim.Submit(cmd)
		default:
			drained = true
		}
	}
	f := Frame{Events: l.sim.Tick()}
	f.Snapshot = l.sim.Snapshot()
	l.publish(f)
	return f
}

func (l *Loop) publish(f Frame) {
	l.mu.Lock()
	subs := make([]chan<- Frame, 0, len(l.subscribers))
	for ch := range l.subscribers {
		subs = append(subs, ch)
	}
	l.mu.Unlock()
	for _, ch := range subs {
		select {
		case ch <- f:
		default:
		}
	}
}

// Run ticks the simulation every interval until ctx is cancelled.
//
// Postcondition: returns nil after ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()
	l.logger.Info("game loop started", zap.Duration("interval", l.interval))
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("game loop stopped", zap.Int64("tick", l.sim.CurrentTick()))
			return nil
		case <-ticker.C:
			l.Step()
		}
	}
}

// RunTicks advances n ticks back to back without waiting on the clock,
// stopping early if ctx is cancelled. It returns the number of ticks run.
func (l *Loop) RunTicks(ctx context.Context, n int) int {
	for i := 0; i < n; i++ {
		if ctx.Err() != nil {
			return i
		}
		l.Step()
	}
	return n
}

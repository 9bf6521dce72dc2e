// Package terminal presents a running simulation on a tcell screen and turns
// key presses into commands. It keeps its own per-entity visual state keyed
// by entity ID; the simulation holds no reference to it.
package terminal

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"

	"github.com/cory-johannsen/dungeon/internal/game/entity"
	"github.com/cory-johannsen/dungeon/internal/game/event"
	"github.com/cory-johannsen/dungeon/internal/game/grid"
	"github.com/cory-johannsen/dungeon/internal/game/sim"
	"github.com/cory-johannsen/dungeon/internal/gameloop"
)

const (
	// DefaultHoldTicks is how long one movement key press holds its direction.
	DefaultHoldTicks = 8
	// hitFlashTicks is how long a struck monster is drawn highlighted.
	hitFlashTicks = 10
	// maxMessages is the number of message lines kept under the HUD.
	maxMessages = 4
	barWidth    = 20
)

var (
	styleWall    = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleFloor   = tcell.StyleDefault
	styleStart   = tcell.StyleDefault.Foreground(tcell.ColorBlue)
	stylePlayer  = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	styleMonster = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	styleHit     = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
	styleRemains = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleHUD     = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	styleHealth  = tcell.StyleDefault.Foreground(tcell.ColorRed)
	styleExp     = tcell.StyleDefault.Foreground(tcell.ColorAqua)
)

// Submitter accepts player commands.
type Submitter interface {
	Submit(cmd sim.Command) bool
}

// visual is the presentation state of one monster.
type visual struct {
	glyph    rune
	style    tcell.Style
	hitUntil int64
}

// Frontend draws frames and forwards input.
type Frontend struct {
	screen    tcell.Screen
	cmds      Submitter
	logger    *zap.Logger
	holdTicks int

	visuals  map[entity.ID]*visual
	messages []string

	quit     chan struct{}
	quitOnce sync.Once
}

// New creates a Frontend drawing to screen.
//
// Precondition: screen must be initialised; cmds and logger must be non-nil.
func New(screen tcell.Screen, cmds Submitter, logger *zap.Logger) *Frontend {
	return &Frontend{
		screen:    screen,
		cmds:      cmds,
		logger:    logger,
		holdTicks: DefaultHoldTicks,
		visuals:   make(map[entity.ID]*visual),
		quit:      make(chan struct{}),
	}
}

func glyphFor(v entity.Variant) (rune, tcell.Style) {
	switch v {
	case entity.VariantB:
		return 'M', styleMonster
	case entity.RemainsA:
		return '%', styleRemains
	case entity.RemainsB:
		return ',', styleRemains
	default:
		return 'm', styleMonster
	}
}

// Apply updates visual state from the events of one frame.
func (f *Frontend) Apply(tick int64, evs []event.Event) {
	for _, e := range evs {
		switch ev := e.(type) {
		case event.LevelStarted:
			clear(f.visuals)
			f.messages = nil
			f.say("You enter the dungeon.")
		case event.MonsterSpawned:
			g, s := glyphFor(ev.Variant)
			f.visuals[ev.ID] = &visual{glyph: g, style: s}
		case event.MonsterAnimated:
			if v, ok := f.visuals[ev.ID]; ok {
				v.glyph, v.style = glyphFor(ev.Variant)
			}
		case event.DamageDealt:
			if v, ok := f.visuals[ev.TargetID]; ok {
				v.hitUntil = tick + hitFlashTicks
			}
			f.say(fmt.Sprintf("You hit for %d.", ev.Amount))
		case event.MonsterDecayed:
			if v, ok := f.visuals[ev.ID]; ok {
				v.glyph, v.style = glyphFor(ev.Variant)
				v.hitUntil = 0
			}
		case event.MonsterRemoved:
			delete(f.visuals, ev.ID)
		case event.PlayerDamaged:
			f.say(fmt.Sprintf("You take %d damage.", ev.Amount))
		case event.LevelUp:
			f.say(fmt.Sprintf("Level %d! Max health %d.", ev.NewLevel, ev.NewMaxHealth))
		case event.PlayerDied:
			f.say("You died. Press r to restart.")
		}
	}
}

func (f *Frontend) say(msg string) {
	f.messages = append(f.messages, msg)
	if len(f.messages) > maxMessages {
		f.messages = f.messages[len(f.messages)-maxMessages:]
	}
}

// Draw renders snap: one screen cell per grid tile, then the HUD and messages.
func (f *Frontend) Draw(snap sim.Snapshot) {
	f.screen.Clear()
	if snap.Grid == nil {
		f.screen.Show()
		return
	}
	g := snap.Grid
	for y := 0; y < g.Height(); y++ {
		for x := 0; x < g.Width(); x++ {
			switch g.Cell(x, y) {
			case grid.Wall:
				f.screen.SetContent(x, y, '#', nil, styleWall)
			case grid.Start:
				f.screen.SetContent(x, y, '.', nil, styleStart)
			default:
				f.screen.SetContent(x, y, ' ', nil, styleFloor)
			}
		}
	}

	// remains first so living monsters draw over them
	for pass := 0; pass < 2; pass++ {
		for _, m := range snap.Monsters {
			if (pass == 0) != m.State.Dead() {
				continue
			}
			glyph, style := glyphFor(m.Variant)
			if v, ok := f.visuals[m.ID]; ok {
				glyph, style = v.glyph, v.style
				if snap.Tick < v.hitUntil {
					style = styleHit
				}
			}
			x, y := cellOf(m.Pos, snap.TileSize)
			f.screen.SetContent(x, y, glyph, nil, style)
		}
	}

	p := snap.Player
	px, py := cellOf(p.Pos, snap.TileSize)
	ps := stylePlayer
	if p.Flashing {
		ps = ps.Reverse(true)
	}
	f.screen.SetContent(px, py, '@', nil, ps)

	row := g.Height() + 1
	f.drawText(0, row, styleHUD, fmt.Sprintf("HP %3d/%-3d ", p.Health, p.MaxHealth))
	f.drawBar(12, row, p.HealthRatio(), styleHealth)
	row++
	f.drawText(0, row, styleHUD, fmt.Sprintf("LV %-2d EXP %d/%d ", p.Level, p.Exp, p.ExpToNextLevel))
	f.drawBar(24, row, p.ExpRatio(), styleExp)
	row++
	if snap.PlayerDead {
		f.drawText(0, row, styleHit, "DEAD - press r to restart, q to quit")
	}
	row++
	for _, msg := range f.messages {
		f.drawText(0, row, styleHUD, msg)
		row++
	}
	f.screen.Show()
}

func cellOf(pos entity.Vec2, tileSize int) (int, int) {
	if tileSize <= 0 {
		return 0, 0
	}
	t := float64(tileSize)
	return int(math.Floor(pos.X / t)), int(math.Floor(pos.Y / t))
}

func (f *Frontend) drawText(x, y int, style tcell.Style, s string) {
	for _, r := range s {
		f.screen.SetContent(x, y, r, nil, style)
		x++
	}
}

func (f *Frontend) drawBar(x, y int, ratio float64, style tcell.Style) {
	filled := int(math.Round(ratio * barWidth))
	f.drawText(x, y, style, "["+strings.Repeat("=", filled)+strings.Repeat(" ", barWidth-filled)+"]")
}

// HandleEvent processes one terminal event. It returns true when the user
// asked to quit.
func (f *Frontend) HandleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if isQuit(ev) {
			return true
		}
		if cmd, ok := CommandForKey(ev, f.holdTicks); ok {
			f.cmds.Submit(cmd)
		}
	case *tcell.EventResize:
		f.screen.Sync()
	}
	return false
}

// Run draws frames and handles input until ctx is cancelled, Stop is called,
// or the user quits.
func (f *Frontend) Run(ctx context.Context, frames <-chan gameloop.Frame) error {
	events := make(chan tcell.Event, 16)
	go func() {
		for {
			ev := f.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-f.quit:
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-f.quit:
			return nil
		case fr := <-frames:
			f.Apply(fr.Snapshot.Tick, fr.Events)
			f.Draw(fr.Snapshot)
		case ev := <-events:
			if f.HandleEvent(ev) {
				f.logger.Info("quit requested")
				f.Stop()
				return nil
			}
		}
	}
}

// Stop makes Run return. Safe to call multiple times.
func (f *Frontend) Stop() {
	f.quitOnce.Do(func() { close(f.quit) })
}

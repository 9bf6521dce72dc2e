package terminal

import (
	"github.com/gdamore/tcell/v2"

	"github.com/cory-johannsen/dungeon/internal/game/sim"
)

// CommandForKey maps a key press to a simulation command. Movement keys hold
// their direction for holdTicks ticks. ok is false for unmapped keys.
func CommandForKey(ev *tcell.EventKey, holdTicks int) (cmd sim.Command, ok bool) {
	switch ev.Key() {
	case tcell.KeyUp:
		return sim.Move(0, -1, holdTicks), true
	case tcell.KeyDown:
		return sim.Move(0, 1, holdTicks), true
	case tcell.KeyLeft:
		return sim.Move(-1, 0, holdTicks), true
	case tcell.KeyRight:
		return sim.Move(1, 0, holdTicks), true
	case tcell.KeyRune:
	default:
		return sim.Command{}, false
	}

	switch ev.Rune() {
	case 'w', 'k':
		return sim.Move(0, -1, holdTicks), true
	case 's', 'j':
		return sim.Move(0, 1, holdTicks), true
	case 'a', 'h':
		return sim.Move(-1, 0, holdTicks), true
	case 'd', 'l':
		return sim.Move(1, 0, holdTicks), true
	case 'y':
		return sim.Move(-1, -1, holdTicks), true
	case 'u':
		return sim.Move(1, -1, holdTicks), true
	case 'b':
		return sim.Move(-1, 1, holdTicks), true
	case 'n':
		return sim.Move(1, 1, holdTicks), true
	case '.':
		return sim.Move(0, 0, 0), true
	case ' ', 'f':
		return sim.Attack(), true
	case 'r':
		return sim.Restart(), true
	}
	return sim.Command{}, false
}

// isQuit reports whether ev asks to leave the game.
func isQuit(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyRune:
		return ev.Rune() == 'q'
	}
	return false
}

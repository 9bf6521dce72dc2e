package sim

import "fmt"

// CommandKind selects what a Command does.
type CommandKind int

const (
	// CmdMove holds a movement direction for a number of ticks.
	CmdMove CommandKind = iota
	// CmdAttack requests one player attack.
	CmdAttack
	// CmdRestart discards the level and starts it again.
	CmdRestart
)

// String returns the command name.
func (k CommandKind) String() string {
	switch k {
	case CmdMove:
		return "move"
	case CmdAttack:
		return "attack"
	case CmdRestart:
		return "restart"
	default:
		return fmt.Sprintf("command(%d)", int(k))
	}
}

// Command is one player input applied at the next tick boundary.
type Command struct {
	Kind CommandKind
	// DX and DY are in {-1, 0, 1}; HoldTicks is how long the direction is held.
	DX, DY    int
	HoldTicks int
}

// Move returns a movement command. A zero direction stops the player.
func Move(dx, dy, holdTicks int) Command {
	return Command{Kind: CmdMove, DX: sign(dx), DY: sign(dy), HoldTicks: holdTicks}
}

// Attack returns an attack command.
func Attack() Command { return Command{Kind: CmdAttack} }

// Restart returns a restart command.
func Restart() Command { return Command{Kind: CmdRestart} }

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

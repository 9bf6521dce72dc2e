package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/dungeon/internal/game/dice"
)

// RegisterModules registers the engine table into L:
//
//	engine.log(msg)      logs msg at info level
//	engine.roll(expr)    rolls a dice expression and returns the total
//	engine.player()      returns a player table, or nil
//
// Precondition: L must be from NewSandboxedState.
// Postcondition: engine global is defined in L.
func (m *Manager) RegisterModules(L *lua.LState, levelID string) {
	engine := L.NewTable()
	L.SetField(engine, "log", L.NewFunction(func(L *lua.LState) int {
		m.logger.Info("script", zap.String("level", levelID), zap.String("msg", L.CheckString(1)))
		return 0
	}))
	L.SetField(engine, "roll", L.NewFunction(func(L *lua.LState) int {
		expr, err := dice.Parse(L.CheckString(1))
		if err != nil {
			L.RaiseError("engine.roll: %s", err.Error())
			return 0
		}
		L.Push(lua.LNumber(m.roller.Roll(expr).Total()))
		return 1
	}))
	L.SetField(engine, "player", L.NewFunction(func(L *lua.LState) int {
		if m.QueryPlayer == nil {
			L.Push(lua.LNil)
			return 1
		}
		info := m.QueryPlayer()
		if info == nil {
			L.Push(lua.LNil)
			return 1
		}
		t := L.NewTable()
		t.RawSetString("health", lua.LNumber(info.Health))
		t.RawSetString("max_health", lua.LNumber(info.MaxHealth))
		t.RawSetString("level", lua.LNumber(info.Level))
		t.RawSetString("exp", lua.LNumber(info.Exp))
		t.RawSetString("x", lua.LNumber(info.X))
		t.RawSetString("y", lua.LNumber(info.Y))
		L.Push(t)
		return 1
	}))
	L.SetGlobal("engine", engine)
}

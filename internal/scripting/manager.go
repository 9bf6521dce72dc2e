package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/dungeon/internal/game/dice"
	"github.com/cory-johannsen/dungeon/internal/game/event"
)

// globalLevelID is the reserved key for shared scripts loaded via LoadGlobal.
// CallHook falls back to this VM when no level VM is found.
const globalLevelID = "__global__"

// hookPrefix is prepended to an event name to form its hook function name.
const hookPrefix = "on_"

// PlayerInfo is a snapshot of the player passed to Lua callbacks.
type PlayerInfo struct {
	Health    int
	MaxHealth int
	Level     int
	Exp       int
	X, Y      float64
}

type vm struct {
	L     *lua.LState
	limit int
}

// Manager owns one sandboxed LState per level and exposes hook dispatch.
//
// Each level's LState is single-threaded; the mutex serializes calls.
type Manager struct {
	mu     sync.Mutex
	states map[string]*vm
	roller *dice.Roller
	logger *zap.Logger

	// QueryPlayer is injected after construction. nil = engine.player() returns nil.
	QueryPlayer func() *PlayerInfo
}

// NewManager creates a Manager.
//
// Precondition: roller and logger must be non-nil.
// Postcondition: Returns a non-nil Manager with no VMs.
func NewManager(roller *dice.Roller, logger *zap.Logger) *Manager {
	return &Manager{
		states: make(map[string]*vm),
		roller: roller,
		logger: logger,
	}
}

// LoadLevel creates a sandboxed VM for levelID, registers all engine.* modules,
// then executes every *.lua file in scriptDir in lexicographic order.
//
// Precondition: levelID must be non-empty; scriptDir must be a readable directory.
// Postcondition: the level VM replaces any previous one; returns error on Lua load failure.
func (m *Manager) LoadLevel(levelID, scriptDir string, instLimit int) error {
	return m.loadInto(levelID, scriptDir, instLimit)
}

// LoadGlobal creates the "__global__" VM used as a CallHook fallback for
// levels without scripts of their own.
//
// Precondition: scriptDir must be a readable directory.
func (m *Manager) LoadGlobal(scriptDir string, instLimit int) error {
	return m.loadInto(globalLevelID, scriptDir, instLimit)
}

func (m *Manager) loadInto(key, scriptDir string, instLimit int) error {
	entries, err := os.ReadDir(scriptDir)
	if err != nil {
		return fmt.Errorf("scripting: reading script dir %q for %q: %w", scriptDir, key, err)
	}
	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			luaFiles = append(luaFiles, filepath.Join(scriptDir, e.Name()))
		}
	}
	sort.Strings(luaFiles)

	L := NewSandboxedState(instLimit)
	m.RegisterModules(L, key)
	for _, path := range luaFiles {
		err := withInstructionLimit(L, instLimit, func() error { return L.DoFile(path) })
		if err != nil {
			L.Close()
			return fmt.Errorf("scripting: loading %q for %q: %w", path, key, err)
		}
	}

	m.mu.Lock()
	if old, ok := m.states[key]; ok {
		old.L.Close()
	}
	m.states[key] = &vm{L: L, limit: instLimit}
	m.mu.Unlock()

	m.logger.Info("scripts loaded", zap.String("level", key), zap.Int("files", len(luaFiles)))
	return nil
}

// CallHook calls the named Lua global function in levelID's VM. If the level
// has no VM, the __global__ VM is tried as a fallback. Returns (LNil, nil) if
// the hook is not defined or no VM exists. Lua runtime errors, including an
// exhausted instruction budget, are logged at Warn level and never propagated.
//
// Postcondition: Returns the first return value of the hook, or LNil.
func (m *Manager) CallHook(levelID, hook string, args ...lua.LValue) (lua.LValue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.states[levelID]
	if !ok {
		v = m.states[globalLevelID]
	}
	if v == nil {
		m.logger.Debug("scripting: no VM for level",
			zap.String("level", levelID),
			zap.String("hook", hook),
		)
		return lua.LNil, nil
	}

	fn := v.L.GetGlobal(hook)
	if fn == lua.LNil {
		return lua.LNil, nil
	}

	err := withInstructionLimit(v.L, v.limit, func() error {
		return v.L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, args...)
	})
	if err != nil {
		m.logger.Warn("scripting: Lua runtime error",
			zap.String("level", levelID),
			zap.String("hook", hook),
			zap.Error(err),
		)
		return lua.LNil, nil
	}

	ret := v.L.Get(-1)
	v.L.Pop(1)
	return ret, nil
}

// Sink returns an event sink that forwards every event to the hook
// "on_<event name>" of levelID, passing the event fields as a table.
func (m *Manager) Sink(levelID string) event.Sink {
	return event.SinkFunc(func(e event.Event) {
		m.dispatch(levelID, e)
	})
}

func (m *Manager) dispatch(levelID string, e event.Event) {
	m.mu.Lock()
	v, ok := m.states[levelID]
	if !ok {
		v = m.states[globalLevelID]
	}
	var tbl *lua.LTable
	if v != nil && v.L.GetGlobal(hookPrefix+e.Name()) != lua.LNil {
		tbl = fieldsTable(v.L, e.Fields())
	}
	m.mu.Unlock()
	if tbl == nil {
		return
	}
	_, _ = m.CallHook(levelID, hookPrefix+e.Name(), tbl)
}

func fieldsTable(L *lua.LState, fields map[string]any) *lua.LTable {
	tbl := L.NewTable()
	for k, val := range fields {
		tbl.RawSetString(k, toLValue(val))
	}
	return tbl
}

func toLValue(v any) lua.LValue {
	switch x := v.(type) {
	case int:
		return lua.LNumber(x)
	case int64:
		return lua.LNumber(x)
	case float64:
		return lua.LNumber(x)
	case string:
		return lua.LString(x)
	case bool:
		return lua.LBool(x)
	default:
		return lua.LString(fmt.Sprint(x))
	}
}

// Close releases every VM.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range m.states {
		v.L.Close()
		delete(m.states, k)
	}
}

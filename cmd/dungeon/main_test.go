package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cory-johannsen/dungeon/internal/config"
	"github.com/cory-johannsen/dungeon/internal/game/level"
	"github.com/cory-johannsen/dungeon/internal/game/sim"
	"github.com/cory-johannsen/dungeon/internal/gameloop"
)

func writeLevel(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestLoadLevel_FileAndDirectory(t *testing.T) {
	dir := t.TempDir()
	writeLevel(t, dir, "a.txt", "□□□\n□S□\n□□□\n")
	writeLevel(t, dir, "b.txt", "S  \n")

	lvl, err := loadLevel(filepath.Join(dir, "b.txt"), "")
	require.NoError(t, err)
	assert.Equal(t, "b", lvl.ID)

	lvl, err = loadLevel(dir, "")
	require.NoError(t, err)
	assert.Equal(t, "a", lvl.ID)

	lvl, err = loadLevel(dir, "b")
	require.NoError(t, err)
	assert.Equal(t, "b", lvl.ID)

	_, err = loadLevel(dir, "missing")
	assert.ErrorIs(t, err, level.ErrNotFound)

	_, err = loadLevel(filepath.Join(dir, "nope"), "")
	assert.Error(t, err)
}

func TestBundledContentLoads(t *testing.T) {
	cat, err := level.LoadDir(filepath.Join("..", "..", "content", "levels"))
	require.NoError(t, err)
	for _, id := range cat.IDs() {
		lvl, err := cat.Get(id)
		require.NoError(t, err)
		_, err = lvl.Grid()
		assert.NoError(t, err, id)
	}
	crypt, err := cat.Get("crypt")
	require.NoError(t, err)
	assert.DirExists(t, crypt.ScriptDir)
}

func TestBundledConfigsLoad(t *testing.T) {
	for _, name := range []string{"dev.yaml", "headless.yaml"} {
		_, err := config.Load(filepath.Join("..", "..", "configs", name))
		assert.NoError(t, err, name)
	}
}

func TestDiceSources_SeededAreIndependentAndRepeatable(t *testing.T) {
	a1, b1 := diceSources(9)
	a2, b2 := diceSources(9)
	for i := 0; i < 20; i++ {
		assert.Equal(t, a1.Intn(1000), a2.Intn(1000))
		assert.Equal(t, b1.Intn(1000), b2.Intn(1000))
	}
}

func TestRunHeadless_LogsSummary(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)

	lvl, err := loadLevel(filepath.Join("..", "..", "content", "levels"), "crypt")
	require.NoError(t, err)
	g, err := lvl.Grid()
	require.NoError(t, err)

	cfg := config.Default()
	src, _ := diceSources(3)
	s := sim.New(cfg.Simulation, src, logger)
	require.NoError(t, s.Init(g))
	loop := gameloop.New(s, cfg.Simulation.TickDuration(), logger)

	runHeadless(context.Background(), loop, s, 10, logger)

	entries := logs.FilterMessage("headless run complete").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, int64(10), fields["ticks"])
	assert.Equal(t, int64(1), fields["events.level_started"])
	assert.Contains(t, fields, "player_health")
}

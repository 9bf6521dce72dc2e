// Package level loads level manifests: the map rows a Grid is parsed from plus
// optional per-level scripting.
package level

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/dungeon/internal/game/grid"
)

// ErrNotFound is returned by Catalog.Get for an unknown level ID.
var ErrNotFound = errors.New("level: not found")

// Level is a loaded, validated level definition.
type Level struct {
	ID        string
	Name      string
	WallGlyph rune
	Rows      []string
	// ScriptDir is an absolute or working-directory-relative path to the
	// level's Lua hooks; empty disables scripting for the level.
	ScriptDir string
}

// Grid parses the level's rows.
//
// Postcondition: Returns a Grid or an error wrapping grid.ErrEmpty,
// grid.ErrRaggedRows or grid.ErrUnknownGlyph.
func (l *Level) Grid() (*grid.Grid, error) {
	g, err := grid.Parse(l.Rows, l.WallGlyph)
	if err != nil {
		return nil, fmt.Errorf("level %q: %w", l.ID, err)
	}
	return g, nil
}

// yamlLevelFile is the top-level YAML structure for level manifests.
type yamlLevelFile struct {
	Level yamlLevel `yaml:"level"`
}

type yamlLevel struct {
	ID        string `yaml:"id"`
	Name      string `yaml:"name"`
	WallGlyph string `yaml:"wall_glyph"`
	ScriptDir string `yaml:"script_dir"`
	Map       string `yaml:"map"`
}

// LoadFromBytes parses a YAML level manifest. A relative script_dir is
// resolved against baseDir.
//
// Postcondition: Returns a Level whose Grid() parses, or a non-nil error.
func LoadFromBytes(data []byte, baseDir string) (*Level, error) {
	var file yamlLevelFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing level YAML: %w", err)
	}
	yl := file.Level
	if yl.ID == "" {
		return nil, errors.New("level: id must not be empty")
	}

	wall := grid.DefaultWallGlyph
	if yl.WallGlyph != "" {
		if utf8.RuneCountInString(yl.WallGlyph) != 1 {
			return nil, fmt.Errorf("level %q: wall_glyph must be a single character, got %q", yl.ID, yl.WallGlyph)
		}
		wall, _ = utf8.DecodeRuneInString(yl.WallGlyph)
	}

	scriptDir := yl.ScriptDir
	if scriptDir != "" && !filepath.IsAbs(scriptDir) {
		scriptDir = filepath.Join(baseDir, scriptDir)
	}

	lvl := &Level{
		ID:        yl.ID,
		Name:      yl.Name,
		WallGlyph: wall,
		Rows:      grid.SplitRows(yl.Map),
		ScriptDir: scriptDir,
	}
	if lvl.Name == "" {
		lvl.Name = lvl.ID
	}
	if _, err := lvl.Grid(); err != nil {
		return nil, err
	}
	return lvl, nil
}

// LoadFromFile reads a level from path. ".yaml"/".yml" files are manifests;
// any other extension is read as raw map text using the default wall glyph
// and the file's base name as ID.
func LoadFromFile(path string) (*Level, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading level file %s: %w", path, err)
	}
	ext := filepath.Ext(path)
	if ext == ".yaml" || ext == ".yml" {
		return LoadFromBytes(data, filepath.Dir(path))
	}

	id := strings.TrimSuffix(filepath.Base(path), ext)
	lvl := &Level{
		ID:        id,
		Name:      id,
		WallGlyph: grid.DefaultWallGlyph,
		Rows:      grid.SplitRows(string(data)),
	}
	if _, err := lvl.Grid(); err != nil {
		return nil, err
	}
	return lvl, nil
}

// Catalog indexes loaded levels by ID in load order.
type Catalog struct {
	order  []string
	levels map[string]*Level
}

// LoadDir loads every .yaml, .yml and .txt file in dir, in lexicographic order.
//
// Postcondition: Returns a non-empty Catalog or the first error encountered.
func LoadDir(dir string) (*Catalog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading level directory %s: %w", dir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch filepath.Ext(entry.Name()) {
		case ".yaml", ".yml", ".txt":
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	cat := &Catalog{levels: make(map[string]*Level, len(names))}
	for _, name := range names {
		lvl, err := LoadFromFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("loading level from %s: %w", name, err)
		}
		if _, dup := cat.levels[lvl.ID]; dup {
			return nil, fmt.Errorf("duplicate level id %q in %s", lvl.ID, name)
		}
		cat.levels[lvl.ID] = lvl
		cat.order = append(cat.order, lvl.ID)
	}
	if len(cat.order) == 0 {
		return nil, fmt.Errorf("no level files found in %s", dir)
	}
	return cat, nil
}

// Get returns the level with id or an error wrapping ErrNotFound.
func (c *Catalog) Get(id string) (*Level, error) {
	lvl, ok := c.levels[id]
	if !ok {
		return nil, fmt.Errorf("%q: %w", id, ErrNotFound)
	}
	return lvl, nil
}

// First returns the first level in load order.
func (c *Catalog) First() *Level {
	return c.levels[c.order[0]]
}

// IDs returns level IDs in load order.
func (c *Catalog) IDs() []string {
	return append([]string(nil), c.order...)
}

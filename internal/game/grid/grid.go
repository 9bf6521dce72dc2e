// Package grid holds the parsed rectangular level grid the simulation runs on.
package grid

import (
	"errors"
	"fmt"
	"strings"
)

// Cell tags one grid position.
type Cell int

const (
	Wall Cell = iota
	Floor
	Start
)

// String returns the lowercase tag name.
func (c Cell) String() string {
	switch c {
	case Wall:
		return "wall"
	case Floor:
		return "floor"
	case Start:
		return "start"
	default:
		return "unknown"
	}
}

// Glyphs used by map text assets.
const (
	DefaultWallGlyph = '□'
	FloorGlyph       = ' '
	StartGlyph       = 'S'
)

var (
	// ErrEmpty is returned when the map text contains no rows.
	ErrEmpty = errors.New("grid: map has no rows")
	// ErrRaggedRows is returned when rows differ in length.
	ErrRaggedRows = errors.New("grid: rows have unequal lengths")
	// ErrUnknownGlyph is returned for a character that is neither the wall
	// glyph, a space, nor 'S'.
	ErrUnknownGlyph = errors.New("grid: unknown glyph")
)

// Grid is an immutable rectangular grid of cell tags.
//
// Invariant: len(cells) == width*height; width >= 1; height >= 1.
type Grid struct {
	width  int
	height int
	cells  []Cell
}

// Parse converts rows into a Grid. wallGlyph maps to Wall, space to Floor and
// 'S' to Start.
//
// Postcondition: returns ErrEmpty for zero rows or a zero-length first row,
// and an error wrapping ErrRaggedRows when any row length differs from the first.
func Parse(rows []string, wallGlyph rune) (*Grid, error) {
	if len(rows) == 0 {
		return nil, ErrEmpty
	}
	width := len([]rune(rows[0]))
	if width == 0 {
		return nil, ErrEmpty
	}

	g := &Grid{width: width, height: len(rows), cells: make([]Cell, 0, width*len(rows))}
	for y, row := range rows {
		runes := []rune(row)
		if len(runes) != width {
			return nil, fmt.Errorf("row %d has length %d, want %d: %w", y, len(runes), width, ErrRaggedRows)
		}
		for x, r := range runes {
			switch r {
			case FloorGlyph:
				g.cells = append(g.cells, Floor)
			case StartGlyph:
				g.cells = append(g.cells, Start)
			case wallGlyph:
				g.cells = append(g.cells, Wall)
			default:
				return nil, fmt.Errorf("%q at (%d,%d): %w", r, x, y, ErrUnknownGlyph)
			}
		}
	}
	return g, nil
}

// ParseText splits text into rows and parses them. Lines that are empty or
// whitespace-only are dropped, and a trailing carriage return is stripped.
func ParseText(text string, wallGlyph rune) (*Grid, error) {
	return Parse(SplitRows(text), wallGlyph)
}

// SplitRows splits map text into non-blank rows.
func SplitRows(text string) []string {
	var rows []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		rows = append(rows, line)
	}
	return rows
}

// Width returns the number of columns.
func (g *Grid) Width() int { return g.width }

// Height returns the number of rows.
func (g *Grid) Height() int { return g.height }

// InBounds reports whether (x, y) lies inside the grid.
func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && x < g.width && y >= 0 && y < g.height
}

// Cell returns the tag at (x, y); out-of-bounds positions read as Wall.
func (g *Grid) Cell(x, y int) Cell {
	if !g.InBounds(x, y) {
		return Wall
	}
	return g.cells[y*g.width+x]
}

// Walkable reports whether (x, y) is a Floor or Start cell.
func (g *Grid) Walkable(x, y int) bool {
	c := g.Cell(x, y)
	return c == Floor || c == Start
}

// Start returns the first Start cell in row-major order.
//
// Postcondition: ok is false when the grid has no Start cell.
func (g *Grid) Start() (x, y int, ok bool) {
	for i, c := range g.cells {
		if c == Start {
			return i % g.width, i / g.width, true
		}
	}
	return 0, 0, false
}

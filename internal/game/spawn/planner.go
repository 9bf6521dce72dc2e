// Package spawn turns a parsed grid into the level's initial monster population.
package spawn

import (
	"github.com/cory-johannsen/dungeon/internal/game/entity"
	"github.com/cory-johannsen/dungeon/internal/game/grid"
)

// spawnEvery is the Floor-cell stride between main-scan spawns.
const spawnEvery = 3

// extraOffsets are the fixed placements relative to the Start cell, tried
// after the main scan.
var extraOffsets = [...]struct{ dx, dy int }{
	{-2, -1},
	{1, -1},
}

// Placement is one planned monster spawn.
type Placement struct {
	CellX, CellY int
	Pos          entity.Vec2
	Variant      entity.Variant
}

// Monster builds the normal-kind monster for p with hp hit points.
//
// Postcondition: HP == MaxHP == hp; State == Idle; Origin == Pos.
func (p Placement) Monster(hp int) *entity.Monster {
	return &entity.Monster{
		Kind:    entity.KindNormal,
		Pos:     p.Pos,
		Origin:  p.Pos,
		HP:      hp,
		MaxHP:   hp,
		State:   entity.Idle,
		Variant: p.Variant,
	}
}

// Planner computes placements for a grid.
type Planner struct {
	TileSize int
}

// NewPlanner creates a Planner for the given tile size in world units.
//
// Precondition: tileSize > 0.
func NewPlanner(tileSize int) *Planner {
	return &Planner{TileSize: tileSize}
}

// Plan scans g row-major and returns the ordered placements.
//
// Every Floor cell advances a counter; a cell whose counter value is a
// multiple of three before the advance receives a monster whose variant is
// A on even counters and B on odd ones. Start cells do not count. Two extra
// placements relative to the first Start cell follow, each skipped when out
// of bounds, not Floor, or already planned.
//
// Postcondition: identical grids always yield identical placements.
func (p *Planner) Plan(g *grid.Grid) []Placement {
	var out []Placement
	taken := make(map[[2]int]bool)

	counter := 0
	for y := 0; y < g.Height(); y++ {
		for x := 0; x < g.Width(); x++ {
			if g.Cell(x, y) != grid.Floor {
				continue
			}
			if counter%spawnEvery == 0 {
				variant := entity.VariantA
				if counter%2 != 0 {
					variant = entity.VariantB
				}
				out = append(out, p.place(x, y, variant))
				taken[[2]int{x, y}] = true
			}
			counter++
		}
	}

	sx, sy, ok := g.Start()
	if !ok {
		return out
	}
	for i, off := range extraOffsets {
		x, y := sx+off.dx, sy+off.dy
		if !g.InBounds(x, y) || g.Cell(x, y) != grid.Floor || taken[[2]int{x, y}] {
			continue
		}
		variant := entity.VariantA
		if i%2 != 0 {
			variant = entity.VariantB
		}
		out = append(out, p.place(x, y, variant))
		taken[[2]int{x, y}] = true
	}
	return out
}

func (p *Planner) place(x, y int, v entity.Variant) Placement {
	return Placement{CellX: x, CellY: y, Pos: entity.CellCenter(x, y, p.TileSize), Variant: v}
}

package entity

import "math"

// Vec2 is a position or direction in world units.
type Vec2 struct {
	X, Y float64
}

// Add returns v+o.
func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }

// Sub returns v-o.
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Y - o.Y} }

// Scale returns v*k.
func (v Vec2) Scale(k float64) Vec2 { return Vec2{v.X * k, v.Y * k} }

// Len returns the Euclidean length of v.
func (v Vec2) Len() float64 { return math.Hypot(v.X, v.Y) }

// Dist returns the Euclidean distance between v and o.
func (v Vec2) Dist(o Vec2) float64 { return v.Sub(o).Len() }

// Toward returns the point reached by moving from v toward target by step
// along the straight-line bearing. A zero-length bearing returns v.
func (v Vec2) Toward(target Vec2, step float64) Vec2 {
	angle := math.Atan2(target.Y-v.Y, target.X-v.X)
	if v == target {
		return v
	}
	return Vec2{v.X + math.Cos(angle)*step, v.Y + math.Sin(angle)*step}
}

// Clamp returns v with each axis limited to [lo, hi].
func (v Vec2) Clamp(lo, hi Vec2) Vec2 {
	return Vec2{math.Min(math.Max(v.X, lo.X), hi.X), math.Min(math.Max(v.Y, lo.Y), hi.Y)}
}

// CellCenter returns the world position of the centre of grid cell (x, y).
func CellCenter(x, y, tileSize int) Vec2 {
	return Vec2{
		X: float64(x*tileSize + tileSize/2),
		Y: float64(y*tileSize + tileSize/2),
	}
}

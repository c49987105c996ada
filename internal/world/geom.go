package world

import "math"

// Vec2 is a world-space position. +Y is up.
type Vec2 struct {
	X, Y float64
}

func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }

func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Y - o.Y} }

func (v Vec2) Len() float64 { return math.Hypot(v.X, v.Y) }

// Camera is an orthographic view onto the field: a world-space center and
// the half extents of what it shows.
type Camera struct {
	CenterX    float64
	CenterY    float64
	HalfWidth  float64
	HalfHeight float64
}

// ViewportToWorld maps viewport coordinates (0..1 on both axes, origin at
// the bottom-left corner) to world space.
func (c Camera) ViewportToWorld(vx, vy float64) Vec2 {
	return Vec2{
		X: c.CenterX + (2*vx-1)*c.HalfWidth,
		Y: c.CenterY + (2*vy-1)*c.HalfHeight,
	}
}

func (c Camera) Left() float64   { return c.CenterX - c.HalfWidth }
func (c Camera) Right() float64  { return c.CenterX + c.HalfWidth }
func (c Camera) Bottom() float64 { return c.CenterY - c.HalfHeight }
func (c Camera) Top() float64    { return c.CenterY + c.HalfHeight }

// Contains reports whether p is inside the visible area (edges included).
func (c Camera) Contains(p Vec2) bool {
	return p.X >= c.Left() && p.X <= c.Right() && p.Y >= c.Bottom() && p.Y <= c.Top()
}

package world

import (
	"github.com/squarefall/spawner/internal/data"
)

// OffField is where pooled entries wait while inactive.
var OffField = Vec2{X: 1000, Y: 1000}

// Rand is the subset of *rand.Rand used for placement.
type Rand interface {
	Float64() float64
}

// SpawnArea is the world-space band objects enter through: a vertical
// range just outside the left or right screen edge.
type SpawnArea struct {
	Left   float64 // x of the left screen edge
	Right  float64 // x of the right screen edge
	MinY   float64
	MaxY   float64
	Offset float64 // horizontal distance beyond the edge
}

// Pick returns a fresh entry position: y uniform in [MinY,MaxY), and a
// fair choice between the left and right edge pushed outward by Offset.
func (a SpawnArea) Pick(rng Rand) Vec2 {
	y := a.MinY + rng.Float64()*(a.MaxY-a.MinY)
	if rng.Float64() < 0.5 {
		return Vec2{X: a.Left - a.Offset, Y: y}
	}
	return Vec2{X: a.Right + a.Offset, Y: y}
}

// Field combines the camera with the placement settings and answers the
// two geometry questions the spawner has: where to enter and where the
// exit line is.
// Accessed only from the game loop goroutine.
type Field struct {
	camera    Camera
	placement data.Placement
}

func NewField(camera Camera, placement data.Placement) *Field {
	return &Field{camera: camera, placement: placement}
}

func (f *Field) Camera() Camera { return f.camera }

// SetCamera moves the view. Spawn area and exit line follow immediately.
func (f *Field) SetCamera(c Camera) { f.camera = c }

func (f *Field) Placement() data.Placement { return f.placement }

func (f *Field) SpawnArea() SpawnArea {
	return SpawnArea{
		Left:   f.camera.Left(),
		Right:  f.camera.Right(),
		MinY:   f.camera.ViewportToWorld(0, f.placement.MinSpawnYViewport).Y,
		MaxY:   f.camera.ViewportToWorld(0, f.placement.MaxSpawnYViewport).Y,
		Offset: f.placement.HorizontalScreenOffset,
	}
}

// ExitY is the world-space y below which an active object counts as gone.
func (f *Field) ExitY() float64 {
	return f.camera.Bottom() - f.placement.DespawnDistanceBelowScreen
}

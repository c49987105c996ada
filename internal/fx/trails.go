// Package fx tracks the trailing visual state of spawned objects so the
// core can reset it on every activation and deactivation. Drawing is left
// to whatever renders the field.
package fx

import (
	"github.com/squarefall/spawner/internal/core/ecs"
	"github.com/squarefall/spawner/internal/world"
)

// MaxTrailPoints bounds each trail.
const MaxTrailPoints = 16

// Trail is the recent path of one object, oldest point first.
type Trail struct {
	Points []world.Vec2
}

// Trails implements pool.Effects. Accessed only from the game loop goroutine.
type Trails struct {
	store   *ecs.Attached[Trail]
	cleared int
}

func NewTrails(capacity int) *Trails {
	return &Trails{store: ecs.NewAttached[Trail](capacity)}
}

// StartTrail begins a fresh trail at pos.
func (t *Trails) StartTrail(id ecs.EntityID, pos world.Vec2) {
	tr := &Trail{Points: make([]world.Vec2, 0, MaxTrailPoints)}
	tr.Points = append(tr.Points, pos)
	t.store.Put(id, tr)
}

// Extend appends a point to an existing trail, dropping the oldest point
// once the trail is full.
func (t *Trails) Extend(id ecs.EntityID, pos world.Vec2) bool {
	tr, ok := t.store.Get(id)
	if !ok {
		return false
	}
	if len(tr.Points) == MaxTrailPoints {
		copy(tr.Points, tr.Points[1:])
		tr.Points = tr.Points[:MaxTrailPoints-1]
	}
	tr.Points = append(tr.Points, pos)
	return true
}

// ClearTrails drops the trail of id, if any.
func (t *Trails) ClearTrails(id ecs.EntityID) {
	if t.store.Delete(id) {
		t.cleared++
	}
}

func (t *Trails) Get(id ecs.EntityID) (*Trail, bool) { return t.store.Get(id) }

func (t *Trails) Len() int { return t.store.Len() }

// Cleared counts trails dropped since construction.
func (t *Trails) Cleared() int { return t.cleared }

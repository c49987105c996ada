package system

import (
	"time"

	"github.com/squarefall/spawner/internal/core/ecs"
	coresys "github.com/squarefall/spawner/internal/core/system"
	"github.com/squarefall/spawner/internal/pool"
	"github.com/squarefall/spawner/internal/world"
)

// TrailSink records the path of a moving object.
type TrailSink interface {
	Extend(id ecs.EntityID, pos world.Vec2) bool
}

// DriftSystem moves every active object straight down at a constant speed
// while the run is Running. It stands in for the game's own movement when
// the spawner runs headless; there is no acceleration or collision.
// Phase 2 (Update), registered after the wave system.
type DriftSystem struct {
	pool   *pool.Pool
	status RunStatus
	trails TrailSink // may be nil
	speed  float64   // world units per second
}

func NewDriftSystem(p *pool.Pool, status RunStatus, trails TrailSink, speed float64) *DriftSystem {
	return &DriftSystem{pool: p, status: status, trails: trails, speed: speed}
}

func (s *DriftSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *DriftSystem) Update(dt time.Duration) {
	if s.speed <= 0 || !s.status.Running() {
		return
	}
	dy := s.speed * dt.Seconds()
	s.pool.EachActive(func(e *pool.Entry) {
		e.Position.Y -= dy
		if s.trails != nil {
			s.trails.Extend(e.ID, e.Position)
		}
	})
}

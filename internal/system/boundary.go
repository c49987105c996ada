package system

import (
	"time"

	"github.com/squarefall/spawner/internal/core/ecs"
	"github.com/squarefall/spawner/internal/core/event"
	coresys "github.com/squarefall/spawner/internal/core/system"
	"github.com/squarefall/spawner/internal/pool"
	"go.uber.org/zap"
)

// RunStatus reports whether a run is actively in progress.
type RunStatus interface {
	Running() bool
}

type exited struct {
	id       ecs.EntityID
	template int
}

// BoundarySystem reclaims active objects that fell below the exit line.
// A reclaim while the run is Running is a miss; during pause or after the
// run ended it is silent. Runs every tick regardless of wave state.
// Phase 3 (PostUpdate).
type BoundarySystem struct {
	pool    *pool.Pool
	view    Viewport
	status  RunStatus
	bus     *event.Bus
	log     *zap.Logger
	scratch []exited

	reclaimed int
	missed    int
}

func NewBoundarySystem(p *pool.Pool, view Viewport, status RunStatus, bus *event.Bus, log *zap.Logger) *BoundarySystem {
	return &BoundarySystem{
		pool:   p,
		view:   view,
		status: status,
		bus:    bus,
		log:    log,
	}
}

func (s *BoundarySystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *BoundarySystem) Update(_ time.Duration) {
	exitY := s.view.ExitY()
	s.scratch = s.scratch[:0]
	s.pool.EachActive(func(e *pool.Entry) {
		if e.Position.Y < exitY {
			s.scratch = append(s.scratch, exited{id: e.ID, template: e.Template})
		}
	})

	for _, x := range s.scratch {
		if !s.pool.Release(x.id) {
			continue
		}
		s.reclaimed++
		if !s.status.Running() {
			continue
		}
		s.missed++
		name := s.pool.Template(x.template).Name
		s.log.Debug("object missed", zap.Uint64("entity", uint64(x.id)), zap.String("template", name))
		event.Emit(s.bus, event.ObjectMissed{EntityID: x.id, Template: name})
	}
}

// Reclaimed counts every object returned to the pool by this system.
func (s *BoundarySystem) Reclaimed() int { return s.reclaimed }

// Missed counts reclaims that were reported as misses.
func (s *BoundarySystem) Missed() int { return s.missed }

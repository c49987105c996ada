package system

import (
	"context"
	"time"

	"github.com/squarefall/spawner/internal/core/event"
	coresys "github.com/squarefall/spawner/internal/core/system"
	"github.com/squarefall/spawner/internal/persist"
	"go.uber.org/zap"
)

// RunWriter stores finished runs.
type RunWriter interface {
	Insert(ctx context.Context, rec *persist.RunRecord) error
}

// persistTimeout bounds one history write.
const persistTimeout = 3 * time.Second

// PersistSystem writes one history row per finished run. Rows that fail to
// write are logged and dropped; history is an audit log only.
// Phase 5 (Persist).
type PersistSystem struct {
	repo    RunWriter
	bus     *event.Bus
	log     *zap.Logger
	pending []persist.RunRecord
	sub     event.Subscription
	written int
}

func NewPersistSystem(repo RunWriter, bus *event.Bus, log *zap.Logger) *PersistSystem {
	s := &PersistSystem{repo: repo, bus: bus, log: log}
	s.sub = event.Subscribe(bus, func(ev event.RunEnded) {
		s.pending = append(s.pending, persist.RunRecord{
			Result:       ev.Result,
			WavesCleared: ev.WavesCleared,
			TotalWaves:   ev.TotalWaves,
			Missed:       ev.Missed,
			Spawned:      ev.Spawned,
			StartedAt:    ev.StartedAt,
			EndedAt:      ev.EndedAt,
		})
	})
	return s
}

func (s *PersistSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *PersistSystem) Update(_ time.Duration) {
	if len(s.pending) == 0 {
		return
	}
	s.Flush()
}

// Flush writes every pending row immediately. Called on shutdown too.
func (s *PersistSystem) Flush() {
	for i := range s.pending {
		rec := &s.pending[i]
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		err := s.repo.Insert(ctx, rec)
		cancel()
		if err != nil {
			s.log.Error("run history write failed", zap.String("result", rec.Result), zap.Error(err))
			continue
		}
		s.written++
		s.log.Debug("run history written", zap.Int64("id", rec.ID), zap.String("result", rec.Result))
	}
	s.pending = s.pending[:0]
}

// Written counts rows stored successfully.
func (s *PersistSystem) Written() int { return s.written }

// Close unsubscribes from the bus.
func (s *PersistSystem) Close() {
	s.bus.Unsubscribe(s.sub)
	s.sub = event.Subscription{}
}

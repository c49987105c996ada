package system

import (
	"fmt"
	"time"

	"github.com/squarefall/spawner/internal/console"
	"github.com/squarefall/spawner/internal/core/event"
	coresys "github.com/squarefall/spawner/internal/core/system"
)

// OutputSystem reports run events to operator sessions and flushes every
// session's buffered output. Phase 4 (Output).
type OutputSystem struct {
	bus   *event.Bus
	store *console.SessionStore
	subs  []event.Subscription
}

func NewOutputSystem(bus *event.Bus, store *console.SessionStore) *OutputSystem {
	s := &OutputSystem{bus: bus, store: store}
	s.subs = []event.Subscription{
		event.Subscribe(bus, func(ev event.WaveProgress) {
			s.broadcast(fmt.Sprintf("event wave %d/%d", ev.Current, ev.Total))
		}),
		event.Subscribe(bus, func(ev event.MissesChanged) {
			s.broadcast(fmt.Sprintf("event misses %d/%d", ev.Missed, ev.Limit))
		}),
		event.Subscribe(bus, func(event.AllWavesCompleted) {
			s.broadcast("event completed")
		}),
		event.Subscribe(bus, func(ev event.StopGame) {
			s.broadcast("event stopped " + ev.Reason.String())
		}),
		event.Subscribe(bus, func(ev event.RunEnded) {
			s.broadcast(fmt.Sprintf("event run_ended result=%s waves=%d/%d missed=%d spawned=%d duration=%s",
				ev.Result, ev.WavesCleared, ev.TotalWaves, ev.Missed, ev.Spawned,
				ev.EndedAt.Sub(ev.StartedAt).Round(time.Millisecond)))
		}),
	}
	return s
}

func (s *OutputSystem) Phase() coresys.Phase { return coresys.PhaseOutput }

func (s *OutputSystem) Update(_ time.Duration) {
	s.store.ForEach(func(sess *console.Session) {
		sess.FlushOutput()
	})
}

func (s *OutputSystem) broadcast(line string) {
	s.store.ForEach(func(sess *console.Session) {
		if sess.State() == console.StateOperator {
			sess.Send(line)
		}
	})
}

// Close unsubscribes from the bus.
func (s *OutputSystem) Close() {
	for _, sub := range s.subs {
		s.bus.Unsubscribe(sub)
	}
	s.subs = nil
}

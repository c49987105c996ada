package system

import (
	"github.com/squarefall/spawner/internal/core/event"
	"github.com/squarefall/spawner/internal/pool"
	"go.uber.org/zap"
)

// Lifecycle forwards run-control signals from the bus to the wave system.
// It owns its subscriptions; Close releases them and may be called any
// number of times.
type Lifecycle struct {
	bus   *event.Bus
	waves *WaveSystem
	pool  *pool.Pool
	log   *zap.Logger
	subs  []event.Subscription
}

func NewLifecycle(bus *event.Bus, waves *WaveSystem, p *pool.Pool, log *zap.Logger) *Lifecycle {
	l := &Lifecycle{bus: bus, waves: waves, pool: p, log: log}
	l.subs = []event.Subscription{
		event.Subscribe(bus, l.onStart),
		event.Subscribe(bus, l.onPause),
		event.Subscribe(bus, l.onResume),
		event.Subscribe(bus, l.onStop),
	}
	return l
}

// onStart gives every run a clean slate: any run in flight is cancelled
// before the pool is cleared and a new one begins.
func (l *Lifecycle) onStart(event.StartGame) {
	if l.waves.State() != WaveIdle {
		l.waves.Stop()
	}
	n := l.pool.DeactivateAll()
	l.log.Debug("run start", zap.Int("deactivated", n))
	l.waves.Start()
}

func (l *Lifecycle) onPause(event.PauseGame) {
	l.waves.Pause()
}

func (l *Lifecycle) onResume(event.ResumeGame) {
	l.waves.Resume()
}

func (l *Lifecycle) onStop(ev event.StopGame) {
	if l.waves.Stop() {
		l.log.Info("run stop", zap.Stringer("reason", ev.Reason))
	}
}

// Close unsubscribes from the bus.
func (l *Lifecycle) Close() {
	for _, sub := range l.subs {
		l.bus.Unsubscribe(sub)
	}
	l.subs = nil
}

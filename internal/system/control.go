package system

import (
	"time"

	"github.com/squarefall/spawner/internal/console"
	coresys "github.com/squarefall/spawner/internal/core/system"
	"go.uber.org/zap"
)

// SessionSource is the side of the console server the game loop reads.
type SessionSource interface {
	NewSessions() <-chan *console.Session
	NotifyDead(sessionID uint64)
}

// ControlSystem drains console command queues from all sessions and
// dispatches them through the command registry. Phase 0 (Input).
type ControlSystem struct {
	server     SessionSource
	registry   *console.Registry
	store      *console.SessionStore
	maxPerTick int
	log        *zap.Logger
}

func NewControlSystem(server SessionSource, registry *console.Registry, store *console.SessionStore, maxPerTick int, log *zap.Logger) *ControlSystem {
	return &ControlSystem{
		server:     server,
		registry:   registry,
		store:      store,
		maxPerTick: maxPerTick,
		log:        log,
	}
}

func (s *ControlSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *ControlSystem) Update(_ time.Duration) {
	// Accept new sessions
	for {
		select {
		case sess := <-s.server.NewSessions():
			s.store.Add(sess)
			s.registry.Connected(sess)
			continue
		default:
		}
		break
	}

	for id, sess := range s.store.Raw() {
		if sess.IsClosed() {
			s.log.Info("console disconnected", zap.Uint64("session", id))
			s.server.NotifyDead(id)
			s.store.Remove(id)
			continue
		}
		s.drain(sess)
	}

	// Early flush so replies leave before the rest of the tick runs.
	s.store.ForEach(func(sess *console.Session) {
		sess.FlushOutput()
	})
}

func (s *ControlSystem) drain(sess *console.Session) {
	for i := 0; i < s.maxPerTick; i++ {
		select {
		case line := <-sess.InQueue:
			if err := s.registry.Dispatch(sess, line); err != nil {
				s.log.Debug("console dispatch error",
					zap.Uint64("session", sess.ID),
					zap.Error(err),
				)
			}
		default:
			return
		}
	}
}

// CloseAll disconnects every session. Used on shutdown.
func (s *ControlSystem) CloseAll() {
	s.store.ForEach(func(sess *console.Session) {
		sess.FlushOutput()
		sess.Close()
	})
}

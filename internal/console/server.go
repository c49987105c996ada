package console

import (
	"errors"
	"net"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Options sizes every session the server creates.
type Options struct {
	InQueue           int
	OutQueue          int
	CommandsPerSecond int // 0 = unlimited
	MaxSessions       int // 0 = unlimited
	Codec             *Codec
}

// Server accepts console connections and hands new Sessions to the game
// loop over a channel. The game loop reports closed sessions back through
// NotifyDead so the server can keep its connection count.
type Server struct {
	listener net.Listener
	opts     Options
	nextID   atomic.Uint64
	live     atomic.Int64
	newConns chan *Session
	closed   atomic.Bool
	log      *zap.Logger
}

func NewServer(bindAddr string, opts Options, log *zap.Logger) (*Server, error) {
	if opts.Codec == nil {
		return nil, errors.New("console: nil codec")
	}
	ln, err := net.Listen("tcp", bindAddr)
	if err != nil {
		return nil, err
	}
	return &Server{
		listener: ln,
		opts:     opts,
		newConns: make(chan *Session, 16),
		log:      log,
	}, nil
}

// AcceptLoop runs in its own goroutine until Shutdown.
func (s *Server) AcceptLoop() {
	var backoff time.Duration
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.closed.Load() {
				return
			}
			// Transient accept failures (fd exhaustion) back off up to 1s.
			backoff = min(max(2*backoff, 5*time.Millisecond), time.Second)
			s.log.Error("console accept failed", zap.Error(err), zap.Duration("retry_in", backoff))
			time.Sleep(backoff)
			continue
		}
		backoff = 0

		if limit := s.opts.MaxSessions; limit > 0 && s.live.Load() >= int64(limit) {
			s.log.Warn("console full, rejecting", zap.String("remote", conn.RemoteAddr().String()))
			if b, err := s.opts.Codec.Encode("error console full\n"); err == nil {
				conn.Write(b)
			}
			conn.Close()
			continue
		}

		id := s.nextID.Add(1)
		sess := NewSession(conn, id, s.opts.InQueue, s.opts.OutQueue, s.opts.CommandsPerSecond, s.opts.Codec, s.log)
		sess.Start()

		s.live.Add(1)
		select {
		case s.newConns <- sess:
			s.log.Info("console connected", zap.Uint64("session", id), zap.String("ip", sess.IP))
		default:
			s.live.Add(-1)
			s.log.Warn("console handoff queue full, rejecting", zap.Uint64("session", id))
			sess.Close()
		}
	}
}

// NewSessions returns the channel of newly connected sessions.
func (s *Server) NewSessions() <-chan *Session {
	return s.newConns
}

// NotifyDead is called once by the game loop for every session it drops.
func (s *Server) NotifyDead(sessionID uint64) {
	if s.live.Add(-1) < 0 {
		s.live.Store(0)
		s.log.Warn("console session reported dead twice", zap.Uint64("session", sessionID))
	}
}

// Live is the number of sessions handed to the game loop and not yet
// reported dead.
func (s *Server) Live() int { return int(s.live.Load()) }

// Shutdown stops accepting new connections.
func (s *Server) Shutdown() {
	if s.closed.CompareAndSwap(false, true) {
		s.listener.Close()
	}
}

// Addr returns the listener's address.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

package console

import (
	"bufio"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// SessionState is the console protocol phase of a session.
type SessionState int32

const (
	StateConnected SessionState = iota // connected, not authenticated
	StateOperator                      // may control the run
	StateClosing
)

func (s SessionState) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateOperator:
		return "operator"
	case StateClosing:
		return "closing"
	default:
		return "unknown"
	}
}

// Session is one console connection. Network I/O runs in dedicated
// goroutines; everything else is accessed only from the game loop.
type Session struct {
	ID   uint64
	conn net.Conn

	state atomic.Int32

	InQueue  chan string // game loop reads command lines from here
	OutQueue chan []byte // writer goroutine reads from here; nil closes

	IP string

	// AuthFailures counts rejected tokens (game loop only).
	AuthFailures int

	outBuf     [][]byte // buffered lines, flushed by OutputSystem (game loop only)
	closeAfter bool     // close once buffered output is written (game loop only)

	codec     *Codec
	closeCh   chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool

	// Per-second command rate limiter (readLoop goroutine only, no lock needed)
	cmdPerSec  int
	cmdCount   int
	cmdResetAt int64

	log *zap.Logger
}

func NewSession(conn net.Conn, id uint64, inSize, outSize, cmdPerSec int, codec *Codec, log *zap.Logger) *Session {
	s := &Session{
		ID:        id,
		conn:      conn,
		InQueue:   make(chan string, inSize),
		OutQueue:  make(chan []byte, outSize),
		IP:        conn.RemoteAddr().String(),
		codec:     codec,
		closeCh:   make(chan struct{}),
		cmdPerSec: cmdPerSec,
		log:       log.With(zap.Uint64("session", id)),
	}
	s.state.Store(int32(StateConnected))
	return s
}

func (s *Session) State() SessionState {
	return SessionState(s.state.Load())
}

func (s *Session) SetState(st SessionState) {
	s.state.Store(int32(st))
}

// Start launches the reader and writer goroutines.
func (s *Session) Start() {
	go s.readLoop()
	go s.writeLoop()
}

// Send buffers a line for sending. Nothing is written until FlushOutput.
// Called only from the game loop goroutine.
func (s *Session) Send(line string) {
	if s.closed.Load() {
		return
	}
	data, err := s.codec.Encode(line)
	if err != nil {
		s.log.Debug("unencodable output dropped", zap.Error(err))
		return
	}
	s.outBuf = append(s.outBuf, data)
}

// CloseAfterFlush closes the session once everything sent so far has been
// written.
func (s *Session) CloseAfterFlush() {
	s.closeAfter = true
	s.SetState(StateClosing)
}

// FlushOutput drains the output buffer to OutQueue for the writeLoop.
// Non-blocking: if OutQueue is full, the session is disconnected.
func (s *Session) FlushOutput() {
	for _, data := range s.outBuf {
		if !s.enqueue(data) {
			return
		}
	}
	s.outBuf = s.outBuf[:0]
	if s.closeAfter {
		s.closeAfter = false
		s.enqueue(nil)
	}
}

func (s *Session) enqueue(data []byte) bool {
	select {
	case s.OutQueue <- data:
		return true
	default:
		s.log.Warn("output queue full, dropping slow console client")
		s.Close()
		s.outBuf = s.outBuf[:0]
		return false
	}
}

// Close shuts the session down. Safe to call from any goroutine.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.SetState(StateClosing)
		close(s.closeCh)
		s.conn.Close()
	})
}

func (s *Session) IsClosed() bool {
	return s.closed.Load()
}

// readLoop reads command lines and pushes them onto InQueue.
func (s *Session) readLoop() {
	defer s.Close()

	r := bufio.NewReaderSize(s.conn, MaxLineLength)
	for {
		frame, err := ReadFrame(r)
		if err != nil {
			if !s.closed.Load() {
				s.log.Debug("read error", zap.Error(err))
			}
			return
		}

		if s.cmdPerSec > 0 {
			now := time.Now().Unix()
			if now != s.cmdResetAt {
				s.cmdCount = 0
				s.cmdResetAt = now
			}
			s.cmdCount++
			if s.cmdCount > s.cmdPerSec {
				s.log.Warn("command rate exceeded, disconnecting", zap.Int("cps", s.cmdCount))
				return
			}
		}

		line, err := s.codec.Decode(frame)
		if err != nil {
			s.log.Debug("undecodable line dropped", zap.Error(err))
			continue
		}

		// Block until InQueue has space or the session closes; a slow game
		// loop only stalls this client.
		select {
		case s.InQueue <- line:
		case <-s.closeCh:
			return
		}
	}
}

// writeLoop writes queued lines. A nil entry closes the session.
func (s *Session) writeLoop() {
	defer s.Close()

	for {
		select {
		case data := <-s.OutQueue:
			if data == nil {
				return
			}
			s.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := WriteFrame(s.conn, data); err != nil {
				if !s.closed.Load() {
					s.log.Debug("write error", zap.Error(err))
				}
				return
			}
		case <-s.closeCh:
			return
		}
	}
}

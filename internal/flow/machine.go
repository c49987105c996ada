// Package flow is the game-flow state machine. It turns player and
// operator intent into run-control signals on the bus and decides win and
// loss from spawner events.
package flow

import (
	"time"

	"github.com/squarefall/spawner/internal/core/clock"
	"github.com/squarefall/spawner/internal/core/event"
	"go.uber.org/zap"
)

type State int

const (
	Menu State = iota
	Playing
	Paused
	Won
	Lost
)

func (s State) String() string {
	switch s {
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	case Won:
		return "won"
	case Lost:
		return "lost"
	default:
		return "menu"
	}
}

type Trigger int

const (
	Start Trigger = iota
	Pause
	Resume
	Win
	Lose
	Abort
)

func (t Trigger) String() string {
	switch t {
	case Start:
		return "start"
	case Pause:
		return "pause"
	case Resume:
		return "resume"
	case Win:
		return "win"
	case Lose:
		return "lose"
	case Abort:
		return "abort"
	default:
		return "unknown"
	}
}

// transitions lists every allowed move. Anything absent is ignored.
var transitions = map[State]map[Trigger]State{
	Menu:    {Start: Playing},
	Playing: {Start: Playing, Pause: Paused, Win: Won, Lose: Lost, Abort: Menu},
	Paused:  {Start: Playing, Resume: Playing, Win: Won, Lose: Lost, Abort: Menu},
	Won:     {Start: Playing},
	Lost:    {Start: Playing},
}

// Can reports whether t is allowed from s.
func Can(s State, t Trigger) bool {
	_, ok := transitions[s][t]
	return ok
}

// RunStats is what the wave scheduler reports about the current run.
type RunStats struct {
	Wave       int // 0-based
	TotalWaves int
	Spawned    int
}

// StatsSource is implemented by the wave scheduler.
type StatsSource interface {
	RunStats() RunStats
}

// Machine is accessed only from the game loop goroutine.
type Machine struct {
	bus   *event.Bus
	clock clock.Clock
	stats StatsSource
	rule  LoseRule
	log   *zap.Logger

	state     State
	missed    int
	limit     int
	baseLimit int
	startedAt time.Time
	subs      []event.Subscription
}

// New builds a machine in Menu and subscribes it to spawner events.
// stats may be nil.
func New(bus *event.Bus, missLimit int, clk clock.Clock, stats StatsSource, log *zap.Logger) *Machine {
	if missLimit < 1 {
		missLimit = 1
	}
	m := &Machine{
		bus:       bus,
		clock:     clk,
		stats:     stats,
		rule:      DefaultLoseRule{},
		log:       log,
		limit:     missLimit,
		baseLimit: missLimit,
	}
	m.subs = []event.Subscription{
		event.Subscribe(bus, m.onMissed),
		event.Subscribe(bus, m.onCompleted),
	}
	return m
}

// SetLoseRule replaces the rule consulted after every miss.
func (m *Machine) SetLoseRule(r LoseRule) {
	if r == nil {
		r = DefaultLoseRule{}
	}
	m.rule = r
}

func (m *Machine) State() State { return m.state }
func (m *Machine) Missed() int  { return m.missed }
func (m *Machine) Limit() int   { return m.limit }

// Left is the number of misses still allowed before the limit.
func (m *Machine) Left() int { return max(0, m.limit-m.missed) }

// Fire applies t. Triggers not allowed from the current state are no-ops.
func (m *Machine) Fire(t Trigger) bool {
	next, ok := transitions[m.state][t]
	if !ok {
		m.log.Debug("flow trigger ignored", zap.Stringer("state", m.state), zap.Stringer("trigger", t))
		return false
	}
	prev := m.state
	m.state = next
	m.log.Info("flow transition",
		zap.Stringer("from", prev),
		zap.Stringer("to", next),
		zap.Stringer("trigger", t))

	switch t {
	case Start:
		if prev == Playing || prev == Paused {
			m.endRun("restarted", false)
		}
		m.resetMisses()
		m.startedAt = m.clock.Now()
		event.Emit(m.bus, event.StartGame{})
	case Pause:
		event.Emit(m.bus, event.PauseGame{})
	case Resume:
		event.Emit(m.bus, event.ResumeGame{})
	case Win:
		event.Emit(m.bus, event.StopGame{Reason: event.StopWin})
		m.endRun("win", true)
	case Lose:
		event.Emit(m.bus, event.StopGame{Reason: event.StopLose})
		m.endRun("lose", false)
	case Abort:
		event.Emit(m.bus, event.StopGame{Reason: event.StopExplicit})
		m.endRun("aborted", false)
	}
	return true
}

func (m *Machine) endRun(result string, won bool) {
	ended := event.RunEnded{
		Result:    result,
		Missed:    m.missed,
		StartedAt: m.startedAt,
		EndedAt:   m.clock.Now(),
	}
	if m.stats != nil {
		st := m.stats.RunStats()
		ended.TotalWaves = st.TotalWaves
		ended.Spawned = st.Spawned
		ended.WavesCleared = min(st.Wave, st.TotalWaves)
		if won {
			ended.WavesCleared = st.TotalWaves
		}
	}
	event.Emit(m.bus, ended)
}

func (m *Machine) resetMisses() {
	m.missed = 0
	m.limit = m.baseLimit
	m.emitMisses()
}

func (m *Machine) emitMisses() {
	event.Emit(m.bus, event.MissesChanged{Missed: m.missed, Limit: m.limit})
}

// IncreaseMissLimit raises the limit for the current run.
func (m *Machine) IncreaseMissLimit(n int) {
	if n <= 0 {
		return
	}
	m.limit += n
	m.emitMisses()
}

// ForgiveMisses lowers the miss counter, never below zero.
func (m *Machine) ForgiveMisses(n int) {
	if n <= 0 {
		return
	}
	m.missed = max(0, m.missed-n)
	m.emitMisses()
}

func (m *Machine) onMissed(ev event.ObjectMissed) {
	if m.state != Playing {
		return
	}
	m.missed++
	m.log.Debug("missed", zap.String("template", ev.Template), zap.Int("missed", m.missed), zap.Int("limit", m.limit))
	m.emitMisses()

	ctx := RuleContext{Missed: m.missed, Limit: m.limit}
	if m.stats != nil {
		st := m.stats.RunStats()
		ctx.Wave = st.Wave
		ctx.TotalWaves = st.TotalWaves
	}
	if m.rule.ShouldLose(ctx) {
		m.log.Info("miss limit reached", zap.Int("missed", m.missed), zap.Int("limit", m.limit))
		m.Fire(Lose)
	}
}

func (m *Machine) onCompleted(event.AllWavesCompleted) {
	m.Fire(Win)
}

// Close unsubscribes from the bus. Safe to call more than once.
func (m *Machine) Close() {
	for _, sub := range m.subs {
		m.bus.Unsubscribe(sub)
	}
	m.subs = nil
}

package system

import (
	"fmt"
	"time"

	"github.com/squarefall/spawner/internal/core/event"
	coresys "github.com/squarefall/spawner/internal/core/system"
	"github.com/squarefall/spawner/internal/data"
	"github.com/squarefall/spawner/internal/flow"
	"github.com/squarefall/spawner/internal/pool"
	"github.com/squarefall/spawner/internal/spawn"
	"github.com/squarefall/spawner/internal/world"
	"go.uber.org/zap"
)

// Viewport answers the spawner's geometry questions for the current camera.
type Viewport interface {
	SpawnArea() world.SpawnArea
	ExitY() float64
}

// WaveState is the scheduler state.
type WaveState int

const (
	WaveIdle WaveState = iota
	WaveRunning
	WaveSuspended
)

func (s WaveState) String() string {
	switch s {
	case WaveRunning:
		return "running"
	case WaveSuspended:
		return "suspended"
	default:
		return "idle"
	}
}

// multiplierStep is added to the difficulty multiplier after every wave.
const multiplierStep = 0.3

// maxStepsPerTick bounds catch-up work when one tick covers several spawn
// intervals.
const maxStepsPerTick = 32

// WaveRunState is the transient state of one run.
type WaveRunState struct {
	State       WaveState
	CurrentWave int // 0-based
	Elapsed     time.Duration
	Multiplier  float64
	Progress    float64
	Steps       int // spawn opportunities scheduled
	Attempts    int // template draws
	Spawned     int
	Skipped     int // draws that landed in the no-spawn gap
}

// WaveSystem runs the timed wave loop as an explicit state machine stepped
// by the tick runner. Waiting between spawn steps is a countdown of tick
// time, so pausing freezes it and stopping drops it. Phase 2 (Update).
type WaveSystem struct {
	cfg  data.WaveConfig
	dist *spawn.Distribution
	pool *pool.Pool
	view Viewport
	bus  *event.Bus
	rng  spawn.Rand
	log  *zap.Logger

	run     WaveRunState
	wait    time.Duration // remaining countdown before the next step
	stepLen time.Duration // length of the wait in progress
	primed  bool          // first step runs on the next Update regardless of dt
}

func NewWaveSystem(
	cfg data.WaveConfig,
	dist *spawn.Distribution,
	p *pool.Pool,
	view Viewport,
	bus *event.Bus,
	rng spawn.Rand,
	log *zap.Logger,
) *WaveSystem {
	return &WaveSystem{
		cfg:  cfg,
		dist: dist,
		pool: p,
		view: view,
		bus:  bus,
		rng:  rng,
		log:  log,
		run:  WaveRunState{Multiplier: cfg.DifficultyMultiplier},
	}
}

func (s *WaveSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

// Start begins a fresh run from wave 0 at the base difficulty. It does not
// touch the pool; Lifecycle clears it before calling Start. Starting a run
// that is not Idle is a programming error; stop it first.
func (s *WaveSystem) Start() {
	if s.run.State != WaveIdle {
		panic(fmt.Sprintf("wave: start while %s", s.run.State))
	}
	s.run = WaveRunState{
		State:      WaveRunning,
		Multiplier: s.cfg.DifficultyMultiplier,
	}
	s.wait = 0
	s.stepLen = 0
	s.primed = true
	s.log.Info("wave run started",
		zap.Int("waves", s.cfg.WaveCount),
		zap.Float64("multiplier", s.run.Multiplier))
	event.Emit(s.bus, event.WaveProgress{Current: 1, Total: s.cfg.WaveCount})
}

// Pause suspends a running run. Elapsed time and entities are kept.
func (s *WaveSystem) Pause() bool {
	if s.run.State != WaveRunning {
		return false
	}
	s.run.State = WaveSuspended
	s.log.Debug("wave run suspended", zap.Int("wave", s.run.CurrentWave))
	return true
}

// Resume continues a suspended run from the same elapsed time.
func (s *WaveSystem) Resume() bool {
	if s.run.State != WaveSuspended {
		return false
	}
	s.run.State = WaveRunning
	s.log.Debug("wave run resumed", zap.Int("wave", s.run.CurrentWave))
	return true
}

// Stop cancels the run. The pending step is dropped; nothing spawns until
// the next Start.
func (s *WaveSystem) Stop() bool {
	if s.run.State == WaveIdle {
		return false
	}
	s.halt()
	s.log.Info("wave run stopped",
		zap.Int("wave", s.run.CurrentWave),
		zap.Int("spawned", s.run.Spawned))
	return true
}

func (s *WaveSystem) halt() {
	s.run.State = WaveIdle
	s.wait = 0
	s.stepLen = 0
	s.primed = false
}

func (s *WaveSystem) State() WaveState { return s.run.State }

func (s *WaveSystem) Running() bool { return s.run.State == WaveRunning }

// Snapshot returns a copy of the run state.
func (s *WaveSystem) Snapshot() WaveRunState { return s.run }

func (s *WaveSystem) TotalWaves() int { return s.cfg.WaveCount }

// RunStats implements flow.StatsSource.
func (s *WaveSystem) RunStats() flow.RunStats {
	return flow.RunStats{
		Wave:       s.run.CurrentWave,
		TotalWaves: s.cfg.WaveCount,
		Spawned:    s.run.Spawned,
	}
}

// Ceiling is the active-object limit of the current wave.
func (s *WaveSystem) Ceiling() int { return s.cfg.Ceiling(s.run.CurrentWave) }

func (s *WaveSystem) Update(dt time.Duration) {
	if s.run.State != WaveRunning {
		return
	}
	if s.primed {
		s.primed = false
		s.step()
		return
	}
	s.wait -= dt
	for n := 0; s.run.State == WaveRunning && s.wait <= 0; n++ {
		if n == maxStepsPerTick {
			s.log.Debug("wave catch-up capped", zap.Duration("behind", -s.wait))
			s.wait = 0
			return
		}
		over := -s.wait
		s.run.Elapsed += s.stepLen
		s.step()
		s.wait -= over
	}
}

// step runs one iteration of the wave loop: finish the wave if its time is
// up, otherwise report progress, spawn a batch and arm the next wait.
func (s *WaveSystem) step() {
	duration := s.cfg.Duration()
	for s.run.Elapsed >= duration {
		if !s.finishWave() {
			return
		}
	}

	s.run.Progress = clamp01(float64(s.run.Elapsed) / float64(duration))
	event.Emit(s.bus, event.ProgressChanged{Wave: s.run.CurrentWave, Progress: s.run.Progress})

	s.run.Steps++
	s.spawnBatch()

	s.stepLen = time.Duration(float64(s.cfg.Interval()) / s.run.Multiplier)
	if s.stepLen <= 0 {
		s.stepLen = time.Nanosecond
	}
	s.wait = s.stepLen
}

// finishWave closes the current wave and reports whether another one
// follows.
func (s *WaveSystem) finishWave() bool {
	s.run.Progress = 1
	event.Emit(s.bus, event.ProgressChanged{Wave: s.run.CurrentWave, Progress: 1})
	s.run.Multiplier += multiplierStep
	s.run.CurrentWave++
	s.run.Elapsed = 0

	if s.run.CurrentWave >= s.cfg.WaveCount {
		s.halt()
		s.log.Info("all waves completed",
			zap.Int("waves", s.cfg.WaveCount),
			zap.Int("spawned", s.run.Spawned),
			zap.Int("skipped", s.run.Skipped))
		event.Emit(s.bus, event.AllWavesCompleted{})
		return false
	}

	s.log.Info("wave started",
		zap.Int("wave", s.run.CurrentWave+1),
		zap.Int("ceiling", s.Ceiling()),
		zap.Float64("multiplier", s.run.Multiplier))
	event.Emit(s.bus, event.WaveProgress{Current: s.run.CurrentWave + 1, Total: s.cfg.WaveCount})
	return true
}

func (s *WaveSystem) spawnBatch() {
	available := s.Ceiling() - s.pool.ActiveCount()
	if available <= 0 {
		return
	}
	n := min(s.dynamicSpawnCount(s.run.CurrentWave), available)
	for i := 0; i < n; i++ {
		s.spawnOne()
	}
}

// dynamicSpawnCount starts at 1 and adds one per successful fair coin flip,
// for at most w flips, stopping at the first failure.
func (s *WaveSystem) dynamicSpawnCount(w int) int {
	count := 1
	for i := 0; i < w; i++ {
		if s.rng.Float64() >= 0.5 {
			break
		}
		count++
	}
	return count
}

func (s *WaveSystem) spawnOne() {
	s.run.Attempts++
	idx, ok := s.dist.Sample(s.rng)
	if !ok {
		s.run.Skipped++
		return
	}
	id := s.pool.Acquire(idx)
	pos := s.view.SpawnArea().Pick(s.rng)
	s.pool.Activate(id, pos)
	s.run.Spawned++
	s.log.Debug("spawned",
		zap.String("template", s.dist.Element(idx).Template),
		zap.Uint64("entity", uint64(id)),
		zap.Float64("x", pos.X),
		zap.Float64("y", pos.Y))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

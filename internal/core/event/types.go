package event

import (
	"time"

	"github.com/squarefall/spawner/internal/core/ecs"
)

// Run-control signals. Produced by the game-flow machine, consumed by the
// spawner lifecycle.

type StartGame struct{}

type PauseGame struct{}

type ResumeGame struct{}

// StopReason tells why a run was stopped. Win and lose both stop spawning.
type StopReason int

const (
	StopExplicit StopReason = iota
	StopWin
	StopLose
)

func (r StopReason) String() string {
	switch r {
	case StopWin:
		return "win"
	case StopLose:
		return "lose"
	default:
		return "explicit"
	}
}

type StopGame struct {
	Reason StopReason
}

// Spawner output.

// WaveProgress is emitted when a wave begins. Current is 1-based.
type WaveProgress struct {
	Current int
	Total   int
}

// ProgressChanged reports the fraction of the current wave's duration that
// has elapsed, in [0,1]. Wave is 0-based.
type ProgressChanged struct {
	Wave     int
	Progress float64
}

type ObjectMissed struct {
	EntityID ecs.EntityID
	Template string
}

type AllWavesCompleted struct{}

// Game-flow output.

// MissesChanged is emitted whenever the miss counter or the limit moves.
type MissesChanged struct {
	Missed int
	Limit  int
}

// RunEnded summarises a finished run (won, lost or stopped).
type RunEnded struct {
	Result       string
	WavesCleared int
	TotalWaves   int
	Missed       int
	Spawned      int
	StartedAt    time.Time
	EndedAt      time.Time
}

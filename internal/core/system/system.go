package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseInput      Phase = iota // 0: drain console command queues
	PhaseDispatch                // 1: deliver last tick's events
	PhaseUpdate                  // 2: wave scheduling, spawning
	PhasePostUpdate              // 3: boundary reclaim
	PhaseOutput                  // 4: flush console output
	PhasePersist                 // 5: run history writes
)

func (p Phase) String() string {
	switch p {
	case PhaseInput:
		return "input"
	case PhaseDispatch:
		return "dispatch"
	case PhaseUpdate:
		return "update"
	case PhasePostUpdate:
		return "post-update"
	case PhaseOutput:
		return "output"
	case PhasePersist:
		return "persist"
	default:
		return "unknown"
	}
}

// System is the interface every tick system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}

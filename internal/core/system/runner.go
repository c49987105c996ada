package system

import "time"

const phaseCount = int(PhasePersist) + 1

// Runner executes systems in phase order each tick. Systems sharing a phase
// run in registration order.
type Runner struct {
	phases [phaseCount][]System
	count  int
	ticks  uint64
}

func NewRunner() *Runner {
	return &Runner{}
}

// Register adds s to its phase. It panics on a phase outside the known
// range.
func (r *Runner) Register(s System) {
	p := s.Phase()
	if p < 0 || int(p) >= phaseCount {
		panic("system: unknown phase " + p.String())
	}
	r.phases[p] = append(r.phases[p], s)
	r.count++
}

func (r *Runner) Tick(dt time.Duration) {
	for _, systems := range r.phases {
		for _, s := range systems {
			s.Update(dt)
		}
	}
	r.ticks++
}

// Ticks returns the number of completed ticks.
func (r *Runner) Ticks() uint64 { return r.ticks }

// Len is the number of registered systems.
func (r *Runner) Len() int { return r.count }

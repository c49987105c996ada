// Package spawn picks which template a spawn attempt produces.
package spawn

import (
	"errors"
	"fmt"

	"github.com/squarefall/spawner/internal/data"
)

// Validation failures. Index-specific errors wrap these with the offending
// element index, so errors.Is matches and Error() reads e.g.
// "missing template at index 2".
var (
	ErrNoElements          = errors.New("no spawn elements")
	ErrMissingTemplate     = errors.New("missing template")
	ErrNonPositiveMaxCount = errors.New("non-positive maxCount")
	ErrChanceOutOfRange    = errors.New("spawn chance out of [0,100]")
	ErrTotalChanceExceeded = errors.New("total spawn chance exceeds 100%")
)

// MaxTotalChance is the upper bound on the sum of all spawn chances.
const MaxTotalChance = 100.0

// tolerance absorbs float error in sums like 33.3+33.3+33.4.
const tolerance = 1e-9

// Rand is the subset of *rand.Rand the distribution needs.
type Rand interface {
	Float64() float64
}

// Distribution is a validated, immutable list of spawn elements.
type Distribution struct {
	elements []data.SpawnElement
	total    float64
}

// Validate checks the spawner configuration invariant.
func Validate(elements []data.SpawnElement) error {
	if len(elements) == 0 {
		return ErrNoElements
	}
	total := 0.0
	for i, e := range elements {
		if e.Template == "" {
			return fmt.Errorf("%w at index %d", ErrMissingTemplate, i)
		}
		if e.MaxCount <= 0 {
			return fmt.Errorf("%w at index %d", ErrNonPositiveMaxCount, i)
		}
		// Written so NaN fails the range check.
		if !(e.SpawnChance >= 0 && e.SpawnChance <= MaxTotalChance) {
			return fmt.Errorf("%w at index %d", ErrChanceOutOfRange, i)
		}
		total += e.SpawnChance
	}
	if total > MaxTotalChance+tolerance {
		return fmt.Errorf("%w (%g%%)", ErrTotalChanceExceeded, total)
	}
	return nil
}

// NewDistribution validates elements and copies them.
func NewDistribution(elements []data.SpawnElement) (*Distribution, error) {
	if err := Validate(elements); err != nil {
		return nil, err
	}
	d := &Distribution{elements: make([]data.SpawnElement, len(elements))}
	copy(d.elements, elements)
	for _, e := range d.elements {
		d.total += e.SpawnChance
	}
	return d, nil
}

// Sample draws r uniformly from [0,100) and returns Pick(r).
func (d *Distribution) Sample(rng Rand) (int, bool) {
	return d.Pick(rng.Float64() * MaxTotalChance)
}

// Pick walks the elements in configured order and returns the first index
// whose cumulative chance is >= r. When the chances sum to less than 100 a
// draw above the total returns ok=false: the attempt spawns nothing.
func (d *Distribution) Pick(r float64) (int, bool) {
	cumulative := 0.0
	for i, e := range d.elements {
		cumulative += e.SpawnChance
		if cumulative >= r {
			return i, true
		}
	}
	return -1, false
}

func (d *Distribution) Len() int { return len(d.elements) }

func (d *Distribution) Element(i int) data.SpawnElement { return d.elements[i] }

// Elements returns a copy of the configured elements.
func (d *Distribution) Elements() []data.SpawnElement {
	out := make([]data.SpawnElement, len(d.elements))
	copy(out, d.elements)
	return out
}

// TotalChance is the sum of all element chances.
func (d *Distribution) TotalChance() float64 { return d.total }

// NoSpawnChance is the percentage of draws that spawn nothing.
func (d *Distribution) NoSpawnChance() float64 {
	if d.total >= MaxTotalChance {
		return 0
	}
	return MaxTotalChance - d.total
}

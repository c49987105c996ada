package system

import (
	"math/rand"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/squarefall/spawner/internal/core/event"
	"github.com/squarefall/spawner/internal/data"
	"github.com/squarefall/spawner/internal/pool"
	"github.com/squarefall/spawner/internal/spawn"
	"github.com/squarefall/spawner/internal/world"
)

type fixedViewport struct {
	area world.SpawnArea
	exit float64
}

func (v fixedViewport) SpawnArea() world.SpawnArea { return v.area }
func (v fixedViewport) ExitY() float64             { return v.exit }

func testViewport() fixedViewport {
	return fixedViewport{
		area: world.SpawnArea{Left: -8, Right: 8, MinY: -3, MaxY: 3, Offset: 2},
		exit: -10,
	}
}

// stubRand replays vals in order, then repeats the last one.
type stubRand struct {
	vals []float64
	i    int
}

func (r *stubRand) Float64() float64 {
	v := r.vals[min(r.i, len(r.vals)-1)]
	r.i++
	return v
}

// recorder captures bus events in delivery order.
type recorder struct {
	waves     []event.WaveProgress
	progress  []event.ProgressChanged
	missed    []event.ObjectMissed
	completed int
}

func newRecorder(bus *event.Bus) *recorder {
	r := &recorder{}
	event.Subscribe(bus, func(ev event.WaveProgress) { r.waves = append(r.waves, ev) })
	event.Subscribe(bus, func(ev event.ProgressChanged) { r.progress = append(r.progress, ev) })
	event.Subscribe(bus, func(ev event.ObjectMissed) { r.missed = append(r.missed, ev) })
	event.Subscribe(bus, func(event.AllWavesCompleted) { r.completed++ })
	return r
}

type harness struct {
	bus   *event.Bus
	pool  *pool.Pool
	waves *WaveSystem
	rec   *recorder
}

func newHarness(t *testing.T, cfg data.WaveConfig, elements []data.SpawnElement, rng spawn.Rand) *harness {
	t.Helper()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("wave config: %v", err)
	}
	dist, err := spawn.NewDistribution(elements)
	if err != nil {
		t.Fatalf("distribution: %v", err)
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	log := zaptest.NewLogger(t)
	bus := event.NewBus()
	p := pool.New(pool.TemplatesFrom(elements), nil, log)
	return &harness{
		bus:   bus,
		pool:  p,
		waves: NewWaveSystem(cfg, dist, p, testViewport(), bus, rng, log),
		rec:   newRecorder(bus),
	}
}

// tick runs the wave system once and delivers what it emitted.
func (h *harness) tick(dtMS int) {
	h.waves.Update(ms(dtMS))
	h.bus.Flush()
}

func singleTemplate(maxCount int) []data.SpawnElement {
	return []data.SpawnElement{{Template: "square", MaxCount: maxCount, SpawnChance: 100}}
}

func testPlacement() data.Placement {
	p := data.DefaultPlacement()
	p.DespawnDistanceBelowScreen = 3
	return p
}

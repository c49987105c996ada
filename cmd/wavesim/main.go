// wavesim plays one run headless at a fixed tick and prints per-wave
// spawn statistics, for checking pool capacity and miss pressure before a
// spawn list ships.
package main

import (
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/squarefall/spawner/internal/config"
	"github.com/squarefall/spawner/internal/core/clock"
	"github.com/squarefall/spawner/internal/core/event"
	coresys "github.com/squarefall/spawner/internal/core/system"
	"github.com/squarefall/spawner/internal/data"
	"github.com/squarefall/spawner/internal/flow"
	"github.com/squarefall/spawner/internal/pool"
	"github.com/squarefall/spawner/internal/spawn"
	"github.com/squarefall/spawner/internal/system"
	"github.com/squarefall/spawner/internal/world"
	"go.uber.org/zap"
)

const (
	tick     = 16 * time.Millisecond
	maxTicks = 1_000_000
)

type waveRow struct {
	spawned int
	skipped int
	missed  int
}

func main() {
	if len(os.Args) < 3 {
		fmt.Fprintln(os.Stderr, "Usage: wavesim <spawn_list.yaml> <wave_list.yaml> [seed]")
		os.Exit(1)
	}
	seed := int64(1)
	if len(os.Args) > 3 {
		n, err := strconv.ParseInt(os.Args[3], 10, 64)
		if err != nil {
			fmt.Fprintln(os.Stderr, "bad seed:", err)
			os.Exit(1)
		}
		seed = n
	}

	spawnList, err := data.LoadSpawnList(os.Args[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	dist, err := spawn.NewDistribution(spawnList.Elements)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	waveCfg, err := data.LoadWaveConfig(os.Args[2])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := waveCfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	cfg := config.Default()
	log := zap.NewNop()
	bus := event.NewBus()
	field := world.NewField(world.Camera{
		CenterX:    cfg.Field.CenterX,
		CenterY:    cfg.Field.CenterY,
		HalfWidth:  cfg.Field.HalfWidth,
		HalfHeight: cfg.Field.HalfHeight,
	}, spawnList.Placement)
	objects := pool.New(pool.TemplatesFrom(spawnList.Elements), nil, log)

	waves := system.NewWaveSystem(*waveCfg, dist, objects, field, bus, rand.New(rand.NewSource(seed)), log)
	lifecycle := system.NewLifecycle(bus, waves, objects, log)
	defer lifecycle.Close()

	clk := clock.NewManual(time.Unix(0, 0))
	machine := flow.New(bus, cfg.Game.MissLimit, clk, waves, log)
	defer machine.Close()

	runner := coresys.NewRunner()
	runner.Register(system.NewEventDispatchSystem(bus))
	runner.Register(waves)
	runner.Register(system.NewDriftSystem(objects, waves, nil, cfg.Field.FallSpeed))
	runner.Register(system.NewBoundarySystem(objects, field, waves, bus, log))

	rows := make([]waveRow, waveCfg.WaveCount)
	// CurrentWave runs one past the end once the run completes.
	row := func() *waveRow {
		return &rows[min(waves.Snapshot().CurrentWave, len(rows)-1)]
	}
	var last system.WaveRunState
	event.Subscribe(bus, func(event.ObjectMissed) { row().missed++ })
	var ended *event.RunEnded
	event.Subscribe(bus, func(ev event.RunEnded) { ended = &ev })

	machine.Fire(flow.Start)
	for i := 0; i < maxTicks && ended == nil; i++ {
		clk.Advance(tick)
		runner.Tick(tick)
		snap := waves.Snapshot()
		r := row()
		r.spawned += snap.Spawned - last.Spawned
		r.skipped += snap.Skipped - last.Skipped
		last = snap
	}

	fmt.Printf("seed %d, %d waves, %d templates, pool %d\n\n", seed, waveCfg.WaveCount, dist.Len(), objects.Len())
	fmt.Printf("%-6s %-8s %-8s %-8s %-8s\n", "wave", "ceiling", "spawned", "skipped", "missed")
	for w, r := range rows {
		fmt.Printf("%-6d %-8d %-8d %-8d %-8d\n", w+1, waveCfg.Ceiling(w), r.spawned, r.skipped, r.missed)
	}
	fmt.Println()
	if ended == nil {
		fmt.Println("run did not finish")
		os.Exit(1)
	}
	fmt.Printf("result %s after %s, %d missed, %d pool fallbacks\n",
		ended.Result, ended.EndedAt.Sub(ended.StartedAt), ended.Missed, objects.Fallbacks())
}

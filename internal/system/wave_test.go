package system

import (
	"math"
	"testing"
	"time"

	"github.com/squarefall/spawner/internal/data"
)

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

func TestSingleWaveEndToEnd(t *testing.T) {
	cfg := data.WaveConfig{
		WaveCount:            1,
		WaveDuration:         2,
		SpawnInterval:        1,
		DifficultyMultiplier: 1,
		BaseCeiling:          1,
		CeilingIncrement:     0,
	}
	h := newHarness(t, cfg, singleTemplate(1), nil)

	h.waves.Start()
	h.bus.Flush()
	if len(h.rec.waves) != 1 || h.rec.waves[0].Current != 1 || h.rec.waves[0].Total != 1 {
		t.Fatalf("wave events = %+v, want [{1 1}]", h.rec.waves)
	}

	for i := 0; i < 100 && h.waves.State() != WaveIdle; i++ {
		h.tick(100)
		if h.pool.ActiveCount() > 1 {
			t.Fatalf("tick %d: %d active, ceiling is 1", i, h.pool.ActiveCount())
		}
	}

	snap := h.waves.Snapshot()
	if snap.State != WaveIdle {
		t.Fatal("run did not complete")
	}
	if snap.Steps != 2 {
		t.Errorf("spawn steps = %d, want 2", snap.Steps)
	}
	// The first object is still on the field, so the second step has no room.
	if snap.Spawned != 1 {
		t.Errorf("spawned = %d, want 1", snap.Spawned)
	}
	if h.rec.completed != 1 {
		t.Errorf("AllWavesCompleted fired %d times, want 1", h.rec.completed)
	}
	want := []float64{0, 0.5, 1}
	if len(h.rec.progress) != len(want) {
		t.Fatalf("progress events = %+v", h.rec.progress)
	}
	for i, p := range h.rec.progress {
		if math.Abs(p.Progress-want[i]) > 1e-9 {
			t.Errorf("progress[%d] = %g, want %g", i, p.Progress, want[i])
		}
	}
}

func TestSingleWaveSpawnsTwiceWhenFieldClears(t *testing.T) {
	cfg := data.WaveConfig{WaveCount: 1, WaveDuration: 2, SpawnInterval: 1, DifficultyMultiplier: 1, BaseCeiling: 1}
	h := newHarness(t, cfg, singleTemplate(1), nil)

	h.waves.Start()
	h.tick(16)
	if h.pool.ActiveCount() != 1 {
		t.Fatalf("active after first step = %d", h.pool.ActiveCount())
	}
	h.pool.DeactivateAll()
	for h.waves.State() != WaveIdle {
		h.tick(250)
	}
	snap := h.waves.Snapshot()
	if snap.Steps != 2 || snap.Spawned != 2 {
		t.Errorf("steps=%d spawned=%d, want 2,2", snap.Steps, snap.Spawned)
	}
	if h.pool.Fallbacks() != 0 {
		t.Errorf("fallbacks = %d, want 0", h.pool.Fallbacks())
	}
}

func TestActiveNeverExceedsCeiling(t *testing.T) {
	cfg := data.WaveConfig{
		WaveCount:            3,
		WaveDuration:         2,
		SpawnInterval:        0.1,
		DifficultyMultiplier: 1,
		BaseCeiling:          2,
		CeilingIncrement:     1,
	}
	h := newHarness(t, cfg, singleTemplate(4), nil)
	h.waves.Start()

	for i := 0; i < 1000 && h.waves.State() != WaveIdle; i++ {
		h.tick(50)
		if h.waves.State() == WaveIdle {
			break
		}
		if got, limit := h.pool.ActiveCount(), h.waves.Ceiling(); got > limit {
			t.Fatalf("tick %d: active %d exceeds ceiling %d", i, got, limit)
		}
	}
	if h.rec.completed != 1 {
		t.Fatal("run did not complete")
	}
	if h.pool.ActiveCount() != 4 {
		t.Errorf("final active = %d, want last ceiling 4", h.pool.ActiveCount())
	}
	if len(h.rec.waves) != 3 {
		t.Errorf("wave events = %+v", h.rec.waves)
	}
}

func TestMultiplierGrowsPerWave(t *testing.T) {
	cfg := data.WaveConfig{WaveCount: 3, WaveDuration: 1, SpawnInterval: 1, DifficultyMultiplier: 2, BaseCeiling: 1}
	h := newHarness(t, cfg, singleTemplate(1), nil)
	h.waves.Start()
	h.tick(0) // wave 0 step at elapsed 0, waits 0.5s
	h.tick(500)
	h.tick(500) // wave 0 done, wave 1 first step
	snap := h.waves.Snapshot()
	if snap.CurrentWave != 1 {
		t.Fatalf("wave = %d, want 1", snap.CurrentWave)
	}
	if math.Abs(snap.Multiplier-2.3) > 1e-9 {
		t.Errorf("multiplier = %g, want 2.3", snap.Multiplier)
	}
	if len(h.rec.waves) != 2 || h.rec.waves[1].Current != 2 {
		t.Errorf("wave events = %+v", h.rec.waves)
	}
}

func TestPauseFreezesElapsed(t *testing.T) {
	cfg := data.WaveConfig{WaveCount: 1, WaveDuration: 10, SpawnInterval: 1, DifficultyMultiplier: 1, BaseCeiling: 5}
	h := newHarness(t, cfg, singleTemplate(5), nil)
	h.waves.Start()
	h.tick(0)
	h.tick(1000)
	h.tick(1000)
	h.tick(400)

	before := h.waves.Snapshot()
	if before.Elapsed != 2*time.Second {
		t.Fatalf("elapsed = %v, want 2s", before.Elapsed)
	}
	if !h.waves.Pause() {
		t.Fatal("Pause failed")
	}
	if h.waves.Pause() {
		t.Error("second Pause was not a no-op")
	}
	for i := 0; i < 50; i++ {
		h.tick(1000)
	}
	during := h.waves.Snapshot()
	if during.Elapsed != before.Elapsed || during.Steps != before.Steps || during.Spawned != before.Spawned {
		t.Fatalf("paused run advanced: before %+v during %+v", before, during)
	}

	if !h.waves.Resume() {
		t.Fatal("Resume failed")
	}
	// 400ms of the 1s wait were already spent before the pause.
	h.tick(500)
	if got := h.waves.Snapshot(); got.Elapsed != before.Elapsed {
		t.Errorf("elapsed moved to %v before the wait finished", got.Elapsed)
	}
	h.tick(100)
	if got := h.waves.Snapshot(); got.Elapsed != 3*time.Second || got.Steps != before.Steps+1 {
		t.Errorf("after resume elapsed=%v steps=%d, want 3s,%d", got.Elapsed, got.Steps, before.Steps+1)
	}
}

func TestStopThenStartResets(t *testing.T) {
	cfg := data.WaveConfig{WaveCount: 5, WaveDuration: 1, SpawnInterval: 0.5, DifficultyMultiplier: 1.5, BaseCeiling: 3, CeilingIncrement: 1}
	h := newHarness(t, cfg, singleTemplate(3), nil)
	h.waves.Start()
	for i := 0; i < 20; i++ {
		h.tick(100)
	}
	mid := h.waves.Snapshot()
	if mid.CurrentWave == 0 {
		t.Fatal("expected the run to reach a later wave")
	}

	if !h.waves.Stop() {
		t.Fatal("Stop failed")
	}
	if h.waves.Stop() {
		t.Error("second Stop was not a no-op")
	}
	stopped := h.waves.Snapshot()
	active := h.pool.ActiveCount()
	for i := 0; i < 50; i++ {
		h.tick(100)
	}
	if got := h.waves.Snapshot(); got.Spawned != stopped.Spawned || got.Steps != stopped.Steps {
		t.Errorf("spawning continued after Stop: %+v", got)
	}
	if h.pool.ActiveCount() != active {
		t.Error("pool changed after Stop")
	}

	h.waves.Start()
	fresh := h.waves.Snapshot()
	if fresh.CurrentWave != 0 || fresh.Multiplier != 1.5 || fresh.Elapsed != 0 || fresh.Spawned != 0 {
		t.Errorf("restart state = %+v", fresh)
	}
	if h.pool.ActiveCount() != active {
		t.Errorf("Start changed the pool: active = %d, want %d", h.pool.ActiveCount(), active)
	}
}

func TestStartWhileRunningPanics(t *testing.T) {
	h := newHarness(t, data.DefaultWaveConfig(), singleTemplate(1), nil)
	h.waves.Start()
	defer func() {
		if recover() == nil {
			t.Error("expected panic on double start")
		}
	}()
	h.waves.Start()
}

func TestSignalsFromIdleAreNoOps(t *testing.T) {
	h := newHarness(t, data.DefaultWaveConfig(), singleTemplate(1), nil)
	if h.waves.Pause() || h.waves.Resume() || h.waves.Stop() {
		t.Error("idle scheduler accepted a signal")
	}
	h.tick(1000)
	if h.waves.Snapshot().Steps != 0 {
		t.Error("idle scheduler stepped")
	}
}

func TestCatchUpAcrossLongTick(t *testing.T) {
	cfg := data.WaveConfig{WaveCount: 1, WaveDuration: 10, SpawnInterval: 1, DifficultyMultiplier: 1, BaseCeiling: 10}
	h := newHarness(t, cfg, singleTemplate(10), nil)
	h.waves.Start()
	h.tick(16)
	h.tick(3000)
	snap := h.waves.Snapshot()
	if snap.Steps != 4 || snap.Elapsed != 3*time.Second {
		t.Errorf("steps=%d elapsed=%v, want 4,3s", snap.Steps, snap.Elapsed)
	}
}

func TestDynamicSpawnCount(t *testing.T) {
	tests := []struct {
		wave int
		vals []float64
		want int
	}{
		{0, []float64{0.1}, 1},
		{3, []float64{0.1, 0.2, 0.9}, 3},
		{3, []float64{0.1, 0.1, 0.1}, 4},
		{3, []float64{0.5}, 1},
		{1, []float64{0.49}, 2},
	}
	for _, tt := range tests {
		h := newHarness(t, data.DefaultWaveConfig(), singleTemplate(1), &stubRand{vals: tt.vals})
		if got := h.waves.dynamicSpawnCount(tt.wave); got != tt.want {
			t.Errorf("dynamicSpawnCount(%d) with %v = %d, want %d", tt.wave, tt.vals, got, tt.want)
		}
	}
}

func TestNoSpawnGapIsCounted(t *testing.T) {
	cfg := data.WaveConfig{WaveCount: 1, WaveDuration: 3, SpawnInterval: 1, DifficultyMultiplier: 1, BaseCeiling: 2}
	elements := []data.SpawnElement{{Template: "square", MaxCount: 2, SpawnChance: 40}}
	// Every draw lands at 60%, above the 40% total.
	h := newHarness(t, cfg, elements, &stubRand{vals: []float64{0.6}})
	h.waves.Start()
	for h.waves.State() != WaveIdle {
		h.tick(500)
	}
	snap := h.waves.Snapshot()
	if snap.Attempts != 3 || snap.Skipped != 3 || snap.Spawned != 0 {
		t.Errorf("attempts=%d skipped=%d spawned=%d, want 3,3,0", snap.Attempts, snap.Skipped, snap.Spawned)
	}
	if h.pool.ActiveCount() != 0 {
		t.Error("no-spawn draws activated entries")
	}
}

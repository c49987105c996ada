package spawn

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/squarefall/spawner/internal/data"
)

func el(name string, max int, chance float64) data.SpawnElement {
	return data.SpawnElement{Template: name, MaxCount: max, SpawnChance: chance}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		elements []data.SpawnElement
		want     error
		msg      string
	}{
		{"empty", nil, ErrNoElements, "no spawn elements"},
		{"missing template", []data.SpawnElement{el("a", 1, 10), el("", 1, 10)},
			ErrMissingTemplate, "missing template at index 1"},
		{"zero max count", []data.SpawnElement{el("a", 0, 10)},
			ErrNonPositiveMaxCount, "non-positive maxCount at index 0"},
		{"negative chance", []data.SpawnElement{el("a", 1, 10), el("b", 1, 5), el("c", 1, -1)},
			ErrChanceOutOfRange, "spawn chance out of [0,100] at index 2"},
		{"chance above 100", []data.SpawnElement{el("a", 1, 101)},
			ErrChanceOutOfRange, "spawn chance out of [0,100] at index 0"},
		{"NaN chance", []data.SpawnElement{el("a", 1, 10), el("b", 1, math.NaN())},
			ErrChanceOutOfRange, "spawn chance out of [0,100] at index 1"},
		{"infinite chance", []data.SpawnElement{el("a", 1, math.Inf(1))},
			ErrChanceOutOfRange, "spawn chance out of [0,100] at index 0"},
		{"negative infinite chance", []data.SpawnElement{el("a", 1, math.Inf(-1))},
			ErrChanceOutOfRange, "spawn chance out of [0,100] at index 0"},
		{"total 120", []data.SpawnElement{el("a", 1, 60), el("b", 1, 60)},
			ErrTotalChanceExceeded, "total spawn chance exceeds 100% (120%)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.elements)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Validate() = %v, want %v", err, tt.want)
			}
			if err.Error() != tt.msg {
				t.Errorf("message = %q, want %q", err.Error(), tt.msg)
			}
			if _, err := NewDistribution(tt.elements); err == nil {
				t.Error("NewDistribution accepted an invalid config")
			}
		})
	}
}

func TestValidateAcceptsBoundaries(t *testing.T) {
	ok := [][]data.SpawnElement{
		{el("a", 1, 100)},
		{el("a", 1, 0)},
		{el("a", 1, 33.3), el("b", 1, 33.3), el("c", 1, 33.4)},
		{el("a", 3, 50), el("b", 1, 25)},
	}
	for i, elements := range ok {
		if err := Validate(elements); err != nil {
			t.Errorf("case %d: unexpected error %v", i, err)
		}
	}
}

func TestPickCumulativeTieBreak(t *testing.T) {
	d, err := NewDistribution([]data.SpawnElement{el("a", 1, 30), el("b", 1, 20), el("c", 1, 10)})
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		r    float64
		want int
		ok   bool
	}{
		{0, 0, true},
		{29.999, 0, true},
		{30, 0, true}, // cumulative 30 >= 30 stays on the first element
		{30.0001, 1, true},
		{50, 1, true},
		{50.5, 2, true},
		{60, 2, true},
		{60.0001, -1, false},
		{99.9, -1, false},
	}
	for _, tt := range tests {
		got, ok := d.Pick(tt.r)
		if got != tt.want || ok != tt.ok {
			t.Errorf("Pick(%g) = (%d,%v), want (%d,%v)", tt.r, got, ok, tt.want, tt.ok)
		}
	}
}

func TestSampleConverges(t *testing.T) {
	d, err := NewDistribution([]data.SpawnElement{el("a", 1, 50), el("b", 1, 20), el("c", 1, 10)})
	if err != nil {
		t.Fatal(err)
	}
	if d.NoSpawnChance() != 20 {
		t.Fatalf("NoSpawnChance() = %g, want 20", d.NoSpawnChance())
	}

	rng := rand.New(rand.NewSource(42))
	const n = 200000
	counts := make([]int, d.Len())
	none := 0
	for i := 0; i < n; i++ {
		idx, ok := d.Sample(rng)
		if !ok {
			none++
			continue
		}
		counts[idx]++
	}

	const tol = 0.01
	for i, c := range counts {
		want := d.Element(i).SpawnChance / 100
		got := float64(c) / n
		if math.Abs(got-want) > tol {
			t.Errorf("element %d frequency = %.4f, want %.4f", i, got, want)
		}
	}
	if got := float64(none) / n; math.Abs(got-0.2) > tol {
		t.Errorf("no-spawn frequency = %.4f, want 0.2", got)
	}
}

func TestFullWeightAlwaysSpawns(t *testing.T) {
	d, err := NewDistribution([]data.SpawnElement{el("a", 1, 70), el("b", 1, 30)})
	if err != nil {
		t.Fatal(err)
	}
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 10000; i++ {
		if _, ok := d.Sample(rng); !ok {
			t.Fatal("a 100% distribution returned no spawn")
		}
	}
}

func TestDistributionCopiesInput(t *testing.T) {
	in := []data.SpawnElement{el("a", 1, 40)}
	d, err := NewDistribution(in)
	if err != nil {
		t.Fatal(err)
	}
	in[0].Template = "mutated"
	if d.Element(0).Template != "a" {
		t.Error("distribution shares its input slice")
	}
	out := d.Elements()
	out[0].Template = "mutated"
	if d.Element(0).Template != "a" {
		t.Error("Elements() exposes internal storage")
	}
}

func TestNaNChanceFromYAMLRejected(t *testing.T) {
	list, err := data.ParseSpawnList([]byte("elements: [{template: a, max_count: 1, spawn_chance: .nan}]\n"))
	if err != nil {
		t.Fatalf("ParseSpawnList: %v", err)
	}
	if !math.IsNaN(list.Elements[0].SpawnChance) {
		t.Fatalf("SpawnChance = %v, want NaN", list.Elements[0].SpawnChance)
	}
	if _, err := NewDistribution(list.Elements); !errors.Is(err, ErrChanceOutOfRange) {
		t.Errorf("NewDistribution() = %v, want ErrChanceOutOfRange", err)
	}
}

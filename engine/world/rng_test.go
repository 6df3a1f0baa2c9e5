package world

import (
	"sync"
	"testing"
)

func TestRNG_Deterministic(t *testing.T) {
	rng1 := NewRNG(42)
	rng2 := NewRNG(42)

	for i := 0; i < 20; i++ {
		a := rng1.Roll(6)
		b := rng2.Roll(6)
		if a != b {
			t.Fatalf("roll %d: got %d and %d from same seed", i, a, b)
		}
	}
}

func TestRNG_Roll_Range(t *testing.T) {
	rng := NewRNG(99)

	for i := 0; i < 1000; i++ {
		r := rng.Roll(6)
		if r < 1 || r > 6 {
			t.Fatalf("roll out of range [1,6]: got %d", r)
		}
	}
}

func TestRNG_Chance_Bounds(t *testing.T) {
	rng := NewRNG(7)
	for i := 0; i < 100; i++ {
		if rng.Chance(0) {
			t.Fatal("Chance(0) returned true")
		}
		if !rng.Chance(1) {
			t.Fatal("Chance(1) returned false")
		}
	}
	if rng.Position() != 0 {
		t.Errorf("certain outcomes should not draw, position = %d", rng.Position())
	}
}

func TestRNG_WeightedSelect_Distribution(t *testing.T) {
	rng := NewRNG(12345)
	weights := []int{70, 20, 10}
	counts := [3]int{}

	const trials = 10000
	for i := 0; i < trials; i++ {
		idx := rng.WeightedSelect(weights)
		if idx < 0 || idx > 2 {
			t.Fatalf("index out of range: %d", idx)
		}
		counts[idx]++
	}

	if counts[0] < 6000 || counts[0] > 8000 {
		t.Errorf("expected ~7000 for weight 70, got %d", counts[0])
	}
	if counts[1] < 1000 || counts[1] > 3000 {
		t.Errorf("expected ~2000 for weight 20, got %d", counts[1])
	}
	if counts[2] < 200 || counts[2] > 1800 {
		t.Errorf("expected ~1000 for weight 10, got %d", counts[2])
	}
}

func TestRNG_RestoreContinuesSequence(t *testing.T) {
	rng := NewRNG(42)
	for i := 0; i < 17; i++ {
		rng.Intn(1000)
		rng.Float64()
	}

	restored := RestoreRNG(42, rng.Position())
	if restored.Position() != rng.Position() {
		t.Fatalf("position: got %d, want %d", restored.Position(), rng.Position())
	}
	for i := 0; i < 20; i++ {
		a, b := rng.Intn(1000), restored.Intn(1000)
		if a != b {
			t.Fatalf("draw %d after restore: got %d, want %d", i, b, a)
		}
	}
}

func TestRNG_ConcurrentDraws(t *testing.T) {
	rng := NewRNG(1)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				rng.Float64()
			}
		}()
	}
	wg.Wait()

	if rng.Position() < 4000 {
		t.Errorf("expected at least 4000 draws, got %d", rng.Position())
	}
}

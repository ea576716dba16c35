package random

import "testing"

func TestSameSeedSameSequence(t *testing.T) {
	a, b := New(42), New(42)
	for i := 0; i < 100; i++ {
		if x, y := a.Float64(), b.Float64(); x != y {
			t.Fatalf("draw %d diverged: %v != %v", i, x, y)
		}
	}
}

func TestUniformBounds(t *testing.T) {
	s := New(1)
	for i := 0; i < 1000; i++ {
		v := s.Uniform(-1.5, 0.5)
		if v < -1.5 || v >= 0.5 {
			t.Fatalf("value %v out of [-1.5, 0.5)", v)
		}
	}
}

func TestIntRangeInclusive(t *testing.T) {
	s := New(7)
	seen := map[int]bool{}
	for i := 0; i < 2000; i++ {
		v := s.IntRange(1, 10)
		if v < 1 || v > 10 {
			t.Fatalf("value %d out of [1, 10]", v)
		}
		seen[v] = true
	}
	if !seen[1] || !seen[10] {
		t.Errorf("expected both ends to be drawn, got %v", seen)
	}
	if got := s.IntRange(3, 3); got != 3 {
		t.Errorf("degenerate range: expected 3, got %d", got)
	}
}

func TestSampleDistinct(t *testing.T) {
	s := New(3)
	for i := 0; i < 100; i++ {
		idx := s.Sample(9, 5)
		if len(idx) != 5 {
			t.Fatalf("expected 5 indices, got %d", len(idx))
		}
		seen := map[int]bool{}
		for _, v := range idx {
			if v < 0 || v >= 9 {
				t.Fatalf("index %d out of range", v)
			}
			if seen[v] {
				t.Fatalf("duplicate index %d in %v", v, idx)
			}
			seen[v] = true
		}
	}
	if got := s.Sample(2, 5); len(got) != 2 {
		t.Errorf("k should be capped at n, got %v", got)
	}
	if got := s.Sample(0, 1); got != nil {
		t.Errorf("expected nil for empty population, got %v", got)
	}
}

func TestChanceExtremes(t *testing.T) {
	s := New(11)
	for i := 0; i < 100; i++ {
		if s.Chance(0) {
			t.Fatal("Chance(0) returned true")
		}
		if !s.Chance(1) {
			t.Fatal("Chance(1) returned false")
		}
	}
}

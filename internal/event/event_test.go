package event

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/marketgame/market-engine/internal/asset"
	"github.com/marketgame/market-engine/internal/random"
)

type book map[string]*asset.Asset

func (b book) Asset(id string) (*asset.Asset, bool) {
	a, ok := b[id]
	return a, ok
}

func newBook(t *testing.T, ids ...string) book {
	t.Helper()
	b := book{}
	for _, id := range ids {
		a, err := asset.Restore(id, asset.KindStock, id, "TST", decimal.NewFromInt(100), decimal.NewFromInt(100), 1.0)
		if err != nil {
			t.Fatalf("restore: %v", err)
		}
		b[id] = a
	}
	return b
}

func TestEvent_AppliesExactlyDurationTimes(t *testing.T) {
	b := newBook(t, "a", "b")
	e := New(CategoryEconomic, "Rate hike", "", 2, 3, []string{"a", "missing"})

	for day := 1; day <= 5; day++ {
		e.Apply(b)
	}
	if e.Active() {
		t.Fatal("event should be inactive after its duration")
	}
	if e.Remaining != 0 {
		t.Errorf("expected remaining 0, got %d", e.Remaining)
	}
	if got := len(b["a"].History()); got != 4 {
		t.Errorf("affected asset should be updated 3 times (history 4), got %d", got)
	}
	if got := len(b["b"].History()); got != 1 {
		t.Errorf("unaffected asset should not move, history %d", got)
	}
}

func TestEvent_RemainingCountsDown(t *testing.T) {
	b := newBook(t, "a")
	e := New(CategoryCompany, "Recall", "", -1, 3, []string{"a"})
	e.Apply(b)
	if e.Remaining != 2 || !e.Active() {
		t.Fatalf("after one day expected remaining 2 and active, got %d", e.Remaining)
	}
}

func TestNew_CopiesAffected(t *testing.T) {
	ids := []string{"a"}
	e := New(CategoryPolitical, "t", "d", 1, 1, ids)
	ids[0] = "changed"
	if e.AffectedAssets[0] != "a" {
		t.Error("event must not alias the caller's slice")
	}
}

func TestRumor_CredibilityRange(t *testing.T) {
	rng := random.New(9)
	for i := 0; i < 200; i++ {
		r := NewRumor("p", "a", RumorInsider, "x", false, 0.3, rng)
		if r.Credibility < MinCredibility || r.Credibility > MaxCredibility {
			t.Fatalf("credibility %v out of range", r.Credibility)
		}
		if r.Discovered {
			t.Fatal("new rumor must start undiscovered")
		}
	}
}

func TestRumor_ImpactSign(t *testing.T) {
	rng := random.New(2)
	tests := []struct {
		name       string
		isTrue     bool
		discovered bool
		negative   bool
	}{
		{"true undiscovered", true, false, false},
		{"true discovered flag", true, true, false},
		{"false undiscovered", false, false, false},
		{"false discovered", false, true, true},
	}
	for _, tt := range tests {
		r := &Rumor{True: tt.isTrue, Discovered: tt.discovered, Credibility: 0.5}
		for i := 0; i < 50; i++ {
			v := r.Impact(rng)
			if abs := max(v, -v); abs < 0.5 || abs > 2.5 {
				t.Fatalf("%s: magnitude %v outside [0.5, 2.5]", tt.name, abs)
			}
			if (v < 0) != tt.negative {
				t.Fatalf("%s: unexpected sign %v", tt.name, v)
			}
		}
	}
}

func TestRumor_DiscoveryIsSticky(t *testing.T) {
	rng := random.New(4)
	r := &Rumor{True: false, DiscoveryChance: 1}
	if !r.CheckDiscovery(rng) {
		t.Fatal("certain discovery should fire")
	}
	if !r.Discovered {
		t.Fatal("discovered flag should be set")
	}
	for i := 0; i < 10; i++ {
		if r.CheckDiscovery(rng) {
			t.Fatal("discovery must fire only once")
		}
	}
	if !r.Discovered {
		t.Fatal("discovered flag must never revert")
	}
}

func TestRumor_TrueRumorNeverDiscovered(t *testing.T) {
	rng := random.New(4)
	r := &Rumor{True: true, DiscoveryChance: 1}
	if r.CheckDiscovery(rng) || r.Discovered {
		t.Fatal("true rumors are never discovered")
	}
}

func TestRandom(t *testing.T) {
	rng := random.New(21)
	ids := []string{"a", "b", "c", "d", "e", "f", "g"}
	for i := 0; i < 200; i++ {
		e := Random(rng, ids)
		if e.Duration < MinRandomDuration || e.Duration > MaxRandomDuration {
			t.Fatalf("duration %d out of range", e.Duration)
		}
		if e.Remaining != e.Duration {
			t.Fatal("random event must start fully active")
		}
		if n := len(e.AffectedAssets); n < 1 || n > MaxRandomAssets {
			t.Fatalf("affected count %d out of range", n)
		}
		seen := map[string]bool{}
		for _, id := range e.AffectedAssets {
			if seen[id] {
				t.Fatalf("duplicate affected asset %s", id)
			}
			seen[id] = true
		}
		if m := max(e.Impact, -e.Impact); m < 0.1 || m > 1.0 {
			t.Fatalf("impact magnitude %v out of range", m)
		}
		if e.Title == "" || e.Description == "" {
			t.Fatal("expected a title and description")
		}
	}
	if Random(rng, nil) != nil {
		t.Error("no assets should yield no event")
	}
}

func TestParseTags(t *testing.T) {
	for _, c := range Categories {
		if got, err := ParseCategory(string(c)); err != nil || got != c {
			t.Errorf("ParseCategory(%q) = %q, %v", c, got, err)
		}
	}
	for _, k := range RumorKinds {
		if got, err := ParseRumorKind(string(k)); err != nil || got != k {
			t.Errorf("ParseRumorKind(%q) = %q, %v", k, got, err)
		}
	}
	if _, err := ParseCategory("WEATHER"); err == nil {
		t.Error("expected error for unknown category")
	}
}

package asset

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/marketgame/market-engine/internal/random"
)

func d(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

func mustAsset(t *testing.T, kind Kind, factor float64, price float64) *Asset {
	t.Helper()
	a, err := Restore("a-1", kind, "Test", "TST", d(price), d(price), factor)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	return a
}

func TestNew_FactorWithinKindRange(t *testing.T) {
	rng := random.New(5)
	for _, k := range Kinds {
		lo, hi, _ := k.FactorRange()
		for i := 0; i < 50; i++ {
			a, err := New(k, "Name", "ABC", d(10), rng)
			if err != nil {
				t.Fatalf("new %s: %v", k, err)
			}
			if a.Factor < lo || a.Factor > hi {
				t.Fatalf("%s factor %v outside [%v, %v]", k, a.Factor, lo, hi)
			}
			if a.ID == "" {
				t.Fatal("expected an id")
			}
		}
	}
}

func TestNew_Rejections(t *testing.T) {
	rng := random.New(1)
	if _, err := New(Kind("Bond"), "x", "BND", d(1), rng); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("expected ErrUnknownKind, got %v", err)
	}
	if _, err := New(KindStock, "x", "bad ticker", d(1), rng); !errors.Is(err, ErrInvalidTicker) {
		t.Errorf("expected ErrInvalidTicker, got %v", err)
	}
	if _, err := New(KindStock, "x", "ABC", d(0), rng); !errors.Is(err, ErrInvalidPrice) {
		t.Errorf("expected ErrInvalidPrice, got %v", err)
	}
}

func TestSensitivity(t *testing.T) {
	tests := []struct {
		kind   Kind
		factor float64
		want   float64
	}{
		{KindStock, 0.8, 0.8},
		{KindCrypto, 2.0, 2.0},
		{KindForex, 0.6, 0.6},
		{KindCommodity, 0.25, 0.75},
	}
	for _, tt := range tests {
		a := mustAsset(t, tt.kind, tt.factor, 100)
		if got := a.Sensitivity(); got != tt.want {
			t.Errorf("%s: expected sensitivity %v, got %v", tt.kind, tt.want, got)
		}
	}
}

func TestUpdatePrice_AppliesSensitivity(t *testing.T) {
	a := mustAsset(t, KindCrypto, 2.0, 100)
	a.UpdatePrice(10)
	if !a.CurrentPrice.Equal(d(120)) {
		t.Errorf("expected 120, got %s", a.CurrentPrice)
	}
	if !a.InitialPrice.Equal(d(100)) {
		t.Errorf("initial price must not move, got %s", a.InitialPrice)
	}
}

func TestHistoryGrowsByOnePerUpdate(t *testing.T) {
	a := mustAsset(t, KindStock, 0.7, 50)
	if len(a.History()) != 1 {
		t.Fatalf("expected seeded history of 1, got %d", len(a.History()))
	}
	for i := 1; i <= 20; i++ {
		a.UpdatePrice(float64(i%5) - 2)
		if got := len(a.History()); got != i+1 {
			t.Fatalf("after %d updates expected %d entries, got %d", i, i+1, got)
		}
	}
	h := a.History()
	if !h[len(h)-1].Price.Equal(a.CurrentPrice) {
		t.Errorf("last history entry %s should equal current price %s", h[len(h)-1].Price, a.CurrentPrice)
	}
	if !h[0].Price.Equal(d(50)) {
		t.Errorf("seed entry rewritten: %s", h[0].Price)
	}
}

func TestRumorImpactIsHalved(t *testing.T) {
	a := mustAsset(t, KindStock, 1.0, 100)
	b := mustAsset(t, KindStock, 1.0, 100)
	a.ApplyRumorImpact(8)
	b.ApplyEventImpact(4)
	if !a.CurrentPrice.Equal(b.CurrentPrice) {
		t.Errorf("rumor of 8 should equal event of 4: %s vs %s", a.CurrentPrice, b.CurrentPrice)
	}
}

func TestPriceFloor(t *testing.T) {
	a := mustAsset(t, KindCrypto, 3.0, 10)
	a.UpdatePrice(-50) // 1 - 1.5 = -0.5
	if !a.CurrentPrice.Equal(MinPrice) {
		t.Errorf("expected clamp to %s, got %s", MinPrice, a.CurrentPrice)
	}
	a.UpdatePrice(10)
	if !a.CurrentPrice.IsPositive() {
		t.Errorf("price must stay positive, got %s", a.CurrentPrice)
	}
}

func TestPreviousPrice(t *testing.T) {
	a := mustAsset(t, KindStock, 1.0, 100)
	if _, ok := a.PreviousPrice(); ok {
		t.Error("no previous price before the first update")
	}
	a.UpdatePrice(5)
	prev, ok := a.PreviousPrice()
	if !ok || !prev.Equal(d(100)) {
		t.Errorf("expected previous 100, got %s (%v)", prev, ok)
	}
}

func TestValidateTicker(t *testing.T) {
	valid := []string{"AAPL", "BTC", "EUR/USD", "XAU", "BRK.B", "НГК", "USD/UAH"}
	for _, tk := range valid {
		if err := ValidateTicker(tk); err != nil {
			t.Errorf("%q should be valid: %v", tk, err)
		}
	}
	invalid := []string{"", "aapl", "TOO LONG", "A/B/C", "ABCDEFGHIJKL"}
	for _, tk := range invalid {
		if err := ValidateTicker(tk); !errors.Is(err, ErrInvalidTicker) {
			t.Errorf("%q should be invalid, got %v", tk, err)
		}
	}
}

func TestParseKind(t *testing.T) {
	for _, k := range Kinds {
		got, err := ParseKind(string(k))
		if err != nil || got != k {
			t.Errorf("ParseKind(%q) = %q, %v", k, got, err)
		}
	}
	if _, err := ParseKind("Bond"); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("expected ErrUnknownKind, got %v", err)
	}
}

package strategy

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/marketgame/market-engine/internal/asset"
	"github.com/marketgame/market-engine/internal/ledger"
)

func d(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

func stock(t *testing.T, id string, initial, current float64) *asset.Asset {
	t.Helper()
	a, err := asset.Restore(id, asset.KindStock, id, "TST", d(current), d(initial), 1)
	if err != nil {
		t.Fatal(err)
	}
	return a
}

func TestValueInvestingPlan(t *testing.T) {
	p := ledger.NewPlayer("v", d(10000))
	cheap := stock(t, "cheap", 100, 70)
	fair := stock(t, "fair", 100, 90)
	edge := stock(t, "edge", 100, 80)

	orders := ValueInvesting{}.Plan(p, []*asset.Asset{cheap, fair, edge})
	if len(orders) != 1 {
		t.Fatalf("expected one order, got %+v", orders)
	}
	o := orders[0]
	// floor(10000*0.2/70) = 28
	if o.AssetID != "cheap" || !o.Quantity.Equal(d(28)) || !o.Price.Equal(d(70)) {
		t.Errorf("unexpected order %+v", o)
	}
}

func TestTrendFollowingPlan(t *testing.T) {
	p := ledger.NewPlayer("t", d(10000))
	up := stock(t, "up", 100, 100)
	up.UpdatePrice(10) // 110
	flat := stock(t, "flat", 100, 100)
	flat.UpdatePrice(5) // exactly +5% is not a breakout
	fresh := stock(t, "fresh", 100, 100)

	orders := TrendFollowing{}.Plan(p, []*asset.Asset{up, flat, fresh})
	if len(orders) != 1 {
		t.Fatalf("expected one order, got %+v", orders)
	}
	// floor(10000*0.15/110) = 13
	if orders[0].AssetID != "up" || !orders[0].Quantity.Equal(d(13)) {
		t.Errorf("unexpected order %+v", orders[0])
	}
}

func TestPlanSkipsUnaffordable(t *testing.T) {
	p := ledger.NewPlayer("poor", d(10))
	pricey := stock(t, "pricey", 1000, 500)
	if orders := (ValueInvesting{}).Plan(p, []*asset.Asset{pricey}); len(orders) != 0 {
		t.Errorf("a budget below one unit should yield no order, got %+v", orders)
	}
}

func TestExecute(t *testing.T) {
	p := ledger.NewPlayer("e", d(1000))
	a := stock(t, "a", 100, 50)
	b := stock(t, "b", 100, 40)

	filled := Execute(ValueInvesting{}, p, []*asset.Asset{a, b})
	if len(filled) != 2 {
		t.Fatalf("expected two fills, got %+v", filled)
	}
	// 4 units at 50 and 5 units at 40
	if !p.Capital.Equal(d(600)) {
		t.Errorf("expected capital 600, got %s", p.Capital)
	}
	if !p.Portfolio["a"].Equal(d(4)) || !p.Portfolio["b"].Equal(d(5)) {
		t.Errorf("unexpected portfolio %v", p.Portfolio)
	}
}

func TestByName(t *testing.T) {
	for _, name := range []string{"value", "trend"} {
		s, err := ByName(name)
		if err != nil || s.Name() != name {
			t.Errorf("ByName(%q) = %v, %v", name, s, err)
		}
	}
	if _, err := ByName("yolo"); !errors.Is(err, ErrUnknownStrategy) {
		t.Errorf("expected ErrUnknownStrategy, got %v", err)
	}
}

// Package strategy holds automated buying rules a player can run against
// the market.
package strategy

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/marketgame/market-engine/internal/asset"
	"github.com/marketgame/market-engine/internal/ledger"
)

// ErrUnknownStrategy is returned by ByName for an unrecognized name.
var ErrUnknownStrategy = errors.New("strategy: unknown strategy")

// Order is one buy a strategy wants placed.
type Order struct {
	AssetID  string          `json:"asset_id"`
	Quantity decimal.Decimal `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// Strategy turns the market's current prices into buy orders. Every order
// is sized from the player's capital at planning time.
type Strategy interface {
	Name() string
	Plan(p *ledger.Player, assets []*asset.Asset) []Order
}

// ValueInvesting buys assets trading below 80% of their initial price,
// spending up to 20% of capital on each.
type ValueInvesting struct{}

func (ValueInvesting) Name() string { return "value" }

var (
	valueDiscount = decimal.NewFromFloat(0.8)
	valueBudget   = decimal.NewFromFloat(0.2)
	trendBreakout = decimal.NewFromFloat(1.05)
	trendBudget   = decimal.NewFromFloat(0.15)
)

func (ValueInvesting) Plan(p *ledger.Player, assets []*asset.Asset) []Order {
	var orders []Order
	for _, a := range assets {
		if !a.CurrentPrice.LessThan(a.InitialPrice.Mul(valueDiscount)) {
			continue
		}
		if o, ok := size(p, a, valueBudget); ok {
			orders = append(orders, o)
		}
	}
	return orders
}

// TrendFollowing buys assets whose latest move was a gain of more than 5%,
// spending up to 15% of capital on each.
type TrendFollowing struct{}

func (TrendFollowing) Name() string { return "trend" }

func (TrendFollowing) Plan(p *ledger.Player, assets []*asset.Asset) []Order {
	var orders []Order
	for _, a := range assets {
		prev, ok := a.PreviousPrice()
		if !ok || !a.CurrentPrice.GreaterThan(prev.Mul(trendBreakout)) {
			continue
		}
		if o, ok := size(p, a, trendBudget); ok {
			orders = append(orders, o)
		}
	}
	return orders
}

// size buys as many whole units as budget*capital allows.
func size(p *ledger.Player, a *asset.Asset, budget decimal.Decimal) (Order, bool) {
	qty := p.Capital.Mul(budget).Div(a.CurrentPrice).Floor()
	if !qty.IsPositive() {
		return Order{}, false
	}
	return Order{AssetID: a.ID, Quantity: qty, Price: a.CurrentPrice}, true
}

// ByName resolves "value" or "trend".
func ByName(name string) (Strategy, error) {
	switch name {
	case "value":
		return ValueInvesting{}, nil
	case "trend":
		return TrendFollowing{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
}

// Execute plans with s and places every order in turn. Orders the player
// can no longer afford are skipped. It returns the orders that filled.
func Execute(s Strategy, p *ledger.Player, assets []*asset.Asset) []Order {
	var filled []Order
	for _, o := range s.Plan(p, assets) {
		if err := p.Buy(o.AssetID, o.Quantity, o.Price); err == nil {
			filled = append(filled, o)
		}
	}
	return filled
}

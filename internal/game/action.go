package game

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/marketgame/market-engine/internal/asset"
	"github.com/marketgame/market-engine/internal/event"
	"github.com/marketgame/market-engine/internal/ledger"
	"github.com/marketgame/market-engine/internal/market"
	"github.com/marketgame/market-engine/internal/metrics"
	"github.com/marketgame/market-engine/internal/strategy"
)

// ActionKind names a player action.
type ActionKind string

const (
	ActionBuy              ActionKind = "buy"
	ActionSell             ActionKind = "sell"
	ActionShort            ActionKind = "short"
	ActionCover            ActionKind = "cover"
	ActionSpreadRumor      ActionKind = "spread_rumor"
	ActionGetInvestment    ActionKind = "get_investment"
	ActionReturnInvestment ActionKind = "return_investment"
)

// Action is one player turn. Trades fill at the asset's current price.
type Action struct {
	Kind ActionKind `json:"kind"`

	AssetID  string          `json:"asset_id,omitempty"`
	Quantity decimal.Decimal `json:"quantity"`

	InvestorID string          `json:"investor_id,omitempty"`
	Amount     decimal.Decimal `json:"amount"`

	RumorKind event.RumorKind `json:"rumor_kind,omitempty"`
	Content   string          `json:"content,omitempty"`
	IsTrue    bool            `json:"is_true,omitempty"`
}

// Act performs a for the player. A refused action returns an error and
// changes nothing.
func (g *Game) Act(playerID string, a Action) error {
	p, err := g.Player(playerID)
	if err != nil {
		return err
	}
	if !p.Active() {
		return ErrPlayerInactive
	}

	err = g.act(p, a)
	if err != nil {
		metrics.TradeRejections.WithLabelValues(string(a.Kind)).Inc()
		g.logger.Debug("action refused", "player_id", p.ID, "kind", string(a.Kind), "err", err)
		return err
	}
	g.logger.Info("action",
		"player_id", p.ID,
		"kind", string(a.Kind),
		"asset_id", a.AssetID,
		"quantity", a.Quantity.String(),
		"capital", p.Capital.String(),
	)
	g.observe()
	return nil
}

func (g *Game) act(p *ledger.Player, a Action) error {
	switch a.Kind {
	case ActionBuy, ActionSell, ActionShort, ActionCover:
		target, err := g.lookupAsset(a.AssetID)
		if err != nil {
			return err
		}
		return g.trade(p, a.Kind, target, a.Quantity)

	case ActionSpreadRumor:
		if _, err := event.ParseRumorKind(string(a.RumorKind)); err != nil {
			return err
		}
		r, err := p.SpreadRumor(g.market, a.AssetID, a.RumorKind, a.Content, a.IsTrue)
		if err != nil {
			return err
		}
		metrics.RumorsTotal.WithLabelValues(fmt.Sprint(r.True)).Inc()
		if p.Prison {
			g.logger.Warn("player imprisoned", "player_id", p.ID, "name", p.Name)
		}
		return nil

	case ActionGetInvestment:
		inv, err := g.Investor(a.InvestorID)
		if err != nil {
			return err
		}
		return inv.Invest(p, a.Amount)

	case ActionReturnInvestment:
		inv, err := g.Investor(a.InvestorID)
		if err != nil {
			return err
		}
		return inv.Withdraw(p, a.Amount)
	}
	return fmt.Errorf("%w: %q", ErrUnknownAction, a.Kind)
}

func (g *Game) lookupAsset(id string) (*asset.Asset, error) {
	a, ok := g.market.Asset(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", market.ErrUnknownAsset, id)
	}
	return a, nil
}

func (g *Game) trade(p *ledger.Player, kind ActionKind, a *asset.Asset, qty decimal.Decimal) error {
	var (
		op   func(assetID string, qty, price decimal.Decimal) error
		side ledger.Side
	)
	switch kind {
	case ActionBuy:
		op, side = p.Buy, ledger.SideBuy
	case ActionSell:
		op, side = p.Sell, ledger.SideSell
	case ActionShort:
		op, side = p.Short, ledger.SideShort
	default:
		op, side = p.Cover, ledger.SideCover
	}
	if err := op(a.ID, qty, a.CurrentPrice); err != nil {
		return err
	}
	metrics.TradesTotal.WithLabelValues(string(side)).Inc()
	return nil
}

// RunStrategy runs the named strategy for the player and returns the
// orders that filled.
func (g *Game) RunStrategy(playerID, name string) ([]strategy.Order, error) {
	p, err := g.Player(playerID)
	if err != nil {
		return nil, err
	}
	if !p.Active() {
		return nil, ErrPlayerInactive
	}
	s, err := strategy.ByName(name)
	if err != nil {
		return nil, err
	}

	filled := strategy.Execute(s, p, g.market.Assets())
	metrics.TradesTotal.WithLabelValues(string(ledger.SideBuy)).Add(float64(len(filled)))
	if len(filled) > 0 {
		g.logger.Info("strategy executed", "player_id", p.ID, "strategy", s.Name(), "orders", len(filled))
	}
	return filled, nil
}

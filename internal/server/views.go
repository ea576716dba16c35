package server

import (
	"github.com/shopspring/decimal"

	"github.com/marketgame/market-engine/internal/asset"
	"github.com/marketgame/market-engine/internal/event"
	"github.com/marketgame/market-engine/internal/game"
	"github.com/marketgame/market-engine/internal/ledger"
)

// AssetView is the public view of an asset.
type AssetView struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Ticker       string          `json:"ticker"`
	Type         string          `json:"type"`
	CurrentPrice decimal.Decimal `json:"current_price"`
	InitialPrice decimal.Decimal `json:"initial_price"`
	// ChangePct is the move since the game started, in percent.
	ChangePct decimal.Decimal `json:"change_pct"`
}

var hundred = decimal.NewFromInt(100)

func assetView(a *asset.Asset) AssetView {
	change := decimal.Zero
	if a.InitialPrice.IsPositive() {
		change = a.CurrentPrice.Sub(a.InitialPrice).Div(a.InitialPrice).Mul(hundred).Round(2)
	}
	return AssetView{
		ID:           a.ID,
		Name:         a.Name,
		Ticker:       a.Ticker,
		Type:         string(a.Kind),
		CurrentPrice: a.CurrentPrice,
		InitialPrice: a.InitialPrice,
		ChangePct:    change,
	}
}

// InvestorView is the public view of an investor.
type InvestorView struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Capital        decimal.Decimal `json:"capital"`
	RiskTolerance  float64         `json:"risk_tolerance"`
	Satisfaction   float64         `json:"satisfaction"`
	ExpectedReturn float64         `json:"expected_return"`
}

// StateView is the public game state. Rumor truth stays hidden.
type StateView struct {
	Day        int             `json:"day"`
	Regime     string          `json:"regime"`
	Volatility float64         `json:"volatility"`
	Over       bool            `json:"game_over"`
	Assets     []AssetView     `json:"assets"`
	Events     []*event.Event  `json:"events"`
	Rumors     []*event.Rumor  `json:"rumors"`
	Investors  []InvestorView  `json:"investors"`
	Standings  []game.Standing `json:"standings"`
}

func stateView(g *game.Game) StateView {
	m := g.Market()
	v := StateView{
		Day:        m.Day(),
		Regime:     m.Regime().Name(),
		Volatility: m.Volatility,
		Over:       g.Over(),
		Assets:     []AssetView{},
		Events:     m.ActiveEvents(),
		Rumors:     m.Rumors(),
		Investors:  []InvestorView{},
		Standings:  g.Standings(),
	}
	for _, a := range m.Assets() {
		v.Assets = append(v.Assets, assetView(a))
	}
	for _, inv := range g.Investors() {
		v.Investors = append(v.Investors, InvestorView{
			ID:             inv.ID,
			Name:           inv.Name,
			Capital:        inv.Capital,
			RiskTolerance:  inv.RiskTolerance,
			Satisfaction:   inv.Satisfaction,
			ExpectedReturn: inv.ExpectedReturn(),
		})
	}
	if v.Events == nil {
		v.Events = []*event.Event{}
	}
	return v
}

// PlayerView is a player's account valued at current prices.
type PlayerView struct {
	ID             string                          `json:"id"`
	Name           string                          `json:"name"`
	Capital        decimal.Decimal                 `json:"capital"`
	NetWorth       decimal.Decimal                 `json:"net_worth"`
	RequiredMargin decimal.Decimal                 `json:"required_margin"`
	Portfolio      map[string]decimal.Decimal      `json:"portfolio"`
	ShortPositions map[string]ledger.ShortPosition `json:"short_positions"`
	InvestorFunds  map[string]decimal.Decimal      `json:"investor_funds"`
	Reputation     float64                         `json:"reputation"`
	GameOver       bool                            `json:"game_over"`
	Prison         bool                            `json:"prison"`
	Trades         []ledger.Trade                  `json:"trades"`
}

func playerView(p *ledger.Player, assets asset.Lookup) PlayerView {
	return PlayerView{
		ID:             p.ID,
		Name:           p.Name,
		Capital:        p.Capital,
		NetWorth:       p.NetWorth(assets),
		RequiredMargin: p.RequiredMargin(assets),
		Portfolio:      p.Portfolio,
		ShortPositions: p.Shorts,
		InvestorFunds:  p.InvestorFunds,
		Reputation:     p.Reputation,
		GameOver:       p.GameOver,
		Prison:         p.Prison,
		Trades:         p.Trades(),
	}
}

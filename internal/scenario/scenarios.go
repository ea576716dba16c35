package scenario

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/marketgame/market-engine/internal/asset"
	"github.com/marketgame/market-engine/internal/event"
	"github.com/marketgame/market-engine/internal/market"
	"github.com/marketgame/market-engine/internal/random"
)

// Func builds a stock scenario.
type Func func(b *Builder) *Builder

var registry = map[string]Func{
	"default":     Default,
	"hard":        Hard,
	"multiplayer": Multiplayer,
}

// Names lists the stock scenarios.
func Names() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Build creates the named stock scenario.
func Build(name string, cfg market.Config, rng *random.Source, logger *slog.Logger, inboxWindow int) (*Scenario, error) {
	fn, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("scenario: unknown scenario %q", name)
	}
	return fn(NewBuilder(cfg, rng, logger).WithInboxWindow(inboxWindow)).Build()
}

// Default is the single-player game with a broad market.
func Default(b *Builder) *Builder {
	return b.
		AddPlayer("Trader", 10000).
		AddAsset(asset.KindStock, "Oil & Gas Corporation", "OGC", 125.50).
		AddAsset(asset.KindStock, "TechInnovations", "TINN", 320.75).
		AddAsset(asset.KindStock, "Prombank", "PRBK", 85.20).
		AddAsset(asset.KindCrypto, "Bitcoin", "BTC", 28500).
		AddAsset(asset.KindCrypto, "Ethereum", "ETH", 1850).
		AddAsset(asset.KindForex, "Euro/Hryvnia", "EUR/UAH", 43.25).
		AddAsset(asset.KindForex, "Dollar/Hryvnia", "USD/UAH", 40.10).
		AddAsset(asset.KindCommodity, "Gold", "XAU", 2100).
		AddAsset(asset.KindCommodity, "Crude Oil", "OIL", 78.35).
		AddInvestor("Oleg Capital", 50000, 0.3).
		AddInvestor("Invest Group", 75000, 0.6).
		AddInvestor("Risk Ventures", 25000, 0.9).
		AddStoryEvent(event.CategoryPolitical, "Policy shift",
			"The new government announced a change of economic course.", 3.5, 5, "OGC", "PRBK").
		AddStoryEvent(event.CategoryEconomic, "Rate change",
			"The central bank raised its key rate.", -2.0, 3, "PRBK", "EUR/UAH", "USD/UAH").
		AddStoryEvent(event.CategoryTechnological, "Breakthrough technology",
			"A breakthrough in artificial intelligence was announced.", 5.0, 4, "TINN").
		AddStoryEvent(event.CategoryCompany, "Bank scandal",
			"Financial fraud was uncovered at a major bank.", -7.0, 6, "PRBK").
		AddStoryEvent(event.CategoryEconomic, "Oil crisis",
			"Production cuts sent oil prices higher.", 4.5, 7, "OGC", "OIL")
}

// Hard starts one player with less capital in a crashing market.
func Hard(b *Builder) *Builder {
	return b.
		AddPlayer("Rookie", 5000).
		AddAsset(asset.KindStock, "Innovation Startup", "STRT", 45.75).
		AddAsset(asset.KindStock, "Biotech", "BIOT", 220.5).
		AddAsset(asset.KindCrypto, "CryptoToken", "KT", 0.075).
		AddAsset(asset.KindCrypto, "GeeToken", "DT", 12.5).
		AddAsset(asset.KindForex, "Pound/Hryvnia", "GBP/UAH", 52.15).
		AddAsset(asset.KindCommodity, "Silver", "XAG", 28.75).
		AddInvestor("VentureCapital", 30000, 0.9).
		AddStoryEvent(event.CategoryEconomic, "Economic crisis",
			"A sudden financial crisis set off panic in the markets.", -8.0, 8,
			"STRT", "BIOT", "KT", "DT", "GBP/UAH", "XAG").
		AddStoryEvent(event.CategoryPolitical, "Geopolitical conflict",
			"An international conflict destabilized the markets.", -5.0, 5, "GBP/UAH", "XAG")
}

// Multiplayer seats two players in a small market.
func Multiplayer(b *Builder) *Builder {
	return b.
		AddPlayer("Player 1", 10000).
		AddPlayer("Player 2", 10000).
		AddAsset(asset.KindStock, "Tech Company", "TK", 150.25).
		AddAsset(asset.KindStock, "Energy", "ENG", 85.5).
		AddAsset(asset.KindCrypto, "Blockchain Token", "BT", 5.75).
		AddAsset(asset.KindForex, "Euro/Dollar", "EUR/USD", 1.12).
		AddAsset(asset.KindCommodity, "Copper", "CU", 4.55).
		AddInvestor("Investment Bank", 100000, 0.5).
		AddStoryEvent(event.CategoryTechnological, "Tech breakthrough",
			"A new invention opens big investment opportunities.", 6.0, 4, "TK", "BT").
		AddStoryEvent(event.CategoryCompany, "Merger",
			"Two large companies announced a merger.", 4.0, 5, "ENG")
}

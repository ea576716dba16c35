package market

import "github.com/marketgame/market-engine/internal/regime"

// Config holds the market's tunables.
type Config struct {
	// RegimeSwitchChance is the daily probability of switching to another regime.
	RegimeSwitchChance float64
	// RandomEventChance is the probability GenerateRandomEvent synthesizes an event.
	RandomEventChance float64
	// MinRumorReputation is the reputation below which players cannot spread rumors.
	MinRumorReputation float64
	// TrueRumorDiscovery is the discovery chance assigned to true rumors.
	TrueRumorDiscovery float64
	// FalseRumorBase and FalseRumorSlope give a false rumor's discovery
	// chance as base - reputation*slope.
	FalseRumorBase  float64
	FalseRumorSlope float64
	// Volatility is the balancing scalar (0 stable .. 1 chaotic). Regimes do
	// not read it.
	Volatility float64
	// InitialRegime is the regime a new market starts in.
	InitialRegime regime.Regime
}

// DefaultConfig returns the standard game balance.
func DefaultConfig() Config {
	return Config{
		RegimeSwitchChance: 0.05,
		RandomEventChance:  0.3,
		MinRumorReputation: 0.2,
		TrueRumorDiscovery: 0.1,
		FalseRumorBase:     0.4,
		FalseRumorSlope:    0.3,
		Volatility:         0.5,
		InitialRegime:      regime.Bull,
	}
}

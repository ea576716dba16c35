// Package regime implements the market-wide behavior modes. A Regime is a
// passive strategy: it decides daily drift and shock amplification, while
// the market decides when to switch between regimes.
package regime

import (
	"errors"
	"fmt"

	"github.com/marketgame/market-engine/internal/asset"
	"github.com/marketgame/market-engine/internal/event"
	"github.com/marketgame/market-engine/internal/random"
)

// ErrUnknownRegime is returned when a persisted regime name is not recognized.
var ErrUnknownRegime = errors.New("regime: unknown regime")

// Regime is one of Bull, Bear or Volatile.
type Regime uint8

const (
	Bull Regime = iota
	Bear
	Volatile
)

// All lists every regime.
var All = []Regime{Bull, Bear, Volatile}

// Name returns the stable display name used in save files.
func (r Regime) Name() string {
	switch r {
	case Bull:
		return "Bull"
	case Bear:
		return "Bear"
	case Volatile:
		return "Volatile"
	default:
		return "Unknown"
	}
}

func (r Regime) String() string { return r.Name() }

// Parse resolves a display name back to a regime.
func Parse(name string) (Regime, error) {
	for _, r := range All {
		if r.Name() == name {
			return r, nil
		}
	}
	return Bull, fmt.Errorf("%w: %q", ErrUnknownRegime, name)
}

// Others returns every regime except r.
func (r Regime) Others() []Regime {
	out := make([]Regime, 0, len(All)-1)
	for _, o := range All {
		if o != r {
			out = append(out, o)
		}
	}
	return out
}

// DriftRange is the interval the daily percentage change is drawn from.
func (r Regime) DriftRange() (lo, hi float64) {
	switch r {
	case Bear:
		return -1.5, 0.5
	case Volatile:
		return -2.0, 2.0
	default:
		return -0.5, 1.5
	}
}

// AdjustEventImpact amplifies or dampens an event impact.
func (r Regime) AdjustEventImpact(impact float64) float64 {
	switch r {
	case Bull:
		if impact > 0 {
			return impact * 1.5
		}
		return impact * 0.7
	case Bear:
		if impact < 0 {
			return impact * 1.5
		}
		return impact * 0.7
	default:
		return impact * 1.8
	}
}

// AdjustRumorImpact boosts a rumor impact in the regime's direction.
func (r Regime) AdjustRumorImpact(impact float64) float64 {
	switch r {
	case Bull:
		if impact > 0 {
			return impact * 1.3
		}
	case Bear:
		if impact < 0 {
			return impact * 1.3
		}
	case Volatile:
		return impact * 2.0
	}
	return impact
}

// UpdatePrices applies one day of random drift to every asset.
func (r Regime) UpdatePrices(assets []*asset.Asset, rng *random.Source) {
	lo, hi := r.DriftRange()
	for _, a := range assets {
		a.UpdatePrice(rng.Uniform(lo, hi))
	}
}

// ProcessEvent applies the regime-adjusted impact of e to its affected
// assets. Unlike Event.Apply it does not consume duration.
func (r Regime) ProcessEvent(assets asset.Lookup, e *event.Event) {
	impact := r.AdjustEventImpact(e.Impact)
	for _, id := range e.AffectedAssets {
		if a, ok := assets.Asset(id); ok {
			a.ApplyEventImpact(impact)
		}
	}
}

// ProcessRumor draws the rumor's impact, adjusts it and applies it to the
// target asset. It returns the adjusted impact.
func (r Regime) ProcessRumor(assets asset.Lookup, rumor *event.Rumor, rng *random.Source) float64 {
	impact := r.AdjustRumorImpact(rumor.Impact(rng))
	if a, ok := assets.Asset(rumor.AssetID); ok {
		a.ApplyRumorImpact(impact)
	}
	return impact
}

package game

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/marketgame/market-engine/internal/event"
)

// Feedback values. Empty fields leave that aspect alone.
const (
	DifficultyEasier = "easier"
	DifficultyHarder = "harder"

	StoryMoreUnpredictable = "more_unpredictable"
	StoryMoreRealistic     = "more_realistic"

	InvestorsMoreForgiving = "more_forgiving"
	InvestorsMoreDemanding = "more_demanding"
)

// CapitalFloor is the capital struggling players are lifted to when the
// game is made easier.
var CapitalFloor = decimal.NewFromInt(5000)

// Feedback is player feedback used to rebalance a running game.
type Feedback struct {
	Difficulty        string `json:"difficulty,omitempty"`
	StoryFeedback     string `json:"story_feedback,omitempty"`
	InvestorMechanics string `json:"investor_mechanics,omitempty"`
}

func (f Feedback) validate() error {
	check := func(v string, allowed ...string) error {
		if v == "" {
			return nil
		}
		for _, a := range allowed {
			if v == a {
				return nil
			}
		}
		return fmt.Errorf("%w: %q", ErrUnknownFeedback, v)
	}
	if err := check(f.Difficulty, DifficultyEasier, DifficultyHarder); err != nil {
		return err
	}
	if err := check(f.StoryFeedback, StoryMoreUnpredictable, StoryMoreRealistic); err != nil {
		return err
	}
	return check(f.InvestorMechanics, InvestorsMoreForgiving, InvestorsMoreDemanding)
}

// ApplyFeedback rebalances the game. Unknown values are rejected before
// anything changes.
func (g *Game) ApplyFeedback(f Feedback) error {
	if err := f.validate(); err != nil {
		return err
	}
	m := g.market

	switch f.Difficulty {
	case DifficultyEasier:
		m.Volatility *= 0.7
		for _, p := range g.players {
			if p.Capital.LessThan(CapitalFloor) {
				p.Capital = CapitalFloor
			}
		}
	case DifficultyHarder:
		m.Volatility *= 1.5
		for _, r := range m.Rumors() {
			if !r.True && !r.Discovered {
				r.DiscoveryChance *= 0.7
			}
		}
	}

	switch f.StoryFeedback {
	case StoryMoreUnpredictable:
		ids := m.AssetIDs()
		picked := make([]string, 0, 3)
		for _, i := range g.rng.Sample(len(ids), 3) {
			picked = append(picked, ids[i])
		}
		g.story = append(g.story, event.New(
			event.Categories[g.rng.Pick(len(event.Categories))],
			"Unexpected turn of events",
			"A sudden and unforeseen development shakes the market!",
			g.rng.Uniform(-10, 10),
			g.rng.IntRange(3, 7),
			picked,
		))
	case StoryMoreRealistic:
		kept := g.story[:0]
		for _, e := range g.story {
			if e.Impact > -5 && e.Impact < 5 {
				kept = append(kept, e)
			}
		}
		g.story = kept
	}

	switch f.InvestorMechanics {
	case InvestorsMoreForgiving:
		for _, inv := range g.investors {
			inv.Satisfaction = max(0.4, inv.Satisfaction)
			inv.RiskTolerance = min(1, inv.RiskTolerance+0.1)
		}
	case InvestorsMoreDemanding:
		for _, inv := range g.investors {
			inv.Satisfaction = min(0.8, inv.Satisfaction)
			inv.RiskTolerance = max(0, inv.RiskTolerance-0.1)
		}
	}

	g.logger.Info("feedback applied",
		"difficulty", f.Difficulty,
		"story", f.StoryFeedback,
		"investors", f.InvestorMechanics,
		"volatility", m.Volatility,
	)
	return nil
}

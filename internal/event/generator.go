package event

import (
	"github.com/marketgame/market-engine/internal/random"
)

var titles = map[Category][]string{
	CategoryPolitical: {
		"Election results announced",
		"New trade policy",
		"Political unrest",
		"International conflict",
	},
	CategoryEconomic: {
		"Interest rate change",
		"GDP growth report",
		"Unemployment figures",
		"Inflation spike",
	},
	CategoryTechnological: {
		"Major innovation announced",
		"Cybersecurity breach",
		"New tech regulation",
		"Product launch",
	},
	CategoryCompany: {
		"CEO resignation",
		"Earnings report",
		"Merger announcement",
		"Product recall",
	},
}

// Limits for randomly generated events.
const (
	MinRandomDuration = 1
	MaxRandomDuration = 10
	MaxRandomAssets   = 5
)

// Random synthesizes an event over 1 to MaxRandomAssets distinct assets
// drawn from assetIDs. It returns nil when assetIDs is empty.
func Random(rng *random.Source, assetIDs []string) *Event {
	if len(assetIDs) == 0 {
		return nil
	}
	category := Categories[rng.Pick(len(Categories))]

	severity := rng.Uniform(0.1, 1.0)
	duration := rng.IntRange(MinRandomDuration, MaxRandomDuration)

	count := rng.IntRange(1, min(MaxRandomAssets, len(assetIDs)))
	affected := make([]string, 0, count)
	for _, i := range rng.Sample(len(assetIDs), count) {
		affected = append(affected, assetIDs[i])
	}

	impact := severity
	if rng.Chance(0.5) {
		impact = -severity
	}

	options := titles[category]
	title := options[rng.Pick(len(options))]
	return New(category, title, title+": this event moves the markets.", impact, duration, affected)
}

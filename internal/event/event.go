// Package event models the time-boxed market shocks (events) and the
// player-spread information items (rumors) that move asset prices.
package event

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/marketgame/market-engine/internal/asset"
	"github.com/marketgame/market-engine/internal/random"
)

var (
	ErrUnknownCategory  = errors.New("event: unknown category")
	ErrUnknownRumorKind = errors.New("event: unknown rumor kind")
)

// Category classifies an event. Values are the persisted tags.
type Category string

const (
	CategoryPolitical     Category = "POLITICAL"
	CategoryEconomic      Category = "ECONOMIC"
	CategoryTechnological Category = "TECHNOLOGICAL"
	CategoryCompany       Category = "COMPANY"
)

// Categories lists every event category.
var Categories = []Category{CategoryPolitical, CategoryEconomic, CategoryTechnological, CategoryCompany}

// ParseCategory validates a persisted category tag.
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w %q", ErrUnknownCategory, s)
}

// Event is a market shock that hits its affected assets once per day for
// Duration days.
type Event struct {
	ID             string   `json:"id"`
	Category       Category `json:"category"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Impact         float64  `json:"impact"` // signed percentage
	Duration       int      `json:"duration"`
	Remaining      int      `json:"remaining"`
	AffectedAssets []string `json:"affected_assets"`
}

// New creates an active event with Remaining equal to duration.
func New(category Category, title, description string, impact float64, duration int, affected []string) *Event {
	ids := make([]string, len(affected))
	copy(ids, affected)
	return &Event{
		ID:             uuid.New().String(),
		Category:       category,
		Title:          title,
		Description:    description,
		Impact:         impact,
		Duration:       duration,
		Remaining:      duration,
		AffectedAssets: ids,
	}
}

// Active reports whether the event still has days left.
func (e *Event) Active() bool {
	return e.Remaining > 0
}

// Apply hits every affected asset still in the market with the raw impact
// and consumes one day of duration. It is a no-op once inactive. This is the
// only place duration is consumed, so it must run once per day.
func (e *Event) Apply(assets asset.Lookup) {
	if !e.Active() {
		return
	}
	for _, id := range e.AffectedAssets {
		if a, ok := assets.Asset(id); ok {
			a.ApplyEventImpact(e.Impact)
		}
	}
	e.Remaining--
}

// RumorKind classifies a rumor. Values are the persisted tags.
type RumorKind string

const (
	RumorInsider         RumorKind = "INSIDER"
	RumorNewsLeak        RumorKind = "NEWS_LEAK"
	RumorMarketSentiment RumorKind = "MARKET_SENTIMENT"
)

// RumorKinds lists every rumor kind.
var RumorKinds = []RumorKind{RumorInsider, RumorNewsLeak, RumorMarketSentiment}

// ParseRumorKind validates a persisted rumor tag.
func ParseRumorKind(s string) (RumorKind, error) {
	for _, k := range RumorKinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w %q", ErrUnknownRumorKind, s)
}

// Credibility bounds for freshly spread rumors.
const (
	MinCredibility = 0.2
	MaxCredibility = 0.8
)

// Rumor is a piece of information, true or not, spread by a player about
// one asset.
type Rumor struct {
	ID              string    `json:"id"`
	CreatorID       string    `json:"creator_id"`
	AssetID         string    `json:"asset_id"`
	Kind            RumorKind `json:"kind"`
	Content         string    `json:"content"`
	True            bool      `json:"-"`
	Credibility     float64   `json:"credibility"`
	DiscoveryChance float64   `json:"-"`
	Discovered      bool      `json:"discovered"`
	CreatedAt       time.Time `json:"created_at"`
}

// NewRumor creates an undiscovered rumor with a random credibility.
func NewRumor(creatorID, assetID string, kind RumorKind, content string, isTrue bool, discoveryChance float64, rng *random.Source) *Rumor {
	return &Rumor{
		ID:              uuid.New().String(),
		CreatorID:       creatorID,
		AssetID:         assetID,
		Kind:            kind,
		Content:         content,
		True:            isTrue,
		Credibility:     rng.Uniform(MinCredibility, MaxCredibility),
		DiscoveryChance: discoveryChance,
		CreatedAt:       time.Now(),
	}
}

// Impact draws a fresh magnitude in [1, 5) scaled by credibility. Only a
// false rumor that has been discovered pushes the price down.
func (r *Rumor) Impact(rng *random.Source) float64 {
	base := rng.Uniform(1.0, 5.0)
	if !r.True && r.Discovered {
		return -base * r.Credibility
	}
	return base * r.Credibility
}

// CheckDiscovery runs one discovery trial for an undiscovered false rumor.
// It returns true only on the call that flips Discovered; discovery is
// permanent.
func (r *Rumor) CheckDiscovery(rng *random.Source) bool {
	if r.True || r.Discovered {
		return false
	}
	if rng.Chance(r.DiscoveryChance) {
		r.Discovered = true
		return true
	}
	return false
}

// Package model defines the persisted game-state records.
// All monetary values use shopspring/decimal, never float64 for money.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// GameState is one saved game. Field names are the save-file contract.
type GameState struct {
	Day         int              `json:"day"`
	MarketState string           `json:"market_state"` // "Bull", "Bear" or "Volatile"
	Assets      []AssetRecord    `json:"assets"`
	Players     []PlayerRecord   `json:"players"`
	Investors   []InvestorRecord `json:"investors"`
	Events      []EventRecord    `json:"events"` // active only
	Rumors      []RumorRecord    `json:"rumors"`

	// StoryEvents are events not yet injected into the market.
	StoryEvents []EventRecord `json:"story_events,omitempty"`
	Volatility  *float64      `json:"volatility,omitempty"`
	SavedAt     time.Time     `json:"saved_at"`
}

// AssetRecord is a persisted asset.
type AssetRecord struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Ticker       string          `json:"ticker"`
	CurrentPrice decimal.Decimal `json:"current_price"`
	InitialPrice decimal.Decimal `json:"initial_price"`
	Type         string          `json:"type"` // Stock, Cryptocurrency, ForexPair, Commodity
	// Sensitivity is the raw kind factor. Absent in older saves, in which
	// case it is drawn again on load.
	Sensitivity *float64 `json:"sensitivity,omitempty"`
}

// ShortRecord is a persisted short position.
type ShortRecord struct {
	Quantity   decimal.Decimal `json:"quantity"`
	EntryPrice decimal.Decimal `json:"entry_price"`
}

// PlayerRecord is a persisted player.
type PlayerRecord struct {
	ID             string                     `json:"id"`
	Name           string                     `json:"name"`
	Capital        decimal.Decimal            `json:"capital"`
	Portfolio      map[string]decimal.Decimal `json:"portfolio"`
	ShortPositions map[string]ShortRecord     `json:"short_positions"`
	Reputation     float64                    `json:"reputation"`
	InvestorFunds  map[string]decimal.Decimal `json:"investor_funds"`
	GameOver       bool                       `json:"game_over"`
	Prison         bool                       `json:"prison"`
}

// InvestorRecord is a persisted investor.
type InvestorRecord struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Capital       decimal.Decimal `json:"capital"`
	RiskTolerance float64         `json:"risk_tolerance"`
	Satisfaction  float64         `json:"satisfaction"`
}

// EventRecord is a persisted event.
type EventRecord struct {
	ID                string   `json:"id"`
	Type              string   `json:"type"` // POLITICAL, ECONOMIC, TECHNOLOGICAL, COMPANY
	Title             string   `json:"title"`
	Description       string   `json:"description"`
	Impact            float64  `json:"impact"`
	Duration          int      `json:"duration"`
	RemainingDuration int      `json:"remaining_duration"`
	AffectedAssets    []string `json:"affected_assets"`
}

// RumorRecord is a persisted rumor.
type RumorRecord struct {
	ID          string  `json:"id"`
	CreatorID   string  `json:"creator_id"`
	AssetID     string  `json:"asset_id"`
	Type        string  `json:"type"` // INSIDER, NEWS_LEAK, MARKET_SENTIMENT
	Content     string  `json:"content"`
	IsTrue      bool    `json:"is_true"`
	Credibility float64 `json:"credibility"`
	Discovered  bool    `json:"is_discovered"`
	// DiscoveryChance is absent in older saves; it is then derived from the
	// creator's reputation.
	DiscoveryChance *float64 `json:"discovery_chance,omitempty"`
}

// SaveInfo describes one save slot.
type SaveInfo struct {
	Slot    string    `json:"slot"`
	Day     int       `json:"day"`
	SavedAt time.Time `json:"saved_at"`
}

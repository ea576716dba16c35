package scenario

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/marketgame/market-engine/internal/asset"
	"github.com/marketgame/market-engine/internal/event"
	"github.com/marketgame/market-engine/internal/market"
	"github.com/marketgame/market-engine/internal/random"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestStockScenarios(t *testing.T) {
	tests := []struct {
		name      string
		players   int
		assets    int
		investors int
		story     int
	}{
		{"default", 1, 9, 3, 5},
		{"hard", 1, 6, 1, 2},
		{"multiplayer", 2, 5, 1, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Build(tt.name, market.DefaultConfig(), random.New(1), discard(), 0)
			if err != nil {
				t.Fatal(err)
			}
			if len(s.Players) != tt.players || len(s.Market.Assets()) != tt.assets ||
				len(s.Investors) != tt.investors || len(s.Story) != tt.story {
				t.Errorf("unexpected shape: %d players, %d assets, %d investors, %d story",
					len(s.Players), len(s.Market.Assets()), len(s.Investors), len(s.Story))
			}
			for _, e := range s.Story {
				for _, id := range e.AffectedAssets {
					if _, ok := s.Market.Asset(id); !ok {
						t.Errorf("story event %q targets unknown id %s", e.Title, id)
					}
				}
			}
		})
	}
}

func TestUnknownScenario(t *testing.T) {
	if _, err := Build("nope", market.DefaultConfig(), random.New(1), discard(), 0); err == nil {
		t.Error("expected an error")
	}
	if names := Names(); len(names) != 3 || names[0] != "default" {
		t.Errorf("unexpected names %v", names)
	}
}

func TestBuilderResolvesTickers(t *testing.T) {
	s, err := NewBuilder(market.DefaultConfig(), random.New(2), discard()).
		AddPlayer("p", 100).
		AddAsset(asset.KindStock, "Alpha", "ALP", 10).
		AddStoryEvent(event.CategoryCompany, "Launch", "", 2, 2, "ALP").
		Build()
	if err != nil {
		t.Fatal(err)
	}
	a, _ := s.Market.AssetByTicker("ALP")
	if got := s.Story[0].AffectedAssets; len(got) != 1 || got[0] != a.ID {
		t.Errorf("expected ticker resolved to %s, got %v", a.ID, got)
	}

	// Inboxes are wired to the market.
	s.Market.AdvanceDay()
	if s.Players[0].Inbox.Len() == 0 {
		t.Error("player inbox should receive the day notification")
	}
}

func TestBuilderUnknownTicker(t *testing.T) {
	_, err := NewBuilder(market.DefaultConfig(), random.New(2), discard()).
		AddAsset(asset.KindStock, "Alpha", "ALP", 10).
		AddStoryEvent(event.CategoryCompany, "Launch", "", 2, 2, "ZZZ").
		Build()
	if !errors.Is(err, ErrUnknownTicker) {
		t.Fatalf("expected ErrUnknownTicker, got %v", err)
	}
}

func TestBuilderBadAsset(t *testing.T) {
	_, err := NewBuilder(market.DefaultConfig(), random.New(2), discard()).
		AddAsset(asset.KindStock, "Broken", "lower", 10).
		Build()
	if !errors.Is(err, asset.ErrInvalidTicker) {
		t.Fatalf("expected ErrInvalidTicker, got %v", err)
	}
}

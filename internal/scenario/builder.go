// Package scenario assembles the starting state of a game: a market with
// its assets, the players and investors, and the queue of story events.
package scenario

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/marketgame/market-engine/internal/asset"
	"github.com/marketgame/market-engine/internal/event"
	"github.com/marketgame/market-engine/internal/ledger"
	"github.com/marketgame/market-engine/internal/market"
	"github.com/marketgame/market-engine/internal/notify"
	"github.com/marketgame/market-engine/internal/random"
)

// ErrUnknownTicker is returned when a story event names a ticker that is
// not in the market.
var ErrUnknownTicker = errors.New("scenario: unknown ticker")

// Scenario is the built starting state.
type Scenario struct {
	Market    *market.Market
	Players   []*ledger.Player
	Investors []*ledger.Investor
	// Story holds events waiting to be injected into the market.
	Story []*event.Event
}

type storyEvent struct {
	category    event.Category
	title       string
	description string
	impact      float64
	duration    int
	tickers     []string
}

// Builder collects a scenario step by step. The first error sticks and is
// reported by Build.
type Builder struct {
	rng         *random.Source
	market      *market.Market
	players     []*ledger.Player
	investors   []*ledger.Investor
	story       []storyEvent
	inboxWindow int
	err         error
}

// NewBuilder starts a scenario on an empty market.
func NewBuilder(cfg market.Config, rng *random.Source, logger *slog.Logger) *Builder {
	return &Builder{
		rng:    rng,
		market: market.New(cfg, rng, logger),
	}
}

// WithInboxWindow sets the display window of every player's inbox.
func (b *Builder) WithInboxWindow(n int) *Builder {
	b.inboxWindow = n
	return b
}

// AddPlayer adds a player with starting capital.
func (b *Builder) AddPlayer(name string, capital float64) *Builder {
	b.players = append(b.players, ledger.NewPlayer(name, decimal.NewFromFloat(capital)))
	return b
}

// AddInvestor adds an investor.
func (b *Builder) AddInvestor(name string, capital, riskTolerance float64) *Builder {
	b.investors = append(b.investors, ledger.NewInvestor(name, decimal.NewFromFloat(capital), riskTolerance))
	return b
}

// AddAsset creates an asset of the given kind and lists it on the market.
func (b *Builder) AddAsset(kind asset.Kind, name, ticker string, price float64) *Builder {
	if b.err != nil {
		return b
	}
	a, err := asset.New(kind, name, ticker, decimal.NewFromFloat(price), b.rng)
	if err != nil {
		b.err = fmt.Errorf("scenario: asset %s: %w", ticker, err)
		return b
	}
	if err := b.market.AddAsset(a); err != nil {
		b.err = err
	}
	return b
}

// AddStoryEvent queues an event that targets assets by ticker.
func (b *Builder) AddStoryEvent(category event.Category, title, description string, impact float64, duration int, tickers ...string) *Builder {
	b.story = append(b.story, storyEvent{
		category:    category,
		title:       title,
		description: description,
		impact:      impact,
		duration:    duration,
		tickers:     tickers,
	})
	return b
}

// Build resolves story tickers to asset ids and subscribes every player's
// inbox to the market.
func (b *Builder) Build() (*Scenario, error) {
	if b.err != nil {
		return nil, b.err
	}

	story := make([]*event.Event, 0, len(b.story))
	for _, s := range b.story {
		ids := make([]string, 0, len(s.tickers))
		for _, t := range s.tickers {
			a, ok := b.market.AssetByTicker(t)
			if !ok {
				return nil, fmt.Errorf("%w: %s in %q", ErrUnknownTicker, t, s.title)
			}
			ids = append(ids, a.ID)
		}
		story = append(story, event.New(s.category, s.title, s.description, s.impact, s.duration, ids))
	}

	for _, p := range b.players {
		if b.inboxWindow > 0 {
			p.Inbox = notify.NewInbox(b.inboxWindow)
		}
		b.market.Subscribe(p.Inbox)
	}

	return &Scenario{
		Market:    b.market,
		Players:   b.players,
		Investors: b.investors,
		Story:     story,
	}, nil
}

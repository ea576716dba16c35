// Package game drives a market game: it owns the players and investors,
// runs the day loop and routes player actions to the ledger.
//
// A Game is not safe for concurrent use. Servers wrap it in a mutex.
package game

import (
	"errors"
	"log/slog"

	"github.com/marketgame/market-engine/internal/event"
	"github.com/marketgame/market-engine/internal/ledger"
	"github.com/marketgame/market-engine/internal/market"
	"github.com/marketgame/market-engine/internal/metrics"
	"github.com/marketgame/market-engine/internal/random"
	"github.com/marketgame/market-engine/internal/regime"
	"github.com/marketgame/market-engine/internal/scenario"
)

var (
	ErrUnknownPlayer   = errors.New("game: unknown player")
	ErrUnknownInvestor = errors.New("game: unknown investor")
	ErrPlayerInactive  = errors.New("game: player is out of the game")
	ErrUnknownAction   = errors.New("game: unknown action")
	ErrUnknownFeedback = errors.New("game: unknown feedback value")
)

// Config holds the orchestrator's tunables.
type Config struct {
	// StoryEventChance is the daily probability of injecting a story event.
	StoryEventChance float64
	// OpeningStoryEvents is how many story events Start injects.
	OpeningStoryEvents int
}

// DefaultConfig returns the standard orchestrator settings.
func DefaultConfig() Config {
	return Config{
		StoryEventChance:   0.2,
		OpeningStoryEvents: 2,
	}
}

// Game is one running game.
type Game struct {
	cfg    Config
	market *market.Market

	players   []*ledger.Player
	investors []*ledger.Investor
	story     []*event.Event

	started bool
	over    bool

	rng    *random.Source
	logger *slog.Logger
}

// New creates a game from a built scenario. The scenario's market must
// draw from rng.
func New(s *scenario.Scenario, cfg Config, rng *random.Source, logger *slog.Logger) *Game {
	g := &Game{
		cfg:       cfg,
		market:    s.Market,
		players:   s.Players,
		investors: s.Investors,
		story:     s.Story,
		rng:       rng,
		logger:    logger.With(slog.String("component", "game")),
	}
	g.observe()
	return g
}

// Market returns the game's market.
func (g *Game) Market() *market.Market { return g.market }

// Players returns the players in seating order.
func (g *Game) Players() []*ledger.Player { return g.players }

// Investors returns the investors.
func (g *Game) Investors() []*ledger.Investor { return g.investors }

// Story returns the story events not yet injected.
func (g *Game) Story() []*event.Event { return g.story }

// Over reports whether every player is out.
func (g *Game) Over() bool { return g.over }

// Player finds a player by id.
func (g *Game) Player(id string) (*ledger.Player, error) {
	for _, p := range g.players {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, ErrUnknownPlayer
}

// Investor finds an investor by id.
func (g *Game) Investor(id string) (*ledger.Investor, error) {
	for _, inv := range g.investors {
		if inv.ID == id {
			return inv, nil
		}
	}
	return nil, ErrUnknownInvestor
}

// Start injects the opening story events. Later calls do nothing.
func (g *Game) Start() {
	if g.started {
		return
	}
	g.started = true
	n := min(g.cfg.OpeningStoryEvents, len(g.story))
	opening := g.story[:n]
	g.story = append([]*event.Event(nil), g.story[n:]...)
	for _, e := range opening {
		g.market.AddEvent(e)
		metrics.EventsTotal.WithLabelValues("story").Inc()
	}
	g.logger.Info("game started",
		"players", len(g.players),
		"assets", len(g.market.AssetIDs()),
		"story_events", len(g.story),
	)
}

// DaySummary reports what one NextDay call did.
type DaySummary struct {
	Day           int          `json:"day"`
	Regime        string       `json:"regime"`
	RegimeChanged bool         `json:"regime_changed"`
	RandomEvent   *event.Event `json:"random_event,omitempty"`
	StoryEvent    *event.Event `json:"story_event,omitempty"`
	Discovered    int          `json:"rumors_discovered"`
	MarginCalls   []string     `json:"margin_calls,omitempty"` // player ids
	GameOver      bool         `json:"game_over"`
}

// NextDay advances the market one day, rolls for random and story events,
// runs margin calls for every player and re-evaluates game over.
func (g *Game) NextDay() DaySummary {
	report := g.market.AdvanceDay()
	summary := DaySummary{
		Day:           report.Day,
		Regime:        report.Regime.Name(),
		RegimeChanged: report.RegimeChanged,
		Discovered:    len(report.Discovered),
	}
	metrics.DaysTotal.Inc()
	metrics.RumorsDiscovered.Add(float64(len(report.Discovered)))
	if report.RegimeChanged {
		metrics.RegimeChanges.Inc()
	}

	if e := g.market.GenerateRandomEvent(); e != nil {
		summary.RandomEvent = e
		metrics.EventsTotal.WithLabelValues("random").Inc()
	}

	if len(g.story) > 0 && g.rng.Chance(g.cfg.StoryEventChance) {
		i := g.rng.Pick(len(g.story))
		e := g.story[i]
		g.story = append(g.story[:i], g.story[i+1:]...)
		g.market.AddEvent(e)
		summary.StoryEvent = e
		metrics.EventsTotal.WithLabelValues("story").Inc()
	}

	for _, p := range g.players {
		wasActive := p.Active()
		if p.CheckMarginCall(g.market) {
			summary.MarginCalls = append(summary.MarginCalls, p.ID)
			metrics.MarginCalls.Inc()
			g.logger.Warn("margin call", "player_id", p.ID, "capital", p.Capital.String(), "day", report.Day)
			if wasActive && p.GameOver {
				g.bankrupt(p)
			}
		}
	}

	summary.GameOver = g.CheckGameOver()
	g.observe()
	return summary
}

// CheckGameOver marks every player without capital as out and reports
// whether no player can act any more.
func (g *Game) CheckGameOver() bool {
	for _, p := range g.players {
		if p.Active() && !p.Capital.IsPositive() {
			p.GameOver = true
			g.bankrupt(p)
		}
	}
	over := g.allOut()
	if over && !g.over {
		g.logger.Info("game over", "day", g.market.Day())
	}
	g.over = over
	return over
}

func (g *Game) allOut() bool {
	for _, p := range g.players {
		if p.Active() {
			return false
		}
	}
	return true
}

func (g *Game) bankrupt(p *ledger.Player) {
	metrics.Bankruptcies.Inc()
	g.logger.Warn("player bankrupt", "player_id", p.ID, "name", p.Name, "capital", p.Capital.String())
}

func (g *Game) observe() {
	active := 0
	for _, p := range g.players {
		if p.Active() {
			active++
		}
	}
	metrics.ActivePlayers.Set(float64(active))

	names := make([]string, len(regime.All))
	for i, r := range regime.All {
		names[i] = r.Name()
	}
	metrics.SetRegime(g.market.Regime().Name(), names)
}

package game

import (
	"fmt"
	"log/slog"
	"maps"
	"time"

	"github.com/shopspring/decimal"

	"github.com/marketgame/market-engine/internal/asset"
	"github.com/marketgame/market-engine/internal/event"
	"github.com/marketgame/market-engine/internal/ledger"
	"github.com/marketgame/market-engine/internal/market"
	"github.com/marketgame/market-engine/internal/model"
	"github.com/marketgame/market-engine/internal/notify"
	"github.com/marketgame/market-engine/internal/random"
	"github.com/marketgame/market-engine/internal/regime"
)

// Snapshot captures the game as a save record. Only active events are
// kept; story events still queued are saved alongside them.
func (g *Game) Snapshot() *model.GameState {
	m := g.market
	vol := m.Volatility
	state := &model.GameState{
		Day:         m.Day(),
		MarketState: m.Regime().Name(),
		Assets:      []model.AssetRecord{},
		Players:     []model.PlayerRecord{},
		Investors:   []model.InvestorRecord{},
		Events:      []model.EventRecord{},
		Rumors:      []model.RumorRecord{},
		Volatility:  &vol,
		SavedAt:     time.Now().UTC(),
	}

	for _, a := range m.Assets() {
		factor := a.Factor
		state.Assets = append(state.Assets, model.AssetRecord{
			ID:           a.ID,
			Name:         a.Name,
			Ticker:       a.Ticker,
			CurrentPrice: a.CurrentPrice,
			InitialPrice: a.InitialPrice,
			Type:         string(a.Kind),
			Sensitivity:  &factor,
		})
	}

	for _, p := range g.players {
		shorts := make(map[string]model.ShortRecord, len(p.Shorts))
		for id, pos := range p.Shorts {
			shorts[id] = model.ShortRecord{Quantity: pos.Quantity, EntryPrice: pos.EntryPrice}
		}
		state.Players = append(state.Players, model.PlayerRecord{
			ID:             p.ID,
			Name:           p.Name,
			Capital:        p.Capital,
			Portfolio:      maps.Clone(p.Portfolio),
			ShortPositions: shorts,
			Reputation:     p.Reputation,
			InvestorFunds:  maps.Clone(p.InvestorFunds),
			GameOver:       p.GameOver,
			Prison:         p.Prison,
		})
	}

	for _, inv := range g.investors {
		state.Investors = append(state.Investors, model.InvestorRecord{
			ID:            inv.ID,
			Name:          inv.Name,
			Capital:       inv.Capital,
			RiskTolerance: inv.RiskTolerance,
			Satisfaction:  inv.Satisfaction,
		})
	}

	for _, e := range m.ActiveEvents() {
		state.Events = append(state.Events, eventRecord(e))
	}
	for _, e := range g.story {
		state.StoryEvents = append(state.StoryEvents, eventRecord(e))
	}

	for _, r := range m.Rumors() {
		chance := r.DiscoveryChance
		state.Rumors = append(state.Rumors, model.RumorRecord{
			ID:              r.ID,
			CreatorID:       r.CreatorID,
			AssetID:         r.AssetID,
			Type:            string(r.Kind),
			Content:         r.Content,
			IsTrue:          r.True,
			Credibility:     r.Credibility,
			Discovered:      r.Discovered,
			DiscoveryChance: &chance,
		})
	}
	return state
}

func eventRecord(e *event.Event) model.EventRecord {
	return model.EventRecord{
		ID:                e.ID,
		Type:              string(e.Category),
		Title:             e.Title,
		Description:       e.Description,
		Impact:            e.Impact,
		Duration:          e.Duration,
		RemainingDuration: e.Remaining,
		AffectedAssets:    append([]string{}, e.AffectedAssets...),
	}
}

func restoreEvent(rec model.EventRecord) (*event.Event, error) {
	cat, err := event.ParseCategory(rec.Type)
	if err != nil {
		return nil, err
	}
	return &event.Event{
		ID:             rec.ID,
		Category:       cat,
		Title:          rec.Title,
		Description:    rec.Description,
		Impact:         rec.Impact,
		Duration:       rec.Duration,
		Remaining:      rec.RemainingDuration,
		AffectedAssets: append([]string{}, rec.AffectedAssets...),
	}, nil
}

// Restore rebuilds a game from a save record. The game is considered
// started: opening story events are not injected again. Assets saved
// without a sensitivity factor get a fresh draw from rng.
func Restore(state *model.GameState, cfg Config, mcfg market.Config, rng *random.Source, logger *slog.Logger, inboxWindow int) (*Game, error) {
	r, err := regime.Parse(state.MarketState)
	if err != nil {
		return nil, fmt.Errorf("game: restore: %w", err)
	}

	m := market.New(mcfg, rng, logger)
	m.RestoreDay(state.Day)
	m.RestoreRegime(r)
	if state.Volatility != nil {
		m.Volatility = *state.Volatility
	}

	for _, rec := range state.Assets {
		kind, err := asset.ParseKind(rec.Type)
		if err != nil {
			return nil, fmt.Errorf("game: restore asset %s: %w", rec.ID, err)
		}
		var factor float64
		if rec.Sensitivity != nil {
			factor = *rec.Sensitivity
		} else {
			lo, hi, _ := kind.FactorRange()
			factor = rng.Uniform(lo, hi)
		}
		a, err := asset.Restore(rec.ID, kind, rec.Name, rec.Ticker, rec.CurrentPrice, rec.InitialPrice, factor)
		if err != nil {
			return nil, fmt.Errorf("game: restore asset %s: %w", rec.ID, err)
		}
		if err := m.AddAsset(a); err != nil {
			return nil, fmt.Errorf("game: restore: %w", err)
		}
	}

	reputation := make(map[string]float64, len(state.Players))
	players := make([]*ledger.Player, 0, len(state.Players))
	for _, rec := range state.Players {
		p := ledger.RestorePlayer(rec.ID, rec.Name, rec.Capital)
		maps.Copy(p.Portfolio, rec.Portfolio)
		for id, pos := range rec.ShortPositions {
			p.Shorts[id] = ledger.ShortPosition{Quantity: pos.Quantity, EntryPrice: pos.EntryPrice}
		}
		maps.Copy(p.InvestorFunds, rec.InvestorFunds)
		p.Reputation = rec.Reputation
		p.GameOver = rec.GameOver
		p.Prison = rec.Prison
		if inboxWindow > 0 {
			p.Inbox = notify.NewInbox(inboxWindow)
		}
		m.Subscribe(p.Inbox)
		reputation[p.ID] = p.Reputation
		players = append(players, p)
	}

	investors := make([]*ledger.Investor, 0, len(state.Investors))
	for _, rec := range state.Investors {
		investors = append(investors, ledger.RestoreInvestor(rec.ID, rec.Name, rec.Capital, rec.RiskTolerance, rec.Satisfaction))
	}

	for _, rec := range state.Events {
		e, err := restoreEvent(rec)
		if err != nil {
			return nil, fmt.Errorf("game: restore event %s: %w", rec.ID, err)
		}
		m.RestoreEvent(e)
	}

	story := make([]*event.Event, 0, len(state.StoryEvents))
	for _, rec := range state.StoryEvents {
		e, err := restoreEvent(rec)
		if err != nil {
			return nil, fmt.Errorf("game: restore story event %s: %w", rec.ID, err)
		}
		story = append(story, e)
	}

	for _, rec := range state.Rumors {
		kind, err := event.ParseRumorKind(rec.Type)
		if err != nil {
			return nil, fmt.Errorf("game: restore rumor %s: %w", rec.ID, err)
		}
		var chance float64
		if rec.DiscoveryChance != nil {
			chance = *rec.DiscoveryChance
		} else {
			rep, ok := reputation[rec.CreatorID]
			if !ok {
				rep = ledger.StartingReputation
			}
			chance = m.DiscoveryChance(rep, rec.IsTrue)
		}
		m.RestoreRumor(&event.Rumor{
			ID:              rec.ID,
			CreatorID:       rec.CreatorID,
			AssetID:         rec.AssetID,
			Kind:            kind,
			Content:         rec.Content,
			True:            rec.IsTrue,
			Credibility:     rec.Credibility,
			DiscoveryChance: chance,
			Discovered:      rec.Discovered,
		})
	}

	g := &Game{
		cfg:       cfg,
		market:    m,
		players:   players,
		investors: investors,
		story:     story,
		started:   true,
		rng:       rng,
		logger:    logger.With(slog.String("component", "game")),
	}
	g.over = g.allOut()
	g.observe()
	g.logger.Info("game restored", "day", m.Day(), "regime", r.Name(), "players", len(players))
	return g, nil
}

// Standing is one row of the leaderboard.
type Standing struct {
	PlayerID string          `json:"player_id"`
	Name     string          `json:"name"`
	Capital  decimal.Decimal `json:"capital"`
	NetWorth decimal.Decimal `json:"net_worth"`
	Status   string          `json:"status"` // active, bankrupt, prison
}

// Standings values every player at current prices, in seating order.
func (g *Game) Standings() []Standing {
	out := make([]Standing, 0, len(g.players))
	for _, p := range g.players {
		status := "active"
		switch {
		case p.Prison:
			status = "prison"
		case p.GameOver:
			status = "bankrupt"
		}
		out = append(out, Standing{
			PlayerID: p.ID,
			Name:     p.Name,
			Capital:  p.Capital,
			NetWorth: p.NetWorth(g.market),
			Status:   status,
		})
	}
	return out
}

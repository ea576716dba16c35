// Package market owns the assets, events and rumors of one game and runs
// the daily tick.
//
// The market is single-threaded: every operation runs to completion on the
// caller's goroutine, and subscribers are notified synchronously before the
// operation returns. Callers that share a Market across goroutines must
// serialize access themselves.
package market

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/marketgame/market-engine/internal/asset"
	"github.com/marketgame/market-engine/internal/event"
	"github.com/marketgame/market-engine/internal/notify"
	"github.com/marketgame/market-engine/internal/random"
	"github.com/marketgame/market-engine/internal/regime"
)

var (
	ErrReputationTooLow = errors.New("market: reputation too low to spread rumors")
	ErrUnknownAsset     = errors.New("market: unknown asset")
	ErrDuplicateAsset   = errors.New("market: duplicate asset id")
)

// Market is the sole owner of its assets, events and rumors.
type Market struct {
	cfg Config

	assets map[string]*asset.Asset
	order  []string // insertion order, keeps iteration replayable

	events []*event.Event
	rumors []*event.Rumor

	regime regime.Regime
	day    int

	// Volatility is read and tuned by balancing code only.
	Volatility float64

	rng      *random.Source
	notifier *notify.Broadcaster
	logger   *slog.Logger
}

// New creates an empty market on day 1.
func New(cfg Config, rng *random.Source, logger *slog.Logger) *Market {
	logger = logger.With(slog.String("component", "market"))
	return &Market{
		cfg:        cfg,
		assets:     make(map[string]*asset.Asset),
		regime:     cfg.InitialRegime,
		day:        1,
		Volatility: cfg.Volatility,
		rng:        rng,
		notifier:   notify.NewBroadcaster(logger),
		logger:     logger,
	}
}

// Config returns the market's tunables.
func (m *Market) Config() Config { return m.cfg }

// Day returns the current day, starting at 1.
func (m *Market) Day() int { return m.day }

// Regime returns the active regime.
func (m *Market) Regime() regime.Regime { return m.regime }

// Subscribe attaches s to the market's notifications.
func (m *Market) Subscribe(s notify.Subscriber) { m.notifier.Attach(s) }

// Unsubscribe detaches s.
func (m *Market) Unsubscribe(s notify.Subscriber) { m.notifier.Detach(s) }

// AddAsset registers a. Ids must be unique.
func (m *Market) AddAsset(a *asset.Asset) error {
	if _, exists := m.assets[a.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateAsset, a.ID)
	}
	m.assets[a.ID] = a
	m.order = append(m.order, a.ID)
	return nil
}

// Asset implements asset.Lookup.
func (m *Market) Asset(id string) (*asset.Asset, bool) {
	a, ok := m.assets[id]
	return a, ok
}

// AssetByTicker finds an asset by its ticker.
func (m *Market) AssetByTicker(ticker string) (*asset.Asset, bool) {
	for _, id := range m.order {
		if a := m.assets[id]; a.Ticker == ticker {
			return a, true
		}
	}
	return nil, false
}

// Assets returns every asset in insertion order.
func (m *Market) Assets() []*asset.Asset {
	out := make([]*asset.Asset, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.assets[id])
	}
	return out
}

// AssetIDs returns every asset id in insertion order.
func (m *Market) AssetIDs() []string {
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// Events returns every event ever added, active or not.
func (m *Market) Events() []*event.Event {
	out := make([]*event.Event, len(m.events))
	copy(out, m.events)
	return out
}

// ActiveEvents returns the events that still have days left.
func (m *Market) ActiveEvents() []*event.Event {
	var out []*event.Event
	for _, e := range m.events {
		if e.Active() {
			out = append(out, e)
		}
	}
	return out
}

// Rumors returns every rumor spread so far.
func (m *Market) Rumors() []*event.Rumor {
	out := make([]*event.Rumor, len(m.rumors))
	copy(out, m.rumors)
	return out
}

// DiscoveryChance is the probability a rumor is caught on any given day.
// Liars with a better reputation are harder to catch.
func (m *Market) DiscoveryChance(reputation float64, isTrue bool) float64 {
	if isTrue {
		return m.cfg.TrueRumorDiscovery
	}
	return m.cfg.FalseRumorBase - reputation*m.cfg.FalseRumorSlope
}

// CreateRumor spreads a rumor from a player with the given reputation. The
// rumor's price effect lands immediately through the active regime.
func (m *Market) CreateRumor(creatorID string, reputation float64, assetID string, kind event.RumorKind, content string, isTrue bool) (*event.Rumor, error) {
	if reputation < m.cfg.MinRumorReputation {
		return nil, ErrReputationTooLow
	}
	if _, ok := m.assets[assetID]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAsset, assetID)
	}

	r := event.NewRumor(creatorID, assetID, kind, content, isTrue, m.DiscoveryChance(reputation, isTrue), m.rng)
	m.rumors = append(m.rumors, r)

	impact := m.regime.ProcessRumor(m, r, m.rng)
	m.logger.Info("rumor spread",
		"rumor_id", r.ID,
		"asset_id", assetID,
		"kind", string(kind),
		"impact", impact,
	)

	m.notifier.Publish(notify.Notification{
		Kind:    notify.KindRumor,
		Day:     m.day,
		Message: "RUMOR: " + content,
		RefID:   r.ID,
	})
	return r, nil
}

// AddEvent registers e and applies its regime-adjusted impact the same day.
func (m *Market) AddEvent(e *event.Event) {
	m.events = append(m.events, e)
	m.regime.ProcessEvent(m, e)

	m.logger.Info("event added",
		"event_id", e.ID,
		"title", e.Title,
		"impact", e.Impact,
		"duration", e.Duration,
	)
	m.notifier.Publish(notify.Notification{
		Kind:    notify.KindEvent,
		Day:     m.day,
		Message: "EVENT: " + e.Title,
		RefID:   e.ID,
	})
}

// ChangeRegime switches the active regime and announces it.
func (m *Market) ChangeRegime(r regime.Regime) {
	prev := m.regime
	m.regime = r
	m.logger.Info("regime changed", "from", prev.Name(), "to", r.Name(), "day", m.day)
	m.notifier.Publish(notify.Notification{
		Kind:    notify.KindRegime,
		Day:     m.day,
		Message: "Market regime is now " + r.Name(),
		Regime:  r.Name(),
	})
}

// DayReport summarizes one AdvanceDay call.
type DayReport struct {
	Day           int
	Discovered    []*event.Rumor
	RegimeChanged bool
	Regime        regime.Regime
}

// AdvanceDay runs the daily tick. The order is fixed: active events apply
// their raw impact and consume a day, rumors roll for discovery, the regime
// drifts every price, the regime may switch, and the new day is announced.
func (m *Market) AdvanceDay() DayReport {
	m.day++
	report := DayReport{Day: m.day}

	for _, e := range m.events {
		if e.Active() {
			e.Apply(m)
		}
	}

	for _, r := range m.rumors {
		if r.CheckDiscovery(m.rng) {
			report.Discovered = append(report.Discovered, r)
			m.logger.Info("rumor discovered", "rumor_id", r.ID, "creator_id", r.CreatorID)
			m.notifier.Publish(notify.Notification{
				Kind:    notify.KindRumorDiscovered,
				Day:     m.day,
				Message: "RUMOR: " + r.Content + " (exposed as false)",
				RefID:   r.ID,
			})
		}
	}

	m.regime.UpdatePrices(m.Assets(), m.rng)

	if m.rng.Chance(m.cfg.RegimeSwitchChance) {
		others := m.regime.Others()
		m.ChangeRegime(others[m.rng.Pick(len(others))])
		report.RegimeChanged = true
	}
	report.Regime = m.regime

	m.notifier.Publish(notify.Notification{
		Kind:    notify.KindDay,
		Day:     m.day,
		Message: fmt.Sprintf("Day %d", m.day),
	})
	return report
}

// GenerateRandomEvent rolls for a random event and, on success, feeds it
// through AddEvent. It returns nil when no event was generated.
func (m *Market) GenerateRandomEvent() *event.Event {
	if !m.rng.Chance(m.cfg.RandomEventChance) {
		return nil
	}
	e := event.Random(m.rng, m.order)
	if e == nil {
		return nil
	}
	m.AddEvent(e)
	return e
}

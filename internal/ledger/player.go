// Package ledger keeps the financial state of players and investors.
//
// Every operation either applies in full or returns an error and leaves the
// ledger untouched. Trades append an immutable record to the player's
// history. All money and quantities are decimals.
package ledger

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marketgame/market-engine/internal/asset"
	"github.com/marketgame/market-engine/internal/event"
	"github.com/marketgame/market-engine/internal/notify"
)

var (
	ErrInvalidQuantity        = errors.New("ledger: quantity must be positive")
	ErrInvalidPrice           = errors.New("ledger: price must be positive")
	ErrInvalidAmount          = errors.New("ledger: amount must be positive")
	ErrInsufficientFunds      = errors.New("ledger: insufficient capital")
	ErrInsufficientHoldings   = errors.New("ledger: insufficient holdings")
	ErrNoShortPosition        = errors.New("ledger: no short position")
	ErrShortExceeded          = errors.New("ledger: cover exceeds short quantity")
	ErrInsufficientObligation = errors.New("ledger: amount exceeds outstanding obligation")
)

var (
	// CollateralRate is the share of short notional reserved at open.
	CollateralRate = decimal.NewFromFloat(0.5)
	// MaintenanceRate is the share of short exposure capital must cover.
	MaintenanceRate = decimal.NewFromFloat(0.4)
)

const (
	// StartingReputation is a new player's reputation.
	StartingReputation = 0.5
	// LiePenalty is the reputation lost when a false rumor is exposed.
	LiePenalty = 0.2
)

// Side identifies a trade direction.
type Side string

const (
	SideBuy   Side = "BUY"
	SideSell  Side = "SELL"
	SideShort Side = "SHORT"
	SideCover Side = "COVER"
)

// Trade is an immutable record of one executed trade.
type Trade struct {
	ID       string          `json:"id"`
	Time     time.Time       `json:"time"`
	Side     Side            `json:"side"`
	AssetID  string          `json:"asset_id"`
	Quantity decimal.Decimal `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// ShortPosition is an open short in one asset.
type ShortPosition struct {
	Quantity   decimal.Decimal `json:"quantity"`
	EntryPrice decimal.Decimal `json:"entry_price"` // volume-weighted
}

// Player is one participant's account.
type Player struct {
	ID   string
	Name string

	Capital decimal.Decimal
	// Portfolio maps asset id to quantity held long. Zero entries are removed.
	Portfolio map[string]decimal.Decimal
	Shorts    map[string]ShortPosition
	// InvestorFunds maps investor id to the amount owed.
	InvestorFunds map[string]decimal.Decimal

	Reputation float64
	GameOver   bool
	Prison     bool

	Inbox *notify.Inbox

	trades []Trade
	now    func() time.Time
}

// NewPlayer creates a player with a fresh id.
func NewPlayer(name string, capital decimal.Decimal) *Player {
	return RestorePlayer(uuid.New().String(), name, capital)
}

// RestorePlayer creates an empty player with a known id. Callers fill in
// positions and flags from persisted state.
func RestorePlayer(id, name string, capital decimal.Decimal) *Player {
	return &Player{
		ID:            id,
		Name:          name,
		Capital:       capital,
		Portfolio:     make(map[string]decimal.Decimal),
		Shorts:        make(map[string]ShortPosition),
		InvestorFunds: make(map[string]decimal.Decimal),
		Reputation:    StartingReputation,
		Inbox:         notify.NewInbox(notify.DefaultWindow),
		now:           time.Now,
	}
}

// Active reports whether the player may still act.
func (p *Player) Active() bool {
	return !p.GameOver && !p.Prison
}

// Trades returns the trade history, oldest first.
func (p *Player) Trades() []Trade {
	out := make([]Trade, len(p.trades))
	copy(out, p.trades)
	return out
}

func (p *Player) record(side Side, assetID string, qty, price decimal.Decimal) {
	p.trades = append(p.trades, Trade{
		ID:       uuid.New().String(),
		Time:     p.now().UTC(),
		Side:     side,
		AssetID:  assetID,
		Quantity: qty,
		Price:    price,
	})
}

func validateTrade(qty, price decimal.Decimal) error {
	if !qty.IsPositive() {
		return ErrInvalidQuantity
	}
	if !price.IsPositive() {
		return ErrInvalidPrice
	}
	return nil
}

// Buy purchases qty units of assetID at price.
func (p *Player) Buy(assetID string, qty, price decimal.Decimal) error {
	if err := validateTrade(qty, price); err != nil {
		return err
	}
	cost := qty.Mul(price)
	if cost.GreaterThan(p.Capital) {
		return fmt.Errorf("%w: need %s, have %s", ErrInsufficientFunds, cost, p.Capital)
	}

	p.Capital = p.Capital.Sub(cost)
	p.Portfolio[assetID] = p.Portfolio[assetID].Add(qty)
	p.record(SideBuy, assetID, qty, price)
	return nil
}

// Sell disposes of qty held units of assetID at price.
func (p *Player) Sell(assetID string, qty, price decimal.Decimal) error {
	if err := validateTrade(qty, price); err != nil {
		return err
	}
	held, ok := p.Portfolio[assetID]
	if !ok || held.LessThan(qty) {
		return fmt.Errorf("%w: hold %s of %s", ErrInsufficientHoldings, held, assetID)
	}

	remaining := held.Sub(qty)
	if remaining.IsZero() {
		delete(p.Portfolio, assetID)
	} else {
		p.Portfolio[assetID] = remaining
	}
	p.Capital = p.Capital.Add(qty.Mul(price))
	p.record(SideSell, assetID, qty, price)
	return nil
}

// Short opens or extends a short position, reserving collateral from
// capital. An existing position's entry price becomes the volume-weighted
// average.
func (p *Player) Short(assetID string, qty, price decimal.Decimal) error {
	if err := validateTrade(qty, price); err != nil {
		return err
	}
	collateral := qty.Mul(price).Mul(CollateralRate)
	if collateral.GreaterThan(p.Capital) {
		return fmt.Errorf("%w: collateral %s, have %s", ErrInsufficientFunds, collateral, p.Capital)
	}

	p.Capital = p.Capital.Sub(collateral)
	pos, ok := p.Shorts[assetID]
	if ok {
		total := pos.Quantity.Add(qty)
		notional := pos.Quantity.Mul(pos.EntryPrice).Add(qty.Mul(price))
		pos = ShortPosition{Quantity: total, EntryPrice: notional.Div(total)}
	} else {
		pos = ShortPosition{Quantity: qty, EntryPrice: price}
	}
	p.Shorts[assetID] = pos
	p.record(SideShort, assetID, qty, price)
	return nil
}

// Cover buys back qty units of a short at price. The collateral reserved
// for those units comes back together with the profit, which is negative
// when the price rose.
func (p *Player) Cover(assetID string, qty, price decimal.Decimal) error {
	if err := validateTrade(qty, price); err != nil {
		return err
	}
	pos, ok := p.Shorts[assetID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoShortPosition, assetID)
	}
	if qty.GreaterThan(pos.Quantity) {
		return fmt.Errorf("%w: short %s, cover %s", ErrShortExceeded, pos.Quantity, qty)
	}

	p.Capital = p.Capital.Add(coverReturn(pos.EntryPrice, qty, price))
	if qty.Equal(pos.Quantity) {
		delete(p.Shorts, assetID)
	} else {
		p.Shorts[assetID] = ShortPosition{Quantity: pos.Quantity.Sub(qty), EntryPrice: pos.EntryPrice}
	}
	p.record(SideCover, assetID, qty, price)
	return nil
}

func coverReturn(entry, qty, price decimal.Decimal) decimal.Decimal {
	profit := qty.Mul(entry.Sub(price))
	return qty.Mul(entry).Mul(CollateralRate).Add(profit)
}

// ReceiveInvestment credits amount from an investor and records the debt.
func (p *Player) ReceiveInvestment(investorID string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	p.Capital = p.Capital.Add(amount)
	p.InvestorFunds[investorID] = p.InvestorFunds[investorID].Add(amount)
	return nil
}

// ReturnInvestment pays amount back to an investor.
func (p *Player) ReturnInvestment(investorID string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	owed, ok := p.InvestorFunds[investorID]
	if !ok || owed.LessThan(amount) {
		return fmt.Errorf("%w: owe %s to %s", ErrInsufficientObligation, owed, investorID)
	}
	if amount.GreaterThan(p.Capital) {
		return fmt.Errorf("%w: need %s, have %s", ErrInsufficientFunds, amount, p.Capital)
	}

	p.Capital = p.Capital.Sub(amount)
	if left := owed.Sub(amount); left.IsZero() {
		delete(p.InvestorFunds, investorID)
	} else {
		p.InvestorFunds[investorID] = left
	}
	return nil
}

// RumorMarket creates rumors on behalf of a player.
type RumorMarket interface {
	CreateRumor(creatorID string, reputation float64, assetID string, kind event.RumorKind, content string, isTrue bool) (*event.Rumor, error)
}

// SpreadRumor asks the market to spread a rumor. A false rumor that is
// already exposed by the time the market returns costs reputation, and a
// player whose reputation reaches zero goes to prison.
func (p *Player) SpreadRumor(m RumorMarket, assetID string, kind event.RumorKind, content string, isTrue bool) (*event.Rumor, error) {
	r, err := m.CreateRumor(p.ID, p.Reputation, assetID, kind, content, isTrue)
	if err != nil {
		return nil, err
	}
	if !isTrue && r.Discovered {
		p.PenalizeLie()
	}
	return r, nil
}

// PenalizeLie deducts LiePenalty from reputation, floored at zero. Hitting
// zero is terminal.
func (p *Player) PenalizeLie() {
	p.Reputation = max(0, p.Reputation-LiePenalty)
	if p.Reputation == 0 {
		p.Prison = true
		p.GameOver = true
	}
}

// NetWorth values the account at current prices: capital plus longs, minus
// the cost to close shorts, minus investor obligations. Positions in assets
// unknown to assets are skipped.
func (p *Player) NetWorth(assets asset.Lookup) decimal.Decimal {
	worth := p.Capital
	for id, qty := range p.Portfolio {
		if a, ok := assets.Asset(id); ok {
			worth = worth.Add(qty.Mul(a.CurrentPrice))
		}
	}
	for id, pos := range p.Shorts {
		if a, ok := assets.Asset(id); ok {
			worth = worth.Sub(pos.Quantity.Mul(a.CurrentPrice))
		}
	}
	for _, owed := range p.InvestorFunds {
		worth = worth.Sub(owed)
	}
	return worth
}

// RequiredMargin is the capital needed to keep every short open.
func (p *Player) RequiredMargin(assets asset.Lookup) decimal.Decimal {
	required := decimal.Zero
	for id, pos := range p.Shorts {
		if a, ok := assets.Asset(id); ok {
			required = required.Add(pos.Quantity.Mul(a.CurrentPrice).Mul(MaintenanceRate))
		}
	}
	return required
}

// CheckMarginCall force-covers every short at current prices when capital
// has fallen below the required margin. A player left with no capital is
// bankrupt. It reports whether a margin call happened.
func (p *Player) CheckMarginCall(assets asset.Lookup) bool {
	required := p.RequiredMargin(assets)
	if !required.IsPositive() || !p.Capital.LessThan(required) {
		return false
	}

	ids := make([]string, 0, len(p.Shorts))
	for id := range p.Shorts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		a, ok := assets.Asset(id)
		if !ok {
			continue
		}
		pos := p.Shorts[id]
		// Validation cannot fail: the quantity is the full position.
		_ = p.Cover(id, pos.Quantity, a.CurrentPrice)
	}

	if !p.Capital.IsPositive() {
		p.GameOver = true
	}
	return true
}

// CheckBankruptcy marks the player game-over once capital is gone.
func (p *Player) CheckBankruptcy() bool {
	if !p.Capital.IsPositive() {
		p.GameOver = true
	}
	return p.GameOver
}

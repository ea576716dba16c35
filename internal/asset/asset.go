// Package asset implements the price-bearing instruments of the market.
//
// The four asset kinds share one price-update law and differ only in a
// sensitivity factor drawn once at creation. Prices are decimals; the
// percentage arithmetic runs in float64 and is rounded back to PriceScale.
package asset

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marketgame/market-engine/internal/random"
)

var (
	// ErrUnknownKind is returned for an asset kind tag that is not one of the four variants.
	ErrUnknownKind = errors.New("asset: unknown asset kind")

	// ErrInvalidPrice is returned when an asset is created with a non-positive price.
	ErrInvalidPrice = errors.New("asset: price must be positive")

	// MinPrice is the price floor. An update that would land at or below zero
	// is clamped here so later percentage moves stay meaningful.
	MinPrice = decimal.New(1, -4)

	// PriceScale is the number of decimal places prices are rounded to.
	PriceScale int32 = 8
)

// Kind identifies one of the asset variants. The string value is the tag
// written to save files.
type Kind string

const (
	KindStock     Kind = "Stock"
	KindCrypto    Kind = "Cryptocurrency"
	KindForex     Kind = "ForexPair"
	KindCommodity Kind = "Commodity"
)

// Kinds lists every variant.
var Kinds = []Kind{KindStock, KindCrypto, KindForex, KindCommodity}

// ParseKind validates a persisted kind tag.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if _, _, err := k.FactorRange(); err != nil {
		return "", err
	}
	return k, nil
}

// FactorRange returns the interval the kind's raw factor is drawn from:
// company health for stocks, volatility for crypto, stability for forex and
// supply elasticity for commodities.
func (k Kind) FactorRange() (lo, hi float64, err error) {
	switch k {
	case KindStock:
		return 0.5, 1.0, nil
	case KindCrypto:
		return 1.5, 3.0, nil
	case KindForex:
		return 0.5, 1.0, nil
	case KindCommodity:
		return 0.3, 0.8, nil
	}
	return 0, 0, fmt.Errorf("%w: %q", ErrUnknownKind, string(k))
}

// PricePoint is one entry of an asset's price history.
type PricePoint struct {
	Time  time.Time       `json:"time"`
	Price decimal.Decimal `json:"price"`
}

// Asset is a tradable instrument. The market is its sole owner.
type Asset struct {
	ID     string
	Name   string
	Ticker string
	Kind   Kind

	// Factor is the raw variant draw; see Kind.FactorRange.
	Factor float64

	CurrentPrice decimal.Decimal
	InitialPrice decimal.Decimal

	history []PricePoint
	now     func() time.Time
}

// New creates an asset of the given kind, drawing its factor from rng.
func New(kind Kind, name, ticker string, price decimal.Decimal, rng *random.Source) (*Asset, error) {
	lo, hi, err := kind.FactorRange()
	if err != nil {
		return nil, err
	}
	return build(uuid.New().String(), kind, name, ticker, price, price, rng.Uniform(lo, hi))
}

// Restore rebuilds a persisted asset. History restarts with the current
// price as its seed entry.
func Restore(id string, kind Kind, name, ticker string, current, initial decimal.Decimal, factor float64) (*Asset, error) {
	if _, _, err := kind.FactorRange(); err != nil {
		return nil, err
	}
	if !initial.IsPositive() {
		return nil, ErrInvalidPrice
	}
	return build(id, kind, name, ticker, current, initial, factor)
}

func build(id string, kind Kind, name, ticker string, current, initial decimal.Decimal, factor float64) (*Asset, error) {
	if err := ValidateTicker(ticker); err != nil {
		return nil, err
	}
	if !current.IsPositive() {
		return nil, ErrInvalidPrice
	}
	a := &Asset{
		ID:           id,
		Name:         name,
		Ticker:       ticker,
		Kind:         kind,
		Factor:       factor,
		CurrentPrice: current,
		InitialPrice: initial,
		now:          time.Now,
	}
	a.history = []PricePoint{{Time: a.now(), Price: current}}
	return a, nil
}

// Sensitivity is the multiplier applied to every percentage change.
// Commodities react inversely to their supply elasticity.
func (a *Asset) Sensitivity() float64 {
	if a.Kind == KindCommodity {
		return 1 - a.Factor
	}
	return a.Factor
}

// UpdatePrice moves the price by percentChange percent scaled by the
// asset's sensitivity and appends the result to the history.
func (a *Asset) UpdatePrice(percentChange float64) {
	factor := 1 + percentChange/100*a.Sensitivity()
	next := a.CurrentPrice.Mul(decimal.NewFromFloat(factor)).Round(PriceScale)
	if next.LessThan(MinPrice) {
		next = MinPrice
	}
	a.CurrentPrice = next
	a.history = append(a.history, PricePoint{Time: a.now(), Price: next})
}

// ApplyEventImpact applies a confirmed event's impact unchanged.
func (a *Asset) ApplyEventImpact(impact float64) {
	a.UpdatePrice(impact)
}

// ApplyRumorImpact applies half of a rumor's impact.
func (a *Asset) ApplyRumorImpact(impact float64) {
	a.UpdatePrice(impact / 2)
}

// History returns a copy of the price history, oldest first.
func (a *Asset) History() []PricePoint {
	out := make([]PricePoint, len(a.history))
	copy(out, a.history)
	return out
}

// PreviousPrice returns the price recorded before the current one.
func (a *Asset) PreviousPrice() (decimal.Decimal, bool) {
	if len(a.history) < 2 {
		return decimal.Zero, false
	}
	return a.history[len(a.history)-2].Price, true
}

// Lookup resolves an asset by id. The market implements it.
type Lookup interface {
	Asset(id string) (*Asset, bool)
}

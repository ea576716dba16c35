package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrInvestorCapital is returned when an investor cannot cover an investment.
var ErrInvestorCapital = errors.New("ledger: investor capital too low")

// Investment is one entry of an investor's history. Withdrawals carry a
// negative amount.
type Investment struct {
	Time     time.Time       `json:"time"`
	PlayerID string          `json:"player_id"`
	Amount   decimal.Decimal `json:"amount"`
}

// Investor lends capital to players and judges them on returns.
type Investor struct {
	ID   string
	Name string

	Capital decimal.Decimal
	// RiskTolerance runs from 0 (conservative) to 1 (aggressive).
	RiskTolerance float64
	// Satisfaction runs from 0 to 1 and starts at 1.
	Satisfaction float64

	history []Investment
	now     func() time.Time
}

// NewInvestor creates an investor with a fresh id.
func NewInvestor(name string, capital decimal.Decimal, riskTolerance float64) *Investor {
	return RestoreInvestor(uuid.New().String(), name, capital, riskTolerance, 1.0)
}

// RestoreInvestor rebuilds a persisted investor.
func RestoreInvestor(id, name string, capital decimal.Decimal, riskTolerance, satisfaction float64) *Investor {
	return &Investor{
		ID:            id,
		Name:          name,
		Capital:       capital,
		RiskTolerance: clamp01(riskTolerance),
		Satisfaction:  clamp01(satisfaction),
		now:           time.Now,
	}
}

// History returns the investment history, oldest first.
func (inv *Investor) History() []Investment {
	out := make([]Investment, len(inv.history))
	copy(out, inv.history)
	return out
}

// Invest moves amount from the investor to p.
func (inv *Investor) Invest(p *Player, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if amount.GreaterThan(inv.Capital) {
		return fmt.Errorf("%w: asked %s, have %s", ErrInvestorCapital, amount, inv.Capital)
	}
	if err := p.ReceiveInvestment(inv.ID, amount); err != nil {
		return err
	}
	inv.Capital = inv.Capital.Sub(amount)
	inv.history = append(inv.history, Investment{Time: inv.now().UTC(), PlayerID: p.ID, Amount: amount})
	return nil
}

// Withdraw takes amount back from p.
func (inv *Investor) Withdraw(p *Player, amount decimal.Decimal) error {
	if err := p.ReturnInvestment(inv.ID, amount); err != nil {
		return err
	}
	inv.Capital = inv.Capital.Add(amount)
	inv.history = append(inv.history, Investment{Time: inv.now().UTC(), PlayerID: p.ID, Amount: amount.Neg()})
	return nil
}

// ExpectedReturn is the return rate the investor is content with, between
// 5% and 20% depending on risk tolerance.
func (inv *Investor) ExpectedReturn() float64 {
	return 0.05 + inv.RiskTolerance*0.15
}

// UpdateSatisfaction grades a realized return rate against ExpectedReturn.
func (inv *Investor) UpdateSatisfaction(returnRate float64) {
	if returnRate >= inv.ExpectedReturn() {
		inv.Satisfaction = min(1.0, inv.Satisfaction+0.1)
	} else {
		inv.Satisfaction = max(0.0, inv.Satisfaction-0.2)
	}
}

func clamp01(v float64) float64 {
	return max(0, min(1, v))
}

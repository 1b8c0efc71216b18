// Package oracle decides spin outcomes.
//
// The table never picks its own winning number: it asks an Oracle, which
// answers with the winning segment, the player's new balance and optionally
// the path the ball must follow. LocalOracle runs in-process, Client talks to
// a remote oracle over HTTP and Server exposes any Oracle over HTTP.
package oracle

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vovakirdan/tui-roulette/internal/physics"
	"github.com/vovakirdan/tui-roulette/internal/wheel"
)

var (
	// ErrInvalidRequest is returned for malformed spin requests.
	ErrInvalidRequest = errors.New("oracle: invalid spin request")
	// ErrInsufficientBalance is returned when the stake exceeds the balance.
	ErrInsufficientBalance = errors.New("oracle: insufficient balance")
	// ErrInvalidResponse is returned when an oracle answers with an unusable outcome.
	ErrInvalidResponse = errors.New("oracle: invalid spin response")
)

// StraightUpPayout is the multiple of the stake won by a single-number bet,
// not counting the returned stake.
var StraightUpPayout = decimal.NewFromInt(35)

// Bet is a straight-up bet on one printed number.
type Bet struct {
	Number int             `json:"number"`
	Amount decimal.Decimal `json:"amount"`
}

// SpinRequest asks for one spin outcome.
type SpinRequest struct {
	BetAmount decimal.Decimal `json:"betAmount"` // Total stake; must equal the sum of Bets
	Bets      []Bet           `json:"bets"`
	Currency  string          `json:"currency"`
}

// SpinResponse is the oracle's answer.
type SpinResponse struct {
	SpinID       string          `json:"spinId"`
	WinningIndex int             `json:"winningIndex"`
	SpinPath     *physics.Path   `json:"spinPath,omitempty"` // Authoritative path, if the oracle sends one
	Payout       decimal.Decimal `json:"payout"`
	NewBalance   decimal.Decimal `json:"newBalance"`
}

// WinningNumber returns the printed number of the winning segment.
func (r SpinResponse) WinningNumber() int {
	return wheel.NumberAt(r.WinningIndex)
}

// Oracle produces spin outcomes.
type Oracle interface {
	Spin(ctx context.Context, req SpinRequest) (SpinResponse, error)
}

// Validate checks the bets and the declared total.
func (r SpinRequest) Validate() error {
	if len(r.Bets) == 0 {
		return fmt.Errorf("%w: no bets", ErrInvalidRequest)
	}
	total := decimal.Zero
	for i, b := range r.Bets {
		if _, ok := wheel.IndexOf(b.Number); !ok {
			return fmt.Errorf("%w: bet %d: number %d is not on the wheel", ErrInvalidRequest, i, b.Number)
		}
		if !b.Amount.IsPositive() {
			return fmt.Errorf("%w: bet %d: amount must be positive", ErrInvalidRequest, i)
		}
		total = total.Add(b.Amount)
	}
	if !total.Equal(r.BetAmount) {
		return fmt.Errorf("%w: bet amount %s does not match bets total %s", ErrInvalidRequest, r.BetAmount, total)
	}
	return nil
}

// Validate checks that the response can drive a spin.
func (r SpinResponse) Validate(maxOuterFrames int) error {
	if !wheel.ValidIndex(r.WinningIndex) {
		return fmt.Errorf("%w: winning index %d out of range", ErrInvalidResponse, r.WinningIndex)
	}
	if r.SpinPath != nil {
		if err := r.SpinPath.Validate(maxOuterFrames); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidResponse, err)
		}
	}
	return nil
}

// Settle returns the payout of bets against the winning number.
func Settle(bets []Bet, winningNumber int) decimal.Decimal {
	payout := decimal.Zero
	for _, b := range bets {
		if b.Number == winningNumber {
			// Stake is returned on top of the winnings.
			payout = payout.Add(b.Amount.Mul(StraightUpPayout.Add(decimal.NewFromInt(1))))
		}
	}
	return payout
}

// StraightUp builds a request for a single bet.
func StraightUp(number int, amount decimal.Decimal, currency string) SpinRequest {
	return SpinRequest{
		BetAmount: amount,
		Bets:      []Bet{{Number: number, Amount: amount}},
		Currency:  currency,
	}
}

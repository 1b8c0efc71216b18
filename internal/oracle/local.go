package oracle

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vovakirdan/tui-roulette/internal/paths"
	"github.com/vovakirdan/tui-roulette/internal/wheel"
)

// LocalOracle picks outcomes in-process from a seeded generator and keeps a
// single player's balance.
type LocalOracle struct {
	mu      sync.Mutex
	rng     *rand.Rand
	balance decimal.Decimal
	solver  *paths.Solver // nil when no path is attached
}

// NewLocalOracle creates an oracle. When solver is non-nil every response
// carries a path that lands on the winning segment.
func NewLocalOracle(seed int64, balance decimal.Decimal, solver *paths.Solver) *LocalOracle {
	return &LocalOracle{
		rng:     rand.New(rand.NewSource(seed)),
		balance: balance,
		solver:  solver,
	}
}

// Balance returns the current balance.
func (o *LocalOracle) Balance() decimal.Decimal {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.balance
}

// Spin settles the request against a freshly drawn winning segment.
func (o *LocalOracle) Spin(ctx context.Context, req SpinRequest) (SpinResponse, error) {
	if err := ctx.Err(); err != nil {
		return SpinResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return SpinResponse{}, err
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if req.BetAmount.GreaterThan(o.balance) {
		return SpinResponse{}, fmt.Errorf("%w: stake %s, balance %s", ErrInsufficientBalance, req.BetAmount, o.balance)
	}

	idx := o.rng.Intn(wheel.SegmentCount)
	payout := Settle(req.Bets, wheel.NumberAt(idx))
	o.balance = o.balance.Sub(req.BetAmount).Add(payout)

	resp := SpinResponse{
		SpinID:       uuid.NewString(),
		WinningIndex: idx,
		Payout:       payout,
		NewBalance:   o.balance,
	}
	if o.solver != nil {
		// Without a path the table solves one itself.
		if p, err := o.solver.Solve(idx); err == nil {
			resp.SpinPath = &p
		}
	}
	return resp, nil
}

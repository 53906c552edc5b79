// Package accrual implements the pure arithmetic at the centre of the loyalty
// program: mapping a pro's cumulative totals and a new order amount onto
// updated totals and the store-credit delta owed since the last cycle.
package accrual

import "math/big"

// Totals holds the cumulative counters tracked per pro. Revenue and
// CreditEarned are minor-unit amounts; both are monotonically non-decreasing
// across successful cycles.
type Totals struct {
	Revenue      *big.Int
	OrdersCount  int64
	CreditEarned *big.Int
}

// Result is the outcome of one accrual evaluation.
type Result struct {
	NewRevenue      *big.Int
	NewOrdersCount  int64
	NewCreditEarned *big.Int
	// DepositDelta is the credit newly owed by this cycle. It is clamped to
	// zero when the configured tier parameters shrank between cycles, so a
	// caller never attempts a negative credit.
	DepositDelta *big.Int
}

// Accrue folds one order into the pro's running totals.
//
// newCreditEarned = floor(newRevenue / threshold) * creditAmount, using the
// configuration in effect now. The delta against the previously earned credit
// is what the caller should deposit; it is non-negative whenever threshold is
// positive and revenue only grows.
func Accrue(prev Totals, orderAmount *big.Int, cfg *ShopConfig) Result {
	if cfg == nil {
		cfg = DefaultShopConfig()
	} else {
		cfg = cfg.Clone().Normalize()
	}

	prevRevenue := valueOrZero(prev.Revenue)
	prevCredit := valueOrZero(prev.CreditEarned)
	amount := valueOrZero(orderAmount)

	newRevenue := new(big.Int).Add(prevRevenue, amount)
	tiers := new(big.Int).Quo(newRevenue, cfg.Threshold)
	newCredit := tiers.Mul(tiers, cfg.CreditAmount)

	delta := new(big.Int).Sub(newCredit, prevCredit)
	if delta.Sign() < 0 {
		delta = big.NewInt(0)
	}

	return Result{
		NewRevenue:      newRevenue,
		NewOrdersCount:  prev.OrdersCount + 1,
		NewCreditEarned: newCredit,
		DepositDelta:    delta,
	}
}

func valueOrZero(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}

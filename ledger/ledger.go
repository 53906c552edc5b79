// Package ledger integrates with the platform's store-credit accounts: the
// external balances customers spend against, distinct from the cumulative
// credit counters the accrual engine tracks.
package ledger

import (
	"context"
	"errors"
	"math/big"
)

// ErrNoAccount reports that the customer has no store-credit account. The
// accrual cycle treats this as a skipped deposit, not a failure.
var ErrNoAccount = errors.New("customer has no store-credit account")

// ErrPermissionDenied reports that the installation lacks the grant needed to
// read or credit store-credit accounts. Expected in some installations; the
// cycle must still commit its counters so deposits reconcile once the grant
// arrives.
var ErrPermissionDenied = errors.New("store-credit permission denied")

// Receipt describes a successful deposit.
type Receipt struct {
	AccountID     string
	TransactionID string
}

// Gateway deposits store credit for a customer. Implementations look up the
// customer's account first and then submit the credit mutation; the mutation
// carries no dedupe key, so callers own idempotency.
type Gateway interface {
	Deposit(ctx context.Context, customerID string, amount *big.Int, currency string) (*Receipt, error)
}

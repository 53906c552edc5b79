// Package directory talks to the commerce platform's object store that holds
// the loyalty program's pro records, and resolves promo codes to pros.
package directory

import (
	"context"
	"errors"
	"math/big"
	"strings"
)

// DefaultPageSize is the largest page the platform serves per enumeration call.
const DefaultPageSize = 250

// DefaultScanLimit bounds how many records the exhaustive fallback will visit
// before giving up, keeping worst-case resolution latency bounded.
const DefaultScanLimit = 1000

// ErrNotFound reports that a code matched no pro. It is distinct from any
// transport or query failure, which is returned wrapped instead.
var ErrNotFound = errors.New("pro not found")

// Pro is a loyalty-program participant as stored by the platform.
type Pro struct {
	// ID is the platform's opaque object identifier. Read-only.
	ID string
	// Code is the promo code, unique per shop under case-insensitive compare.
	Code string
	// CustomerID links the pro to a platform customer account. Empty means no
	// linked customer, so no ledger deposit can be made.
	CustomerID string
	// Active mirrors the stored status flag. Accrual does not gate on it.
	Active bool

	CacheRevenue      *big.Int
	CacheOrdersCount  int64
	CacheCreditEarned *big.Int
}

// Client is the subset of the platform object-store API the engine requires.
type Client interface {
	// GetPro fetches a single pro by its object id.
	GetPro(ctx context.Context, id string) (*Pro, error)
	// SearchPros queries the code index. The index tokenizes, so results may
	// contain false positives; callers must post-filter for exact matches.
	SearchPros(ctx context.Context, query string) ([]Pro, error)
	// ListPros enumerates the full pro set one cursor page at a time. An empty
	// returned cursor means the enumeration is exhausted.
	ListPros(ctx context.Context, cursor string, limit int) ([]Pro, string, error)
	// UpdateProCache overwrites exactly the three cumulative counters on the
	// identified pro, leaving every other field untouched.
	UpdateProCache(ctx context.Context, id string, revenue *big.Int, ordersCount int64, creditEarned *big.Int) error
	// DiscountCode resolves a discount-application identifier back to the
	// original code text.
	DiscountCode(ctx context.Context, applicationID string) (string, error)
}

// NormalizeCode applies the comparison normalization used everywhere codes are
// matched: surrounding whitespace stripped, lower-cased.
func NormalizeCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

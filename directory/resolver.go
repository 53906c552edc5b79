package directory

import (
	"context"
	"fmt"
)

// Resolver maps promo codes to pro records using a two-phase strategy: the
// platform's search index first, then a bounded exhaustive scan. The index can
// lag freshly created records and mis-tokenizes punctuated codes, so the slow
// path trades latency for correctness only when the fast path comes up empty.
type Resolver struct {
	client     Client
	pageSize   int
	scanLimit  int
	onFallback func()
}

// OnFallback registers a hook invoked whenever resolution falls through to
// the exhaustive scan. Used for instrumentation.
func (r *Resolver) OnFallback(fn func()) {
	r.onFallback = fn
}

// NewResolver builds a Resolver over the given client. Non-positive bounds
// fall back to the package defaults.
func NewResolver(client Client, pageSize, scanLimit int) *Resolver {
	if pageSize <= 0 || pageSize > DefaultPageSize {
		pageSize = DefaultPageSize
	}
	if scanLimit <= 0 {
		scanLimit = DefaultScanLimit
	}
	return &Resolver{client: client, pageSize: pageSize, scanLimit: scanLimit}
}

// Resolve returns the pro owning the given promo code. It returns ErrNotFound
// when no pro matches within the scan bound; any other error is a query or
// transport failure and must not be treated as "no match".
func (r *Resolver) Resolve(ctx context.Context, code string) (*Pro, error) {
	normalized := NormalizeCode(code)
	if normalized == "" {
		return nil, ErrNotFound
	}

	candidates, err := r.client.SearchPros(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("search pros: %w", err)
	}
	for i := range candidates {
		if NormalizeCode(candidates[i].Code) == normalized {
			return &candidates[i], nil
		}
	}

	if r.onFallback != nil {
		r.onFallback()
	}
	return r.scan(ctx, normalized)
}

func (r *Resolver) scan(ctx context.Context, normalized string) (*Pro, error) {
	cursor := ""
	scanned := 0
	for scanned < r.scanLimit {
		limit := r.pageSize
		if remaining := r.scanLimit - scanned; remaining < limit {
			limit = remaining
		}
		page, next, err := r.client.ListPros(ctx, cursor, limit)
		if err != nil {
			return nil, fmt.Errorf("list pros: %w", err)
		}
		for i := range page {
			if NormalizeCode(page[i].Code) == normalized {
				return &page[i], nil
			}
		}
		scanned += len(page)
		if next == "" || len(page) == 0 {
			break
		}
		cursor = next
	}
	return nil, ErrNotFound
}

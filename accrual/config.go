package accrual

import (
	"fmt"
	"math/big"
)

// Default tier parameters applied when a shop has no stored configuration:
// one credit grant of 10.00 for every 500.00 of attributed revenue.
var (
	DefaultThreshold    = big.NewInt(50_000)
	DefaultCreditAmount = big.NewInt(1_000)
)

// ShopConfig controls the reward tiering for a single shop.
//
// All monetary values are expressed in minor currency units (cents-style
// integers) to keep the tier arithmetic exact over long accrual histories.
type ShopConfig struct {
	// Threshold is the cumulative revenue per credit tier. Must be positive.
	Threshold *big.Int
	// CreditAmount is the credit granted each time a tier is crossed.
	CreditAmount *big.Int
}

// DefaultShopConfig returns the documented lazy-creation defaults.
func DefaultShopConfig() *ShopConfig {
	return &ShopConfig{
		Threshold:    new(big.Int).Set(DefaultThreshold),
		CreditAmount: new(big.Int).Set(DefaultCreditAmount),
	}
}

// Clone produces a deep copy of the configuration.
func (c *ShopConfig) Clone() *ShopConfig {
	if c == nil {
		return nil
	}
	clone := &ShopConfig{}
	if c.Threshold != nil {
		clone.Threshold = new(big.Int).Set(c.Threshold)
	}
	if c.CreditAmount != nil {
		clone.CreditAmount = new(big.Int).Set(c.CreditAmount)
	}
	return clone
}

// Normalize ensures all pointer fields are non-nil, substituting defaults for
// missing values. The method returns the receiver to allow chaining.
func (c *ShopConfig) Normalize() *ShopConfig {
	if c == nil {
		return nil
	}
	if c.Threshold == nil || c.Threshold.Sign() <= 0 {
		c.Threshold = new(big.Int).Set(DefaultThreshold)
	}
	if c.CreditAmount == nil || c.CreditAmount.Sign() < 0 {
		c.CreditAmount = new(big.Int).Set(DefaultCreditAmount)
	}
	return c
}

// Validate performs static validation of the configuration.
func (c *ShopConfig) Validate() error {
	if c == nil {
		return fmt.Errorf("nil shop config")
	}
	if c.Threshold == nil || c.Threshold.Sign() <= 0 {
		return fmt.Errorf("threshold must be positive")
	}
	if c.CreditAmount == nil || c.CreditAmount.Sign() < 0 {
		return fmt.Errorf("creditAmount must not be negative")
	}
	return nil
}

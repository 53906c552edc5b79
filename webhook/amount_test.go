package webhook

import (
	"math/big"
	"testing"
)

func TestPreDiscountAmountLineItems(t *testing.T) {
	order := &OrderPayload{
		LineItems: []LineItem{
			{Price: "100.00", Quantity: 2},
			{Price: "50.00", Quantity: 1},
		},
		SubtotalPrice: "225.00",
	}
	amount, strategy, ok := preDiscountAmount(order)
	if !ok {
		t.Fatal("no amount extracted")
	}
	if strategy != "line_items" {
		t.Fatalf("strategy = %s, want line_items", strategy)
	}
	if amount.Cmp(big.NewInt(25000)) != 0 {
		t.Fatalf("amount = %s, want 25000", amount)
	}
}

func TestPreDiscountAmountZeroQuantityCountsOnce(t *testing.T) {
	order := &OrderPayload{LineItems: []LineItem{{Price: "80.00", Quantity: 0}}}
	amount, _, ok := preDiscountAmount(order)
	if !ok || amount.Cmp(big.NewInt(8000)) != 0 {
		t.Fatalf("amount = %v ok=%v, want 8000", amount, ok)
	}
}

func TestPreDiscountAmountSubtotalPlusDiscounts(t *testing.T) {
	order := &OrderPayload{
		SubtotalPrice:  "400.00",
		TotalDiscounts: "50.00",
	}
	amount, strategy, ok := preDiscountAmount(order)
	if !ok {
		t.Fatal("no amount extracted")
	}
	if strategy != "subtotal_plus_discounts" {
		t.Fatalf("strategy = %s, want subtotal_plus_discounts", strategy)
	}
	if amount.Cmp(big.NewInt(45000)) != 0 {
		t.Fatalf("amount = %s, want 45000", amount)
	}
}

func TestPreDiscountAmountBadLinePriceFallsThrough(t *testing.T) {
	order := &OrderPayload{
		LineItems:     []LineItem{{Price: "n/a", Quantity: 1}},
		SubtotalPrice: "99.00",
	}
	amount, strategy, ok := preDiscountAmount(order)
	if !ok || strategy != "subtotal_plus_discounts" {
		t.Fatalf("strategy = %s ok=%v, want subtotal fallback", strategy, ok)
	}
	if amount.Cmp(big.NewInt(9900)) != 0 {
		t.Fatalf("amount = %s, want 9900", amount)
	}
}

func TestPreDiscountAmountTotalLessShippingTax(t *testing.T) {
	order := &OrderPayload{
		TotalPrice:    "120.00",
		TotalShipping: "12.50",
		TotalTax:      "7.50",
	}
	amount, strategy, ok := preDiscountAmount(order)
	if !ok {
		t.Fatal("no amount extracted")
	}
	if strategy != "total_less_shipping_tax" {
		t.Fatalf("strategy = %s, want total_less_shipping_tax", strategy)
	}
	if amount.Cmp(big.NewInt(10000)) != 0 {
		t.Fatalf("amount = %s, want 10000", amount)
	}
}

func TestPreDiscountAmountRejectsNegativeDerivation(t *testing.T) {
	// Shipping exceeding the total means the field set is inconsistent; the
	// strategy must fail rather than produce a negative amount.
	order := &OrderPayload{
		TotalPrice:    "10.00",
		TotalShipping: "20.00",
	}
	if _, _, ok := preDiscountAmount(order); ok {
		t.Fatal("extracted an amount from inconsistent totals")
	}
}

func TestPreDiscountAmountNothingUsable(t *testing.T) {
	if _, _, ok := preDiscountAmount(&OrderPayload{}); ok {
		t.Fatal("extracted an amount from an empty payload")
	}
}

package webhook

import (
	"math/big"
	"strings"

	"procredit/accrual"
)

// An amountStrategy derives the pre-discount order amount from one set of
// payload fields. Strategies are pure and ordered by reliability; the first
// one that produces a value wins.
type amountStrategy struct {
	name    string
	extract func(*OrderPayload) (*big.Int, bool)
}

var amountStrategies = []amountStrategy{
	{name: "line_items", extract: lineItemSum},
	{name: "subtotal_plus_discounts", extract: subtotalPlusDiscounts},
	{name: "total_less_shipping_tax", extract: totalLessShippingTax},
}

// preDiscountAmount runs the extraction strategies in order and returns the
// first hit together with the strategy name for logging.
func preDiscountAmount(order *OrderPayload) (*big.Int, string, bool) {
	for _, strategy := range amountStrategies {
		if amount, ok := strategy.extract(order); ok {
			return amount, strategy.name, true
		}
	}
	return nil, "", false
}

// lineItemSum totals unit price times quantity across all lines. Line prices
// predate the discount, so no correction is needed.
func lineItemSum(order *OrderPayload) (*big.Int, bool) {
	if len(order.LineItems) == 0 {
		return nil, false
	}
	sum := big.NewInt(0)
	for _, item := range order.LineItems {
		price, err := accrual.ParseDecimal(item.Price)
		if err != nil {
			return nil, false
		}
		qty := item.Quantity
		if qty <= 0 {
			qty = 1
		}
		sum.Add(sum, price.Mul(price, big.NewInt(qty)))
	}
	return sum, true
}

// subtotalPlusDiscounts reverses the discount out of the post-discount
// subtotal.
func subtotalPlusDiscounts(order *OrderPayload) (*big.Int, bool) {
	if strings.TrimSpace(order.SubtotalPrice) == "" {
		return nil, false
	}
	subtotal, err := accrual.ParseDecimal(order.SubtotalPrice)
	if err != nil {
		return nil, false
	}
	if strings.TrimSpace(order.TotalDiscounts) != "" {
		discounts, err := accrual.ParseDecimal(order.TotalDiscounts)
		if err != nil {
			return nil, false
		}
		subtotal.Add(subtotal, discounts)
	}
	return subtotal, true
}

// totalLessShippingTax strips shipping and tax from the grand total. Least
// precise, used only when nothing else is available.
func totalLessShippingTax(order *OrderPayload) (*big.Int, bool) {
	if strings.TrimSpace(order.TotalPrice) == "" {
		return nil, false
	}
	total, err := accrual.ParseDecimal(order.TotalPrice)
	if err != nil {
		return nil, false
	}
	for _, deduction := range []string{order.TotalShipping, order.TotalTax} {
		if strings.TrimSpace(deduction) == "" {
			continue
		}
		amount, err := accrual.ParseDecimal(deduction)
		if err != nil {
			return nil, false
		}
		total.Sub(total, amount)
	}
	if total.Sign() < 0 {
		return nil, false
	}
	return total, true
}

package webhook

// OrderPayload is the order representation carried by the platform's webhook.
// Only the fields the accrual cycle consumes are modelled; monetary fields
// travel as decimal strings.
type OrderPayload struct {
	ID                   int64                 `json:"id"`
	Currency             string                `json:"currency"`
	DiscountCodes        []DiscountCode        `json:"discount_codes"`
	DiscountApplications []DiscountApplication `json:"discount_applications"`
	LineItems            []LineItem            `json:"line_items"`
	SubtotalPrice        string                `json:"subtotal_price"`
	TotalPrice           string                `json:"total_price"`
	TotalDiscounts       string                `json:"total_discounts"`
	TotalShipping        string                `json:"total_shipping"`
	TotalTax             string                `json:"total_tax"`
}

// DiscountCode is an entry of the order's explicit code list.
type DiscountCode struct {
	Code string `json:"code"`
}

// DiscountApplication records how a discount was applied. Some application
// records carry only an internal identifier instead of the code text; those
// need a secondary lookup to recover the original code.
type DiscountApplication struct {
	Type          string `json:"type"`
	Code          string `json:"code"`
	ApplicationID string `json:"application_id"`
	Title         string `json:"title"`
}

// LineItem is one order line with its unit price and quantity.
type LineItem struct {
	Price    string `json:"price"`
	Quantity int64  `json:"quantity"`
}

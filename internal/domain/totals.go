package domain

import "github.com/justinloleng/ecommerce/pkg/money"

// DefaultShippingFee is the flat shipping charge of 5.00.
const DefaultShippingFee money.Cents = 500

// Totals is the three-part checkout total. Total == Subtotal + Shipping.
type Totals struct {
	Subtotal money.Cents `json:"subtotal_cents"`
	Shipping money.Cents `json:"shipping_cents"`
	Total    money.Cents `json:"total_cents"`
}

// TotalCalculator derives totals from the selected lines.
type TotalCalculator struct {
	ShippingFee money.Cents
	// ChargeShippingWhenEmpty shows the flat fee even when nothing is selected.
	ChargeShippingWhenEmpty bool
}

// NewTotalCalculator returns a calculator with the default fee.
func NewTotalCalculator() TotalCalculator {
	return TotalCalculator{ShippingFee: DefaultShippingFee}
}

// Calculate is pure; the result does not depend on line order.
func (c TotalCalculator) Calculate(lines []SelectedLine) Totals {
	var subtotal money.Cents
	for _, l := range lines {
		subtotal += l.LineTotal()
	}

	var shipping money.Cents
	if subtotal > 0 || c.ChargeShippingWhenEmpty {
		shipping = c.ShippingFee
	}

	return Totals{
		Subtotal: subtotal,
		Shipping: shipping,
		Total:    subtotal + shipping,
	}
}

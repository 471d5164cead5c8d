// Package money converts between the storefront API's decimal prices and the
// integer cents used for every calculation.
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Cents is an amount in minor currency units.
type Cents int64

var hundred = decimal.NewFromInt(100)

// FromDecimal rounds d half away from zero to the nearest cent.
func FromDecimal(d decimal.Decimal) Cents {
	return Cents(d.Mul(hundred).Round(0).IntPart())
}

// Parse reads a decimal string such as "10.00" or "5".
func Parse(s string) (Cents, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return FromDecimal(d), nil
}

// FromFloat converts a JSON float price. The value goes through its shortest
// decimal representation first so 19.99 becomes 1999, not 1998.
func FromFloat(f float64) Cents {
	return FromDecimal(decimal.NewFromFloat(f))
}

// Decimal returns the amount in major units.
func (c Cents) Decimal() decimal.Decimal {
	return decimal.New(int64(c), -2)
}

// Mul multiplies by a quantity.
func (c Cents) Mul(qty int) Cents {
	return c * Cents(qty)
}

// String renders the amount with two decimals, e.g. "25.00".
func (c Cents) String() string {
	return c.Decimal().StringFixed(2)
}

// Format renders the amount for display, e.g. "$25.00".
func (c Cents) Format() string {
	if c < 0 {
		return "-$" + (-c).String()
	}
	return "$" + c.String()
}

// Amount is a wire price: it decodes a JSON number or numeric string into
// cents and encodes back to a two-decimal number.
type Amount struct {
	Cents Cents
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		a.Cents = 0
		return nil
	}
	c, err := Parse(s)
	if err != nil {
		return err
	}
	a.Cents = c
	return nil
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.Cents.String()), nil
}

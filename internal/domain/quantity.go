package domain

import (
	"strconv"
	"strings"
)

// ValidateQuantity parses a quantity typed by the shopper and checks it
// against the stock ceiling. Zero is valid and means removal.
func ValidateQuantity(raw string, stockCeiling int) (int, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, ErrInvalidQuantity
	}
	q, err := strconv.Atoi(s)
	if err != nil || q < 0 {
		return 0, ErrInvalidQuantity
	}
	if err := CheckQuantity(q, stockCeiling); err != nil {
		return 0, err
	}
	return q, nil
}

// CheckQuantity validates an already-numeric quantity.
func CheckQuantity(q, stockCeiling int) error {
	if q < 0 {
		return ErrInvalidQuantity
	}
	if q > stockCeiling {
		return &StockExceededError{Ceiling: stockCeiling}
	}
	return nil
}

package domain

import (
	"errors"
	"fmt"
)

// Validation errors are resolved locally: nothing is sent to the API.
var (
	ErrInvalidQuantity = errors.New("quantity must be a whole number of zero or more")
	ErrEmptySelection  = errors.New("select at least one item to check out")
	ErrUnknownItem     = errors.New("item is not in the cart")
)

// Flow errors.
var (
	ErrConfirmationRequired = errors.New("confirmation required")
	ErrMutationInProgress   = errors.New("another cart update is still in progress")
	ErrOrderNotCancellable  = errors.New("only pending orders can be cancelled")
	ErrOrderNotPending      = errors.New("only pending orders can be approved or declined")
	ErrDeclineReason        = errors.New("a reason is required to decline an order")
	ErrInvalidProofFile     = errors.New("invalid file type, allowed: jpg, jpeg, png, gif, pdf")
	ErrProofTooLarge        = errors.New("payment proof exceeds the size limit")
	ErrCheckoutNotStarted   = errors.New("no checkout in progress")
)

// NetworkError means the request never reached the API or no response came back.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: storefront api unreachable: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// StockExceededError reports a quantity above the available stock.
// Ceiling is -1 when the API rejected the quantity without saying how many
// are left; Message then holds the API's wording.
type StockExceededError struct {
	Ceiling int
	Message string
}

func (e *StockExceededError) Error() string {
	if e.Ceiling < 0 {
		if e.Message != "" {
			return e.Message
		}
		return "not enough stock available"
	}
	if e.Ceiling == 0 {
		return "this item is out of stock"
	}
	return fmt.Sprintf("only %d left in stock", e.Ceiling)
}

// ServerError is a non-2xx answer. Message is the API's own wording.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("storefront api error %d: %s", e.Status, e.Message)
}

// IsValidation reports whether err can be resolved without a round trip.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidQuantity) ||
		errors.Is(err, ErrEmptySelection) ||
		errors.Is(err, ErrUnknownItem) ||
		errors.Is(err, ErrInvalidProofFile) ||
		errors.Is(err, ErrDeclineReason) ||
		errors.Is(err, ErrProofTooLarge)
}

// NeedsResync reports whether the displayed cart must be reloaded after err.
func NeedsResync(err error) bool {
	if err == nil || IsValidation(err) {
		return false
	}
	return !errors.Is(err, ErrConfirmationRequired) && !errors.Is(err, ErrMutationInProgress)
}

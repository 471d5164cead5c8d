package domain

import (
	"time"

	"github.com/justinloleng/ecommerce/pkg/money"
)

// Source tells where a snapshot came from.
type Source string

const (
	// SourceServer is a snapshot fetched from the storefront API.
	SourceServer Source = "server"
	// SourceLocal is the last known snapshot served while the API is unreachable.
	SourceLocal Source = "local"
)

// CartLineItem is one product entry in the cart. Quantity never exceeds
// StockQuantity on the server side.
type CartLineItem struct {
	ID            int64       `json:"id"`
	ProductID     int64       `json:"product_id"`
	Name          string      `json:"name"`
	UnitPrice     money.Cents `json:"unit_price"`
	Quantity      int         `json:"quantity"`
	StockQuantity int         `json:"stock_quantity"`
	ImageURL      string      `json:"image_url,omitempty"`
	Category      string      `json:"category,omitempty"`
}

// LineTotal returns unit price times quantity.
func (i CartLineItem) LineTotal() money.Cents {
	return i.UnitPrice.Mul(i.Quantity)
}

// CartSnapshot is an immutable copy of the server's cart. It is replaced as
// a whole on every fetch and never patched.
type CartSnapshot struct {
	UserID    int64          `json:"user_id"`
	Items     []CartLineItem `json:"items"`
	Source    Source         `json:"source"`
	FetchedAt time.Time      `json:"fetched_at"`
}

// NewSnapshot copies items so later changes to the caller's slice cannot leak in.
func NewSnapshot(userID int64, items []CartLineItem, source Source, fetchedAt time.Time) *CartSnapshot {
	cp := make([]CartLineItem, len(items))
	copy(cp, items)
	return &CartSnapshot{
		UserID:    userID,
		Items:     cp,
		Source:    source,
		FetchedAt: fetchedAt,
	}
}

// EmptySnapshot is the cart of a user with nothing in it.
func EmptySnapshot(userID int64, source Source, at time.Time) *CartSnapshot {
	return NewSnapshot(userID, nil, source, at)
}

// Subtotal sums every line, selected or not.
func (s *CartSnapshot) Subtotal() money.Cents {
	var total money.Cents
	for _, item := range s.Items {
		total += item.LineTotal()
	}
	return total
}

// ItemCount is the sum of quantities.
func (s *CartSnapshot) ItemCount() int {
	var count int
	for _, item := range s.Items {
		count += item.Quantity
	}
	return count
}

// IsEmpty reports whether the cart has no lines.
func (s *CartSnapshot) IsEmpty() bool {
	return s == nil || len(s.Items) == 0
}

// Item looks up a line by its cart-line id.
func (s *CartSnapshot) Item(id int64) (CartLineItem, bool) {
	if s == nil {
		return CartLineItem{}, false
	}
	for _, item := range s.Items {
		if item.ID == id {
			return item, true
		}
	}
	return CartLineItem{}, false
}

// ItemIDs returns the line ids in server order.
func (s *CartSnapshot) ItemIDs() []int64 {
	if s == nil {
		return nil
	}
	ids := make([]int64, len(s.Items))
	for i, item := range s.Items {
		ids[i] = item.ID
	}
	return ids
}

// AsLocal returns a copy of s marked as the degraded local view.
func (s *CartSnapshot) AsLocal() *CartSnapshot {
	return NewSnapshot(s.UserID, s.Items, SourceLocal, s.FetchedAt)
}

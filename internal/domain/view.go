package domain

import (
	"time"

	"github.com/justinloleng/ecommerce/pkg/money"
)

// CartView is the read model rendered by clients. Every field is derived
// from one snapshot and one selection; nothing is patched in place.
type CartView struct {
	UserID          int64          `json:"user_id"`
	Items           []CartViewItem `json:"items"`
	SelectAll       SelectAllState `json:"select_all"`
	SelectedCount   int            `json:"selected_count"`
	ItemCount       int            `json:"item_count"`
	Totals          TotalsView     `json:"totals"`
	CheckoutEnabled bool           `json:"checkout_enabled"`
	Source          Source         `json:"source"`
	Stale           bool           `json:"stale"`
	FetchedAt       time.Time      `json:"fetched_at"`
	Notice          string         `json:"notice,omitempty"`
}

// CartViewItem is a line with its checkbox state.
type CartViewItem struct {
	CartLineItem
	LineTotal money.Cents `json:"line_total"`
	Selected  bool        `json:"selected"`
}

// TotalsView carries cents for arithmetic and strings for display.
type TotalsView struct {
	Totals
	SubtotalDisplay string `json:"subtotal"`
	ShippingDisplay string `json:"shipping"`
	TotalDisplay    string `json:"total"`
}

// NewTotalsView formats t for display.
func NewTotalsView(t Totals) TotalsView {
	return TotalsView{
		Totals:          t,
		SubtotalDisplay: t.Subtotal.Format(),
		ShippingDisplay: t.Shipping.Format(),
		TotalDisplay:    t.Total.Format(),
	}
}

// BuildView derives the cart view. Checkout needs at least one selected line
// and a snapshot the server vouched for.
func BuildView(snapshot *CartSnapshot, sel *Selection, calc TotalCalculator) *CartView {
	lines := sel.Lines(snapshot)
	items := make([]CartViewItem, len(snapshot.Items))
	for i, item := range snapshot.Items {
		items[i] = CartViewItem{
			CartLineItem: item,
			LineTotal:    item.LineTotal(),
			Selected:     sel.IsSelected(item.ID),
		}
	}

	stale := snapshot.Source != SourceServer
	return &CartView{
		UserID:          snapshot.UserID,
		Items:           items,
		SelectAll:       sel.State(),
		SelectedCount:   len(lines),
		ItemCount:       snapshot.ItemCount(),
		Totals:          NewTotalsView(calc.Calculate(lines)),
		CheckoutEnabled: len(lines) > 0 && !stale,
		Source:          snapshot.Source,
		Stale:           stale,
		FetchedAt:       snapshot.FetchedAt,
	}
}

package domain

import (
	"encoding/json"
	"fmt"

	"github.com/justinloleng/ecommerce/pkg/money"
)

// SelectAllState is the aggregate checkbox state.
type SelectAllState int

const (
	Unchecked SelectAllState = iota
	Indeterminate
	Checked
)

func (s SelectAllState) String() string {
	switch s {
	case Unchecked:
		return "unchecked"
	case Indeterminate:
		return "indeterminate"
	case Checked:
		return "checked"
	default:
		return fmt.Sprintf("SelectAllState(%d)", int(s))
	}
}

func (s SelectAllState) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// SelectedLine is a line chosen for checkout. Price is captured when the
// line is read from the snapshot; the order endpoint re-validates it.
type SelectedLine struct {
	ItemID    int64       `json:"item_id"`
	ProductID int64       `json:"product_id"`
	Name      string      `json:"name"`
	Quantity  int         `json:"quantity"`
	UnitPrice money.Cents `json:"unit_price"`
}

// LineTotal returns unit price times quantity.
func (l SelectedLine) LineTotal() money.Cents {
	return l.UnitPrice.Mul(l.Quantity)
}

// Selection tracks which cart lines are marked for checkout. It is always a
// subset of the snapshot it was last reconciled with.
type Selection struct {
	order    []int64
	selected map[int64]struct{}
}

// NewSelection starts a checkout selection. A nil or empty previous list
// selects every item; otherwise only the previous ids still in the cart.
func NewSelection(snapshot *CartSnapshot, previous []int64) *Selection {
	if len(previous) == 0 {
		sel := RestoreSelection(snapshot, nil)
		sel.ToggleAll(true)
		return sel
	}
	return RestoreSelection(snapshot, previous)
}

// RestoreSelection rebuilds a stored selection exactly: an empty list stays
// empty. Ids no longer in the snapshot are dropped.
func RestoreSelection(snapshot *CartSnapshot, selected []int64) *Selection {
	sel := &Selection{
		order:    snapshot.ItemIDs(),
		selected: make(map[int64]struct{}, len(selected)),
	}
	known := sel.known()
	for _, id := range selected {
		if _, ok := known[id]; ok {
			sel.selected[id] = struct{}{}
		}
	}
	return sel
}

func (s *Selection) known() map[int64]struct{} {
	set := make(map[int64]struct{}, len(s.order))
	for _, id := range s.order {
		set[id] = struct{}{}
	}
	return set
}

// Toggle sets a single item. Unknown ids are rejected.
func (s *Selection) Toggle(id int64, selected bool) error {
	if _, ok := s.known()[id]; !ok {
		return fmt.Errorf("toggle item %d: %w", id, ErrUnknownItem)
	}
	if selected {
		s.selected[id] = struct{}{}
	} else {
		delete(s.selected, id)
	}
	return nil
}

// ToggleAll sets every item to selected. The resulting state is always
// Checked or Unchecked.
func (s *Selection) ToggleAll(selected bool) {
	clear(s.selected)
	if !selected {
		return
	}
	for _, id := range s.order {
		s.selected[id] = struct{}{}
	}
}

// State derives the aggregate checkbox from the counts.
func (s *Selection) State() SelectAllState {
	n := len(s.selected)
	switch {
	case n == 0:
		return Unchecked
	case n == len(s.order):
		return Checked
	default:
		return Indeterminate
	}
}

// IsSelected reports whether id is marked for checkout.
func (s *Selection) IsSelected(id int64) bool {
	_, ok := s.selected[id]
	return ok
}

// Count returns the number of selected lines.
func (s *Selection) Count() int {
	return len(s.selected)
}

// IDs returns the selected ids in snapshot order.
func (s *Selection) IDs() []int64 {
	ids := make([]int64, 0, len(s.selected))
	for _, id := range s.order {
		if _, ok := s.selected[id]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// Reconcile intersects the selection with a freshly fetched snapshot. Lines
// that are new to the cart start unselected.
func (s *Selection) Reconcile(snapshot *CartSnapshot) {
	s.order = snapshot.ItemIDs()
	known := s.known()
	for id := range s.selected {
		if _, ok := known[id]; !ok {
			delete(s.selected, id)
		}
	}
}

// Without deselects ids, used once their lines have been ordered.
func (s *Selection) Without(ids ...int64) {
	for _, id := range ids {
		delete(s.selected, id)
	}
}

// Lines returns the selected lines of snapshot in snapshot order.
func (s *Selection) Lines(snapshot *CartSnapshot) []SelectedLine {
	lines := make([]SelectedLine, 0, len(s.selected))
	for _, item := range snapshot.Items {
		if !s.IsSelected(item.ID) {
			continue
		}
		lines = append(lines, SelectedLine{
			ItemID:    item.ID,
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	return lines
}

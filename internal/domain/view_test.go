package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildView_Server(t *testing.T) {
	snap := twoItemCart()
	sel := NewSelection(snap, []int64{1})

	view := BuildView(snap, sel, NewTotalCalculator())

	assert.Equal(t, Indeterminate, view.SelectAll)
	assert.Equal(t, 1, view.SelectedCount)
	assert.Equal(t, 3, view.ItemCount)
	assert.True(t, view.CheckoutEnabled)
	assert.False(t, view.Stale)
	assert.Equal(t, "$25.00", view.Totals.TotalDisplay)
	require.Len(t, view.Items, 2)
	assert.True(t, view.Items[0].Selected)
	assert.False(t, view.Items[1].Selected)
	assert.Equal(t, int64(2000), int64(view.Items[0].LineTotal))
}

func TestBuildView_EmptyDisablesCheckout(t *testing.T) {
	snap := EmptySnapshot(7, SourceServer, fixedTime)
	view := BuildView(snap, NewSelection(snap, nil), NewTotalCalculator())

	assert.False(t, view.CheckoutEnabled)
	assert.Equal(t, Unchecked, view.SelectAll)
	assert.Equal(t, "$0.00", view.Totals.SubtotalDisplay)
	assert.Empty(t, view.Items)
}

func TestBuildView_LocalIsStale(t *testing.T) {
	snap := twoItemCart().AsLocal()
	view := BuildView(snap, NewSelection(snap, nil), NewTotalCalculator())

	assert.True(t, view.Stale)
	assert.Equal(t, SourceLocal, view.Source)
	assert.False(t, view.CheckoutEnabled)
}

func TestBuildView_JSONShape(t *testing.T) {
	snap := twoItemCart()
	out, err := json.Marshal(BuildView(snap, NewSelection(snap, nil), NewTotalCalculator()))
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(out, &m))
	assert.Equal(t, "checked", m["select_all"])
	totals := m["totals"].(map[string]any)
	assert.Equal(t, "$30.00", totals["total"])
	assert.Equal(t, float64(3000), totals["total_cents"])
	item := m["items"].([]any)[0].(map[string]any)
	assert.Equal(t, true, item["selected"])
	assert.Equal(t, "A", item["name"])
}

package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/justinloleng/ecommerce/internal/domain"
	"github.com/justinloleng/ecommerce/pkg/pagination"
)

// styles holds the terminal palette. With color off every style is plain.
type styles struct {
	header  lipgloss.Style
	muted   lipgloss.Style
	total   lipgloss.Style
	notice  lipgloss.Style
	success lipgloss.Style
	box     lipgloss.Style
}

func newStyles(color bool) styles {
	if !color {
		plain := lipgloss.NewStyle()
		return styles{
			header:  plain.Bold(true),
			muted:   plain,
			total:   plain.Bold(true),
			notice:  plain,
			success: plain,
			box:     plain.Border(lipgloss.NormalBorder()).Padding(0, 1),
		}
	}
	return styles{
		header:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#101F38")).Background(lipgloss.Color("#8BC34A")),
		muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("#8a94a6")),
		total:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#8BC34A")),
		notice:  lipgloss.NewStyle().Foreground(lipgloss.Color("#FFC107")),
		success: lipgloss.NewStyle().Foreground(lipgloss.Color("#8BC34A")),
		box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#2a3850")).
			Padding(0, 1),
	}
}

// column widths of the cart table
const (
	colCheck = 3
	colID    = 6
	colName  = 28
	colQty   = 5
	colPrice = 10
	colTotal = 11
)

func pad(s string, width int, right bool) string {
	if w := lipgloss.Width(s); w > width {
		s = string([]rune(s)[:width-1]) + "…"
	}
	if right {
		return lipgloss.PlaceHorizontal(width, lipgloss.Right, s)
	}
	return lipgloss.PlaceHorizontal(width, lipgloss.Left, s)
}

func checkbox(selected bool) string {
	if selected {
		return "[x]"
	}
	return "[ ]"
}

func selectAllBox(state domain.SelectAllState) string {
	switch state {
	case domain.Checked:
		return "[x]"
	case domain.Indeterminate:
		return "[-]"
	default:
		return "[ ]"
	}
}

// renderCart draws the cart table, its totals and any notice.
func renderCart(w io.Writer, st styles, view *domain.CartView) {
	if view == nil {
		return
	}
	if view.Notice != "" {
		fmt.Fprintln(w, st.notice.Render("! "+view.Notice))
	}
	if len(view.Items) == 0 {
		fmt.Fprintln(w, st.muted.Render("Your cart is empty."))
		return
	}

	var b strings.Builder
	b.WriteString(st.header.Render(strings.Join([]string{
		pad(selectAllBox(view.SelectAll), colCheck, false),
		pad("ITEM", colID, true),
		pad("PRODUCT", colName, false),
		pad("QTY", colQty, true),
		pad("PRICE", colPrice, true),
		pad("TOTAL", colTotal, true),
	}, " ")))
	b.WriteString("\n")

	for _, it := range view.Items {
		name := it.Name
		if it.StockQuantity > 0 && it.Quantity >= it.StockQuantity {
			name += " (max)"
		}
		b.WriteString(strings.Join([]string{
			pad(checkbox(it.Selected), colCheck, false),
			pad(strconv.FormatInt(it.ID, 10), colID, true),
			pad(name, colName, false),
			pad(strconv.Itoa(it.Quantity), colQty, true),
			pad(it.UnitPrice.Format(), colPrice, true),
			pad(it.LineTotal.Format(), colTotal, true),
		}, " "))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("%d of %d selected\n", view.SelectedCount, len(view.Items)))
	b.WriteString(fmt.Sprintf("Subtotal %s\n", view.Totals.SubtotalDisplay))
	b.WriteString(fmt.Sprintf("Shipping %s\n", view.Totals.ShippingDisplay))
	b.WriteString(st.total.Render("Total    " + view.Totals.TotalDisplay))

	fmt.Fprintln(w, st.box.Render(b.String()))
	if view.Stale {
		fmt.Fprintln(w, st.muted.Render("Showing a saved copy of your cart."))
	}
	if !view.CheckoutEnabled {
		fmt.Fprintln(w, st.muted.Render("Select at least one item to check out."))
	}
}

func renderProducts(w io.Writer, st styles, page *domain.ProductPage) {
	if page == nil || len(page.Data) == 0 {
		fmt.Fprintln(w, st.muted.Render("No products found."))
		return
	}
	fmt.Fprintln(w, st.header.Render(strings.Join([]string{
		pad("ID", colID, true),
		pad("PRODUCT", colName, false),
		pad("PRICE", colPrice, true),
		pad("STOCK", colQty+1, true),
	}, " ")))
	for _, p := range page.Data {
		fmt.Fprintln(w, strings.Join([]string{
			pad(strconv.FormatInt(p.ID, 10), colID, true),
			pad(p.Name, colName, false),
			pad(p.Price.Format(), colPrice, true),
			pad(strconv.Itoa(p.StockQuantity), colQty+1, true),
		}, " "))
	}
	fmt.Fprintln(w, st.muted.Render(pageFooter(page)))
}

func pageFooter(page *domain.ProductPage) string {
	pages := pagination.TotalPages(page.TotalCount, page.PerPage)
	return fmt.Sprintf("Page %d of %d, %d products", page.Page, pages, page.TotalCount)
}

func renderOrders(w io.Writer, st styles, orders []domain.Order) {
	if len(orders) == 0 {
		fmt.Fprintln(w, st.muted.Render("No orders yet."))
		return
	}
	fmt.Fprintln(w, st.header.Render(strings.Join([]string{
		pad("ID", colID, true),
		pad("NUMBER", 14, false),
		pad("STATUS", 12, false),
		pad("TOTAL", colTotal, true),
		pad("ITEMS", colName, false),
	}, " ")))
	for _, o := range orders {
		fmt.Fprintln(w, strings.Join([]string{
			pad(strconv.FormatInt(o.ID, 10), colID, true),
			pad(o.OrderNumber, 14, false),
			pad(string(o.Status), 12, false),
			pad(o.TotalAmount.Format(), colTotal, true),
			pad(o.ItemsSummary, colName, false),
		}, " "))
	}
}

package main

import (
	"bytes"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justinloleng/ecommerce/internal/backend/backendtest"
)

func newTestAPI(t *testing.T) *backendtest.Server {
	t.Helper()
	srv := backendtest.New(t)
	srv.AddProduct(backendtest.Product{ID: 100, Name: "Headphones", Price: 1000, Stock: 2})
	srv.AddProduct(backendtest.Product{ID: 200, Name: "Cable", Price: 500, Stock: 10})
	srv.PutLine(7, 100, 2)
	srv.PutLine(7, 200, 1)
	return srv
}

// run executes one invocation with stdin and returns stdout.
func run(t *testing.T, srv *backendtest.Server, stdin string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd(strings.NewReader(stdin), &out, &errOut)
	cmd.SetArgs(append([]string{"--api-url", srv.APIURL(), "--user", "7", "--no-color"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestCartShow(t *testing.T) {
	srv := newTestAPI(t)

	out, err := run(t, srv, "", "cart", "show")
	require.NoError(t, err)

	assert.Contains(t, out, "Headphones (max)")
	assert.Contains(t, out, "2 of 2 selected")
	assert.Contains(t, out, "Total    $30.00")
}

func TestCartShow_RequiresUser(t *testing.T) {
	srv := newTestAPI(t)
	var out bytes.Buffer
	cmd := newRootCmd(strings.NewReader(""), &out, &out)
	cmd.SetArgs([]string{"--api-url", srv.APIURL(), "cart", "show"})

	err := cmd.Execute()
	assert.ErrorContains(t, err, "shopper id is required")
}

func TestCartSet_AboveStock(t *testing.T) {
	srv := newTestAPI(t)
	lineID := srv.Lines(7)[0].ID

	out, err := run(t, srv, "", "cart", "set", itoa(lineID), "5")

	assert.ErrorIs(t, err, errReported)
	assert.Contains(t, out, "only 2 left in stock")
	assert.Equal(t, 2, srv.Lines(7)[0].Quantity)
}

func TestCartRemove_PromptDeclined(t *testing.T) {
	srv := newTestAPI(t)
	lineID := srv.Lines(7)[1].ID

	out, err := run(t, srv, "n\n", "cart", "remove", itoa(lineID))
	require.NoError(t, err)

	assert.Contains(t, out, "Remove Cable from your cart? [y/N]")
	assert.Contains(t, out, "Nothing was changed.")
	assert.Len(t, srv.Lines(7), 2)
}

func TestCartRemove_PromptAccepted(t *testing.T) {
	srv := newTestAPI(t)
	lineID := srv.Lines(7)[1].ID

	_, err := run(t, srv, "y\n", "cart", "remove", itoa(lineID))
	require.NoError(t, err)

	assert.Len(t, srv.Lines(7), 1)
}

func TestCartClear_Yes(t *testing.T) {
	srv := newTestAPI(t)

	out, err := run(t, srv, "", "cart", "clear", "--yes")
	require.NoError(t, err)

	assert.Contains(t, out, "Your cart is empty.")
	assert.Empty(t, srv.Lines(7))
}

func TestCartAdd(t *testing.T) {
	srv := newTestAPI(t)
	srv.AddProduct(backendtest.Product{ID: 300, Name: "Stand", Price: 1500, Stock: 3})

	out, err := run(t, srv, "", "cart", "add", "300", "2")
	require.NoError(t, err)

	assert.Contains(t, out, "Stand")
	// Lines are counted, not units: 2+1+2 units across three lines.
	assert.Contains(t, out, "3 of 3 selected")
	assert.NotContains(t, out, "of 5 selected")
}

func TestCart_Unreachable(t *testing.T) {
	srv := newTestAPI(t)
	srv.SetOffline(true)

	out, err := run(t, srv, "", "cart", "show")

	assert.ErrorIs(t, err, errReported)
	assert.Contains(t, out, "We couldn't reach the store.")
}

func TestProductsList(t *testing.T) {
	srv := newTestAPI(t)

	out, err := run(t, srv, "", "products", "list", "--sort", "price_low")
	require.NoError(t, err)

	assert.Less(t, strings.Index(out, "Cable"), strings.Index(out, "Headphones"))
	assert.Contains(t, out, "Page 1 of 1, 2 products")

	_, err = run(t, srv, "", "products", "list", "--min-price", "abc")
	assert.Error(t, err)
}

func TestOrders(t *testing.T) {
	srv := newTestAPI(t)

	out, err := run(t, srv, "", "orders", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No orders yet.")

	_, err = run(t, srv, "", "orders", "cancel", "1", "--yes")
	assert.Error(t, err)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

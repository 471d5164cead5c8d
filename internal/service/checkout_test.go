package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justinloleng/ecommerce/internal/backend"
	"github.com/justinloleng/ecommerce/internal/backend/backendtest"
	"github.com/justinloleng/ecommerce/internal/domain"
	"github.com/justinloleng/ecommerce/internal/repository"
	"github.com/justinloleng/ecommerce/internal/repository/memory"
	"github.com/justinloleng/ecommerce/pkg/httpclient"
	"github.com/justinloleng/ecommerce/pkg/money"
	"github.com/justinloleng/ecommerce/pkg/validator"
)

type checkoutFixture struct {
	srv         *backendtest.Server
	cart        *Reconciler
	checkout    *CheckoutService
	submissions *memory.SubmissionRepository
	events      *recordedEvents
}

// newCheckoutFixture wires the services to a fake storefront API holding a
// cart with two headphones (all the stock) and one cable.
func newCheckoutFixture(t *testing.T) *checkoutFixture {
	t.Helper()
	srv := backendtest.New(t)
	srv.AddProduct(backendtest.Product{ID: 100, Name: "Headphones", Price: 1000, Stock: 2})
	srv.AddProduct(backendtest.Product{ID: 200, Name: "Cable", Price: 500, Stock: 10})
	srv.PutLine(testUser, 100, 2)
	srv.PutLine(testUser, 200, 1)

	cfg := httpclient.DefaultConfig()
	cfg.MaxRetries = 0
	cfg.Timeout = 2 * time.Second
	api := backend.New(httpclient.New(cfg), srv.APIURL(), newTestLogger())

	f := &checkoutFixture{
		srv:         srv,
		submissions: memory.NewSubmissionRepository(),
		events:      &recordedEvents{},
	}
	f.cart = NewReconciler(api, api, memory.NewSessionRepository(), f.events, domain.NewTotalCalculator(), newTestLogger())
	f.checkout = NewCheckoutService(f.cart, api, f.submissions, f.events, newTestLogger())
	return f
}

func validForm(method domain.PaymentMethod) domain.CheckoutForm {
	return domain.CheckoutForm{
		FullName:      "Ada Lovelace",
		Email:         "ada@example.com",
		Phone:         "+44 20 7946 0958",
		Address:       "12 Analytical St",
		City:          "London",
		ZipCode:       "N1 9GU",
		Country:       "UK",
		PaymentMethod: method,
	}
}

func TestPlaceOrder_OrdersOnlySelectedLines(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()

	view, err := f.cart.FetchCart(ctx, testUser)
	require.NoError(t, err)
	cable := view.Items[1].ID
	_, err = f.cart.SetSelected(ctx, testUser, cable, false)
	require.NoError(t, err)

	placed, after, err := f.checkout.PlaceOrder(ctx, testUser, validForm(domain.PaymentCashOnDelivery), "")
	require.NoError(t, err)

	assert.Equal(t, "Order created successfully", placed.Message)
	require.Len(t, placed.Lines, 1)
	assert.Equal(t, int64(100), placed.Lines[0].ProductID)
	assert.Equal(t, money.Cents(2000), placed.Totals.Subtotal)
	assert.Equal(t, money.Cents(2500), placed.Totals.Total)
	assert.False(t, placed.ProofNext)

	require.Len(t, after.Items, 1)
	assert.Equal(t, cable, after.Items[0].ID)
	assert.False(t, after.Items[0].Selected)
	assert.False(t, after.CheckoutEnabled)

	orders := f.srv.Orders(testUser)
	require.Len(t, orders, 1)
	assert.Equal(t, "12 Analytical St, London, N1 9GU, UK", orders[0].ShippingAddress)
	assert.Equal(t, "cash_on_delivery", orders[0].PaymentMethod)
	assert.Contains(t, f.events.Names(), "order.placed")
}

func TestPlaceOrder_KeepsSelectionChangedDuringSubmit(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()

	view, err := f.cart.FetchCart(ctx, testUser)
	require.NoError(t, err)
	cable := view.Items[1].ID
	_, err = f.cart.SetSelected(ctx, testUser, cable, false)
	require.NoError(t, err)

	f.srv.BeforeOrder(func() {
		_, err := f.cart.SetSelected(ctx, testUser, cable, true)
		assert.NoError(t, err)
	})

	placed, after, err := f.checkout.PlaceOrder(ctx, testUser, validForm(domain.PaymentCashOnDelivery), "")
	require.NoError(t, err)

	require.Len(t, placed.Lines, 1)
	require.Len(t, after.Items, 1)
	assert.Equal(t, cable, after.Items[0].ID)
	assert.True(t, after.Items[0].Selected)
	assert.True(t, after.CheckoutEnabled)
}

func TestPlaceOrder_OnlinePaymentAsksForProof(t *testing.T) {
	f := newCheckoutFixture(t)

	placed, _, err := f.checkout.PlaceOrder(context.Background(), testUser, validForm(domain.PaymentOnline), "")
	require.NoError(t, err)

	assert.True(t, placed.ProofNext)
	assert.Len(t, placed.Lines, 2)
	assert.Empty(t, f.srv.Lines(testUser))
}

func TestPlaceOrder_RepeatedKeySubmitsOnce(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()

	first, _, err := f.checkout.PlaceOrder(ctx, testUser, validForm(domain.PaymentCashOnDelivery), "key-1")
	require.NoError(t, err)

	again, view, err := f.checkout.PlaceOrder(ctx, testUser, validForm(domain.PaymentCashOnDelivery), "key-1")
	require.NoError(t, err)

	assert.Equal(t, first.Order.ID, again.Order.ID)
	assert.Equal(t, "Order already placed", again.Message)
	assert.NotNil(t, view)
	assert.Equal(t, 1, f.srv.Count("POST", "/orders"))
}

func TestPlaceOrder_KeyInFlightIsRefused(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()
	_, _, err := f.submissions.Reserve(ctx, repository.Submission{Key: "key-2", UserID: testUser}, time.Minute)
	require.NoError(t, err)

	_, _, err = f.checkout.PlaceOrder(ctx, testUser, validForm(domain.PaymentCashOnDelivery), "key-2")
	assert.ErrorIs(t, err, domain.ErrMutationInProgress)
	assert.Zero(t, f.srv.Count("POST", "/orders"))
}

func TestPlaceOrder_EmptySelection(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()
	_, err := f.cart.SelectAll(ctx, testUser, false)
	require.NoError(t, err)

	placed, view, err := f.checkout.PlaceOrder(ctx, testUser, validForm(domain.PaymentCashOnDelivery), "")

	assert.Nil(t, placed)
	assert.ErrorIs(t, err, domain.ErrEmptySelection)
	assert.False(t, view.CheckoutEnabled)
	assert.Zero(t, f.srv.Count("POST", "/orders"))
}

func TestPlaceOrder_InvalidFormSendsNothing(t *testing.T) {
	f := newCheckoutFixture(t)
	form := validForm(domain.PaymentCashOnDelivery)
	form.Email = "not-an-email"
	form.City = "   "

	_, _, err := f.checkout.PlaceOrder(context.Background(), testUser, form, "")

	var valErr *validator.ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Contains(t, valErr.Fields(), "email")
	assert.Contains(t, valErr.Fields(), "city")
	assert.Empty(t, f.srv.Requests())
}

func TestPlaceOrder_StockRaceReloadsAndFreesKey(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()
	f.srv.SetStock(100, 1)

	placed, view, err := f.checkout.PlaceOrder(ctx, testUser, validForm(domain.PaymentCashOnDelivery), "key-3")

	assert.Nil(t, placed)
	var stockErr *domain.StockExceededError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "Not enough stock for Headphones", stockErr.Error())
	require.NotNil(t, view)
	assert.Equal(t, 1, view.Items[0].StockQuantity)
	assert.Equal(t, "Not enough stock for Headphones", view.Notice)
	assert.Contains(t, f.events.Names(), "cart.resynced")

	ok, _, err := f.submissions.Reserve(ctx, repository.Submission{Key: "key-3", UserID: testUser}, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "a failed submission releases its key")
}

func TestPlaceOrder_UnreachableKeepsCart(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()
	_, err := f.cart.FetchCart(ctx, testUser)
	require.NoError(t, err)
	f.srv.SetOffline(true)

	_, view, err := f.checkout.PlaceOrder(ctx, testUser, validForm(domain.PaymentCashOnDelivery), "")

	var netErr *domain.NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.True(t, view.Stale)
	assert.Len(t, view.Items, 2)
}

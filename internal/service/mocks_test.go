package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/justinloleng/ecommerce/internal/domain"
)

// --- Mock storefront API ---

type mockCartAPI struct {
	mock.Mock
}

func (m *mockCartAPI) GetCart(ctx context.Context, userID int64) (*domain.CartSnapshot, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CartSnapshot), args.Error(1)
}

func (m *mockCartAPI) AddToCart(ctx context.Context, userID, productID int64, quantity int) error {
	return m.Called(ctx, userID, productID, quantity).Error(0)
}

func (m *mockCartAPI) UpdateCartItem(ctx context.Context, itemID int64, quantity int) error {
	return m.Called(ctx, itemID, quantity).Error(0)
}

func (m *mockCartAPI) RemoveCartItem(ctx context.Context, itemID int64) error {
	return m.Called(ctx, itemID).Error(0)
}

func (m *mockCartAPI) ClearCart(ctx context.Context, userID int64) error {
	return m.Called(ctx, userID).Error(0)
}

type mockProductAPI struct {
	mock.Mock
}

func (m *mockProductAPI) ListProducts(ctx context.Context, query domain.ProductQuery) (*domain.ProductPage, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProductPage), args.Error(1)
}

func (m *mockProductAPI) GetProduct(ctx context.Context, productID int64) (*domain.Product, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockProductAPI) Categories(ctx context.Context) ([]domain.Category, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Category), args.Error(1)
}

func (m *mockProductAPI) Featured(ctx context.Context) ([]domain.Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Product), args.Error(1)
}

type mockOrderAPI struct {
	mock.Mock
}

func (m *mockOrderAPI) PlaceOrder(ctx context.Context, sub domain.OrderSubmission) (*domain.Order, string, error) {
	args := m.Called(ctx, sub)
	if args.Get(0) == nil {
		return nil, "", args.Error(2)
	}
	return args.Get(0).(*domain.Order), args.String(1), args.Error(2)
}

func (m *mockOrderAPI) ListOrders(ctx context.Context, userID int64) ([]domain.Order, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Order), args.Error(1)
}

func (m *mockOrderAPI) GetOrder(ctx context.Context, orderID int64) (*domain.Order, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderAPI) CancelOrder(ctx context.Context, orderID int64) error {
	return m.Called(ctx, orderID).Error(0)
}

func (m *mockOrderAPI) UpdateOrderStatus(ctx context.Context, orderID int64, status domain.OrderStatus) error {
	return m.Called(ctx, orderID, status).Error(0)
}

func (m *mockOrderAPI) UploadPaymentProof(ctx context.Context, orderID int64, filename, contentType string, file io.Reader) (string, error) {
	args := m.Called(ctx, orderID, filename, contentType, file)
	return args.String(0), args.Error(1)
}

func (m *mockOrderAPI) ListAllOrders(ctx context.Context) ([]domain.Order, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Order), args.Error(1)
}

func (m *mockOrderAPI) ApproveOrder(ctx context.Context, orderID int64) error {
	return m.Called(ctx, orderID).Error(0)
}

func (m *mockOrderAPI) DeclineOrder(ctx context.Context, orderID int64, reason string) error {
	return m.Called(ctx, orderID, reason).Error(0)
}

// --- Recording event publisher ---

type recordedEvents struct {
	mu    sync.Mutex
	names []string
}

func (r *recordedEvents) add(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.names = append(r.names, name)
	return nil
}

func (r *recordedEvents) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.names...)
}

func (r *recordedEvents) PublishCartUpdated(_ context.Context, action string, _ *domain.CartSnapshot) error {
	return r.add("cart.updated:" + action)
}

func (r *recordedEvents) PublishCartCleared(context.Context, int64) error {
	return r.add("cart.cleared")
}

func (r *recordedEvents) PublishCartResynced(context.Context, int64, string) error {
	return r.add("cart.resynced")
}

func (r *recordedEvents) PublishOrderPlaced(context.Context, *domain.PlacedOrder) error {
	return r.add("order.placed")
}

func (r *recordedEvents) PublishOrderCancelled(context.Context, int64, int64) error {
	return r.add("order.cancelled")
}

func (r *recordedEvents) PublishOrderStatusChanged(context.Context, int64, domain.OrderStatus) error {
	return r.add("order.status_changed")
}

func (r *recordedEvents) PublishPaymentProofUploaded(context.Context, int64, int64, string) error {
	return r.add("order.payment_proof_uploaded")
}

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

const testUser int64 = 7

var (
	lineA = domain.CartLineItem{ID: 1, ProductID: 100, Name: "Headphones", UnitPrice: 1000, Quantity: 2, StockQuantity: 2}
	lineB = domain.CartLineItem{ID: 2, ProductID: 200, Name: "Cable", UnitPrice: 500, Quantity: 1, StockQuantity: 10}
)

func snapshotOf(items ...domain.CartLineItem) *domain.CartSnapshot {
	return domain.NewSnapshot(testUser, items, domain.SourceServer, time.Now().UTC())
}

package service

import (
	"context"
	"io"

	"github.com/justinloleng/ecommerce/internal/domain"
)

// CartAPI is the part of the storefront API that owns carts.
type CartAPI interface {
	GetCart(ctx context.Context, userID int64) (*domain.CartSnapshot, error)
	AddToCart(ctx context.Context, userID, productID int64, quantity int) error
	UpdateCartItem(ctx context.Context, itemID int64, quantity int) error
	RemoveCartItem(ctx context.Context, itemID int64) error
	ClearCart(ctx context.Context, userID int64) error
}

// ProductAPI is the catalog part of the storefront API.
type ProductAPI interface {
	ListProducts(ctx context.Context, query domain.ProductQuery) (*domain.ProductPage, error)
	GetProduct(ctx context.Context, productID int64) (*domain.Product, error)
	Categories(ctx context.Context) ([]domain.Category, error)
	Featured(ctx context.Context) ([]domain.Product, error)
}

// OrderAPI is the order part of the storefront API.
type OrderAPI interface {
	PlaceOrder(ctx context.Context, sub domain.OrderSubmission) (*domain.Order, string, error)
	ListOrders(ctx context.Context, userID int64) ([]domain.Order, error)
	GetOrder(ctx context.Context, orderID int64) (*domain.Order, error)
	CancelOrder(ctx context.Context, orderID int64) error
	UpdateOrderStatus(ctx context.Context, orderID int64, status domain.OrderStatus) error
	UploadPaymentProof(ctx context.Context, orderID int64, filename, contentType string, file io.Reader) (string, error)

	ListAllOrders(ctx context.Context) ([]domain.Order, error)
	ApproveOrder(ctx context.Context, orderID int64) error
	DeclineOrder(ctx context.Context, orderID int64, reason string) error
}

// EventPublisher publishes storefront domain events. Failures are logged by
// callers and never fail the request.
type EventPublisher interface {
	PublishCartUpdated(ctx context.Context, action string, snap *domain.CartSnapshot) error
	PublishCartCleared(ctx context.Context, userID int64) error
	PublishCartResynced(ctx context.Context, userID int64, reason string) error
	PublishOrderPlaced(ctx context.Context, placed *domain.PlacedOrder) error
	PublishOrderCancelled(ctx context.Context, orderID, userID int64) error
	PublishOrderStatusChanged(ctx context.Context, orderID int64, status domain.OrderStatus) error
	PublishPaymentProofUploaded(ctx context.Context, orderID, userID int64, url string) error
}

// Confirmer asks the shopper to approve a destructive action.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) (bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) (bool, error) {
	return f(ctx, prompt)
}

// Preconfirmed answers every prompt with a decision made up front, such as
// an X-Confirm header.
type Preconfirmed bool

func (p Preconfirmed) Confirm(context.Context, string) (bool, error) {
	return bool(p), nil
}

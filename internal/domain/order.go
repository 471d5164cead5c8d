package domain

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/justinloleng/ecommerce/pkg/money"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderInTransit  OrderStatus = "in_transit"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
	OrderDeclined   OrderStatus = "declined"
)

// Valid reports whether s is a status the API accepts.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderProcessing, OrderShipped, OrderInTransit,
		OrderDelivered, OrderCancelled, OrderDeclined:
		return true
	}
	return false
}

// PaymentMethod is how the shopper pays.
type PaymentMethod string

const (
	PaymentCashOnDelivery PaymentMethod = "cash_on_delivery"
	PaymentOnline         PaymentMethod = "online_payment"
)

// OrderItem is a line of a placed order, priced at order time.
type OrderItem struct {
	ID          int64       `json:"id"`
	ProductID   int64       `json:"product_id"`
	Name        string      `json:"name"`
	Quantity    int         `json:"quantity"`
	PriceAtTime money.Cents `json:"price_at_time"`
	ImageURL    string      `json:"image_url,omitempty"`
}

// Order is an order as reported by the storefront API.
type Order struct {
	ID              int64         `json:"id"`
	UserID          int64         `json:"user_id"`
	OrderNumber     string        `json:"order_number"`
	TotalAmount     money.Cents   `json:"total_amount"`
	ShippingAddress string        `json:"shipping_address"`
	PaymentMethod   PaymentMethod `json:"payment_method"`
	Status          OrderStatus   `json:"status"`
	CustomerName    string        `json:"customer_name,omitempty"`
	CustomerEmail   string        `json:"customer_email,omitempty"`
	DeclineReason   string        `json:"decline_reason,omitempty"`
	PaymentProofURL string        `json:"payment_proof_url,omitempty"`
	ItemsSummary    string        `json:"items_summary,omitempty"`
	ItemCount       int           `json:"item_count"`
	Items           []OrderItem   `json:"items,omitempty"`
	CreatedAt       string        `json:"created_at,omitempty"`
}

// Cancellable reports whether the shopper may still cancel the order.
func (o *Order) Cancellable() bool {
	return o.Status == OrderPending
}

// OrderBoard is the admin view of all orders.
type OrderBoard struct {
	Orders []Order             `json:"orders"`
	Counts map[OrderStatus]int `json:"counts"`
}

// NewOrderBoard keeps the orders in status, or all of them when status is
// empty. Counts always cover every order.
func NewOrderBoard(orders []Order, status OrderStatus) *OrderBoard {
	board := &OrderBoard{
		Orders: []Order{},
		Counts: make(map[OrderStatus]int),
	}
	for _, o := range orders {
		board.Counts[o.Status]++
		if status == "" || o.Status == status {
			board.Orders = append(board.Orders, o)
		}
	}
	return board
}

// NeedsPaymentProof reports whether an online payment still awaits its proof.
func (o *Order) NeedsPaymentProof() bool {
	return o.PaymentMethod == PaymentOnline && o.PaymentProofURL == "" && o.Status == OrderPending
}

// CheckoutForm is what the shopper fills in before placing an order.
type CheckoutForm struct {
	FullName      string        `json:"full_name" validate:"required,notblank,max=200"`
	Email         string        `json:"email" validate:"required,email"`
	Phone         string        `json:"phone" validate:"required,phone"`
	Address       string        `json:"address" validate:"required,notblank,max=500"`
	City          string        `json:"city" validate:"required,notblank,max=100"`
	ZipCode       string        `json:"zip_code" validate:"required,notblank,max=20"`
	Country       string        `json:"country" validate:"required,notblank,max=100"`
	PaymentMethod PaymentMethod `json:"payment_method" validate:"required,oneof=cash_on_delivery online_payment"`
}

// ShippingAddress joins the address parts the way the order API stores them.
func (f CheckoutForm) ShippingAddress() string {
	parts := []string{f.Address, f.City, f.ZipCode, f.Country}
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}

// OrderSubmission is what the order API needs to place an order from the
// cart. Lines are addressed by product id there.
type OrderSubmission struct {
	UserID          int64
	ShippingAddress string
	PaymentMethod   PaymentMethod
	ProductIDs      []int64
}

// PlacedOrder is the result of a successful checkout.
type PlacedOrder struct {
	Order     Order          `json:"order"`
	Message   string         `json:"message"`
	Lines     []SelectedLine `json:"lines"`
	Totals    Totals         `json:"totals"`
	ProofNext bool           `json:"payment_proof_required"`
}

// DefaultMaxProofSize limits payment proof uploads to 5 MiB.
const DefaultMaxProofSize int64 = 5 << 20

var proofExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".pdf":  "application/pdf",
}

// ValidateProofFile checks a payment proof before it is uploaded and returns
// its content type.
func ValidateProofFile(filename string, size, maxSize int64) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	contentType, ok := proofExtensions[ext]
	if !ok || strings.TrimSuffix(filepath.Base(filename), ext) == "" {
		return "", ErrInvalidProofFile
	}
	if size <= 0 {
		return "", fmt.Errorf("payment proof is empty: %w", ErrInvalidProofFile)
	}
	if maxSize > 0 && size > maxSize {
		return "", fmt.Errorf("%w (%d bytes max)", ErrProofTooLarge, maxSize)
	}
	return contentType, nil
}

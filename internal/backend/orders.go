package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"

	"github.com/justinloleng/ecommerce/internal/domain"
	"github.com/justinloleng/ecommerce/pkg/money"
)

type orderItemDTO struct {
	ID          int64        `json:"id"`
	ProductID   int64        `json:"product_id"`
	Quantity    int          `json:"quantity"`
	PriceAtTime money.Amount `json:"price_at_time"`
	Name        string       `json:"name"`
	ImageURL    string       `json:"image_url"`
}

type orderDTO struct {
	ID              int64          `json:"id"`
	UserID          int64          `json:"user_id"`
	OrderNumber     string         `json:"order_number"`
	TotalAmount     money.Amount   `json:"total_amount"`
	ShippingAddress string         `json:"shipping_address"`
	PaymentMethod   string         `json:"payment_method"`
	Status          string         `json:"status"`
	FirstName       string         `json:"first_name"`
	LastName        string         `json:"last_name"`
	Email           string         `json:"email"`
	DeclineReason   string         `json:"decline_reason"`
	PaymentProofURL string         `json:"payment_proof_url"`
	ItemsSummary    string         `json:"items_summary"`
	ItemCount       int            `json:"item_count"`
	Items           []orderItemDTO `json:"items"`
	CreatedAt       string         `json:"created_at"`
}

func (o orderDTO) toDomain() domain.Order {
	order := domain.Order{
		ID:              o.ID,
		UserID:          o.UserID,
		OrderNumber:     o.OrderNumber,
		TotalAmount:     o.TotalAmount.Cents,
		ShippingAddress: o.ShippingAddress,
		PaymentMethod:   domain.PaymentMethod(o.PaymentMethod),
		Status:          domain.OrderStatus(o.Status),
		CustomerName:    strings.TrimSpace(o.FirstName + " " + o.LastName),
		CustomerEmail:   o.Email,
		DeclineReason:   o.DeclineReason,
		PaymentProofURL: o.PaymentProofURL,
		ItemsSummary:    o.ItemsSummary,
		ItemCount:       o.ItemCount,
		CreatedAt:       o.CreatedAt,
	}
	for _, it := range o.Items {
		order.Items = append(order.Items, domain.OrderItem{
			ID:          it.ID,
			ProductID:   it.ProductID,
			Name:        it.Name,
			Quantity:    it.Quantity,
			PriceAtTime: it.PriceAtTime.Cents,
			ImageURL:    it.ImageURL,
		})
	}
	if order.ItemCount == 0 {
		order.ItemCount = len(order.Items)
	}
	return order
}

type selectedItemDTO struct {
	ProductID int64 `json:"product_id"`
}

type createOrderRequest struct {
	UserID          int64             `json:"user_id"`
	ShippingAddress string            `json:"shipping_address"`
	PaymentMethod   string            `json:"payment_method"`
	SelectedItems   []selectedItemDTO `json:"selected_items"`
}

type createOrderResponse struct {
	Message string   `json:"message"`
	Order   orderDTO `json:"order"`
}

type statusRequest struct {
	Status string `json:"status"`
}

type declineRequest struct {
	DeclineReason string `json:"decline_reason"`
}

type proofResponse struct {
	Message         string `json:"message"`
	PaymentProofURL string `json:"payment_proof_url"`
	Filename        string `json:"filename"`
}

// PlaceOrder creates an order from the given cart lines. The API removes
// the ordered lines from the cart and decrements stock.
func (c *Client) PlaceOrder(ctx context.Context, sub domain.OrderSubmission) (*domain.Order, string, error) {
	req := createOrderRequest{
		UserID:          sub.UserID,
		ShippingAddress: sub.ShippingAddress,
		PaymentMethod:   string(sub.PaymentMethod),
		SelectedItems:   make([]selectedItemDTO, 0, len(sub.ProductIDs)),
	}
	for _, id := range sub.ProductIDs {
		req.SelectedItems = append(req.SelectedItems, selectedItemDTO{ProductID: id})
	}

	var resp createOrderResponse
	if err := c.call(ctx, "place order", http.MethodPost, "/orders", req, &resp); err != nil {
		return nil, "", err
	}
	order := resp.Order.toDomain()
	return &order, resp.Message, nil
}

// ListOrders returns the user's orders, newest first.
func (c *Client) ListOrders(ctx context.Context, userID int64) ([]domain.Order, error) {
	var resp []orderDTO
	path := "/orders/user/" + strconv.FormatInt(userID, 10)
	if err := c.call(ctx, "list orders", http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}

	orders := make([]domain.Order, 0, len(resp))
	for _, o := range resp {
		orders = append(orders, o.toDomain())
	}
	return orders, nil
}

// GetOrder returns one order with its items.
func (c *Client) GetOrder(ctx context.Context, orderID int64) (*domain.Order, error) {
	var resp orderDTO
	path := "/orders/" + strconv.FormatInt(orderID, 10)
	if err := c.call(ctx, "get order", http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	order := resp.toDomain()
	return &order, nil
}

// CancelOrder cancels a pending order.
func (c *Client) CancelOrder(ctx context.Context, orderID int64) error {
	path := "/orders/" + strconv.FormatInt(orderID, 10) + "/cancel"
	return c.call(ctx, "cancel order", http.MethodPut, path, nil, &messageResponse{})
}

// UpdateOrderStatus moves an order to a new status.
func (c *Client) UpdateOrderStatus(ctx context.Context, orderID int64, status domain.OrderStatus) error {
	path := "/orders/" + strconv.FormatInt(orderID, 10) + "/status"
	return c.call(ctx, "update order status", http.MethodPut, path, statusRequest{Status: string(status)}, &messageResponse{})
}

// ListAllOrders returns every shopper's orders for the admin console.
func (c *Client) ListAllOrders(ctx context.Context) ([]domain.Order, error) {
	var resp []orderDTO
	if err := c.call(ctx, "list all orders", http.MethodGet, "/admin/orders", nil, &resp); err != nil {
		return nil, err
	}

	orders := make([]domain.Order, 0, len(resp))
	for _, o := range resp {
		orders = append(orders, o.toDomain())
	}
	return orders, nil
}

// ApproveOrder moves a pending order to processing.
func (c *Client) ApproveOrder(ctx context.Context, orderID int64) error {
	path := "/admin/orders/" + strconv.FormatInt(orderID, 10) + "/approve"
	return c.call(ctx, "approve order", http.MethodPut, path, nil, &messageResponse{})
}

// DeclineOrder declines a pending order. The API puts the stock back.
func (c *Client) DeclineOrder(ctx context.Context, orderID int64, reason string) error {
	path := "/admin/orders/" + strconv.FormatInt(orderID, 10) + "/decline"
	return c.call(ctx, "decline order", http.MethodPut, path, declineRequest{DeclineReason: reason}, &messageResponse{})
}

// UploadPaymentProof forwards a payment proof file as the multipart field
// payment_proof and returns the stored file's URL.
func (c *Client) UploadPaymentProof(ctx context.Context, orderID int64, filename, contentType string, file io.Reader) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="payment_proof"; filename=%q`, filename))
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	if err != nil {
		return "", fmt.Errorf("upload payment proof: create part: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", fmt.Errorf("upload payment proof: copy file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("upload payment proof: close form: %w", err)
	}

	path := "/orders/" + strconv.FormatInt(orderID, 10) + "/payment-proof"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return "", fmt.Errorf("upload payment proof: create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	var resp proofResponse
	if err := c.send(ctx, "upload payment proof", req, &resp); err != nil {
		return "", err
	}
	return resp.PaymentProofURL, nil
}

package backend

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/justinloleng/ecommerce/internal/domain"
	"github.com/justinloleng/ecommerce/pkg/money"
)

type cartItemDTO struct {
	ID            int64        `json:"id"`
	UserID        int64        `json:"user_id"`
	ProductID     int64        `json:"product_id"`
	Quantity      int          `json:"quantity"`
	Name          string       `json:"name"`
	Price         money.Amount `json:"price"`
	ImageURL      string       `json:"image_url"`
	StockQuantity int          `json:"stock_quantity"`
	CategoryName  string       `json:"category_name,omitempty"`
}

type cartResponse struct {
	Items     []cartItemDTO `json:"items"`
	Subtotal  money.Amount  `json:"subtotal"`
	ItemCount int           `json:"item_count"`
}

type addToCartRequest struct {
	UserID    int64 `json:"user_id"`
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// GetCart fetches the user's cart as a fresh server snapshot.
func (c *Client) GetCart(ctx context.Context, userID int64) (*domain.CartSnapshot, error) {
	q := url.Values{}
	q.Set("user_id", strconv.FormatInt(userID, 10))

	var resp cartResponse
	if err := c.call(ctx, "get cart", http.MethodGet, "/cart?"+q.Encode(), nil, &resp); err != nil {
		return nil, err
	}

	items := make([]domain.CartLineItem, 0, len(resp.Items))
	for _, it := range resp.Items {
		items = append(items, domain.CartLineItem{
			ID:            it.ID,
			ProductID:     it.ProductID,
			Name:          it.Name,
			UnitPrice:     it.Price.Cents,
			Quantity:      it.Quantity,
			StockQuantity: it.StockQuantity,
			ImageURL:      it.ImageURL,
			Category:      it.CategoryName,
		})
	}
	return domain.NewSnapshot(userID, items, domain.SourceServer, time.Now().UTC()), nil
}

// AddToCart adds quantity units of a product. The API merges with an
// existing line for the same product.
func (c *Client) AddToCart(ctx context.Context, userID, productID int64, quantity int) error {
	req := addToCartRequest{UserID: userID, ProductID: productID, Quantity: quantity}
	return c.call(ctx, "add to cart", http.MethodPost, "/cart/add", req, &messageResponse{})
}

// UpdateCartItem sets a line's quantity. The API treats zero as a removal.
func (c *Client) UpdateCartItem(ctx context.Context, itemID int64, quantity int) error {
	path := "/cart/update/" + strconv.FormatInt(itemID, 10)
	return c.call(ctx, "update cart item", http.MethodPut, path, updateQuantityRequest{Quantity: quantity}, &messageResponse{})
}

// RemoveCartItem deletes one line.
func (c *Client) RemoveCartItem(ctx context.Context, itemID int64) error {
	path := "/cart/remove/" + strconv.FormatInt(itemID, 10)
	return c.call(ctx, "remove cart item", http.MethodDelete, path, nil, &messageResponse{})
}

// ClearCart deletes every line of the user's cart.
func (c *Client) ClearCart(ctx context.Context, userID int64) error {
	path := "/cart/clear/" + strconv.FormatInt(userID, 10)
	return c.call(ctx, "clear cart", http.MethodDelete, path, nil, &messageResponse{})
}

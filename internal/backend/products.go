package backend

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/justinloleng/ecommerce/internal/domain"
	"github.com/justinloleng/ecommerce/pkg/money"
	"github.com/justinloleng/ecommerce/pkg/pagination"
)

type productDTO struct {
	ID            int64        `json:"id"`
	Name          string       `json:"name"`
	Description   string       `json:"description"`
	Price         money.Amount `json:"price"`
	StockQuantity int          `json:"stock_quantity"`
	ImageURL      string       `json:"image_url"`
	CategoryID    int64        `json:"category_id"`
	CategoryName  string       `json:"category_name"`
}

func (p productDTO) toDomain() domain.Product {
	return domain.Product{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		Price:         p.Price.Cents,
		StockQuantity: p.StockQuantity,
		ImageURL:      p.ImageURL,
		CategoryID:    p.CategoryID,
		CategoryName:  p.CategoryName,
	}
}

type productListResponse struct {
	Products   []productDTO `json:"products"`
	Total      int          `json:"total"`
	Page       int          `json:"page"`
	PerPage    int          `json:"per_page"`
	TotalPages int          `json:"total_pages"`
}

// ListProducts returns one page of the catalog.
func (c *Client) ListProducts(ctx context.Context, query domain.ProductQuery) (*domain.ProductPage, error) {
	q := url.Values{}
	query.Page.Encode(q)
	if query.CategoryID > 0 {
		q.Set("category_id", strconv.FormatInt(query.CategoryID, 10))
	}
	if query.Search != "" {
		q.Set("search", query.Search)
	}
	if query.MinPrice != nil {
		q.Set("min_price", query.MinPrice.String())
	}
	if query.MaxPrice != nil {
		q.Set("max_price", query.MaxPrice.String())
	}
	if query.Sort != "" {
		q.Set("sort_by", string(query.Sort))
	}

	var resp productListResponse
	if err := c.call(ctx, "list products", http.MethodGet, "/products?"+q.Encode(), nil, &resp); err != nil {
		return nil, err
	}

	products := make([]domain.Product, 0, len(resp.Products))
	for _, p := range resp.Products {
		products = append(products, p.toDomain())
	}

	params := query.Page
	if resp.Page > 0 {
		params.Page = resp.Page
	}
	if resp.PerPage > 0 {
		params.PerPage = resp.PerPage
	}
	page := pagination.NewResult(products, resp.Total, params)
	return &page, nil
}

// GetProduct returns one product.
func (c *Client) GetProduct(ctx context.Context, productID int64) (*domain.Product, error) {
	var resp productDTO
	path := "/products/" + strconv.FormatInt(productID, 10)
	if err := c.call(ctx, "get product", http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	p := resp.toDomain()
	return &p, nil
}

// Categories lists every product category.
func (c *Client) Categories(ctx context.Context) ([]domain.Category, error) {
	var resp []domain.Category
	if err := c.call(ctx, "list categories", http.MethodGet, "/products/categories", nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Featured returns the storefront's featured products.
func (c *Client) Featured(ctx context.Context) ([]domain.Product, error) {
	var resp []productDTO
	if err := c.call(ctx, "featured products", http.MethodGet, "/products/featured", nil, &resp); err != nil {
		return nil, err
	}

	products := make([]domain.Product, 0, len(resp))
	for _, p := range resp {
		products = append(products, p.toDomain())
	}
	return products, nil
}

package domain

import (
	"github.com/justinloleng/ecommerce/pkg/money"
	"github.com/justinloleng/ecommerce/pkg/pagination"
)

// SortOrder is a catalog ordering the API understands.
type SortOrder string

const (
	SortNewest    SortOrder = "newest"
	SortPriceLow  SortOrder = "price_low"
	SortPriceHigh SortOrder = "price_high"
	SortName      SortOrder = "name"
)

// Valid reports whether s is a supported ordering.
func (s SortOrder) Valid() bool {
	switch s {
	case SortNewest, SortPriceLow, SortPriceHigh, SortName:
		return true
	}
	return false
}

// Product is a catalog entry.
type Product struct {
	ID            int64       `json:"id"`
	Name          string      `json:"name"`
	Description   string      `json:"description,omitempty"`
	Price         money.Cents `json:"price"`
	StockQuantity int         `json:"stock_quantity"`
	ImageURL      string      `json:"image_url,omitempty"`
	CategoryID    int64       `json:"category_id,omitempty"`
	CategoryName  string      `json:"category_name,omitempty"`
}

// InStock reports whether at least one unit can be added to a cart.
func (p Product) InStock() bool {
	return p.StockQuantity > 0
}

// Category groups products.
type Category struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// ProductQuery filters the catalog.
type ProductQuery struct {
	CategoryID int64
	Search     string
	MinPrice   *money.Cents
	MaxPrice   *money.Cents
	Sort       SortOrder
	Page       pagination.Params
}

// ProductPage is one page of catalog results.
type ProductPage = pagination.Result[Product]

package domain

import (
	"time"

	"github.com/justinloleng/ecommerce/pkg/money"
)

var fixedTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// twoItemCart is A(10.00 x2, stock 2) and B(5.00 x1, stock 10).
func twoItemCart() *CartSnapshot {
	return NewSnapshot(7, []CartLineItem{
		{ID: 1, ProductID: 100, Name: "A", UnitPrice: money.Cents(1000), Quantity: 2, StockQuantity: 2},
		{ID: 2, ProductID: 200, Name: "B", UnitPrice: money.Cents(500), Quantity: 1, StockQuantity: 10},
	}, SourceServer, fixedTime)
}

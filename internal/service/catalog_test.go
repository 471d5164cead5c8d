package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/justinloleng/ecommerce/internal/domain"
	apperrors "github.com/justinloleng/ecommerce/pkg/errors"
	"github.com/justinloleng/ecommerce/pkg/money"
	"github.com/justinloleng/ecommerce/pkg/pagination"
)

func TestListProducts_DefaultsToNewest(t *testing.T) {
	api := &mockProductAPI{}
	svc := NewCatalogService(api, newTestLogger())
	page := pagination.NewResult([]domain.Product{{ID: 1, Name: "Cable"}}, 1, pagination.DefaultParams())
	api.On("ListProducts", mock.Anything, mock.MatchedBy(func(q domain.ProductQuery) bool {
		return q.Sort == domain.SortNewest
	})).Return(&page, nil).Once()

	got, err := svc.ListProducts(context.Background(), domain.ProductQuery{Page: pagination.DefaultParams()})
	require.NoError(t, err)
	assert.Len(t, got.Data, 1)
	api.AssertExpectations(t)
}

func TestListProducts_RejectsBadFilters(t *testing.T) {
	low, high := money.Cents(5000), money.Cents(1000)
	negative := money.Cents(-1)

	tests := []struct {
		name  string
		query domain.ProductQuery
	}{
		{name: "sort", query: domain.ProductQuery{Sort: "cheapest"}},
		{name: "min above max", query: domain.ProductQuery{MinPrice: &low, MaxPrice: &high}},
		{name: "negative min", query: domain.ProductQuery{MinPrice: &negative}},
		{name: "negative max", query: domain.ProductQuery{MaxPrice: &negative}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &mockProductAPI{}
			svc := NewCatalogService(api, newTestLogger())

			_, err := svc.ListProducts(context.Background(), tt.query)

			assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
			api.AssertNotCalled(t, "ListProducts", mock.Anything, mock.Anything)
		})
	}
}

func TestGetProduct_NotFound(t *testing.T) {
	api := &mockProductAPI{}
	svc := NewCatalogService(api, newTestLogger())
	api.On("GetProduct", mock.Anything, int64(5)).
		Return(nil, &domain.ServerError{Status: 404, Message: "Product not found"}).Once()

	_, err := svc.GetProduct(context.Background(), 5)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/justinloleng/ecommerce/internal/domain"
	"github.com/justinloleng/ecommerce/internal/service"
	"github.com/justinloleng/ecommerce/pkg/httputil"
	"github.com/justinloleng/ecommerce/pkg/money"
	"github.com/justinloleng/ecommerce/pkg/pagination"
)

// CatalogHandler serves read-only product browsing.
type CatalogHandler struct {
	catalog *service.CatalogService
	logger  *slog.Logger
}

// NewCatalogHandler creates a new catalog HTTP handler.
func NewCatalogHandler(catalog *service.CatalogService, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalog: catalog,
		logger:  logger,
	}
}

// ListProducts handles GET /products
//
// Query parameters: category_id, search, min_price, max_price, sort, page,
// per_page. Prices are decimal amounts such as "12.50".
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	query := domain.ProductQuery{
		Search: q.Get("search"),
		Sort:   domain.SortOrder(q.Get("sort")),
		Page:   pagination.FromRequest(r),
	}

	if raw := q.Get("category_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			writeBadRequest(w, "invalid category_id: "+raw)
			return
		}
		query.CategoryID = id
	}

	var ok bool
	if query.MinPrice, ok = parsePrice(w, "min_price", q.Get("min_price")); !ok {
		return
	}
	if query.MaxPrice, ok = parsePrice(w, "max_price", q.Get("max_price")); !ok {
		return
	}

	page, err := h.catalog.ListProducts(r.Context(), query)
	if err != nil {
		httputil.WriteError(w, r, toAppError(err), h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, page)
}

// GetProduct handles GET /products/{productID}
func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	productID, ok := httputil.ParseID(w, "product id", chi.URLParam(r, "productID"))
	if !ok {
		return
	}

	product, err := h.catalog.GetProduct(r.Context(), productID)
	if err != nil {
		httputil.WriteError(w, r, toAppError(err), h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: product})
}

// ListCategories handles GET /categories
func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.Categories(r.Context())
	if err != nil {
		httputil.WriteError(w, r, toAppError(err), h.logger)
		return
	}
	if categories == nil {
		categories = []domain.Category{}
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: categories})
}

// Featured handles GET /products/featured
func (h *CatalogHandler) Featured(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.Featured(r.Context())
	if err != nil {
		httputil.WriteError(w, r, toAppError(err), h.logger)
		return
	}
	if products == nil {
		products = []domain.Product{}
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: products})
}

// parsePrice returns nil for an absent filter. A malformed one is answered
// with a 400.
func parsePrice(w http.ResponseWriter, name, raw string) (*money.Cents, bool) {
	if raw == "" {
		return nil, true
	}
	c, err := money.Parse(raw)
	if err != nil {
		writeBadRequest(w, "invalid "+name+": "+raw)
		return nil, false
	}
	return &c, true
}

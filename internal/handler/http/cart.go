package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/justinloleng/ecommerce/internal/domain"
	"github.com/justinloleng/ecommerce/internal/service"
	"github.com/justinloleng/ecommerce/pkg/httputil"
	"github.com/justinloleng/ecommerce/pkg/middleware"
)

// HeaderConfirm approves a destructive cart action up front.
const HeaderConfirm = "X-Confirm"

// CartHandler handles HTTP requests for cart endpoints.
type CartHandler struct {
	cart   *service.Reconciler
	logger *slog.Logger
}

// NewCartHandler creates a new cart HTTP handler.
func NewCartHandler(cart *service.Reconciler, logger *slog.Logger) *CartHandler {
	return &CartHandler{
		cart:   cart,
		logger: logger,
	}
}

// --- Request DTOs ---

// AddItemRequest is the JSON request body for adding a product to the cart.
type AddItemRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"omitempty,gte=1"`
}

// UpdateQuantityRequest carries the quantity exactly as the shopper typed
// it. Both "3" and 3 are accepted.
type UpdateQuantityRequest struct {
	Quantity json.RawMessage `json:"quantity"`
}

func (r UpdateQuantityRequest) raw() string {
	var s string
	if err := json.Unmarshal(r.Quantity, &s); err == nil {
		return s
	}
	return string(r.Quantity)
}

// SelectionRequest toggles one line or all of them.
type SelectionRequest struct {
	Selected *bool `json:"selected" validate:"required"`
}

// BeginCheckoutRequest lists the lines selected before the shopper left the
// cart page. Empty selects everything.
type BeginCheckoutRequest struct {
	ItemIDs []int64 `json:"item_ids"`
}

// --- Handlers ---

// GetCart handles GET /cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.ShopperIDFromContext(r.Context())
	view, err := h.cart.FetchCart(r.Context(), userID)
	writeResult(w, r, http.StatusOK, viewData(view), err, h.logger)
}

// AddItem handles POST /cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.ShopperIDFromContext(r.Context())

	var req AddItemRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	view, err := h.cart.AddItem(r.Context(), userID, req.ProductID, req.Quantity)
	writeResult(w, r, http.StatusOK, viewData(view), err, h.logger)
}

// UpdateItem handles PUT /cart/items/{itemID}
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.ShopperIDFromContext(r.Context())
	itemID, ok := httputil.ParseID(w, "item id", chi.URLParam(r, "itemID"))
	if !ok {
		return
	}

	var req UpdateQuantityRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	view, err := h.cart.SetQuantity(r.Context(), userID, itemID, req.raw())
	writeResult(w, r, http.StatusOK, viewData(view), err, h.logger)
}

// RemoveItem handles DELETE /cart/items/{itemID}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.ShopperIDFromContext(r.Context())
	itemID, ok := httputil.ParseID(w, "item id", chi.URLParam(r, "itemID"))
	if !ok {
		return
	}

	view, err := h.cart.RemoveItem(r.Context(), userID, itemID, confirmation(r))
	writeResult(w, r, http.StatusOK, viewData(view), err, h.logger)
}

// ClearCart handles DELETE /cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.ShopperIDFromContext(r.Context())
	view, err := h.cart.ClearCart(r.Context(), userID, confirmation(r))
	writeResult(w, r, http.StatusOK, viewData(view), err, h.logger)
}

// SelectAll handles PUT /cart/selection
func (h *CartHandler) SelectAll(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.ShopperIDFromContext(r.Context())

	var req SelectionRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	view, err := h.cart.SelectAll(r.Context(), userID, *req.Selected)
	writeResult(w, r, http.StatusOK, viewData(view), err, h.logger)
}

// SelectItem handles PUT /cart/selection/{itemID}
func (h *CartHandler) SelectItem(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.ShopperIDFromContext(r.Context())
	itemID, ok := httputil.ParseID(w, "item id", chi.URLParam(r, "itemID"))
	if !ok {
		return
	}

	var req SelectionRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	view, err := h.cart.SetSelected(r.Context(), userID, itemID, *req.Selected)
	writeResult(w, r, http.StatusOK, viewData(view), err, h.logger)
}

// BeginCheckout handles POST /checkout/begin
func (h *CartHandler) BeginCheckout(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.ShopperIDFromContext(r.Context())

	var req BeginCheckoutRequest
	if r.ContentLength != 0 && !decodeBody(w, r, &req, h.logger) {
		return
	}

	view, err := h.cart.BeginCheckout(r.Context(), userID, req.ItemIDs)
	writeResult(w, r, http.StatusOK, viewData(view), err, h.logger)
}

// EndCheckout handles DELETE /checkout
func (h *CartHandler) EndCheckout(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.ShopperIDFromContext(r.Context())
	if err := h.cart.EndCheckout(r.Context(), userID); err != nil {
		httputil.WriteError(w, r, toAppError(err), h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Helpers ---

// confirmation reads X-Confirm or ?confirm=. Anything but a true value
// declines.
func confirmation(r *http.Request) service.Confirmer {
	raw := r.Header.Get(HeaderConfirm)
	if raw == "" {
		raw = r.URL.Query().Get("confirm")
	}
	ok, _ := strconv.ParseBool(raw)
	return service.Preconfirmed(ok)
}

// viewData keeps a nil view out of the response envelope.
func viewData(view *domain.CartView) any {
	if view == nil {
		return nil
	}
	return view
}

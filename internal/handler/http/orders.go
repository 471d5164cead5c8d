package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/justinloleng/ecommerce/internal/domain"
	"github.com/justinloleng/ecommerce/internal/service"
	"github.com/justinloleng/ecommerce/pkg/httputil"
	"github.com/justinloleng/ecommerce/pkg/middleware"
)

// HeaderIdempotencyKey deduplicates checkout submissions.
const HeaderIdempotencyKey = "Idempotency-Key"

// proofFormField is the multipart field carrying the payment proof.
const proofFormField = "payment_proof"

// OrderHandler handles checkout and order tracking.
type OrderHandler struct {
	checkout *service.CheckoutService
	orders   *service.OrderService
	logger   *slog.Logger
}

// NewOrderHandler creates a new order HTTP handler.
func NewOrderHandler(checkout *service.CheckoutService, orders *service.OrderService, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{
		checkout: checkout,
		orders:   orders,
		logger:   logger,
	}
}

// UpdateStatusRequest is the JSON body of an admin status change.
type UpdateStatusRequest struct {
	Status domain.OrderStatus `json:"status" validate:"required"`
}

// DeclineOrderRequest is the JSON body of an admin decline.
type DeclineOrderRequest struct {
	Reason string `json:"decline_reason" validate:"required,notblank,max=500"`
}

// CheckoutResponse is the result of a placed order with the reloaded cart.
type CheckoutResponse struct {
	Order *domain.PlacedOrder `json:"order"`
	Cart  *domain.CartView    `json:"cart,omitempty"`
}

// PlaceOrder handles POST /checkout
func (h *OrderHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.ShopperIDFromContext(r.Context())

	var form domain.CheckoutForm
	if !decodeBody(w, r, &form, h.logger) {
		return
	}

	placed, view, err := h.checkout.PlaceOrder(r.Context(), userID, form, r.Header.Get(HeaderIdempotencyKey))
	if err != nil {
		writeResult(w, r, 0, viewData(view), err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{
		Data: CheckoutResponse{Order: placed, Cart: view},
	})
}

// ListOrders handles GET /orders
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.ShopperIDFromContext(r.Context())

	orders, err := h.orders.ListOrders(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, r, toAppError(err), h.logger)
		return
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: orders})
}

// GetOrder handles GET /orders/{orderID}
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.ShopperIDFromContext(r.Context())
	orderID, ok := httputil.ParseID(w, "order id", chi.URLParam(r, "orderID"))
	if !ok {
		return
	}

	order, err := h.orders.GetOrder(r.Context(), userID, orderID)
	if err != nil {
		httputil.WriteError(w, r, toAppError(err), h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: order})
}

// CancelOrder handles PUT /orders/{orderID}/cancel
func (h *OrderHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.ShopperIDFromContext(r.Context())
	orderID, ok := httputil.ParseID(w, "order id", chi.URLParam(r, "orderID"))
	if !ok {
		return
	}

	order, err := h.orders.CancelOrder(r.Context(), userID, orderID)
	if err != nil {
		httputil.WriteError(w, r, toAppError(err), h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: order})
}

// UploadPaymentProof handles POST /orders/{orderID}/payment-proof
func (h *OrderHandler) UploadPaymentProof(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.ShopperIDFromContext(r.Context())
	orderID, ok := httputil.ParseID(w, "order id", chi.URLParam(r, "orderID"))
	if !ok {
		return
	}

	// Leave room for the multipart envelope around the file itself.
	limit := h.orders.MaxProofSize()
	r.Body = http.MaxBytesReader(w, r.Body, limit+1<<20)
	if err := r.ParseMultipartForm(limit); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			httputil.WriteError(w, r, toAppError(domain.ErrProofTooLarge), h.logger)
			return
		}
		writeBadRequest(w, "invalid multipart form: "+err.Error())
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile(proofFormField)
	if err != nil {
		writeBadRequest(w, "No file provided")
		return
	}
	defer file.Close()

	url, err := h.orders.UploadPaymentProof(r.Context(), userID, orderID, header.Filename, header.Size, file)
	if err != nil {
		httputil.WriteError(w, r, toAppError(err), h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: map[string]string{"payment_proof_url": url},
	})
}

// UpdateStatus handles PUT /admin/orders/{orderID}/status
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID, ok := httputil.ParseID(w, "order id", chi.URLParam(r, "orderID"))
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	if err := h.orders.UpdateStatus(r.Context(), orderID, req.Status); err != nil {
		httputil.WriteError(w, r, toAppError(err), h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: map[string]any{"id": orderID, "status": req.Status},
	})
}

// AdminListOrders handles GET /admin/orders
func (h *OrderHandler) AdminListOrders(w http.ResponseWriter, r *http.Request) {
	status := domain.OrderStatus(r.URL.Query().Get("status"))

	board, err := h.orders.Board(r.Context(), status)
	if err != nil {
		httputil.WriteError(w, r, toAppError(err), h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: board})
}

// ApproveOrder handles PUT /admin/orders/{orderID}/approve
func (h *OrderHandler) ApproveOrder(w http.ResponseWriter, r *http.Request) {
	orderID, ok := httputil.ParseID(w, "order id", chi.URLParam(r, "orderID"))
	if !ok {
		return
	}

	order, err := h.orders.Approve(r.Context(), orderID)
	if err != nil {
		httputil.WriteError(w, r, toAppError(err), h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: order})
}

// DeclineOrder handles PUT /admin/orders/{orderID}/decline
func (h *OrderHandler) DeclineOrder(w http.ResponseWriter, r *http.Request) {
	orderID, ok := httputil.ParseID(w, "order id", chi.URLParam(r, "orderID"))
	if !ok {
		return
	}

	var req DeclineOrderRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	order, err := h.orders.Decline(r.Context(), orderID, req.Reason)
	if err != nil {
		httputil.WriteError(w, r, toAppError(err), h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: order})
}

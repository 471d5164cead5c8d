// Package backendtest runs an in-memory storefront API on httptest for
// tests of the client, the services and the HTTP handlers.
package backendtest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/justinloleng/ecommerce/pkg/money"
)

// Product is a catalog row of the fake API.
type Product struct {
	ID         int64
	Name       string
	Price      money.Cents
	Stock      int
	CategoryID int64
}

// Line is a cart row.
type Line struct {
	ID        int64
	UserID    int64
	ProductID int64
	Quantity  int
}

// Order is a placed order.
type Order struct {
	ID              int64
	UserID          int64
	Number          string
	Total           money.Cents
	ShippingAddress string
	PaymentMethod   string
	Status          string
	DeclineReason   string
	ProofURL        string
	Lines           []Line
}

type fault struct {
	status  int
	message string
}

// Server is a fake storefront API. All state is guarded by mu.
type Server struct {
	*httptest.Server

	mu         sync.Mutex
	products   map[int64]*Product
	categories map[int64]string
	lines      []Line
	orders     []*Order
	nextLine   int64
	nextOrder  int64
	faults     map[string]fault
	offline    bool
	requests   []string
	beforeCart func()
	onOrder    func()
}

// New starts a fake API and stops it when the test ends. The API root is
// Server.URL + "/api".
func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		products:   make(map[int64]*Product),
		categories: make(map[int64]string),
		faults:     make(map[string]fault),
		nextLine:   1,
		nextOrder:  1,
	}
	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(s.Close)
	return s
}

// APIURL is the base URL clients should be configured with.
func (s *Server) APIURL() string {
	return s.URL + "/api"
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.record)
	r.Route("/api", func(r chi.Router) {
		r.Get("/cart", s.getCart)
		r.Post("/cart/add", s.addToCart)
		r.Put("/cart/update/{itemID}", s.updateItem)
		r.Delete("/cart/remove/{itemID}", s.removeItem)
		r.Delete("/cart/clear/{userID}", s.clearCart)

		r.Post("/orders", s.createOrder)
		r.Get("/orders/user/{userID}", s.listOrders)
		r.Get("/orders/{orderID}", s.getOrder)
		r.Put("/orders/{orderID}/cancel", s.cancelOrder)
		r.Put("/orders/{orderID}/status", s.updateStatus)
		r.Post("/orders/{orderID}/payment-proof", s.uploadProof)

		r.Get("/admin/orders", s.listAllOrders)
		r.Put("/admin/orders/{orderID}/approve", s.approveOrder)
		r.Put("/admin/orders/{orderID}/decline", s.declineOrder)

		r.Get("/products", s.listProducts)
		r.Get("/products/categories", s.listCategories)
		r.Get("/products/featured", s.featured)
		r.Get("/products/{productID}", s.getProduct)
	})
	return r
}

// record logs the request, then applies the offline switch and queued faults.
func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + strings.TrimPrefix(r.URL.Path, "/api")

		s.mu.Lock()
		s.requests = append(s.requests, key)
		offline := s.offline
		f, faulty := s.faults[key]
		delete(s.faults, key)
		hook := s.beforeCart
		if key == "POST /orders" {
			hook = s.onOrder
		}
		s.mu.Unlock()

		if offline {
			hj, ok := w.(http.Hijacker)
			if !ok {
				panic("backendtest: response writer cannot hijack")
			}
			conn, _, err := hj.Hijack()
			if err == nil {
				_ = conn.Close()
			}
			return
		}
		if faulty {
			writeError(w, f.status, f.message)
			return
		}
		if hook != nil && (key == "GET /cart" || key == "POST /orders") {
			hook()
		}
		next.ServeHTTP(w, r)
	})
}

// AddProduct puts a product in the catalog.
func (s *Server) AddProduct(p Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := p
	s.products[p.ID] = &cp
}

// AddCategory registers a category name.
func (s *Server) AddCategory(id int64, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories[id] = name
}

// SetStock changes a product's stock without touching carts.
func (s *Server) SetStock(productID int64, stock int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.products[productID]; ok {
		p.Stock = stock
	}
}

// PutLine inserts a cart line directly, bypassing stock checks, and returns
// its id.
func (s *Server) PutLine(userID, productID int64, quantity int) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextLine
	s.nextLine++
	s.lines = append(s.lines, Line{ID: id, UserID: userID, ProductID: productID, Quantity: quantity})
	return id
}

// Lines returns a copy of the user's cart rows.
func (s *Server) Lines(userID int64) []Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Line
	for _, l := range s.lines {
		if l.UserID == userID {
			out = append(out, l)
		}
	}
	return out
}

// Orders returns copies of the user's orders.
func (s *Server) Orders(userID int64) []Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Order
	for _, o := range s.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out
}

// FailNext makes the next request matching method and path (without the
// /api prefix) answer with status and {"error": message}.
func (s *Server) FailNext(method, path string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[method+" "+path] = fault{status: status, message: message}
}

// SetOffline makes every request fail at the transport level.
func (s *Server) SetOffline(offline bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offline = offline
}

// BeforeCartRead runs fn before every GET /cart is served. Tests use it to
// change state between a mutation and the resync that follows it.
func (s *Server) BeforeCartRead(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.beforeCart = fn
}

// BeforeOrder runs fn before every POST /orders is served.
func (s *Server) BeforeOrder(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onOrder = fn
}

// Requests returns "METHOD /path" for every request seen so far.
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

// Count returns how many requests matched "METHOD /path-prefix".
func (s *Server) Count(method, pathPrefix string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, req := range s.requests {
		if strings.HasPrefix(req, method+" "+pathPrefix) {
			n++
		}
	}
	return n
}

// ResetRequests clears the request log.
func (s *Server) ResetRequests() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return id, err == nil
}

func (s *Server) cartItemJSON(l Line) map[string]any {
	p := s.products[l.ProductID]
	item := map[string]any{
		"id":             l.ID,
		"user_id":        l.UserID,
		"product_id":     l.ProductID,
		"quantity":       l.Quantity,
		"added_at":       "Mon, 19 Oct 2026 10:00:00 GMT",
		"name":           "",
		"price":          money.Amount{},
		"image_url":      nil,
		"stock_quantity": 0,
		"item_total":     money.Amount{},
	}
	if p != nil {
		item["name"] = p.Name
		item["price"] = money.Amount{Cents: p.Price}
		item["stock_quantity"] = p.Stock
		item["item_total"] = money.Amount{Cents: p.Price.Mul(l.Quantity)}
	}
	return item
}

func (s *Server) getCart(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "User ID required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items := []map[string]any{}
	var subtotal money.Cents
	count := 0
	for _, l := range s.lines {
		if l.UserID != userID {
			continue
		}
		items = append(items, s.cartItemJSON(l))
		if p := s.products[l.ProductID]; p != nil {
			subtotal += p.Price.Mul(l.Quantity)
		}
		count += l.Quantity
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items":      items,
		"subtotal":   money.Amount{Cents: subtotal},
		"item_count": count,
	})
}

func (s *Server) addToCart(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID    int64 `json:"user_id"`
		ProductID int64 `json:"product_id"`
		Quantity  int   `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == 0 || req.ProductID == 0 {
		writeError(w, http.StatusBadRequest, "User ID and Product ID required")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[req.ProductID]
	if !ok {
		writeError(w, http.StatusNotFound, "Product not found")
		return
	}
	for i, l := range s.lines {
		if l.UserID == req.UserID && l.ProductID == req.ProductID {
			if l.Quantity+req.Quantity > p.Stock {
				writeError(w, http.StatusBadRequest, "Not enough stock available")
				return
			}
			s.lines[i].Quantity += req.Quantity
			writeJSON(w, http.StatusOK, map[string]string{"message": "Cart updated"})
			return
		}
	}
	if req.Quantity > p.Stock {
		writeError(w, http.StatusBadRequest, "Not enough stock available")
		return
	}
	s.lines = append(s.lines, Line{ID: s.nextLine, UserID: req.UserID, ProductID: req.ProductID, Quantity: req.Quantity})
	s.nextLine++
	writeJSON(w, http.StatusOK, map[string]string{"message": "Item added to cart"})
}

func (s *Server) updateItem(w http.ResponseWriter, r *http.Request) {
	itemID, _ := pathID(r, "itemID")
	var req struct {
		Quantity *int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Quantity == nil || *req.Quantity < 0 {
		writeError(w, http.StatusBadRequest, "Valid quantity required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, l := range s.lines {
		if l.ID != itemID {
			continue
		}
		if *req.Quantity == 0 {
			s.lines = append(s.lines[:i], s.lines[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]string{"message": "Item removed from cart"})
			return
		}
		if p := s.products[l.ProductID]; p != nil && *req.Quantity > p.Stock {
			writeError(w, http.StatusBadRequest, "Not enough stock available")
			return
		}
		s.lines[i].Quantity = *req.Quantity
		writeJSON(w, http.StatusOK, map[string]string{"message": "Cart updated"})
		return
	}
	writeError(w, http.StatusNotFound, "Cart item not found")
}

func (s *Server) removeItem(w http.ResponseWriter, r *http.Request) {
	itemID, _ := pathID(r, "itemID")

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, l := range s.lines {
		if l.ID == itemID {
			s.lines = append(s.lines[:i], s.lines[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]string{"message": "Item removed from cart"})
			return
		}
	}
	writeError(w, http.StatusNotFound, "Cart item not found")
}

func (s *Server) clearCart(w http.ResponseWriter, r *http.Request) {
	userID, _ := pathID(r, "userID")

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.lines[:0]
	for _, l := range s.lines {
		if l.UserID != userID {
			kept = append(kept, l)
		}
	}
	s.lines = kept
	writeJSON(w, http.StatusOK, map[string]string{"message": "Cart cleared"})
}

func (s *Server) orderJSON(o *Order, withItems bool) map[string]any {
	summary := make([]string, 0, len(o.Lines))
	count := 0
	items := []map[string]any{}
	for _, l := range o.Lines {
		p := s.products[l.ProductID]
		name := ""
		var price money.Cents
		if p != nil {
			name = p.Name
			price = p.Price
		}
		summary = append(summary, fmt.Sprintf("%dx %s", l.Quantity, name))
		count++
		items = append(items, map[string]any{
			"id":            l.ID,
			"order_id":      o.ID,
			"product_id":    l.ProductID,
			"quantity":      l.Quantity,
			"price_at_time": money.Amount{Cents: price},
			"name":          name,
			"image_url":     nil,
		})
	}
	out := map[string]any{
		"id":                o.ID,
		"user_id":           o.UserID,
		"order_number":      o.Number,
		"total_amount":      money.Amount{Cents: o.Total},
		"shipping_address":  o.ShippingAddress,
		"payment_method":    o.PaymentMethod,
		"status":            o.Status,
		"first_name":        "Shopper",
		"last_name":         strconv.FormatInt(o.UserID, 10),
		"email":             fmt.Sprintf("shopper%d@example.com", o.UserID),
		"decline_reason":    nilIfEmpty(o.DeclineReason),
		"payment_proof_url": nilIfEmpty(o.ProofURL),
		"created_at":        "Mon, 19 Oct 2026 10:00:00 GMT",
		"items_summary":     strings.Join(summary, ", "),
		"item_count":        count,
	}
	if withItems {
		out["items"] = items
	}
	return out
}

func nilIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func (s *Server) createOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID          int64  `json:"user_id"`
		ShippingAddress string `json:"shipping_address"`
		PaymentMethod   string `json:"payment_method"`
		SelectedItems   []struct {
			ProductID int64 `json:"product_id"`
		} `json:"selected_items"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == 0 || req.ShippingAddress == "" || req.PaymentMethod == "" {
		writeError(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	if req.PaymentMethod != "cash_on_delivery" && req.PaymentMethod != "online_payment" {
		writeError(w, http.StatusBadRequest, "Invalid payment method")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	wanted := make(map[int64]bool, len(req.SelectedItems))
	for _, it := range req.SelectedItems {
		wanted[it.ProductID] = true
	}
	var picked []Line
	for _, l := range s.lines {
		if l.UserID == req.UserID && (len(wanted) == 0 || wanted[l.ProductID]) {
			picked = append(picked, l)
		}
	}
	if len(picked) == 0 {
		writeError(w, http.StatusBadRequest, "No items selected or cart is empty")
		return
	}

	var total money.Cents
	for _, l := range picked {
		p := s.products[l.ProductID]
		if p == nil || l.Quantity > p.Stock {
			name := ""
			if p != nil {
				name = p.Name
			}
			writeError(w, http.StatusBadRequest, "Not enough stock for "+name)
			return
		}
		total += p.Price.Mul(l.Quantity)
	}

	order := &Order{
		ID:              s.nextOrder,
		UserID:          req.UserID,
		Number:          fmt.Sprintf("ORD-%08X", s.nextOrder),
		Total:           total,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		Status:          "pending",
		Lines:           picked,
	}
	s.nextOrder++
	s.orders = append(s.orders, order)

	placed := make(map[int64]bool, len(picked))
	for _, l := range picked {
		s.products[l.ProductID].Stock -= l.Quantity
		placed[l.ID] = true
	}
	kept := s.lines[:0]
	for _, l := range s.lines {
		if !placed[l.ID] {
			kept = append(kept, l)
		}
	}
	s.lines = kept

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Order created successfully",
		"order":   s.orderJSON(order, false),
	})
}

func (s *Server) findOrder(r *http.Request) *Order {
	id, _ := pathID(r, "orderID")
	for _, o := range s.orders {
		if o.ID == id {
			return o
		}
	}
	return nil
}

func (s *Server) listOrders(w http.ResponseWriter, r *http.Request) {
	userID, _ := pathID(r, "userID")

	s.mu.Lock()
	defer s.mu.Unlock()

	out := []map[string]any{}
	for i := len(s.orders) - 1; i >= 0; i-- {
		if s.orders[i].UserID == userID {
			out = append(out, s.orderJSON(s.orders[i], true))
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getOrder(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o := s.findOrder(r)
	if o == nil {
		writeError(w, http.StatusNotFound, "Order not found")
		return
	}
	writeJSON(w, http.StatusOK, s.orderJSON(o, true))
}

func (s *Server) cancelOrder(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o := s.findOrder(r)
	if o == nil {
		writeError(w, http.StatusNotFound, "Order not found")
		return
	}
	if o.Status != "pending" {
		writeError(w, http.StatusBadRequest, "Only pending orders can be cancelled")
		return
	}
	o.Status = "cancelled"
	for _, l := range o.Lines {
		if p := s.products[l.ProductID]; p != nil {
			p.Stock += l.Quantity
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Order cancelled successfully"})
}

func (s *Server) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	switch req.Status {
	case "pending", "processing", "shipped", "in_transit", "delivered", "cancelled", "declined":
	default:
		writeError(w, http.StatusBadRequest, "Invalid status")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	o := s.findOrder(r)
	if o == nil {
		writeError(w, http.StatusNotFound, "Order not found")
		return
	}
	o.Status = req.Status
	writeJSON(w, http.StatusOK, map[string]string{"message": "Order status updated successfully"})
}

func (s *Server) listAllOrders(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []map[string]any{}
	for i := len(s.orders) - 1; i >= 0; i-- {
		out = append(out, s.orderJSON(s.orders[i], false))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) approveOrder(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o := s.findOrder(r)
	if o == nil {
		writeError(w, http.StatusNotFound, "Order not found")
		return
	}
	if o.Status != "pending" {
		writeError(w, http.StatusBadRequest, "Only pending orders can be approved")
		return
	}
	o.Status = "processing"
	writeJSON(w, http.StatusOK, map[string]string{"message": "Order approved successfully"})
}

func (s *Server) declineOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DeclineReason string `json:"decline_reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.DeclineReason) == "" {
		writeError(w, http.StatusBadRequest, "Decline reason is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	o := s.findOrder(r)
	if o == nil {
		writeError(w, http.StatusNotFound, "Order not found")
		return
	}
	if o.Status != "pending" {
		writeError(w, http.StatusBadRequest, "Only pending orders can be declined")
		return
	}
	o.Status = "declined"
	o.DeclineReason = req.DeclineReason
	for _, l := range o.Lines {
		if p := s.products[l.ProductID]; p != nil {
			p.Stock += l.Quantity
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Order declined successfully"})
}

func (s *Server) uploadProof(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("payment_proof")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file provided")
		return
	}
	_ = file.Close()

	s.mu.Lock()
	defer s.mu.Unlock()

	o := s.findOrder(r)
	if o == nil {
		writeError(w, http.StatusNotFound, "Order not found")
		return
	}
	o.ProofURL = fmt.Sprintf("/uploads/payment_proofs/order_%d_%s", o.ID, header.Filename)
	writeJSON(w, http.StatusOK, map[string]any{
		"message":           "Payment proof uploaded successfully",
		"payment_proof_url": o.ProofURL,
		"filename":          header.Filename,
	})
}

func (s *Server) productJSON(p *Product) map[string]any {
	return map[string]any{
		"id":             p.ID,
		"name":           p.Name,
		"description":    nil,
		"price":          money.Amount{Cents: p.Price},
		"stock_quantity": p.Stock,
		"image_url":      nil,
		"category_id":    p.CategoryID,
		"category_name":  s.categories[p.CategoryID],
	}
}

func (s *Server) sortedProducts() []*Product {
	out := make([]*Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	if perPage < 1 {
		perPage = 12
	}
	category, _ := strconv.ParseInt(q.Get("category_id"), 10, 64)
	search := strings.ToLower(q.Get("search"))
	minPrice, minErr := money.Parse(q.Get("min_price"))
	maxPrice, maxErr := money.Parse(q.Get("max_price"))

	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []*Product
	for _, p := range s.sortedProducts() {
		if category > 0 && p.CategoryID != category {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Name), search) {
			continue
		}
		if minErr == nil && p.Price < minPrice {
			continue
		}
		if maxErr == nil && p.Price > maxPrice {
			continue
		}
		matched = append(matched, p)
	}
	switch q.Get("sort_by") {
	case "price_low":
		sort.SliceStable(matched, func(i, j int) bool { return matched[i].Price < matched[j].Price })
	case "price_high":
		sort.SliceStable(matched, func(i, j int) bool { return matched[i].Price > matched[j].Price })
	case "name":
		sort.SliceStable(matched, func(i, j int) bool { return matched[i].Name < matched[j].Name })
	}

	out := []map[string]any{}
	start := (page - 1) * perPage
	for i := start; i < len(matched) && i < start+perPage; i++ {
		out = append(out, s.productJSON(matched[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"products":    out,
		"total":       len(matched),
		"page":        page,
		"per_page":    perPage,
		"total_pages": (len(matched) + perPage - 1) / perPage,
	})
}

func (s *Server) listCategories(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]int64, 0, len(s.categories))
	for id := range s.categories {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return s.categories[ids[i]] < s.categories[ids[j]] })

	out := []map[string]any{}
	for _, id := range ids {
		out = append(out, map[string]any{"id": id, "name": s.categories[id], "description": nil})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) featured(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []map[string]any{}
	for _, p := range s.sortedProducts() {
		if p.Stock > 0 && len(out) < 8 {
			out = append(out, s.productJSON(p))
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getProduct(w http.ResponseWriter, r *http.Request) {
	id, _ := pathID(r, "productID")

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		writeError(w, http.StatusNotFound, "Product not found")
		return
	}
	writeJSON(w, http.StatusOK, s.productJSON(p))
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShopper(t *testing.T) {
	tests := []struct {
		name   string
		header string
		status int
	}{
		{"valid", "42", http.StatusOK},
		{"padded", " 7 ", http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"not a number", "abc", http.StatusUnauthorized},
		{"zero", "0", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got int64
			handler := Shopper(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got, _ = ShopperIDFromContext(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/cart", nil)
			if tt.header != "" {
				req.Header.Set(HeaderUserID, tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusOK {
				assert.Positive(t, got)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	handler := Shopper(RequireRole("admin")(okHandler))

	req := httptest.NewRequest(http.MethodPut, "/admin/orders/1/status", nil)
	req.Header.Set(HeaderUserID, "1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req.Header.Set(HeaderUserRole, "Admin")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCacheControl(t *testing.T) {
	rec := httptest.NewRecorder()
	CacheControl(60)(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products", nil))
	assert.Equal(t, "public, max-age=60", rec.Header().Get("Cache-Control"))

	rec = httptest.NewRecorder()
	NoStore(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cart", nil))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

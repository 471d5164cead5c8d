package middleware

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/justinloleng/ecommerce/pkg/httputil"
)

type contextKeyType string

const (
	shopperIDKey contextKeyType = "shopper_id"
	roleKey      contextKeyType = "role"
)

// Headers set by the edge after it has authenticated the browser session.
const (
	HeaderUserID   = "X-User-ID"
	HeaderUserRole = "X-User-Role"
)

// Shopper reads the authenticated shopper from X-User-ID and X-User-Role and
// stores them in the context. Requests without a usable id are rejected with 401.
func Shopper(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimSpace(r.Header.Get(HeaderUserID))
		if raw == "" {
			writeAuthError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing "+HeaderUserID+" header")
			return
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			writeAuthError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid "+HeaderUserID+" header")
			return
		}

		ctx := context.WithValue(r.Context(), shopperIDKey, id)
		if role := strings.TrimSpace(r.Header.Get(HeaderUserRole)); role != "" {
			ctx = context.WithValue(ctx, roleKey, strings.ToLower(role))
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole rejects requests whose role is not one of roles with 403.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	roleSet := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		roleSet[r] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := roleSet[RoleFromContext(r.Context())]; !ok {
				writeAuthError(w, http.StatusForbidden, "FORBIDDEN", "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithShopperID returns a context carrying the shopper id, as Shopper would.
func WithShopperID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, shopperIDKey, id)
}

// ShopperIDFromContext extracts the shopper id from the request context.
func ShopperIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(shopperIDKey).(int64)
	return id, ok
}

// RoleFromContext extracts the shopper role from the request context.
func RoleFromContext(ctx context.Context) string {
	if role, ok := ctx.Value(roleKey).(string); ok {
		return role
	}
	return ""
}

func writeAuthError(w http.ResponseWriter, status int, code, message string) {
	httputil.WriteJSON(w, status, httputil.Response{
		Error: &httputil.ErrorResponse{Code: code, Message: message},
	})
}

// Package handler exposes the storefront engine over HTTP. Handlers decode
// and validate payloads at the boundary, resolve the caller's identity from
// the session cookie, and delegate to the domain services.
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xenking/storefront/internal/domain/auth"
	"github.com/xenking/storefront/internal/domain/coupon"
	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/domain/product"
)

// SessionCookie is the cookie carrying the opaque session token issued by
// the authentication collaborator.
const SessionCookie = "session"

// Handler serves the storefront API, delegating business logic to the order
// service and the coupon/product collaborators.
type Handler struct {
	resolver *auth.Resolver
	products product.Repository
	coupons  coupon.Repository
	verifier coupon.Validator
	orders   *order.Service
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	resolver *auth.Resolver,
	products product.Repository,
	coupons coupon.Repository,
	verifier coupon.Validator,
	orders *order.Service,
) *Handler {
	return &Handler{
		resolver: resolver,
		products: products,
		coupons:  coupons,
		verifier: verifier,
		orders:   orders,
	}
}

// Routes returns the API router. Identity is resolved once per request and
// stored in the request context; each handler enforces its own access rule.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(h.sessionAuth)

	r.Get("/products", h.ListProducts)

	r.Get("/coupons", h.ListCoupons)
	r.Post("/coupons/validate", h.ValidateCoupon)

	r.Post("/orders", h.CreateOrder)
	r.Get("/orders/user", h.ListUserOrders)
	r.Get("/orders/admin", h.ListAdminOrders)
	r.Get("/orders/{orderID}", h.GetOrder)
	r.Put("/orders/{orderID}/status", h.UpdateOrderStatus)

	r.Post("/admin/coupons", h.CreateCoupon)
	r.Put("/admin/coupons/{couponID}", h.UpdateCoupon)

	return r
}

// sessionAuth derives the caller's identity from the session cookie on every
// request and stores it in the request context. Missing or invalid cookies
// resolve to the anonymous identity; handlers decide what that may do.
func (h *Handler) sessionAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := ""
		if c, err := r.Cookie(SessionCookie); err == nil {
			token = c.Value
		}
		caller := h.resolver.Resolve(r.Context(), token)
		next.ServeHTTP(w, r.WithContext(withCaller(r.Context(), caller)))
	})
}

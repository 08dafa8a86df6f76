package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/domain/auth"
	"github.com/xenking/storefront/internal/domain/coupon"
	"github.com/xenking/storefront/internal/domain/order"
)

type callerKey struct{}

func withCaller(ctx context.Context, c auth.Context) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

// callerFrom extracts the resolved identity set by sessionAuth. Absence means
// the middleware did not run; treat it as anonymous.
func callerFrom(ctx context.Context) auth.Context {
	if c, ok := ctx.Value(callerKey{}).(auth.Context); ok {
		return c
	}
	return auth.Anonymous()
}

// errorBody is the stable error response shape.
type errorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError maps a domain error to the HTTP taxonomy and writes the stable
// error body. Unknown errors are logged and masked as a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := mapError(err)

	if status == http.StatusInternalServerError {
		zctx.From(r.Context()).Error("request failed", zap.Error(err))
	}

	writeJSON(w, status, body)
}

func mapError(err error) (int, errorBody) {
	switch {
	case errors.Is(err, auth.ErrUnauthenticated):
		return http.StatusUnauthorized, errorBody{Code: 401, Message: "not authenticated"}
	case errors.Is(err, auth.ErrUnauthorized):
		return http.StatusForbidden, errorBody{Code: 403, Message: "not authorized"}
	case errors.Is(err, order.ErrNotFound):
		return http.StatusNotFound, errorBody{Code: 404, Message: "order not found"}
	case errors.Is(err, coupon.ErrNotFound):
		return http.StatusNotFound, errorBody{Code: 404, Message: "invalid or expired coupon code"}
	case errors.Is(err, coupon.ErrExhausted):
		return http.StatusConflict, errorBody{Code: 409, Message: "coupon usage limit reached"}
	case errors.Is(err, coupon.ErrDuplicateCode):
		return http.StatusBadRequest, errorBody{Code: 400, Message: "coupon code already exists", Field: "code"}
	case errors.Is(err, order.ErrEmptyCart):
		return http.StatusBadRequest, errorBody{Code: 400, Message: "cart items required"}
	case errors.Is(err, order.ErrInvalidStatus):
		return http.StatusBadRequest, errorBody{Code: 400, Message: "invalid order status"}
	}

	var vErr *order.ValidationError
	if errors.As(err, &vErr) {
		return http.StatusBadRequest, errorBody{Code: 400, Message: vErr.Error(), Field: vErr.Field}
	}

	var prErr *order.ProductRefError
	if errors.As(err, &prErr) {
		return http.StatusBadRequest, errorBody{Code: 400, Message: prErr.Error(), Field: "cartItems.id"}
	}

	var tmErr *order.TotalMismatchError
	if errors.As(err, &tmErr) {
		return http.StatusBadRequest, errorBody{Code: 400, Message: tmErr.Error(), Field: tmErr.Field}
	}

	return http.StatusInternalServerError, errorBody{Code: 500, Message: "internal error"}
}

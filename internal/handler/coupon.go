package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/auth"
	"github.com/xenking/storefront/internal/domain/coupon"
)

type validateCouponJSON struct {
	Code string `json:"code"`
}

type createCouponJSON struct {
	Code               string     `json:"code"`
	DiscountPercentage float64    `json:"discountPercentage"`
	ExpiresAt          *time.Time `json:"expiresAt,omitempty"`
	Active             *bool      `json:"active,omitempty"`
	UsageLimit         *int       `json:"usageLimit,omitempty"`
}

type updateCouponJSON struct {
	Code               *string    `json:"code,omitempty"`
	DiscountPercentage *float64   `json:"discountPercentage,omitempty"`
	ExpiresAt          *time.Time `json:"expiresAt,omitempty"`
	Active             *bool      `json:"active,omitempty"`
	UsageLimit         *int       `json:"usageLimit,omitempty"`
}

type couponJSON struct {
	ID                 string     `json:"id"`
	Code               string     `json:"code"`
	DiscountPercentage float64    `json:"discountPercentage"`
	ExpiresAt          *time.Time `json:"expiresAt,omitempty"`
	Active             bool       `json:"active"`
	UsageLimit         int        `json:"usageLimit"`
	UsageCount         int        `json:"usageCount"`
	CreatedAt          time.Time  `json:"createdAt"`
}

// ValidateCoupon handles POST /api/coupons/validate. The response never
// distinguishes unknown, inactive, and expired codes.
func (h *Handler) ValidateCoupon(w http.ResponseWriter, r *http.Request) {
	var req validateCouponJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Code: 400, Message: "invalid request body"})
		return
	}
	if req.Code == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Code: 400, Message: "code required", Field: "code"})
		return
	}

	c, err := h.verifier.Validate(r.Context(), req.Code)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toCouponJSON(c))
}

// ListCoupons handles GET /api/coupons. Admins see every coupon including
// inactive and expired ones; everyone else sees only redeemable codes.
func (h *Handler) ListCoupons(w http.ResponseWriter, r *http.Request) {
	view := coupon.ViewRedeemable
	if callerFrom(r.Context()).Admin() {
		view = coupon.ViewAll
	}

	coupons, err := h.coupons.List(r.Context(), view)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]couponJSON, len(coupons))
	for i := range coupons {
		out[i] = toCouponJSON(&coupons[i])
	}
	writeJSON(w, http.StatusOK, out)
}

// CreateCoupon handles POST /api/admin/coupons.
func (h *Handler) CreateCoupon(w http.ResponseWriter, r *http.Request) {
	if err := requireAdmin(r); err != nil {
		writeError(w, r, err)
		return
	}

	var req createCouponJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Code: 400, Message: "invalid request body"})
		return
	}
	if req.Code == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Code: 400, Message: "code required", Field: "code"})
		return
	}
	if req.DiscountPercentage < 0 || req.DiscountPercentage > 100 {
		writeJSON(w, http.StatusBadRequest, errorBody{Code: 400, Message: "must be between 0 and 100", Field: "discountPercentage"})
		return
	}

	c := &coupon.Coupon{
		ID:          uuid.New().String(),
		Code:        req.Code,
		DiscountPct: decimal.NewFromFloat(req.DiscountPercentage),
		ExpiresAt:   req.ExpiresAt,
		Active:      true,
	}
	if req.Active != nil {
		c.Active = *req.Active
	}
	if req.UsageLimit != nil {
		c.UsageLimit = *req.UsageLimit
	}

	if err := h.coupons.Create(r.Context(), c); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toCouponJSON(c))
}

// UpdateCoupon handles PUT /api/admin/coupons/{couponID}. Only the fields
// present in the body change.
func (h *Handler) UpdateCoupon(w http.ResponseWriter, r *http.Request) {
	if err := requireAdmin(r); err != nil {
		writeError(w, r, err)
		return
	}

	var req updateCouponJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Code: 400, Message: "invalid request body"})
		return
	}
	if req.DiscountPercentage != nil && (*req.DiscountPercentage < 0 || *req.DiscountPercentage > 100) {
		writeJSON(w, http.StatusBadRequest, errorBody{Code: 400, Message: "must be between 0 and 100", Field: "discountPercentage"})
		return
	}

	c, err := h.coupons.FindByID(r.Context(), chi.URLParam(r, "couponID"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	if req.Code != nil {
		c.Code = *req.Code
	}
	if req.DiscountPercentage != nil {
		c.DiscountPct = decimal.NewFromFloat(*req.DiscountPercentage)
	}
	if req.ExpiresAt != nil {
		c.ExpiresAt = req.ExpiresAt
	}
	if req.Active != nil {
		c.Active = *req.Active
	}
	if req.UsageLimit != nil {
		c.UsageLimit = *req.UsageLimit
	}

	if err := h.coupons.Update(r.Context(), c); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toCouponJSON(c))
}

func requireAdmin(r *http.Request) error {
	caller := callerFrom(r.Context())
	if !caller.Authenticated() {
		return auth.ErrUnauthenticated
	}
	if !caller.Admin() {
		return auth.ErrUnauthorized
	}
	return nil
}

func toCouponJSON(c *coupon.Coupon) couponJSON {
	return couponJSON{
		ID:                 c.ID,
		Code:               c.Code,
		DiscountPercentage: c.DiscountPct.InexactFloat64(),
		ExpiresAt:          c.ExpiresAt,
		Active:             c.Active,
		UsageLimit:         c.UsageLimit,
		UsageCount:         c.UsageCount,
		CreatedAt:          c.CreatedAt,
	}
}

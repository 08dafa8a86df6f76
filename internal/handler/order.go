package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/order"
)

type cartItemJSON struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Image    string  `json:"image"`
	Quantity int     `json:"quantity"`
}

type createOrderJSON struct {
	CartItems       []cartItemJSON `json:"cartItems"`
	ShippingAddress string         `json:"shippingAddress"`
	ShippingCity    string         `json:"shippingCity"`
	ShippingState   string         `json:"shippingState"`
	ShippingPincode string         `json:"shippingPincode"`
	ShippingPhone   string         `json:"shippingPhone"`
	PaymentMethod   string         `json:"paymentMethod"`
	CouponID        string         `json:"couponId,omitempty"`
	OrderNotes      string         `json:"orderNotes,omitempty"`

	// Client-side figures, verified against the server quote when present.
	TotalAmount    *float64 `json:"totalAmount,omitempty"`
	DiscountAmount *float64 `json:"discountAmount,omitempty"`
}

type updateStatusJSON struct {
	Status string `json:"status"`
}

type orderItemJSON struct {
	ProductID   string  `json:"productId"`
	ProductName string  `json:"productName"`
	Price       float64 `json:"price"`
	Quantity    int     `json:"quantity"`
}

type orderJSON struct {
	ID              string          `json:"id"`
	DisplayID       string          `json:"displayId"`
	UserID          string          `json:"userId"`
	Status          string          `json:"status"`
	PaymentStatus   string          `json:"paymentStatus"`
	PaymentMethod   string          `json:"paymentMethod"`
	TotalAmount     float64         `json:"totalAmount"`
	DiscountAmount  float64         `json:"discountAmount"`
	CouponID        string          `json:"couponId,omitempty"`
	ShippingAddress string          `json:"shippingAddress"`
	ShippingCity    string          `json:"shippingCity"`
	ShippingState   string          `json:"shippingState"`
	ShippingPincode string          `json:"shippingPincode"`
	ShippingPhone   string          `json:"shippingPhone,omitempty"`
	OrderNotes      string          `json:"orderNotes,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	Items           []orderItemJSON `json:"items"`
}

// CreateOrder handles POST /api/orders: the checkout submission.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Code: 400, Message: "invalid request body"})
		return
	}

	items := make([]order.CartItem, len(req.CartItems))
	for i, ci := range req.CartItems {
		items[i] = order.CartItem{
			ProductID: ci.ID,
			Name:      ci.Name,
			Price:     decimal.NewFromFloat(ci.Price),
			Quantity:  ci.Quantity,
			ImageURL:  ci.Image,
		}
	}

	createReq := order.CreateRequest{
		Items: items,
		Shipping: order.ShippingDetails{
			Address: req.ShippingAddress,
			City:    req.ShippingCity,
			State:   req.ShippingState,
			Pincode: req.ShippingPincode,
			Phone:   req.ShippingPhone,
		},
		PaymentMethod: req.PaymentMethod,
		CouponID:      req.CouponID,
		Notes:         req.OrderNotes,
	}
	if req.TotalAmount != nil {
		claimed := decimal.NewFromFloat(*req.TotalAmount)
		createReq.ClaimedTotal = &claimed
	}
	if req.DiscountAmount != nil {
		claimed := decimal.NewFromFloat(*req.DiscountAmount)
		createReq.ClaimedDiscount = &claimed
	}

	o, err := h.orders.Create(r.Context(), callerFrom(r.Context()), createReq)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toOrderJSON(o))
}

// GetOrder handles GET /api/orders/{orderID}: the order detail view.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.Get(r.Context(), callerFrom(r.Context()), chi.URLParam(r, "orderID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderJSON(o))
}

// ListUserOrders handles GET /api/orders/user: the caller's order history.
func (h *Handler) ListUserOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListForUser(r.Context(), callerFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderListJSON(orders))
}

// ListAdminOrders handles GET /api/orders/admin: the back-office order board.
func (h *Handler) ListAdminOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListAll(r.Context(), callerFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderListJSON(orders))
}

// UpdateOrderStatus handles PUT /api/orders/{orderID}/status.
func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Code: 400, Message: "invalid request body"})
		return
	}

	o, err := h.orders.UpdateStatus(r.Context(), callerFrom(r.Context()), chi.URLParam(r, "orderID"), order.Status(req.Status))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toOrderJSON(o))
}

func toOrderJSON(o *order.Order) orderJSON {
	items := make([]orderItemJSON, len(o.Items))
	for i, item := range o.Items {
		items[i] = orderItemJSON{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Price:       item.Price.InexactFloat64(),
			Quantity:    item.Quantity,
		}
	}

	return orderJSON{
		ID:              o.ID,
		DisplayID:       o.DisplayID(),
		UserID:          o.UserID,
		Status:          string(o.Status),
		PaymentStatus:   o.PaymentStatus,
		PaymentMethod:   o.PaymentMethod,
		TotalAmount:     o.TotalAmount.InexactFloat64(),
		DiscountAmount:  o.DiscountAmount.InexactFloat64(),
		CouponID:        o.CouponID,
		ShippingAddress: o.Shipping.Address,
		ShippingCity:    o.Shipping.City,
		ShippingState:   o.Shipping.State,
		ShippingPincode: o.Shipping.Pincode,
		ShippingPhone:   o.Shipping.Phone,
		OrderNotes:      o.Notes,
		CreatedAt:       o.CreatedAt,
		Items:           items,
	}
}

func toOrderListJSON(orders []order.Order) []orderJSON {
	out := make([]orderJSON, len(orders))
	for i := range orders {
		out[i] = toOrderJSON(&orders[i])
	}
	return out
}

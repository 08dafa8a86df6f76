package order

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/auth"
	"github.com/xenking/storefront/internal/domain/coupon"
	"github.com/xenking/storefront/internal/domain/pricing"
	"github.com/xenking/storefront/internal/domain/product"
)

// CreateRequest holds the checkout input. ClaimedTotal and ClaimedDiscount
// carry the client's own figures when present; they are verified against the
// server-side quote and never trusted for persisted state.
type CreateRequest struct {
	Items           []CartItem
	Shipping        ShippingDetails
	PaymentMethod   string
	CouponID        string
	Notes           string
	ClaimedTotal    *decimal.Decimal
	ClaimedDiscount *decimal.Decimal
}

// Service implements checkout and the order lifecycle. Every operation takes
// the caller's resolved identity as an explicit parameter.
type Service struct {
	products product.Repository
	coupons  coupon.Validator
	orders   Repository
	pricing  pricing.Config
}

// NewService creates an order Service with the required domain dependencies.
func NewService(
	products product.Repository,
	coupons coupon.Validator,
	orders Repository,
	pricingCfg pricing.Config,
) *Service {
	return &Service{
		products: products,
		coupons:  coupons,
		orders:   orders,
		pricing:  pricingCfg,
	}
}

// Create validates the cart and shipping fields, resolves product references,
// recomputes the quote server-side, and persists the order with its item
// snapshots atomically. Coupon redemption counting happens inside the same
// transaction via the repository.
func (s *Service) Create(ctx context.Context, caller auth.Context, req CreateRequest) (*Order, error) {
	if !caller.Authenticated() {
		return nil, auth.ErrUnauthenticated
	}

	if err := validateCreateRequest(req); err != nil {
		return nil, err
	}

	if err := s.resolveProductRefs(ctx, req.Items); err != nil {
		return nil, err
	}

	var cpn *coupon.Coupon
	if req.CouponID != "" {
		c, err := s.coupons.ValidateByID(ctx, req.CouponID)
		if err != nil {
			return nil, errors.Wrap(err, "validate coupon")
		}
		cpn = c
	}

	quoteItems := make([]pricing.Item, len(req.Items))
	for i, item := range req.Items {
		quoteItems[i] = pricing.Item{Price: item.Price, Quantity: item.Quantity}
	}
	quote := pricing.Calculate(s.pricing, quoteItems, cpn)

	// The server-side quote is authoritative. Client figures, when present,
	// must agree exactly.
	if req.ClaimedTotal != nil && !req.ClaimedTotal.Equal(quote.Total) {
		return nil, &TotalMismatchError{
			Field:   "totalAmount",
			Claimed: req.ClaimedTotal.String(),
			Actual:  quote.Total.String(),
		}
	}
	if req.ClaimedDiscount != nil && !req.ClaimedDiscount.Equal(quote.Discount) {
		return nil, &TotalMismatchError{
			Field:   "discountAmount",
			Claimed: req.ClaimedDiscount.String(),
			Actual:  quote.Discount.String(),
		}
	}

	items := make([]Item, len(req.Items))
	for i, ci := range req.Items {
		items[i] = Item{
			ProductID:   ci.ProductID,
			ProductName: ci.Name,
			Price:       ci.Price,
			Quantity:    ci.Quantity,
		}
	}

	o := &Order{
		ID:             uuid.New().String(),
		UserID:         caller.UserID,
		Status:         StatusPending,
		PaymentStatus:  PaymentPending,
		PaymentMethod:  req.PaymentMethod,
		TotalAmount:    quote.Total,
		DiscountAmount: quote.Discount,
		Shipping:       req.Shipping,
		Notes:          req.Notes,
		Items:          items,
	}
	if cpn != nil {
		o.CouponID = cpn.ID
	}

	if err := s.orders.Create(ctx, o); err != nil {
		if errors.Is(err, coupon.ErrExhausted) {
			return nil, coupon.ErrExhausted
		}
		return nil, errors.Wrap(err, "create order")
	}

	return o, nil
}

// Get fetches a single order. Only the owning user or an admin may read it.
func (s *Service) Get(ctx context.Context, caller auth.Context, id string) (*Order, error) {
	if !caller.Authenticated() {
		return nil, auth.ErrUnauthenticated
	}

	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if o.UserID != caller.UserID && !caller.Admin() {
		return nil, auth.ErrUnauthorized
	}

	return o, nil
}

// ListForUser returns the caller's own orders, newest first.
func (s *Service) ListForUser(ctx context.Context, caller auth.Context) ([]Order, error) {
	if !caller.Authenticated() {
		return nil, auth.ErrUnauthenticated
	}
	return s.orders.ListByUser(ctx, caller.UserID)
}

// ListAll returns every order. Admin only.
func (s *Service) ListAll(ctx context.Context, caller auth.Context) ([]Order, error) {
	if !caller.Authenticated() {
		return nil, auth.ErrUnauthenticated
	}
	if !caller.Admin() {
		return nil, auth.ErrUnauthorized
	}
	return s.orders.ListAll(ctx)
}

// UpdateStatus advances an order's fulfillment status. Admin only; the move
// must be legal per the transition table. Only the status field changes.
func (s *Service) UpdateStatus(ctx context.Context, caller auth.Context, id string, target Status) (*Order, error) {
	if !caller.Authenticated() {
		return nil, auth.ErrUnauthenticated
	}
	if !caller.Admin() {
		return nil, auth.ErrUnauthorized
	}

	if _, err := ParseStatus(string(target)); err != nil {
		return nil, err
	}

	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !o.Status.CanTransitionTo(target) {
		return nil, ErrInvalidStatus
	}

	if err := s.orders.UpdateStatus(ctx, id, target); err != nil {
		return nil, errors.Wrap(err, "update order status")
	}

	o.Status = target
	return o, nil
}

func validateCreateRequest(req CreateRequest) error {
	if len(req.Items) == 0 {
		return ErrEmptyCart
	}
	for _, item := range req.Items {
		if item.ProductID == "" {
			return &ValidationError{Field: "cartItems.id", Reason: "required"}
		}
		if item.Quantity < 1 {
			return &ValidationError{Field: "cartItems.quantity", Reason: "must be at least 1"}
		}
		if item.Price.IsNegative() {
			return &ValidationError{Field: "cartItems.price", Reason: "must not be negative"}
		}
	}

	required := []struct {
		field, value string
	}{
		{"shippingAddress", req.Shipping.Address},
		{"shippingCity", req.Shipping.City},
		{"shippingState", req.Shipping.State},
		{"shippingPincode", req.Shipping.Pincode},
		{"paymentMethod", req.PaymentMethod},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return &ValidationError{Field: f.field, Reason: "required"}
		}
	}

	return nil
}

// resolveProductRefs verifies every cart line references an existing product
// in a single batch query.
func (s *Service) resolveProductRefs(ctx context.Context, items []CartItem) error {
	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ProductID
	}

	fetched, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return errors.Wrap(err, "get products")
	}

	known := make(map[string]struct{}, len(fetched))
	for _, p := range fetched {
		known[p.ID] = struct{}{}
	}

	for _, item := range items {
		if _, ok := known[item.ProductID]; !ok {
			return &ProductRefError{ProductID: item.ProductID}
		}
	}

	return nil
}

package order

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/storefront/internal/domain/auth"
	"github.com/xenking/storefront/internal/domain/coupon"
	"github.com/xenking/storefront/internal/domain/pricing"
	"github.com/xenking/storefront/internal/domain/product"
)

// --- Mock implementations ---

type mockProductRepo struct {
	byID   map[string]product.Product
	getErr error
}

func (m *mockProductRepo) List(_ context.Context) ([]product.Product, error) {
	return nil, nil
}

func (m *mockProductRepo) GetByIDs(_ context.Context, ids []string) ([]product.Product, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	var out []product.Product
	for _, id := range ids {
		if p, ok := m.byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

type mockCouponValidator struct {
	coupon *coupon.Coupon
	err    error
}

func (m *mockCouponValidator) Validate(_ context.Context, _ string) (*coupon.Coupon, error) {
	return m.coupon, m.err
}

func (m *mockCouponValidator) ValidateByID(_ context.Context, _ string) (*coupon.Coupon, error) {
	return m.coupon, m.err
}

type mockOrderRepo struct {
	byID          map[string]*Order
	created       *Order
	createErr     error
	updatedID     string
	updatedStatus Status
	updateErr     error
}

func (m *mockOrderRepo) Create(_ context.Context, o *Order) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.created = o
	return nil
}

func (m *mockOrderRepo) GetByID(_ context.Context, id string) (*Order, error) {
	o, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *mockOrderRepo) ListByUser(_ context.Context, userID string) ([]Order, error) {
	var out []Order
	for _, o := range m.byID {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (m *mockOrderRepo) ListAll(_ context.Context) ([]Order, error) {
	var out []Order
	for _, o := range m.byID {
		out = append(out, *o)
	}
	return out, nil
}

func (m *mockOrderRepo) UpdateStatus(_ context.Context, id string, status Status) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.updatedID = id
	m.updatedStatus = status
	if o, ok := m.byID[id]; ok {
		o.Status = status
	}
	return nil
}

// --- Helpers ---

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var (
	userCtx  = auth.Context{Role: auth.RoleUser, UserID: "u1"}
	otherCtx = auth.Context{Role: auth.RoleUser, UserID: "u2"}
	adminCtx = auth.Context{Role: auth.RoleAdmin, UserID: "a1"}
)

func newProductRepo(products ...product.Product) *mockProductRepo {
	byID := make(map[string]product.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	return &mockProductRepo{byID: byID}
}

func testService(products *mockProductRepo, coupons *mockCouponValidator, orders *mockOrderRepo) *Service {
	return NewService(products, coupons, orders, pricing.DefaultConfig())
}

func validRequest() CreateRequest {
	return CreateRequest{
		Items: []CartItem{
			{ProductID: "p1", Name: "Widget", Price: dec("100"), Quantity: 2},
			{ProductID: "p2", Name: "Gadget", Price: dec("50"), Quantity: 1},
		},
		Shipping: ShippingDetails{
			Address: "1 Main St",
			City:    "Springfield",
			State:   "IL",
			Pincode: "62701",
			Phone:   "555-0100",
		},
		PaymentMethod: "cod",
	}
}

func catalogFor(req CreateRequest) *mockProductRepo {
	products := make([]product.Product, len(req.Items))
	for i, item := range req.Items {
		products[i] = product.Product{ID: item.ProductID, Name: item.Name, Price: item.Price}
	}
	return newProductRepo(products...)
}

// --- Create ---

func TestCreate_Unauthenticated(t *testing.T) {
	svc := testService(newProductRepo(), &mockCouponValidator{}, &mockOrderRepo{})

	_, err := svc.Create(context.Background(), auth.Anonymous(), validRequest())
	require.ErrorIs(t, err, auth.ErrUnauthenticated)
}

func TestCreate_EmptyCart(t *testing.T) {
	svc := testService(newProductRepo(), &mockCouponValidator{}, &mockOrderRepo{})

	req := validRequest()
	req.Items = nil

	_, err := svc.Create(context.Background(), userCtx, req)
	require.ErrorIs(t, err, ErrEmptyCart)
}

func TestCreate_InvalidQuantity(t *testing.T) {
	svc := testService(newProductRepo(), &mockCouponValidator{}, &mockOrderRepo{})

	req := validRequest()
	req.Items[0].Quantity = 0

	_, err := svc.Create(context.Background(), userCtx, req)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "cartItems.quantity", vErr.Field)
}

func TestCreate_MissingShippingField(t *testing.T) {
	svc := testService(newProductRepo(), &mockCouponValidator{}, &mockOrderRepo{})

	req := validRequest()
	req.Shipping.City = ""

	_, err := svc.Create(context.Background(), userCtx, req)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "shippingCity", vErr.Field)
}

func TestCreate_PhoneAndNotesOptional(t *testing.T) {
	req := validRequest()
	req.Shipping.Phone = ""
	req.Notes = ""

	repo := &mockOrderRepo{}
	svc := testService(catalogFor(req), &mockCouponValidator{}, repo)

	_, err := svc.Create(context.Background(), userCtx, req)
	require.NoError(t, err)
}

func TestCreate_UnknownProduct(t *testing.T) {
	req := validRequest()
	svc := testService(newProductRepo(), &mockCouponValidator{}, &mockOrderRepo{})

	_, err := svc.Create(context.Background(), userCtx, req)

	var prErr *ProductRefError
	require.ErrorAs(t, err, &prErr)
	assert.Equal(t, "p1", prErr.ProductID)
}

func TestCreate_NoCoupon(t *testing.T) {
	req := validRequest()
	repo := &mockOrderRepo{}
	svc := testService(catalogFor(req), &mockCouponValidator{}, repo)

	o, err := svc.Create(context.Background(), userCtx, req)
	require.NoError(t, err)

	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, PaymentPending, o.PaymentStatus)
	assert.Equal(t, "u1", o.UserID)
	assert.True(t, dec("250").Equal(o.TotalAmount), "total = %s", o.TotalAmount)
	assert.True(t, decimal.Zero.Equal(o.DiscountAmount))
	assert.Empty(t, o.CouponID)
	require.Len(t, o.Items, 2)
	assert.Equal(t, "Widget", o.Items[0].ProductName)
	assert.Equal(t, 2, o.Items[0].Quantity)
	assert.NotNil(t, repo.created)
}

func TestCreate_WithCoupon(t *testing.T) {
	req := validRequest()
	req.CouponID = "c1"

	cv := &mockCouponValidator{coupon: &coupon.Coupon{
		ID:          "c1",
		Code:        "SAVE10",
		DiscountPct: dec("10"),
		Active:      true,
	}}
	svc := testService(catalogFor(req), cv, &mockOrderRepo{})

	o, err := svc.Create(context.Background(), userCtx, req)
	require.NoError(t, err)

	assert.True(t, dec("25").Equal(o.DiscountAmount), "discount = %s", o.DiscountAmount)
	assert.True(t, dec("225").Equal(o.TotalAmount), "total = %s", o.TotalAmount)
	assert.Equal(t, "c1", o.CouponID)
}

func TestCreate_InvalidCoupon(t *testing.T) {
	req := validRequest()
	req.CouponID = "missing"

	cv := &mockCouponValidator{err: coupon.ErrNotFound}
	svc := testService(catalogFor(req), cv, &mockOrderRepo{})

	_, err := svc.Create(context.Background(), userCtx, req)
	require.ErrorIs(t, err, coupon.ErrNotFound)
}

func TestCreate_ClaimedTotalMismatchRejected(t *testing.T) {
	req := validRequest()
	claimed := dec("1.00")
	req.ClaimedTotal = &claimed

	svc := testService(catalogFor(req), &mockCouponValidator{}, &mockOrderRepo{})

	_, err := svc.Create(context.Background(), userCtx, req)

	var tmErr *TotalMismatchError
	require.ErrorAs(t, err, &tmErr)
	assert.Equal(t, "totalAmount", tmErr.Field)
}

func TestCreate_ClaimedTotalMatchAccepted(t *testing.T) {
	req := validRequest()
	claimedTotal := dec("250")
	claimedDiscount := decimal.Zero
	req.ClaimedTotal = &claimedTotal
	req.ClaimedDiscount = &claimedDiscount

	svc := testService(catalogFor(req), &mockCouponValidator{}, &mockOrderRepo{})

	_, err := svc.Create(context.Background(), userCtx, req)
	require.NoError(t, err)
}

func TestCreate_CouponExhausted(t *testing.T) {
	req := validRequest()
	req.CouponID = "c1"

	cv := &mockCouponValidator{coupon: &coupon.Coupon{
		ID: "c1", Code: "ONCE", DiscountPct: dec("10"), Active: true, UsageLimit: 1, UsageCount: 1,
	}}
	repo := &mockOrderRepo{createErr: coupon.ErrExhausted}
	svc := testService(catalogFor(req), cv, repo)

	_, err := svc.Create(context.Background(), userCtx, req)
	require.ErrorIs(t, err, coupon.ErrExhausted)
}

func TestCreate_PersistenceError(t *testing.T) {
	req := validRequest()
	repo := &mockOrderRepo{createErr: errors.New("db write failed")}
	svc := testService(catalogFor(req), &mockCouponValidator{}, repo)

	_, err := svc.Create(context.Background(), userCtx, req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create order")
}

// --- Get / List ---

func existingOrder() *Order {
	return &Order{
		ID:             "o1",
		UserID:         "u1",
		Status:         StatusPending,
		PaymentStatus:  PaymentPending,
		PaymentMethod:  "cod",
		TotalAmount:    dec("250"),
		DiscountAmount: decimal.Zero,
		Items: []Item{
			{ProductID: "p1", ProductName: "Widget", Price: dec("100"), Quantity: 2},
		},
	}
}

func TestGet_Owner(t *testing.T) {
	repo := &mockOrderRepo{byID: map[string]*Order{"o1": existingOrder()}}
	svc := testService(newProductRepo(), &mockCouponValidator{}, repo)

	o, err := svc.Get(context.Background(), userCtx, "o1")
	require.NoError(t, err)
	assert.Equal(t, "o1", o.ID)
}

func TestGet_Admin(t *testing.T) {
	repo := &mockOrderRepo{byID: map[string]*Order{"o1": existingOrder()}}
	svc := testService(newProductRepo(), &mockCouponValidator{}, repo)

	_, err := svc.Get(context.Background(), adminCtx, "o1")
	require.NoError(t, err)
}

func TestGet_OtherUserUnauthorized(t *testing.T) {
	repo := &mockOrderRepo{byID: map[string]*Order{"o1": existingOrder()}}
	svc := testService(newProductRepo(), &mockCouponValidator{}, repo)

	_, err := svc.Get(context.Background(), otherCtx, "o1")
	require.ErrorIs(t, err, auth.ErrUnauthorized)
}

func TestGet_Anonymous(t *testing.T) {
	svc := testService(newProductRepo(), &mockCouponValidator{}, &mockOrderRepo{})

	_, err := svc.Get(context.Background(), auth.Anonymous(), "o1")
	require.ErrorIs(t, err, auth.ErrUnauthenticated)
}

func TestGet_NotFound(t *testing.T) {
	svc := testService(newProductRepo(), &mockCouponValidator{}, &mockOrderRepo{})

	_, err := svc.Get(context.Background(), userCtx, "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestGet_Idempotent(t *testing.T) {
	repo := &mockOrderRepo{byID: map[string]*Order{"o1": existingOrder()}}
	svc := testService(newProductRepo(), &mockCouponValidator{}, repo)

	first, err := svc.Get(context.Background(), userCtx, "o1")
	require.NoError(t, err)
	second, err := svc.Get(context.Background(), userCtx, "o1")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestListForUser_OnlyOwnOrders(t *testing.T) {
	mine := existingOrder()
	theirs := existingOrder()
	theirs.ID = "o2"
	theirs.UserID = "u2"

	repo := &mockOrderRepo{byID: map[string]*Order{"o1": mine, "o2": theirs}}
	svc := testService(newProductRepo(), &mockCouponValidator{}, repo)

	orders, err := svc.ListForUser(context.Background(), userCtx)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "o1", orders[0].ID)
}

func TestListAll_AdminOnly(t *testing.T) {
	repo := &mockOrderRepo{byID: map[string]*Order{"o1": existingOrder()}}
	svc := testService(newProductRepo(), &mockCouponValidator{}, repo)

	_, err := svc.ListAll(context.Background(), userCtx)
	require.ErrorIs(t, err, auth.ErrUnauthorized)

	orders, err := svc.ListAll(context.Background(), adminCtx)
	require.NoError(t, err)
	assert.Len(t, orders, 1)
}

// --- UpdateStatus ---

func TestUpdateStatus_AdminAdvances(t *testing.T) {
	repo := &mockOrderRepo{byID: map[string]*Order{"o1": existingOrder()}}
	svc := testService(newProductRepo(), &mockCouponValidator{}, repo)

	o, err := svc.UpdateStatus(context.Background(), adminCtx, "o1", StatusProcessing)
	require.NoError(t, err)
	assert.Equal(t, StatusProcessing, o.Status)
	assert.Equal(t, "o1", repo.updatedID)
	assert.Equal(t, StatusProcessing, repo.updatedStatus)
}

func TestUpdateStatus_NonAdminRejectedAndUnchanged(t *testing.T) {
	repo := &mockOrderRepo{byID: map[string]*Order{"o1": existingOrder()}}
	svc := testService(newProductRepo(), &mockCouponValidator{}, repo)

	_, err := svc.UpdateStatus(context.Background(), userCtx, "o1", StatusProcessing)
	require.ErrorIs(t, err, auth.ErrUnauthorized)

	assert.Empty(t, repo.updatedID)
	assert.Equal(t, StatusPending, repo.byID["o1"].Status)
}

func TestUpdateStatus_UnknownTarget(t *testing.T) {
	repo := &mockOrderRepo{byID: map[string]*Order{"o1": existingOrder()}}
	svc := testService(newProductRepo(), &mockCouponValidator{}, repo)

	_, err := svc.UpdateStatus(context.Background(), adminCtx, "o1", Status("refunded"))
	require.ErrorIs(t, err, ErrInvalidStatus)
}

func TestUpdateStatus_IllegalTransition(t *testing.T) {
	o := existingOrder()
	o.Status = StatusDelivered
	repo := &mockOrderRepo{byID: map[string]*Order{"o1": o}}
	svc := testService(newProductRepo(), &mockCouponValidator{}, repo)

	_, err := svc.UpdateStatus(context.Background(), adminCtx, "o1", StatusCancelled)
	require.ErrorIs(t, err, ErrInvalidStatus)
	assert.Empty(t, repo.updatedID)
}

func TestUpdateStatus_OrderNotFound(t *testing.T) {
	svc := testService(newProductRepo(), &mockCouponValidator{}, &mockOrderRepo{})

	_, err := svc.UpdateStatus(context.Background(), adminCtx, "missing", StatusProcessing)
	require.ErrorIs(t, err, ErrNotFound)
}

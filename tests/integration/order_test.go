//go:build integration

package integration

import (
	"net/http"
	"regexp"
	"testing"
)

var uuidPattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// checkoutRequest builds a baseline single-mug checkout: subtotal 24.00,
// below the free-shipping threshold.
func checkoutRequest() orderRequest {
	return orderRequest{
		CartItems: []cartItemRequest{
			{ID: "prod-ceramic-mug", Name: "Ceramic Mug 350ml", Price: 12.00, Quantity: 2},
		},
		ShippingAddress: "12 Harbor Lane",
		ShippingCity:    "Pune",
		ShippingState:   "MH",
		ShippingPincode: "411001",
		ShippingPhone:   "9876543210",
		PaymentMethod:   "cod",
	}
}

func TestPlaceOrder_NoAuth(t *testing.T) {
	resp := doPost(t, "/api/orders", "", checkoutRequest())
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestPlaceOrder_EmptyCart(t *testing.T) {
	req := checkoutRequest()
	req.CartItems = nil

	resp := doPost(t, "/api/orders", customerToken, req)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestPlaceOrder_UnknownProduct(t *testing.T) {
	req := checkoutRequest()
	req.CartItems = []cartItemRequest{{ID: "prod-ghost", Name: "Ghost", Price: 1, Quantity: 1}}

	resp := doPost(t, "/api/orders", customerToken, req)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestPlaceOrder_BelowThreshold(t *testing.T) {
	resp := doPost(t, "/api/orders", customerToken, checkoutRequest())
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	order := decodeJSON[orderResponse](t, resp)
	// 24.00 subtotal + 5.00 shipping.
	if order.TotalAmount != 29 {
		t.Errorf("total: got %v, want 29", order.TotalAmount)
	}
	if order.Status != "pending" {
		t.Errorf("status: got %q, want pending", order.Status)
	}
	if order.PaymentStatus != "pending" {
		t.Errorf("payment status: got %q, want pending", order.PaymentStatus)
	}
	if !uuidPattern.MatchString(order.ID) {
		t.Errorf("order ID %q is not a valid UUID", order.ID)
	}
	if want := "#" + order.ID[len(order.ID)-5:]; order.DisplayID != want {
		t.Errorf("display id: got %q, want %q", order.DisplayID, want)
	}
}

func TestPlaceOrder_FreeShipping(t *testing.T) {
	req := checkoutRequest()
	req.CartItems = []cartItemRequest{
		{ID: "prod-burr-grinder", Name: "Conical Burr Grinder", Price: 149.00, Quantity: 1},
	}

	resp := doPost(t, "/api/orders", customerToken, req)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	order := decodeJSON[orderResponse](t, resp)
	if order.TotalAmount != 149 {
		t.Errorf("total: got %v, want 149", order.TotalAmount)
	}
}

func TestPlaceOrder_WithCoupon(t *testing.T) {
	// Validate the code first to learn its id, as the storefront client does.
	resp := doPost(t, "/api/coupons/validate", "", map[string]string{"code": "WELCOME10"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("validate: expected 200, got %d", resp.StatusCode)
	}
	coupon := decodeJSON[couponResponse](t, resp)
	resp.Body.Close()

	req := checkoutRequest()
	req.CartItems = []cartItemRequest{
		{ID: "prod-burr-grinder", Name: "Conical Burr Grinder", Price: 149.00, Quantity: 1},
	}
	req.CouponID = coupon.ID

	resp = doPost(t, "/api/orders", customerToken, req)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	order := decodeJSON[orderResponse](t, resp)
	// 149.00 * 10% = 14.90 off, free shipping.
	if order.DiscountAmount != 14.9 {
		t.Errorf("discount: got %v, want 14.9", order.DiscountAmount)
	}
	if order.TotalAmount != 134.1 {
		t.Errorf("total: got %v, want 134.1", order.TotalAmount)
	}
	if order.CouponID != coupon.ID {
		t.Errorf("coupon id: got %q, want %q", order.CouponID, coupon.ID)
	}
}

func TestPlaceOrder_TamperedTotal(t *testing.T) {
	req := checkoutRequest()
	claimed := 1.0
	req.TotalAmount = &claimed

	resp := doPost(t, "/api/orders", customerToken, req)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	body := decodeJSON[errorResponse](t, resp)
	if body.Field != "totalAmount" {
		t.Errorf("field: got %q, want totalAmount", body.Field)
	}
}

func TestOrderAccess(t *testing.T) {
	resp := doPost(t, "/api/orders", customerToken, checkoutRequest())
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d", resp.StatusCode)
	}
	created := decodeJSON[orderResponse](t, resp)
	resp.Body.Close()

	t.Run("owner reads own order", func(t *testing.T) {
		resp := doGet(t, "/api/orders/"+created.ID, customerToken)
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
	})

	t.Run("admin reads any order", func(t *testing.T) {
		resp := doGet(t, "/api/orders/"+created.ID, adminToken)
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
	})

	t.Run("anonymous is refused", func(t *testing.T) {
		resp := doGet(t, "/api/orders/"+created.ID, "")
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", resp.StatusCode)
		}
	})

	t.Run("owner history includes order", func(t *testing.T) {
		resp := doGet(t, "/api/orders/user", customerToken)
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}

		orders := decodeJSON[[]orderResponse](t, resp)
		found := false
		for _, o := range orders {
			if o.ID == created.ID {
				found = true
			}
		}
		if !found {
			t.Errorf("order %s missing from history", created.ID)
		}
	})

	t.Run("admin board requires admin", func(t *testing.T) {
		resp := doGet(t, "/api/orders/admin", customerToken)
		resp.Body.Close()
		if resp.StatusCode != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", resp.StatusCode)
		}

		resp = doGet(t, "/api/orders/admin", adminToken)
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
	})
}

func TestOrderStatusFlow(t *testing.T) {
	resp := doPost(t, "/api/orders", customerToken, checkoutRequest())
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d", resp.StatusCode)
	}
	created := decodeJSON[orderResponse](t, resp)
	resp.Body.Close()

	statusPath := "/api/orders/" + created.ID + "/status"

	t.Run("customer cannot change status", func(t *testing.T) {
		resp := doPut(t, statusPath, customerToken, map[string]string{"status": "processing"})
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", resp.StatusCode)
		}
	})

	t.Run("skipping a stage is rejected", func(t *testing.T) {
		resp := doPut(t, statusPath, adminToken, map[string]string{"status": "delivered"})
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", resp.StatusCode)
		}
	})

	t.Run("admin walks the full flow", func(t *testing.T) {
		for _, status := range []string{"processing", "shipped", "delivered"} {
			resp := doPut(t, statusPath, adminToken, map[string]string{"status": status})
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("advance to %s: expected 200, got %d", status, resp.StatusCode)
			}
			got := decodeJSON[orderResponse](t, resp)
			resp.Body.Close()
			if got.Status != status {
				t.Fatalf("status: got %q, want %q", got.Status, status)
			}
		}
	})

	t.Run("terminal order rejects further moves", func(t *testing.T) {
		resp := doPut(t, statusPath, adminToken, map[string]string{"status": "cancelled"})
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", resp.StatusCode)
		}
	})
}

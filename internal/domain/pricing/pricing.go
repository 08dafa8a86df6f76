// Package pricing computes checkout totals. All functions are pure: a quote
// depends only on the cart snapshot, the optional coupon, and the configured
// shipping constants.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/coupon"
)

var hundred = decimal.NewFromInt(100)

// Config holds the single threshold/fee pair used for shipping. The pair is
// configured once and shared by every call site.
type Config struct {
	// FreeShippingThreshold is the subtotal at or above which shipping is free.
	FreeShippingThreshold decimal.Decimal
	// StandardShippingFee is the flat fee charged below the threshold.
	StandardShippingFee decimal.Decimal
}

// DefaultConfig matches the storefront defaults: free shipping from 50,
// otherwise a flat fee of 5.
func DefaultConfig() Config {
	return Config{
		FreeShippingThreshold: decimal.NewFromInt(50),
		StandardShippingFee:   decimal.NewFromInt(5),
	}
}

// Item is one cart line for quote purposes.
type Item struct {
	Price    decimal.Decimal
	Quantity int
}

// Quote is the complete price breakdown for a cart.
type Quote struct {
	Subtotal decimal.Decimal
	Shipping decimal.Decimal
	Discount decimal.Decimal
	Total    decimal.Decimal
}

// Calculate derives the quote for the given items and optional coupon.
// Amounts are rounded to 2 decimal places, half away from zero. The discount
// applies to the subtotal only, never to shipping, and is capped at the
// subtotal. The total is floored at zero. A nil coupon yields zero discount.
func Calculate(cfg Config, items []Item, c *coupon.Coupon) Quote {
	subtotal := decimal.Zero
	for _, item := range items {
		line := item.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		subtotal = subtotal.Add(line)
	}
	subtotal = subtotal.Round(2)

	shipping := cfg.StandardShippingFee
	if subtotal.GreaterThanOrEqual(cfg.FreeShippingThreshold) {
		shipping = decimal.Zero
	}

	discount := decimal.Zero
	if c != nil {
		discount = subtotal.Mul(c.DiscountPct).Div(hundred).Round(2)
		if discount.GreaterThan(subtotal) {
			discount = subtotal
		}
	}

	total := subtotal.Add(shipping).Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	return Quote{
		Subtotal: subtotal,
		Shipping: shipping,
		Discount: discount,
		Total:    total,
	}
}

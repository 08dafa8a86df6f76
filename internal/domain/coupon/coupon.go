package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when a coupon code does not exist, is inactive,
	// or has expired. The three cases are deliberately indistinguishable to
	// the caller.
	ErrNotFound = errors.New("invalid or expired coupon code")
	// ErrExhausted is returned when a coupon's usage limit has been reached.
	ErrExhausted = errors.New("coupon usage limit reached")
	// ErrDuplicateCode is returned when creating or renaming a coupon would
	// collide with an existing code.
	ErrDuplicateCode = errors.New("coupon code already exists")
)

// Coupon is a named percentage discount with an activity flag, an optional
// expiration, and an optional usage cap.
type Coupon struct {
	ID          string
	Code        string
	DiscountPct decimal.Decimal
	ExpiresAt   *time.Time
	Active      bool
	UsageLimit  int
	UsageCount  int
	CreatedAt   time.Time
}

// Redeemable reports whether the coupon may be applied at the given instant:
// it must be active and either have no expiration or expire strictly after now.
func (c *Coupon) Redeemable(now time.Time) bool {
	if !c.Active {
		return false
	}
	return c.ExpiresAt == nil || c.ExpiresAt.After(now)
}

// ListView selects which coupons a listing returns.
type ListView int

const (
	// ViewRedeemable returns only coupons currently redeemable by customers.
	ViewRedeemable ListView = iota
	// ViewAll returns every coupon regardless of validity. Admin only.
	ViewAll
)

// Repository provides lookup and mutation of coupons.
type Repository interface {
	FindByCode(ctx context.Context, code string) (*Coupon, error)
	FindByID(ctx context.Context, id string) (*Coupon, error)
	List(ctx context.Context, view ListView) ([]Coupon, error)
	Create(ctx context.Context, c *Coupon) error
	Update(ctx context.Context, c *Coupon) error
}

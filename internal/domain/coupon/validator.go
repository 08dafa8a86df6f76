package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// Validator checks a coupon reference and returns the coupon when it is
// redeemable. Both lookups apply the same redeemability rule.
type Validator interface {
	Validate(ctx context.Context, code string) (*Coupon, error)
	ValidateByID(ctx context.Context, id string) (*Coupon, error)
}

// RepoValidator implements Validator by looking up coupons in a Repository.
// Validation is read-only; redemption counting happens at order creation.
type RepoValidator struct {
	repo Repository
	now  func() time.Time
}

// NewRepoValidator creates a RepoValidator backed by the given Repository.
func NewRepoValidator(repo Repository) *RepoValidator {
	return &RepoValidator{repo: repo, now: time.Now}
}

// Validate looks up the coupon for the given code and checks that it is
// active and unexpired. Missing, inactive, and expired codes all map to
// ErrNotFound.
func (v *RepoValidator) Validate(ctx context.Context, code string) (*Coupon, error) {
	return v.check(v.repo.FindByCode(ctx, code))
}

// ValidateByID is Validate keyed by coupon identifier, used at checkout where
// the client references the coupon it already validated by code.
func (v *RepoValidator) ValidateByID(ctx context.Context, id string) (*Coupon, error) {
	return v.check(v.repo.FindByID(ctx, id))
}

func (v *RepoValidator) check(c *Coupon, err error) (*Coupon, error) {
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "lookup coupon")
	}

	if !c.Redeemable(v.now()) {
		return nil, ErrNotFound
	}

	return c, nil
}

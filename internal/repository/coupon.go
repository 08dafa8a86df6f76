package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/coupon"
)

const (
	couponColumns = `id, code, discount_pct, expires_at, active, usage_limit, usage_count, created_at`

	// Codes are case-sensitive; the lookup matches exactly.
	getCouponByCodeSQL = `SELECT ` + couponColumns + ` FROM coupons WHERE code = $1`
	getCouponByIDSQL   = `SELECT ` + couponColumns + ` FROM coupons WHERE id = $1`

	listAllCouponsSQL = `SELECT ` + couponColumns + ` FROM coupons ORDER BY created_at DESC`

	listRedeemableCouponsSQL = `SELECT ` + couponColumns + ` FROM coupons
		WHERE active = TRUE AND (expires_at IS NULL OR expires_at > now())
		ORDER BY created_at DESC`

	createCouponSQL = `INSERT INTO coupons (id, code, discount_pct, expires_at, active, usage_limit)
		VALUES ($1, $2, $3, $4, $5, $6)`

	updateCouponSQL = `UPDATE coupons
		SET code = $2, discount_pct = $3, expires_at = $4, active = $5, usage_limit = $6
		WHERE id = $1`

	// The sole redemption-counting statement. The WHERE clause is the atomic
	// guard against overspending a limited coupon: zero rows affected means
	// the limit was already reached.
	redeemCouponSQL = `UPDATE coupons SET usage_count = usage_count + 1
		WHERE id = $1 AND (usage_limit = 0 OR usage_count < usage_limit)`
)

var _ coupon.Repository = (*CouponRepository)(nil)

// CouponRepository implements coupon.Repository backed by PostgreSQL.
type CouponRepository struct {
	pool *pgxpool.Pool
}

// NewCouponRepository returns a CouponRepository that uses the given pool.
func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// FindByCode looks up a coupon by its exact code.
// Returns coupon.ErrNotFound when no such coupon exists.
func (r *CouponRepository) FindByCode(ctx context.Context, code string) (*coupon.Coupon, error) {
	return r.findOne(ctx, getCouponByCodeSQL, code)
}

// FindByID looks up a coupon by its identifier.
// Returns coupon.ErrNotFound when no such coupon exists.
func (r *CouponRepository) FindByID(ctx context.Context, id string) (*coupon.Coupon, error) {
	return r.findOne(ctx, getCouponByIDSQL, id)
}

func (r *CouponRepository) findOne(ctx context.Context, sql, arg string) (*coupon.Coupon, error) {
	rows, err := r.pool.Query(ctx, sql, arg)
	if err != nil {
		return nil, fmt.Errorf("finding coupon %q: %w", arg, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCoupon)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coupon.ErrNotFound
		}
		return nil, fmt.Errorf("finding coupon %q: %w", arg, err)
	}
	return &c, nil
}

// List returns coupons for the given view: every coupon for ViewAll, only
// currently-redeemable ones otherwise. Both views read the same table.
func (r *CouponRepository) List(ctx context.Context, view coupon.ListView) ([]coupon.Coupon, error) {
	sql := listRedeemableCouponsSQL
	if view == coupon.ViewAll {
		sql = listAllCouponsSQL
	}

	rows, err := r.pool.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("listing coupons: %w", err)
	}
	return pgx.CollectRows(rows, scanCoupon)
}

// Create persists a new coupon. A code collision with an existing coupon
// maps to coupon.ErrDuplicateCode.
func (r *CouponRepository) Create(ctx context.Context, c *coupon.Coupon) error {
	_, err := r.pool.Exec(ctx, createCouponSQL,
		c.ID, c.Code, c.DiscountPct, c.ExpiresAt, c.Active, c.UsageLimit,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return coupon.ErrDuplicateCode
		}
		return fmt.Errorf("creating coupon %q: %w", c.Code, err)
	}
	return nil
}

// Update rewrites a coupon's mutable fields. The usage counter is not
// touched; redemption counting goes through the order-creation transaction.
func (r *CouponRepository) Update(ctx context.Context, c *coupon.Coupon) error {
	tag, err := r.pool.Exec(ctx, updateCouponSQL,
		c.ID, c.Code, c.DiscountPct, c.ExpiresAt, c.Active, c.UsageLimit,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return coupon.ErrDuplicateCode
		}
		return fmt.Errorf("updating coupon %q: %w", c.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return coupon.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

func scanCoupon(row pgx.CollectableRow) (coupon.Coupon, error) {
	var (
		c          coupon.Coupon
		pct        decimal.Decimal
		expiresAt  *time.Time
		usageLimit int32
		usageCount int32
	)
	err := row.Scan(
		&c.ID, &c.Code, &pct, &expiresAt, &c.Active,
		&usageLimit, &usageCount, &c.CreatedAt,
	)
	c.DiscountPct = pct
	c.ExpiresAt = expiresAt
	c.UsageLimit = int(usageLimit)
	c.UsageCount = int(usageCount)
	return c, err
}

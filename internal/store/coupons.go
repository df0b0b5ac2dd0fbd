package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nazeru/storefront-api/internal/domain"
)

type Coupons struct {
	pool *pgxpool.Pool
}

const couponCols = `id, code, type, value, max_discount, min_order_amount, usage_limit, used_count, valid_from, valid_to, is_active, created_at`

func scanCoupon(row pgx.Row) (*domain.Coupon, error) {
	var c domain.Coupon
	err := row.Scan(&c.ID, &c.Code, &c.Type, &c.Value, &c.MaxDiscount, &c.MinOrderAmount,
		&c.UsageLimit, &c.UsedCount, &c.ValidFrom, &c.ValidTo, &c.IsActive, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrCouponNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *Coupons) Create(ctx context.Context, c *domain.Coupon) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.Code = strings.ToUpper(strings.TrimSpace(c.Code))
	c.CreatedAt = time.Now().UTC()
	_, err := r.pool.Exec(ctx,
		`INSERT INTO coupons(id, code, type, value, max_discount, min_order_amount, usage_limit, valid_from, valid_to, is_active, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		c.ID, c.Code, c.Type, c.Value, c.MaxDiscount, c.MinOrderAmount, c.UsageLimit,
		c.ValidFrom, c.ValidTo, c.IsActive, c.CreatedAt)
	if isUniqueViolation(err) {
		return domain.ErrCouponCodeTaken
	}
	return err
}

func (r *Coupons) GetByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	return scanCoupon(r.pool.QueryRow(ctx, `SELECT `+couponCols+` FROM coupons WHERE code=$1`, code))
}

func (r *Coupons) List(ctx context.Context) ([]domain.Coupon, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+couponCols+` FROM coupons ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Coupon
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// IncrementUsage is the serialization point for coupon application: the
// usage-limit check and the counter increment happen in one conditional
// UPDATE, so two concurrent applies of a nearly exhausted coupon cannot both
// pass.
func (r *Coupons) IncrementUsage(ctx context.Context, code string) error {
	code = strings.ToUpper(strings.TrimSpace(code))
	ct, err := r.pool.Exec(ctx,
		`UPDATE coupons SET used_count = used_count + 1
		 WHERE code = $1 AND is_active AND now() BETWEEN valid_from AND valid_to
		   AND (usage_limit IS NULL OR used_count < usage_limit)`, code)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		// Distinguish an exhausted limit from a missing or expired coupon.
		c, gerr := r.GetByCode(ctx, code)
		if gerr != nil {
			return domain.ErrCouponInvalid
		}
		if uerr := c.UsableAt(time.Now().UTC()); uerr != nil {
			return uerr
		}
		return domain.ErrCouponInvalid
	}
	return nil
}

func (r *Coupons) Deactivate(ctx context.Context, code string) error {
	code = strings.ToUpper(strings.TrimSpace(code))
	ct, err := r.pool.Exec(ctx, `UPDATE coupons SET is_active=false WHERE code=$1`, code)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrCouponNotFound
	}
	return nil
}

// DeactivateExpired is run nightly by the maintenance schedule.
func (r *Coupons) DeactivateExpired(ctx context.Context) (int, error) {
	ct, err := r.pool.Exec(ctx, `UPDATE coupons SET is_active=false WHERE is_active AND valid_to < now()`)
	if err != nil {
		return 0, err
	}
	return int(ct.RowsAffected()), nil
}

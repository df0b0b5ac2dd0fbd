package service

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nazeru/storefront-api/internal/domain"
	"github.com/nazeru/storefront-api/internal/pricing"
	"github.com/nazeru/storefront-api/pkg/logging"
)

type CouponStore interface {
	Create(ctx context.Context, c *domain.Coupon) error
	GetByCode(ctx context.Context, code string) (*domain.Coupon, error)
	List(ctx context.Context) ([]domain.Coupon, error)
	IncrementUsage(ctx context.Context, code string) error
	Deactivate(ctx context.Context, code string) error
}

type Coupons struct {
	store CouponStore
	now   func() time.Time
}

func NewCoupons(s CouponStore) *Coupons {
	return &Coupons{store: s, now: time.Now}
}

type CouponResult struct {
	Code        string          `json:"code"`
	Discount    decimal.Decimal `json:"discount"`
	FinalAmount decimal.Decimal `json:"final_amount"`
}

// Validate checks a code against an order amount without consuming a use.
func (s *Coupons) Validate(ctx context.Context, code string, amount decimal.Decimal) (*CouponResult, error) {
	c, err := s.store.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, domain.ErrCouponNotFound) {
			return nil, domain.ErrCouponInvalid
		}
		return nil, err
	}
	if err := c.UsableAt(s.now().UTC()); err != nil {
		return nil, err
	}
	if amount.LessThan(c.MinOrderAmount) {
		return nil, domain.ErrCouponBelowMinimum
	}

	discount := pricing.Discount(c, amount)
	return &CouponResult{Code: c.Code, Discount: discount, FinalAmount: amount.Sub(discount).Round(2)}, nil
}

// Apply validates and then consumes one use. The usage-limit check and the
// counter increment are a single conditional update in the store, so
// concurrent applies of the last remaining use cannot both succeed.
func (s *Coupons) Apply(ctx context.Context, code string, amount decimal.Decimal) (*CouponResult, error) {
	res, err := s.Validate(ctx, code, amount)
	if err != nil {
		return nil, err
	}
	if err := s.store.IncrementUsage(ctx, code); err != nil {
		return nil, err
	}
	logging.Log(logging.Fields{Service: "coupons", Step: "apply", Status: "applied", Message: res.Code})
	return res, nil
}

func (s *Coupons) Create(ctx context.Context, c *domain.Coupon) error {
	if err := c.Validate(); err != nil {
		return err
	}
	return s.store.Create(ctx, c)
}

func (s *Coupons) List(ctx context.Context) ([]domain.Coupon, error) {
	return s.store.List(ctx)
}

func (s *Coupons) Deactivate(ctx context.Context, code string) error {
	return s.store.Deactivate(ctx, code)
}

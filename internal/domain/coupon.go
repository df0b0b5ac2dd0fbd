package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

func ParseDiscountType(s string) (DiscountType, bool) {
	t := DiscountType(strings.ToLower(strings.TrimSpace(s)))
	switch t {
	case DiscountPercentage, DiscountFixed:
		return t, true
	}
	return "", false
}

type Coupon struct {
	ID             string          `json:"id"`
	Code           string          `json:"code"`
	Type           DiscountType    `json:"type"`
	Value          decimal.Decimal `json:"value"`
	MaxDiscount    decimal.Decimal `json:"max_discount"`     // zero means uncapped
	MinOrderAmount decimal.Decimal `json:"min_order_amount"`
	UsageLimit     *int            `json:"usage_limit,omitempty"`
	UsedCount      int             `json:"used_count"`
	ValidFrom      time.Time       `json:"valid_from"`
	ValidTo        time.Time       `json:"valid_to"`
	IsActive       bool            `json:"is_active"`
	CreatedAt      time.Time       `json:"created_at"`
}

// UsableAt checks activity, validity window and usage limit.
func (c *Coupon) UsableAt(now time.Time) error {
	if !c.IsActive || now.Before(c.ValidFrom) || now.After(c.ValidTo) {
		return ErrCouponInvalid
	}
	if c.UsageLimit != nil && c.UsedCount >= *c.UsageLimit {
		return ErrCouponLimitExceeded
	}
	return nil
}

func (c *Coupon) Validate() error {
	if strings.TrimSpace(c.Code) == "" {
		return Invalid("code", "is required")
	}
	if _, ok := ParseDiscountType(string(c.Type)); !ok {
		return Invalid("type", "must be percentage or fixed")
	}
	if !c.Value.IsPositive() {
		return Invalid("value", "must be positive")
	}
	if c.ValidTo.Before(c.ValidFrom) {
		return Invalid("valid_to", "must not precede valid_from")
	}
	if c.UsageLimit != nil && *c.UsageLimit <= 0 {
		return Invalid("usage_limit", "must be positive when set")
	}
	return nil
}

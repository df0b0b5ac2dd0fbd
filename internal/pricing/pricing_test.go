package pricing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nazeru/storefront-api/internal/domain"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestComputeWorkedExample(t *testing.T) {
	// 3 × 100 → subtotal 300, shipping 50, tax 54, total 404.
	q := Compute([]Line{{Price: dec("100"), Quantity: 3}})

	assert.True(t, q.Subtotal.Equal(dec("300")), "subtotal %s", q.Subtotal)
	assert.True(t, q.ShippingPrice.Equal(dec("50")), "shipping %s", q.ShippingPrice)
	assert.True(t, q.TaxPrice.Equal(dec("54")), "tax %s", q.TaxPrice)
	assert.True(t, q.Total.Equal(dec("404")), "total %s", q.Total)
}

func TestComputeShippingThreshold(t *testing.T) {
	// Free shipping is strictly above 500.
	at := Compute([]Line{{Price: dec("500"), Quantity: 1}})
	assert.True(t, at.ShippingPrice.Equal(dec("50")))

	over := Compute([]Line{{Price: dec("501"), Quantity: 1}})
	assert.True(t, over.ShippingPrice.Equal(dec("0")))
}

func TestComputeTotalInvariant(t *testing.T) {
	cases := [][]Line{
		{},
		{{Price: dec("0.01"), Quantity: 1}},
		{{Price: dec("19.99"), Quantity: 3}, {Price: dec("249.50"), Quantity: 2}},
		{{Price: dec("1234.56"), Quantity: 1}},
	}
	for _, lines := range cases {
		q := Compute(lines)
		want := q.Subtotal.Add(q.ShippingPrice).Add(q.TaxPrice).Round(2)
		require.True(t, q.Total.Equal(want), "total %s != %s", q.Total, want)
	}
}

func TestComputeRoundsTax(t *testing.T) {
	// 33.33 × 0.18 = 5.9994 → 6.00
	q := Compute([]Line{{Price: dec("33.33"), Quantity: 1}})
	assert.True(t, q.TaxPrice.Equal(dec("6")), "tax %s", q.TaxPrice)
}

func TestDiscountPercentage(t *testing.T) {
	c := &domain.Coupon{Type: domain.DiscountPercentage, Value: dec("10")}
	assert.True(t, Discount(c, dec("300")).Equal(dec("30")))
}

func TestDiscountPercentageCapped(t *testing.T) {
	c := &domain.Coupon{Type: domain.DiscountPercentage, Value: dec("50"), MaxDiscount: dec("100")}
	assert.True(t, Discount(c, dec("1000")).Equal(dec("100")))
}

func TestDiscountFixed(t *testing.T) {
	c := &domain.Coupon{Type: domain.DiscountFixed, Value: dec("75")}
	assert.True(t, Discount(c, dec("300")).Equal(dec("75")))
	// Never exceeds the amount itself.
	assert.True(t, Discount(c, dec("40")).Equal(dec("40")))
}

func TestCouponUsableAt(t *testing.T) {
	now := time.Now()
	limit := 2
	c := &domain.Coupon{
		IsActive:   true,
		ValidFrom:  now.Add(-time.Hour),
		ValidTo:    now.Add(time.Hour),
		UsageLimit: &limit,
		UsedCount:  1,
	}
	require.NoError(t, c.UsableAt(now))

	c.UsedCount = 2
	assert.ErrorIs(t, c.UsableAt(now), domain.ErrCouponLimitExceeded)

	c.UsedCount = 0
	c.IsActive = false
	assert.ErrorIs(t, c.UsableAt(now), domain.ErrCouponInvalid)

	c.IsActive = true
	assert.ErrorIs(t, c.UsableAt(now.Add(2*time.Hour)), domain.ErrCouponInvalid)
}

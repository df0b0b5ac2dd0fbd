// Package pricing holds the one checkout formula. Cart previews and order
// creation must price identically, so both call into here.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/nazeru/storefront-api/internal/domain"
)

var (
	freeShippingOver = decimal.NewFromInt(500)
	flatShipping     = decimal.NewFromInt(50)
	taxRate          = decimal.RequireFromString("0.18")
)

type Line struct {
	Price    decimal.Decimal
	Quantity int
}

type Quote struct {
	Subtotal      decimal.Decimal `json:"subtotal"`
	ShippingPrice decimal.Decimal `json:"shipping_price"`
	TaxPrice      decimal.Decimal `json:"tax_price"`
	Total         decimal.Decimal `json:"total"`
}

// Compute prices a set of lines: subtotal, flat 50 shipping waived strictly
// above 500, 18% tax, all rounded to 2 decimal places.
func Compute(lines []Line) Quote {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	subtotal = subtotal.Round(2)

	shipping := flatShipping
	if subtotal.GreaterThan(freeShippingOver) {
		shipping = decimal.Zero
	}
	tax := subtotal.Mul(taxRate).Round(2)
	total := subtotal.Add(shipping).Add(tax).Round(2)

	return Quote{Subtotal: subtotal, ShippingPrice: shipping, TaxPrice: tax, Total: total}
}

// Discount computes the coupon discount for an order amount. Percentage
// coupons are clamped to MaxDiscount when set; fixed coupons never exceed the
// amount itself. Eligibility (window, limit, minimum) is checked elsewhere.
func Discount(c *domain.Coupon, amount decimal.Decimal) decimal.Decimal {
	switch c.Type {
	case domain.DiscountPercentage:
		d := amount.Mul(c.Value).Div(decimal.NewFromInt(100)).Round(2)
		if c.MaxDiscount.IsPositive() && d.GreaterThan(c.MaxDiscount) {
			d = c.MaxDiscount
		}
		return d
	case domain.DiscountFixed:
		if c.Value.GreaterThan(amount) {
			return amount
		}
		return c.Value
	}
	return decimal.Zero
}

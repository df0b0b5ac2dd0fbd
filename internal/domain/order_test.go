package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to OrderStatus
		ok       bool
	}{
		{OrderPending, OrderProcessing, true},
		{OrderPending, OrderPaid, true},
		{OrderPending, OrderCancelled, true},
		{OrderPending, OrderDelivered, false},
		{OrderProcessing, OrderShipped, true},
		{OrderPaid, OrderShipped, true},
		{OrderPaid, OrderCancelled, true},
		{OrderShipped, OrderDelivered, true},
		{OrderShipped, OrderCancelled, false},
		{OrderDelivered, OrderCancelled, false},
		{OrderCancelled, OrderPending, false},
		{OrderCancelled, OrderCancelled, false},
	}
	for _, c := range cases {
		assert.Equal(t, c.ok, c.from.CanTransition(c.to), "%s -> %s", c.from, c.to)
	}
}

func TestOrderStatusTerminal(t *testing.T) {
	assert.True(t, OrderDelivered.Terminal())
	assert.True(t, OrderCancelled.Terminal())
	assert.False(t, OrderShipped.Terminal())
}

func TestParseOrderStatus(t *testing.T) {
	st, ok := ParseOrderStatus("shipped")
	assert.True(t, ok)
	assert.Equal(t, OrderShipped, st)

	_, ok = ParseOrderStatus("Refunded")
	assert.False(t, ok)
}

func TestParsePaymentMethod(t *testing.T) {
	m, ok := ParsePaymentMethod("")
	assert.True(t, ok)
	assert.Equal(t, PaymentCOD, m)

	m, ok = ParsePaymentMethod("UPI")
	assert.True(t, ok)
	assert.Equal(t, PaymentUPI, m)

	_, ok = ParsePaymentMethod("bitcoin")
	assert.False(t, ok)
}

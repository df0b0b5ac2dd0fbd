package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nazeru/storefront-api/internal/domain"
	"github.com/nazeru/storefront-api/internal/pricing"
)

type fakeCartStore struct {
	carts map[string]*domain.Cart // by userID
}

func newCartFixture(products ...*domain.Product) (*Cart, *fakeProducts, *fakeCartStore) {
	fp := &fakeProducts{byID: map[string]*domain.Product{}}
	for _, p := range products {
		fp.byID[p.ID] = p
	}
	fs := &fakeCartStore{carts: map[string]*domain.Cart{}}
	return NewCart(fs, fp), fp, fs
}

func (f *fakeCartStore) GetOrCreate(_ context.Context, userID string) (*domain.Cart, error) {
	if c, ok := f.carts[userID]; ok {
		cp := *c
		cp.Items = append([]domain.CartItem(nil), c.Items...)
		return &cp, nil
	}
	c := &domain.Cart{ID: "cart-" + userID, UserID: userID}
	f.carts[userID] = c
	cp := *c
	return &cp, nil
}

func (f *fakeCartStore) byCartID(cartID string) *domain.Cart {
	for _, c := range f.carts {
		if c.ID == cartID {
			return c
		}
	}
	return nil
}

func (f *fakeCartStore) UpsertItem(_ context.Context, cartID string, it domain.CartItem) error {
	c := f.byCartID(cartID)
	if c == nil {
		return domain.ErrCartNotFound
	}
	for i := range c.Items {
		if c.Items[i].ProductID == it.ProductID {
			c.Items[i] = it
			return nil
		}
	}
	c.Items = append(c.Items, it)
	return nil
}

func (f *fakeCartStore) SetQuantity(_ context.Context, cartID, productID string, quantity int) error {
	c := f.byCartID(cartID)
	if c == nil {
		return domain.ErrCartNotFound
	}
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity = quantity
			return nil
		}
	}
	return domain.ErrCartItemNotFound
}

func (f *fakeCartStore) RemoveItem(_ context.Context, cartID, productID string) error {
	c := f.byCartID(cartID)
	if c == nil {
		return domain.ErrCartNotFound
	}
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return nil
		}
	}
	return domain.ErrCartItemNotFound
}

func (f *fakeCartStore) Clear(_ context.Context, cartID string) error {
	if c := f.byCartID(cartID); c != nil {
		c.Items = nil
	}
	return nil
}

func TestAddItemMergesAndClampsToStock(t *testing.T) {
	svc, _, _ := newCartFixture(&domain.Product{ID: "p1", Name: "Widget", Price: dec("100"), Stock: 5})
	ident := domain.Identity{UserID: "u1"}

	v, err := svc.AddItem(context.Background(), ident, "p1", 3)
	require.NoError(t, err)
	require.Len(t, v.Items, 1)
	assert.Equal(t, 3, v.Items[0].Quantity)

	// 3 + 4 exceeds stock 5 → clamp.
	v, err = svc.AddItem(context.Background(), ident, "p1", 4)
	require.NoError(t, err)
	require.Len(t, v.Items, 1)
	assert.Equal(t, 5, v.Items[0].Quantity)
}

func TestAddItemMissingProduct(t *testing.T) {
	svc, _, _ := newCartFixture()
	_, err := svc.AddItem(context.Background(), domain.Identity{UserID: "u1"}, "ghost", 1)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestUpdateItemClampsToSnapshotNotLiveStock(t *testing.T) {
	svc, fp, _ := newCartFixture(&domain.Product{ID: "p1", Price: dec("10"), Stock: 8})
	ident := domain.Identity{UserID: "u1"}

	_, err := svc.AddItem(context.Background(), ident, "p1", 2)
	require.NoError(t, err)

	// Live stock drops after the snapshot was taken.
	fp.byID["p1"].Stock = 1

	v, err := svc.UpdateItem(context.Background(), ident, "p1", 6)
	require.NoError(t, err)
	// Clamped against the stored snapshot (8), not live stock (1).
	assert.Equal(t, 6, v.Items[0].Quantity)

	v, err = svc.UpdateItem(context.Background(), ident, "p1", 20)
	require.NoError(t, err)
	assert.Equal(t, 8, v.Items[0].Quantity)
}

func TestUpdateItemZeroRemovesLine(t *testing.T) {
	svc, _, _ := newCartFixture(&domain.Product{ID: "p1", Price: dec("10"), Stock: 8})
	ident := domain.Identity{UserID: "u1"}

	_, err := svc.AddItem(context.Background(), ident, "p1", 2)
	require.NoError(t, err)

	v, err := svc.UpdateItem(context.Background(), ident, "p1", 0)
	require.NoError(t, err)
	assert.Empty(t, v.Items)

	_, err = svc.UpdateItem(context.Background(), ident, "ghost", 1)
	assert.ErrorIs(t, err, domain.ErrCartItemNotFound)
}

func TestCartTotalsMatchOrderPricing(t *testing.T) {
	svc, _, _ := newCartFixture(&domain.Product{ID: "p1", Price: dec("100"), Stock: 10})
	ident := domain.Identity{UserID: "u1"}

	v, err := svc.AddItem(context.Background(), ident, "p1", 3)
	require.NoError(t, err)

	want := pricing.Compute([]pricing.Line{{Price: dec("100"), Quantity: 3}})
	assert.True(t, v.Subtotal.Equal(want.Subtotal))
	assert.True(t, v.ShippingPrice.Equal(want.ShippingPrice))
	assert.True(t, v.TaxPrice.Equal(want.TaxPrice))
	assert.True(t, v.Total.Equal(want.Total))
	assert.True(t, v.Total.Equal(dec("404")))
}

func TestClearCart(t *testing.T) {
	svc, _, fs := newCartFixture(&domain.Product{ID: "p1", Price: dec("10"), Stock: 4})
	ident := domain.Identity{UserID: "u1"}

	_, err := svc.AddItem(context.Background(), ident, "p1", 2)
	require.NoError(t, err)
	require.NoError(t, svc.Clear(context.Background(), ident))
	assert.Empty(t, fs.carts["u1"].Items)
}

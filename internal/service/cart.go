package service

import (
	"context"

	"github.com/nazeru/storefront-api/internal/domain"
	"github.com/nazeru/storefront-api/internal/pricing"
)

type CartStore interface {
	GetOrCreate(ctx context.Context, userID string) (*domain.Cart, error)
	UpsertItem(ctx context.Context, cartID string, it domain.CartItem) error
	SetQuantity(ctx context.Context, cartID, productID string, quantity int) error
	RemoveItem(ctx context.Context, cartID, productID string) error
	Clear(ctx context.Context, cartID string) error
}

type Cart struct {
	store    CartStore
	products ProductReader
}

func NewCart(s CartStore, p ProductReader) *Cart {
	return &Cart{store: s, products: p}
}

// CartView is a cart plus derived totals, priced with the same formula as
// order creation.
type CartView struct {
	domain.Cart
	pricing.Quote
}

func view(c *domain.Cart) *CartView {
	lines := make([]pricing.Line, 0, len(c.Items))
	for _, it := range c.Items {
		lines = append(lines, pricing.Line{Price: it.Price, Quantity: it.Quantity})
	}
	return &CartView{Cart: *c, Quote: pricing.Compute(lines)}
}

func (s *Cart) Get(ctx context.Context, ident domain.Identity) (*CartView, error) {
	c, err := s.store.GetOrCreate(ctx, ident.UserID)
	if err != nil {
		return nil, err
	}
	return view(c), nil
}

// AddItem merges into an existing line or appends a new one. The resulting
// quantity is clamped to the product's current stock.
func (s *Cart) AddItem(ctx context.Context, ident domain.Identity, productID string, quantity int) (*CartView, error) {
	if quantity <= 0 {
		return nil, domain.Invalid("quantity", "must be positive")
	}
	p, err := s.products.Get(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p.Stock < 1 {
		return nil, domain.ErrInsufficientStock
	}

	c, err := s.store.GetOrCreate(ctx, ident.UserID)
	if err != nil {
		return nil, err
	}

	want := quantity
	if existing, ok := c.Item(productID); ok {
		want += existing.Quantity
	}
	if want > p.Stock {
		want = p.Stock
	}

	item := domain.CartItem{
		ProductID: p.ID,
		Name:      p.Name,
		Price:     p.Price,
		Image:     p.Image,
		Stock:     p.Stock,
		Quantity:  want,
	}
	if err := s.store.UpsertItem(ctx, c.ID, item); err != nil {
		return nil, err
	}
	return s.Get(ctx, ident)
}

// UpdateItem sets a line's quantity. Zero or negative removes the line;
// anything else is clamped to the stock snapshot stored on the item, not
// live catalog stock.
func (s *Cart) UpdateItem(ctx context.Context, ident domain.Identity, productID string, quantity int) (*CartView, error) {
	c, err := s.store.GetOrCreate(ctx, ident.UserID)
	if err != nil {
		return nil, err
	}
	item, ok := c.Item(productID)
	if !ok {
		return nil, domain.ErrCartItemNotFound
	}

	if quantity <= 0 {
		if err := s.store.RemoveItem(ctx, c.ID, productID); err != nil {
			return nil, err
		}
		return s.Get(ctx, ident)
	}

	if quantity > item.Stock {
		quantity = item.Stock
	}
	if err := s.store.SetQuantity(ctx, c.ID, productID, quantity); err != nil {
		return nil, err
	}
	return s.Get(ctx, ident)
}

func (s *Cart) RemoveItem(ctx context.Context, ident domain.Identity, productID string) (*CartView, error) {
	c, err := s.store.GetOrCreate(ctx, ident.UserID)
	if err != nil {
		return nil, err
	}
	if err := s.store.RemoveItem(ctx, c.ID, productID); err != nil {
		return nil, err
	}
	return s.Get(ctx, ident)
}

func (s *Cart) Clear(ctx context.Context, ident domain.Identity) error {
	c, err := s.store.GetOrCreate(ctx, ident.UserID)
	if err != nil {
		return err
	}
	return s.store.Clear(ctx, c.ID)
}

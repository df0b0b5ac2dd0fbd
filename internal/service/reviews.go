package service

import (
	"context"

	"github.com/nazeru/storefront-api/internal/domain"
)

type ReviewStore interface {
	Create(ctx context.Context, rev *domain.Review) error
	Get(ctx context.Context, id string) (*domain.Review, error)
	ListByProduct(ctx context.Context, productID string) ([]domain.Review, error)
	Vote(ctx context.Context, id string, helpful bool) error
	Delete(ctx context.Context, id, productID string) error
}

type Reviews struct {
	store    ReviewStore
	products ProductReader
}

func NewReviews(s ReviewStore, p ProductReader) *Reviews {
	return &Reviews{store: s, products: p}
}

// Create enforces one review per user per product; the store recomputes the
// product's rating aggregate in the same transaction as the insert.
func (s *Reviews) Create(ctx context.Context, ident domain.Identity, rev *domain.Review) error {
	if err := rev.Validate(); err != nil {
		return err
	}
	if _, err := s.products.Get(ctx, rev.ProductID); err != nil {
		return err
	}
	rev.UserID = ident.UserID
	return s.store.Create(ctx, rev)
}

func (s *Reviews) ListByProduct(ctx context.Context, productID string) ([]domain.Review, error) {
	if _, err := s.products.Get(ctx, productID); err != nil {
		return nil, err
	}
	return s.store.ListByProduct(ctx, productID)
}

func (s *Reviews) Vote(ctx context.Context, id string, helpful bool) error {
	return s.store.Vote(ctx, id, helpful)
}

// Delete removes the caller's own review; admins may remove any.
func (s *Reviews) Delete(ctx context.Context, ident domain.Identity, id string) error {
	rev, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if rev.UserID != ident.UserID && !ident.Admin() {
		return domain.ErrForbidden
	}
	return s.store.Delete(ctx, rev.ID, rev.ProductID)
}

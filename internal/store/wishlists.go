package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nazeru/storefront-api/internal/domain"
)

type Wishlists struct {
	pool *pgxpool.Pool
}

func (r *Wishlists) List(ctx context.Context, userID string) ([]domain.WishlistItem, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT w.product_id, p.name, p.image, w.added_at
		 FROM wishlist_items w JOIN products p ON p.id = w.product_id
		 WHERE w.user_id=$1 ORDER BY w.added_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.WishlistItem
	for rows.Next() {
		var it domain.WishlistItem
		if err := rows.Scan(&it.ProductID, &it.Name, &it.Image, &it.AddedAt); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// Add is idempotent: re-adding a wishlisted product is a no-op.
func (r *Wishlists) Add(ctx context.Context, userID, productID string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO wishlist_items(user_id, product_id) VALUES ($1, $2)
		 ON CONFLICT (user_id, product_id) DO NOTHING`, userID, productID)
	return err
}

func (r *Wishlists) Remove(ctx context.Context, userID, productID string) error {
	ct, err := r.pool.Exec(ctx,
		`DELETE FROM wishlist_items WHERE user_id=$1 AND product_id=$2`, userID, productID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

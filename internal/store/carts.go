package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nazeru/storefront-api/internal/domain"
)

type Carts struct {
	pool *pgxpool.Pool
}

// GetOrCreate returns the user's cart, creating an empty one on first
// access. A concurrent create loses the unique race and re-reads.
func (r *Carts) GetOrCreate(ctx context.Context, userID string) (*domain.Cart, error) {
	cart, err := r.getByUser(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, domain.ErrCartNotFound) {
		return nil, err
	}

	_, err = r.pool.Exec(ctx, `INSERT INTO carts(id, user_id) VALUES ($1, $2)`, uuid.NewString(), userID)
	if err != nil && !isUniqueViolation(err) {
		return nil, err
	}
	return r.getByUser(ctx, userID)
}

func (r *Carts) getByUser(ctx context.Context, userID string) (*domain.Cart, error) {
	var c domain.Cart
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, created_at, updated_at FROM carts WHERE user_id=$1`, userID).
		Scan(&c.ID, &c.UserID, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrCartNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT product_id, name, price, image, stock, quantity FROM cart_items WHERE cart_id=$1 ORDER BY added_at`, c.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var it domain.CartItem
		if err := rows.Scan(&it.ProductID, &it.Name, &it.Price, &it.Image, &it.Stock, &it.Quantity); err != nil {
			return nil, err
		}
		c.Items = append(c.Items, it)
	}
	return &c, rows.Err()
}

// UpsertItem writes one line item, refreshing the denormalized product
// snapshot on conflict.
func (r *Carts) UpsertItem(ctx context.Context, cartID string, it domain.CartItem) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO cart_items(cart_id, product_id, name, price, image, stock, quantity)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (cart_id, product_id)
		 DO UPDATE SET name=EXCLUDED.name, price=EXCLUDED.price, image=EXCLUDED.image,
		               stock=EXCLUDED.stock, quantity=EXCLUDED.quantity`,
		cartID, it.ProductID, it.Name, it.Price, it.Image, it.Stock, it.Quantity)
	if err != nil {
		return err
	}
	return r.touch(ctx, cartID)
}

func (r *Carts) SetQuantity(ctx context.Context, cartID, productID string, quantity int) error {
	ct, err := r.pool.Exec(ctx,
		`UPDATE cart_items SET quantity=$3 WHERE cart_id=$1 AND product_id=$2`, cartID, productID, quantity)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrCartItemNotFound
	}
	return r.touch(ctx, cartID)
}

func (r *Carts) RemoveItem(ctx context.Context, cartID, productID string) error {
	ct, err := r.pool.Exec(ctx,
		`DELETE FROM cart_items WHERE cart_id=$1 AND product_id=$2`, cartID, productID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrCartItemNotFound
	}
	return r.touch(ctx, cartID)
}

func (r *Carts) Clear(ctx context.Context, cartID string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM cart_items WHERE cart_id=$1`, cartID); err != nil {
		return err
	}
	return r.touch(ctx, cartID)
}

func (r *Carts) touch(ctx context.Context, cartID string) error {
	_, err := r.pool.Exec(ctx, `UPDATE carts SET updated_at=now() WHERE id=$1`, cartID)
	return err
}

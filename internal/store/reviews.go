package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nazeru/storefront-api/internal/domain"
)

type Reviews struct {
	pool *pgxpool.Pool
}

// Create inserts the review and recomputes the parent product's rating and
// review count in the same transaction.
func (r *Reviews) Create(ctx context.Context, rev *domain.Review) error {
	if rev.ID == "" {
		rev.ID = uuid.NewString()
	}
	rev.CreatedAt = time.Now().UTC()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx,
		`INSERT INTO reviews(id, product_id, user_id, rating, title, comment, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rev.ID, rev.ProductID, rev.UserID, rev.Rating, rev.Title, rev.Comment, rev.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrReviewExists
		}
		return err
	}

	if err := recomputeProductRating(ctx, tx, rev.ProductID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func recomputeProductRating(ctx context.Context, tx pgx.Tx, productID string) error {
	_, err := tx.Exec(ctx,
		`UPDATE products SET
			rating = COALESCE((SELECT round(avg(rating)::numeric, 2) FROM reviews WHERE product_id=$1), 0),
			num_reviews = (SELECT count(*) FROM reviews WHERE product_id=$1),
			updated_at = now()
		 WHERE id=$1`, productID)
	return err
}

func (r *Reviews) Get(ctx context.Context, id string) (*domain.Review, error) {
	var rev domain.Review
	err := r.pool.QueryRow(ctx,
		`SELECT r.id, r.product_id, r.user_id, u.name, r.rating, r.title, r.comment, r.helpful, r.unhelpful, r.created_at
		 FROM reviews r JOIN users u ON u.id = r.user_id WHERE r.id=$1`, id).
		Scan(&rev.ID, &rev.ProductID, &rev.UserID, &rev.UserName, &rev.Rating, &rev.Title,
			&rev.Comment, &rev.Helpful, &rev.Unhelpful, &rev.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrReviewNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rev, nil
}

func (r *Reviews) ListByProduct(ctx context.Context, productID string) ([]domain.Review, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT r.id, r.product_id, r.user_id, u.name, r.rating, r.title, r.comment, r.helpful, r.unhelpful, r.created_at
		 FROM reviews r JOIN users u ON u.id = r.user_id
		 WHERE r.product_id=$1 ORDER BY r.created_at DESC`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Review
	for rows.Next() {
		var rev domain.Review
		if err := rows.Scan(&rev.ID, &rev.ProductID, &rev.UserID, &rev.UserName, &rev.Rating,
			&rev.Title, &rev.Comment, &rev.Helpful, &rev.Unhelpful, &rev.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rev)
	}
	return out, rows.Err()
}

func (r *Reviews) Vote(ctx context.Context, id string, helpful bool) error {
	col := "unhelpful"
	if helpful {
		col = "helpful"
	}
	ct, err := r.pool.Exec(ctx, `UPDATE reviews SET `+col+` = `+col+` + 1 WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrReviewNotFound
	}
	return nil
}

// Delete removes a review and recomputes the product aggregate.
func (r *Reviews) Delete(ctx context.Context, id, productID string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ct, err := tx.Exec(ctx, `DELETE FROM reviews WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrReviewNotFound
	}

	if err := recomputeProductRating(ctx, tx, productID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

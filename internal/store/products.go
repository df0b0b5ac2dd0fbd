package store

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nazeru/storefront-api/internal/domain"
)

type Products struct {
	pool *pgxpool.Pool
}

const productCols = `id, name, description, price, category, stock, rating, num_reviews, featured, image, created_at, updated_at`

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var p domain.Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Category, &p.Stock,
		&p.Rating, &p.NumReviews, &p.Featured, &p.Image, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Products) Create(ctx context.Context, p *domain.Product) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	_, err := r.pool.Exec(ctx,
		`INSERT INTO products(id, name, description, price, category, stock, featured, image, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		p.ID, p.Name, p.Description, p.Price, p.Category, p.Stock, p.Featured, p.Image, p.CreatedAt, p.UpdatedAt)
	return err
}

func (r *Products) Get(ctx context.Context, id string) (*domain.Product, error) {
	return scanProduct(r.pool.QueryRow(ctx, `SELECT `+productCols+` FROM products WHERE id=$1`, id))
}

type ProductFilter struct {
	Category string
	Featured *bool
	Page     int
	Limit    int
}

func (r *Products) List(ctx context.Context, f ProductFilter) ([]domain.Product, int, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 20
	}

	where := ` WHERE 1=1`
	args := []any{}
	if f.Category != "" {
		args = append(args, f.Category)
		where += ` AND category=$1`
	}
	if f.Featured != nil {
		args = append(args, *f.Featured)
		where += ` AND featured=$` + itoa(len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM products`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, f.Limit, (f.Page-1)*f.Limit)
	rows, err := r.pool.Query(ctx,
		`SELECT `+productCols+` FROM products`+where+
			` ORDER BY created_at DESC LIMIT $`+itoa(len(args)-1)+` OFFSET $`+itoa(len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *p)
	}
	return out, total, rows.Err()
}

func (r *Products) Update(ctx context.Context, p *domain.Product) error {
	ct, err := r.pool.Exec(ctx,
		`UPDATE products SET name=$2, description=$3, price=$4, category=$5, stock=$6, featured=$7, image=$8, updated_at=now()
		 WHERE id=$1`,
		p.ID, p.Name, p.Description, p.Price, p.Category, p.Stock, p.Featured, p.Image)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

func (r *Products) Delete(ctx context.Context, id string) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

// Package store implements the PostgreSQL repositories behind the services.
// Multi-row mutations (order creation, cancellation, review aggregation) run
// inside a single transaction together with their outbox events.
package store

import (
	_ "embed"

	"context"
	"errors"
	"strings"
	"time"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schema string

type Store struct {
	Pool      *pgxpool.Pool
	Products  *Products
	Orders    *Orders
	Carts     *Carts
	Coupons   *Coupons
	Reviews   *Reviews
	Users     *Users
	Wishlists *Wishlists
}

// Open connects the pool and registers the shopspring decimal codec so
// NUMERIC columns scan straight into decimal.Decimal.
func Open(ctx context.Context, databaseURL, eventTopic string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := ping(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &Store{
		Pool:      pool,
		Products:  &Products{pool: pool},
		Orders:    &Orders{pool: pool, topic: eventTopic},
		Carts:     &Carts{pool: pool},
		Coupons:   &Coupons{pool: pool},
		Reviews:   &Reviews{pool: pool},
		Users:     &Users{pool: pool},
		Wishlists: &Wishlists{pool: pool},
	}, nil
}

// Migrate applies the embedded schema; every statement is idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.Pool.Exec(ctx, schema)
	return err
}

func (s *Store) Close() {
	s.Pool.Close()
}

func ping(ctx context.Context, pool *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return pool.Ping(ctx)
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(strings.ToLower(err.Error()), "duplicate") ||
		strings.Contains(strings.ToLower(err.Error()), "unique")
}

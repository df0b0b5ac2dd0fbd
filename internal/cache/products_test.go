package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nazeru/storefront-api/internal/domain"
)

type countingSource struct {
	product *domain.Product
	calls   int
}

func (s *countingSource) Get(_ context.Context, id string) (*domain.Product, error) {
	s.calls++
	if s.product == nil || s.product.ID != id {
		return nil, domain.ErrProductNotFound
	}
	cp := *s.product
	return &cp, nil
}

func sample() *domain.Product {
	return &domain.Product{
		ID:       "p1",
		Name:     "Widget",
		Price:    decimal.RequireFromString("99.50"),
		Category: domain.CategoryOther,
		Stock:    4,
	}
}

func TestGetMissFillsCache(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	src := &countingSource{product: sample()}
	c := NewProductCache(rdb, src, time.Minute)

	data, err := json.Marshal(sample())
	require.NoError(t, err)

	mock.ExpectGet("product:p1").RedisNil()
	mock.ExpectSet("product:p1", data, time.Minute).SetVal("OK")

	p, err := c.Get(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "Widget", p.Name)
	assert.Equal(t, 1, src.calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetHitSkipsSource(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	src := &countingSource{product: sample()}
	c := NewProductCache(rdb, src, time.Minute)

	data, err := json.Marshal(sample())
	require.NoError(t, err)
	mock.ExpectGet("product:p1").SetVal(string(data))

	p, err := c.Get(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "p1", p.ID)
	assert.Equal(t, 0, src.calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetMissingProductNotCached(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	src := &countingSource{}
	c := NewProductCache(rdb, src, time.Minute)

	mock.ExpectGet("product:ghost").RedisNil()

	_, err := c.Get(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInvalidate(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	c := NewProductCache(rdb, &countingSource{}, time.Minute)

	mock.ExpectDel("product:p1").SetVal(1)
	c.Invalidate(context.Background(), "p1")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNilClientPassesThrough(t *testing.T) {
	src := &countingSource{product: sample()}
	c := NewProductCache(nil, src, time.Minute)

	_, err := c.Get(context.Background(), "p1")
	require.NoError(t, err)
	_, err = c.Get(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls)
}

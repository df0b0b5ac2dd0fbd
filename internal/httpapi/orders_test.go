package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nazeru/storefront-api/internal/config"
	"github.com/nazeru/storefront-api/internal/domain"
	"github.com/nazeru/storefront-api/internal/service"
	"github.com/nazeru/storefront-api/internal/store"
)

type stubProducts struct {
	products map[string]*domain.Product
}

func (s *stubProducts) Get(ctx context.Context, id string) (*domain.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

type stubOrders struct {
	orders map[string]*domain.Order
	byKey  map[string]string
}

func newStubOrders() *stubOrders {
	return &stubOrders{orders: map[string]*domain.Order{}, byKey: map[string]string{}}
}

func (s *stubOrders) Create(ctx context.Context, o *domain.Order, idemKey string) error {
	if idemKey != "" {
		if _, ok := s.byKey[idemKey]; ok {
			return domain.ErrIdempotencyReplay
		}
		s.byKey[idemKey] = o.ID
	}
	cp := *o
	s.orders[o.ID] = &cp
	return nil
}

func (s *stubOrders) IDByIdempotencyKey(ctx context.Context, key string) (string, error) {
	id, ok := s.byKey[key]
	if !ok {
		return "", domain.ErrOrderNotFound
	}
	return id, nil
}

func (s *stubOrders) Get(ctx context.Context, id string) (*domain.Order, error) {
	o, ok := s.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (s *stubOrders) List(ctx context.Context, f store.OrderFilter) ([]domain.Order, int, error) {
	var out []domain.Order
	for _, o := range s.orders {
		if f.UserID != "" && o.UserID != f.UserID {
			continue
		}
		out = append(out, *o)
	}
	return out, len(out), nil
}

func (s *stubOrders) UpdateStatus(ctx context.Context, o *domain.Order, eventType string) error {
	cp := *o
	s.orders[o.ID] = &cp
	return nil
}

func (s *stubOrders) CancelAndRestore(ctx context.Context, o *domain.Order) error {
	cp := *o
	s.orders[o.ID] = &cp
	return nil
}

func (s *stubOrders) Delete(ctx context.Context, o *domain.Order, restore bool) error {
	delete(s.orders, o.ID)
	return nil
}

func newTestServer(t *testing.T) (*Server, http.Handler) {
	t.Helper()
	products := &stubProducts{products: map[string]*domain.Product{
		"p1": {ID: "p1", Name: "Keyboard", Price: decimal.NewFromInt(100), Stock: 10, Category: domain.CategoryElectronics},
	}}
	orders := service.NewOrders(newStubOrders(), products)

	cfg := config.Config{Environment: "development", JWTSecret: "test-secret", TokenTTLHours: 1}
	s := &Server{cfg: cfg, auth: NewAuth(cfg.JWTSecret, time.Hour), orders: orders}
	return s, s.Router()
}

func bearerFor(t *testing.T, s *Server, id string, role domain.Role) string {
	t.Helper()
	token, err := s.auth.Issue(&domain.User{ID: id, Role: role})
	require.NoError(t, err)
	return "Bearer " + token
}

func orderPayload() map[string]any {
	return map[string]any{
		"items":          []map[string]any{{"product_id": "p1", "quantity": 2}},
		"payment_method": "upi",
		"shipping_address": map[string]any{
			"street": "1 Main St", "city": "Pune", "state": "MH",
			"zip_code": "411001", "phone": "9999999999",
		},
	}
}

func postJSON(t *testing.T, router http.Handler, path, auth, idemKey string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	if idemKey != "" {
		req.Header.Set("Idempotency-Key", idemKey)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCreateOrderEndpoint(t *testing.T) {
	s, router := newTestServer(t)
	auth := bearerFor(t, s, "u1", domain.RoleUser)

	rec := postJSON(t, router, "/api/orders", auth, "", orderPayload())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var o domain.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &o))
	assert.Equal(t, "u1", o.UserID)
	assert.Equal(t, domain.OrderPending, o.Status)
	assert.True(t, o.Total.Equal(decimal.NewFromInt(286)), "got total %s", o.Total)
}

func TestCreateOrderRequiresAuth(t *testing.T) {
	_, router := newTestServer(t)
	rec := postJSON(t, router, "/api/orders", "", "", orderPayload())
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateOrderIdempotencyReplay(t *testing.T) {
	s, router := newTestServer(t)
	auth := bearerFor(t, s, "u1", domain.RoleUser)

	first := postJSON(t, router, "/api/orders", auth, "key-1", orderPayload())
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())

	second := postJSON(t, router, "/api/orders", auth, "key-1", orderPayload())
	require.Equal(t, http.StatusOK, second.Code, second.Body.String())

	var a, b domain.Order
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &a))
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &b))
	assert.Equal(t, a.ID, b.ID)
}

func TestCreateOrderInsufficientStock(t *testing.T) {
	s, router := newTestServer(t)
	auth := bearerFor(t, s, "u1", domain.RoleUser)

	payload := orderPayload()
	payload["items"] = []map[string]any{{"product_id": "p1", "quantity": 99}}
	rec := postJSON(t, router, "/api/orders", auth, "", payload)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetOrderOwnership(t *testing.T) {
	s, router := newTestServer(t)
	owner := bearerFor(t, s, "u1", domain.RoleUser)
	stranger := bearerFor(t, s, "u2", domain.RoleUser)
	admin := bearerFor(t, s, "a1", domain.RoleAdmin)

	rec := postJSON(t, router, "/api/orders", owner, "", orderPayload())
	require.Equal(t, http.StatusCreated, rec.Code)
	var o domain.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &o))

	for _, tc := range []struct {
		auth string
		want int
	}{
		{owner, http.StatusOK},
		{stranger, http.StatusForbidden},
		{admin, http.StatusOK},
	} {
		req := httptest.NewRequest(http.MethodGet, "/api/orders/"+o.ID, nil)
		req.Header.Set("Authorization", tc.auth)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, tc.want, w.Code)
	}
}

func TestOrderStatusAdminOnly(t *testing.T) {
	s, router := newTestServer(t)
	owner := bearerFor(t, s, "u1", domain.RoleUser)
	admin := bearerFor(t, s, "a1", domain.RoleAdmin)

	rec := postJSON(t, router, "/api/orders", owner, "", orderPayload())
	require.Equal(t, http.StatusCreated, rec.Code)
	var o domain.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &o))

	body := map[string]any{"status": "Paid"}
	asUser := putJSON(t, router, "/api/orders/"+o.ID+"/status", owner, body)
	assert.Equal(t, http.StatusForbidden, asUser.Code)

	asAdmin := putJSON(t, router, "/api/orders/"+o.ID+"/status", admin, body)
	require.Equal(t, http.StatusOK, asAdmin.Code, asAdmin.Body.String())
	var updated domain.Order
	require.NoError(t, json.Unmarshal(asAdmin.Body.Bytes(), &updated))
	assert.Equal(t, domain.OrderPaid, updated.Status)
	assert.True(t, updated.IsPaid)

	direct := putJSON(t, router, "/api/orders/"+o.ID+"/status", admin, map[string]any{"status": "Cancelled"})
	assert.Equal(t, http.StatusBadRequest, direct.Code)
}

func TestCancelOrderEndpoint(t *testing.T) {
	s, router := newTestServer(t)
	owner := bearerFor(t, s, "u1", domain.RoleUser)

	rec := postJSON(t, router, "/api/orders", owner, "", orderPayload())
	require.Equal(t, http.StatusCreated, rec.Code)
	var o domain.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &o))

	cancel := putJSON(t, router, "/api/orders/"+o.ID+"/cancel", owner, nil)
	require.Equal(t, http.StatusOK, cancel.Code, cancel.Body.String())
	var cancelled domain.Order
	require.NoError(t, json.Unmarshal(cancel.Body.Bytes(), &cancelled))
	assert.Equal(t, domain.OrderCancelled, cancelled.Status)

	again := putJSON(t, router, "/api/orders/"+o.ID+"/cancel", owner, nil)
	assert.Equal(t, http.StatusBadRequest, again.Code)
}

func putJSON(t *testing.T, router http.Handler, path, auth string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader([]byte("{}"))
	}
	req := httptest.NewRequest(http.MethodPut, path, body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", auth)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

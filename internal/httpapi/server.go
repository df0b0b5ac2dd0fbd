// Package httpapi wires the REST surface: routing, auth, metrics and the
// JSON error taxonomy.
package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nazeru/storefront-api/internal/cache"
	"github.com/nazeru/storefront-api/internal/config"
	"github.com/nazeru/storefront-api/internal/service"
	"github.com/nazeru/storefront-api/internal/store"
	"github.com/nazeru/storefront-api/pkg/metrics"
)

type Server struct {
	cfg  config.Config
	auth *Auth
	pool *pgxpool.Pool

	orders  *service.Orders
	cart    *service.Cart
	coupons *service.Coupons
	reviews *service.Reviews

	products  *store.Products
	users     *store.Users
	wishlists *store.Wishlists
	catalog   *cache.ProductCache

	srvMetrics *metrics.ServerMetrics
}

func NewServer(
	cfg config.Config,
	pool *pgxpool.Pool,
	orders *service.Orders,
	cart *service.Cart,
	coupons *service.Coupons,
	reviews *service.Reviews,
	products *store.Products,
	users *store.Users,
	wishlists *store.Wishlists,
	catalog *cache.ProductCache,
	srvMetrics *metrics.ServerMetrics,
) *Server {
	return &Server{
		cfg:        cfg,
		auth:       NewAuth(cfg.JWTSecret, cfg.TokenTTL()),
		pool:       pool,
		orders:     orders,
		cart:       cart,
		coupons:    coupons,
		reviews:    reviews,
		products:   products,
		users:      users,
		wishlists:  wishlists,
		catalog:    catalog,
		srvMetrics: srvMetrics,
	}
}

func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.instrument)

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/auth/register", s.handleRegister).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", s.handleLogin).Methods(http.MethodPost)
	api.HandleFunc("/users/me", s.authenticate(s.handleMe)).Methods(http.MethodGet)
	api.HandleFunc("/users/me", s.authenticate(s.handleUpdateMe)).Methods(http.MethodPut)

	api.HandleFunc("/products", s.handleListProducts).Methods(http.MethodGet)
	api.HandleFunc("/products/{id}", s.handleGetProduct).Methods(http.MethodGet)
	api.HandleFunc("/products", s.requireAdmin(s.handleCreateProduct)).Methods(http.MethodPost)
	api.HandleFunc("/products/{id}", s.requireAdmin(s.handleUpdateProduct)).Methods(http.MethodPut)
	api.HandleFunc("/products/{id}", s.requireAdmin(s.handleDeleteProduct)).Methods(http.MethodDelete)

	api.HandleFunc("/orders", s.authenticate(s.handleCreateOrder)).Methods(http.MethodPost)
	api.HandleFunc("/orders/my", s.authenticate(s.handleMyOrders)).Methods(http.MethodGet)
	api.HandleFunc("/orders", s.requireAdmin(s.handleListOrders)).Methods(http.MethodGet)
	api.HandleFunc("/orders/{id}", s.authenticate(s.handleGetOrder)).Methods(http.MethodGet)
	api.HandleFunc("/orders/{id}/status", s.requireAdmin(s.handleOrderStatus)).Methods(http.MethodPut)
	api.HandleFunc("/orders/{id}/cancel", s.authenticate(s.handleCancelOrder)).Methods(http.MethodPut)
	api.HandleFunc("/orders/{id}", s.requireAdmin(s.handleDeleteOrder)).Methods(http.MethodDelete)

	api.HandleFunc("/cart", s.authenticate(s.handleGetCart)).Methods(http.MethodGet)
	api.HandleFunc("/cart/items", s.authenticate(s.handleAddCartItem)).Methods(http.MethodPost)
	api.HandleFunc("/cart/items/{productID}", s.authenticate(s.handleUpdateCartItem)).Methods(http.MethodPut)
	api.HandleFunc("/cart/items/{productID}", s.authenticate(s.handleRemoveCartItem)).Methods(http.MethodDelete)
	api.HandleFunc("/cart", s.authenticate(s.handleClearCart)).Methods(http.MethodDelete)

	api.HandleFunc("/coupons/validate", s.authenticate(s.handleValidateCoupon)).Methods(http.MethodPost)
	api.HandleFunc("/coupons/apply", s.authenticate(s.handleApplyCoupon)).Methods(http.MethodPost)
	api.HandleFunc("/coupons", s.requireAdmin(s.handleCreateCoupon)).Methods(http.MethodPost)
	api.HandleFunc("/coupons", s.requireAdmin(s.handleListCoupons)).Methods(http.MethodGet)
	api.HandleFunc("/coupons/{code}", s.requireAdmin(s.handleDeactivateCoupon)).Methods(http.MethodDelete)

	api.HandleFunc("/wishlist", s.authenticate(s.handleWishlist)).Methods(http.MethodGet)
	api.HandleFunc("/wishlist/{productID}", s.authenticate(s.handleAddWishlist)).Methods(http.MethodPost)
	api.HandleFunc("/wishlist/{productID}", s.authenticate(s.handleRemoveWishlist)).Methods(http.MethodDelete)

	api.HandleFunc("/reviews/{productID}", s.handleListReviews).Methods(http.MethodGet)
	api.HandleFunc("/reviews/{productID}", s.authenticate(s.handleCreateReview)).Methods(http.MethodPost)
	api.HandleFunc("/reviews/{productID}/{id}/vote", s.authenticate(s.handleVoteReview)).Methods(http.MethodPost)
	api.HandleFunc("/reviews/{productID}/{id}", s.authenticate(s.handleDeleteReview)).Methods(http.MethodDelete)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.pool != nil {
		if err := s.pool.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "db_error"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.srvMetrics == nil {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		route := r.URL.Path
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		s.srvMetrics.Requests.WithLabelValues(route, strconv.Itoa(sw.status)).Inc()
		s.srvMetrics.LatencyMS.WithLabelValues(route).Observe(float64(time.Since(start).Milliseconds()))
	})
}

func pageParams(r *http.Request) (page, limit int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	return page, limit
}

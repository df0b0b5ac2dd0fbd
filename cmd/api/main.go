package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron"

	"github.com/nazeru/storefront-api/internal/cache"
	"github.com/nazeru/storefront-api/internal/config"
	"github.com/nazeru/storefront-api/internal/httpapi"
	"github.com/nazeru/storefront-api/internal/service"
	"github.com/nazeru/storefront-api/internal/store"
	"github.com/nazeru/storefront-api/pkg/kafka"
	"github.com/nazeru/storefront-api/pkg/logging"
	"github.com/nazeru/storefront-api/pkg/metrics"
	"github.com/nazeru/storefront-api/pkg/outbox"
)

const serviceName = "storefront-api"

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	st, err := store.Open(ctx, cfg.DatabaseURL, cfg.KafkaTopic)
	if err != nil {
		log.Fatalf("db connect error: %v", err)
	}
	defer st.Close()

	if err := st.Migrate(ctx); err != nil {
		log.Fatalf("migrate error: %v", err)
	}

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			// Cache is optional; run uncached rather than refuse to start.
			logging.Log(logging.Fields{Service: serviceName, Step: "redis_connect", Status: "error", Message: err.Error()})
			rdb = nil
		}
	}
	catalog := cache.NewProductCache(rdb, st.Products, cfg.CacheTTL())

	orders := service.NewOrders(st.Orders, st.Products)
	cart := service.NewCart(st.Carts, st.Products)
	coupons := service.NewCoupons(st.Coupons)
	reviews := service.NewReviews(st.Reviews, st.Products)

	relayCtx, stopRelay := context.WithCancel(context.Background())
	defer stopRelay()

	if kc := kafka.NewClient(cfg.KafkaBrokers); kc.Enabled() {
		writer := kc.NewWriter(cfg.KafkaTopic)
		defer writer.Close()
		relay := &outbox.Relay{Pool: st.Pool, Writer: writer, Interval: time.Second, BatchSize: 100, Service: serviceName}
		go relay.Run(relayCtx)
	} else {
		logging.Log(logging.Fields{Service: serviceName, Step: "kafka", Status: "disabled", Message: "KAFKA_BROKERS not set, outbox relay off"})
	}

	jobs := cron.New()
	_ = jobs.AddFunc("@midnight", func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		n, err := st.Coupons.DeactivateExpired(ctx)
		if err != nil {
			logging.Log(logging.Fields{Service: serviceName, Step: "coupon_expiry", Status: "error", Message: err.Error()})
			return
		}
		logging.Log(logging.Fields{Service: serviceName, Step: "coupon_expiry", Status: "done", Message: strconv.Itoa(n) + " deactivated"})
	})
	_ = jobs.AddFunc("@midnight", func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		n, err := st.Orders.MarkPendingReminders(ctx, 24*time.Hour)
		if err != nil {
			logging.Log(logging.Fields{Service: serviceName, Step: "pending_reminders", Status: "error", Message: err.Error()})
			return
		}
		logging.Log(logging.Fields{Service: serviceName, Step: "pending_reminders", Status: "done", Message: strconv.Itoa(n) + " reminded"})
	})
	jobs.Start()
	defer jobs.Stop()

	srvMetrics := metrics.NewServerMetrics("api")
	api := httpapi.NewServer(cfg, st.Pool,
		orders, cart, coupons, reviews,
		st.Products, st.Users, st.Wishlists, catalog, srvMetrics)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Printf("%s listening on :%s (env=%s)", serviceName, cfg.Port, cfg.Environment)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("http server error: %v", err)
	}
}

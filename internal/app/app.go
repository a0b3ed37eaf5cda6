// Package app wires the order service together: configuration, storage,
// messaging, HTTP surface, health probes, and graceful shutdown.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"github.com/redis/go-redis/v9"
	segkafka "github.com/segmentio/kafka-go"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/novashop/order-service/internal/api"
	"github.com/novashop/order-service/internal/domain/order"
	"github.com/novashop/order-service/internal/messaging/kafka"
	"github.com/novashop/order-service/internal/messaging/noop"
	"github.com/novashop/order-service/internal/storage/postgres"
	"github.com/novashop/order-service/internal/storage/rediscache"
	"github.com/novashop/order-service/pkg/health"
	"github.com/novashop/order-service/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	// PostgreSQL pool + migrations.
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// Order repository, optionally fronted by a Redis read cache.
	var repo order.Repository = postgres.NewOrderRepository(pool)
	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		defer func() { _ = redisClient.Close() }()
		repo = rediscache.New(repo, redisClient, cfg.Redis.TTL, lg.Named("cache"))
		lg.Info("Order cache enabled", zap.String("redis", cfg.Redis.Addr))
	}

	// Event publisher: Kafka when brokers are configured, no-op otherwise.
	// The writer is created once at startup and shared by all requests.
	var publisher order.EventPublisher = noop.Publisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaPub := kafka.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer func() {
			if err := kafkaPub.Close(); err != nil {
				lg.Error("Close kafka publisher", zap.Error(err))
			}
		}()
		publisher = kafkaPub
		lg.Info("Kafka publisher enabled",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("topic", cfg.Kafka.Topic),
		)
	} else {
		lg.Warn("No Kafka brokers configured, order events will not be published")
	}

	// Health probes.
	healthSvc := health.New()
	healthSvc.Add(health.Readiness, "postgres", 5*time.Second, func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	if redisClient != nil {
		healthSvc.Add(health.Readiness, "redis", 2*time.Second, func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}
	if len(cfg.Kafka.Brokers) > 0 {
		broker := cfg.Kafka.Brokers[0]
		healthSvc.Add(health.Readiness, "kafka", 5*time.Second, func(ctx context.Context) error {
			conn, err := segkafka.DialContext(ctx, "tcp", broker)
			if err != nil {
				return err
			}
			return conn.Close()
		})
	}
	healthSvc.Add(health.Liveness, "goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.Start(ctx, 10*time.Second)
	defer healthSvc.Stop()
	healthSvc.SetReady(true)

	// Domain service and HTTP surface.
	orderService := order.NewService(repo, publisher, lg.Named("orders"))
	handler := api.NewHandler(orderService)

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	mux.Handle("/", handler.Routes())

	instrumented := otelhttp.NewHandler(
		httpmiddleware.Wrap(mux,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{AllowOrigins: cfg.CORS.Origins}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.LogRequests(),
		),
		api.ServiceName,
		otelhttp.WithTracerProvider(m.TracerProvider()),
		otelhttp.WithMeterProvider(m.MeterProvider()),
	)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler:           instrumented,
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}

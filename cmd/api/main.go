package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/angelmondragon/orders-backend/api/routes"
	"github.com/angelmondragon/orders-backend/internal/address"
	"github.com/angelmondragon/orders-backend/internal/cart"
	"github.com/angelmondragon/orders-backend/internal/catalog"
	"github.com/angelmondragon/orders-backend/internal/contacts"
	"github.com/angelmondragon/orders-backend/internal/locks"
	"github.com/angelmondragon/orders-backend/internal/notifications"
	"github.com/angelmondragon/orders-backend/internal/orders"
	"github.com/angelmondragon/orders-backend/pkg/auth/session"
	"github.com/angelmondragon/orders-backend/pkg/config"
	"github.com/angelmondragon/orders-backend/pkg/db"
	"github.com/angelmondragon/orders-backend/pkg/idempotency"
	"github.com/angelmondragon/orders-backend/pkg/logger"
	"github.com/angelmondragon/orders-backend/pkg/metrics"
	"github.com/angelmondragon/orders-backend/pkg/migrate"
	"github.com/angelmondragon/orders-backend/pkg/outbox"
	"github.com/angelmondragon/orders-backend/pkg/pubsub"
	"github.com/angelmondragon/orders-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	bootCtx := context.Background()

	dbClient, err := db.New(bootCtx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, dbClient.Close()) }()

	if err := migrate.MaybeRunDev(bootCtx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(bootCtx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, redisClient.Close()) }()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	cartMetrics := metrics.NewCartMetrics(registry)

	lease, err := redis.NewLocker(redisClient, redis.LockOptions{
		TTL:   cfg.Cart.LockTTL,
		Wait:  cfg.Cart.LockWait,
		Retry: cfg.Cart.LockRetryStep,
	})
	if err != nil {
		return err
	}
	userLocker, err := locks.NewRedisLocker(lease, redisClient, logg)
	if err != nil {
		return err
	}

	notifier, notifierCloser, err := buildNotifier(bootCtx, cfg, logg, redisClient, registry)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, notifierCloser.Close()) }()

	conn := dbClient.DB()
	catalogService, err := catalog.NewService(catalog.NewRepository(conn))
	if err != nil {
		return err
	}
	contactService, err := contacts.NewService(contacts.NewRepository(conn))
	if err != nil {
		return err
	}
	addressService, err := address.NewService(address.NewRepository(conn), dbClient)
	if err != nil {
		return err
	}
	ordersRepo := orders.NewRepository(conn)
	cartService, err := cart.NewService(cart.Dependencies{
		Lines:     cart.NewRepository(conn),
		Orders:    ordersRepo,
		Catalog:   catalogService,
		Addresses: addressService,
		Tx:        dbClient,
		Locker:    userLocker,
		Metrics:   cartMetrics,
		Logger:    logg,
	})
	if err != nil {
		return err
	}
	ordersService, err := orders.NewService(orders.Dependencies{
		Repo:        ordersRepo,
		Tx:          dbClient,
		Locker:      userLocker,
		Contacts:    contactService,
		Notifier:    notifier,
		Outbox:      outbox.NewService(outbox.NewRepository(conn), logg),
		SenderEmail: cfg.Notifier.SenderEmail,
		Metrics:     cartMetrics,
		Logger:      logg,
	})
	if err != nil {
		return err
	}

	sessions, err := session.NewManager(redisClient)
	if err != nil {
		return err
	}

	addr := ":" + cfg.App.Port
	ctx := logg.WithFields(bootCtx, map[string]any{
		"env":             cfg.App.Env,
		"addr":            addr,
		"notifier_driver": cfg.Notifier.Driver,
	})

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, routes.Dependencies{
			DB:          dbClient,
			Redis:       redisClient,
			Sessions:    sessions,
			Idempotency: redisClient,
			Gatherer:    registry,
			HTTPMetrics: metrics.NewHTTPMetrics(registry),
			Catalog:     catalogService,
			Cart:        cartService,
			Orders:      ordersService,
			Contacts:    contactService,
			Addresses:   addressService,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-sigCtx.Done():
	}

	logg.Info(ctx, "api server shutting down gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// buildNotifier opens the configured driver and wraps it with the per-order
// send dedupe. The returned closer also releases the pubsub client, if any.
func buildNotifier(ctx context.Context, cfg *config.Config, logg *logger.Logger, redisClient *redis.Client, reg prometheus.Registerer) (notifications.Notifier, io.Closer, error) {
	var transports notifications.Transports
	var closers closerList
	if cfg.Notifier.Driver == config.NotifierDriverPubSub {
		client, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
		if err != nil {
			return nil, nil, err
		}
		transports.PubSub = client
		closers = append(closers, client)
	}

	driver, driverCloser, err := notifications.Build(ctx, cfg, transports, logg)
	if err != nil {
		return nil, nil, multierr.Append(err, closers.Close())
	}
	closers = append(closers, driverCloser)

	claims, err := idempotency.NewManager(redisClient, cfg.Notifier.IdempotencyTTL)
	if err != nil {
		return nil, nil, multierr.Append(err, closers.Close())
	}
	notifier, err := notifications.NewIdempotentNotifier(driver, claims, cfg.Notifier.Driver, metrics.NewNotifierMetrics(reg), logg)
	if err != nil {
		return nil, nil, multierr.Append(err, closers.Close())
	}
	return notifier, closers, nil
}

type closerList []io.Closer

func (c closerList) Close() error {
	var err error
	for i := len(c) - 1; i >= 0; i-- {
		err = multierr.Append(err, c[i].Close())
	}
	return err
}

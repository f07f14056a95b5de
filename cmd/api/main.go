package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"cricketpark/internal/api"
	"cricketpark/internal/config"
	"cricketpark/internal/database"
	"cricketpark/internal/domain"
	"cricketpark/internal/events"
	"cricketpark/internal/export"
	"cricketpark/internal/logging"
	"cricketpark/internal/metrics"
	"cricketpark/internal/repository"
	"cricketpark/internal/service"
	"cricketpark/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	db, err := database.NewDBWithOptions(cfg.Database.Path,
		database.Options{BusyTimeoutMS: cfg.Database.BusyTimeoutMS},
		logging.Component(logger, "database"))
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return err
	}
	defer db.Close()

	redisClient := initRedis(cfg, logger)
	if redisClient != nil {
		defer func() { _ = repository.Close(redisClient) }()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup

	cache := initCache(cfg, redisClient, logger)
	outbox := initOutbox(ctx, &wg, cfg, db, redisClient, logger)

	bus := events.NewEventBus()
	subscribeAudit(bus, logging.Component(logger, "events"))

	users := service.NewUserService(db, logging.Component(logger, "users"))
	venues := service.NewVenueService(db, cache, db, logging.Component(logger, "venues"))
	bookings := service.NewBookingService(db, venues, bus, outbox, logging.Component(logger, "bookings"))
	bookings.SetRateLimit(cache, cfg.Booking.RateLimitPerMinute)
	payments := service.NewPaymentService(db, db, logging.Component(logger, "payments"))
	reports := export.NewReporter(db, db, cfg.Exports.Path, logging.Component(logger, "export"))

	backup := database.NewBackupService(db, cfg.Backup, logging.Component(logger, "backup"))
	wg.Add(1)
	go func() {
		defer wg.Done()
		backup.Start(ctx)
	}()

	if !cfg.API.Enabled {
		logger.Warn().Msg("API is disabled in config, but starting API application. Check your config.")
	}

	grpcServer, err := api.NewGRPCServer(&cfg.API, db, logger)
	if err != nil {
		logger.Error().Err(err).Msg("create grpc server")
		return err
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		grpcServer.WatchHealth(ctx, 15*time.Second)
	}()

	httpServer := api.NewHTTPServer(&cfg.API, api.Services{
		Bookings: bookings,
		Venues:   venues,
		Payments: payments,
		Users:    users,
		Reports:  reports,
		Health:   db,
	}, logger)

	startMetrics(ctx, cfg, logger)

	err = startServers(ctx, grpcServer, httpServer, cfg, logger)
	stop()
	wg.Wait()
	return err
}

func loadConfigAndLogger() (*config.Config, *zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, baseLogger, closer, nil
}

func initRedis(cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	client := repository.NewRedisClient(cfg.Redis)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := repository.Ping(ctx, client); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		_ = client.Close()
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return client
}

// initCache puts redis in front of an in-process cache when redis is reachable.
func initCache(cfg *config.Config, client *redis.Client, logger *zerolog.Logger) domain.VenueCache {
	memory := repository.NewMemoryVenueCache(cfg.Cache.VenueTTL)
	if client == nil {
		return memory
	}
	return repository.NewFailoverVenueCache(
		repository.NewRedisVenueCache(client, cfg.Cache.VenueTTL),
		memory,
		logging.Component(logger, "cache"),
	)
}

// initOutbox starts the relay when enabled. The returned writer is nil otherwise.
func initOutbox(ctx context.Context, wg *sync.WaitGroup, cfg *config.Config, db *database.DB, client *redis.Client, logger *zerolog.Logger) domain.OutboxWriter {
	if !cfg.Outbox.Enabled {
		return nil
	}
	if client == nil {
		logger.Warn().Msg("outbox is enabled but redis is unavailable; events are not relayed")
		return nil
	}

	retry := worker.DefaultRetryPolicy()
	retry.MaxRetries = cfg.Outbox.MaxRetries

	relay := worker.NewOutboxRelay(db, worker.NewRedisSink(client, cfg.Outbox.Channel), retry,
		cfg.Outbox.PollInterval, cfg.Outbox.BatchSize, logging.Component(logger, "outbox"))

	wg.Add(1)
	go func() {
		defer wg.Done()
		relay.Start(ctx)
	}()
	return relay
}

// subscribeAudit logs every booking event published in-process.
func subscribeAudit(bus *events.EventBus, logger *zerolog.Logger) {
	for _, eventType := range []string{
		events.EventBookingCreated,
		events.EventBookingConfirmed,
		events.EventBookingCancelled,
		events.EventBookingCompleted,
		events.EventBookingDeleted,
	} {
		bus.Subscribe(eventType, func(ev *events.Event) error {
			logger.Info().Str("event_type", ev.Type).RawJSON("payload", ev.Payload).Msg("booking event")
			return nil
		})
	}
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	metrics.Register()
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}
	go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, logger)
}

func startServers(
	ctx context.Context,
	grpcServer *api.GRPCServer,
	httpServer *api.HTTPServer,
	cfg *config.Config,
	logger *zerolog.Logger,
) error {
	go func() {
		if !cfg.API.GRPC.Enabled {
			return
		}
		if err := grpcServer.Serve(); err != nil {
			logger.Error().Err(err).Msg("grpc server stopped")
		}
	}()

	go func() {
		if !cfg.API.HTTP.Enabled {
			return
		}
		if err := httpServer.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	logger.Info().Str("grpc_addr", grpcServer.Addr()).Int("http_port", cfg.API.HTTP.Port).Msg("API server started")

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	grpcServer.Shutdown(shutdownCtx)
	_ = httpServer.Shutdown(shutdownCtx)

	logger.Info().Msg("API server stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("metrics server error")
	}
}

// Command server runs the cardfleet admin API. It wires stores, services,
// and transport; business logic lives in the internal packages.
//
// Without CARDFLEET_POSTGRES_URL the process runs on in-memory stores, which
// is enough for local development against the admin console.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cardfleet/internal/audit"
	"cardfleet/internal/cards/cache"
	cardhandler "cardfleet/internal/cards/handler"
	cardmetrics "cardfleet/internal/cards/metrics"
	cardservice "cardfleet/internal/cards/service"
	cardstore "cardfleet/internal/cards/store/card"
	vehiclestore "cardfleet/internal/cards/store/vehicle"
	fulfillmenthandler "cardfleet/internal/fulfillment/handler"
	fulfillmentservice "cardfleet/internal/fulfillment/service"
	fulfillmentstore "cardfleet/internal/fulfillment/store"
	"cardfleet/internal/platform/config"
	"cardfleet/internal/platform/httpserver"
	"cardfleet/internal/platform/logger"
	"cardfleet/internal/platform/postgres"
	platformredis "cardfleet/internal/platform/redis"
	httptransport "cardfleet/internal/transport/http"
	"cardfleet/pkg/platform/tx"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	var (
		db     *sql.DB
		runner tx.Runner

		cards    cardstore.Store
		vehicles vehiclestore.Store
		requests fulfillmentstore.Store

		auditStore audit.Store
	)

	if cfg.PostgresURL != "" {
		var err error
		db, err = postgres.Open(ctx, cfg.PostgresURL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			return err
		}
		runner = tx.NewSQLRunner(db)
		cards = cardstore.NewPostgres(db)
		vehicles = vehiclestore.NewPostgres(db)
		requests = fulfillmentstore.NewPostgres(db)
		auditStore = audit.NewPostgresStore(db)
		log.Info("using postgres stores")
	} else {
		cards = cardstore.NewInMemory()
		vehicles = vehiclestore.NewInMemory()
		requests = fulfillmentstore.NewInMemory()
		auditStore = audit.NewInMemoryStore()
		log.Warn("no postgres url configured, using in-memory stores")
	}

	recorder := audit.NewRecorder(auditStore, log, 256)
	recorderCtx, stopRecorder := context.WithCancel(context.Background())
	defer stopRecorder()
	recorderDone := make(chan struct{})
	go func() {
		defer close(recorderDone)
		recorder.Run(recorderCtx)
	}()

	emitter := audit.Multi{recorder}
	if len(cfg.Kafka.Brokers) > 0 {
		publisher, err := audit.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		if err != nil {
			return err
		}
		defer publisher.Close()
		emitter = append(emitter, publisher)
		log.Info("audit events publishing to kafka", "topic", cfg.Kafka.Topic)
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return err
	}

	metrics := cardmetrics.New()
	opts := []cardservice.Option{
		cardservice.WithMetrics(metrics),
		cardservice.WithAudit(emitter),
	}
	if redisClient != nil {
		defer redisClient.Close()
		opts = append(opts, cardservice.WithCacheInvalidator(
			cache.NewInvalidation(redisClient.Client, log)))
	}
	cardSvc := cardservice.New(cards, vehicles, runner, log, opts...)

	var reconciler cardhandler.Reconciler = cardSvc
	if redisClient != nil {
		reconciler = cache.NewInventory(cardSvc, redisClient.Client, cfg.InventoryTTL, log)
		log.Info("inventory cache enabled", "ttl", cfg.InventoryTTL)
	}

	fulfillmentSvc := fulfillmentservice.New(requests, log, emitter)

	health := func(ctx context.Context) error {
		if db != nil {
			if err := db.PingContext(ctx); err != nil {
				return fmt.Errorf("postgres: %w", err)
			}
		}
		if redisClient != nil {
			if err := redisClient.Health(ctx); err != nil {
				return fmt.Errorf("redis: %w", err)
			}
		}
		return nil
	}

	router := httptransport.NewRouter(
		cardhandler.New(cardSvc, reconciler, log),
		fulfillmenthandler.New(fulfillmentSvc, log),
		httptransport.RouterConfig{AdminToken: cfg.AdminToken, Logger: log, Health: health},
	)
	srv := httpserver.New(cfg.Addr, router)

	serveErr := make(chan error, 1)
	go func() {
		log.Info("starting cardfleet admin api", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		stopRecorder()
		<-recorderDone
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		stopRecorder()
		<-recorderDone
		return err
	}

	stopRecorder()
	<-recorderDone
	return nil
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/trogers1052/rental-listing-service/internal/api"
	"github.com/trogers1052/rental-listing-service/internal/config"
	"github.com/trogers1052/rental-listing-service/internal/database"
	"github.com/trogers1052/rental-listing-service/internal/kafka"
	"github.com/trogers1052/rental-listing-service/internal/logger"
	"github.com/trogers1052/rental-listing-service/internal/metrics"
	"github.com/trogers1052/rental-listing-service/internal/predict"
	"github.com/trogers1052/rental-listing-service/internal/redis"
	"github.com/trogers1052/rental-listing-service/internal/search"
)

func main() {
	cfg := config.Load()

	log := logger.MustNew(cfg.Logging.Level, cfg.Logging.Format)
	defer log.Sync()

	// Connect to database
	db, err := database.New(cfg.Database.ConnectionString())
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	log.Info("Connected to PostgreSQL database")

	applied, err := database.Migrate(cfg.Database.MigrationsPath, cfg.Database.ConnectionString())
	if err != nil {
		log.Fatal("Failed to run database migrations", zap.Error(err))
	}
	if !applied {
		log.Info("No migrations to apply; database is up to date")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	serverMetrics := metrics.NewServer(reg)

	predictor := predict.LoadService(cfg.Models, log)
	opts := []api.Option{api.WithMetrics(serverMetrics)}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Redis is optional
	var cache *redis.Client
	if cfg.Redis.Enabled() {
		cache, err = redis.New(cfg.Redis)
		if err != nil {
			log.Warn("Failed to connect to Redis, continuing without cache", zap.Error(err))
			cache = nil
		} else {
			defer cache.Close()
			opts = append(opts, api.WithCache(cache))
			log.Info("Connected to Redis cache", zap.String("addr", cfg.Redis.Address()))
		}
	}

	// Ingestion events drop cached aggregates written before the run
	var consumer *kafka.IngestionConsumer
	if cfg.Kafka.Enabled() && cache != nil {
		consumer = kafka.NewIngestionConsumer(cfg.Kafka.Brokers, cfg.Kafka.IngestionTopic, cfg.Kafka.ConsumerGroup, cache, log)
		go func() {
			log.Info("Starting Kafka ingestion consumer",
				zap.String("topic", cfg.Kafka.IngestionTopic), zap.String("group", cfg.Kafka.ConsumerGroup))
			if err := consumer.Start(ctx); err != nil {
				log.Error("Kafka consumer error", zap.Error(err))
			}
		}()
	}

	if cfg.Search.Enabled() {
		searcher := search.NewClient(cfg.Search.Host, cfg.Search.APIKey, cfg.Search.Index)
		if err := searcher.InitIndex(); err != nil {
			log.Warn("Failed to initialise search index, /api/search disabled", zap.Error(err))
		} else {
			opts = append(opts, api.WithSearch(searcher))
			log.Info("Meilisearch index ready", zap.String("index", cfg.Search.Index))
		}
	}

	handler := api.NewHandler(db, predictor, log, opts...)
	router := api.SetupRoutes(handler, metrics.Handler(reg))

	addr := cfg.Server.Host + ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      api.CORS(cfg.Server.AllowedOrigins)(router),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("Starting server", zap.String("addr", addr),
			zap.Bool("rent_model", predictor.RentLoaded()), zap.Bool("value_model", predictor.ValueLoaded()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	if consumer != nil {
		if err := consumer.Close(); err != nil {
			log.Error("Error closing Kafka consumer", zap.Error(err))
		}
	}

	log.Info("Server stopped")
}

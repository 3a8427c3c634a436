package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/trogers1052/rental-listing-service/internal/config"
	"github.com/trogers1052/rental-listing-service/internal/database"
	"github.com/trogers1052/rental-listing-service/internal/ingest"
	"github.com/trogers1052/rental-listing-service/internal/kafka"
	"github.com/trogers1052/rental-listing-service/internal/logger"
	"github.com/trogers1052/rental-listing-service/internal/metrics"
	"github.com/trogers1052/rental-listing-service/internal/models"
	"github.com/trogers1052/rental-listing-service/internal/redis"
	"github.com/trogers1052/rental-listing-service/internal/search"
)

func main() {
	file := flag.StringP("file", "f", "data/listings.csv", "CSV file of scraped listings")
	migrate := flag.Bool("migrate", true, "apply pending migrations before loading")
	flag.Parse()

	cfg := config.Load()
	log := logger.MustNew(cfg.Logging.Level, cfg.Logging.Format)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	in, err := os.Open(*file)
	if err != nil {
		log.Fatal("Failed to open listings file", zap.String("file", *file), zap.Error(err))
	}
	defer in.Close()

	db, err := database.New(cfg.Database.ConnectionString())
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if *migrate {
		if _, err := database.Migrate(cfg.Database.MigrationsPath, cfg.Database.ConnectionString()); err != nil {
			log.Fatal("Failed to run database migrations", zap.Error(err))
		}
	}

	reg := prometheus.NewRegistry()
	opts := []ingest.Option{ingest.WithMetrics(metrics.NewIngest(reg))}

	if cfg.Redis.Enabled() {
		cache, err := redis.New(cfg.Redis)
		if err != nil {
			log.Warn("Failed to connect to Redis, cached aggregates will expire on their own", zap.Error(err))
		} else {
			defer cache.Close()
			opts = append(opts, ingest.WithCache(cache))
		}
	}

	if cfg.Kafka.Enabled() {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.IngestionTopic)
		defer producer.Close()
		opts = append(opts, ingest.WithPublisher(producer))
	}

	if cfg.Search.Enabled() {
		indexer := search.NewClient(cfg.Search.Host, cfg.Search.APIKey, cfg.Search.Index)
		if err := indexer.InitIndex(); err != nil {
			log.Warn("Failed to initialise search index, skipping indexing", zap.Error(err))
		} else {
			opts = append(opts, ingest.WithIndexer(indexer))
		}
	}

	job := ingest.NewJob(db, log, opts...)
	report, err := job.Run(ctx, *file, in)
	if err != nil {
		log.Fatal("Ingestion failed", zap.Error(err))
	}

	log.Info("Ingestion complete",
		zap.String("file", report.File),
		zap.Int("rows_read", report.RowsRead),
		zap.Int("inserted", report.Inserted),
		zap.Int("errors", report.Errors),
		zap.Int("stats_computed", report.StatsComputed),
		zap.Int("total_listings", report.TotalListings),
		zap.Duration("elapsed", report.Duration),
	)
	printRentSummary(report.RentSummary)

	pushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := metrics.Push(pushCtx, cfg.Metrics.PushgatewayURL, "rental_listings_ingest", reg); err != nil {
		log.Warn("Failed to push metrics", zap.Error(err))
	}
}

func printRentSummary(rows []models.RentSummary) {
	if len(rows) == 0 {
		return
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "BEDROOMS\tLISTINGS\tAVG RENT\tMIN RENT\tMAX RENT\tAVG SQFT")
	for _, r := range rows {
		fmt.Fprintf(tw, "%d\t%d\t$%.2f\t$%.2f\t$%.2f\t%.0f\n",
			r.Bedrooms, r.NumListings, r.AvgRent, r.MinRent, r.MaxRent, r.AvgSqft)
	}
	tw.Flush()
}

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/trogers1052/rental-listing-service/internal/charts"
	"github.com/trogers1052/rental-listing-service/internal/config"
	"github.com/trogers1052/rental-listing-service/internal/database"
	"github.com/trogers1052/rental-listing-service/internal/ingest"
	"github.com/trogers1052/rental-listing-service/internal/logger"
	"github.com/trogers1052/rental-listing-service/internal/models"
)

func main() {
	out := flag.StringP("out", "o", "charts", "directory for the rendered charts")
	csvPath := flag.String("csv", "", "read listings from a CSV instead of the database")
	flag.Parse()

	cfg := config.Load()
	log := logger.MustNew(cfg.Logging.Level, cfg.Logging.Format)
	defer log.Sync()

	listings, err := loadListings(cfg, *csvPath, log)
	if err != nil {
		log.Fatal("Failed to load listings", zap.Error(err))
	}

	paths, err := charts.Render(listings, *out, log)
	if err != nil {
		log.Fatal("Failed to render charts", zap.Error(err))
	}
	log.Info("Charts complete", zap.Int("files", len(paths)), zap.String("dir", *out))
}

func loadListings(cfg *config.Config, csvPath string, log *zap.Logger) ([]*models.Listing, error) {
	if csvPath != "" {
		f, err := os.Open(csvPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", csvPath, err)
		}
		defer f.Close()
		listings, skipped, err := ingest.ReadAll(f)
		if skipped > 0 {
			log.Warn("Skipped malformed rows", zap.Int("rows", skipped))
		}
		return listings, err
	}

	db, err := database.New(cfg.Database.ConnectionString())
	if err != nil {
		return nil, err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return db.GetAllListings(ctx)
}

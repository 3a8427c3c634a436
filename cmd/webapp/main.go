package main

import (
	"context"
	"fmt"
	"os"
	"time"

	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/trogers1052/rental-listing-service/internal/config"
	"github.com/trogers1052/rental-listing-service/internal/database"
	"github.com/trogers1052/rental-listing-service/internal/ingest"
	"github.com/trogers1052/rental-listing-service/internal/logger"
	"github.com/trogers1052/rental-listing-service/internal/models"
	"github.com/trogers1052/rental-listing-service/internal/webapp"
)

func main() {
	out := flag.StringP("out", "o", "index.html", "path of the generated page")
	csvPath := flag.String("csv", "", "read listings from a CSV instead of the database")
	title := flag.String("title", "Apartment Finder", "page title")
	subtitle := flag.String("subtitle", "Find your next home with data-driven value ratings", "page subtitle")
	flag.Parse()

	cfg := config.Load()
	log := logger.MustNew(cfg.Logging.Level, cfg.Logging.Format)
	defer log.Sync()

	listings, err := loadListings(cfg, *csvPath)
	if err != nil {
		log.Fatal("Failed to load listings", zap.Error(err))
	}

	page := webapp.BuildPage(listings, webapp.Options{Title: *title, Subtitle: *subtitle})
	if err := webapp.WriteFile(*out, page); err != nil {
		log.Fatal("Failed to write page", zap.Error(err))
	}
	log.Info("Generated web page",
		zap.String("path", *out),
		zap.Int("listings", page.Total),
		zap.Int("great_deals", page.GreatDeals),
	)
}

func loadListings(cfg *config.Config, csvPath string) ([]*models.Listing, error) {
	if csvPath != "" {
		f, err := os.Open(csvPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", csvPath, err)
		}
		defer f.Close()
		listings, _, err := ingest.ReadAll(f)
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

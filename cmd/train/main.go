package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/trogers1052/rental-listing-service/internal/config"
	"github.com/trogers1052/rental-listing-service/internal/database"
	"github.com/trogers1052/rental-listing-service/internal/forest"
	"github.com/trogers1052/rental-listing-service/internal/logger"
	"github.com/trogers1052/rental-listing-service/internal/metrics"
	"github.com/trogers1052/rental-listing-service/internal/training"
)

func main() {
	model := flag.StringP("model", "m", "all", "model to train: rent, value or all")
	csvPath := flag.String("csv", "", "train from a listings CSV instead of the database")
	flag.Parse()

	cfg := config.Load()
	log := logger.MustNew(cfg.Logging.Level, cfg.Logging.Format)
	defer log.Sync()

	trainRent, trainValue := false, false
	switch *model {
	case "rent":
		trainRent = true
	case "value":
		trainValue = true
	case "all":
		trainRent, trainValue = true, true
	default:
		log.Fatal("Unknown model, want rent, value or all", zap.String("model", *model))
	}

	samples, err := loadSamples(cfg, *csvPath)
	if err != nil {
		log.Fatal("Failed to load training data", zap.Error(err))
	}
	ds, err := training.Prepare(samples)
	if err != nil {
		log.Fatal("Failed to prepare training data", zap.Error(err))
	}
	log.Info("Prepared training data",
		zap.Int("samples", len(ds.Samples)), zap.Int("dropped", ds.Dropped), zap.Int("imputed", ds.Imputed))

	reg := prometheus.NewRegistry()
	trainer := training.NewTrainer(log, metrics.NewTraining(reg))

	if trainRent {
		if err := runRent(trainer, ds, cfg.Models.RentPredictorPath); err != nil {
			log.Fatal("Rent predictor training failed", zap.Error(err))
		}
		log.Info("Saved rent predictor", zap.String("path", cfg.Models.RentPredictorPath))
	}
	if trainValue {
		if err := runValue(trainer, ds, cfg.Models.ValueClassifierPath); err != nil {
			log.Fatal("Value classifier training failed", zap.Error(err))
		}
		log.Info("Saved value classifier", zap.String("path", cfg.Models.ValueClassifierPath))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := metrics.Push(ctx, cfg.Metrics.PushgatewayURL, "rental_listings_train", reg); err != nil {
		log.Warn("Failed to push metrics", zap.Error(err))
	}
}

func loadSamples(cfg *config.Config, csvPath string) ([]training.Sample, error) {
	if csvPath != "" {
		f, err := os.Open(csvPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", csvPath, err)
		}
		defer f.Close()
		return training.ReadCSV(f)
	}

	db, err := database.New(cfg.Database.ConnectionString())
	if err != nil {
		return nil, err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	listings, err := db.GetAllListings(ctx)
	if err != nil {
		return nil, err
	}
	return training.FromListings(listings), nil
}

func runRent(trainer *training.Trainer, ds *training.Dataset, path string) error {
	model, summary, err := trainer.TrainRent(ds, training.RentParams())
	if err != nil {
		return err
	}
	if err := forest.SaveFile(path, model); err != nil {
		return err
	}
	if err := training.WriteSummary(training.SummaryPath(path), summary); err != nil {
		return err
	}

	fmt.Printf("Rent predictor: test MAE $%.2f, RMSE $%.2f, R² %.4f\n",
		summary.Test.MAE, summary.Test.RMSE, summary.Test.R2)
	predictions, err := training.PredictExamples(model)
	if err != nil {
		return err
	}
	for i, e := range training.RentExamples {
		fmt.Printf("  %d BR, %.1f BA, %d sqft -> $%.2f/month\n", e.Bedrooms, e.Bathrooms, e.Sqft, predictions[i])
	}
	return nil
}

func runValue(trainer *training.Trainer, ds *training.Dataset, path string) error {
	model, summary, err := trainer.TrainValue(ds, training.ValueParams())
	if err != nil {
		return err
	}
	if err := forest.SaveFile(path, model); err != nil {
		return err
	}
	if err := training.WriteSummary(training.SummaryPath(path), summary); err != nil {
		return err
	}

	fmt.Printf("Value classifier: test accuracy %.2f%%\n", summary.Test.Accuracy*100)
	for _, c := range summary.Categories {
		fmt.Printf("  %-12s %d listings\n", c, summary.Distribution[c])
	}
	labels, err := training.ClassifyExamples(model)
	if err != nil {
		return err
	}
	for i, e := range training.ValueExamples {
		fmt.Printf("  %d BR, %.1f BA, %d sqft at $%.0f -> %s\n", e.Bedrooms, e.Bathrooms, e.Sqft, e.Rent, labels[i])
	}
	return nil
}

package training

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/trogers1052/rental-listing-service/internal/forest"
	"github.com/trogers1052/rental-listing-service/internal/metrics"
	"github.com/trogers1052/rental-listing-service/internal/valuation"
)

// Model names used in logs, summaries and metric labels
const (
	RentModel  = "rent_predictor"
	ValueModel = "value_classifier"
)

const (
	TestFraction = 0.2
	Seed         = 42
)

// RentParams are the rent predictor hyperparameters
func RentParams() forest.Params {
	return forest.Params{NTrees: 100, MaxDepth: 10, MinSamplesSplit: 5, Seed: Seed}
}

// ValueParams are the value classifier hyperparameters
func ValueParams() forest.Params {
	return forest.Params{NTrees: 100, MaxDepth: 10, MinSamplesSplit: 3, Seed: Seed}
}

// RentExample is a fixed input printed after training the rent predictor
type RentExample struct {
	Bedrooms  int
	Bathrooms float64
	Sqft      int
}

// ValueExample is a fixed input printed after training the value classifier
type ValueExample struct {
	Bedrooms  int
	Bathrooms float64
	Sqft      int
	Rent      float64
}

var RentExamples = []RentExample{
	{1, 1, 700},
	{2, 1, 900},
	{2, 2, 1100},
	{3, 2, 1300},
}

var ValueExamples = []ValueExample{
	{1, 1, 700, 1500},
	{2, 1, 900, 1800},
	{2, 2, 1100, 2500},
	{2, 2, 1100, 3500},
}

// SplitSizes records how many samples each split holds
type SplitSizes struct {
	Train int `yaml:"train"`
	Test  int `yaml:"test"`
}

// RentSummary is written next to the rent predictor artifact
type RentSummary struct {
	Model             string             `yaml:"model"`
	ModelType         string             `yaml:"model_type"`
	TrainedAt         time.Time          `yaml:"trained_at"`
	Params            ParamsSummary      `yaml:"params"`
	Features          []string           `yaml:"features"`
	Samples           SplitSizes         `yaml:"samples"`
	Imputed           int                `yaml:"imputed_values"`
	Train             RegressionMetrics  `yaml:"train"`
	Test              RegressionMetrics  `yaml:"test"`
	FeatureImportance map[string]float64 `yaml:"feature_importance"`
}

// ValueSummary is written next to the value classifier artifact
type ValueSummary struct {
	Model             string                `yaml:"model"`
	ModelType         string                `yaml:"model_type"`
	TrainedAt         time.Time             `yaml:"trained_at"`
	Params            ParamsSummary         `yaml:"params"`
	Features          []string              `yaml:"features"`
	Categories        []string              `yaml:"categories"`
	Distribution      map[string]int        `yaml:"distribution"`
	Samples           SplitSizes            `yaml:"samples"`
	Imputed           int                   `yaml:"imputed_values"`
	Train             ClassificationMetrics `yaml:"train"`
	Test              ClassificationMetrics `yaml:"test"`
	FeatureImportance map[string]float64    `yaml:"feature_importance"`
}

// ParamsSummary mirrors forest.Params for summary files
type ParamsSummary struct {
	NTrees          int   `yaml:"n_trees"`
	MaxDepth        int   `yaml:"max_depth"`
	MinSamplesSplit int   `yaml:"min_samples_split"`
	Seed            int64 `yaml:"seed"`
}

func summariseParams(p forest.Params) ParamsSummary {
	return ParamsSummary{NTrees: p.NTrees, MaxDepth: p.MaxDepth, MinSamplesSplit: p.MinSamplesSplit, Seed: p.Seed}
}

func importanceMap(names []string, values []float64) map[string]float64 {
	out := make(map[string]float64, len(names))
	for i, n := range names {
		if i < len(values) {
			out[n] = math.Round(values[i]*10000) / 10000
		}
	}
	return out
}

// Trainer fits the two models and records their evaluation
type Trainer struct {
	log     *zap.Logger
	metrics *metrics.Training
}

// NewTrainer creates a trainer. m may be nil.
func NewTrainer(log *zap.Logger, m *metrics.Training) *Trainer {
	return &Trainer{log: log, metrics: m}
}

// TrainRent fits the rent predictor on an 80/20 split of ds
func (t *Trainer) TrainRent(ds *Dataset, p forest.Params) (*forest.Regressor, *RentSummary, error) {
	start := time.Now()
	x, y := ds.RentMatrix()

	trainIdx, testIdx, err := Split(len(x), TestFraction, p.Seed)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to split rent data: %w", err)
	}
	xTrain, yTrain := selectRows(x, trainIdx), selectFloats(y, trainIdx)
	xTest, yTest := selectRows(x, testIdx), selectFloats(y, testIdx)

	model := forest.NewRegressor(p)
	if err := model.Fit(xTrain, yTrain); err != nil {
		return nil, nil, fmt.Errorf("failed to fit rent predictor: %w", err)
	}

	predTrain, err := model.PredictAll(xTrain)
	if err != nil {
		return nil, nil, err
	}
	predTest, err := model.PredictAll(xTest)
	if err != nil {
		return nil, nil, err
	}

	summary := &RentSummary{
		Model:             RentModel,
		ModelType:         "RandomForestRegressor",
		TrainedAt:         time.Now().UTC(),
		Params:            summariseParams(p),
		Features:          RentFeatures,
		Samples:           SplitSizes{Train: len(trainIdx), Test: len(testIdx)},
		Imputed:           ds.Imputed,
		Train:             EvaluateRegression(yTrain, predTrain),
		Test:              EvaluateRegression(yTest, predTest),
		FeatureImportance: importanceMap(RentFeatures, model.FeatureImportances()),
	}

	t.log.Info("Trained rent predictor",
		zap.Int("train", summary.Samples.Train),
		zap.Int("test", summary.Samples.Test),
		zap.Float64("test_mae", summary.Test.MAE),
		zap.Float64("test_rmse", summary.Test.RMSE),
		zap.Float64("test_r2", summary.Test.R2),
		zap.Duration("elapsed", time.Since(start)),
	)

	if t.metrics != nil {
		for split, m := range map[string]RegressionMetrics{"train": summary.Train, "test": summary.Test} {
			t.metrics.Score.WithLabelValues(RentModel, split, "mae").Set(m.MAE)
			t.metrics.Score.WithLabelValues(RentModel, split, "rmse").Set(m.RMSE)
			t.metrics.Score.WithLabelValues(RentModel, split, "r2").Set(m.R2)
		}
		t.metrics.Samples.WithLabelValues(RentModel, "train").Set(float64(summary.Samples.Train))
		t.metrics.Samples.WithLabelValues(RentModel, "test").Set(float64(summary.Samples.Test))
		t.metrics.Duration.WithLabelValues(RentModel).Set(time.Since(start).Seconds())
	}

	return model, summary, nil
}

// TrainValue fits the value classifier on a stratified 80/20 split of ds
func (t *Trainer) TrainValue(ds *Dataset, p forest.Params) (*forest.Classifier, *ValueSummary, error) {
	start := time.Now()
	x, labels := ds.ValueMatrix()

	trainIdx, testIdx, err := StratifiedSplit(labels, TestFraction, p.Seed)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to split value data: %w", err)
	}
	xTrain, yTrain := selectRows(x, trainIdx), selectStrings(labels, trainIdx)
	xTest, yTest := selectRows(x, testIdx), selectStrings(labels, testIdx)

	model := forest.NewClassifier(p)
	if err := model.Fit(xTrain, yTrain); err != nil {
		return nil, nil, fmt.Errorf("failed to fit value classifier: %w", err)
	}

	predTrain, err := model.PredictAll(xTrain)
	if err != nil {
		return nil, nil, err
	}
	predTest, err := model.PredictAll(xTest)
	if err != nil {
		return nil, nil, err
	}

	categories := make([]string, len(valuation.Categories))
	for i, c := range valuation.Categories {
		categories[i] = string(c)
	}
	distribution := make(map[string]int, len(categories))
	for _, l := range labels {
		distribution[l]++
	}

	summary := &ValueSummary{
		Model:             ValueModel,
		ModelType:         "RandomForestClassifier",
		TrainedAt:         time.Now().UTC(),
		Params:            summariseParams(p),
		Features:          ValueFeatures,
		Categories:        categories,
		Distribution:      distribution,
		Samples:           SplitSizes{Train: len(trainIdx), Test: len(testIdx)},
		Imputed:           ds.Imputed,
		Train:             EvaluateClassification(categories, yTrain, predTrain),
		Test:              EvaluateClassification(categories, yTest, predTest),
		FeatureImportance: importanceMap(ValueFeatures, model.FeatureImportances()),
	}

	t.log.Info("Trained value classifier",
		zap.Int("train", summary.Samples.Train),
		zap.Int("test", summary.Samples.Test),
		zap.Float64("train_accuracy", summary.Train.Accuracy),
		zap.Float64("test_accuracy", summary.Test.Accuracy),
		zap.Any("distribution", distribution),
		zap.Duration("elapsed", time.Since(start)),
	)

	if t.metrics != nil {
		t.metrics.Score.WithLabelValues(ValueModel, "train", "accuracy").Set(summary.Train.Accuracy)
		t.metrics.Score.WithLabelValues(ValueModel, "test", "accuracy").Set(summary.Test.Accuracy)
		t.metrics.Samples.WithLabelValues(ValueModel, "train").Set(float64(summary.Samples.Train))
		t.metrics.Samples.WithLabelValues(ValueModel, "test").Set(float64(summary.Samples.Test))
		t.metrics.Duration.WithLabelValues(ValueModel).Set(time.Since(start).Seconds())
	}

	return model, summary, nil
}

// PredictExamples runs the fixed rent examples through model
func PredictExamples(model *forest.Regressor) ([]float64, error) {
	out := make([]float64, len(RentExamples))
	for i, e := range RentExamples {
		v, err := model.Predict([]float64{float64(e.Bedrooms), e.Bathrooms, float64(e.Sqft)})
		if err != nil {
			return nil, err
		}
		out[i] = math.Round(v*100) / 100
	}
	return out, nil
}

// ClassifyExamples runs the fixed value examples through model
func ClassifyExamples(model *forest.Classifier) ([]string, error) {
	out := make([]string, len(ValueExamples))
	for i, e := range ValueExamples {
		v, err := model.Predict([]float64{float64(e.Bedrooms), e.Bathrooms, float64(e.Sqft), e.Rent / float64(e.Sqft)})
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// WriteSummary writes v as YAML to path
func WriteSummary(path string, v interface{}) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create summary directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write summary %s: %w", path, err)
	}
	return nil
}

// SummaryPath returns the summary file that accompanies a model artifact
func SummaryPath(modelPath string) string {
	ext := filepath.Ext(modelPath)
	return modelPath[:len(modelPath)-len(ext)] + "_summary.yaml"
}

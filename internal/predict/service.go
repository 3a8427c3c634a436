// Package predict holds the models loaded once at server start. The service
// is read-only after construction and safe for concurrent use.
package predict

import (
	"errors"
	"math"

	"go.uber.org/zap"

	"github.com/trogers1052/rental-listing-service/internal/config"
	"github.com/trogers1052/rental-listing-service/internal/forest"
	"github.com/trogers1052/rental-listing-service/internal/valuation"
)

// ErrModelNotLoaded is returned when the requested model failed to load at startup
var ErrModelNotLoaded = errors.New("model not loaded")

// Service answers rent predictions and value classifications
type Service struct {
	rent  *forest.Regressor
	value *forest.Classifier
}

// NewService wraps already-loaded models. Either may be nil.
func NewService(rent *forest.Regressor, value *forest.Classifier) *Service {
	return &Service{rent: rent, value: value}
}

// LoadService loads both model artifacts. A model that fails to load is
// logged and left unavailable; the other still serves.
func LoadService(cfg config.ModelsConfig, log *zap.Logger) *Service {
	s := &Service{}

	rent, err := forest.LoadRegressor(cfg.RentPredictorPath)
	if err != nil {
		log.Warn("Rent predictor not loaded", zap.String("path", cfg.RentPredictorPath), zap.Error(err))
	} else {
		s.rent = rent
		log.Info("Rent predictor loaded", zap.String("path", cfg.RentPredictorPath), zap.Int("trees", len(rent.Trees)))
	}

	value, err := forest.LoadClassifier(cfg.ValueClassifierPath)
	if err != nil {
		log.Warn("Value classifier not loaded", zap.String("path", cfg.ValueClassifierPath), zap.Error(err))
	} else {
		s.value = value
		log.Info("Value classifier loaded", zap.String("path", cfg.ValueClassifierPath), zap.Strings("classes", value.Classes))
	}

	return s
}

// RentLoaded reports whether the rent predictor is available
func (s *Service) RentLoaded() bool {
	return s.rent != nil
}

// ValueLoaded reports whether the value classifier is available
func (s *Service) ValueLoaded() bool {
	return s.value != nil
}

// PredictRent returns the predicted monthly rent rounded to cents
func (s *Service) PredictRent(bedrooms int, bathrooms float64, sqft int) (float64, error) {
	if s.rent == nil {
		return 0, ErrModelNotLoaded
	}
	v, err := s.rent.Predict([]float64{float64(bedrooms), bathrooms, float64(sqft)})
	if err != nil {
		return 0, err
	}
	return math.Round(v*100) / 100, nil
}

// ClassifyValue returns the value category of a unit renting for rent
func (s *Service) ClassifyValue(bedrooms int, bathrooms float64, sqft int, rent float64) (valuation.Category, error) {
	if s.value == nil {
		return "", ErrModelNotLoaded
	}
	label, err := s.value.Predict([]float64{float64(bedrooms), bathrooms, float64(sqft), rent / float64(sqft)})
	if err != nil {
		return "", err
	}
	return valuation.ParseCategory(label)
}

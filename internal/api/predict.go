package api

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"

	"go.uber.org/zap"

	"github.com/trogers1052/rental-listing-service/internal/predict"
)

// PredictRequest is the body of POST /api/predict. Fields are pointers so a
// missing field can be told apart from zero.
type PredictRequest struct {
	Bedrooms  *float64 `json:"bedrooms"`
	Bathrooms *float64 `json:"bathrooms"`
	Sqft      *float64 `json:"sqft"`
	Rent      *float64 `json:"rent"`
}

type predictInputs struct {
	Bedrooms  int      `json:"bedrooms"`
	Bathrooms float64  `json:"bathrooms"`
	Sqft      int      `json:"sqft"`
	Rent      *float64 `json:"rent,omitempty"`
}

type predictResponse struct {
	Success       bool          `json:"success"`
	PredictedRent float64       `json:"predicted_rent"`
	ValueCategory *string       `json:"value_category"`
	Inputs        predictInputs `json:"inputs"`
}

// validate checks the request and returns the normalised inputs
func (req PredictRequest) validate() (predictInputs, string) {
	switch {
	case req.Bedrooms == nil:
		return predictInputs{}, "Missing required field: bedrooms"
	case req.Bathrooms == nil:
		return predictInputs{}, "Missing required field: bathrooms"
	case req.Sqft == nil:
		return predictInputs{}, "Missing required field: sqft"
	}

	if !wholeNumber(*req.Bedrooms) || *req.Bedrooms < 0 || *req.Bedrooms > math.MaxInt32 {
		return predictInputs{}, "bedrooms must be a non-negative whole number"
	}
	if math.IsNaN(*req.Bathrooms) || *req.Bathrooms < 0 {
		return predictInputs{}, "bathrooms must not be negative"
	}
	// int conversion of larger values is implementation defined
	if !wholeNumber(*req.Sqft) || *req.Sqft <= 0 || *req.Sqft > math.MaxInt32 {
		return predictInputs{}, "sqft must be a positive whole number"
	}
	if req.Rent != nil && (math.IsNaN(*req.Rent) || *req.Rent <= 0) {
		return predictInputs{}, "rent must be positive"
	}

	return predictInputs{
		Bedrooms:  int(*req.Bedrooms),
		Bathrooms: *req.Bathrooms,
		Sqft:      int(*req.Sqft),
		Rent:      req.Rent,
	}, ""
}

// Predict handles POST /api/predict
func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	var req PredictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	in, problem := req.validate()
	if problem != "" {
		respondError(w, http.StatusBadRequest, problem)
		return
	}

	rent, err := h.predictor.PredictRent(in.Bedrooms, in.Bathrooms, in.Sqft)
	h.metrics.ObservePrediction("rent_predictor", err)
	if errors.Is(err, predict.ErrModelNotLoaded) {
		respondError(w, http.StatusInternalServerError, "Rent prediction model not loaded")
		return
	}
	if err != nil {
		h.serverError(w, r, "Prediction failed", err)
		return
	}

	resp := predictResponse{Success: true, PredictedRent: rent, Inputs: in}

	if in.Rent != nil && h.predictor.ValueLoaded() {
		category, err := h.predictor.ClassifyValue(in.Bedrooms, in.Bathrooms, in.Sqft, *in.Rent)
		h.metrics.ObservePrediction("value_classifier", err)
		if err != nil {
			h.log.Warn("Value classification failed", zap.Error(err))
		} else {
			label := string(category)
			resp.ValueCategory = &label
		}
	}

	respondJSON(w, http.StatusOK, resp)
}

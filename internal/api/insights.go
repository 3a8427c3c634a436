package api

import (
	"net/http"

	"github.com/trogers1052/rental-listing-service/internal/models"
	"github.com/trogers1052/rental-listing-service/internal/redis"
)

func respondResults(w http.ResponseWriter, count int, results interface{}) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"count":   count,
		"results": results,
	})
}

// GetCheapest handles GET /api/insights/cheapest
func (h *Handler) GetCheapest(w http.ResponseWriter, r *http.Request) {
	key := redis.InsightKey("cheapest")
	var results []models.CheapestListing
	if !h.fromCache(r.Context(), key, &results) {
		var err error
		if results, err = h.repo.GetCheapestByBedrooms(r.Context()); err != nil {
			h.serverError(w, r, "Failed to load cheapest listings", err)
			return
		}
		h.toCache(r.Context(), key, results)
	}
	respondResults(w, len(results), results)
}

// GetAboveAverage handles GET /api/insights/above-average
func (h *Handler) GetAboveAverage(w http.ResponseWriter, r *http.Request) {
	key := redis.InsightKey("above_average")
	var results []models.AboveAverageCounts
	if !h.fromCache(r.Context(), key, &results) {
		var err error
		if results, err = h.repo.GetAboveAverageCounts(r.Context()); err != nil {
			h.serverError(w, r, "Failed to load above-average counts", err)
			return
		}
		h.toCache(r.Context(), key, results)
	}
	respondResults(w, len(results), results)
}

// GetPricePerSqft handles GET /api/insights/price-per-sqft
func (h *Handler) GetPricePerSqft(w http.ResponseWriter, r *http.Request) {
	limit, err := limitParam(r.URL.Query(), 5)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	key := redis.InsightKey("price_per_sqft", limit)
	var results []models.PricePerSqftLeader
	if !h.fromCache(r.Context(), key, &results) {
		if results, err = h.repo.GetTopPricePerSqft(r.Context(), limit); err != nil {
			h.serverError(w, r, "Failed to load price per square foot", err)
			return
		}
		h.toCache(r.Context(), key, results)
	}
	respondResults(w, len(results), results)
}

// GetSourceComparison handles GET /api/insights/sources
func (h *Handler) GetSourceComparison(w http.ResponseWriter, r *http.Request) {
	key := redis.InsightKey("sources")
	var results []models.SourceComparison
	if !h.fromCache(r.Context(), key, &results) {
		var err error
		if results, err = h.repo.GetSourceComparison(r.Context()); err != nil {
			h.serverError(w, r, "Failed to load source comparison", err)
			return
		}
		h.toCache(r.Context(), key, results)
	}
	respondResults(w, len(results), results)
}

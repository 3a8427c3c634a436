package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/trogers1052/rental-listing-service/internal/database"
	"github.com/trogers1052/rental-listing-service/internal/metrics"
	"github.com/trogers1052/rental-listing-service/internal/models"
	"github.com/trogers1052/rental-listing-service/internal/redis"
	"github.com/trogers1052/rental-listing-service/internal/search"
	"github.com/trogers1052/rental-listing-service/internal/valuation"
)

// Repository is the read side of the listing store used by the handlers
type Repository interface {
	Ping(ctx context.Context) error
	FindListings(ctx context.Context, f models.ListingFilter) ([]*models.ListingWithStats, error)
	GetListingByID(ctx context.Context, id int) (*models.Listing, error)
	GetListingStats(ctx context.Context, listingID int) (*models.ListingStats, error)
	GetStatsSummary(ctx context.Context) (*models.StatsSummary, error)
	GetBestDeals(ctx context.Context, minScore float64, limit int) ([]*models.ListingWithStats, error)
	GetSources(ctx context.Context) ([]models.SourceCount, error)
	GetCheapestByBedrooms(ctx context.Context) ([]models.CheapestListing, error)
	GetAboveAverageCounts(ctx context.Context) ([]models.AboveAverageCounts, error)
	GetTopPricePerSqft(ctx context.Context, limit int) ([]models.PricePerSqftLeader, error)
	GetSourceComparison(ctx context.Context) ([]models.SourceComparison, error)
}

// Predictor answers model predictions
type Predictor interface {
	RentLoaded() bool
	ValueLoaded() bool
	PredictRent(bedrooms int, bathrooms float64, sqft int) (float64, error)
	ClassifyValue(bedrooms int, bathrooms float64, sqft int, rent float64) (valuation.Category, error)
}

// Cache stores aggregate responses
type Cache interface {
	Ping(ctx context.Context) error
	GetJSON(ctx context.Context, key string, dest interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}) error
}

// Searcher runs full-text listing searches
type Searcher interface {
	Search(q search.Query) ([]search.Document, error)
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	repo      Repository
	predictor Predictor
	cache     Cache
	searcher  Searcher
	metrics   *metrics.Server
	log       *zap.Logger
}

// Option configures optional Handler dependencies
type Option func(*Handler)

// WithCache enables the read-through cache for aggregate endpoints
func WithCache(c Cache) Option {
	return func(h *Handler) { h.cache = c }
}

// WithSearch enables GET /api/search
func WithSearch(s Searcher) Option {
	return func(h *Handler) { h.searcher = s }
}

// WithMetrics records request and prediction metrics
func WithMetrics(m *metrics.Server) Option {
	return func(h *Handler) { h.metrics = m }
}

// NewHandler creates a new Handler
func NewHandler(repo Repository, predictor Predictor, log *zap.Logger, opts ...Option) *Handler {
	h := &Handler{
		repo:      repo,
		predictor: predictor,
		log:       log,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// HealthCheck handles GET /api/health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	services := map[string]string{}

	if err := h.repo.Ping(ctx); err != nil {
		services["postgres"] = "unhealthy"
		h.log.Warn("Health check: postgres unreachable", zap.Error(err))
	} else {
		services["postgres"] = "healthy"
	}

	if h.cache != nil {
		if err := h.cache.Ping(ctx); err != nil {
			services["redis"] = "unhealthy"
		} else {
			services["redis"] = "healthy"
		}
	} else {
		services["redis"] = "not configured"
	}

	if h.searcher != nil {
		services["search"] = "configured"
	} else {
		services["search"] = "not configured"
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Rental listing API is running",
		"models_loaded": map[string]bool{
			"rent_predictor":   h.predictor.RentLoaded(),
			"value_classifier": h.predictor.ValueLoaded(),
		},
		"services":  services,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// GetListings handles GET /api/listings
func (h *Handler) GetListings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var filter models.ListingFilter
	var err error

	if filter.Bedrooms, err = optionalInt(q, "bedrooms", 0); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if filter.MinRent, err = optionalDecimal(q, "min_rent"); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if filter.MaxRent, err = optionalDecimal(q, "max_rent"); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	filter.Source = q.Get("source")

	listings, err := h.repo.FindListings(r.Context(), filter)
	if err != nil {
		h.serverError(w, r, "Failed to load listings", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"count":    len(listings),
		"listings": listings,
	})
}

// GetListing handles GET /api/listings/{id}
func (h *Handler) GetListing(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || id < 1 {
		respondError(w, http.StatusBadRequest, "id must be a positive integer")
		return
	}

	listing, err := h.repo.GetListingByID(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Listing not found")
		return
	}
	if err != nil {
		h.serverError(w, r, "Failed to load listing", err)
		return
	}

	stats, err := h.repo.GetListingStats(r.Context(), id)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		h.serverError(w, r, "Failed to load listing statistics", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"listing": listing,
		"stats":   stats,
	})
}

type statsResponse struct {
	Success bool `json:"success"`
	*models.StatsSummary
}

// GetStats handles GET /api/stats
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	var summary models.StatsSummary
	if h.fromCache(r.Context(), redis.KeyStats, &summary) {
		respondJSON(w, http.StatusOK, statsResponse{Success: true, StatsSummary: &summary})
		return
	}

	loaded, err := h.repo.GetStatsSummary(r.Context())
	if err != nil {
		h.serverError(w, r, "Failed to load statistics", err)
		return
	}
	h.toCache(r.Context(), redis.KeyStats, loaded)

	respondJSON(w, http.StatusOK, statsResponse{Success: true, StatsSummary: loaded})
}

// GetBestDeals handles GET /api/best-deals
func (h *Handler) GetBestDeals(w http.ResponseWriter, r *http.Request) {
	limit, err := limitParam(r.URL.Query(), 10)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	deals, err := h.repo.GetBestDeals(r.Context(), valuation.BestDealMinScore, limit)
	if err != nil {
		h.serverError(w, r, "Failed to load best deals", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"count":      len(deals),
		"best_deals": deals,
	})
}

// GetSources handles GET /api/sources
func (h *Handler) GetSources(w http.ResponseWriter, r *http.Request) {
	var sources []models.SourceCount
	if !h.fromCache(r.Context(), redis.KeySources, &sources) {
		var err error
		sources, err = h.repo.GetSources(r.Context())
		if err != nil {
			h.serverError(w, r, "Failed to load sources", err)
			return
		}
		h.toCache(r.Context(), redis.KeySources, sources)
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"sources": sources,
	})
}

// Search handles GET /api/search
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	if h.searcher == nil {
		respondError(w, http.StatusServiceUnavailable, "Search is not configured")
		return
	}

	q := r.URL.Query()
	query := search.Query{Text: q.Get("q"), Source: q.Get("source")}
	var err error

	if query.Bedrooms, err = optionalInt(q, "bedrooms", 0); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if query.MinRent, err = optionalFloat(q, "min_rent"); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if query.MaxRent, err = optionalFloat(q, "max_rent"); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	limit, err := limitParam(q, 20)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	query.Limit = int64(limit)

	results, err := h.searcher.Search(query)
	if err != nil {
		h.serverError(w, r, "Search failed", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"count":   len(results),
		"results": results,
	})
}

// fromCache loads key into dest and reports whether it was found
func (h *Handler) fromCache(ctx context.Context, key string, dest interface{}) bool {
	if h.cache == nil {
		return false
	}
	hit, err := h.cache.GetJSON(ctx, key, dest)
	if err != nil {
		h.log.Warn("Cache read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	h.metrics.ObserveCache(key, hit)
	return hit
}

func (h *Handler) toCache(ctx context.Context, key string, value interface{}) {
	if h.cache == nil {
		return
	}
	if err := h.cache.SetJSON(ctx, key, value); err != nil {
		h.log.Warn("Cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// serverError logs err and returns a generic 500 to the client
func (h *Handler) serverError(w http.ResponseWriter, r *http.Request, message string, err error) {
	h.log.Error(message,
		zap.String("path", r.URL.Path),
		zap.String("request_id", RequestIDFromContext(r.Context())),
		zap.Error(err),
	)
	respondError(w, http.StatusInternalServerError, message)
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]interface{}{
		"success": false,
		"error":   message,
	})
}

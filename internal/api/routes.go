package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

// SetupRoutes configures all API routes. metricsHandler is mounted at
// /metrics when non-nil.
func SetupRoutes(handler *Handler, metricsHandler http.Handler) *mux.Router {
	r := mux.NewRouter()
	r.Use(RequestID, Instrument(handler.log, handler.metrics))

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler).Methods("GET")
	}

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	// Listing routes
	api.HandleFunc("/listings", handler.GetListings).Methods("GET")
	api.HandleFunc("/listings/{id:[0-9]+}", handler.GetListing).Methods("GET")
	api.HandleFunc("/stats", handler.GetStats).Methods("GET")
	api.HandleFunc("/best-deals", handler.GetBestDeals).Methods("GET")
	api.HandleFunc("/sources", handler.GetSources).Methods("GET")
	api.HandleFunc("/search", handler.Search).Methods("GET")

	// Model routes
	api.HandleFunc("/predict", handler.Predict).Methods("POST")

	// Insight routes
	api.HandleFunc("/insights/cheapest", handler.GetCheapest).Methods("GET")
	api.HandleFunc("/insights/above-average", handler.GetAboveAverage).Methods("GET")
	api.HandleFunc("/insights/price-per-sqft", handler.GetPricePerSqft).Methods("GET")
	api.HandleFunc("/insights/sources", handler.GetSourceComparison).Methods("GET")

	return r
}

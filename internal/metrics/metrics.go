// Package metrics holds the Prometheus collectors for the API server and the
// offline jobs. Collectors are registered on an explicit registerer so tests
// and batch jobs can use a private registry.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"
)

const namespace = "rental_listings"

// Server captures HTTP and prediction signals of the API process
type Server struct {
	requests    *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	predictions *prometheus.CounterVec
	cache       *prometheus.CounterVec
}

// NewServer registers the API collectors on reg
func NewServer(reg prometheus.Registerer) *Server {
	m := &Server{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictions_total",
			Help:      "Model predictions served, by model and outcome.",
		}, []string{"model", "outcome"}),
		cache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Aggregate cache lookups by key and result.",
		}, []string{"key", "result"}),
	}
	reg.MustRegister(m.requests, m.latency, m.predictions, m.cache)
	return m
}

// ObserveRequest records one served request
func (m *Server) ObserveRequest(route, method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.latency.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

// ObservePrediction records one model invocation
func (m *Server) ObservePrediction(model string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.predictions.WithLabelValues(model, outcome).Inc()
}

// ObserveCache records a cache hit or miss
func (m *Server) ObserveCache(key string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cache.WithLabelValues(key, result).Inc()
}

// Ingest captures the outcome of an ingestion run
type Ingest struct {
	Rows          *prometheus.CounterVec
	TotalListings prometheus.Gauge
	Duration      prometheus.Gauge
	LastSuccess   prometheus.Gauge
}

// NewIngest registers the ingestion collectors on reg
func NewIngest(reg prometheus.Registerer) *Ingest {
	m := &Ingest{
		Rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "rows_total",
			Help:      "Input rows by result (inserted, error).",
		}, []string{"result"}),
		TotalListings: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "listings",
			Help:      "Listings in the store after the run.",
		}),
		Duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "duration_seconds",
			Help:      "Wall time of the last run.",
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run.",
		}),
	}
	reg.MustRegister(m.Rows, m.TotalListings, m.Duration, m.LastSuccess)
	return m
}

// Training captures the evaluation metrics of the training jobs
type Training struct {
	Score    *prometheus.GaugeVec
	Samples  *prometheus.GaugeVec
	Duration *prometheus.GaugeVec
}

// NewTraining registers the training collectors on reg
func NewTraining(reg prometheus.Registerer) *Training {
	m := &Training{
		Score: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "training",
			Name:      "score",
			Help:      "Evaluation metric of a trained model by split.",
		}, []string{"model", "split", "metric"}),
		Samples: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "training",
			Name:      "samples",
			Help:      "Samples used per split.",
		}, []string{"model", "split"}),
		Duration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "training",
			Name:      "duration_seconds",
			Help:      "Wall time of the fit.",
		}, []string{"model"}),
	}
	reg.MustRegister(m.Score, m.Samples, m.Duration)
	return m
}

// Handler exposes the collectors gathered by g
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// Push sends the registry to a Pushgateway. An empty endpoint is a no-op.
func Push(ctx context.Context, endpoint, job string, g prometheus.Gatherer) error {
	if strings.TrimSpace(endpoint) == "" {
		return nil
	}
	if strings.TrimSpace(job) == "" {
		return errors.New("pushgateway job is required")
	}
	return push.New(endpoint, job).Gatherer(g).PushContext(ctx)
}

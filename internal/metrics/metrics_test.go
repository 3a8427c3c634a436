package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServer_ObserveRequest(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewServer(reg)

	m.ObserveRequest("/api/listings", http.MethodGet, 200, 15*time.Millisecond)
	m.ObserveRequest("/api/listings", http.MethodGet, 200, 5*time.Millisecond)
	m.ObserveRequest("/api/listings", http.MethodGet, 400, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("/api/listings", "GET", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("/api/listings", "GET", "400")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.latency))
}

func TestServer_ObservePrediction(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewServer(reg)

	m.ObservePrediction("rent_predictor", nil)
	m.ObservePrediction("value_classifier", errors.New("not loaded"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.predictions.WithLabelValues("rent_predictor", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.predictions.WithLabelValues("value_classifier", "error")))
}

func TestServer_NilIsNoop(t *testing.T) {
	var m *Server
	assert.NotPanics(t, func() {
		m.ObserveRequest("/", "GET", 200, time.Second)
		m.ObservePrediction("rent_predictor", nil)
		m.ObserveCache("stats", true)
	})
}

func TestIngest_Rows(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewIngest(reg)

	m.Rows.WithLabelValues("inserted").Add(8)
	m.Rows.WithLabelValues("error").Add(2)
	m.TotalListings.Set(16)

	assert.Equal(t, 8.0, testutil.ToFloat64(m.Rows.WithLabelValues("inserted")))
	assert.Equal(t, 16.0, testutil.ToFloat64(m.TotalListings))
}

func TestHandler_ExposesRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewTraining(reg)
	m.Score.WithLabelValues("rent_predictor", "test", "mae").Set(120.5)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "rental_listings_training_score"))
}

func TestPush_EmptyEndpointIsNoop(t *testing.T) {
	require.NoError(t, Push(context.Background(), "", "ingest", prometheus.NewRegistry()))
}

func TestPush_SendsToGateway(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	reg := prometheus.NewRegistry()
	m := NewIngest(reg)
	m.TotalListings.Set(3)

	require.NoError(t, Push(context.Background(), srv.URL, "ingest", reg))
	assert.Equal(t, "/metrics/job/ingest", gotPath)
}

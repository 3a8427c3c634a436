// Package ingest loads listings from a CSV file into the store and rebuilds
// the derived statistics for the whole table.
package ingest

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/trogers1052/rental-listing-service/internal/metrics"
	"github.com/trogers1052/rental-listing-service/internal/models"
)

// Store is the persistence the ingestion job needs
type Store interface {
	InsertListing(ctx context.Context, l *models.Listing) error
	GetAllListings(ctx context.Context) ([]*models.Listing, error)
	ReplaceAllListingStats(ctx context.Context, stats []*models.ListingStats) error
	GetRentSummary(ctx context.Context) ([]models.RentSummary, error)
}

// Invalidator drops cached aggregates
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// Publisher announces a completed run
type Publisher interface {
	PublishIngestion(ctx context.Context, event models.IngestionEvent) error
}

// Indexer mirrors the listing table into a search index
type Indexer interface {
	IndexListings(listings []*models.Listing) error
}

// Report is the outcome of one ingestion run
type Report struct {
	File          string
	RowsRead      int
	Inserted      int
	Errors        int
	StatsComputed int
	TotalListings int
	RentSummary   []models.RentSummary
	Duration      time.Duration
}

// Job runs ingestion against a store
type Job struct {
	store     Store
	log       *zap.Logger
	metrics   *metrics.Ingest
	cache     Invalidator
	publisher Publisher
	indexer   Indexer
}

// Option configures optional collaborators of a Job
type Option func(*Job)

// WithMetrics records run counters on m
func WithMetrics(m *metrics.Ingest) Option {
	return func(j *Job) { j.metrics = m }
}

// WithCache invalidates cached aggregates after a run
func WithCache(c Invalidator) Option {
	return func(j *Job) { j.cache = c }
}

// WithPublisher publishes an ingestion event after a run
func WithPublisher(p Publisher) Option {
	return func(j *Job) { j.publisher = p }
}

// WithIndexer re-indexes all listings after a run
func WithIndexer(i Indexer) Option {
	return func(j *Job) { j.indexer = i }
}

// NewJob creates an ingestion job
func NewJob(store Store, log *zap.Logger, opts ...Option) *Job {
	j := &Job{store: store, log: log}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Run reads every record from r, inserts the valid ones and then rebuilds
// statistics for the full table. Malformed or rejected rows are logged,
// counted and skipped; connection failures abort the run. There is no
// de-duplication, so running the same file twice stores every row twice.
func (j *Job) Run(ctx context.Context, file string, r io.Reader) (*Report, error) {
	start := time.Now()
	report := &Report{File: file}

	reader, err := NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", file, err)
	}

	for {
		listing, err := reader.Next()
		if err == io.EOF {
			break
		}

		var rowErr *RowError
		if errors.As(err, &rowErr) {
			report.RowsRead++
			report.Errors++
			j.log.Warn("skipping malformed row", zap.Int("line", rowErr.Line), zap.Error(rowErr.Err))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", file, err)
		}
		report.RowsRead++

		if err := j.store.InsertListing(ctx, listing); err != nil {
			if IsConnectionError(err) {
				return nil, fmt.Errorf("aborting ingestion after %d rows: %w", report.Inserted, err)
			}
			report.Errors++
			j.log.Warn("skipping rejected row", zap.String("address", listing.Address), zap.Error(err))
			continue
		}
		report.Inserted++

		if report.Inserted%10 == 0 {
			j.log.Debug("ingestion progress", zap.Int("inserted", report.Inserted))
		}
	}

	j.log.Info("listings inserted", zap.Int("inserted", report.Inserted), zap.Int("errors", report.Errors))

	all, err := j.store.GetAllListings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load listings for statistics: %w", err)
	}
	stats := ComputeStats(all)
	if err := j.store.ReplaceAllListingStats(ctx, stats); err != nil {
		return nil, fmt.Errorf("failed to store statistics: %w", err)
	}
	report.StatsComputed = len(stats)
	report.TotalListings = len(all)

	summary, err := j.store.GetRentSummary(ctx)
	if err != nil {
		j.log.Warn("failed to read rent summary", zap.Error(err))
	}
	report.RentSummary = summary
	report.Duration = time.Since(start)

	j.afterRun(ctx, report, all)
	return report, nil
}

// afterRun notifies the optional collaborators. Their failures never fail
// the run: the store is already consistent at this point.
func (j *Job) afterRun(ctx context.Context, report *Report, all []*models.Listing) {
	if j.metrics != nil {
		j.metrics.Rows.WithLabelValues("inserted").Add(float64(report.Inserted))
		j.metrics.Rows.WithLabelValues("error").Add(float64(report.Errors))
		j.metrics.TotalListings.Set(float64(report.TotalListings))
		j.metrics.Duration.Set(report.Duration.Seconds())
		j.metrics.LastSuccess.SetToCurrentTime()
	}

	if j.cache != nil {
		if err := j.cache.Invalidate(ctx); err != nil {
			j.log.Warn("failed to invalidate cache", zap.Error(err))
		}
	}

	if j.indexer != nil {
		if err := j.indexer.IndexListings(all); err != nil {
			j.log.Warn("failed to index listings", zap.Error(err))
		}
	}

	if j.publisher != nil {
		event := models.IngestionEvent{
			EventType: models.EventTypeListingsIngested,
			Source:    "ingest",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Data: models.IngestionEventData{
				File:          report.File,
				RowsRead:      report.RowsRead,
				Inserted:      report.Inserted,
				Errors:        report.Errors,
				StatsComputed: report.StatsComputed,
				TotalListings: report.TotalListings,
			},
		}
		if err := j.publisher.PublishIngestion(ctx, event); err != nil {
			j.log.Warn("failed to publish ingestion event", zap.Error(err))
		}
	}
}

// IsConnectionError reports whether err means the store itself is
// unreachable, as opposed to a single rejected row.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// Class 08 is connection exception, class 57 operator intervention
		return pqErr.Code.Class() == "08" || pqErr.Code.Class() == "57"
	}
	return false
}

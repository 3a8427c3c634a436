package ingest

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/trogers1052/rental-listing-service/internal/metrics"
	"github.com/trogers1052/rental-listing-service/internal/models"
	"github.com/trogers1052/rental-listing-service/internal/valuation"
)

// ---------------------------------------------------------------------------
// In-memory store
// ---------------------------------------------------------------------------

type memStore struct {
	mu       sync.Mutex
	nextID   int
	listings []*models.Listing
	stats    []*models.ListingStats

	// insertErr returns an error for the n-th insert call (0-based)
	insertErr func(call int, l *models.Listing) error
	calls     int
}

func (m *memStore) InsertListing(ctx context.Context, l *models.Listing) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	call := m.calls
	m.calls++
	if m.insertErr != nil {
		if err := m.insertErr(call, l); err != nil {
			return err
		}
	}
	m.nextID++
	l.ID = m.nextID
	l.CreatedAt = time.Now()
	cp := *l
	m.listings = append(m.listings, &cp)
	return nil
}

func (m *memStore) GetAllListings(ctx context.Context) ([]*models.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.Listing, len(m.listings))
	copy(out, m.listings)
	return out, nil
}

func (m *memStore) ReplaceAllListingStats(ctx context.Context, stats []*models.ListingStats) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats = stats
	return nil
}

func (m *memStore) GetRentSummary(ctx context.Context) ([]models.RentSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[int]int{}
	for _, l := range m.listings {
		counts[l.Bedrooms]++
	}
	var out []models.RentSummary
	for br, n := range counts {
		out = append(out, models.RentSummary{Bedrooms: br, NumListings: n})
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Collaborator fakes
// ---------------------------------------------------------------------------

type fakeCache struct{ calls int }

func (f *fakeCache) Invalidate(ctx context.Context) error {
	f.calls++
	return nil
}

type fakePublisher struct {
	events []models.IngestionEvent
	err    error
}

func (f *fakePublisher) PublishIngestion(ctx context.Context, e models.IngestionEvent) error {
	f.events = append(f.events, e)
	return f.err
}

type fakeIndexer struct{ indexed int }

func (f *fakeIndexer) IndexListings(listings []*models.Listing) error {
	f.indexed = len(listings)
	return nil
}

const sampleCSV = `address,Rent,BR,Ba,sqft,source,url
1 A St,850,1,1,600,Zillow,
2 B St,950,1,1,650,Zillow,
3 C St,"1,050",1,1,700,Craigslist,https://example.com/c
4 D St,1150,1,1,720,Craigslist,
5 E St,2000,2,1.5,950,Zillow,
6 F St,not-a-number,2,1,900,Zillow,
7 G St,900,0,1,400,Apartments.com,
`

// ---------------------------------------------------------------------------
// Run tests
// ---------------------------------------------------------------------------

func TestJob_Run(t *testing.T) {
	store := &memStore{}
	job := NewJob(store, zap.NewNop())

	report, err := job.Run(context.Background(), "listings.csv", strings.NewReader(sampleCSV))
	require.NoError(t, err)

	assert.Equal(t, 7, report.RowsRead)
	assert.Equal(t, 6, report.Inserted)
	assert.Equal(t, 1, report.Errors)
	assert.Equal(t, 6, report.StatsComputed)
	assert.Equal(t, 6, report.TotalListings)
	assert.NotEmpty(t, report.RentSummary)

	// Every listing has exactly one statistics row with a valid score
	require.Len(t, store.stats, len(store.listings))
	seen := map[int]bool{}
	for _, s := range store.stats {
		assert.False(t, seen[s.ListingID])
		seen[s.ListingID] = true
		assert.True(t, valuation.IsValidScore(s.ValueScore))
	}

	byID := map[int]*models.ListingStats{}
	for _, s := range store.stats {
		byID[s.ListingID] = s
	}
	// 1BR average is 1000, so 850 sits on the 0.85 boundary
	assert.Equal(t, valuation.ScoreExcellent, byID[1].ValueScore)
	assert.Equal(t, "1000.00", byID[1].AvgRentForBedrooms.StringFixed(2))
	// Studio (id 6 after the skipped row) has no per-bedroom price
	assert.Nil(t, byID[6].PricePerBedroom)
}

func TestJob_Run_RerunDuplicatesRows(t *testing.T) {
	store := &memStore{}
	job := NewJob(store, zap.NewNop())

	first, err := job.Run(context.Background(), "listings.csv", strings.NewReader(sampleCSV))
	require.NoError(t, err)
	second, err := job.Run(context.Background(), "listings.csv", strings.NewReader(sampleCSV))
	require.NoError(t, err)

	// No de-duplication: the table doubles and stats cover every copy
	assert.Equal(t, 2*first.TotalListings, second.TotalListings)
	assert.Len(t, store.listings, 12)
	assert.Len(t, store.stats, 12)

	// Averages are unchanged because every group doubled evenly
	for _, s := range store.stats {
		if s.ListingID == 1 || s.ListingID == 7 {
			assert.Equal(t, "1000.00", s.AvgRentForBedrooms.StringFixed(2))
		}
	}
}

func TestJob_Run_RejectedRowIsSkipped(t *testing.T) {
	store := &memStore{
		insertErr: func(call int, l *models.Listing) error {
			if l.Address == "2 B St" {
				return &pq.Error{Code: "23514", Message: "check constraint"}
			}
			return nil
		},
	}
	job := NewJob(store, zap.NewNop())

	report, err := job.Run(context.Background(), "listings.csv", strings.NewReader(sampleCSV))
	require.NoError(t, err)
	assert.Equal(t, 5, report.Inserted)
	assert.Equal(t, 2, report.Errors)
}

func TestJob_Run_ConnectionErrorAborts(t *testing.T) {
	store := &memStore{
		insertErr: func(call int, l *models.Listing) error {
			if call == 2 {
				return fmt.Errorf("failed to insert listing: %w", driver.ErrBadConn)
			}
			return nil
		},
	}
	job := NewJob(store, zap.NewNop())

	_, err := job.Run(context.Background(), "listings.csv", strings.NewReader(sampleCSV))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "aborting ingestion after 2 rows")
	assert.Nil(t, store.stats)
}

func TestJob_Run_MissingColumn(t *testing.T) {
	job := NewJob(&memStore{}, zap.NewNop())

	_, err := job.Run(context.Background(), "bad.csv", strings.NewReader("address,rent\n1 A St,900\n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingColumn))
}

func TestJob_Run_NotifiesCollaborators(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewIngest(reg)
	cache := &fakeCache{}
	pub := &fakePublisher{err: errors.New("broker down")}
	idx := &fakeIndexer{}

	job := NewJob(&memStore{}, zap.NewNop(),
		WithMetrics(m), WithCache(cache), WithPublisher(pub), WithIndexer(idx))

	report, err := job.Run(context.Background(), "listings.csv", strings.NewReader(sampleCSV))
	require.NoError(t, err, "publisher failures must not fail the run")

	assert.Equal(t, 1, cache.calls)
	assert.Equal(t, report.TotalListings, idx.indexed)
	require.Len(t, pub.events, 1)
	assert.Equal(t, models.EventTypeListingsIngested, pub.events[0].EventType)
	assert.Equal(t, 6, pub.events[0].Data.Inserted)
	assert.Equal(t, 1, pub.events[0].Data.Errors)

	assert.Equal(t, 6.0, testutil.ToFloat64(m.Rows.WithLabelValues("inserted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Rows.WithLabelValues("error")))
	assert.Equal(t, 6.0, testutil.ToFloat64(m.TotalListings))
}

func TestIsConnectionError(t *testing.T) {
	assert.True(t, IsConnectionError(driver.ErrBadConn))
	assert.True(t, IsConnectionError(fmt.Errorf("wrap: %w", context.DeadlineExceeded)))
	assert.True(t, IsConnectionError(&pq.Error{Code: "08006"}))
	assert.True(t, IsConnectionError(&pq.Error{Code: "57P01"}))
	assert.False(t, IsConnectionError(&pq.Error{Code: "23514"}))
	assert.False(t, IsConnectionError(errors.New("value too long")))
	assert.False(t, IsConnectionError(nil))
}

func TestJob_Run_StatsAverageMatchesMean(t *testing.T) {
	store := &memStore{}
	_, err := NewJob(store, zap.NewNop()).Run(context.Background(), "listings.csv", strings.NewReader(sampleCSV))
	require.NoError(t, err)

	sums := map[int]decimal.Decimal{}
	counts := map[int]int64{}
	for _, l := range store.listings {
		sums[l.Bedrooms] = sums[l.Bedrooms].Add(l.MonthlyRent)
		counts[l.Bedrooms]++
	}
	bedrooms := map[int]int{}
	for _, l := range store.listings {
		bedrooms[l.ID] = l.Bedrooms
	}
	for _, s := range store.stats {
		br := bedrooms[s.ListingID]
		mean := sums[br].Div(decimal.NewFromInt(counts[br])).Round(2)
		assert.True(t, mean.Equal(s.AvgRentForBedrooms), "bedrooms %d", br)
	}
}

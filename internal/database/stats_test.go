package database

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetStatsSummary(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta("COUNT(*) AS total_listings")).
		WillReturnRows(sqlmock.NewRows([]string{"total_listings", "avg_rent", "min_rent", "max_rent", "avg_sqft"}).
			AddRow(3, "1366.67", "900.00", "1700.00", "816.67"))
	mock.ExpectQuery(regexp.QuoteMeta("GROUP BY bedrooms")).
		WillReturnRows(sqlmock.NewRows([]string{"bedrooms", "count", "avg_rent", "min_rent", "max_rent"}).
			AddRow(1, 2, "1200.00", "900.00", "1500.00").
			AddRow(2, 1, "1700.00", "1700.00", "1700.00"))
	mock.ExpectQuery(regexp.QuoteMeta("GROUP BY source")).
		WillReturnRows(sqlmock.NewRows([]string{"source", "count", "avg_rent"}).
			AddRow("Zillow", 2, "1600.00").
			AddRow("Craigslist", 1, "900.00"))

	summary, err := db.GetStatsSummary(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Overall.TotalListings)
	assert.Equal(t, 1366.67, summary.Overall.AvgRent)
	assert.Equal(t, 900.0, summary.Overall.MinRent)
	require.Len(t, summary.ByBedrooms, 2)
	assert.Equal(t, 1, summary.ByBedrooms[0].Bedrooms)
	require.Len(t, summary.BySource, 2)
	assert.Equal(t, "Zillow", summary.BySource[0].Source)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetStatsSummary_EmptyTable(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta("COUNT(*) AS total_listings")).
		WillReturnRows(sqlmock.NewRows([]string{"total_listings", "avg_rent", "min_rent", "max_rent", "avg_sqft"}).
			AddRow(0, nil, nil, nil, nil))
	mock.ExpectQuery(regexp.QuoteMeta("GROUP BY bedrooms")).
		WillReturnRows(sqlmock.NewRows([]string{"bedrooms", "count", "avg_rent", "min_rent", "max_rent"}))
	mock.ExpectQuery(regexp.QuoteMeta("GROUP BY source")).
		WillReturnRows(sqlmock.NewRows([]string{"source", "count", "avg_rent"}))

	summary, err := db.GetStatsSummary(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, summary.Overall.TotalListings)
	assert.Zero(t, summary.Overall.AvgRent)
	assert.NotNil(t, summary.ByBedrooms)
	assert.Empty(t, summary.ByBedrooms)
	assert.NotNil(t, summary.BySource)
	assert.Empty(t, summary.BySource)
}

func TestGetStatsSummary_QueryError(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta("COUNT(*) AS total_listings")).
		WillReturnError(errors.New("connection refused"))

	_, err := db.GetStatsSummary(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "overall stats")
}

func TestGetSources(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY source")).
		WillReturnRows(sqlmock.NewRows([]string{"source", "count"}).
			AddRow("Apartments.com", 4).
			AddRow("Zillow", 9))

	sources, err := db.GetSources(context.Background())
	require.NoError(t, err)
	require.Len(t, sources, 2)
	assert.Equal(t, "Apartments.com", sources[0].Name)
	assert.Equal(t, 9, sources[1].Count)
}

func TestGetRentSummary(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM rent_summary")).
		WillReturnRows(sqlmock.NewRows([]string{"bedrooms", "num_listings", "avg_rent", "min_rent", "max_rent", "avg_sqft"}).
			AddRow(0, 2, "950.00", "900.00", "1000.00", "420")).
		RowsWillBeClosed()

	summary, err := db.GetRentSummary(context.Background())
	require.NoError(t, err)
	require.Len(t, summary, 1)
	assert.Equal(t, 2, summary[0].NumListings)
	assert.Equal(t, 420.0, summary[0].AvgSqft)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetCheapestByBedrooms(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta("DISTINCT ON (bedrooms)")).
		WillReturnRows(sqlmock.NewRows([]string{"bedrooms", "address", "monthly_rent", "source"}).
			AddRow(0, "Studio Ave", "850.00", "Craigslist").
			AddRow(1, "One Bed Rd", "1100.00", "Zillow"))

	cheapest, err := db.GetCheapestByBedrooms(context.Background())
	require.NoError(t, err)
	require.Len(t, cheapest, 2)
	assert.Equal(t, 850.0, cheapest[0].MonthlyRent)
}

func TestGetTopPricePerSqft(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY s.price_per_sqft DESC")).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"address", "bedrooms", "monthly_rent", "square_feet", "price_per_sqft"}).
			AddRow("Tiny Loft", 0, "1500.00", 300, "5.00"))

	leaders, err := db.GetTopPricePerSqft(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, leaders, 1)
	assert.Equal(t, 5.0, leaders[0].PricePerSqft)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAboveAverageCounts(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta("FILTER (WHERE s.is_above_average)")).
		WillReturnRows(sqlmock.NewRows([]string{"bedrooms", "total", "above_avg", "below_avg"}).
			AddRow(1, 4, 1, 3))

	counts, err := db.GetAboveAverageCounts(context.Background())
	require.NoError(t, err)
	require.Len(t, counts, 1)
	assert.Equal(t, 1, counts[0].AboveAverage)
	assert.Equal(t, 3, counts[0].BelowAverage)
}

func TestGetSourceComparison(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY avg_rent, source")).
		WillReturnRows(sqlmock.NewRows([]string{"source", "count", "avg_rent", "avg_sqft"}).
			AddRow("Craigslist", 2, "950.00", "600.00").
			AddRow("Zillow", 3, "1500.00", "850.00"))

	cmp, err := db.GetSourceComparison(context.Background())
	require.NoError(t, err)
	require.Len(t, cmp, 2)
	assert.Equal(t, "Craigslist", cmp[0].Source)
}

package ingest

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trogers1052/rental-listing-service/internal/models"
	"github.com/trogers1052/rental-listing-service/internal/valuation"
)

func listing(id, bedrooms, sqft int, rent string) *models.Listing {
	return &models.Listing{
		ID:          id,
		Address:     "addr",
		MonthlyRent: decimal.RequireFromString(rent),
		Bedrooms:    bedrooms,
		Bathrooms:   decimal.NewFromInt(1),
		SquareFeet:  sqft,
		Source:      "Zillow",
	}
}

func TestComputeStats_BedroomAverageAndScores(t *testing.T) {
	// 1BR average = 1000; ratios 0.85, 0.95, 1.05, 1.15
	listings := []*models.Listing{
		listing(1, 1, 500, "850"),
		listing(2, 1, 500, "950"),
		listing(3, 1, 500, "1050"),
		listing(4, 1, 500, "1150"),
		listing(5, 2, 1000, "2000"),
	}

	stats := ComputeStats(listings)
	require.Len(t, stats, 5)

	want := []float64{
		valuation.ScoreExcellent,
		valuation.ScoreGood,
		valuation.ScoreAverage,
		valuation.ScoreBelow,
		valuation.ScoreAverage,
	}
	for i, s := range stats {
		assert.Equal(t, listings[i].ID, s.ListingID)
		assert.Equal(t, want[i], s.ValueScore, "listing %d", s.ListingID)
		assert.True(t, valuation.IsValidScore(s.ValueScore))
	}

	assert.Equal(t, "1000.00", stats[0].AvgRentForBedrooms.StringFixed(2))
	assert.Equal(t, "2000.00", stats[4].AvgRentForBedrooms.StringFixed(2))
	assert.False(t, stats[0].IsAboveAverage)
	assert.True(t, stats[3].IsAboveAverage)
	// Exactly average is not above average
	assert.False(t, stats[4].IsAboveAverage)
}

func TestComputeStats_RepeatingMeanKeepsExactBounds(t *testing.T) {
	// 1000 + 16 x 1187.5 = 20000 over 17 listings; 1000 is exactly 85% of the mean
	listings := []*models.Listing{listing(1, 2, 800, "1000")}
	for i := 2; i <= 17; i++ {
		listings = append(listings, listing(i, 2, 900, "1187.5"))
	}

	stats := ComputeStats(listings)
	require.Len(t, stats, 17)
	assert.Equal(t, valuation.ScoreExcellent, stats[0].ValueScore)
	assert.Equal(t, "1176.47", stats[0].AvgRentForBedrooms.StringFixed(2))
	assert.False(t, stats[0].IsAboveAverage)
	assert.True(t, stats[1].IsAboveAverage)
}

func TestComputeStats_AverageIsMeanOfGroup(t *testing.T) {
	listings := []*models.Listing{
		listing(1, 2, 900, "1800"),
		listing(2, 2, 900, "2100"),
		listing(3, 2, 900, "2400"),
		listing(4, 3, 1200, "3000"),
	}

	stats := ComputeStats(listings)
	for _, s := range stats[:3] {
		assert.Equal(t, "2100.00", s.AvgRentForBedrooms.StringFixed(2))
	}
	assert.Equal(t, "3000.00", stats[3].AvgRentForBedrooms.StringFixed(2))
}

func TestComputeStats_StudioHasNoPricePerBedroom(t *testing.T) {
	stats := ComputeStats([]*models.Listing{
		listing(1, 0, 400, "1000"),
		listing(2, 2, 800, "1500"),
	})

	assert.Nil(t, stats[0].PricePerBedroom)
	require.NotNil(t, stats[1].PricePerBedroom)
	assert.Equal(t, "750.00", stats[1].PricePerBedroom.StringFixed(2))
}

func TestComputeStats_PricePerSqftRounded(t *testing.T) {
	stats := ComputeStats([]*models.Listing{listing(1, 1, 700, "1500")})
	assert.Equal(t, "2.14", stats[0].PricePerSqft.String())
}

func TestComputeStats_Empty(t *testing.T) {
	assert.Empty(t, ComputeStats(nil))
}

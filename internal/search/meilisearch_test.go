package search

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trogers1052/rental-listing-service/internal/models"
)

func TestBuildFilter(t *testing.T) {
	bedrooms := 2
	minRent := 1000.0
	maxRent := 2500.5

	tests := []struct {
		name string
		q    Query
		want string
	}{
		{"empty", Query{Text: "loft"}, ""},
		{"bedrooms", Query{Bedrooms: &bedrooms}, "bedrooms = 2"},
		{"range", Query{MinRent: &minRent, MaxRent: &maxRent}, "monthly_rent >= 1000 AND monthly_rent <= 2500.5"},
		{"source quoted", Query{Source: "Joe's Rentals"}, `source = 'Joe\'s Rentals'`},
		{"source trailing backslash", Query{Source: `Zillow\`}, `source = 'Zillow\\'`},
		{"source escaped quote", Query{Source: `a\' OR 'b`}, `source = 'a\\\' OR \'b'`},
		{
			"all",
			Query{Bedrooms: &bedrooms, MaxRent: &maxRent, Source: "Zillow"},
			"bedrooms = 2 AND monthly_rent <= 2500.5 AND source = 'Zillow'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildFilter(tt.q))
		})
	}
}

func TestNewDocument(t *testing.T) {
	url := "https://example.com/1"
	l := &models.Listing{
		ID:          4,
		Address:     "9 Elm St",
		MonthlyRent: decimal.RequireFromString("1850.00"),
		Bedrooms:    2,
		Bathrooms:   decimal.RequireFromString("1.5"),
		SquareFeet:  980,
		Source:      "Zillow",
		ListingURL:  &url,
	}

	doc := NewDocument(l)
	assert.Equal(t, 4, doc.ListingID)
	assert.Equal(t, 1850.0, doc.MonthlyRent)
	assert.Equal(t, 1.5, doc.Bathrooms)
	assert.Equal(t, url, doc.ListingURL)
}

func TestDecodeHits(t *testing.T) {
	hits := []interface{}{
		map[string]interface{}{
			"listing_id":   float64(7),
			"address":      "1 Oak Ave",
			"monthly_rent": 1200.0,
			"bedrooms":     float64(1),
			"bathrooms":    1.0,
			"square_feet":  float64(640),
			"source":       "Craigslist",
		},
	}

	docs, err := decodeHits(hits)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, 7, docs[0].ListingID)
	assert.Equal(t, 640, docs[0].SquareFeet)
	assert.Empty(t, docs[0].ListingURL)
}

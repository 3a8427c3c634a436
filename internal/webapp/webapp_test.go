package webapp

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trogers1052/rental-listing-service/internal/models"
	"github.com/trogers1052/rental-listing-service/internal/valuation"
)

func listing(addr string, br int, sqft int, rent, source string) *models.Listing {
	return &models.Listing{
		Address:     addr,
		MonthlyRent: decimal.RequireFromString(rent),
		Bedrooms:    br,
		Bathrooms:   decimal.NewFromInt(1),
		SquareFeet:  sqft,
		Source:      source,
	}
}

func TestBuildPage(t *testing.T) {
	url := "https://example.com/a"
	cheap := listing("1 Main St", 1, 500, "850", "Zillow")
	cheap.ListingURL = &url
	listings := []*models.Listing{
		cheap,
		listing("2 Main St", 1, 600, "1150", "Craigslist"),
		listing("3 Main St", 0, 400, "900", "Zillow"),
	}

	p := BuildPage(listings, Options{Title: "Apartments"})
	assert.Equal(t, 3, p.Total)
	assert.Equal(t, 850.0, p.MinRent)
	assert.Equal(t, 967.0, p.AvgRent)
	assert.Equal(t, []int{0, 1}, p.Bedrooms)
	assert.Equal(t, []string{"Craigslist", "Zillow"}, p.Sources)
	assert.Equal(t, valuation.GreatDealRatio, p.Thresholds.GreatDeal)

	require.Len(t, p.Listings, 3)
	// 850 against an average of 1000 sits exactly on the great deal bound
	assert.Equal(t, string(valuation.GreatDeal), p.Listings[0].ValueCategory)
	assert.Equal(t, 1000.0, p.Listings[0].AvgRentForBR)
	assert.Equal(t, 1.7, p.Listings[0].PricePerSqft)
	assert.Equal(t, url, p.Listings[0].URL)
	assert.Equal(t, string(valuation.Overpriced), p.Listings[1].ValueCategory)
	assert.Equal(t, string(valuation.FairPrice), p.Listings[2].ValueCategory)
	assert.Equal(t, 1, p.GreatDeals)
}

func TestBuildPage_Empty(t *testing.T) {
	p := BuildPage(nil, Options{})
	assert.Zero(t, p.Total)
	assert.Zero(t, p.AvgRent)
	assert.Empty(t, p.Listings)

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, p))
	assert.Contains(t, buf.String(), "const ALL_LISTINGS = [];")
}

func TestRender(t *testing.T) {
	p := BuildPage([]*models.Listing{
		listing("<script>alert(1)</script>", 0, 400, "900", "Zillow"),
		listing("5 Elm St", 2, 900, "1700", "Apartments.com"),
	}, Options{Title: "Apartment Finder", Subtitle: "Live listings"})

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, p))
	out := buf.String()

	assert.Contains(t, out, "<title>Apartment Finder</title>")
	assert.Contains(t, out, "Live listings")
	assert.Contains(t, out, `<option value="0">Studio</option>`)
	assert.Contains(t, out, `<option value="2">2 BR</option>`)
	assert.Contains(t, out, `<option value="Apartments.com">Apartments.com</option>`)
	assert.Contains(t, out, "85%")
	assert.Contains(t, out, "115%")
	assert.Contains(t, out, `"address":"5 Elm St"`)
	assert.NotContains(t, out, "<script>alert(1)</script>")
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "site", "index.html")
	p := BuildPage([]*models.Listing{listing("1 Main St", 1, 500, "1000", "Zillow")}, Options{Title: "Apartments"})
	require.NoError(t, WriteFile(path, p))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "1 Main St")
}

func TestBuildPage_RepeatingMean(t *testing.T) {
	listings := []*models.Listing{listing("1 Main St", 2, 800, "1000", "Zillow")}
	for i := 0; i < 16; i++ {
		listings = append(listings, listing("2 Main St", 2, 900, "1187.5", "Zillow"))
	}

	p := BuildPage(listings, Options{})
	assert.Equal(t, string(valuation.GreatDeal), p.Listings[0].ValueCategory)
	assert.Equal(t, 1176.47, p.Listings[0].AvgRentForBR)
	assert.Equal(t, 1, p.GreatDeals)
}

package models

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListingWithStats_DecimalsAreJSONNumbers(t *testing.T) {
	pps := decimal.RequireFromString("2.5")
	l := ListingWithStats{
		Listing: Listing{
			ID:          1,
			MonthlyRent: decimal.RequireFromString("2400"),
			Bathrooms:   decimal.RequireFromString("1.5"),
		},
		PricePerSqft: &pps,
	}

	data, err := json.Marshal(l)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"monthly_rent":2400`)
	assert.Contains(t, string(data), `"bathrooms":1.5`)
	assert.Contains(t, string(data), `"price_per_sqft":2.5`)

	var back ListingWithStats
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, back.MonthlyRent.Equal(l.MonthlyRent))
}

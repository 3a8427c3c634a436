package ingest

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapColumns_Variants(t *testing.T) {
	headers := [][]string{
		{"address", "Rent", "BR", "Ba", "sqft", "source", "url"},
		{"Address", "monthly_rent", "bedrooms", "bathrooms", "square_feet", "Source", "listing_url"},
		{" ADDRESS ", "rent", "Beds", "Baths", "Sqft", "source"},
		{"\ufeffaddress", "Monthly Rent", "Bedrooms", "Bathrooms", "Square Feet", "SOURCE"},
	}

	for _, header := range headers {
		cols, err := MapColumns(header)
		require.NoError(t, err, "header %v", header)
		assert.Equal(t, 0, cols[FieldAddress])
		assert.Equal(t, 1, cols[FieldRent])
		assert.Equal(t, 2, cols[FieldBedrooms])
		assert.Equal(t, 3, cols[FieldBathrooms])
		assert.Equal(t, 4, cols[FieldSquareFeet])
		assert.Equal(t, 5, cols[FieldSource])
	}
}

func TestMapColumns_URLOptional(t *testing.T) {
	cols, err := MapColumns([]string{"address", "rent", "BR", "Ba", "sqft", "source"})
	require.NoError(t, err)
	assert.False(t, cols.Has(FieldURL))
	assert.Equal(t, "", cols.Value([]string{"a", "1", "1", "1", "1", "s"}, FieldURL))
}

func TestMapColumns_MissingRequired(t *testing.T) {
	_, err := MapColumns([]string{"address", "rent", "sqft", "source"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingColumn))
	assert.Contains(t, err.Error(), "bedrooms")
	assert.Contains(t, err.Error(), "bathrooms")
}

func TestMapColumns_FirstDuplicateWins(t *testing.T) {
	cols, err := MapColumns([]string{"address", "rent", "BR", "Ba", "sqft", "source", "Rent"})
	require.NoError(t, err)
	assert.Equal(t, 1, cols[FieldRent])
}

func TestColumnMap_ValueShortRecord(t *testing.T) {
	cols := ColumnMap{FieldSource: 5}
	assert.Equal(t, "", cols.Value([]string{"a", "b"}, FieldSource))
}

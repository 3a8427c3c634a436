package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Money, bathroom and ratio fields are JSON numbers on every surface
	decimal.MarshalJSONWithoutQuotes = true
}

// Listing represents one rental unit as scraped from a source
type Listing struct {
	ID          int             `json:"listing_id"`
	Address     string          `json:"address"`
	MonthlyRent decimal.Decimal `json:"monthly_rent"`
	Bedrooms    int             `json:"bedrooms"`
	Bathrooms   decimal.Decimal `json:"bathrooms"`
	SquareFeet  int             `json:"square_feet"`
	Source      string          `json:"source"`
	ListingURL  *string         `json:"listing_url"`
	CreatedAt   time.Time       `json:"created_at"`
}

// IsStudio reports whether the unit has no separate bedroom
func (l *Listing) IsStudio() bool {
	return l.Bedrooms == 0
}

// ListingStats is the derived statistics row for a listing (1:1 by listing id)
type ListingStats struct {
	ListingID          int              `json:"listing_id"`
	PricePerSqft       decimal.Decimal  `json:"price_per_sqft"`
	PricePerBedroom    *decimal.Decimal `json:"price_per_bedroom"`
	AvgRentForBedrooms decimal.Decimal  `json:"avg_rent_for_bedrooms"`
	IsAboveAverage     bool             `json:"is_above_average"`
	ValueScore         float64          `json:"value_score"`
}

// ListingWithStats is a listing left-joined with its statistics row.
// Stats fields are nil when no statistics row exists yet.
type ListingWithStats struct {
	Listing
	PricePerSqft *decimal.Decimal `json:"price_per_sqft"`
	ValueScore   *float64         `json:"value_score"`
}

// ListingFilter holds the optional filters for listing queries
type ListingFilter struct {
	Bedrooms *int
	MinRent  *decimal.Decimal
	MaxRent  *decimal.Decimal
	Source   string
}

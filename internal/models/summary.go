package models

// OverallStats holds aggregate figures across all listings
type OverallStats struct {
	TotalListings int     `json:"total_listings"`
	AvgRent       float64 `json:"avg_rent"`
	MinRent       float64 `json:"min_rent"`
	MaxRent       float64 `json:"max_rent"`
	AvgSqft       float64 `json:"avg_sqft"`
}

// BedroomStats is one row of the per-bedroom-count breakdown
type BedroomStats struct {
	Bedrooms int     `json:"bedrooms"`
	Count    int     `json:"count"`
	AvgRent  float64 `json:"avg_rent"`
	MinRent  float64 `json:"min_rent"`
	MaxRent  float64 `json:"max_rent"`
}

// SourceStats is one row of the per-source breakdown
type SourceStats struct {
	Source  string  `json:"source"`
	Count   int     `json:"count"`
	AvgRent float64 `json:"avg_rent"`
}

// StatsSummary is the full response body of the statistics endpoint
type StatsSummary struct {
	Overall    OverallStats   `json:"overall"`
	ByBedrooms []BedroomStats `json:"by_bedrooms"`
	BySource   []SourceStats  `json:"by_source"`
}

// SourceCount is a distinct source name with its listing count
type SourceCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// RentSummary is one row of the rent_summary view
type RentSummary struct {
	Bedrooms    int     `json:"bedrooms"`
	NumListings int     `json:"num_listings"`
	AvgRent     float64 `json:"avg_rent"`
	MinRent     float64 `json:"min_rent"`
	MaxRent     float64 `json:"max_rent"`
	AvgSqft     float64 `json:"avg_sqft"`
}

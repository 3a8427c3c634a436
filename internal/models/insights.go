package models

// CheapestListing is the cheapest listing for one bedroom count
type CheapestListing struct {
	Bedrooms    int     `json:"bedrooms"`
	Address     string  `json:"address"`
	MonthlyRent float64 `json:"monthly_rent"`
	Source      string  `json:"source"`
}

// AboveAverageCounts splits a bedroom group by its is_above_average flag
type AboveAverageCounts struct {
	Bedrooms     int `json:"bedrooms"`
	Total        int `json:"total"`
	AboveAverage int `json:"above_average"`
	BelowAverage int `json:"below_average"`
}

// PricePerSqftLeader is a listing ranked by price per square foot
type PricePerSqftLeader struct {
	Address      string  `json:"address"`
	Bedrooms     int     `json:"bedrooms"`
	MonthlyRent  float64 `json:"monthly_rent"`
	SquareFeet   int     `json:"square_feet"`
	PricePerSqft float64 `json:"price_per_sqft"`
}

// SourceComparison compares sources by rent and size
type SourceComparison struct {
	Source  string  `json:"source"`
	Count   int     `json:"count"`
	AvgRent float64 `json:"avg_rent"`
	AvgSqft float64 `json:"avg_sqft"`
}

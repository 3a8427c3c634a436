package ingest

import (
	"github.com/shopspring/decimal"

	"github.com/trogers1052/rental-listing-service/internal/models"
	"github.com/trogers1052/rental-listing-service/internal/valuation"
)

// ComputeStats derives the statistics row of every listing. The per-bedroom
// average is taken over the listings passed in, so callers pass the whole table.
func ComputeStats(listings []*models.Listing) []*models.ListingStats {
	rents := make(map[int][]decimal.Decimal)
	for _, l := range listings {
		rents[l.Bedrooms] = append(rents[l.Bedrooms], l.MonthlyRent)
	}
	groups := valuation.BedroomGroups(rents)

	stats := make([]*models.ListingStats, 0, len(listings))
	for _, l := range listings {
		group := groups[l.Bedrooms]

		s := &models.ListingStats{
			ListingID:          l.ID,
			PricePerSqft:       l.MonthlyRent.Div(decimal.NewFromInt(int64(l.SquareFeet))).Round(2),
			AvgRentForBedrooms: group.Mean().Round(2),
			IsAboveAverage:     group.IsAbove(l.MonthlyRent),
			ValueScore:         group.Score(l.MonthlyRent),
		}
		if !l.IsStudio() {
			perBedroom := l.MonthlyRent.Div(decimal.NewFromInt(int64(l.Bedrooms))).Round(2)
			s.PricePerBedroom = &perBedroom
		}
		stats = append(stats, s)
	}
	return stats
}

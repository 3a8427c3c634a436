package database

import (
	"context"
	"fmt"

	"github.com/trogers1052/rental-listing-service/internal/models"
)

// GetCheapestByBedrooms returns the cheapest listing for each bedroom count
func (db *DB) GetCheapestByBedrooms(ctx context.Context) ([]models.CheapestListing, error) {
	query := `
		SELECT DISTINCT ON (bedrooms)
		       bedrooms, address, monthly_rent, source
		FROM listings
		ORDER BY bedrooms, monthly_rent, listing_id
	`
	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get cheapest listings: %w", err)
	}
	defer rows.Close()

	result := []models.CheapestListing{}
	for rows.Next() {
		var c models.CheapestListing
		if err := rows.Scan(&c.Bedrooms, &c.Address, &c.MonthlyRent, &c.Source); err != nil {
			return nil, fmt.Errorf("failed to scan cheapest listing: %w", err)
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

// GetAboveAverageCounts splits each bedroom group by the is_above_average flag
func (db *DB) GetAboveAverageCounts(ctx context.Context) ([]models.AboveAverageCounts, error) {
	query := `
		SELECT l.bedrooms,
		       COUNT(*) AS total,
		       COUNT(*) FILTER (WHERE s.is_above_average) AS above_avg,
		       COUNT(*) FILTER (WHERE NOT s.is_above_average) AS below_avg
		FROM listings l
		JOIN listing_stats s ON l.listing_id = s.listing_id
		GROUP BY l.bedrooms
		ORDER BY l.bedrooms
	`
	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get above-average counts: %w", err)
	}
	defer rows.Close()

	result := []models.AboveAverageCounts{}
	for rows.Next() {
		var c models.AboveAverageCounts
		if err := rows.Scan(&c.Bedrooms, &c.Total, &c.AboveAverage, &c.BelowAverage); err != nil {
			return nil, fmt.Errorf("failed to scan above-average counts: %w", err)
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

// GetTopPricePerSqft returns the listings with the highest price per square foot
func (db *DB) GetTopPricePerSqft(ctx context.Context, limit int) ([]models.PricePerSqftLeader, error) {
	query := `
		SELECT l.address, l.bedrooms, l.monthly_rent, l.square_feet, s.price_per_sqft
		FROM listings l
		JOIN listing_stats s ON l.listing_id = s.listing_id
		ORDER BY s.price_per_sqft DESC, l.listing_id
		LIMIT $1
	`
	rows, err := db.conn.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get price per sqft leaders: %w", err)
	}
	defer rows.Close()

	result := []models.PricePerSqftLeader{}
	for rows.Next() {
		var p models.PricePerSqftLeader
		if err := rows.Scan(&p.Address, &p.Bedrooms, &p.MonthlyRent, &p.SquareFeet, &p.PricePerSqft); err != nil {
			return nil, fmt.Errorf("failed to scan price per sqft leader: %w", err)
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

// GetSourceComparison compares sources by average rent and size, cheapest first
func (db *DB) GetSourceComparison(ctx context.Context) ([]models.SourceComparison, error) {
	query := `
		SELECT source, COUNT(*) AS count,
		       ROUND(AVG(monthly_rent), 2) AS avg_rent,
		       ROUND(AVG(square_feet), 2) AS avg_sqft
		FROM listings
		GROUP BY source
		ORDER BY avg_rent, source
	`
	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get source comparison: %w", err)
	}
	defer rows.Close()

	result := []models.SourceComparison{}
	for rows.Next() {
		var s models.SourceComparison
		if err := rows.Scan(&s.Source, &s.Count, &s.AvgRent, &s.AvgSqft); err != nil {
			return nil, fmt.Errorf("failed to scan source comparison: %w", err)
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

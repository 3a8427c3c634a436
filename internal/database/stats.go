package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/trogers1052/rental-listing-service/internal/models"
)

// GetStatsSummary returns overall, per-bedroom and per-source rent statistics
func (db *DB) GetStatsSummary(ctx context.Context) (*models.StatsSummary, error) {
	overall, err := db.getOverallStats(ctx)
	if err != nil {
		return nil, err
	}

	byBedrooms, err := db.getBedroomStats(ctx)
	if err != nil {
		return nil, err
	}

	bySource, err := db.getSourceStats(ctx)
	if err != nil {
		return nil, err
	}

	return &models.StatsSummary{
		Overall:    *overall,
		ByBedrooms: byBedrooms,
		BySource:   bySource,
	}, nil
}

func (db *DB) getOverallStats(ctx context.Context) (*models.OverallStats, error) {
	query := `
		SELECT
			COUNT(*) AS total_listings,
			ROUND(AVG(monthly_rent), 2) AS avg_rent,
			ROUND(MIN(monthly_rent), 2) AS min_rent,
			ROUND(MAX(monthly_rent), 2) AS max_rent,
			ROUND(AVG(square_feet), 2) AS avg_sqft
		FROM listings
	`
	var o models.OverallStats
	// Aggregates are NULL on an empty table.
	var avgRent, minRent, maxRent, avgSqft sql.NullFloat64
	err := db.conn.QueryRowContext(ctx, query).Scan(&o.TotalListings, &avgRent, &minRent, &maxRent, &avgSqft)
	if err != nil {
		return nil, fmt.Errorf("failed to get overall stats: %w", err)
	}
	o.AvgRent = avgRent.Float64
	o.MinRent = minRent.Float64
	o.MaxRent = maxRent.Float64
	o.AvgSqft = avgSqft.Float64
	return &o, nil
}

func (db *DB) getBedroomStats(ctx context.Context) ([]models.BedroomStats, error) {
	query := `
		SELECT bedrooms, COUNT(*) AS count,
		       ROUND(AVG(monthly_rent), 2) AS avg_rent,
		       ROUND(MIN(monthly_rent), 2) AS min_rent,
		       ROUND(MAX(monthly_rent), 2) AS max_rent
		FROM listings
		GROUP BY bedrooms
		ORDER BY bedrooms
	`
	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get stats by bedrooms: %w", err)
	}
	defer rows.Close()

	stats := []models.BedroomStats{}
	for rows.Next() {
		var s models.BedroomStats
		if err := rows.Scan(&s.Bedrooms, &s.Count, &s.AvgRent, &s.MinRent, &s.MaxRent); err != nil {
			return nil, fmt.Errorf("failed to scan bedroom stats: %w", err)
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

func (db *DB) getSourceStats(ctx context.Context) ([]models.SourceStats, error) {
	query := `
		SELECT source, COUNT(*) AS count,
		       ROUND(AVG(monthly_rent), 2) AS avg_rent
		FROM listings
		GROUP BY source
		ORDER BY count DESC, source
	`
	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get stats by source: %w", err)
	}
	defer rows.Close()

	stats := []models.SourceStats{}
	for rows.Next() {
		var s models.SourceStats
		if err := rows.Scan(&s.Source, &s.Count, &s.AvgRent); err != nil {
			return nil, fmt.Errorf("failed to scan source stats: %w", err)
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// GetSources returns distinct sources with their listing counts, alphabetically
func (db *DB) GetSources(ctx context.Context) ([]models.SourceCount, error) {
	query := `
		SELECT source, COUNT(*) AS count
		FROM listings
		GROUP BY source
		ORDER BY source
	`
	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get sources: %w", err)
	}
	defer rows.Close()

	sources := []models.SourceCount{}
	for rows.Next() {
		var s models.SourceCount
		if err := rows.Scan(&s.Name, &s.Count); err != nil {
			return nil, fmt.Errorf("failed to scan source: %w", err)
		}
		sources = append(sources, s)
	}
	return sources, rows.Err()
}

// GetRentSummary reads the rent_summary view
func (db *DB) GetRentSummary(ctx context.Context) ([]models.RentSummary, error) {
	query := `
		SELECT bedrooms, num_listings, avg_rent, min_rent, max_rent, avg_sqft
		FROM rent_summary
		ORDER BY bedrooms
	`
	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get rent summary: %w", err)
	}
	defer rows.Close()

	var summary []models.RentSummary
	for rows.Next() {
		var r models.RentSummary
		if err := rows.Scan(&r.Bedrooms, &r.NumListings, &r.AvgRent, &r.MinRent, &r.MaxRent, &r.AvgSqft); err != nil {
			return nil, fmt.Errorf("failed to scan rent summary: %w", err)
		}
		summary = append(summary, r)
	}
	return summary, rows.Err()
}

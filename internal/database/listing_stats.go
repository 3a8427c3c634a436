package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/trogers1052/rental-listing-service/internal/models"
)

// ReplaceAllListingStats atomically replaces the whole listing_stats table.
// Per-bedroom averages are a snapshot of the full table, so statistics are
// always rebuilt together rather than row by row.
func (db *DB) ReplaceAllListingStats(ctx context.Context, stats []*models.ListingStats) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM listing_stats`); err != nil {
		return fmt.Errorf("failed to delete existing listing stats: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO listing_stats (
			listing_id, price_per_sqft, price_per_bedroom,
			avg_rent_for_bedrooms, is_above_average, value_score
		) VALUES ($1, $2, $3, $4, $5, $6)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare listing stats insert: %w", err)
	}
	defer stmt.Close()

	for _, s := range stats {
		var perBedroom interface{}
		if s.PricePerBedroom != nil {
			perBedroom = *s.PricePerBedroom
		}
		_, err := stmt.ExecContext(ctx,
			s.ListingID, s.PricePerSqft, perBedroom,
			s.AvgRentForBedrooms, s.IsAboveAverage, s.ValueScore,
		)
		if err != nil {
			return fmt.Errorf("failed to insert stats for listing %d: %w", s.ListingID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetListingStats retrieves the statistics row for one listing
func (db *DB) GetListingStats(ctx context.Context, listingID int) (*models.ListingStats, error) {
	query := `
		SELECT listing_id, price_per_sqft, price_per_bedroom,
		       avg_rent_for_bedrooms, is_above_average, value_score
		FROM listing_stats
		WHERE listing_id = $1
	`
	var s models.ListingStats
	var perBedroom decimal.NullDecimal
	err := db.conn.QueryRowContext(ctx, query, listingID).Scan(
		&s.ListingID, &s.PricePerSqft, &perBedroom,
		&s.AvgRentForBedrooms, &s.IsAboveAverage, &s.ValueScore,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("stats for listing %d: %w", listingID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get listing stats: %w", err)
	}
	if perBedroom.Valid {
		s.PricePerBedroom = &perBedroom.Decimal
	}
	return &s, nil
}

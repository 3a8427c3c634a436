package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/trogers1052/rental-listing-service/internal/models"
)

// InsertListing inserts a single listing and fills in its ID and CreatedAt.
// Listings have no natural key, so inserting the same row twice stores it twice.
func (db *DB) InsertListing(ctx context.Context, l *models.Listing) error {
	query := `
		INSERT INTO listings (address, monthly_rent, bedrooms, bathrooms, square_feet, source, listing_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING listing_id, created_at
	`
	var url sql.NullString
	if l.ListingURL != nil {
		url = sql.NullString{String: *l.ListingURL, Valid: true}
	}

	err := db.conn.QueryRowContext(ctx, query,
		l.Address, l.MonthlyRent, l.Bedrooms, l.Bathrooms, l.SquareFeet, l.Source, url,
	).Scan(&l.ID, &l.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert listing %q: %w", l.Address, err)
	}
	return nil
}

// GetAllListings returns every listing ordered by ID
func (db *DB) GetAllListings(ctx context.Context) ([]*models.Listing, error) {
	query := `
		SELECT listing_id, address, monthly_rent, bedrooms, bathrooms,
		       square_feet, source, listing_url, created_at
		FROM listings
		ORDER BY listing_id
	`
	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get all listings: %w", err)
	}
	defer rows.Close()

	var listings []*models.Listing
	for rows.Next() {
		var l models.Listing
		var url sql.NullString
		err := rows.Scan(
			&l.ID, &l.Address, &l.MonthlyRent, &l.Bedrooms, &l.Bathrooms,
			&l.SquareFeet, &l.Source, &url, &l.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan listing: %w", err)
		}
		if url.Valid {
			l.ListingURL = &url.String
		}
		listings = append(listings, &l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate listings: %w", err)
	}

	return listings, nil
}

// GetListingByID retrieves a listing by its ID
func (db *DB) GetListingByID(ctx context.Context, id int) (*models.Listing, error) {
	query := `
		SELECT listing_id, address, monthly_rent, bedrooms, bathrooms,
		       square_feet, source, listing_url, created_at
		FROM listings
		WHERE listing_id = $1
	`
	var l models.Listing
	var url sql.NullString
	err := db.conn.QueryRowContext(ctx, query, id).Scan(
		&l.ID, &l.Address, &l.MonthlyRent, &l.Bedrooms, &l.Bathrooms,
		&l.SquareFeet, &l.Source, &url, &l.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("listing %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get listing %d: %w", id, err)
	}
	if url.Valid {
		l.ListingURL = &url.String
	}
	return &l, nil
}

// CountListings returns the number of stored listings
func (db *DB) CountListings(ctx context.Context) (int, error) {
	var count int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM listings`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count listings: %w", err)
	}
	return count, nil
}

// FindListings returns listings matching the filter, left-joined with their
// statistics and ordered by rent ascending. There is no pagination.
func (db *DB) FindListings(ctx context.Context, f models.ListingFilter) ([]*models.ListingWithStats, error) {
	query := `
		SELECT l.listing_id, l.address, l.monthly_rent, l.bedrooms,
		       l.bathrooms, l.square_feet, l.source, l.listing_url, l.created_at,
		       s.price_per_sqft, s.value_score
		FROM listings l
		LEFT JOIN listing_stats s ON l.listing_id = s.listing_id
		WHERE 1=1
	`
	args := []interface{}{}
	argIdx := 1

	if f.Bedrooms != nil {
		query += fmt.Sprintf(" AND l.bedrooms = $%d", argIdx)
		args = append(args, *f.Bedrooms)
		argIdx++
	}

	if f.MinRent != nil {
		query += fmt.Sprintf(" AND l.monthly_rent >= $%d", argIdx)
		args = append(args, *f.MinRent)
		argIdx++
	}

	if f.MaxRent != nil {
		query += fmt.Sprintf(" AND l.monthly_rent <= $%d", argIdx)
		args = append(args, *f.MaxRent)
		argIdx++
	}

	if f.Source != "" {
		query += fmt.Sprintf(" AND l.source = $%d", argIdx)
		args = append(args, f.Source)
	}

	query += " ORDER BY l.monthly_rent, l.listing_id"

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find listings: %w", err)
	}
	defer rows.Close()

	listings := []*models.ListingWithStats{}
	for rows.Next() {
		l, err := scanListingWithStats(rows)
		if err != nil {
			return nil, err
		}
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate listings: %w", err)
	}

	return listings, nil
}

// GetBestDeals returns listings scoring at least minScore, best first
func (db *DB) GetBestDeals(ctx context.Context, minScore float64, limit int) ([]*models.ListingWithStats, error) {
	query := `
		SELECT l.listing_id, l.address, l.monthly_rent, l.bedrooms,
		       l.bathrooms, l.square_feet, l.source, l.listing_url, l.created_at,
		       s.price_per_sqft, s.value_score
		FROM listings l
		JOIN listing_stats s ON l.listing_id = s.listing_id
		WHERE s.value_score >= $1
		ORDER BY s.value_score DESC, l.monthly_rent, l.listing_id
		LIMIT $2
	`
	rows, err := db.conn.QueryContext(ctx, query, minScore, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get best deals: %w", err)
	}
	defer rows.Close()

	deals := []*models.ListingWithStats{}
	for rows.Next() {
		l, err := scanListingWithStats(rows)
		if err != nil {
			return nil, err
		}
		deals = append(deals, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate best deals: %w", err)
	}

	return deals, nil
}

func scanListingWithStats(rows *sql.Rows) (*models.ListingWithStats, error) {
	var l models.ListingWithStats
	var url sql.NullString
	var pricePerSqft decimal.NullDecimal
	var valueScore sql.NullFloat64

	err := rows.Scan(
		&l.ID, &l.Address, &l.MonthlyRent, &l.Bedrooms,
		&l.Bathrooms, &l.SquareFeet, &l.Source, &url, &l.CreatedAt,
		&pricePerSqft, &valueScore,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan listing: %w", err)
	}

	if url.Valid {
		l.ListingURL = &url.String
	}
	if pricePerSqft.Valid {
		l.PricePerSqft = &pricePerSqft.Decimal
	}
	if valueScore.Valid {
		l.ValueScore = &valueScore.Float64
	}
	return &l, nil
}

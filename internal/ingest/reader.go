package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/trogers1052/rental-listing-service/internal/models"
)

// RowError describes a record that could not be turned into a listing
type RowError struct {
	Line int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// Reader reads listings from a CSV stream with a tolerant header
type Reader struct {
	csv  *csv.Reader
	cols ColumnMap
	line int
}

// NewReader reads the header row and resolves its columns
func NewReader(r io.Reader) (*Reader, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty input: no header row")
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	cols, err := MapColumns(header)
	if err != nil {
		return nil, err
	}

	return &Reader{csv: cr, cols: cols, line: 1}, nil
}

// Columns returns the resolved column map
func (r *Reader) Columns() ColumnMap {
	return r.cols
}

// Next returns the next listing. It returns io.EOF when the input is
// exhausted and a *RowError for a malformed record; reading may continue
// after a RowError.
func (r *Reader) Next() (*models.Listing, error) {
	record, err := r.ReadRecord()
	if err != nil {
		return nil, err
	}

	listing, err := ParseListing(r.cols, record)
	if err != nil {
		return nil, &RowError{Line: r.line, Err: err}
	}
	return listing, nil
}

// ReadAll returns every valid listing in r and the number of skipped rows
func ReadAll(r io.Reader) ([]*models.Listing, int, error) {
	reader, err := NewReader(r)
	if err != nil {
		return nil, 0, err
	}
	var listings []*models.Listing
	skipped := 0
	for {
		l, err := reader.Next()
		if err == io.EOF {
			return listings, skipped, nil
		}
		var rowErr *RowError
		if errors.As(err, &rowErr) {
			skipped++
			continue
		}
		if err != nil {
			return nil, skipped, err
		}
		listings = append(listings, l)
	}
}

// ReadRecord returns the next raw record, skipping blank lines
func (r *Reader) ReadRecord() ([]string, error) {
	for {
		record, err := r.csv.Read()
		if err == io.EOF {
			return nil, io.EOF
		}
		r.line++
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				return nil, &RowError{Line: perr.Line, Err: perr.Err}
			}
			return nil, err
		}
		if isBlank(record) {
			continue
		}
		return record, nil
	}
}

var (
	maxBathrooms = decimal.NewFromInt(100)
	maxWhole     = decimal.NewFromInt(math.MaxInt32)
	minWhole     = decimal.NewFromInt(math.MinInt32)
)

// ParseListing converts one record into a validated Listing
func ParseListing(cols ColumnMap, record []string) (*models.Listing, error) {
	address := cols.Value(record, FieldAddress)
	if address == "" {
		return nil, fmt.Errorf("address is required")
	}

	rent, err := ParseMoney(cols.Value(record, FieldRent))
	if err != nil {
		return nil, fmt.Errorf("invalid rent: %w", err)
	}
	if !rent.IsPositive() {
		return nil, fmt.Errorf("rent must be positive, got %s", rent)
	}

	bedrooms, err := ParseWhole(cols.Value(record, FieldBedrooms))
	if err != nil {
		return nil, fmt.Errorf("invalid bedrooms: %w", err)
	}
	if bedrooms < 0 {
		return nil, fmt.Errorf("bedrooms must not be negative, got %d", bedrooms)
	}

	bathrooms, err := ParseMoney(cols.Value(record, FieldBathrooms))
	if err != nil {
		return nil, fmt.Errorf("invalid bathrooms: %w", err)
	}
	if bathrooms.IsNegative() {
		return nil, fmt.Errorf("bathrooms must not be negative, got %s", bathrooms)
	}
	// stored as NUMERIC(3,1)
	if !bathrooms.Equal(bathrooms.Truncate(1)) {
		return nil, fmt.Errorf("bathrooms allows one decimal place, got %s", bathrooms)
	}
	if bathrooms.GreaterThanOrEqual(maxBathrooms) {
		return nil, fmt.Errorf("bathrooms must be below %s, got %s", maxBathrooms, bathrooms)
	}

	sqft, err := ParseWhole(cols.Value(record, FieldSquareFeet))
	if err != nil {
		return nil, fmt.Errorf("invalid square feet: %w", err)
	}
	if sqft <= 0 {
		return nil, fmt.Errorf("square feet must be positive, got %d", sqft)
	}

	source := cols.Value(record, FieldSource)
	if source == "" {
		return nil, fmt.Errorf("source is required")
	}

	listing := &models.Listing{
		Address:     address,
		MonthlyRent: rent.Round(2),
		Bedrooms:    bedrooms,
		Bathrooms:   bathrooms.Truncate(1),
		SquareFeet:  sqft,
		Source:      source,
	}
	if url := cols.Value(record, FieldURL); url != "" && !isMissing(url) {
		listing.ListingURL = &url
	}
	return listing, nil
}

// ParseMoney parses a number that may carry a currency sign and thousands
// separators, e.g. "$1,850.00".
func ParseMoney(raw string) (decimal.Decimal, error) {
	cleaned := strings.NewReplacer("$", "", ",", "", " ", "").Replace(strings.TrimSpace(raw))
	if cleaned == "" || isMissing(cleaned) {
		return decimal.Zero, fmt.Errorf("value is missing")
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("not a number: %q", raw)
	}
	return d, nil
}

// ParseWhole parses a whole number, accepting forms like "2.0" and "1,100"
func ParseWhole(raw string) (int, error) {
	d, err := ParseMoney(raw)
	if err != nil {
		return 0, err
	}
	if !d.Equal(d.Truncate(0)) {
		return 0, fmt.Errorf("not a whole number: %q", raw)
	}
	if d.GreaterThan(maxWhole) || d.LessThan(minWhole) {
		return 0, fmt.Errorf("out of range: %q", raw)
	}
	return int(d.IntPart()), nil
}

func isMissing(s string) bool {
	switch strings.ToLower(s) {
	case "nan", "null", "none", "n/a", "na":
		return true
	}
	return false
}

func isBlank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

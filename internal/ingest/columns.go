package ingest

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingColumn is returned when a required column has no match in the header
var ErrMissingColumn = errors.New("missing required column")

// Field is a canonical listing input column
type Field int

const (
	FieldAddress Field = iota
	FieldRent
	FieldBedrooms
	FieldBathrooms
	FieldSquareFeet
	FieldSource
	FieldURL
)

var fieldNames = map[Field]string{
	FieldAddress:    "address",
	FieldRent:       "monthly_rent",
	FieldBedrooms:   "bedrooms",
	FieldBathrooms:  "bathrooms",
	FieldSquareFeet: "square_feet",
	FieldSource:     "source",
	FieldURL:        "listing_url",
}

func (f Field) String() string {
	return fieldNames[f]
}

// aliases lists the accepted header spellings for each field, already
// normalised by normaliseHeader.
var aliases = map[Field][]string{
	FieldAddress:    {"address", "addr", "streetaddress", "location"},
	FieldRent:       {"rent", "monthlyrent", "price", "rentprice"},
	FieldBedrooms:   {"br", "bedrooms", "bedroom", "beds", "bed"},
	FieldBathrooms:  {"ba", "bathrooms", "bathroom", "baths", "bath"},
	FieldSquareFeet: {"sqft", "squarefeet", "squarefootage", "sqfeet", "size"},
	FieldSource:     {"source", "site", "platform"},
	FieldURL:        {"url", "listingurl", "link"},
}

// requiredFields must be present for ingestion; the URL is optional.
var requiredFields = []Field{
	FieldAddress, FieldRent, FieldBedrooms, FieldBathrooms, FieldSquareFeet, FieldSource,
}

// ColumnMap maps canonical fields to column positions in a record
type ColumnMap map[Field]int

// MapColumns resolves a header row against the known aliases. Matching is
// case-insensitive and ignores spaces, underscores, dashes and dots, so "BR",
// "Bedrooms" and "bed_rooms" all resolve to the same field.
func MapColumns(header []string) (ColumnMap, error) {
	byName := make(map[string]int, len(header))
	for i, h := range header {
		name := normaliseHeader(h)
		if _, dup := byName[name]; !dup {
			byName[name] = i
		}
	}

	cols := make(ColumnMap, len(aliases))
	for field, names := range aliases {
		for _, name := range names {
			if idx, ok := byName[name]; ok {
				cols[field] = idx
				break
			}
		}
	}

	var missing []string
	for _, field := range requiredFields {
		if _, ok := cols[field]; !ok {
			missing = append(missing, field.String())
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s (header: %v)", ErrMissingColumn, strings.Join(missing, ", "), header)
	}

	return cols, nil
}

// Value returns the trimmed value of field in record, or "" when the field is
// unmapped or the record is short.
func (c ColumnMap) Value(record []string, field Field) string {
	idx, ok := c[field]
	if !ok || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

// Has reports whether field was found in the header
func (c ColumnMap) Has(field Field) bool {
	_, ok := c[field]
	return ok
}

func normaliseHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.NewReplacer(" ", "", "_", "", "-", "", ".", "").Replace(h)
}

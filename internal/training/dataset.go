// Package training builds feature matrices from listings and fits the rent
// predictor and value classifier.
package training

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/shopspring/decimal"

	"github.com/trogers1052/rental-listing-service/internal/ingest"
	"github.com/trogers1052/rental-listing-service/internal/models"
	"github.com/trogers1052/rental-listing-service/internal/valuation"
)

// Feature names, in matrix column order
var (
	RentFeatures  = []string{"bedrooms", "bathrooms", "sqft"}
	ValueFeatures = []string{"bedrooms", "bathrooms", "sqft", "price_per_sqft"}
)

// Sample is one training row. Missing feature values are NaN until imputed.
type Sample struct {
	Bedrooms   float64
	Bathrooms  float64
	SquareFeet float64
	Rent       float64
}

// Dataset is a set of samples with every feature present
type Dataset struct {
	Samples []Sample
	// Imputed counts the feature values filled with a column mean
	Imputed int
	// Dropped counts rows discarded for a missing or non-positive rent
	Dropped int
}

// FromListings converts stored listings into samples
func FromListings(listings []*models.Listing) []Sample {
	samples := make([]Sample, 0, len(listings))
	for _, l := range listings {
		samples = append(samples, Sample{
			Bedrooms:   float64(l.Bedrooms),
			Bathrooms:  l.Bathrooms.InexactFloat64(),
			SquareFeet: float64(l.SquareFeet),
			Rent:       l.MonthlyRent.InexactFloat64(),
		})
	}
	return samples
}

// ReadCSV reads samples from a listings CSV. Unparseable numeric cells become
// NaN so they can be imputed rather than dropping the whole row.
func ReadCSV(r io.Reader) ([]Sample, error) {
	reader, err := ingest.NewReader(r)
	if err != nil {
		return nil, err
	}
	cols := reader.Columns()

	var samples []Sample
	for {
		record, err := reader.ReadRecord()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var rowErr *ingest.RowError
			if errors.As(err, &rowErr) {
				continue
			}
			return nil, fmt.Errorf("failed to read training data: %w", err)
		}
		samples = append(samples, Sample{
			Bedrooms:   parseFloat(cols.Value(record, ingest.FieldBedrooms)),
			Bathrooms:  parseFloat(cols.Value(record, ingest.FieldBathrooms)),
			SquareFeet: parseFloat(cols.Value(record, ingest.FieldSquareFeet)),
			Rent:       parseFloat(cols.Value(record, ingest.FieldRent)),
		})
	}
	return samples, nil
}

func parseFloat(raw string) float64 {
	d, err := ingest.ParseMoney(raw)
	if err != nil {
		return math.NaN()
	}
	return d.InexactFloat64()
}

// Prepare drops rows without a usable rent and fills missing features with
// the column mean of the remaining rows.
func Prepare(samples []Sample) (*Dataset, error) {
	ds := &Dataset{}
	for _, s := range samples {
		if math.IsNaN(s.Rent) || s.Rent <= 0 {
			ds.Dropped++
			continue
		}
		ds.Samples = append(ds.Samples, s)
	}
	if len(ds.Samples) == 0 {
		return nil, errors.New("no samples with a rent value")
	}

	columns := []func(*Sample) *float64{
		func(s *Sample) *float64 { return &s.Bedrooms },
		func(s *Sample) *float64 { return &s.Bathrooms },
		func(s *Sample) *float64 { return &s.SquareFeet },
	}
	for _, col := range columns {
		var sum float64
		var n int
		for i := range ds.Samples {
			if v := *col(&ds.Samples[i]); !math.IsNaN(v) {
				sum += v
				n++
			}
		}
		if n == 0 {
			return nil, errors.New("a feature column has no values")
		}
		mean := sum / float64(n)
		for i := range ds.Samples {
			if p := col(&ds.Samples[i]); math.IsNaN(*p) {
				*p = mean
				ds.Imputed++
			}
		}
	}

	for _, s := range ds.Samples {
		if s.SquareFeet <= 0 {
			return nil, fmt.Errorf("square feet must be positive, got %v", s.SquareFeet)
		}
	}
	return ds, nil
}

// PricePerSqft returns rent divided by square feet
func (s Sample) PricePerSqft() float64 {
	return s.Rent / s.SquareFeet
}

// RentMatrix returns the regressor features and targets
func (d *Dataset) RentMatrix() ([][]float64, []float64) {
	x := make([][]float64, len(d.Samples))
	y := make([]float64, len(d.Samples))
	for i, s := range d.Samples {
		x[i] = []float64{s.Bedrooms, s.Bathrooms, s.SquareFeet}
		y[i] = s.Rent
	}
	return x, y
}

// ValueMatrix returns the classifier features and category labels
func (d *Dataset) ValueMatrix() ([][]float64, []string) {
	labels := d.Labels()
	x := make([][]float64, len(d.Samples))
	out := make([]string, len(d.Samples))
	for i, s := range d.Samples {
		x[i] = []float64{s.Bedrooms, s.Bathrooms, s.SquareFeet, s.PricePerSqft()}
		out[i] = string(labels[i])
	}
	return x, out
}

// Labels assigns each sample its value category against the mean rent of
// samples with the same bedroom count.
func (d *Dataset) Labels() []valuation.Category {
	rents := map[int][]decimal.Decimal{}
	for _, s := range d.Samples {
		br := bedroomKey(s.Bedrooms)
		rents[br] = append(rents[br], decimal.NewFromFloat(s.Rent))
	}
	groups := valuation.BedroomGroups(rents)

	labels := make([]valuation.Category, len(d.Samples))
	for i, s := range d.Samples {
		labels[i] = groups[bedroomKey(s.Bedrooms)].Classify(decimal.NewFromFloat(s.Rent))
	}
	return labels
}

// bedroomKey groups imputed (fractional) bedroom counts with the nearest whole count
func bedroomKey(v float64) int {
	return int(math.Round(v))
}

// Package charts renders the static analysis charts of the listing table.
package charts

import (
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"text/tabwriter"

	"gonum.org/v1/gonum/stat"

	"github.com/trogers1052/rental-listing-service/internal/models"
)

// ErrNoListings is returned when there is nothing to chart
var ErrNoListings = errors.New("no listings to chart")

// Column names of the numeric frame
const (
	ColBedrooms     = "bedrooms"
	ColBathrooms    = "bathrooms"
	ColSqft         = "sqft"
	ColRent         = "rent"
	ColPricePerSqft = "price_per_sqft"
)

// NumericColumns lists the frame columns in display order
var NumericColumns = []string{ColBedrooms, ColBathrooms, ColSqft, ColRent, ColPricePerSqft}

// Frame is a column view of the listings used by every chart
type Frame struct {
	Columns map[string][]float64
	Sources []string
}

// NewFrame builds a frame from stored listings
func NewFrame(listings []*models.Listing) (*Frame, error) {
	if len(listings) == 0 {
		return nil, ErrNoListings
	}
	f := &Frame{Columns: make(map[string][]float64, len(NumericColumns))}
	for _, l := range listings {
		rent := l.MonthlyRent.InexactFloat64()
		sqft := float64(l.SquareFeet)
		f.Columns[ColBedrooms] = append(f.Columns[ColBedrooms], float64(l.Bedrooms))
		f.Columns[ColBathrooms] = append(f.Columns[ColBathrooms], l.Bathrooms.InexactFloat64())
		f.Columns[ColSqft] = append(f.Columns[ColSqft], sqft)
		f.Columns[ColRent] = append(f.Columns[ColRent], rent)
		f.Columns[ColPricePerSqft] = append(f.Columns[ColPricePerSqft], rent/sqft)
		f.Sources = append(f.Sources, l.Source)
	}
	return f, nil
}

// Len returns the number of rows
func (f *Frame) Len() int {
	return len(f.Sources)
}

// BedroomGroup is the rent population of one bedroom count
type BedroomGroup struct {
	Bedrooms int
	Rents    []float64
}

// Mean returns the mean rent of the group
func (g BedroomGroup) Mean() float64 {
	return stat.Mean(g.Rents, nil)
}

// ByBedrooms groups rents by bedroom count, ascending
func (f *Frame) ByBedrooms() []BedroomGroup {
	groups := map[int][]float64{}
	for i, br := range f.Columns[ColBedrooms] {
		groups[int(br)] = append(groups[int(br)], f.Columns[ColRent][i])
	}
	out := make([]BedroomGroup, 0, len(groups))
	for br, rents := range groups {
		out = append(out, BedroomGroup{Bedrooms: br, Rents: rents})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Bedrooms < out[j].Bedrooms })
	return out
}

// SourceGroup is the rent population of one source
type SourceGroup struct {
	Source string
	Rents  []float64
}

// BySource groups rents by source, most listings first
func (f *Frame) BySource() []SourceGroup {
	groups := map[string][]float64{}
	for i, s := range f.Sources {
		groups[s] = append(groups[s], f.Columns[ColRent][i])
	}
	out := make([]SourceGroup, 0, len(groups))
	for s, rents := range groups {
		out = append(out, SourceGroup{Source: s, Rents: rents})
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i].Rents) != len(out[j].Rents) {
			return len(out[i].Rents) > len(out[j].Rents)
		}
		return out[i].Source < out[j].Source
	})
	return out
}

// Correlation returns the Pearson correlation matrix of the numeric columns,
// indexed like NumericColumns. Constant columns correlate as NaN off the diagonal.
func (f *Frame) Correlation() [][]float64 {
	n := len(NumericColumns)
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
		for j := range m[i] {
			if i == j {
				m[i][j] = 1
				continue
			}
			m[i][j] = stat.Correlation(f.Columns[NumericColumns[i]], f.Columns[NumericColumns[j]], nil)
		}
	}
	return m
}

// Trend fits rent = slope*sqft + intercept by least squares
func (f *Frame) Trend() (slope, intercept float64) {
	intercept, slope = stat.LinearRegression(f.Columns[ColSqft], f.Columns[ColRent], nil, false)
	return slope, intercept
}

// Describe holds count, mean, std, min, quartiles and max of one column
type Describe struct {
	Count               int
	Mean, Std           float64
	Min, Q1, Median, Q3 float64
	Max                 float64
}

// DescribeColumn summarises a numeric column
func (f *Frame) DescribeColumn(name string) Describe {
	values := append([]float64(nil), f.Columns[name]...)
	sort.Float64s(values)
	d := Describe{Count: len(values)}
	if len(values) == 0 {
		return d
	}
	d.Mean = stat.Mean(values, nil)
	if len(values) > 1 {
		d.Std = stat.StdDev(values, nil)
	}
	d.Min = values[0]
	d.Max = values[len(values)-1]
	d.Q1 = stat.Quantile(0.25, stat.LinInterp, values, nil)
	d.Median = stat.Quantile(0.5, stat.LinInterp, values, nil)
	d.Q3 = stat.Quantile(0.75, stat.LinInterp, values, nil)
	return d
}

// WriteSummaryTable writes the describe table of every numeric column
func (f *Frame) WriteSummaryTable(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "\t%s\t\n", strings.Join(NumericColumns, "\t"))

	stats := make([]Describe, len(NumericColumns))
	for i, c := range NumericColumns {
		stats[i] = f.DescribeColumn(c)
	}
	rows := []struct {
		name string
		get  func(Describe) float64
	}{
		{"count", func(d Describe) float64 { return float64(d.Count) }},
		{"mean", func(d Describe) float64 { return d.Mean }},
		{"std", func(d Describe) float64 { return d.Std }},
		{"min", func(d Describe) float64 { return d.Min }},
		{"25%", func(d Describe) float64 { return d.Q1 }},
		{"50%", func(d Describe) float64 { return d.Median }},
		{"75%", func(d Describe) float64 { return d.Q3 }},
		{"max", func(d Describe) float64 { return d.Max }},
	}
	for _, row := range rows {
		cells := make([]string, len(stats))
		for i, d := range stats {
			cells[i] = fmt.Sprintf("%.2f", round2(row.get(d)))
		}
		fmt.Fprintf(tw, "%s\t%s\t\n", row.name, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

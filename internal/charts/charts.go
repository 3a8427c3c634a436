package charts

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/trogers1052/rental-listing-service/internal/models"
)

var steelBlue = color.RGBA{R: 70, G: 130, B: 180, A: 255}

// AvgRentByBedrooms is a bar chart of mean rent per bedroom count
func AvgRentByBedrooms(f *Frame) (*plot.Plot, error) {
	groups := f.ByBedrooms()
	values := make(plotter.Values, len(groups))
	names := make([]string, len(groups))
	for i, g := range groups {
		values[i] = g.Mean()
		names[i] = fmt.Sprintf("%d BR (n=%d)", g.Bedrooms, len(g.Rents))
	}

	p := plot.New()
	p.Title.Text = "Average Rent by Number of Bedrooms"
	p.X.Label.Text = "Number of Bedrooms"
	p.Y.Label.Text = "Average Monthly Rent ($)"
	p.Add(plotter.NewGrid())

	bars, err := plotter.NewBarChart(values, vg.Points(30))
	if err != nil {
		return nil, fmt.Errorf("failed to build bar chart: %w", err)
	}
	bars.Color = steelBlue
	p.Add(bars)
	p.NominalX(names...)
	return p, nil
}

// RentVsSqft scatters rent against square feet per bedroom count with a
// least-squares trend line.
func RentVsSqft(f *Frame) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Rent vs Square Footage with Trend Line"
	p.X.Label.Text = "Square Feet"
	p.Y.Label.Text = "Monthly Rent ($)"
	p.Legend.Top = true
	p.Legend.Left = true
	p.Add(plotter.NewGrid())

	byBedrooms := map[int]plotter.XYs{}
	sqft, rent := f.Columns[ColSqft], f.Columns[ColRent]
	for i, br := range f.Columns[ColBedrooms] {
		byBedrooms[int(br)] = append(byBedrooms[int(br)], plotter.XY{X: sqft[i], Y: rent[i]})
	}
	keys := make([]int, 0, len(byBedrooms))
	for br := range byBedrooms {
		keys = append(keys, br)
	}
	sort.Ints(keys)

	for i, br := range keys {
		s, err := plotter.NewScatter(byBedrooms[br])
		if err != nil {
			return nil, fmt.Errorf("failed to build scatter: %w", err)
		}
		s.GlyphStyle.Color = plotutil.Color(i)
		s.GlyphStyle.Radius = vg.Points(3)
		p.Add(s)
		p.Legend.Add(fmt.Sprintf("%d BR", br), s)
	}

	if f.Len() > 1 {
		slope, intercept := f.Trend()
		lo, hi := minMax(sqft)
		line, err := plotter.NewLine(plotter.XYs{
			{X: lo, Y: slope*lo + intercept},
			{X: hi, Y: slope*hi + intercept},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to build trend line: %w", err)
		}
		line.LineStyle.Color = color.RGBA{R: 220, A: 255}
		line.LineStyle.Dashes = []vg.Length{vg.Points(6), vg.Points(3)}
		p.Add(line)
		p.Legend.Add(fmt.Sprintf("Trend: y=%.2fx+%.0f", slope, intercept), line)
	}
	return p, nil
}

// RentBySource is a box plot of the rent distribution per source
func RentBySource(f *Frame) (*plot.Plot, error) {
	groups := f.BySource()
	p := plot.New()
	p.Title.Text = "Rent Distribution by Data Source"
	p.X.Label.Text = "Data Source"
	p.Y.Label.Text = "Monthly Rent ($)"
	p.Add(plotter.NewGrid())

	names := make([]string, len(groups))
	for i, g := range groups {
		box, err := plotter.NewBoxPlot(vg.Points(30), float64(i), plotter.Values(g.Rents))
		if err != nil {
			return nil, fmt.Errorf("failed to build box plot for %s: %w", g.Source, err)
		}
		box.FillColor = color.RGBA{R: 173, G: 216, B: 230, A: 255}
		p.Add(box)
		names[i] = g.Source
	}
	p.NominalX(names...)
	return p, nil
}

// ListingsBySource is a bar chart of listing counts per source with shares
func ListingsBySource(f *Frame) (*plot.Plot, error) {
	groups := f.BySource()
	values := make(plotter.Values, len(groups))
	names := make([]string, len(groups))
	for i, g := range groups {
		values[i] = float64(len(g.Rents))
		names[i] = fmt.Sprintf("%s (%.1f%%)", g.Source, 100*float64(len(g.Rents))/float64(f.Len()))
	}

	p := plot.New()
	p.Title.Text = "Distribution of Listings by Data Source"
	p.Y.Label.Text = "Listings"

	bars, err := plotter.NewBarChart(values, vg.Points(30))
	if err != nil {
		return nil, fmt.Errorf("failed to build bar chart: %w", err)
	}
	bars.Color = plotutil.Color(2)
	p.Add(bars)
	p.NominalX(names...)
	return p, nil
}

// correlationGrid adapts a correlation matrix to plotter.GridXYZ
type correlationGrid struct {
	m [][]float64
}

func (g correlationGrid) Dims() (c, r int) { return len(g.m), len(g.m) }
func (g correlationGrid) X(c int) float64  { return float64(c) }
func (g correlationGrid) Y(r int) float64  { return float64(r) }

func (g correlationGrid) Z(c, r int) float64 {
	v := g.m[r][c]
	if math.IsNaN(v) {
		return 0
	}
	return v
}

// CorrelationHeatmap renders the correlation matrix of the numeric columns
func CorrelationHeatmap(f *Frame) (*plot.Plot, error) {
	grid := correlationGrid{m: f.Correlation()}

	pal := moreland.SmoothBlueRed()
	pal.SetMin(-1)
	pal.SetMax(1)

	hm := plotter.NewHeatMap(grid, pal.Palette(255))
	hm.Min, hm.Max = -1, 1

	p := plot.New()
	p.Title.Text = "Feature Correlation Matrix"
	p.Add(hm)

	var labels []plotter.XY
	var texts []string
	for r := range grid.m {
		for c := range grid.m[r] {
			labels = append(labels, plotter.XY{X: float64(c), Y: float64(r)})
			texts = append(texts, fmt.Sprintf("%.3f", grid.Z(c, r)))
		}
	}
	annotations, err := plotter.NewLabels(plotter.XYLabels{XYs: labels, Labels: texts})
	if err != nil {
		return nil, fmt.Errorf("failed to build heatmap labels: %w", err)
	}
	p.Add(annotations)
	p.NominalX(NumericColumns...)
	p.NominalY(NumericColumns...)
	return p, nil
}

// Chart is one named chart builder
type Chart struct {
	File  string
	Build func(*Frame) (*plot.Plot, error)
}

// All lists every chart in output order
var All = []Chart{
	{"1_avg_rent_by_bedrooms.png", AvgRentByBedrooms},
	{"2_rent_vs_sqft.png", RentVsSqft},
	{"3_rent_by_source.png", RentBySource},
	{"4_listings_by_source.png", ListingsBySource},
	{"5_correlation_heatmap.png", CorrelationHeatmap},
}

// SummaryFile is the name of the summary statistics table
const SummaryFile = "6_summary_statistics.txt"

// Render writes every chart and the summary table into dir and returns the
// written paths.
func Render(listings []*models.Listing, dir string, log *zap.Logger) ([]string, error) {
	f, err := NewFrame(listings)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create chart directory: %w", err)
	}

	var written []string
	for _, c := range All {
		p, err := c.Build(f)
		if err != nil {
			return written, fmt.Errorf("failed to build %s: %w", c.File, err)
		}
		path := filepath.Join(dir, c.File)
		if err := p.Save(10*vg.Inch, 6*vg.Inch, path); err != nil {
			return written, fmt.Errorf("failed to save %s: %w", path, err)
		}
		log.Info("Saved chart", zap.String("path", path))
		written = append(written, path)
	}

	path := filepath.Join(dir, SummaryFile)
	out, err := os.Create(path)
	if err != nil {
		return written, fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer out.Close()
	if err := f.WriteSummaryTable(out); err != nil {
		return written, fmt.Errorf("failed to write %s: %w", path, err)
	}
	log.Info("Saved summary table", zap.String("path", path))
	return append(written, path), nil
}

func minMax(values []float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

package charts

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gonum.org/v1/plot/vg"

	"github.com/trogers1052/rental-listing-service/internal/models"
)

func sampleListings() []*models.Listing {
	mk := func(br int, ba string, sqft int, rent, source string) *models.Listing {
		return &models.Listing{
			MonthlyRent: decimal.RequireFromString(rent),
			Bedrooms:    br,
			Bathrooms:   decimal.RequireFromString(ba),
			SquareFeet:  sqft,
			Source:      source,
		}
	}
	return []*models.Listing{
		mk(0, "1", 400, "900", "Zillow"),
		mk(1, "1", 600, "1000", "Zillow"),
		mk(1, "1", 700, "1200", "Craigslist"),
		mk(2, "1.5", 900, "1600", "Zillow"),
		mk(2, "2", 1000, "1800", "Apartments.com"),
		mk(3, "2", 1300, "2400", "Craigslist"),
	}
}

func TestNewFrame(t *testing.T) {
	_, err := NewFrame(nil)
	assert.ErrorIs(t, err, ErrNoListings)

	f, err := NewFrame(sampleListings())
	require.NoError(t, err)
	assert.Equal(t, 6, f.Len())
	assert.InDelta(t, 900.0/400, f.Columns[ColPricePerSqft][0], 1e-12)

	groups := f.ByBedrooms()
	require.Len(t, groups, 4)
	assert.Equal(t, 1, groups[1].Bedrooms)
	assert.Equal(t, 1100.0, groups[1].Mean())

	sources := f.BySource()
	assert.Equal(t, "Zillow", sources[0].Source)
	assert.Equal(t, "Craigslist", sources[1].Source)
	assert.Equal(t, "Apartments.com", sources[2].Source)
}

func TestFrame_TrendAndCorrelation(t *testing.T) {
	listings := []*models.Listing{}
	for i := 1; i <= 5; i++ {
		listings = append(listings, &models.Listing{
			MonthlyRent: decimal.NewFromInt(int64(100 + 2*i*100)),
			Bedrooms:    i,
			Bathrooms:   decimal.NewFromInt(1),
			SquareFeet:  i * 100,
			Source:      "Zillow",
		})
	}
	f, err := NewFrame(listings)
	require.NoError(t, err)

	slope, intercept := f.Trend()
	assert.InDelta(t, 2.0, slope, 1e-9)
	assert.InDelta(t, 100.0, intercept, 1e-9)

	corr := f.Correlation()
	assert.InDelta(t, 1.0, corr[0][2], 1e-9, "bedrooms vs sqft")
	assert.InDelta(t, 1.0, corr[2][3], 1e-9, "sqft vs rent")
	assert.Equal(t, 1.0, corr[1][1])
}

func TestDescribeColumn(t *testing.T) {
	f, err := NewFrame(sampleListings())
	require.NoError(t, err)

	d := f.DescribeColumn(ColRent)
	assert.Equal(t, 6, d.Count)
	assert.InDelta(t, 1483.33, d.Mean, 0.01)
	assert.Equal(t, 900.0, d.Min)
	assert.Equal(t, 2400.0, d.Max)

	var buf bytes.Buffer
	require.NoError(t, f.WriteSummaryTable(&buf))
	out := buf.String()
	for _, want := range []string{"count", "mean", "25%", "max", "price_per_sqft", "2400.00"} {
		assert.Contains(t, out, want)
	}
}

func TestCharts_Build(t *testing.T) {
	f, err := NewFrame(sampleListings())
	require.NoError(t, err)

	for _, c := range All {
		p, err := c.Build(f)
		require.NoError(t, err, c.File)

		wt, err := p.WriterTo(4*vg.Inch, 3*vg.Inch, "png")
		require.NoError(t, err, c.File)
		var buf bytes.Buffer
		_, err = wt.WriteTo(&buf)
		require.NoError(t, err, c.File)
		assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")), c.File)
	}
}

func TestRender(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "charts")
	paths, err := Render(sampleListings(), dir, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, paths, len(All)+1)

	for _, p := range paths {
		info, err := os.Stat(p)
		require.NoError(t, err)
		assert.Greater(t, info.Size(), int64(0))
	}
	assert.True(t, strings.HasSuffix(paths[len(paths)-1], SummaryFile))

	_, err = Render(nil, dir, zap.NewNop())
	assert.ErrorIs(t, err, ErrNoListings)
}

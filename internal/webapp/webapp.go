// Package webapp generates a self-contained HTML page embedding every listing
// for client-side browsing and filtering.
package webapp

import (
	_ "embed"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/trogers1052/rental-listing-service/internal/models"
	"github.com/trogers1052/rental-listing-service/internal/valuation"
)

//go:embed page.html.tmpl
var pageSource string

var pageTemplate = template.Must(template.New("page").Funcs(template.FuncMap{
	"bedroomLabel": bedroomLabel,
	"percent":      func(r float64) string { return fmt.Sprintf("%.0f%%", r*100) },
}).Parse(pageSource))

// PageListing is one listing as embedded in the page
type PageListing struct {
	Address       string  `json:"address"`
	Rent          float64 `json:"rent"`
	Bedrooms      int     `json:"bedrooms"`
	Bathrooms     float64 `json:"bathrooms"`
	Sqft          int     `json:"sqft"`
	PricePerSqft  float64 `json:"pricePerSqft"`
	URL           string  `json:"url"`
	Source        string  `json:"source"`
	ValueCategory string  `json:"valueCategory"`
	AvgRentForBR  float64 `json:"avgRentForBR"`
}

// Thresholds are the value category ratio bounds shown in the page legend
type Thresholds struct {
	GreatDeal  float64 `json:"greatDeal"`
	Overpriced float64 `json:"overpriced"`
}

// Page is the template data of the generated page
type Page struct {
	Title      string
	Subtitle   string
	Listings   []PageListing
	Bedrooms   []int
	Sources    []string
	Total      int
	AvgRent    float64
	MinRent    float64
	GreatDeals int
	Thresholds Thresholds
	Categories []string
}

// Options customises the page header
type Options struct {
	Title    string
	Subtitle string
}

// BuildPage classifies every listing against its bedroom-count average and
// computes the header statistics.
func BuildPage(listings []*models.Listing, opts Options) *Page {
	rents := map[int][]decimal.Decimal{}
	for _, l := range listings {
		rents[l.Bedrooms] = append(rents[l.Bedrooms], l.MonthlyRent)
	}
	groups := valuation.BedroomGroups(rents)

	p := &Page{
		Title:      opts.Title,
		Subtitle:   opts.Subtitle,
		Listings:   make([]PageListing, 0, len(listings)),
		Total:      len(listings),
		Thresholds: Thresholds{GreatDeal: valuation.GreatDealRatio, Overpriced: valuation.OverpricedRatio},
	}
	for _, c := range valuation.Categories {
		p.Categories = append(p.Categories, string(c))
	}

	sources := map[string]bool{}
	var total decimal.Decimal
	for i, l := range listings {
		category := groups[l.Bedrooms].Classify(l.MonthlyRent)
		if category == valuation.GreatDeal {
			p.GreatDeals++
		}
		rent := l.MonthlyRent.InexactFloat64()
		if i == 0 || rent < p.MinRent {
			p.MinRent = rent
		}
		total = total.Add(l.MonthlyRent)

		pl := PageListing{
			Address:       l.Address,
			Rent:          rent,
			Bedrooms:      l.Bedrooms,
			Bathrooms:     l.Bathrooms.InexactFloat64(),
			Sqft:          l.SquareFeet,
			Source:        l.Source,
			ValueCategory: string(category),
			AvgRentForBR:  groups[l.Bedrooms].Mean().Round(2).InexactFloat64(),
		}
		if l.SquareFeet > 0 {
			pl.PricePerSqft = l.MonthlyRent.Div(decimal.NewFromInt(int64(l.SquareFeet))).Round(2).InexactFloat64()
		}
		if l.ListingURL != nil {
			pl.URL = *l.ListingURL
		}
		p.Listings = append(p.Listings, pl)
		sources[l.Source] = true
	}
	if len(listings) > 0 {
		p.AvgRent = total.Div(decimal.NewFromInt(int64(len(listings)))).Round(0).InexactFloat64()
	}

	for br := range groups {
		p.Bedrooms = append(p.Bedrooms, br)
	}
	sort.Ints(p.Bedrooms)
	for s := range sources {
		p.Sources = append(p.Sources, s)
	}
	sort.Strings(p.Sources)
	return p
}

// Render writes the page as HTML
func Render(w io.Writer, p *Page) error {
	if err := pageTemplate.Execute(w, p); err != nil {
		return fmt.Errorf("failed to render page: %w", err)
	}
	return nil
}

// WriteFile renders the page to path
func WriteFile(path string, p *Page) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := Render(f, p); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func bedroomLabel(br int) string {
	if br == 0 {
		return "Studio"
	}
	return fmt.Sprintf("%d BR", br)
}

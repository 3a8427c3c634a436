// Package valuation rates a listing's rent against the average rent for its
// bedroom count. It owns both rating schemes used across the system: the
// five-bucket value score persisted with listing statistics, and the
// three-class value category used as training labels and in the static page.
// The two schemes are deliberately independent.
package valuation

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Category is the three-class value label
type Category string

const (
	GreatDeal  Category = "Great Deal"
	FairPrice  Category = "Fair Price"
	Overpriced Category = "Overpriced"
)

// Categories lists the value categories in their canonical order
var Categories = []Category{GreatDeal, FairPrice, Overpriced}

// Ratio thresholds for the three-class category.
const (
	GreatDealRatio  = 0.85
	OverpricedRatio = 1.15
)

// Value score buckets.
const (
	ScoreExcellent = 9.0
	ScoreGood      = 7.5
	ScoreAverage   = 6.0
	ScoreBelow     = 4.0
	ScorePoor      = 2.0
)

// BestDealMinScore is the lowest value score reported as a best deal
const BestDealMinScore = 7.0

// scoreBucket maps an inclusive upper ratio bound to a score.
type scoreBucket struct {
	maxRatio decimal.Decimal
	score    float64
}

var scoreBuckets = []scoreBucket{
	{decimal.RequireFromString("0.85"), ScoreExcellent},
	{decimal.RequireFromString("0.95"), ScoreGood},
	{decimal.RequireFromString("1.05"), ScoreAverage},
	{decimal.RequireFromString("1.15"), ScoreBelow},
}

var (
	greatDealRatio  = decimal.NewFromFloat(GreatDealRatio)
	overpricedRatio = decimal.NewFromFloat(OverpricedRatio)
)

// Scores lists every value the score can take, best first
var Scores = []float64{ScoreExcellent, ScoreGood, ScoreAverage, ScoreBelow, ScorePoor}

// Score returns the five-bucket value score of rent against avg. Bounds are
// inclusive: a rent of exactly 85% of the average scores 9.0.
func Score(rent, avg decimal.Decimal) float64 {
	return Group{Sum: avg, Count: 1}.Score(rent)
}

// Classify returns the three-class value category of rent against avg
func Classify(rent, avg decimal.Decimal) Category {
	return Group{Sum: avg, Count: 1}.Classify(rent)
}

// IsValidScore reports whether s is one of the five score buckets
func IsValidScore(s float64) bool {
	for _, v := range Scores {
		if v == s {
			return true
		}
	}
	return false
}

// ParseCategory converts a label back into a Category
func ParseCategory(label string) (Category, error) {
	for _, c := range Categories {
		if string(c) == label {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown value category: %q", label)
}

// Index returns the position of c in Categories, or -1
func (c Category) Index() int {
	for i, v := range Categories {
		if v == c {
			return i
		}
	}
	return -1
}

// Group is the rent population of one bedroom count. It keeps the sum and
// count rather than the mean, so ratio bounds compare exactly even when the
// mean does not terminate: rent <= mean*t is tested as rent*count <= sum*t.
type Group struct {
	Sum   decimal.Decimal
	Count int64
}

// Add puts one rent into the group
func (g *Group) Add(rent decimal.Decimal) {
	g.Sum = g.Sum.Add(rent)
	g.Count++
}

// Mean returns the average rent, zero for an empty group
func (g Group) Mean() decimal.Decimal {
	if g.Count == 0 {
		return decimal.Zero
	}
	return g.Sum.Div(decimal.NewFromInt(g.Count))
}

// IsAbove reports whether rent is strictly above the group mean
func (g Group) IsAbove(rent decimal.Decimal) bool {
	return g.scaled(rent).GreaterThan(g.Sum)
}

// Score returns the five-bucket value score of rent against the group mean
func (g Group) Score(rent decimal.Decimal) float64 {
	scaled := g.scaled(rent)
	for _, b := range scoreBuckets {
		if scaled.LessThanOrEqual(g.Sum.Mul(b.maxRatio)) {
			return b.score
		}
	}
	return ScorePoor
}

// Classify returns the three-class value category of rent against the group mean
func (g Group) Classify(rent decimal.Decimal) Category {
	scaled := g.scaled(rent)
	switch {
	case scaled.LessThanOrEqual(g.Sum.Mul(greatDealRatio)):
		return GreatDeal
	case scaled.GreaterThanOrEqual(g.Sum.Mul(overpricedRatio)):
		return Overpriced
	default:
		return FairPrice
	}
}

func (g Group) scaled(rent decimal.Decimal) decimal.Decimal {
	return rent.Mul(decimal.NewFromInt(g.Count))
}

// BedroomGroups groups rents by bedroom count
func BedroomGroups(rents map[int][]decimal.Decimal) map[int]Group {
	groups := make(map[int]Group, len(rents))
	for bedrooms, values := range rents {
		if len(values) == 0 {
			continue
		}
		var g Group
		for _, v := range values {
			g.Add(v)
		}
		groups[bedrooms] = g
	}
	return groups
}

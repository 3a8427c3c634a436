package api

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// optionalInt parses an integer query parameter no smaller than min
func optionalInt(q url.Values, name string, min int) (*int, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("%s must be an integer", name)
	}
	if v < min {
		return nil, fmt.Errorf("%s must be at least %d", name, min)
	}
	return &v, nil
}

// optionalDecimal parses a non-negative amount query parameter
func optionalDecimal(q url.Values, name string) (*decimal.Decimal, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return nil, nil
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, fmt.Errorf("%s must be a number", name)
	}
	if v.IsNegative() {
		return nil, fmt.Errorf("%s must not be negative", name)
	}
	return &v, nil
}

func optionalFloat(q url.Values, name string) (*float64, error) {
	d, err := optionalDecimal(q, name)
	if err != nil || d == nil {
		return nil, err
	}
	v := d.InexactFloat64()
	return &v, nil
}

// limitParam parses a positive limit, falling back to def when absent
func limitParam(q url.Values, def int) (int, error) {
	v, err := optionalInt(q, "limit", 1)
	if err != nil {
		return 0, err
	}
	if v == nil {
		return def, nil
	}
	return *v, nil
}

// wholeNumber reports whether v has no fractional part
func wholeNumber(v float64) bool {
	return !math.IsInf(v, 0) && !math.IsNaN(v) && v == math.Trunc(v)
}

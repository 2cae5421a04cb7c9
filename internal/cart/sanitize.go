package cart

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	minPercent  = decimal.Zero
	maxPercent  = decimal.NewFromInt(100)
	maxQuantity = decimal.NewFromInt(math.MaxInt)
)

// ClampQuantity enforces the quantity floor of 1.
func ClampQuantity(q int) int {
	if q < 1 {
		return 1
	}
	return q
}

// ClampPercent bounds a percentage to [0,100].
func ClampPercent(p decimal.Decimal) decimal.Decimal {
	if p.LessThan(minPercent) {
		return minPercent
	}
	if p.GreaterThan(maxPercent) {
		return maxPercent
	}
	return p
}

// AddQuantity sums two quantities, saturating at math.MaxInt, and applies the floor of 1.
func AddQuantity(a, b int) int {
	if b > 0 && a > math.MaxInt-b {
		return math.MaxInt
	}
	if b < 0 && a < math.MinInt-b {
		return 1
	}
	return ClampQuantity(a + b)
}

// ParseQuantity converts raw field text into a quantity. Non-numeric text yields 1, fractional
// values are truncated and values past math.MaxInt saturate.
func ParseQuantity(raw string) int {
	s := strings.TrimSpace(raw)
	if q, err := strconv.Atoi(s); err == nil {
		return ClampQuantity(q)
	}
	d, err := parseDecimal(s)
	if err != nil {
		return 1
	}
	switch {
	case d.GreaterThanOrEqual(maxQuantity):
		return math.MaxInt
	case d.LessThan(decimal.NewFromInt(1)):
		return 1
	}
	return int(d.IntPart())
}

// ParsePercent converts raw field text into a percentage in [0,100]. Non-numeric text yields 0.
func ParsePercent(raw string) decimal.Decimal {
	d, err := parseDecimal(raw)
	if err != nil {
		return decimal.Zero
	}
	return ClampPercent(d)
}

// parseDecimal accepts both "12.5" and "12,5".
func parseDecimal(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if strings.Contains(s, ",") && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	return decimal.NewFromString(s)
}

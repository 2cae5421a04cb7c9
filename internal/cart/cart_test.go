package cart

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/noah-isme/calculadora/internal/catalog"
	"github.com/noah-isme/calculadora/internal/pricing"
)

func pct(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func product(id, value, discount string) catalog.Product {
	return catalog.Product{ID: id, Name: id, Value: pct(value), Discount: pct(discount)}
}

func ids(lines []Line) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		out = append(out, l.Product.ID)
	}
	return out
}

func TestAddMergesDuplicateProduct(t *testing.T) {
	c := New()
	ps5 := product("ps5", "2500", "15")

	c.Add(ps5, 2, pct("15"))
	c.Add(product("colar", "2400", "15"), 1, pct("15"))
	line := c.Add(ps5, 3, pct("20"))

	require.Equal(t, 5, line.Quantity)
	require.True(t, line.Discount.Equal(pct("20")))
	require.Equal(t, 2, c.Len())
	require.Equal(t, []string{"ps5", "colar"}, ids(c.Lines()))
}

func TestAddClampsInputs(t *testing.T) {
	c := New()
	line := c.Add(product("a", "10", "0"), 0, pct("140"))
	require.Equal(t, 1, line.Quantity)
	require.True(t, line.Discount.Equal(pct("100")))

	line = c.Add(product("b", "10", "0"), -4, pct("-3"))
	require.Equal(t, 1, line.Quantity)
	require.True(t, line.Discount.IsZero())
}

func TestAddSaturatesLargeQuantities(t *testing.T) {
	c := New()
	ps5 := product("ps5", "2500", "15")

	c.Add(ps5, ParseQuantity("9223372036854775807"), pct("15"))
	line := c.Add(ps5, ParseQuantity("9223372036854775807"), pct("15"))
	require.Equal(t, math.MaxInt, line.Quantity)

	line, ok := c.Step("ps5", 1)
	require.True(t, ok)
	require.Equal(t, math.MaxInt, line.Quantity)

	line = c.Add(product("colar", "2400", "15"), ParseQuantity("1e30"), pct("0"))
	require.Equal(t, math.MaxInt, line.Quantity)

	for _, l := range c.Lines() {
		require.GreaterOrEqual(t, l.Quantity, 1)
		require.True(t, pricing.LineGross(l.Pricing()).IsPositive())
	}
}

func TestStepFloorsAtOne(t *testing.T) {
	c := New()
	c.Add(product("a", "10", "0"), 2, decimal.Zero)

	line, ok := c.Step("a", -1)
	require.True(t, ok)
	require.Equal(t, 1, line.Quantity)

	line, ok = c.Step("a", -1)
	require.True(t, ok)
	require.Equal(t, 1, line.Quantity)

	line, _ = c.Step("a", -50)
	require.Equal(t, 1, line.Quantity)

	line, _ = c.Step("a", 1)
	require.Equal(t, 2, line.Quantity)

	_, ok = c.Step("missing", 1)
	require.False(t, ok)
}

func TestSetDiscountOverwrites(t *testing.T) {
	c := New()
	c.Add(product("a", "10", "15"), 1, pct("15"))

	line, ok := c.SetDiscount("a", pct("42.5"))
	require.True(t, ok)
	require.True(t, line.Discount.Equal(pct("42.5")))

	line, _ = c.SetDiscount("a", pct("250"))
	require.True(t, line.Discount.Equal(pct("100")))

	_, ok = c.SetDiscount("missing", pct("1"))
	require.False(t, ok)
}

func TestRemoveAndClear(t *testing.T) {
	c := New()
	c.Add(product("a", "1", "0"), 1, decimal.Zero)
	c.Add(product("b", "1", "0"), 1, decimal.Zero)
	c.Add(product("c", "1", "0"), 1, decimal.Zero)

	require.True(t, c.Remove("b"))
	require.False(t, c.Remove("b"))
	require.Equal(t, []string{"a", "c"}, ids(c.Lines()))

	c.Add(product("b", "1", "0"), 1, decimal.Zero)
	require.Equal(t, []string{"a", "c", "b"}, ids(c.Lines()))

	c.Clear()
	require.Equal(t, 0, c.Len())
	require.Empty(t, c.Lines())
}

func TestLinesReturnsCopy(t *testing.T) {
	c := New()
	c.Add(product("a", "1", "0"), 1, decimal.Zero)
	lines := c.Lines()
	lines[0].Quantity = 99

	require.Equal(t, 1, c.Lines()[0].Quantity)
}

func TestRepeatedAddsSumQuantityAndKeepLastDiscount(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		c := New()
		p := product("p", "100", "15")
		adds := rapid.IntRange(1, 10).Draw(t, "adds")
		total := 0
		var last decimal.Decimal
		for i := 0; i < adds; i++ {
			q := rapid.IntRange(1, 50).Draw(t, "qty")
			last = decimal.NewFromInt(int64(rapid.IntRange(0, 100).Draw(t, "discount")))
			c.Add(p, q, last)
			total += q
		}
		if c.Len() != 1 {
			t.Fatalf("expected one line, got %d", c.Len())
		}
		line := c.Lines()[0]
		if line.Quantity != total {
			t.Fatalf("expected quantity %d, got %d", total, line.Quantity)
		}
		if !line.Discount.Equal(last) {
			t.Fatalf("expected discount %s, got %s", last, line.Discount)
		}
	})
}

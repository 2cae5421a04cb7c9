package pricing

import "github.com/shopspring/decimal"

// Money represents a monetary amount. Arithmetic is exact; rounding happens only when formatting.
type Money = decimal.Decimal

// Line describes a cart line used for pricing calculation. Discount is a percentage.
type Line struct {
	UnitPrice Money
	Qty       int
	Discount  decimal.Decimal
}

// LineBreakdown holds the per-line figures shown in the summary.
type LineBreakdown struct {
	Gross Money
	Cost  Money
}

// Summary aggregates computed pricing components.
type Summary struct {
	Gross           Money
	TransactionCost Money
	PanelShare      decimal.Decimal
	Panel           Money
	SellerProfit    Money
	CustomerPayout  Money
	Lines           []LineBreakdown
}

// percentOf returns v × pct / 100.
func percentOf(v Money, pct decimal.Decimal) Money {
	return v.Mul(pct).Shift(-2)
}

// LineGross is unit price × quantity.
func LineGross(l Line) Money {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Qty)))
}

// LineCost is the discount amount deducted from the line.
func LineCost(l Line) Money {
	return percentOf(LineGross(l), l.Discount)
}

// GrossTotal sums the sticker value of every line, ignoring discounts.
func GrossTotal(lines []Line) Money {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(LineGross(l))
	}
	return total
}

// TransactionCost sums the discount amount across all lines.
func TransactionCost(lines []Line) Money {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(LineCost(l))
	}
	return total
}

// PanelAmount is the share of the transaction cost allocated to the panel.
func PanelAmount(lines []Line, panelShare decimal.Decimal) Money {
	return percentOf(TransactionCost(lines), panelShare)
}

// SellerProfit is what remains of the transaction cost after the panel's share.
func SellerProfit(lines []Line, panelShare decimal.Decimal) Money {
	return TransactionCost(lines).Sub(PanelAmount(lines, panelShare))
}

// CustomerPayout is the amount due to the customer after discount deduction.
func CustomerPayout(lines []Line) Money {
	return GrossTotal(lines).Sub(TransactionCost(lines))
}

// Compute calculates every figure in a single pass over lines.
func Compute(lines []Line, panelShare decimal.Decimal) Summary {
	gross := decimal.Zero
	cost := decimal.Zero
	breakdown := make([]LineBreakdown, 0, len(lines))
	for _, l := range lines {
		g := LineGross(l)
		c := percentOf(g, l.Discount)
		gross = gross.Add(g)
		cost = cost.Add(c)
		breakdown = append(breakdown, LineBreakdown{Gross: g, Cost: c})
	}
	panel := percentOf(cost, panelShare)
	return Summary{
		Gross:           gross,
		TransactionCost: cost,
		PanelShare:      panelShare,
		Panel:           panel,
		SellerProfit:    cost.Sub(panel),
		CustomerPayout:  gross.Sub(cost),
		Lines:           breakdown,
	}
}

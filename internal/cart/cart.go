package cart

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/calculadora/internal/catalog"
	"github.com/noah-isme/calculadora/internal/pricing"
)

// Line is one product entry in the cart. Discount is the effective percentage for this line.
type Line struct {
	Product  catalog.Product
	Quantity int
	Discount decimal.Decimal
}

// Pricing converts the line into the pricing model's representation.
func (l Line) Pricing() pricing.Line {
	return pricing.Line{UnitPrice: l.Product.Value, Qty: l.Quantity, Discount: l.Discount}
}

// PricingLines converts lines for pricing.Compute.
func PricingLines(lines []Line) []pricing.Line {
	out := make([]pricing.Line, 0, len(lines))
	for _, l := range lines {
		out = append(out, l.Pricing())
	}
	return out
}

// Cart is an ordered mapping of product id to line. Order follows first insertion.
type Cart struct {
	order []string
	lines map[string]Line
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{lines: map[string]Line{}}
}

// Add upserts a line for p. An existing line keeps its position, sums the quantity and takes
// the new discount.
func (c *Cart) Add(p catalog.Product, qty int, discount decimal.Decimal) Line {
	qty = ClampQuantity(qty)
	discount = ClampPercent(discount)
	line, ok := c.lines[p.ID]
	if ok {
		line.Quantity = AddQuantity(line.Quantity, qty)
		line.Discount = discount
	} else {
		line = Line{Product: p, Quantity: qty, Discount: discount}
		c.order = append(c.order, p.ID)
	}
	c.lines[p.ID] = line
	return line
}

// Step changes the quantity of the line for id by delta, never going below 1 or past math.MaxInt.
func (c *Cart) Step(id string, delta int) (Line, bool) {
	line, ok := c.lines[id]
	if !ok {
		return Line{}, false
	}
	line.Quantity = AddQuantity(line.Quantity, delta)
	c.lines[id] = line
	return line, true
}

// SetDiscount overwrites the discount of the line for id.
func (c *Cart) SetDiscount(id string, discount decimal.Decimal) (Line, bool) {
	line, ok := c.lines[id]
	if !ok {
		return Line{}, false
	}
	line.Discount = ClampPercent(discount)
	c.lines[id] = line
	return line, true
}

// Remove deletes the line for id and reports whether it existed.
func (c *Cart) Remove(id string) bool {
	if _, ok := c.lines[id]; !ok {
		return false
	}
	delete(c.lines, id)
	order := make([]string, 0, len(c.order)-1)
	for _, existing := range c.order {
		if existing != id {
			order = append(order, existing)
		}
	}
	c.order = order
	return true
}

// Clear removes every line.
func (c *Cart) Clear() {
	c.order = nil
	c.lines = map[string]Line{}
}

// Lines returns a copy of the lines in display order.
func (c *Cart) Lines() []Line {
	out := make([]Line, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.lines[id])
	}
	return out
}

// Len reports the number of distinct lines.
func (c *Cart) Len() int {
	return len(c.order)
}

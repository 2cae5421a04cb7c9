package cart

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/calculadora/internal/catalog"
)

// Form is the "add product" input state. Each field is sanitised on every edit.
// An invalid Discount means the field is blank.
type Form struct {
	ProductID string
	Quantity  int
	Discount  decimal.NullDecimal
}

// NewForm returns the initial form: nothing selected, quantity 1, blank discount.
func NewForm() Form {
	return Form{Quantity: 1}
}

// Selected reports whether a product is chosen.
func (f Form) Selected() bool {
	return f.ProductID != ""
}

// EffectiveDiscount is the discount applied when the form is submitted. Blank means 0.
func (f Form) EffectiveDiscount() decimal.Decimal {
	if !f.Discount.Valid {
		return decimal.Zero
	}
	return f.Discount.Decimal
}

// Select chooses p and pre-fills the discount with its default.
func (f *Form) Select(p catalog.Product) {
	f.ProductID = p.ID
	f.Discount = decimal.NewNullDecimal(ClampPercent(p.Discount))
}

// Deselect clears the selection and the discount field.
func (f *Form) Deselect() {
	f.ProductID = ""
	f.Discount = decimal.NullDecimal{}
}

// SetQuantity applies a raw quantity edit.
func (f *Form) SetQuantity(raw string) {
	f.Quantity = ParseQuantity(raw)
}

// SetDiscount applies a raw discount edit. Empty text blanks the field. The field is disabled
// while nothing is selected, so the edit reports false and changes nothing.
func (f *Form) SetDiscount(raw string) bool {
	if !f.Selected() {
		return false
	}
	if strings.TrimSpace(raw) == "" {
		f.Discount = decimal.NullDecimal{}
		return true
	}
	f.Discount = decimal.NewNullDecimal(ParsePercent(raw))
	return true
}

// Reset restores the initial form after a successful add.
func (f *Form) Reset() {
	*f = NewForm()
}

package pricing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Formatter renders monetary amounts for a single locale and currency.
type Formatter struct {
	printer *message.Printer
	symbol  string
	code    string
}

// NewFormatter builds a formatter for the BCP 47 locale and ISO 4217 currency code.
func NewFormatter(locale, code string) (*Formatter, error) {
	tag, err := language.Parse(strings.TrimSpace(locale))
	if err != nil {
		return nil, fmt.Errorf("parse locale %q: %w", locale, err)
	}
	unit, err := currency.ParseISO(strings.TrimSpace(code))
	if err != nil {
		return nil, fmt.Errorf("parse currency %q: %w", code, err)
	}
	p := message.NewPrinter(tag)
	return &Formatter{
		printer: p,
		symbol:  p.Sprint(currency.Symbol(unit)),
		code:    unit.String(),
	}, nil
}

// Currency returns the ISO code used by the formatter.
func (f *Formatter) Currency() string {
	if f == nil {
		return ""
	}
	return f.code
}

// Format renders amount with two decimals, the currency symbol and locale grouping.
func (f *Formatter) Format(amount decimal.Decimal) string {
	if f == nil {
		return amount.StringFixed(2)
	}
	v := amount.Round(2).InexactFloat64()
	return f.symbol + "\u00a0" + f.printer.Sprint(number.Decimal(v, number.Scale(2)))
}

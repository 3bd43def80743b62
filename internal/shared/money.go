package shared

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Scales stored by the ledger tables.
const (
	AmountPlaces   int32 = 2
	QuantityPlaces int32 = 4
)

// MoneyEpsilon is the remaining balance below which a credit counts as settled.
var MoneyEpsilon = decimal.RequireFromString("0.01")

var printer = message.NewPrinter(language.English)

// FitsScale reports whether d carries no more than places decimals.
func FitsScale(d decimal.Decimal, places int32) bool {
	return d.Equal(d.Truncate(places))
}

// FormatAmount renders d with thousands separators and two decimals.
func FormatAmount(d decimal.Decimal) string {
	return printer.Sprintf("%.2f", d.Round(AmountPlaces).InexactFloat64())
}

// FormatQuantity renders a stock quantity with thousands separators and up to
// four decimals, dropping trailing zeros.
func FormatQuantity(d decimal.Decimal) string {
	d = d.Round(QuantityPlaces)
	whole := d.Truncate(0)
	out := printer.Sprintf("%d", whole.Abs().IntPart())
	if frac := d.Sub(whole).Abs(); !frac.IsZero() {
		out += strings.TrimPrefix(frac.String(), "0")
	}
	if d.IsNegative() {
		out = "-" + out
	}
	return out
}

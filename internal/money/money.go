// Package money renders amounts for user-facing response text. The engine
// itself works in plain float64 rupees; this only controls display.
package money

import (
	"math"

	"github.com/dustin/go-humanize"
)

// Symbol is the fixed currency symbol used in every response.
const Symbol = "₹"

// Format renders an amount with the currency symbol and thousands grouping,
// rounded to whole rupees for display.
func Format(amount float64) string {
	return Symbol + humanize.CommafWithDigits(math.Round(amount), 0)
}

// FormatAbs renders the magnitude of an amount, for overspend/shortfall text.
func FormatAbs(amount float64) string {
	return Format(math.Abs(amount))
}

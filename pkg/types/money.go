package types

import "github.com/shopspring/decimal"

// FormatCents renders an integer cent amount as a two-decimal string ("25.00").
func FormatCents(cents int) string {
	return decimal.New(int64(cents), -2).StringFixed(2)
}

// CentsFromDecimal converts a currency amount to cents, rounding half away from zero.
func CentsFromDecimal(amount decimal.Decimal) int {
	return int(amount.Shift(2).Round(0).IntPart())
}

// Package core provides money handling utilities.
//
// Amounts are currency-agnostic decimal magnitudes; polarity lives in the
// IsIncome flag, never in the sign.
package core

import "github.com/shopspring/decimal"

// FormatAmount renders an amount with exactly two decimals for display.
// Stored amounts keep their full precision.
func FormatAmount(v decimal.Decimal) string {
	return v.StringFixed(2)
}

package utils

import (
	"github.com/shopspring/decimal"
)

// MoneyPrecision is the number of decimal places converted amounts are rounded to.
const MoneyPrecision = 2

// RoundMoney rounds an amount half away from zero to MoneyPrecision places.
// Example: 12.345 returns 12.35
func RoundMoney(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(MoneyPrecision)
}

// FormatMoney renders an amount with its currency code, e.g. "USD 12.35".
func FormatMoney(amount decimal.Decimal, currencyCode string) string {
	return currencyCode + " " + amount.StringFixed(MoneyPrecision)
}

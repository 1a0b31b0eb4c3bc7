// Package core holds the domain model shared by every other package:
// entity shapes, the fixed enumerations, and the pure ledger computations.
package core

import (
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// ParseAmount converts user input into a positive decimal amount.
// It accepts both dot (12.34) and comma (12,34) decimal separators.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", ".")
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if !d.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// FormatAmount renders an amount in the control's currency, e.g. "R$1,234.50".
// Amounts are truncated to the currency's minor unit; no conversion happens.
func FormatAmount(amount decimal.Decimal, currency Currency) string {
	cur := money.GetCurrency(string(currency))
	if cur == nil {
		return amount.StringFixed(2) + " " + string(currency)
	}
	minor := amount.Shift(int32(cur.Fraction)).IntPart()
	return money.New(minor, cur.Code).Display()
}

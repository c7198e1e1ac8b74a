// Package core provides money parsing and handling utilities.
//
// This file contains the amount parser shared by record normalization and
// the create form, plus currency formatting for presentation.
package core

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ParseAmount converts a decimal string to a signed amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and an
// optional leading sign. Thousands separators are not supported.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34, nil
//	ParseAmount("-12,5")  -> -12.5, nil
//	ParseAmount("1.2.3")  -> 0, ErrInvalidAmount
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	f, _ := d.Float64()
	if !isFinite(f) {
		return 0, ErrInvalidAmount
	}
	return f, nil
}

// SignedAmount applies an explicit direction to a magnitude: income is
// always positive, expenses always negative.
func SignedAmount(amount float64, isIncome bool) float64 {
	a := math.Abs(amount)
	if isIncome {
		return a
	}
	return -a
}

var moneyPrinter = message.NewPrinter(language.English)

// FormatMoney renders an amount as "$1,234.56" or "-$12.00".
func FormatMoney(amount float64) string {
	d := decimal.NewFromFloat(amount).Round(2)
	sign := ""
	if d.IsNegative() {
		sign = "-"
	}
	d = d.Abs()
	whole := d.Truncate(0)
	cents := d.Sub(whole).Shift(2).IntPart()
	return sign + "$" + moneyPrinter.Sprintf("%d", whole.IntPart()) + fmt.Sprintf(".%02d", cents)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

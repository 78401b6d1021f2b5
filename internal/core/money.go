// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing amounts typed into the asset form
// and for rendering decimal amounts as dollar strings.
package core

import (
	"strings"
	"unicode"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// DisplayCurrency is the single currency the dashboard renders amounts in.
const DisplayCurrency = money.USD

// ParseAmount converts a user supplied decimal string to a decimal value.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. When both
// appear, commas are treated as thousands separators (1,234.56). A leading
// sign is allowed; callers decide whether negatives are acceptable.
//
// Examples:
//
//	ParseAmount("12.34")     -> 12.34
//	ParseAmount("12,34")     -> 12.34
//	ParseAmount("-500")      -> -500
//	ParseAmount("1,234.50")  -> 1234.5
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	if strings.Contains(s, ".") && strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ",", "")
	} else {
		s = strings.ReplaceAll(s, ",", ".")
	}

	body := s
	if strings.HasPrefix(body, "+") || strings.HasPrefix(body, "-") {
		body = body[1:]
	}
	if body == "" || strings.Count(body, ".") > 1 {
		return decimal.Zero, ErrInvalidAmount
	}
	digits := 0
	for _, r := range body {
		if r == '.' {
			continue
		}
		if !unicode.IsDigit(r) {
			return decimal.Zero, ErrInvalidAmount
		}
		digits++
	}
	if digits == 0 {
		return decimal.Zero, ErrInvalidAmount
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// FormatMoney renders an amount as a dollar string with thousands separators,
// e.g. "$1,060,000.00". Amounts are rounded to cents. Digits are grouped on
// the decimal string, so amounts beyond int64 cents keep their sign.
func FormatMoney(d decimal.Decimal) string {
	cur := money.GetCurrency(DisplayCurrency)
	fraction := int32(cur.Fraction)
	d = d.Round(fraction)

	whole, frac, _ := strings.Cut(d.Abs().StringFixed(fraction), ".")
	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteString(cur.Thousand)
		}
		b.WriteRune(r)
	}
	if frac != "" {
		b.WriteString(cur.Decimal)
		b.WriteString(frac)
	}

	out := strings.Replace(cur.Template, "1", b.String(), 1)
	out = strings.Replace(out, "$", cur.Grapheme, 1)
	if d.IsNegative() {
		out = "-" + out
	}
	return out
}

// FormatSignedMoney is FormatMoney with an explicit "+" for positive amounts.
func FormatSignedMoney(d decimal.Decimal) string {
	if d.IsPositive() {
		return "+" + FormatMoney(d)
	}
	return FormatMoney(d)
}

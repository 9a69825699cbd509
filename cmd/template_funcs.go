/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package cmd

import (
	"fmt"
	htmltemplate "html/template"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/humaidq/tally/finance"
)

const (
	displayDateLayout = "2 Jan 2006"
	inputDateLayout   = "2006-01-02"
)

func templateFuncs() htmltemplate.FuncMap {
	return htmltemplate.FuncMap{
		"money":         formatMoney,
		"amount":        finance.FormatAmount,
		"amountInput":   amountInput,
		"percent":       formatPercent,
		"progressWidth": progressWidth,
		"date":          formatDate,
		"dateValue":     dateValue,
		"optDate":       formatOptionalDate,
		"optDateValue":  optionalDateValue,
		"deref":         deref,
		"title":         titleWord,
		"isNegative":    func(d decimal.Decimal) bool { return d.IsNegative() },
		"isPositive":    func(d decimal.Decimal) bool { return d.IsPositive() },
		"dict":          dict,
	}
}

// formatMoney renders an amount with its currency code, e.g. "AED 1,250.00".
func formatMoney(currency string, amount decimal.Decimal) string {
	if currency == "" {
		currency = finance.DefaultCurrency
	}

	return currency + " " + finance.FormatAmount(amount)
}

func amountInput(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}

func formatPercent(value float64) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return "-"
	}

	return fmt.Sprintf("%.1f%%", value)
}

// progressWidth clamps a percentage into a CSS width declaration.
func progressWidth(value float64) htmltemplate.CSS {
	if math.IsNaN(value) || value < 0 {
		value = 0
	}

	if value > 100 {
		value = 100
	}

	// #nosec G203 -- the value is a clamped number formatted by fmt.
	return htmltemplate.CSS(fmt.Sprintf("width: %.0f%%", value))
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	return t.Format(displayDateLayout)
}

func dateValue(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	return t.Format(inputDateLayout)
}

func formatOptionalDate(t *time.Time) string {
	if t == nil {
		return "-"
	}

	return formatDate(*t)
}

func optionalDateValue(t *time.Time) string {
	if t == nil {
		return ""
	}

	return dateValue(*t)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}

	return *s
}

// titleWord capitalizes enum-like values such as account types.
func titleWord(value interface{}) string {
	s := fmt.Sprint(value)
	if s == "" {
		return s
	}

	return strings.ToUpper(s[:1]) + s[1:]
}

// dict builds a map from alternating keys and values for passing several
// values to a nested template.
func dict(values ...interface{}) (map[string]interface{}, error) {
	if len(values)%2 != 0 {
		return nil, errDictOddArguments
	}

	out := make(map[string]interface{}, len(values)/2)

	for i := 0; i < len(values); i += 2 {
		key, ok := values[i].(string)
		if !ok {
			return nil, errDictKeyNotString
		}

		out[key] = values[i+1]
	}

	return out, nil
}

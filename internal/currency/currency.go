// Package currency provides currency detection, decimal-place policy, and
// display formatting for statement data.
package currency

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var log = logrus.New()

// SetLogger sets a custom logger for this package
func SetLogger(logger *logrus.Logger) {
	if logger != nil {
		log = logger
	}
}

// DefaultFallback is used when no currency can be detected from a statement.
const DefaultFallback = "HUF"

// symbolOrder fixes the scan order for symbol and code detection. Several
// symbols are shared ("¥" for JPY and CNY, "kr" for SEK/NOK/DKK), so the
// first listed code must win every run.
var symbolOrder = []string{
	"USD", "EUR", "GBP", "JPY", "CNY", "CAD", "AUD", "CHF", "HUF", "PLN",
	"CZK", "SEK", "NOK", "DKK", "RON", "BGN", "HRK", "RUB", "TRY", "INR",
	"KRW", "SGD", "HKD", "MXN", "BRL", "ZAR", "NZD", "THB", "MYR", "IDR",
	"PHP", "VND",
}

// Symbols maps ISO currency codes to their display symbols.
var Symbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
	"CNY": "¥",
	"CAD": "C$",
	"AUD": "A$",
	"CHF": "CHF",
	"HUF": "Ft",
	"PLN": "zł",
	"CZK": "Kč",
	"SEK": "kr",
	"NOK": "kr",
	"DKK": "kr",
	"RON": "lei",
	"BGN": "лв",
	"HRK": "kn",
	"RUB": "₽",
	"TRY": "₺",
	"INR": "₹",
	"KRW": "₩",
	"SGD": "S$",
	"HKD": "HK$",
	"MXN": "MX$",
	"BRL": "R$",
	"ZAR": "R",
	"NZD": "NZ$",
	"THB": "฿",
	"MYR": "RM",
	"IDR": "Rp",
	"PHP": "₱",
	"VND": "₫",
}

// zeroDecimalCurrencies are currencies whose amounts carry no fractional part.
var zeroDecimalCurrencies = map[string]bool{
	"JPY": true,
	"KRW": true,
	"VND": true,
	"IDR": true,
	"HUF": true,
	"CLP": true,
	"ISK": true,
}

// symbolSuffixCurrencies put the symbol after the amount (e.g. "1500 Ft").
var symbolSuffixCurrencies = map[string]bool{
	"HUF": true,
	"PLN": true,
	"CZK": true,
	"SEK": true,
	"NOK": true,
	"DKK": true,
	"RON": true,
}

// Decimals returns the number of decimal places for a currency code.
func Decimals(code string) int {
	if zeroDecimalCurrencies[strings.ToUpper(code)] {
		return 0
	}
	return 2
}

// Round rounds an amount according to the currency's decimal policy.
func Round(amount decimal.Decimal, code string) decimal.Decimal {
	return amount.Round(int32(Decimals(code)))
}

// Detect determines the statement currency from a raw CSV table.
// Detection order:
//  1. statistical mode of the values in an explicit "Currency" column,
//  2. a known currency code appearing in any column whose name contains
//     "currency",
//  3. a known currency symbol appearing in any monetary-looking column,
//  4. the supplied fallback code.
func Detect(header []string, records [][]string, fallback string) string {
	if fallback == "" {
		fallback = DefaultFallback
	}

	if code, ok := detectFromCurrencyColumn(header, records); ok {
		return code
	}
	if code, ok := detectFromColumnNames(header, records); ok {
		return code
	}
	if code, ok := detectFromSymbols(header, records); ok {
		return code
	}

	log.WithField("fallback", fallback).Debug("No currency detected in statement, using fallback")
	return fallback
}

// detectFromCurrencyColumn returns the most frequent non-empty value of the
// explicit "Currency" column, normalized to uppercase.
func detectFromCurrencyColumn(header []string, records [][]string) (string, bool) {
	col := -1
	for i, name := range header {
		if strings.EqualFold(strings.TrimSpace(name), "Currency") {
			col = i
			break
		}
	}
	if col < 0 {
		return "", false
	}

	counts := make(map[string]int)
	var best string
	for _, record := range records {
		if col >= len(record) {
			continue
		}
		value := strings.ToUpper(strings.TrimSpace(record[col]))
		if value == "" {
			continue
		}
		counts[value]++
		if best == "" || counts[value] > counts[best] {
			best = value
		}
	}
	if best == "" {
		return "", false
	}
	return best, true
}

func detectFromColumnNames(header []string, records [][]string) (string, bool) {
	for i, name := range header {
		if !strings.Contains(strings.ToLower(name), "currency") {
			continue
		}
		for _, record := range records {
			if i >= len(record) {
				continue
			}
			value := strings.ToUpper(strings.TrimSpace(record[i]))
			for _, code := range symbolOrder {
				if strings.Contains(value, code) {
					return code, true
				}
			}
		}
	}
	return "", false
}

func detectFromSymbols(header []string, records [][]string) (string, bool) {
	monetaryHints := []string{"amount", "price", "value", "cost", "total"}
	for i, name := range header {
		lower := strings.ToLower(name)
		monetary := false
		for _, hint := range monetaryHints {
			if strings.Contains(lower, hint) {
				monetary = true
				break
			}
		}
		if !monetary {
			continue
		}
		for _, record := range records {
			if i >= len(record) {
				continue
			}
			for _, code := range symbolOrder {
				if strings.Contains(record[i], Symbols[code]) {
					return code, true
				}
			}
		}
	}
	return "", false
}

// Format renders an amount for display with the currency's symbol and
// decimal policy. Compact mode abbreviates thousands and millions
// (e.g. "1.5k Ft") for chart axis labels.
func Format(amount decimal.Decimal, code string, compact bool) string {
	code = strings.ToUpper(code)
	symbol, ok := Symbols[code]
	if !ok {
		symbol = code
	}
	decimals := Decimals(code)

	var formatted string
	abs := amount.Abs()
	switch {
	case compact && abs.GreaterThanOrEqual(decimal.NewFromInt(1_000_000)):
		formatted = amount.Div(decimal.NewFromInt(1_000_000)).StringFixed(1) + "M"
	case compact && abs.GreaterThanOrEqual(decimal.NewFromInt(1000)):
		formatted = amount.Div(decimal.NewFromInt(1000)).StringFixed(1) + "k"
	default:
		formatted = amount.StringFixed(int32(decimals))
	}

	if symbolSuffixCurrencies[code] {
		return formatted + " " + symbol
	}
	return symbol + formatted
}

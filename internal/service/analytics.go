package service

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/leviipope/finance-dashboard/internal/models"
)

// monthOf extracts the "YYYY-MM" bucket from a normalized transaction date.
func monthOf(date string) string {
	if len(date) < 7 {
		return date
	}
	return date[:7]
}

// MonthlySpendByCategory aggregates outgoing amounts per month and category.
// Only spending rows count (negative amounts, not hidden, not savings
// transfers); totals are reported as positive magnitudes.
func MonthlySpendByCategory(transactions []models.Transaction) map[string]map[string]decimal.Decimal {
	spend := make(map[string]map[string]decimal.Decimal)
	for _, tx := range SpendingTransactions(transactions) {
		if !tx.Amount.IsNegative() {
			continue
		}
		month := monthOf(tx.Date)
		if spend[month] == nil {
			spend[month] = make(map[string]decimal.Decimal)
		}
		spend[month][tx.Category] = spend[month][tx.Category].Add(tx.Amount.Neg())
	}
	return spend
}

// IncomeTotals aggregates incoming amounts per month, excluding hidden rows
// and savings transfers.
func IncomeTotals(transactions []models.Transaction) map[string]decimal.Decimal {
	income := make(map[string]decimal.Decimal)
	for _, tx := range SpendingTransactions(transactions) {
		if !tx.Amount.IsPositive() {
			continue
		}
		month := monthOf(tx.Date)
		income[month] = income[month].Add(tx.Amount)
	}
	return income
}

// Months returns the month keys of an aggregation in chronological order.
func Months[V any](byMonth map[string]V) []string {
	months := make([]string, 0, len(byMonth))
	for month := range byMonth {
		months = append(months, month)
	}
	sort.Strings(months)
	return months
}

// Package statement parses raw bank-statement CSV exports into a normalized
// ledger: it resolves the required columns, detects the statement currency,
// drops interest noise, flags internal transfers, and categorizes the result.
package statement

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/leviipope/finance-dashboard/internal/categorizer"
	"github.com/leviipope/finance-dashboard/internal/currency"
	"github.com/leviipope/finance-dashboard/internal/models"
	"github.com/leviipope/finance-dashboard/internal/store"

	"github.com/sirupsen/logrus"
)

var log = logrus.New()

// SetLogger sets a configured logger for this package
func SetLogger(logger *logrus.Logger) {
	if logger != nil {
		log = logger
		categorizer.SetLogger(logger)
		currency.SetLogger(logger)
	}
}

// Options configure a statement parse.
type Options struct {
	// Categories drives categorization of the parsed rows. Nil means no
	// user rules: every row comes back "Uncategorized".
	Categories *store.CategoryStore
	// FallbackCurrency is used when detection finds nothing. Empty falls
	// back to the package default.
	FallbackCurrency string
	// HideRules override the built-in noise patterns. Nil selects
	// DefaultHideRules for the detected currency.
	HideRules []HideRule
}

// logical statement columns and their accepted header spellings.
var columnAliases = map[string][]string{
	"date":        {"Started Date", "Date"},
	"description": {"Description"},
	"amount":      {"Amount"},
	"balance":     {"Balance"},
	"product":     {"Product"},
	"type":        {"Type"},
}

var requiredColumns = []string{"date", "description", "amount", "balance", "product", "type"}

// Parse reads a statement CSV export and returns the normalized, categorized
// ledger plus the rows dropped for unparsable balances. A missing required
// column, an unparsable date, or an unparsable amount fails the whole parse:
// those errors indicate a malformed file, not a bad row.
func Parse(r io.Reader, opts Options) (*models.Ledger, []DroppedRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("error reading statement header: %w", err)
	}
	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("error reading statement rows: %w", err)
	}

	columns, err := resolveColumns(header)
	if err != nil {
		return nil, nil, err
	}

	// Currency is detected from the raw table before any column is
	// discarded; it decides the rounding policy below.
	code := currency.Detect(header, records, opts.FallbackCurrency)

	var (
		transactions []models.Transaction
		dropped      []DroppedRow
	)

	for _, record := range records {
		if isBlank(record) {
			continue
		}

		txType := field(record, columns["type"])
		// Interest payments are dropped outright, not hidden: they are
		// noise for spend/income analysis and never enter the ledger.
		if txType == models.TypeInterest {
			continue
		}

		rawDate := field(record, columns["date"])
		date, err := models.NormalizeDate(rawDate)
		if err != nil {
			return nil, nil, &ParseError{Reason: ReasonBadDate, Field: "date", Value: rawDate, Err: err}
		}

		rawAmount := field(record, columns["amount"])
		amount, err := models.ParseAmount(rawAmount)
		if err != nil {
			return nil, nil, &ParseError{Reason: ReasonBadAmount, Field: "amount", Value: rawAmount, Err: err}
		}
		amount = currency.Round(amount, code)

		description := field(record, columns["description"])

		balance, err := models.ParseAmount(field(record, columns["balance"]))
		if err != nil {
			// Partial-failure policy: a bad balance drops the row,
			// never the statement.
			dropped = append(dropped, DroppedRow{Description: description, Amount: amount.String()})
			continue
		}

		transactions = append(transactions, models.Transaction{
			Date:        date,
			Description: description,
			Amount:      amount,
			Balance:     balance.Round(0),
			Product:     field(record, columns["product"]),
			Type:        txType,
			Category:    models.CategoryUncategorized,
		})
	}

	rules := opts.HideRules
	if rules == nil {
		rules = DefaultHideRules(code)
	}
	applyHideRules(transactions, rules)

	categories := opts.Categories
	if categories == nil {
		categories = store.NewCategoryStore()
	}
	transactions = categorizer.Categorize(transactions, categories)

	for _, row := range dropped {
		log.WithFields(logrus.Fields{
			"description": row.Description,
			"amount":      row.Amount,
		}).Warn("Dropped statement row with invalid balance")
	}
	log.WithFields(logrus.Fields{
		"rows":     len(transactions),
		"dropped":  len(dropped),
		"currency": code,
	}).Info("Parsed statement")

	return &models.Ledger{Transactions: transactions, Currency: code}, dropped, nil
}

// resolveColumns maps each logical column to its index in the header, or
// fails with a MissingColumn parse error naming the first absent one.
func resolveColumns(header []string) (map[string]int, error) {
	columns := make(map[string]int, len(requiredColumns))
	for _, logical := range requiredColumns {
		idx := -1
		for _, alias := range columnAliases[logical] {
			for i, name := range header {
				if strings.EqualFold(strings.TrimSpace(name), alias) {
					idx = i
					break
				}
			}
			if idx >= 0 {
				break
			}
		}
		if idx < 0 {
			return nil, &ParseError{Reason: ReasonMissingColumn, Field: logical}
		}
		columns[logical] = idx
	}
	return columns, nil
}

func field(record []string, idx int) string {
	if idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

func isBlank(record []string) bool {
	for _, value := range record {
		if strings.TrimSpace(value) != "" {
			return false
		}
	}
	return true
}

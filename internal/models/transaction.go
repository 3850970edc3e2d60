// Package models provides the data structures used throughout the application.
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Reserved values shared across packages.
const (
	// CategoryUncategorized is the default category for unmatched transactions.
	CategoryUncategorized = "Uncategorized"
	// TypeInterest marks interest payments, which are dropped at parse time.
	TypeInterest = "INTEREST"
	// ProductSavings is the savings account label; savings flows are excluded
	// from spending analysis.
	ProductSavings = "Deposit"
)

// DateLayout is the canonical date format for stored transactions (ISO, no time).
const DateLayout = "2006-01-02"

// Transaction represents a single statement line item.
// Sign convention: negative Amount = money out, positive = money in.
type Transaction struct {
	Date        string          `csv:"Date"`        // Calendar date in YYYY-MM-DD format
	Description string          `csv:"Description"` // Free-text description from the statement
	Amount      decimal.Decimal `csv:"Amount"`      // Signed amount in the ledger currency
	Balance     decimal.Decimal `csv:"Balance"`     // Running balance reported by the source
	Product     string          `csv:"Product"`     // Account/product label (Current, Deposit, ...)
	Type        string          `csv:"Type"`        // Source transaction-type label
	Category    string          `csv:"Category"`    // Category name from the user's category store
	Hide        bool            `csv:"Hide"`        // Internal transfer/noise flag
}

// Key returns the natural deduplication key for a transaction.
// Two rows matching on (date, description, balance) are the same real-world
// event even across overlapping statement uploads: the running balance is a
// point-in-time fact that cannot coincidentally repeat for distinct events
// with the same date and description.
func (t *Transaction) Key() string {
	return t.Date + "\x1f" + t.Description + "\x1f" + t.Balance.String()
}

// Ledger is the ordered-by-insertion transaction collection for one user,
// plus the currency detected from the source statement. The currency is
// display metadata; none of the merge or categorization logic depends on it.
type Ledger struct {
	Transactions []Transaction
	Currency     string
}

// commonDateFormats are the statement date formats accepted at parse time.
// Bank exports ship datetimes; only the calendar date is retained.
var commonDateFormats = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05-07:00",
	"2006-01-02",
	"02.01.2006",
	"02/01/2006",
	"2006/01/02",
}

// NormalizeDate converts a statement date string to the canonical YYYY-MM-DD
// form. It reports an error on unparsable input so that callers can fail the
// whole parse rather than store garbage.
func NormalizeDate(dateStr string) (string, error) {
	cleaned := strings.TrimSpace(dateStr)
	if cleaned == "" {
		return "", fmt.Errorf("empty date")
	}

	for _, format := range commonDateFormats {
		if t, err := time.Parse(format, cleaned); err == nil {
			return t.Format(DateLayout), nil
		}
	}

	return "", fmt.Errorf("unrecognized date format: %q", cleaned)
}

// ParseAmount parses a statement amount string into a decimal.
// It tolerates surrounding spaces and comma decimal separators.
func ParseAmount(amountStr string) (decimal.Decimal, error) {
	amount := strings.TrimSpace(amountStr)
	amount = strings.ReplaceAll(amount, " ", "")
	// Comma as decimal separator when no dot is present,
	// thousand separator otherwise.
	if strings.Contains(amount, ",") {
		if strings.Contains(amount, ".") {
			amount = strings.ReplaceAll(amount, ",", "")
		} else {
			amount = strings.ReplaceAll(amount, ",", ".")
		}
	}

	dec, err := decimal.NewFromString(amount)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", amountStr, err)
	}
	return dec, nil
}

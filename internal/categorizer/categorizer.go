// Package categorizer assigns categories to transactions from the user's
// keyword rules. Matching is an exact (case/whitespace-insensitive) equality
// test between the transaction description and a keyword, not a substring
// scan.
package categorizer

import (
	"strings"

	"github.com/leviipope/finance-dashboard/internal/models"
	"github.com/leviipope/finance-dashboard/internal/store"

	"github.com/sirupsen/logrus"
)

var log = logrus.New()

// SetLogger sets a custom logger for this package
func SetLogger(logger *logrus.Logger) {
	if logger != nil {
		log = logger
	}
}

// Categorize returns a copy of the transactions with Category assigned from
// the store's keyword rules. Transactions without a matching keyword get
// "Uncategorized". The store is never mutated.
//
// Tie-break: when the same keyword appears under several categories, the
// first category in store insertion order wins. The reverse index below
// preserves that rule by never overwriting an existing keyword entry.
func Categorize(transactions []models.Transaction, cs *store.CategoryStore) []models.Transaction {
	index := buildIndex(cs)

	out := make([]models.Transaction, len(transactions))
	copy(out, transactions)

	matched := 0
	for i := range out {
		out[i].Category = models.CategoryUncategorized
		description := normalize(out[i].Description)
		if category, ok := index[description]; ok {
			out[i].Category = category
			matched++
		}
	}

	log.WithFields(logrus.Fields{
		"total":   len(out),
		"matched": matched,
	}).Debug("Categorized transactions")
	return out
}

// buildIndex maps each normalized keyword to its owning category.
// Categories are visited in insertion order and an existing entry is never
// replaced, so keyword collisions resolve to the earliest category.
func buildIndex(cs *store.CategoryStore) map[string]string {
	index := make(map[string]string)
	for _, category := range cs.Categories() {
		if category.Name == models.CategoryUncategorized {
			continue
		}
		for _, keyword := range category.Keywords {
			kw := normalize(keyword)
			if kw == "" {
				continue
			}
			if _, taken := index[kw]; !taken {
				index[kw] = category.Name
			}
		}
	}
	return index
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

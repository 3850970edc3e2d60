// Package ledger implements the idempotent incremental merge of newly parsed
// statements into a user's growing transaction set.
package ledger

import (
	"github.com/leviipope/finance-dashboard/internal/models"

	"github.com/sirupsen/logrus"
)

var log = logrus.New()

// SetLogger sets a custom logger for this package
func SetLogger(logger *logrus.Logger) {
	if logger != nil {
		log = logger
	}
}

// Merge combines the existing ledger rows with a newly parsed statement and
// deduplicates on the (date, description, balance) natural key, keeping the
// first-seen occurrence. Re-uploading an overlapping statement range
// therefore never overwrites category or hide edits already applied to
// existing rows. The returned count is the number of genuinely new rows.
//
// Merge is idempotent: merging the same statement twice adds zero rows the
// second time, so a user can safely retry an upload after a partial failure.
func Merge(existing, incoming []models.Transaction) ([]models.Transaction, int) {
	if len(existing) == 0 {
		merged := make([]models.Transaction, len(incoming))
		copy(merged, incoming)
		return merged, len(merged)
	}

	merged := make([]models.Transaction, 0, len(existing)+len(incoming))
	seen := make(map[string]bool, len(existing)+len(incoming))

	for _, tx := range existing {
		key := tx.Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		merged = append(merged, tx)
	}

	newRows := 0
	for _, tx := range incoming {
		key := tx.Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		merged = append(merged, tx)
		newRows++
	}

	log.WithFields(logrus.Fields{
		"existing": len(existing),
		"incoming": len(incoming),
		"new":      newRows,
	}).Debug("Merged statement into ledger")
	return merged, newRows
}

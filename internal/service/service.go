// Package service orchestrates the dashboard's units of work: statement
// ingestion, category edits, re-categorization, and the load/save paths
// between the domain types and the encrypted vault. Each exported method is
// one synchronous user interaction.
package service

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/leviipope/finance-dashboard/internal/categorizer"
	"github.com/leviipope/finance-dashboard/internal/ledger"
	"github.com/leviipope/finance-dashboard/internal/models"
	"github.com/leviipope/finance-dashboard/internal/session"
	"github.com/leviipope/finance-dashboard/internal/statement"
	"github.com/leviipope/finance-dashboard/internal/storage"
	"github.com/leviipope/finance-dashboard/internal/store"
	"github.com/leviipope/finance-dashboard/internal/vault"

	"github.com/gocarina/gocsv"
	"github.com/sirupsen/logrus"
)

var log = logrus.New()

// SetLogger sets a configured logger for this package and the packages it
// drives.
func SetLogger(logger *logrus.Logger) {
	if logger != nil {
		log = logger
		statement.SetLogger(logger)
		ledger.SetLogger(logger)
		store.SetLogger(logger)
		vault.SetLogger(logger)
	}
}

// Service wires the parsing, merge, and persistence layers together.
type Service struct {
	vault            *vault.Vault
	fallbackCurrency string
	hideRules        []statement.HideRule
}

// New creates a service over a vault. fallbackCurrency applies when a
// statement carries no detectable currency; hideRules may be nil to use the
// built-in defaults.
func New(v *vault.Vault, fallbackCurrency string, hideRules []statement.HideRule) *Service {
	return &Service{vault: v, fallbackCurrency: fallbackCurrency, hideRules: hideRules}
}

// ImportResult reports one statement upload.
type ImportResult struct {
	// Ledger is the merged ledger after the upload.
	Ledger *models.Ledger
	// NewRows is the number of rows the upload actually added; zero means
	// the ledger was already up to date.
	NewRows int
	// Dropped lists rows excluded for unparsable balances, for surfacing
	// to the user as a warning.
	Dropped []statement.DroppedRow
}

// ImportStatement parses a statement CSV, categorizes it against the user's
// rules, merges it into the existing ledger, and persists the result.
// Guests merge in memory against an empty ledger; nothing is persisted.
func (s *Service) ImportStatement(sess *session.Session, r io.Reader) (*ImportResult, error) {
	categories, err := s.LoadCategories(sess)
	if err != nil {
		return nil, err
	}

	parsed, dropped, err := statement.Parse(r, statement.Options{
		Categories:       categories,
		FallbackCurrency: s.fallbackCurrency,
		HideRules:        s.hideRules,
	})
	if err != nil {
		return nil, err
	}
	sess.Currency = parsed.Currency

	existing, err := s.LoadLedger(sess)
	if err != nil {
		return nil, err
	}
	var existingRows []models.Transaction
	if existing != nil {
		existingRows = existing.Transactions
	}

	merged, newRows := ledger.Merge(existingRows, parsed.Transactions)
	result := &ImportResult{
		Ledger:  &models.Ledger{Transactions: merged, Currency: parsed.Currency},
		NewRows: newRows,
		Dropped: dropped,
	}

	if !sess.IsGuest {
		if err := s.SaveLedger(sess, result.Ledger); err != nil {
			return nil, err
		}
	}

	log.WithFields(logrus.Fields{
		"new":      newRows,
		"total":    len(merged),
		"currency": parsed.Currency,
	}).Info("Imported statement")
	return result, nil
}

// LoadLedger reads the user's persisted ledger, or nil when none exists yet.
func (s *Service) LoadLedger(sess *session.Session) (*models.Ledger, error) {
	if sess.IsGuest {
		return nil, nil
	}
	paths := vault.UserPaths(sess.Username)
	data, err := s.vault.ReadUserBlob(sess, paths.Ledger, sess.Username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var transactions []models.Transaction
	if err := gocsv.Unmarshal(bytes.NewReader(data), &transactions); err != nil {
		return nil, fmt.Errorf("error parsing stored ledger: %w", err)
	}
	return &models.Ledger{Transactions: transactions, Currency: sess.Currency}, nil
}

// SaveLedger persists the ledger as CSV through the vault.
func (s *Service) SaveLedger(sess *session.Session, l *models.Ledger) error {
	if sess.IsGuest {
		return nil
	}
	var buf bytes.Buffer
	if err := gocsv.Marshal(&l.Transactions, &buf); err != nil {
		return fmt.Errorf("error encoding ledger: %w", err)
	}
	paths := vault.UserPaths(sess.Username)
	return s.vault.WriteUserBlob(sess, paths.Ledger, buf.Bytes(), sess.Username)
}

// LoadCategories reads the user's category store; users without one yet (and
// guests) get a fresh store holding only "Uncategorized".
func (s *Service) LoadCategories(sess *session.Session) (*store.CategoryStore, error) {
	if sess.IsGuest {
		return store.NewCategoryStore(), nil
	}
	paths := vault.UserPaths(sess.Username)
	data, err := s.vault.ReadUserBlob(sess, paths.Categories, sess.Username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return store.NewCategoryStore(), nil
		}
		return nil, err
	}
	cs, err := store.FromJSON(data)
	if err != nil {
		log.WithError(err).Warn("Stored categories unreadable, starting fresh")
		return store.NewCategoryStore(), nil
	}
	return cs, nil
}

// SaveCategories persists the category store through the vault.
func (s *Service) SaveCategories(sess *session.Session, cs *store.CategoryStore) error {
	if sess.IsGuest {
		return nil
	}
	data, err := cs.ToJSON()
	if err != nil {
		return err
	}
	paths := vault.UserPaths(sess.Username)
	return s.vault.WriteUserBlob(sess, paths.Categories, data, sess.Username)
}

// CategoryEdit is one pending mutation from a category-editing batch.
type CategoryEdit struct {
	Category string
	Keyword  string // empty means "add the category itself"
}

// ApplyCategoryEdits applies a batch of category/keyword additions and
// issues at most one persistence write for the whole batch, and none when
// every edit was a no-op.
func (s *Service) ApplyCategoryEdits(sess *session.Session, cs *store.CategoryStore, edits []CategoryEdit) (int, error) {
	changed := 0
	for _, edit := range edits {
		if edit.Keyword == "" {
			if cs.AddCategory(edit.Category) {
				changed++
			}
			continue
		}
		if cs.AddKeyword(edit.Category, edit.Keyword) {
			changed++
		}
	}
	if changed == 0 {
		return 0, nil
	}
	if err := s.SaveCategories(sess, cs); err != nil {
		return 0, err
	}
	return changed, nil
}

// Recategorize re-runs the categorizer over the stored ledger after rule
// edits and persists the result. User hide flags and all other fields are
// preserved; only Category changes.
func (s *Service) Recategorize(sess *session.Session) (*models.Ledger, error) {
	l, err := s.LoadLedger(sess)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, nil
	}
	categories, err := s.LoadCategories(sess)
	if err != nil {
		return nil, err
	}

	l.Transactions = categorizer.Categorize(l.Transactions, categories)
	if err := s.SaveLedger(sess, l); err != nil {
		return nil, err
	}
	return l, nil
}

// SpendingTransactions filters a ledger down to the rows that belong in
// spending/income analysis: hidden rows and savings-product flows are
// excluded (but never deleted).
func SpendingTransactions(transactions []models.Transaction) []models.Transaction {
	var out []models.Transaction
	for _, tx := range transactions {
		if tx.Hide || tx.Product == models.ProductSavings {
			continue
		}
		out = append(out, tx)
	}
	return out
}

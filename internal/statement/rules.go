package statement

import (
	"fmt"
	"os"
	"strings"

	"github.com/leviipope/finance-dashboard/internal/models"

	"gopkg.in/yaml.v3"
)

// Hide-rule match types.
const (
	// MatchExact is a case-sensitive full-string comparison.
	MatchExact = "exact"
	// MatchContains is a case-insensitive substring test.
	MatchContains = "contains"
	// MatchPrefix is a case-sensitive prefix test.
	MatchPrefix = "prefix"
)

// HideRule marks transactions as noise (internal transfers between the
// user's own accounts) to be excluded from spending/income aggregates
// without being deleted. Rules are data, not code: callers may load their
// own set from YAML instead of the built-in defaults.
type HideRule struct {
	Field   string `yaml:"field"`             // "description" or "product"
	Match   string `yaml:"match"`             // exact, contains, or prefix
	Pattern string `yaml:"pattern"`           // value to match against
	Product string `yaml:"product,omitempty"` // optional product scope for description rules
}

// DefaultHideRules returns the built-in noise patterns for a statement in
// the given currency: same-currency transfers to the user's own accounts,
// peer transfers, and moves between the current and savings products.
func DefaultHideRules(currencyCode string) []HideRule {
	return []HideRule{
		{Field: "description", Match: MatchContains, Pattern: "To " + currencyCode},
		{Field: "description", Match: MatchExact, Pattern: "Transfer from Revolut user"},
		{Field: "description", Match: MatchExact, Pattern: "From Savings Account", Product: "Current"},
		{Field: "description", Match: MatchExact, Pattern: "To Savings Account", Product: "Current"},
	}
}

// LoadHideRules reads a YAML hide-rule list from a file.
func LoadHideRules(path string) ([]HideRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading hide rules: %w", err)
	}
	var rules []HideRule
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("error parsing hide rules: %w", err)
	}
	return rules, nil
}

// matches reports whether a rule applies to a transaction.
func (r HideRule) matches(tx models.Transaction) bool {
	if r.Product != "" && tx.Product != r.Product {
		return false
	}

	var subject string
	switch r.Field {
	case "product":
		subject = tx.Product
	default:
		subject = tx.Description
	}

	switch r.Match {
	case MatchContains:
		return strings.Contains(strings.ToLower(subject), strings.ToLower(r.Pattern))
	case MatchPrefix:
		return strings.HasPrefix(subject, r.Pattern)
	default:
		return subject == r.Pattern
	}
}

// applyHideRules sets Hide on every transaction matched by any rule.
func applyHideRules(transactions []models.Transaction, rules []HideRule) {
	for i := range transactions {
		for _, rule := range rules {
			if rule.matches(transactions[i]) {
				transactions[i].Hide = true
				break
			}
		}
	}
}

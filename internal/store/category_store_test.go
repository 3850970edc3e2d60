package store

import (
	"testing"

	"github.com/leviipope/finance-dashboard/internal/models"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	testLogger := logrus.New()
	testLogger.SetLevel(logrus.DebugLevel)
	SetLogger(testLogger)
}

func TestNewCategoryStore(t *testing.T) {
	cs := NewCategoryStore()
	assert.Equal(t, []string{models.CategoryUncategorized}, cs.Names())
}

func TestJSONRoundTripPreservesOrder(t *testing.T) {
	input := `{
  "Uncategorized": [],
  "Groceries": ["lidl", "aldi"],
  "Subscriptions": ["spotify"],
  "Transport": []
}`

	cs, err := FromJSON([]byte(input))
	require.NoError(t, err)
	assert.Equal(t, []string{"Uncategorized", "Groceries", "Subscriptions", "Transport"}, cs.Names())

	encoded, err := cs.ToJSON()
	require.NoError(t, err)

	again, err := FromJSON(encoded)
	require.NoError(t, err)
	assert.Equal(t, cs.Names(), again.Names())
	assert.Equal(t, []string{"lidl", "aldi"}, again.Keywords("Groceries"))
}

func TestFromJSONNormalizesKeywords(t *testing.T) {
	// Legacy stores could hold "Coffee" and "coffee" side by side; they match
	// identically, so they collapse to one lowercase entry on load.
	cs, err := FromJSON([]byte(`{"Food": ["Coffee", "coffee", "  KEBAB  "]}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"coffee", "kebab"}, cs.Keywords("Food"))

	// Uncategorized is prepended when a legacy store lacks it.
	assert.True(t, cs.Has(models.CategoryUncategorized))
}

func TestFromJSONRejectsNonObject(t *testing.T) {
	_, err := FromJSON([]byte(`["not", "an", "object"]`))
	assert.Error(t, err)
}

func TestAddCategory(t *testing.T) {
	cs := NewCategoryStore()

	assert.True(t, cs.AddCategory("Groceries"))
	assert.False(t, cs.AddCategory("Groceries"), "duplicate must be a no-op")
	assert.False(t, cs.AddCategory("  "), "blank name must be a no-op")

	// New categories append at the end: order drives the tie-break.
	assert.Equal(t, []string{models.CategoryUncategorized, "Groceries"}, cs.Names())
}

func TestAddKeyword(t *testing.T) {
	cs := NewCategoryStore()
	cs.AddCategory("Groceries")

	assert.True(t, cs.AddKeyword("Groceries", " Lidl "))
	assert.Equal(t, []string{"lidl"}, cs.Keywords("Groceries"))

	assert.False(t, cs.AddKeyword("Groceries", "LIDL"), "case-variant duplicate must be a no-op")
	assert.False(t, cs.AddKeyword("Groceries", ""), "empty keyword must be a no-op")
	assert.False(t, cs.AddKeyword("Missing", "lidl"), "unknown category must be a no-op")
	assert.False(t, cs.AddKeyword(models.CategoryUncategorized, "lidl"), "the default category accepts no rules")
}

func TestRemoveKeyword(t *testing.T) {
	cs := NewCategoryStore()
	cs.AddCategory("Groceries")
	cs.AddKeyword("Groceries", "lidl")
	cs.AddKeyword("Groceries", "aldi")

	assert.True(t, cs.RemoveKeyword("Groceries", "Lidl"))
	assert.Equal(t, []string{"aldi"}, cs.Keywords("Groceries"))
	assert.False(t, cs.RemoveKeyword("Groceries", "lidl"))
}

func TestRemoveCategory(t *testing.T) {
	cs := NewCategoryStore()
	cs.AddCategory("Groceries")

	assert.False(t, cs.RemoveCategory(models.CategoryUncategorized))
	assert.True(t, cs.RemoveCategory("Groceries"))
	assert.False(t, cs.RemoveCategory("Groceries"))
	assert.Equal(t, []string{models.CategoryUncategorized}, cs.Names())
}

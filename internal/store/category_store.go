// Package store provides the user's category-to-keywords mapping and its
// JSON persistence format.
package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

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

// Category is one named keyword list.
type Category struct {
	Name     string
	Keywords []string
}

// CategoryStore maps category names to keyword lists. Insertion order is
// significant: the categorizer resolves keyword collisions in favor of the
// earliest category, so the store must round-trip through JSON without
// reordering keys. The reserved "Uncategorized" category always exists and
// never carries keywords of its own.
type CategoryStore struct {
	categories []Category
}

// NewCategoryStore returns a store containing only the reserved
// "Uncategorized" category.
func NewCategoryStore() *CategoryStore {
	return &CategoryStore{
		categories: []Category{{Name: models.CategoryUncategorized, Keywords: []string{}}},
	}
}

// FromJSON decodes the persisted JSON object ({"name": ["kw", ...], ...})
// preserving key order. Keywords are normalized to lowercase on load so that
// legacy stores with mixed-case duplicates collapse to one entry.
func FromJSON(data []byte) (*CategoryStore, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("error parsing categories: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("categories must be a JSON object, got %v", tok)
	}

	cs := &CategoryStore{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("error parsing category name: %w", err)
		}
		name := keyTok.(string)

		var keywords []string
		if err := dec.Decode(&keywords); err != nil {
			return nil, fmt.Errorf("error parsing keywords for %q: %w", name, err)
		}

		normalized := make([]string, 0, len(keywords))
		seen := make(map[string]bool)
		for _, keyword := range keywords {
			kw := strings.ToLower(strings.TrimSpace(keyword))
			if kw == "" || seen[kw] {
				continue
			}
			seen[kw] = true
			normalized = append(normalized, kw)
		}
		cs.categories = append(cs.categories, Category{Name: name, Keywords: normalized})
	}

	if !cs.Has(models.CategoryUncategorized) {
		cs.categories = append([]Category{{Name: models.CategoryUncategorized, Keywords: []string{}}}, cs.categories...)
	}

	log.WithField("count", len(cs.categories)).Debug("Loaded category store")
	return cs, nil
}

// ToJSON encodes the store as an indented JSON object in insertion order.
func (cs *CategoryStore) ToJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("{\n")
	for i, category := range cs.categories {
		nameJSON, err := json.Marshal(category.Name)
		if err != nil {
			return nil, fmt.Errorf("error encoding category name: %w", err)
		}
		keywords := category.Keywords
		if keywords == nil {
			keywords = []string{}
		}
		keywordsJSON, err := json.Marshal(keywords)
		if err != nil {
			return nil, fmt.Errorf("error encoding keywords for %q: %w", category.Name, err)
		}
		buf.WriteString("  ")
		buf.Write(nameJSON)
		buf.WriteString(": ")
		buf.Write(keywordsJSON)
		if i < len(cs.categories)-1 {
			buf.WriteString(",")
		}
		buf.WriteString("\n")
	}
	buf.WriteString("}")
	return buf.Bytes(), nil
}

// Categories returns the categories in insertion order.
// The returned slice is a copy; mutations go through the store's methods.
func (cs *CategoryStore) Categories() []Category {
	out := make([]Category, len(cs.categories))
	copy(out, cs.categories)
	return out
}

// Names returns the category names in insertion order.
func (cs *CategoryStore) Names() []string {
	names := make([]string, len(cs.categories))
	for i, category := range cs.categories {
		names[i] = category.Name
	}
	return names
}

// Has reports whether a category exists.
func (cs *CategoryStore) Has(name string) bool {
	return cs.index(name) >= 0
}

// Keywords returns the keyword list for a category, or nil if it does not exist.
func (cs *CategoryStore) Keywords(name string) []string {
	idx := cs.index(name)
	if idx < 0 {
		return nil
	}
	out := make([]string, len(cs.categories[idx].Keywords))
	copy(out, cs.categories[idx].Keywords)
	return out
}

func (cs *CategoryStore) index(name string) int {
	for i, category := range cs.categories {
		if category.Name == name {
			return i
		}
	}
	return -1
}

// AddCategory appends a new empty category, preserving insertion order.
// It is a no-op when the name is empty or already present.
func (cs *CategoryStore) AddCategory(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" || cs.Has(name) {
		return false
	}
	cs.categories = append(cs.categories, Category{Name: name, Keywords: []string{}})
	log.WithField("category", name).Debug("Added category")
	return true
}

// AddKeyword adds a keyword to an existing category. The keyword is trimmed
// and stored lowercased; empty keywords, unknown categories, and duplicates
// are no-ops. "Uncategorized" is the default, not a rule, and accepts no
// keywords.
func (cs *CategoryStore) AddKeyword(category, keyword string) bool {
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	if keyword == "" || category == models.CategoryUncategorized {
		return false
	}
	idx := cs.index(category)
	if idx < 0 {
		return false
	}
	for _, existing := range cs.categories[idx].Keywords {
		if existing == keyword {
			return false
		}
	}
	cs.categories[idx].Keywords = append(cs.categories[idx].Keywords, keyword)
	log.WithFields(logrus.Fields{"category": category, "keyword": keyword}).Debug("Added keyword")
	return true
}

// RemoveKeyword removes a keyword from a category.
func (cs *CategoryStore) RemoveKeyword(category, keyword string) bool {
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	idx := cs.index(category)
	if idx < 0 {
		return false
	}
	for i, existing := range cs.categories[idx].Keywords {
		if existing == keyword {
			cs.categories[idx].Keywords = append(cs.categories[idx].Keywords[:i], cs.categories[idx].Keywords[i+1:]...)
			return true
		}
	}
	return false
}

// RemoveCategory deletes a category and its keywords. The reserved
// "Uncategorized" category cannot be removed. Reassigning transactions that
// referenced the removed category is the caller's concern.
func (cs *CategoryStore) RemoveCategory(name string) bool {
	if name == models.CategoryUncategorized {
		return false
	}
	idx := cs.index(name)
	if idx < 0 {
		return false
	}
	cs.categories = append(cs.categories[:idx], cs.categories[idx+1:]...)
	log.WithField("category", name).Debug("Removed category")
	return true
}

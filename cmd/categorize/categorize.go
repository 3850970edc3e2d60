// Package categorize handles category rule editing and re-categorization
package categorize

import (
	"fmt"
	"strings"

	"github.com/leviipope/finance-dashboard/cmd/common"
	"github.com/leviipope/finance-dashboard/cmd/root"
	"github.com/leviipope/finance-dashboard/internal/service"

	"github.com/spf13/cobra"
)

var (
	listFlag       bool
	applyFlag      bool
	addCategory    string
	removeCategory string
	category       string
	keyword        string
	removeKeyword  string
)

// Cmd represents the categorize command
var Cmd = &cobra.Command{
	Use:   "categorize",
	Short: "Edit category keyword rules and re-categorize your ledger",
	Long: `Manage the keyword rules that assign categories to transactions.
Rule edits take effect on the stored ledger when run with --apply.`,
	Run: categorizeFunc,
}

func init() {
	Cmd.Flags().BoolVarP(&listFlag, "list", "l", false, "List categories and their keywords")
	Cmd.Flags().BoolVar(&applyFlag, "apply", false, "Re-categorize the stored ledger with the current rules")
	Cmd.Flags().StringVar(&addCategory, "add-category", "", "Add a new category")
	Cmd.Flags().StringVar(&removeCategory, "remove-category", "", "Remove a category and its keywords")
	Cmd.Flags().StringVarP(&category, "category", "c", "", "Category for --keyword and --remove-keyword")
	Cmd.Flags().StringVarP(&keyword, "keyword", "k", "", "Keyword to add to --category")
	Cmd.Flags().StringVar(&removeKeyword, "remove-keyword", "", "Keyword to remove from --category")
}

func categorizeFunc(cmd *cobra.Command, args []string) {
	stack, err := common.BuildStack(root.Cfg)
	if err != nil {
		root.Log.Fatalf("Error building services: %v", err)
	}

	sess, err := common.Login(stack.Credentials, root.SharedFlags.Username, root.SharedFlags.Password)
	if err != nil {
		root.Log.Fatalf("Login failed: %v", err)
	}

	cs, err := stack.Service.LoadCategories(sess)
	if err != nil {
		root.Log.Fatalf("Error loading categories: %v", err)
	}

	var edits []service.CategoryEdit
	if addCategory != "" {
		edits = append(edits, service.CategoryEdit{Category: addCategory})
	}
	if keyword != "" {
		if category == "" {
			root.Log.Fatal("--keyword requires --category")
		}
		edits = append(edits, service.CategoryEdit{Category: category, Keyword: keyword})
	}

	if len(edits) > 0 {
		changed, err := stack.Service.ApplyCategoryEdits(sess, cs, edits)
		if err != nil {
			root.Log.Fatalf("Error saving category rules: %v", err)
		}
		root.Log.Infof("Applied %d rule change(s)", changed)
	}

	if removeKeyword != "" {
		if category == "" {
			root.Log.Fatal("--remove-keyword requires --category")
		}
		if cs.RemoveKeyword(category, removeKeyword) {
			if err := stack.Service.SaveCategories(sess, cs); err != nil {
				root.Log.Fatalf("Error saving category rules: %v", err)
			}
			root.Log.Infof("Removed keyword %q from %s", removeKeyword, category)
		}
	}
	if removeCategory != "" {
		if cs.RemoveCategory(removeCategory) {
			if err := stack.Service.SaveCategories(sess, cs); err != nil {
				root.Log.Fatalf("Error saving category rules: %v", err)
			}
			root.Log.Infof("Removed category %s", removeCategory)
		}
	}

	if applyFlag {
		l, err := stack.Service.Recategorize(sess)
		if err != nil {
			root.Log.Fatalf("Error re-categorizing ledger: %v", err)
		}
		if l == nil {
			root.Log.Warn("No stored ledger to re-categorize")
		} else {
			root.Log.Infof("Re-categorized %d transactions", len(l.Transactions))
		}
	}

	if listFlag {
		for _, cat := range cs.Categories() {
			fmt.Printf("%s: %s\n", cat.Name, strings.Join(cat.Keywords, ", "))
		}
	}
}

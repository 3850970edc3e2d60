// Package report handles spending and income summary commands
package report

import (
	"fmt"
	"sort"

	"github.com/leviipope/finance-dashboard/cmd/common"
	"github.com/leviipope/finance-dashboard/cmd/root"
	"github.com/leviipope/finance-dashboard/internal/currency"
	"github.com/leviipope/finance-dashboard/internal/service"

	"github.com/spf13/cobra"
)

var compactFlag bool

// Cmd represents the report command
var Cmd = &cobra.Command{
	Use:   "report",
	Short: "Show monthly spending by category and income totals",
	Run:   reportFunc,
}

func init() {
	Cmd.Flags().BoolVar(&compactFlag, "compact", false, "Abbreviate large amounts (12.3k, 1.2M)")
}

func reportFunc(cmd *cobra.Command, args []string) {
	stack, err := common.BuildStack(root.Cfg)
	if err != nil {
		root.Log.Fatalf("Error building services: %v", err)
	}

	sess, err := common.Login(stack.Credentials, root.SharedFlags.Username, root.SharedFlags.Password)
	if err != nil {
		root.Log.Fatalf("Login failed: %v", err)
	}

	l, err := stack.Service.LoadLedger(sess)
	if err != nil {
		root.Log.Fatalf("Error loading ledger: %v", err)
	}
	if l == nil {
		root.Log.Warn("No stored ledger, nothing to report")
		return
	}

	code := l.Currency
	if code == "" {
		code = root.Cfg.Currency.Fallback
	}

	spend := service.MonthlySpendByCategory(l.Transactions)
	income := service.IncomeTotals(l.Transactions)

	for _, month := range service.Months(spend) {
		fmt.Printf("%s\n", month)
		categories := make([]string, 0, len(spend[month]))
		for cat := range spend[month] {
			categories = append(categories, cat)
		}
		sort.Strings(categories)
		for _, cat := range categories {
			fmt.Printf("  %-20s %s\n", cat, currency.Format(spend[month][cat], code, compactFlag))
		}
		if in, ok := income[month]; ok {
			fmt.Printf("  %-20s %s\n", "income", currency.Format(in, code, compactFlag))
		}
	}
}

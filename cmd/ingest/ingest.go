// Package ingest handles statement upload commands
package ingest

import (
	"os"

	"github.com/leviipope/finance-dashboard/cmd/common"
	"github.com/leviipope/finance-dashboard/cmd/root"
	"github.com/leviipope/finance-dashboard/internal/currency"

	"github.com/spf13/cobra"
)

// Cmd represents the ingest command
var Cmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest a bank statement CSV into your ledger",
	Long: `Parse a bank statement CSV export, categorize its transactions and merge
them into your stored ledger. Re-uploading the same statement adds nothing.`,
	Run: ingestFunc,
}

func ingestFunc(cmd *cobra.Command, args []string) {
	if root.SharedFlags.Input == "" {
		root.Log.Fatal("No input file given, use --input")
	}

	stack, err := common.BuildStack(root.Cfg)
	if err != nil {
		root.Log.Fatalf("Error building services: %v", err)
	}

	sess, err := common.Login(stack.Credentials, root.SharedFlags.Username, root.SharedFlags.Password)
	if err != nil {
		root.Log.Fatalf("Login failed: %v", err)
	}
	if sess.IsGuest {
		root.Log.Warn("Guest session: the imported ledger will not be saved")
	}

	f, err := os.Open(root.SharedFlags.Input)
	if err != nil {
		root.Log.Fatalf("Error opening statement file: %v", err)
	}
	defer f.Close()

	result, err := stack.Service.ImportStatement(sess, f)
	if err != nil {
		root.Log.Fatalf("Error importing statement: %v", err)
	}

	for _, dropped := range result.Dropped {
		root.Log.Warnf("Dropped row with unparsable balance: %s (%s)", dropped.Description, dropped.Amount)
	}
	root.Log.Infof("Imported %d new transactions (%d total, currency %s)",
		result.NewRows, len(result.Ledger.Transactions), result.Ledger.Currency)

	if n := len(result.Ledger.Transactions); n > 0 {
		last := result.Ledger.Transactions[n-1]
		root.Log.Infof("Latest balance: %s", currency.Format(last.Balance, result.Ledger.Currency, false))
	}
}

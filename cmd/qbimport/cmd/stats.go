package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/plainledger/qbimport/pkg/config"
	"github.com/plainledger/qbimport/pkg/ledger"
	"github.com/plainledger/qbimport/pkg/pathutil"
)

// statsCmd represents the stats command.
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Display ledger store statistics",
	Long: `Display entity counts for the ledger store.

Shows:
- Accounts in the chart
- Customers and vendors
- Tax tables
- Transactions, invoices, bills and payments

Example:
  qbimport stats`,
	Run: runStats,
}

func runStats(cmd *cobra.Command, args []string) {
	slog.Info("Loading configuration")

	// Load configuration
	cfg, err := config.Load(getConfigFile())
	exitOnError(err, "failed to load configuration")

	if err := cfg.Validate("ledger.path"); err != nil {
		exitOnError(err, "invalid configuration")
	}

	pathResolver := pathutil.New(pathutil.Config{
		LedgerPath:  cfg.Ledger.Path,
		MappingFile: cfg.Ledger.MappingFile,
	})

	slog.Debug("Opening ledger store", "path", pathResolver.LedgerPath())
	store, err := ledger.Open(pathResolver.LedgerPath())
	exitOnError(err, "failed to open ledger store")
	defer store.Close()

	stats, err := store.GetStats()
	exitOnError(err, "failed to get statistics")

	fmt.Println("\n=== Ledger Statistics ===")
	fmt.Printf("Accounts:     %d\n", stats.Accounts)
	fmt.Printf("Customers:    %d\n", stats.Customers)
	fmt.Printf("Vendors:      %d\n", stats.Vendors)
	fmt.Printf("Tax tables:   %d\n", stats.TaxTables)
	fmt.Printf("Transactions: %d\n", stats.Transactions)
	fmt.Printf("Invoices:     %d\n", stats.Invoices)
	fmt.Printf("Bills:        %d\n", stats.Bills)
	fmt.Printf("Payments:     %d\n", stats.Payments)
	fmt.Println()

	slog.Info("Statistics displayed successfully")
}

package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/plainledger/qbimport/pkg/config"
	"github.com/plainledger/qbimport/pkg/ledger"
	"github.com/plainledger/qbimport/pkg/pathutil"
)

// initCmd represents the init command.
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an empty ledger store",
	Long: `Create a new SQLite ledger store at the configured path, seeded
with the top-level account chart (Asset, Equity, Expense, Income,
Liability). Fails if the store already exists.

Example:
  qbimport init`,
	Run: runInit,
}

func runInit(cmd *cobra.Command, args []string) {
	// Load configuration
	cfg, err := config.Load(getConfigFile())
	exitOnError(err, "failed to load configuration")

	if err := cfg.Validate("ledger.path"); err != nil {
		exitOnError(err, "invalid configuration")
	}

	pathResolver := pathutil.New(pathutil.Config{LedgerPath: cfg.Ledger.Path})

	slog.Info("Creating ledger store", "path", pathResolver.LedgerPath())
	store, err := ledger.Create(pathResolver.LedgerPath())
	exitOnError(err, "failed to create ledger store")
	defer store.Close()

	exitOnError(store.Save(), "failed to save ledger store")

	fmt.Printf("Created ledger store at %s\n", pathResolver.LedgerPath())
}

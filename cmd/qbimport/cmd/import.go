package cmd

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/plainledger/qbimport/pkg/config"
	"github.com/plainledger/qbimport/pkg/importer"
	"github.com/plainledger/qbimport/pkg/ledger"
	"github.com/plainledger/qbimport/pkg/mapping"
	"github.com/plainledger/qbimport/pkg/overlay"
	"github.com/plainledger/qbimport/pkg/pathutil"
	"github.com/plainledger/qbimport/pkg/qbcsv"
	"github.com/plainledger/qbimport/pkg/rational"
	"github.com/plainledger/qbimport/pkg/tax"
)

var (
	customersFile    string
	vendorsFile      string
	itemsFile        string
	transactionsFile string
	dryRun           bool
	overlayFile      string
	stripNumbers     bool
)

// importCmd represents the import command.
var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import one QuickBooks CSV export into the ledger",
	Long: `Import a QuickBooks CSV export into the SQLite ledger store.

Exactly one input list is imported per run:
  --customers FILE     customer directory
  --vendors FILE       vendor directory
  --items FILE         item list (sales-tax items become tax tables)
  --transactions FILE  transaction register

With --dry-run the full stream is processed and validated, including party
resolution and tax-conflict detection, but nothing is committed.

Example:
  qbimport import --customers customers.csv
  qbimport import --transactions register.csv --dry-run
  qbimport import --transactions register.csv --overlay rates.json`,
	Run: runImport,
}

func init() {
	// Flags
	importCmd.Flags().StringVar(&customersFile, "customers", "", "customer list CSV")
	importCmd.Flags().StringVar(&vendorsFile, "vendors", "", "vendor list CSV")
	importCmd.Flags().StringVar(&itemsFile, "items", "", "item list CSV")
	importCmd.Flags().StringVar(&transactionsFile, "transactions", "", "transaction register CSV")
	importCmd.Flags().BoolVar(&dryRun, "dry-run", false, "process and validate without committing")
	importCmd.Flags().StringVar(&overlayFile, "overlay", "", "write the document tax-rate overlay JSON here")
	importCmd.Flags().BoolVar(&stripNumbers, "strip-account-numbers", false, "strip leading account-number prefixes from account paths")

	importCmd.MarkFlagsMutuallyExclusive("customers", "vendors", "items", "transactions")
	importCmd.MarkFlagsOneRequired("customers", "vendors", "items", "transactions")
}

func runImport(cmd *cobra.Command, args []string) {
	slog.Info("Starting import", "dry_run", dryRun)

	// Load configuration
	cfg, err := config.Load(getConfigFile())
	exitOnError(err, "failed to load configuration")

	if err := cfg.Validate("ledger.path"); err != nil {
		exitOnError(err, "invalid configuration")
	}

	pathResolver := pathutil.New(pathutil.Config{
		LedgerPath:  cfg.Ledger.Path,
		MappingFile: cfg.Ledger.MappingFile,
		OverlayFile: overlayFile,
	})

	maps, err := mapping.Load(pathResolver.MappingFile())
	exitOnError(err, "failed to load field mapping")

	// Open the ledger store
	slog.Debug("Opening ledger store", "path", pathResolver.LedgerPath())
	store, err := ledger.Open(pathResolver.LedgerPath())
	exitOnError(err, "failed to open ledger store")
	defer store.Close()

	// Tax-rate conflicts pause for confirmation in committing mode; dry-run
	// reports them and keeps the stored rate.
	reg := tax.NewRegistry(dryRun, confirmRate)
	tables, err := store.ListTaxTables()
	exitOnError(err, "failed to load tax tables")
	for _, table := range tables {
		reg.Seed(table.Name, table.Rate)
	}

	runner := importer.NewRunner(store, reg, cfg.Ledger.TaxAccount, cfg.Ledger.Currency)

	var (
		inputFile string
		fieldMap  mapping.FieldMap
		run       func(src importer.RecordReader) (*importer.Summary, error)
	)
	switch {
	case customersFile != "":
		inputFile, fieldMap = customersFile, maps.Customers
		run = func(src importer.RecordReader) (*importer.Summary, error) {
			return runner.ImportParties(ledger.PartyCustomer, src)
		}
	case vendorsFile != "":
		inputFile, fieldMap = vendorsFile, maps.Vendors
		run = func(src importer.RecordReader) (*importer.Summary, error) {
			return runner.ImportParties(ledger.PartyVendor, src)
		}
	case itemsFile != "":
		inputFile, fieldMap = itemsFile, maps.Items
		run = runner.ImportTaxItems
	default:
		inputFile, fieldMap = transactionsFile, maps.Transactions
		run = runner.ImportTransactions
	}

	f, err := os.Open(inputFile)
	exitOnError(err, "failed to open input file")
	defer f.Close()

	reader, err := qbcsv.NewReader(f, fieldMap, qbcsv.Options{
		StripAccountNumbers: stripNumbers,
	})
	exitOnError(err, "failed to read input header")

	summary, err := run(reader)
	exitOnError(err, "import failed")

	if overlayFile != "" && len(reg.Overlay()) > 0 {
		exitOnError(pathResolver.EnsureParentDir(pathResolver.OverlayFile()),
			"failed to create overlay directory")
		err := overlay.Write(pathResolver.OverlayFile(), reg.Overlay())
		exitOnError(err, "failed to write overlay")
		slog.Info("Wrote tax-rate overlay", "path", pathResolver.OverlayFile(), "documents", len(reg.Overlay()))
	}

	if dryRun {
		fmt.Println("[DRY RUN] No changes committed")
	} else {
		exitOnError(store.Save(), "failed to save ledger store")
	}

	// Display final statistics
	fmt.Println("\n=== Import Summary ===")
	fmt.Print(summary.String())
	fmt.Println()

	slog.Info("Import completed", "input", inputFile, "dry_run", dryRun)
}

// confirmRate asks the operator which rate wins when a tax table is
// re-registered with a different rate.
func confirmRate(name string, stored, proposed rational.Amount) bool {
	fmt.Printf("Tax table %q is registered at %s but the input says %s.\n", name, stored, proposed)
	fmt.Print("Replace the stored rate? [y/N]: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

package importer

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/plainledger/qbimport/pkg/ledger"
	"github.com/plainledger/qbimport/pkg/rational"
	"github.com/plainledger/qbimport/pkg/tax"
)

// Summary reports one import run: postings committed per kind and records
// skipped per error kind.
type Summary struct {
	Posted  map[string]int
	Skipped map[string]int
	Ignored int
}

func newSummary() *Summary {
	return &Summary{Posted: make(map[string]int), Skipped: make(map[string]int)}
}

func (s *Summary) skip(err error) {
	s.Skipped[errorKind(err)]++
}

// String renders the summary as sorted "kind: count" lines.
func (s *Summary) String() string {
	var b strings.Builder
	writeCounts := func(label string, counts map[string]int) {
		keys := make([]string, 0, len(counts))
		for k := range counts {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "%s %s: %d\n", label, k, counts[k])
		}
	}
	writeCounts("posted", s.Posted)
	writeCounts("skipped", s.Skipped)
	if s.Ignored > 0 {
		fmt.Fprintf(&b, "ignored: %d\n", s.Ignored)
	}
	if b.Len() == 0 {
		return "nothing to do\n"
	}
	return b.String()
}

// Runner drives one import run over an open store.
type Runner struct {
	store      *ledger.Store
	reg        *tax.Registry
	resolver   *PartyResolver
	engine     *Engine
	taxAccount string
}

// NewRunner wires the run-scoped components together.
func NewRunner(store *ledger.Store, reg *tax.Registry, taxAccount, currency string) *Runner {
	resolver := NewPartyResolver(store, reg)
	return &Runner{
		store:      store,
		reg:        reg,
		resolver:   resolver,
		engine:     NewEngine(store, resolver, reg, currency),
		taxAccount: taxAccount,
	}
}

// ImportTransactions groups the row stream and posts every group. Row- and
// group-scoped errors are warned and counted; only store and read failures
// abort the run.
func (r *Runner) ImportTransactions(src RecordReader) (*Summary, error) {
	summary := newSummary()
	grouper := NewGrouper(src, r.reg, r.taxAccount)

	for {
		grp, err := grouper.Next()
		if errors.Is(err, io.EOF) {
			return summary, nil
		}
		if err != nil {
			if !recoverable(err) {
				return summary, err
			}
			slog.Warn("skipping record", "reason", err)
			summary.skip(err)
			continue
		}

		result, err := r.engine.Post(grp)
		if err != nil {
			if !recoverable(err) {
				return summary, err
			}
			slog.Warn("skipping group", "kind", grp.Kind, "line", grp.Line, "reason", err)
			summary.skip(err)
			continue
		}
		if result.Posted {
			summary.Posted[result.Kind]++
		} else {
			summary.Ignored++
		}
	}
}

// ImportParties feeds a customer or vendor directory stream through the
// resolver, one record per party.
func (r *Runner) ImportParties(kind ledger.PartyKind, src RecordReader) (*Summary, error) {
	summary := newSummary()
	for {
		rec, err := src.Read()
		if errors.Is(err, io.EOF) {
			return summary, nil
		}
		if err != nil {
			return summary, err
		}

		fields := PartyFields{
			Name:         rec.Get("name"),
			Addr1:        rec.Get("addr1"),
			Addr2:        rec.Get("addr2"),
			Addr3:        rec.Get("addr3"),
			Addr4:        rec.Get("addr4"),
			Phone:        rec.Get("phone"),
			Fax:          rec.Get("fax"),
			Email:        rec.Get("email"),
			Notes:        rec.Get("notes"),
			ShipName:     rec.Get("shipname"),
			ShipAddr1:    rec.Get("shipaddr1"),
			ShipAddr2:    rec.Get("shipaddr2"),
			ShipAddr3:    rec.Get("shipaddr3"),
			ShipAddr4:    rec.Get("shipaddr4"),
			ShipPhone:    rec.Get("shipphone"),
			TaxTable:     rec.Get("tax_table"),
			SalesTaxCode: rec.Get("sales_tax_code"),
		}
		_, err = r.resolver.Resolve(kind, rec.Get("company"), rec.Get("id"), fields)
		if err != nil {
			if !recoverable(err) {
				return summary, err
			}
			slog.Warn("skipping party row", "kind", kind, "line", rec.Line, "reason", err)
			summary.skip(err)
			continue
		}
		summary.Posted[string(kind)]++
	}
}

// ImportTaxItems reads an item list and registers every sales-tax item: a
// liability account under the row's parent account plus a named tax table at
// the row's percent rate. Non-tax item rows are ignored.
func (r *Runner) ImportTaxItems(src RecordReader) (*Summary, error) {
	summary := newSummary()
	for {
		rec, err := src.Read()
		if errors.Is(err, io.EOF) {
			return summary, nil
		}
		if err != nil {
			return summary, err
		}
		if rec.Get("kind") != "Sales Tax Item" {
			summary.Ignored++
			continue
		}

		if err := r.importTaxItem(rec.Get("item"), rec.Get("account"), rec.Get("price")); err != nil {
			if !recoverable(err) {
				return summary, err
			}
			slog.Warn("skipping tax item", "item", rec.Get("item"), "line", rec.Line, "reason", err)
			summary.skip(err)
			continue
		}
		summary.Posted["tax_table"]++
	}
}

func (r *Runner) importTaxItem(name, parent, rateText string) error {
	if name == "" || parent == "" {
		return fmt.Errorf("%w: tax item needs a name and a parent account", ErrMalformedRow)
	}
	rate, err := rational.FromString(rateText)
	if err != nil {
		return fmt.Errorf("tax item %q: %w", name, err)
	}

	acct, err := r.store.LookupAccount(name)
	if err != nil {
		return err
	}
	if acct == nil {
		if err := r.store.CreateAccount(name, "LIABILITY", parent); err != nil {
			return err
		}
	}

	// The effective rate is persisted even on a conflict: in committing mode
	// the confirm hook has already decided which rate wins.
	effective, conflict := r.reg.Register(name, rate)
	if err := r.store.SaveTaxTable(name, effective); err != nil {
		return err
	}
	return conflict
}

// recoverable reports whether an error is row- or group-scoped. Anything the
// summary cannot bucket is a store or read failure and aborts the run.
func recoverable(err error) bool {
	return errorKind(err) != "other"
}

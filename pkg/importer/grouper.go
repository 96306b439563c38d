package importer

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/plainledger/qbimport/pkg/rational"
	"github.com/plainledger/qbimport/pkg/tax"
)

// Grouper consumes the ordered row stream and yields completed transaction
// groups. It is lazy, finite and non-restartable; row order is load-bearing
// (header, entries, terminator) and is never buffered out of order.
type Grouper struct {
	src        RecordReader
	reg        *tax.Registry
	taxAccount string

	current *TransactionGroup
	pending *Row // header stashed after an ordering violation
	skipbad bool // swallow rows of a group whose header failed
}

// NewGrouper builds a grouper. taxAccount names the tax-liability account
// whose entry rows declare tax tables instead of postings.
func NewGrouper(src RecordReader, reg *tax.Registry, taxAccount string) *Grouper {
	return &Grouper{src: src, reg: reg, taxAccount: taxAccount}
}

// Next returns the next completed group. Row- and group-scoped problems come
// back as errors; the stream continues on the following call. Next returns
// io.EOF once the stream is exhausted.
func (g *Grouper) Next() (*TransactionGroup, error) {
	for {
		var row Row
		if g.pending != nil {
			row = *g.pending
			g.pending = nil
		} else {
			rec, err := g.src.Read()
			if errors.Is(err, io.EOF) {
				if cur := g.current; cur != nil {
					g.current = nil
					return nil, fmt.Errorf("%w: %s group at line %d still open at end of input",
						ErrUnterminatedGroup, cur.Kind, cur.Line)
				}
				return nil, io.EOF
			}
			if err != nil {
				return nil, err
			}
			row = rowFromRecord(rec)
		}

		switch {
		case row.Kind != "":
			// Header row.
			g.skipbad = false
			if cur := g.current; cur != nil {
				g.current = nil
				g.pending = &row
				return nil, fmt.Errorf("%w: header at line %d arrived before %s group at line %d was terminated",
					ErrUnterminatedGroup, row.Line, cur.Kind, cur.Line)
			}
			grp, err := newGroup(row)
			if err != nil {
				g.skipbad = true
				return nil, err
			}
			g.current = grp

		case row.Account != "":
			// Entry row.
			if g.skipbad {
				continue
			}
			if g.current == nil {
				return nil, fmt.Errorf("%w: entry row at line %d outside any group", ErrMalformedRow, row.Line)
			}
			if row.Account == g.taxAccount && row.Price != "" {
				if err := g.declareTax(row); err != nil {
					return nil, err
				}
				continue
			}
			entry, err := g.newEntry(row)
			if err != nil {
				return nil, err
			}
			if entry != nil {
				g.current.Entries = append(g.current.Entries, *entry)
			}

		default:
			// Terminator row: the export marks the end of an open document
			// with an empty-account summary row.
			if g.skipbad {
				g.skipbad = false
				continue
			}
			if g.current == nil {
				continue // blank separator between documents
			}
			cur := g.current
			g.current = nil
			return cur, nil
		}
	}
}

// declareTax records a tax-declaration row on the open group, registering
// the rate. A rate conflict is reported but the group keeps assembling with
// the registry's effective rate.
func (g *Grouper) declareTax(row Row) error {
	rate, err := rational.FromString(row.Price)
	if err != nil {
		return fmt.Errorf("tax declaration at line %d: %w", row.Line, err)
	}
	effective, conflict := g.reg.Register(row.Item, rate)
	g.current.TaxTable = row.Item
	g.current.TaxRate = effective
	g.current.HasTaxRate = true
	if conflict != nil {
		return fmt.Errorf("tax declaration at line %d: %w", row.Line, conflict)
	}
	return nil
}

// newGroup derives a group from its header row.
func newGroup(row Row) (*TransactionGroup, error) {
	date, err := time.Parse(dateLayout, row.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: %q at line %d", ErrInvalidDate, row.Date, row.Line)
	}

	owner := row.Owner
	if owner == "" {
		owner = row.Notes
	}

	grp := &TransactionGroup{
		Line:    row.Line,
		Kind:    row.Kind,
		Date:    date,
		Num:     row.Num,
		Owner:   owner,
		Notes:   row.Notes,
		Account: row.Account,
		Paid:    row.Paid == "Paid",
	}

	if row.Amount != "" {
		amount, err := rational.FromString(row.Amount)
		if err != nil {
			return nil, fmt.Errorf("header at line %d: %w", row.Line, err)
		}
		grp.Amount = amount
		grp.HasAmount = true
	}

	return grp, nil
}

// newEntry derives an entry from an entry row, inheriting the group's date.
// Pure linkage entries (no quantity, no amount) are dropped and return nil.
func (g *Grouper) newEntry(row Row) (*Entry, error) {
	entry := &Entry{
		Account: row.Account,
		Notes:   row.Notes,
		Date:    g.current.Date,
	}

	switch {
	case row.Description != "":
		entry.Description = row.Description
	case row.Owner != "":
		entry.Description = row.Owner
	default:
		entry.Description = row.Notes
	}

	// An entry on the tax-liability account names the real posting account
	// in its item field.
	if row.Account == g.taxAccount && row.Item != "" {
		entry.Account = row.Item
	}

	if row.Quantity != "" {
		qty, err := rational.FromString(row.Quantity)
		if err != nil {
			return nil, fmt.Errorf("entry at line %d: %w", row.Line, err)
		}
		entry.Quantity = qty.Abs()
		entry.HasQuantity = true

		if row.Price != "" {
			price, err := rational.FromString(row.Price)
			if err != nil {
				return nil, fmt.Errorf("entry at line %d: %w", row.Line, err)
			}
			entry.Price = price
			entry.HasPrice = true
		}
	}

	if row.Amount != "" {
		amount, err := rational.FromString(row.Amount)
		if err != nil {
			return nil, fmt.Errorf("entry at line %d: %w", row.Line, err)
		}
		entry.Amount = amount
		entry.HasAmount = true
	}

	if !entry.HasQuantity && !entry.HasAmount {
		return nil, nil // linkage row between inventory accounts
	}
	return entry, nil
}

// Package importer is the transaction-grouping and posting-generation
// engine: it reassembles the flat export row stream into logical document
// groups and posts them into the ledger store.
package importer

import (
	"time"

	"github.com/plainledger/qbimport/pkg/qbcsv"
	"github.com/plainledger/qbimport/pkg/rational"
)

// SplitMarker is the export's placeholder account on multi-split documents.
const SplitMarker = qbcsv.SplitMarker

// dateLayout is the export's month/day/4-digit-year date form. The
// non-padded layout accepts both "1/2/2004" and "01/02/2004".
const dateLayout = "1/2/2006"

// RecordReader yields mapped export records in input order. Satisfied by
// *qbcsv.Reader; Read returns io.EOF at end of stream.
type RecordReader interface {
	Read() (qbcsv.Record, error)
}

// Row is one typed export row. An empty field is an absent field; presence
// drives classification and partial updates.
type Row struct {
	Line int

	Kind        string // document type; empty on entry and terminator rows
	Date        string
	Num         string
	Owner       string
	Notes       string
	Account     string
	Paid        string
	Item        string
	Description string
	Quantity    string
	Price       string
	Amount      string
}

func rowFromRecord(rec qbcsv.Record) Row {
	return Row{
		Line:        rec.Line,
		Kind:        rec.Get("kind"),
		Date:        rec.Get("date"),
		Num:         rec.Get("num"),
		Owner:       rec.Get("owner"),
		Notes:       rec.Get("notes"),
		Account:     rec.Get("account"),
		Paid:        rec.Get("paid"),
		Item:        rec.Get("item"),
		Description: rec.Get("description"),
		Quantity:    rec.Get("quantity"),
		Price:       rec.Get("price"),
		Amount:      rec.Get("amount"),
	}
}

// Entry is one line within a document group. It inherits the group's date.
type Entry struct {
	Account     string
	Description string
	Notes       string
	Date        time.Time

	Quantity    rational.Amount
	HasQuantity bool
	Price       rational.Amount
	HasPrice    bool
	Amount      rational.Amount
	HasAmount   bool
}

// TransactionGroup is one reconstructed logical document: a header row, its
// entry rows and a terminator row. A group is consumed exactly once by the
// posting engine and its entries must not be mutated afterward.
type TransactionGroup struct {
	Line int // header row line, for diagnostics

	Kind    string
	Date    time.Time
	Num     string
	Owner   string
	Notes   string
	Account string
	Paid    bool

	Amount    rational.Amount
	HasAmount bool

	Entries []Entry

	TaxTable   string
	TaxRate    rational.Amount
	HasTaxRate bool
}

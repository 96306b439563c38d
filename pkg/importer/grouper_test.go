package importer

import (
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plainledger/qbimport/pkg/qbcsv"
	"github.com/plainledger/qbimport/pkg/rational"
	"github.com/plainledger/qbimport/pkg/tax"
)

// fakeReader yields pre-built records in order.
type fakeReader struct {
	recs []qbcsv.Record
	pos  int
}

func (f *fakeReader) Read() (qbcsv.Record, error) {
	if f.pos >= len(f.recs) {
		return qbcsv.Record{}, io.EOF
	}
	rec := f.recs[f.pos]
	f.pos++
	return rec, nil
}

func rec(line int, kv ...string) qbcsv.Record {
	fields := make(map[string]string, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		fields[kv[i]] = kv[i+1]
	}
	return qbcsv.Record{Line: line, Fields: fields}
}

func newTestGrouper(recs ...qbcsv.Record) *Grouper {
	reg := tax.NewRegistry(true, nil)
	return NewGrouper(&fakeReader{recs: recs}, reg, "Sales Tax Payable")
}

func TestGrouperYieldsGroupWithEntriesInOrder(t *testing.T) {
	g := newTestGrouper(
		rec(1, "kind", "Invoice", "date", "3/14/2004", "num", "1042", "owner", "Acme Corp", "account", "Accounts Receivable"),
		rec(2, "account", "Sales", "description", "widgets", "quantity", "2", "price", "9.99"),
		rec(3, "account", "Shipping", "description", "freight", "quantity", "1", "price", "5.00"),
		rec(4),
	)

	grp, err := g.Next()
	require.NoError(t, err)
	assert.Equal(t, "Invoice", grp.Kind)
	assert.Equal(t, time.Date(2004, 3, 14, 0, 0, 0, 0, time.UTC), grp.Date)
	assert.Equal(t, "Acme Corp", grp.Owner)
	require.Len(t, grp.Entries, 2)
	assert.Equal(t, "Sales", grp.Entries[0].Account)
	assert.Equal(t, "Shipping", grp.Entries[1].Account)
	assert.True(t, grp.Entries[0].Quantity.Equal(rational.MustNew(2, 1)))
	assert.True(t, grp.Entries[0].Price.Equal(rational.MustNew(999, 100)))

	_, err = g.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestGrouperHeaderBeforeTerminator(t *testing.T) {
	g := newTestGrouper(
		rec(1, "kind", "Invoice", "date", "3/14/2004", "owner", "Acme Corp", "account", "Accounts Receivable"),
		rec(2, "account", "Sales", "quantity", "1", "price", "1.00"),
		rec(3, "kind", "Bill", "date", "3/15/2004", "owner", "Initech", "account", "Accounts Payable"),
		rec(4, "account", "Office Supplies", "quantity", "3", "price", "2.50"),
		rec(5),
	)

	// The open invoice is discarded, never merged into the bill.
	_, err := g.Next()
	require.ErrorIs(t, err, ErrUnterminatedGroup)

	grp, err := g.Next()
	require.NoError(t, err)
	assert.Equal(t, "Bill", grp.Kind)
	assert.Equal(t, "Initech", grp.Owner)
	require.Len(t, grp.Entries, 1)
	assert.Equal(t, "Office Supplies", grp.Entries[0].Account)
}

func TestGrouperUnterminatedAtEOF(t *testing.T) {
	g := newTestGrouper(
		rec(1, "kind", "Invoice", "date", "3/14/2004", "owner", "Acme Corp", "account", "Accounts Receivable"),
		rec(2, "account", "Sales", "quantity", "1", "price", "1.00"),
	)

	_, err := g.Next()
	require.ErrorIs(t, err, ErrUnterminatedGroup)
	_, err = g.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestGrouperInvalidDateSkipsWholeGroup(t *testing.T) {
	g := newTestGrouper(
		rec(1, "kind", "Invoice", "date", "2004-03-14", "owner", "Acme Corp", "account", "Accounts Receivable"),
		rec(2, "account", "Sales", "quantity", "1", "price", "1.00"),
		rec(3),
		rec(4, "kind", "Invoice", "date", "3/14/2004", "owner", "Acme Corp", "account", "Accounts Receivable"),
		rec(5, "account", "Sales", "quantity", "1", "price", "1.00"),
		rec(6),
	)

	_, err := g.Next()
	require.ErrorIs(t, err, ErrInvalidDate)

	// Entries of the failed group are swallowed; the next group is intact.
	grp, err := g.Next()
	require.NoError(t, err)
	assert.Equal(t, 4, grp.Line)
	assert.Len(t, grp.Entries, 1)
}

func TestGrouperEntryOutsideGroup(t *testing.T) {
	g := newTestGrouper(
		rec(1, "account", "Sales", "quantity", "1", "price", "1.00"),
	)
	_, err := g.Next()
	assert.ErrorIs(t, err, ErrMalformedRow)
}

func TestGrouperTaxDeclaration(t *testing.T) {
	reg := tax.NewRegistry(true, nil)
	src := &fakeReader{recs: []qbcsv.Record{
		rec(1, "kind", "Invoice", "date", "3/14/2004", "owner", "Acme Corp", "account", "Accounts Receivable"),
		rec(2, "account", "Sales", "quantity", "1", "price", "10.00"),
		rec(3, "account", "Sales Tax Payable", "item", "StateTax", "price", "7%"),
		rec(4),
	}}
	g := NewGrouper(src, reg, "Sales Tax Payable")

	grp, err := g.Next()
	require.NoError(t, err)
	assert.Equal(t, "StateTax", grp.TaxTable)
	require.True(t, grp.HasTaxRate)
	assert.True(t, grp.TaxRate.Equal(rational.MustNew(7, 100)))
	assert.Len(t, grp.Entries, 1)

	rate, ok := reg.Lookup("StateTax")
	require.True(t, ok)
	assert.True(t, rate.Equal(rational.MustNew(7000, 100000)))
}

func TestGrouperTaxEntryWithItemSubstitutesAccount(t *testing.T) {
	g := newTestGrouper(
		rec(1, "kind", "Sales Tax Payment", "date", "3/14/2004", "owner", "Tax Office", "account", "Checking", "amount", "-7.00"),
		rec(2, "account", "Sales Tax Payable", "item", "Sales Tax Payable", "quantity", "1", "amount", "7.00"),
		rec(3),
	)

	grp, err := g.Next()
	require.NoError(t, err)
	require.Len(t, grp.Entries, 1)
	assert.Equal(t, "Sales Tax Payable", grp.Entries[0].Account)
	assert.True(t, grp.Entries[0].Amount.Equal(rational.MustNew(7, 1)))
}

func TestGrouperDropsLinkageEntries(t *testing.T) {
	g := newTestGrouper(
		rec(1, "kind", "Invoice", "date", "3/14/2004", "owner", "Acme Corp", "account", "Accounts Receivable"),
		rec(2, "account", "Inventory Asset"), // no quantity, no amount
		rec(3, "account", "Sales", "quantity", "1", "price", "1.00"),
		rec(4),
	)

	grp, err := g.Next()
	require.NoError(t, err)
	require.Len(t, grp.Entries, 1)
	assert.Equal(t, "Sales", grp.Entries[0].Account)
}

func TestGrouperQuantityAbsoluteValue(t *testing.T) {
	g := newTestGrouper(
		rec(1, "kind", "Credit", "date", "3/14/2004", "owner", "Initech", "account", "Accounts Payable"),
		rec(2, "account", "Office Supplies", "quantity", "-3", "price", "2.50"),
		rec(3),
	)

	grp, err := g.Next()
	require.NoError(t, err)
	require.Len(t, grp.Entries, 1)
	assert.True(t, grp.Entries[0].Quantity.Equal(rational.MustNew(3, 1)))
}

func TestGrouperOwnerFallsBackToNotes(t *testing.T) {
	g := newTestGrouper(
		rec(1, "kind", "Payment", "date", "3/14/2004", "notes", "Acme Corp", "account", "Checking"),
		rec(2, "account", "Accounts Receivable", "amount", "25.00"),
		rec(3),
	)

	grp, err := g.Next()
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", grp.Owner)
}

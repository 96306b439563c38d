package importer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plainledger/qbimport/pkg/ledger"
	"github.com/plainledger/qbimport/pkg/rational"
	"github.com/plainledger/qbimport/pkg/tax"
)

func newTestEngine(t *testing.T) (*Engine, *ledger.Store, *tax.Registry) {
	store := newTestStore(t)
	for _, a := range []struct{ name, typ, parent string }{
		{"Checking", "ASSET", "Asset"},
		{"Accounts Receivable", "ASSET", "Asset"},
		{"Accounts Payable", "LIABILITY", "Liability"},
		{"Sales", "INCOME", "Income"},
		{"Office Supplies", "EXPENSE", "Expense"},
		{"Sales Tax Payable", "LIABILITY", "Liability"},
	} {
		require.NoError(t, store.CreateAccount(a.name, a.typ, a.parent))
	}
	reg := tax.NewRegistry(true, nil)
	return NewEngine(store, NewPartyResolver(store, reg), reg, "USD"), store, reg
}

func testDate() time.Time {
	return time.Date(2004, 3, 14, 0, 0, 0, 0, time.UTC)
}

func TestEngineJournalBalanced(t *testing.T) {
	engine, store, _ := newTestEngine(t)

	result, err := engine.Post(&TransactionGroup{
		Kind:      "Check",
		Date:      testDate(),
		Num:       "101",
		Owner:     "Office Depot",
		Account:   "Checking",
		Amount:    rational.MustNew(-2500, 100),
		HasAmount: true,
		Entries: []Entry{
			{Account: "Office Supplies", Description: "paper", Amount: rational.MustNew(2500, 100), HasAmount: true},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, PostResult{Kind: "journal", Posted: true}, result)

	stats, err := store.GetStats()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Transactions)
}

func TestEngineJournalUnbalanced(t *testing.T) {
	engine, store, _ := newTestEngine(t)

	_, err := engine.Post(&TransactionGroup{
		Kind:      "Check",
		Date:      testDate(),
		Account:   "Checking",
		Amount:    rational.MustNew(-2500, 100),
		HasAmount: true,
		Entries: []Entry{
			{Account: "Office Supplies", Amount: rational.MustNew(2400, 100), HasAmount: true},
		},
	})
	require.ErrorIs(t, err, ErrUnbalancedTransaction)

	stats, err := store.GetStats()
	require.NoError(t, err)
	assert.Zero(t, stats.Transactions)
}

func TestEngineJournalSplitMarker(t *testing.T) {
	engine, store, _ := newTestEngine(t)

	// A -SPLIT- header carries no main split; the entries must balance on
	// their own.
	_, err := engine.Post(&TransactionGroup{
		Kind:    "General Journal",
		Date:    testDate(),
		Account: SplitMarker,
		Entries: []Entry{
			{Account: "Checking", Amount: rational.MustNew(-100, 1), HasAmount: true},
			{Account: "Office Supplies", Amount: rational.MustNew(100, 1), HasAmount: true},
		},
	})
	require.NoError(t, err)

	stats, err := store.GetStats()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Transactions)
}

func TestEngineJournalUnknownAccount(t *testing.T) {
	engine, store, _ := newTestEngine(t)

	_, err := engine.Post(&TransactionGroup{
		Kind:      "Check",
		Date:      testDate(),
		Account:   "No Such Account",
		Amount:    rational.Zero,
		HasAmount: true,
	})
	require.ErrorIs(t, err, ErrUnknownAccount)

	stats, err := store.GetStats()
	require.NoError(t, err)
	assert.Zero(t, stats.Transactions)
}

func TestEngineInvoice(t *testing.T) {
	engine, store, reg := newTestEngine(t)
	_, err := engine.resolver.Resolve(ledger.PartyCustomer, "Acme Corp", "", PartyFields{})
	require.NoError(t, err)

	result, err := engine.Post(&TransactionGroup{
		Kind:    "Invoice",
		Date:    testDate(),
		Num:     "1042",
		Owner:   "Acme Corp",
		Account: "Accounts Receivable",
		Entries: []Entry{
			{Account: "Sales", Description: "widgets", Date: testDate(),
				Quantity: rational.MustNew(2, 1), HasQuantity: true,
				Price: rational.MustNew(999, 100), HasPrice: true},
			{Account: "Sales", Description: "no quantity", Date: testDate(),
				Amount: rational.MustNew(5, 1), HasAmount: true},
		},
		TaxTable:   "StateTax",
		TaxRate:    rational.MustNew(7, 100),
		HasTaxRate: true,
	})
	require.NoError(t, err)
	assert.Equal(t, PostResult{Kind: "invoice", Posted: true}, result)

	stats, err := store.GetStats()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Invoices)

	overlay := reg.Overlay()
	require.Contains(t, overlay, "000001")
	assert.True(t, overlay["000001"].Equal(rational.MustNew(7, 100)))
}

func TestEngineBillAndCreditShareIDSequence(t *testing.T) {
	engine, store, _ := newTestEngine(t)
	_, err := engine.resolver.Resolve(ledger.PartyVendor, "Initech", "", PartyFields{})
	require.NoError(t, err)

	line := Entry{Account: "Office Supplies", Date: testDate(),
		Quantity: rational.MustNew(1, 1), HasQuantity: true,
		Price: rational.MustNew(10, 1), HasPrice: true}

	result, err := engine.Post(&TransactionGroup{
		Kind: "Bill", Date: testDate(), Owner: "Initech",
		Account: "Accounts Payable", Entries: []Entry{line},
	})
	require.NoError(t, err)
	assert.Equal(t, "bill", result.Kind)

	result, err = engine.Post(&TransactionGroup{
		Kind: "Credit", Date: testDate(), Owner: "Initech",
		Account: "Accounts Payable", Entries: []Entry{line},
	})
	require.NoError(t, err)
	assert.Equal(t, "credit_note", result.Kind)

	stats, err := store.GetStats()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Bills)
}

func TestEngineDocumentUnresolvedOwner(t *testing.T) {
	engine, store, _ := newTestEngine(t)

	_, err := engine.Post(&TransactionGroup{
		Kind: "Invoice", Date: testDate(), Owner: "Nobody Inc",
		Account: "Accounts Receivable",
	})
	require.ErrorIs(t, err, ErrUnresolvedParty)

	stats, err := store.GetStats()
	require.NoError(t, err)
	assert.Zero(t, stats.Invoices)
}

func TestEnginePayment(t *testing.T) {
	engine, store, _ := newTestEngine(t)
	_, err := engine.resolver.Resolve(ledger.PartyCustomer, "Acme Corp", "", PartyFields{})
	require.NoError(t, err)

	result, err := engine.Post(&TransactionGroup{
		Kind: "Payment", Date: testDate(), Owner: "Acme Corp", Account: "Checking",
		Entries: []Entry{
			{Account: "Accounts Receivable", Amount: rational.MustNew(25, 1), HasAmount: true},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, PostResult{Kind: "customer_payment", Posted: true}, result)

	stats, err := store.GetStats()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Payments)
}

func TestEnginePaycheckIgnored(t *testing.T) {
	engine, store, _ := newTestEngine(t)

	result, err := engine.Post(&TransactionGroup{Kind: "Paycheck", Date: testDate()})
	require.NoError(t, err)
	assert.False(t, result.Posted)

	stats, err := store.GetStats()
	require.NoError(t, err)
	assert.Zero(t, stats.Transactions)
}

package importer

import (
	"fmt"
	"log/slog"

	"github.com/plainledger/qbimport/pkg/ledger"
	"github.com/plainledger/qbimport/pkg/rational"
	"github.com/plainledger/qbimport/pkg/tax"
)

// PostResult reports what a group became in the ledger.
type PostResult struct {
	// Kind labels the posting for the run summary: "journal", "invoice",
	// "bill", "credit_note", "customer_payment", "vendor_payment" or
	// "paycheck".
	Kind string
	// Posted is false for groups the engine deliberately ignores.
	Posted bool
}

// Engine turns completed transaction groups into ledger postings. It never
// aborts the stream: every error it returns is scoped to the offending group.
type Engine struct {
	store    *ledger.Store
	resolver *PartyResolver
	reg      *tax.Registry
	currency string
}

// NewEngine builds a posting engine over the open store.
func NewEngine(store *ledger.Store, resolver *PartyResolver, reg *tax.Registry, currency string) *Engine {
	return &Engine{store: store, resolver: resolver, reg: reg, currency: currency}
}

// Post dispatches a group on its document kind. Unrecognized kinds post as
// generic journal transactions.
func (e *Engine) Post(grp *TransactionGroup) (PostResult, error) {
	switch grp.Kind {
	case "Invoice":
		return e.postDocument(grp, "invoice", ledger.PartyCustomer, false)
	case "Bill":
		return e.postDocument(grp, "bill", ledger.PartyVendor, false)
	case "Credit":
		return e.postDocument(grp, "credit_note", ledger.PartyVendor, true)
	case "Payment":
		return e.postPayment(grp, "customer_payment", ledger.PartyCustomer)
	case "Bill Pmt -CCard":
		return e.postPayment(grp, "vendor_payment", ledger.PartyVendor)
	case "Paycheck":
		// Payroll is managed elsewhere; its groups carry no usable postings.
		slog.Info("ignoring paycheck group", "line", grp.Line, "num", grp.Num)
		return PostResult{Kind: "paycheck"}, nil
	default:
		return e.postJournal(grp)
	}
}

// mustAccount resolves an account name or fails the group.
func (e *Engine) mustAccount(name string, grp *TransactionGroup) (*ledger.Account, error) {
	acct, err := e.store.LookupAccount(name)
	if err != nil {
		return nil, err
	}
	if acct == nil {
		return nil, fmt.Errorf("%w: %q in %s group at line %d",
			ErrUnknownAccount, name, grp.Kind, grp.Line)
	}
	return acct, nil
}

// postJournal creates one balanced journal transaction. The header account
// carries the main split unless it is the multi-split placeholder, and each
// amount-bearing entry contributes an offsetting split.
func (e *Engine) postJournal(grp *TransactionGroup) (PostResult, error) {
	var splits []ledger.Split
	sum := rational.Zero

	if grp.Account != SplitMarker {
		if _, err := e.mustAccount(grp.Account, grp); err != nil {
			return PostResult{}, err
		}
		splits = append(splits, ledger.Split{Account: grp.Account, Value: grp.Amount, Memo: grp.Owner})
		sum = sum.Add(grp.Amount)
	}
	for _, entry := range grp.Entries {
		if !entry.HasAmount {
			continue
		}
		if _, err := e.mustAccount(entry.Account, grp); err != nil {
			return PostResult{}, err
		}
		splits = append(splits, ledger.Split{
			Account: entry.Account,
			Value:   entry.Amount,
			Memo:    entry.Description,
		})
		sum = sum.Add(entry.Amount)
	}

	if !sum.IsZero() {
		return PostResult{}, fmt.Errorf("%w: %s group at line %d sums to %s",
			ErrUnbalancedTransaction, grp.Kind, grp.Line, sum)
	}

	err := e.store.AddTransaction(ledger.Transaction{
		Date:        grp.Date,
		Num:         grp.Num,
		Description: grp.Owner,
		Notes:       grp.Notes,
		Currency:    e.currency,
		Splits:      splits,
	})
	if err != nil {
		return PostResult{}, err
	}
	return PostResult{Kind: "journal", Posted: true}, nil
}

// postPayment applies one payment per amount-bearing entry, from the header's
// transfer account to the entry's posted account. The owner must already
// exist in the directory.
func (e *Engine) postPayment(grp *TransactionGroup, kind string, owner ledger.PartyKind) (PostResult, error) {
	party, err := e.resolver.Lookup(owner, grp.Owner)
	if err != nil {
		return PostResult{}, err
	}
	if _, err := e.mustAccount(grp.Account, grp); err != nil {
		return PostResult{}, err
	}

	for _, entry := range grp.Entries {
		if !entry.HasAmount {
			continue
		}
		if _, err := e.mustAccount(entry.Account, grp); err != nil {
			return PostResult{}, err
		}
		err := e.store.AddPayment(ledger.Payment{
			OwnerKind:       owner,
			OwnerID:         party.ID,
			PostedAccount:   entry.Account,
			TransferAccount: grp.Account,
			Amount:          entry.Amount,
			Date:            grp.Date,
			Notes:           grp.Notes,
			Num:             grp.Num,
		})
		if err != nil {
			return PostResult{}, err
		}
	}
	return PostResult{Kind: kind, Posted: true}, nil
}

// postDocument posts an invoice, bill or credit note: sequential id,
// quantity-bearing entries as lines, posted to the header account. The final
// tax rate is recorded for the overlay artifact.
func (e *Engine) postDocument(grp *TransactionGroup, kind string, owner ledger.PartyKind, creditNote bool) (PostResult, error) {
	party, err := e.resolver.Lookup(owner, grp.Owner)
	if err != nil {
		return PostResult{}, err
	}
	if _, err := e.mustAccount(grp.Account, grp); err != nil {
		return PostResult{}, err
	}

	docKind := "invoice"
	if owner == ledger.PartyVendor {
		docKind = "bill"
	}
	id, err := e.store.NextID(docKind)
	if err != nil {
		return PostResult{}, err
	}

	var lines []ledger.DocumentLine
	for _, entry := range grp.Entries {
		if !entry.HasQuantity {
			continue
		}
		if _, err := e.mustAccount(entry.Account, grp); err != nil {
			return PostResult{}, err
		}
		lines = append(lines, ledger.DocumentLine{
			Account:     entry.Account,
			Description: entry.Description,
			Quantity:    entry.Quantity,
			Price:       entry.Price,
			Date:        entry.Date,
		})
	}

	err = e.store.AddDocument(ledger.Document{
		Kind:        docKind,
		ID:          id,
		OwnerKind:   owner,
		OwnerID:     party.ID,
		CreditNote:  creditNote,
		TaxTable:    grp.TaxTable,
		DateOpened:  grp.Date,
		BillingID:   grp.Num,
		Notes:       grp.Notes,
		PostAccount: grp.Account,
		PostDate:    grp.Date,
		Lines:       lines,
	})
	if err != nil {
		return PostResult{}, err
	}

	if grp.HasTaxRate {
		e.reg.RecordDocumentRate(id, grp.TaxRate)
	}
	return PostResult{Kind: kind, Posted: true}, nil
}

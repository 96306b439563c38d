package ledger

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/plainledger/qbimport/pkg/rational"
)

const dateLayout = "2006-01-02"

// Account is one node of the account chart.
type Account struct {
	GUID   string
	Name   string
	Type   string
	Parent string
}

// TaxTable is a named tax rate persisted in the store.
type TaxTable struct {
	Name string
	Rate rational.Amount
}

// Split is one leg of a journal transaction.
type Split struct {
	Account string
	Value   rational.Amount
	Memo    string
}

// Transaction is a journal transaction with its splits.
type Transaction struct {
	Date        time.Time
	Num         string
	Description string
	Notes       string
	Currency    string
	Splits      []Split
}

// DocumentLine is one line item of an invoice or bill.
type DocumentLine struct {
	Account     string
	Description string
	Quantity    rational.Amount
	Price       rational.Amount
	Date        time.Time
}

// Document is a posted invoice or bill.
type Document struct {
	Kind       string // "invoice" or "bill"
	ID         string
	OwnerKind  PartyKind
	OwnerID    string
	CreditNote bool
	TaxTable   string
	DateOpened time.Time
	BillingID  string
	Notes      string
	PostAccount string
	PostDate    time.Time
	Lines       []DocumentLine
}

// Payment is a payment applied from a transfer account to a posted account.
type Payment struct {
	OwnerKind       PartyKind
	OwnerID         string
	PostedAccount   string
	TransferAccount string
	Amount          rational.Amount
	Date            time.Time
	Notes           string
	Num             string
}

// LookupAccount returns the account with the given full name, or nil when no
// such account exists.
func (s *Store) LookupAccount(name string) (*Account, error) {
	var a Account
	err := s.tx.QueryRow(
		`SELECT guid, name, type, parent FROM accounts WHERE name = ?`, name,
	).Scan(&a.GUID, &a.Name, &a.Type, &a.Parent)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up account %q: %w", name, err)
	}
	return &a, nil
}

// CreateAccount inserts a new account under parent (empty for top level).
func (s *Store) CreateAccount(name, typ, parent string) error {
	_, err := s.tx.Exec(
		`INSERT INTO accounts (guid, name, type, parent) VALUES (?, ?, ?, ?)`,
		uuid.NewString(), name, typ, parent,
	)
	if err != nil {
		return fmt.Errorf("failed to create account %q: %w", name, err)
	}
	return nil
}

// ListTaxTables returns every persisted tax table, used to seed the
// run-scoped registry.
func (s *Store) ListTaxTables() ([]TaxTable, error) {
	rows, err := s.tx.Query(`SELECT name, rate_num, rate_denom FROM tax_tables ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tax tables: %w", err)
	}
	defer rows.Close()

	var tables []TaxTable
	for rows.Next() {
		var name string
		var num, denom int64
		if err := rows.Scan(&name, &num, &denom); err != nil {
			return nil, fmt.Errorf("failed to scan tax table: %w", err)
		}
		rate, err := rational.New(num, denom)
		if err != nil {
			return nil, fmt.Errorf("tax table %q holds an invalid rate: %w", name, err)
		}
		tables = append(tables, TaxTable{Name: name, Rate: rate})
	}
	return tables, rows.Err()
}

// SaveTaxTable upserts a named rate.
func (s *Store) SaveTaxTable(name string, rate rational.Amount) error {
	_, err := s.tx.Exec(`
		INSERT INTO tax_tables (name, rate_num, rate_denom) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			rate_num = excluded.rate_num,
			rate_denom = excluded.rate_denom
	`, name, rate.Num(), rate.Denom())
	if err != nil {
		return fmt.Errorf("failed to save tax table %q: %w", name, err)
	}
	return nil
}

// NextID allocates the next sequential id for an entity kind ("customer",
// "vendor", "invoice", "bill"), zero-padded to six digits.
func (s *Store) NextID(kind string) (string, error) {
	var next int64
	err := s.tx.QueryRow(`SELECT next FROM counters WHERE kind = ?`, kind).Scan(&next)
	if err == sql.ErrNoRows {
		next = 1
	} else if err != nil {
		return "", fmt.Errorf("failed to read %s counter: %w", kind, err)
	}

	_, err = s.tx.Exec(`
		INSERT INTO counters (kind, next) VALUES (?, ?)
		ON CONFLICT(kind) DO UPDATE SET next = excluded.next
	`, kind, next+1)
	if err != nil {
		return "", fmt.Errorf("failed to advance %s counter: %w", kind, err)
	}

	return fmt.Sprintf("%06d", next), nil
}

// AddTransaction inserts a journal transaction and its splits. The caller is
// responsible for the zero-sum invariant.
func (s *Store) AddTransaction(t Transaction) error {
	guid := uuid.NewString()
	_, err := s.tx.Exec(
		`INSERT INTO transactions (guid, date, num, description, notes, currency) VALUES (?, ?, ?, ?, ?, ?)`,
		guid, t.Date.Format(dateLayout), t.Num, t.Description, t.Notes, t.Currency,
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	for _, sp := range t.Splits {
		_, err := s.tx.Exec(
			`INSERT INTO splits (txn_guid, account, value_num, value_denom, memo) VALUES (?, ?, ?, ?, ?)`,
			guid, sp.Account, sp.Value.Num(), sp.Value.Denom(), sp.Memo,
		)
		if err != nil {
			return fmt.Errorf("failed to insert split on %q: %w", sp.Account, err)
		}
	}
	return nil
}

// AddDocument inserts a posted invoice or bill with its lines.
func (s *Store) AddDocument(d Document) error {
	guid := uuid.NewString()
	_, err := s.tx.Exec(`
		INSERT INTO documents (guid, kind, id, owner_kind, owner_id, credit_note,
			tax_table, date_opened, billing_id, notes, post_account, post_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, guid, d.Kind, d.ID, string(d.OwnerKind), d.OwnerID, d.CreditNote,
		d.TaxTable, d.DateOpened.Format(dateLayout), d.BillingID, d.Notes,
		d.PostAccount, d.PostDate.Format(dateLayout))
	if err != nil {
		return fmt.Errorf("failed to insert %s %s: %w", d.Kind, d.ID, err)
	}
	for _, l := range d.Lines {
		_, err := s.tx.Exec(`
			INSERT INTO document_lines (document_guid, account, description,
				qty_num, qty_denom, price_num, price_denom, date)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, guid, l.Account, l.Description,
			l.Quantity.Num(), l.Quantity.Denom(),
			l.Price.Num(), l.Price.Denom(), l.Date.Format(dateLayout))
		if err != nil {
			return fmt.Errorf("failed to insert line on %s %s: %w", d.Kind, d.ID, err)
		}
	}
	return nil
}

// AddPayment records a payment application.
func (s *Store) AddPayment(p Payment) error {
	_, err := s.tx.Exec(`
		INSERT INTO payments (owner_kind, owner_id, posted_account, transfer_account,
			amount_num, amount_denom, date, notes, num)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, string(p.OwnerKind), p.OwnerID, p.PostedAccount, p.TransferAccount,
		p.Amount.Num(), p.Amount.Denom(), p.Date.Format(dateLayout), p.Notes, p.Num)
	if err != nil {
		return fmt.Errorf("failed to record payment for %s %s: %w", p.OwnerKind, p.OwnerID, err)
	}
	return nil
}

// Stats summarizes the store contents.
type Stats struct {
	Accounts     int
	Customers    int
	Vendors      int
	TaxTables    int
	Transactions int
	Invoices     int
	Bills        int
	Payments     int
}

// GetStats counts the store's entities.
func (s *Store) GetStats() (*Stats, error) {
	var stats Stats
	counts := []struct {
		query string
		dest  *int
	}{
		{`SELECT COUNT(*) FROM accounts`, &stats.Accounts},
		{`SELECT COUNT(*) FROM parties WHERE kind = 'customer'`, &stats.Customers},
		{`SELECT COUNT(*) FROM parties WHERE kind = 'vendor'`, &stats.Vendors},
		{`SELECT COUNT(*) FROM tax_tables`, &stats.TaxTables},
		{`SELECT COUNT(*) FROM transactions`, &stats.Transactions},
		{`SELECT COUNT(*) FROM documents WHERE kind = 'invoice'`, &stats.Invoices},
		{`SELECT COUNT(*) FROM documents WHERE kind = 'bill'`, &stats.Bills},
		{`SELECT COUNT(*) FROM payments`, &stats.Payments},
	}
	for _, c := range counts {
		if err := s.tx.QueryRow(c.query).Scan(c.dest); err != nil {
			return nil, fmt.Errorf("failed to count store entities: %w", err)
		}
	}
	return &stats, nil
}

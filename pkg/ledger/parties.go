package ledger

import (
	"database/sql"
	"fmt"
)

// PartyKind distinguishes the two party directories of the store.
type PartyKind string

const (
	PartyCustomer PartyKind = "customer"
	PartyVendor   PartyKind = "vendor"
)

// Party is a customer or vendor identity record.
type Party struct {
	Kind    PartyKind
	ID      string
	Company string

	Name  string
	Addr1 string
	Addr2 string
	Addr3 string
	Addr4 string
	Phone string
	Fax   string
	Email string
	Notes string

	ShipName  string
	ShipAddr1 string
	ShipAddr2 string
	ShipAddr3 string
	ShipAddr4 string
	ShipPhone string

	TaxTable    string
	TaxOverride bool
}

const partyColumns = `kind, id, company, name, addr1, addr2, addr3, addr4,
	phone, fax, email, notes, ship_name, ship_addr1, ship_addr2, ship_addr3,
	ship_addr4, ship_phone, tax_table, tax_override`

func scanParty(row *sql.Row) (*Party, error) {
	var p Party
	err := row.Scan(&p.Kind, &p.ID, &p.Company, &p.Name,
		&p.Addr1, &p.Addr2, &p.Addr3, &p.Addr4,
		&p.Phone, &p.Fax, &p.Email, &p.Notes,
		&p.ShipName, &p.ShipAddr1, &p.ShipAddr2, &p.ShipAddr3, &p.ShipAddr4,
		&p.ShipPhone, &p.TaxTable, &p.TaxOverride)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// FindPartyByCompany looks a party up by exact company name. Returns nil
// when no match exists.
func (s *Store) FindPartyByCompany(kind PartyKind, company string) (*Party, error) {
	p, err := scanParty(s.tx.QueryRow(
		`SELECT `+partyColumns+` FROM parties WHERE kind = ? AND company = ?`,
		string(kind), company,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to find %s by company %q: %w", kind, company, err)
	}
	return p, nil
}

// FindPartyByID looks a party up by id. Returns nil when no match exists.
func (s *Store) FindPartyByID(kind PartyKind, id string) (*Party, error) {
	p, err := scanParty(s.tx.QueryRow(
		`SELECT `+partyColumns+` FROM parties WHERE kind = ? AND id = ?`,
		string(kind), id,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to find %s by id %q: %w", kind, id, err)
	}
	return p, nil
}

// InsertParty creates a new party record.
func (s *Store) InsertParty(p *Party) error {
	_, err := s.tx.Exec(`
		INSERT INTO parties (`+partyColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, string(p.Kind), p.ID, p.Company, p.Name,
		p.Addr1, p.Addr2, p.Addr3, p.Addr4,
		p.Phone, p.Fax, p.Email, p.Notes,
		p.ShipName, p.ShipAddr1, p.ShipAddr2, p.ShipAddr3, p.ShipAddr4,
		p.ShipPhone, p.TaxTable, p.TaxOverride)
	if err != nil {
		return fmt.Errorf("failed to insert %s %q: %w", p.Kind, p.Company, err)
	}
	return nil
}

// UpdatePartyID rewrites a party's id, keeping every other field.
func (s *Store) UpdatePartyID(kind PartyKind, oldID, newID string) error {
	_, err := s.tx.Exec(
		`UPDATE parties SET id = ? WHERE kind = ? AND id = ?`,
		newID, string(kind), oldID,
	)
	if err != nil {
		return fmt.Errorf("failed to update %s id %q to %q: %w", kind, oldID, newID, err)
	}
	return nil
}

// SaveParty persists every field of an existing party, keyed by (kind, id).
func (s *Store) SaveParty(p *Party) error {
	_, err := s.tx.Exec(`
		UPDATE parties SET company = ?, name = ?, addr1 = ?, addr2 = ?,
			addr3 = ?, addr4 = ?, phone = ?, fax = ?, email = ?, notes = ?,
			ship_name = ?, ship_addr1 = ?, ship_addr2 = ?, ship_addr3 = ?,
			ship_addr4 = ?, ship_phone = ?, tax_table = ?, tax_override = ?
		WHERE kind = ? AND id = ?
	`, p.Company, p.Name, p.Addr1, p.Addr2, p.Addr3, p.Addr4,
		p.Phone, p.Fax, p.Email, p.Notes,
		p.ShipName, p.ShipAddr1, p.ShipAddr2, p.ShipAddr3, p.ShipAddr4,
		p.ShipPhone, p.TaxTable, p.TaxOverride,
		string(p.Kind), p.ID)
	if err != nil {
		return fmt.Errorf("failed to save %s %q: %w", p.Kind, p.Company, err)
	}
	return nil
}

package importer

import (
	"fmt"
	"log/slog"

	"github.com/plainledger/qbimport/pkg/ledger"
	"github.com/plainledger/qbimport/pkg/tax"
)

// PartyFields carries the updatable identity fields of a party row. Empty
// fields are absent and never overwrite stored values.
type PartyFields struct {
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

	TaxTable     string
	SalesTaxCode string
}

// PartyResolver finds or creates customer and vendor records, reconciling the
// export's company names and external ids against the store's directory.
type PartyResolver struct {
	store *ledger.Store
	reg   *tax.Registry
}

// NewPartyResolver builds a resolver over the open store.
func NewPartyResolver(store *ledger.Store, reg *tax.Registry) *PartyResolver {
	return &PartyResolver{store: store, reg: reg}
}

// Lookup finds an existing party by company name without creating one.
// Used by payment posting, where an unknown owner is an error rather than a
// new record.
func (r *PartyResolver) Lookup(kind ledger.PartyKind, company string) (*ledger.Party, error) {
	if company == "" {
		return nil, fmt.Errorf("%w: %s row has no company", ErrMissingCompany, kind)
	}
	party, err := r.store.FindPartyByCompany(kind, company)
	if err != nil {
		return nil, err
	}
	if party == nil {
		return nil, fmt.Errorf("%w: %s %q", ErrUnresolvedParty, kind, company)
	}
	return party, nil
}

// Resolve finds or creates the party for a directory row and folds the row's
// fields into it. The company name is the primary identity; externalID is the
// export's own account number and wins over any generated id.
func (r *PartyResolver) Resolve(kind ledger.PartyKind, company, externalID string, fields PartyFields) (*ledger.Party, error) {
	if company == "" {
		return nil, fmt.Errorf("%w: %s row has no company", ErrMissingCompany, kind)
	}

	party, err := r.store.FindPartyByCompany(kind, company)
	if err != nil {
		return nil, err
	}

	var byID *ledger.Party
	if externalID != "" && (party == nil || party.ID != externalID) {
		byID, err = r.store.FindPartyByID(kind, externalID)
		if err != nil {
			return nil, err
		}
	}

	switch {
	case party == nil && byID == nil:
		id := externalID
		if id == "" {
			id, err = r.store.NextID(string(kind))
			if err != nil {
				return nil, err
			}
		}
		party = &ledger.Party{Kind: kind, ID: id, Company: company}
		if err := r.store.InsertParty(party); err != nil {
			return nil, err
		}

	case party == nil:
		// The export's id exists under another company name; the directory
		// row is authoritative for the name.
		slog.Info("renaming party to match directory row",
			"kind", kind, "id", byID.ID, "old", byID.Company, "new", company)
		byID.Company = company
		party = byID

	case byID != nil:
		// Company and id each match a different record. Keep the company
		// match and leave the id collision alone.
		slog.Warn("party id already belongs to another record, keeping company match",
			"kind", kind, "company", company, "id", externalID, "other", byID.Company)

	case externalID != "" && party.ID != externalID:
		// Known company gained an export id; adopt it.
		if err := r.store.UpdatePartyID(kind, party.ID, externalID); err != nil {
			return nil, err
		}
		party.ID = externalID
	}

	applyFields(party, fields)
	if err := r.attachTax(party, fields); err != nil {
		// Field updates still persist; the tax reference alone failed.
		if saveErr := r.store.SaveParty(party); saveErr != nil {
			return nil, saveErr
		}
		return nil, err
	}
	if err := r.store.SaveParty(party); err != nil {
		return nil, err
	}
	return party, nil
}

// applyFields overwrites party fields with the non-empty row fields.
func applyFields(p *ledger.Party, f PartyFields) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&p.Name, f.Name)
	set(&p.Addr1, f.Addr1)
	set(&p.Addr2, f.Addr2)
	set(&p.Addr3, f.Addr3)
	set(&p.Addr4, f.Addr4)
	set(&p.Phone, f.Phone)
	set(&p.Fax, f.Fax)
	set(&p.Email, f.Email)
	set(&p.Notes, f.Notes)
	set(&p.ShipName, f.ShipName)
	set(&p.ShipAddr1, f.ShipAddr1)
	set(&p.ShipAddr2, f.ShipAddr2)
	set(&p.ShipAddr3, f.ShipAddr3)
	set(&p.ShipAddr4, f.ShipAddr4)
	set(&p.ShipPhone, f.ShipPhone)
}

// attachTax links the party to its tax table when the row names one together
// with a sales-tax code. The table must already be registered.
func (r *PartyResolver) attachTax(p *ledger.Party, f PartyFields) error {
	if f.TaxTable == "" || f.SalesTaxCode == "" {
		return nil
	}
	if _, ok := r.reg.Lookup(f.TaxTable); !ok {
		return fmt.Errorf("%w: %q on %s %q", tax.ErrUnknownTaxTable, f.TaxTable, p.Kind, p.Company)
	}
	p.TaxTable = f.TaxTable
	switch f.SalesTaxCode {
	case "Tax":
		p.TaxOverride = true
	case "Non":
		p.TaxOverride = false
	default:
		slog.Warn("unrecognized sales tax code, treating as taxable",
			"code", f.SalesTaxCode, "party", p.Company)
		p.TaxOverride = true
	}
	return nil
}

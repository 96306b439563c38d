// Package tax holds the run-scoped tax-rate registry and the document
// tax-rate overlay consumed by the external patch step.
package tax

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/plainledger/qbimport/pkg/rational"
)

var (
	// ErrTaxRateConflict reports a re-registration of a known table with a
	// different rate. The registration is still resolved (see Register).
	ErrTaxRateConflict = errors.New("tax rate conflict")

	// ErrUnknownTaxTable reports a reference to a table name that was never
	// registered.
	ErrUnknownTaxTable = errors.New("unknown tax table")
)

// ConfirmFunc decides a rate conflict in committing mode. Returning true
// replaces the stored rate with the new one; false keeps the stored rate.
type ConfirmFunc func(name string, stored, proposed rational.Amount) bool

// Registry is an idempotent store of named tax rates, keyed by name only.
// Table membership persists for the lifetime of the run. A Registry is
// run-scoped and passed explicitly; it is not safe for concurrent use, which
// matches the single-pass processing model.
type Registry struct {
	rates   map[string]rational.Amount
	overlay map[string]rational.Amount
	dryRun  bool
	confirm ConfirmFunc
}

// NewRegistry builds a registry. In dry-run mode conflicts are reported and
// the stored rate keeps winning; otherwise confirm is consulted. A nil
// confirm behaves like dry-run conflict handling.
func NewRegistry(dryRun bool, confirm ConfirmFunc) *Registry {
	return &Registry{
		rates:   make(map[string]rational.Amount),
		overlay: make(map[string]rational.Amount),
		dryRun:  dryRun,
		confirm: confirm,
	}
}

// Seed loads an already-persisted table without conflict checking. Used when
// opening a store that carries tax tables from earlier runs.
func (r *Registry) Seed(name string, rate rational.Amount) {
	r.rates[name] = rate
}

// Register stores rate under name. The first registration and any identical
// re-registration succeed silently. A differing re-registration returns the
// effective rate together with an error wrapping ErrTaxRateConflict: in
// dry-run mode the stored rate stays effective; in committing mode the
// confirm hook decides which rate wins before the run continues.
func (r *Registry) Register(name string, rate rational.Amount) (rational.Amount, error) {
	stored, ok := r.rates[name]
	if !ok {
		r.rates[name] = rate
		return rate, nil
	}
	if stored.Equal(rate) {
		return stored, nil
	}

	if !r.dryRun && r.confirm != nil {
		if r.confirm(name, stored, rate) {
			r.rates[name] = rate
			return rate, fmt.Errorf("%w: table %q rate %s replaced by %s", ErrTaxRateConflict, name, stored, rate)
		}
	}
	slog.Warn("tax table re-registered with different rate, keeping stored rate",
		"table", name, "stored", stored.String(), "proposed", rate.String())
	return stored, fmt.Errorf("%w: table %q has rate %s, got %s", ErrTaxRateConflict, name, stored, rate)
}

// Lookup returns the registered rate for name.
func (r *Registry) Lookup(name string) (rational.Amount, bool) {
	rate, ok := r.rates[name]
	return rate, ok
}

// RecordDocumentRate remembers the final tax rate posted on a document so the
// external serialization patch step can rewrite it later.
func (r *Registry) RecordDocumentRate(documentID string, rate rational.Amount) {
	r.overlay[documentID] = rate
}

// Overlay returns the accumulated document-id to final-tax-rate mapping.
func (r *Registry) Overlay() map[string]rational.Amount {
	out := make(map[string]rational.Amount, len(r.overlay))
	for id, rate := range r.overlay {
		out[id] = rate
	}
	return out
}

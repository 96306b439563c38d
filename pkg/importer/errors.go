package importer

import (
	"errors"

	"github.com/plainledger/qbimport/pkg/rational"
	"github.com/plainledger/qbimport/pkg/tax"
)

// Row- and group-scoped errors. All of these are recovered locally: the
// offending record or group is skipped with a warning and the stream
// continues.
var (
	// ErrMalformedRow reports a row that cannot be classified or used where
	// it appeared.
	ErrMalformedRow = errors.New("malformed row")

	// ErrInvalidDate reports a date outside the month/day/4-digit-year form.
	ErrInvalidDate = errors.New("invalid date")

	// ErrUnterminatedGroup reports a header row arriving before the open
	// group's terminator. The open group is discarded, never merged.
	ErrUnterminatedGroup = errors.New("unterminated group")

	// ErrMissingCompany reports a party row with no company identifier.
	ErrMissingCompany = errors.New("missing company")

	// ErrUnresolvedParty reports a posting whose owning party does not exist.
	ErrUnresolvedParty = errors.New("unresolved party")

	// ErrUnbalancedTransaction reports a journal group whose splits do not
	// sum to zero. Fatal to that transaction only.
	ErrUnbalancedTransaction = errors.New("unbalanced transaction")

	// ErrUnknownAccount reports a posting against an account missing from
	// the chart.
	ErrUnknownAccount = errors.New("unknown account")
)

// errorKind buckets an error for the run summary.
func errorKind(err error) string {
	switch {
	case errors.Is(err, ErrMalformedRow):
		return "malformed_row"
	case errors.Is(err, ErrInvalidDate):
		return "invalid_date"
	case errors.Is(err, ErrUnterminatedGroup):
		return "unterminated_group"
	case errors.Is(err, ErrMissingCompany):
		return "missing_company"
	case errors.Is(err, ErrUnresolvedParty):
		return "unresolved_party"
	case errors.Is(err, ErrUnbalancedTransaction):
		return "unbalanced_transaction"
	case errors.Is(err, ErrUnknownAccount):
		return "unknown_account"
	case errors.Is(err, tax.ErrTaxRateConflict):
		return "tax_rate_conflict"
	case errors.Is(err, tax.ErrUnknownTaxTable):
		return "unknown_tax_table"
	case errors.Is(err, rational.ErrMalformedAmount):
		return "malformed_amount"
	default:
		return "other"
	}
}

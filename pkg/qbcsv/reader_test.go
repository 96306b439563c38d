package qbcsv

import (
	"io"
	"strings"
	"testing"

	"github.com/plainledger/qbimport/pkg/mapping"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var transactionsMap = mapping.FieldMap{
	Fields: map[string]string{
		"Type":    "kind",
		"Date":    "date",
		"Account": "account",
		"Amount":  "amount",
	},
}

func TestReadStream(t *testing.T) {
	csv := `Type,Date,Account,Amount
Invoice,01/15/2004,Accounts Receivable,100.00
,,Consulting Income,-100.00
,,,
`
	r, err := NewReader(strings.NewReader(csv), transactionsMap, Options{})
	require.NoError(t, err)

	rec, err := r.Read()
	require.NoError(t, err)
	assert.Equal(t, 2, rec.Line)
	assert.Equal(t, "Invoice", rec.Get("kind"))
	assert.Equal(t, "01/15/2004", rec.Get("date"))

	rec, err = r.Read()
	require.NoError(t, err)
	assert.Equal(t, "", rec.Get("kind"))
	assert.Equal(t, "Consulting Income", rec.Get("account"))
	assert.Equal(t, "-100.00", rec.Get("amount"))

	rec, err = r.Read()
	require.NoError(t, err)
	assert.Empty(t, rec.Fields, "terminator row maps to no fields")

	_, err = r.Read()
	assert.ErrorIs(t, err, io.EOF)
}

func TestReadShortRow(t *testing.T) {
	csv := "Type,Date,Account,Amount\nDeposit,01/15/2004\n"
	r, err := NewReader(strings.NewReader(csv), transactionsMap, Options{})
	require.NoError(t, err)

	rec, err := r.Read()
	require.NoError(t, err)
	assert.Equal(t, "Deposit", rec.Get("kind"))
	assert.Equal(t, "", rec.Get("account"))
}

func TestStripAccountNumbers(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"1000 Checking", "Checking"},
		{"1000 Checking:200 Payroll", "Checking:Payroll"},
		{"Checking", "Checking"},
		{"Office Depot 2000", "Office Depot 2000"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, stripAccountNumbers(tt.in), tt.in)
	}
}

func TestReadStripsAccountNumbers(t *testing.T) {
	csv := "Type,Date,Account,Amount\n,,4000 Income:10 Consulting,-50.00\n,,-SPLIT-,50.00\n"
	r, err := NewReader(strings.NewReader(csv), transactionsMap, Options{StripAccountNumbers: true})
	require.NoError(t, err)

	rec, err := r.Read()
	require.NoError(t, err)
	assert.Equal(t, "Income:Consulting", rec.Get("account"))

	rec, err = r.Read()
	require.NoError(t, err)
	assert.Equal(t, SplitMarker, rec.Get("account"), "split marker is never rewritten")
}

func TestNewReaderEmptyInput(t *testing.T) {
	_, err := NewReader(strings.NewReader(""), transactionsMap, Options{})
	require.Error(t, err)
}

package tax

import (
	"testing"

	"github.com/plainledger/qbimport/pkg/rational"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterIdempotent(t *testing.T) {
	reg := NewRegistry(false, nil)
	rate := rational.MustParse("7%")

	got, err := reg.Register("StateTax", rate)
	require.NoError(t, err)
	assert.True(t, got.Equal(rate))

	// Same rate again is an ok no-op.
	got, err = reg.Register("StateTax", rational.MustParse("7%"))
	require.NoError(t, err)
	assert.True(t, got.Equal(rate))

	// Different rate conflicts and the stored rate stays effective.
	got, err = reg.Register("StateTax", rational.MustParse("8%"))
	require.ErrorIs(t, err, ErrTaxRateConflict)
	assert.True(t, got.Equal(rate))
}

func TestRegisterConflictConfirmed(t *testing.T) {
	var askedStored, askedProposed rational.Amount
	confirm := func(name string, stored, proposed rational.Amount) bool {
		askedStored, askedProposed = stored, proposed
		return true
	}
	reg := NewRegistry(false, confirm)

	_, err := reg.Register("CityTax", rational.MustParse("2%"))
	require.NoError(t, err)

	got, err := reg.Register("CityTax", rational.MustParse("2.5%"))
	require.ErrorIs(t, err, ErrTaxRateConflict)
	assert.True(t, got.Equal(rational.MustParse("2.5%")), "confirmed rate should win")
	assert.True(t, askedStored.Equal(rational.MustParse("2%")))
	assert.True(t, askedProposed.Equal(rational.MustParse("2.5%")))

	stored, ok := reg.Lookup("CityTax")
	require.True(t, ok)
	assert.True(t, stored.Equal(rational.MustParse("2.5%")))
}

func TestRegisterConflictDryRun(t *testing.T) {
	confirmCalled := false
	reg := NewRegistry(true, func(string, rational.Amount, rational.Amount) bool {
		confirmCalled = true
		return true
	})

	_, err := reg.Register("StateTax", rational.MustParse("7%"))
	require.NoError(t, err)

	got, err := reg.Register("StateTax", rational.MustParse("9%"))
	require.ErrorIs(t, err, ErrTaxRateConflict)
	assert.False(t, confirmCalled, "dry-run must not pause for confirmation")
	assert.True(t, got.Equal(rational.MustParse("7%")), "stored rate wins in dry-run")
}

func TestSeedAndLookup(t *testing.T) {
	reg := NewRegistry(false, nil)
	reg.Seed("StateTax", rational.MustParse("7%"))

	rate, ok := reg.Lookup("StateTax")
	require.True(t, ok)
	assert.True(t, rate.Equal(rational.MustNew(7, 100)))

	_, ok = reg.Lookup("CountyTax")
	assert.False(t, ok)
}

func TestOverlay(t *testing.T) {
	reg := NewRegistry(false, nil)
	reg.RecordDocumentRate("000001", rational.MustParse("7%"))
	reg.RecordDocumentRate("000002", rational.MustParse("8.25%"))

	overlay := reg.Overlay()
	require.Len(t, overlay, 2)
	assert.True(t, overlay["000001"].Equal(rational.MustParse("7%")))
	assert.True(t, overlay["000002"].Equal(rational.MustParse("8.25%")))

	// The returned map is a copy.
	delete(overlay, "000001")
	assert.Len(t, reg.Overlay(), 2)
}

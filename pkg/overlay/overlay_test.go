package overlay

import (
	"path/filepath"
	"testing"

	"github.com/plainledger/qbimport/pkg/rational"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "overlay.json")

	err := Write(path, map[string]rational.Amount{
		"000001": rational.MustParse("7%"),
		"000002": rational.MustParse("8.25%"),
	})
	require.NoError(t, err)

	got, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"000001": "0.07000",
		"000002": "0.08250",
	}, got)
}

func TestReadMissing(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
}

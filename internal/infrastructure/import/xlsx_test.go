package csvimport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteAndReadXLSX(t *testing.T) {
	data, err := WriteXLSX("Klaim", []string{"NIM", "Kode Keg", "Tanggal Pelaksanaan", "Poin"}, [][]any{
		{"2201001", "BEM1", "15-03-2023", 10},
		{"", "", "", ""},
		{"2201002", "UKM2", 45000, 5},
	})
	require.NoError(t, err)
	require.NotEmpty(t, data)

	sheet, err := ReadXLSX(data)
	require.NoError(t, err)
	assert.Equal(t, []string{"nim", "kode keg", "tanggal pelaksanaan", "poin"}, sheet.Headers)
	require.Len(t, sheet.Rows, 3)

	assert.Equal(t, 2, sheet.Rows[0].LineNumber)
	assert.Equal(t, "BEM1", sheet.Rows[0].Get("Kode Keg"))
	assert.Equal(t, "10", sheet.Rows[0].Get("poin"))
	assert.True(t, sheet.Rows[1].IsEmpty())
	assert.Equal(t, 4, sheet.Rows[2].LineNumber)
	assert.Equal(t, "45000", sheet.Rows[2].Get("tanggal pelaksanaan"))

	via, err := ReadSheet("klaim.xlsx", data, 10)
	require.NoError(t, err)
	assert.Len(t, via.Rows, 3)
}

func TestWriteXLSX_DefaultSheetName(t *testing.T) {
	data, err := WriteXLSX("", []string{"a"}, nil)
	require.NoError(t, err)

	_, err = ReadSheet("x.xlsx", data, 0)
	assert.ErrorIs(t, err, ErrNoDataRows)
}

package csvimport

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRowError(t *testing.T) {
	t.Run("Error with column", func(t *testing.T) {
		err := NewRowError(5, "email", ErrCodeImportInvalidFormat, "invalid email format")
		assert.Equal(t, "row 5, column 'email': invalid email format", err.Error())
	})

	t.Run("Error without column", func(t *testing.T) {
		err := NewRowError(10, "", ErrCodeImportReferenceNotFound, "student not found")
		assert.Equal(t, "row 10: student not found", err.Error())
	})

	t.Run("Error with value", func(t *testing.T) {
		err := NewRowErrorWithValue(3, "tanggal", ErrCodeImportInvalidFormat, "invalid date", "31-02-2024")
		assert.Equal(t, "31-02-2024", err.Value)
		assert.Equal(t, 3, err.Row)
	})

	t.Run("JSON shape", func(t *testing.T) {
		err := NewRowError(4, "", ErrCodeImportReferenceNotFound, "student not found").WithKeys("2201001", "BEM1")
		data, marshalErr := json.Marshal(err)
		require.NoError(t, marshalErr)

		var got map[string]any
		require.NoError(t, json.Unmarshal(data, &got))
		assert.Equal(t, float64(4), got["row"])
		assert.Equal(t, "2201001", got["nim"])
		assert.Equal(t, "BEM1", got["kode_keg"])
		assert.Equal(t, "student not found", got["reason"])
		assert.Equal(t, ErrCodeImportReferenceNotFound, got["kind"])
		assert.NotContains(t, got, "column")
	})
}

func TestErrorCollection(t *testing.T) {
	t.Run("Add errors within limit", func(t *testing.T) {
		ec := NewErrorCollection(10)

		ec.Add(NewRowError(2, "nim", ErrCodeImportValidation, "error 1"))
		ec.Add(NewRowError(3, "nim", ErrCodeImportValidation, "error 2"))

		assert.Equal(t, 2, ec.Count())
		assert.Equal(t, 2, ec.TotalCount())
		assert.True(t, ec.HasErrors())
		assert.False(t, ec.IsTruncated())
	})

	t.Run("Add errors exceeding limit", func(t *testing.T) {
		ec := NewErrorCollection(3)

		for i := 2; i <= 6; i++ {
			ec.Add(NewRowError(i, "", ErrCodeImportRowFailed, "error"))
		}

		assert.Equal(t, 3, ec.Count())
		assert.Equal(t, 5, ec.TotalCount())
		assert.True(t, ec.IsTruncated())
		assert.Contains(t, ec.String(), "showing first 3")
	})

	t.Run("Helpers and summary", func(t *testing.T) {
		ec := NewErrorCollection(0)

		ec.AddRequiredError(2, "nim")
		ec.AddRequiredError(3, "nama_mhs")
		ec.AddFormatError(4, "tgl_lahir", "date", "kemarin")

		errs := ec.Errors()
		require.Len(t, errs, 3)
		assert.Equal(t, ErrCodeImportRequiredField, errs[0].Code)
		assert.Equal(t, ErrCodeImportInvalidFormat, errs[2].Code)
		assert.Equal(t, "kemarin", errs[2].Value)

		summary := ec.ErrorSummary()
		assert.Equal(t, 2, summary[ErrCodeImportRequiredField])
		assert.Equal(t, 1, summary[ErrCodeImportInvalidFormat])
	})

	t.Run("Empty collection", func(t *testing.T) {
		ec := NewErrorCollection(5)
		assert.False(t, ec.HasErrors())
		assert.Equal(t, "no errors", ec.String())
		assert.True(t, strings.HasPrefix(func() string {
			ec.Add(NewRowError(2, "", ErrCodeImportEmptyRow, "empty"))
			return ec.String()
		}(), "1 error(s) found"))
	})
}

package activity

import (
	"testing"

	"github.com/poinmhs/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewActivityType(t *testing.T) {
	t.Run("normalizes code", func(t *testing.T) {
		a, err := NewActivityType(" bem1 ", "Ketua BEM", "Ketua", 20)

		require.NoError(t, err)
		assert.Equal(t, "BEM1", a.Code)
		assert.Equal(t, 20, a.Weight)
	})

	t.Run("rejects bad input", func(t *testing.T) {
		cases := []struct {
			name     string
			code     string
			category string
			weight   int
		}{
			{"empty code", "", "Seminar", 5},
			{"symbols in code", "SE-MI", "Seminar", 5},
			{"empty category", "SEMI", " ", 5},
			{"negative weight", "SEMI", "Seminar", -1},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				_, err := NewActivityType(tc.code, tc.category, "", tc.weight)
				assert.True(t, shared.HasCode(err, shared.CodeValidation))
			})
		}
	})
}

func TestActivityType_Update(t *testing.T) {
	a, err := NewActivityType("SEMI", "Seminar", "Peserta", 5)
	require.NoError(t, err)

	require.NoError(t, a.Update("Seminar Nasional", "Peserta", 8))
	assert.Equal(t, 8, a.Weight)
	assert.Equal(t, "Seminar Nasional", a.Category)

	assert.Error(t, a.Update("Seminar", "Peserta", -3))
	assert.Equal(t, 8, a.Weight)
}

func TestSectionForCode(t *testing.T) {
	assert.Equal(t, SectionOrganisasi, SectionForCode("BEM1"))
	assert.Equal(t, SectionOrganisasi, SectionForCode("ukm2"))
	assert.Equal(t, SectionOrganisasi, SectionForCode("MNT9"))
	assert.Equal(t, SectionPrestasi, SectionForCode("MDB1"))
	assert.Equal(t, SectionLainnya, SectionForCode("SEMI"))
}

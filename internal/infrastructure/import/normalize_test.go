package csvimport

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseDate(t *testing.T) {
	valid := []struct {
		in   string
		want time.Time
	}{
		{"22-juni-2003", date(2003, time.June, 22)},
		{" 1-Desember-2021 ", date(2021, time.December, 1)},
		{"07/03/2003", date(2003, time.March, 7)},
		{"7-3-2003", date(2003, time.March, 7)},
		{"2003-03-07", date(2003, time.March, 7)},
		{"45000", date(2023, time.March, 15)},
		{"45000.75", date(2023, time.March, 15)},
		{"25569", date(1970, time.January, 1)},
	}
	for _, tc := range valid {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseDate(tc.in)
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.True(t, tc.want.Equal(*got), "got %s", got)
		})
	}

	for _, in := range []string{"-", "1/2", "-12-03-2003", "31-02-2024", "22-juno-2003", "03-07-03", "kemarin sore", "2003/13/01", "0"} {
		t.Run("rejects "+in, func(t *testing.T) {
			got, err := ParseDate(in)
			assert.ErrorIs(t, err, ErrInvalidDate)
			assert.Nil(t, got)
		})
	}

	t.Run("empty is not an error", func(t *testing.T) {
		got, err := ParseDate("   ")
		assert.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestCleanStringUpper(t *testing.T) {
	assert.Equal(t, "TEKNIK INFORMATIKA", CleanStringUpper("  teknik--informatika "))
	assert.Equal(t, "JL MERDEKA NO 5", CleanStringUpper("jl_merdeka / no 5"))
	assert.Equal(t, "", CleanStringUpper(""))
	assert.Equal(t, "a b", CleanString("a/_b"))
}

func TestCleanPhone(t *testing.T) {
	assert.Equal(t, "081234567890", CleanPhone("0812-3456 7890"))
	assert.Equal(t, "", CleanPhone("-"))
}

func TestConvertProdi(t *testing.T) {
	assert.Equal(t, "S1", ConvertProdi(" 01ti "))
	assert.Equal(t, "D3", ConvertProdi("02MI"))
	assert.Equal(t, "S2", ConvertProdi("s2"))
}

func TestConvertGender(t *testing.T) {
	assert.Equal(t, "L", ConvertGender(" l."))
	assert.Equal(t, "P", ConvertGender("P"))
	assert.Equal(t, "", ConvertGender("Laki-laki"))
}

func TestNormalizeEmail(t *testing.T) {
	got, ok := NormalizeEmail(" Ani.Putri@Mail.COM - ")
	assert.True(t, ok)
	assert.Equal(t, "ani.putri@mail.com", got)

	for _, in := range []string{"", "-", "ani@mail", "ani/b@mail.com", "ani putri@mail.com"} {
		_, ok := NormalizeEmail(in)
		assert.False(t, ok, in)
	}
}

func TestParseInt(t *testing.T) {
	n, err := ParseInt("12")
	require.NoError(t, err)
	assert.Equal(t, 12, n)

	n, err = ParseInt("5.0")
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	n, err = ParseInt("")
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = ParseInt("2.5")
	assert.Error(t, err)
	_, err = ParseInt("sepuluh")
	assert.Error(t, err)
}

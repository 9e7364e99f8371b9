package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSortOrder(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty string returns DESC", "", "DESC"},
		{"ASC uppercase returns ASC", "ASC", "ASC"},
		{"asc lowercase returns ASC", "asc", "ASC"},
		{"desc lowercase returns DESC", "desc", "DESC"},
		{"invalid value returns DESC", "INVALID", "DESC"},
		{"sql injection attempt returns DESC", "ASC; DROP TABLE users;--", "DESC"},
		{"whitespace around ASC returns ASC", "  asc  ", "ASC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidateSortOrder(tt.input))
		})
	}
}

func TestValidateSortField(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"allowed field is kept", "tanggal_pelaksanaan", "tanggal_pelaksanaan"},
		{"empty falls back", "", "created_at"},
		{"unknown falls back", "password_hash", "created_at"},
		{"whitespace is trimmed", " poin ", "poin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidateSortField(tt.input, ClaimSortFields, "created_at"))
		})
	}
}

func TestSQLInjectionPrevention(t *testing.T) {
	payloads := []string{
		"kode_keg; DROP TABLE users;--",
		"kode_keg' OR '1'='1",
		"kode_keg UNION SELECT * FROM users",
		"kode_keg, (SELECT password_hash FROM users)",
		"CASE WHEN 1=1 THEN kode_keg ELSE bobot_poin END",
	}

	for _, payload := range payloads {
		t.Run(payload, func(t *testing.T) {
			assert.Equal(t, "kode_keg", ValidateSortField(payload, ActivityTypeSortFields, "kode_keg"))
			assert.Equal(t, "DESC", ValidateSortOrder(payload))
		})
	}
}

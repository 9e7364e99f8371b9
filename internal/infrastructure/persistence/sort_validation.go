package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// ClaimSortFields contains allowed sort fields for claims
var ClaimSortFields = map[string]bool{
	"created_at":          true,
	"updated_at":          true,
	"tanggal_pengajuan":   true,
	"tanggal_pelaksanaan": true,
	"status":              true,
	"poin":                true,
}

// ActivityTypeSortFields contains allowed sort fields for master poin
var ActivityTypeSortFields = map[string]bool{
	"kode_keg":       true,
	"jenis_kegiatan": true,
	"bobot_poin":     true,
	"created_at":     true,
}

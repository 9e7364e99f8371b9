package migration

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/poinmhs/backend/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add claim index", "add_claim_index"},
		{"Add-Claim-Index", "add_claim_index"},
		{"ADD__CLAIM__INDEX", "add_claim_index"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"_leading and trailing_", "leading_and_trailing"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration_NumbersSequentially(t *testing.T) {
	dir := t.TempDir()

	first, err := CreateMigration(dir, "Create mahasiswa")
	require.NoError(t, err)
	assert.Equal(t, uint(1), first.Version)
	assert.Equal(t, filepath.Join(dir, "000001_create_mahasiswa.up.sql"), first.UpPath)
	assert.FileExists(t, first.DownPath)

	second, err := CreateMigration(dir, "add-ranking-index")
	require.NoError(t, err)
	assert.Equal(t, uint(2), second.Version)

	up, err := os.ReadFile(second.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "add-ranking-index")

	_, err = CreateMigration(dir, "!!!")
	assert.Error(t, err)
}

func TestListMigrations(t *testing.T) {
	src := fstest.MapFS{
		"000002_b.up.sql":   {Data: []byte("SELECT 1;")},
		"000001_a.up.sql":   {Data: []byte("SELECT 1;")},
		"000001_a.down.sql": {Data: []byte("SELECT 1;")},
		"README.md":         {Data: []byte("ignored")},
	}
	got, err := ListMigrations(src)
	require.NoError(t, err)
	assert.Equal(t, []Migration{
		{Version: 1, Name: "a", HasDown: true},
		{Version: 2, Name: "b"},
	}, got)
}

func TestListMigrations_Inconsistent(t *testing.T) {
	_, err := ListMigrations(fstest.MapFS{"000001_a.down.sql": {}})
	assert.ErrorContains(t, err, "no up file")

	_, err = ListMigrations(fstest.MapFS{
		"000001_a.up.sql": {},
		"000001_b.up.sql": {},
	})
	assert.ErrorContains(t, err, "two names")
}

func TestEmbeddedSchema(t *testing.T) {
	got, err := ListMigrations(migrations.FS)
	require.NoError(t, err)
	require.Len(t, got, 4)

	names := make([]string, len(got))
	for i, m := range got {
		assert.Equal(t, uint(i+1), m.Version)
		assert.True(t, m.HasDown, m.Name)
		names[i] = m.Name
	}
	assert.Equal(t, []string{
		"create_mahasiswa",
		"create_master_poin",
		"create_klaim_kegiatan",
		"create_users",
	}, names)
}

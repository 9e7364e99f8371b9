package importapp

import (
	"context"
	"testing"

	"github.com/poinmhs/backend/internal/domain/student"
	csvimport "github.com/poinmhs/backend/internal/infrastructure/import"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const studentHeader = "nim,nama_mhs,prodi,angkatan,tgl_lahir,jenis_kelamin,tlp_saya,email,total_poin"

func TestParseStudentRow_Normalises(t *testing.T) {
	sheet := csvSheet(t, studentHeader,
		`2201003,ani   putri,01TI,2022,22-juni-2003,l.,(0812) 345-678,Ani@Mail.COM,99`)
	nim, profile, target, err := ParseStudentRow(sheet.Rows[0])
	require.NoError(t, err)

	assert.Equal(t, "2201003", nim)
	assert.Equal(t, "ANI PUTRI", profile.Name)
	assert.Equal(t, "S1", profile.Prodi)
	assert.Equal(t, "2022", profile.Angkatan)
	require.NotNil(t, profile.TglLahir)
	assert.Equal(t, "2003-06-22", profile.TglLahir.Format("2006-01-02"))
	assert.Equal(t, student.GenderMale, profile.JenisKelamin)
	assert.Equal(t, "0812345678", profile.TlpSaya)
	assert.Equal(t, "ani@mail.com", profile.Email)
	assert.Equal(t, "-", profile.TempatLahir)
	assert.Equal(t, "-", profile.Alamat)
	assert.Equal(t, student.DefaultTargetPoin, target)
}

func TestParseStudentRow_DropsUnreadableOptionalFields(t *testing.T) {
	sheet := csvSheet(t, studentHeader, `2201003,Ani,02MI,,kemarin,x,,bukan email,`)
	_, profile, _, err := ParseStudentRow(sheet.Rows[0])
	require.NoError(t, err)
	assert.Equal(t, "D3", profile.Prodi)
	assert.Nil(t, profile.TglLahir)
	assert.Empty(t, profile.Email)
	assert.Equal(t, student.GenderUnknown, profile.JenisKelamin)
}

func TestStudentImport_CreatesStudentsAndUsers(t *testing.T) {
	store := newMemoryStore()
	existing := store.SeedStudent("2201001", "Ani Putri")
	svc := NewStudentImportService(store, zaptest.NewLogger(t))

	result, err := svc.Import(context.Background(), adminPrincipal, csvSheet(t, studentHeader,
		"2201001,Ani Putri,01TI,2022,,P,,,",
		"2201002,budi santoso,01TI,2022,,L,,,40",
		",,,,,,,,",
		"2201003,,01TI,2022,,L,,,",
		"2201004,Citra,01TI,22,,P,,,",
	))
	require.NoError(t, err)

	assert.Equal(t, 5, result.TotalRows)
	assert.Equal(t, 1, result.Inserted)
	assert.Equal(t, 1, result.SkippedDuplicate)
	assert.Equal(t, 2, result.SkippedEmpty)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 3)
	assert.Equal(t, csvimport.ErrCodeImportDuplicateInDB, result.Errors[0].Code)
	assert.Equal(t, csvimport.ErrCodeImportEmptyRow, result.Errors[1].Code)
	assert.Equal(t, csvimport.ErrCodeImportValidation, result.Errors[2].Code)
	assert.Equal(t, "2201004", result.Errors[2].NIM)

	budi, err := store.Students().FindByNIM(context.Background(), "2201002")
	require.NoError(t, err)
	assert.Equal(t, "BUDI SANTOSO", budi.Profile.Name)
	assert.Zero(t, budi.TotalPoin)
	assert.Equal(t, student.DefaultTargetPoin, budi.TargetPoin)

	u, err := store.Users().FindByIdentifier(context.Background(), "2201002")
	require.NoError(t, err)
	require.NotNil(t, u.StudentID)
	assert.Equal(t, budi.ID, *u.StudentID)
	assert.True(t, u.VerifyPassword("2201002"))

	untouched, _ := store.Student(existing.ID)
	assert.Equal(t, "Ani Putri", untouched.Profile.Name)
	assert.Equal(t, 1, store.UserCount())
}

func TestStudentImport_TargetColumn(t *testing.T) {
	store := newMemoryStore()
	svc := NewStudentImportService(store, zaptest.NewLogger(t))

	result, err := svc.Import(context.Background(), adminPrincipal, csvSheet(t, "nim,nama_mhs,target_poin",
		"2201002,Budi,75",
		"2201003,Citra,-5",
	))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Inserted)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, "target_poin", result.Errors[0].Column)

	budi, err := store.Students().FindByNIM(context.Background(), "2201002")
	require.NoError(t, err)
	assert.Equal(t, 75, budi.TargetPoin)
}

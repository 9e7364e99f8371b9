package handler

import (
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/poinmhs/backend/internal/application/access"
	importapp "github.com/poinmhs/backend/internal/application/import"
	csvimport "github.com/poinmhs/backend/internal/infrastructure/import"
	"github.com/poinmhs/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func importEngine(t *testing.T, store *testutil.MemoryStore, p *access.Principal, settings ImportSettings) *gin.Engine {
	t.Helper()
	log := zaptest.NewLogger(t)
	h := NewImportHandler(
		importapp.NewClaimImportService(store, nil, log),
		importapp.NewStudentImportService(store, log),
		importapp.NewActivityTypeImportService(store, log),
		importapp.NewExportService(store.Claims(), store.Students(), store.ActivityTypes(), log),
		settings,
	)
	engine := newEngine(p)
	engine.POST("/claims/import", h.ImportClaims)
	engine.POST("/students/import", h.ImportStudents)
	engine.POST("/activity-types/import", h.ImportActivityTypes)
	engine.GET("/claims/export", h.ExportClaims)
	engine.GET("/students/export", h.ExportStudents)
	engine.GET("/activity-types/export", h.ExportActivityTypes)
	return engine
}

func csvFile(lines ...string) testutil.FormFile {
	return testutil.FormFile{
		Field:       "file",
		Filename:    "data.csv",
		ContentType: "text/csv",
		Data:        []byte(strings.Join(lines, "\n") + "\n"),
	}
}

func TestImportHandler_ImportClaims(t *testing.T) {
	store := testutil.NewMemoryStore()
	ani := store.SeedStudent("2201001", "Ani Putri")
	store.SeedActivityType("BEM1", "Ketua BEM", 10)
	engine := importEngine(t, store, testutil.AdminPrincipal(), ImportSettings{MaxFileSize: 1 << 20, MaxRows: 100})

	w := testutil.Serve(engine, testutil.MultipartRequest(t, http.MethodPost, "/claims/import", nil, csvFile(
		"NIM,Kode Kegiatan,Status,Tanggal Pelaksanaan,Rincian Acara,Poin",
		"2201001,BEM1,Disetujui,2023-09-20,Mubes,",
		"2201001,BEM1,Disetujui,2023-09-20,Mubes lagi,",
		"9999999,BEM1,Disetujui,2023-09-20,Tidak ada,",
	)))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	result := testutil.DecodeJSON[envelope[importapp.ImportResult]](t, w).Data
	assert.Equal(t, 3, result.TotalRows)
	assert.Equal(t, 1, result.Inserted)
	assert.Equal(t, 1, result.SkippedDuplicate)
	assert.Equal(t, 1, result.Failed)

	st, _ := store.Student(ani.ID)
	assert.Equal(t, 10, st.TotalPoin)
}

func TestImportHandler_ImportStudentsAndActivityTypes(t *testing.T) {
	store := testutil.NewMemoryStore()
	engine := importEngine(t, store, testutil.AdminPrincipal(), ImportSettings{MaxFileSize: 1 << 20})

	w := testutil.Serve(engine, testutil.MultipartRequest(t, http.MethodPost, "/students/import", nil, csvFile(
		"nim,nama_mhs,prodi,angkatan",
		"2201001,Ani Putri,TI,2022",
		"2201002,Budi Santoso,SI,2022",
	)))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 2, testutil.DecodeJSON[envelope[importapp.ImportResult]](t, w).Data.Inserted)
	assert.Equal(t, 2, store.UserCount())

	w = testutil.Serve(engine, testutil.MultipartRequest(t, http.MethodPost, "/activity-types/import", nil, csvFile(
		"Kode Keg,Jenis Kegiatan,Bobot Poin",
		"BEM1,Ketua BEM,10",
		"MDB1,Juara 1 nasional,25",
	)))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 2, testutil.DecodeJSON[envelope[importapp.ImportResult]](t, w).Data.Inserted)
}

func TestImportHandler_Rejections(t *testing.T) {
	store := testutil.NewMemoryStore()
	admin := importEngine(t, store, testutil.AdminPrincipal(), ImportSettings{MaxFileSize: 64, MaxRows: 1})

	t.Run("student session", func(t *testing.T) {
		engine := importEngine(t, store, testutil.StudentPrincipal(testutil.NewTestUUID("s")), ImportSettings{})
		w := testutil.Serve(engine, testutil.MultipartRequest(t, http.MethodPost, "/claims/import", nil, csvFile("NIM", "1")))
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("no file", func(t *testing.T) {
		w := testutil.Serve(admin, testutil.MultipartRequest(t, http.MethodPost, "/claims/import", map[string]string{"x": "y"}))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "file file is required")
	})

	t.Run("unsupported format", func(t *testing.T) {
		f := csvFile("NIM", "1")
		f.Filename = "data.pdf"
		w := testutil.Serve(admin, testutil.MultipartRequest(t, http.MethodPost, "/claims/import", nil, f))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "unsupported file format")
	})

	t.Run("too many rows", func(t *testing.T) {
		w := testutil.Serve(admin, testutil.MultipartRequest(t, http.MethodPost, "/students/import", nil,
			csvFile("nim,nama_mhs", "2201001,Ani", "2201002,Budi")))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "more than 1 rows")
	})

	t.Run("file too large", func(t *testing.T) {
		w := testutil.Serve(admin, testutil.MultipartRequest(t, http.MethodPost, "/students/import", nil,
			csvFile("nim,nama_mhs", "2201001,"+strings.Repeat("A", 80))))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		testutil.AssertErrorResponse(t, w, "ERR_VALIDATION")
	})

	assert.Zero(t, store.UserCount())
}

func TestImportHandler_Export(t *testing.T) {
	store := testutil.NewMemoryStore()
	store.SeedStudent("2201001", "Ani Putri")
	store.SeedActivityType("BEM1", "Ketua BEM", 10)

	engine := importEngine(t, store, testutil.AdminPrincipal(), ImportSettings{})
	w := testutil.Serve(engine, testutil.JSONRequest(t, http.MethodGet, "/students/export", nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="mahasiswa.xlsx"`, w.Header().Get("Content-Disposition"))

	sheet, err := csvimport.ReadXLSX(w.Body.Bytes())
	require.NoError(t, err)
	require.Len(t, sheet.Rows, 1)
	assert.Equal(t, "2201001", sheet.Rows[0].Lookup("nim", "NIM"))

	w = testutil.Serve(engine, testutil.JSONRequest(t, http.MethodGet, "/activity-types/export", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	w = testutil.Serve(engine, testutil.JSONRequest(t, http.MethodGet, "/claims/export", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	student := importEngine(t, store, testutil.StudentPrincipal(testutil.NewTestUUID("s")), ImportSettings{})
	w = testutil.Serve(student, testutil.JSONRequest(t, http.MethodGet, "/claims/export", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

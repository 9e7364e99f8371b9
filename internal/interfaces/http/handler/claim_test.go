package handler

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/poinmhs/backend/internal/application/access"
	claimapp "github.com/poinmhs/backend/internal/application/claim"
	"github.com/poinmhs/backend/internal/domain/activity"
	"github.com/poinmhs/backend/internal/domain/student"
	"github.com/poinmhs/backend/internal/infrastructure/storage"
	"github.com/poinmhs/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type claimFixture struct {
	store   *testutil.MemoryStore
	handler *ClaimHandler
	student *student.Student
	other   *student.Student
	actType *activity.ActivityType
}

func newClaimFixture(t *testing.T) *claimFixture {
	t.Helper()
	store := testutil.NewMemoryStore()
	svc := claimapp.NewClaimService(store.Claims(), store.Students(), store.ActivityTypes(), store, nil,
		storage.NewMemoryBlobStore(), zaptest.NewLogger(t))
	return &claimFixture{
		store:   store,
		handler: NewClaimHandler(svc, 1<<20),
		student: store.SeedStudent("2201001", "Ani Putri"),
		other:   store.SeedStudent("2201002", "Budi Santoso"),
		actType: store.SeedActivityType("BEM1", "Ketua BEM", 10),
	}
}

func (f *claimFixture) engine(p *access.Principal) *gin.Engine {
	engine := newEngine(p)
	engine.GET("/claims", f.handler.List)
	engine.POST("/claims", f.handler.Create)
	engine.GET("/claims/:id", f.handler.Get)
	engine.PUT("/claims/:id", f.handler.Resubmit)
	engine.PATCH("/claims/:id/status", f.handler.Review)
	engine.DELETE("/claims/:id", f.handler.Delete)
	engine.GET("/claims/:id/evidence", f.handler.Evidence)
	return engine
}

func (f *claimFixture) form() map[string]string {
	return map[string]string{
		"master_poin_id":      f.actType.ID.String(),
		"periode_pengajuan":   "2023/2024 Ganjil",
		"tanggal_pengajuan":   "2023-10-02",
		"rincian_acara":       "Musyawarah besar BEM",
		"tingkat":             "Kampus",
		"tempat":              "Aula",
		"tanggal_pelaksanaan": "2023-09-20",
		"mentor":              "Pak Dedi",
	}
}

var evidenceFile = testutil.FormFile{
	Field:       "bukti_kegiatan",
	Filename:    "bukti.pdf",
	ContentType: "application/pdf",
	Data:        []byte("%PDF-1.4 evidence"),
}

func (f *claimFixture) submit(t *testing.T) claimapp.ClaimResponse {
	t.Helper()
	w := testutil.Serve(f.engine(testutil.StudentPrincipal(f.student.ID)),
		testutil.MultipartRequest(t, http.MethodPost, "/claims", f.form(), evidenceFile))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return testutil.DecodeJSON[envelope[claimapp.ClaimResponse]](t, w).Data
}

func TestClaimHandler_Create(t *testing.T) {
	f := newClaimFixture(t)

	created := f.submit(t)
	assert.Equal(t, "submitted", string(created.Status))
	assert.Equal(t, 10, created.Poin)
	assert.Equal(t, f.student.ID, created.StudentID)
	assert.Equal(t, "2023-09-20", created.TanggalPelaksanaan)
	require.NotNil(t, created.ActivityType)
	assert.Equal(t, "BEM1", created.ActivityType.Code)

	st, _ := f.store.Student(f.student.ID)
	assert.Equal(t, 0, st.TotalPoin)
}

func TestClaimHandler_CreateRejections(t *testing.T) {
	f := newClaimFixture(t)
	engine := f.engine(testutil.StudentPrincipal(f.student.ID))

	t.Run("missing evidence", func(t *testing.T) {
		w := testutil.Serve(engine, testutil.MultipartRequest(t, http.MethodPost, "/claims", f.form()))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		testutil.AssertErrorResponse(t, w, "ERR_VALIDATION")
		assert.Contains(t, w.Body.String(), "bukti_kegiatan")
	})

	t.Run("malformed date", func(t *testing.T) {
		form := f.form()
		form["tanggal_pelaksanaan"] = "20/09/2023"
		w := testutil.Serve(engine, testutil.MultipartRequest(t, http.MethodPost, "/claims", form, evidenceFile))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "tanggal_pelaksanaan")
	})

	t.Run("malformed activity type id", func(t *testing.T) {
		form := f.form()
		form["master_poin_id"] = "BEM1"
		w := testutil.Serve(engine, testutil.MultipartRequest(t, http.MethodPost, "/claims", form, evidenceFile))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		testutil.AssertErrorResponse(t, w, "ERR_VALIDATION")
	})

	t.Run("evidence type not accepted", func(t *testing.T) {
		exe := testutil.FormFile{Field: "bukti_kegiatan", Filename: "x.exe", ContentType: "application/x-msdownload", Data: []byte("MZ")}
		w := testutil.Serve(engine, testutil.MultipartRequest(t, http.MethodPost, "/claims", f.form(), exe))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("anonymous", func(t *testing.T) {
		w := testutil.Serve(f.engine(nil), testutil.MultipartRequest(t, http.MethodPost, "/claims", f.form(), evidenceFile))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	assert.Equal(t, 0, f.store.ClaimCount())
}

func TestClaimHandler_ListScopesStudents(t *testing.T) {
	f := newClaimFixture(t)
	f.submit(t)
	f.submit(t)

	w := testutil.Serve(f.engine(testutil.StudentPrincipal(f.other.ID)),
		testutil.JSONRequest(t, http.MethodGet, "/claims", nil))
	require.Equal(t, http.StatusOK, w.Code)
	resp := testutil.DecodeJSON[envelope[[]claimapp.ClaimResponse]](t, w)
	assert.Empty(t, resp.Data)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(0), resp.Meta.Total)

	w = testutil.Serve(f.engine(testutil.AdminPrincipal()),
		testutil.JSONRequest(t, http.MethodGet, "/claims?status=submitted&page=1&page_size=1", nil))
	require.Equal(t, http.StatusOK, w.Code)
	resp = testutil.DecodeJSON[envelope[[]claimapp.ClaimResponse]](t, w)
	assert.Len(t, resp.Data, 1)
	assert.Equal(t, int64(2), resp.Meta.Total)
	assert.Equal(t, 2, resp.Meta.TotalPages)

	for _, status := range []string{"Diajukan", "SUBMITTED"} {
		w = testutil.Serve(f.engine(testutil.AdminPrincipal()),
			testutil.JSONRequest(t, http.MethodGet, "/claims?status="+status, nil))
		require.Equal(t, http.StatusOK, w.Code, status)
		assert.Len(t, testutil.DecodeJSON[envelope[[]claimapp.ClaimResponse]](t, w).Data, 2, status)
	}

	w = testutil.Serve(f.engine(testutil.AdminPrincipal()),
		testutil.JSONRequest(t, http.MethodGet, "/claims?status=Disetujui", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, testutil.DecodeJSON[envelope[[]claimapp.ClaimResponse]](t, w).Data)

	w = testutil.Serve(f.engine(testutil.AdminPrincipal()),
		testutil.JSONRequest(t, http.MethodGet, "/claims?status=pending", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	testutil.AssertErrorResponse(t, w, "ERR_VALIDATION")
}

func TestClaimHandler_ReviewFlow(t *testing.T) {
	f := newClaimFixture(t)
	created := f.submit(t)
	path := "/claims/" + created.ID.String()
	admin := f.engine(testutil.AdminPrincipal())

	w := testutil.Serve(f.engine(testutil.StudentPrincipal(f.student.ID)),
		testutil.JSONRequest(t, http.MethodPatch, path+"/status", map[string]string{"status": "approved"}))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = testutil.Serve(admin, testutil.JSONRequest(t, http.MethodPatch, path+"/status", map[string]string{"status": "revision"}))
	assert.Equal(t, http.StatusBadRequest, w.Code, "revision needs a note")

	w = testutil.Serve(admin, testutil.JSONRequest(t, http.MethodPatch, path+"/status",
		map[string]string{"status": "revision", "catatan": "Tanggal salah"}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "revision", string(testutil.DecodeJSON[envelope[claimapp.ClaimResponse]](t, w).Data.Status))

	form := f.form()
	form["tanggal_pelaksanaan"] = "2023-09-21"
	w = testutil.Serve(f.engine(testutil.StudentPrincipal(f.student.ID)),
		testutil.MultipartRequest(t, http.MethodPut, path, form))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resubmitted := testutil.DecodeJSON[envelope[claimapp.ClaimResponse]](t, w).Data
	assert.Equal(t, "resubmitted", string(resubmitted.Status))
	assert.Equal(t, "2023-09-21", resubmitted.TanggalPelaksanaan)

	w = testutil.Serve(admin, testutil.JSONRequest(t, http.MethodPatch, path+"/status", map[string]string{"status": "approved"}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	st, _ := f.store.Student(f.student.ID)
	assert.Equal(t, 10, st.TotalPoin)

	w = testutil.Serve(admin, testutil.JSONRequest(t, http.MethodPatch, path+"/status",
		map[string]string{"status": "rejected", "catatan": "late"}))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	testutil.AssertErrorResponse(t, w, "ERR_INVALID_STATE")

	w = testutil.Serve(admin, testutil.JSONRequest(t, http.MethodDelete, path, nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	testutil.AssertErrorResponse(t, w, "ERR_INVALID_STATE")
	assert.Equal(t, 1, f.store.ClaimCount())
	st, _ = f.store.Student(f.student.ID)
	assert.Equal(t, 10, st.TotalPoin)
}

func TestClaimHandler_GetAndEvidence(t *testing.T) {
	f := newClaimFixture(t)
	created := f.submit(t)
	path := "/claims/" + created.ID.String()

	w := testutil.Serve(f.engine(testutil.StudentPrincipal(f.student.ID)), testutil.JSONRequest(t, http.MethodGet, path+"/evidence", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, "%PDF-1.4 evidence", w.Body.String())

	w = testutil.Serve(f.engine(testutil.StudentPrincipal(f.other.ID)), testutil.JSONRequest(t, http.MethodGet, path, nil))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = testutil.Serve(f.engine(testutil.AdminPrincipal()), testutil.JSONRequest(t, http.MethodGet, "/claims/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	testutil.AssertErrorResponse(t, w, "ERR_VALIDATION")

	w = testutil.Serve(f.engine(testutil.AdminPrincipal()),
		testutil.JSONRequest(t, http.MethodGet, "/claims/"+testutil.NewTestUUID("missing").String(), nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

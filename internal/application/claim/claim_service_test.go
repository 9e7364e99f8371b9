package claim

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/poinmhs/backend/internal/application/access"
	"github.com/poinmhs/backend/internal/application/filestore"
	"github.com/poinmhs/backend/internal/domain/activity"
	"github.com/poinmhs/backend/internal/domain/claim"
	"github.com/poinmhs/backend/internal/domain/identity"
	"github.com/poinmhs/backend/internal/domain/shared"
	"github.com/poinmhs/backend/internal/domain/student"
	"github.com/poinmhs/backend/internal/infrastructure/storage"
	"github.com/poinmhs/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fixture struct {
	store    *testutil.MemoryStore
	files    *storage.MemoryBlobStore
	events   *testutil.RecordingPublisher
	svc      *ClaimService
	student  *student.Student
	other    *student.Student
	actType  *activity.ActivityType
	admin    *access.Principal
	owner    *access.Principal
	stranger *access.Principal
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := testutil.NewMemoryStore()
	files := storage.NewMemoryBlobStore()
	events := testutil.NewRecordingPublisher()

	svc := NewClaimService(store.Claims(), store.Students(), store.ActivityTypes(), store, nil, files, zaptest.NewLogger(t))
	svc.SetEventPublisher(events)

	s := store.SeedStudent("2201001", "Ani Putri")
	o := store.SeedStudent("2201002", "Budi Santoso")
	return &fixture{
		store:    store,
		files:    files,
		events:   events,
		svc:      svc,
		student:  s,
		other:    o,
		actType:  store.SeedActivityType("BEM1", "Ketua BEM", 10),
		admin:    &access.Principal{SubjectID: uuid.New(), Role: identity.RoleAdmin, Identifier: "198001"},
		owner:    studentPrincipal(s),
		stranger: studentPrincipal(o),
	}
}

func studentPrincipal(s *student.Student) *access.Principal {
	id := s.ID
	return &access.Principal{SubjectID: uuid.New(), Role: identity.RoleStudent, StudentID: &id, Identifier: s.NIM}
}

func validDetails() ClaimDetailsInput {
	return ClaimDetailsInput{
		PeriodePengajuan:   "2023/2024 Ganjil",
		TanggalPengajuan:   time.Date(2023, 10, 2, 0, 0, 0, 0, time.UTC),
		RincianAcara:       "Musyawarah besar BEM",
		Tingkat:            "Kampus",
		Tempat:             "Aula",
		TanggalPelaksanaan: time.Date(2023, 9, 20, 0, 0, 0, 0, time.UTC),
		Mentor:             "Pak Dedi",
	}
}

func pdf() *filestore.Upload {
	return &filestore.Upload{Filename: "bukti.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.4")}
}

// racingClaims runs interleave once, right after the service has loaded a
// claim, to simulate another request landing between read and write
type racingClaims struct {
	claim.ClaimRepository
	once       sync.Once
	interleave func()
}

func (r *racingClaims) FindByID(ctx context.Context, id uuid.UUID) (*claim.Claim, error) {
	c, err := r.ClaimRepository.FindByID(ctx, id)
	r.once.Do(r.interleave)
	return c, err
}

// racingService shares the fixture's store but interleaves fn with its first read
func (f *fixture) racingService(t *testing.T, fn func()) *ClaimService {
	repo := &racingClaims{ClaimRepository: f.store.Claims(), interleave: fn}
	return NewClaimService(repo, f.store.Students(), f.store.ActivityTypes(), f.store, nil, f.files, zaptest.NewLogger(t))
}

func (f *fixture) submit(t *testing.T) *ClaimResponse {
	t.Helper()
	resp, err := f.svc.Create(context.Background(), f.owner, CreateClaimInput{
		ActivityTypeID: f.actType.ID,
		Details:        validDetails(),
		Evidence:       pdf(),
	})
	require.NoError(t, err)
	return resp
}

func (f *fixture) totalPoin(t *testing.T, id uuid.UUID) int {
	t.Helper()
	s, ok := f.store.Student(id)
	require.True(t, ok)
	return s.TotalPoin
}

func TestClaimService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("student submits own claim", func(t *testing.T) {
		f := newFixture(t)

		resp := f.submit(t)

		assert.Equal(t, claim.StatusSubmitted, resp.Status)
		assert.Equal(t, 10, resp.Poin)
		assert.Equal(t, "2023-09-20", resp.TanggalPelaksanaan)
		assert.Nil(t, resp.Catatan)
		require.NotNil(t, resp.Student)
		assert.Equal(t, "2201001", resp.Student.NIM)
		require.NotNil(t, resp.ActivityType)
		assert.Equal(t, "BEM1", resp.ActivityType.Code)
		assert.True(t, f.files.Exists(resp.BuktiFileID))
		assert.Equal(t, []string{claim.EventTypeClaimSubmitted}, f.events.EventTypes())
	})

	t.Run("admin files on behalf of a student", func(t *testing.T) {
		f := newFixture(t)
		sid := f.other.ID

		resp, err := f.svc.Create(ctx, f.admin, CreateClaimInput{
			StudentID: &sid, ActivityTypeID: f.actType.ID, Details: validDetails(), Evidence: pdf(),
		})

		require.NoError(t, err)
		assert.Equal(t, f.other.ID, resp.StudentID)
	})

	t.Run("admin must name the student", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Create(ctx, f.admin, CreateClaimInput{ActivityTypeID: f.actType.ID, Details: validDetails(), Evidence: pdf()})
		assert.True(t, shared.HasCode(err, shared.CodeValidation))
	})

	t.Run("student cannot file for someone else", func(t *testing.T) {
		f := newFixture(t)
		sid := f.other.ID
		_, err := f.svc.Create(ctx, f.owner, CreateClaimInput{
			StudentID: &sid, ActivityTypeID: f.actType.ID, Details: validDetails(), Evidence: pdf(),
		})
		assert.ErrorIs(t, err, shared.ErrForbidden)
	})

	t.Run("missing fields and evidence are rejected before upload", func(t *testing.T) {
		f := newFixture(t)

		details := validDetails()
		details.Tempat = " "
		_, err := f.svc.Create(ctx, f.owner, CreateClaimInput{ActivityTypeID: f.actType.ID, Details: details, Evidence: pdf()})
		assert.ErrorIs(t, err, shared.ErrValidation)
		assert.Contains(t, err.Error(), "tempat")

		_, err = f.svc.Create(ctx, f.owner, CreateClaimInput{ActivityTypeID: f.actType.ID, Details: validDetails()})
		assert.ErrorIs(t, err, shared.ErrValidation)

		_, err = f.svc.Create(ctx, f.owner, CreateClaimInput{
			ActivityTypeID: f.actType.ID,
			Details:        validDetails(),
			Evidence:       &filestore.Upload{ContentType: "text/html", Data: []byte("<p>")},
		})
		assert.ErrorIs(t, err, shared.ErrValidation)

		assert.Zero(t, f.files.Len())
		assert.Zero(t, f.store.ClaimCount())
	})

	t.Run("unknown activity type", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Create(ctx, f.owner, CreateClaimInput{ActivityTypeID: uuid.New(), Details: validDetails(), Evidence: pdf()})
		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.Equal(t, "activity type not found", err.Error())
		assert.Zero(t, f.files.Len())
	})

	t.Run("upload failure", func(t *testing.T) {
		f := newFixture(t)
		f.files.FailStore = errors.New("connection refused")

		_, err := f.svc.Create(ctx, f.owner, CreateClaimInput{ActivityTypeID: f.actType.ID, Details: validDetails(), Evidence: pdf()})

		assert.True(t, shared.HasCode(err, shared.CodeUploadFailed))
		assert.Zero(t, f.store.ClaimCount())
	})

	t.Run("failed save removes the uploaded file", func(t *testing.T) {
		f := newFixture(t)
		f.store.FailClaimSave = errors.New("db down")

		_, err := f.svc.Create(ctx, f.owner, CreateClaimInput{ActivityTypeID: f.actType.ID, Details: validDetails(), Evidence: pdf()})

		require.Error(t, err)
		assert.Zero(t, f.files.Len())
		assert.Empty(t, f.events.Events())
	})

	t.Run("unauthenticated", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Create(ctx, nil, CreateClaimInput{})
		assert.ErrorIs(t, err, shared.ErrUnauthorized)
	})
}

func TestClaimService_Review(t *testing.T) {
	ctx := context.Background()

	t.Run("approval credits the ledger and clears the note", func(t *testing.T) {
		f := newFixture(t)
		created := f.submit(t)

		resp, err := f.svc.Review(ctx, f.admin, created.ID, ReviewClaimInput{Status: "Disetujui", Note: "ok"})

		require.NoError(t, err)
		assert.Equal(t, claim.StatusApproved, resp.Status)
		assert.Nil(t, resp.Catatan)
		assert.Equal(t, 10, f.totalPoin(t, f.student.ID))
		assert.Equal(t, []string{
			claim.EventTypeClaimSubmitted,
			claim.EventTypeClaimReviewed,
			student.EventTypePointsCredited,
		}, f.events.EventTypes())
	})

	t.Run("rejection publishes no credit", func(t *testing.T) {
		f := newFixture(t)
		created := f.submit(t)

		_, err := f.svc.Review(ctx, f.admin, created.ID, ReviewClaimInput{Status: "rejected", Note: "tidak relevan"})
		require.NoError(t, err)
		assert.NotContains(t, f.events.EventTypes(), student.EventTypePointsCredited)
	})

	t.Run("approved is terminal", func(t *testing.T) {
		f := newFixture(t)
		created := f.submit(t)
		_, err := f.svc.Review(ctx, f.admin, created.ID, ReviewClaimInput{Status: "approved"})
		require.NoError(t, err)

		_, err = f.svc.Review(ctx, f.admin, created.ID, ReviewClaimInput{Status: "approved"})
		assert.ErrorIs(t, err, shared.ErrInvalidState)

		_, err = f.svc.Review(ctx, f.admin, created.ID, ReviewClaimInput{Status: "rejected", Note: "late"})
		assert.ErrorIs(t, err, shared.ErrInvalidState)

		assert.Equal(t, 10, f.totalPoin(t, f.student.ID))
	})

	t.Run("rejected is terminal and needs a note", func(t *testing.T) {
		f := newFixture(t)
		created := f.submit(t)

		_, err := f.svc.Review(ctx, f.admin, created.ID, ReviewClaimInput{Status: "rejected"})
		assert.ErrorIs(t, err, shared.ErrValidation)

		resp, err := f.svc.Review(ctx, f.admin, created.ID, ReviewClaimInput{Status: "ditolak", Note: "bukti tidak terbaca"})
		require.NoError(t, err)
		require.NotNil(t, resp.Catatan)
		assert.Equal(t, "bukti tidak terbaca", *resp.Catatan)

		_, err = f.svc.Review(ctx, f.admin, created.ID, ReviewClaimInput{Status: "approved"})
		assert.ErrorIs(t, err, shared.ErrInvalidState)
		assert.Zero(t, f.totalPoin(t, f.student.ID))
	})

	t.Run("invalid target", func(t *testing.T) {
		f := newFixture(t)
		created := f.submit(t)

		for _, status := range []string{"submitted", "resubmitted", "done", ""} {
			_, err := f.svc.Review(ctx, f.admin, created.ID, ReviewClaimInput{Status: status, Note: "x"})
			assert.ErrorIs(t, err, shared.ErrValidation, status)
		}
	})

	t.Run("students cannot review", func(t *testing.T) {
		f := newFixture(t)
		created := f.submit(t)

		_, err := f.svc.Review(ctx, f.owner, created.ID, ReviewClaimInput{Status: "approved"})
		assert.ErrorIs(t, err, shared.ErrForbidden)
		assert.Zero(t, f.totalPoin(t, f.student.ID))
	})

	t.Run("unknown claim", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Review(ctx, f.admin, uuid.New(), ReviewClaimInput{Status: "approved"})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("ledger failure rolls back the status change", func(t *testing.T) {
		f := newFixture(t)
		created := f.submit(t)
		f.store.FailAddPoints = errors.New("deadlock detected")

		_, err := f.svc.Review(ctx, f.admin, created.ID, ReviewClaimInput{Status: "approved"})

		require.Error(t, err)
		stored, ok := f.store.Claim(created.ID)
		require.True(t, ok)
		assert.Equal(t, claim.StatusSubmitted, stored.Status)
		assert.Zero(t, f.totalPoin(t, f.student.ID))
		assert.Equal(t, 1, f.store.Rollbacks)

		f.store.FailAddPoints = nil
		_, err = f.svc.Review(ctx, f.admin, created.ID, ReviewClaimInput{Status: "approved"})
		require.NoError(t, err)
		assert.Equal(t, 10, f.totalPoin(t, f.student.ID))
	})

	t.Run("concurrent approvals credit once", func(t *testing.T) {
		f := newFixture(t)
		created := f.submit(t)

		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			successes int
		)
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := f.svc.Review(ctx, f.admin, created.ID, ReviewClaimInput{Status: "approved"}); err == nil {
					mu.Lock()
					successes++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, successes)
		assert.Equal(t, 10, f.totalPoin(t, f.student.ID))
	})

	t.Run("weight edits do not change existing claims", func(t *testing.T) {
		f := newFixture(t)
		created := f.submit(t)

		require.NoError(t, f.actType.Update(f.actType.Category, "", 25))
		require.NoError(t, f.store.ActivityTypes().Save(ctx, f.actType))

		resp, err := f.svc.Review(ctx, f.admin, created.ID, ReviewClaimInput{Status: "approved"})
		require.NoError(t, err)
		assert.Equal(t, 10, resp.Poin)
		assert.Equal(t, 10, f.totalPoin(t, f.student.ID))
	})
}

func TestClaimService_RevisionRoundTrip(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	created := f.submit(t)
	oldFile := created.BuktiFileID

	resp, err := f.svc.Review(ctx, f.admin, created.ID, ReviewClaimInput{Status: "revisi", Note: "lampirkan sertifikat"})
	require.NoError(t, err)
	assert.Equal(t, claim.StatusRevision, resp.Status)
	require.NotNil(t, resp.Catatan)

	details := validDetails()
	details.RincianAcara = "Musyawarah besar BEM 2023"
	resp, err = f.svc.Resubmit(ctx, f.owner, created.ID, ResubmitClaimInput{
		Details:  details,
		Evidence: &filestore.Upload{Filename: "sertifikat.png", ContentType: "image/png", Data: []byte{0x89, 'P', 'N', 'G'}},
	})
	require.NoError(t, err)
	assert.Equal(t, claim.StatusResubmitted, resp.Status)
	assert.Nil(t, resp.Catatan)
	assert.Equal(t, "Musyawarah besar BEM 2023", resp.RincianAcara)
	assert.NotEqual(t, oldFile, resp.BuktiFileID)
	assert.False(t, f.files.Exists(oldFile))
	assert.True(t, f.files.Exists(resp.BuktiFileID))

	resp, err = f.svc.Review(ctx, f.admin, created.ID, ReviewClaimInput{Status: "approved"})
	require.NoError(t, err)
	assert.Equal(t, claim.StatusApproved, resp.Status)
	assert.Equal(t, 10, f.totalPoin(t, f.student.ID))
}

func TestClaimService_Resubmit(t *testing.T) {
	ctx := context.Background()

	sendBack := func(t *testing.T, f *fixture) *ClaimResponse {
		created := f.submit(t)
		_, err := f.svc.Review(ctx, f.admin, created.ID, ReviewClaimInput{Status: "revision", Note: "perbaiki"})
		require.NoError(t, err)
		return created
	}

	t.Run("only from revision", func(t *testing.T) {
		f := newFixture(t)
		created := f.submit(t)
		_, err := f.svc.Resubmit(ctx, f.owner, created.ID, ResubmitClaimInput{Details: validDetails()})
		assert.ErrorIs(t, err, shared.ErrInvalidState)
	})

	t.Run("only by the owner", func(t *testing.T) {
		f := newFixture(t)
		created := sendBack(t, f)

		_, err := f.svc.Resubmit(ctx, f.stranger, created.ID, ResubmitClaimInput{Details: validDetails()})
		assert.ErrorIs(t, err, shared.ErrForbidden)

		_, err = f.svc.Resubmit(ctx, f.admin, created.ID, ResubmitClaimInput{Details: validDetails()})
		assert.ErrorIs(t, err, shared.ErrForbidden)
	})

	t.Run("without new evidence keeps the file", func(t *testing.T) {
		f := newFixture(t)
		created := sendBack(t, f)

		resp, err := f.svc.Resubmit(ctx, f.owner, created.ID, ResubmitClaimInput{Details: validDetails()})
		require.NoError(t, err)
		assert.Equal(t, created.BuktiFileID, resp.BuktiFileID)
		assert.True(t, f.files.Exists(created.BuktiFileID))
	})

	t.Run("failed save keeps the old file and drops the new one", func(t *testing.T) {
		f := newFixture(t)
		created := sendBack(t, f)
		f.store.FailClaimSave = errors.New("db down")

		_, err := f.svc.Resubmit(ctx, f.owner, created.ID, ResubmitClaimInput{Details: validDetails(), Evidence: pdf()})

		require.Error(t, err)
		assert.True(t, f.files.Exists(created.BuktiFileID))
		assert.Equal(t, 1, f.files.Len())
	})

	t.Run("claim deleted meanwhile is not brought back", func(t *testing.T) {
		f := newFixture(t)
		created := sendBack(t, f)
		svc := f.racingService(t, func() {
			require.NoError(t, f.svc.Delete(ctx, f.admin, created.ID))
		})

		_, err := svc.Resubmit(ctx, f.owner, created.ID, ResubmitClaimInput{Details: validDetails(), Evidence: pdf()})

		assert.ErrorIs(t, err, shared.ErrNotFound)
		_, ok := f.store.Claim(created.ID)
		assert.False(t, ok)
		assert.Zero(t, f.files.Len(), "the new upload is dropped")
	})

	t.Run("concurrent resubmit wins once", func(t *testing.T) {
		f := newFixture(t)
		created := sendBack(t, f)
		var winner *ClaimResponse
		svc := f.racingService(t, func() {
			var err error
			winner, err = f.svc.Resubmit(ctx, f.owner, created.ID, ResubmitClaimInput{Details: validDetails(), Evidence: pdf()})
			require.NoError(t, err)
		})

		_, err := svc.Resubmit(ctx, f.owner, created.ID, ResubmitClaimInput{Details: validDetails(), Evidence: pdf()})

		assert.ErrorIs(t, err, shared.ErrInvalidState)
		stored, ok := f.store.Claim(created.ID)
		require.True(t, ok)
		assert.Equal(t, claim.StatusResubmitted, stored.Status)
		assert.Equal(t, winner.BuktiFileID, stored.EvidenceFileID)
		assert.Equal(t, 1, f.files.Len(), "only the winning upload remains")
	})

	t.Run("invalid details", func(t *testing.T) {
		f := newFixture(t)
		created := sendBack(t, f)
		details := validDetails()
		details.TanggalPelaksanaan = time.Time{}

		_, err := f.svc.Resubmit(ctx, f.owner, created.ID, ResubmitClaimInput{Details: details, Evidence: pdf()})
		assert.ErrorIs(t, err, shared.ErrValidation)
		assert.Equal(t, 1, f.files.Len())
	})
}

func TestClaimService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("storage failure does not block deletion", func(t *testing.T) {
		f := newFixture(t)
		created := f.submit(t)
		f.files.FailDelete = errors.New("bucket unreachable")

		require.NoError(t, f.svc.Delete(ctx, f.admin, created.ID))
		_, ok := f.store.Claim(created.ID)
		assert.False(t, ok)
	})

	t.Run("evidence removed", func(t *testing.T) {
		f := newFixture(t)
		created := f.submit(t)

		require.NoError(t, f.svc.Delete(ctx, f.admin, created.ID))
		assert.False(t, f.files.Exists(created.BuktiFileID))
	})

	t.Run("admin only", func(t *testing.T) {
		f := newFixture(t)
		created := f.submit(t)
		assert.ErrorIs(t, f.svc.Delete(ctx, f.owner, created.ID), shared.ErrForbidden)
	})

	t.Run("unknown claim", func(t *testing.T) {
		f := newFixture(t)
		assert.ErrorIs(t, f.svc.Delete(ctx, f.admin, uuid.New()), shared.ErrNotFound)
	})

	t.Run("approved claims are kept", func(t *testing.T) {
		f := newFixture(t)
		created := f.submit(t)
		_, err := f.svc.Review(ctx, f.admin, created.ID, ReviewClaimInput{Status: "approved"})
		require.NoError(t, err)

		assert.ErrorIs(t, f.svc.Delete(ctx, f.admin, created.ID), shared.ErrInvalidState)
		_, ok := f.store.Claim(created.ID)
		assert.True(t, ok)
		assert.True(t, f.files.Exists(created.BuktiFileID))
		assert.Equal(t, 10, f.totalPoin(t, f.student.ID))
	})

	t.Run("rejected claims can be deleted", func(t *testing.T) {
		f := newFixture(t)
		created := f.submit(t)
		_, err := f.svc.Review(ctx, f.admin, created.ID, ReviewClaimInput{Status: "rejected", Note: "duplikat"})
		require.NoError(t, err)

		require.NoError(t, f.svc.Delete(ctx, f.admin, created.ID))
		assert.Zero(t, f.store.ClaimCount())
	})

	t.Run("claim approved meanwhile is kept", func(t *testing.T) {
		f := newFixture(t)
		created := f.submit(t)
		svc := f.racingService(t, func() {
			_, err := f.svc.Review(ctx, f.admin, created.ID, ReviewClaimInput{Status: "approved"})
			require.NoError(t, err)
		})

		assert.ErrorIs(t, svc.Delete(ctx, f.admin, created.ID), shared.ErrInvalidState)
		stored, ok := f.store.Claim(created.ID)
		require.True(t, ok)
		assert.Equal(t, claim.StatusApproved, stored.Status)
		assert.Equal(t, 10, f.totalPoin(t, f.student.ID))

		sum, err := f.store.Claims().SumApprovedPoints(ctx, f.student.ID)
		require.NoError(t, err)
		assert.Equal(t, sum, f.totalPoin(t, f.student.ID))
	})
}

func TestClaimService_Read(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	mine := f.submit(t)
	sid := f.other.ID
	theirs, err := f.svc.Create(ctx, f.admin, CreateClaimInput{StudentID: &sid, ActivityTypeID: f.actType.ID, Details: validDetails(), Evidence: pdf()})
	require.NoError(t, err)
	_, err = f.svc.Review(ctx, f.admin, theirs.ID, ReviewClaimInput{Status: "approved"})
	require.NoError(t, err)

	t.Run("student lists own claims only", func(t *testing.T) {
		items, total, err := f.svc.List(ctx, f.owner, ListClaimsFilter{})
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		require.Len(t, items, 1)
		assert.Equal(t, mine.ID, items[0].ID)
	})

	t.Run("admin lists all, filtered by status", func(t *testing.T) {
		items, total, err := f.svc.List(ctx, f.admin, ListClaimsFilter{})
		require.NoError(t, err)
		assert.EqualValues(t, 2, total)
		assert.Len(t, items, 2)

		items, total, err = f.svc.List(ctx, f.admin, ListClaimsFilter{Status: "Disetujui"})
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		assert.Equal(t, theirs.ID, items[0].ID)
		require.NotNil(t, items[0].Student)
		assert.Equal(t, "2201002", items[0].Student.NIM)

		_, _, err = f.svc.List(ctx, f.admin, ListClaimsFilter{Status: "pending"})
		assert.ErrorIs(t, err, shared.ErrValidation)
	})

	t.Run("unknown role and anonymous callers", func(t *testing.T) {
		_, _, err := f.svc.List(ctx, &access.Principal{SubjectID: uuid.New(), Role: "dosen"}, ListClaimsFilter{})
		assert.ErrorIs(t, err, shared.ErrForbidden)

		_, _, err = f.svc.List(ctx, nil, ListClaimsFilter{})
		assert.ErrorIs(t, err, shared.ErrUnauthorized)

		unlinked := &access.Principal{SubjectID: uuid.New(), Role: identity.RoleStudent}
		_, _, err = f.svc.List(ctx, unlinked, ListClaimsFilter{})
		assert.ErrorIs(t, err, shared.ErrForbidden)
	})

	t.Run("get by id respects ownership", func(t *testing.T) {
		got, err := f.svc.Get(ctx, f.owner, mine.ID)
		require.NoError(t, err)
		assert.Equal(t, mine.ID, got.ID)

		_, err = f.svc.Get(ctx, f.owner, theirs.ID)
		assert.ErrorIs(t, err, shared.ErrForbidden)

		_, err = f.svc.Get(ctx, f.admin, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("evidence streaming", func(t *testing.T) {
		rc, contentType, err := f.svc.Evidence(ctx, f.owner, mine.ID)
		require.NoError(t, err)
		body, err := io.ReadAll(rc)
		require.NoError(t, rc.Close())
		require.NoError(t, err)
		assert.Equal(t, "%PDF-1.4", string(body))
		assert.Equal(t, "application/pdf", contentType)

		_, _, err = f.svc.Evidence(ctx, f.stranger, mine.ID)
		assert.ErrorIs(t, err, shared.ErrForbidden)

		require.NoError(t, f.files.Delete(ctx, theirs.BuktiFileID))
		_, _, err = f.svc.Evidence(ctx, f.admin, theirs.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

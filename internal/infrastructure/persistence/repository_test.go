package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/poinmhs/backend/internal/application/transaction"
	"github.com/poinmhs/backend/internal/domain/activity"
	"github.com/poinmhs/backend/internal/domain/claim"
	"github.com/poinmhs/backend/internal/domain/identity"
	"github.com/poinmhs/backend/internal/domain/shared"
	"github.com/poinmhs/backend/internal/domain/student"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func seedStudent(t *testing.T, repo *GormStudentRepository, nim, name string) *student.Student {
	t.Helper()
	s, err := student.NewStudent(nim, student.Profile{Name: name})
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), s))
	return s
}

func seedActivityType(t *testing.T, repo *GormActivityTypeRepository, code string, weight int) *activity.ActivityType {
	t.Helper()
	a, err := activity.NewActivityType(code, "Seminar", "Peserta", weight)
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), a))
	return a
}

func testDetails(executed time.Time) claim.Details {
	return claim.Details{
		Period:      "2023/2024 Ganjil",
		SubmittedOn: executed.AddDate(0, 0, 3),
		Description: "Seminar nasional",
		Level:       "Nasional",
		Venue:       "Aula",
		ExecutedOn:  executed,
	}
}

func TestStudentRepository_SaveAndFind(t *testing.T) {
	db := newTestDatabase(t)
	repo := NewGormStudentRepository(db.DB)
	ctx := context.Background()

	s := seedStudent(t, repo, "2021001", "Budi")

	got, err := repo.FindByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "2021001", got.NIM)
	assert.Equal(t, "Budi", got.Profile.Name)
	assert.Equal(t, 50, got.TargetPoin)

	byNIM, err := repo.FindByNIM(ctx, " 2021001 ")
	require.NoError(t, err)
	assert.Equal(t, s.ID, byNIM.ID)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.True(t, errors.Is(err, shared.ErrNotFound))
}

func TestStudentRepository_DuplicateNIM(t *testing.T) {
	db := newTestDatabase(t)
	repo := NewGormStudentRepository(db.DB)
	seedStudent(t, repo, "2021001", "Budi")

	other, err := student.NewStudent("2021001", student.Profile{Name: "Ani"})
	require.NoError(t, err)
	err = repo.Save(context.Background(), other)
	assert.True(t, shared.HasCode(err, shared.CodeAlreadyExist))
}

func TestStudentRepository_SaveNeverOverwritesTotal(t *testing.T) {
	db := newTestDatabase(t)
	repo := NewGormStudentRepository(db.DB)
	ctx := context.Background()
	s := seedStudent(t, repo, "2021001", "Budi")

	total, err := repo.AddPoints(ctx, s.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, 7, total)

	// s still carries TotalPoin 0 in memory
	require.NoError(t, s.UpdateProfile(student.Profile{Name: "Budi Santoso"}))
	require.NoError(t, repo.Save(ctx, s))

	got, err := repo.FindByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "Budi Santoso", got.Profile.Name)
	assert.Equal(t, 7, got.TotalPoin)
}

func TestStudentRepository_AddPoints(t *testing.T) {
	db := newTestDatabase(t)
	repo := NewGormStudentRepository(db.DB)
	ctx := context.Background()
	s := seedStudent(t, repo, "2021001", "Budi")

	_, err := repo.AddPoints(ctx, s.ID, 3)
	require.NoError(t, err)
	total, err := repo.AddPoints(ctx, s.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, 7, total)

	_, err = repo.AddPoints(ctx, uuid.New(), 1)
	assert.True(t, errors.Is(err, shared.ErrNotFound))
}

func TestStudentRepository_RankingAndSearch(t *testing.T) {
	db := newTestDatabase(t)
	repo := NewGormStudentRepository(db.DB)
	ctx := context.Background()

	a := seedStudent(t, repo, "2021003", "Citra")
	b := seedStudent(t, repo, "2021001", "Budi")
	c := seedStudent(t, repo, "2021002", "Ani")
	_, err := repo.AddPoints(ctx, c.ID, 10)
	require.NoError(t, err)

	all, err := repo.FindAll(ctx, shared.Filter{Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, c.ID, all[0].ID, "highest total first")
	assert.Equal(t, b.ID, all[1].ID, "ties broken by NIM")
	assert.Equal(t, a.ID, all[2].ID)

	found, err := repo.FindAll(ctx, shared.Filter{Search: "BUD"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Budi", found[0].Profile.Name)

	count, err := repo.Count(ctx, shared.Filter{Search: "2021"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	page, err := repo.FindAll(ctx, shared.Filter{Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Len(t, page, 1)
}

func TestClaimRepository_TransitionStatusIsCompareAndSet(t *testing.T) {
	db := newTestDatabase(t)
	students := NewGormStudentRepository(db.DB)
	types := NewGormActivityTypeRepository(db.DB)
	claims := NewGormClaimRepository(db.DB)
	ctx := context.Background()

	s := seedStudent(t, students, "2021001", "Budi")
	at := seedActivityType(t, types, "SEM01", 5)
	c, err := claim.NewClaim(s.ID, at.ID, testDetails(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)), at.Weight, "file-1")
	require.NoError(t, err)
	require.NoError(t, claims.Create(ctx, c))

	first, err := claims.FindByID(ctx, c.ID)
	require.NoError(t, err)
	second, err := claims.FindByID(ctx, c.ID)
	require.NoError(t, err)

	_, err = first.Review(claim.StatusApproved, "")
	require.NoError(t, err)
	require.NoError(t, claims.TransitionStatus(ctx, first, claim.StatusSubmitted))

	_, err = second.Review(claim.StatusRejected, "tidak valid")
	require.NoError(t, err)
	err = claims.TransitionStatus(ctx, second, claim.StatusSubmitted)
	assert.True(t, shared.HasCode(err, shared.CodeInvalidState), "stale reviewer loses")

	stored, err := claims.FindByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, claim.StatusApproved, stored.Status)
	assert.Nil(t, stored.Note)

	ghost := *first
	ghost.ID = uuid.New()
	err = claims.TransitionStatus(ctx, &ghost, claim.StatusSubmitted)
	assert.True(t, errors.Is(err, shared.ErrNotFound))
}

func TestClaimRepository_UpdateKeepsPointSnapshot(t *testing.T) {
	db := newTestDatabase(t)
	students := NewGormStudentRepository(db.DB)
	types := NewGormActivityTypeRepository(db.DB)
	claims := NewGormClaimRepository(db.DB)
	ctx := context.Background()

	s := seedStudent(t, students, "2021001", "Budi")
	at := seedActivityType(t, types, "SEM01", 5)
	c, err := claim.NewClaim(s.ID, at.ID, testDetails(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)), at.Weight, "file-1")
	require.NoError(t, err)
	require.NoError(t, claims.Create(ctx, c))

	c.Points = 99
	c.EvidenceFileID = "file-2"
	require.NoError(t, claims.UpdateIfStatus(ctx, c, claim.StatusSubmitted))

	stored, err := claims.FindByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, stored.Points)
	assert.Equal(t, "file-2", stored.EvidenceFileID)

	err = claims.Create(ctx, c)
	assert.Error(t, err, "create never overwrites an existing claim")
}

func TestClaimRepository_UpdateIfStatusIsGuarded(t *testing.T) {
	db := newTestDatabase(t)
	students := NewGormStudentRepository(db.DB)
	types := NewGormActivityTypeRepository(db.DB)
	claims := NewGormClaimRepository(db.DB)
	ctx := context.Background()

	s := seedStudent(t, students, "2021001", "Budi")
	at := seedActivityType(t, types, "SEM01", 5)

	inRevision := func(t *testing.T, day int) *claim.Claim {
		t.Helper()
		c, err := claim.NewClaim(s.ID, at.ID, testDetails(time.Date(2024, 3, day, 0, 0, 0, 0, time.UTC)), at.Weight, "file-1")
		require.NoError(t, err)
		require.NoError(t, claims.Create(ctx, c))
		_, err = c.Review(claim.StatusRevision, "bukti buram")
		require.NoError(t, err)
		require.NoError(t, claims.TransitionStatus(ctx, c, claim.StatusSubmitted))
		loaded, err := claims.FindByID(ctx, c.ID)
		require.NoError(t, err)
		return loaded
	}

	t.Run("deleted claim is not brought back", func(t *testing.T) {
		loaded := inRevision(t, 1)
		require.NoError(t, claims.DeleteIfStatus(ctx, loaded.ID, claim.StatusRevision))

		require.NoError(t, loaded.Resubmit(s.ID, testDetails(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))))
		err := claims.UpdateIfStatus(ctx, loaded, claim.StatusRevision)
		assert.True(t, errors.Is(err, shared.ErrNotFound))

		_, err = claims.FindByID(ctx, loaded.ID)
		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})

	t.Run("delete is guarded by the loaded status", func(t *testing.T) {
		loaded := inRevision(t, 3)
		err := claims.DeleteIfStatus(ctx, loaded.ID, claim.StatusSubmitted)
		assert.True(t, shared.HasCode(err, shared.CodeInvalidState))

		err = claims.DeleteIfStatus(ctx, uuid.New(), claim.StatusRevision)
		assert.True(t, errors.Is(err, shared.ErrNotFound))

		_, err = claims.FindByID(ctx, loaded.ID)
		require.NoError(t, err)
	})

	t.Run("second resubmit loses", func(t *testing.T) {
		first := inRevision(t, 2)
		second, err := claims.FindByID(ctx, first.ID)
		require.NoError(t, err)

		require.NoError(t, first.Resubmit(s.ID, testDetails(time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC))))
		require.NoError(t, claims.UpdateIfStatus(ctx, first, claim.StatusRevision))

		second.EvidenceFileID = "file-orphan"
		require.NoError(t, second.Resubmit(s.ID, testDetails(time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC))))
		err = claims.UpdateIfStatus(ctx, second, claim.StatusRevision)
		assert.True(t, shared.HasCode(err, shared.CodeInvalidState))

		stored, err := claims.FindByID(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, claim.StatusResubmitted, stored.Status)
		assert.Equal(t, "file-1", stored.EvidenceFileID)
	})
}

func TestClaimRepository_QueriesAndSums(t *testing.T) {
	db := newTestDatabase(t)
	students := NewGormStudentRepository(db.DB)
	types := NewGormActivityTypeRepository(db.DB)
	claims := NewGormClaimRepository(db.DB)
	ctx := context.Background()

	s := seedStudent(t, students, "2021001", "Budi")
	other := seedStudent(t, students, "2021002", "Ani")
	at := seedActivityType(t, types, "SEM01", 5)
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	approved, err := claim.NewImportedClaim(s.ID, at.ID, testDetails(day), 5, "", claim.StatusApproved)
	require.NoError(t, err)
	require.NoError(t, claims.Create(ctx, approved))
	approved2, err := claim.NewImportedClaim(s.ID, at.ID, testDetails(day.AddDate(0, 0, 1)), 5, "f-2", claim.StatusApproved)
	require.NoError(t, err)
	require.NoError(t, claims.Create(ctx, approved2))
	rejected, err := claim.NewImportedClaim(s.ID, at.ID, testDetails(day.AddDate(0, 0, 2)), 5, "f-3", claim.StatusRejected)
	require.NoError(t, err)
	require.NoError(t, claims.Create(ctx, rejected))

	sum, err := claims.SumApprovedPoints(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, sum)

	none, err := claims.SumApprovedPoints(ctx, other.ID)
	require.NoError(t, err)
	assert.Zero(t, none)

	exists, err := claims.ExistsByDuplicateKey(ctx, claim.NewDuplicateKey(s.ID, at.ID, day.Add(15*time.Hour)))
	require.NoError(t, err)
	assert.True(t, exists, "same calendar day is a duplicate")
	exists, err = claims.ExistsByDuplicateKey(ctx, claim.NewDuplicateKey(other.ID, at.ID, day))
	require.NoError(t, err)
	assert.False(t, exists)
	_, err = claims.ExistsByDuplicateKey(ctx, claim.DuplicateKey{StudentID: s.ID, ActivityTypeID: at.ID, ExecutedOn: "01/03/2024"})
	assert.True(t, shared.HasCode(err, shared.CodeValidation))

	list, err := claims.FindAll(ctx, shared.Filter{Filters: map[string]interface{}{
		"student_id": s.ID,
		"status":     claim.StatusApproved,
	}})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	count, err := claims.CountByActivityType(ctx, at.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	ids, err := claims.EvidenceFileIDsByStudent(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"f-2", "f-3"}, ids)

	require.NoError(t, claims.DeleteByStudent(ctx, s.ID))
	count, err = claims.Count(ctx, shared.Filter{})
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestActivityTypeRepository_DuplicateCode(t *testing.T) {
	db := newTestDatabase(t)
	repo := NewGormActivityTypeRepository(db.DB)
	seedActivityType(t, repo, "SEM01", 5)

	dup, err := activity.NewActivityType("sem01", "Lomba", "", 3)
	require.NoError(t, err)
	err = repo.Save(context.Background(), dup)
	assert.True(t, shared.HasCode(err, shared.CodeAlreadyExist))

	got, err := repo.FindByCode(context.Background(), "sem01")
	require.NoError(t, err)
	assert.Equal(t, 5, got.Weight)
}

func TestUserRepository_RoundTrip(t *testing.T) {
	identity.BcryptCost = bcrypt.MinCost
	db := newTestDatabase(t)
	students := NewGormStudentRepository(db.DB)
	users := NewGormUserRepository(db.DB)
	ctx := context.Background()

	s := seedStudent(t, students, "2021001", "Budi")
	u, err := identity.NewStudentUser(s.ID, s.NIM, s.Profile.Name)
	require.NoError(t, err)
	require.NoError(t, users.Save(ctx, u))

	got, err := users.FindByIdentifier(ctx, "2021001")
	require.NoError(t, err)
	assert.Equal(t, identity.RoleStudent, got.Role)
	require.NotNil(t, got.StudentID)
	assert.Equal(t, s.ID, *got.StudentID)
	assert.True(t, got.VerifyPassword("2021001"))

	got.RecordLoginFailure(5, time.Minute)
	require.NoError(t, users.Save(ctx, got))
	again, err := users.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, again.FailedAttempts)

	exists, err := users.ExistsByIdentifier(ctx, " 2021001 ")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, users.DeleteByStudent(ctx, s.ID))
	_, err = users.FindByID(ctx, u.ID)
	assert.True(t, errors.Is(err, shared.ErrNotFound))
}

func TestTransactionScope_RollsBackOnError(t *testing.T) {
	db := newTestDatabase(t)
	scope := NewGormTransactionScope(db.DB)
	students := NewGormStudentRepository(db.DB)
	ctx := context.Background()
	s := seedStudent(t, students, "2021001", "Budi")

	boom := errors.New("boom")
	err := scope.Execute(ctx, func(repos transaction.Repositories) error {
		if _, err := repos.Students().AddPoints(ctx, s.ID, 5); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := students.FindByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Zero(t, got.TotalPoin)

	err = scope.Execute(ctx, func(repos transaction.Repositories) error {
		_, err := repos.Students().AddPoints(ctx, s.ID, 5)
		return err
	})
	require.NoError(t, err)

	got, err = students.FindByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.TotalPoin)
}

package claim

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/poinmhs/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDetails() Details {
	return Details{
		Period:      "Ganjil 2023/2024",
		SubmittedOn: time.Date(2023, 10, 2, 0, 0, 0, 0, time.UTC),
		Description: "Seminar Nasional Keamanan Siber",
		Level:       "Nasional",
		Venue:       "Aula Kampus",
		ExecutedOn:  time.Date(2023, 9, 28, 14, 30, 0, 0, time.Local),
		Mentor:      "",
		Speaker:     "Dr. Budi",
	}
}

func newSubmitted(t *testing.T, points int) *Claim {
	t.Helper()
	c, err := NewClaim(uuid.New(), uuid.New(), testDetails(), points, "evidence/abc.pdf")
	require.NoError(t, err)
	return c
}

func TestNewClaim(t *testing.T) {
	t.Run("starts submitted with snapshot points", func(t *testing.T) {
		c := newSubmitted(t, 10)

		assert.Equal(t, StatusSubmitted, c.Status)
		assert.Equal(t, 10, c.Points)
		assert.Nil(t, c.Note)
		assert.Equal(t, "2023-09-28", c.Details.ExecutedOn.Format(DateLayout))
		assert.Len(t, c.GetDomainEvents(), 1)
	})

	t.Run("requires evidence", func(t *testing.T) {
		_, err := NewClaim(uuid.New(), uuid.New(), testDetails(), 10, "")
		assert.True(t, shared.HasCode(err, shared.CodeValidation))
	})

	t.Run("lists every missing field", func(t *testing.T) {
		_, err := NewClaim(uuid.New(), uuid.New(), Details{Mentor: "x"}, 10, "e")
		require.Error(t, err)
		for _, f := range []string{"periode_pengajuan", "tanggal_pengajuan", "rincian_acara", "tingkat", "tempat", "tanggal_pelaksanaan"} {
			assert.Contains(t, err.Error(), f)
		}
	})

	t.Run("requires references", func(t *testing.T) {
		_, err := NewClaim(uuid.Nil, uuid.New(), testDetails(), 10, "e")
		assert.True(t, shared.HasCode(err, shared.CodeValidation))
		_, err = NewClaim(uuid.New(), uuid.Nil, testDetails(), 10, "e")
		assert.True(t, shared.HasCode(err, shared.CodeValidation))
	})
}

func TestClaim_Review(t *testing.T) {
	t.Run("approve credits points and clears note", func(t *testing.T) {
		c := newSubmitted(t, 10)

		credit, err := c.Review(StatusApproved, "looks good")

		require.NoError(t, err)
		assert.Equal(t, 10, credit)
		assert.Equal(t, StatusApproved, c.Status)
		assert.Nil(t, c.Note)
	})

	t.Run("second approval fails with invalid state", func(t *testing.T) {
		c := newSubmitted(t, 10)
		_, err := c.Review(StatusApproved, "")
		require.NoError(t, err)

		credit, err := c.Review(StatusApproved, "")

		assert.Equal(t, 0, credit)
		assert.True(t, shared.HasCode(err, shared.CodeInvalidState))
	})

	t.Run("reject and revision need a note", func(t *testing.T) {
		for _, target := range []Status{StatusRejected, StatusRevision} {
			c := newSubmitted(t, 10)

			_, err := c.Review(target, "   ")
			assert.True(t, shared.HasCode(err, shared.CodeValidation))
			assert.Equal(t, StatusSubmitted, c.Status)

			credit, err := c.Review(target, "incomplete")
			require.NoError(t, err)
			assert.Equal(t, 0, credit)
			assert.Equal(t, target, c.Status)
			assert.Equal(t, "incomplete", c.NoteText())
		}
	})

	t.Run("rejected is terminal", func(t *testing.T) {
		c := newSubmitted(t, 10)
		_, err := c.Review(StatusRejected, "incomplete")
		require.NoError(t, err)

		_, err = c.Review(StatusApproved, "")
		assert.True(t, shared.HasCode(err, shared.CodeInvalidState))
		_, err = c.Review(StatusRevision, "again")
		assert.True(t, shared.HasCode(err, shared.CodeInvalidState))
	})

	t.Run("cannot review a claim waiting on the student", func(t *testing.T) {
		c := newSubmitted(t, 10)
		_, err := c.Review(StatusRevision, "fix date")
		require.NoError(t, err)

		_, err = c.Review(StatusApproved, "")
		assert.True(t, shared.HasCode(err, shared.CodeInvalidState))
	})

	t.Run("rejects non-decision targets", func(t *testing.T) {
		c := newSubmitted(t, 10)
		_, err := c.Review(StatusResubmitted, "x")
		assert.True(t, shared.HasCode(err, shared.CodeValidation))
		_, err = c.Review(StatusSubmitted, "x")
		assert.True(t, shared.HasCode(err, shared.CodeValidation))
	})
}

func TestClaim_Resubmit(t *testing.T) {
	t.Run("only from revision", func(t *testing.T) {
		submitted := newSubmitted(t, 10)
		err := submitted.Resubmit(submitted.StudentID, testDetails())
		assert.True(t, shared.HasCode(err, shared.CodeInvalidState))

		approved := newSubmitted(t, 10)
		_, _ = approved.Review(StatusApproved, "")
		err = approved.Resubmit(approved.StudentID, testDetails())
		assert.True(t, shared.HasCode(err, shared.CodeInvalidState))

		rejected := newSubmitted(t, 10)
		_, _ = rejected.Review(StatusRejected, "no")
		err = rejected.Resubmit(rejected.StudentID, testDetails())
		assert.True(t, shared.HasCode(err, shared.CodeInvalidState))
	})

	t.Run("only by owner", func(t *testing.T) {
		c := newSubmitted(t, 10)
		_, _ = c.Review(StatusRevision, "fix")

		err := c.Resubmit(uuid.New(), testDetails())
		assert.True(t, shared.HasCode(err, shared.CodeForbidden))
		assert.Equal(t, StatusRevision, c.Status)
	})

	t.Run("clears note and updates details", func(t *testing.T) {
		c := newSubmitted(t, 10)
		_, _ = c.Review(StatusRevision, "wrong venue")

		d := testDetails()
		d.Venue = "Gedung B"
		require.NoError(t, c.Resubmit(c.StudentID, d))

		assert.Equal(t, StatusResubmitted, c.Status)
		assert.Nil(t, c.Note)
		assert.Equal(t, "Gedung B", c.Details.Venue)
		assert.Equal(t, 10, c.Points)
	})
}

func TestClaim_RevisionScenario(t *testing.T) {
	c := newSubmitted(t, 10)

	credit, err := c.Review(StatusRevision, "incomplete")
	require.NoError(t, err)
	assert.Zero(t, credit)

	require.NoError(t, c.Resubmit(c.StudentID, testDetails()))
	assert.Equal(t, StatusResubmitted, c.Status)
	assert.Nil(t, c.Note)

	credit, err = c.Review(StatusApproved, "")
	require.NoError(t, err)
	assert.Equal(t, 10, credit)
	assert.Nil(t, c.Note)
}

func TestClaim_ReplaceEvidence(t *testing.T) {
	c := newSubmitted(t, 10)

	prev, err := c.ReplaceEvidence("evidence/new.png")
	require.NoError(t, err)
	assert.Equal(t, "evidence/abc.pdf", prev)
	assert.Equal(t, "evidence/new.png", c.EvidenceFileID)

	_, err = c.ReplaceEvidence("")
	assert.Error(t, err)
}

func TestNewImportedClaim(t *testing.T) {
	t.Run("accepts decision states", func(t *testing.T) {
		for _, s := range []Status{StatusApproved, StatusRejected, StatusRevision} {
			c, err := NewImportedClaim(uuid.New(), uuid.New(), Details{ExecutedOn: time.Now()}, 5, "", s)
			require.NoError(t, err)
			assert.Equal(t, s, c.Status)
		}
	})

	t.Run("refuses review-pending states", func(t *testing.T) {
		_, err := NewImportedClaim(uuid.New(), uuid.New(), Details{ExecutedOn: time.Now()}, 5, "", StatusSubmitted)
		assert.Error(t, err)
	})

	t.Run("requires execution date", func(t *testing.T) {
		_, err := NewImportedClaim(uuid.New(), uuid.New(), Details{}, 5, "", StatusApproved)
		assert.Error(t, err)
	})
}

func TestDuplicateKey(t *testing.T) {
	sid, aid := uuid.New(), uuid.New()
	a := NewDuplicateKey(sid, aid, time.Date(2023, 6, 22, 8, 0, 0, 0, time.UTC))
	b := NewDuplicateKey(sid, aid, time.Date(2023, 6, 22, 0, 0, 0, 0, time.UTC))

	assert.Equal(t, a, b)
	assert.Equal(t, "2023-06-22", a.ExecutedOn)
}

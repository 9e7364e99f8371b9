package claim

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/poinmhs/backend/internal/domain/shared"
)

// DateLayout is the calendar-date format used for claim dates and duplicate keys
const DateLayout = "2006-01-02"

// Details are the student-editable descriptive fields of a claim
type Details struct {
	Period      string    // periode_pengajuan
	SubmittedOn time.Time // tanggal_pengajuan
	Description string    // rincian_acara
	Level       string    // tingkat
	Venue       string    // tempat
	ExecutedOn  time.Time // tanggal_pelaksanaan
	Mentor      string
	Speaker     string // narasumber
}

// Validate checks that every mandatory descriptive field is present
func (d Details) Validate() error {
	var missing []string
	if strings.TrimSpace(d.Period) == "" {
		missing = append(missing, "periode_pengajuan")
	}
	if d.SubmittedOn.IsZero() {
		missing = append(missing, "tanggal_pengajuan")
	}
	if strings.TrimSpace(d.Description) == "" {
		missing = append(missing, "rincian_acara")
	}
	if strings.TrimSpace(d.Level) == "" {
		missing = append(missing, "tingkat")
	}
	if strings.TrimSpace(d.Venue) == "" {
		missing = append(missing, "tempat")
	}
	if d.ExecutedOn.IsZero() {
		missing = append(missing, "tanggal_pelaksanaan")
	}
	if len(missing) > 0 {
		return shared.NewValidationError("required fields missing: %s", strings.Join(missing, ", "))
	}
	return nil
}

func (d Details) normalized() Details {
	d.Period = strings.TrimSpace(d.Period)
	d.Description = strings.TrimSpace(d.Description)
	d.Level = strings.TrimSpace(d.Level)
	d.Venue = strings.TrimSpace(d.Venue)
	d.Mentor = strings.TrimSpace(d.Mentor)
	d.Speaker = strings.TrimSpace(d.Speaker)
	d.SubmittedOn = truncateDate(d.SubmittedOn)
	d.ExecutedOn = truncateDate(d.ExecutedOn)
	return d
}

// DuplicateKey identifies claims for the same activity on the same day
type DuplicateKey struct {
	StudentID      uuid.UUID
	ActivityTypeID uuid.UUID
	ExecutedOn     string
}

// NewDuplicateKey builds the key from its parts
func NewDuplicateKey(studentID, activityTypeID uuid.UUID, executedOn time.Time) DuplicateKey {
	return DuplicateKey{
		StudentID:      studentID,
		ActivityTypeID: activityTypeID,
		ExecutedOn:     truncateDate(executedOn).Format(DateLayout),
	}
}

// Claim is the aggregate root for a klaim kegiatan. Points is a snapshot of
// the activity weight at creation time and never changes afterwards.
type Claim struct {
	shared.BaseAggregateRoot
	StudentID      uuid.UUID
	ActivityTypeID uuid.UUID
	Details        Details
	EvidenceFileID string
	Points         int
	Status         Status
	Note           *string
}

// NewClaim creates a student submission in the Submitted state
func NewClaim(studentID, activityTypeID uuid.UUID, details Details, points int, evidenceFileID string) (*Claim, error) {
	if err := validateRefs(studentID, activityTypeID, points); err != nil {
		return nil, err
	}
	if err := details.Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(evidenceFileID) == "" {
		return nil, shared.NewValidationError("bukti_kegiatan file is required")
	}

	c := &Claim{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		StudentID:         studentID,
		ActivityTypeID:    activityTypeID,
		Details:           details.normalized(),
		EvidenceFileID:    evidenceFileID,
		Points:            points,
		Status:            StatusSubmitted,
	}
	c.AddDomainEvent(NewClaimSubmittedEvent(c))
	return c, nil
}

// NewImportedClaim materializes a historical claim in the given start state.
// Evidence is optional because imported rows carry only an external reference.
func NewImportedClaim(studentID, activityTypeID uuid.UUID, details Details, points int, evidenceFileID string, status Status) (*Claim, error) {
	if err := validateRefs(studentID, activityTypeID, points); err != nil {
		return nil, err
	}
	if details.ExecutedOn.IsZero() {
		return nil, shared.NewValidationError("tanggal_pelaksanaan is required")
	}
	if status != StatusApproved && status != StatusRejected && status != StatusRevision {
		return nil, shared.NewValidationError("imported status must be approved, rejected or revision, got %q", status)
	}

	c := &Claim{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		StudentID:         studentID,
		ActivityTypeID:    activityTypeID,
		Details:           details.normalized(),
		EvidenceFileID:    strings.TrimSpace(evidenceFileID),
		Points:            points,
		Status:            status,
	}
	c.AddDomainEvent(NewClaimImportedEvent(c))
	return c, nil
}

// IsOwnedBy reports whether the claim belongs to the given student
func (c *Claim) IsOwnedBy(studentID uuid.UUID) bool {
	return studentID != uuid.Nil && c.StudentID == studentID
}

// Resubmit applies the owner's corrections to a claim sent back for revision
func (c *Claim) Resubmit(actorStudentID uuid.UUID, details Details) error {
	if !c.IsOwnedBy(actorStudentID) {
		return shared.NewForbiddenError("only the owning student can update this claim")
	}
	if !c.Status.CanResubmit() {
		return shared.NewInvalidStateError("only claims in revision can be updated, current status is %s", c.Status.Label())
	}
	if err := details.Validate(); err != nil {
		return err
	}

	c.Details = details.normalized()
	c.Note = nil
	c.Status = StatusResubmitted
	c.Touch()
	c.AddDomainEvent(NewClaimResubmittedEvent(c))
	return nil
}

// ReplaceEvidence points the claim at a new evidence file and returns the
// previous id so the caller can remove it from the blob store.
func (c *Claim) ReplaceEvidence(fileID string) (string, error) {
	if strings.TrimSpace(fileID) == "" {
		return "", shared.NewValidationError("evidence file id cannot be empty")
	}
	previous := c.EvidenceFileID
	c.EvidenceFileID = fileID
	c.Touch()
	return previous, nil
}

// Review applies an admin decision. It returns the points to credit to the
// owning student, which is non-zero only for a transition into Approved.
func (c *Claim) Review(target Status, note string) (int, error) {
	if !c.Status.CanReview() {
		if c.Status.IsTerminal() {
			return 0, shared.NewInvalidStateError("claim is already final (%s)", c.Status.Label())
		}
		return 0, shared.NewInvalidStateError("claim in status %s cannot be reviewed", c.Status.Label())
	}
	if !target.IsReviewTarget() {
		return 0, shared.NewValidationError("review status must be approved, rejected or revision")
	}

	note = strings.TrimSpace(note)
	if target.RequiresNote() && note == "" {
		return 0, shared.NewValidationError("catatan is required when the status is %s", target.Label())
	}

	from := c.Status
	c.Status = target
	if target == StatusApproved {
		c.Note = nil
	} else {
		c.Note = &note
	}
	c.Touch()
	c.AddDomainEvent(NewClaimReviewedEvent(c, from))

	if target == StatusApproved {
		return c.Points, nil
	}
	return 0, nil
}

// IsTerminal reports whether the claim is in a final state
func (c *Claim) IsTerminal() bool {
	return c.Status.IsTerminal()
}

// DuplicateKey returns the claim's (student, activity, execution date) key
func (c *Claim) DuplicateKey() DuplicateKey {
	return NewDuplicateKey(c.StudentID, c.ActivityTypeID, c.Details.ExecutedOn)
}

// NoteText returns the catatan or an empty string
func (c *Claim) NoteText() string {
	if c.Note == nil {
		return ""
	}
	return *c.Note
}

func validateRefs(studentID, activityTypeID uuid.UUID, points int) error {
	if studentID == uuid.Nil {
		return shared.NewValidationError("student reference is required")
	}
	if activityTypeID == uuid.Nil {
		return shared.NewValidationError("activity type reference is required")
	}
	if points < 0 {
		return shared.NewValidationError("poin cannot be negative")
	}
	return nil
}

func truncateDate(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

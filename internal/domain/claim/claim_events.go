package claim

import (
	"github.com/google/uuid"
	"github.com/poinmhs/backend/internal/domain/shared"
)

// AggregateTypeClaim is the aggregate type used on claim events
const AggregateTypeClaim = "Claim"

// Event type constants
const (
	EventTypeClaimSubmitted   = "ClaimSubmitted"
	EventTypeClaimResubmitted = "ClaimResubmitted"
	EventTypeClaimReviewed    = "ClaimReviewed"
	EventTypeClaimImported    = "ClaimImported"
)

// ClaimSubmittedEvent is published when a student files a claim
type ClaimSubmittedEvent struct {
	shared.BaseDomainEvent
	ClaimID        uuid.UUID `json:"claim_id"`
	StudentID      uuid.UUID `json:"student_id"`
	ActivityTypeID uuid.UUID `json:"activity_type_id"`
	Points         int       `json:"points"`
}

// NewClaimSubmittedEvent creates a new ClaimSubmittedEvent
func NewClaimSubmittedEvent(c *Claim) *ClaimSubmittedEvent {
	return &ClaimSubmittedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeClaimSubmitted, AggregateTypeClaim, c.ID),
		ClaimID:         c.ID,
		StudentID:       c.StudentID,
		ActivityTypeID:  c.ActivityTypeID,
		Points:          c.Points,
	}
}

// ClaimResubmittedEvent is published when a revised claim is sent back
type ClaimResubmittedEvent struct {
	shared.BaseDomainEvent
	ClaimID   uuid.UUID `json:"claim_id"`
	StudentID uuid.UUID `json:"student_id"`
}

// NewClaimResubmittedEvent creates a new ClaimResubmittedEvent
func NewClaimResubmittedEvent(c *Claim) *ClaimResubmittedEvent {
	return &ClaimResubmittedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeClaimResubmitted, AggregateTypeClaim, c.ID),
		ClaimID:         c.ID,
		StudentID:       c.StudentID,
	}
}

// ClaimReviewedEvent is published when an admin decides on a claim
type ClaimReviewedEvent struct {
	shared.BaseDomainEvent
	ClaimID    uuid.UUID `json:"claim_id"`
	StudentID  uuid.UUID `json:"student_id"`
	FromStatus Status    `json:"from_status"`
	ToStatus   Status    `json:"to_status"`
	Points     int       `json:"points"`
	Note       string    `json:"note,omitempty"`
}

// NewClaimReviewedEvent creates a new ClaimReviewedEvent
func NewClaimReviewedEvent(c *Claim, from Status) *ClaimReviewedEvent {
	return &ClaimReviewedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeClaimReviewed, AggregateTypeClaim, c.ID),
		ClaimID:         c.ID,
		StudentID:       c.StudentID,
		FromStatus:      from,
		ToStatus:        c.Status,
		Points:          c.Points,
		Note:            c.NoteText(),
	}
}

// ClaimImportedEvent is published for every claim created by a bulk import
type ClaimImportedEvent struct {
	shared.BaseDomainEvent
	ClaimID   uuid.UUID `json:"claim_id"`
	StudentID uuid.UUID `json:"student_id"`
	Status    Status    `json:"status"`
	Points    int       `json:"points"`
}

// NewClaimImportedEvent creates a new ClaimImportedEvent
func NewClaimImportedEvent(c *Claim) *ClaimImportedEvent {
	return &ClaimImportedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeClaimImported, AggregateTypeClaim, c.ID),
		ClaimID:         c.ID,
		StudentID:       c.StudentID,
		Status:          c.Status,
		Points:          c.Points,
	}
}

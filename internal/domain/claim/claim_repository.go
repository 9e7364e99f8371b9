package claim

import (
	"context"

	"github.com/google/uuid"
	"github.com/poinmhs/backend/internal/domain/shared"
)

// ClaimRepository defines the interface for claim persistence
type ClaimRepository interface {
	// FindByID finds a claim by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Claim, error)

	// FindAll lists claims, newest first. Filters: "student_id", "status".
	FindAll(ctx context.Context, filter shared.Filter) ([]Claim, error)

	// Count counts claims matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// FindApprovedByStudent returns the approved claims of a student
	FindApprovedByStudent(ctx context.Context, studentID uuid.UUID) ([]Claim, error)

	// ExistsByDuplicateKey checks for a claim on the same activity and day
	ExistsByDuplicateKey(ctx context.Context, key DuplicateKey) (bool, error)

	// CountByActivityType counts claims referencing an activity type
	CountByActivityType(ctx context.Context, activityTypeID uuid.UUID) (int64, error)

	// SumApprovedPoints sums the points of a student's approved claims
	SumApprovedPoints(ctx context.Context, studentID uuid.UUID) (int, error)

	// EvidenceFileIDsByStudent lists evidence ids of a student's claims
	EvidenceFileIDsByStudent(ctx context.Context, studentID uuid.UUID) ([]string, error)

	// Create inserts a new claim
	Create(ctx context.Context, c *Claim) error

	// UpdateIfStatus writes c's descriptive fields, evidence, status and note
	// only if the stored status is still from. The points snapshot is kept.
	// Returns NotFound when the claim is gone and InvalidState when it moved on.
	UpdateIfStatus(ctx context.Context, c *Claim, from Status) error

	// TransitionStatus writes c's status and note only if the stored status
	// is still from. Returns an InvalidState error when another writer won.
	TransitionStatus(ctx context.Context, c *Claim, from Status) error

	// DeleteIfStatus deletes a claim only if its stored status is still
	// status. Returns NotFound or InvalidState like UpdateIfStatus.
	DeleteIfStatus(ctx context.Context, id uuid.UUID, status Status) error

	// DeleteByStudent deletes every claim of a student
	DeleteByStudent(ctx context.Context, studentID uuid.UUID) error
}

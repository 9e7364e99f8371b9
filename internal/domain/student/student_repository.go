package student

import (
	"context"

	"github.com/google/uuid"
	"github.com/poinmhs/backend/internal/domain/shared"
)

// StudentRepository defines the interface for student persistence
type StudentRepository interface {
	// FindByID finds a student by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Student, error)

	// FindByIDs loads the students with the given ids; unknown ids are skipped
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Student, error)

	// FindByNIM finds a student by external identifier
	FindByNIM(ctx context.Context, nim string) (*Student, error)

	// FindAll lists students ranked by total points, then order index
	FindAll(ctx context.Context, filter shared.Filter) ([]Student, error)

	// Count counts students matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// ExistsByNIM checks if a student with the given NIM exists
	ExistsByNIM(ctx context.Context, nim string) (bool, error)

	// Save creates or updates a student. TotalPoin is not written on update.
	Save(ctx context.Context, s *Student) error

	// AddPoints atomically increments total_poin and returns the new total
	AddPoints(ctx context.Context, id uuid.UUID, points int) (int, error)

	// Delete deletes a student
	Delete(ctx context.Context, id uuid.UUID) error
}

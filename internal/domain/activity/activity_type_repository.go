package activity

import (
	"context"

	"github.com/google/uuid"
	"github.com/poinmhs/backend/internal/domain/shared"
)

// ActivityTypeRepository defines the interface for master poin persistence
type ActivityTypeRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*ActivityType, error)
	FindByCode(ctx context.Context, code string) (*ActivityType, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]ActivityType, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]ActivityType, error)
	Count(ctx context.Context, filter shared.Filter) (int64, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
	Save(ctx context.Context, a *ActivityType) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Package activity implements the master poin catalog use cases
package activity

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/poinmhs/backend/internal/application/access"
	"github.com/poinmhs/backend/internal/domain/activity"
	"github.com/poinmhs/backend/internal/domain/claim"
	"github.com/poinmhs/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ActivityTypeService handles master poin operations
type ActivityTypeService struct {
	types  activity.ActivityTypeRepository
	claims claim.ClaimRepository
	logger *zap.Logger
}

// NewActivityTypeService creates a new ActivityTypeService
func NewActivityTypeService(
	types activity.ActivityTypeRepository,
	claims claim.ClaimRepository,
	logger *zap.Logger,
) *ActivityTypeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActivityTypeService{
		types:  types,
		claims: claims,
		logger: logger,
	}
}

// Create adds a catalog entry
func (s *ActivityTypeService) Create(ctx context.Context, p *access.Principal, req CreateActivityTypeRequest) (*ActivityTypeResponse, error) {
	if err := access.RequireAdmin(p); err != nil {
		return nil, err
	}
	if req.Weight == nil {
		return nil, shared.NewValidationError("bobot_poin is required")
	}

	at, err := activity.NewActivityType(req.Code, req.Category, req.Position, *req.Weight)
	if err != nil {
		return nil, err
	}
	if err := s.ensureCodeFree(ctx, at.Code, uuid.Nil); err != nil {
		return nil, err
	}
	if err := s.types.Save(ctx, at); err != nil {
		return nil, err
	}

	s.logger.Info("Activity type created",
		zap.String("activity_type_id", at.ID.String()),
		zap.String("kode_keg", at.Code),
		zap.Int("bobot_poin", at.Weight))
	resp := ToActivityTypeResponse(at)
	return &resp, nil
}

// GetByID returns one catalog entry
func (s *ActivityTypeService) GetByID(ctx context.Context, p *access.Principal, id uuid.UUID) (*ActivityTypeResponse, error) {
	if err := access.RequireAuthenticated(p); err != nil {
		return nil, err
	}
	at, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToActivityTypeResponse(at)
	return &resp, nil
}

// List returns the catalog ordered by code
func (s *ActivityTypeService) List(ctx context.Context, p *access.Principal, f ActivityTypeListFilter) ([]ActivityTypeResponse, int64, error) {
	if err := access.RequireAuthenticated(p); err != nil {
		return nil, 0, err
	}

	filter := shared.DefaultFilter()
	filter.OrderBy = "kode_keg"
	filter.OrderDir = "asc"
	filter.Search = f.Search
	if f.Page > 0 {
		filter.Page = f.Page
	}
	if f.PageSize > 0 {
		filter.PageSize = min(f.PageSize, 100)
	}

	types, err := s.types.FindAll(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.types.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	out := make([]ActivityTypeResponse, len(types))
	for i := range types {
		out[i] = ToActivityTypeResponse(&types[i])
	}
	return out, total, nil
}

// Update edits a catalog entry. Existing claims keep the points they were
// created with.
func (s *ActivityTypeService) Update(ctx context.Context, p *access.Principal, id uuid.UUID, req UpdateActivityTypeRequest) (*ActivityTypeResponse, error) {
	if err := access.RequireAdmin(p); err != nil {
		return nil, err
	}
	at, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Code != nil && activity.NormalizeCode(*req.Code) != at.Code {
		if err := at.ChangeCode(*req.Code); err != nil {
			return nil, err
		}
		if err := s.ensureCodeFree(ctx, at.Code, at.ID); err != nil {
			return nil, err
		}
	}

	category, position, weight := at.Category, at.Position, at.Weight
	if req.Category != nil {
		category = *req.Category
	}
	if req.Position != nil {
		position = *req.Position
	}
	if req.Weight != nil {
		weight = *req.Weight
	}
	if err := at.Update(category, position, weight); err != nil {
		return nil, err
	}
	if err := s.types.Save(ctx, at); err != nil {
		return nil, err
	}

	s.logger.Info("Activity type updated",
		zap.String("activity_type_id", at.ID.String()),
		zap.String("kode_keg", at.Code),
		zap.Int("bobot_poin", at.Weight))
	resp := ToActivityTypeResponse(at)
	return &resp, nil
}

// Delete removes a catalog entry that no claim references
func (s *ActivityTypeService) Delete(ctx context.Context, p *access.Principal, id uuid.UUID) error {
	if err := access.RequireAdmin(p); err != nil {
		return err
	}
	at, err := s.find(ctx, id)
	if err != nil {
		return err
	}

	used, err := s.claims.CountByActivityType(ctx, id)
	if err != nil {
		return err
	}
	if used > 0 {
		return shared.NewInvalidStateError("activity type %s is used by %d claim(s)", at.Code, used)
	}
	if err := s.types.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("Activity type deleted",
		zap.String("activity_type_id", id.String()),
		zap.String("kode_keg", at.Code))
	return nil
}

func (s *ActivityTypeService) find(ctx context.Context, id uuid.UUID) (*activity.ActivityType, error) {
	at, err := s.types.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewNotFoundError("activity type")
		}
		return nil, err
	}
	return at, nil
}

func (s *ActivityTypeService) ensureCodeFree(ctx context.Context, code string, self uuid.UUID) error {
	existing, err := s.types.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil
		}
		return err
	}
	if existing.ID != self {
		return shared.NewDomainError(shared.CodeAlreadyExist, "kode_keg "+code+" already exists")
	}
	return nil
}

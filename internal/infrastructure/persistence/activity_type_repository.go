package persistence

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/poinmhs/backend/internal/domain/activity"
	"github.com/poinmhs/backend/internal/domain/shared"
	"github.com/poinmhs/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

var activityTypeUpdateColumns = []string{"kode_keg", "jenis_kegiatan", "posisi", "bobot_poin", "updated_at"}

// GormActivityTypeRepository implements ActivityTypeRepository using GORM
type GormActivityTypeRepository struct {
	db *gorm.DB
}

// NewGormActivityTypeRepository creates a new GormActivityTypeRepository
func NewGormActivityTypeRepository(db *gorm.DB) *GormActivityTypeRepository {
	return &GormActivityTypeRepository{db: db}
}

// FindByID finds an activity type by its ID
func (r *GormActivityTypeRepository) FindByID(ctx context.Context, id uuid.UUID) (*activity.ActivityType, error) {
	var model models.ActivityTypeModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "activity type")
	}
	return model.ToDomain(), nil
}

// FindByCode finds an activity type by kode_keg
func (r *GormActivityTypeRepository) FindByCode(ctx context.Context, code string) (*activity.ActivityType, error) {
	var model models.ActivityTypeModel
	if err := r.db.WithContext(ctx).
		Where("kode_keg = ?", activity.NormalizeCode(code)).
		First(&model).Error; err != nil {
		return nil, translateError(err, "activity type")
	}
	return model.ToDomain(), nil
}

// FindByIDs loads the activity types with the given ids
func (r *GormActivityTypeRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]activity.ActivityType, error) {
	if len(ids) == 0 {
		return []activity.ActivityType{}, nil
	}
	var rows []models.ActivityTypeModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	return activityTypesToDomain(rows), nil
}

// FindAll lists activity types, by kode_keg unless the filter asks otherwise
func (r *GormActivityTypeRepository) FindAll(ctx context.Context, filter shared.Filter) ([]activity.ActivityType, error) {
	var rows []models.ActivityTypeModel
	orderBy := ValidateSortField(filter.OrderBy, ActivityTypeSortFields, "kode_keg")
	orderDir := "ASC"
	if filter.OrderBy != "" {
		orderDir = ValidateSortOrder(filter.OrderDir)
	}

	query := r.applySearch(r.db.WithContext(ctx).Model(&models.ActivityTypeModel{}), filter).
		Order(orderBy + " " + orderDir).
		Order("kode_keg ASC")
	if err := paginate(query, filter).Find(&rows).Error; err != nil {
		return nil, err
	}
	return activityTypesToDomain(rows), nil
}

// Count counts activity types matching the filter
func (r *GormActivityTypeRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	if err := r.applySearch(r.db.WithContext(ctx).Model(&models.ActivityTypeModel{}), filter).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ExistsByCode checks if a kode_keg is taken
func (r *GormActivityTypeRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.ActivityTypeModel{}).
		Where("kode_keg = ?", activity.NormalizeCode(code)).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save inserts or updates an activity type
func (r *GormActivityTypeRepository) Save(ctx context.Context, a *activity.ActivityType) error {
	model := models.ActivityTypeModelFromDomain(a)
	db := r.db.WithContext(ctx)

	result := db.Model(&models.ActivityTypeModel{}).
		Where("id = ?", a.ID).
		Select(activityTypeUpdateColumns).
		Updates(model)
	if result.Error != nil {
		return translateError(result.Error, "kode_keg")
	}
	if result.RowsAffected > 0 {
		return nil
	}
	return translateError(db.Create(model).Error, "kode_keg")
}

// Delete deletes an activity type
func (r *GormActivityTypeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.ActivityTypeModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *GormActivityTypeRepository) applySearch(query *gorm.DB, filter shared.Filter) *gorm.DB {
	q := strings.ToLower(strings.TrimSpace(filter.Search))
	if q == "" {
		return query
	}
	like := "%" + q + "%"
	return query.Where("LOWER(kode_keg) LIKE ? OR LOWER(jenis_kegiatan) LIKE ?", like, like)
}

func activityTypesToDomain(rows []models.ActivityTypeModel) []activity.ActivityType {
	out := make([]activity.ActivityType, 0, len(rows))
	for i := range rows {
		out = append(out, *rows[i].ToDomain())
	}
	return out
}

var _ activity.ActivityTypeRepository = (*GormActivityTypeRepository)(nil)

package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/poinmhs/backend/internal/domain/identity"
	"github.com/poinmhs/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

var userUpdateColumns = []string{
	"identifier", "name", "role", "mahasiswa_id", "password_hash",
	"last_login_at", "failed_attempts", "locked_until", "updated_at",
}

// GormUserRepository implements UserRepository using GORM
type GormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a new GormUserRepository
func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// FindByID finds a user by ID
func (r *GormUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	var model models.UserModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "user")
	}
	return model.ToDomain(), nil
}

// FindByIdentifier finds a user by NIM or NIP
func (r *GormUserRepository) FindByIdentifier(ctx context.Context, identifier string) (*identity.User, error) {
	var model models.UserModel
	if err := r.db.WithContext(ctx).
		Where("identifier = ?", identity.NormalizeIdentifier(identifier)).
		First(&model).Error; err != nil {
		return nil, translateError(err, "user")
	}
	return model.ToDomain(), nil
}

// ExistsByIdentifier checks if an identifier is registered
func (r *GormUserRepository) ExistsByIdentifier(ctx context.Context, identifier string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.UserModel{}).
		Where("identifier = ?", identity.NormalizeIdentifier(identifier)).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save inserts or updates a user
func (r *GormUserRepository) Save(ctx context.Context, u *identity.User) error {
	model := models.UserModelFromDomain(u)
	db := r.db.WithContext(ctx)

	result := db.Model(&models.UserModel{}).
		Where("id = ?", u.ID).
		Select(userUpdateColumns).
		Updates(model)
	if result.Error != nil {
		return translateError(result.Error, "identifier")
	}
	if result.RowsAffected > 0 {
		return nil
	}
	return translateError(db.Create(model).Error, "identifier")
}

// DeleteByStudent removes the credential linked to a student record
func (r *GormUserRepository) DeleteByStudent(ctx context.Context, studentID uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.UserModel{}, "mahasiswa_id = ?", studentID).Error
}

var _ identity.UserRepository = (*GormUserRepository)(nil)

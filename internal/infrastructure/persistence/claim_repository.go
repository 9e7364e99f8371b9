package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/poinmhs/backend/internal/domain/claim"
	"github.com/poinmhs/backend/internal/domain/shared"
	"github.com/poinmhs/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// claimUpdateColumns are written on update. poin is a snapshot taken on insert.
var claimUpdateColumns = []string{
	"periode_pengajuan", "tanggal_pengajuan", "rincian_acara", "tingkat",
	"tempat", "tanggal_pelaksanaan", "mentor", "narasumber", "bukti_file_id",
	"status", "catatan", "updated_at",
}

// GormClaimRepository implements ClaimRepository using GORM
type GormClaimRepository struct {
	db *gorm.DB
}

// NewGormClaimRepository creates a new GormClaimRepository
func NewGormClaimRepository(db *gorm.DB) *GormClaimRepository {
	return &GormClaimRepository{db: db}
}

// FindByID finds a claim by its ID
func (r *GormClaimRepository) FindByID(ctx context.Context, id uuid.UUID) (*claim.Claim, error) {
	var model models.ClaimModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "claim")
	}
	return model.ToDomain(), nil
}

// FindAll lists claims, newest first unless the filter asks otherwise
func (r *GormClaimRepository) FindAll(ctx context.Context, filter shared.Filter) ([]claim.Claim, error) {
	var rows []models.ClaimModel
	orderBy := ValidateSortField(filter.OrderBy, ClaimSortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)

	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.ClaimModel{}), filter).
		Order(orderBy + " " + orderDir).
		Order("id ASC")
	if err := paginate(query, filter).Find(&rows).Error; err != nil {
		return nil, err
	}
	return claimsToDomain(rows), nil
}

// Count counts claims matching the filter
func (r *GormClaimRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	if err := r.applyFilter(r.db.WithContext(ctx).Model(&models.ClaimModel{}), filter).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindApprovedByStudent returns the approved claims of a student
func (r *GormClaimRepository) FindApprovedByStudent(ctx context.Context, studentID uuid.UUID) ([]claim.Claim, error) {
	var rows []models.ClaimModel
	if err := r.db.WithContext(ctx).
		Where("mahasiswa_id = ? AND status = ?", studentID, claim.StatusApproved).
		Order("tanggal_pelaksanaan DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return claimsToDomain(rows), nil
}

// ExistsByDuplicateKey checks for a claim on the same activity and day
func (r *GormClaimRepository) ExistsByDuplicateKey(ctx context.Context, key claim.DuplicateKey) (bool, error) {
	day, err := time.Parse(claim.DateLayout, key.ExecutedOn)
	if err != nil {
		return false, shared.NewValidationError("invalid execution date %q", key.ExecutedOn)
	}
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.ClaimModel{}).
		Where("mahasiswa_id = ? AND master_poin_id = ? AND tanggal_pelaksanaan = ?",
			key.StudentID, key.ActivityTypeID, day).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountByActivityType counts claims referencing an activity type
func (r *GormClaimRepository) CountByActivityType(ctx context.Context, activityTypeID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.ClaimModel{}).
		Where("master_poin_id = ?", activityTypeID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// SumApprovedPoints sums the points of a student's approved claims
func (r *GormClaimRepository) SumApprovedPoints(ctx context.Context, studentID uuid.UUID) (int, error) {
	var sums []int
	if err := r.db.WithContext(ctx).Model(&models.ClaimModel{}).
		Where("mahasiswa_id = ? AND status = ?", studentID, claim.StatusApproved).
		Pluck("COALESCE(SUM(poin), 0)", &sums).Error; err != nil {
		return 0, err
	}
	if len(sums) == 0 {
		return 0, nil
	}
	return sums[0], nil
}

// EvidenceFileIDsByStudent lists evidence ids of a student's claims
func (r *GormClaimRepository) EvidenceFileIDsByStudent(ctx context.Context, studentID uuid.UUID) ([]string, error) {
	var ids []string
	if err := r.db.WithContext(ctx).Model(&models.ClaimModel{}).
		Where("mahasiswa_id = ? AND bukti_file_id <> ''", studentID).
		Order("bukti_file_id ASC").
		Pluck("bukti_file_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// Create inserts a new claim
func (r *GormClaimRepository) Create(ctx context.Context, c *claim.Claim) error {
	return translateError(r.db.WithContext(ctx).Create(models.ClaimModelFromDomain(c)).Error, "claim")
}

// UpdateIfStatus writes the descriptive columns of c while its stored status
// still equals from. The points snapshot is never rewritten.
func (r *GormClaimRepository) UpdateIfStatus(ctx context.Context, c *claim.Claim, from claim.Status) error {
	result := r.db.WithContext(ctx).Model(&models.ClaimModel{}).
		Where("id = ? AND status = ?", c.ID, from).
		Select(claimUpdateColumns).
		Updates(models.ClaimModelFromDomain(c))
	return r.checkGuardedWrite(ctx, c.ID, result)
}

// TransitionStatus is a compare-and-set on status: the row is written only
// while its stored status still equals from
func (r *GormClaimRepository) TransitionStatus(ctx context.Context, c *claim.Claim, from claim.Status) error {
	result := r.db.WithContext(ctx).Model(&models.ClaimModel{}).
		Where("id = ? AND status = ?", c.ID, from).
		UpdateColumns(map[string]any{
			"status":     c.Status,
			"catatan":    c.Note,
			"updated_at": c.UpdatedAt,
		})
	return r.checkGuardedWrite(ctx, c.ID, result)
}

// checkGuardedWrite tells a lost status race apart from a deleted row
func (r *GormClaimRepository) checkGuardedWrite(ctx context.Context, id uuid.UUID, result *gorm.DB) error {
	if result.Error != nil {
		return translateError(result.Error, "claim")
	}
	if result.RowsAffected == 1 {
		return nil
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&models.ClaimModel{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return shared.ErrNotFound
	}
	return shared.NewInvalidStateError("claim status changed concurrently")
}

// DeleteIfStatus deletes a claim while its stored status still equals status
func (r *GormClaimRepository) DeleteIfStatus(ctx context.Context, id uuid.UUID, status claim.Status) error {
	result := r.db.WithContext(ctx).Delete(&models.ClaimModel{}, "id = ? AND status = ?", id, status)
	return r.checkGuardedWrite(ctx, id, result)
}

// DeleteByStudent deletes every claim of a student
func (r *GormClaimRepository) DeleteByStudent(ctx context.Context, studentID uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.ClaimModel{}, "mahasiswa_id = ?", studentID).Error
}

func (r *GormClaimRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if sid, ok := filter.Filters["student_id"].(uuid.UUID); ok {
		query = query.Where("mahasiswa_id = ?", sid)
	}
	if st, ok := filter.Filters["status"].(claim.Status); ok && st != "" {
		query = query.Where("status = ?", st)
	}
	return query
}

func claimsToDomain(rows []models.ClaimModel) []claim.Claim {
	out := make([]claim.Claim, 0, len(rows))
	for i := range rows {
		out = append(out, *rows[i].ToDomain())
	}
	return out
}

var _ claim.ClaimRepository = (*GormClaimRepository)(nil)

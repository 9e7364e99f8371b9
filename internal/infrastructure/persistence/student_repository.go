package persistence

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/poinmhs/backend/internal/domain/shared"
	"github.com/poinmhs/backend/internal/domain/student"
	"github.com/poinmhs/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// studentUpdateColumns are written on update. total_poin is owned by AddPoints.
var studentUpdateColumns = []string{
	"nim", "nama_mhs", "prodi", "angkatan", "tempat_lahir", "tgl_lahir",
	"jenis_kelamin", "pekerjaan", "alamat", "asal_sekolah", "thn_lulus",
	"tlp_saya", "tlp_rumah", "email", "target_poin", "foto_file_id",
	"order_index", "updated_at",
}

// GormStudentRepository implements StudentRepository using GORM
type GormStudentRepository struct {
	db *gorm.DB
}

// NewGormStudentRepository creates a new GormStudentRepository
func NewGormStudentRepository(db *gorm.DB) *GormStudentRepository {
	return &GormStudentRepository{db: db}
}

// FindByID finds a student by its ID
func (r *GormStudentRepository) FindByID(ctx context.Context, id uuid.UUID) (*student.Student, error) {
	var model models.StudentModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "student")
	}
	return model.ToDomain(), nil
}

// FindByIDs loads the students with the given ids
func (r *GormStudentRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]student.Student, error) {
	if len(ids) == 0 {
		return []student.Student{}, nil
	}
	var rows []models.StudentModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	return studentsToDomain(rows), nil
}

// FindByNIM finds a student by NIM
func (r *GormStudentRepository) FindByNIM(ctx context.Context, nim string) (*student.Student, error) {
	var model models.StudentModel
	if err := r.db.WithContext(ctx).
		Where("nim = ?", student.NormalizeNIM(nim)).
		First(&model).Error; err != nil {
		return nil, translateError(err, "student")
	}
	return model.ToDomain(), nil
}

// FindAll lists students ranked by total points, then order index
func (r *GormStudentRepository) FindAll(ctx context.Context, filter shared.Filter) ([]student.Student, error) {
	var rows []models.StudentModel
	query := r.applySearch(r.db.WithContext(ctx).Model(&models.StudentModel{}), filter).
		Order("total_poin DESC").
		Order("order_index ASC").
		Order("nim ASC")
	if err := paginate(query, filter).Find(&rows).Error; err != nil {
		return nil, err
	}
	return studentsToDomain(rows), nil
}

// Count counts students matching the filter
func (r *GormStudentRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	if err := r.applySearch(r.db.WithContext(ctx).Model(&models.StudentModel{}), filter).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ExistsByNIM checks if a student with the given NIM exists
func (r *GormStudentRepository) ExistsByNIM(ctx context.Context, nim string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.StudentModel{}).
		Where("nim = ?", student.NormalizeNIM(nim)).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save inserts a new student or updates the profile columns of an existing
// one. total_poin is never written here.
func (r *GormStudentRepository) Save(ctx context.Context, s *student.Student) error {
	model := models.StudentModelFromDomain(s)
	db := r.db.WithContext(ctx)

	result := db.Model(&models.StudentModel{}).
		Where("id = ?", s.ID).
		Select(studentUpdateColumns).
		Updates(model)
	if result.Error != nil {
		return translateError(result.Error, "student")
	}
	if result.RowsAffected > 0 {
		return nil
	}
	return translateError(db.Create(model).Error, "student")
}

// AddPoints increments total_poin in place and returns the new total
func (r *GormStudentRepository) AddPoints(ctx context.Context, id uuid.UUID, points int) (int, error) {
	db := r.db.WithContext(ctx)
	result := db.Model(&models.StudentModel{}).
		Where("id = ?", id).
		UpdateColumns(map[string]any{
			"total_poin": gorm.Expr("total_poin + ?", points),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		return 0, shared.ErrNotFound
	}

	var totals []int
	if err := db.Model(&models.StudentModel{}).
		Where("id = ?", id).
		Pluck("total_poin", &totals).Error; err != nil {
		return 0, err
	}
	if len(totals) == 0 {
		return 0, shared.ErrNotFound
	}
	return totals[0], nil
}

// Delete deletes a student
func (r *GormStudentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.StudentModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *GormStudentRepository) applySearch(query *gorm.DB, filter shared.Filter) *gorm.DB {
	q := strings.ToLower(strings.TrimSpace(filter.Search))
	if q == "" {
		return query
	}
	like := "%" + q + "%"
	return query.Where("LOWER(nim) LIKE ? OR LOWER(nama_mhs) LIKE ?", like, like)
}

func studentsToDomain(rows []models.StudentModel) []student.Student {
	out := make([]student.Student, 0, len(rows))
	for i := range rows {
		out = append(out, *rows[i].ToDomain())
	}
	return out
}

var _ student.StudentRepository = (*GormStudentRepository)(nil)

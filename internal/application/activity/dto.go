package activity

import (
	"time"

	"github.com/google/uuid"
	"github.com/poinmhs/backend/internal/domain/activity"
)

// CreateActivityTypeRequest represents a request to add a master poin entry
type CreateActivityTypeRequest struct {
	Code     string `json:"kode_keg" binding:"required,kode_keg"`
	Category string `json:"jenis_kegiatan" binding:"required,max=200"`
	Position string `json:"posisi" binding:"max=200"`
	Weight   *int   `json:"bobot_poin" binding:"required,min=0"`
}

// UpdateActivityTypeRequest represents a request to edit a master poin entry.
// Nil fields are left unchanged.
type UpdateActivityTypeRequest struct {
	Code     *string `json:"kode_keg" binding:"omitempty,kode_keg"`
	Category *string `json:"jenis_kegiatan" binding:"omitempty,max=200"`
	Position *string `json:"posisi" binding:"omitempty,max=200"`
	Weight   *int    `json:"bobot_poin" binding:"omitempty,min=0"`
}

// ActivityTypeListFilter narrows the catalog list
type ActivityTypeListFilter struct {
	Search   string `form:"search"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ActivityTypeResponse represents a master poin entry in API responses
type ActivityTypeResponse struct {
	ID        uuid.UUID `json:"id"`
	Code      string    `json:"kode_keg"`
	Category  string    `json:"jenis_kegiatan"`
	Position  string    `json:"posisi"`
	Weight    int       `json:"bobot_poin"`
	Section   string    `json:"bagian_cv"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ToActivityTypeResponse converts the domain entity to a response
func ToActivityTypeResponse(a *activity.ActivityType) ActivityTypeResponse {
	return ActivityTypeResponse{
		ID:        a.ID,
		Code:      a.Code,
		Category:  a.Category,
		Position:  a.Position,
		Weight:    a.Weight,
		Section:   a.CVSection(),
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

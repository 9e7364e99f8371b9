package persistence

import (
	"errors"

	"github.com/poinmhs/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// translateError maps GORM errors onto domain errors. Unique violations only
// translate when the connection was opened with TranslateError.
func translateError(err error, entity string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return shared.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return shared.WrapDomainError(shared.CodeAlreadyExist, entity+" already exists", err)
	default:
		return err
	}
}

func paginate(db *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.PageSize <= 0 {
		return db
	}
	return db.Offset(filter.Offset()).Limit(filter.PageSize)
}

package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MaxPageSize caps list queries regardless of the requested page size
const MaxPageSize = 100

// translate maps GORM errors onto domain errors
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return shared.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return shared.ErrAlreadyExists
	default:
		return err
	}
}

// inTx runs fn on the context transaction, or opens one
func inTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return fn(tx.WithContext(ctx))
	}
	return db.WithContext(ctx).Transaction(fn)
}

// page applies ordering and pagination from a filter
func page(q *gorm.DB, f shared.Filter, allowed map[string]bool, defaultField string) *gorm.DB {
	field := ValidateSortField(f.OrderBy, allowed, defaultField)
	q = q.Order(field + " " + ValidateSortOrder(f.OrderDir))
	size := f.PageSize
	if size <= 0 {
		size = 20
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return q.Offset(f.Offset()).Limit(size)
}

// likePattern builds a lower-cased contains pattern for LOWER(col) LIKE ?
func likePattern(search string) string {
	return "%" + strings.ToLower(strings.TrimSpace(search)) + "%"
}

// versionedModel is a row that carries the optimistic locking version
type versionedModel interface {
	SetVersion(v int)
}

// saveVersioned writes an aggregate row with optimistic locking. The row is
// updated only while it still holds the version the aggregate was loaded
// at, and the new version is written back to root. A missing row is
// inserted at the aggregate's current version.
func saveVersioned(tx *gorm.DB, model versionedModel, root *shared.BaseAggregateRoot) error {
	loaded := root.Version
	model.SetVersion(loaded + 1)
	res := tx.Model(model).
		Omit(clause.Associations).
		Where("version = ?", loaded).
		Select("*").
		Updates(model)
	if res.Error != nil {
		model.SetVersion(loaded)
		return translate(res.Error)
	}
	if res.RowsAffected > 0 {
		root.Version = loaded + 1
		return nil
	}

	model.SetVersion(loaded)
	var count int64
	if err := tx.Model(model).Where("id = ?", root.ID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return shared.ErrConcurrencyConflict
	}
	return translate(tx.Omit(clause.Associations).Create(model).Error)
}

// replaceChildren swaps the rows owned by parentID for rows
func replaceChildren[T any](tx *gorm.DB, column string, parentID uuid.UUID, rows []T) error {
	if err := tx.Where(column+" = ?", parentID).Delete(new(T)).Error; err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	return tx.Omit(clause.Associations).Create(&rows).Error
}

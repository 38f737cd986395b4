package services

import (
	"errors"

	"github.com/localnerve/jam-build-contentdb/internal/types"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// wrapStorage converts a GORM failure into the engine's error taxonomy. Errors that
// already carry a taxonomy type pass through unchanged.
func wrapStorage(op string, collectionID, documentID uint64, err error) error {
	if err == nil {
		return nil
	}
	if types.IsSchema(err) || types.IsValidation(err) || types.IsConstraint(err) ||
		types.IsNotFound(err) || types.IsStorage(err) {
		return err
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return &types.ConstraintViolation{CollectionID: collectionID, DocumentID: documentID, Msg: op, Err: err}
	}
	return &types.StorageError{Op: op, CollectionID: collectionID, DocumentID: documentID, Err: err}
}

// notFound maps gorm.ErrRecordNotFound to a NotFoundError and anything else to the
// storage taxonomy.
func notFound(entity string, id uint64, key string, op string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &types.NotFoundError{Entity: entity, ID: id, Key: key}
	}
	return wrapStorage(op, 0, 0, err)
}

// quiet silences GORM's logger for lookups whose misses are expected.
func quiet(db *gorm.DB) *gorm.DB {
	return db.Session(&gorm.Session{Logger: db.Logger.LogMode(logger.Silent)})
}

// documents.go
//
// A versioned, schema-driven document storage engine for the jam-build content platform
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of jam-build-contentdb.
// jam-build-contentdb is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// jam-build-contentdb is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with jam-build-contentdb.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/localnerve/jam-build-contentdb/internal/models"
	"github.com/localnerve/jam-build-contentdb/internal/records"
	"github.com/localnerve/jam-build-contentdb/internal/schema"
	"github.com/localnerve/jam-build-contentdb/internal/types"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// VersionInput is the input of CreateOrVersionDocument
type VersionInput struct {
	// DocumentID selects the document to version. Nil creates a new document.
	DocumentID   *uint64
	CollectionID uint64
	// Schema overrides the schema stored with the collection.
	Schema    *schema.Collection
	Data      map[string]any
	Path      string
	Locale    string
	Status    string
	CreatedBy *uuid.UUID
	// ExpectedVersion, when set, must equal the document's current version number.
	ExpectedVersion *uint64
}

// VersionResult identifies the version written by CreateOrVersionDocument
type VersionResult struct {
	DocumentID    uint64 `json:"document_id"`
	VersionID     uint64 `json:"version_id"`
	VersionNumber uint64 `json:"version"`
	Created       bool   `json:"created"`
	Records       int64  `json:"records"`
}

// ValidStatus reports whether s is a document lifecycle status
func ValidStatus(s string) bool {
	switch s {
	case models.StatusDraft, models.StatusPublished, models.StatusArchived:
		return true
	}
	return false
}

// CreateOrVersionDocument creates a document, or loads an existing one, and writes a
// new current version holding the flattened data. All writes happen in one
// transaction; the document row is locked so concurrent versioning of the same
// document serializes and version numbers never collide.
func CreateOrVersionDocument(ctx context.Context, db *gorm.DB, in VersionInput) (*VersionResult, error) {
	if in.Status == "" {
		in.Status = models.StatusDraft
	}
	if !ValidStatus(in.Status) {
		return nil, types.ValidationErrorf("status", "unknown status %q", in.Status)
	}
	in.Path = strings.TrimSpace(in.Path)
	if in.Path == "" && in.DocumentID == nil {
		return nil, types.ValidationErrorf("path", "document path is required")
	}
	if in.Locale == "" {
		in.Locale = schema.DefaultLocale
	}

	var result VersionResult
	var documentID uint64
	if in.DocumentID != nil {
		documentID = *in.DocumentID
	}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		collection, sc, err := loadCollectionForWrite(tx, in)
		if err != nil {
			return err
		}
		if err := records.Validate(sc, in.Data); err != nil {
			return err
		}
		if in.Locale != schema.AllLocales && !sc.HasLocale(in.Locale) {
			return types.ValidationErrorf("locale", "locale %q is not supported", in.Locale)
		}

		recs := records.Flatten(sc, in.Data)
		rows, err := buildRows(collection.CollectionID, recs, collectionResolver(tx))
		if err != nil {
			return err
		}
		if err := checkRelations(tx, rows); err != nil {
			return err
		}

		// (a) create or load the document
		doc, created, err := documentForWrite(tx, collection.CollectionID, in)
		if err != nil {
			return err
		}
		documentID = doc.DocumentID
		if in.ExpectedVersion != nil && *in.ExpectedVersion != doc.CurrentVersion {
			return &types.ConstraintViolation{
				CollectionID: collection.CollectionID,
				DocumentID:   doc.DocumentID,
				Path:         "version",
				Msg:          fmt.Sprintf("expected version %d, current is %d", *in.ExpectedVersion, doc.CurrentVersion),
				Err:          types.ErrVersionConflict,
			}
		}

		if sc.HasUnique() {
			if err := checkUnique(tx, collection.CollectionID, doc.DocumentID, recs, rows); err != nil {
				return err
			}
		}

		// (b) next version number
		var last uint64
		if err := tx.Model(&models.DocumentVersion{}).
			Where("document_id = ?", doc.DocumentID).
			Select("COALESCE(MAX(version_number), 0)").
			Scan(&last).Error; err != nil {
			return err
		}

		// (c) insert the new current version
		version := models.DocumentVersion{
			DocumentID:    doc.DocumentID,
			CollectionID:  collection.CollectionID,
			VersionNumber: last + 1,
			IsCurrent:     true,
			Status:        in.Status,
			Locale:        in.Locale,
			CreatedBy:     in.CreatedBy,
		}
		if err := tx.Omit("Document").Create(&version).Error; err != nil {
			return err
		}

		// (d) retire the previous current version
		if err := tx.Model(&models.DocumentVersion{}).
			Where("document_id = ? AND is_current = ? AND version_id <> ?", doc.DocumentID, true, version.VersionID).
			Update("is_current", false).Error; err != nil {
			return err
		}

		updates := map[string]interface{}{
			"current_version": version.VersionNumber,
			"status":          in.Status,
			"updated_at":      time.Now(),
		}
		if in.Path != "" && in.Path != doc.Path {
			updates["path"] = in.Path
		}
		if err := tx.Model(&models.Document{}).Where("document_id = ?", doc.DocumentID).Updates(updates).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return duplicateDocument(collection.CollectionID, doc.DocumentID, in.Path, err)
			}
			return err
		}

		// (e) persist the flattened records
		rows.setVersion(version.VersionID)
		n, err := rows.insert(tx)
		if err != nil {
			return err
		}

		result = VersionResult{
			DocumentID:    doc.DocumentID,
			VersionID:     version.VersionID,
			VersionNumber: version.VersionNumber,
			Created:       created,
			Records:       n,
		}
		return nil
	})
	if err != nil {
		return nil, wrapStorage("create document version", in.CollectionID, documentID, err)
	}

	zap.L().Debug("document version created",
		zap.Uint64("collection_id", in.CollectionID),
		zap.Uint64("document_id", result.DocumentID),
		zap.Uint64("version", result.VersionNumber),
		zap.Int64("records", result.Records))

	return &result, nil
}

// loadCollectionForWrite loads the target collection and its schema. Collections with
// unique fields are locked so unique checks of concurrent writers serialize.
func loadCollectionForWrite(tx *gorm.DB, in VersionInput) (*models.Collection, *schema.Collection, error) {
	var collection models.Collection
	if err := quiet(tx).First(&collection, in.CollectionID).Error; err != nil {
		return nil, nil, notFound("collection", in.CollectionID, "", "load collection", err)
	}

	sc := in.Schema
	if sc == nil {
		var err error
		if sc, err = CollectionSchema(&collection); err != nil {
			return nil, nil, err
		}
	}

	if sc.HasUnique() {
		var locked models.Collection
		err := lockForUpdate(quiet(tx), models.Collection{}.TableName(), "collection_id", in.CollectionID).
			Select("collection_id").
			First(&locked, in.CollectionID).Error
		if err != nil {
			return nil, nil, err
		}
	}
	return &collection, sc, nil
}

// documentForWrite creates the document row or loads and locks the existing one.
func documentForWrite(tx *gorm.DB, collectionID uint64, in VersionInput) (*models.Document, bool, error) {
	if in.DocumentID == nil {
		if err := checkPathFree(tx, collectionID, 0, in.Path); err != nil {
			return nil, false, err
		}
		doc := models.Document{
			CollectionID: collectionID,
			Path:         in.Path,
			Status:       in.Status,
		}
		if err := tx.Omit("Collection").Create(&doc).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil, false, duplicateDocument(collectionID, 0, in.Path, err)
			}
			return nil, false, err
		}
		return &doc, true, nil
	}

	var doc models.Document
	err := lockForUpdate(quiet(tx), models.Document{}.TableName(), "document_id", *in.DocumentID).
		Where("collection_id = ?", collectionID).
		First(&doc, *in.DocumentID).Error
	if err != nil {
		return nil, false, notFound("document", *in.DocumentID, "", "load document", err)
	}
	if in.Path != "" && in.Path != doc.Path {
		if err := checkPathFree(tx, collectionID, doc.DocumentID, in.Path); err != nil {
			return nil, false, err
		}
	}
	return &doc, false, nil
}

func checkPathFree(tx *gorm.DB, collectionID, documentID uint64, path string) error {
	var count int64
	if err := tx.Model(&models.Document{}).
		Where("collection_id = ? AND path = ? AND document_id <> ?", collectionID, path, documentID).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return duplicateDocument(collectionID, documentID, path, nil)
	}
	return nil
}

func duplicateDocument(collectionID, documentID uint64, path string, cause error) error {
	err := types.ErrDuplicatePath
	if cause != nil {
		err = errors.Join(types.ErrDuplicatePath, cause)
	}
	return &types.ConstraintViolation{
		CollectionID: collectionID,
		DocumentID:   documentID,
		Path:         "path",
		Msg:          "document path " + path + " exists",
		Err:          err,
	}
}

// lockForUpdate locks the row keyed by id for the rest of the transaction. SQL Server
// has no FOR UPDATE clause, so the row is claimed with a no-op update instead. SQLite
// serializes writers on its own and drops the clause.
func lockForUpdate(tx *gorm.DB, table, key string, id uint64) *gorm.DB {
	if tx.Dialector.Name() == "sqlserver" {
		if err := tx.Exec("UPDATE "+table+" SET updated_at = updated_at WHERE "+key+" = ?", id).Error; err != nil {
			_ = tx.AddError(err)
		}
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// collectionResolver returns a lookup from collection path to id, memoized for
// the duration of one write.
func collectionResolver(tx *gorm.DB) relationTargets {
	cache := make(map[string]uint64)
	return func(path string) (uint64, error) {
		if id, ok := cache[path]; ok {
			return id, nil
		}
		var c models.Collection
		if err := quiet(tx).Select("collection_id").Where("path = ?", path).First(&c).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return 0, types.ValidationErrorf("relation", "target collection %q does not exist", path)
			}
			return 0, err
		}
		cache[path] = c.CollectionID
		return c.CollectionID, nil
	}
}

// checkRelations verifies that reference and embed targets exist and belong to the
// declared collection. Weak relations are not checked.
func checkRelations(tx *gorm.DB, rows *valueRows) error {
	for _, r := range rows.relation {
		if r.RelationKind == string(schema.RelationWeak) {
			continue
		}
		q := tx.Model(&models.Document{}).Where("document_id = ?", r.TargetDocumentID)
		if r.TargetCollectionID != nil {
			q = q.Where("collection_id = ?", *r.TargetCollectionID)
		}
		var count int64
		if err := q.Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return types.ValidationErrorf(r.FieldPath, "relation target document %d does not exist", r.TargetDocumentID)
		}
	}
	return nil
}

// DeleteDocument removes a document with all of its versions and value rows
func DeleteDocument(ctx context.Context, db *gorm.DB, collectionID, documentID uint64) error {
	result := db.WithContext(ctx).
		Where("collection_id = ?", collectionID).
		Delete(&models.Document{}, documentID)
	if result.Error != nil {
		return wrapStorage("delete document", collectionID, documentID, result.Error)
	}
	if result.RowsAffected == 0 {
		return &types.NotFoundError{Entity: "document", ID: documentID}
	}
	zap.L().Debug("document deleted", zap.Uint64("collection_id", collectionID), zap.Uint64("document_id", documentID))
	return nil
}

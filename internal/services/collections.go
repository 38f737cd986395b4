// collections.go
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

	"github.com/localnerve/jam-build-contentdb/internal/models"
	"github.com/localnerve/jam-build-contentdb/internal/schema"
	"github.com/localnerve/jam-build-contentdb/internal/types"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/hints"
)

// CreateCollection validates c and inserts it. A path that is already taken is a
// ConstraintViolation wrapping types.ErrDuplicatePath.
func CreateCollection(ctx context.Context, db *gorm.DB, c *schema.Collection) (*models.Collection, error) {
	if c == nil {
		return nil, types.SchemaErrorf("", "", "collection schema is required")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	stored, err := models.NewJSON(c)
	if err != nil {
		return nil, types.SchemaErrorf(c.Path, "", "encode schema: %v", err)
	}

	row := models.Collection{
		Path:           c.Path,
		Label:          c.Label,
		LabelPlural:    c.LabelPlural,
		Schema:         stored,
		DisplayColumns: datatypes.JSONSlice[string](c.DisplayColumns),
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Collection{}).Where("path = ?", c.Path).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return duplicateCollection(c.Path, nil)
		}
		if err := tx.Create(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return duplicateCollection(c.Path, err)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, wrapStorage("create collection", 0, 0, err)
	}

	zap.L().Debug("collection created", zap.Uint64("collection_id", row.CollectionID), zap.String("path", row.Path))
	return &row, nil
}

func duplicateCollection(path string, cause error) error {
	err := types.ErrDuplicatePath
	if cause != nil {
		err = errors.Join(types.ErrDuplicatePath, cause)
	}
	return &types.ConstraintViolation{Path: "path", Msg: "collection path " + path + " exists", Err: err}
}

// DeleteCollection removes a collection. Its documents, versions and value rows go
// with it through the foreign key cascade.
func DeleteCollection(ctx context.Context, db *gorm.DB, id uint64) error {
	result := db.WithContext(ctx).Delete(&models.Collection{}, id)
	if result.Error != nil {
		return wrapStorage("delete collection", id, 0, result.Error)
	}
	if result.RowsAffected == 0 {
		return &types.NotFoundError{Entity: "collection", ID: id}
	}
	zap.L().Debug("collection deleted", zap.Uint64("collection_id", id))
	return nil
}

// ListCollections returns every collection ordered by path
func ListCollections(ctx context.Context, db *gorm.DB) ([]models.Collection, error) {
	var out []models.Collection
	err := db.WithContext(ctx).
		Clauses(hints.Comment("select", "contentdb:list_collections")).
		Order("path").
		Find(&out).Error
	if err != nil {
		return nil, wrapStorage("list collections", 0, 0, err)
	}
	return out, nil
}

// GetCollectionByPath looks a collection up by its path
func GetCollectionByPath(ctx context.Context, db *gorm.DB, path string) (*models.Collection, error) {
	var c models.Collection
	if err := quiet(db.WithContext(ctx)).Where("path = ?", path).First(&c).Error; err != nil {
		return nil, notFound("collection", 0, path, "get collection", err)
	}
	return &c, nil
}

// GetCollectionByID looks a collection up by its id
func GetCollectionByID(ctx context.Context, db *gorm.DB, id uint64) (*models.Collection, error) {
	var c models.Collection
	if err := quiet(db.WithContext(ctx)).First(&c, id).Error; err != nil {
		return nil, notFound("collection", id, "", "get collection", err)
	}
	return &c, nil
}

// CollectionSchema decodes the schema stored with a collection
func CollectionSchema(c *models.Collection) (*schema.Collection, error) {
	var s schema.Collection
	if err := c.Schema.Decode(&s); err != nil {
		return nil, types.SchemaErrorf(c.Path, "", "decode stored schema: %v", err)
	}
	if s.Path == "" {
		s.Path = c.Path
	}
	return &s, nil
}

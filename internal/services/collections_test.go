package services

import (
	"errors"
	"testing"

	"github.com/localnerve/jam-build-contentdb/internal/models"
	"github.com/localnerve/jam-build-contentdb/internal/schema"
	"github.com/localnerve/jam-build-contentdb/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCollection(t *testing.T) {
	f := newFixture(t)

	assert.NotZero(t, f.pages.CollectionID)
	assert.Equal(t, "pages", f.pages.Path)

	stored, err := CollectionSchema(f.pages)
	require.NoError(t, err)
	assert.Equal(t, pagesSchema(), stored)

	byPath, err := GetCollectionByPath(f.ctx, f.db, "pages")
	require.NoError(t, err)
	assert.Equal(t, f.pages.CollectionID, byPath.CollectionID)

	byID, err := GetCollectionByID(f.ctx, f.db, f.authors.CollectionID)
	require.NoError(t, err)
	assert.Equal(t, "authors", byID.Path)

	list, err := ListCollections(f.ctx, f.db)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "authors", list[0].Path)
	assert.Equal(t, "pages", list[1].Path)
}

func TestCreateCollectionRejects(t *testing.T) {
	f := newFixture(t)

	_, err := CreateCollection(f.ctx, f.db, pagesSchema())
	require.Error(t, err)
	assert.True(t, types.IsConstraint(err))
	assert.True(t, errors.Is(err, types.ErrDuplicatePath))

	_, err = CreateCollection(f.ctx, f.db, &schema.Collection{Path: "empty"})
	assert.True(t, types.IsSchema(err))

	_, err = CreateCollection(f.ctx, f.db, nil)
	assert.True(t, types.IsSchema(err))
}

func TestGetCollectionNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := GetCollectionByPath(f.ctx, f.db, "missing")
	assert.True(t, types.IsNotFound(err))
	_, err = GetCollectionByID(f.ctx, f.db, 999)
	assert.True(t, types.IsNotFound(err))
}

func TestDeleteCollectionCascades(t *testing.T) {
	f := newFixture(t)

	f.mustPut(t, f.pages, 0, "/a", map[string]any{"slug": "a", "tags": []any{map[string]any{"tag": "x"}}})
	f.mustPut(t, f.pages, 0, "/b", map[string]any{"slug": "b", "views": 3})
	author := f.mustPut(t, f.authors, 0, "/ann", map[string]any{"name": "Ann"})

	require.NoError(t, DeleteCollection(f.ctx, f.db, f.pages.CollectionID))

	var docs int64
	require.NoError(t, f.db.Model(&models.Document{}).Where("collection_id = ?", f.pages.CollectionID).Count(&docs).Error)
	assert.Zero(t, docs)
	assert.Equal(t, int64(1), count(t, f.db, &models.DocumentVersion{}))
	assert.Equal(t, int64(1), count(t, f.db, &models.TextValue{}))
	assert.Zero(t, count(t, f.db, &models.NumericValue{}))

	// other collections are untouched
	view, err := GetDocumentByID(f.ctx, f.db, f.authors.CollectionID, author.DocumentID, "", true)
	require.NoError(t, err)
	assert.Equal(t, "Ann", view.Data["name"])

	err = DeleteCollection(f.ctx, f.db, f.pages.CollectionID)
	assert.True(t, types.IsNotFound(err))
}

package services

import (
	"context"
	"testing"

	"github.com/localnerve/jam-build-contentdb/internal/database"
	"github.com/localnerve/jam-build-contentdb/internal/models"
	"github.com/localnerve/jam-build-contentdb/internal/schema"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB opens a private in-memory SQLite database with the engine tables
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.Open(sqlite.Open(":memory:?_foreign_keys=on"), zap.NewNop(), false)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// one connection keeps the in-memory database alive and shared
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db))
	return db
}

func authorsSchema() *schema.Collection {
	return &schema.Collection{
		Path: "authors",
		Fields: []schema.Field{
			{Name: "name", Type: schema.TypeText, Required: true},
		},
	}
}

func pagesSchema() *schema.Collection {
	return &schema.Collection{
		Path:    "pages",
		Locales: []string{"fr"},
		Fields: []schema.Field{
			{Name: "title", Type: schema.TypeText, Localized: true},
			{Name: "slug", Type: schema.TypeText, Unique: true},
			{Name: "views", Type: schema.TypeInteger},
			{Name: "price", Type: schema.TypeDecimal},
			{Name: "featured", Type: schema.TypeBoolean},
			{Name: "publishedAt", Type: schema.TypeDateTime},
			{Name: "day", Type: schema.TypeDate},
			{Name: "opens", Type: schema.TypeTime},
			{Name: "hero", Type: schema.TypeFile},
			{Name: "meta", Type: schema.TypeJSON, JSONSchema: "meta-v1"},
			{Name: "author", Type: schema.TypeRelation, Relation: &schema.Relation{Collection: "authors"}},
			{Name: "related", Type: schema.TypeRelation, Relation: &schema.Relation{Kind: schema.RelationWeak}},
			{Name: "tags", Type: schema.TypeArray, Fields: []schema.Field{
				{Name: "tag", Type: schema.TypeText},
			}},
			{Name: "content", Type: schema.TypeBlock, Blocks: []schema.Block{
				{Type: "paragraph", Fields: []schema.Field{{Name: "body", Type: schema.TypeText}}},
				{Type: "photo", Fields: []schema.Field{{Name: "caption", Type: schema.TypeText}}},
			}},
		},
	}
}

type fixture struct {
	db      *gorm.DB
	ctx     context.Context
	pages   *models.Collection
	authors *models.Collection
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{db: setupTestDB(t), ctx: context.Background()}

	var err error
	f.authors, err = CreateCollection(f.ctx, f.db, authorsSchema())
	require.NoError(t, err)
	f.pages, err = CreateCollection(f.ctx, f.db, pagesSchema())
	require.NoError(t, err)
	return f
}

// put creates a document at path, or versions id when it is non-zero
func (f *fixture) put(t *testing.T, collection *models.Collection, id uint64, path string, data map[string]any) (*VersionResult, error) {
	t.Helper()
	in := VersionInput{CollectionID: collection.CollectionID, Path: path, Data: data}
	if id != 0 {
		in.DocumentID = &id
	}
	return CreateOrVersionDocument(f.ctx, f.db, in)
}

func (f *fixture) mustPut(t *testing.T, collection *models.Collection, id uint64, path string, data map[string]any) *VersionResult {
	t.Helper()
	res, err := f.put(t, collection, id, path, data)
	require.NoError(t, err)
	return res
}

func count(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

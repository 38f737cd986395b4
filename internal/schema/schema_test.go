package schema

import (
	"testing"

	"github.com/localnerve/jam-build-contentdb/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouteForEveryScalarType(t *testing.T) {
	want := map[FieldType]StoreKind{
		TypeText:     StoreText,
		TypeInteger:  StoreNumeric,
		TypeDecimal:  StoreNumeric,
		TypeBoolean:  StoreBoolean,
		TypeDateTime: StoreDateTime,
		TypeDate:     StoreDateTime,
		TypeTime:     StoreDateTime,
		TypeFile:     StoreFile,
		TypeRelation: StoreRelation,
		TypeRichText: StoreJSON,
		TypeJSON:     StoreJSON,
	}

	scalars := AllScalarTypes()
	require.Len(t, scalars, len(want))

	used := map[StoreKind]bool{}
	for _, typ := range scalars {
		store, err := RouteFor(typ)
		require.NoError(t, err, typ)
		assert.Equal(t, want[typ], store, typ)
		used[store] = true
	}

	// every store receives at least one type
	for _, store := range AllStores() {
		assert.True(t, used[store], store.String())
	}
}

func TestRouteForPresentationalTypes(t *testing.T) {
	for _, typ := range []FieldType{TypeArray, TypeGroup, TypeRow, TypeBlock, "color"} {
		_, err := RouteFor(typ)
		require.Error(t, err, typ)
		assert.True(t, types.IsSchema(err))
	}
}

func TestStoreKindString(t *testing.T) {
	assert.Equal(t, "datetime", StoreDateTime.String())
	assert.Equal(t, "unknown", StoreKind(99).String())
}

func TestKindAndRepeated(t *testing.T) {
	assert.Equal(t, KindScalar, TypeRichText.Kind())
	assert.Equal(t, KindPresentational, TypeRow.Kind())
	assert.Equal(t, KindUnknown, FieldType("nope").Kind())
	assert.True(t, TypeArray.Repeated())
	assert.True(t, TypeBlock.Repeated())
	assert.False(t, TypeGroup.Repeated())
}

func validCollection() *Collection {
	return &Collection{
		Path: "pages",
		Fields: []Field{
			{Name: "title", Type: TypeText, Localized: true, Required: true},
			{Name: "slug", Type: TypeText, Unique: true},
			{Name: "seo", Type: TypeGroup, Fields: []Field{{Name: "description", Type: TypeText}}},
			{Name: "sections", Type: TypeArray, Fields: []Field{
				{Name: "heading", Type: TypeText},
				{Name: "links", Type: TypeArray, Fields: []Field{{Name: "url", Type: TypeText}}},
			}},
			{Name: "content", Type: TypeBlock, Blocks: []Block{
				{Type: "paragraph", Fields: []Field{{Name: "body", Type: TypeRichText}}},
				{Type: "photo", Fields: []Field{{Name: "caption", Type: TypeText}}},
			}},
			{Name: "author", Type: TypeRelation, Relation: &Relation{Collection: "users", Kind: RelationReference}},
		},
	}
}

func TestValidateAcceptsNestedCollection(t *testing.T) {
	c := validCollection()
	require.NoError(t, c.Validate())
	assert.True(t, c.HasUnique())
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Collection)
	}{
		{"bad path", func(c *Collection) { c.Path = "Bad Path" }},
		{"no fields", func(c *Collection) { c.Fields = nil }},
		{"reserved locale", func(c *Collection) { c.Locales = []string{"all"} }},
		{"duplicate name", func(c *Collection) { c.Fields = append(c.Fields, Field{Name: "slug", Type: TypeText}) }},
		{"dotted name", func(c *Collection) { c.Fields[0].Name = "a.b" }},
		{"numeric name", func(c *Collection) { c.Fields[0].Name = "12" }},
		{"unknown type", func(c *Collection) { c.Fields[0].Type = "color" }},
		{"scalar with children", func(c *Collection) { c.Fields[0].Fields = []Field{{Name: "x", Type: TypeText}} }},
		{"unique json", func(c *Collection) { c.Fields[1].Type = TypeJSON }},
		{"localized group", func(c *Collection) { c.Fields[2].Localized = true }},
		{"empty group", func(c *Collection) { c.Fields[2].Fields = nil }},
		{"block without blocks", func(c *Collection) { c.Fields[4].Blocks = nil }},
		{"block named type", func(c *Collection) { c.Fields[4].Blocks[0].Type = BlockTypeKey }},
		{"duplicate block", func(c *Collection) { c.Fields[4].Blocks[1].Type = "paragraph" }},
		{"block field named type", func(c *Collection) {
			c.Fields[4].Blocks[0].Fields = append(c.Fields[4].Blocks[0].Fields, Field{Name: BlockTypeKey, Type: TypeInteger})
		}},
		{"element marker name", func(c *Collection) { c.Fields[0].Name = ElementKey }},
		{"relation options on text", func(c *Collection) { c.Fields[0].Relation = &Relation{} }},
		{"unknown relation kind", func(c *Collection) { c.Fields[5].Relation.Kind = "strong" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validCollection()
			tt.mutate(c)
			err := c.Validate()
			require.Error(t, err)
			assert.True(t, types.IsSchema(err), "got %T", err)
		})
	}
}

func TestHasLocale(t *testing.T) {
	c := validCollection()
	assert.True(t, c.HasLocale("fr"))

	c.Locales = []string{"en", "fr"}
	assert.True(t, c.HasLocale(DefaultLocale))
	assert.True(t, c.HasLocale("en"))
	assert.False(t, c.HasLocale("de"))
}

func TestParseYAMLAndJSON(t *testing.T) {
	yamlSrc := []byte(`
path: posts
fields:
  - name: title
    type: text
    localized: true
  - name: tags
    type: array
    fields:
      - name: tag
        type: text
`)
	c, err := Parse(yamlSrc)
	require.NoError(t, err)
	assert.Equal(t, "posts", c.Path)
	require.Len(t, c.Fields, 2)
	assert.True(t, c.Fields[0].Localized)

	encoded, err := c.Encode()
	require.NoError(t, err)
	again, err := Parse(encoded)
	require.NoError(t, err)
	assert.Equal(t, c, again)

	_, err = Parse([]byte(`{"path": "x", "fields": [`))
	require.Error(t, err)
	assert.True(t, types.IsSchema(err))
}

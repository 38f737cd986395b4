package records

import (
	"testing"

	"github.com/localnerve/jam-build-contentdb/internal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pagesSchema() *schema.Collection {
	return &schema.Collection{
		Path:    "pages",
		Locales: []string{"en", "es", "fr"},
		Fields: []schema.Field{
			{Name: "title", Type: schema.TypeText, Localized: true},
			{Name: "slug", Type: schema.TypeText},
			{Name: "views", Type: schema.TypeInteger},
			{Name: "seo", Type: schema.TypeGroup, Fields: []schema.Field{
				{Name: "description", Type: schema.TypeText, Localized: true},
				{Name: "meta", Type: schema.TypeRow, Fields: []schema.Field{
					{Name: "robots", Type: schema.TypeText},
				}},
			}},
			{Name: "sections", Type: schema.TypeArray, Fields: []schema.Field{
				{Name: "heading", Type: schema.TypeText},
				{Name: "links", Type: schema.TypeArray, Fields: []schema.Field{
					{Name: "label", Type: schema.TypeText},
					{Name: "url", Type: schema.TypeText},
				}},
			}},
			{Name: "content", Type: schema.TypeBlock, Blocks: []schema.Block{
				{Type: "paragraph", Fields: []schema.Field{{Name: "body", Type: schema.TypeText}}},
				{Type: "photo", Fields: []schema.Field{
					{Name: "caption", Type: schema.TypeText},
					{Name: "credit", Type: schema.TypeText},
				}},
			}},
		},
	}
}

func TestFlattenLocalizedField(t *testing.T) {
	c := &schema.Collection{
		Path:    "pages",
		Locales: []string{"en", "es"},
		Fields:  []schema.Field{{Name: "title", Type: schema.TypeText, Localized: true}},
	}
	doc := map[string]any{"title": map[string]any{"en": "Hello", "es": "Hola"}}

	recs := Flatten(c, doc)
	require.Len(t, recs, 2)
	for i, locale := range []string{"en", "es"} {
		assert.Equal(t, "title", recs[i].FieldPath)
		assert.Equal(t, schema.StoreText, recs[i].Store)
		assert.Equal(t, locale, recs[i].Locale)
		assert.Nil(t, recs[i].ArrayIndex)
		assert.Nil(t, recs[i].ParentPath)
	}
	assert.Equal(t, "Hello", recs[0].Value)
	assert.Equal(t, "Hola", recs[1].Value)

	assert.Equal(t, doc, Reconstruct(recs, c, schema.AllLocales))
}

func TestFlattenArrayOutOfOrder(t *testing.T) {
	c := &schema.Collection{
		Path: "menus",
		Fields: []schema.Field{{Name: "links", Type: schema.TypeArray, Fields: []schema.Field{
			{Name: "link", Type: schema.TypeText},
		}}},
	}
	doc := map[string]any{"links": []any{
		map[string]any{"link": "a"},
		map[string]any{"link": "b"},
	}}

	recs := Flatten(c, doc)
	require.Len(t, recs, 4)
	for i, want := range []string{"a", "b"} {
		marker, value := recs[2*i], recs[2*i+1]
		assert.Equal(t, "links.#", marker.FieldPath)
		assert.Equal(t, schema.StoreBoolean, marker.Store)
		assert.Equal(t, i, *marker.ArrayIndex)

		assert.Equal(t, "links.link", value.FieldPath)
		require.NotNil(t, value.ArrayIndex)
		assert.Equal(t, i, *value.ArrayIndex)
		require.NotNil(t, value.ParentPath)
		assert.Equal(t, "links", *value.ParentPath)
		assert.Equal(t, want, value.Value)
	}

	reversed := []Record{recs[3], recs[2], recs[1], recs[0]}
	assert.Equal(t, doc, Reconstruct(reversed, c, schema.DefaultLocale))
}

func TestRoundTripEmptyArrayElements(t *testing.T) {
	c := &schema.Collection{
		Path: "menus",
		Fields: []schema.Field{{Name: "links", Type: schema.TypeArray, Fields: []schema.Field{
			{Name: "label", Type: schema.TypeText},
			{Name: "link", Type: schema.TypeText},
		}}},
	}
	doc := map[string]any{"links": []any{
		map[string]any{},
		map[string]any{"link": "b"},
		map[string]any{"label": nil},
	}}
	require.NoError(t, Validate(c, doc))

	recs := Flatten(c, doc)
	require.Len(t, recs, 4)

	got := Reconstruct(recs, c, schema.AllLocales)
	assert.Equal(t, map[string]any{"links": []any{
		map[string]any{},
		map[string]any{"link": "b"},
		map[string]any{},
	}}, got)
	assert.Equal(t, recs, Flatten(c, got))
}

func TestRoundTripEmptyNestedArrayElements(t *testing.T) {
	c := pagesSchema()
	doc := map[string]any{"sections": []any{
		map[string]any{},
		map[string]any{"links": []any{map[string]any{}, map[string]any{"url": "/x"}}},
	}}

	recs := Flatten(c, doc)
	assert.Equal(t, doc, Reconstruct(recs, c, schema.AllLocales))
}

func TestFlattenBlocks(t *testing.T) {
	c := pagesSchema()
	doc := map[string]any{"content": []any{
		map[string]any{"type": "paragraph", "body": "Hi"},
		map[string]any{"type": "photo", "caption": "Harbor", "body": "ignored"},
	}}

	recs := Flatten(c, doc)
	paths := make([]string, len(recs))
	for i := range recs {
		paths[i] = recs[i].FieldPath
	}
	assert.Equal(t, []string{"content.type", "content.paragraph.body", "content.type", "content.photo.caption"}, paths)
	assert.Equal(t, "paragraph", recs[0].Value)
	assert.Equal(t, 0, *recs[1].ArrayIndex)
	assert.Equal(t, "photo", recs[2].Value)
	assert.Equal(t, 1, *recs[3].ArrayIndex)
	assert.Equal(t, "content", *recs[3].ParentPath)

	got := Reconstruct(recs, c, schema.DefaultLocale)
	assert.Equal(t, map[string]any{"content": []any{
		map[string]any{"type": "paragraph", "body": "Hi"},
		map[string]any{"type": "photo", "caption": "Harbor"},
	}}, got)
}

func TestFlattenSkipsUnknownBlockType(t *testing.T) {
	c := pagesSchema()
	doc := map[string]any{"content": []any{map[string]any{"type": "video", "url": "x"}}}
	assert.Empty(t, Flatten(c, doc))
}

func TestFlattenNestedArrays(t *testing.T) {
	c := pagesSchema()
	doc := map[string]any{"sections": []any{
		map[string]any{"heading": "One", "links": []any{
			map[string]any{"label": "Docs", "url": "/docs"},
		}},
		map[string]any{"links": []any{
			map[string]any{"label": "Blog", "url": "/blog"},
			map[string]any{"label": "About", "url": "/about"},
		}},
	}}

	recs := Flatten(c, doc)
	var url *Record
	for i := range recs {
		if recs[i].Value == "/about" {
			url = &recs[i]
		}
	}
	require.NotNil(t, url)
	assert.Equal(t, "sections.1.links.url", url.FieldPath)
	assert.Equal(t, "url", url.FieldName)
	assert.Equal(t, 1, *url.ArrayIndex)
	assert.Equal(t, "sections.1.links", *url.ParentPath)

	// the second section has no heading and is rebuilt from its links alone
	assert.Equal(t, doc, Reconstruct(recs, c, schema.DefaultLocale))
}

func TestRoundTripFullDocument(t *testing.T) {
	c := pagesSchema()
	doc := map[string]any{
		"title": map[string]any{"default": "Home", "fr": "Accueil"},
		"slug":  "home",
		"views": int64(12),
		"seo": map[string]any{
			"description": map[string]any{"default": "Welcome"},
			"meta":        map[string]any{"robots": "index"},
		},
		"sections": []any{
			map[string]any{"heading": "Start", "links": []any{map[string]any{"label": "Docs", "url": "/docs"}}},
		},
		"content": []any{
			map[string]any{"type": "photo", "caption": "Harbor", "credit": "AG"},
		},
	}

	recs := Flatten(c, doc)
	assert.Equal(t, doc, Reconstruct(recs, c, schema.AllLocales))

	// flatten(reconstruct(flatten(d))) is flatten(d)
	again := Flatten(c, Reconstruct(recs, c, schema.AllLocales))
	assert.Equal(t, recs, again)
}

func TestReconstructLocaleFallback(t *testing.T) {
	c := pagesSchema()
	recs := Flatten(c, map[string]any{
		"title": map[string]any{"default": "Hi", "fr": "Salut"},
		"slug":  "hi",
	})

	assert.Equal(t, "Salut", Reconstruct(recs, c, "fr")["title"])
	assert.Equal(t, "Hi", Reconstruct(recs, c, "es")["title"])
	assert.Equal(t, "Hi", Reconstruct(recs, c, "")["title"])
	assert.Equal(t, "hi", Reconstruct(recs, c, "fr")["slug"])
}

func TestReconstructLocaleWithoutDefault(t *testing.T) {
	c := pagesSchema()
	recs := Flatten(c, map[string]any{"title": map[string]any{"fr": "Salut"}})

	_, ok := Reconstruct(recs, c, "es")["title"]
	assert.False(t, ok)
}

func TestReconstructOmitsEmptyGroups(t *testing.T) {
	c := pagesSchema()
	recs := Flatten(c, map[string]any{"slug": "x", "seo": map[string]any{}})
	assert.Equal(t, map[string]any{"slug": "x"}, Reconstruct(recs, c, schema.DefaultLocale))
}

func TestRecordKey(t *testing.T) {
	r := Record{FieldPath: "links.link", Locale: "en", ArrayIndex: intPtr(3)}
	assert.Equal(t, Key{FieldPath: "links.link", Locale: "en", ArrayIndex: 3, Indexed: true}, r.Key())

	r.ArrayIndex = nil
	assert.False(t, r.Key().Indexed)
	assert.Equal(t, "text", (&Record{Store: schema.StoreText}).StoreName())
}

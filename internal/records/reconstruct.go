package records

import (
	"sort"

	"github.com/localnerve/jam-build-contentdb/internal/schema"
)

// index is the lookup structure built once per Reconstruct call.
type index struct {
	byPath map[string][]*Record
	// elements maps a repetition's instance path to the element indexes present.
	elements map[string]map[int]struct{}
}

func newIndex(recs []Record) *index {
	ix := &index{
		byPath:   make(map[string][]*Record, len(recs)),
		elements: make(map[string]map[int]struct{}),
	}
	for i := range recs {
		r := &recs[i]
		ix.byPath[r.FieldPath] = append(ix.byPath[r.FieldPath], r)
		if r.ParentPath == nil {
			continue
		}
		if r.ArrayIndex != nil {
			ix.addElement(*r.ParentPath, *r.ArrayIndex)
		}
		outerIndexes(*r.ParentPath, ix.addElement)
	}
	return ix
}

func (ix *index) addElement(instance string, i int) {
	set, ok := ix.elements[instance]
	if !ok {
		set = make(map[int]struct{})
		ix.elements[instance] = set
	}
	set[i] = struct{}{}
}

func (ix *index) elementIndexes(instance string) []int {
	set := ix.elements[instance]
	out := make([]int, 0, len(set))
	for i := range set {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// at returns the records stored at path for the repetition element idx.
func (ix *index) at(path string, idx *int) []*Record {
	var out []*Record
	for _, r := range ix.byPath[path] {
		if sameIndex(r.ArrayIndex, idx) {
			out = append(out, r)
		}
	}
	return out
}

// Reconstruct rebuilds the nested document described by recs. Records may be given
// in any order. locale is a locale code, schema.DefaultLocale or schema.AllLocales.
// Fields without records are omitted.
func Reconstruct(recs []Record, c *schema.Collection, locale string) map[string]any {
	if locale == "" {
		locale = schema.DefaultLocale
	}
	ix := newIndex(recs)
	return reconstructFields(ix, c.Fields, scope{}, locale)
}

func reconstructFields(ix *index, fields []schema.Field, sc scope, locale string) map[string]any {
	out := make(map[string]any)
	for i := range fields {
		f := &fields[i]

		switch f.Type {
		case schema.TypeGroup, schema.TypeRow:
			if sub := reconstructFields(ix, f.Fields, sc.group(f.Name), locale); len(sub) > 0 {
				out[f.Name] = sub
			}

		case schema.TypeArray:
			instance := joinPath(sc.instancePrefix, f.Name)
			var elems []any
			for _, j := range ix.elementIndexes(instance) {
				elems = append(elems, reconstructFields(ix, f.Fields, sc.element(instance, j), locale))
			}
			if len(elems) > 0 {
				out[f.Name] = elems
			}

		case schema.TypeBlock:
			instance := joinPath(sc.instancePrefix, f.Name)
			tagPath := joinPath(instance, schema.BlockTypeKey)
			var elems []any
			for _, j := range ix.elementIndexes(instance) {
				tag := blockTag(ix.at(tagPath, intPtr(j)))
				block, ok := f.Block(tag)
				if !ok {
					continue
				}
				elem := reconstructFields(ix, block.Fields, sc.blockElement(instance, j, tag), locale)
				elem[schema.BlockTypeKey] = tag
				elems = append(elems, elem)
			}
			if len(elems) > 0 {
				out[f.Name] = elems
			}

		default:
			if f.Type.Kind() != schema.KindScalar {
				continue
			}
			recs := ix.at(joinPath(sc.fieldPrefix, f.Name), sc.index)
			if v, ok := selectLocale(recs, f.Localized, locale); ok {
				out[f.Name] = v
			}
		}
	}
	return out
}

func blockTag(recs []*Record) string {
	for _, r := range recs {
		if s, ok := r.Value.(string); ok {
			return s
		}
	}
	return ""
}

// selectLocale applies the locale rules: non-localized fields read the default
// locale, "all" collects every locale present, and a specific locale falls back to
// the default locale.
func selectLocale(recs []*Record, localized bool, locale string) (any, bool) {
	if len(recs) == 0 {
		return nil, false
	}
	find := func(code string) (any, bool) {
		for _, r := range recs {
			if r.Locale == code {
				return r.Value, true
			}
		}
		return nil, false
	}

	if !localized {
		return find(schema.DefaultLocale)
	}
	if locale == schema.AllLocales {
		all := make(map[string]any, len(recs))
		for _, r := range recs {
			all[r.Locale] = r.Value
		}
		return all, true
	}
	if v, ok := find(locale); ok {
		return v, true
	}
	return find(schema.DefaultLocale)
}

package records

import (
	"reflect"
	"sort"

	"github.com/localnerve/jam-build-contentdb/internal/schema"
)

// scope is the position of the walk inside the document.
type scope struct {
	fieldPrefix    string
	instancePrefix string
	index          *int
	parent         *string
}

func (s scope) group(name string) scope {
	return scope{
		fieldPrefix:    joinPath(s.fieldPrefix, name),
		instancePrefix: joinPath(s.instancePrefix, name),
		index:          s.index,
		parent:         s.parent,
	}
}

func (s scope) element(instance string, i int) scope {
	return scope{
		fieldPrefix:    instance,
		instancePrefix: indexPath(instance, i),
		index:          intPtr(i),
		parent:         strPtr(instance),
	}
}

func (s scope) blockElement(instance string, i int, typ string) scope {
	return scope{
		fieldPrefix:    joinPath(instance, typ),
		instancePrefix: joinPath(indexPath(instance, i), typ),
		index:          intPtr(i),
		parent:         strPtr(instance),
	}
}

// Flatten walks the schema in declaration order and emits one record per scalar
// occurrence in doc, plus an element marker per array element and a type tag per
// block element. It never rejects data: absent values are skipped and values are
// carried as given.
func Flatten(c *schema.Collection, doc map[string]any) []Record {
	var out []Record
	flattenFields(&out, c.Fields, doc, scope{})
	return out
}

func flattenFields(out *[]Record, fields []schema.Field, data map[string]any, sc scope) {
	for i := range fields {
		f := &fields[i]
		v, ok := data[f.Name]
		if !ok || v == nil {
			continue
		}

		switch f.Type {
		case schema.TypeGroup, schema.TypeRow:
			if m, ok := asMap(v); ok {
				flattenFields(out, f.Fields, m, sc.group(f.Name))
			}

		case schema.TypeArray:
			instance := joinPath(sc.instancePrefix, f.Name)
			for j, elem := range asSlice(v) {
				m, ok := asMap(elem)
				if !ok {
					continue
				}
				*out = append(*out, Record{
					FieldPath:  joinPath(instance, schema.ElementKey),
					FieldName:  schema.ElementKey,
					FieldType:  schema.TypeBoolean,
					Store:      schema.StoreBoolean,
					Locale:     schema.DefaultLocale,
					ArrayIndex: intPtr(j),
					ParentPath: strPtr(instance),
					Value:      true,
				})
				flattenFields(out, f.Fields, m, sc.element(instance, j))
			}

		case schema.TypeBlock:
			instance := joinPath(sc.instancePrefix, f.Name)
			for j, elem := range asSlice(v) {
				m, ok := asMap(elem)
				if !ok {
					continue
				}
				typ, _ := m[schema.BlockTypeKey].(string)
				block, ok := f.Block(typ)
				if !ok {
					continue
				}
				*out = append(*out, Record{
					FieldPath:  joinPath(instance, schema.BlockTypeKey),
					FieldName:  schema.BlockTypeKey,
					FieldType:  schema.TypeText,
					Store:      schema.StoreText,
					Locale:     schema.DefaultLocale,
					ArrayIndex: intPtr(j),
					ParentPath: strPtr(instance),
					Value:      typ,
				})
				flattenFields(out, block.Fields, m, sc.blockElement(instance, j, typ))
			}

		default:
			store, err := schema.RouteFor(f.Type)
			if err != nil {
				continue
			}
			base := Record{
				FieldPath:  joinPath(sc.fieldPrefix, f.Name),
				FieldName:  f.Name,
				FieldType:  f.Type,
				Store:      store,
				ArrayIndex: sc.index,
				ParentPath: sc.parent,
				Field:      f,
			}
			locales, ok := asLocaleMap(v)
			if !f.Localized || !ok {
				base.Locale = schema.DefaultLocale
				base.Value = v
				*out = append(*out, base)
				continue
			}
			codes := make([]string, 0, len(locales))
			for code := range locales {
				codes = append(codes, code)
			}
			sort.Strings(codes)
			for _, code := range codes {
				lv := locales[code]
				if lv == nil {
					continue
				}
				rec := base
				rec.Locale = code
				rec.Value = lv
				*out = append(*out, rec)
			}
		}
	}
}

func asMap(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

func asLocaleMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[string]string:
		out := make(map[string]any, len(m))
		for k, s := range m {
			out[k] = s
		}
		return out, true
	}
	return nil, false
}

func asSlice(v any) []any {
	switch s := v.(type) {
	case []any:
		return s
	case []map[string]any:
		out := make([]any, len(s))
		for i := range s {
			out[i] = s[i]
		}
		return out
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice {
		return nil
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

package records

import (
	"github.com/localnerve/jam-build-contentdb/internal/schema"
	"github.com/localnerve/jam-build-contentdb/internal/types"
)

// Validate checks doc against the schema constraints the Flattener does not enforce:
// required fields, block type tags, and the collection's locale codes.
func Validate(c *schema.Collection, doc map[string]any) error {
	if doc == nil {
		return types.ValidationErrorf("", "document is empty")
	}
	return validateFields(c, c.Fields, doc, "")
}

func validateFields(c *schema.Collection, fields []schema.Field, data map[string]any, prefix string) error {
	for i := range fields {
		f := &fields[i]
		path := joinPath(prefix, f.Name)
		v, present := data[f.Name]
		if !present || v == nil {
			if f.Required {
				return types.ValidationErrorf(path, "required field is missing")
			}
			continue
		}

		switch f.Type {
		case schema.TypeGroup, schema.TypeRow:
			m, ok := asMap(v)
			if !ok {
				return types.ValidationErrorf(path, "expected an object, got %T", v)
			}
			if err := validateFields(c, f.Fields, m, path); err != nil {
				return err
			}

		case schema.TypeArray:
			elems := asSlice(v)
			if elems == nil {
				return types.ValidationErrorf(path, "expected an array, got %T", v)
			}
			for j, elem := range elems {
				m, ok := asMap(elem)
				if !ok {
					return types.ValidationErrorf(indexPath(path, j), "expected an object, got %T", elem)
				}
				if err := validateFields(c, f.Fields, m, indexPath(path, j)); err != nil {
					return err
				}
			}

		case schema.TypeBlock:
			elems := asSlice(v)
			if elems == nil {
				return types.ValidationErrorf(path, "expected an array, got %T", v)
			}
			for j, elem := range elems {
				epath := indexPath(path, j)
				m, ok := asMap(elem)
				if !ok {
					return types.ValidationErrorf(epath, "expected an object, got %T", elem)
				}
				typ, _ := m[schema.BlockTypeKey].(string)
				block, ok := f.Block(typ)
				if !ok {
					return types.ValidationErrorf(epath, "unknown block type %q", typ)
				}
				if err := validateFields(c, block.Fields, m, joinPath(epath, typ)); err != nil {
					return err
				}
			}

		default:
			if !f.Localized {
				continue
			}
			locales, ok := asLocaleMap(v)
			if !ok {
				return types.ValidationErrorf(path, "localized field expects a locale map, got %T", v)
			}
			if f.Required && len(locales) == 0 {
				return types.ValidationErrorf(path, "required field has no locales")
			}
			for code := range locales {
				if code == schema.AllLocales || !c.HasLocale(code) {
					return types.ValidationErrorf(path, "unsupported locale %q", code)
				}
			}
		}
	}
	return nil
}

package schema

import (
	"regexp"
	"strings"

	"github.com/localnerve/jam-build-contentdb/internal/types"
)

var (
	pathPattern   = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)
	digitsPattern = regexp.MustCompile(`^[0-9]+$`)
)

// Validate checks the collection and its whole field tree.
func (c *Collection) Validate() error {
	if !pathPattern.MatchString(c.Path) {
		return types.SchemaErrorf(c.Path, "", "invalid collection path %q", c.Path)
	}
	if len(c.Fields) == 0 {
		return types.SchemaErrorf(c.Path, "", "collection has no fields")
	}
	for _, l := range c.Locales {
		if l == "" || l == AllLocales || l == DefaultLocale {
			return types.SchemaErrorf(c.Path, "", "invalid locale %q", l)
		}
	}
	return validateFields(c.Path, "", c.Fields)
}

func validateFields(collection, prefix string, fields []Field) error {
	seen := make(map[string]struct{}, len(fields))
	for i := range fields {
		f := &fields[i]
		path := joinPath(prefix, f.Name)
		if err := validateName(collection, path, f.Name); err != nil {
			return err
		}
		if _, dup := seen[f.Name]; dup {
			return types.SchemaErrorf(collection, path, "duplicate field name")
		}
		seen[f.Name] = struct{}{}
		if err := validateField(collection, path, f); err != nil {
			return err
		}
	}
	return nil
}

func validateField(collection, path string, f *Field) error {
	if f.Relation != nil && f.Type != TypeRelation {
		return types.SchemaErrorf(collection, path, "relation options on %s field", f.Type)
	}

	switch f.Type.Kind() {
	case KindScalar:
		if len(f.Fields) > 0 || len(f.Blocks) > 0 {
			return types.SchemaErrorf(collection, path, "scalar field %s cannot have children", f.Type)
		}
		if _, err := RouteFor(f.Type); err != nil {
			return types.SchemaErrorf(collection, path, "%v", err)
		}
		if f.Unique && !Uniqueable(f.Type) {
			return types.SchemaErrorf(collection, path, "%s fields cannot be unique", f.Type)
		}
		if f.Relation != nil {
			switch f.Relation.Kind {
			case "", RelationReference, RelationEmbed, RelationWeak:
			default:
				return types.SchemaErrorf(collection, path, "unknown relation kind %q", f.Relation.Kind)
			}
		}
		return nil

	case KindPresentational:
		if f.Localized || f.Unique || f.Required {
			return types.SchemaErrorf(collection, path, "%s fields cannot be localized, unique or required", f.Type)
		}
		if f.Type == TypeBlock {
			if len(f.Fields) > 0 {
				return types.SchemaErrorf(collection, path, "block fields declare blocks, not fields")
			}
			if len(f.Blocks) == 0 {
				return types.SchemaErrorf(collection, path, "block field has no blocks")
			}
			seen := make(map[string]struct{}, len(f.Blocks))
			for j := range f.Blocks {
				b := &f.Blocks[j]
				bpath := joinPath(path, b.Type)
				if err := validateName(collection, bpath, b.Type); err != nil {
					return err
				}
				if b.Type == BlockTypeKey {
					return types.SchemaErrorf(collection, bpath, "block type cannot be %q", BlockTypeKey)
				}
				if _, dup := seen[b.Type]; dup {
					return types.SchemaErrorf(collection, bpath, "duplicate block type")
				}
				seen[b.Type] = struct{}{}
				for k := range b.Fields {
					if b.Fields[k].Name == BlockTypeKey {
						return types.SchemaErrorf(collection, joinPath(bpath, BlockTypeKey),
							"block fields cannot be named %q", BlockTypeKey)
					}
				}
				if err := validateFields(collection, bpath, b.Fields); err != nil {
					return err
				}
			}
			return nil
		}
		if len(f.Blocks) > 0 {
			return types.SchemaErrorf(collection, path, "only block fields declare blocks")
		}
		if len(f.Fields) == 0 {
			return types.SchemaErrorf(collection, path, "%s field has no fields", f.Type)
		}
		return validateFields(collection, path, f.Fields)
	}

	return types.SchemaErrorf(collection, path, "unknown field type %q", f.Type)
}

func validateName(collection, path, name string) error {
	switch {
	case name == "":
		return types.SchemaErrorf(collection, path, "empty field name")
	case strings.ContainsAny(name, ". \t\n"+ElementKey):
		return types.SchemaErrorf(collection, path, "field name %q contains a separator", name)
	case digitsPattern.MatchString(name):
		return types.SchemaErrorf(collection, path, "field name %q is numeric", name)
	}
	return nil
}

func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

// Package schema describes collection field trees and routes scalar field types to
// their value stores.
package schema

// FieldType is the declared type of a collection field.
type FieldType string

// Scalar field types. Each one is backed by exactly one value store.
const (
	TypeText     FieldType = "text"
	TypeInteger  FieldType = "integer"
	TypeDecimal  FieldType = "decimal"
	TypeBoolean  FieldType = "boolean"
	TypeDateTime FieldType = "datetime"
	TypeDate     FieldType = "date"
	TypeTime     FieldType = "time"
	TypeFile     FieldType = "file"
	TypeRelation FieldType = "relation"
	TypeRichText FieldType = "richText"
	TypeJSON     FieldType = "json"
)

// Presentational field types. They carry no value and only shape the document.
const (
	TypeArray FieldType = "array"
	TypeGroup FieldType = "group"
	TypeRow   FieldType = "row"
	TypeBlock FieldType = "block"
)

// BlockTypeKey is the per-repetition key carrying the block type of a block element.
const BlockTypeKey = "type"

// ElementKey is the field name of the marker record every array element carries, so
// elements without values survive a round trip.
const ElementKey = "#"

// Kind separates value-carrying fields from structural ones.
type Kind int

const (
	KindUnknown Kind = iota
	KindScalar
	KindPresentational
)

// Kind reports whether t is a scalar or presentational type.
func (t FieldType) Kind() Kind {
	switch t {
	case TypeText, TypeInteger, TypeDecimal, TypeBoolean, TypeDateTime, TypeDate, TypeTime,
		TypeFile, TypeRelation, TypeRichText, TypeJSON:
		return KindScalar
	case TypeArray, TypeGroup, TypeRow, TypeBlock:
		return KindPresentational
	}
	return KindUnknown
}

// Repeated reports whether the type iterates over a sequence of elements.
func (t FieldType) Repeated() bool {
	return t == TypeArray || t == TypeBlock
}

// AllScalarTypes lists every scalar type.
func AllScalarTypes() []FieldType {
	return []FieldType{
		TypeText, TypeInteger, TypeDecimal, TypeBoolean, TypeDateTime, TypeDate, TypeTime,
		TypeFile, TypeRelation, TypeRichText, TypeJSON,
	}
}

// RelationKind is the relationship semantics of a relation field.
type RelationKind string

const (
	RelationReference RelationKind = "reference"
	RelationEmbed     RelationKind = "embed"
	RelationWeak      RelationKind = "weak"
)

// Relation holds the options of a relation field.
type Relation struct {
	// Collection is the path of the target collection. Empty means any collection.
	Collection    string       `json:"collection,omitempty" yaml:"collection,omitempty"`
	Kind          RelationKind `json:"kind,omitempty" yaml:"kind,omitempty"`
	CascadeDelete bool         `json:"cascadeDelete,omitempty" yaml:"cascadeDelete,omitempty"`
}

// Field is one node of a collection field tree.
type Field struct {
	Name      string    `json:"name" yaml:"name"`
	Type      FieldType `json:"type" yaml:"type"`
	Label     string    `json:"label,omitempty" yaml:"label,omitempty"`
	Required  bool      `json:"required,omitempty" yaml:"required,omitempty"`
	Localized bool      `json:"localized,omitempty" yaml:"localized,omitempty"`
	Unique    bool      `json:"unique,omitempty" yaml:"unique,omitempty"`

	// Fields are the children of array, group and row fields.
	Fields []Field `json:"fields,omitempty" yaml:"fields,omitempty"`
	// Blocks are the alternatives of a block field.
	Blocks []Block `json:"blocks,omitempty" yaml:"blocks,omitempty"`

	Relation *Relation `json:"relation,omitempty" yaml:"relation,omitempty"`
	// JSONSchema tags json and richText payloads with the schema they follow.
	JSONSchema string `json:"jsonSchema,omitempty" yaml:"jsonSchema,omitempty"`
}

// Block is one alternative field set of a block field.
type Block struct {
	Type   string  `json:"type" yaml:"type"`
	Label  string  `json:"label,omitempty" yaml:"label,omitempty"`
	Fields []Field `json:"fields" yaml:"fields"`
}

// Block returns the block alternative named typ.
func (f *Field) Block(typ string) (*Block, bool) {
	for i := range f.Blocks {
		if f.Blocks[i].Type == typ {
			return &f.Blocks[i], true
		}
	}
	return nil, false
}

// Collection is the schema of a document type.
type Collection struct {
	Path        string `json:"path" yaml:"path"`
	Label       string `json:"label,omitempty" yaml:"label,omitempty"`
	LabelPlural string `json:"labelPlural,omitempty" yaml:"labelPlural,omitempty"`
	// Locales optionally restricts the locale codes localized fields accept.
	Locales        []string `json:"locales,omitempty" yaml:"locales,omitempty"`
	DisplayColumns []string `json:"displayColumns,omitempty" yaml:"displayColumns,omitempty"`
	Fields         []Field  `json:"fields" yaml:"fields"`
}

// HasUnique reports whether any field in the tree is flagged unique.
func (c *Collection) HasUnique() bool {
	return anyField(c.Fields, func(f *Field) bool { return f.Unique })
}

// HasLocale reports whether code is accepted by the collection.
func (c *Collection) HasLocale(code string) bool {
	if len(c.Locales) == 0 || code == DefaultLocale {
		return true
	}
	for _, l := range c.Locales {
		if l == code {
			return true
		}
	}
	return false
}

func anyField(fields []Field, pred func(*Field) bool) bool {
	for i := range fields {
		f := &fields[i]
		if pred(f) || anyField(f.Fields, pred) {
			return true
		}
		for j := range f.Blocks {
			if anyField(f.Blocks[j].Fields, pred) {
				return true
			}
		}
	}
	return false
}

// Locale sentinels.
const (
	DefaultLocale = "default"
	AllLocales    = "all"
)

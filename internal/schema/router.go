package schema

import "github.com/localnerve/jam-build-contentdb/internal/types"

// StoreKind identifies one of the typed value stores.
type StoreKind int

const (
	StoreText StoreKind = iota + 1
	StoreNumeric
	StoreBoolean
	StoreDateTime
	StoreRelation
	StoreFile
	StoreJSON
)

var storeNames = map[StoreKind]string{
	StoreText:     "text",
	StoreNumeric:  "numeric",
	StoreBoolean:  "boolean",
	StoreDateTime: "datetime",
	StoreRelation: "relation",
	StoreFile:     "file",
	StoreJSON:     "json",
}

func (k StoreKind) String() string {
	if name, ok := storeNames[k]; ok {
		return name
	}
	return "unknown"
}

// AllStores lists the value stores in table order.
func AllStores() []StoreKind {
	return []StoreKind{StoreText, StoreNumeric, StoreBoolean, StoreDateTime, StoreRelation, StoreFile, StoreJSON}
}

// RouteFor maps a scalar field type to its value store.
func RouteFor(t FieldType) (StoreKind, error) {
	switch t {
	case TypeText:
		return StoreText, nil
	case TypeInteger, TypeDecimal:
		return StoreNumeric, nil
	case TypeBoolean:
		return StoreBoolean, nil
	case TypeDateTime, TypeDate, TypeTime:
		return StoreDateTime, nil
	case TypeRelation:
		return StoreRelation, nil
	case TypeFile:
		return StoreFile, nil
	case TypeRichText, TypeJSON:
		return StoreJSON, nil
	}
	return 0, types.SchemaErrorf("", "", "no value store for field type %q", t)
}

// Uniqueable reports whether values of type t can be compared for unique constraints.
func Uniqueable(t FieldType) bool {
	switch t {
	case TypeText, TypeInteger, TypeDecimal, TypeDateTime, TypeDate, TypeTime, TypeRelation:
		return true
	}
	return false
}

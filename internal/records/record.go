// record.go
//
// A versioned, schema-driven document storage engine for the jam-build content platform
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of jam-build-contentdb.
// jam-build-contentdb is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// jam-build-contentdb is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with jam-build-contentdb.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

// Package records converts nested documents to and from flat, typed field value
// records.
//
// Addressing: a record's FieldPath is the instance path of its value with the index of
// the nearest enclosing repetition factored out into ArrayIndex. Indexes of outer
// repetitions stay embedded in the path, so `sections[1].links[0].url` is stored as
// FieldPath "sections.1.links.url", ArrayIndex 0, ParentPath "sections.1.links".
// Block children are addressed under their block type, `content.photo.caption`, and
// every block repetition carries a discriminator record at `content.type`.
package records

import (
	"strconv"
	"strings"

	"github.com/localnerve/jam-build-contentdb/internal/schema"
)

// Record is one scalar occurrence of a flattened document.
type Record struct {
	FieldPath  string           `json:"field_path"`
	FieldName  string           `json:"field_name"`
	FieldType  schema.FieldType `json:"field_type,omitempty"`
	Store      schema.StoreKind `json:"-"`
	Locale     string           `json:"locale"`
	ArrayIndex *int             `json:"array_index"`
	ParentPath *string          `json:"parent_path"`
	Value      any              `json:"value"`

	// Field is the schema field the record was flattened from. It is nil for records
	// loaded back from storage.
	Field *schema.Field `json:"-"`
}

// Key is the identity of a record within one document version.
type Key struct {
	FieldPath  string
	Locale     string
	ArrayIndex int
	Indexed    bool
}

// Key returns the record's identity.
func (r *Record) Key() Key {
	k := Key{FieldPath: r.FieldPath, Locale: r.Locale}
	if r.ArrayIndex != nil {
		k.ArrayIndex, k.Indexed = *r.ArrayIndex, true
	}
	return k
}

// StoreName is the name of the value store holding the record.
func (r *Record) StoreName() string {
	return r.Store.String()
}

func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

func indexPath(prefix string, i int) string {
	return prefix + "." + strconv.Itoa(i)
}

// outerIndexes calls fn for every repetition whose index is embedded in path.
func outerIndexes(path string, fn func(instance string, index int)) {
	segs := strings.Split(path, ".")
	for k := 1; k < len(segs); k++ {
		if n, err := strconv.Atoi(segs[k]); err == nil && isDigits(segs[k]) {
			fn(strings.Join(segs[:k], "."), n)
		}
	}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func intPtr(i int) *int { return &i }

func strPtr(s string) *string { return &s }

func sameIndex(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

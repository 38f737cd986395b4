// error.go
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

package types

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrDuplicatePath is wrapped by the ConstraintViolation returned when a collection
// or document path is already taken.
var ErrDuplicatePath = errors.New("duplicate path")

// ErrVersionConflict is wrapped by the ConstraintViolation returned when a write names
// an expected version that is no longer current.
var ErrVersionConflict = errors.New("E_VERSION")

// CustomError is the HTTP-facing error shape rendered by the server error handler.
type CustomError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

func (e *CustomError) Error() string {
	return fmt.Sprintf("%d: %s [type: %s]", e.Code, e.Message, e.Type)
}

// SchemaError reports a malformed collection schema. It is a configuration error and
// is never retried.
type SchemaError struct {
	Collection string
	Path       string
	Msg        string
}

func (e *SchemaError) Error() string {
	var buf strings.Builder
	buf.WriteString("schema")
	if e.Collection != "" {
		buf.WriteByte(' ')
		buf.WriteString(e.Collection)
	}
	if e.Path != "" {
		buf.WriteString(" field ")
		buf.WriteString(e.Path)
	}
	buf.WriteString(": ")
	buf.WriteString(e.Msg)
	return buf.String()
}

// SchemaErrorf builds a SchemaError for the field at path.
func SchemaErrorf(collection, path, format string, args ...any) error {
	return &SchemaError{Collection: collection, Path: path, Msg: fmt.Sprintf(format, args...)}
}

// ValidationError reports document data that violates a schema constraint.
type ValidationError struct {
	Path string
	Msg  string
	Err  error
}

func (e *ValidationError) Error() string {
	if e.Path == "" {
		return "validation: " + e.Msg
	}
	if e.Err != nil {
		return fmt.Sprintf("validation: field %s: %s: %v", e.Path, e.Msg, e.Err)
	}
	return fmt.Sprintf("validation: field %s: %s", e.Path, e.Msg)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ValidationErrorf builds a ValidationError for the field at path.
func ValidationErrorf(path, format string, args ...any) error {
	return &ValidationError{Path: path, Msg: fmt.Sprintf(format, args...)}
}

// ConstraintViolation reports a uniqueness collision detected at write time.
type ConstraintViolation struct {
	CollectionID uint64
	DocumentID   uint64
	Path         string
	Msg          string
	Err          error
}

func (e *ConstraintViolation) Error() string {
	var buf strings.Builder
	buf.WriteString("constraint violation")
	if e.CollectionID != 0 {
		fmt.Fprintf(&buf, " collection %d", e.CollectionID)
	}
	if e.DocumentID != 0 {
		fmt.Fprintf(&buf, " document %d", e.DocumentID)
	}
	if e.Path != "" {
		buf.WriteString(" field ")
		buf.WriteString(e.Path)
	}
	if e.Msg != "" {
		buf.WriteString(": ")
		buf.WriteString(e.Msg)
	}
	if e.Err != nil {
		buf.WriteString(": ")
		buf.WriteString(e.Err.Error())
	}
	return buf.String()
}

func (e *ConstraintViolation) Unwrap() error {
	return e.Err
}

// NotFoundError reports an absent collection, document or version.
type NotFoundError struct {
	Entity string
	ID     uint64
	Key    string
}

func (e *NotFoundError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("%s %q not found", e.Entity, e.Key)
	}
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

// StorageError wraps a failure of the backing store. The enclosing transaction has
// been rolled back by the time the caller sees it.
type StorageError struct {
	Op           string
	CollectionID uint64
	DocumentID   uint64
	Err          error
}

func (e *StorageError) Error() string {
	var buf strings.Builder
	buf.WriteString("storage: ")
	buf.WriteString(e.Op)
	if e.CollectionID != 0 {
		fmt.Fprintf(&buf, " collection %d", e.CollectionID)
	}
	if e.DocumentID != 0 {
		fmt.Fprintf(&buf, " document %d", e.DocumentID)
	}
	if e.Err != nil {
		buf.WriteString(": ")
		buf.WriteString(e.Err.Error())
	}
	return buf.String()
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func IsSchema(err error) bool {
	var target *SchemaError
	return errors.As(err, &target)
}

func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

func IsConstraint(err error) bool {
	var target *ConstraintViolation
	return errors.As(err, &target)
}

func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

func IsStorage(err error) bool {
	var target *StorageError
	return errors.As(err, &target)
}

// HTTPError maps an engine error onto the status code and error type reported to
// API callers.
func HTTPError(err error) *CustomError {
	var custom *CustomError
	switch {
	case errors.As(err, &custom):
		return custom
	case IsSchema(err):
		return &CustomError{Code: http.StatusBadRequest, Message: err.Error(), Type: "data.schema"}
	case IsValidation(err):
		return &CustomError{Code: http.StatusBadRequest, Message: err.Error(), Type: "data.validation"}
	case IsNotFound(err):
		return &CustomError{Code: http.StatusNotFound, Message: err.Error(), Type: "data.notfound"}
	case errors.Is(err, ErrVersionConflict):
		return &CustomError{Code: http.StatusConflict, Message: err.Error(), Type: "version"}
	case IsConstraint(err):
		return &CustomError{Code: http.StatusConflict, Message: err.Error(), Type: "data.constraint"}
	default:
		return &CustomError{Code: http.StatusInternalServerError, Message: err.Error(), Type: "data.storage"}
	}
}

package records

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/localnerve/jam-build-contentdb/internal/schema"
	"github.com/localnerve/jam-build-contentdb/internal/types"
	"github.com/shopspring/decimal"
)

// Canonical layouts of date and time values.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04:05"
)

// File is the payload of a file field.
type File struct {
	ID               uuid.UUID `json:"id"`
	Filename         string    `json:"filename"`
	OriginalFilename string    `json:"originalFilename,omitempty"`
	MimeType         string    `json:"mimeType,omitempty"`
	Size             int64     `json:"size,omitempty"`
	StorageProvider  string    `json:"storageProvider,omitempty"`
	StoragePath      string    `json:"storagePath,omitempty"`
	URL              string    `json:"url,omitempty"`
	Hash             string    `json:"hash,omitempty"`
	Width            *int      `json:"width,omitempty"`
	Height           *int      `json:"height,omitempty"`
	Format           string    `json:"format,omitempty"`
	Status           string    `json:"status,omitempty"`
}

// Normalize converts the raw value of r into the canonical payload of its store:
//
//	text                string
//	integer             int64
//	decimal             decimal.Decimal, or float64 when given a float
//	boolean             bool
//	datetime            time.Time
//	date, time          string in DateLayout, TimeLayout
//	relation            uint64 document id
//	file                File
//	json, richText      any JSON-marshalable value
func Normalize(r *Record) (any, error) {
	v := r.Value
	fail := func(format string, args ...any) (any, error) {
		return nil, types.ValidationErrorf(r.FieldPath, format, args...)
	}

	switch r.FieldType {
	case schema.TypeText:
		if s, ok := v.(string); ok {
			return s, nil
		}
		return fail("expected a string, got %T", v)

	case schema.TypeInteger:
		n, ok := toInt64(v)
		if !ok {
			return fail("expected an integer, got %v", v)
		}
		return n, nil

	case schema.TypeDecimal:
		switch x := v.(type) {
		case decimal.Decimal:
			return x, nil
		case float64:
			return x, nil
		case float32:
			return float64(x), nil
		case string:
			d, err := decimal.NewFromString(x)
			if err != nil {
				return fail("invalid decimal %q", x)
			}
			return d, nil
		case json.Number:
			d, err := decimal.NewFromString(x.String())
			if err != nil {
				return fail("invalid decimal %q", x)
			}
			return d, nil
		}
		if n, ok := toInt64(v); ok {
			return decimal.NewFromInt(n), nil
		}
		return fail("expected a decimal, got %T", v)

	case schema.TypeBoolean:
		if b, ok := v.(bool); ok {
			return b, nil
		}
		return fail("expected a boolean, got %T", v)

	case schema.TypeDateTime:
		switch x := v.(type) {
		case time.Time:
			return x, nil
		case string:
			t, err := time.Parse(time.RFC3339Nano, x)
			if err != nil {
				return fail("invalid datetime %q", x)
			}
			return t, nil
		}
		return fail("expected a datetime, got %T", v)

	case schema.TypeDate:
		switch x := v.(type) {
		case time.Time:
			return x.Format(DateLayout), nil
		case string:
			if _, err := time.Parse(DateLayout, x); err != nil {
				return fail("invalid date %q", x)
			}
			return x, nil
		}
		return fail("expected a date, got %T", v)

	case schema.TypeTime:
		switch x := v.(type) {
		case time.Time:
			return x.Format(TimeLayout), nil
		case string:
			t, err := time.Parse(TimeLayout, x)
			if err != nil {
				if t, err = time.Parse("15:04", x); err != nil {
					return fail("invalid time %q", x)
				}
			}
			return t.Format(TimeLayout), nil
		}
		return fail("expected a time, got %T", v)

	case schema.TypeRelation:
		if s, ok := v.(string); ok {
			id, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
			if err != nil {
				return fail("invalid document id %q", s)
			}
			return id, nil
		}
		n, ok := toInt64(v)
		if !ok || n <= 0 {
			return fail("invalid document id %v", v)
		}
		return uint64(n), nil

	case schema.TypeFile:
		return toFile(r.FieldPath, v)

	case schema.TypeJSON, schema.TypeRichText:
		if _, err := json.Marshal(v); err != nil {
			return nil, &types.ValidationError{Path: r.FieldPath, Msg: "value is not JSON encodable", Err: err}
		}
		return v, nil
	}

	return fail("unsupported field type %q", r.FieldType)
}

func toInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case uint:
		return int64(x), uint64(x) <= math.MaxInt64
	case uint8:
		return int64(x), true
	case uint16:
		return int64(x), true
	case uint32:
		return int64(x), true
	case uint64:
		return int64(x), x <= math.MaxInt64
	case float64:
		if x != math.Trunc(x) || math.Abs(x) > 1<<53 {
			return 0, false
		}
		return int64(x), true
	case json.Number:
		n, err := x.Int64()
		return n, err == nil
	}
	return 0, false
}

func toFile(path string, v any) (File, error) {
	switch x := v.(type) {
	case File:
		if x.ID == uuid.Nil || x.Filename == "" {
			return File{}, types.ValidationErrorf(path, "file requires an id and a filename")
		}
		return x, nil
	case *File:
		if x == nil {
			return File{}, types.ValidationErrorf(path, "file is nil")
		}
		return toFile(path, *x)
	case map[string]any:
		raw, err := json.Marshal(x)
		if err != nil {
			return File{}, &types.ValidationError{Path: path, Msg: "invalid file", Err: err}
		}
		var f File
		if err := json.Unmarshal(raw, &f); err != nil {
			return File{}, &types.ValidationError{Path: path, Msg: "invalid file", Err: err}
		}
		return toFile(path, f)
	}
	return File{}, types.ValidationErrorf(path, "expected a file, got %T", v)
}

package services

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/localnerve/jam-build-contentdb/internal/models"
	"github.com/localnerve/jam-build-contentdb/internal/records"
	"github.com/localnerve/jam-build-contentdb/internal/schema"
	"github.com/localnerve/jam-build-contentdb/internal/types"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const defaultBatchSize = 200

// valueRows holds the rows of one document version, grouped by value store.
type valueRows struct {
	text     []models.TextValue
	numeric  []models.NumericValue
	boolean  []models.BooleanValue
	datetime []models.DateTimeValue
	relation []models.RelationValue
	file     []models.FileValue
	json     []models.JSONValue
}

// relationTargets resolves relation collection paths to collection ids.
type relationTargets func(path string) (uint64, error)

// buildRows normalizes every record and routes it to its value store. Nothing is
// written; the version id is assigned by setVersion.
func buildRows(collectionID uint64, recs []records.Record, resolve relationTargets) (*valueRows, error) {
	rows := &valueRows{}
	seen := make(map[records.Key]struct{}, len(recs))
	for i := range recs {
		rec := &recs[i]
		// one value per (field_path, locale, array_index) in a version
		key := rec.Key()
		if _, dup := seen[key]; dup {
			return nil, types.ValidationErrorf(rec.FieldPath, "more than one value for locale %s", rec.Locale)
		}
		seen[key] = struct{}{}

		value, err := records.Normalize(rec)
		if err != nil {
			return nil, err
		}
		base := models.FieldValue{
			CollectionID: collectionID,
			FieldPath:    rec.FieldPath,
			FieldName:    rec.FieldName,
			Locale:       rec.Locale,
			ArrayIndex:   rec.ArrayIndex,
			ParentPath:   rec.ParentPath,
			Ordinal:      i,
		}
		if err := rows.add(base, rec, value, resolve); err != nil {
			return nil, err
		}
	}
	return rows, nil
}

func (v *valueRows) add(base models.FieldValue, rec *records.Record, value any, resolve relationTargets) error {
	switch rec.Store {
	case schema.StoreText:
		s := value.(string)
		words := len(strings.Fields(s))
		v.text = append(v.text, models.TextValue{FieldValue: base, Value: s, WordCount: &words})

	case schema.StoreNumeric:
		row := models.NumericValue{FieldValue: base}
		switch n := value.(type) {
		case int64:
			row.IntegerValue, row.NumberType = &n, models.NumberInteger
		case decimal.Decimal:
			row.DecimalValue, row.NumberType = decimal.NullDecimal{Decimal: n, Valid: true}, models.NumberDecimal
		case float64:
			if math.IsNaN(n) || math.IsInf(n, 0) {
				return types.ValidationErrorf(rec.FieldPath, "number is not finite")
			}
			row.FloatValue, row.NumberType = &n, models.NumberFloat
		}
		v.numeric = append(v.numeric, row)

	case schema.StoreBoolean:
		v.boolean = append(v.boolean, models.BooleanValue{FieldValue: base, Value: value.(bool)})

	case schema.StoreDateTime:
		row := models.DateTimeValue{FieldValue: base}
		switch rec.FieldType {
		case schema.TypeDate:
			t, err := time.ParseInLocation(records.DateLayout, value.(string), time.UTC)
			if err != nil {
				return types.ValidationErrorf(rec.FieldPath, "invalid date %q", value)
			}
			d := datatypes.Date(t)
			row.DateValue, row.DateType = &d, models.DateTypeDate
		case schema.TypeTime:
			t, err := time.Parse(records.TimeLayout, value.(string))
			if err != nil {
				return types.ValidationErrorf(rec.FieldPath, "invalid time %q", value)
			}
			tv := datatypes.NewTime(t.Hour(), t.Minute(), t.Second(), 0)
			row.TimeValue, row.DateType = &tv, models.DateTypeTime
		default:
			t := value.(time.Time)
			_, offset := t.Zone()
			utc := t.UTC()
			row.TimestampTZValue, row.TZOffset, row.DateType = &utc, &offset, models.DateTypeTimestampTZ
		}
		v.datetime = append(v.datetime, row)

	case schema.StoreRelation:
		row := models.RelationValue{
			FieldValue:       base,
			TargetDocumentID: value.(uint64),
			RelationKind:     string(schema.RelationReference),
		}
		if rel := relationOf(rec); rel != nil {
			if rel.Kind != "" {
				row.RelationKind = string(rel.Kind)
			}
			row.CascadeDelete = rel.CascadeDelete
			if rel.Collection != "" && resolve != nil {
				id, err := resolve(rel.Collection)
				if err != nil {
					return err
				}
				row.TargetCollectionID = &id
			}
		}
		v.relation = append(v.relation, row)

	case schema.StoreFile:
		f := value.(records.File)
		v.file = append(v.file, models.FileValue{
			FieldValue:       base,
			FileID:           f.ID,
			Filename:         f.Filename,
			OriginalFilename: f.OriginalFilename,
			MimeType:         f.MimeType,
			SizeBytes:        f.Size,
			StorageProvider:  f.StorageProvider,
			StoragePath:      f.StoragePath,
			URL:              f.URL,
			Hash:             f.Hash,
			Width:            f.Width,
			Height:           f.Height,
			Format:           f.Format,
			ProcessingStatus: f.Status,
		})

	case schema.StoreJSON:
		payload, err := models.NewJSON(value)
		if err != nil {
			return &types.ValidationError{Path: rec.FieldPath, Msg: "value is not JSON encodable", Err: err}
		}
		row := models.JSONValue{FieldValue: base, Value: payload}
		if rec.Field != nil {
			row.SchemaTag = rec.Field.JSONSchema
		}
		if m, ok := value.(map[string]any); ok {
			keys := make([]string, 0, len(m))
			for k := range m {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			row.TopLevelKeys = datatypes.JSONSlice[string](keys)
		}
		v.json = append(v.json, row)

	default:
		return types.SchemaErrorf("", rec.FieldPath, "no value store for type %q", rec.FieldType)
	}
	return nil
}

func relationOf(rec *records.Record) *schema.Relation {
	if rec.Field == nil {
		return nil
	}
	return rec.Field.Relation
}

func (v *valueRows) setVersion(versionID uint64) {
	for i := range v.text {
		v.text[i].VersionID = versionID
	}
	for i := range v.numeric {
		v.numeric[i].VersionID = versionID
	}
	for i := range v.boolean {
		v.boolean[i].VersionID = versionID
	}
	for i := range v.datetime {
		v.datetime[i].VersionID = versionID
	}
	for i := range v.relation {
		v.relation[i].VersionID = versionID
	}
	for i := range v.file {
		v.file[i].VersionID = versionID
	}
	for i := range v.json {
		v.json[i].VersionID = versionID
	}
}

// insert bulk-inserts every store's rows and returns the number of rows written.
func (v *valueRows) insert(tx *gorm.DB) (int64, error) {
	batch := tx.CreateBatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	var total int64
	create := func(store string, n int, value interface{}) error {
		if n == 0 {
			return nil
		}
		// Associations are never upserted from value rows
		result := tx.Omit("Version").CreateInBatches(value, batch)
		if result.Error != nil {
			return fmt.Errorf("insert %s values: %w", store, result.Error)
		}
		total += result.RowsAffected
		return nil
	}

	if err := create("text", len(v.text), &v.text); err != nil {
		return 0, err
	}
	if err := create("numeric", len(v.numeric), &v.numeric); err != nil {
		return 0, err
	}
	if err := create("boolean", len(v.boolean), &v.boolean); err != nil {
		return 0, err
	}
	if err := create("datetime", len(v.datetime), &v.datetime); err != nil {
		return 0, err
	}
	if err := create("relation", len(v.relation), &v.relation); err != nil {
		return 0, err
	}
	if err := create("file", len(v.file), &v.file); err != nil {
		return 0, err
	}
	if err := create("json", len(v.json), &v.json); err != nil {
		return 0, err
	}
	return total, nil
}

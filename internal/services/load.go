package services

import (
	"sort"
	"time"

	"github.com/localnerve/jam-build-contentdb/internal/models"
	"github.com/localnerve/jam-build-contentdb/internal/records"
	"github.com/localnerve/jam-build-contentdb/internal/schema"
	"gorm.io/gorm"
)

type loadedRecord struct {
	versionID uint64
	ordinal   int
	rec       records.Record
}

// loadRecords reads the stored records of versionIDs from all seven value stores and
// returns them per version in flatten order. A specific locale limits the rows to
// that locale and the default locale; an empty locale or "all" reads every locale.
func loadRecords(db *gorm.DB, versionIDs []uint64, locale string) (map[uint64][]records.Record, error) {
	out := make(map[uint64][]records.Record, len(versionIDs))
	if len(versionIDs) == 0 {
		return out, nil
	}

	scope := func(q *gorm.DB) *gorm.DB {
		q = q.Where("version_id IN ?", versionIDs)
		if locale != "" && locale != schema.AllLocales && locale != schema.DefaultLocale {
			q = q.Where("locale IN ?", []string{locale, schema.DefaultLocale})
		}
		return q
	}

	var loaded []loadedRecord
	collect := func(v models.FieldValue, ft schema.FieldType, store schema.StoreKind, value any) {
		loaded = append(loaded, loadedRecord{
			versionID: v.VersionID,
			ordinal:   v.Ordinal,
			rec: records.Record{
				FieldPath:  v.FieldPath,
				FieldName:  v.FieldName,
				FieldType:  ft,
				Store:      store,
				Locale:     v.Locale,
				ArrayIndex: v.ArrayIndex,
				ParentPath: v.ParentPath,
				Value:      value,
			},
		})
	}

	var texts []models.TextValue
	if err := db.Scopes(scope).Find(&texts).Error; err != nil {
		return nil, err
	}
	for _, r := range texts {
		collect(r.FieldValue, schema.TypeText, schema.StoreText, r.Value)
	}

	var numbers []models.NumericValue
	if err := db.Scopes(scope).Find(&numbers).Error; err != nil {
		return nil, err
	}
	for _, r := range numbers {
		switch {
		case r.NumberType == models.NumberInteger && r.IntegerValue != nil:
			collect(r.FieldValue, schema.TypeInteger, schema.StoreNumeric, *r.IntegerValue)
		case r.NumberType == models.NumberDecimal && r.DecimalValue.Valid:
			collect(r.FieldValue, schema.TypeDecimal, schema.StoreNumeric, r.DecimalValue.Decimal)
		case r.NumberType == models.NumberFloat && r.FloatValue != nil:
			collect(r.FieldValue, schema.TypeDecimal, schema.StoreNumeric, *r.FloatValue)
		}
	}

	var booleans []models.BooleanValue
	if err := db.Scopes(scope).Find(&booleans).Error; err != nil {
		return nil, err
	}
	for _, r := range booleans {
		collect(r.FieldValue, schema.TypeBoolean, schema.StoreBoolean, r.Value)
	}

	var datetimes []models.DateTimeValue
	if err := db.Scopes(scope).Find(&datetimes).Error; err != nil {
		return nil, err
	}
	for _, r := range datetimes {
		if ft, v, ok := datetimeValue(&r); ok {
			collect(r.FieldValue, ft, schema.StoreDateTime, v)
		}
	}

	var relations []models.RelationValue
	if err := db.Scopes(scope).Find(&relations).Error; err != nil {
		return nil, err
	}
	for _, r := range relations {
		collect(r.FieldValue, schema.TypeRelation, schema.StoreRelation, r.TargetDocumentID)
	}

	var files []models.FileValue
	if err := db.Scopes(scope).Find(&files).Error; err != nil {
		return nil, err
	}
	for _, r := range files {
		collect(r.FieldValue, schema.TypeFile, schema.StoreFile, records.File{
			ID:               r.FileID,
			Filename:         r.Filename,
			OriginalFilename: r.OriginalFilename,
			MimeType:         r.MimeType,
			Size:             r.SizeBytes,
			StorageProvider:  r.StorageProvider,
			StoragePath:      r.StoragePath,
			URL:              r.URL,
			Hash:             r.Hash,
			Width:            r.Width,
			Height:           r.Height,
			Format:           r.Format,
			Status:           r.ProcessingStatus,
		})
	}

	var blobs []models.JSONValue
	if err := db.Scopes(scope).Find(&blobs).Error; err != nil {
		return nil, err
	}
	for _, r := range blobs {
		var v any
		if err := r.Value.Decode(&v); err != nil {
			return nil, err
		}
		collect(r.FieldValue, schema.TypeJSON, schema.StoreJSON, v)
	}

	sort.SliceStable(loaded, func(i, j int) bool {
		if loaded[i].versionID != loaded[j].versionID {
			return loaded[i].versionID < loaded[j].versionID
		}
		return loaded[i].ordinal < loaded[j].ordinal
	})
	for _, l := range loaded {
		out[l.versionID] = append(out[l.versionID], l.rec)
	}
	return out, nil
}

// datetimeValue restores the canonical payload of a datetime row.
func datetimeValue(r *models.DateTimeValue) (schema.FieldType, any, bool) {
	switch {
	case r.DateType == models.DateTypeDate && r.DateValue != nil:
		return schema.TypeDate, time.Time(*r.DateValue).Format(records.DateLayout), true

	case r.DateType == models.DateTypeTime && r.TimeValue != nil:
		d := time.Duration(*r.TimeValue)
		return schema.TypeTime, time.Time{}.Add(d).Format(records.TimeLayout), true

	case r.DateType == models.DateTypeTimestampTZ && r.TimestampTZValue != nil:
		t := r.TimestampTZValue.UTC()
		if r.TZOffset != nil && *r.TZOffset != 0 {
			t = t.In(time.FixedZone("", *r.TZOffset))
		}
		return schema.TypeDateTime, t, true

	case r.DateType == models.DateTypeTimestamp && r.TimestampValue != nil:
		return schema.TypeDateTime, *r.TimestampValue, true
	}
	return "", nil, false
}

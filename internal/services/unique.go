package services

import (
	"github.com/localnerve/jam-build-contentdb/internal/models"
	"github.com/localnerve/jam-build-contentdb/internal/records"
	"github.com/localnerve/jam-build-contentdb/internal/types"
	"gorm.io/gorm"
)

// checkUnique rejects a value of a unique field when the current version of another
// document in the collection already holds it at the same path and locale.
func checkUnique(tx *gorm.DB, collectionID, documentID uint64, recs []records.Record, rows *valueRows) error {
	unique := func(v models.FieldValue) bool {
		f := recs[v.Ordinal].Field
		return f != nil && f.Unique
	}
	probe := func(table, column string, value interface{}, v models.FieldValue) error {
		var count int64
		err := tx.Table(table+" AS v").
			Joins("JOIN document_versions dv ON dv.version_id = v.version_id").
			Where("v.collection_id = ? AND v.field_path = ? AND v.locale = ?", collectionID, v.FieldPath, v.Locale).
			Where("dv.is_current = ? AND dv.document_id <> ?", true, documentID).
			Where("v."+column+" = ?", value).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count > 0 {
			return &types.ConstraintViolation{
				CollectionID: collectionID,
				DocumentID:   documentID,
				Path:         v.FieldPath,
				Msg:          "value for locale " + v.Locale + " is not unique",
			}
		}
		return nil
	}

	for _, r := range rows.text {
		if unique(r.FieldValue) {
			if err := probe(models.TextValue{}.TableName(), "value", r.Value, r.FieldValue); err != nil {
				return err
			}
		}
	}

	for _, r := range rows.numeric {
		if !unique(r.FieldValue) {
			continue
		}
		var err error
		switch r.NumberType {
		case models.NumberInteger:
			err = probe(models.NumericValue{}.TableName(), "integer_value", *r.IntegerValue, r.FieldValue)
		case models.NumberDecimal:
			err = probe(models.NumericValue{}.TableName(), "decimal_value", r.DecimalValue, r.FieldValue)
		case models.NumberFloat:
			err = probe(models.NumericValue{}.TableName(), "float_value", *r.FloatValue, r.FieldValue)
		}
		if err != nil {
			return err
		}
	}

	for _, r := range rows.datetime {
		if !unique(r.FieldValue) {
			continue
		}
		var err error
		switch r.DateType {
		case models.DateTypeDate:
			err = probe(models.DateTimeValue{}.TableName(), "date_value", *r.DateValue, r.FieldValue)
		case models.DateTypeTime:
			err = probe(models.DateTimeValue{}.TableName(), "time_value", *r.TimeValue, r.FieldValue)
		case models.DateTypeTimestampTZ:
			err = probe(models.DateTimeValue{}.TableName(), "timestamp_tz_value", *r.TimestampTZValue, r.FieldValue)
		}
		if err != nil {
			return err
		}
	}

	for _, r := range rows.relation {
		if unique(r.FieldValue) {
			if err := probe(models.RelationValue{}.TableName(), "target_document_id", r.TargetDocumentID, r.FieldValue); err != nil {
				return err
			}
		}
	}
	return nil
}

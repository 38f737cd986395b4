package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// FieldValue holds the attributes shared by every value store row. The tuple
// (version_id, field_path, locale, array_index) identifies a row within a version.
type FieldValue struct {
	ValueID      uint64  `gorm:"primaryKey;autoIncrement"`
	VersionID    uint64  `gorm:"not null;index:,unique,composite:value_key"`
	CollectionID uint64  `gorm:"not null;index"`
	FieldPath    string  `gorm:"size:512;not null;index:,unique,composite:value_key"`
	FieldName    string  `gorm:"size:255;not null"`
	Locale       string  `gorm:"size:16;not null;index:,unique,composite:value_key"`
	ArrayIndex   *int    `gorm:"index:,unique,composite:value_key"`
	ParentPath   *string `gorm:"size:512"`
	Ordinal      int     `gorm:"not null"`
}

// TextValue stores text field values
type TextValue struct {
	FieldValue
	Value     string          `gorm:"not null"`
	WordCount *int
	Version   DocumentVersion `gorm:"foreignKey:VersionID;references:VersionID;constraint:OnDelete:CASCADE"`
}

// Number types of NumericValue rows
const (
	NumberInteger = "integer"
	NumberDecimal = "decimal"
	NumberFloat   = "float"
)

// NumericValue stores integer and decimal field values. Exactly one of the value
// columns is set, as named by NumberType.
type NumericValue struct {
	FieldValue
	IntegerValue *int64
	DecimalValue decimal.NullDecimal `gorm:"type:decimal(38,12)"`
	FloatValue   *float64
	NumberType   string          `gorm:"size:16;not null"`
	Version      DocumentVersion `gorm:"foreignKey:VersionID;references:VersionID;constraint:OnDelete:CASCADE"`
}

// BooleanValue stores boolean field values
type BooleanValue struct {
	FieldValue
	Value   bool            `gorm:"not null"`
	Version DocumentVersion `gorm:"foreignKey:VersionID;references:VersionID;constraint:OnDelete:CASCADE"`
}

// Date types of DateTimeValue rows
const (
	DateTypeDate        = "date"
	DateTypeTime        = "time"
	DateTypeTimestamp   = "timestamp"
	DateTypeTimestampTZ = "timestamptz"
)

// DateTimeValue stores datetime, date and time field values. Exactly one of the value
// columns is set, as named by DateType. Zoned timestamps are kept in UTC together with
// their offset in seconds.
type DateTimeValue struct {
	FieldValue
	DateValue        *datatypes.Date
	TimeValue        *datatypes.Time
	TimestampValue   *time.Time
	TimestampTZValue *time.Time      `gorm:"column:timestamp_tz_value"`
	TZOffset         *int            `gorm:"column:tz_offset"`
	DateType         string          `gorm:"size:16;not null"`
	Version          DocumentVersion `gorm:"foreignKey:VersionID;references:VersionID;constraint:OnDelete:CASCADE"`
}

// RelationValue stores references to other documents
type RelationValue struct {
	FieldValue
	TargetDocumentID   uint64          `gorm:"not null;index"`
	TargetCollectionID *uint64         `gorm:"index"`
	RelationKind       string          `gorm:"size:16;not null;default:reference"`
	CascadeDelete      bool            `gorm:"not null;default:false"`
	Version            DocumentVersion `gorm:"foreignKey:VersionID;references:VersionID;constraint:OnDelete:CASCADE"`
}

// FileValue stores file metadata
type FileValue struct {
	FieldValue
	FileID           uuid.UUID       `gorm:"type:char(36);not null;index"`
	Filename         string          `gorm:"size:255;not null"`
	OriginalFilename string          `gorm:"size:255"`
	MimeType         string          `gorm:"size:127"`
	SizeBytes        int64           `gorm:"not null;default:0"`
	StorageProvider  string          `gorm:"size:32"`
	StoragePath      string          `gorm:"size:1024"`
	URL              string          `gorm:"size:2048"`
	Hash             string          `gorm:"size:128"`
	Width            *int
	Height           *int
	Format           string          `gorm:"size:32"`
	ProcessingStatus string          `gorm:"size:32"`
	Version          DocumentVersion `gorm:"foreignKey:VersionID;references:VersionID;constraint:OnDelete:CASCADE"`
}

// JSONValue stores json and richText payloads
type JSONValue struct {
	FieldValue
	Value        JSON                        `gorm:"not null"`
	SchemaTag    string                      `gorm:"size:255"`
	TopLevelKeys datatypes.JSONSlice[string]
	Version      DocumentVersion             `gorm:"foreignKey:VersionID;references:VersionID;constraint:OnDelete:CASCADE"`
}

// TableName overrides the table name for TextValue
func (TextValue) TableName() string {
	return "text_values"
}

// TableName overrides the table name for NumericValue
func (NumericValue) TableName() string {
	return "numeric_values"
}

// TableName overrides the table name for BooleanValue
func (BooleanValue) TableName() string {
	return "boolean_values"
}

// TableName overrides the table name for DateTimeValue
func (DateTimeValue) TableName() string {
	return "datetime_values"
}

// TableName overrides the table name for RelationValue
func (RelationValue) TableName() string {
	return "relation_values"
}

// TableName overrides the table name for FileValue
func (FileValue) TableName() string {
	return "file_values"
}

// TableName overrides the table name for JSONValue
func (JSONValue) TableName() string {
	return "json_values"
}

// All lists every model in migration order
func All() []interface{} {
	return []interface{}{
		&Collection{},
		&Document{},
		&DocumentVersion{},
		&TextValue{},
		&NumericValue{},
		&BooleanValue{},
		&DateTimeValue{},
		&RelationValue{},
		&FileValue{},
		&JSONValue{},
	}
}

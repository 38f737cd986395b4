package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Document statuses.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusArchived  = "archived"
)

// Collection is a named document type and its stored field tree
type Collection struct {
	CollectionID   uint64                      `gorm:"primaryKey;autoIncrement" json:"id"`
	Path           string                      `gorm:"uniqueIndex;size:255;not null" json:"path"`
	Label          string                      `gorm:"size:255" json:"label,omitempty"`
	LabelPlural    string                      `gorm:"size:255" json:"labelPlural,omitempty"`
	Schema         JSON                        `gorm:"not null" json:"schema"`
	DisplayColumns datatypes.JSONSlice[string] `json:"displayColumns,omitempty"`
	CreatedAt      time.Time                   `json:"created_at"`
	UpdatedAt      time.Time                   `json:"updated_at"`
}

// Document is the stable identity of a logical document across its versions
type Document struct {
	DocumentID     uint64     `gorm:"primaryKey;autoIncrement" json:"id"`
	CollectionID   uint64     `gorm:"not null;index:idx_documents_collection_path,unique" json:"collection_id"`
	Path           string     `gorm:"size:255;not null;index:idx_documents_collection_path,unique" json:"path"`
	Status         string     `gorm:"size:16;not null;default:draft;index" json:"status"`
	CurrentVersion uint64     `gorm:"not null;default:0" json:"version"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	Collection     Collection `gorm:"foreignKey:CollectionID;references:CollectionID;constraint:OnDelete:CASCADE" json:"-"`
}

// DocumentVersion is an immutable snapshot of a document
type DocumentVersion struct {
	VersionID     uint64     `gorm:"primaryKey;autoIncrement" json:"version_id"`
	DocumentID    uint64     `gorm:"not null;index:idx_versions_document_number,unique" json:"document_id"`
	CollectionID  uint64     `gorm:"not null;index" json:"collection_id"`
	VersionNumber uint64     `gorm:"not null;index:idx_versions_document_number,unique" json:"version"`
	IsCurrent     bool       `gorm:"not null;default:false;index" json:"is_current"`
	Status        string     `gorm:"size:16;not null" json:"status"`
	Locale        string     `gorm:"size:16" json:"locale,omitempty"`
	CreatedBy     *uuid.UUID `gorm:"type:char(36)" json:"created_by,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	Document      Document   `gorm:"foreignKey:DocumentID;references:DocumentID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName overrides the table name for Collection
func (Collection) TableName() string {
	return "collections"
}

// TableName overrides the table name for Document
func (Document) TableName() string {
	return "documents"
}

// TableName overrides the table name for DocumentVersion
func (DocumentVersion) TableName() string {
	return "document_versions"
}

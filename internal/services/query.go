// query.go
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

package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/localnerve/jam-build-contentdb/internal/models"
	"github.com/localnerve/jam-build-contentdb/internal/records"
	"github.com/localnerve/jam-build-contentdb/internal/schema"
	"github.com/localnerve/jam-build-contentdb/internal/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/hints"
)

// Pagination defaults
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ListOptions controls listing and history queries
type ListOptions struct {
	Locale   string
	Page     int
	PageSize int
	// MaxPageSize caps PageSize. Zero means MaxPageSize.
	MaxPageSize int
	Order       string
	Desc        bool
	// Query is a case-insensitive substring matched against current text values.
	Query string
	// Status filters documents by lifecycle status.
	Status string
}

// PageMeta describes one page of a listing
type PageMeta struct {
	Page       int    `json:"page"`
	PageSize   int    `json:"page_size"`
	Total      int64  `json:"total"`
	TotalPages int    `json:"total_pages"`
	Order      string `json:"order"`
	Desc       bool   `json:"desc"`
}

// DocumentView is one document version as returned to callers. Data holds the
// reconstructed document; Records holds the flat records instead when
// reconstruction is off.
type DocumentView struct {
	ID           uint64           `json:"id"`
	CollectionID uint64           `json:"collection_id"`
	Path         string           `json:"path"`
	Status       string           `json:"status"`
	Version      uint64           `json:"version"`
	VersionID    uint64           `json:"version_id"`
	IsCurrent    bool             `json:"is_current"`
	Locale       string           `json:"locale"`
	CreatedBy    *uuid.UUID       `json:"created_by,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
	Data         map[string]any   `json:"data,omitempty"`
	Records      []records.Record `json:"records,omitempty"`
}

// DocumentPage is the listing and history envelope
type DocumentPage struct {
	Documents []DocumentView `json:"documents"`
	Meta      PageMeta       `json:"meta"`
}

var documentOrder = map[string]string{
	"id":         "documents.document_id",
	"path":       "documents.path",
	"status":     "documents.status",
	"created_at": "documents.created_at",
	"updated_at": "documents.updated_at",
	"version":    "documents.current_version",
}

var historyOrder = map[string]string{
	"version":    "version_number",
	"created_at": "created_at",
	"id":         "version_id",
}

// DocumentOrderFields lists the accepted document order fields
func DocumentOrderFields() []string {
	return []string{"id", "path", "status", "created_at", "updated_at", "version"}
}

// HistoryOrderFields lists the accepted history order fields
func HistoryOrderFields() []string {
	return []string{"version", "created_at", "id"}
}

// normalize applies paging defaults and validates the order field.
func (o *ListOptions) normalize(columns map[string]string, defaultOrder string, defaultDesc bool) (string, error) {
	limit := o.MaxPageSize
	if limit <= 0 {
		limit = MaxPageSize
	}
	if o.PageSize <= 0 {
		o.PageSize = min(DefaultPageSize, limit)
	}
	if o.PageSize > limit {
		o.PageSize = limit
	}
	if o.Page < 1 {
		o.Page = 1
	}
	if o.Locale == "" {
		o.Locale = schema.DefaultLocale
	}
	if o.Order == "" {
		o.Order, o.Desc = defaultOrder, defaultDesc
	}
	column, ok := columns[o.Order]
	if !ok {
		return "", types.ValidationErrorf("order", "unknown order field %q", o.Order)
	}
	return column, nil
}

func (o *ListOptions) meta(total int64) PageMeta {
	pages := 0
	if total > 0 {
		pages = int((total + int64(o.PageSize) - 1) / int64(o.PageSize))
	}
	return PageMeta{
		Page:       o.Page,
		PageSize:   o.PageSize,
		Total:      total,
		TotalPages: pages,
		Order:      o.Order,
		Desc:       o.Desc,
	}
}

// likePattern escapes s for a LIKE ... ESCAPE '!' predicate.
func likePattern(s string) string {
	r := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_", "[", "![")
	return "%" + r.Replace(strings.ToLower(s)) + "%"
}

// ListDocuments returns one page of a collection's documents, each reconstructed from
// its current version in opts.Locale. Ties on the order field break on document id.
func ListDocuments(ctx context.Context, db *gorm.DB, collectionID uint64, opts ListOptions) (*DocumentPage, error) {
	column, err := opts.normalize(documentOrder, "id", false)
	if err != nil {
		return nil, err
	}
	if opts.Status != "" && !ValidStatus(opts.Status) {
		return nil, types.ValidationErrorf("status", "unknown status %q", opts.Status)
	}

	db = db.WithContext(ctx)
	collection, err := GetCollectionByID(ctx, db, collectionID)
	if err != nil {
		return nil, err
	}
	sc, err := CollectionSchema(collection)
	if err != nil {
		return nil, err
	}

	filtered := func(q *gorm.DB) *gorm.DB {
		q = q.Where("documents.collection_id = ?", collectionID)
		if opts.Status != "" {
			q = q.Where("documents.status = ?", opts.Status)
		}
		if strings.TrimSpace(opts.Query) != "" {
			matches := db.Table(models.TextValue{}.TableName()+" AS tv").
				Select("dv.document_id").
				Joins("JOIN document_versions dv ON dv.version_id = tv.version_id").
				Where("tv.collection_id = ? AND dv.is_current = ?", collectionID, true).
				Where("LOWER(tv.value) LIKE ? ESCAPE '!'", likePattern(strings.TrimSpace(opts.Query)))
			q = q.Where("documents.document_id IN (?)", matches)
		}
		return q
	}

	var total int64
	if err := db.Model(&models.Document{}).Scopes(filtered).Count(&total).Error; err != nil {
		return nil, wrapStorage("count documents", collectionID, 0, err)
	}

	var docs []models.Document
	err = db.Clauses(hints.Comment("select", "contentdb:list_documents")).
		Scopes(filtered).
		Order(clause.OrderByColumn{Column: clause.Column{Name: column, Raw: true}, Desc: opts.Desc}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "documents.document_id", Raw: true}, Desc: opts.Desc}).
		Limit(opts.PageSize).
		Offset((opts.Page - 1) * opts.PageSize).
		Find(&docs).Error
	if err != nil {
		return nil, wrapStorage("list documents", collectionID, 0, err)
	}

	ids := make([]uint64, len(docs))
	for i := range docs {
		ids[i] = docs[i].DocumentID
	}
	var versions []models.DocumentVersion
	if len(ids) > 0 {
		if err := db.Where("document_id IN ? AND is_current = ?", ids, true).Find(&versions).Error; err != nil {
			return nil, wrapStorage("load current versions", collectionID, 0, err)
		}
	}
	current := make(map[uint64]*models.DocumentVersion, len(versions))
	for i := range versions {
		current[versions[i].DocumentID] = &versions[i]
	}

	views := make([]DocumentView, 0, len(docs))
	for i := range docs {
		v, ok := current[docs[i].DocumentID]
		if !ok {
			continue
		}
		views = append(views, newView(&docs[i], v, opts.Locale))
	}
	if err := fill(db, sc, views, true); err != nil {
		return nil, wrapStorage("load records", collectionID, 0, err)
	}

	return &DocumentPage{Documents: views, Meta: opts.meta(total)}, nil
}

// GetDocumentByID returns the current version of a document. With reconstruct off the
// view carries the flat records instead of the nested document.
func GetDocumentByID(ctx context.Context, db *gorm.DB, collectionID, documentID uint64, locale string, reconstruct bool) (*DocumentView, error) {
	return getDocument(ctx, db, collectionID, locale, reconstruct, func(q *gorm.DB) *gorm.DB {
		return q.Where("document_id = ?", documentID)
	}, documentID, "")
}

// GetDocumentByPath returns the current version of the document at path
func GetDocumentByPath(ctx context.Context, db *gorm.DB, collectionID uint64, path, locale string, reconstruct bool) (*DocumentView, error) {
	return getDocument(ctx, db, collectionID, locale, reconstruct, func(q *gorm.DB) *gorm.DB {
		return q.Where("path = ?", path)
	}, 0, path)
}

func getDocument(ctx context.Context, db *gorm.DB, collectionID uint64, locale string, reconstruct bool,
	where func(*gorm.DB) *gorm.DB, id uint64, key string) (*DocumentView, error) {
	db = db.WithContext(ctx)
	collection, err := GetCollectionByID(ctx, db, collectionID)
	if err != nil {
		return nil, err
	}
	sc, err := CollectionSchema(collection)
	if err != nil {
		return nil, err
	}

	var doc models.Document
	if err := quiet(db).Scopes(where).Where("collection_id = ?", collectionID).First(&doc).Error; err != nil {
		return nil, notFound("document", id, key, "get document", err)
	}
	var version models.DocumentVersion
	if err := quiet(db).Where("document_id = ? AND is_current = ?", doc.DocumentID, true).First(&version).Error; err != nil {
		return nil, notFound("current version of document", doc.DocumentID, "", "get document", err)
	}

	views := []DocumentView{newView(&doc, &version, normalizeLocale(locale))}
	if err := fill(db, sc, views, reconstruct); err != nil {
		return nil, wrapStorage("load records", collectionID, doc.DocumentID, err)
	}
	return &views[0], nil
}

// GetDocumentVersion returns any version, current or superseded, by version id
func GetDocumentVersion(ctx context.Context, db *gorm.DB, versionID uint64, locale string, reconstruct bool) (*DocumentView, error) {
	db = db.WithContext(ctx)

	var version models.DocumentVersion
	if err := quiet(db).First(&version, versionID).Error; err != nil {
		return nil, notFound("version", versionID, "", "get version", err)
	}
	var doc models.Document
	if err := quiet(db).First(&doc, version.DocumentID).Error; err != nil {
		return nil, notFound("document", version.DocumentID, "", "get version", err)
	}
	collection, err := GetCollectionByID(ctx, db, doc.CollectionID)
	if err != nil {
		return nil, err
	}
	sc, err := CollectionSchema(collection)
	if err != nil {
		return nil, err
	}

	views := []DocumentView{newView(&doc, &version, normalizeLocale(locale))}
	if err := fill(db, sc, views, reconstruct); err != nil {
		return nil, wrapStorage("load records", doc.CollectionID, doc.DocumentID, err)
	}
	return &views[0], nil
}

// ListDocumentHistory returns one page of a document's versions, superseded ones
// included, newest first unless opts say otherwise.
func ListDocumentHistory(ctx context.Context, db *gorm.DB, collectionID, documentID uint64, opts ListOptions) (*DocumentPage, error) {
	column, err := opts.normalize(historyOrder, "version", true)
	if err != nil {
		return nil, err
	}

	db = db.WithContext(ctx)
	collection, err := GetCollectionByID(ctx, db, collectionID)
	if err != nil {
		return nil, err
	}
	sc, err := CollectionSchema(collection)
	if err != nil {
		return nil, err
	}

	var doc models.Document
	if err := quiet(db).Where("collection_id = ?", collectionID).First(&doc, documentID).Error; err != nil {
		return nil, notFound("document", documentID, "", "list history", err)
	}

	var total int64
	if err := db.Model(&models.DocumentVersion{}).Where("document_id = ?", documentID).Count(&total).Error; err != nil {
		return nil, wrapStorage("count versions", collectionID, documentID, err)
	}

	var versions []models.DocumentVersion
	err = db.Clauses(hints.Comment("select", "contentdb:list_history")).
		Where("document_id = ?", documentID).
		Order(clause.OrderByColumn{Column: clause.Column{Name: column}, Desc: opts.Desc}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "version_id"}, Desc: opts.Desc}).
		Limit(opts.PageSize).
		Offset((opts.Page - 1) * opts.PageSize).
		Find(&versions).Error
	if err != nil {
		return nil, wrapStorage("list versions", collectionID, documentID, err)
	}

	views := make([]DocumentView, len(versions))
	for i := range versions {
		views[i] = newView(&doc, &versions[i], opts.Locale)
	}
	if err := fill(db, sc, views, true); err != nil {
		return nil, wrapStorage("load records", collectionID, documentID, err)
	}

	return &DocumentPage{Documents: views, Meta: opts.meta(total)}, nil
}

func normalizeLocale(locale string) string {
	if locale == "" {
		return schema.DefaultLocale
	}
	return locale
}

func newView(doc *models.Document, v *models.DocumentVersion, locale string) DocumentView {
	return DocumentView{
		ID:           doc.DocumentID,
		CollectionID: doc.CollectionID,
		Path:         doc.Path,
		Status:       v.Status,
		Version:      v.VersionNumber,
		VersionID:    v.VersionID,
		IsCurrent:    v.IsCurrent,
		Locale:       locale,
		CreatedBy:    v.CreatedBy,
		CreatedAt:    v.CreatedAt,
		UpdatedAt:    doc.UpdatedAt,
	}
}

// fill loads the records of every view's version in one pass per value store and
// reconstructs them, or attaches them flat when reconstruct is off.
func fill(db *gorm.DB, sc *schema.Collection, views []DocumentView, reconstruct bool) error {
	if len(views) == 0 {
		return nil
	}
	ids := make([]uint64, len(views))
	for i := range views {
		ids[i] = views[i].VersionID
	}
	locale := views[0].Locale
	if !reconstruct {
		// flat output is unfiltered
		locale = schema.AllLocales
	}
	loaded, err := loadRecords(db, ids, locale)
	if err != nil {
		return err
	}
	for i := range views {
		recs := loaded[views[i].VersionID]
		if !reconstruct {
			views[i].Records = recs
			if views[i].Records == nil {
				views[i].Records = []records.Record{}
			}
			continue
		}
		views[i].Data = records.Reconstruct(recs, sc, views[i].Locale)
	}
	return nil
}

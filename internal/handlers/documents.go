// documents.go
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

package handlers

import (
	"net/url"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/localnerve/jam-build-contentdb/internal/config"
	"github.com/localnerve/jam-build-contentdb/internal/middleware"
	"github.com/localnerve/jam-build-contentdb/internal/services"
	"github.com/localnerve/jam-build-contentdb/internal/types"
	"github.com/localnerve/jam-build-contentdb/internal/utils"
	"gorm.io/gorm"
)

// DocumentHandler handles document and version routes
type DocumentHandler struct {
	DB     *gorm.DB
	Config *config.Config
}

// DocumentInput is the request body of document writes
type DocumentInput struct {
	Path      string         `json:"path"`
	Data      map[string]any `json:"data"`
	Status    string         `json:"status,omitempty"`
	Locale    string         `json:"locale,omitempty"`
	CreatedBy *uuid.UUID     `json:"created_by,omitempty"`
	// Version is the current version the client edited. Omitted skips the check.
	Version *types.FlexUint64 `json:"version,omitempty" swaggertype:"string"`
}

func (in *DocumentInput) versionInput(collectionID uint64, documentID *uint64) services.VersionInput {
	return services.VersionInput{
		DocumentID:      documentID,
		CollectionID:    collectionID,
		Data:            in.Data,
		Path:            in.Path,
		Locale:          in.Locale,
		Status:          in.Status,
		CreatedBy:       in.CreatedBy,
		ExpectedVersion: in.Version.Ptr(),
	}
}

// ListDocuments handles GET /api/collections/:collection/documents
// @Summary List documents
// @Description List the current versions of a collection's documents, reconstructed in the requested locale
// @Tags Documents
// @Produce json
// @Param collection path string true "Collection id or path"
// @Param locale query string false "Locale code or 'all'"
// @Param page query int false "Page number, from 1"
// @Param page_size query int false "Page size"
// @Param order query string false "id, path, status, created_at, updated_at or version"
// @Param desc query bool false "Descending order"
// @Param q query string false "Case-insensitive text search"
// @Param status query string false "draft, published or archived"
// @Success 200 {object} services.DocumentPage
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /collections/{collection}/documents [get]
func (h *DocumentHandler) ListDocuments(c *fiber.Ctx) error {
	collection, err := lookupCollection(c.UserContext(), h.DB, c.Params("collection"))
	if err != nil {
		return utils.EngineErrorResponse(c, err)
	}
	locale := middleware.ResolveLocale(c, collectionLocales(collection))
	if err := checkLocale(collection, locale); err != nil {
		return utils.EngineErrorResponse(c, err)
	}
	opts, err := parseListOptions(c, h.Config, locale)
	if err != nil {
		return utils.EngineErrorResponse(c, err)
	}

	page, err := services.ListDocuments(c.UserContext(), h.DB, collection.CollectionID, opts)
	if err != nil {
		return utils.EngineErrorResponse(c, err)
	}
	return utils.SuccessResponse(c, page, fiber.StatusOK)
}

// CreateDocuments handles POST /api/collections/:collection/documents
// @Summary Create documents
// @Description Create one document, or several from an array body. Each document is written in its own transaction.
// @Tags Documents
// @Accept json
// @Produce json
// @Param collection path string true "Collection id or path"
// @Param body body DocumentInput true "Document or array of documents"
// @Success 201 {object} utils.BatchResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /collections/{collection}/documents [post]
func (h *DocumentHandler) CreateDocuments(c *fiber.Ctx) error {
	collection, err := lookupCollection(c.UserContext(), h.DB, c.Params("collection"))
	if err != nil {
		return utils.EngineErrorResponse(c, err)
	}

	var body types.FlexList[DocumentInput]
	if err := body.UnmarshalJSON(c.Body()); err != nil || len(body) == 0 {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "data.validation.input")
	}

	results := make([]*services.VersionResult, 0, len(body))
	var affected int64
	for _, in := range body.Slice() {
		in.Version = nil
		res, err := services.CreateOrVersionDocument(c.UserContext(), h.DB, in.versionInput(collection.CollectionID, nil))
		if err != nil {
			return utils.EngineErrorResponse(c, err)
		}
		results = append(results, res)
		affected += res.Records
	}
	return utils.BatchSuccessResponse(c, fiber.StatusCreated, results, affected)
}

// UpdateDocument handles PUT /api/collections/:collection/documents/:id
// @Summary Version a document
// @Description Write a new current version of a document
// @Tags Documents
// @Accept json
// @Produce json
// @Param collection path string true "Collection id or path"
// @Param id path int true "Document id"
// @Param body body DocumentInput true "Document"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /collections/{collection}/documents/{id} [put]
func (h *DocumentHandler) UpdateDocument(c *fiber.Ctx) error {
	collection, err := lookupCollection(c.UserContext(), h.DB, c.Params("collection"))
	if err != nil {
		return utils.EngineErrorResponse(c, err)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return utils.EngineErrorResponse(c, err)
	}

	var body types.FlexList[DocumentInput]
	if err := body.UnmarshalJSON(c.Body()); err != nil || len(body) != 1 {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "data.validation.input")
	}

	in := body[0]
	res, err := services.CreateOrVersionDocument(c.UserContext(), h.DB, in.versionInput(collection.CollectionID, &id))
	if err != nil {
		return utils.EngineErrorResponse(c, err)
	}
	return utils.MutationSuccessResponse(c, fiber.StatusOK, res.DocumentID, res.VersionNumber, res.Records)
}

// GetDocument handles GET /api/collections/:collection/documents/:id
// @Summary Get a document
// @Description Get the current version of a document. reconstruct=false returns the flat field value records.
// @Tags Documents
// @Produce json
// @Param collection path string true "Collection id or path"
// @Param id path int true "Document id"
// @Param locale query string false "Locale code or 'all'"
// @Param reconstruct query bool false "Reconstruct the nested document (default true)"
// @Success 200 {object} services.DocumentView
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /collections/{collection}/documents/{id} [get]
func (h *DocumentHandler) GetDocument(c *fiber.Ctx) error {
	collection, err := lookupCollection(c.UserContext(), h.DB, c.Params("collection"))
	if err != nil {
		return utils.EngineErrorResponse(c, err)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return utils.EngineErrorResponse(c, err)
	}
	locale := middleware.ResolveLocale(c, collectionLocales(collection))
	if err := checkLocale(collection, locale); err != nil {
		return utils.EngineErrorResponse(c, err)
	}

	view, err := services.GetDocumentByID(c.UserContext(), h.DB, collection.CollectionID, id, locale, c.QueryBool("reconstruct", true))
	if err != nil {
		return utils.EngineErrorResponse(c, err)
	}
	return utils.SuccessResponse(c, view, fiber.StatusOK)
}

// GetDocumentByPath handles GET /api/collections/:collection/paths/*
// @Summary Get a document by path
// @Description Get the current version of the document at a path
// @Tags Documents
// @Produce json
// @Param collection path string true "Collection id or path"
// @Param path path string true "Document path"
// @Param locale query string false "Locale code or 'all'"
// @Param reconstruct query bool false "Reconstruct the nested document (default true)"
// @Success 200 {object} services.DocumentView
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /collections/{collection}/paths/{path} [get]
func (h *DocumentHandler) GetDocumentByPath(c *fiber.Ctx) error {
	collection, err := lookupCollection(c.UserContext(), h.DB, c.Params("collection"))
	if err != nil {
		return utils.EngineErrorResponse(c, err)
	}
	path, err := url.PathUnescape(c.Params("*"))
	if err != nil || path == "" {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "data.validation.input")
	}
	locale := middleware.ResolveLocale(c, collectionLocales(collection))
	if err := checkLocale(collection, locale); err != nil {
		return utils.EngineErrorResponse(c, err)
	}

	view, err := services.GetDocumentByPath(c.UserContext(), h.DB, collection.CollectionID, path, locale, c.QueryBool("reconstruct", true))
	if err != nil {
		return utils.EngineErrorResponse(c, err)
	}
	return utils.SuccessResponse(c, view, fiber.StatusOK)
}

// DeleteDocument handles DELETE /api/collections/:collection/documents/:id
// @Summary Delete a document
// @Description Delete a document with all of its versions
// @Tags Documents
// @Produce json
// @Param collection path string true "Collection id or path"
// @Param id path int true "Document id"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /collections/{collection}/documents/{id} [delete]
func (h *DocumentHandler) DeleteDocument(c *fiber.Ctx) error {
	collection, err := lookupCollection(c.UserContext(), h.DB, c.Params("collection"))
	if err != nil {
		return utils.EngineErrorResponse(c, err)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return utils.EngineErrorResponse(c, err)
	}
	if err := services.DeleteDocument(c.UserContext(), h.DB, collection.CollectionID, id); err != nil {
		return utils.EngineErrorResponse(c, err)
	}
	return utils.MutationSuccessResponse(c, fiber.StatusOK, id, 0, 1)
}

// ListDocumentHistory handles GET /api/collections/:collection/documents/:id/history
// @Summary List document history
// @Description List every version of a document, newest first by default
// @Tags Documents
// @Produce json
// @Param collection path string true "Collection id or path"
// @Param id path int true "Document id"
// @Param locale query string false "Locale code or 'all'"
// @Param page query int false "Page number, from 1"
// @Param page_size query int false "Page size"
// @Param order query string false "version, created_at or id"
// @Param desc query bool false "Descending order"
// @Success 200 {object} services.DocumentPage
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /collections/{collection}/documents/{id}/history [get]
func (h *DocumentHandler) ListDocumentHistory(c *fiber.Ctx) error {
	collection, err := lookupCollection(c.UserContext(), h.DB, c.Params("collection"))
	if err != nil {
		return utils.EngineErrorResponse(c, err)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return utils.EngineErrorResponse(c, err)
	}
	locale := middleware.ResolveLocale(c, collectionLocales(collection))
	if err := checkLocale(collection, locale); err != nil {
		return utils.EngineErrorResponse(c, err)
	}
	opts, err := parseListOptions(c, h.Config, locale)
	if err != nil {
		return utils.EngineErrorResponse(c, err)
	}

	page, err := services.ListDocumentHistory(c.UserContext(), h.DB, collection.CollectionID, id, opts)
	if err != nil {
		return utils.EngineErrorResponse(c, err)
	}
	return utils.SuccessResponse(c, page, fiber.StatusOK)
}

// GetVersion handles GET /api/versions/:version
// @Summary Get a document version
// @Description Get any version of a document, current or superseded
// @Tags Documents
// @Produce json
// @Param version path int true "Version id"
// @Param locale query string false "Locale code or 'all'"
// @Param reconstruct query bool false "Reconstruct the nested document (default true)"
// @Success 200 {object} services.DocumentView
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /versions/{version} [get]
func (h *DocumentHandler) GetVersion(c *fiber.Ctx) error {
	id, err := parseID(c, "version")
	if err != nil {
		return utils.EngineErrorResponse(c, err)
	}
	locale := middleware.ResolveLocale(c, nil)

	view, err := services.GetDocumentVersion(c.UserContext(), h.DB, id, locale, c.QueryBool("reconstruct", true))
	if err != nil {
		return utils.EngineErrorResponse(c, err)
	}
	return utils.SuccessResponse(c, view, fiber.StatusOK)
}

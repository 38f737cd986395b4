// collections.go
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
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/jam-build-contentdb/internal/config"
	"github.com/localnerve/jam-build-contentdb/internal/schema"
	"github.com/localnerve/jam-build-contentdb/internal/services"
	"github.com/localnerve/jam-build-contentdb/internal/utils"
	"gorm.io/gorm"
)

// CollectionHandler handles collection routes
type CollectionHandler struct {
	DB     *gorm.DB
	Config *config.Config
}

// ListCollections handles GET /api/collections
// @Summary List collections
// @Description List every collection with its stored schema
// @Tags Collections
// @Produce json
// @Success 200 {array} models.Collection
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /collections [get]
func (h *CollectionHandler) ListCollections(c *fiber.Ctx) error {
	result, err := services.ListCollections(c.UserContext(), h.DB)
	if err != nil {
		return utils.EngineErrorResponse(c, err)
	}
	return utils.SuccessResponse(c, result, fiber.StatusOK)
}

// CreateCollection handles POST /api/collections
// @Summary Create a collection
// @Description Create a collection from a JSON or YAML schema
// @Tags Collections
// @Accept json
// @Accept x-yaml
// @Produce json
// @Param body body schema.Collection true "Collection schema"
// @Success 201 {object} models.Collection
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /collections [post]
func (h *CollectionHandler) CreateCollection(c *fiber.Ctx) error {
	sc, err := schema.Parse(c.Body())
	if err != nil {
		return utils.EngineErrorResponse(c, err)
	}

	result, err := services.CreateCollection(c.UserContext(), h.DB, sc)
	if err != nil {
		return utils.EngineErrorResponse(c, err)
	}
	return utils.SuccessResponse(c, result, fiber.StatusCreated)
}

// GetCollection handles GET /api/collections/:collection
// @Summary Get a collection
// @Description Get a collection by id or path
// @Tags Collections
// @Produce json
// @Param collection path string true "Collection id or path"
// @Success 200 {object} models.Collection
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /collections/{collection} [get]
func (h *CollectionHandler) GetCollection(c *fiber.Ctx) error {
	result, err := lookupCollection(c.UserContext(), h.DB, c.Params("collection"))
	if err != nil {
		return utils.EngineErrorResponse(c, err)
	}
	return utils.SuccessResponse(c, result, fiber.StatusOK)
}

// DeleteCollection handles DELETE /api/collections/:collection
// @Summary Delete a collection
// @Description Delete a collection with all of its documents, versions and values
// @Tags Collections
// @Produce json
// @Param collection path string true "Collection id or path"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /collections/{collection} [delete]
func (h *CollectionHandler) DeleteCollection(c *fiber.Ctx) error {
	collection, err := lookupCollection(c.UserContext(), h.DB, c.Params("collection"))
	if err != nil {
		return utils.EngineErrorResponse(c, err)
	}
	if err := services.DeleteCollection(c.UserContext(), h.DB, collection.CollectionID); err != nil {
		return utils.EngineErrorResponse(c, err)
	}
	return utils.MutationSuccessResponse(c, fiber.StatusOK, 0, 0, 1)
}

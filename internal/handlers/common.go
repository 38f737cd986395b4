// common.go
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
	"context"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/jam-build-contentdb/internal/config"
	"github.com/localnerve/jam-build-contentdb/internal/models"
	"github.com/localnerve/jam-build-contentdb/internal/schema"
	"github.com/localnerve/jam-build-contentdb/internal/services"
	"github.com/localnerve/jam-build-contentdb/internal/types"
	"gorm.io/gorm"
)

// parseID reads a positive integer route parameter
func parseID(c *fiber.Ctx, name string) (uint64, error) {
	raw := c.Params(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, types.ValidationErrorf(name, "invalid id %q", raw)
	}
	return id, nil
}

// parseListOptions reads paging, ordering, search and status query parameters
func parseListOptions(c *fiber.Ctx, cfg *config.Config, locale string) (services.ListOptions, error) {
	opts := services.ListOptions{
		Locale:      locale,
		PageSize:    cfg.PageSizeDefault,
		MaxPageSize: cfg.PageSizeMax,
		Order:       strings.TrimSpace(c.Query("order")),
		Desc:        c.QueryBool("desc", false),
		Query:       c.Query("q"),
		Status:      strings.TrimSpace(c.Query("status")),
	}

	for _, p := range []struct {
		key string
		dst *int
	}{{"page", &opts.Page}, {"page_size", &opts.PageSize}} {
		raw := c.Query(p.key)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return opts, types.ValidationErrorf(p.key, "must be a positive integer")
		}
		*p.dst = n
	}

	return opts, nil
}

// lookupCollection resolves the :collection route parameter, a numeric id or a path
func lookupCollection(ctx context.Context, db *gorm.DB, param string) (*models.Collection, error) {
	if id, err := strconv.ParseUint(param, 10, 64); err == nil && id > 0 {
		return services.GetCollectionByID(ctx, db, id)
	}
	return services.GetCollectionByPath(ctx, db, param)
}

// collectionLocales returns the declared locales of a stored collection
func collectionLocales(m *models.Collection) []string {
	sc, err := services.CollectionSchema(m)
	if err != nil {
		return nil
	}
	return sc.Locales
}

// checkLocale rejects codes the collection does not accept. "all" and the default
// locale are always accepted.
func checkLocale(m *models.Collection, locale string) error {
	if locale == schema.AllLocales || locale == schema.DefaultLocale {
		return nil
	}
	sc, err := services.CollectionSchema(m)
	if err != nil {
		return err
	}
	if !sc.HasLocale(locale) {
		return types.ValidationErrorf("locale", "locale %q is not supported", locale)
	}
	return nil
}

package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/jam-build-contentdb/internal/config"
	"github.com/localnerve/jam-build-contentdb/internal/middleware"
	"gorm.io/gorm"
)

// Routes mounts the API on api, normally the /api group
func Routes(api fiber.Router, db *gorm.DB, cfg *config.Config) {
	api.Use(middleware.VersionMiddleware())
	api.Use(middleware.LocaleMiddleware())

	health := &HealthHandler{DB: db, Config: cfg}
	collections := &CollectionHandler{DB: db, Config: cfg}
	documents := &DocumentHandler{DB: db, Config: cfg}

	api.Get("/health", health.Health)

	api.Get("/collections", collections.ListCollections)
	api.Post("/collections", collections.CreateCollection)
	api.Get("/collections/:collection", collections.GetCollection)
	api.Delete("/collections/:collection", collections.DeleteCollection)

	api.Get("/collections/:collection/documents", documents.ListDocuments)
	api.Post("/collections/:collection/documents", documents.CreateDocuments)
	api.Get("/collections/:collection/documents/:id", documents.GetDocument)
	api.Put("/collections/:collection/documents/:id", documents.UpdateDocument)
	api.Delete("/collections/:collection/documents/:id", documents.DeleteDocument)
	api.Get("/collections/:collection/documents/:id/history", documents.ListDocumentHistory)
	api.Get("/collections/:collection/paths/*", documents.GetDocumentByPath)

	api.Get("/versions/:version", documents.GetVersion)
}

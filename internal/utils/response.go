package utils

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/jam-build-contentdb/internal/types"
)

// SuccessResponse sends a standard success response
func SuccessResponse(c *fiber.Ctx, data interface{}, status int) error {
	return c.Status(status).JSON(data)
}

// ErrorResponse sends a standard error response
func ErrorResponse(c *fiber.Ctx, message string, status int, errorType string) error {
	return c.Status(status).JSON(fiber.Map{
		"status":    status,
		"message":   message,
		"ok":        false,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"url":       c.OriginalURL(),
		"type":      errorType,
	})
}

// EngineErrorResponse renders an engine error with the status its type maps to
func EngineErrorResponse(c *fiber.Ctx, err error) error {
	e := types.HTTPError(err)
	if e.Type == "version" {
		return VersionErrorResponse(c)
	}
	return ErrorResponse(c, e.Message, e.Code, e.Type)
}

// VersionErrorResponse sends a version conflict error (409)
func VersionErrorResponse(c *fiber.Ctx) error {
	return c.Status(fiber.StatusConflict).JSON(fiber.Map{
		"status":       fiber.StatusConflict,
		"message":      "E_VERSION - Refresh and reconcile with current version and retry.",
		"ok":           false,
		"versionError": true,
		"timestamp":    time.Now().UTC().Format(time.RFC3339),
		"url":          c.OriginalURL(),
		"type":         "version",
	})
}

// NotFoundResponse sends a 404 not found response
func NotFoundResponse(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"status":    fiber.StatusNotFound,
		"message":   message,
		"ok":        false,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"url":       c.OriginalURL(),
	})
}

// MutationSuccessResponse sends a success response for a write that produced a
// document version
func MutationSuccessResponse(c *fiber.Ctx, status int, documentID, newVersion uint64, affectedRows int64) error {
	return c.Status(status).JSON(fiber.Map{
		"message":      "Success",
		"ok":           true,
		"documentId":   documentID,
		"newVersion":   fmt.Sprintf("%d", newVersion),
		"timestamp":    time.Now().UTC().Format(time.RFC3339),
		"affectedRows": affectedRows,
	})
}

// BatchSuccessResponse sends a success response for a multi-document write
func BatchSuccessResponse(c *fiber.Ctx, status int, results interface{}, affectedRows int64) error {
	return c.Status(status).JSON(fiber.Map{
		"message":      "Success",
		"ok":           true,
		"results":      results,
		"timestamp":    time.Now().UTC().Format(time.RFC3339),
		"affectedRows": affectedRows,
	})
}

// ErrorResponseStruct defines the schema for error responses
type ErrorResponseStruct struct {
	Status       int    `json:"status"`
	Message      string `json:"message"`
	Ok           bool   `json:"ok"`
	Timestamp    string `json:"timestamp"`
	URL          string `json:"url"`
	Type         string `json:"type,omitempty"`
	VersionError bool   `json:"versionError,omitempty"`
}

// SuccessResponseStruct defines the schema for mutation success responses
type SuccessResponseStruct struct {
	Message      string `json:"message"`
	Ok           bool   `json:"ok"`
	DocumentID   uint64 `json:"documentId"`
	NewVersion   string `json:"newVersion"`
	Timestamp    string `json:"timestamp"`
	AffectedRows int64  `json:"affectedRows"`
}

// BatchResponseStruct defines the schema for multi-document write responses
type BatchResponseStruct struct {
	Message      string        `json:"message"`
	Ok           bool          `json:"ok"`
	Results      []interface{} `json:"results"`
	Timestamp    string        `json:"timestamp"`
	AffectedRows int64         `json:"affectedRows"`
}

package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// APIVersion is the version of the document API served under /api
const APIVersion = "1.0.0"

const (
	apiVersionHeader = "X-Api-Version"
	apiVersionKey    = "apiVersion"
)

// VersionMiddleware reads the X-Api-Version request header and rejects major versions
// this server does not speak. Minor and patch levels are accepted as given; a bare "1"
// or "1.0" is expanded. The served version is echoed on every response.
func VersionMiddleware() fiber.Handler {
	major, _, _ := strings.Cut(APIVersion, ".")

	return func(c *fiber.Ctx) error {
		c.Set(apiVersionHeader, APIVersion)

		version := strings.TrimPrefix(strings.TrimSpace(c.Get(apiVersionHeader, APIVersion)), "v")
		switch strings.Count(version, ".") {
		case 0:
			version += ".0.0"
		case 1:
			version += ".0"
		}

		if requested, _, _ := strings.Cut(version, "."); requested != major {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"status":  fiber.StatusBadRequest,
				"message": "Unsupported API version " + version,
				"ok":      false,
				"url":     c.OriginalURL(),
				"type":    "data.validation.version",
			})
		}

		c.Locals(apiVersionKey, version)
		return c.Next()
	}
}

// RequestedVersion returns the API version negotiated by VersionMiddleware
func RequestedVersion(c *fiber.Ctx) string {
	if v, ok := c.Locals(apiVersionKey).(string); ok {
		return v
	}
	return APIVersion
}

package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/jam-build-contentdb/internal/schema"
	"golang.org/x/text/language"
)

const (
	localeKey         = "locale"
	acceptLanguageKey = "acceptLanguage"
)

// LocaleMiddleware stores the explicit ?locale= query value and the parsed
// Accept-Language preferences for ResolveLocale
func LocaleMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(localeKey, strings.TrimSpace(c.Query("locale")))

		if header := c.Get(fiber.HeaderAcceptLanguage); header != "" {
			if tags, _, err := language.ParseAcceptLanguage(header); err == nil {
				c.Locals(acceptLanguageKey, tags)
			}
		}

		return c.Next()
	}
}

// ResolveLocale picks the locale of a request. An explicit ?locale= wins. Otherwise the
// Accept-Language preferences are matched against supported, or taken as given when
// supported is empty. Without either the default locale is used.
func ResolveLocale(c *fiber.Ctx, supported []string) string {
	if explicit, _ := c.Locals(localeKey).(string); explicit != "" {
		return explicit
	}

	prefs, _ := c.Locals(acceptLanguageKey).([]language.Tag)
	if len(prefs) == 0 {
		return schema.DefaultLocale
	}

	if len(supported) == 0 {
		if prefs[0] == language.Und {
			return schema.DefaultLocale
		}
		return prefs[0].String()
	}

	var tags []language.Tag
	var codes []string
	for _, code := range supported {
		tag, err := language.Parse(code)
		if err != nil {
			continue
		}
		tags = append(tags, tag)
		codes = append(codes, code)
	}
	if len(tags) == 0 {
		return schema.DefaultLocale
	}

	_, index, confidence := language.NewMatcher(tags).Match(prefs...)
	if confidence == language.No {
		return schema.DefaultLocale
	}
	return codes[index]
}

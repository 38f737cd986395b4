package middleware

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resolve(t *testing.T, supported []string, query, acceptLanguage string) string {
	t.Helper()

	app := fiber.New()
	app.Use(LocaleMiddleware())
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(ResolveLocale(c, supported))
	})

	target := "/"
	if query != "" {
		target += "?locale=" + query
	}
	req := httptest.NewRequest("GET", target, nil)
	if acceptLanguage != "" {
		req.Header.Set(fiber.HeaderAcceptLanguage, acceptLanguage)
	}

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func TestResolveLocale(t *testing.T) {
	supported := []string{"en", "fr", "pt-BR"}

	tests := []struct {
		name      string
		supported []string
		query     string
		header    string
		want      string
	}{
		{"nothing", supported, "", "", "default"},
		{"explicit wins", supported, "fr", "en", "fr"},
		{"explicit unchecked", supported, "all", "", "all"},
		{"header exact", supported, "", "fr", "fr"},
		{"header region", supported, "", "fr-CA,en;q=0.8", "fr"},
		{"header weights", supported, "", "de;q=0.9,pt-BR;q=0.95", "pt-BR"},
		{"header unsupported", supported, "", "ja", "default"},
		{"unconstrained", nil, "", "es-MX", "es-MX"},
		{"wildcard", nil, "", "*", "default"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resolve(t, tt.supported, tt.query, tt.header))
		})
	}
}

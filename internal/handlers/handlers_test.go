package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/jam-build-contentdb/internal/config"
	"github.com/localnerve/jam-build-contentdb/internal/database"
	"github.com/localnerve/jam-build-contentdb/internal/handlers"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
)

const pagesCollection = `
path: pages
locales: [en, fr]
fields:
  - name: title
    type: text
    localized: true
  - name: slug
    type: text
    unique: true
  - name: views
    type: integer
  - name: links
    type: array
    fields:
      - name: url
        type: text
`

// setupTestApp creates a Fiber app with the API mounted on an in-memory SQLite database
func setupTestApp(t *testing.T) *fiber.App {
	db, err := database.Open(sqlite.Open(":memory:?_foreign_keys=on"), zap.NewNop(), false)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get test database: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	cfg := &config.Config{DBType: "sqlite", DBDatabase: ":memory:", PageSizeDefault: 20, PageSizeMax: 100}

	app := fiber.New()
	handlers.Routes(app.Group("/api"), db, cfg)
	return app
}

func do(t *testing.T, app *fiber.App, method, url, body string, headers ...string) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, url, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to execute %s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read response: %v", err)
	}
	var out map[string]any
	if len(raw) > 0 && raw[0] == '{' {
		if err := json.Unmarshal(raw, &out); err != nil {
			t.Fatalf("Failed to decode response %s: %v", raw, err)
		}
	}
	return resp.StatusCode, out
}

func createPages(t *testing.T, app *fiber.App) {
	t.Helper()
	status, body := do(t, app, "POST", "/api/collections", pagesCollection)
	if status != http.StatusCreated {
		t.Fatalf("Expected 201 creating collection, got %d: %v", status, body)
	}
}

func createDocument(t *testing.T, app *fiber.App, body string) uint64 {
	t.Helper()
	status, resp := do(t, app, "POST", "/api/collections/pages/documents", body)
	if status != http.StatusCreated {
		t.Fatalf("Expected 201 creating document, got %d: %v", status, resp)
	}
	results := resp["results"].([]any)
	return uint64(results[0].(map[string]any)["document_id"].(float64))
}

func TestHealth(t *testing.T) {
	app := setupTestApp(t)

	status, body := do(t, app, "GET", "/api/health", "")
	if status != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", status)
	}
	if body["status"] != "healthy" {
		t.Errorf("Expected healthy, got %v", body["status"])
	}
}

func TestCollectionsEndpoints(t *testing.T) {
	app := setupTestApp(t)
	createPages(t, app)

	status, body := do(t, app, "POST", "/api/collections", pagesCollection)
	if status != http.StatusConflict {
		t.Errorf("Expected 409 for a duplicate collection, got %d", status)
	}
	if body["type"] != "data.constraint" {
		t.Errorf("Expected data.constraint, got %v", body["type"])
	}

	status, body = do(t, app, "POST", "/api/collections", `{"path": "Bad Path", "fields": []}`)
	if status != http.StatusBadRequest || body["type"] != "data.schema" {
		t.Errorf("Expected 400 data.schema, got %d %v", status, body["type"])
	}

	status, body = do(t, app, "GET", "/api/collections/pages", "")
	if status != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", status)
	}
	if body["path"] != "pages" {
		t.Errorf("Expected path pages, got %v", body["path"])
	}
	id := uint64(body["id"].(float64))

	status, _ = do(t, app, "GET", fmt.Sprintf("/api/collections/%d", id), "")
	if status != http.StatusOK {
		t.Errorf("Expected collection by id, got %d", status)
	}

	status, _ = do(t, app, "GET", "/api/collections/missing", "")
	if status != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", status)
	}

	status, _ = do(t, app, "DELETE", "/api/collections/pages", "")
	if status != http.StatusOK {
		t.Errorf("Expected delete 200, got %d", status)
	}
	status, _ = do(t, app, "DELETE", "/api/collections/pages", "")
	if status != http.StatusNotFound {
		t.Errorf("Expected second delete 404, got %d", status)
	}
}

func TestDocumentLifecycle(t *testing.T) {
	app := setupTestApp(t)
	createPages(t, app)

	id := createDocument(t, app, `{
		"path": "blog/first-post",
		"data": {
			"title": {"default": "First", "fr": "Premier"},
			"slug": "first",
			"views": 1,
			"links": [{"url": "/a"}, {"url": "/b"}]
		}
	}`)

	// version 2 against version 1
	status, body := do(t, app, "PUT", fmt.Sprintf("/api/collections/pages/documents/%d", id),
		`{"path": "blog/first-post", "version": "1", "status": "published", "data": {"slug": "first", "views": 2}}`)
	if status != http.StatusOK {
		t.Fatalf("Expected update 200, got %d: %v", status, body)
	}
	if body["newVersion"] != "2" {
		t.Errorf("Expected newVersion 2, got %v", body["newVersion"])
	}

	// a stale version is rejected
	status, body = do(t, app, "PUT", fmt.Sprintf("/api/collections/pages/documents/%d", id),
		`{"version": 1, "data": {"slug": "first"}}`)
	if status != http.StatusConflict || body["versionError"] != true {
		t.Errorf("Expected 409 versionError, got %d %v", status, body)
	}

	status, body = do(t, app, "GET", fmt.Sprintf("/api/collections/pages/documents/%d", id), "")
	if status != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", status)
	}
	data := body["data"].(map[string]any)
	if data["views"] != float64(2) {
		t.Errorf("Expected views 2, got %v", data["views"])
	}
	if body["status"] != "published" || body["version"] != float64(2) {
		t.Errorf("Unexpected document view: %v", body)
	}

	// version 1 is still readable
	status, body = do(t, app, "GET", fmt.Sprintf("/api/collections/pages/documents/%d/history", id), "")
	if status != http.StatusOK {
		t.Fatalf("Expected history 200, got %d", status)
	}
	versions := body["documents"].([]any)
	if len(versions) != 2 {
		t.Fatalf("Expected 2 versions, got %d", len(versions))
	}
	v1 := versions[1].(map[string]any)
	v1ID := uint64(v1["version_id"].(float64))

	status, body = do(t, app, "GET", fmt.Sprintf("/api/versions/%d?locale=fr", v1ID), "")
	if status != http.StatusOK {
		t.Fatalf("Expected version 200, got %d", status)
	}
	data = body["data"].(map[string]any)
	if data["title"] != "Premier" {
		t.Errorf("Expected fr title, got %v", data["title"])
	}
	if links := data["links"].([]any); len(links) != 2 {
		t.Errorf("Expected 2 links, got %v", links)
	}
	if body["is_current"] != false {
		t.Errorf("Expected version 1 not current")
	}

	status, _ = do(t, app, "DELETE", fmt.Sprintf("/api/collections/pages/documents/%d", id), "")
	if status != http.StatusOK {
		t.Errorf("Expected delete 200, got %d", status)
	}
	status, _ = do(t, app, "GET", fmt.Sprintf("/api/collections/pages/documents/%d", id), "")
	if status != http.StatusNotFound {
		t.Errorf("Expected 404 after delete, got %d", status)
	}
}

func TestDocumentLocaleNegotiation(t *testing.T) {
	app := setupTestApp(t)
	createPages(t, app)
	id := createDocument(t, app, `{"path": "home", "data": {"title": {"default": "Home", "fr": "Accueil"}, "slug": "home"}}`)
	url := fmt.Sprintf("/api/collections/pages/documents/%d", id)

	_, body := do(t, app, "GET", url, "", "Accept-Language", "fr-CA, en;q=0.5")
	if title := body["data"].(map[string]any)["title"]; title != "Accueil" {
		t.Errorf("Expected Accept-Language to select fr, got %v", title)
	}

	_, body = do(t, app, "GET", url+"?locale=en", "", "Accept-Language", "fr")
	if title := body["data"].(map[string]any)["title"]; title != "Home" {
		t.Errorf("Expected explicit en to fall back to default, got %v", title)
	}

	_, body = do(t, app, "GET", url+"?locale=all", "")
	if title := body["data"].(map[string]any)["title"].(map[string]any); title["fr"] != "Accueil" {
		t.Errorf("Expected locale map, got %v", title)
	}

	status, _ := do(t, app, "GET", url+"?locale=de", "")
	if status != http.StatusBadRequest {
		t.Errorf("Expected 400 for an unsupported locale, got %d", status)
	}

	_, body = do(t, app, "GET", url+"?reconstruct=false", "")
	if recs := body["records"].([]any); len(recs) != 3 {
		t.Errorf("Expected 3 flat records, got %d", len(recs))
	}
}

func TestDocumentByPath(t *testing.T) {
	app := setupTestApp(t)
	createPages(t, app)
	id := createDocument(t, app, `{"path": "blog/first-post", "data": {"slug": "first"}}`)

	status, body := do(t, app, "GET", "/api/collections/pages/paths/blog/first-post", "")
	if status != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", status)
	}
	if uint64(body["id"].(float64)) != id {
		t.Errorf("Expected document %d, got %v", id, body["id"])
	}

	status, _ = do(t, app, "GET", "/api/collections/pages/paths/blog/missing", "")
	if status != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", status)
	}
}

func TestCreateDocumentsBatch(t *testing.T) {
	app := setupTestApp(t)
	createPages(t, app)

	status, body := do(t, app, "POST", "/api/collections/pages/documents", `[
		{"path": "a", "data": {"slug": "a"}},
		{"path": "b", "data": {"slug": "b", "links": [{"url": "/x"}]}}
	]`)
	if status != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %v", status, body)
	}
	if n := len(body["results"].([]any)); n != 2 {
		t.Errorf("Expected 2 results, got %d", n)
	}
	// a: slug; b: slug, element marker, url
	if body["affectedRows"] != float64(4) {
		t.Errorf("Expected 4 affected rows, got %v", body["affectedRows"])
	}

	status, body = do(t, app, "GET", "/api/collections/pages/documents?page_size=1&page=2&order=path", "")
	if status != http.StatusOK {
		t.Fatalf("Expected list 200, got %d", status)
	}
	docs := body["documents"].([]any)
	if len(docs) != 1 || docs[0].(map[string]any)["path"] != "b" {
		t.Errorf("Expected page 2 to hold b, got %v", docs)
	}
	meta := body["meta"].(map[string]any)
	if meta["total"] != float64(2) || meta["total_pages"] != float64(2) {
		t.Errorf("Unexpected meta %v", meta)
	}

	status, body = do(t, app, "POST", "/api/collections/pages/documents", `{"path": "c", "data": {"slug": "a"}}`)
	if status != http.StatusConflict || body["type"] != "data.constraint" {
		t.Errorf("Expected unique violation 409, got %d %v", status, body)
	}
}

func TestBadRequests(t *testing.T) {
	app := setupTestApp(t)
	createPages(t, app)

	tests := []struct {
		method string
		url    string
		body   string
		status int
	}{
		{"POST", "/api/collections/pages/documents", `not json`, http.StatusBadRequest},
		{"POST", "/api/collections/pages/documents", `[]`, http.StatusBadRequest},
		{"POST", "/api/collections/pages/documents", `{"path": "x", "data": {"views": "many"}}`, http.StatusBadRequest},
		{"POST", "/api/collections/missing/documents", `{"path": "x", "data": {}}`, http.StatusNotFound},
		{"PUT", "/api/collections/pages/documents/1", `[{"data": {}}, {"data": {}}]`, http.StatusBadRequest},
		{"PUT", "/api/collections/pages/documents/abc", `{"data": {}}`, http.StatusBadRequest},
		{"GET", "/api/collections/pages/documents?page=0", "", http.StatusBadRequest},
		{"GET", "/api/collections/pages/documents?order=slug", "", http.StatusBadRequest},
		{"GET", "/api/collections/pages/documents?status=gone", "", http.StatusBadRequest},
		{"GET", "/api/collections/pages/documents/99", "", http.StatusNotFound},
		{"GET", "/api/versions/0", "", http.StatusBadRequest},
	}
	for _, tt := range tests {
		status, body := do(t, app, tt.method, tt.url, tt.body)
		if status != tt.status {
			t.Errorf("%s %s: expected %d, got %d %v", tt.method, tt.url, tt.status, status, body)
		}
		if body["ok"] != false {
			t.Errorf("%s %s: expected ok false", tt.method, tt.url)
		}
	}
}

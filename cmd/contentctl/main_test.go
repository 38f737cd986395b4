package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/localnerve/jam-build-contentdb/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// setupEnv points the CLI at a fresh SQLite file
func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("DB_TYPE", "sqlite")
	t.Setenv("DB_DATABASE", filepath.Join(dir, "content.db"))
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("LOG_DEBUG", "false")

	prev := zap.L()
	t.Cleanup(func() { zap.ReplaceGlobals(prev) })
	return dir
}

// execute parses args like the command line would and runs the command, returning
// what it printed
func execute(t *testing.T, dir string, args ...string) ([]byte, error) {
	t.Helper()
	args = append([]string{"--env", filepath.Join(dir, "missing.env")}, args...)
	command, err := app.Parse(args)
	require.NoError(t, err)

	var buf bytes.Buffer
	stdout = &buf
	t.Cleanup(func() { stdout = os.Stdout })

	err = run(command)
	return buf.Bytes(), err
}

func mustExecute(t *testing.T, dir string, args ...string) []byte {
	t.Helper()
	out, err := execute(t, dir, args...)
	require.NoError(t, err, "%v", args)
	return out
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestSeedAndRead(t *testing.T) {
	dir := setupEnv(t)

	mustExecute(t, dir, "migrate")
	mustExecute(t, dir, "seed")
	// a second seed versions the home document
	mustExecute(t, dir, "seed")

	var list []map[string]any
	require.NoError(t, json.Unmarshal(mustExecute(t, dir, "collection", "list"), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "pages", list[0]["path"])

	var view map[string]any
	require.NoError(t, json.Unmarshal(mustExecute(t, dir, "document", "get", "pages", "1", "--locale", "fr"), &view))
	assert.Equal(t, "home", view["path"])
	assert.Equal(t, float64(2), view["version"])
	assert.Equal(t, "published", view["status"])

	var page map[string]any
	require.NoError(t, json.Unmarshal(mustExecute(t, dir, "document", "history", "pages", "1"), &page))
	assert.Equal(t, float64(2), page["meta"].(map[string]any)["total"])
}

func TestCollectionAndDocumentCommands(t *testing.T) {
	dir := setupEnv(t)
	mustExecute(t, dir, "migrate")

	schemaFile := writeFile(t, dir, "posts.yaml", `
path: posts
fields:
  - name: title
    type: text
    required: true
  - name: tags
    type: array
    fields:
      - name: tag
        type: text
`)
	var created map[string]any
	require.NoError(t, json.Unmarshal(mustExecute(t, dir, "collection", "create", schemaFile), &created))
	assert.Equal(t, "posts", created["path"])

	docFile := writeFile(t, dir, "post.json", `{"title": "Hello", "tags": [{}, {"tag": "go"}]}`)
	var res map[string]any
	require.NoError(t, json.Unmarshal(mustExecute(t, dir, "document", "put", "posts", docFile,
		"--path", "hello", "--status", "published"), &res))
	assert.Equal(t, true, res["created"])
	assert.Equal(t, float64(1), res["version"])

	var view map[string]any
	require.NoError(t, json.Unmarshal(mustExecute(t, dir, "document", "get", "posts", "1"), &view))
	assert.Equal(t, []any{map[string]any{}, map[string]any{"tag": "go"}}, view["data"].(map[string]any)["tags"])

	// an invalid schema is a schema error
	badFile := writeFile(t, dir, "bad.yaml", "path: Bad Path\nfields: []\n")
	_, err := execute(t, dir, "collection", "create", badFile)
	assert.True(t, types.IsSchema(err), "got %v", err)

	// an invalid document is a validation error
	invalid := writeFile(t, dir, "invalid.json", `{"tags": []}`)
	_, err = execute(t, dir, "document", "put", "posts", invalid, "--path", "nope")
	assert.True(t, types.IsValidation(err), "got %v", err)

	mustExecute(t, dir, "collection", "delete", "posts")
	_, err = execute(t, dir, "document", "get", "posts", "1")
	assert.True(t, types.IsNotFound(err), "got %v", err)
}

func TestRunConfigurationError(t *testing.T) {
	dir := setupEnv(t)
	t.Setenv("DB_DATABASE", "")

	_, err := execute(t, dir, "collection", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration")
}

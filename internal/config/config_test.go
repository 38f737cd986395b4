package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_TYPE", "")
	t.Setenv("DB_DATABASE", "content.db")
	t.Setenv("DB_PORT", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, "sqlite", cfg.DBType)
	assert.True(t, cfg.IsSQLite())
	assert.Equal(t, 5, cfg.DBConnectionLimit)
	assert.Equal(t, 20, cfg.PageSizeDefault)
	assert.Equal(t, 100, cfg.PageSizeMax)
	assert.Equal(t, 200, cfg.InsertBatchSize)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.SQLLog)
}

func TestLoadNetworkDatabase(t *testing.T) {
	t.Setenv("DB_TYPE", "Postgres")
	t.Setenv("DB_DATABASE", "contentdb")
	t.Setenv("DB_USER", "contentdb")
	t.Setenv("DB_PORT", "")
	t.Setenv("SQL_LOG", "true")
	t.Setenv("PAGE_SIZE_DEFAULT", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.DBType)
	assert.False(t, cfg.IsSQLite())
	assert.Equal(t, "5432", cfg.DBPort)
	assert.True(t, cfg.SQLLog)
	assert.Equal(t, 20, cfg.PageSizeDefault, "unparsable values fall back to defaults")
}

func TestDefaultPort(t *testing.T) {
	assert.Equal(t, "5432", defaultPort("postgresql"))
	assert.Equal(t, "1433", defaultPort("sqlserver"))
	assert.Equal(t, "3306", defaultPort("mariadb"))
	assert.Equal(t, "3306", defaultPort("mysql"))
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"no database", map[string]string{"DB_DATABASE": ""}},
		{"no user", map[string]string{"DB_TYPE": "mysql", "DB_USER": ""}},
		{"connection limit", map[string]string{"DB_CONNECTION_LIMIT": "0"}},
		{"page size", map[string]string{"PAGE_SIZE_DEFAULT": "50", "PAGE_SIZE_MAX": "10"}},
		{"batch size", map[string]string{"INSERT_BATCH_SIZE": "-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DB_TYPE", "sqlite")
			t.Setenv("DB_DATABASE", ":memory:")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

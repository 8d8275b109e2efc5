package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/audience/audience/audience/relational"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("AUDIENCE_CONFIG", "")

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "postgres", c.Dialect)
	assert.True(t, c.Strict)
	assert.Equal(t, "info", c.Log.Level)
	assert.Equal(t, "sqlite", c.Database.Backend)
	assert.Equal(t, "audience.db", c.Database.SQLitePath)
	assert.Equal(t, "contacts", c.Database.Table)
	assert.Equal(t, relational.Postgres, c.RelationalDialect())
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv("AUDIENCE_CONFIG", "")
	writeFile(t, dir, "audience.yaml", `
dialect: sqlite
strict: false
log:
  level: debug
database:
  backend: postgres
  postgres_dsn: postgres://localhost/audience
  table: people
`)
	t.Setenv("AUDIENCE_DATABASE_TABLE", "leads")

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "sqlite", c.Dialect)
	assert.Equal(t, relational.SQLite, c.RelationalDialect())
	assert.False(t, c.Strict)
	assert.Equal(t, "debug", c.Log.Level)
	assert.Equal(t, "postgres", c.Database.Backend)
	assert.Equal(t, "postgres://localhost/audience", c.Database.PostgresDSN)
	assert.Equal(t, "audience", c.Database.PostgresSchema)
	assert.Equal(t, "leads", c.Database.Table)
}

func TestLoadExplicitPath(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "custom.yaml", "dialect: pg\n")
	t.Setenv("AUDIENCE_CONFIG", p)

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, relational.Postgres, c.RelationalDialect())

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadRejectsUnknownDialect(t *testing.T) {
	p := writeFile(t, t.TempDir(), "audience.yaml", "dialect: oracle\n")
	_, err := Load(p)
	assert.ErrorContains(t, err, "oracle")
}

func TestRegistry(t *testing.T) {
	reg, err := Config{}.Registry()
	require.NoError(t, err)
	assert.True(t, reg.Has("business.company_name"))

	p := writeFile(t, t.TempDir(), "catalog.yaml", `
version: 1
fields:
  - key: contact.has_fax
    category: contact
    type: boolean
    operators: [isTrue, isFalse]
    column: has_fax
`)
	reg, err = Config{Catalog: p}.Registry()
	require.NoError(t, err)
	assert.Equal(t, []string{"contact.has_fax"}, reg.Keys())

	_, err = Config{Catalog: p + ".missing"}.Registry()
	assert.Error(t, err)
}

// chdir mirrors testing.T.Chdir (Go 1.24+): change directory and restore it
// on cleanup.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}

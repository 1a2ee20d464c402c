package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/graphport/wbclient/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	_ = os.Unsetenv("WBCLIENT_LOOKUP_BACKEND")
	t.Setenv("WBCLIENT_IMPORTER_API_URL", "https://importer.example.org")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, config.BackendImporter, cfg.LookupBackend())
	assert.Equal(t, 2.0, cfg.Wiki.EditsPerSec)
	assert.Equal(t, "postgres", cfg.Lookup.DatabaseDriver)
	assert.Equal(t, "P223", cfg.Import.SoftwareProperty)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("WBCLIENT_LOOKUP_BACKEND", "direct")
	t.Setenv("WBCLIENT_DATABASE_DSN", "postgres://wiki:secret@db/wikibase")
	t.Setenv("WBCLIENT_EDITS_PER_SEC", "0.5")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, config.BackendDirect, cfg.LookupBackend())
	assert.Equal(t, "postgres://wiki:secret@db/wikibase", cfg.Lookup.DatabaseDSN)
	assert.Equal(t, 0.5, cfg.Wiki.EditsPerSec)
}

func TestLoad_RejectsUnknownBackend(t *testing.T) {
	t.Setenv("WBCLIENT_LOOKUP_BACKEND", "carrier-pigeon")

	_, err := config.Load()
	assert.Error(t, err)
}

func TestLoad_DirectBackendRequiresDSN(t *testing.T) {
	t.Setenv("WBCLIENT_LOOKUP_BACKEND", "direct")
	_ = os.Unsetenv("WBCLIENT_DATABASE_DSN")

	_, err := config.Load()
	assert.Error(t, err)
}

func TestLoadFile_YAMLWithEnvPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wbclient.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
wiki:
  api_url: https://wiki.example.org/w/api.php
  sparql_url: https://query.example.org/sparql
  username: botuser
lookup:
  backend: importer
  importer_api_url: https://importer.example.org
import:
  software_property: P999
`), 0o600))

	t.Setenv("WBCLIENT_USER", "other-bot")

	cfg, err := config.LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "https://wiki.example.org/w/api.php", cfg.Wiki.APIURL)
	assert.Equal(t, "P999", cfg.Import.SoftwareProperty)
	// Env wins over file.
	assert.Equal(t, "other-bot", cfg.Wiki.Username)
}

func TestLoadFile_MissingFile(t *testing.T) {
	_, err := config.LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingDefaultFileUsesDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_MissingExplicitFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.hcl"))
	assert.Error(t, err)
}

func TestLoad_Overrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mggraph.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`
store {
  backend = "neo4j"
}
neo4j {
  uri      = "neo4j://graph:7687"
  password = "secret"
}
mdl {
  alphabet_size = 30
}
data_dir = "/var/lib/mggraph"
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, BackendNeo4j, cfg.Store.Backend)
	assert.Equal(t, "mggraph.db", cfg.Store.Path, "unset attributes keep defaults")
	assert.Equal(t, "neo4j://graph:7687", cfg.Neo4j.URI)
	assert.Equal(t, "neo4j", cfg.Neo4j.Database)
	assert.Equal(t, "secret", cfg.Neo4j.Password)
	assert.Equal(t, 30, cfg.MDL.AlphabetSize)
	assert.Equal(t, 7, cfg.MDL.FeatureTypes)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "/var/lib/mggraph/mggraph.db", cfg.StorePath())
}

func TestLoad_UnknownBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`store { backend = "redis" }`), 0o644))
	_, err := Load(path)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestDecode_SyntaxError(t *testing.T) {
	cfg := Default()
	err := cfg.Decode("settings", []byte(`store {`))
	assert.Error(t, err)
}

func TestDecode_JSON(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Decode("settings.json", []byte(`{"log": {"level": "debug", "format": "json"}}`)))
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestStorePath(t *testing.T) {
	cfg := Default()
	cfg.Store.Path = ":memory:"
	assert.Equal(t, ":memory:", cfg.StorePath())

	cfg.Store.Path = "g.db"
	cfg.DataDir = "data"
	assert.Equal(t, filepath.Join("data", "g.db"), cfg.StorePath())
}

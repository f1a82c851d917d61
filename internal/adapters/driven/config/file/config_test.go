package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praxis-labs/bubblesync/internal/core/domain"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad_ParsesFile(t *testing.T) {
	path := writeConfig(t, `
object_types = ["venue", "event"]
data_dir = "/tmp/bubblesync-test"

[source]
base_url = "https://app.example.com/api/1.1/obj"
page_size = 50

[chunking]
chunk_size = 1000
chunk_overlap = 100

[embedding]
provider = "openai"
model = "text-embedding-3-small"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"venue", "event"}, cfg.ObjectTypes)
	assert.Equal(t, "https://app.example.com/api/1.1/obj", cfg.Source.BaseURL)
	assert.Equal(t, 50, cfg.Source.PageSize)
	assert.Equal(t, 1000, cfg.Chunking.ChunkSize)
	assert.Equal(t, "openai", cfg.Embedding.Provider)
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
object_types = ["venue"]

[source]
base_url = "https://app.example.com/api/1.1/obj"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Source.PageSize)
	assert.Equal(t, 2.0, cfg.Source.RequestsPerSecond)
	assert.Equal(t, 20, cfg.Mapping.MinTextLength)
	assert.Equal(t, 10000, cfg.Mapping.MaxTextLength)
	assert.Equal(t, 4000, cfg.Chunking.ChunkSize)
	assert.Equal(t, 200, cfg.Chunking.ChunkOverlap)
	assert.Equal(t, "ollama", cfg.Embedding.Provider)
}

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, "ollama", cfg.Embedding.Provider)
	assert.Empty(t, cfg.Source.BaseURL)
}

func TestLoad_EnvTokenWins(t *testing.T) {
	t.Setenv(EnvBubbleToken, "env-token")
	path := writeConfig(t, `
object_types = ["venue"]

[source]
base_url = "https://app.example.com/api/1.1/obj"
token = "file-token"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env-token", cfg.Source.Token)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{
			ObjectTypes: []string{"venue"},
		}
		cfg.Source.BaseURL = "https://app.example.com/api/1.1/obj"
		cfg.ApplyDefaults()
		return cfg
	}

	assert.NoError(t, valid().Validate())

	missingURL := valid()
	missingURL.Source.BaseURL = ""
	assert.ErrorIs(t, missingURL.Validate(), domain.ErrInvalidInput)

	noTypes := valid()
	noTypes.ObjectTypes = nil
	assert.ErrorIs(t, noTypes.Validate(), domain.ErrInvalidInput)

	badOverlap := valid()
	badOverlap.Chunking.ChunkOverlap = badOverlap.Chunking.ChunkSize
	assert.ErrorIs(t, badOverlap.Validate(), domain.ErrInvalidInput)

	badProvider := valid()
	badProvider.Embedding.Provider = "mystery"
	assert.ErrorIs(t, badProvider.Validate(), domain.ErrInvalidInput)
}

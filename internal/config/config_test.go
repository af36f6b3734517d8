package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "hashing", cfg.Embedder.Type)
	assert.Equal(t, 384, cfg.Embedder.Hashing.Dimension)
	assert.Equal(t, 350, cfg.Chunker.MaxTokens)
	assert.Equal(t, 8, cfg.Retrieval.TopK)
	assert.InDelta(t, 0.3, cfg.Retrieval.RelevanceThreshold, 1e-12)
	assert.Equal(t, 3000, cfg.Answer.ContextChars)
	assert.Equal(t, "book_index", cfg.Retrieval.StoreName)
	assert.Equal(t, "filesystem", cfg.BlobStore.Type)
	assert.Equal(t, "mistralai/Mixtral-8x7B-Instruct-v0.1", cfg.Generator.Model)
	assert.Equal(t, 800, cfg.Generator.MaxTokens)
	assert.True(t, cfg.Ontology.Enabled)
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
embedder:
  type: openai
  openai:
    model: text-embedding-3-large
blob_store:
  type: sqlite
ontology:
  enabled: false
  dedup: exact
retrieval:
  top_k: 4
`)
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, cfg.Embedder.OpenAI)
	assert.Equal(t, "text-embedding-3-large", cfg.Embedder.OpenAI.Model)
	assert.Equal(t, "https://api.openai.com/v1", cfg.Embedder.OpenAI.BaseURL)
	assert.Equal(t, 32, cfg.Embedder.OpenAI.BatchSize)
	assert.Equal(t, "sk-test", cfg.Embedder.OpenAI.APIKey)
	assert.Equal(t, "data/ontorag.db", cfg.BlobStore.SQLitePath)
	assert.False(t, cfg.Ontology.Enabled)
	assert.Equal(t, "exact", cfg.Ontology.Dedup)
	assert.Equal(t, 4, cfg.Retrieval.TopK)
	assert.Equal(t, 3000, cfg.Answer.ContextChars)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("ONTORAG_STORE_NAME", "emma")
	t.Setenv("ONTORAG_TOP_K", "3")
	t.Setenv("ONTORAG_RELEVANCE_THRESHOLD", "0.45")
	t.Setenv("ONTORAG_BLOB_STORE", "memory")
	t.Setenv("ONTORAG_LOG_LEVEL", "DEBUG")
	t.Setenv("HF_TOKEN", "hf-secret")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "emma", cfg.Retrieval.StoreName)
	assert.Equal(t, 3, cfg.Retrieval.TopK)
	assert.InDelta(t, 0.45, cfg.Retrieval.RelevanceThreshold, 1e-12)
	assert.Equal(t, "memory", cfg.BlobStore.Type)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "hf-secret", cfg.Generator.APIKey)
}

func TestLoad_BadThresholdEnv(t *testing.T) {
	t.Setenv("ONTORAG_RELEVANCE_THRESHOLD", "high")
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]string{
		"unknown blob store": "blob_store:\n  type: redis\n",
		"zero max tokens":    "chunker:\n  max_tokens: -1\n",
		"s3 without section": "blob_store:\n  type: s3\n",
		"bad dedup":          "ontology:\n  dedup: fuzzy\n",
		"bad log format":     "log:\n  format: xml\n",
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestLoad_MalformedYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "embedder: [unclosed"))
	assert.Error(t, err)
}

func TestSave_OmitsCredentials(t *testing.T) {
	t.Setenv("HF_TOKEN", "hf-secret")
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	require.Equal(t, "hf-secret", cfg.Generator.APIKey)

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, Save(path, cfg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hf-secret")
	assert.Contains(t, string(data), "api_key_env: HF_TOKEN")

	reloaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Retrieval, reloaded.Retrieval)
	assert.Equal(t, cfg.Ontology, reloaded.Ontology)
}

package config

import (
	"testing"

	"github.com/Abraxas-365/docingest/adapters/huggingface"
	"github.com/Abraxas-365/docingest/datasource"
	"github.com/Abraxas-365/docingest/document"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 500, cfg.Chunk.Size)
	assert.Equal(t, 20, cfg.Chunk.Overlap)
	assert.Equal(t, "*.pdf", cfg.Load.Glob)
	assert.Equal(t, huggingface.DefaultModel, cfg.Embedding.Model)
	assert.Equal(t, 384, cfg.Store.Dimension)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DOCINGEST_CHUNK_SIZE", "800")
	t.Setenv("DOCINGEST_CHUNK_OVERLAP", "50")
	t.Setenv("DOCINGEST_LOAD_RECURSIVE", "true")
	t.Setenv("DOCINGEST_EMBEDDING_MODELS_DIR", "/tmp/models")
	t.Setenv("DOCINGEST_EMBEDDING_OFFLINE", "true")
	t.Setenv("DOCINGEST_STORE_DATABASE_URL", "postgres://localhost/docs")
	t.Setenv("DOCINGEST_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 800, cfg.Chunk.Size)
	assert.Equal(t, 50, cfg.Chunk.Overlap)
	assert.True(t, cfg.Load.Recursive)
	assert.Equal(t, "/tmp/models", cfg.Embedding.ModelsDir)
	assert.True(t, cfg.Embedding.Offline)
	assert.Equal(t, "postgres://localhost/docs", cfg.Store.DatabaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_Invalid(t *testing.T) {
	t.Run("overlap not below size", func(t *testing.T) {
		t.Setenv("DOCINGEST_CHUNK_SIZE", "100")
		t.Setenv("DOCINGEST_CHUNK_OVERLAP", "100")
		_, err := Load()
		assert.ErrorContains(t, err, "Overlap")
	})

	t.Run("unknown log level", func(t *testing.T) {
		t.Setenv("DOCINGEST_LOG_LEVEL", "loud")
		_, err := Load()
		assert.ErrorContains(t, err, "Level")
	})

	t.Run("non-numeric size", func(t *testing.T) {
		t.Setenv("DOCINGEST_CHUNK_SIZE", "big")
		_, err := Load()
		assert.Error(t, err)
	})
}

func TestTransformEnvKey(t *testing.T) {
	assert.Equal(t, "chunk.size", transformEnvKey("CHUNK_SIZE"))
	assert.Equal(t, "store.database_url", transformEnvKey("STORE_DATABASE_URL"))
	assert.Equal(t, "log", transformEnvKey("LOG"))
	assert.Equal(t, "", transformEnvKey("__"))
}

func TestConfig_Options(t *testing.T) {
	cfg := Default()
	cfg.Chunk.Size = 300
	cfg.Chunk.Overlap = 30
	cfg.Load.Recursive = true

	splitter, err := document.NewRecursiveCharacterSplitter(cfg.SplitterOptions()...)
	require.NoError(t, err)
	assert.Equal(t, 300, splitter.ChunkSize())
	assert.Equal(t, 30, splitter.ChunkOverlap())

	load := datasource.Apply(cfg.LoadOptions()...)
	assert.True(t, load.Recursive)
	assert.Equal(t, "*.pdf", load.Glob)

	cfg.Embedding.Offline = true
	opts := huggingface.DefaultOptions()
	for _, o := range cfg.EmbeddingOptions() {
		o(opts)
	}
	assert.Equal(t, huggingface.DownloadNever, opts.DownloadPolicy)
	assert.Equal(t, cfg.Embedding.ModelsDir, opts.ModelsDir)
}

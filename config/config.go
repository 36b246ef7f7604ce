// Package config loads application settings from defaults and DOCINGEST_*
// environment variables.
package config

import (
	"fmt"
	"strings"

	"github.com/Abraxas-365/docingest/adapters/huggingface"
	"github.com/Abraxas-365/docingest/adapters/pgvectore"
	"github.com/Abraxas-365/docingest/datasource"
	"github.com/Abraxas-365/docingest/document"
	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is stripped from environment variable names before mapping
// them to config paths.
const EnvPrefix = "DOCINGEST_"

type Config struct {
	Chunk     ChunkConfig     `koanf:"chunk"`
	Load      LoadConfig      `koanf:"load"`
	Embedding EmbeddingConfig `koanf:"embedding"`
	Store     StoreConfig     `koanf:"store"`
	Log       LogConfig       `koanf:"log"`
}

type ChunkConfig struct {
	Size    int `koanf:"size"    validate:"gt=0"`
	Overlap int `koanf:"overlap" validate:"gte=0,ltfield=Size"`
}

type LoadConfig struct {
	Recursive bool   `koanf:"recursive"`
	Glob      string `koanf:"glob"      validate:"required"`
}

type EmbeddingConfig struct {
	Model     string `koanf:"model"      validate:"required"`
	ModelsDir string `koanf:"models_dir"`
	Offline   bool   `koanf:"offline"`
	BatchSize int    `koanf:"batch_size" validate:"gt=0"`
}

type StoreConfig struct {
	DatabaseURL string `koanf:"database_url"`
	Table       string `koanf:"table"        validate:"required"`
	Dimension   int    `koanf:"dimension"    validate:"gt=0"`
}

type LogConfig struct {
	Level string `koanf:"level" validate:"oneof=debug info warn error disabled"`
	JSON  bool   `koanf:"json"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Chunk: ChunkConfig{
			Size:    document.DefaultChunkSize,
			Overlap: document.DefaultChunkOverlap,
		},
		Load: LoadConfig{
			Glob: datasource.DefaultGlob,
		},
		Embedding: EmbeddingConfig{
			Model:     huggingface.DefaultModel,
			ModelsDir: huggingface.DefaultModelsDir(),
			BatchSize: huggingface.DefaultBatchSize,
		},
		Store: StoreConfig{
			Table:     pgvectore.DefaultTableName,
			Dimension: pgvectore.DefaultDimension,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load layers environment overrides over the defaults and validates the
// result.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if err := k.Load(env.Provider(".", env.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(key, value string) (string, any) {
			return transformEnvKey(strings.TrimPrefix(key, EnvPrefix)), value
		},
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints, including chunk overlap < chunk size.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

// transformEnvKey converts environment variable names to koanf paths.
// For example: CHUNK_SIZE -> chunk.size, STORE_DATABASE_URL -> store.database_url
func transformEnvKey(s string) string {
	parts := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return r == '_'
	})
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	default:
		return parts[0] + "." + strings.Join(parts[1:], "_")
	}
}

// SplitterOptions returns the chunking settings as splitter options.
func (c *Config) SplitterOptions() []document.SplitterOption {
	return []document.SplitterOption{
		document.WithChunkSize(c.Chunk.Size),
		document.WithChunkOverlap(c.Chunk.Overlap),
	}
}

// LoadOptions returns the loading settings as data source options.
func (c *Config) LoadOptions() []datasource.Option {
	return []datasource.Option{
		datasource.WithRecursive(c.Load.Recursive),
		datasource.WithGlob(c.Load.Glob),
	}
}

// EmbeddingOptions returns the model settings as factory options.
func (c *Config) EmbeddingOptions() []huggingface.Option {
	policy := huggingface.DownloadMissing
	if c.Embedding.Offline {
		policy = huggingface.DownloadNever
	}
	return []huggingface.Option{
		huggingface.WithModel(c.Embedding.Model),
		huggingface.WithModelsDir(c.Embedding.ModelsDir),
		huggingface.WithBatchSize(c.Embedding.BatchSize),
		huggingface.WithDownloadPolicy(policy),
	}
}

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned when a loaded config fails validation.
var ErrInvalidConfig = errors.New("invalid config")

// EnvPrefix prefixes every environment override, e.g. ONTORAG_TOP_K.
const EnvPrefix = "ONTORAG"

// OpenAIEmbedderConfig holds configuration for the OpenAI-compatible embedder.
type OpenAIEmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model" validate:"required"`
	TimeoutSecs int    `yaml:"timeout_secs" validate:"gte=0"`
	BatchSize   int    `yaml:"batch_size" validate:"gt=0"`

	APIKey string `yaml:"-"`
}

// HashingEmbedderConfig configures the offline feature-hashing embedder.
type HashingEmbedderConfig struct {
	Dimension int `yaml:"dimension" validate:"gt=0"`
}

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	Type    string                `yaml:"type" validate:"oneof=hashing openai"`
	Hashing HashingEmbedderConfig `yaml:"hashing"`
	OpenAI  *OpenAIEmbedderConfig `yaml:"openai,omitempty" validate:"required_if=Type openai"`
}

// GeneratorConfig configures the chat completion service.
type GeneratorConfig struct {
	BaseURL     string  `yaml:"base_url" validate:"required"`
	APIKeyEnv   string  `yaml:"api_key_env"`
	Model       string  `yaml:"model" validate:"required"`
	Temperature float32 `yaml:"temperature" validate:"gte=0,lte=2"`
	MaxTokens   int     `yaml:"max_tokens" validate:"gt=0"`
	TimeoutSecs int     `yaml:"timeout_secs" validate:"gte=0"`

	APIKey string `yaml:"-"`
}

// ChunkerConfig configures how documents are split into chunks.
type ChunkerConfig struct {
	MaxTokens int `yaml:"max_tokens" validate:"gt=0"`
}

// S3Config points the blob store at an S3-compatible bucket.
type S3Config struct {
	Bucket       string `yaml:"bucket" validate:"required"`
	Region       string `yaml:"region"`
	Endpoint     string `yaml:"endpoint"`
	Prefix       string `yaml:"prefix"`
	UsePathStyle bool   `yaml:"use_path_style"`
	AccessKeyEnv string `yaml:"access_key_env"`
	SecretKeyEnv string `yaml:"secret_key_env"`

	AccessKeyID     string `yaml:"-"`
	SecretAccessKey string `yaml:"-"`
}

// BlobStoreConfig selects where index, chunk and session artifacts live.
type BlobStoreConfig struct {
	Type       string    `yaml:"type" validate:"oneof=filesystem memory sqlite s3"`
	Dir        string    `yaml:"dir" validate:"required_if=Type filesystem"`
	SQLitePath string    `yaml:"sqlite_path" validate:"required_if=Type sqlite"`
	S3         *S3Config `yaml:"s3,omitempty" validate:"required_if=Type s3"`
}

// RetrievalConfig configures the retriever and its relevance gate.
type RetrievalConfig struct {
	StoreName          string  `yaml:"store_name" validate:"required"`
	TopK               int     `yaml:"top_k" validate:"gt=0"`
	RelevanceThreshold float64 `yaml:"relevance_threshold" validate:"gte=-1,lte=1"`
}

// AnswerConfig configures prompt assembly for answers.
type AnswerConfig struct {
	ContextChars int `yaml:"context_chars" validate:"gt=0"`
}

// OntologyConfig configures per-chunk ontology extraction.
type OntologyConfig struct {
	Enabled           bool    `yaml:"enabled"`
	PromptDir         string  `yaml:"prompt_dir"`
	ChunkPrefix       int     `yaml:"chunk_prefix" validate:"gt=0"`
	MaxChunks         int     `yaml:"max_chunks" validate:"gte=0"`
	Concurrency       int     `yaml:"concurrency" validate:"gt=0"`
	RequestsPerSecond float64 `yaml:"requests_per_second" validate:"gte=0"`
	Burst             int     `yaml:"burst" validate:"gte=0"`
	Dedup             string  `yaml:"dedup" validate:"oneof=casefold exact"`
}

// SummarizerConfig configures the extractive summary.
type SummarizerConfig struct {
	MaxSentences int `yaml:"max_sentences" validate:"gt=0"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=json console"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Embedder   EmbedderConfig   `yaml:"embedder"`
	Generator  GeneratorConfig  `yaml:"generator"`
	Chunker    ChunkerConfig    `yaml:"chunker"`
	BlobStore  BlobStoreConfig  `yaml:"blob_store"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
	Answer     AnswerConfig     `yaml:"answer"`
	Ontology   OntologyConfig   `yaml:"ontology"`
	Summarizer SummarizerConfig `yaml:"summarizer"`
	Log        LogConfig        `yaml:"log"`
}

// envOverrides are the settings that can be changed without editing YAML.
type envOverrides struct {
	StoreName          string `envconfig:"STORE_NAME"`
	Embedder           string `envconfig:"EMBEDDER"`
	BlobStore          string `envconfig:"BLOB_STORE"`
	BlobDir            string `envconfig:"BLOB_DIR"`
	TopK               int    `envconfig:"TOP_K"`
	RelevanceThreshold string `envconfig:"RELEVANCE_THRESHOLD"`
	ContextChars       int    `envconfig:"CONTEXT_CHARS"`
	LogLevel           string `envconfig:"LOG_LEVEL"`
	LogFormat          string `envconfig:"LOG_FORMAT"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
// Environment overrides and credentials are applied before validation.
func Load(path string) (*AppConfig, error) {
	_ = godotenv.Load()

	cfg := defaultConfig()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	return finish(cfg)
}

func finish(cfg *AppConfig) (*AppConfig, error) {
	applyConfigDefaults(cfg)
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	resolveCredentials(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/ontorag/config.yaml.
// If neither exists, it writes defaults to ~/.config/ontorag/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	if err := Save(userPath, defaultConfig()); err != nil {
		return nil, "", err
	}
	cfg, err := Load(userPath)
	return cfg, userPath, err
}

// Save writes the config to the given path, creating directories as needed.
// Credentials are never written.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

var validate = validator.New()

// Validate checks cfg against its validate tags.
func Validate(cfg *AppConfig) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), "AppConfig.")
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", field, fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s failed %s", field, fe.Tag()))
		}
	}
	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "ontorag", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	return &AppConfig{
		Embedder: EmbedderConfig{Type: "hashing", Hashing: HashingEmbedderConfig{Dimension: 384}},
		Generator: GeneratorConfig{
			BaseURL:     "https://router.huggingface.co/together/v1",
			APIKeyEnv:   "HF_TOKEN",
			Model:       "mistralai/Mixtral-8x7B-Instruct-v0.1",
			Temperature: 0.2,
			MaxTokens:   800,
			TimeoutSecs: 60,
		},
		Chunker:    ChunkerConfig{MaxTokens: 350},
		BlobStore:  BlobStoreConfig{Type: "filesystem", Dir: "data/vector_store"},
		Retrieval:  RetrievalConfig{StoreName: "book_index", TopK: 8, RelevanceThreshold: 0.3},
		Answer:     AnswerConfig{ContextChars: 3000},
		Ontology: OntologyConfig{
			Enabled:     true,
			ChunkPrefix: 2000,
			MaxChunks:   8,
			Concurrency: 4,
			Dedup:       "casefold",
		},
		Summarizer: SummarizerConfig{MaxSentences: 3},
		Log:        LogConfig{Level: "info", Format: "console"},
	}
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "hashing"
	}
	if cfg.Embedder.Hashing.Dimension == 0 {
		cfg.Embedder.Hashing.Dimension = 384
	}
	if cfg.Embedder.Type == "openai" && cfg.Embedder.OpenAI != nil {
		if cfg.Embedder.OpenAI.BaseURL == "" {
			cfg.Embedder.OpenAI.BaseURL = "https://api.openai.com/v1"
		}
		if cfg.Embedder.OpenAI.APIKeyEnv == "" {
			cfg.Embedder.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
		}
		if cfg.Embedder.OpenAI.Model == "" {
			cfg.Embedder.OpenAI.Model = "text-embedding-3-small"
		}
		if cfg.Embedder.OpenAI.TimeoutSecs == 0 {
			cfg.Embedder.OpenAI.TimeoutSecs = 30
		}
		if cfg.Embedder.OpenAI.BatchSize == 0 {
			cfg.Embedder.OpenAI.BatchSize = 32
		}
	}
	if cfg.Generator.APIKeyEnv == "" {
		cfg.Generator.APIKeyEnv = "HF_TOKEN"
	}
	if cfg.BlobStore.Type == "" {
		cfg.BlobStore.Type = "filesystem"
	}
	if cfg.BlobStore.Type == "sqlite" && cfg.BlobStore.SQLitePath == "" {
		cfg.BlobStore.SQLitePath = "data/ontorag.db"
	}
	if s3 := cfg.BlobStore.S3; s3 != nil {
		if s3.AccessKeyEnv == "" {
			s3.AccessKeyEnv = "AWS_ACCESS_KEY_ID"
		}
		if s3.SecretKeyEnv == "" {
			s3.SecretKeyEnv = "AWS_SECRET_ACCESS_KEY"
		}
	}
	if cfg.Ontology.Dedup == "" {
		cfg.Ontology.Dedup = "casefold"
	}
}

func applyEnv(cfg *AppConfig) error {
	var env envOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return fmt.Errorf("failed to process environment: %w", err)
	}
	if env.StoreName != "" {
		cfg.Retrieval.StoreName = env.StoreName
	}
	if env.Embedder != "" {
		cfg.Embedder.Type = env.Embedder
	}
	if env.BlobStore != "" {
		cfg.BlobStore.Type = env.BlobStore
	}
	if env.BlobDir != "" {
		cfg.BlobStore.Dir = env.BlobDir
	}
	if env.TopK != 0 {
		cfg.Retrieval.TopK = env.TopK
	}
	if env.RelevanceThreshold != "" {
		v, err := strconv.ParseFloat(env.RelevanceThreshold, 64)
		if err != nil {
			return fmt.Errorf("%s_RELEVANCE_THRESHOLD: %w", EnvPrefix, err)
		}
		cfg.Retrieval.RelevanceThreshold = v
	}
	if env.ContextChars != 0 {
		cfg.Answer.ContextChars = env.ContextChars
	}
	if env.LogLevel != "" {
		cfg.Log.Level = strings.ToLower(env.LogLevel)
	}
	if env.LogFormat != "" {
		cfg.Log.Format = strings.ToLower(env.LogFormat)
	}
	return nil
}

func resolveCredentials(cfg *AppConfig) {
	cfg.Generator.APIKey = os.Getenv(cfg.Generator.APIKeyEnv)
	if o := cfg.Embedder.OpenAI; o != nil {
		o.APIKey = os.Getenv(o.APIKeyEnv)
	}
	if s3 := cfg.BlobStore.S3; s3 != nil {
		s3.AccessKeyID = os.Getenv(s3.AccessKeyEnv)
		s3.SecretAccessKey = os.Getenv(s3.SecretKeyEnv)
	}
}

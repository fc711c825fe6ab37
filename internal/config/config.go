// Package config provides application configuration management with
// multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. Config file (~/.valet/config.yaml, or ./config.yaml)
//  3. Default values
//
// Main configuration categories:
//   - AI: OpenAI chat model, embedding model, round budget
//   - RAG: chunk size, chunk overlap, retrieval top-k
//   - Storage: PostgreSQL connection (see storage.go)
//   - Google: OAuth client credentials and token locations for the
//     calendar and Gmail tools
//
// Sensitive values (API key, database password) are masked in MarshalJSON
// and String so a Config can be logged safely.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrMissingAPIKey indicates the OpenAI API key is missing.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrInvalidModelName indicates the chat model name is invalid.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidEmbedderModel indicates the embedding model is invalid.
	ErrInvalidEmbedderModel = errors.New("invalid embedder model")

	// ErrInvalidChunking indicates the chunk size/overlap pair is invalid.
	ErrInvalidChunking = errors.New("invalid chunking parameters")

	// ErrInvalidTopK indicates the retrieval top-k is out of range.
	ErrInvalidTopK = errors.New("invalid retrieval top-k")

	// ErrInvalidMaxRounds indicates the tool-call round budget is out of range.
	ErrInvalidMaxRounds = errors.New("invalid max rounds")

	// ErrInvalidPostgresHost indicates the PostgreSQL host is invalid.
	ErrInvalidPostgresHost = errors.New("invalid PostgreSQL host")

	// ErrInvalidPostgresPort indicates the PostgreSQL port is out of range.
	ErrInvalidPostgresPort = errors.New("invalid PostgreSQL port")

	// ErrInvalidPostgresDBName indicates the PostgreSQL database name is invalid.
	ErrInvalidPostgresDBName = errors.New("invalid PostgreSQL database name")

	// ErrInvalidPostgresSSLMode indicates the PostgreSQL SSL mode is invalid.
	ErrInvalidPostgresSSLMode = errors.New("invalid PostgreSQL SSL mode")
)

// Default model configuration. text-embedding-3-small produces
// 1536-dimensional vectors; the pgvector schema in db/migrations depends
// on this dimension (see knowledge.VectorDimension).
const (
	DefaultChatModel      = "gpt-4o-mini"
	DefaultEmbeddingModel = "text-embedding-3-small"

	// DefaultMaxRounds bounds the tool-call loop per Process invocation.
	DefaultMaxRounds = 5

	// DefaultChunkSize and DefaultChunkOverlap control document chunking.
	DefaultChunkSize    = 800
	DefaultChunkOverlap = 200

	// DefaultTopK is the default number of retrieved chunks per query.
	DefaultTopK = 5
)

// App environment values used in Config.AppEnv.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config stores application configuration.
// SECURITY: sensitive fields are explicitly masked in MarshalJSON().
type Config struct {
	// AI configuration
	OpenAIAPIKey   string `mapstructure:"openai_api_key" json:"openai_api_key"` // SENSITIVE: masked in MarshalJSON
	ChatModel      string `mapstructure:"chat_model" json:"chat_model"`
	EmbeddingModel string `mapstructure:"embedding_model" json:"embedding_model"`
	MaxRounds      int    `mapstructure:"max_rounds" json:"max_rounds"`

	// RAG configuration
	ChunkSize    int `mapstructure:"chunk_size" json:"chunk_size"`
	ChunkOverlap int `mapstructure:"chunk_overlap" json:"chunk_overlap"`
	TopK         int `mapstructure:"top_k" json:"top_k"`

	// Application
	AppEnv   string `mapstructure:"app_env" json:"app_env"`
	LogLevel string `mapstructure:"log_level" json:"log_level"`
	HTTPAddr string `mapstructure:"http_addr" json:"http_addr"`
	DataDir  string `mapstructure:"data_dir" json:"data_dir"`

	// Storage configuration (see storage.go)
	PostgresHost     string `mapstructure:"postgres_host" json:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port" json:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user" json:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password" json:"postgres_password"` // SENSITIVE: masked in MarshalJSON
	PostgresDBName   string `mapstructure:"postgres_db_name" json:"postgres_db_name"`
	PostgresSSLMode  string `mapstructure:"postgres_ssl_mode" json:"postgres_ssl_mode"`

	// Google OAuth client configuration for the calendar and Gmail tools.
	// Token acquisition happens out-of-band; only previously stored tokens
	// are loaded at tool-invocation time.
	GoogleCredentialsFile string `mapstructure:"google_credentials_file" json:"google_credentials_file"`
	GoogleTokenDir        string `mapstructure:"google_token_dir" json:"google_token_dir"`
}

// Load loads configuration.
// Priority: environment variables > configuration file > defaults.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".valet")
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)
	viper.AddConfigPath(".")

	setDefaults(configDir)
	bindEnvVariables()

	if err := viper.ReadInConfig(); err != nil {
		// A missing config file is not an error; defaults apply.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using defaults",
			"search_paths", []string{configDir, "."})
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	// DATABASE_URL, when set, overrides the individual postgres_* values.
	if err := cfg.parseDatabaseURL(); err != nil {
		return nil, fmt.Errorf("parsing DATABASE_URL: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults(configDir string) {
	viper.SetDefault("chat_model", DefaultChatModel)
	viper.SetDefault("embedding_model", DefaultEmbeddingModel)
	viper.SetDefault("max_rounds", DefaultMaxRounds)

	viper.SetDefault("chunk_size", DefaultChunkSize)
	viper.SetDefault("chunk_overlap", DefaultChunkOverlap)
	viper.SetDefault("top_k", DefaultTopK)

	viper.SetDefault("app_env", EnvDevelopment)
	viper.SetDefault("log_level", "info")
	viper.SetDefault("http_addr", "127.0.0.1:8000")
	viper.SetDefault("data_dir", filepath.Join(configDir, "data"))

	viper.SetDefault("postgres_host", "localhost")
	viper.SetDefault("postgres_port", 5432)
	viper.SetDefault("postgres_user", "valet")
	viper.SetDefault("postgres_password", "valet_dev_password")
	viper.SetDefault("postgres_db_name", "valet")
	viper.SetDefault("postgres_ssl_mode", "disable")

	viper.SetDefault("google_credentials_file", filepath.Join(configDir, "credentials.json"))
	viper.SetDefault("google_token_dir", configDir)
}

// bindEnvVariables binds environment variables explicitly.
func bindEnvVariables() {
	// Hardcoded keys cannot fail to bind; a panic here is a bug.
	mustBind := func(key, envVar string) {
		if err := viper.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("openai_api_key", "OPENAI_API_KEY")
	mustBind("app_env", "APP_ENV")
	mustBind("log_level", "LOG_LEVEL")
	mustBind("http_addr", "VALET_HTTP_ADDR")
	mustBind("chat_model", "VALET_CHAT_MODEL")
	mustBind("embedding_model", "VALET_EMBEDDING_MODEL")
	mustBind("google_credentials_file", "GOOGLE_CREDENTIALS_FILE")
}

// IsDevelopment reports whether the app runs in development mode.
// Development mode surfaces error detail in API responses.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == EnvDevelopment
}

// maskedValue is the placeholder for masked sensitive data.
const maskedValue = "████████"

// maskSecret masks a secret string for safe logging. Secrets of 8 bytes or
// fewer are fully masked; longer ones keep the first and last 2 characters
// for debug utility.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return maskedValue
	}
	return s[:2] + "<" + maskedValue + ">" + s[len(s)-2:]
}

// MarshalJSON implements json.Marshaler with explicit sensitive field masking.
// When adding new sensitive fields, update this method.
func (c Config) MarshalJSON() ([]byte, error) {
	type alias Config
	a := alias(c)
	a.OpenAIAPIKey = maskSecret(a.OpenAIAPIKey)
	a.PostgresPassword = maskSecret(a.PostgresPassword)
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

// String implements Stringer to prevent accidental printing of secrets.
func (c Config) String() string {
	data, err := c.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("Config{error: %v}", err)
	}
	return string(data)
}
